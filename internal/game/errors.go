package game

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
)

// ConfigError reports invalid construction parameters. It is fatal to the
// new game that was requested.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string { return "invalid game config: " + e.Reason }

// Configf returns a *ConfigError with a formatted reason.
func Configf(format string, args ...any) error {
	return &ConfigError{Reason: fmt.Sprintf(format, args...)}
}

// BoundsError reports coordinates outside the board.
type BoundsError struct {
	Row, Col   int
	Rows, Cols int
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("cell (%d,%d) outside %dx%d board", e.Row, e.Col, e.Rows, e.Cols)
}

// InvalidMoveError reports a rejected action. The match state is unchanged.
type InvalidMoveError struct {
	Reason string
}

func (e *InvalidMoveError) Error() string { return e.Reason }

// InvalidMove returns a *InvalidMoveError with a formatted reason.
func InvalidMove(format string, args ...any) error {
	return &InvalidMoveError{Reason: fmt.Sprintf(format, args...)}
}

func randomSeed() uint64 {
	var b [8]byte
	rand.Read(b[:])
	if s := binary.LittleEndian.Uint64(b[:]); s != 0 {
		return s
	}
	return 1
}
