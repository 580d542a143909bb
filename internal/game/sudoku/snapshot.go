package sudoku

import (
	"errors"
	"fmt"
)

// Snapshot is the plain-data form of a Game used for persistence.
type Snapshot struct {
	Board    Grid             `json:"board"`
	Solution Grid             `json:"solution"`
	Given    [Size][Size]bool `json:"given"`
	Moves    int              `json:"moves"`
	Hints    int              `json:"hints"`
	Elapsed  int              `json:"elapsed"`
}

func (g *Game) Snapshot() Snapshot {
	return Snapshot{
		Board:    g.board,
		Solution: g.solution,
		Given:    g.given,
		Moves:    g.moves,
		Hints:    g.hints,
		Elapsed:  g.elapsed,
	}
}

// Restore rebuilds a game, checking that the solution is a valid grid and
// that every given agrees with it.
func Restore(s Snapshot, opts ...Option) (*Game, error) {
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			v := s.Solution[r][c]
			if v < 1 || v > Size || !fits(&s.Solution, r, c, v) {
				return nil, fmt.Errorf("solution invalid at (%d,%d)", r, c)
			}
			if b := s.Board[r][c]; b < 0 || b > Size {
				return nil, fmt.Errorf("board digit %d at (%d,%d)", b, r, c)
			}
			if s.Given[r][c] && s.Board[r][c] != v {
				return nil, fmt.Errorf("given at (%d,%d) differs from the solution", r, c)
			}
		}
	}
	if s.Moves < 0 || s.Hints < 0 || s.Elapsed < 0 {
		return nil, errors.New("negative counters")
	}
	g := &Game{}
	for _, opt := range opts {
		opt(g)
	}
	if g.rng == nil {
		WithSeed(1)(g)
	}
	g.board, g.solution, g.given = s.Board, s.Solution, s.Given
	g.moves, g.hints, g.elapsed = s.Moves, s.Hints, s.Elapsed
	return g, nil
}
