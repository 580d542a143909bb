package minefield

import (
	"encoding/json"

	"arcade/internal/game"
)

// Preset is a board size and mine count.
type Preset struct {
	Rows  int `json:"rows"`
	Cols  int `json:"cols"`
	Mines int `json:"mines"`
}

// DefaultDifficulty is used when a match config names none.
const DefaultDifficulty = "medium"

// Custom selects a board described by the match options.
const Custom = "custom"

// Custom boards may not exceed MaxCustomSize rows or columns.
const MaxCustomSize = 30

// Presets are the classic board sizes.
var Presets = map[string]Preset{
	"easy":   {Rows: 8, Cols: 8, Mines: 10},
	"medium": {Rows: 9, Cols: 9, Mines: 10},
	"hard":   {Rows: 16, Cols: 16, Mines: 40},
	"expert": {Rows: 16, Cols: 30, Mines: 99},
}

// resolvePreset maps a difficulty name (and options for custom boards) to a
// Preset.
func resolvePreset(difficulty string, options json.RawMessage) (string, Preset, error) {
	if difficulty == "" {
		difficulty = DefaultDifficulty
	}
	if difficulty == Custom {
		var p Preset
		if len(options) == 0 {
			return "", Preset{}, game.Configf("custom board needs rows, cols and mines")
		}
		if err := json.Unmarshal(options, &p); err != nil {
			return "", Preset{}, game.Configf("custom board options: %v", err)
		}
		if p.Rows > MaxCustomSize || p.Cols > MaxCustomSize {
			return "", Preset{}, game.Configf("custom board %dx%d exceeds %dx%d", p.Rows, p.Cols, MaxCustomSize, MaxCustomSize)
		}
		return difficulty, p, nil
	}
	p, ok := Presets[difficulty]
	if !ok {
		return "", Preset{}, game.Configf("unknown difficulty %q", difficulty)
	}
	return difficulty, p, nil
}
