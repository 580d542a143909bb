package minefield

import (
	"encoding/json"
	"fmt"

	"arcade/internal/game"
)

// Minesweeper implements game.Game.
type Minesweeper struct{}

func (Minesweeper) Info() game.GameInfo {
	return game.GameInfo{
		Name:         "minesweeper",
		Title:        "Minesweeper",
		MinPlayers:   1,
		MaxPlayers:   1,
		Difficulties: []string{"easy", "medium", "hard", "expert", Custom},
		Default:      DefaultDifficulty,
	}
}

func (Minesweeper) NewMatch(config game.MatchConfig) (game.Match, error) {
	difficulty, preset, err := resolvePreset(config.Difficulty, config.Options)
	if err != nil {
		return nil, err
	}
	g, err := New(preset.Rows, preset.Cols, preset.Mines, WithSeed(config.NewSeed()))
	if err != nil {
		return nil, err
	}
	m := &Match{Difficulty: difficulty, game: g}
	if len(config.PlayerIDs) > 0 {
		m.Player = config.PlayerIDs[0]
	}
	return m, nil
}

// Match implements game.Match for Minesweeper.
type Match struct {
	Player     string
	Difficulty string
	Moves      int
	game       *Game
	hint       *Point
}

// Game exposes the underlying engine.
func (m *Match) Game() *Game { return m.game }

// CellView is one cell as the player sees it.
type CellView struct {
	State string `json:"state"` // hidden, flagged, opened, mine
	Count int    `json:"count,omitempty"`
}

type stateView struct {
	Rows           int          `json:"rows"`
	Cols           int          `json:"cols"`
	Cells          [][]CellView `json:"cells"`
	MinesRemaining int          `json:"minesRemaining"`
	Elapsed        int          `json:"elapsed"`
	Outcome        Outcome      `json:"outcome"`
	Difficulty     string       `json:"difficulty"`
	Hint           *Point       `json:"hint,omitempty"`
}

func (m *Match) State(playerID string) any {
	g := m.game
	cells := newGrid[CellView](g.rows, g.cols)
	for r := 0; r < g.rows; r++ {
		for c := 0; c < g.cols; c++ {
			v := CellView{State: "hidden"}
			switch {
			case g.revealed[r][c] && g.counts[r][c] == Mine:
				v.State = "mine"
			case g.revealed[r][c]:
				v.State = "opened"
				v.Count = g.counts[r][c]
			case g.flagged[r][c]:
				v.State = "flagged"
			}
			// Finished boards show where every mine was.
			if g.counts[r][c] == Mine {
				switch g.outcome {
				case Lost:
					v.State = "mine"
				case Won:
					v.State = "flagged"
				}
			}
			cells[r][c] = v
		}
	}
	return stateView{
		Rows:           g.rows,
		Cols:           g.cols,
		Cells:          cells,
		MinesRemaining: g.RemainingMineEstimate(),
		Elapsed:        g.elapsed,
		Outcome:        g.outcome,
		Difficulty:     m.Difficulty,
		Hint:           m.hint,
	}
}

type cellPayload struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// ValidActions lists the action types open to the player. Reveal and flag
// take a {row, col} payload.
func (m *Match) ValidActions(playerID string) []game.Action {
	if m.IsOver() || playerID != m.Player {
		return nil
	}
	actions := []game.Action{{Type: "reveal"}, {Type: "flag"}}
	if _, ok := m.game.Hint(); ok {
		actions = append(actions, game.Action{Type: "hint"})
	}
	return actions
}

func (m *Match) ApplyAction(playerID string, action game.Action) error {
	if playerID != m.Player {
		return game.InvalidMove("not your game")
	}
	if m.IsOver() {
		return game.InvalidMove("game is over")
	}
	switch action.Type {
	case "reveal":
		var p cellPayload
		if err := game.DecodePayload(action, &p); err != nil {
			return err
		}
		res, err := m.game.Reveal(p.Row, p.Col)
		if err != nil {
			return err
		}
		if len(res.Changed) == 0 {
			return game.InvalidMove("cell (%d,%d) is revealed or flagged", p.Row, p.Col)
		}
	case "flag":
		var p cellPayload
		if err := game.DecodePayload(action, &p); err != nil {
			return err
		}
		res, err := m.game.ToggleFlag(p.Row, p.Col)
		if err != nil {
			return err
		}
		if !res.Changed {
			return game.InvalidMove("cell (%d,%d) is already revealed", p.Row, p.Col)
		}
	case "hint":
		p, ok := m.game.Hint()
		if !ok {
			return game.InvalidMove("no hint available")
		}
		m.hint = &p
		return nil
	default:
		return game.InvalidMove("unknown action type: %s", action.Type)
	}
	m.Moves++
	m.hint = nil
	return nil
}

func (m *Match) IsOver() bool {
	return m.game.Terminal()
}

func (m *Match) Results() []game.PlayerResult {
	if !m.IsOver() {
		return nil
	}
	won := m.game.Outcome() == Won
	score := 0
	if won {
		score = MaxElapsed + 1 - m.game.Elapsed()
	}
	return []game.PlayerResult{{
		PlayerID: m.Player,
		Rank:     1,
		Score:    score,
		Won:      won,
		Elapsed:  m.game.Elapsed(),
		Moves:    m.Moves,
	}}
}

// Tick implements game.Ticker.
func (m *Match) Tick() bool {
	return m.game.Tick()
}

type persisted struct {
	Player     string   `json:"player"`
	Difficulty string   `json:"difficulty"`
	Moves      int      `json:"moves"`
	Board      Snapshot `json:"board"`
}

func (m *Match) MarshalJSON() ([]byte, error) {
	return json.Marshal(persisted{
		Player:     m.Player,
		Difficulty: m.Difficulty,
		Moves:      m.Moves,
		Board:      m.game.Snapshot(),
	})
}

func (m *Match) UnmarshalJSON(data []byte) error {
	var p persisted
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	g, err := Restore(p.Board)
	if err != nil {
		return fmt.Errorf("restore board: %w", err)
	}
	m.Player, m.Difficulty, m.Moves = p.Player, p.Difficulty, p.Moves
	m.game = g
	m.hint = nil
	return nil
}
