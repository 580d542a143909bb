package sudoku

import (
	"encoding/json"
	"fmt"

	"arcade/internal/game"
)

// DefaultDifficulty is used when a match config names none.
const DefaultDifficulty = "medium"

// Removals is how many cells each difficulty blanks out.
var Removals = map[string]int{
	"easy":   30,
	"medium": 40,
	"hard":   50,
	"expert": 60,
}

// Sudoku implements game.Game.
type Sudoku struct{}

func (Sudoku) Info() game.GameInfo {
	return game.GameInfo{
		Name:         "sudoku",
		Title:        "Sudoku",
		MinPlayers:   1,
		MaxPlayers:   1,
		Difficulties: []string{"easy", "medium", "hard", "expert"},
		Default:      DefaultDifficulty,
	}
}

func (Sudoku) NewMatch(config game.MatchConfig) (game.Match, error) {
	name := config.Difficulty
	if name == "" {
		name = DefaultDifficulty
	}
	n, ok := Removals[name]
	if !ok {
		return nil, game.Configf("unknown difficulty %q", name)
	}
	g, err := New(n, WithSeed(config.NewSeed()))
	if err != nil {
		return nil, err
	}
	m := &Match{Difficulty: name, game: g}
	if len(config.PlayerIDs) > 0 {
		m.Player = config.PlayerIDs[0]
	}
	return m, nil
}

// Match implements game.Match for Sudoku.
type Match struct {
	Player     string
	Difficulty string
	game       *Game
	checked    []Point
	lastHint   *Point
}

func (m *Match) Game() *Game { return m.game }

type stateView struct {
	Board      Grid             `json:"board"`
	Given      [Size][Size]bool `json:"given"`
	Conflicts  []Point          `json:"conflicts,omitempty"`
	Hint       *Point           `json:"hint,omitempty"`
	Solved     bool             `json:"solved"`
	Moves      int              `json:"moves"`
	Hints      int              `json:"hints"`
	Elapsed    int              `json:"elapsed"`
	Difficulty string           `json:"difficulty"`
}

func (m *Match) State(playerID string) any {
	g := m.game
	return stateView{
		Board:      g.board,
		Given:      g.given,
		Conflicts:  m.checked,
		Hint:       m.lastHint,
		Solved:     g.Solved(),
		Moves:      g.moves,
		Hints:      g.hints,
		Elapsed:    g.elapsed,
		Difficulty: m.Difficulty,
	}
}

type placePayload struct {
	Row   int `json:"row"`
	Col   int `json:"col"`
	Value int `json:"value,omitempty"`
}

// ValidActions lists the action types open to the player. Place takes
// {row, col, value}; clear takes {row, col}.
func (m *Match) ValidActions(playerID string) []game.Action {
	if m.IsOver() || playerID != m.Player {
		return nil
	}
	return []game.Action{{Type: "place"}, {Type: "clear"}, {Type: "hint"}, {Type: "check"}}
}

func (m *Match) ApplyAction(playerID string, action game.Action) error {
	if playerID != m.Player {
		return game.InvalidMove("not your game")
	}
	if m.IsOver() {
		return game.InvalidMove("puzzle is already solved")
	}
	var (
		res PlaceResult
		err error
	)
	switch action.Type {
	case "place", "clear":
		var p placePayload
		if err := game.DecodePayload(action, &p); err != nil {
			return err
		}
		if action.Type == "place" {
			res, err = m.game.Place(p.Row, p.Col, p.Value)
		} else {
			res, err = m.game.Clear(p.Row, p.Col)
		}
		if err != nil {
			return err
		}
		if !res.OK {
			return game.InvalidMove("%s", res.Reason)
		}
	case "hint":
		p, _, ok := m.game.Hint()
		if !ok {
			return game.InvalidMove("no empty cells left")
		}
		m.lastHint = &p
		m.checked = nil
		return nil
	case "check":
		m.checked = m.game.Conflicts()
		if m.checked == nil {
			m.checked = []Point{}
		}
		return nil
	default:
		return game.InvalidMove("unknown action type: %s", action.Type)
	}
	m.lastHint = nil
	m.checked = nil
	return nil
}

func (m *Match) IsOver() bool {
	return m.game.Solved()
}

func (m *Match) Results() []game.PlayerResult {
	if !m.IsOver() {
		return nil
	}
	return []game.PlayerResult{{
		PlayerID: m.Player,
		Rank:     1,
		Score:    max(0, Cells-m.game.hints),
		Won:      true,
		Elapsed:  m.game.elapsed,
		Moves:    m.game.moves,
	}}
}

// Tick implements game.Ticker.
func (m *Match) Tick() bool {
	return m.game.Tick()
}

type persisted struct {
	Player     string   `json:"player"`
	Difficulty string   `json:"difficulty"`
	Puzzle     Snapshot `json:"puzzle"`
}

func (m *Match) MarshalJSON() ([]byte, error) {
	return json.Marshal(persisted{Player: m.Player, Difficulty: m.Difficulty, Puzzle: m.game.Snapshot()})
}

func (m *Match) UnmarshalJSON(data []byte) error {
	var p persisted
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	g, err := Restore(p.Puzzle)
	if err != nil {
		return fmt.Errorf("restore puzzle: %w", err)
	}
	m.Player, m.Difficulty = p.Player, p.Difficulty
	m.game = g
	m.checked, m.lastHint = nil, nil
	return nil
}
