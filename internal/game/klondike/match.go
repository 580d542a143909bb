package klondike

import (
	"encoding/json"
	"fmt"

	"arcade/internal/game"
)

// Difficulty is a named draw setting.
type Difficulty struct {
	DrawCount int
	Timed     bool
}

// DefaultDifficulty is used when a match config names none.
const DefaultDifficulty = "medium"

var Difficulties = map[string]Difficulty{
	"easy":   {DrawCount: 1},
	"medium": {DrawCount: 3},
	"hard":   {DrawCount: 3, Timed: true},
}

// Solitaire implements game.Game.
type Solitaire struct{}

func (Solitaire) Info() game.GameInfo {
	return game.GameInfo{
		Name:         "solitaire",
		Title:        "Solitaire",
		MinPlayers:   1,
		MaxPlayers:   1,
		Difficulties: []string{"easy", "medium", "hard"},
		Default:      DefaultDifficulty,
	}
}

func (Solitaire) NewMatch(config game.MatchConfig) (game.Match, error) {
	name := config.Difficulty
	if name == "" {
		name = DefaultDifficulty
	}
	d, ok := Difficulties[name]
	if !ok {
		return nil, game.Configf("unknown difficulty %q", name)
	}
	opts := []Option{WithSeed(config.NewSeed())}
	if d.Timed {
		opts = append(opts, Timed())
	}
	g, err := New(d.DrawCount, opts...)
	if err != nil {
		return nil, err
	}
	m := &Match{Difficulty: name, game: g}
	if len(config.PlayerIDs) > 0 {
		m.Player = config.PlayerIDs[0]
	}
	return m, nil
}

// Match implements game.Match for solitaire.
type Match struct {
	Player     string
	Difficulty string
	game       *Game
	hint       *Suggestion
}

// Game exposes the underlying engine.
func (m *Match) Game() *Game { return m.game }

// CardView shows a face-up card by id; face-down cards carry no id.
type CardView struct {
	ID     string `json:"id,omitempty"`
	FaceUp bool   `json:"faceUp"`
	Color  string `json:"color,omitempty"`
}

type stateView struct {
	Stock       int                        `json:"stock"`
	Waste       []CardView                 `json:"waste"`
	Foundations [NumFoundations][]CardView `json:"foundations"`
	Tableau     [NumTableau][]CardView     `json:"tableau"`
	DrawCount   int                        `json:"drawCount"`
	Moves       int                        `json:"moves"`
	Elapsed     int                        `json:"elapsed"`
	Won         bool                       `json:"won"`
	Difficulty  string                     `json:"difficulty"`
	Hint        *Suggestion                `json:"hint,omitempty"`
}

func viewPile(p []Card) []CardView {
	out := make([]CardView, len(p))
	for i, c := range p {
		if c.FaceUp {
			out[i] = CardView{ID: c.ID(), FaceUp: true, Color: c.Color().String()}
		}
	}
	return out
}

func (m *Match) State(playerID string) any {
	g := m.game
	v := stateView{
		Stock:      len(g.stock),
		Waste:      viewPile(g.waste),
		DrawCount:  g.drawCount,
		Moves:      g.moves,
		Elapsed:    g.elapsed,
		Won:        g.CheckWin(),
		Difficulty: m.Difficulty,
		Hint:       m.hint,
	}
	for i := range g.foundations {
		v.Foundations[i] = viewPile(g.foundations[i])
	}
	for i := range g.tableau {
		v.Tableau[i] = viewPile(g.tableau[i])
	}
	return v
}

type movePayload struct {
	Card string `json:"card"`
	From Zone   `json:"from"`
	To   Zone   `json:"to"`
}

// ValidActions lists a draw when the stock or waste holds cards, every
// legal card move, and a hint when one exists.
func (m *Match) ValidActions(playerID string) []game.Action {
	if m.IsOver() || playerID != m.Player {
		return nil
	}
	var actions []game.Action
	if len(m.game.stock) > 0 || len(m.game.waste) > 0 {
		actions = append(actions, game.Action{Type: "draw"})
	}
	for _, s := range m.game.LegalMoves() {
		actions = append(actions, game.MustAction("move", movePayload(s)))
	}
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
	case "draw":
		res := m.game.DrawFromStock()
		if len(res.Drawn) == 0 && !res.Recycled {
			return game.InvalidMove("stock and waste are empty")
		}
	case "move":
		var p movePayload
		if err := game.DecodePayload(action, &p); err != nil {
			return err
		}
		res := m.game.MoveCard(p.Card, p.From, p.To)
		if !res.OK {
			return game.InvalidMove("%s", res.Reason)
		}
	case "hint":
		s, ok := m.game.Hint()
		if !ok {
			return game.InvalidMove("no obvious moves, try drawing from the stock")
		}
		m.hint = &s
		return nil
	default:
		return game.InvalidMove("unknown action type: %s", action.Type)
	}
	m.hint = nil
	return nil
}

func (m *Match) IsOver() bool {
	return m.game.CheckWin()
}

func (m *Match) Results() []game.PlayerResult {
	if !m.IsOver() {
		return nil
	}
	return []game.PlayerResult{{
		PlayerID: m.Player,
		Rank:     1,
		Score:    1,
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
	Deal       Snapshot `json:"deal"`
}

func (m *Match) MarshalJSON() ([]byte, error) {
	return json.Marshal(persisted{Player: m.Player, Difficulty: m.Difficulty, Deal: m.game.Snapshot()})
}

func (m *Match) UnmarshalJSON(data []byte) error {
	var p persisted
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	g, err := Restore(p.Deal)
	if err != nil {
		return fmt.Errorf("restore deal: %w", err)
	}
	m.Player, m.Difficulty = p.Player, p.Difficulty
	m.game = g
	m.hint = nil
	return nil
}
