package game

import "encoding/json"

// GameInfo describes a game type for the lobby.
type GameInfo struct {
	Name         string   `json:"name"`
	Title        string   `json:"title"`
	MinPlayers   int      `json:"minPlayers"`
	MaxPlayers   int      `json:"maxPlayers"`
	Difficulties []string `json:"difficulties"`
	Default      string   `json:"defaultDifficulty"`
}

// MatchConfig holds settings for creating a new match.
type MatchConfig struct {
	PlayerIDs  []string        `json:"playerIds"`
	Difficulty string          `json:"difficulty,omitempty"`
	Seed       uint64          `json:"seed,omitempty"`    // 0 = random
	Options    json.RawMessage `json:"options,omitempty"` // game specific
}

// Action represents a move a player can make.
type Action struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// PlayerResult holds the outcome for one player.
type PlayerResult struct {
	PlayerID string `json:"playerId"`
	Rank     int    `json:"rank"` // 1 = first place
	Score    int    `json:"score"`
	Won      bool   `json:"won"`
	Elapsed  int    `json:"elapsed"` // seconds
	Moves    int    `json:"moves"`
}

// Game describes a game type (minesweeper, solitaire, etc.)
type Game interface {
	Info() GameInfo
	NewMatch(config MatchConfig) (Match, error)
}

// Match is one in-progress game session.
type Match interface {
	State(playerID string) any
	ValidActions(playerID string) []Action
	ApplyAction(playerID string, action Action) error
	IsOver() bool
	Results() []PlayerResult
	// MarshalJSON / UnmarshalJSON support for persistence
	MarshalJSON() ([]byte, error)
	UnmarshalJSON(data []byte) error
}

// Ticker is implemented by matches with a clock. Tick is called once per
// second and reports whether the visible state changed.
type Ticker interface {
	Tick() bool
}

// NewSeed returns cfg.Seed, or a random seed when it is unset.
func (cfg MatchConfig) NewSeed() uint64 {
	if cfg.Seed != 0 {
		return cfg.Seed
	}
	return randomSeed()
}

// DecodePayload unmarshals an action payload into v.
func DecodePayload(action Action, v any) error {
	if len(action.Payload) == 0 {
		return InvalidMove("missing %s payload", action.Type)
	}
	if err := json.Unmarshal(action.Payload, v); err != nil {
		return InvalidMove("invalid %s payload: %v", action.Type, err)
	}
	return nil
}

// MustAction builds an Action, marshaling payload when it is non-nil.
func MustAction(actionType string, payload any) Action {
	a := Action{Type: actionType}
	if payload != nil {
		a.Payload, _ = json.Marshal(payload)
	}
	return a
}
