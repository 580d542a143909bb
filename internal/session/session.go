package session

import (
	"fmt"
	"sync"

	"arcade/internal/game"
)

// Status represents the session lifecycle.
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

// Player represents a connected player.
type Player struct {
	ID   string
	Send chan []byte // outbound messages
}

// Session is one game session with connected players.
type Session struct {
	mu       sync.RWMutex
	Code     string
	GameType string
	Config   game.MatchConfig
	Status   Status
	HostID   string
	Players  map[string]*Player
	Match    game.Match
	game     game.Game
	recorded bool // results persisted for the current match
}

// NewSession creates a session in the waiting state.
func NewSession(code, gameType string, g game.Game, config game.MatchConfig) *Session {
	return &Session{
		Code:     code,
		GameType: gameType,
		Config:   config,
		Status:   StatusWaiting,
		Players:  make(map[string]*Player),
		game:     g,
	}
}

// AddPlayer adds a player to the session. Returns error if full or already playing.
func (s *Session) AddPlayer(playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Status != StatusWaiting {
		return fmt.Errorf("session is not accepting players")
	}
	info := s.game.Info()
	if len(s.Players) >= info.MaxPlayers {
		return fmt.Errorf("session is full")
	}
	if _, exists := s.Players[playerID]; exists {
		return fmt.Errorf("player %s already in session", playerID)
	}
	s.addPlayerLocked(playerID)
	return nil
}

func (s *Session) addPlayerLocked(playerID string) {
	s.Players[playerID] = &Player{
		ID:   playerID,
		Send: make(chan []byte, 64),
	}
	if s.HostID == "" {
		s.HostID = playerID
	}
}

// RemovePlayer removes a player from the session. A connected player's
// channel stays open until its connection calls DisconnectPlayer.
func (s *Session) RemovePlayer(playerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.Players, playerID)
}

// ConnectPlayer replaces the Send channel for a reconnecting player.
// The superseded channel is left to its own connection to close.
func (s *Session) ConnectPlayer(playerID string, send chan []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.Players[playerID]
	if !ok {
		return false
	}
	p.Send = send
	return true
}

// DisconnectPlayer detaches send if it is still the player's live channel
// and closes it. Each connection calls it exactly once with its own channel.
// The seat is kept so the player can reconnect.
func (s *Session) DisconnectPlayer(playerID string, send chan []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.Players[playerID]; ok && p.Send == send {
		p.Send = nil
	}
	close(send)
}

// SendTo queues msg on send when it is still the player's live channel.
// It reports whether the message was queued.
func (s *Session) SendTo(playerID string, send chan []byte, msg []byte) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.Players[playerID]
	if !ok || p.Send != send {
		return false
	}
	select {
	case send <- msg:
		return true
	default:
		return false
	}
}

// PlayerIDs returns the list of player IDs.
func (s *Session) PlayerIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.playerIDsLocked()
}

func (s *Session) playerIDsLocked() []string {
	ids := make([]string, 0, len(s.Players))
	for id := range s.Players {
		ids = append(ids, id)
	}
	return ids
}

// Start transitions the session from waiting to playing.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Status != StatusWaiting {
		return fmt.Errorf("session is not in waiting state")
	}
	info := s.game.Info()
	if len(s.Players) < info.MinPlayers {
		return fmt.Errorf("need at least %d players, have %d", info.MinPlayers, len(s.Players))
	}
	return s.newMatchLocked()
}

// Restart deals a fresh match with the session's settings. The previous
// match is kept if the new one cannot be created.
func (s *Session) Restart() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Status == StatusWaiting {
		return fmt.Errorf("session has not started")
	}
	return s.newMatchLocked()
}

func (s *Session) newMatchLocked() error {
	cfg := s.Config
	cfg.PlayerIDs = s.playerIDsLocked()
	if s.Match != nil {
		// a pinned seed would deal the same board again
		cfg.Seed = 0
	}
	match, err := s.game.NewMatch(cfg)
	if err != nil {
		return err
	}
	s.Config.PlayerIDs = cfg.PlayerIDs
	s.Match = match
	s.Status = StatusPlaying
	s.recorded = false
	return nil
}

// Finish marks the session as finished.
func (s *Session) Finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Status = StatusFinished
}

// FinishIfOver marks a playing session finished once its match is over.
// Caller must hold the lock.
func (s *Session) FinishIfOver() bool {
	if s.Status == StatusPlaying && s.Match != nil && s.Match.IsOver() {
		s.Status = StatusFinished
		return true
	}
	return false
}

// Broadcast sends a message to all connected players.
func (s *Session) Broadcast(msg []byte) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.Players {
		select {
		case p.Send <- msg:
		default:
			// drop message if buffer full
		}
	}
}

// GetPlayer returns a player's send channel, or nil if not found.
func (s *Session) GetPlayer(playerID string) *Player {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Players[playerID]
}

// Info returns session info for the API.
type Info struct {
	Code       string   `json:"code"`
	GameType   string   `json:"gameType"`
	Difficulty string   `json:"difficulty"`
	Status     Status   `json:"status"`
	Players    []string `json:"players"`
	HostID     string   `json:"hostId"`
}

func (s *Session) Info() Info {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.infoLocked()
}

// InfoLocked returns info without acquiring the lock (caller must hold it).
func (s *Session) InfoLocked() Info {
	return s.infoLocked()
}

func (s *Session) infoLocked() Info {
	return Info{
		Code:       s.Code,
		GameType:   s.GameType,
		Difficulty: s.Config.Difficulty,
		Status:     s.Status,
		Players:    s.playerIDsLocked(),
		HostID:     s.HostID,
	}
}

// Lock/RLock/Unlock/RUnlock expose the mutex for the server's websocket handler.
func (s *Session) Lock()    { s.mu.Lock() }
func (s *Session) Unlock()  { s.mu.Unlock() }
func (s *Session) RLock()   { s.mu.RLock() }
func (s *Session) RUnlock() { s.mu.RUnlock() }
