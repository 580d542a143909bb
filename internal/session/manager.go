package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"arcade/internal/game"
	"arcade/internal/storage"
)

// Manager manages all active sessions.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	registry *game.Registry
	store    *storage.Store
}

// NewManager creates a session manager.
func NewManager(registry *game.Registry, store *storage.Store) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		registry: registry,
		store:    store,
	}
}

// record is what the sessions table keeps besides code, type and status.
type record struct {
	Config game.MatchConfig `json:"config"`
	HostID string           `json:"hostId,omitempty"`
}

// Create makes a new session and persists it. An empty difficulty is
// replaced by the game's default; a config the game rejects returns its
// *game.ConfigError.
func (m *Manager) Create(gameType string, config game.MatchConfig) (*Session, error) {
	g, ok := m.registry.Get(gameType)
	if !ok {
		return nil, fmt.Errorf("unknown game type: %s", gameType)
	}
	if config.Difficulty == "" {
		config.Difficulty = g.Info().Default
	}
	if _, err := g.NewMatch(config); err != nil {
		return nil, err
	}
	config.PlayerIDs = nil

	data, err := json.Marshal(record{Config: config})
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	code := generateCode()
	for m.sessions[code] != nil {
		code = generateCode()
	}
	if err := m.store.CreateSession(code, gameType, string(data)); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}
	s := NewSession(code, gameType, g, config)
	m.sessions[code] = s
	log.WithFields(log.Fields{
		"session":    code,
		"game":       gameType,
		"difficulty": config.Difficulty,
	}).Info("session created")
	return s, nil
}

// Get returns a session by code.
func (m *Manager) Get(code string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[code]
	return s, ok
}

// List returns info for all active sessions.
func (m *Manager) List() []Info {
	m.mu.RLock()
	defer m.mu.RUnlock()
	infos := make([]Info, 0, len(m.sessions))
	for _, s := range m.sessions {
		infos = append(infos, s.Info())
	}
	return infos
}

// SaveMatchState persists the session's status, players and current match.
func (m *Manager) SaveMatchState(s *Session) error {
	s.mu.RLock()
	match := s.Match
	status := s.Status
	rec := record{Config: s.Config, HostID: s.HostID}
	rec.Config.PlayerIDs = s.playerIDsLocked()
	s.mu.RUnlock()

	if err := m.store.UpdateSessionStatus(s.Code, string(status)); err != nil {
		return err
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := m.store.UpdateSessionConfig(s.Code, string(data)); err != nil {
		return err
	}
	if match == nil {
		return nil
	}
	state, err := match.MarshalJSON()
	if err != nil {
		return fmt.Errorf("marshal match state: %w", err)
	}
	return m.store.SaveMatchState(s.Code, string(state))
}

// Restore loads sessions from the database on startup.
func (m *Manager) Restore() error {
	rows, err := m.store.ListSessions("")
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}
	for _, row := range rows {
		if row.Status == string(StatusFinished) {
			continue
		}
		logger := log.WithFields(log.Fields{"session": row.Code, "game": row.GameType})
		g, ok := m.registry.Get(row.GameType)
		if !ok {
			logger.Warn("skipping session: unknown game type")
			continue
		}
		var rec record
		if err := json.Unmarshal([]byte(row.ConfigJSON), &rec); err != nil {
			logger.WithError(err).Warn("skipping session: bad config")
			continue
		}
		s := NewSession(row.Code, row.GameType, g, rec.Config)
		s.Status = Status(row.Status)
		for _, id := range rec.Config.PlayerIDs {
			s.addPlayerLocked(id)
		}
		if rec.HostID != "" {
			s.HostID = rec.HostID
		}

		if s.Status == StatusPlaying {
			stateJSON, err := m.store.GetMatchState(row.Code)
			if err != nil {
				logger.WithError(err).Warn("skipping session: no match state")
				continue
			}
			match, err := g.NewMatch(rec.Config)
			if err != nil {
				logger.WithError(err).Warn("skipping session: config rejected")
				continue
			}
			if err := match.UnmarshalJSON([]byte(stateJSON)); err != nil {
				logger.WithError(err).Warn("skipping session: unmarshal error")
				continue
			}
			s.Match = match
			s.FinishIfOver()
		}
		m.mu.Lock()
		m.sessions[row.Code] = s
		m.mu.Unlock()
		logger.Debug("session restored")
	}
	return nil
}

// Remove deletes a session from memory and storage.
func (m *Manager) Remove(code string) {
	m.mu.Lock()
	delete(m.sessions, code)
	m.mu.Unlock()
	if err := m.store.DeleteSession(code); err != nil {
		log.WithField("session", code).WithError(err).Error("delete session")
	}
}

// RecordResults stores the results of a finished match. It is a no-op
// while the match is running and after the results have been stored once.
func (m *Manager) RecordResults(s *Session) error {
	s.mu.Lock()
	if s.recorded || s.Match == nil || !s.Match.IsOver() {
		s.mu.Unlock()
		return nil
	}
	results := s.Match.Results()
	difficulty := s.Config.Difficulty
	s.recorded = true
	s.mu.Unlock()

	var errs []error
	for _, r := range results {
		err := m.store.RecordResult(storage.ResultRow{
			SessionCode:    s.Code,
			GameType:       s.GameType,
			Difficulty:     difficulty,
			PlayerID:       r.PlayerID,
			Won:            r.Won,
			ElapsedSeconds: r.Elapsed,
			Moves:          r.Moves,
		})
		if err != nil && !errors.Is(err, storage.ErrDuplicateResult) {
			errs = append(errs, err)
			continue
		}
		log.WithFields(log.Fields{
			"session": s.Code,
			"player":  r.PlayerID,
			"won":     r.Won,
			"elapsed": r.Elapsed,
		}).Info("game finished")
	}
	return errors.Join(errs...)
}

// Leaderboard returns the best recorded wins for a game type.
func (m *Manager) Leaderboard(gameType, difficulty string, limit int) ([]storage.ResultRow, error) {
	return m.store.Leaderboard(gameType, difficulty, limit)
}

// TickLoop advances the clock of every running match once per interval
// until ctx is done. onChange is called, without the session lock held,
// for each session whose visible state changed.
func (m *Manager) TickLoop(ctx context.Context, interval time.Duration, onChange func(*Session)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, s := range m.tick() {
				if onChange != nil {
					onChange(s)
				}
			}
		}
	}
}

func (m *Manager) tick() []*Session {
	m.mu.RLock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.RUnlock()

	var changed []*Session
	for _, s := range sessions {
		s.mu.Lock()
		ticker, ok := s.Match.(game.Ticker)
		if s.Status == StatusPlaying && ok && ticker.Tick() {
			changed = append(changed, s)
		}
		s.mu.Unlock()
	}
	return changed
}

// CleanupLoop removes stale sessions periodically until ctx is done.
func (m *Manager) CleanupLoop(ctx context.Context, interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.cleanup(maxAge)
		}
	}
}

func (m *Manager) cleanup(maxAge time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	for code, s := range m.sessions {
		s.mu.RLock()
		empty := len(s.Players) == 0
		finished := s.Status == StatusFinished
		s.mu.RUnlock()

		if finished || empty {
			row, err := m.store.GetSession(code)
			if err != nil {
				delete(m.sessions, code)
				continue
			}
			if now.Sub(row.CreatedAt) > maxAge || empty {
				log.WithField("session", code).Info("cleaning up session")
				if err := m.store.DeleteSession(code); err != nil {
					log.WithField("session", code).WithError(err).Error("delete session")
				}
				delete(m.sessions, code)
			}
		}
	}
}

// generateCode returns the first 8 hex characters of a random UUID.
func generateCode() string {
	return uuid.NewString()[:8]
}
