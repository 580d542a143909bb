package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// ErrDuplicateResult is returned when a result was already recorded.
var ErrDuplicateResult = errors.New("result already recorded")

// SessionRow represents a session in the database.
type SessionRow struct {
	Code       string
	GameType   string
	Status     string // "waiting", "playing", "finished"
	ConfigJSON string
	CreatedAt  time.Time
}

// MatchStateRow represents serialized match state.
type MatchStateRow struct {
	SessionCode string
	StateJSON   string
	UpdatedAt   time.Time
}

// ResultRow is one finished game.
type ResultRow struct {
	ID             int64
	SessionCode    string
	GameType       string
	Difficulty     string
	PlayerID       string
	Won            bool
	ElapsedSeconds int
	Moves          int
	FinishedAt     time.Time
}

// Store handles SQLite persistence.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the database and runs migrations.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if path == ":memory:" {
		// every pooled connection would otherwise see its own empty database
		db.SetMaxOpenConns(1)
	}
	// WAL mode for better concurrent reads
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			code        TEXT PRIMARY KEY,
			game_type   TEXT NOT NULL,
			status      TEXT NOT NULL DEFAULT 'waiting',
			config_json TEXT NOT NULL DEFAULT '{}',
			created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS match_state (
			session_code TEXT PRIMARY KEY REFERENCES sessions(code),
			state_json   TEXT NOT NULL,
			updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS results (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			session_code    TEXT NOT NULL,
			game_type       TEXT NOT NULL,
			difficulty      TEXT NOT NULL DEFAULT '',
			player_id       TEXT NOT NULL,
			won             BOOLEAN NOT NULL,
			elapsed_seconds INTEGER NOT NULL DEFAULT 0,
			moves           INTEGER NOT NULL DEFAULT 0,
			finished_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (session_code, player_id)
		);
		CREATE INDEX IF NOT EXISTS results_board ON results (game_type, difficulty, won, elapsed_seconds);
	`)
	return err
}

// CreateSession inserts a new session. configJSON holds the match config
// and may be empty.
func (s *Store) CreateSession(code, gameType, configJSON string) error {
	if configJSON == "" {
		configJSON = "{}"
	}
	_, err := s.db.Exec(
		"INSERT INTO sessions (code, game_type, status, config_json) VALUES (?, ?, 'waiting', ?)",
		code, gameType, configJSON,
	)
	return err
}

// GetSession retrieves a session by code.
func (s *Store) GetSession(code string) (*SessionRow, error) {
	row := s.db.QueryRow("SELECT code, game_type, status, config_json, created_at FROM sessions WHERE code = ?", code)
	var sr SessionRow
	if err := row.Scan(&sr.Code, &sr.GameType, &sr.Status, &sr.ConfigJSON, &sr.CreatedAt); err != nil {
		return nil, err
	}
	return &sr, nil
}

// UpdateSessionStatus changes a session's status.
func (s *Store) UpdateSessionStatus(code, status string) error {
	_, err := s.db.Exec("UPDATE sessions SET status = ? WHERE code = ?", status, code)
	return err
}

// UpdateSessionConfig replaces a session's stored config.
func (s *Store) UpdateSessionConfig(code, configJSON string) error {
	_, err := s.db.Exec("UPDATE sessions SET config_json = ? WHERE code = ?", configJSON, code)
	return err
}

// ListSessions returns all sessions with the given status (or all if status is empty).
func (s *Store) ListSessions(status string) ([]SessionRow, error) {
	var rows *sql.Rows
	var err error
	if status == "" {
		rows, err = s.db.Query("SELECT code, game_type, status, config_json, created_at FROM sessions ORDER BY created_at DESC")
	} else {
		rows, err = s.db.Query("SELECT code, game_type, status, config_json, created_at FROM sessions WHERE status = ? ORDER BY created_at DESC", status)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []SessionRow
	for rows.Next() {
		var sr SessionRow
		if err := rows.Scan(&sr.Code, &sr.GameType, &sr.Status, &sr.ConfigJSON, &sr.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, sr)
	}
	return result, rows.Err()
}

// SaveMatchState upserts match state JSON.
func (s *Store) SaveMatchState(sessionCode, stateJSON string) error {
	_, err := s.db.Exec(`
		INSERT INTO match_state (session_code, state_json, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(session_code) DO UPDATE SET state_json = excluded.state_json, updated_at = excluded.updated_at
	`, sessionCode, stateJSON)
	return err
}

// GetMatchState retrieves match state JSON.
func (s *Store) GetMatchState(sessionCode string) (string, error) {
	var stateJSON string
	err := s.db.QueryRow("SELECT state_json FROM match_state WHERE session_code = ?", sessionCode).Scan(&stateJSON)
	return stateJSON, err
}

// DeleteSession removes a session and its match state.
func (s *Store) DeleteSession(code string) error {
	_, err := s.db.Exec("DELETE FROM match_state WHERE session_code = ?", code)
	if err != nil {
		return err
	}
	_, err = s.db.Exec("DELETE FROM sessions WHERE code = ?", code)
	return err
}

// RecordResult stores a finished game. Recording the same session and
// player twice keeps the first row and returns ErrDuplicateResult.
func (s *Store) RecordResult(r ResultRow) error {
	res, err := s.db.Exec(`
		INSERT INTO results (session_code, game_type, difficulty, player_id, won, elapsed_seconds, moves)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_code, player_id) DO NOTHING
	`, r.SessionCode, r.GameType, r.Difficulty, r.PlayerID, r.Won, r.ElapsedSeconds, r.Moves)
	if err != nil {
		return fmt.Errorf("insert result: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrDuplicateResult
	}
	return nil
}

// Leaderboard returns the fastest wins for a game type, fewest moves first
// among equal times. An empty difficulty matches every difficulty.
func (s *Store) Leaderboard(gameType, difficulty string, limit int) ([]ResultRow, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.Query(`
		SELECT id, session_code, game_type, difficulty, player_id, won, elapsed_seconds, moves, finished_at
		FROM results
		WHERE game_type = ? AND won AND (? = '' OR difficulty = ?)
		ORDER BY elapsed_seconds ASC, moves ASC, id ASC
		LIMIT ?
	`, gameType, difficulty, difficulty, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []ResultRow
	for rows.Next() {
		var r ResultRow
		if err := rows.Scan(&r.ID, &r.SessionCode, &r.GameType, &r.Difficulty, &r.PlayerID, &r.Won, &r.ElapsedSeconds, &r.Moves, &r.FinishedAt); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
