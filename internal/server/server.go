package server

import (
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"arcade/internal/game"
	"arcade/internal/session"
)

// maxLeaderboard caps the limit query parameter.
const maxLeaderboard = 100

// Server is the HTTP server.
type Server struct {
	mux      *http.ServeMux
	registry *game.Registry
	manager  *session.Manager
	webFS    fs.FS
}

// New creates a server with all routes.
// webFS should be the "web" subdirectory of the embedded filesystem.
func New(registry *game.Registry, manager *session.Manager, webFS fs.FS) *Server {
	s := &Server{
		mux:      http.NewServeMux(),
		registry: registry,
		manager:  manager,
		webFS:    webFS,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	// API routes
	s.mux.HandleFunc("GET /api/games", s.handleListGames)
	s.mux.HandleFunc("GET /api/games/{name}/leaderboard", s.handleLeaderboard)
	s.mux.HandleFunc("POST /api/sessions", s.handleCreateSession)
	s.mux.HandleFunc("GET /api/sessions/{code}", s.handleGetSession)
	s.mux.HandleFunc("GET /api/sessions/{code}/ws", s.handleWebSocket)
	s.mux.HandleFunc("POST /api/sessions/{code}/start", s.handleStartSession)

	// Static files
	s.mux.Handle("/", http.FileServer(http.FS(s.webFS)))
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.List())
}

type createSessionRequest struct {
	GameType   string          `json:"gameType"`
	PlayerID   string          `json:"playerId"`
	Difficulty string          `json:"difficulty"`
	Seed       uint64          `json:"seed"`
	Options    json.RawMessage `json:"options"`
}

type createSessionResponse struct {
	Code     string `json:"code"`
	PlayerID string `json:"playerId"`
}

// handleCreateSession creates a session, seats the player and deals the
// first match. A player id is minted when the request carries none.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	req.GameType = strings.TrimSpace(req.GameType)
	req.PlayerID = strings.TrimSpace(req.PlayerID)
	if req.GameType == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "gameType required"})
		return
	}
	if req.PlayerID == "" {
		req.PlayerID = uuid.NewString()
	}

	sess, err := s.manager.Create(req.GameType, game.MatchConfig{
		Difficulty: strings.TrimSpace(req.Difficulty),
		Seed:       req.Seed,
		Options:    req.Options,
	})
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err := sess.AddPlayer(req.PlayerID); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if err := sess.Start(); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if err := s.manager.SaveMatchState(sess); err != nil {
		log.WithField("session", sess.Code).WithError(err).Error("save match state")
	}

	writeJSON(w, http.StatusCreated, createSessionResponse{Code: sess.Code, PlayerID: req.PlayerID})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	sess, ok := s.manager.Get(code)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
		return
	}
	writeJSON(w, http.StatusOK, sess.Info())
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	sess, ok := s.manager.Get(code)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
		return
	}
	if err := sess.Start(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err := s.manager.SaveMatchState(sess); err != nil {
		log.WithField("session", code).WithError(err).Error("save match state")
	}
	// Broadcast new state to all players
	s.BroadcastState(sess)
	writeJSON(w, http.StatusOK, map[string]string{"status": "started"})
}

// LeaderboardEntry is one row of a game's leaderboard.
type LeaderboardEntry struct {
	Rank        int       `json:"rank"`
	Place       string    `json:"place"` // "1st", "2nd", ...
	PlayerID    string    `json:"playerId"`
	Difficulty  string    `json:"difficulty"`
	Elapsed     int       `json:"elapsed"`
	Moves       int       `json:"moves"`
	FinishedAt  time.Time `json:"finishedAt"`
	FinishedAgo string    `json:"finishedAgo"`
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if _, ok := s.registry.Get(name); !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown game type: " + name})
		return
	}
	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
			return
		}
		limit = min(n, maxLeaderboard)
	}

	rows, err := s.manager.Leaderboard(name, r.URL.Query().Get("difficulty"), limit)
	if err != nil {
		log.WithField("game", name).WithError(err).Error("leaderboard")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "leaderboard unavailable"})
		return
	}
	entries := make([]LeaderboardEntry, 0, len(rows))
	for i, row := range rows {
		entries = append(entries, LeaderboardEntry{
			Rank:        i + 1,
			Place:       humanize.Ordinal(i + 1),
			PlayerID:    row.PlayerID,
			Difficulty:  row.Difficulty,
			Elapsed:     row.ElapsedSeconds,
			Moves:       row.Moves,
			FinishedAt:  row.FinishedAt,
			FinishedAgo: humanize.Time(row.FinishedAt),
		})
	}
	writeJSON(w, http.StatusOK, entries)
}

// errorKind classifies engine errors for clients.
func errorKind(err error) string {
	var (
		bounds  *game.BoundsError
		config  *game.ConfigError
		invalid *game.InvalidMoveError
	)
	switch {
	case errors.As(err, &bounds):
		return "bounds"
	case errors.As(err, &config):
		return "config"
	case errors.As(err, &invalid):
		return "invalid_move"
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
