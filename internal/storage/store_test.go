package storage

import (
	"database/sql"
	"errors"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateSession(t *testing.T) {
	s := newTestStore(t)
	if err := s.CreateSession("abc123", "minesweeper", ""); err != nil {
		t.Fatalf("create session: %v", err)
	}
	// Duplicate code should error
	if err := s.CreateSession("abc123", "minesweeper", ""); err == nil {
		t.Fatal("expected error on duplicate code")
	}
}

func TestGetSession(t *testing.T) {
	s := newTestStore(t)
	s.CreateSession("abc123", "minesweeper", "")

	row, err := s.GetSession("abc123")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if row.Code != "abc123" {
		t.Fatalf("expected code abc123, got %s", row.Code)
	}
	if row.GameType != "minesweeper" {
		t.Fatalf("expected gameType minesweeper, got %s", row.GameType)
	}
	if row.Status != "waiting" {
		t.Fatalf("expected status waiting, got %s", row.Status)
	}
	if row.CreatedAt.IsZero() {
		t.Fatal("expected non-zero CreatedAt")
	}
}

func TestGetSessionNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetSession("nonexistent")
	if err != sql.ErrNoRows {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestUpdateSessionStatus(t *testing.T) {
	s := newTestStore(t)
	s.CreateSession("abc123", "minesweeper", "")

	if err := s.UpdateSessionStatus("abc123", "playing"); err != nil {
		t.Fatalf("update status: %v", err)
	}
	row, err := s.GetSession("abc123")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if row.Status != "playing" {
		t.Fatalf("expected playing, got %s", row.Status)
	}
}

func TestListSessionsAll(t *testing.T) {
	s := newTestStore(t)
	s.CreateSession("aaa", "minesweeper", "")
	s.CreateSession("bbb", "minesweeper", "")
	s.CreateSession("ccc", "minesweeper", "")

	rows, err := s.ListSessions("")
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 sessions, got %d", len(rows))
	}
}

func TestListSessionsFiltered(t *testing.T) {
	s := newTestStore(t)
	s.CreateSession("aaa", "minesweeper", "")
	s.CreateSession("bbb", "minesweeper", "")
	s.UpdateSessionStatus("bbb", "playing")

	rows, err := s.ListSessions("waiting")
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 waiting session, got %d", len(rows))
	}
	if rows[0].Code != "aaa" {
		t.Fatalf("expected code aaa, got %s", rows[0].Code)
	}
}

func TestSaveAndGetMatchState(t *testing.T) {
	s := newTestStore(t)
	s.CreateSession("abc123", "minesweeper", "")

	stateJSON := `{"player":"p1","difficulty":"easy","moves":3}`
	if err := s.SaveMatchState("abc123", stateJSON); err != nil {
		t.Fatalf("save match state: %v", err)
	}
	got, err := s.GetMatchState("abc123")
	if err != nil {
		t.Fatalf("get match state: %v", err)
	}
	if got != stateJSON {
		t.Fatalf("expected %s, got %s", stateJSON, got)
	}
}

func TestSaveMatchStateUpsert(t *testing.T) {
	s := newTestStore(t)
	s.CreateSession("abc123", "minesweeper", "")

	s.SaveMatchState("abc123", `{"v":1}`)
	s.SaveMatchState("abc123", `{"v":2}`)

	got, err := s.GetMatchState("abc123")
	if err != nil {
		t.Fatalf("get match state: %v", err)
	}
	if got != `{"v":2}` {
		t.Fatalf("expected upserted value, got %s", got)
	}
}

func TestDeleteSession(t *testing.T) {
	s := newTestStore(t)
	s.CreateSession("abc123", "minesweeper", "")
	s.SaveMatchState("abc123", `{"v":1}`)

	if err := s.DeleteSession("abc123"); err != nil {
		t.Fatalf("delete session: %v", err)
	}
	_, err := s.GetSession("abc123")
	if err != sql.ErrNoRows {
		t.Fatalf("expected sql.ErrNoRows after delete, got %v", err)
	}
	_, err = s.GetMatchState("abc123")
	if err != sql.ErrNoRows {
		t.Fatalf("expected sql.ErrNoRows for match state after delete, got %v", err)
	}
}

func TestGetMatchStateNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetMatchState("nonexistent")
	if err != sql.ErrNoRows {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestSessionConfigJSON(t *testing.T) {
	s := newTestStore(t)
	cfg := `{"difficulty":"hard","seed":7}`
	if err := s.CreateSession("cfg1", "solitaire", cfg); err != nil {
		t.Fatalf("create session: %v", err)
	}
	row, err := s.GetSession("cfg1")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if row.ConfigJSON != cfg {
		t.Fatalf("expected config %s, got %s", cfg, row.ConfigJSON)
	}

	updated := `{"difficulty":"hard","seed":7,"playerIds":["p1"]}`
	if err := s.UpdateSessionConfig("cfg1", updated); err != nil {
		t.Fatalf("update config: %v", err)
	}
	row, _ = s.GetSession("cfg1")
	if row.ConfigJSON != updated {
		t.Fatalf("expected config %s, got %s", updated, row.ConfigJSON)
	}

	s.CreateSession("cfg2", "solitaire", "")
	row, _ = s.GetSession("cfg2")
	if row.ConfigJSON != "{}" {
		t.Fatalf("expected empty config to default to {}, got %s", row.ConfigJSON)
	}
}

func TestRecordResultDuplicate(t *testing.T) {
	s := newTestStore(t)
	r := ResultRow{SessionCode: "abc", GameType: "minesweeper", Difficulty: "easy", PlayerID: "p1", Won: true, ElapsedSeconds: 40, Moves: 12}
	if err := s.RecordResult(r); err != nil {
		t.Fatalf("record result: %v", err)
	}
	r.ElapsedSeconds = 1
	if err := s.RecordResult(r); !errors.Is(err, ErrDuplicateResult) {
		t.Fatalf("expected ErrDuplicateResult, got %v", err)
	}
	rows, err := s.Leaderboard("minesweeper", "", 10)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(rows) != 1 || rows[0].ElapsedSeconds != 40 {
		t.Fatalf("expected the first result to be kept, got %+v", rows)
	}
}

func TestLeaderboard(t *testing.T) {
	s := newTestStore(t)
	results := []ResultRow{
		{SessionCode: "s1", GameType: "minesweeper", Difficulty: "easy", PlayerID: "slow", Won: true, ElapsedSeconds: 90, Moves: 20},
		{SessionCode: "s2", GameType: "minesweeper", Difficulty: "easy", PlayerID: "fast", Won: true, ElapsedSeconds: 30, Moves: 25},
		{SessionCode: "s3", GameType: "minesweeper", Difficulty: "easy", PlayerID: "tied", Won: true, ElapsedSeconds: 30, Moves: 10},
		{SessionCode: "s4", GameType: "minesweeper", Difficulty: "easy", PlayerID: "lost", Won: false, ElapsedSeconds: 5, Moves: 1},
		{SessionCode: "s5", GameType: "minesweeper", Difficulty: "hard", PlayerID: "hard", Won: true, ElapsedSeconds: 200, Moves: 80},
		{SessionCode: "s6", GameType: "solitaire", Difficulty: "easy", PlayerID: "cards", Won: true, ElapsedSeconds: 1, Moves: 100},
	}
	for _, r := range results {
		if err := s.RecordResult(r); err != nil {
			t.Fatalf("record result %s: %v", r.SessionCode, err)
		}
	}

	rows, err := s.Leaderboard("minesweeper", "easy", 10)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	var got []string
	for _, r := range rows {
		got = append(got, r.PlayerID)
	}
	want := []string{"tied", "fast", "slow"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
	if !rows[0].Won || rows[0].FinishedAt.IsZero() {
		t.Fatalf("expected won row with finish time, got %+v", rows[0])
	}

	rows, _ = s.Leaderboard("minesweeper", "", 2)
	if len(rows) != 2 {
		t.Fatalf("expected limit of 2, got %d", len(rows))
	}
	rows, _ = s.Leaderboard("minesweeper", "", 0)
	if len(rows) != 4 {
		t.Fatalf("expected all 4 wins across difficulties, got %d", len(rows))
	}
}
