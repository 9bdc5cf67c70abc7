package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/huntworks/qrhunt/internal/database"
	"github.com/huntworks/qrhunt/internal/hunt"
	"github.com/huntworks/qrhunt/internal/migrations"
)

func setupStore(t *testing.T) *SQLiteStore {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := migrations.Run(db); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	store := NewSQLiteStore(db)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	if err := EnsureAdmin(ctx, store, "admin@example.com", "secret"); err != nil {
		t.Fatalf("ensure admin: %v", err)
	}
	if err := SeedDemo(ctx, logger, store); err != nil {
		t.Fatalf("seed demo: %v", err)
	}

	return store
}

func testRouter(t *testing.T) (*chi.Mux, *SQLiteStore) {
	t.Helper()
	store := setupStore(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	broker := hunt.NewBroker()
	svc := hunt.NewService(store, broker, logger)

	r := chi.NewRouter()
	addRoutes(r, logger, store, svc, broker, store.db, deadRedis(), "")
	return r, store
}

// demoNodes returns the seeded demo nodes keyed by title.
func demoNodes(t *testing.T, store *SQLiteStore) (gameID string, byTitle map[string]AdminNodeItem) {
	t.Helper()
	ctx := context.Background()

	games, err := store.ListGames(ctx)
	if err != nil || len(games) != 1 {
		t.Fatalf("list games: %v (%d games)", err, len(games))
	}
	gameID = games[0].ID

	nodes, err := store.ListNodes(ctx, gameID)
	if err != nil {
		t.Fatalf("list nodes: %v", err)
	}
	byTitle = make(map[string]AdminNodeItem, len(nodes))
	for _, n := range nodes {
		byTitle[n.Title] = n
	}
	return gameID, byTitle
}

func joinDemoTeam(t *testing.T, r *chi.Mux) string {
	t.Helper()

	body, _ := json.Marshal(JoinRequest{JoinCode: "demo", PlayerName: "Maria"})
	req := httptest.NewRequest(http.MethodPost, "/api/join", bytes.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("join: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp JoinResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if resp.Token == "" {
		t.Fatal("join: empty session token")
	}
	return resp.Token
}

func scanCode(t *testing.T, r *chi.Mux, token, code string) (*httptest.ResponseRecorder, ScanResponse) {
	t.Helper()

	body, _ := json.Marshal(ScanRequest{Code: code})
	req := httptest.NewRequest(http.MethodPost, "/api/game/scan", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp ScanResponse
	json.NewDecoder(w.Body).Decode(&resp)
	return w, resp
}

func TestTeamLookup(t *testing.T) {
	r, _ := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/teams/demo", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp TeamLookupResponse
	json.NewDecoder(w.Body).Decode(&resp)

	if resp.Name != "Foxes" {
		t.Errorf("expected team name 'Foxes', got %q", resp.Name)
	}
	if resp.GameName != "Demo Hunt" {
		t.Errorf("expected game name 'Demo Hunt', got %q", resp.GameName)
	}
}

func TestTeamLookupNotFound(t *testing.T) {
	r, _ := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/teams/nope", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestScanRequiresAuth(t *testing.T) {
	r, _ := testRouter(t)

	body, _ := json.Marshal(ScanRequest{Code: "whatever"})
	req := httptest.NewRequest(http.MethodPost, "/api/game/scan", bytes.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestScanWalkthrough(t *testing.T) {
	r, store := testRouter(t)
	_, nodes := demoNodes(t, store)
	token := joinDemoTeam(t, r)

	// Unknown code.
	w, resp := scanCode(t, r, token, "not-a-real-key")
	if w.Code != http.StatusNotFound || resp.Status != hunt.ScanInvalidCode {
		t.Fatalf("unknown code: got %d / %q", w.Code, resp.Status)
	}

	// First scan must hit the start node.
	w, resp = scanCode(t, r, token, nodes["Clock Tower"].ScanKey)
	if w.Code != http.StatusConflict || resp.Status != hunt.ScanNotAStartingPoint {
		t.Fatalf("non-start first scan: got %d / %q", w.Code, resp.Status)
	}

	// Start node: base points, no bonus without a previous scan.
	w, resp = scanCode(t, r, token, nodes["Old Town Gate"].ScanKey)
	if w.Code != http.StatusOK || resp.Status != hunt.ScanOK {
		t.Fatalf("start scan: got %d / %q: %s", w.Code, resp.Status, resp.Message)
	}
	if resp.Points != 100 {
		t.Errorf("start scan points = %d, want 100", resp.Points)
	}
	if resp.RemainingCount != 2 {
		t.Errorf("remaining after start = %d, want 2", resp.RemainingCount)
	}

	// Duplicate.
	w, resp = scanCode(t, r, token, nodes["Old Town Gate"].ScanKey)
	if w.Code != http.StatusConflict || resp.Status != hunt.ScanAlreadyScanned {
		t.Fatalf("duplicate scan: got %d / %q", w.Code, resp.Status)
	}

	// Second scan lands inside the time bonus window: 150 * 1.5.
	w, resp = scanCode(t, r, token, nodes["Clock Tower"].ScanKey)
	if w.Code != http.StatusOK || resp.Points != 225 {
		t.Fatalf("middle scan: got %d / %d points, want 200 / 225", w.Code, resp.Points)
	}

	// End node finishes the hunt: 200 * 1.5.
	w, resp = scanCode(t, r, token, nodes["Harbor Steps"].ScanKey)
	if w.Code != http.StatusOK || resp.Points != 300 {
		t.Fatalf("end scan: got %d / %d points, want 200 / 300", w.Code, resp.Points)
	}
	if !resp.GameComplete {
		t.Error("end scan should complete the hunt")
	}
}

func TestProgressAndLeaderboard(t *testing.T) {
	r, store := testRouter(t)
	gameID, nodes := demoNodes(t, store)
	token := joinDemoTeam(t, r)

	scanCode(t, r, token, nodes["Old Town Gate"].ScanKey)
	scanCode(t, r, token, nodes["Clock Tower"].ScanKey)

	req := httptest.NewRequest(http.MethodGet, "/api/game/progress", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("progress: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var progress hunt.TeamProgress
	json.NewDecoder(w.Body).Decode(&progress)

	if progress.NodesFound != 2 || progress.TotalNodes != 3 {
		t.Errorf("progress counts = %d/%d, want 2/3", progress.NodesFound, progress.TotalNodes)
	}
	if progress.TotalPoints != 325 {
		t.Errorf("progress points = %d, want 325", progress.TotalPoints)
	}
	if progress.IsFinished {
		t.Error("team should not be finished yet")
	}
	if progress.NextClue == nil || progress.NextClue.Title != "Harbor Steps" {
		t.Errorf("next clue = %+v, want Harbor Steps", progress.NextClue)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/games/"+gameID+"/leaderboard", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("leaderboard: expected 200, got %d", w.Code)
	}

	var snapshot hunt.Snapshot
	json.NewDecoder(w.Body).Decode(&snapshot)

	if len(snapshot.Entries) != 1 {
		t.Fatalf("leaderboard entries = %d, want 1", len(snapshot.Entries))
	}
	entry := snapshot.Entries[0]
	if entry.TeamName != "Foxes" || entry.Rank != 1 || entry.TotalPoints != 325 {
		t.Errorf("entry = %+v, want Foxes rank 1 with 325 points", entry)
	}
}

func TestLeaderboardUnknownGame(t *testing.T) {
	r, _ := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/games/missing/leaderboard", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestEventsUnknownGame(t *testing.T) {
	r, _ := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/games/missing/events", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestHintFlow(t *testing.T) {
	r, store := testRouter(t)
	_, nodes := demoNodes(t, store)
	token := joinDemoTeam(t, r)

	tower := nodes["Clock Tower"]

	body, _ := json.Marshal(HintRequest{NodeID: tower.ID})
	req := httptest.NewRequest(http.MethodPost, "/api/game/hint", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("hint: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var result hunt.HintResult
	json.NewDecoder(w.Body).Decode(&result)

	if result.Hint == "" || result.AlreadyUsed {
		t.Errorf("first hint = %+v, want fresh hint text", result)
	}
	if result.PointsDeducted != 75 {
		t.Errorf("deduction = %d, want 75", result.PointsDeducted)
	}

	// Second request is free.
	body, _ = json.Marshal(HintRequest{NodeID: tower.ID})
	req = httptest.NewRequest(http.MethodPost, "/api/game/hint", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	json.NewDecoder(w.Body).Decode(&result)
	if !result.AlreadyUsed || result.PointsDeducted != 75 {
		t.Errorf("repeat hint = %+v, want alreadyUsed with original deduction", result)
	}

	// Nodes without hints are rejected.
	body, _ = json.Marshal(HintRequest{NodeID: nodes["Old Town Gate"].ID})
	req = httptest.NewRequest(http.MethodPost, "/api/game/hint", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Fatalf("hintless node: expected 409, got %d", w.Code)
	}
}

func TestChat(t *testing.T) {
	r, _ := testRouter(t)
	token := joinDemoTeam(t, r)

	body, _ := json.Marshal(ChatRequest{Message: "we found the tower!"})
	req := httptest.NewRequest(http.MethodPost, "/api/game/chat", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("chat: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	body, _ = json.Marshal(ChatRequest{Message: "   "})
	req = httptest.NewRequest(http.MethodPost, "/api/game/chat", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("blank chat: expected 400, got %d", w.Code)
	}
}
