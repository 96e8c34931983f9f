package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"

	"clickchess/internal/db"
	"clickchess/internal/session"
)

// testRouter wires the game endpoints without a database: anonymous play in
// local-only mode.
func testRouter(t *testing.T) *mux.Router {
	t.Helper()

	database := &db.MongoDB{}
	ws := NewWebSocketHandler()
	gh := NewGameHandler(database, ws, 2)
	ws.SetInputSink(gh)

	r := mux.NewRouter()
	r.HandleFunc("/api/games", gh.CreateGame).Methods("POST")
	r.HandleFunc("/api/games/{sessionId}", gh.GetGame).Methods("GET")
	r.HandleFunc("/api/games/{sessionId}/click", gh.Click).Methods("POST")
	r.HandleFunc("/api/games/{sessionId}/resign", gh.Resign).Methods("POST")
	return r
}

func doJSON(t *testing.T, router *mux.Router, method, path string, body interface{}, out interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if out != nil && w.Code == http.StatusOK {
		if err := json.NewDecoder(w.Body).Decode(out); err != nil {
			t.Fatalf("decoding %s %s response: %v", method, path, err)
		}
	}
	return w
}

func TestCreateGameDefaults(t *testing.T) {
	router := testRouter(t)

	var resp CreateGameResponse
	w := doJSON(t, router, "POST", "/api/games", CreateGameRequest{}, &resp)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if resp.SessionID == "" {
		t.Fatal("empty session id")
	}
	if resp.Snapshot.State != session.StateAwaitingOrigin {
		t.Errorf("state = %v, want %v", resp.Snapshot.State, session.StateAwaitingOrigin)
	}
	if resp.Snapshot.HumanColor != "white" {
		t.Errorf("humanColor = %q, want white", resp.Snapshot.HumanColor)
	}
}

func TestCreateGameHumanBlackGetsEngineOpening(t *testing.T) {
	router := testRouter(t)

	var resp CreateGameResponse
	w := doJSON(t, router, "POST", "/api/games", CreateGameRequest{HumanColor: "black", Depth: 1}, &resp)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if resp.Snapshot.MoveCount != 1 {
		t.Errorf("moveCount = %d, want 1 (engine opens)", resp.Snapshot.MoveCount)
	}
	if resp.Snapshot.State != session.StateAwaitingOrigin {
		t.Errorf("state = %v, want %v", resp.Snapshot.State, session.StateAwaitingOrigin)
	}
}

func TestCreateGameRejectsBadDepth(t *testing.T) {
	router := testRouter(t)

	w := doJSON(t, router, "POST", "/api/games", CreateGameRequest{Depth: 9}, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestClickFlowThroughHTTP(t *testing.T) {
	router := testRouter(t)

	var created CreateGameResponse
	doJSON(t, router, "POST", "/api/games", CreateGameRequest{Depth: 1}, &created)
	base := "/api/games/" + created.SessionID

	// Select the e2 pawn.
	var snap SnapshotResponse
	w := doJSON(t, router, "POST", base+"/click", ClickRequest{Square: "e2"}, &snap)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if snap.Snapshot.PendingOrigin != "e2" {
		t.Errorf("pendingOrigin = %q, want e2", snap.Snapshot.PendingOrigin)
	}

	// Play e2-e4; the engine answers synchronously.
	doJSON(t, router, "POST", base+"/click", ClickRequest{Square: "e4"}, &snap)
	if snap.Snapshot.MoveCount != 2 {
		t.Errorf("moveCount = %d, want 2 (human move plus engine reply)", snap.Snapshot.MoveCount)
	}
	if snap.Snapshot.State != session.StateAwaitingOrigin {
		t.Errorf("state = %v, want %v", snap.Snapshot.State, session.StateAwaitingOrigin)
	}

	// The snapshot survives a plain GET.
	var fetched SnapshotResponse
	doJSON(t, router, "GET", base, nil, &fetched)
	if fetched.Snapshot.FEN != snap.Snapshot.FEN {
		t.Errorf("GET FEN %q != click FEN %q", fetched.Snapshot.FEN, snap.Snapshot.FEN)
	}
}

func TestClickValidation(t *testing.T) {
	router := testRouter(t)

	var created CreateGameResponse
	doJSON(t, router, "POST", "/api/games", CreateGameRequest{Depth: 1}, &created)

	w := doJSON(t, router, "POST", "/api/games/"+created.SessionID+"/click", ClickRequest{Square: "z9"}, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status for bad square = %d, want 400", w.Code)
	}

	w = doJSON(t, router, "POST", "/api/games/missing/click", ClickRequest{Square: "e2"}, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status for unknown session = %d, want 404", w.Code)
	}
}

func TestResignEndsGame(t *testing.T) {
	router := testRouter(t)

	var created CreateGameResponse
	doJSON(t, router, "POST", "/api/games", CreateGameRequest{Depth: 1}, &created)

	var snap SnapshotResponse
	w := doJSON(t, router, "POST", "/api/games/"+created.SessionID+"/resign", nil, &snap)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !snap.Snapshot.Terminal {
		t.Fatal("snapshot not terminal after resignation")
	}
	if snap.Snapshot.Outcome == nil || snap.Snapshot.Outcome.Winner != "black" {
		t.Errorf("outcome = %+v, want black win", snap.Snapshot.Outcome)
	}

	// Clicks after the game is over change nothing.
	var after SnapshotResponse
	doJSON(t, router, "POST", "/api/games/"+created.SessionID+"/click", ClickRequest{Square: "e2"}, &after)
	if after.Snapshot.PendingOrigin != "" {
		t.Error("click accepted after resignation")
	}
}
