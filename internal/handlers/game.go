package handlers

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/notnil/chess"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"clickchess/internal/db"
	"clickchess/internal/middleware"
	"clickchess/internal/models"
	"clickchess/internal/rules"
	"clickchess/internal/session"
)

// gameEntry is one live session plus its bookkeeping. The mutex serializes
// all access to the session: clicks, engine turns, and snapshots; the
// search itself runs synchronously while the lock is held.
type gameEntry struct {
	mu        sync.Mutex
	sess      *session.Session
	userID    *primitive.ObjectID
	startedAt time.Time
	updatedAt time.Time
	archived  bool
}

type GameHandler struct {
	db           *db.MongoDB
	ws           *WebSocketHandler
	defaultDepth int
	defaultColor string

	mu    sync.RWMutex
	games map[string]*gameEntry
}

func NewGameHandler(database *db.MongoDB, wsHandler *WebSocketHandler, defaultDepth int) *GameHandler {
	h := &GameHandler{
		db:           database,
		ws:           wsHandler,
		defaultDepth: defaultDepth,
		defaultColor: "white",
		games:        make(map[string]*gameEntry),
	}
	go h.janitor()
	return h
}

// SetDefaultColor overrides the side new games assign to the human when the
// request leaves it unset.
func (h *GameHandler) SetDefaultColor(color string) {
	if color == "black" {
		h.defaultColor = color
	}
}

type CreateGameRequest struct {
	HumanColor string `json:"humanColor,omitempty"` // "white" (default) or "black"
	Depth      int    `json:"depth,omitempty"`
}

type CreateGameResponse struct {
	SessionID string           `json:"sessionId"`
	Snapshot  session.Snapshot `json:"snapshot"`
}

type ClickRequest struct {
	Square string `json:"square"`
}

type SnapshotResponse struct {
	Snapshot session.Snapshot `json:"snapshot"`
}

func generateID() string {
	bytes := make([]byte, 16)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

func (h *GameHandler) CreateGame(w http.ResponseWriter, r *http.Request) {
	var req CreateGameRequest
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req) // empty body means all defaults
	}

	colorName := req.HumanColor
	if colorName == "" {
		colorName = h.defaultColor
	}
	humanColor := chess.White
	if colorName == "black" {
		humanColor = chess.Black
	}

	depth := req.Depth
	if depth == 0 {
		depth = h.defaultDepth
	}
	if depth < models.MinSearchDepth || depth > models.MaxSearchDepth {
		http.Error(w, "Invalid search depth", http.StatusBadRequest)
		return
	}

	sessionID := generateID()
	entry := &gameEntry{
		sess:      session.New(humanColor, depth),
		startedAt: time.Now(),
		updatedAt: time.Now(),
	}
	if user, ok := middleware.GetUserFromContext(r.Context()); ok {
		entry.userID = &user.ID
	}

	// The engine opens when the human plays Black.
	entry.mu.Lock()
	entry.sess.PlayEngineTurn()
	snap := entry.sess.Snapshot()
	entry.mu.Unlock()

	h.mu.Lock()
	h.games[sessionID] = entry
	h.mu.Unlock()

	writeJSON(w, CreateGameResponse{SessionID: sessionID, Snapshot: snap})
}

func (h *GameHandler) GetGame(w http.ResponseWriter, r *http.Request) {
	entry := h.lookup(mux.Vars(r)["sessionId"])
	if entry == nil {
		http.Error(w, "Game not found", http.StatusNotFound)
		return
	}

	entry.mu.Lock()
	snap := entry.sess.Snapshot()
	entry.mu.Unlock()

	writeJSON(w, SnapshotResponse{Snapshot: snap})
}

// Click is the HTTP input event sink, mirroring the WebSocket click frames.
func (h *GameHandler) Click(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]
	entry := h.lookup(sessionID)
	if entry == nil {
		http.Error(w, "Game not found", http.StatusNotFound)
		return
	}

	var req ClickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	sq, err := rules.ParseSquare(req.Square)
	if err != nil {
		http.Error(w, "Invalid square", http.StatusBadRequest)
		return
	}

	snap := h.handleClick(sessionID, entry, sq)
	writeJSON(w, SnapshotResponse{Snapshot: snap})
}

// HandleClientClick implements InputSink for clicks arriving over WebSocket.
func (h *GameHandler) HandleClientClick(sessionID, square string) {
	entry := h.lookup(sessionID)
	if entry == nil {
		return
	}
	sq, err := rules.ParseSquare(square)
	if err != nil {
		return
	}
	h.handleClick(sessionID, entry, sq)
}

// handleClick drives the session state machine: feed the click, and when it
// completes the human's move, run the engine's reply before releasing the
// lock. Each applied move produces a snapshot broadcast.
func (h *GameHandler) handleClick(sessionID string, entry *gameEntry, sq chess.Square) session.Snapshot {
	entry.mu.Lock()
	defer entry.mu.Unlock()

	changed := entry.sess.HandleClick(sq)
	if !changed {
		return entry.sess.Snapshot()
	}
	entry.updatedAt = time.Now()

	if entry.sess.State() == session.StateEngineToMove {
		// Show the human's move before the search blocks the session.
		h.ws.BroadcastSnapshot(sessionID, entry.sess.Snapshot())
		entry.sess.PlayEngineTurn()
	}

	snap := entry.sess.Snapshot()
	h.ws.BroadcastSnapshot(sessionID, snap)

	if entry.sess.State() == session.StateGameOver {
		h.archiveGame(sessionID, entry)
	}
	return snap
}

func (h *GameHandler) Resign(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]
	entry := h.lookup(sessionID)
	if entry == nil {
		http.Error(w, "Game not found", http.StatusNotFound)
		return
	}

	entry.mu.Lock()
	entry.sess.Resign()
	entry.updatedAt = time.Now()
	snap := entry.sess.Snapshot()
	h.ws.BroadcastSnapshot(sessionID, snap)
	h.archiveGame(sessionID, entry)
	entry.mu.Unlock()

	writeJSON(w, SnapshotResponse{Snapshot: snap})
}

// RecentGames returns the caller's archived games, newest first.
func (h *GameHandler) RecentGames(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}
	if !h.db.Enabled() {
		writeJSON(w, []models.GameRecord{})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "completedAt", Value: -1}}).SetLimit(20)
	cursor, err := h.db.Games().Find(ctx, bson.M{"userId": user.ID}, opts)
	if err != nil {
		http.Error(w, "Failed to load games", http.StatusInternalServerError)
		return
	}
	defer cursor.Close(ctx)

	records := []models.GameRecord{}
	if err := cursor.All(ctx, &records); err != nil {
		http.Error(w, "Failed to load games", http.StatusInternalServerError)
		return
	}

	writeJSON(w, records)
}

func (h *GameHandler) lookup(sessionID string) *gameEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.games[sessionID]
}

// archiveGame writes the finished game to the archive. Caller holds the
// entry lock.
func (h *GameHandler) archiveGame(sessionID string, entry *gameEntry) {
	if entry.archived {
		return
	}
	entry.archived = true

	if !h.db.Enabled() {
		return
	}

	board := entry.sess.Board()
	moves := make([]string, 0, board.MoveCount())
	for _, m := range board.Moves() {
		moves = append(moves, m.String())
	}

	record := models.GameRecord{
		SessionID:   sessionID,
		UserID:      entry.userID,
		HumanColor:  rules.ColorName(entry.sess.HumanColor()),
		EngineDepth: entry.sess.Depth(),
		Moves:       moves,
		FinalFEN:    board.FEN(),
		MoveCount:   board.MoveCount(),
		StartedAt:   entry.startedAt,
		CompletedAt: time.Now(),
	}
	if outcome := entry.sess.Outcome(); outcome != nil {
		record.Winner = outcome.Winner
		record.WinReason = outcome.Reason
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := h.db.Games().InsertOne(ctx, record); err != nil {
		log.Printf("Failed to archive game %s: %v", sessionID, err)
	}
}

// janitor drops finished sessions an hour after their last activity and
// abandoned ones after a day, so the in-memory registry cannot grow without
// bound.
func (h *GameHandler) janitor() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()
		h.mu.Lock()
		for id, entry := range h.games {
			entry.mu.Lock()
			done := entry.sess.State() == session.StateGameOver
			idle := now.Sub(entry.updatedAt)
			entry.mu.Unlock()

			if (done && idle > time.Hour) || idle > 24*time.Hour {
				delete(h.games, id)
				log.Printf("Removed stale session %s", id)
			}
		}
		h.mu.Unlock()
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
