package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"clickchess/internal/session"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for now
	},
}

// InputSink receives square clicks arriving over a WebSocket connection.
// The game handler implements it; the indirection keeps the transport free
// of game logic.
type InputSink interface {
	HandleClientClick(sessionID, square string)
}

type WebSocketHandler struct {
	hub  *Hub
	sink InputSink
}

func NewWebSocketHandler() *WebSocketHandler {
	hub := NewHub()
	go hub.Run()
	return &WebSocketHandler{hub: hub}
}

// SetInputSink wires inbound click messages to the game handler. Must be
// called before the first connection is accepted.
func (h *WebSocketHandler) SetInputSink(sink InputSink) {
	h.sink = sink
}

// Hub maintains active connections and broadcasts messages
type Hub struct {
	// Map of sessionId -> connected clients
	sessions map[string]map[*Client]bool
	mu       sync.RWMutex

	register   chan *Client
	unregister chan *Client
	broadcast  chan *BroadcastMessage
}

type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	sessionId string
	sink      InputSink
	send      chan []byte
}

type BroadcastMessage struct {
	SessionId string
	Message   []byte
}

// WSMessage is the envelope for both directions: the server sends snapshot
// frames, clients send click frames.
type WSMessage struct {
	Type     string            `json:"type"`
	Square   string            `json:"square,omitempty"`
	Snapshot *session.Snapshot `json:"snapshot,omitempty"`
}

func NewHub() *Hub {
	return &Hub{
		sessions:   make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *BroadcastMessage),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.sessions[client.sessionId] == nil {
				h.sessions[client.sessionId] = make(map[*Client]bool)
			}
			h.sessions[client.sessionId][client] = true
			h.mu.Unlock()
			log.Printf("Client registered: session=%s", client.sessionId)

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.sessions[client.sessionId]; ok {
				if _, ok := clients[client]; ok {
					delete(clients, client)
					close(client.send)
					if len(clients) == 0 {
						delete(h.sessions, client.sessionId)
					}
				}
			}
			h.mu.Unlock()
			log.Printf("Client unregistered: session=%s", client.sessionId)

		case msg := <-h.broadcast:
			h.mu.RLock()
			for client := range h.sessions[msg.SessionId] {
				select {
				case client.send <- msg.Message:
				default:
					close(client.send)
					delete(h.sessions[msg.SessionId], client)
				}
			}
			h.mu.RUnlock()
		}
	}
}

func (h *Hub) BroadcastToSession(sessionId string, message []byte) {
	h.broadcast <- &BroadcastMessage{
		SessionId: sessionId,
		Message:   message,
	}
}

// readPump is the input event sink: it decodes click frames and forwards
// them to the game handler. Anything unparseable is dropped.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		var msg WSMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		if msg.Type == "click" && msg.Square != "" && c.sink != nil {
			c.sink.HandleClientClick(c.sessionId, msg.Square)
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	sessionId := vars["sessionId"]

	if sessionId == "" {
		http.Error(w, "Missing sessionId", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := &Client{
		hub:       h.hub,
		conn:      conn,
		sessionId: sessionId,
		sink:      h.sink,
		send:      make(chan []byte, 256),
	}

	h.hub.register <- client

	go client.writePump()
	go client.readPump()
}

// BroadcastSnapshot sends the current render model to every client watching
// a session.
func (h *WebSocketHandler) BroadcastSnapshot(sessionId string, snap session.Snapshot) {
	msg := WSMessage{
		Type:     "snapshot",
		Snapshot: &snap,
	}
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Failed to marshal snapshot: %v", err)
		return
	}
	h.hub.BroadcastToSession(sessionId, data)
}
