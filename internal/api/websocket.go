package api

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"nhooyr.io/websocket"

	"github.com/whirlwatch/whirlwatch/internal/auth"
)

// ──────────────────── WebSocket Hub ────────────────────

// WSHub fans engine events out to connected clients. It satisfies the
// engine's notifier contract; a slow client drops messages rather than
// blocking the broadcast.
type WSHub struct {
	mu      sync.RWMutex
	clients map[*WSClient]bool
}

type WSClient struct {
	conn   *websocket.Conn
	userID string
	send   chan []byte
}

type WSMessage struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

func NewWSHub() *WSHub {
	return &WSHub{clients: make(map[*WSClient]bool)}
}

func (h *WSHub) Broadcast(event string, data interface{}) {
	msg, err := json.Marshal(WSMessage{Event: event, Data: data})
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		select {
		case client.send <- msg:
		default:
		}
	}
}

func (h *WSHub) addClient(c *WSClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = true
}

func (h *WSHub) removeClient(c *WSClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		close(c.send)
		delete(h.clients, c)
	}
}

func (h *WSHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ──────────────────── WebSocket Handler ────────────────────

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	caller := auth.UserFromContext(r.Context())

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		log.Printf("[api] websocket accept: %v", err)
		return
	}

	client := &WSClient{
		conn:   conn,
		userID: caller.UserID.String(),
		send:   make(chan []byte, 64),
	}

	s.wsHub.addClient(client)
	log.Printf("[api] websocket client connected: %s", caller.Username)

	ctx := r.Context()

	// Writer goroutine
	go func() {
		defer conn.Close(websocket.StatusNormalClosure, "")
		for msg := range client.send {
			if err := conn.Write(ctx, websocket.MessageText, msg); err != nil {
				return
			}
		}
	}()

	// Reader loop keeps the connection alive and handles pings.
	for {
		_, _, err := conn.Read(ctx)
		if err != nil {
			break
		}
	}

	s.wsHub.removeClient(client)
	log.Printf("[api] websocket client disconnected: %s", caller.Username)
}
