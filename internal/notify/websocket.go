package notify

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/roach88/collabevents/internal/domain"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = (pongWait * 9) / 10
	sendBuffer   = 64
)

var errSlowConsumer = errors.New("websocket send buffer full")

// Authenticator resolves the principal of an HTTP request.
type Authenticator func(r *http.Request) (domain.Principal, error)

// WebSocketHandler upgrades authenticated requests and streams the
// principal's changes as JSON text frames.
type WebSocketHandler struct {
	hub      *Hub
	auth     Authenticator
	upgrader websocket.Upgrader
}

// NewWebSocketHandler creates a handler registering listeners on hub.
// checkOrigin may be nil to use the same-origin default.
func NewWebSocketHandler(hub *Hub, auth Authenticator, checkOrigin func(*http.Request) bool) *WebSocketHandler {
	return &WebSocketHandler{
		hub:  hub,
		auth: auth,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
	}
}

// ServeHTTP implements http.Handler.
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p, err := h.auth(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		slog.Debug("websocket upgrade failed", "user", p.ID, "error", err)
		return
	}

	send := make(chan Change, sendBuffer)
	done := make(chan struct{})
	unsubscribe := h.hub.Subscribe(p.ID, func(c Change) error {
		select {
		case send <- c:
			return nil
		case <-done:
			return nil
		default:
			return errSlowConsumer
		}
	})

	slog.Debug("websocket connected", "user", p.ID)
	go writePump(conn, send, done)
	readPump(conn)

	unsubscribe()
	close(done)
	slog.Debug("websocket disconnected", "user", p.ID)
}

// readPump discards client frames and returns when the connection closes
// or stops answering pings.
func readPump(conn *websocket.Conn) {
	defer conn.Close()

	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Debug("websocket read error", "error", err)
			}
			return
		}
	}
}

// writePump serializes writes to conn; gorilla connections support one
// concurrent writer.
func writePump(conn *websocket.Conn, send <-chan Change, done <-chan struct{}) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case <-done:
			return
		case c := <-send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(c); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
