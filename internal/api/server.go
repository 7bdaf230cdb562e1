// Package api exposes the event engine over HTTP.
//
// Every route except /health requires a bearer token. Engine error kinds
// map to status codes:
//
//	not_found        404
//	forbidden        403
//	conflict         409
//	validation       422
//	storage_failure  500
//
// A missing or invalid token is 401. Malformed request bodies are 400.
package api

import (
	"bufio"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/roach88/collabevents/internal/auth"
	"github.com/roach88/collabevents/internal/domain"
	"github.com/roach88/collabevents/internal/engine"
	"github.com/roach88/collabevents/internal/notify"
)

// Server routes HTTP requests to the engine.
type Server struct {
	engine *engine.Engine
	tokens *auth.Tokens
	mux    *http.ServeMux
	ws     *notify.WebSocketHandler
}

// NewServer creates a Server. Live changes for /ws/notifications are
// served from hub; checkOrigin may be nil for same-origin only.
func NewServer(e *engine.Engine, tokens *auth.Tokens, hub *notify.Hub, checkOrigin func(*http.Request) bool) *Server {
	s := &Server{
		engine: e,
		tokens: tokens,
		mux:    http.NewServeMux(),
		ws:     notify.NewWebSocketHandler(hub, tokens.FromRequest, checkOrigin),
	}
	s.registerRoutes()
	return s
}

// Handler returns the root handler with request logging.
func (s *Server) Handler() http.Handler {
	return logRequests(s.mux)
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)

	s.mux.HandleFunc("GET /api/events", s.authed(s.handleListEvents))
	s.mux.HandleFunc("POST /api/events", s.authed(s.handleCreateEvent))
	s.mux.HandleFunc("POST /api/events/batch", s.authed(s.handleCreateEvents))
	s.mux.HandleFunc("GET /api/events/{id}", s.authed(s.handleGetEvent))
	s.mux.HandleFunc("PATCH /api/events/{id}", s.authed(s.handleUpdateEvent))
	s.mux.HandleFunc("GET /api/events/{id}/permissions", s.authed(s.handleListPermissions))
	s.mux.HandleFunc("POST /api/events/{id}/share", s.authed(s.handleShareEvent))
	s.mux.HandleFunc("GET /api/events/{id}/history", s.authed(s.handleHistory))
	s.mux.HandleFunc("GET /api/events/{id}/history/{versionID}", s.authed(s.handleVersion))
	s.mux.HandleFunc("GET /api/events/{id}/diff/{from}/{to}", s.authed(s.handleDiff))
	s.mux.HandleFunc("POST /api/events/{id}/rollback/{versionID}", s.authed(s.handleRollback))
	s.mux.HandleFunc("GET /api/events/{id}/ical", s.authed(s.handleExport))

	s.mux.HandleFunc("GET /api/notifications", s.authed(s.handleListNotifications))
	s.mux.HandleFunc("POST /api/notifications/{id}/read", s.authed(s.handleMarkRead))

	s.mux.Handle("GET /ws/notifications", s.ws)
}

type authedHandler func(w http.ResponseWriter, r *http.Request, p domain.Principal)

// authed resolves the bearer principal before calling h.
func (s *Server) authed(h authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := s.tokens.FromRequest(r)
		if err != nil {
			slog.Debug("rejected request", "path", r.URL.Path, "error", err)
			w.Header().Set("WWW-Authenticate", `Bearer realm="collabevents"`)
			writeError(w, http.StatusUnauthorized, "unauthenticated", "a valid bearer token is required", nil)
			return
		}
		h(w, r, p)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Hijack supports the WebSocket upgrade.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	r.status = http.StatusSwitchingProtocols
	return http.NewResponseController(r.ResponseWriter).Hijack()
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		slog.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}
