// Package http exposes the poll service to browsers: a JSON API for presenters and
// participants and a WebSocket for live prompt and tally updates.
package http

import (
	"bufio"
	"context"
	"log/slog"
	"net"
	"net/http"
	"pulse-lab/auth"
	"pulse-lab/observability"
	"pulse-lab/services"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Server struct {
	server   *http.Server
	router   *mux.Router
	service  services.IPollService
	monitor  *observability.Monitor
	upgrader websocket.Upgrader
	issuer   *auth.Issuer
	log      *slog.Logger
}

func NewServer(addr string, service services.IPollService, monitor *observability.Monitor, log *slog.Logger) *Server {
	s := &Server{
		router:  mux.NewRouter(),
		service: service,
		monitor: monitor,
		log:     log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Participants join from any page embedding the poll.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	s.setupRoutes()
	s.server = &http.Server{
		Addr:        addr,
		Handler:     s.router,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(s.middleware)
	// Middleware only runs on matched routes, so preflights need a route of their own.
	s.router.Methods(http.MethodOptions).HandlerFunc(handlePreflight)

	api := s.router.PathPrefix("/api").Subrouter()
	// Presenter
	api.HandleFunc("/sessions", s.handleCreateSession).Methods(http.MethodPost)
	api.Handle("/sessions/{id}", s.requirePresenter(s.handleEndSession)).Methods(http.MethodDelete)
	api.Handle("/sessions/{id}/prompt", s.requirePresenter(s.handlePublish)).Methods(http.MethodPut)
	api.HandleFunc("/sessions/{id}/slides/{slide}/tally", s.handleTally).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{id}/qr.png", s.handleQRCode).Methods(http.MethodGet)
	// Participant
	api.HandleFunc("/sessions/{id}/prompt", s.handleActivePrompt).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{id}/slides/{slide}/responses", s.handleSubmit).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/slides/{slide}/responses/{participant}", s.handleMark).Methods(http.MethodGet)
	// Ops
	api.HandleFunc("/stats", s.handleStats).Methods(http.MethodGet)
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	s.router.HandleFunc("/ws/sessions/{id}", s.handleWebSocket).Methods(http.MethodGet)
}

// UsePresenterAuth hands out presenter tokens on session creation and requires
// them on publish and end. Without it those routes are open.
func (s *Server) UsePresenterAuth(issuer *auth.Issuer) *Server {
	s.issuer = issuer
	return s
}

func (s *Server) requirePresenter(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.issuer != nil {
			token := auth.BearerToken(r.Header.Get("Authorization"))
			if err := s.issuer.Verify(token, sessionParam(r)); err != nil {
				s.sendDomainError(w, err)
				return
			}
		}
		next(w, r)
	})
}

// Handler is the routed handler, used directly by tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	s.log.Info("HTTP server starting", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("HTTP server shutting down")
	return s.server.Shutdown(ctx)
}

func (s *Server) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		s.log.Debug("Request served",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.statusCode,
			"duration", time.Since(start),
		)
	})
}

func handlePreflight(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Access-Control-Max-Age", "600")
	w.WriteHeader(http.StatusNoContent)
}

// responseWriter captures the status code and still lets the WebSocket upgrade hijack.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hijacker, ok := rw.ResponseWriter.(http.Hijacker); ok {
		return hijacker.Hijack()
	}
	return nil, nil, http.ErrNotSupported
}

func (rw *responseWriter) Flush() {
	if flusher, ok := rw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}
