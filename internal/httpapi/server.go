package httpapi

import (
	"log"
	"net/http"

	"arenasrv/internal/netio"
)

// Server is the control-plane HTTP server. Constructing it opens no
// listener; Start opens it.
type Server struct {
	router      http.Handler
	rateLimiter *netio.ConnectionGuard
	logger      *log.Logger
}

// NewServer builds the control-plane server around an already-populated
// RouterConfig. No listener is started here, mirroring the teacher's
// NewServer/Start split (internal/api/server.go); when cfg.RateLimiter is
// nil, the default ConnectionGuard created here starts its cleanup
// goroutine.
func NewServer(cfg RouterConfig, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	rateLimiter := cfg.RateLimiter
	if rateLimiter == nil {
		rateLimiter = netio.NewConnectionGuard(netio.DefaultRateLimitConfig, 0)
		cfg.RateLimiter = rateLimiter
	}
	return &Server{
		router:      NewRouter(cfg),
		rateLimiter: rateLimiter,
		logger:      logger,
	}
}

// Router exposes the handler for httptest-backed integration tests.
func (s *Server) Router() http.Handler { return s.router }

// Start blocks serving the control plane on addr.
func (s *Server) Start(addr string) error {
	s.logger.Printf("httpapi: control plane listening on %s", addr)
	return http.ListenAndServe(addr, s.router)
}

// Stop releases background resources (the rate limiter's cleanup
// goroutine). The HTTP listener itself has no graceful-drain hook here,
// matching the teacher's own noted limitation in internal/api/server.go.
func (s *Server) Stop() {
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
}
