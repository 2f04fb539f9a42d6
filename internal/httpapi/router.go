// Package httpapi is the control-plane HTTP surface: arena listing,
// per-arena stats, ranked ladder snapshots, and a health endpoint. Metrics
// and pprof are served by internal/observability's debug server instead.
// Adapted from the teacher's internal/api/router.go, stripped of the
// streaming/Kick-OAuth/admin-panel surface that has no analogue here.
package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"arenasrv/internal/arena"
	"arenasrv/internal/netio"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// ArenaSource resolves arenas by key for the control plane, implemented by
// whatever process owns the arena registry (cmd/server).
type ArenaSource interface {
	Get(key string) (*arena.Arena, bool)
	List() []string
}

// RouterConfig bundles the dependencies NewRouter needs, mirroring the
// teacher's dependency-injected RouterConfig shape.
type RouterConfig struct {
	Arenas ArenaSource
	Hubs   map[string]*netio.Hub

	RateLimiter    *netio.ConnectionGuard
	CORSOrigins    []string
	DisableLogging bool
}

// NewRouter constructs the control-plane router. It opens no listener, so
// it can be served by httptest.NewServer; when cfg.RateLimiter is nil it
// creates a default netio.ConnectionGuard, which starts that guard's
// cleanup goroutine.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	if !cfg.DisableLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)

	rateLimiter := cfg.RateLimiter
	if rateLimiter == nil {
		rateLimiter = netio.NewConnectionGuard(netio.DefaultRateLimitConfig, 0)
	}
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if !rateLimiter.Allow(netio.GetClientIP(req)) {
				http.Error(w, "rate limited", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, req)
		})
	})

	corsOrigins := cfg.CORSOrigins
	if corsOrigins == nil {
		corsOrigins = []string{"http://localhost:*", "http://127.0.0.1:*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: corsOrigins,
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"*"},
	}))

	h := &handlers{arenas: cfg.Arenas, hubs: cfg.Hubs}

	r.Get("/health", h.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/arenas", h.handleListArenas)
		r.Get("/arenas/{key}/status", h.handleArenaStatus)
		r.Get("/arenas/{key}/leaderboard/{category}", h.handleLeaderboard)
	})

	return r
}

type handlers struct {
	arenas ArenaSource
	hubs   map[string]*netio.Hub
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func (h *handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok", "time": time.Now().UTC().Format(time.RFC3339)})
}

func (h *handlers) handleListArenas(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{"arenas": h.arenas.List()})
}

type arenaStatusResponse struct {
	Key         string `json:"key"`
	State       string `json:"state"`
	Tanks       int    `json:"tanks"`
	Shapes      int    `json:"shapes"`
	Projectiles int    `json:"projectiles"`
	Connections int    `json:"connections"`
}

func (h *handlers) handleArenaStatus(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	a, ok := h.arenas.Get(key)
	if !ok {
		http.NotFound(w, r)
		return
	}

	a.Lock()
	resp := arenaStatusResponse{
		Key:         key,
		State:       stateName(a.State),
		Tanks:       len(a.Tanks),
		Shapes:      len(a.Shapes),
		Projectiles: len(a.Projectiles),
	}
	a.Unlock()

	if hub, ok := h.hubs[key]; ok {
		resp.Connections = hub.ConnectionCount()
	}
	writeJSON(w, resp)
}

func stateName(s arena.State) string {
	switch s {
	case arena.StateOpen:
		return "open"
	case arena.StateNotAccepting:
		return "not_accepting"
	case arena.StateTimeoutClosing:
		return "timeout_closing"
	case arena.StateClosing:
		return "closing"
	case arena.StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

type ladderEntry struct {
	PlayerUID string  `json:"player_uid"`
	Rating    float64 `json:"rating"`
	Rank      int     `json:"rank"`
	RD        float64 `json:"rd"`
}

func (h *handlers) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	a, ok := h.arenas.Get(key)
	if !ok {
		http.NotFound(w, r)
		return
	}

	category, err := strconv.Atoi(chi.URLParam(r, "category"))
	if err != nil {
		http.Error(w, "invalid category", http.StatusBadRequest)
		return
	}

	a.Lock()
	ladder, ok := a.Ladders[category]
	a.Unlock()
	if !ok {
		writeJSON(w, []ladderEntry{})
		return
	}

	top := ladder.Top(10)
	entries := make([]ladderEntry, 0, len(top))
	for _, e := range top {
		rd := 0.0
		if full, ok := ladder.Get(e.PlayerUID); ok {
			rd = full.RD
		}
		entries = append(entries, ladderEntry{PlayerUID: e.PlayerUID, Rating: e.Rating, Rank: e.Rank, RD: rd})
	}
	writeJSON(w, entries)
}
