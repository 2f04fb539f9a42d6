// Package observability exposes the Prometheus metrics and debug server
// adapted from the teacher's internal/api/observability.go: bounded-label
// counters/gauges/histograms plus a localhost-only pprof/metrics server.
package observability

import (
	"log"
	"net/http"
	"net/http/pprof"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	tickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "arena_tick_duration_seconds",
		Help:    "Time spent advancing one arena tick",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05},
	})

	entityCount = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "arena_entity_count",
		Help: "Current live entity count by kind",
	}, []string{"kind"}) // tank | shape | projectile

	arenaCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arenas_active",
		Help: "Currently running arena instances",
	})

	connectionRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "connection_rejected_total",
		Help: "Connections rejected at handshake or spawn validation",
	}, []string{"reason"}) // "rate_limit", "capacity", "per_ip_limit", "bad_spawn", "duplicate_uid", "bad_opcode"

	connectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "connections_active",
		Help: "Currently connected clients across all arenas",
	})

	ratedMatchesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ranked_matches_completed_total",
		Help: "Ranked 1v1 matches that reached a decided outcome",
	})

	requestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Control-plane HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "endpoint"})

	requestTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total control-plane HTTP requests",
	}, []string{"method", "endpoint", "status"})
)

// Config configures the debug server.
type Config struct {
	Enabled       bool
	ListenAddr    string // should stay "127.0.0.1:6060" outside trusted networks
	BasicAuthUser string
	BasicAuthPass string
}

// DefaultConfig returns safe localhost-only defaults.
func DefaultConfig() Config {
	return Config{
		Enabled:    true,
		ListenAddr: "127.0.0.1:6060",
	}
}

// StartDebugServer starts the pprof/metrics server, forcing a localhost
// bind unless ALLOW_DEBUG_EXTERNAL=true is set.
func StartDebugServer(cfg Config) error {
	if !cfg.Enabled {
		log.Println("observability: debug server disabled")
		return nil
	}

	if cfg.ListenAddr != "127.0.0.1:6060" && cfg.ListenAddr != "localhost:6060" {
		if os.Getenv("ALLOW_DEBUG_EXTERNAL") != "true" {
			log.Println("observability: forcing debug server to localhost")
			cfg.ListenAddr = "127.0.0.1:6060"
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	var handler http.Handler = mux
	if cfg.BasicAuthUser != "" {
		handler = basicAuthMiddleware(cfg.BasicAuthUser, cfg.BasicAuthPass, mux)
	}

	go func() {
		log.Printf("observability: debug server on %s", cfg.ListenAddr)
		if err := http.ListenAndServe(cfg.ListenAddr, handler); err != nil {
			log.Printf("observability: debug server error: %v", err)
		}
	}()
	return nil
}

func basicAuthMiddleware(user, pass string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || u != user || p != pass {
			w.Header().Set("WWW-Authenticate", `Basic realm="debug"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RecordTick records one arena tick's wall-clock duration.
func RecordTick(d time.Duration) { tickDuration.Observe(d.Seconds()) }

// SetEntityCount updates the per-kind live entity gauge.
func SetEntityCount(kind string, count int) { entityCount.WithLabelValues(kind).Set(float64(count)) }

// SetArenaCount updates the active-arena gauge.
func SetArenaCount(count int) { arenaCount.Set(float64(count)) }

// RecordConnectionRejected increments the rejection counter for reason.
func RecordConnectionRejected(reason string) { connectionRejected.WithLabelValues(reason).Inc() }

// SetConnectionsActive updates the active-connection gauge.
func SetConnectionsActive(count int) { connectionsActive.Set(float64(count)) }

// RecordRankedMatchCompleted increments the completed-ranked-match counter.
func RecordRankedMatchCompleted() { ratedMatchesTotal.Inc() }

// RecordRequest records one control-plane HTTP request's outcome.
func RecordRequest(method, endpoint string, status int, d time.Duration) {
	requestLatency.WithLabelValues(method, endpoint).Observe(d.Seconds())
	requestTotal.WithLabelValues(method, endpoint, http.StatusText(status)).Inc()
}
