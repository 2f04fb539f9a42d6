// Package netio implements the connection multiplexer (§4.9): per-client
// socket bookkeeping, the cipher handshake, spawn-packet validation, and the
// per-tick outbound drain. Adapted from the teacher's internal/api
// websocket/ratelimit stack, swapped from JSON broadcast to the binary wire
// protocol.
package netio

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitConfig configures both the generic per-IP request throttle and
// the handshake-specific violation penalty described in §4.9: a build
// mismatch, a banned fingerprint, or a rejected duplicate-UID spawn all
// close the connection with a "ban-worthy error code" rather than a plain
// rejection, so repeat offenders from the same address earn a cooldown on
// top of the steady-state token bucket.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
	CleanupInterval   time.Duration

	// ViolationLimit is how many bad spawn attempts (build mismatch,
	// banned fingerprint, rejected duplicate UID) an address may make
	// before AllowHandshake starts refusing it outright.
	ViolationLimit int
	// PenaltyDuration is how long that refusal lasts once ViolationLimit
	// is reached, counted from the most recent violation.
	PenaltyDuration time.Duration
}

// DefaultRateLimitConfig is production-safe: 10 rps, burst 20, three bad
// spawns earn a two-minute handshake cooldown.
var DefaultRateLimitConfig = RateLimitConfig{
	RequestsPerSecond: 10,
	Burst:             20,
	CleanupInterval:   5 * time.Minute,
	ViolationLimit:    3,
	PenaltyDuration:   2 * time.Minute,
}

// addressState is the per-IP bookkeeping a ConnectionGuard tracks: the
// steady-state token bucket, the open-socket count, and the handshake
// violation/penalty counters, all under one lock instead of scattered
// across two independent maps.
type addressState struct {
	mu sync.Mutex

	limiter  *rate.Limiter
	lastSeen time.Time

	openSockets int

	violations  int
	penalizedAt time.Time
}

// ConnectionGuard is the single admission gate the multiplexer consults
// before and during a handshake: request-rate throttling, concurrent-socket
// capping, and escalating penalties for repeated protocol violations on a
// given address. Folding these three concerns into one keyed-by-IP state
// machine avoids tracking the same address in three independent maps.
type ConnectionGuard struct {
	states   sync.Map // string(ip) -> *addressState
	config   RateLimitConfig
	maxPerIP int

	stopChan chan struct{}
	stopOnce sync.Once
}

// NewConnectionGuard starts a guard with a background cleanup sweep for
// addresses that have gone quiet.
func NewConnectionGuard(cfg RateLimitConfig, maxPerIP int) *ConnectionGuard {
	g := &ConnectionGuard{config: cfg, maxPerIP: maxPerIP, stopChan: make(chan struct{})}
	go g.cleanupLoop()
	return g
}

// Stop halts the cleanup goroutine.
func (g *ConnectionGuard) Stop() {
	g.stopOnce.Do(func() { close(g.stopChan) })
}

func (g *ConnectionGuard) state(ip string) *addressState {
	if existing, ok := g.states.Load(ip); ok {
		return existing.(*addressState)
	}
	fresh := &addressState{
		limiter: rate.NewLimiter(rate.Limit(g.config.RequestsPerSecond), g.config.Burst),
	}
	actual, _ := g.states.LoadOrStore(ip, fresh)
	return actual.(*addressState)
}

// Allow is the plain steady-state throttle, used by the control-plane HTTP
// router where there is no handshake/violation concept.
func (g *ConnectionGuard) Allow(ip string) bool {
	s := g.state(ip)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = time.Now()
	return s.limiter.Allow()
}

// AllowHandshake is Allow plus the penalty gate: an address serving out a
// ViolationLimit-exceeding streak of bad spawns is refused outright until
// PenaltyDuration elapses, independent of whether its token bucket has
// refilled.
func (g *ConnectionGuard) AllowHandshake(ip string) bool {
	s := g.state(ip)
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.lastSeen = now
	if s.violations >= g.config.ViolationLimit && now.Sub(s.penalizedAt) < g.config.PenaltyDuration {
		return false
	}
	return s.limiter.Allow()
}

// RecordViolation registers one protocol-violation spawn attempt from ip
// (§4.9: build mismatch, banned fingerprint, rejected duplicate UID).
// Crossing ViolationLimit (re)starts the penalty window.
func (g *ConnectionGuard) RecordViolation(ip string) {
	s := g.state(ip)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.violations++
	if s.violations >= g.config.ViolationLimit {
		s.penalizedAt = time.Now()
	}
}

// ResetViolations clears an address's violation count after a successful
// handshake, so a single earlier mistake doesn't linger forever.
func (g *ConnectionGuard) ResetViolations(ip string) {
	s := g.state(ip)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.violations = 0
}

// ReserveSlot claims one of maxPerIP concurrent-socket slots for ip,
// reporting whether one was available.
func (g *ConnectionGuard) ReserveSlot(ip string) bool {
	s := g.state(ip)
	s.mu.Lock()
	defer s.mu.Unlock()
	if g.maxPerIP > 0 && s.openSockets >= g.maxPerIP {
		return false
	}
	s.openSockets++
	return true
}

// ReleaseSlot frees a previously reserved socket slot for ip.
func (g *ConnectionGuard) ReleaseSlot(ip string) {
	s := g.state(ip)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.openSockets > 0 {
		s.openSockets--
	}
}

func (g *ConnectionGuard) cleanupLoop() {
	interval := g.config.CleanupInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-g.stopChan:
			return
		case <-ticker.C:
			g.cleanup()
		}
	}
}

func (g *ConnectionGuard) cleanup() {
	cutoff := time.Now().Add(-g.config.CleanupInterval * 2)
	g.states.Range(func(key, value interface{}) bool {
		s := value.(*addressState)
		s.mu.Lock()
		idle := s.lastSeen.Before(cutoff) && s.openSockets == 0
		s.mu.Unlock()
		if idle {
			g.states.Delete(key)
		}
		return true
	})
}

// GetClientIP extracts the client IP, preferring X-Forwarded-For /
// X-Real-IP over RemoteAddr for proxied deployments.
func GetClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx >= 0 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
