package netio

import "testing"

func TestConnectionGuardAllowHandshakeHonoursBurst(t *testing.T) {
	cfg := RateLimitConfig{RequestsPerSecond: 1, Burst: 2, ViolationLimit: 3, PenaltyDuration: 0}
	g := NewConnectionGuard(cfg, 0)
	defer g.Stop()

	if !g.AllowHandshake("1.2.3.4") {
		t.Fatalf("expected first handshake attempt to be allowed")
	}
	if !g.AllowHandshake("1.2.3.4") {
		t.Fatalf("expected second handshake attempt within burst to be allowed")
	}
	if g.AllowHandshake("1.2.3.4") {
		t.Fatalf("expected third handshake attempt to exceed burst")
	}
}

func TestConnectionGuardPenalizesRepeatedViolations(t *testing.T) {
	cfg := RateLimitConfig{RequestsPerSecond: 1000, Burst: 1000, ViolationLimit: 2, PenaltyDuration: 1e9}
	g := NewConnectionGuard(cfg, 0)
	defer g.Stop()

	if !g.AllowHandshake("5.6.7.8") {
		t.Fatalf("expected first handshake attempt to be allowed")
	}
	g.RecordViolation("5.6.7.8")
	g.RecordViolation("5.6.7.8")

	if g.AllowHandshake("5.6.7.8") {
		t.Fatalf("expected address to be penalized after crossing ViolationLimit")
	}

	g.ResetViolations("5.6.7.8")
	if !g.AllowHandshake("5.6.7.8") {
		t.Fatalf("expected penalty to clear once violations are reset")
	}
}

func TestConnectionGuardReserveSlotCapsPerIP(t *testing.T) {
	g := NewConnectionGuard(DefaultRateLimitConfig, 1)
	defer g.Stop()

	if !g.ReserveSlot("9.9.9.9") {
		t.Fatalf("expected first slot reservation to succeed")
	}
	if g.ReserveSlot("9.9.9.9") {
		t.Fatalf("expected second slot reservation to be refused at cap 1")
	}
	g.ReleaseSlot("9.9.9.9")
	if !g.ReserveSlot("9.9.9.9") {
		t.Fatalf("expected slot to be reusable after release")
	}
}

func TestConnectionGuardUnlimitedSlotsWhenMaxPerIPZero(t *testing.T) {
	g := NewConnectionGuard(DefaultRateLimitConfig, 0)
	defer g.Stop()

	for i := 0; i < 10; i++ {
		if !g.ReserveSlot("10.0.0.1") {
			t.Fatalf("expected unlimited reservations when maxPerIP is 0")
		}
	}
}
