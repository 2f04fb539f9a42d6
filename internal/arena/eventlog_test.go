package arena

import (
	"testing"

	"arenasrv/internal/eventlog"
)

func TestEmitEventNoopWithoutEventLog(t *testing.T) {
	a := New(DefaultConfig("test"), nil)
	a.EmitEvent(eventlog.TypeDamage, 1, nil) // must not panic
}

func TestEmitEventRecordsWithAttachedLog(t *testing.T) {
	a := New(DefaultConfig("test"), nil)
	el := eventlog.NewEventLog()
	if err := el.Start(""); err != nil {
		t.Fatalf("unexpected error starting event log: %v", err)
	}
	defer el.Stop()
	a.Events = el

	a.EmitEvent(eventlog.TypeKill, 1, eventlog.KillPayload{KillerID: 2, VictimID: 1})

	stats := el.GetStats()
	if stats.Total != 1 {
		t.Fatalf("expected one recorded event, got %d", stats.Total)
	}
}

func TestBanlistAddAndContains(t *testing.T) {
	b := NewBanlist()
	if b.Contains("fp-1") {
		t.Fatalf("expected fresh banlist to not contain anything")
	}
	b.Add("fp-1")
	if !b.Contains("fp-1") {
		t.Fatalf("expected banlist to contain added fingerprint")
	}
	if b.Contains("fp-2") {
		t.Fatalf("expected unrelated fingerprint to not be contained")
	}
}

func TestBanlistAddIgnoresEmptyFingerprint(t *testing.T) {
	b := NewBanlist()
	b.Add("")
	if b.Contains("") {
		t.Fatalf("expected empty fingerprint to never be recorded")
	}
}
