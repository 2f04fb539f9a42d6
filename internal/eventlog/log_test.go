package eventlog

import (
	"testing"
)

func TestEmitNoopBeforeStart(t *testing.T) {
	el := NewEventLog()
	ok := el.Emit(NewEvent(TypeTankJoin, 1, 1, nil))
	if ok {
		t.Fatalf("expected Emit to report false before Start")
	}
}

func TestEmitRecordsAfterStart(t *testing.T) {
	el := NewEventLog()
	if err := el.Start(""); err != nil {
		t.Fatalf("unexpected error starting event log: %v", err)
	}
	defer el.Stop()

	ok := el.Emit(NewEvent(TypeTankJoin, 1, 1, JoinPayload{Name: "tester"}))
	if !ok {
		t.Fatalf("expected Emit to succeed after Start")
	}

	stats := el.GetStats()
	if stats.Total != 1 {
		t.Fatalf("expected total=1, got %d", stats.Total)
	}
}

func TestEmitCountsEveryAcceptedEvent(t *testing.T) {
	el := NewEventLog()
	if err := el.Start(""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer el.Stop()

	for i := 0; i < 5; i++ {
		el.Emit(NewEvent(TypeDamage, 0, uint32(i+1), nil))
	}
	stats := el.GetStats()
	if stats.Total != 5 {
		t.Fatalf("expected 5 recorded events, got %d", stats.Total)
	}
}

func TestTypeStringCoversKnownValues(t *testing.T) {
	cases := map[Type]string{
		TypeTankJoin:       "tank_join",
		TypeTankLeave:      "tank_leave",
		TypeDamage:         "damage",
		TypeKill:           "kill",
		TypeRespawn:        "respawn",
		TypeRankedMatchEnd: "ranked_match_end",
		TypeClanDisband:    "clan_disband",
		TypeUnknown:        "unknown",
	}
	for typ, want := range cases {
		if got := typ.String(); got != want {
			t.Fatalf("Type(%d).String() = %q, want %q", typ, got, want)
		}
	}
}
