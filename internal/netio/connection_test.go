package netio

import (
	"testing"

	"arenasrv/internal/arena"
	"arenasrv/internal/entity"
	"arenasrv/internal/eventlog"
)

func TestValidateSpawnRejectsEmptyNickname(t *testing.T) {
	a := arena.New(arena.DefaultConfig("test"), nil)
	err := ValidateSpawn(a, SpawnRequest{Nickname: ""}, "", nil)
	if err == nil {
		t.Fatalf("expected error for empty nickname")
	}
}

func TestValidateSpawnRejectsBannedFingerprint(t *testing.T) {
	a := arena.New(arena.DefaultConfig("test"), nil)
	a.Banlist.Add("fp-1")

	err := ValidateSpawn(a, SpawnRequest{Nickname: "tester", Fingerprint: "fp-1"}, "", nil)
	if err == nil {
		t.Fatalf("expected error for banned fingerprint")
	}
}

func TestValidateSpawnRejectsDuplicateUID(t *testing.T) {
	a := arena.New(arena.DefaultConfig("test"), nil)
	existing := map[string]bool{"uid-1": true}

	err := ValidateSpawn(a, SpawnRequest{Nickname: "tester"}, "uid-1", existing)
	if err == nil {
		t.Fatalf("expected error for duplicate uid")
	}
}

func TestValidateSpawnAllowsDuplicateUIDOutsideProduction(t *testing.T) {
	a := arena.New(arena.DefaultConfig("test"), nil)
	a.Config.NonProductionSkipsDuplicateCheck = true
	existing := map[string]bool{"uid-1": true}

	err := ValidateSpawn(a, SpawnRequest{Nickname: "tester"}, "uid-1", existing)
	if err != nil {
		t.Fatalf("expected duplicate check to be skipped, got %v", err)
	}
}

func TestSpawnTankEmitsJoinEvent(t *testing.T) {
	a := arena.New(arena.DefaultConfig("test"), nil)
	el := eventlog.NewEventLog()
	if err := el.Start(""); err != nil {
		t.Fatalf("unexpected error starting event log: %v", err)
	}
	defer el.Stop()
	a.Events = el

	req := SpawnRequest{Nickname: "tester", Fingerprint: "fp-1"}
	tank := SpawnTank(a, a.NextEntityID(), req, "uid-1", entity.Privilege{Kind: entity.PrivilegePlayer})

	if tank == nil {
		t.Fatalf("expected a spawned tank")
	}
	stats := el.GetStats()
	if stats.Total != 1 {
		t.Fatalf("expected one emitted event, got %d", stats.Total)
	}
}

func TestSpawnTankToleratesNilEventLog(t *testing.T) {
	a := arena.New(arena.DefaultConfig("test"), nil)
	req := SpawnRequest{Nickname: "tester", Fingerprint: "fp-1"}

	tank := SpawnTank(a, a.NextEntityID(), req, "uid-1", entity.Privilege{Kind: entity.PrivilegePlayer})
	if tank == nil {
		t.Fatalf("expected a spawned tank even with no event log attached")
	}
}

func TestDisconnectTimeoutExceeded(t *testing.T) {
	if DisconnectTimeoutExceeded(0, 1) {
		t.Fatalf("expected timeout not exceeded immediately after last tick")
	}
}
