package arena

import (
	"testing"

	"arenasrv/internal/catalog"
	"arenasrv/internal/entity"
	"arenasrv/internal/vecmath"
)

func newClanTank(a *Arena, id uint32, name string) *entity.Tank {
	t := entity.NewTank(id, catalog.Basic.ID, name, vecmath.Vec2{}, entity.Privilege{Kind: entity.PrivilegePlayer})
	a.Tanks[id] = t
	return t
}

func TestCreateClanAssignsFirstFreeSlot(t *testing.T) {
	a := New(DefaultConfig("test"), nil)
	founder := newClanTank(a, 1, "founder")

	a.CreateClan(1, "Reapers")

	if founder.ClanSlot != 0 {
		t.Fatalf("expected founder to land in slot 0, got %d", founder.ClanSlot)
	}
	clan := a.Clans[0]
	if clan == nil || clan.Name != "Reapers" || clan.OwnerID != 1 {
		t.Fatalf("expected a new clan owned by 1, got %+v", clan)
	}
}

func TestCreateClanRejectsAlreadyClanned(t *testing.T) {
	a := New(DefaultConfig("test"), nil)
	founder := newClanTank(a, 1, "founder")
	a.CreateClan(1, "Reapers")

	a.CreateClan(1, "Second")

	if founder.ClanSlot != 0 {
		t.Fatalf("expected founder's slot to stay at 0, got %d", founder.ClanSlot)
	}
	for i := 1; i < len(a.Clans); i++ {
		if a.Clans[i] != nil {
			t.Fatalf("expected no second clan to be created, found one at slot %d", i)
		}
	}
}

func TestJoinAndAcceptAddsMember(t *testing.T) {
	a := New(DefaultConfig("test"), nil)
	newClanTank(a, 1, "founder")
	a.CreateClan(1, "Reapers")
	applicant := newClanTank(a, 2, "applicant")

	a.RequestJoinClan(2, 0)
	if !clanHasPending(a.Clans[0], 2) {
		t.Fatalf("expected applicant to be queued as a pending invite")
	}

	a.RespondToJoinRequest(1, 2, true)

	if applicant.ClanSlot != 0 {
		t.Fatalf("expected applicant to be assigned slot 0 after acceptance, got %d", applicant.ClanSlot)
	}
	if !clanHasMember(a.Clans[0], 2) {
		t.Fatalf("expected applicant to be a member after acceptance")
	}
	if clanHasPending(a.Clans[0], 2) {
		t.Fatalf("expected applicant to be cleared from pending after acceptance")
	}
}

func TestDeclineJoinRequestLeavesApplicantUnclanned(t *testing.T) {
	a := New(DefaultConfig("test"), nil)
	newClanTank(a, 1, "founder")
	a.CreateClan(1, "Reapers")
	applicant := newClanTank(a, 2, "applicant")
	a.RequestJoinClan(2, 0)

	a.RespondToJoinRequest(1, 2, false)

	if applicant.ClanSlot != -1 {
		t.Fatalf("expected declined applicant to remain unclanned, got slot %d", applicant.ClanSlot)
	}
	if clanHasPending(a.Clans[0], 2) {
		t.Fatalf("expected declined applicant to be removed from pending")
	}
}

func TestLeaveClanGoesThroughGracePeriod(t *testing.T) {
	a := New(DefaultConfig("test"), nil)
	newClanTank(a, 1, "founder")
	a.CreateClan(1, "Reapers")
	member := newClanTank(a, 2, "member")
	a.RequestJoinClan(2, 0)
	a.RespondToJoinRequest(1, 2, true)

	a.LeaveClan(2, a.Ticks)

	if !member.ClanLeaving {
		t.Fatalf("expected LeaveClan to flag the tank as leaving, not remove it instantly")
	}
	if member.ClanSlot != 0 {
		t.Fatalf("expected membership to persist until clanHousekeeping's grace period elapses")
	}
}

func TestKickRequiresOwnership(t *testing.T) {
	a := New(DefaultConfig("test"), nil)
	newClanTank(a, 1, "founder")
	a.CreateClan(1, "Reapers")
	member := newClanTank(a, 2, "member")
	a.RequestJoinClan(2, 0)
	a.RespondToJoinRequest(1, 2, true)
	outsider := newClanTank(a, 3, "outsider")
	a.CreateClan(3, "Outsiders")

	a.KickFromClan(3, 2, a.Ticks)
	if member.ClanLeaving {
		t.Fatalf("expected a non-owner's kick attempt to be ignored")
	}

	a.KickFromClan(1, 2, a.Ticks)
	if !member.ClanLeaving {
		t.Fatalf("expected the owner's kick to flag the target as leaving")
	}
	_ = outsider
}

func TestSetDistressFlagsTank(t *testing.T) {
	a := New(DefaultConfig("test"), nil)
	tank := newClanTank(a, 1, "founder")

	a.SetDistress(1)

	if !tank.ClanDistressed {
		t.Fatalf("expected SetDistress to flag the tank")
	}
}

func clanHasPending(c *entity.Clan, id uint32) bool {
	for _, p := range c.PendingInvites {
		if p == id {
			return true
		}
	}
	return false
}
