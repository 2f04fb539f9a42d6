package arena

import (
	"testing"

	"arenasrv/internal/entity"
	"arenasrv/internal/vecmath"
)

func newRankedArena() *Arena {
	cfg := DefaultConfig("ranked-test")
	cfg.GameMode = ModeRanked
	return New(cfg, nil)
}

func TestEnqueueRankedAddsToQueue(t *testing.T) {
	a := newRankedArena()
	tank := entity.NewTank(1, 0, "alice", vecmath.Vec2{}, entity.Privilege{Kind: entity.PrivilegePlayer})
	tank.UserID = "uid-alice"
	a.Tanks[1] = tank

	a.EnqueueRanked(tank)

	if len(a.Ranked.Queue) != 1 {
		t.Fatalf("expected one queued player, got %d", len(a.Ranked.Queue))
	}
}

func TestEnqueueRankedIgnoresAnonymousTank(t *testing.T) {
	a := newRankedArena()
	tank := entity.NewTank(1, 0, "bot", vecmath.Vec2{}, entity.Privilege{Kind: entity.PrivilegeBot})

	a.EnqueueRanked(tank)

	if len(a.Ranked.Queue) != 0 {
		t.Fatalf("expected anonymous tank to be skipped, got %d queued", len(a.Ranked.Queue))
	}
}

func TestMatchmakeRankedPairsTwoQueuedTanks(t *testing.T) {
	a := newRankedArena()
	alice := entity.NewTank(1, 0, "alice", vecmath.Vec2{}, entity.Privilege{Kind: entity.PrivilegePlayer})
	alice.UserID = "uid-alice"
	bob := entity.NewTank(2, 0, "bob", vecmath.Vec2{}, entity.Privilege{Kind: entity.PrivilegePlayer})
	bob.UserID = "uid-bob"
	a.Tanks[1] = alice
	a.Tanks[2] = bob

	a.EnqueueRanked(alice)
	a.EnqueueRanked(bob)
	a.matchmakeRanked()

	if alice.OpponentID != bob.ID || bob.OpponentID != alice.ID {
		t.Fatalf("expected alice and bob to be paired, got alice.OpponentID=%d bob.OpponentID=%d", alice.OpponentID, bob.OpponentID)
	}
	if len(a.Ranked.Matches) != 1 {
		t.Fatalf("expected one match to be recorded, got %d", len(a.Ranked.Matches))
	}
	if len(a.Ranked.Queue) != 0 {
		t.Fatalf("expected queue to be drained after pairing, got %d remaining", len(a.Ranked.Queue))
	}
}

func TestMatchmakeRankedLeavesSoloPlayerQueued(t *testing.T) {
	a := newRankedArena()
	alice := entity.NewTank(1, 0, "alice", vecmath.Vec2{}, entity.Privilege{Kind: entity.PrivilegePlayer})
	alice.UserID = "uid-alice"
	a.Tanks[1] = alice

	a.EnqueueRanked(alice)
	a.matchmakeRanked()

	if alice.OpponentID != 0 {
		t.Fatalf("expected solo player to remain unpaired")
	}
	if len(a.Ranked.Queue) != 1 {
		t.Fatalf("expected solo player to remain queued, got %d", len(a.Ranked.Queue))
	}
}

func TestForfeitRankedAppliesLossToDisconnectingTank(t *testing.T) {
	a := newRankedArena()
	alice := entity.NewTank(1, 0, "alice", vecmath.Vec2{}, entity.Privilege{Kind: entity.PrivilegePlayer})
	alice.UserID = "uid-alice"
	bob := entity.NewTank(2, 0, "bob", vecmath.Vec2{}, entity.Privilege{Kind: entity.PrivilegePlayer})
	bob.UserID = "uid-bob"
	a.Tanks[1] = alice
	a.Tanks[2] = bob

	a.EnqueueRanked(alice)
	a.EnqueueRanked(bob)
	a.matchmakeRanked()
	alice.InRanked = true
	bob.InRanked = true

	a.ForfeitRanked(alice.ID)

	if alice.InRanked || bob.InRanked {
		t.Fatalf("expected both tanks to leave ranked state after forfeit")
	}
	ladder := a.Ladders[0]
	if ladder == nil {
		t.Fatalf("expected a ladder to exist after forfeit")
	}
	winner, ok := ladder.Get("uid-bob")
	if !ok {
		t.Fatalf("expected winner rating to be recorded")
	}
	loser, ok := ladder.Get("uid-alice")
	if !ok {
		t.Fatalf("expected loser rating to be recorded")
	}
	if winner.Value <= loser.Value {
		t.Fatalf("expected forfeit winner rating (%v) to exceed loser rating (%v)", winner.Value, loser.Value)
	}
}

func TestForfeitRankedNoopOutsideRankedMode(t *testing.T) {
	a := New(DefaultConfig("ffa-test"), nil)
	tank := entity.NewTank(1, 0, "alice", vecmath.Vec2{}, entity.Privilege{Kind: entity.PrivilegePlayer})
	a.Tanks[1] = tank

	a.ForfeitRanked(1) // must not panic despite a.Ranked == nil
}

func TestForfeitRankedClosesTheMatch(t *testing.T) {
	a := newRankedArena()
	alice := entity.NewTank(1, 0, "alice", vecmath.Vec2{}, entity.Privilege{Kind: entity.PrivilegePlayer})
	alice.UserID = "uid-alice"
	bob := entity.NewTank(2, 0, "bob", vecmath.Vec2{}, entity.Privilege{Kind: entity.PrivilegePlayer})
	bob.UserID = "uid-bob"
	a.Tanks[1] = alice
	a.Tanks[2] = bob

	a.EnqueueRanked(alice)
	a.EnqueueRanked(bob)
	a.matchmakeRanked()
	alice.InRanked = true
	bob.InRanked = true

	if a.Ranked.Matches[0].State != matchActive {
		t.Fatalf("expected a freshly matched pair to start matchActive")
	}

	a.ForfeitRanked(alice.ID)

	if a.Ranked.Matches[0].State != matchClosing {
		t.Fatalf("expected forfeit to move the match into matchClosing, got %v", a.Ranked.Matches[0].State)
	}
}

func TestAdvanceRankedMatchesTearsDownAndPrunes(t *testing.T) {
	a := newRankedArena()
	m := &match{PlayerA: 1, PlayerB: 2, Category: 0, State: matchClosing, Timer: 1}
	a.Ranked.Matches = []*match{m}

	a.advanceRankedMatches() // Timer hits 0: matchClosing -> matchTimeoutClosing
	if m.State != matchTimeoutClosing || m.Timer != timeoutClosingTicks {
		t.Fatalf("expected transition to matchTimeoutClosing with a fresh timer, got state=%v timer=%d", m.State, m.Timer)
	}
	if len(a.Ranked.Matches) != 1 {
		t.Fatalf("expected match to remain live during timeoutClosing")
	}

	m.Timer = 1
	a.advanceRankedMatches() // Timer hits 0: matchTimeoutClosing -> matchTorndown
	if m.State != matchTorndown || m.Timer != teardownTicks {
		t.Fatalf("expected transition to matchTorndown with a fresh timer, got state=%v timer=%d", m.State, m.Timer)
	}
	if len(a.Ranked.Matches) != 1 {
		t.Fatalf("expected match to remain live during its teardown grace period")
	}

	m.Timer = 1
	a.advanceRankedMatches() // Timer hits 0 while torn down: pruned
	if len(a.Ranked.Matches) != 0 {
		t.Fatalf("expected fully torn-down match to be pruned, got %d remaining", len(a.Ranked.Matches))
	}
}

func TestAdvanceRankedStateTransitionsWhenIdle(t *testing.T) {
	a := newRankedArena()
	a.Config.TicksPerSecond = 0 // collapses the idle delay to zero ticks

	if a.State != StateOpen {
		t.Fatalf("expected a fresh ranked arena to start Open")
	}

	a.advanceRankedState() // idle immediately: Open -> NotAccepting
	if a.State != StateNotAccepting {
		t.Fatalf("expected idle arena to leave Open, got %v", a.State)
	}

	a.advanceRankedState() // NotAccepting -> TimeoutClosing
	if a.State != StateTimeoutClosing || a.rankedStateTimer != timeoutClosingTicks {
		t.Fatalf("expected TimeoutClosing with a fresh timer, got state=%v timer=%d", a.State, a.rankedStateTimer)
	}

	for i := 0; i < timeoutClosingTicks; i++ {
		a.advanceRankedState()
	}
	if a.State != StateClosing || a.rankedStateTimer != closingTicks {
		t.Fatalf("expected Closing with a fresh timer after the timeout window, got state=%v timer=%d", a.State, a.rankedStateTimer)
	}

	for i := 0; i < closingTicks; i++ {
		a.advanceRankedState()
	}
	if a.State != StateClosed {
		t.Fatalf("expected arena to reach Closed after the closing window, got %v", a.State)
	}
}

func TestAdvanceRankedStateStaysOpenWhilePlayersPresent(t *testing.T) {
	a := newRankedArena()
	tank := entity.NewTank(1, 0, "alice", vecmath.Vec2{}, entity.Privilege{Kind: entity.PrivilegePlayer})
	a.Tanks[1] = tank

	for i := 0; i < 100; i++ {
		a.advanceRankedState()
	}
	if a.State != StateOpen {
		t.Fatalf("expected arena with a connected tank to remain Open, got %v", a.State)
	}
}
