package arena

import (
	"arenasrv/internal/entity"
	"arenasrv/internal/eventlog"
	"arenasrv/internal/rating"
)

// matchState tracks one ranked 1v1 pairing's lifecycle.
type matchState uint8

const (
	matchActive matchState = iota
	matchClosing
	matchTimeoutClosing
	matchTorndown
)

// closingTicks/timeoutClosingTicks/teardownTicks are the documented ranked
// timing windows (§4.8 "Ranked timing windows"): a 5-tick-wide Closing
// state, a 65-tick TimeoutClosing grace period, and 60-tick final teardown.
const (
	closingTicks        = 5
	timeoutClosingTicks = 65
	teardownTicks       = 60

	// roundsToTerminate is the loser's identity_idx threshold (§4.8 item 2:
	// "terminate the match when identity_idx == 6").
	roundsToTerminate = 6
)

// match is one active ranked 1v1 pairing.
type match struct {
	PlayerA, PlayerB uint32
	Category         int
	State            matchState
	Timer            int // ticks remaining in the current transitional state
}

// RankedState holds every in-flight ranked match plus the matchmaking queue
// (§4.8 item 2, §6); the per-category rating ladders live on Arena.Ladders.
type RankedState struct {
	Matches []*match
	Queue   []queuedPlayer
}

type queuedPlayer struct {
	PlayerID string
	Category int
	Rating   rating.Rating
}

func newRankedState() *RankedState {
	return &RankedState{}
}

// Enqueue adds a player to the ranked matchmaking queue.
func (rs *RankedState) Enqueue(playerUID string, category int, r rating.Rating) {
	for _, q := range rs.Queue {
		if q.PlayerID == playerUID {
			return
		}
	}
	rs.Queue = append(rs.Queue, queuedPlayer{PlayerID: playerUID, Category: category, Rating: r})
}

// popNearestPair removes and returns the two queued players (same category)
// whose ratings are closest, used to seed a balanced 1v1 (§4.8 item 4
// "Matchmaking of ranked winners/losers").
func (rs *RankedState) popNearestPair(category int) (queuedPlayer, queuedPlayer, bool) {
	bestI, bestJ := -1, -1
	bestDelta := 1e18
	for i := 0; i < len(rs.Queue); i++ {
		if rs.Queue[i].Category != category {
			continue
		}
		for j := i + 1; j < len(rs.Queue); j++ {
			if rs.Queue[j].Category != category {
				continue
			}
			delta := rs.Queue[i].Rating.Value - rs.Queue[j].Rating.Value
			if delta < 0 {
				delta = -delta
			}
			if delta < bestDelta {
				bestDelta = delta
				bestI, bestJ = i, j
			}
		}
	}
	if bestI < 0 {
		return queuedPlayer{}, queuedPlayer{}, false
	}
	a, b := rs.Queue[bestI], rs.Queue[bestJ]
	rs.Queue = append(append([]queuedPlayer{}, rs.Queue[:bestI]...), rs.Queue[bestI+1:]...)
	for i := range rs.Queue {
		if rs.Queue[i].PlayerID == b.PlayerID {
			rs.Queue = append(rs.Queue[:i], rs.Queue[i+1:]...)
			break
		}
	}
	return a, b, true
}

// EnqueueRanked admits a freshly spawned tank into ranked matchmaking
// (§4.9 handshake, followed by §4.8 item 4 pairing). The tank plays FFA
// rules against the shared population until matchmakeRanked sets its
// OpponentID and gateRankedTank flips InRanked on at RankedStartTick.
func (a *Arena) EnqueueRanked(t *entity.Tank) {
	if a.Ranked == nil || t.UserID == "" {
		return
	}
	category := categoryForIdentity(t.IdentityID)
	ladder := a.ladderFor(category)
	r := rating.NewRating()
	if existing, ok := ladder.Get(t.UserID); ok {
		r = existing
	}
	a.Ranked.Enqueue(t.UserID, category, r)
}

// ladderFor returns the per-category Glicko-2 ladder, creating it on first
// use; category ladders are otherwise unbounded and lazily populated as
// players queue into each one.
func (a *Arena) ladderFor(category int) *rating.Ladder {
	if l, ok := a.Ladders[category]; ok {
		return l
	}
	l := rating.NewLadder()
	a.Ladders[category] = l
	return l
}

// matchmakeRanked pairs queued players by nearest rating within each
// category and seeds both tanks' OpponentID/RankedStartTick, the fields
// gateRankedTank consults to flip a tank into live ranked play (§4.4 item
// 1, §4.8 "Matchmaking of ranked winners/losers").
func (a *Arena) matchmakeRanked() {
	if a.Ranked == nil || len(a.Ranked.Queue) < 2 {
		return
	}
	seen := make(map[int]bool, len(a.Ranked.Queue))
	for _, q := range a.Ranked.Queue {
		seen[q.Category] = true
	}
	for category := range seen {
		for {
			first, second, ok := a.Ranked.popNearestPair(category)
			if !ok {
				break
			}
			a.startRankedMatch(first, second, category)
		}
	}
}

const rankedMatchStartDelayTicks = 75 // 3s at 25 tps, a short "match found" window

func (a *Arena) startRankedMatch(first, second queuedPlayer, category int) {
	tankA, okA := a.tankByUserID(first.PlayerID)
	tankB, okB := a.tankByUserID(second.PlayerID)
	if !okA || !okB {
		return
	}
	startTick := a.Ticks + rankedMatchStartDelayTicks
	tankA.OpponentID = tankB.ID
	tankB.OpponentID = tankA.ID
	tankA.RankedStartTick = startTick
	tankB.RankedStartTick = startTick

	a.Ranked.Matches = append(a.Ranked.Matches, &match{
		PlayerA:  tankA.ID,
		PlayerB:  tankB.ID,
		Category: category,
		State:    matchActive,
	})
}

// closeMatch hands an active match off to advanceRankedMatches's teardown
// countdown once its outcome is decided (a round loss reaching
// roundsToTerminate, or a forfeit). No-op if the pair isn't an active
// match, which happens for ranked rounds that reset both tanks without
// deciding the match yet.
func (a *Arena) closeMatch(tankA, tankB uint32) {
	if a.Ranked == nil {
		return
	}
	for _, m := range a.Ranked.Matches {
		if m.State != matchActive {
			continue
		}
		if (m.PlayerA == tankA && m.PlayerB == tankB) || (m.PlayerA == tankB && m.PlayerB == tankA) {
			m.State = matchClosing
			m.Timer = closingTicks
			return
		}
	}
}

func (a *Arena) tankByUserID(uid string) (*entity.Tank, bool) {
	for _, t := range a.Tanks {
		if t.UserID == uid {
			return t, true
		}
	}
	return nil, false
}

// recordRoundLoss applies §4.8 item 2's round bookkeeping: the loser's
// identity_idx advances and the match terminates once it reaches
// roundsToTerminate. Returns true if the match is now decided.
func recordRoundLoss(loser *entity.Tank) (decided bool) {
	loser.IdentityIdx++
	return loser.IdentityIdx >= roundsToTerminate
}

// ForfeitRanked applies the disconnect-forfeit rule when entityID leaves
// mid-match: the remaining opponent is awarded every round needed to reach
// the best-of-6 threshold (§4.8 "Ranked timing windows"). No-op outside
// Ranked or when the tank wasn't paired into an active match.
func (a *Arena) ForfeitRanked(entityID uint32) {
	if a.Config.GameMode != ModeRanked {
		return
	}
	loserTank, ok := a.Tanks[entityID]
	if !ok || !loserTank.InRanked {
		return
	}
	winnerTank, ok := a.Tanks[loserTank.OpponentID]
	if !ok {
		return
	}
	category := categoryForIdentity(winnerTank.IdentityID)
	ladder := a.ladderFor(category)
	applyForfeit(ladder, winnerTank.UserID, loserTank.UserID, roundsToTerminate-loserTank.IdentityIdx)
	a.closeMatch(loserTank.ID, winnerTank.ID)

	a.EmitEvent(eventlog.TypeRankedMatchEnd, winnerTank.ID, eventlog.RankedMatchEndPayload{
		WinnerUID: winnerTank.UserID,
		LoserUID:  loserTank.UserID,
	})

	loserTank.InRanked = false
	winnerTank.InRanked = false
	winnerTank.OpponentID = 0
}

// applyForfeit is the documented forfeit rule (§4.8 "Ranked timing
// windows"): a disconnect during an active match applies Glicko-2
// sequentially across every remaining round needed to reach the
// best-of-6 threshold, rather than a single rating update.
func applyForfeit(ladder *rating.Ladder, winnerUID, loserUID string, remaining int) {
	winner, ok := ladder.Get(winnerUID)
	if !ok {
		winner = rating.NewRating()
	}
	loser, ok := ladder.Get(loserUID)
	if !ok {
		loser = rating.NewRating()
	}
	for i := 0; i < remaining; i++ {
		newWinner := rating.Update(winner, loser, rating.Win)
		newLoser := rating.Update(loser, winner, rating.Loss)
		winner, loser = newWinner, newLoser
	}
	ladder.Upsert(winnerUID, winner)
	ladder.Upsert(loserUID, loser)
}
