package netio

import (
	"sort"

	"arenasrv/internal/arena"
	"arenasrv/internal/entity"
	"arenasrv/internal/wire"
)

// leaderArrowView scales with a tank's fov to decide when the leader is
// close enough on-screen that the client doesn't need an off-screen arrow
// pointing toward them (§4.10 "leader arrow").
const leaderArrowView = 2000.0

// leaderArrowSentinel is written in place of an angle when no arrow should
// be drawn: outside the valid [-2pi, 2pi] range a real angle can take.
const leaderArrowSentinel = 200.0

type scoreboardEntry struct {
	score      float64
	name       string
	id         uint32
	identityID int
}

func rankedScore(t *entity.Tank, mode arena.GameMode) float64 {
	if mode == arena.ModeRanked {
		return float64(t.Score1v1)
	}
	return t.Score
}

// buildScoreboard returns the top-10 live tanks by score, matching §4.10's
// scoreboard/leaderboard block; Ranked arenas rank by the 1v1 ladder score
// instead of the free-for-all running score.
func buildScoreboard(a *arena.Arena) []scoreboardEntry {
	entries := make([]scoreboardEntry, 0, len(a.Tanks))
	for id, t := range a.Tanks {
		if !t.Alive {
			continue
		}
		entries = append(entries, scoreboardEntry{
			score:      rankedScore(t, a.Config.GameMode),
			name:       t.Name,
			id:         id,
			identityID: t.IdentityID,
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].score > entries[j].score })
	if len(entries) > 10 {
		entries = entries[:10]
	}
	return entries
}

// leaderArrowAngle is §4.10's "point toward the leader" hint: suppressed
// entirely in Ranked mode (there is no FFA leaderboard to chase), when
// there's no leader yet, when self is the leader, or when the leader is
// already close enough on self's screen.
func leaderArrowAngle(self *entity.Tank, a *arena.Arena, board []scoreboardEntry) float32 {
	if a.Config.GameMode == arena.ModeRanked || len(board) == 0 || board[0].id == self.ID {
		return leaderArrowSentinel
	}
	leader, ok := a.Tanks[board[0].id]
	if !ok {
		return leaderArrowSentinel
	}
	if self.Position.Distance(leader.Position) <= leaderArrowView*self.Fov {
		return leaderArrowSentinel
	}
	return float32(leader.Position.Angle(&self.Position))
}

func boolFlag(v bool) uint8 {
	if v {
		return 1
	}
	return 0
}

// writeVisibleEntity writes one {id, type, census} triple for an entity in
// self's surroundings. Reports false if id no longer resolves to a live
// entity (it was deleted the same tick visibility was computed).
func writeVisibleEntity(s *wire.Stream, a *arena.Arena, id uint32) bool {
	if t, ok := a.Tanks[id]; ok {
		s.WriteU32(id)
		s.WriteU8(uint8(entity.KindTank))
		t.TakeCensus(s, false)
		return true
	}
	if sh, ok := a.Shapes[id]; ok {
		s.WriteU32(id)
		s.WriteU8(uint8(entity.KindShape))
		sh.TakeCensus(s)
		return true
	}
	if p, ok := a.Projectiles[id]; ok {
		s.WriteU32(id)
		s.WriteU8(uint8(entity.KindProjectile))
		p.TakeCensus(s)
		return true
	}
	return false
}

func writeClanRosterEntry(s *wire.Stream, a *arena.Arena, self *entity.Tank, memberID uint32) {
	if memberID == self.ID {
		s.WriteString(self.Name)
		s.WriteF32(float32(self.Position.X))
		s.WriteF32(float32(self.Position.Y))
		s.WriteU8(boolFlag(self.ClanDistressed))
		s.WriteU8(boolFlag(self.ClanLeaving))
		return
	}
	if t, ok := a.Tanks[memberID]; ok {
		s.WriteString(t.Name)
		s.WriteF32(float32(t.Position.X))
		s.WriteF32(float32(t.Position.Y))
		s.WriteU8(boolFlag(t.ClanDistressed))
		s.WriteU8(boolFlag(t.ClanLeaving))
		return
	}
	s.WriteString("")
	s.WriteF32(0)
	s.WriteF32(0)
	s.WriteU8(0)
	s.WriteU8(0)
}

func writeClanPendingEntry(s *wire.Stream, a *arena.Arena, self *entity.Tank, pendingID uint32) {
	if pendingID == self.ID {
		s.WriteString(self.Name)
		return
	}
	if t, ok := a.Tanks[pendingID]; ok {
		s.WriteString(t.Name)
		return
	}
	s.WriteString("")
}

func writeClans(s *wire.Stream, a *arena.Arena, self *entity.Tank) {
	count := 0
	for _, c := range a.Clans {
		if c != nil {
			count++
		}
	}
	s.WriteU8(uint8(count))
	for _, c := range a.Clans {
		if c == nil {
			continue
		}
		s.WriteU8(uint8(c.SlotID))
		s.WriteString(c.Name)
		s.WriteU32(c.OwnerID)

		s.WriteU32(uint32(len(c.Members)))
		for _, memberID := range c.Members {
			s.WriteU32(memberID)
			writeClanRosterEntry(s, a, self, memberID)
		}

		s.WriteU32(uint32(len(c.PendingInvites)))
		for _, pendingID := range c.PendingInvites {
			s.WriteU32(pendingID)
			writeClanPendingEntry(s, a, self, pendingID)
		}
	}
}

// BuildUpdatePacket assembles one tick's snapshot for self, matching
// §4.10's Update packet layout: arena info, self census, visible
// surroundings, leaderboard/leader-arrow, and clan rosters.
func BuildUpdatePacket(self *entity.Tank, a *arena.Arena, cipher uint32) []byte {
	s := wire.NewStreamWithCapacity(2048)
	s.WriteU8(uint8(wire.ClientBoundUpdate))

	s.WriteF32(float32(a.Config.ArenaSize))
	s.WriteU32(uint32(a.Config.WantedShapeCount))

	s.WriteU32(self.ID)
	self.TakeCensus(s, true)

	// The entity count has to be known before any entity is written, but
	// an id from self.Surroundings can have been deleted earlier in the
	// same tick (it dies, then its owner's visibility update ran before
	// the deletion sweep). Buffer the bodies first so the count matches
	// exactly what follows it.
	body := wire.NewStreamWithCapacity(512)
	visibleCount := 0
	for _, id := range self.Surroundings {
		if id == self.ID {
			continue
		}
		if writeVisibleEntity(body, a, id) {
			visibleCount++
		}
	}
	s.WriteU32(uint32(visibleCount))
	s.WriteRandomBytes(body.Bytes())

	board := buildScoreboard(a)
	s.WriteF32(leaderArrowAngle(self, a, board))

	s.WriteU8(uint8(len(board)))
	for _, e := range board {
		s.WriteF32(float32(e.score))
		s.WriteString(e.name)
		s.WriteU32(e.id)
		s.WriteU8(uint8(e.identityID))
	}

	writeClans(s, a, self)

	s.Transcode(cipher)
	return s.Bytes()
}
