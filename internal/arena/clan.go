package arena

import "arenasrv/internal/entity"

// CreateClan is the Clan opcode's Create subtype (§4.8 item 7): rejected
// silently if the founder is already clanned or every slot is taken.
func (a *Arena) CreateClan(founderID uint32, name string) {
	founder, ok := a.Tanks[founderID]
	if !ok || founder.ClanSlot >= 0 {
		return
	}
	slot := -1
	for i, c := range a.Clans {
		if c == nil {
			slot = i
			break
		}
	}
	if slot < 0 {
		return
	}
	a.Clans[slot] = entity.NewClan(name, founderID, slot)
	founder.ClanSlot = slot
}

// RequestJoinClan is the Join subtype: queues a pending invite on the
// target clan. An unknown slot is ignored rather than disconnecting the
// caller.
func (a *Arena) RequestJoinClan(requesterID uint32, slot int) {
	if slot < 0 || slot >= len(a.Clans) || a.Clans[slot] == nil {
		return
	}
	a.Clans[slot].Invite(requesterID)
}

// LeaveClan is the Leave subtype: marks the tank leaving and lets
// clanHousekeeping's grace period (§4.8 item 7) finish the removal once it
// elapses.
func (a *Arena) LeaveClan(tankID uint32, nowTick uint64) {
	t, ok := a.Tanks[tankID]
	if !ok {
		return
	}
	t.ClanLeaving = true
	t.ClanLeaveTick = nowTick
}

// RespondToJoinRequest is the AcceptDecline subtype, resolved against the
// responder's own clan. Any member of the clan may clear a pending
// request, not just its owner.
func (a *Arena) RespondToJoinRequest(responderID, applicantID uint32, accept bool) {
	responder, ok := a.Tanks[responderID]
	if !ok || responder.ClanSlot < 0 {
		return
	}
	clan := a.Clans[responder.ClanSlot]
	if clan == nil {
		return
	}
	applicant, applicantAlive := a.Tanks[applicantID]
	if !applicantAlive || !accept {
		clan.DeclineInvite(applicantID)
		return
	}
	if clan.AcceptInvite(applicantID) {
		applicant.ClanSlot = clan.SlotID
	}
}

// KickFromClan is the Kick subtype: only the owner may force a member's
// departure, and even then it still goes through the leave grace period
// rather than an immediate removal.
func (a *Arena) KickFromClan(ownerID, targetID uint32, nowTick uint64) {
	owner, ok := a.Tanks[ownerID]
	if !ok || owner.ClanSlot < 0 {
		return
	}
	clan := a.Clans[owner.ClanSlot]
	if clan == nil || clan.OwnerID != ownerID || !clanHasMember(clan, targetID) {
		return
	}
	a.LeaveClan(targetID, nowTick)
}

func clanHasMember(c *entity.Clan, id uint32) bool {
	for _, m := range c.Members {
		if m == id {
			return true
		}
	}
	return false
}

// SetDistress is the Distress subtype: flags the tank for the distress
// beacon clanmates see in their clan roster (§4.10).
func (a *Arena) SetDistress(tankID uint32) {
	if t, ok := a.Tanks[tankID]; ok {
		t.ClanDistressed = true
	}
}
