package entity

// Clan is a slot-indexed team (§3 "Clan"). The arena holds a fixed-capacity
// array of optional clans; SlotID is the index into that array, matching
// the wire protocol's clan_slot addressing.
type Clan struct {
	Name           string
	OwnerID        uint32
	Members        []uint32
	PendingInvites []uint32
	SlotID         int
}

// NewClan creates a clan owned by ownerID at the given slot.
func NewClan(name string, ownerID uint32, slotID int) *Clan {
	return &Clan{
		Name:    name,
		OwnerID: ownerID,
		Members: []uint32{ownerID},
		SlotID:  slotID,
	}
}

// AddMember appends a member if not already present.
func (c *Clan) AddMember(id uint32) {
	if !hasID(c.Members, id) {
		c.Members = append(c.Members, id)
	}
}

// Invite queues a pending invite.
func (c *Clan) Invite(id uint32) {
	if !hasID(c.PendingInvites, id) {
		c.PendingInvites = append(c.PendingInvites, id)
	}
}

// AcceptInvite moves id from pending to member, if it was invited.
func (c *Clan) AcceptInvite(id uint32) bool {
	if !hasID(c.PendingInvites, id) {
		return false
	}
	c.PendingInvites = removeID(c.PendingInvites, id)
	c.AddMember(id)
	return true
}

// DeclineInvite removes id from the pending list.
func (c *Clan) DeclineInvite(id uint32) {
	c.PendingInvites = removeID(c.PendingInvites, id)
}

// RemoveMember removes id from the clan. If id was the owner and other
// members remain, ownership transfers to members[0] (§3 "Lifecycle", §4.8
// item 7). Returns true if the clan is now empty and should be destroyed.
func (c *Clan) RemoveMember(id uint32) (empty bool, newOwner uint32, ownerChanged bool) {
	c.Members = removeID(c.Members, id)
	if len(c.Members) == 0 {
		return true, 0, false
	}
	if c.OwnerID == id {
		c.OwnerID = c.Members[0]
		return false, c.OwnerID, true
	}
	return false, 0, false
}

// IsEmpty reports whether the clan has no members left.
func (c *Clan) IsEmpty() bool {
	return len(c.Members) == 0
}
