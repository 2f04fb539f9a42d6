package rating

import "sync"

// Ladder ranks players within a single rating category by their Glicko-2
// Value, backed by the skip list for O(log n) insert/rank queries. The
// matchmaker updates a player's entry after every ranked round; the
// (out-of-scope) HTTP control plane queries it for the top-10 refresh named
// in §5.
type Ladder struct {
	mu      sync.RWMutex
	byPlayer map[string]Rating
	ranking *SkipList
}

// NewLadder creates an empty ladder.
func NewLadder() *Ladder {
	return &Ladder{
		byPlayer: make(map[string]Rating),
		ranking:  NewSkipList(),
	}
}

// Upsert records a player's rating in this category, keeping the ranking
// skip list in sync.
func (l *Ladder) Upsert(playerUID string, r Rating) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.byPlayer[playerUID] = r
	l.ranking.Insert(playerUID, r.Value)
}

// Remove drops a player from the ladder (e.g. on disconnect cleanup).
func (l *Ladder) Remove(playerUID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.byPlayer, playerUID)
	l.ranking.Remove(playerUID)
}

// Get returns a player's current rating in this category.
func (l *Ladder) Get(playerUID string) (Rating, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	r, ok := l.byPlayer[playerUID]
	return r, ok
}

// Rank returns the 1-indexed rank of a player (1 = highest rating).
func (l *Ladder) Rank(playerUID string) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.ranking.GetRank(playerUID)
}

// LadderEntry is one row of a Top query.
type LadderEntry struct {
	PlayerUID string
	Rating    float64
	Rank      int
}

// Top returns the top n entries by rating.
func (l *Ladder) Top(n int) []LadderEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	entries := l.ranking.GetRange(1, n)
	out := make([]LadderEntry, len(entries))
	for i, e := range entries {
		out[i] = LadderEntry{PlayerUID: e.Key, Rating: e.Score, Rank: i + 1}
	}
	return out
}

// Len returns the number of ranked players.
func (l *Ladder) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.ranking.Length()
}
