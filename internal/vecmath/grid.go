package vecmath

import "math"

// cellKey packs a (col,row) grid cell into a single comparable value.
type cellKey int64

func packCell(col, row int32) cellKey {
	return cellKey(int64(col)<<32 | int64(uint32(row)))
}

// Grid is an incremental uniform spatial hash. Unlike a clear-and-rebuild
// grid, entities are inserted once and thereafter reinserted only when they
// cross a cell boundary, since most entities move less than one cell per
// tick (§4.1 rationale).
//
// Each entity is indexed by every cell its bounding square (center ± radius)
// overlaps, so a large entity straddling several cells is a query hit from
// any of them.
type Grid struct {
	cellSize float64
	cells    map[cellKey][]uint32
	members  map[uint32][]cellKey // current cell membership per entity, for reinsert/delete
	scratch  []uint32             // reusable query result buffer
}

// NewGrid creates a grid with the given cell size.
func NewGrid(cellSize float64) *Grid {
	if cellSize <= 0 {
		cellSize = 100
	}
	return &Grid{
		cellSize: cellSize,
		cells:    make(map[cellKey][]uint32),
		members:  make(map[uint32][]cellKey),
	}
}

func (g *Grid) cellsForBounds(pos Vec2, radius float64) []cellKey {
	minCol := int32(math.Floor((pos.X - radius) / g.cellSize))
	maxCol := int32(math.Floor((pos.X + radius) / g.cellSize))
	minRow := int32(math.Floor((pos.Y - radius) / g.cellSize))
	maxRow := int32(math.Floor((pos.Y + radius) / g.cellSize))

	keys := make([]cellKey, 0, (maxCol-minCol+1)*(maxRow-minRow+1))
	for col := minCol; col <= maxCol; col++ {
		for row := minRow; row <= maxRow; row++ {
			keys = append(keys, packCell(col, row))
		}
	}
	return keys
}

func containsKey(keys []cellKey, k cellKey) bool {
	for _, existing := range keys {
		if existing == k {
			return true
		}
	}
	return false
}

func (g *Grid) addToCell(k cellKey, id uint32) {
	g.cells[k] = append(g.cells[k], id)
}

func (g *Grid) removeFromCell(k cellKey, id uint32) {
	bucket := g.cells[k]
	for i, existing := range bucket {
		if existing == id {
			bucket[i] = bucket[len(bucket)-1]
			bucket = bucket[:len(bucket)-1]
			break
		}
	}
	if len(bucket) == 0 {
		delete(g.cells, k)
	} else {
		g.cells[k] = bucket
	}
}

// Insert adds an entity at pos with the given radius. Inserting an entity
// that already exists behaves like Reinsert.
func (g *Grid) Insert(id uint32, pos Vec2, radius float64) {
	g.Reinsert(id, pos, radius)
}

// Reinsert recomputes the entity's cell set and applies only the set
// difference against its previous membership, so a stationary (or
// slow-moving) entity costs nothing beyond the bounds computation.
func (g *Grid) Reinsert(id uint32, pos Vec2, radius float64) {
	newKeys := g.cellsForBounds(pos, radius)
	oldKeys := g.members[id]

	for _, k := range oldKeys {
		if !containsKey(newKeys, k) {
			g.removeFromCell(k, id)
		}
	}
	for _, k := range newKeys {
		if !containsKey(oldKeys, k) {
			g.addToCell(k, id)
		}
	}
	g.members[id] = newKeys
}

// Delete removes an entity from every cell it occupies.
func (g *Grid) Delete(id uint32) {
	for _, k := range g.members[id] {
		g.removeFromCell(k, id)
	}
	delete(g.members, id)
}

// QueryRadius returns candidate IDs within a bounding square around center,
// excluding excludeID (pass 0 to exclude nothing, since entity IDs are
// assigned starting at 1). Candidates are a superset of what's actually
// within radius; callers narrow-phase filter by exact distance.
func (g *Grid) QueryRadius(excludeID uint32, center Vec2, radius float64) []uint32 {
	return g.queryCells(excludeID, g.cellsForBounds(center, radius))
}

// QueryRect returns candidate IDs overlapping the rectangle with top-left
// corner topLeft and the given width/height.
func (g *Grid) QueryRect(excludeID uint32, topLeft Vec2, w, h float64) []uint32 {
	center := Vec2{topLeft.X + w/2, topLeft.Y + h/2}
	halfDiag := math.Hypot(w/2, h/2)
	// Use the enclosing square of the rect for cell selection, then let
	// ExactRectContains (caller side) do the precise rectangular filter.
	return g.queryCells(excludeID, g.cellsForBounds(center, halfDiag))
}

func (g *Grid) queryCells(excludeID uint32, keys []cellKey) []uint32 {
	g.scratch = g.scratch[:0]
	seen := make(map[uint32]struct{}, 16)
	for _, k := range keys {
		for _, id := range g.cells[k] {
			if id == excludeID {
				continue
			}
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			g.scratch = append(g.scratch, id)
		}
	}
	return g.scratch
}

// ExactRectContains reports whether pos lies within the rectangle anchored
// at topLeft with the given width/height. Used by callers of QueryRect to
// perform the exact-containment narrow phase named in §4.4 item 8.
func ExactRectContains(topLeft Vec2, w, h float64, pos Vec2) bool {
	return pos.X >= topLeft.X && pos.X <= topLeft.X+w &&
		pos.Y >= topLeft.Y && pos.Y <= topLeft.Y+h
}

// Count returns the number of live entities tracked by the grid.
func (g *Grid) Count() int {
	return len(g.members)
}
