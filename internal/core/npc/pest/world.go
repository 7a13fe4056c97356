package pest

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/zeusync/tickai/internal/core/npc"
)

var (
	ErrOutOfBounds = errors.New("pest: position outside the world")
	ErrDuplicate   = errors.New("pest: duplicate item id")
)

// Item is something a pest can pick up.
type Item struct {
	ID       string   `json:"id"`
	Kind     string   `json:"kind"`
	Position npc.Vec2 `json:"position"`
}

// World is a rectangular walkable field [0,Width]x[0,Height] holding items.
// It is safe for concurrent use.
type World struct {
	width, height float64

	mu    sync.RWMutex
	items map[string]Item
}

// NewWorld returns an empty world of the given size.
func NewWorld(width, height float64) *World {
	return &World{width: width, height: height, items: make(map[string]Item)}
}

// Size returns the world dimensions.
func (w *World) Size() (width, height float64) { return w.width, w.height }

// Contains reports whether p is on the walkable area.
func (w *World) Contains(p npc.Vec2) bool {
	return p.X >= 0 && p.Y >= 0 && p.X <= w.width && p.Y <= w.height
}

// Add places an item.
func (w *World) Add(item Item) error {
	if !w.Contains(item.Position) {
		return fmt.Errorf("%w: item %s at %v", ErrOutOfBounds, item.ID, item.Position)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.items[item.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicate, item.ID)
	}
	w.items[item.ID] = item
	return nil
}

// Scatter places n items of the given kinds at random positions and returns them.
func (w *World) Scatter(n int, kinds []string, rng *rand.Rand) []Item {
	if len(kinds) == 0 {
		kinds = []string{"litter"}
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]Item, 0, n)
	for i := 0; len(out) < n; i++ {
		id := "item-" + strconv.Itoa(i)
		if _, ok := w.items[id]; ok {
			continue
		}
		it := Item{
			ID:       id,
			Kind:     kinds[rng.IntN(len(kinds))],
			Position: npc.Vec2{X: rng.Float64() * w.width, Y: rng.Float64() * w.height},
		}
		w.items[id] = it
		out = append(out, it)
	}
	return out
}

// Item looks up an item by id.
func (w *World) Item(id string) (Item, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	it, ok := w.items[id]
	return it, ok
}

// Remove takes an item out of the world.
func (w *World) Remove(id string) (Item, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	it, ok := w.items[id]
	if ok {
		delete(w.items, id)
	}
	return it, ok
}

// Items returns all items ordered by id.
func (w *World) Items() []Item {
	w.mu.RLock()
	out := make([]Item, 0, len(w.items))
	for _, it := range w.items {
		out = append(out, it)
	}
	w.mu.RUnlock()
	slices.SortFunc(out, func(a, b Item) int { return strings.Compare(a.ID, b.ID) })
	return out
}

// Sample finds the walkable point closest to p. It fails when that point is
// farther than maxDist from p.
func (w *World) Sample(p npc.Vec2, maxDist float64) (npc.Vec2, bool) {
	hit := npc.Vec2{
		X: math.Max(0, math.Min(p.X, w.width)),
		Y: math.Max(0, math.Min(p.Y, w.height)),
	}
	if hit.Dist(p) > maxDist {
		return npc.Vec2{}, false
	}
	return hit, true
}

// Nearest returns the closest item within radius of from whose bearing lies
// within arc degrees centred on facing. A zero facing or an arc of 360 or more
// sees all around. Ties are broken by id.
func (w *World) Nearest(from npc.Vec2, radius float64, facing npc.Vec2, arc float64) (Item, bool) {
	dir := facing.Normalized()
	omni := dir.IsZero() || arc >= 360
	minCos := math.Cos(arc / 2 * math.Pi / 180)

	w.mu.RLock()
	defer w.mu.RUnlock()

	var (
		best  Item
		bestD = math.Inf(1)
		found bool
	)
	for _, it := range w.items {
		off := it.Position.Sub(from)
		d := off.Len()
		if d > radius {
			continue
		}
		if !omni && d > 0 && off.Scale(1/d).Dot(dir) < minCos {
			continue
		}
		if d < bestD || (d == bestD && it.ID < best.ID) {
			best, bestD, found = it, d, true
		}
	}
	return best, found
}
