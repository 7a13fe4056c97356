package pest

import (
	"time"

	"github.com/zeusync/tickai/internal/core/npc"
)

// arrivalEpsilon is the distance at which a nav agent counts as arrived.
const arrivalEpsilon = 1e-6

// Nav is a straight-line navigation agent on the world plane.
type Nav struct {
	Position    npc.Vec2
	Destination npc.Vec2
	Facing      npc.Vec2
	Speed       float64
	HasPath     bool
	Stopped     bool
}

// NewNav returns a nav agent at pos moving at speed units per second.
func NewNav(pos npc.Vec2, speed float64) *Nav {
	return &Nav{Position: pos, Speed: speed, Facing: npc.Vec2{X: 1}}
}

// SetDestination starts a path toward p.
func (n *Nav) SetDestination(p npc.Vec2) {
	n.Destination = p
	n.HasPath = true
}

// Advance moves toward the destination for dt. Reaching it clears the path.
func (n *Nav) Advance(dt time.Duration) {
	if !n.HasPath || n.Stopped {
		return
	}
	off := n.Destination.Sub(n.Position)
	dist := off.Len()
	step := n.Speed * dt.Seconds()
	if dist <= arrivalEpsilon || step >= dist {
		if dist > 0 {
			n.Facing = off.Normalized()
		}
		n.Position = n.Destination
		n.HasPath = false
		return
	}
	n.Facing = off.Normalized()
	n.Position = n.Position.Add(n.Facing.Scale(step))
}
