package npc

import "time"

// Blackboard keys mirrored by spatial sensors for introspection.
const (
	KeyPosition    = "position"
	KeyDestination = "destination"
	KeyTarget      = "target"
	KeyPocketed    = "pocketed"
	KeyIdleTimer   = "idle_timer"
)

// Snapshot is a read-only view of an agent after a step.
type Snapshot struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Result      string  `json:"result"`
	Position    Vec2    `json:"position"`
	Destination *Vec2   `json:"destination,omitempty"`
	Target      string  `json:"target,omitempty"`
	Pocketed    int     `json:"pocketed"`
	IdleTimer   float64 `json:"idle_timer"`
}

// Snapshot reads the mirrored keys from the blackboard. Missing keys leave
// their fields at the zero value.
func (a *Agent) Snapshot() Snapshot {
	s := Snapshot{ID: a.id, Name: a.name, Result: a.LastResult().String()}
	if v, ok := a.bb.Get(KeyPosition); ok {
		s.Position, _ = v.(Vec2)
	}
	if v, ok := a.bb.Get(KeyDestination); ok {
		if d, ok := v.(Vec2); ok {
			s.Destination = &d
		}
	}
	s.Target, _ = a.bb.GetString(KeyTarget)
	s.Pocketed, _ = a.bb.GetInt(KeyPocketed)
	if v, ok := a.bb.Get(KeyIdleTimer); ok {
		if d, ok := v.(time.Duration); ok {
			s.IdleTimer = d.Seconds()
		}
	}
	return s
}
