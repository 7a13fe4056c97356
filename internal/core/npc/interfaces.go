package npc

import (
	"context"
	"errors"
	"time"

	"github.com/zeusync/tickai/internal/core/bt"
)

// ErrNoTree is returned by Step when the agent has no root node.
var ErrNoTree = errors.New("npc: agent has no behavior tree")

// Blackboard is a centralized, thread-safe storage for agent state and shared data.
// Sensors write to it, tree callables read from it.
type Blackboard interface {
	// Get retrieves a value by key. Returns (nil, false) if absent.
	Get(key string) (any, bool)
	// Set assigns a value by key.
	Set(key string, value any)
	// Delete removes a value by key.
	Delete(key string)
	// Has reports whether key is present.
	Has(key string) bool
	// Keys returns the sorted set of existing keys.
	Keys() []string

	GetString(key string) (string, bool)
	GetFloat(key string) (float64, bool)
	GetInt(key string) (int, bool)
	GetBool(key string) (bool, bool)

	// Version increases on every mutation.
	Version() uint64
	// Snapshot returns a shallow copy of the stored values.
	Snapshot() map[string]any
}

// Memory stores the decision history of an agent.
type Memory interface {
	// AppendDecision appends a decision record, evicting the oldest one once
	// capacity is reached.
	AppendDecision(rec DecisionRecord)
	// History returns a copy of the retained records, oldest first.
	History() []DecisionRecord
	// Count returns how many retained records produced r.
	Count(r bt.Result) int
	// SuccessRate is the share of retained records that produced Success.
	SuccessRate() float64
	// Reset clears all history.
	Reset()
}

// DecisionRecord captures the outcome of one tree evaluation.
type DecisionRecord struct {
	Tree      string
	Result    bt.Result
	Frame     uint64
	Duration  time.Duration
	Timestamp time.Time
}

// Frame describes one scheduler step.
type Frame struct {
	Number uint64
	Delta  time.Duration
	Time   time.Time
}

// Seconds returns the frame delta in seconds.
func (f Frame) Seconds() float64 { return f.Delta.Seconds() }

// Sensor pulls data from the external world and writes it to the Blackboard
// before the tree is ticked.
type Sensor interface {
	Name() string
	Update(ctx context.Context, frame Frame, bb Blackboard) error
}

// Reporter is implemented by sensors that also mirror state changed by the
// tree. Report runs after the tick.
type Reporter interface {
	Report(bb Blackboard)
}

// SensorFunc adapts a function to the Sensor interface.
type SensorFunc struct {
	ID string
	Fn func(ctx context.Context, frame Frame, bb Blackboard) error
}

func (s SensorFunc) Name() string { return s.ID }

func (s SensorFunc) Update(ctx context.Context, frame Frame, bb Blackboard) error {
	if s.Fn == nil {
		return nil
	}
	return s.Fn(ctx, frame, bb)
}
