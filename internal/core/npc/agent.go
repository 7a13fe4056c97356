package npc

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/zeusync/tickai/internal/core/bt"
	"github.com/zeusync/tickai/internal/core/events/bus"
	"github.com/zeusync/tickai/internal/core/observability/log"
)

// StepInfo is the payload of bus.TypeAgentStepped events.
type StepInfo struct {
	AgentID string
	Frame   uint64
	Result  bt.Result
}

// Agent binds a behavior tree to its sensors, blackboard and history.
// Step must not be called concurrently on the same agent.
type Agent struct {
	id       string
	name     string
	treeName string

	bb      Blackboard
	mem     Memory
	events  bus.EventBus
	logger  log.Log
	tree    bt.Node
	sensors []Sensor
	clock   func() time.Time

	mu   sync.RWMutex
	last bt.Result
}

// Option configures an Agent.
type Option func(*Agent)

func WithBlackboard(bb Blackboard) Option { return func(a *Agent) { a.bb = bb } }
func WithMemory(mem Memory) Option        { return func(a *Agent) { a.mem = mem } }
func WithBus(eb bus.EventBus) Option      { return func(a *Agent) { a.events = eb } }
func WithLogger(l log.Log) Option         { return func(a *Agent) { a.logger = l } }
func WithClock(c func() time.Time) Option { return func(a *Agent) { a.clock = c } }

// WithSensors appends sensors; they run in the given order.
func WithSensors(s ...Sensor) Option {
	return func(a *Agent) { a.sensors = append(a.sensors, s...) }
}

// WithTree sets the root node and the name recorded in decision history.
func WithTree(name string, root bt.Node) Option {
	return func(a *Agent) {
		a.treeName = name
		a.tree = root
	}
}

// NewAgent constructs an agent. Missing components get defaults.
func NewAgent(id, name string, opts ...Option) *Agent {
	a := &Agent{id: id, name: name, treeName: "root", clock: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	if a.bb == nil {
		a.bb = NewBlackboard()
	}
	if a.mem == nil {
		a.mem = NewMemory(DefaultHistory)
	}
	if a.events == nil {
		a.events = bus.New()
	}
	if a.logger == nil {
		a.logger = log.NewNop()
	}
	a.logger = a.logger.With(log.String("agent", id))
	return a
}

func (a *Agent) ID() string             { return a.id }
func (a *Agent) Name() string           { return a.name }
func (a *Agent) Blackboard() Blackboard { return a.bb }
func (a *Agent) Memory() Memory         { return a.mem }
func (a *Agent) Events() bus.EventBus   { return a.events }
func (a *Agent) Tree() bt.Node          { return a.tree }

// SetTree replaces the root node. Hosts that build their tree from the agent
// itself bind it after construction.
func (a *Agent) SetTree(name string, root bt.Node) {
	a.treeName = name
	a.tree = root
}

// AddSensor appends a sensor.
func (a *Agent) AddSensor(s Sensor) {
	if s != nil {
		a.sensors = append(a.sensors, s)
	}
}

// LastResult returns the result of the most recent Step.
func (a *Agent) LastResult() bt.Result {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.last
}

// Step runs the sensors in order, ticks the tree once, lets reporting sensors
// mirror the result and records the outcome. The first sensor error aborts the
// step before the tree is ticked.
func (a *Agent) Step(ctx context.Context, frame Frame) (bt.Result, error) {
	if err := ctx.Err(); err != nil {
		return bt.Failure, err
	}
	if a.tree == nil {
		return bt.Failure, ErrNoTree
	}

	for _, s := range a.sensors {
		if err := s.Update(ctx, frame, a.bb); err != nil {
			return bt.Failure, fmt.Errorf("sensor %s: %w", s.Name(), err)
		}
	}

	start := a.clock()
	res := a.tree.Tick()
	took := a.clock().Sub(start)

	for _, s := range a.sensors {
		if r, ok := s.(Reporter); ok {
			r.Report(a.bb)
		}
	}

	a.mu.Lock()
	a.last = res
	a.mu.Unlock()

	a.mem.AppendDecision(DecisionRecord{
		Tree:      a.treeName,
		Result:    res,
		Frame:     frame.Number,
		Duration:  took,
		Timestamp: start,
	})
	a.logger.Debug("agent stepped",
		log.Uint64("frame", frame.Number),
		log.Stringer("result", res),
		log.Duration("took", took),
	)

	err := a.events.Publish(bus.NewEvent(bus.TypeAgentStepped, a.id, StepInfo{
		AgentID: a.id,
		Frame:   frame.Number,
		Result:  res,
	}))
	if err != nil {
		return res, fmt.Errorf("publish %s: %w", bus.TypeAgentStepped, err)
	}
	return res, nil
}
