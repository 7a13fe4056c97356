package pest

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/zeusync/tickai/internal/core/bt"
	"github.com/zeusync/tickai/internal/core/events/bus"
	"github.com/zeusync/tickai/internal/core/npc"
	"github.com/zeusync/tickai/internal/core/observability/log"
)

const (
	// wanderAttempts bounds the search for a reachable wander point.
	wanderAttempts = 16
	// sampleDistance is how far a wander point may be snapped onto the world.
	sampleDistance = 1.0
	// approachFactor keeps the pest just inside interaction range of its target.
	approachFactor = 0.9
)

// AIConfig tunes a pest.
type AIConfig struct {
	MinIdleTime      time.Duration
	MaxIdleTime      time.Duration
	MinWanderRange   float64
	MaxWanderRange   float64
	VisionRadius     float64
	VisionArc        float64 // degrees
	InteractionRange float64
}

// DefaultAIConfig returns the stock tuning.
func DefaultAIConfig() AIConfig {
	return AIConfig{
		MinIdleTime:      time.Second,
		MaxIdleTime:      3 * time.Second,
		MinWanderRange:   4,
		MaxWanderRange:   10,
		VisionRadius:     6,
		VisionArc:        120,
		InteractionRange: 1,
	}
}

// Pocketed is the payload of bus.TypeItemPocketed events.
type Pocketed struct {
	AgentID string
	Item    Item
}

// Pest is a critter that wanders, idles, and pilfers items it spots.
// Its methods are the callables of its behavior tree and are not safe for
// concurrent use; the scheduler steps one agent at a time.
type Pest struct {
	id     string
	cfg    AIConfig
	nav    *Nav
	world  *World
	events bus.EventBus
	logger log.Log
	rng    *rand.Rand
	paused func() bool

	delta     time.Duration
	idleTimer time.Duration
	target    string
	pocket    []Item
}

// Option configures a Pest.
type Option func(*Pest)

// WithBus publishes pickups on eb.
func WithBus(eb bus.EventBus) Option { return func(p *Pest) { p.events = eb } }

// WithLogger sets the logger.
func WithLogger(l log.Log) Option { return func(p *Pest) { p.logger = l } }

// WithRand replaces the id-seeded random source.
func WithRand(rng *rand.Rand) Option { return func(p *Pest) { p.rng = rng } }

// WithPaused installs a hook that freezes the idle timer while it returns true,
// such as when a menu is open.
func WithPaused(fn func() bool) Option { return func(p *Pest) { p.paused = fn } }

// Seed derives a deterministic RNG seed from an agent id and a world seed.
func Seed(id string, worldSeed uint64) uint64 {
	return xxhash.Sum64String(id) ^ worldSeed
}

// New returns a pest moving with nav inside world.
func New(id string, cfg AIConfig, nav *Nav, world *World, opts ...Option) *Pest {
	p := &Pest{id: id, cfg: cfg, nav: nav, world: world}
	for _, opt := range opts {
		opt(p)
	}
	if p.rng == nil {
		p.rng = rand.New(rand.NewPCG(Seed(id, 0), 0))
	}
	if p.events == nil {
		p.events = bus.New()
	}
	if p.logger == nil {
		p.logger = log.NewNop()
	}
	if p.paused == nil {
		p.paused = func() bool { return false }
	}
	return p
}

func (p *Pest) ID() string               { return p.id }
func (p *Pest) Nav() *Nav                { return p.nav }
func (p *Pest) IdleTimer() time.Duration { return p.idleTimer }
func (p *Pest) Target() string           { return p.target }

// Pocket returns the items picked up so far.
func (p *Pest) Pocket() []Item {
	out := make([]Item, len(p.pocket))
	copy(out, p.pocket)
	return out
}

// SetTarget points the pest at an item id. An empty id clears the target.
func (p *Pest) SetTarget(id string) { p.target = id }

// HasTarget reports whether the pest is after an item that still exists.
func (p *Pest) HasTarget() bool {
	if p.target == "" {
		return false
	}
	_, ok := p.world.Item(p.target)
	return ok
}

// Plunder walks to the target and pockets it once in interaction range.
func (p *Pest) Plunder() bt.Result {
	if p.target == "" {
		return bt.Failure
	}
	item, ok := p.world.Item(p.target)
	if !ok {
		p.target = ""
		return bt.Failure
	}
	if item.Position.Dist(p.nav.Position) <= p.cfg.InteractionRange {
		p.PickUpItem()
		return bt.Success
	}
	if p.nav.Stopped || !p.nav.HasPath {
		away := p.nav.Position.Sub(item.Position).Normalized()
		p.nav.SetDestination(item.Position.Add(away.Scale(p.cfg.InteractionRange * approachFactor)))
		p.nav.Stopped = false
	}
	return bt.Running
}

// Wander fails while idling. Otherwise it keeps walking its current path, or
// rolls a new idle time and picks a reachable point to walk to.
func (p *Pest) Wander() bt.Result {
	if p.idleTimer != 0 && !p.nav.HasPath {
		return bt.Failure
	}
	if !p.nav.HasPath {
		p.idleTimer = p.randDuration(p.cfg.MinIdleTime, p.cfg.MaxIdleTime)
		for range wanderAttempts {
			angle := p.rng.Float64() * 2 * math.Pi
			dist := p.randRange(p.cfg.MinWanderRange, p.cfg.MaxWanderRange)
			dest := p.nav.Position.Add(npc.Vec2{X: math.Cos(angle), Y: math.Sin(angle)}.Scale(dist))
			if hit, ok := p.world.Sample(dest, sampleDistance); ok {
				p.nav.SetDestination(hit)
				p.nav.Stopped = false
				break
			}
		}
	}
	return bt.Running
}

// Idle counts the idle timer down by the last frame delta unless paused.
func (p *Pest) Idle() bt.Result {
	if !p.paused() {
		p.idleTimer -= p.delta
		p.idleTimer = max(0, min(p.idleTimer, p.cfg.MaxIdleTime))
	}
	return bt.Running
}

// ResetIdle zeroes the idle timer. It always fails so it can lead a selector.
func (p *Pest) ResetIdle() bt.Result {
	p.idleTimer = 0
	return bt.Failure
}

// PickUpItem pockets the target and clears it.
func (p *Pest) PickUpItem() {
	item, ok := p.world.Remove(p.target)
	p.target = ""
	if !ok {
		return
	}
	p.pocket = append(p.pocket, item)
	err := p.events.Publish(bus.NewEvent(bus.TypeItemPocketed, p.id, Pocketed{AgentID: p.id, Item: item}))
	if err != nil {
		p.logger.Warn("item pocketed handler failed", log.String("item", item.ID), log.Error(err))
	}
}

// Name implements npc.Sensor.
func (p *Pest) Name() string { return "pest" }

// Update advances navigation by the frame delta, looks for a target, and
// mirrors the pest's state into bb.
func (p *Pest) Update(_ context.Context, frame npc.Frame, bb npc.Blackboard) error {
	p.delta = frame.Delta
	p.nav.Advance(frame.Delta)

	if !p.HasTarget() {
		p.target = ""
		if it, ok := p.world.Nearest(p.nav.Position, p.cfg.VisionRadius, p.nav.Facing, p.cfg.VisionArc); ok {
			p.target = it.ID
		}
	}
	p.Report(bb)
	return nil
}

// Report mirrors position, path, target, pocket size and idle timer into bb.
func (p *Pest) Report(bb npc.Blackboard) {
	bb.Set(npc.KeyPosition, p.nav.Position)
	if p.nav.HasPath {
		bb.Set(npc.KeyDestination, p.nav.Destination)
	} else {
		bb.Delete(npc.KeyDestination)
	}
	if p.target != "" {
		bb.Set(npc.KeyTarget, p.target)
	} else {
		bb.Delete(npc.KeyTarget)
	}
	bb.Set(npc.KeyPocketed, len(p.pocket))
	bb.Set(npc.KeyIdleTimer, p.idleTimer)
}

// Tree builds the pest's behavior tree: chase a seen item, else wander, else idle.
func (p *Pest) Tree() bt.Node {
	return bt.NewSelector(
		bt.If(p.HasTarget,
			bt.NewAction(p.ResetIdle),
			bt.NewAction(p.Plunder),
		),
		bt.NewAction(p.Wander),
		bt.NewAction(p.Idle),
	)
}

func (p *Pest) randRange(lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	return lo + p.rng.Float64()*(hi-lo)
}

func (p *Pest) randDuration(lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(p.rng.Int64N(int64(hi-lo)+1))
}
