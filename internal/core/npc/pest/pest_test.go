package pest

import (
	"context"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/tickai/internal/core/bt"
	"github.com/zeusync/tickai/internal/core/events/bus"
	"github.com/zeusync/tickai/internal/core/npc"
)

func newTestPest(t *testing.T, pos npc.Vec2, opts ...Option) (*Pest, *World) {
	t.Helper()
	w := NewWorld(100, 100)
	p := New("moomoo", DefaultAIConfig(), NewNav(pos, 10), w, opts...)
	return p, w
}

func TestPlunderWithoutTarget(t *testing.T) {
	p, _ := newTestPest(t, npc.Vec2{X: 50, Y: 50})
	assert.Equal(t, bt.Failure, p.Plunder())
	assert.False(t, p.HasTarget())

	p.SetTarget("gone")
	assert.False(t, p.HasTarget())
	assert.Equal(t, bt.Failure, p.Plunder())
	assert.Empty(t, p.Target())
}

func TestPlunderPicksUpInRange(t *testing.T) {
	eb := bus.New()
	var got []Pocketed
	_, err := eb.Subscribe(bus.TypeItemPocketed, func(e bus.Event) error {
		got = append(got, e.Data().(Pocketed))
		return nil
	})
	require.NoError(t, err)

	p, w := newTestPest(t, npc.Vec2{X: 50, Y: 50}, WithBus(eb))
	cheese := Item{ID: "cheese", Kind: "food", Position: npc.Vec2{X: 50.5, Y: 50}}
	require.NoError(t, w.Add(cheese))
	p.SetTarget("cheese")

	assert.Equal(t, bt.Success, p.Plunder())
	assert.Empty(t, p.Target())
	assert.Equal(t, []Item{cheese}, p.Pocket())
	_, ok := w.Item("cheese")
	assert.False(t, ok)
	assert.Equal(t, []Pocketed{{AgentID: "moomoo", Item: cheese}}, got)
}

func TestPlunderPathsShortOfTarget(t *testing.T) {
	p, w := newTestPest(t, npc.Vec2{X: 50, Y: 50})
	require.NoError(t, w.Add(Item{ID: "cheese", Position: npc.Vec2{X: 55, Y: 50}}))
	p.SetTarget("cheese")

	assert.Equal(t, bt.Running, p.Plunder())
	require.True(t, p.Nav().HasPath)
	assert.InDelta(t, 54.1, p.Nav().Destination.X, 1e-9)
	assert.InDelta(t, 50, p.Nav().Destination.Y, 1e-9)

	// An existing path is kept.
	p.Nav().Destination = npc.Vec2{X: 1, Y: 1}
	assert.Equal(t, bt.Running, p.Plunder())
	assert.Equal(t, npc.Vec2{X: 1, Y: 1}, p.Nav().Destination)

	// A stopped agent is re-pathed and released.
	p.Nav().Stopped = true
	assert.Equal(t, bt.Running, p.Plunder())
	assert.False(t, p.Nav().Stopped)
	assert.InDelta(t, 54.1, p.Nav().Destination.X, 1e-9)
}

func TestWanderPicksReachablePoint(t *testing.T) {
	p, _ := newTestPest(t, npc.Vec2{X: 50, Y: 50})
	cfg := DefaultAIConfig()

	assert.Equal(t, bt.Running, p.Wander())
	require.True(t, p.Nav().HasPath)
	d := p.Nav().Destination.Dist(p.Nav().Position)
	assert.GreaterOrEqual(t, d, cfg.MinWanderRange-1e-9)
	assert.LessOrEqual(t, d, cfg.MaxWanderRange+1e-9)
	assert.GreaterOrEqual(t, p.IdleTimer(), cfg.MinIdleTime)
	assert.LessOrEqual(t, p.IdleTimer(), cfg.MaxIdleTime)

	// Walking keeps the path and the timer.
	dest, idle := p.Nav().Destination, p.IdleTimer()
	assert.Equal(t, bt.Running, p.Wander())
	assert.Equal(t, dest, p.Nav().Destination)
	assert.Equal(t, idle, p.IdleTimer())
}

func TestWanderFailsWhileIdling(t *testing.T) {
	p, _ := newTestPest(t, npc.Vec2{X: 50, Y: 50})
	require.Equal(t, bt.Running, p.Wander())
	p.Nav().HasPath = false

	assert.Equal(t, bt.Failure, p.Wander())
	assert.False(t, p.Nav().HasPath)
}

func TestWanderGivesUpOnUnreachableWorld(t *testing.T) {
	w := NewWorld(1, 1)
	cfg := DefaultAIConfig()
	cfg.MinWanderRange, cfg.MaxWanderRange = 50, 60
	p := New("moomoo", cfg, NewNav(npc.Vec2{}, 1), w)

	assert.Equal(t, bt.Running, p.Wander())
	assert.False(t, p.Nav().HasPath)
	assert.NotZero(t, p.IdleTimer())
	assert.Equal(t, bt.Failure, p.Wander())
}

func TestWanderIsDeterministicPerID(t *testing.T) {
	a, _ := newTestPest(t, npc.Vec2{X: 50, Y: 50})
	b, _ := newTestPest(t, npc.Vec2{X: 50, Y: 50})
	a.Wander()
	b.Wander()
	assert.Equal(t, a.Nav().Destination, b.Nav().Destination)
	assert.Equal(t, a.IdleTimer(), b.IdleTimer())

	c := New("other", DefaultAIConfig(), NewNav(npc.Vec2{X: 50, Y: 50}, 10), NewWorld(100, 100))
	c.Wander()
	assert.NotEqual(t, a.Nav().Destination, c.Nav().Destination)
}

func TestIdleCountsDown(t *testing.T) {
	paused := false
	p, _ := newTestPest(t, npc.Vec2{X: 50, Y: 50}, WithPaused(func() bool { return paused }))
	bb := npc.NewBlackboard()
	require.NoError(t, p.Update(context.Background(), npc.Frame{Delta: 500 * time.Millisecond}, bb))
	p.idleTimer = 2 * time.Second

	assert.Equal(t, bt.Running, p.Idle())
	assert.Equal(t, 1500*time.Millisecond, p.IdleTimer())

	paused = true
	assert.Equal(t, bt.Running, p.Idle())
	assert.Equal(t, 1500*time.Millisecond, p.IdleTimer())

	paused = false
	for range 5 {
		assert.Equal(t, bt.Running, p.Idle())
	}
	assert.Zero(t, p.IdleTimer())

	p.idleTimer = time.Hour
	p.Idle()
	assert.Equal(t, DefaultAIConfig().MaxIdleTime, p.IdleTimer())
}

func TestResetIdle(t *testing.T) {
	p, _ := newTestPest(t, npc.Vec2{})
	p.idleTimer = time.Second
	assert.Equal(t, bt.Failure, p.ResetIdle())
	assert.Zero(t, p.IdleTimer())
}

func TestUpdateSpotsAndMirrors(t *testing.T) {
	p, w := newTestPest(t, npc.Vec2{X: 50, Y: 50})
	require.NoError(t, w.Add(Item{ID: "behind", Position: npc.Vec2{X: 47, Y: 50}}))
	require.NoError(t, w.Add(Item{ID: "ahead", Position: npc.Vec2{X: 54, Y: 50}}))
	bb := npc.NewBlackboard()

	require.NoError(t, p.Update(context.Background(), npc.Frame{Delta: 100 * time.Millisecond}, bb))
	assert.Equal(t, "ahead", p.Target())
	target, _ := bb.GetString(npc.KeyTarget)
	assert.Equal(t, "ahead", target)
	pos, _ := bb.Get(npc.KeyPosition)
	assert.Equal(t, npc.Vec2{X: 50, Y: 50}, pos)
	assert.False(t, bb.Has(npc.KeyDestination))

	// The target sticks while it exists, even if something closer shows up.
	require.NoError(t, w.Add(Item{ID: "closer", Position: npc.Vec2{X: 51, Y: 50}}))
	require.NoError(t, p.Update(context.Background(), npc.Frame{}, bb))
	assert.Equal(t, "ahead", p.Target())

	w.Remove("ahead")
	w.Remove("closer")
	require.NoError(t, p.Update(context.Background(), npc.Frame{}, bb))
	assert.Empty(t, p.Target())
	assert.False(t, bb.Has(npc.KeyTarget))
}

func TestTreePilfersThenWanders(t *testing.T) {
	w := NewWorld(20, 20)
	require.NoError(t, w.Add(Item{ID: "cheese", Position: npc.Vec2{X: 7, Y: 5}}))
	p := New("moomoo", DefaultAIConfig(), NewNav(npc.Vec2{X: 5, Y: 5}, 10), w)
	a := npc.NewAgent(p.ID(), "MooMoo", npc.WithSensors(p), npc.WithTree("pest", p.Tree()))
	ctx := context.Background()
	frame := func(n uint64) npc.Frame { return npc.Frame{Number: n, Delta: 100 * time.Millisecond} }

	res, err := a.Step(ctx, frame(1))
	require.NoError(t, err)
	assert.Equal(t, bt.Running, res)
	assert.Equal(t, "cheese", a.Snapshot().Target)
	require.NotNil(t, a.Snapshot().Destination)

	res, err = a.Step(ctx, frame(2))
	require.NoError(t, err)
	assert.Equal(t, bt.Success, res)
	assert.Len(t, p.Pocket(), 1)
	assert.Equal(t, 1, a.Snapshot().Pocketed)
	assert.Empty(t, w.Items())

	// With nothing to chase the pest wanders off.
	res, err = a.Step(ctx, frame(3))
	require.NoError(t, err)
	assert.Equal(t, bt.Running, res)
	assert.True(t, p.Nav().HasPath)
	assert.NotZero(t, p.IdleTimer())
}

func TestTreeIdlesAfterArrival(t *testing.T) {
	p, _ := newTestPest(t, npc.Vec2{X: 50, Y: 50})
	a := npc.NewAgent(p.ID(), "MooMoo", npc.WithSensors(p), npc.WithTree("pest", p.Tree()))
	ctx := context.Background()

	_, err := a.Step(ctx, npc.Frame{Delta: 100 * time.Millisecond})
	require.NoError(t, err)
	require.True(t, p.Nav().HasPath)
	require.NotZero(t, p.IdleTimer())

	// A long frame reaches the destination; the next tick idles.
	_, err = a.Step(ctx, npc.Frame{Delta: 10 * time.Second})
	require.NoError(t, err)
	assert.False(t, p.Nav().HasPath)
	assert.Zero(t, p.IdleTimer())
}

func TestWorldSample(t *testing.T) {
	w := NewWorld(10, 10)
	hit, ok := w.Sample(npc.Vec2{X: 3, Y: 4}, 1)
	assert.True(t, ok)
	assert.Equal(t, npc.Vec2{X: 3, Y: 4}, hit)

	hit, ok = w.Sample(npc.Vec2{X: 10.5, Y: -0.5}, 1)
	assert.True(t, ok)
	assert.Equal(t, npc.Vec2{X: 10, Y: 0}, hit)

	_, ok = w.Sample(npc.Vec2{X: 20, Y: 5}, 1)
	assert.False(t, ok)
}

func TestWorldNearest(t *testing.T) {
	w := NewWorld(10, 10)
	require.NoError(t, w.Add(Item{ID: "b", Position: npc.Vec2{X: 7, Y: 5}}))
	require.NoError(t, w.Add(Item{ID: "a", Position: npc.Vec2{X: 5, Y: 7}}))
	require.NoError(t, w.Add(Item{ID: "far", Position: npc.Vec2{X: 9.9, Y: 9.9}}))
	from := npc.Vec2{X: 5, Y: 5}

	it, ok := w.Nearest(from, 3, npc.Vec2{X: 1}, 90)
	require.True(t, ok)
	assert.Equal(t, "b", it.ID)

	it, ok = w.Nearest(from, 3, npc.Vec2{}, 90)
	require.True(t, ok)
	assert.Equal(t, "a", it.ID, "ties break by id")

	it, ok = w.Nearest(from, 3, npc.Vec2{Y: 1}, 360)
	require.True(t, ok)
	assert.Equal(t, "a", it.ID)

	_, ok = w.Nearest(from, 3, npc.Vec2{X: -1}, 90)
	assert.False(t, ok)
}

func TestWorldAddAndScatter(t *testing.T) {
	w := NewWorld(10, 10)
	assert.ErrorIs(t, w.Add(Item{ID: "x", Position: npc.Vec2{X: 11}}), ErrOutOfBounds)
	require.NoError(t, w.Add(Item{ID: "item-1"}))
	assert.ErrorIs(t, w.Add(Item{ID: "item-1"}), ErrDuplicate)

	items := w.Scatter(3, []string{"sock"}, rand.New(rand.NewPCG(1, 2)))
	require.Len(t, items, 3)
	assert.Len(t, w.Items(), 4)
	for _, it := range items {
		assert.NotEqual(t, "item-1", it.ID)
		assert.Equal(t, "sock", it.Kind)
		assert.True(t, w.Contains(it.Position))
	}
}

func TestNavAdvance(t *testing.T) {
	n := NewNav(npc.Vec2{}, 2)
	n.Advance(time.Second)
	assert.Equal(t, npc.Vec2{}, n.Position)

	n.SetDestination(npc.Vec2{X: 3})
	n.Advance(time.Second)
	assert.InDelta(t, 2, n.Position.X, 1e-9)
	assert.True(t, n.HasPath)

	n.Stopped = true
	n.Advance(time.Second)
	assert.InDelta(t, 2, n.Position.X, 1e-9)

	n.Stopped = false
	n.Advance(time.Second)
	assert.Equal(t, npc.Vec2{X: 3}, n.Position)
	assert.False(t, n.HasPath)
	assert.Equal(t, npc.Vec2{X: 1}, n.Facing)
}

func TestSeed(t *testing.T) {
	assert.Equal(t, Seed("moomoo", 7), Seed("moomoo", 7))
	assert.NotEqual(t, Seed("moomoo", 7), Seed("moomoo", 8))
	assert.NotEqual(t, Seed("moomoo", 0), Seed("other", 0))
}
