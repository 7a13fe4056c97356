// Package scheduler drives agents frame by frame.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	behaviortree "github.com/joeycumines/go-behaviortree"

	"github.com/zeusync/tickai/internal/core/bt"
	"github.com/zeusync/tickai/internal/core/bt/gobt"
	"github.com/zeusync/tickai/internal/core/events/bus"
	"github.com/zeusync/tickai/internal/core/npc"
	"github.com/zeusync/tickai/internal/core/observability/log"
)

// ErrStarted is returned when adding agents to, or starting, a running scheduler.
var ErrStarted = errors.New("scheduler: already started")

// Config controls frame pacing.
type Config struct {
	Interval time.Duration
	// StopOnFailure stops the ticker after a frame in which an agent step failed.
	StopOnFailure bool
}

// FrameInfo is the payload of bus.TypeFrame events.
type FrameInfo struct {
	Number uint64
	Delta  time.Duration
	Time   time.Time
	Agents []npc.Snapshot
	// Failed counts agents whose step returned an error.
	Failed int
}

// Scheduler steps every registered agent once per frame, in registration
// order, under a single frame lock.
type Scheduler struct {
	cfg    Config
	logger log.Log
	events bus.EventBus
	clock  func() time.Time

	frameMu sync.Mutex
	agents  []*npc.Agent
	frame   uint64
	last    time.Time

	mu       sync.Mutex
	started  bool
	manager  behaviortree.Manager
	ticker   behaviortree.Ticker
	done     chan struct{}
	doneOnce sync.Once
	err      error
}

// New returns an idle scheduler.
func New(cfg Config, logger log.Log, events bus.EventBus) *Scheduler {
	if logger == nil {
		logger = log.NewNop()
	}
	if events == nil {
		events = bus.New()
	}
	return &Scheduler{
		cfg:    cfg,
		logger: logger.With(log.String("component", "scheduler")),
		events: events,
		clock:  time.Now,
		done:   make(chan struct{}),
	}
}

// Add registers agents. Registration order is tick order.
func (s *Scheduler) Add(agents ...*npc.Agent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return ErrStarted
	}
	s.frameMu.Lock()
	defer s.frameMu.Unlock()
	for _, a := range agents {
		if a != nil {
			s.agents = append(s.agents, a)
		}
	}
	return nil
}

// Agents returns the registered agents.
func (s *Scheduler) Agents() []*npc.Agent {
	s.frameMu.Lock()
	defer s.frameMu.Unlock()
	out := make([]*npc.Agent, len(s.agents))
	copy(out, s.agents)
	return out
}

// Frames returns the number of frames run so far.
func (s *Scheduler) Frames() uint64 {
	s.frameMu.Lock()
	defer s.frameMu.Unlock()
	return s.frame
}

// Start ticks frames every Interval until ctx is done, Stop is called, or a
// failed frame stops it under StopOnFailure.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.cfg.Interval <= 0 {
		return fmt.Errorf("scheduler: interval must be positive, got %s", s.cfg.Interval)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return ErrStarted
	}
	s.started = true

	// The frame itself is an engine action; the ticker only paces it.
	node := gobt.Wrap(bt.NewAction(func() bt.Result {
		info, err := s.run(ctx, 0)
		if err != nil || info.Failed > 0 {
			return bt.Failure
		}
		return bt.Running
	}))

	if s.cfg.StopOnFailure {
		s.ticker = behaviortree.NewTickerStopOnFailure(ctx, s.cfg.Interval, node)
	} else {
		s.ticker = behaviortree.NewTicker(ctx, s.cfg.Interval, node)
	}
	s.manager = behaviortree.NewManager()
	if err := s.manager.Add(s.ticker); err != nil {
		s.ticker.Stop()
		return fmt.Errorf("scheduler: register ticker: %w", err)
	}

	s.logger.Info("scheduler started",
		log.Duration("interval", s.cfg.Interval),
		log.Bool("stop_on_failure", s.cfg.StopOnFailure),
		log.Int("agents", len(s.Agents())),
	)

	go s.wait(s.ticker, s.manager)
	return nil
}

func (s *Scheduler) wait(ticker behaviortree.Ticker, manager behaviortree.Manager) {
	<-ticker.Done()
	manager.Stop()
	<-manager.Done()

	err := ticker.Err()
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		err = nil
	}
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("scheduler stopped", log.Uint64("frames", s.Frames()), log.Error(err))
	} else {
		s.logger.Info("scheduler stopped", log.Uint64("frames", s.Frames()))
	}
	s.doneOnce.Do(func() { close(s.done) })
}

// Step runs one frame synchronously with a delta of one Interval.
func (s *Scheduler) Step(ctx context.Context) (FrameInfo, error) {
	return s.run(ctx, s.cfg.Interval)
}

// run executes one frame. A zero delta is measured from the previous frame.
func (s *Scheduler) run(ctx context.Context, delta time.Duration) (FrameInfo, error) {
	if err := ctx.Err(); err != nil {
		return FrameInfo{}, err
	}

	s.frameMu.Lock()
	now := s.clock()
	if delta == 0 {
		delta = s.cfg.Interval
		if !s.last.IsZero() {
			delta = now.Sub(s.last)
		}
	}
	s.last = now
	s.frame++
	frame := npc.Frame{Number: s.frame, Delta: delta, Time: now}

	info := FrameInfo{
		Number: frame.Number,
		Delta:  frame.Delta,
		Time:   frame.Time,
		Agents: make([]npc.Snapshot, 0, len(s.agents)),
	}
	for _, a := range s.agents {
		if _, err := a.Step(ctx, frame); err != nil {
			info.Failed++
			s.logger.Warn("agent step failed",
				log.String("agent", a.ID()),
				log.Uint64("frame", frame.Number),
				log.Error(err),
			)
		}
		info.Agents = append(info.Agents, a.Snapshot())
	}
	s.frameMu.Unlock()

	if err := s.events.Publish(bus.NewEvent(bus.TypeFrame, "scheduler", info)); err != nil {
		s.logger.Warn("frame handler failed", log.Uint64("frame", info.Number), log.Error(err))
	}
	return info, nil
}

// Stop halts the ticker. It is safe to call before Start and more than once.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	manager := s.manager
	s.started = true
	s.mu.Unlock()

	if manager == nil {
		s.doneOnce.Do(func() { close(s.done) })
		return
	}
	manager.Stop()
}

// Done is closed once the scheduler has stopped.
func (s *Scheduler) Done() <-chan struct{} { return s.done }

// Err returns the error that stopped the ticker, if any. Context
// cancellation is a clean stop.
func (s *Scheduler) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
