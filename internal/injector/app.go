package injector

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/zeusync/tickai/internal/config"
	"github.com/zeusync/tickai/internal/core/events/bus"
	"github.com/zeusync/tickai/internal/core/npc/pest"
	"github.com/zeusync/tickai/internal/core/observability/log"
	"github.com/zeusync/tickai/internal/scheduler"
	"github.com/zeusync/tickai/internal/server"
)

// App is a fully wired tickai run.
type App struct {
	Config    *config.Config
	Logger    *log.Logger
	Bus       bus.EventBus
	World     *pest.World
	Scheduler *scheduler.Scheduler
	// Server is nil when disabled.
	Server *server.Server
}

func NewApp(cfg *config.Config, logger *log.Logger, events bus.EventBus, world *pest.World,
	sched *scheduler.Scheduler, srv *server.Server,
) (*App, error) {
	_, err := events.Subscribe(bus.TypeItemPocketed, func(e bus.Event) error {
		if p, ok := e.Data().(pest.Pocketed); ok {
			logger.Info("item pocketed",
				log.String("agent", p.AgentID),
				log.String("item", p.Item.ID),
				log.String("kind", p.Item.Kind),
			)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe pickups: %w", err)
	}
	return &App{Config: cfg, Logger: logger, Bus: events, World: world, Scheduler: sched, Server: srv}, nil
}

// Run starts the scheduler and, when enabled, the server, and blocks until
// ctx is done or either of them fails.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	if err := a.Scheduler.Start(ctx); err != nil {
		return err
	}
	g.Go(func() error {
		select {
		case <-a.Scheduler.Done():
			if err := a.Scheduler.Err(); err != nil {
				return fmt.Errorf("scheduler: %w", err)
			}
			return errSchedulerStopped
		case <-ctx.Done():
			a.Scheduler.Stop()
			<-a.Scheduler.Done()
			return nil
		}
	})
	if a.Server != nil {
		g.Go(func() error { return a.Server.ListenAndServe(ctx) })
	}

	err := g.Wait()
	if errors.Is(err, errSchedulerStopped) {
		err = nil
	}
	return err
}

// errSchedulerStopped ends the group when the scheduler stops on its own.
var errSchedulerStopped = errors.New("scheduler stopped")

// RunFrames steps the scheduler n times synchronously without the server.
func (a *App) RunFrames(ctx context.Context, n int) (scheduler.FrameInfo, error) {
	var last scheduler.FrameInfo
	for range n {
		info, err := a.Scheduler.Step(ctx)
		if err != nil {
			return last, err
		}
		last = info
	}
	return last, nil
}

// Close flushes the logger and stops the server.
func (a *App) Close() error {
	var errs []error
	if a.Server != nil {
		errs = append(errs, a.Server.Close())
	}
	a.Scheduler.Stop()
	_ = a.Logger.Sync()
	return errors.Join(errs...)
}
