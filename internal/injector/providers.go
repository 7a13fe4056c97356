package injector

import (
	"fmt"
	"math/rand/v2"

	"github.com/google/wire"

	"github.com/zeusync/tickai/internal/config"
	"github.com/zeusync/tickai/internal/core/events/bus"
	"github.com/zeusync/tickai/internal/core/npc"
	"github.com/zeusync/tickai/internal/core/npc/pest"
	"github.com/zeusync/tickai/internal/core/observability/log"
	"github.com/zeusync/tickai/internal/scheduler"
	"github.com/zeusync/tickai/internal/server"
)

// ProviderSet wires a complete App from a *config.Config.
var ProviderSet = wire.NewSet(
	ProvideLogger,
	wire.Bind(new(log.Log), new(*log.Logger)),
	ProvideBus,
	ProvideWorld,
	ProvideAgents,
	ProvideScheduler,
	ProvideServer,
	NewApp,
)

func ProvideLogger(cfg *config.Config) (*log.Logger, error) {
	level, err := cfg.LogLevel()
	if err != nil {
		return nil, err
	}
	return log.NewWithOptions(log.Options{Level: level, Encoding: cfg.Log.Encoding})
}

func ProvideBus() bus.EventBus { return bus.New() }

// ProvideWorld builds the world and scatters its items from the world seed.
func ProvideWorld(cfg *config.Config) *pest.World {
	w := pest.NewWorld(cfg.World.Width, cfg.World.Height)
	rng := rand.New(rand.NewPCG(cfg.World.Seed, cfg.World.Seed))
	w.Scatter(cfg.World.Items, cfg.World.Kinds, rng)
	return w
}

// ProvideAgents builds one pest-driven agent per configured agent.
func ProvideAgents(cfg *config.Config, world *pest.World, logger log.Log, events bus.EventBus) ([]*npc.Agent, error) {
	agents := make([]*npc.Agent, 0, len(cfg.Agents))
	for _, ac := range cfg.Agents {
		if !world.Contains(ac.Position) {
			return nil, fmt.Errorf("agent %s: %w", ac.ID, pest.ErrOutOfBounds)
		}
		seed := pest.Seed(ac.ID, cfg.World.Seed)
		agentLog := logger.With(log.String("agent", ac.ID))
		p := pest.New(ac.ID, ac.AI.Pest(), pest.NewNav(ac.Position, ac.Speed), world,
			pest.WithBus(events),
			pest.WithLogger(agentLog),
			pest.WithRand(rand.New(rand.NewPCG(seed, seed>>1))),
		)
		agents = append(agents, npc.NewAgent(ac.ID, ac.Name,
			npc.WithSensors(p),
			npc.WithTree("pest", p.Tree()),
			npc.WithMemory(npc.NewMemory(ac.History)),
			npc.WithBus(events),
			npc.WithLogger(logger),
		))
	}
	return agents, nil
}

func ProvideScheduler(cfg *config.Config, logger log.Log, events bus.EventBus, agents []*npc.Agent) (*scheduler.Scheduler, error) {
	s := scheduler.New(scheduler.Config{
		Interval:      cfg.Scheduler.Interval.Duration(),
		StopOnFailure: cfg.Scheduler.StopOnFailure,
	}, logger, events)
	if err := s.Add(agents...); err != nil {
		return nil, err
	}
	return s, nil
}

// ProvideServer returns nil when the server is disabled.
func ProvideServer(cfg *config.Config, logger log.Log, events bus.EventBus) (*server.Server, error) {
	if !cfg.Server.Enabled {
		return nil, nil
	}
	return server.New(server.Config{Addr: cfg.Server.Addr, Buffer: cfg.Server.Buffer}, logger, events)
}
