package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zeusync/tickai/internal/config"
	"github.com/zeusync/tickai/internal/core/observability/log"
	"github.com/zeusync/tickai/internal/injector"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the agents",
	Long: `Run the agents on the configured interval until interrupted.
With --frames the agents are stepped that many times as fast as possible and
the final state is logged.`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

var (
	runFrames   int
	runNoServer bool
)

func init() {
	runCmd.Flags().IntVar(&runFrames, "frames", 0, "step a fixed number of frames headless, then exit")
	runCmd.Flags().BoolVar(&runNoServer, "no-server", false, "disable the websocket gizmo stream")
}

func runRun(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if runNoServer || runFrames > 0 {
		cfg.Server.Enabled = false
	}

	app, err := injector.InitializeApp(cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if runFrames > 0 {
		return runHeadless(ctx, app, runFrames)
	}
	return app.Run(ctx)
}

func runHeadless(ctx context.Context, app *injector.App, frames int) error {
	info, err := app.RunFrames(ctx, frames)
	if err != nil {
		return err
	}
	for _, s := range info.Agents {
		app.Logger.Info("agent state",
			log.Uint64("frame", info.Number),
			log.String("agent", s.ID),
			log.String("result", s.Result),
			log.Float64("x", s.Position.X),
			log.Float64("y", s.Position.Y),
			log.Int("pocketed", s.Pocketed),
		)
	}
	app.Logger.Info("world state", log.Int("items_left", len(app.World.Items())))
	return nil
}
