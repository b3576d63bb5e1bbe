package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Versifine/autofly/internal/config"
	"github.com/Versifine/autofly/internal/event"
	"github.com/Versifine/autofly/internal/logger"
	"github.com/Versifine/autofly/internal/nav"
	"github.com/Versifine/autofly/internal/pathfind"
	"github.com/Versifine/autofly/internal/render"
	"github.com/Versifine/autofly/internal/run"
	"github.com/Versifine/autofly/internal/sim"
	"github.com/Versifine/autofly/internal/waypoint"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the YAML config")
	mode := flag.String("mode", "fly", "fly: waypoint flight, run: loot run")
	dump := flag.Bool("dump", false, "print the waypoint list in text form and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid config", "error", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.LoggerConfig(os.Stderr)); err != nil {
		slog.Warn("Log file unavailable, logging to stderr only", "error", err)
	}
	defer logger.Close()

	points, err := cfg.LoadWaypoints()
	if err != nil {
		slog.Error("Failed to load waypoints", "error", err)
		os.Exit(1)
	}
	if *dump {
		fmt.Println(waypoint.FormatText(points))
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := simulate(ctx, cfg, *mode, points); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("Simulation failed", "error", err)
		os.Exit(1)
	}
}

func simulate(ctx context.Context, cfg *config.Config, mode string, points []waypoint.Waypoint) error {
	grid, err := sim.Scenario{
		Dimension:  cfg.Run.Dimension,
		FloorY:     cfg.Sim.FloorY,
		Radius:     cfg.Sim.FloorRadius,
		Containers: cfg.Sim.ContainerPositions(),
	}.Build()
	if err != nil {
		return err
	}
	start := cfg.Sim.Start
	host := sim.NewHost(grid, mgl64.Vec3{start[0], start[1], start[2]}, cfg.Sim.Flying)

	bus := event.NewBus()
	bus.Subscribe(event.EventNavArrived, func(raw any) {
		e := raw.(event.ArrivedEvent)
		slog.Info("Arrived", "x", e.X, "y", e.Y, "z", e.Z)
	})
	store := waypoint.NewStore(points)
	finder := pathfind.New(cfg.PathfindConfig(), grid)

	navDeps := nav.Deps{
		World:      grid,
		Keys:       host.Keys(),
		Clock:      host.Clock(),
		Pathfinder: finder,
		Flight:     host,
		Bus:        bus,
		Logger:     logger.Component("nav"),
	}
	runner := &sim.Runner{
		Host:     host,
		Interval: cfg.Sim.TickInterval,
		MaxTicks: cfg.Sim.MaxTicks,
		Logger:   logger.Component("sim"),
	}
	if cfg.Sim.StatusLine {
		runner.Terminal = render.NewTerminal(os.Stdout)
	}
	if cfg.Sim.Trace != "" {
		trace, err := render.NewTrace(cfg.Sim.Trace)
		if err != nil {
			return fmt.Errorf("open trace: %w", err)
		}
		defer func() {
			if err := trace.Close(); err != nil {
				slog.Warn("Trace close failed", "error", err)
			}
		}()
		runner.Trace = trace
	}

	switch mode {
	case "fly":
		navDeps.Targets = store
		n := nav.New(cfg.NavConfig(), navDeps)
		if err := n.Enable(); err != nil {
			return err
		}
		runner.Control = sim.FlyController(n)
		runner.Stop = n.Disable
		runner.Status = n.Snapshot
	case "run":
		navCfg := cfg.NavConfig()
		navCfg.SkipReached = false
		n := nav.New(navCfg, navDeps)

		ledger, err := run.OpenLedger(cfg.Run.Ledger.Driver, cfg.Run.Ledger.Path)
		if err != nil {
			return fmt.Errorf("open ledger: %w", err)
		}
		defer ledger.Close()

		o := run.New(cfg.RunConfig(), run.Deps{
			World:     grid,
			Keys:      host.Keys(),
			Clock:     host.Clock(),
			Navigator: n,
			Walker:    finder,
			Flight:    host,
			Targets:   store,
			Session:   sim.NewChests(host, cfg.Sim.ContainerStacks, 2),
			Ledger:    ledger,
			Bus:       bus,
			Logger:    logger.Component("run"),
		})
		if err := o.Start(); err != nil {
			return err
		}
		runner.Control = sim.RunController(o)
		runner.Stop = o.Stop
		runner.Status = n.Snapshot
	default:
		return fmt.Errorf("unknown mode %q", mode)
	}

	err = runner.Run(ctx)
	if runner.Terminal != nil {
		fmt.Println()
	}
	return err
}
