package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Versifine/autofly/internal/nav"
	"github.com/Versifine/autofly/internal/render"
	"github.com/Versifine/autofly/internal/run"
)

var ErrTickLimit = errors.New("tick limit reached")

// Controller runs one decision and reports whether the session is over.
type Controller func(obs nav.Observation) (done bool, err error)

// FlyController drives the navigator alone.
func FlyController(n *nav.Navigator) Controller {
	return func(obs nav.Observation) (bool, error) {
		res := n.Tick(obs)
		if res.Outcome == nav.OutcomeDisabled {
			return true, res.Err
		}
		return false, nil
	}
}

// RunController drives a loot run; the orchestrator ticks the navigator itself.
func RunController(o *run.Orchestrator) Controller {
	return func(obs nav.Observation) (bool, error) {
		if err := o.Tick(obs); err != nil {
			return true, err
		}
		return !o.Enabled(), nil
	}
}

type Runner struct {
	Host    *Host
	Control Controller
	// Stop releases control when the context ends first.
	Stop   func(reason string)
	Status func() nav.Status

	Terminal *render.Terminal
	Trace    *render.Trace

	// Interval paces ticks in wall time; zero runs as fast as possible.
	Interval time.Duration
	MaxTicks int
	Logger   *slog.Logger
}

// Run ticks until the controller finishes, the tick limit is hit or ctx ends.
// A completed route is not an error.
func (r *Runner) Run(ctx context.Context) error {
	log := r.Logger
	if log == nil {
		log = slog.Default().With("component", "sim")
	}

	var tick <-chan time.Time
	if r.Interval > 0 {
		ticker := time.NewTicker(r.Interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for i := 0; r.MaxTicks <= 0 || i < r.MaxTicks; i++ {
		if err := ctx.Err(); err != nil {
			r.stop("context done")
			return err
		}

		obs := r.Host.Observe()
		done, err := r.Control(obs)
		if derr := r.draw(); derr != nil {
			log.Warn("render failed", "error", derr)
		}
		r.Host.Step()
		if done {
			if err == nil || errors.Is(err, nav.ErrRouteComplete) {
				log.Info("Simulation finished", "ticks", r.Host.Ticks(), "position", r.Host.Position())
				return nil
			}
			return fmt.Errorf("tick %d: %w", i, err)
		}

		if tick != nil {
			select {
			case <-ctx.Done():
				r.stop("context done")
				return ctx.Err()
			case <-tick:
			}
		}
	}
	r.stop("tick limit")
	return ErrTickLimit
}

func (r *Runner) stop(reason string) {
	if r.Stop != nil {
		r.Stop(reason)
	}
}

func (r *Runner) draw() error {
	if r.Status == nil {
		return nil
	}
	st := r.Status()

	var targets []render.Renderer
	if r.Terminal != nil {
		targets = append(targets, r.Terminal)
	}
	if r.Trace != nil {
		targets = append(targets, r.Trace)
	}
	if len(targets) == 0 {
		return nil
	}
	render.Overlay(render.Multi(targets...), st)

	if r.Trace != nil {
		if err := r.Trace.Record(st); err != nil {
			return err
		}
	}
	if r.Terminal != nil {
		return r.Terminal.Flush(st)
	}
	return nil
}
