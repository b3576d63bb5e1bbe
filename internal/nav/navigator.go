// Package nav steers a flying player toward waypoints one tick at a time.
package nav

import (
	"log/slog"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Versifine/autofly/internal/event"
	"github.com/Versifine/autofly/internal/input"
	"github.com/Versifine/autofly/internal/waypoint"
	"github.com/Versifine/autofly/internal/world"
)

type Navigator struct {
	cfg     Config
	world   world.Query
	keys    *input.Tracker
	clock   Clock
	finder  Pathfinder
	flight  FlightControl
	targets Targets
	bus     *event.Bus
	log     *slog.Logger

	enabled   bool
	mode      Mode
	target    waypoint.Waypoint
	hasTarget bool
	arrived   bool
	// arriveRadius overrides cfg.Radius for a SetTargetWithin target.
	arriveRadius float64

	vertical    VerticalMode
	close       latch
	landingY    int
	landingOK   bool
	landingWait time.Time
	lastSteer   steerState

	stuck       stuckTracker
	climbed     bool
	lastClimbAt time.Time
	failures    int

	assist assistState

	statusMu sync.RWMutex
	status   Status
}

func New(cfg Config, deps Deps) *Navigator {
	clock := deps.Clock
	if clock == nil {
		clock = SystemClock{}
	}
	log := deps.Logger
	if log == nil {
		log = slog.Default().With("component", "nav")
	}
	return &Navigator{
		cfg:     cfg,
		world:   deps.World,
		keys:    input.NewTracker(deps.Keys),
		clock:   clock,
		finder:  deps.Pathfinder,
		flight:  deps.Flight,
		targets: deps.Targets,
		bus:     deps.Bus,
		log:     log,
		mode:    steeringMode{},
	}
}

// Enable starts navigation. With a waypoint source attached it selects the
// current (or first) waypoint and fails when there is none.
func (n *Navigator) Enable() error {
	n.reset()
	if !n.hasTarget && n.targets != nil {
		if n.targets.Len() == 0 {
			n.log.Warn("No waypoints loaded, navigator stays off")
			return ErrNoWaypoints
		}
		wp, ok := n.targets.Current()
		if !ok {
			wp, ok = n.targets.SelectNext(nil, n.cfg.Wrap)
		}
		if !ok {
			n.log.Warn("Waypoint route already complete, navigator stays off")
			return ErrRouteComplete
		}
		n.retarget(wp)
	}
	n.enabled = true
	n.log.Info("Navigator enabled", "target", n.targetString())
	n.publishStatus(Observation{})
	return nil
}

// Disable releases every key, drops all sub-state and forgets the target.
// Calling it while already disabled only releases keys again.
func (n *Navigator) Disable(reason string) {
	wasEnabled := n.enabled
	n.reset()
	input.ReleaseAll(n.keys)
	n.enabled = false
	n.hasTarget = false
	n.arriveRadius = 0
	n.publishStatus(Observation{})
	if !wasEnabled {
		return
	}
	n.log.Info("Navigator disabled", "reason", reason)
	n.bus.Publish(event.EventNavDisabled, event.DisabledEvent{Reason: reason})
}

func (n *Navigator) Enabled() bool {
	return n.enabled
}

// SetTarget replaces the current target and resets all per-target state.
func (n *Navigator) SetTarget(wp waypoint.Waypoint) {
	n.reset()
	input.ReleaseAll(n.keys)
	n.retarget(wp)
}

// SetTargetWithin is SetTarget with its own arrival radius, for short legs
// that must end on a tile. Such a target is reached only once the player has
// settled inside radius at the target's height, and steering keeps pushing
// forward until half that radius.
func (n *Navigator) SetTargetWithin(wp waypoint.Waypoint, radius float64) {
	n.SetTarget(wp)
	if radius > 0 {
		n.arriveRadius = radius
	}
}

func (n *Navigator) ClearTarget() {
	n.reset()
	input.ReleaseAll(n.keys)
	n.hasTarget = false
	n.arriveRadius = 0
}

func (n *Navigator) Target() (waypoint.Waypoint, bool) {
	return n.target, n.hasTarget
}

func (n *Navigator) Mode() ModeKind {
	return n.mode.Kind()
}

// Tick runs one decision. It never panics upward and always leaves keys
// released when it reports a disabling outcome.
func (n *Navigator) Tick(obs Observation) Result {
	if !n.enabled {
		return Result{Outcome: OutcomeIdle, Mode: n.mode.Kind()}
	}
	if !obs.Present {
		n.Disable(ErrHostUnavailable.Error())
		return Result{Outcome: OutcomeDisabled, Mode: ModeSteering, Err: ErrHostUnavailable}
	}
	res := n.step(obs, n.clock.Now())
	n.publishStatus(obs)
	return res
}

func (n *Navigator) step(obs Observation, now time.Time) Result {
	if !n.hasTarget {
		if n.targets == nil {
			input.ReleaseAll(n.keys)
			return Result{Outcome: OutcomeIdle, Mode: n.mode.Kind()}
		}
		if err := n.advance(obs.Position); err != nil {
			return n.fail(err)
		}
	}

	if res, handled := n.manual(obs, now); handled {
		return res
	}

	switch m := n.mode.(type) {
	case *pauseMode:
		return n.pause(m, obs, now)
	case *recoveryMode:
		if res, handled := n.recover(m, obs, now); handled {
			return res
		}
	case *climbMode:
		if now.Before(m.until) && obs.Position.Y() < m.targetY {
			input.Apply(n.keys, input.SetOf(input.KeyJump))
			return n.active()
		}
		n.setMode(steeringMode{})
	}

	d := n.steer(obs, now)
	if n.reached(obs, d) {
		return n.arrive(obs, now)
	}
	if d.noLanding {
		return n.fail(ErrNoLanding)
	}
	n.checkStuck(obs, now, d)
	return n.active()
}

func (n *Navigator) active() Result {
	return Result{Outcome: OutcomeActive, Mode: n.mode.Kind()}
}

func (n *Navigator) fail(err error) Result {
	n.log.Warn("Navigator stopping", "error", err)
	n.Disable(err.Error())
	return Result{Outcome: OutcomeDisabled, Mode: ModeSteering, Err: err}
}

// manual handles hand-off to a human pressing keys the navigator does not hold.
func (n *Navigator) manual(obs Observation, now time.Time) (Result, bool) {
	foreign := obs.Pressed &^ n.keys.Held()
	m, inManual := n.mode.(*manualMode)
	if !inManual {
		if foreign.Empty() {
			return Result{}, false
		}
		n.dropRecovery()
		n.endAssist()
		input.ReleaseAll(n.keys)
		n.log.Debug("Manual input detected, handing off", "keys", foreign.String())
		n.setMode(&manualMode{start: now, startPos: obs.Position, lastInput: now})
		return n.active(), true
	}

	if !foreign.Empty() {
		m.lastInput = now
	}
	switch {
	case obs.Position.Sub(m.startPos).Len() > n.cfg.ManualMoveThreshold:
		n.log.Debug("Player moved during hand-off, re-routing")
		n.resumeAutomation(obs, now, true)
		return n.active(), true
	case now.Sub(m.lastInput) >= n.cfg.ManualIdleResume:
		n.resumeAutomation(obs, now, false)
		return Result{}, false
	case now.Sub(m.start) >= n.cfg.ManualMaxHold:
		n.log.Debug("Manual hold expired, forcing recovery")
		n.resumeAutomation(obs, now, true)
		return n.active(), true
	}
	return n.active(), true
}

func (n *Navigator) resumeAutomation(obs Observation, now time.Time, escalate bool) {
	n.stuck.reset(obs.Position, now, n.target.HorizontalDist(obs.Position))
	if n.arrived {
		n.setMode(&pauseMode{until: now})
		return
	}
	n.setMode(steeringMode{})
	if escalate {
		n.escalate(obs, now, "manual")
	}
}

func (n *Navigator) pause(m *pauseMode, obs Observation, now time.Time) Result {
	if !m.advanced {
		m.advanced = true
		if n.targets != nil {
			if err := n.advance(obs.Position); err != nil {
				return n.fail(err)
			}
		}
	}
	if now.Before(m.until) {
		return n.active()
	}
	n.setMode(steeringMode{})
	if n.arrived {
		n.hasTarget = false
		n.arrived = false
		input.ReleaseAll(n.keys)
		return Result{Outcome: OutcomeIdle, Mode: ModeSteering}
	}
	return n.active()
}

// advance moves the waypoint cursor forward, skipping waypoints already within radius.
func (n *Navigator) advance(pos mgl64.Vec3) error {
	if n.targets.Len() == 0 {
		return ErrNoWaypoints
	}
	wp, ok := n.selectNext(pos)
	if !ok {
		return ErrRouteComplete
	}
	n.resetTracking()
	n.retarget(wp)
	return nil
}

func (n *Navigator) selectNext(pos mgl64.Vec3) (waypoint.Waypoint, bool) {
	var skip func(waypoint.Waypoint) bool
	if n.cfg.SkipReached {
		skip = waypoint.ReachedWithin(pos, n.cfg.Radius)
	}
	return n.targets.SelectNext(skip, n.cfg.Wrap)
}

func (n *Navigator) retarget(wp waypoint.Waypoint) {
	n.target = wp
	n.hasTarget = true
	n.arrived = false
	n.arriveRadius = 0
	idx := -1
	if ix, ok := n.targets.(interface{ Index() int }); ok {
		idx = ix.Index()
	}
	n.log.Debug("Navigator target selected", "target", wp.String(), "index", idx)
	n.bus.Publish(event.EventNavTarget, event.TargetEvent{X: wp.X, Y: wp.Y, Z: wp.Z, HasY: wp.HasY, Index: idx})
}

func (n *Navigator) arrive(obs Observation, now time.Time) Result {
	input.ReleaseAll(n.keys)
	n.endAssist()
	n.arrived = true
	n.vertical = VerticalNone
	n.setMode(&pauseMode{until: now.Add(n.cfg.ArrivalPause)})
	if n.cfg.FlightOffOnArrival && n.flight != nil {
		n.flight.SetFlying(false)
	}
	n.log.Info("Arrived at waypoint", "target", n.target.String())
	n.bus.Publish(event.EventNavArrived, event.ArrivedEvent{X: n.target.X, Y: n.target.Y, Z: n.target.Z, HasY: n.target.HasY})
	if n.cfg.DisableOnArrival {
		// the pause that would move the cursor never runs, so the next
		// Enable picks up the following waypoint
		if n.targets != nil {
			n.selectNext(obs.Position)
		}
		n.Disable("arrived")
	}
	return Result{Outcome: OutcomeArrived, Mode: ModePause}
}

func (n *Navigator) setMode(m Mode) {
	prev := n.mode.Kind()
	n.mode = m
	if prev == m.Kind() {
		return
	}
	n.log.Debug("Navigator mode changed", "from", prev.String(), "to", m.Kind().String())
	n.bus.Publish(event.EventNavMode, event.ModeEvent{From: prev.String(), To: m.Kind().String()})
}

// reset clears everything tied to the current engagement except the target.
func (n *Navigator) reset() {
	n.dropRecovery()
	n.resetTracking()
	n.setMode(steeringMode{})
}

func (n *Navigator) resetTracking() {
	n.endAssist()
	n.arrived = false
	n.vertical = VerticalNone
	n.close = latch{}
	n.landingOK = false
	n.landingY = 0
	n.landingWait = time.Time{}
	n.lastSteer = steerState{}
	n.stuck = stuckTracker{}
	n.climbed = false
	n.lastClimbAt = time.Time{}
}

func (n *Navigator) dropRecovery() {
	if m, ok := n.mode.(*recoveryMode); ok && m.exec != nil {
		m.exec.ReleaseControls()
	}
}

func (n *Navigator) targetString() string {
	if !n.hasTarget {
		return "-"
	}
	return n.target.String()
}
