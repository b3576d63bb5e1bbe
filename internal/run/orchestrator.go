// Package run chains navigator engagements into a loot run: fly to each
// waypoint, find and loot the nearest container, take off again.
package run

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Versifine/autofly/internal/event"
	"github.com/Versifine/autofly/internal/input"
	"github.com/Versifine/autofly/internal/nav"
	"github.com/Versifine/autofly/internal/waypoint"
	"github.com/Versifine/autofly/internal/world"
)

type State string

const (
	StateIdle               State = "idle"
	StatePathingToTarget    State = "pathing_to_target"
	StateSearchingContainer State = "searching_container"
	StatePathingToContainer State = "pathing_to_container"
	StateOpeningContainer   State = "opening_container"
	StateLooting            State = "looting"
	StateExiting            State = "exiting"
	StateCooldown           State = "cooldown"
	StateEmergencyAscend    State = "emergency_ascend"
	StateResumingPosition   State = "resuming_position"
)

var (
	ErrNoNavigator = errors.New("flight travel needs a navigator")
	ErrNoWalker    = errors.New("walk travel needs a pathfinder")
)

// ContainerSession is the host's container GUI.
type ContainerSession interface {
	// Open requests the container at pos and reports whether the request went out.
	Open(pos world.BlockPos) bool
	Opened() bool
	// LootStep moves items for one tick and reports when nothing is left.
	LootStep() bool
	Close()
}

type Config struct {
	Travel    Travel
	Dimension string
	// StateTimeout bounds every working state; expiry marks the target missing.
	StateTimeout time.Duration
	SearchRadius int
	ExitRadius   int
	// ApproachRadius is how close flight must bring the player to a
	// container approach tile or an exit tile.
	ApproachRadius float64
	Cooldown       time.Duration
	// VoidMargin is the height above the world floor where falling becomes an emergency.
	VoidMargin float64
	// FallSpeed is the downward speed, in blocks per tick, that counts as falling.
	FallSpeed float64
	// EmergencyClimb is how far above the void margin the ascent stops.
	EmergencyClimb float64
	Wrap           bool
}

func DefaultConfig() Config {
	return Config{
		Travel:         TravelFlight,
		Dimension:      world.DimensionOverworld,
		StateTimeout:   25 * time.Second,
		SearchRadius:   16,
		ExitRadius:     12,
		ApproachRadius: 0.5,
		Cooldown:       2 * time.Second,
		VoidMargin:     8,
		FallSpeed:      0.5,
		EmergencyClimb: 6,
	}
}

type Deps struct {
	World     world.Query
	Keys      input.Actuator
	Clock     nav.Clock
	Navigator Navigator
	Walker    nav.Pathfinder
	Flight    nav.FlightControl
	Targets   nav.Targets
	Session   ContainerSession
	Ledger    Ledger
	Bus       *event.Bus
	Logger    *slog.Logger
}

// RunStatus is a read-only copy of orchestrator state.
type RunStatus struct {
	Enabled      bool
	State        State
	Target       waypoint.Waypoint
	HasTarget    bool
	Container    world.BlockPos
	HasContainer bool
	Completed    int
	Missing      int
}

type Orchestrator struct {
	cfg     Config
	world   world.Query
	keys    input.Actuator
	clock   nav.Clock
	nav     Navigator
	walker  nav.Pathfinder
	flight  nav.FlightControl
	targets nav.Targets
	session ContainerSession
	ledger  Ledger
	bus     *event.Bus
	log     *slog.Logger

	enabled  bool
	state    State
	deadline time.Time
	leg      leg

	target    waypoint.Waypoint
	hasTarget bool
	key       Key
	recorded  bool

	container    world.BlockPos
	hasContainer bool
	approach     world.BlockPos
	sessionOpen  bool

	interrupted State
	safePos     mgl64.Vec3
	hasSafe     bool

	completed int
	missing   int

	statusMu sync.RWMutex
	status   RunStatus
}

func New(cfg Config, deps Deps) *Orchestrator {
	clock := deps.Clock
	if clock == nil {
		clock = nav.SystemClock{}
	}
	log := deps.Logger
	if log == nil {
		log = slog.Default().With("component", "run")
	}
	ledger := deps.Ledger
	if ledger == nil {
		ledger = NewMemoryLedger()
	}
	return &Orchestrator{
		cfg:     cfg,
		world:   deps.World,
		keys:    deps.Keys,
		clock:   clock,
		nav:     deps.Navigator,
		walker:  deps.Walker,
		flight:  deps.Flight,
		targets: deps.Targets,
		session: deps.Session,
		ledger:  ledger,
		bus:     deps.Bus,
		log:     log,
		state:   StateIdle,
	}
}

// Start arms the run. The first Tick picks the first unfinished target.
func (o *Orchestrator) Start() error {
	switch {
	case o.cfg.Travel == TravelWalk && o.walker == nil:
		return ErrNoWalker
	case o.cfg.Travel != TravelWalk && o.nav == nil:
		return ErrNoNavigator
	}
	if o.targets == nil || o.targets.Len() == 0 {
		o.log.Warn("No waypoints loaded, run stays off")
		return nav.ErrNoWaypoints
	}
	o.enabled = true
	o.state = StateIdle
	o.log.Info("Run started", "travel", o.cfg.Travel, "targets", o.targets.Len())
	o.publishStatus()
	return nil
}

// Stop cancels the active leg and releases every key.
func (o *Orchestrator) Stop(reason string) {
	o.stopLeg()
	o.closeSession()
	input.ReleaseAll(o.keys)
	wasEnabled := o.enabled
	o.enabled = false
	o.setState(StateIdle, o.clock.Now())
	o.publishStatus()
	if wasEnabled {
		o.log.Info("Run stopped", "reason", reason, "completed", o.completed, "missing", o.missing)
	}
}

func (o *Orchestrator) Enabled() bool { return o.enabled }

func (o *Orchestrator) State() State { return o.state }

func (o *Orchestrator) Snapshot() RunStatus {
	o.statusMu.RLock()
	defer o.statusMu.RUnlock()
	return o.status
}

// Tick runs one orchestrator decision. It returns nav.ErrRouteComplete once
// every target is handled and nav.ErrHostUnavailable when the player is gone.
func (o *Orchestrator) Tick(obs nav.Observation) error {
	if !o.enabled {
		return nil
	}
	if !obs.Present {
		o.Stop(nav.ErrHostUnavailable.Error())
		return nav.ErrHostUnavailable
	}
	now := o.clock.Now()
	if o.inDanger(obs) && o.state != StateEmergencyAscend {
		o.beginEmergency(obs, now)
	} else if !o.belowMargin(obs) && o.state != StateEmergencyAscend && o.state != StateResumingPosition {
		o.safePos = obs.Position
		o.hasSafe = true
	}
	err := o.step(obs, now)
	o.publishStatus()
	return err
}

func (o *Orchestrator) step(obs nav.Observation, now time.Time) error {
	if o.timedOut(now) {
		return o.timeout(obs, now)
	}

	switch o.state {
	case StateIdle:
		return o.selectNext(obs, now)

	case StatePathingToTarget:
		switch status, err := o.leg.tick(obs); status {
		case legArrived:
			o.leg = nil
			o.log.Info("Reached run target", "target", o.target.String())
			o.enter(StateSearchingContainer, obs, now)
		case legFailed:
			o.leg = nil
			return o.giveUp(obs, now, fmt.Sprintf("travel: %v", err))
		}

	case StateSearchingContainer:
		o.searchContainer(obs, now)

	case StatePathingToContainer:
		switch status, err := o.leg.tick(obs); status {
		case legArrived:
			o.leg = nil
			o.enter(StateOpeningContainer, obs, now)
		case legFailed:
			o.leg = nil
			o.giveUp(obs, now, fmt.Sprintf("approach container: %v", err))
		}

	case StateOpeningContainer:
		if o.session == nil || o.session.Opened() {
			o.enter(StateLooting, obs, now)
		}

	case StateLooting:
		if o.session == nil || o.session.LootStep() {
			o.closeSession()
			o.mark(StatusComplete, "looted")
			o.enter(StateExiting, obs, now)
		}

	case StateExiting:
		if o.leg == nil {
			o.enter(StateCooldown, obs, now)
			break
		}
		if status, _ := o.leg.tick(obs); status != legRunning {
			o.leg = nil
			o.enter(StateCooldown, obs, now)
		}

	case StateCooldown:
		if !now.Before(o.deadline) {
			return o.selectNext(obs, now)
		}

	case StateEmergencyAscend:
		minY, _ := o.world.Bounds()
		if obs.Position.Y() >= float64(minY)+o.cfg.VoidMargin+o.cfg.EmergencyClimb {
			input.ReleaseAll(o.keys)
			o.enter(StateResumingPosition, obs, now)
			break
		}
		input.Apply(o.keys, input.SetOf(input.KeyJump))

	case StateResumingPosition:
		if o.leg == nil {
			o.resume(obs, now)
			break
		}
		if status, _ := o.leg.tick(obs); status != legRunning {
			o.leg = nil
			o.resume(obs, now)
		}
	}
	return nil
}

func (o *Orchestrator) selectNext(obs nav.Observation, now time.Time) error {
	o.hasTarget = false
	o.hasContainer = false
	wp, ok := o.targets.SelectNext(o.alreadyComplete(obs), o.cfg.Wrap)
	if !ok {
		o.Stop("route complete")
		return nav.ErrRouteComplete
	}
	o.target = wp
	o.hasTarget = true
	o.key = KeyFor(o.dimension(obs), wp)
	o.recorded = false
	o.log.Debug("Run target selected", "target", wp.String(), "key", o.key.String())
	o.enter(StatePathingToTarget, obs, now)
	return nil
}

func (o *Orchestrator) alreadyComplete(obs nav.Observation) func(waypoint.Waypoint) bool {
	dim := o.dimension(obs)
	return func(wp waypoint.Waypoint) bool {
		status, err := o.ledger.Status(KeyFor(dim, wp))
		if err != nil {
			o.log.Warn("Ledger lookup failed", "target", wp.String(), "error", err)
			return false
		}
		return status == StatusComplete
	}
}

// enter switches state and starts whatever movement the new state needs.
func (o *Orchestrator) enter(s State, obs nav.Observation, now time.Time) {
	o.setState(s, now)
	switch s {
	case StatePathingToTarget:
		l, err := o.travelTo(o.targetGoal(obs), o.target, 0)
		if err != nil {
			// cool down before the next pick so a navigator that keeps
			// refusing cannot recurse through every target in one tick
			o.mark(StatusMissing, fmt.Sprintf("start travel: %v", err))
			o.enter(StateCooldown, obs, now)
			return
		}
		o.leg = l

	case StatePathingToContainer:
		l, err := o.travelTo(o.approach, waypoint.New(o.approach.X, o.approach.Y, o.approach.Z), o.cfg.ApproachRadius)
		if err != nil {
			o.giveUp(obs, now, fmt.Sprintf("start approach: %v", err))
			return
		}
		o.leg = l

	case StateOpeningContainer:
		if o.keys != nil {
			o.keys.SetYaw(nav.YawTo(obs.Position, o.container.Center()))
		}
		if o.session == nil {
			return
		}
		if !o.session.Open(o.container) {
			o.giveUp(obs, now, "open request refused")
			return
		}
		o.sessionOpen = true

	case StateExiting:
		o.planExit(obs)

	case StateCooldown:
		input.ReleaseAll(o.keys)
		o.deadline = now.Add(o.cfg.Cooldown)

	case StateResumingPosition:
		if !o.hasSafe || o.nav == nil {
			return
		}
		p := world.FloorPos(o.safePos)
		l, err := newFlightLeg(o.nav, waypoint.New(p.X, p.Y, p.Z), 0)
		if err != nil {
			o.log.Warn("Cannot return to pre-emergency position", "error", err)
			return
		}
		o.leg = l
	}
}

// travelTo starts a leg toward goal. radius only applies to flight; zero
// keeps the navigator's own arrival radius.
func (o *Orchestrator) travelTo(goal world.BlockPos, wp waypoint.Waypoint, radius float64) (leg, error) {
	if o.cfg.Travel == TravelWalk || (o.nav == nil && o.walker != nil) {
		return newWalkLeg(o.walker, o.keys, goal), nil
	}
	if o.nav == nil {
		return nil, ErrNoNavigator
	}
	l, err := newFlightLeg(o.nav, wp, radius)
	if err != nil {
		return nil, err
	}
	return l, nil
}

// targetGoal resolves the block a walking leg heads for.
func (o *Orchestrator) targetGoal(obs nav.Observation) world.BlockPos {
	if o.target.HasY {
		return world.BlockPos{X: o.target.X, Y: o.target.Y, Z: o.target.Z}
	}
	if o.world != nil {
		if y, ok := world.LandingY(o.world, o.target.X, o.target.Z); ok {
			return world.BlockPos{X: o.target.X, Y: y, Z: o.target.Z}
		}
	}
	return world.BlockPos{X: o.target.X, Y: world.FloorPos(obs.Position).Y, Z: o.target.Z}
}

func (o *Orchestrator) searchContainer(obs nav.Observation, now time.Time) {
	feet := world.FloorPos(obs.Position)
	c, ok := world.NearestContainer(o.world, feet, o.cfg.SearchRadius)
	if !ok {
		o.giveUp(obs, now, "no container in range")
		return
	}
	approach, ok := world.ApproachTile(o.world, c, obs.Position)
	if !ok {
		o.giveUp(obs, now, "container has no standable side")
		return
	}
	o.container = c
	o.hasContainer = true
	o.approach = approach
	o.log.Debug("Container found", "container", c, "approach", approach)
	o.enter(StatePathingToContainer, obs, now)
}

// planExit heads for the nearest tile with open sky so the next flight can take off.
func (o *Orchestrator) planExit(obs nav.Observation) {
	feet := world.FloorPos(obs.Position)
	if o.world == nil || world.SkyClear(o.world, feet.X, feet.Y, feet.Z) {
		return
	}
	tile, ok := world.NearestOpenSky(o.world, feet, o.cfg.ExitRadius)
	if !ok {
		o.log.Debug("No open sky near container, taking off in place")
		return
	}
	l, err := o.travelTo(tile, waypoint.New(tile.X, tile.Y, tile.Z), o.cfg.ApproachRadius)
	if err != nil {
		o.log.Debug("Exit travel unavailable", "error", err)
		return
	}
	o.leg = l
}

func (o *Orchestrator) timedOut(now time.Time) bool {
	switch o.state {
	case StateIdle, StateCooldown:
		return false
	}
	return o.cfg.StateTimeout > 0 && !o.deadline.IsZero() && now.After(o.deadline)
}

func (o *Orchestrator) timeout(obs nav.Observation, now time.Time) error {
	o.log.Info("Run state timed out", "state", o.state, "target", o.target.String())
	switch o.state {
	case StateExiting:
		o.stopLeg()
		o.enter(StateCooldown, obs, now)
	case StateEmergencyAscend, StateResumingPosition:
		o.stopLeg()
		input.ReleaseAll(o.keys)
		o.resume(obs, now)
	default:
		return o.giveUp(obs, now, fmt.Sprintf("%s timed out", o.state))
	}
	return nil
}

// giveUp marks the target missing. Failures on the way skip straight to the
// next target; failures at the target take off first.
func (o *Orchestrator) giveUp(obs nav.Observation, now time.Time, reason string) error {
	o.stopLeg()
	o.closeSession()
	o.mark(StatusMissing, reason)
	if o.state == StatePathingToTarget {
		return o.selectNext(obs, now)
	}
	o.enter(StateExiting, obs, now)
	return nil
}

func (o *Orchestrator) beginEmergency(obs nav.Observation, now time.Time) {
	if o.state != StateResumingPosition {
		o.interrupted = o.state
	}
	o.stopLeg()
	o.closeSession()
	if o.flight != nil {
		o.flight.SetFlying(true)
	}
	o.log.Warn("Falling toward the void, ascending", "y", obs.Position.Y(), "interrupted", o.interrupted)
	o.enter(StateEmergencyAscend, obs, now)
}

// resume re-enters the state the emergency interrupted, restarting its movement.
func (o *Orchestrator) resume(obs nav.Observation, now time.Time) {
	s := o.interrupted
	switch s {
	case StateOpeningContainer, StateLooting:
		s = StatePathingToContainer
	case StateEmergencyAscend, StateResumingPosition, "":
		s = StateIdle
	}
	if s == StateIdle && o.hasTarget {
		s = StatePathingToTarget
	}
	o.log.Debug("Resuming after emergency", "state", s)
	o.enter(s, obs, now)
}

func (o *Orchestrator) belowMargin(obs nav.Observation) bool {
	if o.world == nil {
		return false
	}
	minY, _ := o.world.Bounds()
	return obs.Position.Y() < float64(minY)+o.cfg.VoidMargin
}

func (o *Orchestrator) inDanger(obs nav.Observation) bool {
	return o.belowMargin(obs) && obs.Velocity.Y() < -o.cfg.FallSpeed
}

func (o *Orchestrator) mark(status Status, reason string) {
	if !o.hasTarget || o.recorded {
		return
	}
	o.recorded = true
	switch status {
	case StatusComplete:
		o.completed++
	case StatusMissing:
		o.missing++
	}
	if err := o.ledger.Mark(o.key, status); err != nil {
		o.log.Error("Ledger write failed", "key", o.key.String(), "error", err)
	}
	o.log.Info("Run target recorded", "key", o.key.String(), "status", status, "reason", reason)
	o.bus.Publish(event.EventRunTarget, event.RunTargetEvent{
		Dimension: o.key.Dimension,
		X:         o.key.X,
		Y:         o.key.Y,
		Z:         o.key.Z,
		Status:    string(status),
	})
}

func (o *Orchestrator) setState(s State, now time.Time) {
	prev := o.state
	o.state = s
	o.deadline = now.Add(o.cfg.StateTimeout)
	if prev == s {
		return
	}
	o.log.Debug("Run state", "from", prev, "to", s)
	o.bus.Publish(event.EventRunState, event.RunStateEvent{From: string(prev), To: string(s)})
}

func (o *Orchestrator) stopLeg() {
	if o.leg != nil {
		o.leg.stop()
		o.leg = nil
	}
}

func (o *Orchestrator) closeSession() {
	if o.sessionOpen && o.session != nil {
		o.session.Close()
	}
	o.sessionOpen = false
}

func (o *Orchestrator) dimension(obs nav.Observation) string {
	if obs.Dimension != "" {
		return obs.Dimension
	}
	if o.cfg.Dimension != "" {
		return o.cfg.Dimension
	}
	return world.DimensionOverworld
}

func (o *Orchestrator) publishStatus() {
	st := RunStatus{
		Enabled:      o.enabled,
		State:        o.state,
		Target:       o.target,
		HasTarget:    o.hasTarget,
		Container:    o.container,
		HasContainer: o.hasContainer,
		Completed:    o.completed,
		Missing:      o.missing,
	}
	o.statusMu.Lock()
	o.status = st
	o.statusMu.Unlock()
}
