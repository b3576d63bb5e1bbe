package run

import (
	"errors"

	"github.com/Versifine/autofly/internal/input"
	"github.com/Versifine/autofly/internal/nav"
	"github.com/Versifine/autofly/internal/waypoint"
	"github.com/Versifine/autofly/internal/world"
)

type Travel string

const (
	TravelFlight Travel = "flight"
	TravelWalk   Travel = "walk"
)

var (
	errUnreachable = errors.New("target unreachable")
	errNoPath      = errors.New("path not found")
)

// Navigator is the slice of *nav.Navigator the orchestrator drives.
type Navigator interface {
	SetTarget(wp waypoint.Waypoint)
	SetTargetWithin(wp waypoint.Waypoint, radius float64)
	Enable() error
	Disable(reason string)
	Tick(obs nav.Observation) nav.Result
}

type legStatus int

const (
	legRunning legStatus = iota
	legArrived
	legFailed
)

// leg is one movement engagement toward a goal.
type leg interface {
	tick(obs nav.Observation) (legStatus, error)
	stop()
}

// flightLeg hands a single waypoint to the flight navigator. A positive
// radius makes the navigator settle on the tile instead of its usual radius.
type flightLeg struct {
	nav     Navigator
	started bool
}

func newFlightLeg(n Navigator, wp waypoint.Waypoint, radius float64) (*flightLeg, error) {
	if radius > 0 {
		n.SetTargetWithin(wp, radius)
	} else {
		n.SetTarget(wp)
	}
	if err := n.Enable(); err != nil {
		return nil, err
	}
	return &flightLeg{nav: n, started: true}, nil
}

func (l *flightLeg) tick(obs nav.Observation) (legStatus, error) {
	res := l.nav.Tick(obs)
	switch res.Outcome {
	case nav.OutcomeArrived:
		l.stop()
		return legArrived, nil
	case nav.OutcomeDisabled:
		l.started = false
		if res.Err == nil {
			return legFailed, errUnreachable
		}
		return legFailed, res.Err
	default:
		return legRunning, nil
	}
}

func (l *flightLeg) stop() {
	if l.started {
		l.nav.Disable("run leg finished")
		l.started = false
	}
}

const (
	walkNearDist     = 0.9
	maxPartialStalls = 3
)

// walkLeg follows pathfinder paths to a block goal, replanning from partial
// path ends until progress stalls.
type walkLeg struct {
	finder nav.Pathfinder
	keys   input.Actuator
	goal   world.BlockPos

	search nav.Search
	exec   nav.Executor

	hasPartialEnd bool
	partialEnd    world.BlockPos
	partialStalls int
}

func newWalkLeg(finder nav.Pathfinder, keys input.Actuator, goal world.BlockPos) *walkLeg {
	return &walkLeg{finder: finder, keys: keys, goal: goal}
}

func (l *walkLeg) tick(obs nav.Observation) (legStatus, error) {
	if world.HorizontalDist(obs.Position, l.goal.Center()) < walkNearDist &&
		absf(obs.Position.Y()-float64(l.goal.Y)) < 1.5 {
		l.stop()
		return legArrived, nil
	}

	if l.search == nil {
		l.search = l.finder.BeginSearch(world.FloorPos(obs.Position), l.goal)
	}
	if l.exec == nil {
		l.search.Think()
		switch {
		case l.search.Failed():
			l.stop()
			return legFailed, errNoPath
		case !l.search.Done():
			return legRunning, nil
		}
		l.exec = l.search.Executor()
		if l.exec == nil {
			l.stop()
			return legFailed, errNoPath
		}
		if l.recordPartial(l.exec.Path()) {
			l.stop()
			return legFailed, errUnreachable
		}
		l.exec.LockControls(l.keys)
	}

	l.exec.Process(obs)
	switch {
	case l.exec.Failed():
		// executor stalled; replan from where we are
		l.dropPath()
	case l.exec.Done():
		l.dropPath()
	}
	return legRunning, nil
}

// recordPartial reports whether successive paths stopped getting closer.
func (l *walkLeg) recordPartial(path []world.BlockPos) bool {
	if len(path) == 0 {
		return true
	}
	end := path[len(path)-1]
	if end == l.goal {
		l.hasPartialEnd = false
		l.partialStalls = 0
		return false
	}
	if !l.hasPartialEnd {
		l.hasPartialEnd = true
		l.partialEnd = end
		return false
	}
	prev := l.partialEnd
	l.partialEnd = end
	if end == prev || manhattan(end, l.goal) >= manhattan(prev, l.goal) {
		l.partialStalls++
	} else {
		l.partialStalls = 0
	}
	return l.partialStalls >= maxPartialStalls
}

func (l *walkLeg) dropPath() {
	if l.exec != nil {
		l.exec.ReleaseControls()
	}
	l.exec = nil
	l.search = nil
}

func (l *walkLeg) stop() {
	l.dropPath()
	input.ReleaseAll(l.keys)
}

func manhattan(a, b world.BlockPos) int {
	return absi(a.X-b.X) + absi(a.Y-b.Y) + absi(a.Z-b.Z)
}

func absi(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
