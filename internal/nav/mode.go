package nav

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Versifine/autofly/internal/world"
)

type ModeKind int

const (
	ModeSteering ModeKind = iota
	ModeManual
	ModePause
	ModeRecovery
	ModeClimb
)

func (k ModeKind) String() string {
	switch k {
	case ModeSteering:
		return "steering"
	case ModeManual:
		return "manual_adjust"
	case ModePause:
		return "arrival_pause"
	case ModeRecovery:
		return "stuck_recovery"
	case ModeClimb:
		return "climb_assist"
	default:
		return "unknown"
	}
}

// Mode is the single operating mode the navigator is in. Only one value is
// held at a time, so manual hand-off, arrival pause and recovery never overlap.
type Mode interface {
	Kind() ModeKind
}

type steeringMode struct{}

type manualMode struct {
	start     time.Time
	startPos  mgl64.Vec3
	lastInput time.Time
}

type pauseMode struct {
	until time.Time
	// advanced is set once the next waypoint has been picked.
	advanced bool
}

type recoveryMode struct {
	search Search
	exec   Executor
	goal   world.BlockPos
}

type climbMode struct {
	until   time.Time
	targetY float64
}

func (steeringMode) Kind() ModeKind  { return ModeSteering }
func (*manualMode) Kind() ModeKind   { return ModeManual }
func (*pauseMode) Kind() ModeKind    { return ModePause }
func (*recoveryMode) Kind() ModeKind { return ModeRecovery }
func (*climbMode) Kind() ModeKind    { return ModeClimb }

type VerticalMode int

const (
	VerticalNone VerticalMode = iota
	VerticalAscend
	VerticalDescend
)

func (v VerticalMode) String() string {
	switch v {
	case VerticalAscend:
		return "ascend"
	case VerticalDescend:
		return "descend"
	default:
		return "none"
	}
}

// nextVertical applies the start/stop hysteresis to yDiff = desiredY - y.
func nextVertical(cur VerticalMode, yDiff, start, stop float64) VerticalMode {
	switch cur {
	case VerticalAscend:
		if yDiff < stop {
			return VerticalNone
		}
		return VerticalAscend
	case VerticalDescend:
		if yDiff > -stop {
			return VerticalNone
		}
		return VerticalDescend
	}
	if yDiff > start {
		return VerticalAscend
	}
	if yDiff < -start {
		return VerticalDescend
	}
	return VerticalNone
}

// latch is the close-range flag: set within radius, cleared only beyond radius+band.
type latch struct {
	on bool
}

func (l *latch) update(dist, radius, band float64) bool {
	if l.on {
		if dist > radius+band {
			l.on = false
		}
	} else if dist <= radius {
		l.on = true
	}
	return l.on
}
