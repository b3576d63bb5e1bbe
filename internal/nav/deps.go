package nav

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Versifine/autofly/internal/event"
	"github.com/Versifine/autofly/internal/input"
	"github.com/Versifine/autofly/internal/waypoint"
	"github.com/Versifine/autofly/internal/world"
)

var (
	// ErrNoWaypoints means there is nothing left to fly to.
	ErrNoWaypoints = errors.New("no waypoints loaded")
	// ErrRouteComplete means every loaded waypoint was visited or skipped.
	ErrRouteComplete = fmt.Errorf("waypoint route complete: %w", ErrNoWaypoints)
	// ErrHostUnavailable means the player or world went away mid-flight.
	ErrHostUnavailable = errors.New("host state unavailable")
	// ErrNoLanding means a target without Y has no standable floor in its column.
	ErrNoLanding = errors.New("target column has no landing spot")
)

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Pathfinder starts block-level searches used to route around obstacles.
type Pathfinder interface {
	BeginSearch(from, goal world.BlockPos) Search
}

// Search is an incremental path search. Think does a bounded amount of work.
type Search interface {
	Think()
	Done() bool
	Failed() bool
	Executor() Executor
}

// Executor follows a found path by driving keys.
type Executor interface {
	LockControls(keys input.Actuator)
	Process(obs Observation)
	Done() bool
	Failed() bool
	ReleaseControls()
	Path() []world.BlockPos
}

// FlightControl tunes the host's flight simulation.
type FlightControl interface {
	AscentRate() float64
	SetAscentRate(rate float64)
	SetFlying(on bool)
}

// Targets supplies waypoints; *waypoint.Store satisfies it.
type Targets interface {
	Len() int
	Current() (waypoint.Waypoint, bool)
	SelectNext(skip func(waypoint.Waypoint) bool, wrap bool) (waypoint.Waypoint, bool)
}

type Deps struct {
	World      world.Query
	Keys       input.Actuator
	Clock      Clock
	Pathfinder Pathfinder
	Flight     FlightControl
	Targets    Targets
	Bus        *event.Bus
	Logger     *slog.Logger
}

// Observation is what the host reports about the player each tick.
type Observation struct {
	// Present is false once the player or world reference is gone.
	Present  bool
	Position mgl64.Vec3
	Velocity mgl64.Vec3
	Yaw      float32
	OnGround bool
	// Pressed holds the movement keys physically down on the host. Keys the
	// navigator itself holds are ignored when looking for manual input.
	Pressed   input.Set
	Dimension string
}

type Outcome int

const (
	OutcomeIdle Outcome = iota
	OutcomeActive
	OutcomeArrived
	OutcomeDisabled
)

func (o Outcome) String() string {
	switch o {
	case OutcomeIdle:
		return "idle"
	case OutcomeActive:
		return "active"
	case OutcomeArrived:
		return "arrived"
	case OutcomeDisabled:
		return "disabled"
	default:
		return "unknown"
	}
}

// Result describes what one Tick did.
type Result struct {
	Outcome Outcome
	Mode    ModeKind
	Err     error
}
