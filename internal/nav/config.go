package nav

import (
	"math"
	"time"
)

type Config struct {
	Radius         float64
	CruiseHeight   float64
	VerticalAssist bool
	SkipReached    bool
	Wrap           bool
	// FlightOffOnArrival turns host flight off after each arrival.
	FlightOffOnArrival bool
	DisableOnArrival   bool

	ArrivalPause time.Duration

	ManualMoveThreshold float64
	ManualIdleResume    time.Duration
	ManualMaxHold       time.Duration

	LatchBand        float64
	VerticalStart    float64
	VerticalStop     float64
	NoForwardRadius  float64
	LandingRadius    float64
	LandingTolerance float64
	CruiseMargin     float64
	// LandingTimeout bounds how long a target without Y may sit unresolved
	// once the player is over it.
	LandingTimeout time.Duration
	// SettleSpeed is the horizontal speed, in blocks per tick, below which a
	// SetTargetWithin target counts as reached.
	SettleSpeed float64

	AssistStall time.Duration
	AssistBoost float64

	StuckProgress  float64
	StuckMove      float64
	StuckHoriz     float64
	StuckStall     time.Duration
	RepathCooldown time.Duration

	ClimbWindow time.Duration
	ClimbHeight float64
	ClimbRetry  time.Duration

	RecoveryRadius int
}

func DefaultConfig() Config {
	return Config{
		Radius:              4,
		CruiseHeight:        120,
		VerticalAssist:      true,
		SkipReached:         true,
		ArrivalPause:        600 * time.Millisecond,
		ManualMoveThreshold: 1.0,
		ManualIdleResume:    time.Second,
		ManualMaxHold:       3 * time.Second,
		LatchBand:           3,
		VerticalStart:       1.5,
		VerticalStop:        0.6,
		NoForwardRadius:     1.0,
		LandingRadius:       1.5,
		LandingTolerance:    0.7,
		CruiseMargin:        2,
		LandingTimeout:      3 * time.Second,
		SettleSpeed:         0.05,
		AssistStall:         1500 * time.Millisecond,
		AssistBoost:         2.5,
		StuckProgress:       0.2,
		StuckMove:           0.15,
		StuckHoriz:          0.1,
		StuckStall:          2 * time.Second,
		RepathCooldown:      time.Second,
		ClimbWindow:         1500 * time.Millisecond,
		ClimbHeight:         6,
		ClimbRetry:          8 * time.Second,
		RecoveryRadius:      12,
	}
}

// DescentStartRadius is how far out an explicit target Y replaces cruise height.
func (c Config) DescentStartRadius() float64 {
	return math.Max(20, math.Max(2*c.Radius, c.Radius+6))
}

// stuckMinDistance is the distance inside which stalls are not treated as stuck.
func stuckMinDistance(radius float64) float64 {
	return math.Max(2, radius)
}
