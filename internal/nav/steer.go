package nav

import (
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Versifine/autofly/internal/input"
	"github.com/Versifine/autofly/internal/world"
)

type steerState struct {
	noLanding  bool
	distHoriz  float64
	desiredY   float64
	hasDesired bool
	goal       mgl64.Vec3
	keys       input.Set
}

type assistState struct {
	stalling  bool
	since     time.Time
	active    bool
	savedRate float64
}

func (n *Navigator) steer(obs Observation, now time.Time) steerState {
	pos := obs.Position
	center := n.target.Center()
	d := steerState{distHoriz: n.target.HorizontalDist(pos)}
	latched := n.close.update(d.distHoriz, n.radius(), n.cfg.LatchBand)

	n.resolveLanding()
	if latched && n.landingExpired(now) {
		input.ReleaseAll(n.keys)
		d.noLanding = true
		n.lastSteer = d
		return d
	}
	d.desiredY, d.hasDesired = n.desiredY(d.distHoriz, latched)

	var keys input.Set
	yDiff := 0.0
	if d.hasDesired {
		yDiff = d.desiredY - pos.Y()
		n.vertical = nextVertical(n.vertical, yDiff, n.cfg.VerticalStart, n.cfg.VerticalStop)
	} else {
		n.vertical = VerticalNone
	}
	switch n.vertical {
	case VerticalAscend:
		keys = keys.With(input.KeyJump)
	case VerticalDescend:
		keys = keys.With(input.KeySneak)
	}

	n.keys.SetYaw(YawTo(pos, center))
	if d.distHoriz > n.noForwardRadius() {
		keys = keys.With(input.KeyForward)
	}

	keys = n.applyAssist(keys, yDiff, d.hasDesired && latched, now)

	if d.distHoriz <= n.cfg.LandingRadius {
		keys = keys.Without(input.KeyJump).With(input.KeySneak)
	}

	input.Apply(n.keys, keys)

	d.keys = keys
	d.goal = mgl64.Vec3{center.X(), pos.Y(), center.Z()}
	if d.hasDesired {
		d.goal[1] = d.desiredY
	}
	n.lastSteer = d
	return d
}

// desiredY picks the altitude to hold: the known target Y once inside the
// descent radius, otherwise cruise height raised above the target.
func (n *Navigator) desiredY(dist float64, latched bool) (float64, bool) {
	knownY, hasKnown := n.knownY()
	if hasKnown && (dist <= n.cfg.DescentStartRadius() || latched) {
		return knownY, true
	}
	if !hasKnown && latched {
		return 0, false
	}
	if n.cfg.CruiseHeight <= 0 {
		return 0, false
	}
	cruise := n.cfg.CruiseHeight
	if n.world != nil {
		minY, maxY := n.world.Bounds()
		cruise = math.Max(float64(minY+1), math.Min(cruise, float64(maxY-2)))
	}
	if hasKnown {
		cruise = math.Max(cruise, knownY+n.cfg.CruiseMargin)
	}
	return cruise, true
}

func (n *Navigator) knownY() (float64, bool) {
	if n.target.HasY {
		return float64(n.target.Y), true
	}
	if n.landingOK {
		return float64(n.landingY), true
	}
	return 0, false
}

// resolveLanding caches the landing Y of a target without one. Columns that
// are not loaded yet are retried on later ticks.
func (n *Navigator) resolveLanding() {
	if n.target.HasY || n.landingOK || n.world == nil {
		return
	}
	if y, ok := world.LandingY(n.world, n.target.X, n.target.Z); ok {
		n.landingY = y
		n.landingOK = true
		n.log.Debug("Resolved landing Y", "target", n.target.String(), "y", y)
	}
}

// landingExpired reports whether the player has hovered over a target without
// Y for LandingTimeout while its column still has no landing spot.
func (n *Navigator) landingExpired(now time.Time) bool {
	if n.target.HasY || n.landingOK || n.cfg.LandingTimeout <= 0 {
		return false
	}
	if n.landingWait.IsZero() {
		n.landingWait = now
		return false
	}
	return now.Sub(n.landingWait) >= n.cfg.LandingTimeout
}

// applyAssist boosts the host ascent rate when the player hovers short of the
// desired Y near the target for too long.
func (n *Navigator) applyAssist(keys input.Set, yDiff float64, near bool, now time.Time) input.Set {
	need := n.cfg.VerticalAssist && n.flight != nil && near && math.Abs(yDiff) > n.cfg.VerticalStop
	if !need {
		n.endAssist()
		return keys
	}
	if !n.assist.stalling {
		n.assist.stalling = true
		n.assist.since = now
		return keys
	}
	if now.Sub(n.assist.since) < n.cfg.AssistStall {
		return keys
	}
	if !n.assist.active {
		n.assist.active = true
		n.assist.savedRate = n.flight.AscentRate()
		n.flight.SetAscentRate(n.assist.savedRate * n.cfg.AssistBoost)
		n.log.Debug("Vertical assist engaged", "y_diff", yDiff)
	}
	if yDiff > 0 {
		return keys.Without(input.KeySneak).With(input.KeyJump)
	}
	return keys.Without(input.KeyJump).With(input.KeySneak)
}

func (n *Navigator) endAssist() {
	n.assist.stalling = false
	if !n.assist.active {
		return
	}
	n.assist.active = false
	if n.flight != nil {
		n.flight.SetAscentRate(n.assist.savedRate)
	}
}

func (n *Navigator) reached(obs Observation, d steerState) bool {
	if d.distHoriz > n.radius() {
		return false
	}
	if n.arriveRadius > 0 {
		return n.settled(obs)
	}
	if n.target.HasY || obs.OnGround {
		return true
	}
	return n.landingOK && math.Abs(obs.Position.Y()-float64(n.landingY)) <= n.cfg.LandingTolerance
}

// settled is the arrival test for SetTargetWithin targets: the player has
// nearly stopped and its feet are level with the target.
func (n *Navigator) settled(obs Observation) bool {
	v := obs.Velocity
	if math.Hypot(v.X(), v.Z()) > n.cfg.SettleSpeed {
		return false
	}
	y, ok := n.knownY()
	if !ok {
		return obs.OnGround
	}
	return math.Abs(obs.Position.Y()-y) <= n.cfg.VerticalStart
}

func (n *Navigator) noForwardRadius() float64 {
	if n.arriveRadius > 0 {
		return math.Min(n.cfg.NoForwardRadius, n.arriveRadius/2)
	}
	return n.cfg.NoForwardRadius
}

// radius is the arrival radius of the current target.
func (n *Navigator) radius() float64 {
	if n.arriveRadius > 0 {
		return n.arriveRadius
	}
	return n.cfg.Radius
}

// YawTo returns the yaw in degrees that faces from toward to. Yaw 0 faces +Z.
func YawTo(from, to mgl64.Vec3) float32 {
	dx := to.X() - from.X()
	dz := to.Z() - from.Z()
	return float32(mgl64.RadToDeg(math.Atan2(-dx, dz)))
}
