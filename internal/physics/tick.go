package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Versifine/autofly/internal/input"
)

type State struct {
	Position mgl64.Vec3
	Velocity mgl64.Vec3
	OnGround bool
	Flying   bool
	// FlySpeed scales vertical flight; the navigator boosts it for vertical assist.
	FlySpeed float64
}

type Input struct {
	Keys input.Set
	Yaw  float32
}

func NewState(pos mgl64.Vec3, flying bool) State {
	return State{Position: pos, Flying: flying, FlySpeed: DefaultFlySpeed}
}

// Tick advances the player by one 50ms game tick.
func Tick(state *State, in Input, blockStore BlockStore) {
	if state == nil {
		return
	}
	if state.FlySpeed <= 0 {
		state.FlySpeed = DefaultFlySpeed
	}
	if state.Flying {
		flyTick(state, in, blockStore)
	} else {
		walkTick(state, in, blockStore)
	}
}

func flyTick(state *State, in Input, blockStore BlockStore) {
	move := desiredMoveVector(in)
	state.Velocity = state.Velocity.Add(move.Mul(FlyHorizontalAccel))

	vertical := state.FlySpeed * FlyVerticalFactor
	if in.Keys.Has(input.KeyJump) {
		state.Velocity[1] += vertical
	}
	if in.Keys.Has(input.KeySneak) {
		state.Velocity[1] -= vertical * FlySneakSpeedPenalty
	}

	state.Position, state.Velocity = ResolveMovement(state.Position, state.Velocity, blockStore)
	state.OnGround = isStandingOnSolidBlock(state.Position, blockStore)

	state.Velocity[0] *= FlyHorizontalDrag
	state.Velocity[2] *= FlyHorizontalDrag
	state.Velocity[1] *= FlyVerticalDrag
	zeroResidualVelocity(&state.Velocity)
}

func walkTick(state *State, in Input, blockStore BlockStore) {
	state.OnGround = isStandingOnSolidBlock(state.Position, blockStore)

	move := desiredMoveVector(in)
	friction := HorizontalDragBase
	if state.OnGround {
		friction *= DefaultGroundSlippery
	}
	accel := AirAcceleration
	if state.OnGround {
		accel = groundAcceleration(moveSpeed(in), friction)
	}
	state.Velocity = state.Velocity.Add(move.Mul(accel))

	if state.OnGround && in.Keys.Has(input.KeyJump) {
		state.Velocity[1] = JumpInitialVelocity
	}

	state.Position, state.Velocity = ResolveMovement(state.Position, state.Velocity, blockStore)
	state.OnGround = isStandingOnSolidBlock(state.Position, blockStore)

	state.Velocity[1] = (state.Velocity[1] - GravityAcceleration) * VerticalDrag
	state.Velocity[0] *= friction
	state.Velocity[2] *= friction
	zeroResidualVelocity(&state.Velocity)
}

// desiredMoveVector converts held movement keys and yaw into a horizontal unit
// direction. Yaw 0 faces +Z, yaw 90 faces -X.
func desiredMoveVector(in Input) mgl64.Vec3 {
	var forward, strafe float64
	if in.Keys.Has(input.KeyForward) {
		forward++
	}
	if in.Keys.Has(input.KeyBack) {
		forward--
	}
	if in.Keys.Has(input.KeyLeft) {
		strafe++
	}
	if in.Keys.Has(input.KeyRight) {
		strafe--
	}

	length := math.Sqrt(forward*forward + strafe*strafe)
	if length > 1 {
		forward /= length
		strafe /= length
	}

	yawRad := float64(in.Yaw) * math.Pi / 180.0
	return mgl64.Vec3{
		forward*(-math.Sin(yawRad)) + strafe*math.Cos(yawRad),
		0,
		forward*math.Cos(yawRad) + strafe*math.Sin(yawRad),
	}
}

func moveSpeed(in Input) float64 {
	if in.Keys.Has(input.KeySneak) {
		return WalkBaseSpeed * SneakSpeedMultiplier
	}
	return WalkBaseSpeed
}

func groundAcceleration(speed, friction float64) float64 {
	if friction < CollisionAxisTolerance {
		return speed
	}
	return speed * (GroundAccelerationFactor / (friction * friction * friction))
}

func zeroResidualVelocity(v *mgl64.Vec3) {
	if math.Abs(v[0]) < MinimumResidualHorizontalSpeed {
		v[0] = 0
	}
	if math.Abs(v[2]) < MinimumResidualHorizontalSpeed {
		v[2] = 0
	}
	if math.Abs(v[1]) < MinimumResidualVerticalSpeed {
		v[1] = 0
	}
}

func isStandingOnSolidBlock(pos mgl64.Vec3, blockStore BlockStore) bool {
	if blockStore == nil {
		return false
	}
	probe := PlayerAABB(pos).Offset(mgl64.Vec3{0, -GroundProbeDistance, 0})
	return CollidesWithBlock(probe, blockStore)
}
