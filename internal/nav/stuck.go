package nav

import (
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Versifine/autofly/internal/event"
	"github.com/Versifine/autofly/internal/input"
	"github.com/Versifine/autofly/internal/world"
)

type stuckTracker struct {
	started    bool
	bestDist   float64
	progressAt time.Time
	movePos    mgl64.Vec3
	moveAt     time.Time
	horizPos   mgl64.Vec3
	horizAt    time.Time

	repathed     bool
	lastRepathAt time.Time
	repathCount  int
}

func (s *stuckTracker) reset(pos mgl64.Vec3, now time.Time, dist float64) {
	s.started = true
	s.bestDist = dist
	s.progressAt = now
	s.movePos = pos
	s.moveAt = now
	s.horizPos = pos
	s.horizAt = now
}

// observe records the sample and returns how long the player has gone
// without getting closer while also not moving.
func (s *stuckTracker) observe(pos mgl64.Vec3, dist float64, now time.Time, cfg Config) time.Duration {
	if !s.started {
		s.reset(pos, now, dist)
		return 0
	}
	if dist < s.bestDist-cfg.StuckProgress {
		s.bestDist = dist
		s.progressAt = now
	}
	if pos.Sub(s.movePos).Len() > cfg.StuckMove {
		s.movePos = pos
		s.moveAt = now
	}
	if world.HorizontalDist(pos, s.horizPos) > cfg.StuckHoriz {
		s.horizPos = pos
		s.horizAt = now
	}
	still := now.Sub(s.moveAt)
	if h := now.Sub(s.horizAt); h > still {
		still = h
	}
	if p := now.Sub(s.progressAt); p < still {
		return p
	}
	return still
}

func (n *Navigator) checkStuck(obs Observation, now time.Time, d steerState) {
	stalled := n.stuck.observe(obs.Position, d.distHoriz, now, n.cfg)
	if stalled < n.cfg.StuckStall {
		return
	}
	if n.stuck.repathed && now.Sub(n.stuck.lastRepathAt) < n.cfg.RepathCooldown {
		return
	}
	if d.distHoriz <= stuckMinDistance(n.radius()) {
		return
	}
	n.log.Debug("Stuck detected", "stalled", stalled, "dist", d.distHoriz)
	n.escalate(obs, now, "stalled")
}

// escalate tries a short forced climb when the sky is open, otherwise hands
// off to the pathfinder with a nearby open-sky goal.
func (n *Navigator) escalate(obs Observation, now time.Time, reason string) {
	n.stuck.repathed = true
	n.stuck.lastRepathAt = now
	n.stuck.repathCount++
	n.stuck.reset(obs.Position, now, n.target.HorizontalDist(obs.Position))

	feet := world.FloorPos(obs.Position)
	canClimb := !n.climbed || now.Sub(n.lastClimbAt) >= n.cfg.ClimbRetry
	if canClimb && n.world != nil && world.SkyClear(n.world, feet.X, feet.Y+2, feet.Z) {
		n.climbed = true
		n.lastClimbAt = now
		n.vertical = VerticalNone
		input.Apply(n.keys, input.SetOf(input.KeyJump))
		n.setMode(&climbMode{until: now.Add(n.cfg.ClimbWindow), targetY: obs.Position.Y() + n.cfg.ClimbHeight})
		n.bus.Publish(event.EventNavRecovery, event.RecoveryEvent{Phase: event.RecoveryClimb, Reason: reason})
		return
	}

	if n.finder == nil || n.world == nil {
		n.log.Debug("Stuck with no pathfinder available", "reason", reason)
		return
	}
	goal, ok := n.recoveryGoal(obs)
	if !ok {
		n.failures++
		n.log.Debug("No recovery goal found", "reason", reason, "radius", n.cfg.RecoveryRadius)
		n.bus.Publish(event.EventNavRecovery, event.RecoveryEvent{Phase: event.RecoveryFailed, Reason: "no goal"})
		return
	}
	search := n.finder.BeginSearch(feet, goal)
	if search == nil {
		return
	}
	input.ReleaseAll(n.keys)
	n.setMode(&recoveryMode{search: search, goal: goal})
	n.log.Debug("Recovery search started", "from", feet, "goal", goal, "attempt", n.stuck.repathCount)
	n.bus.Publish(event.EventNavRecovery, event.RecoveryEvent{
		Phase:  event.RecoveryPathfind,
		Reason: reason,
		GoalX:  goal.X,
		GoalY:  goal.Y,
		GoalZ:  goal.Z,
	})
}

// recoveryGoal looks for a standable open-sky tile toward the target, then to
// either side of where the player faces, then anywhere nearby.
func (n *Navigator) recoveryGoal(obs Observation) (world.BlockPos, bool) {
	from := world.FloorPos(obs.Position)
	radius := n.cfg.RecoveryRadius
	center := n.target.Center()

	ahead := mgl64.Vec2{center.X() - obs.Position.X(), center.Z() - obs.Position.Z()}
	if ahead.Len() > 1e-6 {
		if pos, ok := n.openSkyAlong(from, obs.Position, ahead.Normalize(), radius); ok {
			return pos, true
		}
	}

	yaw := mgl64.DegToRad(float64(obs.Yaw))
	left := mgl64.Vec2{math.Cos(yaw), math.Sin(yaw)}
	for _, dir := range []mgl64.Vec2{left, left.Mul(-1)} {
		if pos, ok := n.openSkyAlong(from, obs.Position, dir, radius); ok {
			return pos, true
		}
	}

	return world.NearestOpenSky(n.world, from, radius)
}

func (n *Navigator) openSkyAlong(from world.BlockPos, origin mgl64.Vec3, dir mgl64.Vec2, maxDist int) (world.BlockPos, bool) {
	for d := maxDist; d >= 2; d-- {
		x := int(math.Floor(origin.X() + dir.X()*float64(d)))
		z := int(math.Floor(origin.Z() + dir.Y()*float64(d)))
		if pos, ok := world.OpenSkyTile(n.world, x, from.Y, z); ok {
			return pos, true
		}
	}
	return world.BlockPos{}, false
}

// recover drives an active recovery. It reports false when control should
// fall through to normal steering this tick.
func (n *Navigator) recover(m *recoveryMode, obs Observation, now time.Time) (Result, bool) {
	if m.exec == nil {
		m.search.Think()
		switch {
		case m.search.Failed():
			n.endRecovery(m, obs, now, false, "search failed")
			return Result{}, false
		case m.search.Done():
			m.exec = m.search.Executor()
			if m.exec == nil {
				n.endRecovery(m, obs, now, false, "no executor")
				return Result{}, false
			}
			m.exec.LockControls(n.keys)
			n.log.Debug("Recovery path found", "nodes", len(m.exec.Path()))
		default:
			return n.active(), true
		}
	}

	m.exec.Process(obs)
	switch {
	case m.exec.Failed():
		n.endRecovery(m, obs, now, false, "executor failed")
		return Result{}, false
	case m.exec.Done():
		n.endRecovery(m, obs, now, true, "")
		return Result{}, false
	}
	return n.active(), true
}

func (n *Navigator) endRecovery(m *recoveryMode, obs Observation, now time.Time, ok bool, reason string) {
	if m.exec != nil {
		m.exec.ReleaseControls()
	}
	input.ReleaseAll(n.keys)
	n.vertical = VerticalNone
	n.stuck.reset(obs.Position, now, n.target.HorizontalDist(obs.Position))
	n.setMode(steeringMode{})
	if ok {
		n.log.Debug("Recovery finished", "goal", m.goal)
		n.bus.Publish(event.EventNavRecovery, event.RecoveryEvent{Phase: event.RecoveryFinished, GoalX: m.goal.X, GoalY: m.goal.Y, GoalZ: m.goal.Z})
		return
	}
	n.failures++
	n.log.Debug("Recovery failed", "reason", reason, "failures", n.failures)
	n.bus.Publish(event.EventNavRecovery, event.RecoveryEvent{Phase: event.RecoveryFailed, Reason: reason, GoalX: m.goal.X, GoalY: m.goal.Y, GoalZ: m.goal.Z})
}
