package nav

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/Versifine/autofly/internal/input"
	"github.com/Versifine/autofly/internal/waypoint"
	"github.com/Versifine/autofly/internal/world"
)

// Status is a read-only copy of navigator state for overlays and traces.
type Status struct {
	Enabled   bool
	Mode      ModeKind
	Vertical  VerticalMode
	Latched   bool
	Target    waypoint.Waypoint
	HasTarget bool

	Position    mgl64.Vec3
	Goal        mgl64.Vec3
	DistHoriz   float64
	DesiredY    float64
	HasDesiredY bool
	LandingY    int
	HasLandingY bool
	Keys        input.Set

	AssistActive     bool
	RecoveryGoal     world.BlockPos
	RecoveryPath     []world.BlockPos
	Repaths          int
	RecoveryFailures int
}

// Snapshot may be called from another goroutine than Tick.
func (n *Navigator) Snapshot() Status {
	n.statusMu.RLock()
	defer n.statusMu.RUnlock()
	st := n.status
	st.RecoveryPath = append([]world.BlockPos(nil), n.status.RecoveryPath...)
	return st
}

func (n *Navigator) publishStatus(obs Observation) {
	st := Status{
		Enabled:          n.enabled,
		Mode:             n.mode.Kind(),
		Vertical:         n.vertical,
		Latched:          n.close.on,
		Target:           n.target,
		HasTarget:        n.hasTarget,
		Position:         obs.Position,
		Goal:             n.lastSteer.goal,
		DistHoriz:        n.lastSteer.distHoriz,
		DesiredY:         n.lastSteer.desiredY,
		HasDesiredY:      n.lastSteer.hasDesired,
		LandingY:         n.landingY,
		HasLandingY:      n.landingOK,
		Keys:             n.keys.Held(),
		AssistActive:     n.assist.active,
		Repaths:          n.stuck.repathCount,
		RecoveryFailures: n.failures,
	}
	if m, ok := n.mode.(*recoveryMode); ok {
		st.RecoveryGoal = m.goal
		if m.exec != nil {
			st.RecoveryPath = m.exec.Path()
		}
	}
	n.statusMu.Lock()
	n.status = st
	n.statusMu.Unlock()
}
