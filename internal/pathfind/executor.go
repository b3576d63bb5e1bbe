package pathfind

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Versifine/autofly/internal/input"
	"github.com/Versifine/autofly/internal/nav"
	"github.com/Versifine/autofly/internal/world"
)

const (
	nodeReachHoriz = 0.5
	nodeReachVert  = 1.0
	stopNearDist   = 0.2
	stillEpsilon   = 0.05
)

// Executor walks (or hovers) along a block path by driving movement keys.
type Executor struct {
	path       []world.BlockPos
	idx        int
	keys       input.Actuator
	stallTicks int
	still      int
	lastPos    mgl64.Vec3
	hasLast    bool
	done       bool
	failed     bool
}

func NewExecutor(path []world.BlockPos, stallTicks int) *Executor {
	e := &Executor{path: append([]world.BlockPos(nil), path...), stallTicks: stallTicks}
	if len(e.path) > 1 {
		e.idx = 1
	}
	return e
}

func (e *Executor) LockControls(keys input.Actuator) {
	e.keys = keys
}

func (e *Executor) ReleaseControls() {
	if e.keys != nil {
		input.ReleaseAll(e.keys)
	}
	e.keys = nil
}

func (e *Executor) Done() bool   { return e.done }
func (e *Executor) Failed() bool { return e.failed }

func (e *Executor) Path() []world.BlockPos {
	return append([]world.BlockPos(nil), e.path...)
}

// Index is the path node currently being approached.
func (e *Executor) Index() int { return e.idx }

func (e *Executor) Process(obs nav.Observation) {
	if e.done || e.failed || e.keys == nil {
		return
	}
	pos := obs.Position

	for e.idx < len(e.path) && reachedNode(pos, e.path[e.idx]) {
		e.idx++
	}
	if e.idx >= len(e.path) {
		e.done = true
		input.ReleaseAll(e.keys)
		return
	}

	if e.hasLast && pos.Sub(e.lastPos).Len() < stillEpsilon {
		e.still++
	} else {
		e.still = 0
	}
	e.lastPos = pos
	e.hasLast = true
	if e.stallTicks > 0 && e.still >= e.stallTicks {
		e.failed = true
		input.ReleaseAll(e.keys)
		return
	}

	next := e.path[e.idx]
	center := next.Center()
	horiz := world.HorizontalDist(pos, center)
	dy := float64(next.Y) - pos.Y()

	var keys input.Set
	if horiz > stopNearDist {
		keys = keys.With(input.KeyForward)
	}
	switch {
	case dy > 0.5:
		keys = keys.With(input.KeyJump)
	case dy < -0.5 && !obs.OnGround && horiz < nodeReachHoriz:
		// hovering above a lower node while flying
		keys = keys.With(input.KeySneak)
	}
	e.keys.SetYaw(nav.YawTo(pos, center))
	input.Apply(e.keys, keys)
}

func reachedNode(pos mgl64.Vec3, node world.BlockPos) bool {
	return world.HorizontalDist(pos, node.Center()) < nodeReachHoriz &&
		math.Abs(pos.Y()-float64(node.Y)) < nodeReachVert
}
