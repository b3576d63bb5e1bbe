package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

type BlockStore interface {
	IsSolid(x, y, z int) bool
}

type AABB struct {
	Min mgl64.Vec3
	Max mgl64.Vec3
}

func PlayerAABB(pos mgl64.Vec3) AABB {
	return AABB{
		Min: mgl64.Vec3{pos.X() - PlayerHalfWidth, pos.Y(), pos.Z() - PlayerHalfWidth},
		Max: mgl64.Vec3{pos.X() + PlayerHalfWidth, pos.Y() + PlayerHeight, pos.Z() + PlayerHalfWidth},
	}
}

func (a AABB) Offset(d mgl64.Vec3) AABB {
	return AABB{Min: a.Min.Add(d), Max: a.Max.Add(d)}
}

func CollidesWithBlock(box AABB, blockStore BlockStore) bool {
	if blockStore == nil {
		return false
	}
	for y := floorForMin(box.Min.Y()); y <= floorForMax(box.Max.Y()); y++ {
		for x := floorForMin(box.Min.X()); x <= floorForMax(box.Max.X()); x++ {
			for z := floorForMin(box.Min.Z()); z <= floorForMax(box.Max.Z()); z++ {
				if blockStore.IsSolid(x, y, z) {
					return true
				}
			}
		}
	}
	return false
}

// ResolveMovement applies velocity one axis at a time (Y, X, Z), clipping each
// axis against solid blocks. A clipped axis has its velocity zeroed.
func ResolveMovement(pos, velocity mgl64.Vec3, blockStore BlockStore) (mgl64.Vec3, mgl64.Vec3) {
	newPos := pos
	newVel := velocity
	for _, axis := range [3]int{1, 0, 2} {
		allowed := clipAxis(newPos, axis, newVel[axis], blockStore)
		newPos[axis] += allowed
		if !nearlyEqual(allowed, newVel[axis]) {
			newVel[axis] = 0
		}
	}
	return newPos, newVel
}

func clipAxis(pos mgl64.Vec3, axis int, delta float64, blockStore BlockStore) float64 {
	if blockStore == nil || nearlyZero(delta) {
		return delta
	}

	box := PlayerAABB(pos)
	// the two axes perpendicular to the one being moved
	a, b := (axis+1)%3, (axis+2)%3
	allowed := delta

	visit := func(fixed int, candidate float64) {
		for i := floorForMin(box.Min[a]); i <= floorForMax(box.Max[a]); i++ {
			for j := floorForMin(box.Min[b]); j <= floorForMax(box.Max[b]); j++ {
				var cell [3]int
				cell[axis], cell[a], cell[b] = fixed, i, j
				if !blockStore.IsSolid(cell[0], cell[1], cell[2]) {
					continue
				}
				if delta > 0 && candidate < allowed {
					allowed = candidate
				}
				if delta < 0 && candidate > allowed {
					allowed = candidate
				}
			}
		}
	}

	if delta > 0 {
		start := int(math.Floor(box.Max[axis]))
		end := int(math.Floor(box.Max[axis] + delta))
		for c := start; c <= end; c++ {
			visit(c, float64(c)-box.Max[axis])
		}
	} else {
		start := int(math.Floor(box.Min[axis] - CollisionAxisTolerance))
		end := int(math.Floor(box.Min[axis] + delta))
		for c := start; c >= end; c-- {
			visit(c, float64(c+1)-box.Min[axis])
		}
	}
	return allowed
}

func floorForMin(v float64) int {
	return int(math.Floor(v + CollisionAxisTolerance))
}

func floorForMax(v float64) int {
	return int(math.Floor(v - CollisionAxisTolerance))
}

func nearlyZero(v float64) bool {
	return math.Abs(v) <= CollisionAxisTolerance
}

func nearlyEqual(a, b float64) bool {
	return math.Abs(a-b) <= CollisionAxisTolerance
}
