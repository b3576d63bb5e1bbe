package world

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Query is the read-only view of the block world the navigator steers through.
type Query interface {
	IsSolid(x, y, z int) bool
	IsFluid(x, y, z int) bool
	Block(x, y, z int) int32
	Bounds() (minY, maxY int)
}

type BlockPos struct {
	X int
	Y int
	Z int
}

func (p BlockPos) Add(dx, dy, dz int) BlockPos {
	return BlockPos{X: p.X + dx, Y: p.Y + dy, Z: p.Z + dz}
}

// Center returns the bottom-center of the block, where a standing player's feet sit.
func (p BlockPos) Center() mgl64.Vec3 {
	return mgl64.Vec3{float64(p.X) + 0.5, float64(p.Y), float64(p.Z) + 0.5}
}

func FloorPos(v mgl64.Vec3) BlockPos {
	return BlockPos{
		X: int(math.Floor(v.X())),
		Y: int(math.Floor(v.Y())),
		Z: int(math.Floor(v.Z())),
	}
}

// HorizontalDist ignores the Y axis.
func HorizontalDist(a, b mgl64.Vec3) float64 {
	dx := a.X() - b.X()
	dz := a.Z() - b.Z()
	return math.Sqrt(dx*dx + dz*dz)
}

func SqDist(a, b BlockPos) int {
	dx := a.X - b.X
	dy := a.Y - b.Y
	dz := a.Z - b.Z
	return dx*dx + dy*dy + dz*dz
}
