package world

import "github.com/go-gl/mathgl/mgl64"

// Passable reports whether a player body can occupy the block.
func Passable(q Query, x, y, z int) bool {
	return !q.IsSolid(x, y, z) && !q.IsFluid(x, y, z)
}

// Standable reports whether a player can stand with feet at pos: solid floor,
// two passable blocks for the body.
func Standable(q Query, pos BlockPos) bool {
	if q == nil {
		return false
	}
	return q.IsSolid(pos.X, pos.Y-1, pos.Z) &&
		Passable(q, pos.X, pos.Y, pos.Z) &&
		Passable(q, pos.X, pos.Y+1, pos.Z)
}

// SkyClear reports whether nothing solid sits between y and the world ceiling.
func SkyClear(q Query, x, y, z int) bool {
	if q == nil {
		return false
	}
	_, maxY := q.Bounds()
	for cy := y; cy <= maxY; cy++ {
		if q.IsSolid(x, cy, z) {
			return false
		}
	}
	return true
}

// LandingY scans down from the ceiling for the first non-bedrock floor that a
// player can stand on and returns the feet Y above it. Bedrock roofs are skipped.
func LandingY(q Query, x, z int) (int, bool) {
	if q == nil {
		return 0, false
	}
	minY, maxY := q.Bounds()
	for y := maxY - 1; y >= minY; y-- {
		if !q.IsSolid(x, y, z) {
			continue
		}
		if IsBedrockID(q.Block(x, y, z)) {
			continue
		}
		if Standable(q, BlockPos{X: x, Y: y + 1, Z: z}) {
			return y + 1, true
		}
	}
	return 0, false
}

// NormalizeStandable nudges pos up to two blocks up or three down onto a standable tile.
func NormalizeStandable(q Query, pos BlockPos) (BlockPos, bool) {
	if Standable(q, pos) {
		return pos, true
	}
	for dy := 1; dy <= 2; dy++ {
		if up := pos.Add(0, dy, 0); Standable(q, up) {
			return up, true
		}
	}
	for dy := 1; dy <= 3; dy++ {
		if down := pos.Add(0, -dy, 0); Standable(q, down) {
			return down, true
		}
	}
	return BlockPos{}, false
}

// OpenSkyTile looks for a standable tile with open sky in the column at (x,z)
// within four blocks of nearY.
func OpenSkyTile(q Query, x, nearY, z int) (BlockPos, bool) {
	for _, dy := range []int{0, 1, -1, 2, -2, 3, -3, 4, -4} {
		pos := BlockPos{X: x, Y: nearY + dy, Z: z}
		if Standable(q, pos) && SkyClear(q, x, pos.Y, z) {
			return pos, true
		}
	}
	return BlockPos{}, false
}

// NearestOpenSky scans square rings around from, nearest ring first, for a
// standable tile with open sky.
func NearestOpenSky(q Query, from BlockPos, radius int) (BlockPos, bool) {
	if q == nil {
		return BlockPos{}, false
	}
	if pos, ok := OpenSkyTile(q, from.X, from.Y, from.Z); ok {
		return pos, true
	}
	for r := 1; r <= radius; r++ {
		best := BlockPos{}
		bestDist := -1
		for dx := -r; dx <= r; dx++ {
			for dz := -r; dz <= r; dz++ {
				if abs(dx) != r && abs(dz) != r {
					continue
				}
				pos, ok := OpenSkyTile(q, from.X+dx, from.Y, from.Z+dz)
				if !ok {
					continue
				}
				if d := SqDist(pos, from); bestDist < 0 || d < bestDist {
					best = pos
					bestDist = d
				}
			}
		}
		if bestDist >= 0 {
			return best, true
		}
	}
	return BlockPos{}, false
}

// NearestContainer returns the closest container block within a cube of the given radius.
func NearestContainer(q Query, center BlockPos, radius int) (BlockPos, bool) {
	if q == nil {
		return BlockPos{}, false
	}
	minY, maxY := q.Bounds()
	found := false
	best := BlockPos{}
	bestDist := 0
	for y := center.Y - radius; y <= center.Y+radius; y++ {
		if y < minY || y > maxY {
			continue
		}
		for x := center.X - radius; x <= center.X+radius; x++ {
			for z := center.Z - radius; z <= center.Z+radius; z++ {
				if !IsContainerID(q.Block(x, y, z)) {
					continue
				}
				pos := BlockPos{X: x, Y: y, Z: z}
				if d := SqDist(pos, center); !found || d < bestDist {
					best = pos
					bestDist = d
					found = true
				}
			}
		}
	}
	return best, found
}

// ApproachTile picks the standable tile next to target closest to self.
func ApproachTile(q Query, target BlockPos, self mgl64.Vec3) (BlockPos, bool) {
	offsets := [][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	found := false
	best := BlockPos{}
	bestDist := 0.0
	for dy := -1; dy <= 1; dy++ {
		for _, off := range offsets {
			candidate := target.Add(off[0], dy, off[1])
			if !Standable(q, candidate) {
				continue
			}
			if d := candidate.Center().Sub(self).LenSqr(); !found || d < bestDist {
				best = candidate
				bestDist = d
				found = true
			}
		}
	}
	return best, found
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
