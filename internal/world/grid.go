package world

import (
	"fmt"
	"sync"
)

const (
	ChunkSectionHeight = 16
	BlocksPerSection   = 16 * 16 * 16
)

type ChunkPos struct {
	X int32
	Z int32
}

type section struct {
	ids [BlocksPerSection]int32
}

type chunk struct {
	sections []*section
}

// Grid is an in-memory block world backed by lazily allocated chunk sections.
// Blocks that were never set read back as air.
type Grid struct {
	mu        sync.RWMutex
	dimension string
	bounds    DimensionBounds
	chunks    map[ChunkPos]*chunk
}

func NewGrid(dimension string) *Grid {
	return &Grid{
		dimension: dimension,
		bounds:    BoundsOrOverworld(dimension),
		chunks:    make(map[ChunkPos]*chunk),
	}
}

func (g *Grid) Dimension() string {
	return g.dimension
}

func (g *Grid) Bounds() (int, int) {
	return g.bounds.MinY, g.bounds.MaxY()
}

func (g *Grid) Set(x, y, z int, name string) error {
	if !g.SetID(x, y, z, BlockID(name)) {
		return fmt.Errorf("y=%d outside dimension bounds [%d,%d]", y, g.bounds.MinY, g.bounds.MaxY())
	}
	return nil
}

func (g *Grid) SetID(x, y, z int, id int32) bool {
	if !g.bounds.Contains(y) {
		return false
	}
	cp, sectionIndex, blockIndex := g.locate(x, y, z)

	g.mu.Lock()
	defer g.mu.Unlock()

	c, ok := g.chunks[cp]
	if !ok {
		c = &chunk{sections: make([]*section, g.bounds.Height/ChunkSectionHeight)}
		g.chunks[cp] = c
	}
	s := c.sections[sectionIndex]
	if s == nil {
		if id == AirID {
			return true
		}
		s = &section{}
		for i := range s.ids {
			s.ids[i] = AirID
		}
		c.sections[sectionIndex] = s
	}
	s.ids[blockIndex] = id
	return true
}

// Fill sets every block in the inclusive box spanned by a and b.
func (g *Grid) Fill(a, b BlockPos, name string) error {
	if !g.bounds.Contains(a.Y) || !g.bounds.Contains(b.Y) {
		return fmt.Errorf("fill y range [%d,%d] outside dimension bounds", a.Y, b.Y)
	}
	id := BlockID(name)
	minX, maxX := order(a.X, b.X)
	minY, maxY := order(a.Y, b.Y)
	minZ, maxZ := order(a.Z, b.Z)
	for x := minX; x <= maxX; x++ {
		for y := minY; y <= maxY; y++ {
			for z := minZ; z <= maxZ; z++ {
				g.SetID(x, y, z, id)
			}
		}
	}
	return nil
}

func (g *Grid) Block(x, y, z int) int32 {
	if !g.bounds.Contains(y) {
		return AirID
	}
	cp, sectionIndex, blockIndex := g.locate(x, y, z)

	g.mu.RLock()
	defer g.mu.RUnlock()

	c, ok := g.chunks[cp]
	if !ok {
		return AirID
	}
	s := c.sections[sectionIndex]
	if s == nil {
		return AirID
	}
	return s.ids[blockIndex]
}

func (g *Grid) IsSolid(x, y, z int) bool {
	return IsSolidID(g.Block(x, y, z))
}

func (g *Grid) IsFluid(x, y, z int) bool {
	return IsFluidID(g.Block(x, y, z))
}

func (g *Grid) LoadedChunkCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.chunks)
}

func (g *Grid) locate(x, y, z int) (ChunkPos, int, int) {
	localX := floorMod16(x)
	localZ := floorMod16(z)
	sectionIndex := (y - g.bounds.MinY) / ChunkSectionHeight
	localY := (y - g.bounds.MinY) % ChunkSectionHeight
	return ChunkPos{X: int32(floorDiv16(x)), Z: int32(floorDiv16(z))}, sectionIndex, localY*16*16 + localZ*16 + localX
}

func order(a, b int) (int, int) {
	if a > b {
		return b, a
	}
	return a, b
}

func floorDiv16(v int) int {
	q := v / 16
	if v < 0 && v%16 != 0 {
		q--
	}
	return q
}

func floorMod16(v int) int {
	m := v % 16
	if m < 0 {
		m += 16
	}
	return m
}
