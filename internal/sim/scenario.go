package sim

import (
	"fmt"

	"github.com/Versifine/autofly/internal/world"
)

// Scenario describes a generated test world.
type Scenario struct {
	Dimension string
	FloorY    int
	Radius    int
	Floor     string
	// Containers are placed on top of the floor, or at their own Y when set.
	Containers []world.BlockPos
	Container  string
}

// Build lays a square floor centred on the origin and places containers.
func (s Scenario) Build() (*world.Grid, error) {
	dim := s.Dimension
	if dim == "" {
		dim = world.DimensionOverworld
	}
	floor := s.Floor
	if floor == "" {
		floor = "stone"
	}
	container := s.Container
	if container == "" {
		container = "chest"
	}

	g := world.NewGrid(dim)
	if s.Radius > 0 {
		a := world.BlockPos{X: -s.Radius, Y: s.FloorY, Z: -s.Radius}
		b := world.BlockPos{X: s.Radius, Y: s.FloorY, Z: s.Radius}
		if err := g.Fill(a, b, floor); err != nil {
			return nil, fmt.Errorf("lay floor: %w", err)
		}
	}
	for _, p := range s.Containers {
		if p.Y == 0 {
			p.Y = s.FloorY + 1
		}
		if err := g.Set(p.X, p.Y, p.Z, container); err != nil {
			return nil, fmt.Errorf("place %s at %v: %w", container, p, err)
		}
	}
	return g, nil
}
