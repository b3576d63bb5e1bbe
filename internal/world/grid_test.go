package world

import "testing"

func TestGridDefaultsToAir(t *testing.T) {
	g := NewGrid(DimensionOverworld)
	if g.Block(3, 64, -7) != AirID {
		t.Fatal("unset block should read as air")
	}
	if g.IsSolid(3, 64, -7) || g.IsFluid(3, 64, -7) {
		t.Fatal("air should be neither solid nor fluid")
	}
}

func TestGridSetAndClassify(t *testing.T) {
	g := NewGrid(DimensionOverworld)
	if err := g.Set(-1, 63, -17, "stone"); err != nil {
		t.Fatalf("Set stone: %v", err)
	}
	if err := g.Set(2, 63, 2, "minecraft:water"); err != nil {
		t.Fatalf("Set water: %v", err)
	}
	if !g.IsSolid(-1, 63, -17) {
		t.Fatal("stone should be solid")
	}
	if g.IsSolid(2, 63, 2) || !g.IsFluid(2, 63, 2) {
		t.Fatal("water should be fluid, not solid")
	}
	if g.LoadedChunkCount() != 2 {
		t.Fatalf("LoadedChunkCount = %d, want 2", g.LoadedChunkCount())
	}
}

func TestGridRejectsOutOfBounds(t *testing.T) {
	g := NewGrid(DimensionNether)
	if err := g.Set(0, 256, 0, "stone"); err == nil {
		t.Fatal("expected error above nether ceiling")
	}
	if err := g.Fill(BlockPos{X: 0, Y: -1, Z: 0}, BlockPos{X: 1, Y: 2, Z: 1}, "stone"); err == nil {
		t.Fatal("expected error for fill below floor")
	}
}

func TestGridFill(t *testing.T) {
	g := NewGrid(DimensionOverworld)
	if err := g.Fill(BlockPos{X: 2, Y: 60, Z: 2}, BlockPos{X: -2, Y: 60, Z: -2}, "stone"); err != nil {
		t.Fatalf("Fill: %v", err)
	}
	for x := -2; x <= 2; x++ {
		for z := -2; z <= 2; z++ {
			if !g.IsSolid(x, 60, z) {
				t.Fatalf("(%d,60,%d) should be solid", x, z)
			}
		}
	}
	if g.IsSolid(3, 60, 0) {
		t.Fatal("fill leaked outside box")
	}
}
