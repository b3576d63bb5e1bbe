package world

const (
	DimensionOverworld = "minecraft:overworld"
	DimensionNether    = "minecraft:the_nether"
	DimensionEnd       = "minecraft:the_end"
)

type DimensionBounds struct {
	MinY   int
	Height int
}

// MaxY is the highest buildable block Y (inclusive).
func (b DimensionBounds) MaxY() int {
	return b.MinY + b.Height - 1
}

func (b DimensionBounds) Contains(y int) bool {
	return y >= b.MinY && y <= b.MaxY()
}

func VanillaDimensionBounds(name string) (DimensionBounds, bool) {
	switch name {
	case DimensionOverworld:
		return DimensionBounds{MinY: -64, Height: 384}, true
	case DimensionNether, DimensionEnd:
		return DimensionBounds{MinY: 0, Height: 256}, true
	default:
		return DimensionBounds{}, false
	}
}

// BoundsOrOverworld falls back to overworld bounds for unknown dimensions.
func BoundsOrOverworld(name string) DimensionBounds {
	if b, ok := VanillaDimensionBounds(name); ok {
		return b
	}
	b, _ := VanillaDimensionBounds(DimensionOverworld)
	return b
}
