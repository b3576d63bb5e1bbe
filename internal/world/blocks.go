package world

import (
	"strings"

	"github.com/go-mclib/data/pkg/data/blocks"
)

var shulkerColors = []string{
	"white", "orange", "magenta", "light_blue", "yellow", "lime", "pink", "gray",
	"light_gray", "cyan", "purple", "blue", "brown", "green", "red", "black",
}

// registry IDs resolved once from the block data tables
var (
	AirID     int32
	BedrockID int32
	StoneID   int32
	WaterID   int32
	LavaID    int32

	passableIDs  = make(map[int32]bool)
	fluidIDs     = make(map[int32]bool)
	containerIDs = make(map[int32]bool)
)

func init() {
	AirID = blocks.BlockID("minecraft:air")
	BedrockID = blocks.BlockID("minecraft:bedrock")
	StoneID = blocks.BlockID("minecraft:stone")
	WaterID = blocks.BlockID("minecraft:water")
	LavaID = blocks.BlockID("minecraft:lava")

	for _, name := range []string{
		"minecraft:air", "minecraft:cave_air", "minecraft:void_air",
		"minecraft:short_grass", "minecraft:tall_grass", "minecraft:fern",
		"minecraft:torch", "minecraft:snow", "minecraft:dead_bush",
	} {
		passableIDs[blocks.BlockID(name)] = true
	}
	fluidIDs[WaterID] = true
	fluidIDs[LavaID] = true
	fluidIDs[blocks.BlockID("minecraft:bubble_column")] = true

	for _, name := range []string{"minecraft:chest", "minecraft:trapped_chest", "minecraft:barrel", "minecraft:shulker_box"} {
		containerIDs[blocks.BlockID(name)] = true
	}
	for _, color := range shulkerColors {
		containerIDs[blocks.BlockID("minecraft:"+color+"_shulker_box")] = true
	}
}

// BlockID resolves a namespaced block name; names without a namespace get "minecraft:".
func BlockID(name string) int32 {
	name = strings.ToLower(strings.TrimSpace(name))
	if !strings.Contains(name, ":") {
		name = "minecraft:" + name
	}
	return blocks.BlockID(name)
}

func BlockName(id int32) string {
	return blocks.BlockName(id)
}

func IsPassableID(id int32) bool { return passableIDs[id] }

func IsFluidID(id int32) bool { return fluidIDs[id] }

func IsSolidID(id int32) bool { return !passableIDs[id] && !fluidIDs[id] }

func IsBedrockID(id int32) bool { return id == BedrockID }

func IsContainerID(id int32) bool { return containerIDs[id] }
