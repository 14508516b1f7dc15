package terrain

// Biome is one of the three recognized terrain regions (§4.2): Ocean gates
// low continentalness, Plains and Forest split the remaining land by the
// biome-selector noise field.
type Biome int

const (
	BiomeOcean Biome = iota
	BiomePlains
	BiomeForest
)

func (b Biome) String() string {
	switch b {
	case BiomeOcean:
		return "Ocean"
	case BiomePlains:
		return "Plains"
	case BiomeForest:
		return "Forest"
	default:
		return "Unknown"
	}
}

// treePermille is the per-mille chance (out of 1000) a surface Grass cell in
// this biome grows a tree: Forest ≈ 6%, Plains ≈ 0.2% (§4.2).
func (b Biome) treePermille() uint32 {
	switch b {
	case BiomeForest:
		return 60
	case BiomePlains:
		return 2
	default:
		return 0
	}
}
