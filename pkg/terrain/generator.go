// Package terrain implements the pure chunk generator: a deterministic
// function of (chunk coordinate, seed) that produces a fully populated
// block grid, with no dependency on lighting or meshing. This is C2 in
// the design.
package terrain

import (
	"math"

	"github.com/ojrac/opensimplex-go"

	"github.com/vibeshit/voxelpipeline/pkg/block"
	"github.com/vibeshit/voxelpipeline/pkg/world"
)

const (
	waterLevel     = 64
	deepWaterLevel = waterLevel - 12

	continentThreshold = 0.45
	plainsThreshold     = 0.4
	forestThreshold     = 0.6
)

// Generator produces terrain deterministically from (chunk coordinate,
// seed): two calls with the same pos and the same seed always produce
// byte-identical blocks (§4.2).
type Generator struct {
	seed int64

	continental opensimplex.Noise // very low frequency: gates land vs ocean
	terrain     *perlin           // fractal base-terrain height, domain-warped
	mountain    opensimplex.Noise // ridged contribution to forest/mountain height
	warp        opensimplex.Noise // domain-warp offset field
	biomeSel    opensimplex.Noise // biome selector

	treeNoise    *perlin // kept for parity with the tree-cluster idiom, unused directly
	boulderNoise *perlin // surface boulder cluster density
}

// NewGenerator constructs a generator for seed. Continentalness, the
// domain-warp field, the ridged mountain contribution, and the biome
// selector are all sampled from OpenSimplex noise fields; base terrain
// height uses a seeded multi-octave Perlin field, and boulder cluster
// density a single-octave one. The tree Perlin field is built but never
// sampled.
func NewGenerator(seed int64) *Generator {
	return &Generator{
		seed:         seed,
		continental:  opensimplex.New(seed),
		terrain:      newPerlin(seed + 1),
		mountain:     opensimplex.New(seed + 2),
		warp:         opensimplex.New(seed + 3),
		biomeSel:     opensimplex.New(seed + 4),
		treeNoise:    newPerlin(seed + 5),
		boulderNoise: newPerlin(seed + 6),
	}
}

func lerp64(a, b, t float64) float64 { return a + t*(b-a) }

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// domainWarp offsets (x,z) by the warp noise field before sampling the base
// terrain and mountain fields, at amplitude 35. The Z offset samples a
// translated region of the same field so the two axes don't warp in
// lockstep.
func (g *Generator) domainWarp(x, z float64) (float64, float64) {
	const freq = 0.005
	const amp = 35.0
	dx := g.warp.Eval2(x*freq, z*freq) * amp
	dz := g.warp.Eval2(x*freq+1000, z*freq+1000) * amp
	return x + dx, z + dz
}

// ridged turns a [-1,1] simplex sample into a ridged-fractal shape: sharp
// near zero crossings, low in the troughs.
func ridged(n float64) float64 {
	return 1 - math.Abs(n)
}

// BiomeAt resolves the recognized biome (§4.2: Ocean, Plains, Forest) for a
// world-space column.
func (g *Generator) BiomeAt(worldX, worldZ int) Biome {
	x, z := float64(worldX), float64(worldZ)
	continental := (g.continental.Eval2(x*0.0008, z*0.0008) + 1) / 2
	if continental < continentThreshold {
		return BiomeOcean
	}
	biomeValue := (g.biomeSel.Eval2(x*0.0015, z*0.0015) + 1) / 2
	switch {
	case biomeValue < plainsThreshold:
		return BiomePlains
	case biomeValue > forestThreshold:
		return BiomeForest
	case biomeValue < 0.5:
		return BiomePlains
	default:
		return BiomeForest
	}
}

// SurfaceHeight returns the solid surface Y for world-space (x,z): a
// continentalness gate between an ocean floor and a land height, the land
// height itself blended between a Plains and a Forest/mountain profile
// across the biome-selector thresholds, all sampled through the
// domain-warped coordinate.
func (g *Generator) SurfaceHeight(worldX, worldZ int) int {
	x, z := float64(worldX), float64(worldZ)

	continental := (g.continental.Eval2(x*0.0008, z*0.0008) + 1) / 2
	biomeValue := (g.biomeSel.Eval2(x*0.0015, z*0.0015) + 1) / 2

	warpX, warpZ := g.domainWarp(x, z)
	baseTerrain := (g.terrain.octaveNoise2D(warpX*0.004, warpZ*0.004, 5, 2.0, 0.5) + 1) / 2
	mountains := ridged(g.mountain.Eval2(warpX*0.003, warpZ*0.003))

	plainsHeightNoise := math.Pow(baseTerrain, 1.5) * 0.9
	forestMountainBlend := math.Max(baseTerrain, mountains*1.2)
	forestHeightNoise := lerp64(math.Pow(baseTerrain, 1.5), forestMountainBlend, math.Max(0, mountains-0.1)*1.2)

	isOcean := continental < continentThreshold
	var landHeightNoise float64
	if !isOcean {
		switch {
		case biomeValue < plainsThreshold:
			landHeightNoise = plainsHeightNoise
		case biomeValue > forestThreshold:
			landHeightNoise = forestHeightNoise
		default:
			blend := (biomeValue - plainsThreshold) / (forestThreshold - plainsThreshold)
			landHeightNoise = lerp64(plainsHeightNoise, forestHeightNoise, blend)
		}
	}

	landHeight := waterLevel + int(landHeightNoise*float64(world.ChunkHeight-waterLevel-5))
	seaFloorHeight := deepWaterLevel + int(baseTerrain*float64(waterLevel-deepWaterLevel))

	var height int
	if isOcean {
		height = seaFloorHeight
	} else {
		blend := math.Min(1, (continental-continentThreshold)/0.1)
		height = int(lerp64(float64(seaFloorHeight), float64(landHeight), blend))
	}
	return clampInt(height, 1, world.ChunkHeight-1)
}

// fillColumn fills one local (lx,lz) column from Stone/water up through the
// surface and into Air: Stone below a 3–4-cell Dirt band, Grass (or a
// narrow Dirt beach) at the surface, Air above it, Stone standing in for
// water below sea level.
func (g *Generator) fillColumn(c *world.Chunk, lx, lz, terrainHeight int) {
	for y := 0; y < world.ChunkHeight; y++ {
		var id block.ID
		switch {
		case y > terrainHeight:
			if y <= waterLevel {
				id = block.Stone
			} else {
				id = block.Air
			}
		case y == terrainHeight:
			if y >= waterLevel && y < waterLevel+2 {
				id = block.Dirt
			} else {
				id = block.Grass
			}
		default:
			if y > terrainHeight-4 {
				id = block.Dirt
			} else {
				id = block.Stone
			}
		}
		c.SetBlockLocal(lx, y, lz, id)
	}
}

// treeHash mixes (worldX, worldZ, seed) into one pseudo-random value via a
// splitmix-style finalizer, reused for both tree gating and boulder gating.
func treeHash(worldX, worldZ int, seed int64) uint32 {
	h := uint32(worldX)*18397 ^ uint32(worldZ)*38183 ^ uint32(seed)
	h ^= h >> 16
	h *= 0x85ebca6b
	h ^= h >> 13
	h *= 0xc2b2ae35
	h ^= h >> 16
	return h
}

// generateTrees drives deterministic tree placement on surface Grass cells:
// Forest ≈ 6%, Plains ≈ 0.2%. Trunk height is drawn from a second slice of
// the same hash, so the whole pass stays a pure function of (worldX, worldZ,
// seed) with no dependency on generation order.
func (g *Generator) generateTrees(c *world.Chunk, chunkX, chunkZ int32) {
	for lx := 2; lx < world.ChunkWidth-2; lx++ {
		for lz := 2; lz < world.ChunkDepth-2; lz++ {
			worldX := int(chunkX)*world.ChunkWidth + lx
			worldZ := int(chunkZ)*world.ChunkDepth + lz

			y := world.ChunkHeight - 1
			for ; y >= 0; y-- {
				if c.BlockLocal(lx, y, lz) != block.Air {
					break
				}
			}
			if y < 0 || c.BlockLocal(lx, y, lz) != block.Grass {
				continue
			}

			biome := g.BiomeAt(worldX, worldZ)
			h := treeHash(worldX, worldZ, g.seed)
			if h%1000 >= biome.treePermille() {
				continue
			}

			trunkHeight := 4 + int((h>>8)%3)
			g.buildTree(c, lx, y+1, lz, trunkHeight)
		}
	}
}

// buildTree places an OakLog trunk and a layered OakLeaves crown within a
// 5×5×4 bounding box starting two cells below the top.
func (g *Generator) buildTree(c *world.Chunk, lx, y, lz, height int) {
	if y+height+2 >= world.ChunkHeight {
		return
	}
	for i := 1; i < height+2; i++ {
		if c.BlockLocal(lx, y+i, lz) != block.Air {
			return
		}
	}

	c.SetBlockLocal(lx, y-1, lz, block.Dirt)
	for i := 0; i < height; i++ {
		c.SetBlockLocal(lx, y+i, lz, block.OakLog)
	}

	placeLeaf := func(dlx, ly, dlz int) {
		if dlx < 0 || dlx >= world.ChunkWidth || dlz < 0 || dlz >= world.ChunkDepth || ly < 0 || ly >= world.ChunkHeight {
			return
		}
		if c.BlockLocal(dlx, ly, dlz) == block.Air {
			c.SetBlockLocal(dlx, ly, dlz, block.OakLeaves)
		}
	}

	for ly := y + height - 2; ly <= y+height-1; ly++ {
		for dx := -2; dx <= 2; dx++ {
			for dz := -2; dz <= 2; dz++ {
				if absInt(dx) == 2 && absInt(dz) == 2 {
					continue
				}
				if dx == 0 && dz == 0 {
					continue
				}
				placeLeaf(lx+dx, ly, lz+dz)
			}
		}
	}

	topY := y + height
	for dx := -1; dx <= 1; dx++ {
		for dz := -1; dz <= 1; dz++ {
			placeLeaf(lx+dx, topY, lz+dz)
		}
	}

	vtopY := y + height + 1
	placeLeaf(lx, vtopY, lz)
	placeLeaf(lx+1, vtopY, lz)
	placeLeaf(lx-1, vtopY, lz)
	placeLeaf(lx, vtopY, lz+1)
	placeLeaf(lx, vtopY, lz-1)
}

// generateBoulders scatters small rounded stone clusters across land
// surfaces, gated by a low-frequency cluster-density noise field plus a
// per-column hash roll so clusters group spatially instead of placing
// independently at every eligible column.
func (g *Generator) generateBoulders(c *world.Chunk, chunkX, chunkZ int32) {
	for lx := 1; lx < world.ChunkWidth-1; lx++ {
		for lz := 1; lz < world.ChunkDepth-1; lz++ {
			worldX := int(chunkX)*world.ChunkWidth + lx
			worldZ := int(chunkZ)*world.ChunkDepth + lz

			if g.BiomeAt(worldX, worldZ) == BiomeOcean {
				continue
			}

			const clusterScale = 0.01
			clusterVal := (g.boulderNoise.noise2D(float64(worldX)*clusterScale, float64(worldZ)*clusterScale) + 1) / 2
			if clusterVal < 0.8 {
				continue
			}

			h := treeHash(worldX*31, worldZ*17, g.seed+500)
			if h%1000 >= 4 {
				continue
			}

			y := g.SurfaceHeight(worldX, worldZ)
			surf := c.BlockLocal(lx, y, lz)
			if surf != block.Grass && surf != block.Dirt {
				continue
			}

			radius := 2 + int((h>>8)%2)
			for dx := -radius; dx <= radius; dx++ {
				for dz := -radius; dz <= radius; dz++ {
					for dy := 0; dy <= radius; dy++ {
						if dx*dx+dz*dz+dy*dy > radius*radius {
							continue
						}
						nlx, nlz, ny := lx+dx, lz+dz, y+dy
						if nlx < 0 || nlx >= world.ChunkWidth || nlz < 0 || nlz >= world.ChunkDepth || ny >= world.ChunkHeight {
							continue
						}
						switch c.BlockLocal(nlx, ny, nlz) {
						case block.Grass, block.Dirt, block.Air:
							c.SetBlockLocal(nlx, ny, nlz, block.Stone)
						}
					}
				}
			}
		}
	}
}

// bedrockScatterLayers is how many cells above the forced y=0 floor the
// stochastic Bedrock scattering can reach.
const bedrockScatterLayers = 4

// bedrockScatterChance is the per-cell chance, out of 1000, that a Stone
// cell within the scatter band turns into Bedrock.
const bedrockScatterChance = 40

// scatterBedrock turns a small, seed-deterministic fraction of the Stone
// cells in the first few layers above the chunk floor into Bedrock, on top
// of the solid y=0 floor every column already has.
func (g *Generator) scatterBedrock(c *world.Chunk, chunkX, chunkZ int32) {
	for lx := 0; lx < world.ChunkWidth; lx++ {
		for lz := 0; lz < world.ChunkDepth; lz++ {
			worldX := int(chunkX)*world.ChunkWidth + lx
			worldZ := int(chunkZ)*world.ChunkDepth + lz
			for y := 1; y <= bedrockScatterLayers; y++ {
				if c.BlockLocal(lx, y, lz) != block.Stone {
					continue
				}
				h := treeHash(worldX, worldZ, g.seed+int64(y)*7919)
				if h%1000 < bedrockScatterChance {
					c.SetBlockLocal(lx, y, lz, block.Bedrock)
				}
			}
		}
	}
}

// Generate produces a new, fully filled chunk at pos: terrain fill, a solid
// bedrock floor with a stochastic scattering a few layers above it,
// boulders, then trees. Deterministic in (pos, seed) alone — no
// generation-order dependency.
func (g *Generator) Generate(pos world.ChunkPos) *world.Chunk {
	c := world.NewChunk(pos)

	for lx := 0; lx < world.ChunkWidth; lx++ {
		for lz := 0; lz < world.ChunkDepth; lz++ {
			worldX := int(pos.X)*world.ChunkWidth + lx
			worldZ := int(pos.Z)*world.ChunkDepth + lz
			g.fillColumn(c, lx, lz, g.SurfaceHeight(worldX, worldZ))
		}
	}

	for lx := 0; lx < world.ChunkWidth; lx++ {
		for lz := 0; lz < world.ChunkDepth; lz++ {
			c.SetBlockLocal(lx, 0, lz, block.Bedrock)
		}
	}
	g.scatterBedrock(c, pos.X, pos.Z)

	g.generateBoulders(c, pos.X, pos.Z)
	g.generateTrees(c, pos.X, pos.Z)

	return c
}
