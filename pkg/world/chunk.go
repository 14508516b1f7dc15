// Package world owns the chunk residency store: the grid data model, the
// reader/writer-locked store that owns every chunk, and the neighborhood
// snapshot meshers consume. This is C1 in the design.
package world

import (
	"sync/atomic"

	"github.com/vibeshit/voxelpipeline/pkg/block"
	"github.com/vibeshit/voxelpipeline/pkg/mesh"
)

// Chunk dimensions. A single vertical column per horizontal cell is the
// authoritative model (cy is always 0); H is the full world height.
const (
	ChunkWidth  = 16
	ChunkHeight = 256
	ChunkDepth  = 16

	cellsPerChunk = ChunkWidth * ChunkHeight * ChunkDepth
)

// ChunkPos is a horizontal chunk coordinate. cy is implicitly 0.
type ChunkPos struct {
	X, Z int32
}

// BlockPos is a world-space block coordinate.
type BlockPos struct {
	X, Y, Z int32
}

// ToChunkPos returns the chunk coordinate containing the given world-space
// horizontal position.
func ToChunkPos(x, z int32) ChunkPos {
	return ChunkPos{X: floorDiv(x, ChunkWidth), Z: floorDiv(z, ChunkDepth)}
}

func floorDiv(a, b int32) int32 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func localIndex(lx, y, lz int) int {
	return (y*ChunkDepth+lz)*ChunkWidth + lx
}

// Chunk is one resident column: packed block ids, a packed two-channel
// light field, and the latest published meshes. Mutation of blocks/light
// only ever happens through Store's write methods, which hold the store's
// exclusive lock for the duration of the call — this struct has no lock of
// its own (see §3's chunk invariants and §9's ownership note).
type Chunk struct {
	Pos ChunkPos

	blocks [cellsPerChunk]block.ID
	light  [cellsPerChunk]uint8 // sun = byte>>4, block = byte&0x0F

	// meshes is published via atomic pointer swap so a render pass never
	// observes a torn mix of the old and new buffers (the mesh-validity
	// invariant), without needing the store's lock at read time.
	meshes atomic.Pointer[chunkMeshes]
}

type chunkMeshes struct {
	opaque      mesh.Buffers
	transparent mesh.Buffers
}

// NewChunk allocates an empty (all-Air) chunk at pos.
func NewChunk(pos ChunkPos) *Chunk {
	c := &Chunk{Pos: pos}
	c.meshes.Store(&chunkMeshes{})
	return c
}

// Meshes returns the most recently published mesh buffers.
func (c *Chunk) Meshes() (opaque, transparent mesh.Buffers) {
	m := c.meshes.Load()
	return m.opaque, m.transparent
}

func (c *Chunk) blockAt(lx, y, lz int) block.ID {
	if y < 0 || y >= ChunkHeight {
		return block.Air
	}
	return c.blocks[localIndex(lx, y, lz)]
}

func (c *Chunk) setBlockAt(lx, y, lz int, id block.ID) {
	if y < 0 || y >= ChunkHeight {
		return
	}
	c.blocks[localIndex(lx, y, lz)] = id
}

func (c *Chunk) sunAt(lx, y, lz int) uint8 {
	if y < 0 || y >= ChunkHeight {
		return 15
	}
	return c.light[localIndex(lx, y, lz)] >> 4
}

func (c *Chunk) setSunAt(lx, y, lz int, level uint8) {
	if y < 0 || y >= ChunkHeight {
		return
	}
	i := localIndex(lx, y, lz)
	c.light[i] = (level << 4) | (c.light[i] & 0x0F)
}

func (c *Chunk) blockLightAt(lx, y, lz int) uint8 {
	if y < 0 || y >= ChunkHeight {
		return 0
	}
	return c.light[localIndex(lx, y, lz)] & 0x0F
}

func (c *Chunk) setBlockLightAt(lx, y, lz int, level uint8) {
	if y < 0 || y >= ChunkHeight {
		return
	}
	i := localIndex(lx, y, lz)
	c.light[i] = (c.light[i] & 0xF0) | (level & 0x0F)
}

// SwapMeshes atomically replaces both mesh buffers in one pointer store, so
// a concurrent Meshes() call never observes one updated and one stale.
func (c *Chunk) SwapMeshes(opaque, transparent mesh.Buffers) {
	c.meshes.Store(&chunkMeshes{opaque: opaque, transparent: transparent})
}

// blocksArray and lightArray give the neighborhood builder a cheap, typed
// way to copy a whole chunk's cell data under the store's read lock.
func (c *Chunk) blocksArray() *[cellsPerChunk]block.ID { return &c.blocks }
func (c *Chunk) lightArray() *[cellsPerChunk]uint8      { return &c.light }

// BlockLocal and SetBlockLocal expose local-coordinate block access to the
// terrain generator, which fills a freshly allocated chunk (not yet
// resident in any store, so no lock is needed) before it is ever inserted.
func (c *Chunk) BlockLocal(lx, y, lz int) block.ID            { return c.blockAt(lx, y, lz) }
func (c *Chunk) SetBlockLocal(lx, y, lz int, id block.ID) { c.setBlockAt(lx, y, lz, id) }
