package world

import (
	"sync"

	"github.com/vibeshit/voxelpipeline/pkg/block"
	"github.com/vibeshit/voxelpipeline/pkg/mesh"
)

// Store is the chunk store (C1): the sole owner of chunk residency, guarded
// by a reader-writer lock. Writers (insert/remove/set_block/set_light) hold
// the exclusive lock for one operation only; readers hold the shared lock
// for the duration of their read. No caller is ever handed the lock itself.
type Store struct {
	mu     sync.RWMutex
	chunks map[ChunkPos]*Chunk
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{chunks: make(map[ChunkPos]*Chunk)}
}

// Contains reports whether pos is currently resident.
func (s *Store) Contains(pos ChunkPos) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.chunks[pos]
	return ok
}

// Insert adds a chunk to residency, replacing any existing chunk at pos.
func (s *Store) Insert(pos ChunkPos, c *Chunk) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks[pos] = c
}

// Remove evicts pos, a no-op if it is not resident.
func (s *Store) Remove(pos ChunkPos) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.chunks, pos)
}

// Clear evicts every resident chunk, for a full pipeline reload (§4.5's
// force_reload) where a configuration change invalidates everything already
// generated, meshed, and lit.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = make(map[ChunkPos]*Chunk)
}

// ChunksSnapshot returns every resident chunk for iteration (e.g. render or
// residency-sweep eviction scans). The slice is a point-in-time copy of the
// map's pointers; the chunks themselves are not copied.
func (s *Store) ChunksSnapshot() []*Chunk {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Chunk, 0, len(s.chunks))
	for _, c := range s.chunks {
		out = append(out, c)
	}
	return out
}

func worldToLocal(x, z int32, cp ChunkPos) (lx, lz int) {
	return int(x - cp.X*ChunkWidth), int(z - cp.Z*ChunkDepth)
}

// GetBlock returns the block id at world coordinates. Out-of-vertical-range
// y and non-resident chunks both return Air (§7: not an error).
func (s *Store) GetBlock(x, y, z int32) block.ID {
	cp := ToChunkPos(x, z)
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.chunks[cp]
	if !ok {
		return block.Air
	}
	lx, lz := worldToLocal(x, z, cp)
	return c.blockAt(lx, int(y), lz)
}

// SetBlock writes a block id at world coordinates. A write to a
// non-resident chunk or out-of-range y is silently dropped.
func (s *Store) SetBlock(x, y, z int32, id block.ID) {
	cp := ToChunkPos(x, z)
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.chunks[cp]
	if !ok {
		return
	}
	lx, lz := worldToLocal(x, z, cp)
	c.setBlockAt(lx, int(y), lz, id)
}

// GetSun returns the sunlight level at world coordinates. Non-resident
// chunks and above-range y both read as full sun (15).
func (s *Store) GetSun(x, y, z int32) uint8 {
	cp := ToChunkPos(x, z)
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.chunks[cp]
	if !ok {
		return 15
	}
	lx, lz := worldToLocal(x, z, cp)
	return c.sunAt(lx, int(y), lz)
}

// SetSun writes the sunlight level at world coordinates.
func (s *Store) SetSun(x, y, z int32, level uint8) {
	cp := ToChunkPos(x, z)
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.chunks[cp]
	if !ok {
		return
	}
	lx, lz := worldToLocal(x, z, cp)
	c.setSunAt(lx, int(y), lz, level)
}

// GetBlockLight returns the block-emitted light level at world coordinates.
// Non-resident chunks read as zero.
func (s *Store) GetBlockLight(x, y, z int32) uint8 {
	cp := ToChunkPos(x, z)
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.chunks[cp]
	if !ok {
		return 0
	}
	lx, lz := worldToLocal(x, z, cp)
	return c.blockLightAt(lx, int(y), lz)
}

// SetBlockLight writes the block-emitted light level at world coordinates.
func (s *Store) SetBlockLight(x, y, z int32, level uint8) {
	cp := ToChunkPos(x, z)
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.chunks[cp]
	if !ok {
		return
	}
	lx, lz := worldToLocal(x, z, cp)
	c.setBlockLightAt(lx, int(y), lz, level)
}

// ApplyMesh looks up pos under the store's shared lock and publishes the
// given buffers via the chunk's own atomic swap. It reports false if the
// chunk was evicted before the mesh job completed, in which case the
// caller drops the result (§7).
func (s *Store) ApplyMesh(pos ChunkPos, opaque, transparent mesh.Buffers) bool {
	s.mu.RLock()
	c, ok := s.chunks[pos]
	s.mu.RUnlock()
	if !ok {
		return false
	}
	c.SwapMeshes(opaque, transparent)
	return true
}

// Neighborhood is a padded snapshot of one chunk and its eight horizontal
// neighbors, copied out from under the store's lock once so a mesher can
// run lock-free (§4.4.1). It implements mesh.Source directly.
type Neighborhood struct {
	center ChunkPos

	present [3][3]bool
	blocks  [3][3][cellsPerChunk]block.ID
	light   [3][3][cellsPerChunk]uint8
}

// Neighborhood builds a 3x3 snapshot centered on center, acquiring the
// store's shared lock for exactly the duration of the copy.
func (s *Store) Neighborhood(center ChunkPos) *Neighborhood {
	n := &Neighborhood{center: center}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for dz := -1; dz <= 1; dz++ {
		for dx := -1; dx <= 1; dx++ {
			pos := ChunkPos{X: center.X + int32(dx), Z: center.Z + int32(dz)}
			c, ok := s.chunks[pos]
			if !ok {
				continue
			}
			ix, iz := dx+1, dz+1
			n.present[ix][iz] = true
			n.blocks[ix][iz] = *c.blocksArray()
			n.light[ix][iz] = *c.lightArray()
		}
	}
	return n
}

// resolve maps a neighborhood-local coordinate (x,z may range over
// [-1, ChunkWidth] / [-1, ChunkDepth]) to a tile index and in-tile local
// coordinate. ok is false when y is out of vertical range.
func (n *Neighborhood) resolve(x, y, z int) (tileX, tileZ, lx, lz int, ok bool) {
	if y < 0 || y >= ChunkHeight {
		return 0, 0, 0, 0, false
	}
	tileX, lx = 1, x
	switch {
	case x < 0:
		tileX, lx = 0, x+ChunkWidth
	case x >= ChunkWidth:
		tileX, lx = 2, x-ChunkWidth
	}
	tileZ, lz = 1, z
	switch {
	case z < 0:
		tileZ, lz = 0, z+ChunkDepth
	case z >= ChunkDepth:
		tileZ, lz = 2, z-ChunkDepth
	}
	return tileX, tileZ, lx, lz, true
}

// BlockAt implements mesh.Source. Out-of-residency neighbors and
// out-of-vertical-range cells read as Air.
func (n *Neighborhood) BlockAt(x, y, z int) block.ID {
	tileX, tileZ, lx, lz, ok := n.resolve(x, y, z)
	if !ok || !n.present[tileX][tileZ] {
		return block.Air
	}
	return n.blocks[tileX][tileZ][localIndex(lx, y, lz)]
}

// LightAt implements mesh.Source. Out-of-residency neighbors read as full
// sun, zero block light; out-of-vertical-range cells read the same.
func (n *Neighborhood) LightAt(x, y, z int) uint8 {
	tileX, tileZ, lx, lz, ok := n.resolve(x, y, z)
	if !ok || !n.present[tileX][tileZ] {
		return 0xF0
	}
	return n.light[tileX][tileZ][localIndex(lx, y, lz)]
}
