package world

import (
	"testing"

	"github.com/vibeshit/voxelpipeline/pkg/block"
	"github.com/vibeshit/voxelpipeline/pkg/mesh"
)

func emptyBuffers() mesh.Buffers { return mesh.Buffers{} }

func TestStoreMissingChunkReadsDefaults(t *testing.T) {
	s := NewStore()
	if got := s.GetBlock(0, 0, 0); got != block.Air {
		t.Errorf("GetBlock on empty store = %v, want Air", got)
	}
	if got := s.GetSun(0, 0, 0); got != 15 {
		t.Errorf("GetSun on empty store = %d, want 15", got)
	}
	if got := s.GetBlockLight(0, 0, 0); got != 0 {
		t.Errorf("GetBlockLight on empty store = %d, want 0", got)
	}
}

func TestStoreSetBlockOnMissingChunkIsDropped(t *testing.T) {
	s := NewStore()
	s.SetBlock(0, 0, 0, block.Stone) // must not panic, must not create the chunk
	if s.Contains(ChunkPos{0, 0}) {
		t.Errorf("SetBlock on a missing chunk should not realize it")
	}
}

func TestStoreInsertContainsRemove(t *testing.T) {
	s := NewStore()
	pos := ChunkPos{X: 2, Z: -1}
	if s.Contains(pos) {
		t.Fatalf("empty store reports Contains true")
	}
	s.Insert(pos, NewChunk(pos))
	if !s.Contains(pos) {
		t.Errorf("Contains false after Insert")
	}
	s.Remove(pos)
	if s.Contains(pos) {
		t.Errorf("Contains true after Remove")
	}
}

func TestStoreClearEvictsEverything(t *testing.T) {
	s := NewStore()
	for _, pos := range []ChunkPos{{X: 0, Z: 0}, {X: 1, Z: 0}, {X: 0, Z: 1}} {
		s.Insert(pos, NewChunk(pos))
	}
	if got := len(s.ChunksSnapshot()); got != 3 {
		t.Fatalf("setup: ChunksSnapshot length = %d, want 3", got)
	}

	s.Clear()

	if got := len(s.ChunksSnapshot()); got != 0 {
		t.Errorf("ChunksSnapshot length after Clear = %d, want 0", got)
	}
	if s.Contains((ChunkPos{X: 0, Z: 0})) {
		t.Errorf("Contains true for a chunk inserted before Clear")
	}
}

func TestStoreGetSetBlockRoundTrip(t *testing.T) {
	s := NewStore()
	pos := ChunkPos{X: 0, Z: 0}
	s.Insert(pos, NewChunk(pos))

	s.SetBlock(5, 10, 3, block.Glowstone)
	if got := s.GetBlock(5, 10, 3); got != block.Glowstone {
		t.Errorf("GetBlock after SetBlock = %v, want Glowstone", got)
	}
	// World coordinates in a neighboring chunk must not be disturbed.
	if got := s.GetBlock(5+ChunkWidth, 10, 3); got != block.Air {
		t.Errorf("SetBlock leaked across chunk boundary: %v", got)
	}
}

func TestStoreGetSetLight(t *testing.T) {
	s := NewStore()
	pos := ChunkPos{X: 0, Z: 0}
	s.Insert(pos, NewChunk(pos))

	s.SetSun(0, 0, 0, 7)
	s.SetBlockLight(0, 0, 0, 9)
	if got := s.GetSun(0, 0, 0); got != 7 {
		t.Errorf("GetSun = %d, want 7", got)
	}
	if got := s.GetBlockLight(0, 0, 0); got != 9 {
		t.Errorf("GetBlockLight = %d, want 9", got)
	}
}

func TestChunksSnapshotLength(t *testing.T) {
	s := NewStore()
	for i := int32(0); i < 5; i++ {
		s.Insert(ChunkPos{X: i}, NewChunk(ChunkPos{X: i}))
	}
	if got := len(s.ChunksSnapshot()); got != 5 {
		t.Errorf("len(ChunksSnapshot()) = %d, want 5", got)
	}
}

func TestApplyMeshDropsResultForEvictedChunk(t *testing.T) {
	s := NewStore()
	pos := ChunkPos{X: 9, Z: 9}
	if ok := s.ApplyMesh(pos, emptyBuffers(), emptyBuffers()); ok {
		t.Errorf("ApplyMesh on a non-resident chunk reported success")
	}

	s.Insert(pos, NewChunk(pos))
	if ok := s.ApplyMesh(pos, emptyBuffers(), emptyBuffers()); !ok {
		t.Errorf("ApplyMesh on a resident chunk reported failure")
	}
}

func TestNeighborhoodTreatsMissingNeighborsAsAirAndFullSun(t *testing.T) {
	s := NewStore()
	center := ChunkPos{X: 0, Z: 0}
	s.Insert(center, NewChunk(center))

	n := s.Neighborhood(center)
	if got := n.BlockAt(-1, 0, 0); got != block.Air {
		t.Errorf("BlockAt missing neighbor = %v, want Air", got)
	}
	if got := n.LightAt(-1, 0, 0); got != 0xF0 {
		t.Errorf("LightAt missing neighbor = 0x%02x, want 0xf0", got)
	}
}

func TestNeighborhoodReadsAcrossChunkBoundary(t *testing.T) {
	s := NewStore()
	center := ChunkPos{X: 0, Z: 0}
	east := ChunkPos{X: 1, Z: 0}

	cCenter := NewChunk(center)
	cEast := NewChunk(east)
	cEast.setBlockAt(0, 5, 0, block.Stone)
	s.Insert(center, cCenter)
	s.Insert(east, cEast)

	n := s.Neighborhood(center)
	// Local x == ChunkWidth steps one cell past the east edge, into the
	// east neighbor's local x == 0 column.
	if got := n.BlockAt(ChunkWidth, 5, 0); got != block.Stone {
		t.Errorf("BlockAt across east boundary = %v, want Stone", got)
	}
}

func TestNeighborhoodSnapshotIsInsulatedFromLaterEdits(t *testing.T) {
	s := NewStore()
	pos := ChunkPos{X: 0, Z: 0}
	s.Insert(pos, NewChunk(pos))

	n := s.Neighborhood(pos)
	s.SetBlock(0, 0, 0, block.Stone)

	if got := n.BlockAt(0, 0, 0); got != block.Air {
		t.Errorf("snapshot observed a post-capture edit: %v, want Air (pre-edit)", got)
	}
}
