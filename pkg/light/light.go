// Package light computes the sunlight and blocklight channels over a chunk
// store: the initial seed-and-flood pass for newly resident chunks, and the
// incremental add/remove BFS on block edits. This is C3 in the design.
package light

import (
	"github.com/vibeshit/voxelpipeline/pkg/block"
	"github.com/vibeshit/voxelpipeline/pkg/world"
)

// DirtyNotifier receives chunk coordinates touched by a lighting pass, so
// the pipeline coordinator can schedule re-meshing.
type DirtyNotifier interface {
	MarkDirty(pos world.ChunkPos)
}

// Engine drives both light channels against a chunk store. The baseline
// configuration (§4.3) is one lighting worker serializing all writes, so no
// per-cell locking beyond the store's own per-call lock is required.
// Running several lighting workers against the same Engine is only safe if
// the caller routes every edit/seed through ShardFor first and runs each
// shard on exactly one goroutine — this package does no locking of its own
// beyond what *world.Store already provides.
type Engine struct {
	store   *world.Store
	dirty   DirtyNotifier
	workers int
}

// New returns a single-worker light engine over store, reporting touched
// chunks to dirty.
func New(store *world.Store, dirty DirtyNotifier) *Engine {
	return NewSharded(store, dirty, 1)
}

// NewSharded returns a light engine configured for workers lighting
// workers. workers <= 1 behaves exactly like New. The engine itself never
// spawns goroutines — it only exposes ShardFor so a pipeline coordinator
// can route each chunk's edits to a single serializing worker (§4.3:
// "multiple lighting workers are permissible but must be serialized per
// affected region").
func NewSharded(store *world.Store, dirty DirtyNotifier, workers int) *Engine {
	if workers < 1 {
		workers = 1
	}
	return &Engine{store: store, dirty: dirty, workers: workers}
}

// WorkerCount returns the number of lighting-worker shards this engine was
// configured for.
func (e *Engine) WorkerCount() int { return e.workers }

// ShardFor returns which lighting-worker shard owns pos, by a chunk
// coordinate hash. With WorkerCount() == 1 this is always 0. A chunk's
// horizontal neighbors can also be touched by an edit inside it
// (markTouched marks four neighbors too), so callers that need strict
// per-region serialization across shard boundaries should route by the
// edited chunk's shard alone and accept that SeedChunk/ApplyEdit may
// occasionally write into a neighbor chunk owned by a different shard —
// those writes are still safe since *world.Store's own per-cell access is
// what's actually shared, not this package's state.
func (e *Engine) ShardFor(pos world.ChunkPos) int {
	if e.workers <= 1 {
		return 0
	}
	h := uint32(pos.X)*2654435761 ^ uint32(pos.Z)*2246822519
	return int(h % uint32(e.workers))
}

type job struct {
	pos   world.BlockPos
	level uint8
}

var neighborOffsets = [6]world.BlockPos{
	{X: -1}, {X: 1},
	{Y: -1}, {Y: 1},
	{Z: -1}, {Z: 1},
}

func addPos(p, d world.BlockPos) world.BlockPos {
	return world.BlockPos{X: p.X + d.X, Y: p.Y + d.Y, Z: p.Z + d.Z}
}

// channel abstracts the two light fields so the BFS bodies below are
// written once and instantiated per channel via closures, rather than
// duplicated or dispatched through an interface per cell.
type channel struct {
	get   func(x, y, z int32) uint8
	set   func(x, y, z int32, level uint8)
	isSun bool // governs the downward-undiminished special rule

	// bleedIntoOpaque lets a value be written one cell into an opaque
	// neighbor without continuing the flood past it. Blocklight uses this
	// (invariant: block_light is bounded by transparent neighbors' levels
	// even on an opaque cell itself); sunlight never does — sun must stay
	// exactly zero on every opaque cell.
	bleedIntoOpaque bool
}

func (e *Engine) sunChannel() channel {
	return channel{get: e.store.GetSun, set: e.store.SetSun, isSun: true}
}

func (e *Engine) blockChannel() channel {
	return channel{get: e.store.GetBlockLight, set: e.store.SetBlockLight, bleedIntoOpaque: true}
}

func (e *Engine) markTouched(p world.BlockPos) {
	cp := world.ToChunkPos(p.X, p.Z)
	e.dirty.MarkDirty(cp)
	e.dirty.MarkDirty(world.ChunkPos{X: cp.X - 1, Z: cp.Z})
	e.dirty.MarkDirty(world.ChunkPos{X: cp.X + 1, Z: cp.Z})
	e.dirty.MarkDirty(world.ChunkPos{X: cp.X, Z: cp.Z - 1})
	e.dirty.MarkDirty(world.ChunkPos{X: cp.X, Z: cp.Z + 1})
}

// propagate runs the shared BFS propagation rule (§4.3): a neighbor only
// gets relit if doing so raises its level, with sunlight's undiminished
// downward step as the one channel-specific exception.
func (e *Engine) propagate(ch channel, frontier []job) {
	for len(frontier) > 0 {
		j := frontier[0]
		frontier = frontier[1:]
		if j.level == 0 {
			continue
		}
		for _, d := range neighborOffsets {
			n := addPos(j.pos, d)
			opaque := !block.TransparentForLighting(e.store.GetBlock(n.X, n.Y, n.Z))
			if opaque && !ch.bleedIntoOpaque {
				continue
			}
			propagated := j.level - 1
			if ch.isSun && d.Y == -1 && j.level == 15 {
				propagated = 15
			}
			if ch.get(n.X, n.Y, n.Z) < propagated {
				ch.set(n.X, n.Y, n.Z, propagated)
				e.markTouched(n)
				if !opaque {
					frontier = append(frontier, job{pos: n, level: propagated})
				}
			}
		}
	}
}

// removeAndRelight runs the removal BFS from seeds, then immediately
// re-floods from every neighbor it discovers was lit from elsewhere
// (§4.3's removal rule), so light correctly flows back in from sources the
// removal pass didn't own.
func (e *Engine) removeAndRelight(ch channel, seeds []job) {
	var relight []job
	queue := seeds
	for len(queue) > 0 {
		j := queue[0]
		queue = queue[1:]
		for _, d := range neighborOffsets {
			n := addPos(j.pos, d)
			opaque := !block.TransparentForLighting(e.store.GetBlock(n.X, n.Y, n.Z))
			if opaque && !ch.bleedIntoOpaque {
				continue
			}
			v := ch.get(n.X, n.Y, n.Z)
			if v == 0 {
				continue
			}
			downwardSunFull := ch.isSun && d.Y == -1 && j.level == 15
			if v < j.level || (downwardSunFull && v == j.level) {
				ch.set(n.X, n.Y, n.Z, 0)
				e.markTouched(n)
				if !opaque {
					queue = append(queue, job{pos: n, level: v})
				}
			} else if !opaque {
				relight = append(relight, job{pos: n, level: v})
			}
		}
	}
	e.propagate(ch, relight)
}

// SeedChunk runs the initial sunlight and blocklight flood fill for a
// newly resident chunk (§4.3's initial pass). The two channels are seeded
// independently: the sunlight seed only ever walks transparent cells from
// the sky down, while the blocklight seed scans every cell for an emitter
// regardless of whether that cell (e.g. Glowstone) is itself opaque.
func (e *Engine) SeedChunk(pos world.ChunkPos) {
	var sunFrontier, blockFrontier []job

	baseX, baseZ := pos.X*world.ChunkWidth, pos.Z*world.ChunkDepth
	for lx := int32(0); lx < world.ChunkWidth; lx++ {
		for lz := int32(0); lz < world.ChunkDepth; lz++ {
			x, z := baseX+lx, baseZ+lz
			blocked := false
			for y := int32(world.ChunkHeight - 1); y >= 0; y-- {
				id := e.store.GetBlock(x, y, z)
				if blocked || !block.TransparentForLighting(id) {
					blocked = true
					e.store.SetSun(x, y, z, 0)
				} else {
					e.store.SetSun(x, y, z, 15)
					sunFrontier = append(sunFrontier, job{pos: world.BlockPos{X: x, Y: y, Z: z}, level: 15})
				}

				if emission := block.Emission(id); emission > 0 {
					e.store.SetBlockLight(x, y, z, emission)
					blockFrontier = append(blockFrontier, job{pos: world.BlockPos{X: x, Y: y, Z: z}, level: emission})
				}
			}
		}
	}

	e.propagate(e.sunChannel(), sunFrontier)
	e.propagate(e.blockChannel(), blockFrontier)
}

// ApplyEdit runs the incremental add/remove passes for one set_block edit
// (§4.3's four-step recipe).
func (e *Engine) ApplyEdit(pos world.BlockPos, oldID, newID block.ID) {
	wasOpaque := block.IsOpaque(oldID)
	becomesOpaque := block.IsOpaque(newID)
	oldEmission := block.Emission(oldID)
	newEmission := block.Emission(newID)

	var sunRemoval, blockRemoval []job
	var sunProp, blockProp []job

	if oldEmission > 0 {
		blockRemoval = append(blockRemoval, job{pos: pos, level: oldEmission})
		e.store.SetBlockLight(pos.X, pos.Y, pos.Z, 0)
	}

	if becomesOpaque {
		if s := e.store.GetSun(pos.X, pos.Y, pos.Z); s > 0 {
			sunRemoval = append(sunRemoval, job{pos: pos, level: s})
			e.store.SetSun(pos.X, pos.Y, pos.Z, 0)
		}
		if b := e.store.GetBlockLight(pos.X, pos.Y, pos.Z); b > 0 {
			blockRemoval = append(blockRemoval, job{pos: pos, level: b})
			e.store.SetBlockLight(pos.X, pos.Y, pos.Z, 0)
		}
	}

	// Removal runs before any neighbor level is read below, so light that
	// only the removed source supplied is not flooded back in.
	e.removeAndRelight(e.sunChannel(), sunRemoval)
	e.removeAndRelight(e.blockChannel(), blockRemoval)

	if newEmission > 0 {
		e.store.SetBlockLight(pos.X, pos.Y, pos.Z, newEmission)
		blockProp = append(blockProp, job{pos: pos, level: newEmission})
	}

	if wasOpaque && !becomesOpaque {
		for _, d := range neighborOffsets {
			n := addPos(pos, d)
			if !block.TransparentForLighting(e.store.GetBlock(n.X, n.Y, n.Z)) {
				continue
			}
			if sv := e.store.GetSun(n.X, n.Y, n.Z); sv > 0 {
				sunProp = append(sunProp, job{pos: n, level: sv})
			}
			if bv := e.store.GetBlockLight(n.X, n.Y, n.Z); bv > 0 {
				blockProp = append(blockProp, job{pos: n, level: bv})
			}
		}
	}

	e.propagate(e.sunChannel(), sunProp)
	e.propagate(e.blockChannel(), blockProp)

	e.markTouched(pos)
}
