// Package engine is the pipeline coordinator (C5): residency sweeps, the
// dirty-to-meshing handoff, mesh application, and the mesher/lighting
// worker pools that run alongside the single caller-driven main thread. It
// also owns frustum culling and draw ordering (C8).
package engine

import (
	"log"
	"runtime"
	"sync"

	"github.com/vibeshit/voxelpipeline/pkg/block"
	"github.com/vibeshit/voxelpipeline/pkg/light"
	"github.com/vibeshit/voxelpipeline/pkg/mesh"
	"github.com/vibeshit/voxelpipeline/pkg/queue"
	"github.com/vibeshit/voxelpipeline/pkg/terrain"
	"github.com/vibeshit/voxelpipeline/pkg/world"
)

// Config is the runtime-mutable option set (§6). Any change applied through
// SetConfig triggers ForceReload: render distance, mesher choice, and
// lighting options all shape chunks already generated/meshed/lit, and
// nothing short of a full rebuild applies them consistently.
type Config struct {
	Seed            int64
	RenderDistance  int // clamped to [2, 32]
	UseGreedyMesher bool
	SmoothLighting  bool
	UseSunlight     bool
	LeafQuality     block.LeafQuality
	MesherWorkers   int // 0 => runtime.GOMAXPROCS(0)
	LightingWorkers int // 0 => 1
}

// DefaultConfig matches the baseline single-lighting-worker configuration
// described throughout §4.
func DefaultConfig() Config {
	return Config{
		RenderDistance:  8,
		UseGreedyMesher: true,
		SmoothLighting:  true,
		UseSunlight:     true,
		LeafQuality:     block.Fancy,
		MesherWorkers:   0,
		LightingWorkers: 1,
	}
}

// ParseLeafQuality parses a leaf-quality flag string into its enum value.
// Returns the quality and true on success, or the zero value and false.
func ParseLeafQuality(s string) (block.LeafQuality, bool) {
	switch s {
	case "fast":
		return block.Fast, true
	case "fancy":
		return block.Fancy, true
	default:
		return 0, false
	}
}

func clampRenderDistance(d int) int {
	if d < 2 {
		return 2
	}
	if d > 32 {
		return 32
	}
	return d
}

// UploadFunc is the GPU upload callback invoked from apply_finished_meshes,
// always on the goroutine that calls Update — never from a worker (§5: "GPU
// upload only ever happens on the main thread").
type UploadFunc func(pos world.ChunkPos, opaque, transparent mesh.Buffers)

type jobKind int

const (
	jobSeed jobKind = iota
	jobEdit
)

type lightJob struct {
	kind  jobKind
	chunk world.ChunkPos // valid for jobSeed
	edit  world.BlockPos // valid for jobEdit
	oldID block.ID
	newID block.ID
}

type meshResult struct {
	pos                 world.ChunkPos
	opaque, transparent mesh.Buffers
}

// Engine is the concurrent voxel-world chunk pipeline: one chunk store, one
// terrain generator, one light engine, and the queues and worker pools that
// move a chunk from absent to resident to lit to meshed to drawn.
//
// Lock order, where more than one of the engine's own locks is held at
// once, is always chunks -> dirty -> meshingJobs (§4.5); the chunk store's
// lock is internal to *world.Store and is never held across a call into
// dirty or meshingJobs.
type Engine struct {
	cfg Config

	store  *world.Store
	gen    *terrain.Generator
	light  *light.Engine
	upload UploadFunc

	meshQueue     *queue.Queue[world.ChunkPos]
	finishedQueue *queue.Queue[meshResult]
	lightQueues   []*queue.Queue[lightJob]

	dirtyMu sync.Mutex
	dirty   map[world.ChunkPos]struct{}

	jobsMu      sync.Mutex
	meshingJobs map[world.ChunkPos]struct{}

	// lastViewerChunk and hasViewer are touched only from Update/ForceReload,
	// both of which the caller must only ever invoke from one goroutine
	// (the "main thread" of §5) — no lock needed.
	lastViewerChunk world.ChunkPos
	hasViewer       bool

	wg sync.WaitGroup
}

// New builds an Engine around a fresh, empty chunk store. Call Start before
// the first Update to bring the worker pools up.
func New(cfg Config, upload UploadFunc) *Engine {
	cfg.RenderDistance = clampRenderDistance(cfg.RenderDistance)
	lw := cfg.LightingWorkers
	if lw < 1 {
		lw = 1
	}
	cfg.LightingWorkers = lw

	e := &Engine{
		cfg:           cfg,
		store:         world.NewStore(),
		gen:           terrain.NewGenerator(cfg.Seed),
		upload:        upload,
		meshQueue:     queue.New[world.ChunkPos](),
		finishedQueue: queue.New[meshResult](),
		dirty:         make(map[world.ChunkPos]struct{}),
		meshingJobs:   make(map[world.ChunkPos]struct{}),
	}
	e.lightQueues = make([]*queue.Queue[lightJob], lw)
	for i := range e.lightQueues {
		e.lightQueues[i] = queue.New[lightJob]()
	}
	e.light = light.NewSharded(e.store, e, lw)
	return e
}

// MarkDirty implements light.DirtyNotifier: a lighting pass touched pos, so
// the next drainDirtyIntoMeshQueue should schedule it for remeshing.
func (e *Engine) MarkDirty(pos world.ChunkPos) {
	e.dirtyMu.Lock()
	e.dirty[pos] = struct{}{}
	e.dirtyMu.Unlock()
}

// Start spawns the mesher and lighting worker pools. Mesher count defaults
// to the host's hardware concurrency (§5: "N mesher threads, N =
// max(1, hardware_concurrency)"); lighting worker count is one shard's
// goroutine per e.cfg.LightingWorkers.
func (e *Engine) Start() {
	workers := e.cfg.MesherWorkers
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		e.wg.Add(1)
		go e.mesherWorker()
	}
	for i := range e.lightQueues {
		e.wg.Add(1)
		go e.lightWorker(i)
	}
	log.Printf("engine: started %d mesher worker(s), %d lighting worker(s), render_distance=%d",
		workers, len(e.lightQueues), e.cfg.RenderDistance)
}

// Stop poisons every queue and waits for all workers to drain and return.
func (e *Engine) Stop() {
	e.meshQueue.Stop()
	e.finishedQueue.Stop()
	for _, q := range e.lightQueues {
		q.Stop()
	}
	e.wg.Wait()
}

// SetConfig replaces the engine's configuration, clamping render distance,
// and forces a full reload if anything changed (§6).
func (e *Engine) SetConfig(cfg Config) {
	cfg.RenderDistance = clampRenderDistance(cfg.RenderDistance)
	if cfg.LightingWorkers < 1 {
		cfg.LightingWorkers = e.cfg.LightingWorkers
	}
	changed := cfg != e.cfg
	e.cfg = cfg
	if changed {
		e.ForceReload()
	}
}

// Config returns the engine's current configuration.
func (e *Engine) Config() Config { return e.cfg }

// ForceReload clears the chunk store, the dirty set and the meshingJobs
// claims, and resets lastViewerChunk so the next Update rebuilds residency
// from scratch (§4.5). Jobs already waiting in the meshing, finished-mesh
// and lighting queues are not removed. Changing the lighting worker count mid-run is not supported:
// that would require retiring and respawning lightQueues, which only Start
// does; callers that need to change it should build a new Engine.
func (e *Engine) ForceReload() {
	e.store.Clear()

	e.dirtyMu.Lock()
	e.dirty = make(map[world.ChunkPos]struct{})
	e.dirtyMu.Unlock()

	e.jobsMu.Lock()
	e.meshingJobs = make(map[world.ChunkPos]struct{})
	e.jobsMu.Unlock()

	e.hasViewer = false
}

// Update runs one pipeline tick: a residency sweep if the viewer crossed a
// chunk boundary since the last call, then the dirty-to-meshing handoff,
// then applying whatever mesh jobs have finished (§4.5).
func (e *Engine) Update(viewer world.BlockPos) {
	cp := world.ToChunkPos(viewer.X, viewer.Z)
	if !e.hasViewer || cp != e.lastViewerChunk {
		e.residencySweep(cp)
		e.lastViewerChunk = cp
		e.hasViewer = true
	}
	e.drainDirtyIntoMeshQueue()
	e.applyFinishedMeshes()
}

// residencySweep evicts chunks beyond render distance and generates any
// missing chunk within it, synchronously on the calling goroutine — chunk
// generation is a pure function of (cx, cz, seed), so there is no need to
// hand it to a worker (§4.2).
func (e *Engine) residencySweep(center world.ChunkPos) {
	r := int32(e.cfg.RenderDistance)

	for _, c := range e.store.ChunksSnapshot() {
		if chebyshev(c.Pos, center) > r {
			e.store.Remove(c.Pos)
		}
	}

	for dx := -r; dx <= r; dx++ {
		for dz := -r; dz <= r; dz++ {
			pos := world.ChunkPos{X: center.X + dx, Z: center.Z + dz}
			if e.store.Contains(pos) {
				continue
			}
			c := e.gen.Generate(pos)
			e.store.Insert(pos, c)
			e.pushLightSeed(pos)
		}
	}
}

func chebyshev(a, b world.ChunkPos) int32 {
	dx, dz := a.X-b.X, a.Z-b.Z
	if dx < 0 {
		dx = -dx
	}
	if dz < 0 {
		dz = -dz
	}
	if dx > dz {
		return dx
	}
	return dz
}

// drainDirtyIntoMeshQueue moves every dirty chunk not already in flight
// into the meshing queue, under dirty then meshingJobs in that order
// (§4.5's lock order).
func (e *Engine) drainDirtyIntoMeshQueue() {
	e.dirtyMu.Lock()
	defer e.dirtyMu.Unlock()
	e.jobsMu.Lock()
	defer e.jobsMu.Unlock()

	for pos := range e.dirty {
		if _, inFlight := e.meshingJobs[pos]; inFlight {
			continue
		}
		e.meshingJobs[pos] = struct{}{}
		e.meshQueue.Push(pos)
	}
	e.dirty = make(map[world.ChunkPos]struct{})
}

// applyFinishedMeshes drains every completed mesh job, looks its chunk up
// under the store's shared lock and publishes it by atomic swap, invokes
// the upload callback, and
// releases the chunk's meshingJobs claim. A chunk evicted before its job
// finished is simply dropped (§7): ApplyMesh reports false and no upload
// happens.
func (e *Engine) applyFinishedMeshes() {
	for {
		res, ok := e.finishedQueue.TryPop()
		if !ok {
			return
		}
		if e.store.ApplyMesh(res.pos, res.opaque, res.transparent) && e.upload != nil {
			e.upload(res.pos, res.opaque, res.transparent)
		}
		e.jobsMu.Lock()
		delete(e.meshingJobs, res.pos)
		e.jobsMu.Unlock()
	}
}

func (e *Engine) pushLightSeed(pos world.ChunkPos) {
	shard := e.light.ShardFor(pos)
	e.lightQueues[shard].Push(lightJob{kind: jobSeed, chunk: pos})
}

// GetBlock reads a block id at world coordinates.
func (e *Engine) GetBlock(x, y, z int32) block.ID {
	return e.store.GetBlock(x, y, z)
}

// SetBlock writes a block id at world coordinates and, if it actually
// changed anything, schedules the incremental lighting edit on the shard
// that owns the touched chunk.
func (e *Engine) SetBlock(x, y, z int32, id block.ID) {
	old := e.store.GetBlock(x, y, z)
	if old == id {
		return
	}
	e.store.SetBlock(x, y, z, id)

	pos := world.BlockPos{X: x, Y: y, Z: z}
	shard := e.light.ShardFor(world.ToChunkPos(x, z))
	e.lightQueues[shard].Push(lightJob{kind: jobEdit, edit: pos, oldID: old, newID: id})
}

func (e *Engine) mesherWorker() {
	defer e.wg.Done()
	for {
		pos, ok := e.meshQueue.WaitAndPop()
		if !ok {
			return
		}
		if !e.store.Contains(pos) {
			// Evicted before the job was picked up; nothing to mesh, and no
			// finishedQueue entry will arrive to clear the claim for us.
			e.jobsMu.Lock()
			delete(e.meshingJobs, pos)
			e.jobsMu.Unlock()
			continue
		}

		neighborhood := e.store.Neighborhood(pos)
		kind := mesh.Simple
		if e.cfg.UseGreedyMesher {
			kind = mesh.Greedy
		}
		dims := mesh.Dims{Width: world.ChunkWidth, Height: world.ChunkHeight, Depth: world.ChunkDepth}
		opaque, transparent := mesh.Generate(kind, neighborhood, dims, e.cfg.LeafQuality, e.cfg.SmoothLighting)
		e.finishedQueue.Push(meshResult{pos: pos, opaque: opaque, transparent: transparent})
	}
}

func (e *Engine) lightWorker(shard int) {
	defer e.wg.Done()
	q := e.lightQueues[shard]
	for {
		job, ok := q.WaitAndPop()
		if !ok {
			return
		}
		switch job.kind {
		case jobSeed:
			e.light.SeedChunk(job.chunk)
		case jobEdit:
			e.light.ApplyEdit(job.edit, job.oldID, job.newID)
		}
	}
}
