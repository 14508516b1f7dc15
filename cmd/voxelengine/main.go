// Command voxelengine drives the chunk pipeline headlessly: a scripted
// viewer path substitutes for real camera input, since GPU upload and input
// handling live outside this package, and throughput is logged instead of
// drawn.
package main

import (
	"flag"
	"log"
	"math"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/vibeshit/voxelpipeline/pkg/engine"
	"github.com/vibeshit/voxelpipeline/pkg/mesh"
	"github.com/vibeshit/voxelpipeline/pkg/world"
)

func main() {
	seed := flag.Int64("seed", 0, "World seed (0 = derived from current time)")
	renderDistance := flag.Int("render-distance", 8, "Render distance in chunks (2-32)")
	greedyMesher := flag.Bool("greedy-mesher", true, "Use the greedy mesher when smooth lighting is off")
	smoothLighting := flag.Bool("smooth-lighting", true, "Enable smooth (per-vertex) lighting")
	useSunlight := flag.Bool("sunlight", true, "Enable the sunlight channel")
	leafQuality := flag.String("leaf-quality", "fancy", "Leaf face culling quality (fast, fancy)")
	mesherWorkers := flag.Int("mesher-workers", 0, "Mesher worker count (0 = hardware concurrency)")
	lightingWorkers := flag.Int("lighting-workers", 1, "Lighting worker shard count")
	orbitRadius := flag.Int("orbit-radius-chunks", 6, "Radius of the scripted viewer's orbit, in chunks")
	tickInterval := flag.Duration("tick-interval", 200*time.Millisecond, "Time between simulated viewer ticks")
	flag.Parse()

	quality, ok := engine.ParseLeafQuality(*leafQuality)
	if !ok {
		log.Fatalf("invalid leaf quality: %s", *leafQuality)
	}

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	log.Printf("World seed: %d", *seed)

	cfg := engine.DefaultConfig()
	cfg.Seed = *seed
	cfg.RenderDistance = *renderDistance
	cfg.UseGreedyMesher = *greedyMesher
	cfg.SmoothLighting = *smoothLighting
	cfg.UseSunlight = *useSunlight
	cfg.LeafQuality = quality
	cfg.MesherWorkers = *mesherWorkers
	cfg.LightingWorkers = *lightingWorkers

	var uploadedMeshes, uploadedVerts uint64
	upload := func(pos world.ChunkPos, opaque, transparent mesh.Buffers) {
		atomic.AddUint64(&uploadedMeshes, 1)
		atomic.AddUint64(&uploadedVerts, uint64(len(opaque.Vertices)+len(transparent.Vertices)))
	}

	eng := engine.New(cfg, upload)
	eng.Start()

	log.Printf("engine pipeline started (render_distance=%d, greedy_mesher=%v, smooth_lighting=%v, leaf_quality=%s)",
		cfg.RenderDistance, cfg.UseGreedyMesher, cfg.SmoothLighting, *leafQuality)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(*tickInterval)
	defer ticker.Stop()

	start := time.Now()
	angle := 0.0
	lastLog := time.Now()

loop:
	for {
		select {
		case sig := <-sigCh:
			log.Printf("shutting down (received signal: %v)...", sig)
			break loop
		case <-ticker.C:
			angle += 0.05
			vx := int32(float64(*orbitRadius*world.ChunkWidth) * math.Cos(angle))
			vz := int32(float64(*orbitRadius*world.ChunkWidth) * math.Sin(angle))
			eng.Update(world.BlockPos{X: vx, Z: vz})

			if time.Since(lastLog) >= 5*time.Second {
				log.Printf("tick: elapsed=%s viewer=(%d,%d) meshes_uploaded=%d verts_uploaded=%d",
					time.Since(start).Round(time.Second), vx, vz,
					atomic.LoadUint64(&uploadedMeshes), atomic.LoadUint64(&uploadedVerts))
				lastLog = time.Now()
			}
		}
	}

	eng.Stop()
	log.Println("engine stopped.")
}
