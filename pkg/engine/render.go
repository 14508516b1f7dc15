package engine

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/vibeshit/voxelpipeline/pkg/mesh"
	"github.com/vibeshit/voxelpipeline/pkg/world"
)

// DrawFunc issues one chunk's draw call with its currently published mesh.
type DrawFunc func(pos world.ChunkPos, buf mesh.Buffers)

// Render culls the resident chunk set against projView's frustum, then
// issues every visible chunk's opaque draw before any transparent draw
// (§4.8): opaque geometry needs depth-writes settled first so blended
// transparent quads composite against the right depth buffer. Both
// callbacks run on the calling goroutine only — Render never touches a
// worker, matching §5's "GPU upload/draw only on the main thread".
func (e *Engine) Render(projView mgl32.Mat4, drawOpaque, drawTransparent DrawFunc) {
	f := extractFrustum(projView)

	chunks := e.store.ChunksSnapshot()
	visible := make([]*world.Chunk, 0, len(chunks))
	for _, c := range chunks {
		min, max := chunkBounds(c.Pos)
		if f.contains(min, max) {
			visible = append(visible, c)
		}
	}

	for _, c := range visible {
		opaque, _ := c.Meshes()
		if len(opaque.Indices) > 0 && drawOpaque != nil {
			drawOpaque(c.Pos, opaque)
		}
	}
	for _, c := range visible {
		_, transparent := c.Meshes()
		if len(transparent.Indices) > 0 && drawTransparent != nil {
			drawTransparent(c.Pos, transparent)
		}
	}
}

func chunkBounds(pos world.ChunkPos) (min, max mgl32.Vec3) {
	min = mgl32.Vec3{
		float32(pos.X * world.ChunkWidth),
		0,
		float32(pos.Z * world.ChunkDepth),
	}
	max = mgl32.Vec3{
		float32((pos.X + 1) * world.ChunkWidth),
		float32(world.ChunkHeight),
		float32((pos.Z + 1) * world.ChunkDepth),
	}
	return min, max
}
