// Package mesh turns a neighborhood-local view of blocks and light into
// GPU-ready vertex/index buffers. It has no dependency on pkg/world: callers
// hand it anything satisfying Source, so the chunk store can stay upstream
// of meshing instead of the other way around.
package mesh

import "github.com/vibeshit/voxelpipeline/pkg/block"

// Source is a padded, already-copied view of a chunk and its 3x3 horizontal
// neighbors: coordinates range over roughly [-1, W] x [0, H) x [-1, D]
// relative to the meshed chunk's own origin. Implementations must treat
// out-of-residency neighbors as Air / full sun / zero block-light (§4.4.1).
type Source interface {
	BlockAt(x, y, z int) block.ID
	// LightAt returns the packed byte: sun = byte>>4, block = byte&0x0F.
	LightAt(x, y, z int) uint8
}

// Buffers is the CPU-side output of one mesh generation pass. An empty
// chunk produces empty, non-nil-or-nil buffers — both are valid.
type Buffers struct {
	Vertices []float32 // 8 floats per vertex: px,py,pz,u,v,ao,light,faceIndex
	Indices  []uint32
}

// Kind selects which algorithm produces a chunk's geometry.
type Kind int

const (
	Simple Kind = iota
	Greedy
)

const vertexFloats = 8

// Dims is the chunk extent meshing operates over, in local coordinates
// starting at (0,0,0). The neighborhood padding beyond these bounds is
// reached through Source, not through Dims.
type Dims struct {
	Width, Height, Depth int
}

// Generate dispatches to the requested algorithm, enforcing the rule that
// greedy meshing is never combined with smooth lighting: per-vertex AO and
// light would vary within what greedy wants to treat as one uniform quad,
// distorting the shading. A Greedy request downgrades to Simple whenever
// smoothLighting is set, regardless of what the caller passed in.
func Generate(kind Kind, src Source, dims Dims, quality block.LeafQuality, smoothLighting bool) (opaque, transparent Buffers) {
	if kind == Greedy && smoothLighting {
		kind = Simple
	}
	switch kind {
	case Greedy:
		return generateGreedy(src, dims, quality)
	default:
		return generateSimple(src, dims, quality, smoothLighting)
	}
}

func calculateAO(side1, side2, corner bool) float32 {
	if side1 && side2 {
		return 3.0
	}
	n := 0
	if side1 {
		n++
	}
	if side2 {
		n++
	}
	if corner {
		n++
	}
	return float32(n)
}

// faceAxis splits a face index into its perpendicular axis (0=X,1=Y,2=Z),
// whether it points in the positive direction, and the outward normal.
func faceAxis(faceIndex int) (axis int, positive bool, normal [3]int) {
	axis = faceIndex / 2
	positive = faceIndex%2 == 1
	if positive {
		normal[axis] = 1
	} else {
		normal[axis] = -1
	}
	return
}

// cornerSigns maps a quad-local corner index (0..3, in (u,v) = (0,0),(1,0),
// (1,1),(0,1) order) to signed +-1 offsets along the two tangent axes, used
// by both the AO stencil and smooth-light sampling.
func cornerSigns(corner int) (su, sv int) {
	switch corner {
	case 0:
		return -1, -1
	case 1:
		return 1, -1
	case 2:
		return 1, 1
	default:
		return -1, 1
	}
}

// aoAndLightAt computes the AO term and light value (raw sun/block pair)
// for one quad corner, given the face-adjacent neighbor cell position and
// the tangent axes of the face.
func aoAndLightAt(src Source, nx, ny, nz, uAxis, vAxis, su, sv int) (ao float32, sun, blockLight uint8) {
	side1 := [3]int{nx, ny, nz}
	side1[uAxis] += su
	side2 := [3]int{nx, ny, nz}
	side2[vAxis] += sv
	corner := [3]int{nx, ny, nz}
	corner[uAxis] += su
	corner[vAxis] += sv

	s1Opaque := block.IsOpaque(src.BlockAt(side1[0], side1[1], side1[2]))
	s2Opaque := block.IsOpaque(src.BlockAt(side2[0], side2[1], side2[2]))
	cOpaque := block.IsOpaque(src.BlockAt(corner[0], corner[1], corner[2]))
	ao = calculateAO(s1Opaque, s2Opaque, cOpaque)

	mainLight := src.LightAt(nx, ny, nz)
	s1Light := src.LightAt(side1[0], side1[1], side1[2])
	s2Light := src.LightAt(side2[0], side2[1], side2[2])
	cLight := src.LightAt(corner[0], corner[1], corner[2])

	sunAvg := (int(mainLight>>4) + int(s1Light>>4) + int(s2Light>>4) + int(cLight>>4)) / 4
	blockAvg := (int(mainLight&0x0F) + int(s1Light&0x0F) + int(s2Light&0x0F) + int(cLight&0x0F)) / 4
	return ao, uint8(sunAvg), uint8(blockAvg)
}

func flatLightAt(src Source, nx, ny, nz int) (sun, blockLight uint8) {
	l := src.LightAt(nx, ny, nz)
	return l >> 4, l & 0x0F
}

func maxU8(a, b uint8) uint8 {
	if a > b {
		return a
	}
	return b
}

func tileUV(tc block.TileCoord) (uMin, vMin, extent float32) {
	const atlasTiles = 16
	extent = 1.0 / atlasTiles
	return float32(tc.X) * extent, float32(tc.Y) * extent, extent
}

func destFor(self block.ID, opaque, transparent *Buffers) *Buffers {
	if self == block.OakLeaves {
		return transparent
	}
	return opaque
}

// appendQuad writes one quad (4 vertices, 6 indices) into dst, choosing the
// triangulation diagonal that avoids the AO interpolation artifact (§4.4.5):
// split along 1-3 when ao[0]+ao[2] exceeds ao[1]+ao[3], else along 0-2.
func appendQuad(dst *Buffers, positions [4][3]float32, uvs [4][2]float32, ao [4]float32, light [4]float32, faceIndex int) {
	base := uint32(len(dst.Vertices) / vertexFloats)
	for i := 0; i < 4; i++ {
		dst.Vertices = append(dst.Vertices,
			positions[i][0], positions[i][1], positions[i][2],
			uvs[i][0], uvs[i][1],
			ao[i], light[i], float32(faceIndex),
		)
	}
	if ao[0]+ao[2] > ao[1]+ao[3] {
		dst.Indices = append(dst.Indices, base+1, base+2, base+3, base+3, base+0, base+1)
	} else {
		dst.Indices = append(dst.Indices, base+0, base+1, base+2, base+2, base+3, base+0)
	}
}
