package mesh

import "github.com/vibeshit/voxelpipeline/pkg/block"

type greedyFaceInfo struct {
	visible bool
	blockID block.ID
	light   uint8
	ao      [4]float32
}

func (a greedyFaceInfo) mergeEqual(b greedyFaceInfo) bool {
	return a.visible == b.visible && a.blockID == b.blockID && a.light == b.light && a.ao == b.ao
}

// generateGreedy merges coplanar adjacent faces with identical
// (block_id, light, ao) into maximal rectangles (§4.4.4). Smooth lighting is
// never combined with this path (enforced by Generate); each emitted quad
// therefore has one flat light value shared across its corners, while AO
// still varies per corner.
func generateGreedy(src Source, dims Dims, quality block.LeafQuality) (opaque, transparent Buffers) {
	extent := [3]int{dims.Width, dims.Height, dims.Depth}

	for axis := 0; axis < 3; axis++ {
		for dir := 0; dir < 2; dir++ {
			faceIndex := axis*2 + dir
			_, positive, normal := faceAxis(faceIndex)
			uAxis := (axis + 1) % 3
			vAxis := (axis + 2) % 3
			dimU, dimV := extent[uAxis], extent[vAxis]

			for d := 0; d < extent[axis]; d++ {
				mask := make([]greedyFaceInfo, dimU*dimV)

				for u := 0; u < dimU; u++ {
					for v := 0; v < dimV; v++ {
						var pos [3]int
						pos[axis] = d
						pos[uAxis] = u
						pos[vAxis] = v

						self := src.BlockAt(pos[0], pos[1], pos[2])
						if self == block.Air {
							continue
						}
						nx, ny, nz := pos[0]+normal[0], pos[1]+normal[1], pos[2]+normal[2]
						neighbor := src.BlockAt(nx, ny, nz)
						if !block.ShouldRenderFace(self, neighbor, quality) {
							continue
						}

						sun, blk := flatLightAt(src, nx, ny, nz)
						light := maxU8(sun, blk)
						if e := block.Emission(self); e > 0 {
							light = e
						}

						var ao [4]float32
						for corner := 0; corner < 4; corner++ {
							su, sv := cornerSigns(corner)
							ao[corner], _, _ = aoAndLightAt(src, nx, ny, nz, uAxis, vAxis, su, sv)
						}

						mask[u+v*dimU] = greedyFaceInfo{visible: true, blockID: self, light: light, ao: ao}
					}
				}

				for v := 0; v < dimV; v++ {
					for u := 0; u < dimU; u++ {
						current := mask[u+v*dimU]
						if !current.visible {
							continue
						}

						width := 1
						for u+width < dimU && mask[u+width+v*dimU].mergeEqual(current) {
							width++
						}

						height := 1
						done := false
						for h := 1; v+h < dimV && !done; h++ {
							for w := 0; w < width; w++ {
								if !mask[u+w+(v+h)*dimU].mergeEqual(current) {
									done = true
									break
								}
							}
							if !done {
								height++
							}
						}

						for h := 0; h < height; h++ {
							for w := 0; w < width; w++ {
								mask[u+w+(v+h)*dimU].visible = false
							}
						}

						emitGreedyQuad(destFor(current.blockID, &opaque, &transparent),
							axis, uAxis, vAxis, d, u, v, width, height, positive, faceIndex, current)
					}
				}
			}
		}
	}
	return opaque, transparent
}

// emitGreedyQuad builds the four corners of a width x height merged quad.
// AO is carried over unmodified from the seed cell (u,v), matching the
// reference mesher: a large merged quad does not re-derive per-corner AO
// for its now-distant corners.
func emitGreedyQuad(dst *Buffers, axis, uAxis, vAxis, d, u, v, width, height int, positive bool, faceIndex int, info greedyFaceInfo) {
	var base [3]float32
	base[axis] = float32(d)
	if positive {
		base[axis] += 1
	}
	base[uAxis] = float32(u)
	base[vAxis] = float32(v)

	du := [3]float32{}
	dv := [3]float32{}
	du[uAxis] = float32(width)
	dv[vAxis] = float32(height)

	positions := [4][3]float32{
		base,
		{base[0] + du[0], base[1] + du[1], base[2] + du[2]},
		{base[0] + du[0] + dv[0], base[1] + du[1] + dv[1], base[2] + du[2] + dv[2]},
		{base[0] + dv[0], base[1] + dv[1], base[2] + dv[2]},
	}

	tc := block.Get(info.blockID).Faces[faceIndex]
	uMin, vMin, tileExtent := tileUV(tc)
	uvs := [4][2]float32{
		{uMin, vMin},
		{uMin + float32(width)*tileExtent, vMin},
		{uMin + float32(width)*tileExtent, vMin + float32(height)*tileExtent},
		{uMin, vMin + float32(height)*tileExtent},
	}

	lights := [4]float32{float32(info.light), float32(info.light), float32(info.light), float32(info.light)}

	if !positive {
		positions[1], positions[3] = positions[3], positions[1]
		uvs[1], uvs[3] = uvs[3], uvs[1]
		info.ao[1], info.ao[3] = info.ao[3], info.ao[1]
	}

	appendQuad(dst, positions, uvs, info.ao, lights, faceIndex)
}
