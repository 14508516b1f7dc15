package mesh

import "github.com/vibeshit/voxelpipeline/pkg/block"

// generateSimple enumerates every cell and emits each visible face as its
// own 4-vertex quad (§4.4.3).
func generateSimple(src Source, dims Dims, quality block.LeafQuality, smoothLighting bool) (opaque, transparent Buffers) {
	for y := 0; y < dims.Height; y++ {
		for x := 0; x < dims.Width; x++ {
			for z := 0; z < dims.Depth; z++ {
				self := src.BlockAt(x, y, z)
				if self == block.Air {
					continue
				}
				entry := block.Get(self)
				dst := destFor(self, &opaque, &transparent)

				for faceIndex := 0; faceIndex < 6; faceIndex++ {
					axis, positive, normal := faceAxis(faceIndex)
					nx, ny, nz := x+normal[0], y+normal[1], z+normal[2]
					neighbor := src.BlockAt(nx, ny, nz)
					if !block.ShouldRenderFace(self, neighbor, quality) {
						continue
					}

					uAxis := (axis + 1) % 3
					vAxis := (axis + 2) % 3
					tc := entry.Faces[faceIndex]
					uMin, vMin, extent := tileUV(tc)

					var positions [4][3]float32
					var uvs [4][2]float32
					var aos [4]float32
					var lights [4]float32

					flatSun, flatBlock := flatLightAt(src, nx, ny, nz)

					for corner := 0; corner < 4; corner++ {
						su, sv := cornerSigns(corner)
						cu, cv := (su+1)/2, (sv+1)/2

						pos := [3]float32{float32(x), float32(y), float32(z)}
						if positive {
							pos[axis] += 1
						}
						pos[uAxis] += float32(cu)
						pos[vAxis] += float32(cv)
						positions[corner] = pos

						uvs[corner] = [2]float32{uMin + float32(cu)*extent, vMin + float32(cv)*extent}

						ao, sSun, sBlock := aoAndLightAt(src, nx, ny, nz, uAxis, vAxis, su, sv)
						aos[corner] = ao

						var lightVal uint8
						if smoothLighting {
							lightVal = maxU8(sSun, sBlock)
						} else {
							lightVal = maxU8(flatSun, flatBlock)
						}
						if entry.Emission > 0 {
							lightVal = entry.Emission
						}
						lights[corner] = float32(lightVal)
					}

					appendQuad(dst, positions, uvs, aos, lights, faceIndex)
				}
			}
		}
	}
	return opaque, transparent
}
