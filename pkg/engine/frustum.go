package engine

import "github.com/go-gl/mathgl/mgl32"

// plane is one half-space of a view frustum in world space, normal pointing
// inward: normal.Dot(p) + d >= 0 for any point p inside the half-space.
type plane struct {
	normal mgl32.Vec3
	d      float32
}

// signedDistanceToPVertex evaluates the plane at the AABB's "positive
// vertex" — the corner furthest along the plane's normal. If that corner is
// still outside the plane, the whole box is (§4.8's p-vertex test).
func (p plane) signedDistanceToPVertex(min, max mgl32.Vec3) float32 {
	px, py, pz := min.X(), min.Y(), min.Z()
	if p.normal.X() >= 0 {
		px = max.X()
	}
	if p.normal.Y() >= 0 {
		py = max.Y()
	}
	if p.normal.Z() >= 0 {
		pz = max.Z()
	}
	return p.normal.X()*px + p.normal.Y()*py + p.normal.Z()*pz + p.d
}

// frustum is the six planes (left, right, bottom, top, near, far) extracted
// from a combined projection-view matrix.
type frustum [6]plane

// extractFrustum builds a frustum via the Gribb-Hartmann method: each plane
// is a signed row-sum of the combined matrix, normalized so the p-vertex
// test's distances are in world units (§4.8).
func extractFrustum(projView mgl32.Mat4) frustum {
	row := func(i int) mgl32.Vec4 {
		return mgl32.Vec4{projView[i], projView[4+i], projView[8+i], projView[12+i]}
	}
	r0, r1, r2, r3 := row(0), row(1), row(2), row(3)

	build := func(a, b mgl32.Vec4, sign float32) plane {
		v := a.Add(b.Mul(sign))
		n := mgl32.Vec3{v[0], v[1], v[2]}
		length := n.Len()
		if length == 0 {
			return plane{}
		}
		return plane{normal: n.Mul(1 / length), d: v[3] / length}
	}

	return frustum{
		build(r3, r0, 1),  // left
		build(r3, r0, -1), // right
		build(r3, r1, 1),  // bottom
		build(r3, r1, -1), // top
		build(r3, r2, 1),  // near
		build(r3, r2, -1), // far
	}
}

// contains reports whether the AABB [min, max] intersects or lies inside
// every plane of f — a single p-vertex failure is enough to cull the box.
func (f frustum) contains(min, max mgl32.Vec3) bool {
	for _, p := range f {
		if p.signedDistanceToPVertex(min, max) < 0 {
			return false
		}
	}
	return true
}
