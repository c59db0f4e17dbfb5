package geom

import (
	"github.com/go-gl/mathgl/mgl64"
)

// NewellNormal computes the unit normal of a possibly non-planar polygon
// using Newell's method. The normal follows the right-hand rule for the
// given vertex order. Returns false when the polygon is degenerate.
func NewellNormal(pts []mgl64.Vec3) (mgl64.Vec3, bool) {
	var n mgl64.Vec3
	for i, p := range pts {
		q := pts[(i+1)%len(pts)]
		n[0] += (p[1] - q[1]) * (p[2] + q[2])
		n[1] += (p[2] - q[2]) * (p[0] + q[0])
		n[2] += (p[0] - q[0]) * (p[1] + q[1])
	}
	if n.Len() < Eps {
		return mgl64.Vec3{}, false
	}
	return n.Normalize(), true
}

// SignedArea returns the signed area of a 2D polygon, positive for
// counter-clockwise winding.
func SignedArea(pts []mgl64.Vec2) float64 {
	var a float64
	for i, p := range pts {
		q := pts[(i+1)%len(pts)]
		a += Cross2(p, q)
	}
	return a / 2
}

// IsCCW reports whether a 2D polygon winds counter-clockwise.
func IsCCW(pts []mgl64.Vec2) bool {
	return SignedArea(pts) > 0
}

// Area3 returns the signed area of a polygon embedded in 3D, measured about
// the given unit normal. Positive when the polygon winds counter-clockwise
// as seen from the normal side.
func Area3(pts []mgl64.Vec3, normal mgl64.Vec3) float64 {
	var s mgl64.Vec3
	for i, p := range pts {
		q := pts[(i+1)%len(pts)]
		s = s.Add(p.Cross(q))
	}
	return s.Dot(normal) / 2
}

// Centroid2 returns the area centroid of a simple 2D polygon. Falls back to
// the vertex average when the area vanishes.
func Centroid2(pts []mgl64.Vec2) mgl64.Vec2 {
	var c mgl64.Vec2
	var a float64
	for i, p := range pts {
		q := pts[(i+1)%len(pts)]
		w := Cross2(p, q)
		a += w
		c = c.Add(p.Add(q).Mul(w))
	}
	if a > -Eps && a < Eps {
		var avg mgl64.Vec2
		for _, p := range pts {
			avg = avg.Add(p)
		}
		return avg.Mul(1 / float64(len(pts)))
	}
	return c.Mul(1 / (3 * a))
}
