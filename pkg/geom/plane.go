package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Plane is an infinite oriented plane in Hesse normal form: the set of points
// p with Dot(Normal, p) == Dist. Normal is kept unit length by the
// constructors.
type Plane struct {
	Normal mgl64.Vec3
	Dist   float64
}

// NewPlane builds a plane from a normal and a point the plane passes through.
// The normal is normalized.
func NewPlane(normal, point mgl64.Vec3) Plane {
	n := normal.Normalize()
	return Plane{Normal: n, Dist: n.Dot(point)}
}

// PlaneFromPoints builds the plane through three points wound
// counter-clockwise about the resulting normal. Returns false when the points
// are collinear within tolerance.
func PlaneFromPoints(a, b, c mgl64.Vec3) (Plane, bool) {
	n := b.Sub(a).Cross(c.Sub(a))
	if n.Len() < Eps {
		return Plane{}, false
	}
	n = n.Normalize()
	return Plane{Normal: n, Dist: n.Dot(a)}, true
}

// Distance returns the signed distance from p to the plane. Positive on the
// normal side.
func (pl Plane) Distance(p mgl64.Vec3) float64 {
	return pl.Normal.Dot(p) - pl.Dist
}

// SideOf classifies p against the plane under the shared tolerance.
func (pl Plane) SideOf(p mgl64.Vec3) Side {
	d := pl.Distance(p)
	switch {
	case d > Eps:
		return Above
	case d < -Eps:
		return Below
	}
	return On
}

// On reports whether p lies on the plane within tolerance.
func (pl Plane) On(p mgl64.Vec3) bool { return pl.SideOf(p) == On }

// Above reports whether p lies strictly on the normal side.
func (pl Plane) Above(p mgl64.Vec3) bool { return pl.SideOf(p) == Above }

// Below reports whether p lies strictly opposite the normal.
func (pl Plane) Below(p mgl64.Vec3) bool { return pl.SideOf(p) == Below }

// Flipped returns the plane with its orientation reversed.
func (pl Plane) Flipped() Plane {
	return Plane{Normal: pl.Normal.Mul(-1), Dist: -pl.Dist}
}

// Project returns p projected orthogonally onto the plane.
func (pl Plane) Project(p mgl64.Vec3) mgl64.Vec3 {
	return p.Sub(pl.Normal.Mul(pl.Distance(p)))
}

// Basis returns two unit vectors spanning the plane. Together with the
// normal they form a right-handed frame (U x V == Normal).
func (pl Plane) Basis() (u, v mgl64.Vec3) {
	// Start from the world axis least aligned with the normal.
	ax := mgl64.Vec3{1, 0, 0}
	if math.Abs(pl.Normal[1]) < math.Abs(pl.Normal[0]) {
		ax = mgl64.Vec3{0, 1, 0}
		if math.Abs(pl.Normal[2]) < math.Abs(pl.Normal[1]) {
			ax = mgl64.Vec3{0, 0, 1}
		}
	} else if math.Abs(pl.Normal[2]) < math.Abs(pl.Normal[0]) {
		ax = mgl64.Vec3{0, 0, 1}
	}
	u = ax.Cross(pl.Normal).Normalize()
	v = pl.Normal.Cross(u)
	return u, v
}
