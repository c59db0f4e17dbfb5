package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Ray is a half line starting at Origin and extending along Dir. Dir is
// expected to be unit length.
type Ray struct {
	Origin mgl64.Vec3
	Dir    mgl64.Vec3
}

// NewRay builds a ray from an origin and a direction. The direction is
// normalized.
func NewRay(origin, dir mgl64.Vec3) Ray {
	return Ray{Origin: origin, Dir: dir.Normalize()}
}

// At returns the point at parameter t along the ray.
func (r Ray) At(t float64) mgl64.Vec3 {
	return r.Origin.Add(r.Dir.Mul(t))
}

// IntersectPlane intersects the ray with a plane. It fails when the ray is
// parallel to the plane within tolerance or when the hit lies behind the
// origin. On success it returns the hit point and the ray parameter.
func (r Ray) IntersectPlane(pl Plane) (mgl64.Vec3, float64, bool) {
	denom := pl.Normal.Dot(r.Dir)
	if math.Abs(denom) < Eps {
		return mgl64.Vec3{}, 0, false
	}
	t := -pl.Distance(r.Origin) / denom
	if t < 0 {
		return mgl64.Vec3{}, 0, false
	}
	return r.At(t), t, true
}

// IntersectAABB performs a slab test against b. It returns the entry
// parameter of the hit, which is zero when the origin is inside the box.
func (r Ray) IntersectAABB(b AABB) (float64, bool) {
	tmin := math.Inf(-1)
	tmax := math.Inf(1)

	for i := 0; i < 3; i++ {
		if math.Abs(r.Dir[i]) < Eps {
			// Parallel to this slab; origin must already be inside it.
			if r.Origin[i] < b.Min[i] || r.Origin[i] > b.Max[i] {
				return 0, false
			}
			continue
		}
		inv := 1.0 / r.Dir[i]
		t1 := (b.Min[i] - r.Origin[i]) * inv
		t2 := (b.Max[i] - r.Origin[i]) * inv
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tmin {
			tmin = t1
		}
		if t2 < tmax {
			tmax = t2
		}
		if tmin > tmax {
			return 0, false
		}
	}
	if tmax < 0 {
		return 0, false
	}
	if tmin < 0 {
		return 0, true
	}
	return tmin, true
}
