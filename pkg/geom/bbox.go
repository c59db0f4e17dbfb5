package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// AABB is an axis-aligned bounding box. The zero value returned by NewAABB is
// inverted and empty, ready to be extended.
type AABB struct {
	Min mgl64.Vec3
	Max mgl64.Vec3
}

// NewAABB returns an empty box that any Extend call will initialize.
func NewAABB() AABB {
	inf := math.Inf(1)
	return AABB{
		Min: mgl64.Vec3{inf, inf, inf},
		Max: mgl64.Vec3{-inf, -inf, -inf},
	}
}

// AABBOf returns the bounding box of a point set.
func AABBOf(pts []mgl64.Vec3) AABB {
	b := NewAABB()
	for _, p := range pts {
		b.Extend(p)
	}
	return b
}

// Extend grows the box to contain p.
func (b *AABB) Extend(p mgl64.Vec3) {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] {
			b.Min[i] = p[i]
		}
		if p[i] > b.Max[i] {
			b.Max[i] = p[i]
		}
	}
}

// IsEmpty reports whether the box contains no points.
func (b AABB) IsEmpty() bool {
	return b.Min[0] > b.Max[0] || b.Min[1] > b.Max[1] || b.Min[2] > b.Max[2]
}

// Center returns the box midpoint.
func (b AABB) Center() mgl64.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Size returns the box extents along each axis.
func (b AABB) Size() mgl64.Vec3 {
	return b.Max.Sub(b.Min)
}

// Union returns the smallest box containing both b and o.
func (b AABB) Union(o AABB) AABB {
	u := b
	u.Extend(o.Min)
	u.Extend(o.Max)
	return u
}

// Contains reports whether p lies inside the box, boundary included.
func (b AABB) Contains(p mgl64.Vec3) bool {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] || p[i] > b.Max[i] {
			return false
		}
	}
	return true
}

// Intersects reports whether the two boxes overlap, touching included.
func (b AABB) Intersects(o AABB) bool {
	for i := 0; i < 3; i++ {
		if b.Max[i] < o.Min[i] || o.Max[i] < b.Min[i] {
			return false
		}
	}
	return true
}

// SideOfPlane classifies the whole box against a plane. On means the box
// straddles or touches the plane.
func (b AABB) SideOfPlane(pl Plane) Side {
	c := b.Center()
	h := b.Size().Mul(0.5)
	// Projected radius of the box onto the plane normal.
	r := h[0]*math.Abs(pl.Normal[0]) + h[1]*math.Abs(pl.Normal[1]) + h[2]*math.Abs(pl.Normal[2])
	d := pl.Distance(c)
	switch {
	case d > r+Eps:
		return Above
	case d < -r-Eps:
		return Below
	}
	return On
}

// IntersectsPlane reports whether the plane passes through the box.
func (b AABB) IntersectsPlane(pl Plane) bool {
	return b.SideOfPlane(pl) == On
}

// OBB is an oriented bounding box given by a center, three unit axes, and the
// half extent along each axis.
type OBB struct {
	Center mgl64.Vec3
	Axis   [3]mgl64.Vec3
	Half   mgl64.Vec3
}

// OBBFromAABB wraps an axis-aligned box in an oriented one.
func OBBFromAABB(b AABB) OBB {
	return OBB{
		Center: b.Center(),
		Axis:   [3]mgl64.Vec3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
		Half:   b.Size().Mul(0.5),
	}
}

// Transformed returns the box carried through an affine transform. Scale is
// absorbed into the half extents so the axes stay unit length.
func (o OBB) Transformed(m mgl64.Mat4) OBB {
	lin := m.Mat3()
	out := OBB{Center: m.Mul4x1(o.Center.Vec4(1)).Vec3()}
	for i := 0; i < 3; i++ {
		a := lin.Mul3x1(o.Axis[i].Mul(o.Half[i]))
		l := a.Len()
		out.Half[i] = l
		if l < Eps {
			out.Axis[i] = o.Axis[i]
			continue
		}
		out.Axis[i] = a.Mul(1 / l)
	}
	return out
}

// IntersectsPlane reports whether the plane passes through the box.
func (o OBB) IntersectsPlane(pl Plane) bool {
	r := o.Half[0]*math.Abs(o.Axis[0].Dot(pl.Normal)) +
		o.Half[1]*math.Abs(o.Axis[1].Dot(pl.Normal)) +
		o.Half[2]*math.Abs(o.Axis[2].Dot(pl.Normal))
	return math.Abs(pl.Distance(o.Center)) <= r+Eps
}

// Intersects runs the separating axis test between two oriented boxes: the
// three face axes of each box and the nine pairwise edge cross products. The
// usual epsilon padding on the rotation matrix keeps near-parallel edge pairs
// from producing a phantom separating axis.
func (o OBB) Intersects(p OBB) bool {
	var r, absR [3][3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[i][j] = o.Axis[i].Dot(p.Axis[j])
			absR[i][j] = math.Abs(r[i][j]) + Eps
		}
	}

	d := p.Center.Sub(o.Center)
	// Translation in o's frame.
	t := [3]float64{d.Dot(o.Axis[0]), d.Dot(o.Axis[1]), d.Dot(o.Axis[2])}

	// Axes of o.
	for i := 0; i < 3; i++ {
		ra := o.Half[i]
		rb := p.Half[0]*absR[i][0] + p.Half[1]*absR[i][1] + p.Half[2]*absR[i][2]
		if math.Abs(t[i]) > ra+rb {
			return false
		}
	}

	// Axes of p.
	for j := 0; j < 3; j++ {
		ra := o.Half[0]*absR[0][j] + o.Half[1]*absR[1][j] + o.Half[2]*absR[2][j]
		rb := p.Half[j]
		if math.Abs(t[0]*r[0][j]+t[1]*r[1][j]+t[2]*r[2][j]) > ra+rb {
			return false
		}
	}

	// Cross products of each edge pair.
	for i := 0; i < 3; i++ {
		i1, i2 := (i+1)%3, (i+2)%3
		for j := 0; j < 3; j++ {
			j1, j2 := (j+1)%3, (j+2)%3
			ra := o.Half[i1]*absR[i2][j] + o.Half[i2]*absR[i1][j]
			rb := p.Half[j1]*absR[i][j2] + p.Half[j2]*absR[i][j1]
			if math.Abs(t[i2]*r[i1][j]-t[i1]*r[i2][j]) > ra+rb {
				return false
			}
		}
	}
	return true
}
