// Package geom provides the geometric primitives shared across the kernel:
// planes, rays, bounding volumes, and polygon helpers, all classified against
// a single absolute tolerance.
package geom

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Eps is the absolute tolerance used for every plane-side classification and
// intersection test in this module. The triangulator, skeleton, and mesh
// splitting all branch on it, so it must not be changed independently of them.
const Eps = 1e-7

// Side classifies a point relative to an oriented plane.
type Side int8

// The three plane-side classes. Below is the side the normal points away
// from, Above the side it points toward.
const (
	Below Side = iota - 1
	On
	Above
)

func (s Side) String() string {
	switch s {
	case Below:
		return "below"
	case On:
		return "on"
	case Above:
		return "above"
	}
	return "invalid"
}

// Cross2 returns the z component of the cross product of two 2D vectors.
// Positive when b lies counter-clockwise from a.
func Cross2(a, b mgl64.Vec2) float64 {
	return a[0]*b[1] - a[1]*b[0]
}
