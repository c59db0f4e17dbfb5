// Package triangulate implements ear clipping for simple polygons, either in
// the plane or embedded in 3D. Ears are picked by largest interior angle,
// which avoids the thin slivers a first-fit strategy tends to produce.
package triangulate

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/carve/pkg/geom"
)

// ErrMalformedPolygon is returned when no ear can be clipped: the polygon is
// self-intersecting, degenerate, or wound against the declared orientation.
var ErrMalformedPolygon = errors.New("triangulate: malformed polygon")

// node is one entry of the doubly linked vertex ring. Links are indices into
// the arena so the ring can be cut without moving memory.
type node struct {
	idx        int // position in the caller's index list
	prev, next int
	active     bool
}

// Triangulate2 triangulates the simple polygon formed by face, a list of
// indices into pts. The clockwise flag declares the polygon's winding; when
// it does not match the actual winding no ear exists and the call fails.
// Triangles are emitted in ring order. Panics if face has fewer than three
// entries.
func Triangulate2(pts []mgl64.Vec2, face []int, clockwise bool) ([][3]int, error) {
	lifted := make([]mgl64.Vec3, len(pts))
	for i, p := range pts {
		lifted[i] = mgl64.Vec3{p[0], p[1], 0}
	}
	normal := mgl64.Vec3{0, 0, 1}
	if clockwise {
		normal = mgl64.Vec3{0, 0, -1}
	}
	return clip(lifted, face, normal, false)
}

// Triangulate triangulates a polygon embedded in 3D. The reference normal is
// computed once with Newell's method, so the polygon may be slightly
// non-planar. When clockwise is set the emitted triangles are reversed to
// face the other way. Panics if face has fewer than three entries.
func Triangulate(pts []mgl64.Vec3, face []int, clockwise bool) ([][3]int, error) {
	ring := make([]mgl64.Vec3, len(face))
	for i, v := range face {
		ring[i] = pts[v]
	}
	normal, ok := geom.NewellNormal(ring)
	if !ok {
		return nil, fmt.Errorf("%w: degenerate polygon", ErrMalformedPolygon)
	}
	return clip(pts, face, normal, clockwise)
}

func clip(pts []mgl64.Vec3, face []int, normal mgl64.Vec3, reverse bool) ([][3]int, error) {
	n := len(face)
	if n < 3 {
		panic(fmt.Sprintf("triangulate: polygon with %d vertices", n))
	}

	ring := make([]node, n)
	for i, v := range face {
		ring[i] = node{
			idx:    v,
			prev:   (i - 1 + n) % n,
			next:   (i + 1) % n,
			active: true,
		}
	}

	out := make([][3]int, 0, n-2)
	remaining := n
	for remaining > 3 {
		ear := findEar(pts, ring, normal)
		if ear < 0 {
			return nil, fmt.Errorf("%w: no ear found with %d vertices remaining", ErrMalformedPolygon, remaining)
		}
		e := &ring[ear]
		out = append(out, [3]int{ring[e.prev].idx, e.idx, ring[e.next].idx})
		ring[e.prev].next = e.next
		ring[e.next].prev = e.prev
		e.active = false
		remaining--
	}

	// Close with the final triangle. Zero area is tolerated, a ring that
	// collapsed onto a sliver still counts, but an inverted triangle means
	// the winding was inconsistent from the start.
	last := -1
	for i := range ring {
		if ring[i].active {
			last = i
			break
		}
	}
	a, b, c := ring[last].prev, last, ring[last].next
	if convexity(pts, ring, b, normal) < -geom.Eps {
		return nil, fmt.Errorf("%w: final triangle inverted", ErrMalformedPolygon)
	}
	out = append(out, [3]int{ring[a].idx, ring[b].idx, ring[c].idx})

	if reverse {
		for i := range out {
			out[i][0], out[i][2] = out[i][2], out[i][0]
		}
	}
	return out, nil
}

// findEar returns the arena index of the clippable vertex with the largest
// interior angle, or -1 when none qualifies.
func findEar(pts []mgl64.Vec3, ring []node, normal mgl64.Vec3) int {
	best := -1
	bestCos := math.Inf(1)
	for i := range ring {
		if !ring[i].active {
			continue
		}
		if convexity(pts, ring, i, normal) <= geom.Eps {
			continue
		}
		if !earEmpty(pts, ring, i, normal) {
			continue
		}
		// Interior angle grows as the cosine shrinks.
		u := pts[ring[ring[i].prev].idx].Sub(pts[ring[i].idx])
		w := pts[ring[ring[i].next].idx].Sub(pts[ring[i].idx])
		c := 1.0
		if denom := u.Len() * w.Len(); denom > 0 {
			c = u.Dot(w) / denom
		}
		if c < bestCos {
			bestCos = c
			best = i
		}
	}
	return best
}

// convexity returns the signed area component of the corner at arena index i
// about the reference normal. Positive means convex.
func convexity(pts []mgl64.Vec3, ring []node, i int, normal mgl64.Vec3) float64 {
	p := pts[ring[ring[i].prev].idx]
	c := pts[ring[i].idx]
	q := pts[ring[ring[i].next].idx]
	return c.Sub(p).Cross(q.Sub(c)).Dot(normal)
}

// earEmpty reports whether no other active vertex obstructs the candidate
// ear triangle.
func earEmpty(pts []mgl64.Vec3, ring []node, i int, normal mgl64.Vec3) bool {
	pi, ci, qi := ring[ring[i].prev].idx, ring[i].idx, ring[ring[i].next].idx
	p, c, q := pts[pi], pts[ci], pts[qi]
	for j := range ring {
		if !ring[j].active || j == i || j == ring[i].prev || j == ring[i].next {
			continue
		}
		x := pts[ring[j].idx]
		if blocksEar(p, c, q, x, normal) {
			return false
		}
	}
	return true
}

// blocksEar reports whether x prevents clipping the triangle (a, b, c).
// Vertices strictly inside block, and so does a vertex sitting exactly on a
// triangle edge: clipping across such a touch point would cover area on the
// far side of it. A vertex coincident with one of the triangle corners is a
// doubled ring position and never blocks.
func blocksEar(a, b, c, x mgl64.Vec3, normal mgl64.Vec3) bool {
	if x.Sub(a).Len() < geom.Eps || x.Sub(b).Len() < geom.Eps || x.Sub(c).Len() < geom.Eps {
		return false
	}
	return edgeSide(a, b, x, normal) > -geom.Eps &&
		edgeSide(b, c, x, normal) > -geom.Eps &&
		edgeSide(c, a, x, normal) > -geom.Eps
}

func edgeSide(a, b, x mgl64.Vec3, normal mgl64.Vec3) float64 {
	return b.Sub(a).Cross(x.Sub(a)).Dot(normal)
}
