package skeleton

import (
	"errors"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/Faultbox/carve/pkg/geom"
	"github.com/Faultbox/carve/pkg/triangulate"
)

// ErrBadPitch reports a roof pitch outside the open interval (0, pi/2).
var ErrBadPitch = errors.New("skeleton: roof pitch must lie strictly between 0 and pi/2")

// RoofOptions control roof generation from a skeleton.
type RoofOptions struct {
	// Angle is the roof pitch in radians, strictly between 0 and pi/2.
	Angle float64
	// Gable converts qualifying hip ends into vertical gable faces.
	Gable bool
	// Overhang pushes eave and gable vertices outward by this plan
	// distance. Zero or negative means none.
	Overhang float64
	// Triangulate replaces each slanted panel with triangles.
	Triangulate bool
}

// Roof is a 3D polygon soup generated from a skeleton: the plan lives in the
// xy plane and roof height extends along +z. Faces holds one slanted panel
// per boundary edge (triangles instead when requested) followed by the
// bottom face; Bottom aliases that final face.
type Roof struct {
	Positions []mgl64.Vec3
	Faces     [][]int
	Bottom    []int
}

// MakeRoof builds a pitched roof over the skeleton's footprint. Every
// skeleton vertex is lifted by tan(angle) times its boundary distance and
// the slanted panels are recovered by walking the arc graph, one panel per
// boundary edge. Panels that fail to close are skipped with a diagnostic.
func MakeRoof(s *Skeleton, opts RoofOptions) (*Roof, error) {
	if opts.Angle <= 0 || opts.Angle >= math.Pi/2 {
		return nil, ErrBadPitch
	}
	lift := math.Tan(opts.Angle)
	plan := s.Positions()
	dists := s.Distances()

	pos := make([]mgl64.Vec3, len(plan))
	for i, p := range plan {
		pos[i] = mgl64.Vec3{p[0], p[1], lift * dists[i]}
	}

	w := &faceWalker{s: s, consumed: make(map[[2]int]bool)}
	var faces [][]int
	for _, ring := range s.Rings() {
		for i := range ring {
			a, b := ring[i], ring[(i+1)%len(ring)]
			if w.consumed[[2]int{a, b}] {
				continue
			}
			panel, ok := w.walk(a, b)
			if !ok {
				zap.L().Warn("skeleton: roof panel failed to close",
					zap.Int("from", a), zap.Int("to", b))
				continue
			}
			faces = append(faces, panel)
		}
	}

	var gabled map[int][2]int
	if opts.Gable && len(s.Arcs()) > 4 {
		gabled = applyGables(s, pos)
	}
	if opts.Overhang > 0 {
		applyOverhang(s, pos, gabled, opts.Overhang)
	}

	if opts.Triangulate {
		var tris [][]int
		for _, panel := range faces {
			ts, err := triangulate.Triangulate(pos, panel, false)
			if err != nil {
				zap.L().Warn("skeleton: roof panel not triangulable",
					zap.Int("corners", len(panel)), zap.Error(err))
				tris = append(tris, panel)
				continue
			}
			for _, t := range ts {
				tris = append(tris, []int{t[0], t[1], t[2]})
			}
		}
		faces = tris
	}

	outer := s.Rings()[0]
	bottom := make([]int, len(outer))
	for i, v := range outer {
		bottom[len(outer)-1-i] = v
	}
	faces = append(faces, bottom)

	return &Roof{Positions: pos, Faces: faces, Bottom: bottom}, nil
}

// faceWalker traces roof panels over the skeleton graph. From a boundary
// edge it repeatedly takes the most counter-clockwise turn at each node
// until the loop returns to the start vertex; every directed edge belongs to
// exactly one panel, so traversed edges are retired globally. Zero-length
// arcs between coincident event vertices carry no direction of their own
// and are aimed at the far vertex's remaining fan instead; the incoming
// direction survives their traversal.
type faceWalker struct {
	s        *Skeleton
	consumed map[[2]int]bool
}

func (w *faceWalker) walk(a, b int) ([]int, bool) {
	plan := w.s.Positions()
	face := []int{a}
	w.consumed[[2]int{a, b}] = true
	prev, cur := a, b
	dir := plan[b].Sub(plan[a])
	if l := dir.Len(); l > geom.Eps {
		dir = dir.Mul(1 / l)
	}
	for steps := 0; cur != a; steps++ {
		if steps > 4*len(plan) {
			return nil, false
		}
		face = append(face, cur)
		next, ok := w.pickNext(prev, cur, dir)
		if !ok {
			return nil, false
		}
		w.consumed[[2]int{cur, next}] = true
		if d := plan[next].Sub(plan[cur]); d.Len() > geom.Eps {
			dir = d.Normalize()
		}
		prev, cur = cur, next
	}
	return face, true
}

func (w *faceWalker) pickNext(prev, cur int, dir mgl64.Vec2) (int, bool) {
	plan := w.s.Positions()
	best, bestAngle := -1, 0.0
	for _, c := range w.s.Neighbors()[cur] {
		if c == prev || w.consumed[[2]int{cur, c}] {
			continue
		}
		d := plan[c].Sub(plan[cur])
		if d.Len() < geom.Eps {
			d = w.splayDirection(c, cur)
			if d.Len() < geom.Eps {
				continue
			}
		}
		ang := math.Atan2(geom.Cross2(dir, d), dir.Dot(d))
		if best < 0 || ang > bestAngle {
			best, bestAngle = c, ang
		}
	}
	if best >= 0 {
		return best, true
	}
	if prev >= 0 && !w.consumed[[2]int{cur, prev}] {
		return prev, true
	}
	return -1, false
}

// splayDirection estimates where a vertex coincident with cur really sits in
// the face fan: toward the average of its other neighbors.
func (w *faceWalker) splayDirection(c, cur int) mgl64.Vec2 {
	plan := w.s.Positions()
	var sum mgl64.Vec2
	for _, x := range w.s.Neighbors()[c] {
		if x == cur {
			continue
		}
		d := plan[x].Sub(plan[c])
		if l := d.Len(); l > geom.Eps {
			sum = sum.Add(d.Mul(1 / l))
		}
	}
	return sum
}

// applyGables moves qualifying hip tips into the vertical plane of their
// eave edge. A tip qualifies when its only boundary arc-neighbors are the
// two endpoints of one non-reflex boundary edge; the move keeps the lifted
// height, which turns the triangular hip panel into a vertical gable face.
func applyGables(s *Skeleton, pos []mgl64.Vec3) map[int][2]int {
	arcNb := make(map[int][]int)
	for _, a := range s.Arcs() {
		arcNb[a[0]] = append(arcNb[a[0]], a[1])
		arcNb[a[1]] = append(arcNb[a[1]], a[0])
	}
	plan := s.Positions()
	gabled := make(map[int][2]int)
	for _, ring := range s.Rings() {
		for i := range ring {
			u, v := ring[i], ring[(i+1)%len(ring)]
			if s.IsReflex(u) || s.IsReflex(v) {
				continue
			}
			t := commonTip(arcNb, u, v, s.BoundaryCount())
			if t < 0 {
				continue
			}
			if _, done := gabled[t]; done {
				continue
			}
			a, d := plan[u], plan[v].Sub(plan[u])
			l2 := d.Dot(d)
			if l2 < geom.Eps*geom.Eps {
				continue
			}
			fr := mgl64.Vec2{pos[t][0], pos[t][1]}.Sub(a).Dot(d) / l2
			fr = math.Max(0, math.Min(1, fr))
			q := a.Add(d.Mul(fr))
			pos[t][0], pos[t][1] = q[0], q[1]
			gabled[t] = [2]int{u, v}
		}
	}
	return gabled
}

// commonTip returns the interior vertex whose boundary arc-neighbors are
// exactly u and v, or -1.
func commonTip(arcNb map[int][]int, u, v, nBoundary int) int {
	for _, t := range arcNb[u] {
		if t < nBoundary {
			continue
		}
		linked, boundary := false, 0
		for _, x := range arcNb[t] {
			if x < nBoundary {
				boundary++
				if x == v {
					linked = true
				}
			}
		}
		if linked && boundary == 2 {
			return t
		}
	}
	return -1
}

// applyOverhang pushes the eaves outward in the plan, boundary vertices
// along the normalized average of their two edge normals and gabled tips
// along the normal of their eave edge. Heights are unaffected.
func applyOverhang(s *Skeleton, pos []mgl64.Vec3, gabled map[int][2]int, dist float64) {
	plan := s.Positions()
	for _, ring := range s.Rings() {
		n := len(ring)
		for i := 0; i < n; i++ {
			prev := plan[ring[(i-1+n)%n]]
			cur := plan[ring[i]]
			next := plan[ring[(i+1)%n]]
			sum := outwardNormal(prev, cur).Add(outwardNormal(cur, next))
			if sum.Len() < geom.Eps {
				continue
			}
			off := sum.Normalize().Mul(dist)
			pos[ring[i]][0] += off[0]
			pos[ring[i]][1] += off[1]
		}
	}
	for t, eave := range gabled {
		off := outwardNormal(plan[eave[0]], plan[eave[1]]).Mul(dist)
		pos[t][0] += off[0]
		pos[t][1] += off[1]
	}
}

// outwardNormal is the right-hand normal of a boundary edge, which points
// away from the interior for counter-clockwise outer rings and clockwise
// holes alike.
func outwardNormal(a, b mgl64.Vec2) mgl64.Vec2 {
	d := b.Sub(a)
	if l := d.Len(); l > geom.Eps {
		d = d.Mul(1 / l)
	}
	return mgl64.Vec2{d[1], -d[0]}
}
