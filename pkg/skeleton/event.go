package skeleton

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/carve/pkg/geom"
)

type eventKind uint8

const (
	edgeEvent eventKind = iota
	splitEvent
)

// event is a predicted wavefront collision. Edge events name the two
// adjacent vertices whose bisectors meet, split events name the reflex
// vertex and the boundary edge it crashes into.
type event struct {
	kind  eventKind
	point mgl64.Vec2
	dist  float64
	va    int // edge: first vertex of the collapsing pair; split: the reflex vertex
	vb    int // edge: second vertex of the pair; split: -1
	opp   int // split: opposite boundary edge; edge: -1

	// Index is the position in the queue, maintained by the heap methods.
	Index int
}

// eventQueue is a min-heap of events ordered by wavefront distance.
type eventQueue []*event

func (q eventQueue) Len() int { return len(q) }

func (q eventQueue) Less(i, j int) bool {
	return q[i].dist < q[j].dist
}

func (q eventQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].Index = i
	q[j].Index = j
}

func (q *eventQueue) Push(x any) {
	ev := x.(*event)
	ev.Index = len(*q)
	*q = append(*q, ev)
}

func (q *eventQueue) Pop() any {
	old := *q
	n := len(old)
	ev := old[n-1]
	old[n-1] = nil
	ev.Index = -1
	*q = old[:n-1]
	return ev
}

// intersectRays returns the intersection of two forward rays. Fails when the
// rays are parallel or the intersection lies behind either origin.
func intersectRays(o1, d1, o2, d2 mgl64.Vec2) (mgl64.Vec2, bool) {
	denom := geom.Cross2(d1, d2)
	if math.Abs(denom) < geom.Eps {
		return mgl64.Vec2{}, false
	}
	w := o2.Sub(o1)
	t := geom.Cross2(w, d2) / denom
	s := geom.Cross2(w, d1) / denom
	if t < -geom.Eps || s < -geom.Eps {
		return mgl64.Vec2{}, false
	}
	return o1.Add(d1.Mul(t)), true
}

// intersectLines returns the intersection of two infinite lines. Fails when
// they are parallel.
func intersectLines(o1, d1, o2, d2 mgl64.Vec2) (mgl64.Vec2, bool) {
	denom := geom.Cross2(d1, d2)
	if math.Abs(denom) < geom.Eps {
		return mgl64.Vec2{}, false
	}
	t := geom.Cross2(o2.Sub(o1), d2) / denom
	return o1.Add(d1.Mul(t)), true
}

// edgeDist returns the signed perpendicular distance from p to the
// supporting line of boundary edge e. Positive on the interior side.
func (b *builder) edgeDist(p mgl64.Vec2, e int) float64 {
	ed := &b.edges[e]
	return geom.Cross2(ed.dir, p.Sub(ed.origin))
}

// predictEdgeEvent proposes the collapse of the wavefront edge between two
// LAV-adjacent vertices, where their bisector rays meet.
func (b *builder) predictEdgeEvent(va, vb int) *event {
	a, c := &b.verts[va], &b.verts[vb]
	if !a.hasBisector || !c.hasBisector {
		return nil
	}
	p, ok := intersectRays(a.pos, a.bisector, c.pos, c.bisector)
	if !ok {
		return nil
	}
	d := b.edgeDist(p, a.edgeRight)
	if d < -geom.Eps {
		return nil
	}
	if d < 0 {
		d = 0
	}
	return &event{kind: edgeEvent, point: p, dist: d, va: va, vb: vb, opp: -1}
}

// predictSplitEvents proposes split events for a reflex vertex: for every
// non-adjacent boundary edge, the point where the vertex bisector meets the
// wavefront of that edge. Only the nearest candidates within tolerance are
// kept.
func (b *builder) predictSplitEvents(v int) []*event {
	r := &b.verts[v]
	if !r.reflex || !r.hasBisector {
		return nil
	}

	var cands []*event
	for e := range b.edges {
		if e == r.edgeLeft || e == r.edgeRight {
			continue
		}
		if ev := b.splitCandidate(v, e); ev != nil {
			cands = append(cands, ev)
		}
	}
	if len(cands) == 0 {
		return nil
	}

	best := math.Inf(1)
	for _, ev := range cands {
		if ev.dist < best {
			best = ev.dist
		}
	}
	out := cands[:0]
	for _, ev := range cands {
		if ev.dist <= best+geom.Eps {
			out = append(out, ev)
		}
	}
	return out
}

// splitCandidate evaluates one reflex vertex against one opposite edge.
func (b *builder) splitCandidate(v, e int) *event {
	r := &b.verts[v]
	ed := &b.edges[e]

	// Meet point of the opposite edge line with one of the vertex's own
	// edge lines; prefer the left edge, fall back to the right one when
	// parallel.
	self := &b.edges[r.edgeLeft]
	i, ok := intersectLines(self.origin, self.dir, ed.origin, ed.dir)
	if !ok {
		self = &b.edges[r.edgeRight]
		i, ok = intersectLines(self.origin, self.dir, ed.origin, ed.dir)
		if !ok {
			return nil
		}
	}
	lin := r.pos.Sub(i)
	if lin.Len() < geom.Eps {
		return nil
	}
	lin = lin.Normalize()

	// The corner at the meet point has two angle bisectors; the collision
	// point lies where the vertex's own bisector ray crosses one of them,
	// on the interior side of the edge and inside its sweep zone. Try both
	// orientations and keep the nearer valid hit.
	var best *event
	for _, sign := range []float64{1, -1} {
		bis := lin.Add(ed.dir.Mul(sign))
		if bis.Len() < geom.Eps {
			continue
		}
		p, ok := intersectRays(r.pos, r.bisector, i, bis.Normalize())
		if !ok {
			continue
		}
		d := b.edgeDist(p, e)
		if d < geom.Eps || !b.insideEdgeZone(p, e) {
			continue
		}
		if best == nil || d < best.dist {
			best = &event{kind: splitEvent, point: p, dist: d, va: v, vb: -1, opp: e}
		}
	}
	return best
}

// insideEdgeZone reports whether p lies in the region swept by edge e,
// bounded by the bisector rays at the edge endpoints. When an endpoint
// bisector is degenerate or parallel to the edge the test falls back to
// requiring p to project strictly between the endpoints.
func (b *builder) insideEdgeZone(p mgl64.Vec2, e int) bool {
	ed := &b.edges[e]

	projectionFallback := func() bool {
		t := p.Sub(ed.origin).Dot(ed.dir)
		return t > geom.Eps && t < ed.length-geom.Eps
	}

	if ed.fromBis.Len() < geom.Eps || math.Abs(geom.Cross2(ed.fromBis, ed.dir)) < geom.Eps {
		if !projectionFallback() {
			return false
		}
	} else if geom.Cross2(ed.fromBis, p.Sub(ed.origin)) > geom.Eps {
		return false
	}

	end := ed.origin.Add(ed.dir.Mul(ed.length))
	if ed.toBis.Len() < geom.Eps || math.Abs(geom.Cross2(ed.toBis, ed.dir)) < geom.Eps {
		if !projectionFallback() {
			return false
		}
	} else if geom.Cross2(ed.toBis, p.Sub(end)) < -geom.Eps {
		return false
	}
	return true
}
