// Package skeleton computes the straight skeleton of a simple polygon with
// optional holes. The boundary is shrunk inward at uniform speed; vertices
// travel along angle bisectors and the collisions (edge collapses and reflex
// splits) are replayed from a priority queue in the manner of Felkel and
// Obdržálek. The result is an arc graph over the boundary vertices plus the
// interior vertices created by the collisions, with the perpendicular
// distance to the boundary recorded for every vertex.
package skeleton

import (
	"container/heap"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/Faultbox/carve/pkg/geom"
)

var (
	// ErrBadPolygon reports input rings that cannot seed a wavefront.
	ErrBadPolygon = errors.New("skeleton: bad polygon")
	// ErrNoConvergence reports a wavefront that failed to collapse. Seen
	// only on near-degenerate input that defeats the event tolerances.
	ErrNoConvergence = errors.New("skeleton: wavefront did not converge")
)

const maxIterations = 100000

// boundaryEdge is one input polygon edge. The wavefront offsets its
// supporting line inward; fromBis and toBis are the seed bisectors at its
// endpoints and bound the region the edge sweeps.
type boundaryEdge struct {
	from, to int // boundary position indices
	origin   mgl64.Vec2
	dir      mgl64.Vec2 // unit, from -> to
	length   float64
	fromBis  mgl64.Vec2
	toBis    mgl64.Vec2
}

// lavVertex is a node of a list of active vertices. Nodes live in a single
// arena slice and link to each other by index, so rings survive slice growth
// and consumed nodes are simply marked rather than unlinked.
type lavVertex struct {
	pos         mgl64.Vec2
	posIdx      int
	prev, next  int
	edgeLeft    int // boundary edge arriving at the vertex
	edgeRight   int // boundary edge leaving it
	bisector    mgl64.Vec2
	hasBisector bool
	reflex      bool
	marked      bool
}

// Skeleton is the finished arc graph. The first BoundaryCount positions are
// the input vertices in seeding order (outer ring first, then holes); the
// rest were created by wavefront collisions. Accessors expose internal
// slices, which callers must not mutate; a Skeleton is immutable once built.
type Skeleton struct {
	positions []mgl64.Vec2
	distances []float64
	arcs      [][2]int
	neighbors [][]int
	reflex    []bool
	rings     [][]int
	nBoundary int
}

// Positions returns every skeleton vertex position.
func (s *Skeleton) Positions() []mgl64.Vec2 { return s.positions }

// Distances returns the perpendicular distance from each position to the
// boundary. Boundary vertices carry zero.
func (s *Skeleton) Distances() []float64 { return s.distances }

// Arcs returns the skeleton arcs as pairs of position indices.
func (s *Skeleton) Arcs() [][2]int { return s.arcs }

// Neighbors returns the adjacency list over positions, covering both the
// boundary rings and the arcs.
func (s *Skeleton) Neighbors() [][]int { return s.neighbors }

// BoundaryCount returns the number of input boundary vertices.
func (s *Skeleton) BoundaryCount() int { return s.nBoundary }

// Rings returns the input rings as position index lists, outer ring first.
func (s *Skeleton) Rings() [][]int { return s.rings }

// IsReflex reports whether position i is a reflex boundary vertex.
func (s *Skeleton) IsReflex(i int) bool { return i < len(s.reflex) && s.reflex[i] }

type builder struct {
	verts     []lavVertex
	edges     []boundaryEdge
	positions []mgl64.Vec2
	distances []float64
	arcs      [][2]int
	rings     [][]int
	queue     eventQueue
	fresh     []int // vertices created by the subgroup being processed
	nBoundary int

	// Interior positions below this mark existed before the current
	// subgroup and may be reused by it.
	subgroupBase int
}

// Build computes the straight skeleton of the outer ring with the given hole
// rings. The outer ring must wind counter-clockwise and holes clockwise;
// consecutive duplicate vertices are dropped.
func Build(outer []mgl64.Vec2, holes ...[]mgl64.Vec2) (*Skeleton, error) {
	outer = dedupRing(outer)
	if len(outer) < 3 {
		return nil, fmt.Errorf("%w: outer ring needs at least three distinct vertices", ErrBadPolygon)
	}
	if geom.SignedArea(outer) <= 0 {
		return nil, fmt.Errorf("%w: outer ring must wind counter-clockwise", ErrBadPolygon)
	}

	b := &builder{}
	b.seedRing(outer)
	for hi, hole := range holes {
		hole = dedupRing(hole)
		if len(hole) < 3 {
			return nil, fmt.Errorf("%w: hole %d needs at least three distinct vertices", ErrBadPolygon, hi)
		}
		if geom.SignedArea(hole) >= 0 {
			return nil, fmt.Errorf("%w: hole %d must wind clockwise", ErrBadPolygon, hi)
		}
		b.seedRing(hole)
	}
	b.nBoundary = len(b.positions)

	for v := range b.verts {
		b.computeBisector(v)
	}
	// Boundary vertices occupy arena slots matching their position indices,
	// so the edge endpoint bisectors can be copied over directly.
	for e := range b.edges {
		ed := &b.edges[e]
		ed.fromBis = b.verts[ed.from].bisector
		ed.toBis = b.verts[ed.to].bisector
	}

	reflex := make([]bool, len(b.positions))
	for v := range b.verts {
		reflex[b.verts[v].posIdx] = b.verts[v].reflex
	}

	b.seedEvents()
	if err := b.run(); err != nil {
		return nil, err
	}

	reflex = append(reflex, make([]bool, len(b.positions)-len(reflex))...)
	return &Skeleton{
		positions: b.positions,
		distances: b.distances,
		arcs:      b.arcs,
		neighbors: b.neighborsTable(),
		reflex:    reflex,
		rings:     b.rings,
		nBoundary: b.nBoundary,
	}, nil
}

func dedupRing(pts []mgl64.Vec2) []mgl64.Vec2 {
	out := make([]mgl64.Vec2, 0, len(pts))
	for _, p := range pts {
		if len(out) > 0 && p.Sub(out[len(out)-1]).Len() < geom.Eps {
			continue
		}
		out = append(out, p)
	}
	for len(out) > 1 && out[len(out)-1].Sub(out[0]).Len() < geom.Eps {
		out = out[:len(out)-1]
	}
	return out
}

// seedRing appends one ring's vertices and edges to the arena. Vertex arena
// indices, position indices and edge indices advance in lockstep.
func (b *builder) seedRing(pts []mgl64.Vec2) {
	base := len(b.verts)
	ebase := len(b.edges)
	n := len(pts)
	ring := make([]int, n)
	for i, p := range pts {
		ring[i] = len(b.positions)
		b.positions = append(b.positions, p)
		b.distances = append(b.distances, 0)
		b.verts = append(b.verts, lavVertex{
			pos:       p,
			posIdx:    ring[i],
			prev:      base + (i-1+n)%n,
			next:      base + (i+1)%n,
			edgeLeft:  ebase + (i-1+n)%n,
			edgeRight: ebase + i,
		})
	}
	for i := 0; i < n; i++ {
		d := pts[(i+1)%n].Sub(pts[i])
		l := d.Len()
		b.edges = append(b.edges, boundaryEdge{
			from:   ring[i],
			to:     ring[(i+1)%n],
			origin: pts[i],
			dir:    d.Mul(1 / l),
			length: l,
		})
	}
	b.rings = append(b.rings, ring)
}

// computeBisector derives the vertex's travel direction from its two edge
// directions. Reflex corners point the bisector outward from the angle, and
// parallel adjacent edges leave the vertex without a usable bisector.
func (b *builder) computeBisector(v int) {
	vert := &b.verts[v]
	dl := b.edges[vert.edgeLeft].dir
	dr := b.edges[vert.edgeRight].dir
	vert.reflex = geom.Cross2(dl, dr) < -geom.Eps
	sum := dr.Sub(dl)
	if sum.Len() < geom.Eps {
		vert.bisector = mgl64.Vec2{}
		vert.hasBisector = false
		return
	}
	bis := sum.Normalize()
	if vert.reflex {
		bis = bis.Mul(-1)
	}
	vert.bisector = bis
	vert.hasBisector = true
}

func (b *builder) seedEvents() {
	for v := range b.verts {
		if ev := b.predictEdgeEvent(v, b.verts[v].next); ev != nil {
			heap.Push(&b.queue, ev)
		}
	}
	for v := range b.verts {
		for _, ev := range b.predictSplitEvents(v) {
			heap.Push(&b.queue, ev)
		}
	}
}

// run drains the event queue. Events within tolerance of the nearest
// distance form one group; the group is then handled one shared intersection
// position at a time, which is the order the original comparisons require.
func (b *builder) run() error {
	for iter := 0; b.queue.Len() > 0; iter++ {
		if iter > maxIterations {
			return ErrNoConvergence
		}
		ev := heap.Pop(&b.queue).(*event)
		if !b.eventValid(ev) {
			continue
		}
		group := []*event{ev}
		for b.queue.Len() > 0 && b.queue[0].dist <= ev.dist+geom.Eps {
			next := heap.Pop(&b.queue).(*event)
			if b.eventValid(next) {
				group = append(group, next)
			}
		}
		for len(group) > 0 {
			at := group[0].point
			var sub, rest []*event
			for _, g := range group {
				if g.point.Sub(at).Len() <= geom.Eps {
					sub = append(sub, g)
				} else {
					rest = append(rest, g)
				}
			}
			b.processSubgroup(sub, at)
			group = rest
		}
	}
	return nil
}

func (b *builder) eventValid(ev *event) bool {
	switch ev.kind {
	case edgeEvent:
		return !b.verts[ev.va].marked && !b.verts[ev.vb].marked &&
			b.verts[ev.va].next == ev.vb
	case splitEvent:
		return !b.verts[ev.va].marked
	}
	return false
}

// processSubgroup applies every event that shares one intersection position.
// Edge events are assembled into chains, ordered clockwise around the
// position together with the surviving split events, then applied. Rings the
// subgroup reduced to two vertices are closed at the end.
func (b *builder) processSubgroup(sub []*event, at mgl64.Vec2) {
	// Events collected with the distance group may have gone stale while an
	// earlier subgroup of the same group was applied.
	valid := sub[:0]
	for _, ev := range sub {
		if b.eventValid(ev) {
			valid = append(valid, ev)
		}
	}
	if len(valid) == 0 {
		return
	}
	dist := valid[0].dist

	var collapses []*event
	inEdge := make(map[int]bool)
	for _, ev := range valid {
		if ev.kind == edgeEvent {
			collapses = append(collapses, ev)
			inEdge[ev.va] = true
			inEdge[ev.vb] = true
		}
	}
	// A reflex vertex consumed by a simultaneous edge collapse no longer
	// splits anything.
	var splits []*event
	for _, ev := range valid {
		if ev.kind == splitEvent && !inEdge[ev.va] {
			splits = append(splits, ev)
		}
	}

	b.subgroupBase = len(b.positions)
	b.fresh = b.fresh[:0]

	type item struct {
		head  int
		chain []int
		split *event
	}
	var items []item
	for _, c := range b.assembleChains(collapses) {
		items = append(items, item{head: c[0], chain: c})
	}
	for _, ev := range splits {
		items = append(items, item{head: ev.va, split: ev})
	}
	sort.SliceStable(items, func(i, j int) bool {
		return b.clockAngle(items[i].head, at) > b.clockAngle(items[j].head, at)
	})

	for _, it := range items {
		if it.split != nil {
			b.applySplit(it.split, at, dist)
		} else {
			b.collapseChain(it.chain, at, dist)
		}
	}
	b.closeSmallRings()
}

func (b *builder) clockAngle(v int, at mgl64.Vec2) float64 {
	d := b.verts[v].pos.Sub(at)
	return math.Atan2(d[1], d[0])
}

// assembleChains joins collapsing wavefront edges that share endpoints into
// contiguous vertex runs. A run is never allowed to cover its entire ring:
// the leftover vertices form their own chain, so a full collapse resolves as
// two skeleton vertices joined by a closing arc.
func (b *builder) assembleChains(events []*event) [][]int {
	type link struct{ va, vb int }
	links := make([]link, len(events))
	for i, ev := range events {
		links[i] = link{ev.va, ev.vb}
	}
	used := make([]bool, len(links))

	var chains [][]int
	for i := range links {
		if used[i] {
			continue
		}
		used[i] = true
		run := []int{links[i].va, links[i].vb}
		limit := b.ringSize(links[i].va)
		for grew := true; grew && len(run)+1 < limit; {
			grew = false
			for j := range links {
				if !used[j] && links[j].va == run[len(run)-1] {
					used[j] = true
					run = append(run, links[j].vb)
					grew = true
					break
				}
			}
		}
		for grew := true; grew && len(run)+1 < limit; {
			grew = false
			for j := range links {
				if !used[j] && links[j].vb == run[0] {
					used[j] = true
					run = append([]int{links[j].va}, run...)
					grew = true
					break
				}
			}
		}
		chains = append(chains, run)
	}
	return chains
}

func (b *builder) ringSize(v int) int {
	n := 1
	for u := b.verts[v].next; u != v; u = b.verts[u].next {
		n++
		if n > len(b.verts) {
			break
		}
	}
	return n
}

// eventPosition returns the position index for a collision at p. Interior
// positions created by earlier subgroups are reused when they coincide with
// p, so simultaneous collisions at one point share a skeleton vertex instead
// of stacking duplicates. Chains within a single subgroup still allocate
// their own vertex each, which keeps the closing arc of a full ring collapse.
func (b *builder) eventPosition(p mgl64.Vec2, dist float64) int {
	for i := b.nBoundary; i < b.subgroupBase; i++ {
		if b.positions[i].Sub(p).Len() <= geom.Eps {
			return i
		}
	}
	b.positions = append(b.positions, p)
	b.distances = append(b.distances, dist)
	return len(b.positions) - 1
}

func (b *builder) addArc(a, c int) {
	if a == c {
		return
	}
	b.arcs = append(b.arcs, [2]int{a, c})
}

// collapseChain consumes the chain's still-active vertices, emits their arcs
// and replaces the run with a single continuation vertex. Chains that lost
// all vertices to earlier chains of the same subgroup dissolve silently.
func (b *builder) collapseChain(run []int, at mgl64.Vec2, dist float64) {
	var act []int
	for _, v := range run {
		if !b.verts[v].marked {
			act = append(act, v)
		}
	}
	if len(act) == 0 {
		return
	}

	posIdx := b.eventPosition(at, dist)
	for _, v := range act {
		b.addArc(posIdx, b.verts[v].posIdx)
		b.verts[v].marked = true
	}

	prevOuter := b.verts[act[0]].prev
	nextOuter := b.verts[act[len(act)-1]].next
	nv := len(b.verts)
	b.verts = append(b.verts, lavVertex{
		pos:       at,
		posIdx:    posIdx,
		prev:      prevOuter,
		next:      nextOuter,
		edgeLeft:  b.verts[act[0]].edgeLeft,
		edgeRight: b.verts[act[len(act)-1]].edgeRight,
	})
	b.verts[prevOuter].next = nv
	b.verts[nextOuter].prev = nv
	b.computeBisector(nv)
	b.fresh = append(b.fresh, nv)
	b.pushVertexEvents(nv)
}

// applySplit retires the reflex vertex and reconnects the wavefront along
// the opposite edge: splitting a ring in two when the opposite segment is on
// the same ring, or merging two rings when it is not. Both sides receive
// their own continuation vertex at the split point and the opposite edge
// keeps fronting both.
func (b *builder) applySplit(ev *event, at mgl64.Vec2, dist float64) {
	r := ev.va
	if b.verts[r].marked {
		return
	}
	x := b.findOppositeSegment(r, ev.opp, at)
	if x < 0 {
		zap.L().Debug("skeleton: dropping stale split event",
			zap.Int("vertex", b.verts[r].posIdx),
			zap.Int("edge", ev.opp))
		return
	}
	y := b.verts[x].next
	if x == r || y == r {
		return
	}

	rv := b.verts[r]
	posIdx := b.eventPosition(at, dist)
	b.addArc(posIdx, rv.posIdx)
	b.verts[r].marked = true

	va := len(b.verts)
	b.verts = append(b.verts, lavVertex{
		pos:       at,
		posIdx:    posIdx,
		prev:      x,
		next:      rv.next,
		edgeLeft:  ev.opp,
		edgeRight: rv.edgeRight,
	})
	vb := len(b.verts)
	b.verts = append(b.verts, lavVertex{
		pos:       at,
		posIdx:    posIdx,
		prev:      rv.prev,
		next:      y,
		edgeLeft:  rv.edgeLeft,
		edgeRight: ev.opp,
	})
	b.verts[x].next = va
	b.verts[rv.next].prev = va
	b.verts[rv.prev].next = vb
	b.verts[y].prev = vb
	b.computeBisector(va)
	b.computeBisector(vb)
	b.fresh = append(b.fresh, va, vb)
	b.pushVertexEvents(va)
	b.pushVertexEvents(vb)
}

// findOppositeSegment locates the active wavefront segment of boundary edge
// opp that the split point falls into. The segment may live on the reflex
// vertex's own ring or on another ring entirely (a hole front meeting the
// outer front), and earlier splits can leave several segments of the same
// boundary edge, so the split point must lie between the candidate segment's
// endpoint trajectories.
func (b *builder) findOppositeSegment(r, opp int, at mgl64.Vec2) int {
	for v := range b.verts {
		if v == r || b.verts[v].marked || b.verts[v].edgeRight != opp {
			continue
		}
		w := b.verts[v].next
		if w == r || !b.segmentWedge(v, w, at) {
			continue
		}
		return v
	}
	return -1
}

func (b *builder) segmentWedge(v, w int, at mgl64.Vec2) bool {
	vv, wv := &b.verts[v], &b.verts[w]
	if vv.hasBisector && geom.Cross2(vv.bisector, at.Sub(vv.pos)) > geom.Eps {
		return false
	}
	if wv.hasBisector && geom.Cross2(wv.bisector, at.Sub(wv.pos)) < -geom.Eps {
		return false
	}
	return true
}

func (b *builder) pushVertexEvents(v int) {
	if ev := b.predictEdgeEvent(b.verts[v].prev, v); ev != nil {
		heap.Push(&b.queue, ev)
	}
	if ev := b.predictEdgeEvent(v, b.verts[v].next); ev != nil {
		heap.Push(&b.queue, ev)
	}
	for _, ev := range b.predictSplitEvents(v) {
		heap.Push(&b.queue, ev)
	}
}

// closeSmallRings retires rings the current subgroup reduced to two active
// vertices. The survivors are joined by a final arc; with both at the same
// position this is the zero-length closing arc of a symmetric collapse.
func (b *builder) closeSmallRings() {
	for _, nv := range b.fresh {
		if b.verts[nv].marked {
			continue
		}
		other := b.verts[nv].next
		if other == nv || b.verts[other].next != nv {
			continue
		}
		b.addArc(b.verts[nv].posIdx, b.verts[other].posIdx)
		b.verts[nv].marked = true
		b.verts[other].marked = true
	}
}

func (b *builder) neighborsTable() [][]int {
	nb := make([][]int, len(b.positions))
	add := func(a, c int) {
		nb[a] = append(nb[a], c)
		nb[c] = append(nb[c], a)
	}
	for _, ring := range b.rings {
		for i, a := range ring {
			add(a, ring[(i+1)%len(ring)])
		}
	}
	for _, arc := range b.arcs {
		add(arc[0], arc[1])
	}
	return nb
}
