package mesh

import (
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/Faultbox/carve/pkg/formats"
	"github.com/Faultbox/carve/pkg/geom"
)

// SplitByPlane cuts the mesh into the part below the plane and the part
// above it. Spanning faces are divided along the intersection line, cut
// cross sections are capped wherever the rim closes into loops, and faces
// lying in the plane go with the side their normal agrees with. The
// receiver is left untouched.
func (m *HalfedgeMesh) SplitByPlane(pl geom.Plane) (below, above *HalfedgeMesh, err error) {
	if len(m.faces) == 0 {
		return nil, nil, ErrEmptyMesh
	}
	s := newPlaneSplitter(m, pl)
	for f := range m.faces {
		s.splitFace(f)
	}
	s.capSide(s.below, pl.Normal)
	s.capSide(s.above, pl.Normal.Mul(-1))
	if below, err = s.finish(s.below); err != nil {
		return nil, nil, err
	}
	if above, err = s.finish(s.above); err != nil {
		return nil, nil, err
	}
	return below, above, nil
}

// splitSlot is one corner of a face loop augmented with plane crossings.
type splitSlot struct {
	vert     int
	side     geom.Side
	crossing bool
	partner  int // paired crossing's slot index, valid when crossing is set
	normal   mgl64.Vec3
	uv       mgl64.Vec2
}

type planeSplitter struct {
	m  *HalfedgeMesh
	pl geom.Plane

	verts []mgl64.Vec3 // source vertices followed by edge cuts
	dist  []float64
	side  []geom.Side
	cut   map[[2]int]int // undirected source edge to cut vertex
	edges map[[2]int]int // directed source edge to interior halfedge

	below, above *formats.MeshData
}

func newPlaneSplitter(m *HalfedgeMesh, pl geom.Plane) *planeSplitter {
	s := &planeSplitter{
		m:     m,
		pl:    pl,
		verts: append([]mgl64.Vec3(nil), m.verts...),
		dist:  make([]float64, len(m.verts)),
		side:  make([]geom.Side, len(m.verts)),
		cut:   make(map[[2]int]int),
		edges: make(map[[2]int]int, len(m.hes)),
		below: &formats.MeshData{},
		above: &formats.MeshData{},
	}
	for i, v := range m.verts {
		s.dist[i] = pl.Distance(v)
		s.side[i] = pl.SideOf(v)
	}
	for h := range m.hes {
		if m.hes[h].face == -1 {
			continue
		}
		s.edges[[2]int{m.hes[h].origin, m.head(h)}] = h
	}
	return s
}

func (s *planeSplitter) sideOf(vi int) geom.Side {
	if vi >= len(s.side) {
		return geom.On // edge cuts lie in the plane
	}
	return s.side[vi]
}

func (s *planeSplitter) splitFace(f int) {
	loop := s.augmentedLoop(f)
	var nBelow, nAbove int
	for _, sl := range loop {
		switch sl.side {
		case geom.Below:
			nBelow++
		case geom.Above:
			nAbove++
		}
	}
	switch {
	case nBelow == 0 && nAbove == 0:
		// the face lies in the plane, its own normal decides the side
		if s.m.faceNorms[f].Dot(s.pl.Normal) >= 0 {
			s.emit(s.above, f, loop)
		} else {
			s.emit(s.below, f, loop)
		}
	case nAbove == 0:
		s.emit(s.below, f, loop)
	case nBelow == 0:
		s.emit(s.above, f, loop)
	default:
		s.cutFace(f, loop, nBelow, nAbove)
	}
}

// augmentedLoop copies the face's corners and inserts a cut corner on every
// edge whose endpoints lie strictly on opposite sides of the plane.
func (s *planeSplitter) augmentedLoop(f int) []splitSlot {
	var loop []splitSlot
	for _, h := range s.m.faceLoop(f) {
		a := s.m.hes[h].origin
		sl := splitSlot{vert: a, side: s.side[a], partner: -1}
		if s.m.normalsOn {
			sl.normal = s.m.normals[h]
		}
		if s.m.uvsOn {
			sl.uv = s.m.uvs[h]
		}
		loop = append(loop, sl)
		b := s.m.head(h)
		if s.side[a] != geom.On && s.side[b] != geom.On && s.side[a] != s.side[b] {
			loop = append(loop, s.cutSlot(h))
		}
	}
	return loop
}

// cutSlot builds the corner where halfedge h pierces the plane. The cut
// vertex is shared between the two faces of the edge, the corner attributes
// are interpolated from this face's own corners.
func (s *planeSplitter) cutSlot(h int) splitSlot {
	a, b := s.m.hes[h].origin, s.m.head(h)
	t := s.dist[a] / (s.dist[a] - s.dist[b])
	key := [2]int{a, b}
	if a > b {
		key = [2]int{b, a}
	}
	vi, ok := s.cut[key]
	if !ok {
		vi = len(s.verts)
		s.verts = append(s.verts, s.verts[a].Add(s.verts[b].Sub(s.verts[a]).Mul(t)))
		s.cut[key] = vi
	}
	sl := splitSlot{vert: vi, side: geom.On, partner: -1}
	nh := s.m.hes[h].next
	if s.m.normalsOn {
		n := s.m.normals[h].Mul(1 - t).Add(s.m.normals[nh].Mul(t))
		if l := n.Len(); l > geom.Eps {
			sl.normal = n.Mul(1 / l)
		} else {
			sl.normal = s.m.faceNorms[s.m.hes[h].face]
		}
	}
	if s.m.uvsOn {
		sl.uv = s.m.uvs[h].Mul(1 - t).Add(s.m.uvs[nh].Mul(t))
	}
	return sl
}

// cutFace divides a face that has corners strictly on both sides. The
// boundary alternates between runs on one side and runs on the other, with
// in-plane corners between them. The last in-plane corner of every run
// whose flanking sides differ becomes a crossing. Crossings are sorted
// along the intersection line and paired up adjacently, each pair forming
// a chord of the face.
func (s *planeSplitter) cutFace(f int, loop []splitSlot, nBelow, nAbove int) {
	n := len(loop)
	var crossings []int
	for i := 0; i < n; i++ {
		if loop[i].side != geom.On || loop[(i+1)%n].side == geom.On {
			continue
		}
		j := i // first slot of the run ending at i
		for loop[(j-1+n)%n].side == geom.On {
			j = (j - 1 + n) % n
		}
		if loop[(j-1+n)%n].side != loop[(i+1)%n].side {
			loop[i].crossing = true
			crossings = append(crossings, i)
		}
	}
	if len(crossings) == 0 || len(crossings)%2 != 0 {
		zap.L().Warn("mesh: unpaired plane crossings, leaving face whole",
			zap.Int("face", f), zap.Int("crossings", len(crossings)))
		if nAbove >= nBelow {
			s.emit(s.above, f, loop)
		} else {
			s.emit(s.below, f, loop)
		}
		return
	}

	lineDir := s.m.faceNorms[f].Cross(s.pl.Normal)
	if lineDir.Len() < geom.Eps {
		lineDir, _ = s.pl.Basis()
	}
	sort.Slice(crossings, func(i, j int) bool {
		return s.verts[loop[crossings[i]].vert].Dot(lineDir) <
			s.verts[loop[crossings[j]].vert].Dot(lineDir)
	})
	for i := 0; i+1 < len(crossings); i += 2 {
		loop[crossings[i]].partner = crossings[i+1]
		loop[crossings[i+1]].partner = crossings[i]
	}

	consumed := make([]bool, n)
	for start := 0; start < n; start++ {
		if consumed[start] {
			continue
		}
		piece, ok := walkPiece(loop, consumed, start)
		if !ok {
			zap.L().Warn("mesh: split walk failed to close, dropping piece", zap.Int("face", f))
			continue
		}
		s.emitPiece(f, loop, piece)
	}
}

// walkPiece traces one piece of a chorded face loop. It follows the
// boundary from start, consuming each boundary step once, and whenever it
// arrives at a crossing it jumps the chord to the partner and carries on
// from there. The walk closes when it comes back to start, either along
// the boundary or across a chord.
func walkPiece(loop []splitSlot, consumed []bool, start int) ([]int, bool) {
	n := len(loop)
	piece := []int{start}
	cur := start
	for steps := 0; steps < 2*n; steps++ {
		consumed[cur] = true
		next := (cur + 1) % n
		if next == start {
			return piece, true
		}
		piece = append(piece, next)
		cur = next
		if loop[cur].crossing {
			p := loop[cur].partner
			if p == start {
				return piece, true
			}
			piece = append(piece, p)
			cur = p
		}
	}
	return nil, false
}

func (s *planeSplitter) emitPiece(f int, loop []splitSlot, piece []int) {
	var target *formats.MeshData
	for _, i := range piece {
		if loop[i].side == geom.Below {
			target = s.below
			break
		}
		if loop[i].side == geom.Above {
			target = s.above
			break
		}
	}
	if target == nil || len(piece) < 3 {
		zap.L().Debug("mesh: dropping degenerate split piece",
			zap.Int("face", f), zap.Int("corners", len(piece)))
		return
	}
	slots := make([]splitSlot, len(piece))
	for k, i := range piece {
		slots[k] = loop[i]
	}
	s.emit(target, f, slots)
}

// emit appends one face to a side. Vertex indices refer to the splitter's
// vertex table, finish compacts them later.
func (s *planeSplitter) emit(d *formats.MeshData, f int, slots []splitSlot) {
	face := formats.FaceData{Material: s.m.faceMats[f]}
	for _, sl := range slots {
		face.V = append(face.V, sl.vert)
		if s.m.normalsOn {
			face.N = append(face.N, len(d.Normals))
			d.Normals = append(d.Normals, sl.normal)
		}
		if s.m.uvsOn {
			face.T = append(face.T, len(d.UVs))
			d.UVs = append(d.UVs, sl.uv)
		}
	}
	d.Faces = append(d.Faces, face)
}

// capSide closes the cross section a cut left on one side. Rim edges are
// in-plane edges with no twin among the side's faces, excluding edges that
// were already open in the source mesh. Reversing a closed rim cycle gives
// a cap winding whose normal points off the retained half.
func (s *planeSplitter) capSide(d *formats.MeshData, capNormal mgl64.Vec3) {
	flat := true
	dir := make(map[[2]int]bool)
	for _, f := range d.Faces {
		for i, u := range f.V {
			v := f.V[(i+1)%len(f.V)]
			dir[[2]int{u, v}] = true
			if s.sideOf(u) != geom.On {
				flat = false
			}
		}
	}
	if flat {
		// a side living entirely in the plane is a sheet, not a cut solid
		return
	}

	capNext := make(map[int]int)
	var starts []int
	for _, f := range d.Faces {
		for i, u := range f.V {
			v := f.V[(i+1)%len(f.V)]
			if s.sideOf(u) != geom.On || s.sideOf(v) != geom.On {
				continue
			}
			if dir[[2]int{v, u}] || !s.rimSeed(u, v) {
				continue
			}
			if _, dup := capNext[v]; dup {
				zap.L().Debug("mesh: ambiguous cut rim, skipping edge", zap.Int("vertex", v))
				continue
			}
			capNext[v] = u
			starts = append(starts, v)
		}
	}

	uAxis, vAxis := s.pl.Basis()
	used := make(map[int]bool)
	for _, s0 := range starts {
		if used[s0] {
			continue
		}
		var ring []int
		cur := s0
		closed := false
		for steps := 0; steps <= len(capNext); steps++ {
			ring = append(ring, cur)
			used[cur] = true
			nxt, ok := capNext[cur]
			if !ok {
				break
			}
			if nxt == s0 {
				closed = true
				break
			}
			cur = nxt
		}
		if !closed || len(ring) < 3 {
			zap.L().Debug("mesh: cut rim does not close, leaving it open", zap.Int("vertex", s0))
			continue
		}
		face := formats.FaceData{}
		for _, vi := range ring {
			face.V = append(face.V, vi)
			if s.m.normalsOn {
				face.N = append(face.N, len(d.Normals))
				d.Normals = append(d.Normals, capNormal)
			}
			if s.m.uvsOn {
				p := s.verts[vi]
				face.T = append(face.T, len(d.UVs))
				d.UVs = append(d.UVs, mgl64.Vec2{p.Dot(uAxis), p.Dot(vAxis)})
			}
		}
		d.Faces = append(d.Faces, face)
	}
}

// rimSeed reports whether the in-plane edge u-v may border a cap. Chord
// edges always do. Source edges do only when they were interior, an edge
// that was already a hole boundary must stay open.
func (s *planeSplitter) rimSeed(u, v int) bool {
	if u >= len(s.side) || v >= len(s.side) {
		return true
	}
	h, exists := s.edges[[2]int{u, v}]
	if !exists {
		return true
	}
	return s.m.hes[opp(h)].face != -1
}

// finish compacts one side's vertex table and builds the mesh. A side the
// cut left empty comes back as an empty mesh.
func (s *planeSplitter) finish(d *formats.MeshData) (*HalfedgeMesh, error) {
	if len(d.Faces) == 0 {
		return New(), nil
	}
	remap := make(map[int]int)
	for fi := range d.Faces {
		f := &d.Faces[fi]
		for i, vi := range f.V {
			ni, ok := remap[vi]
			if !ok {
				ni = len(d.Positions)
				d.Positions = append(d.Positions, s.verts[vi])
				remap[vi] = ni
			}
			f.V[i] = ni
		}
	}
	return FromIndexed(d)
}
