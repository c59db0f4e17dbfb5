package mesh

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/Faultbox/carve/pkg/formats"
	"github.com/Faultbox/carve/pkg/geom"
)

// FromPolygon builds a mesh holding the given polygon as its single face.
func FromPolygon(pts []mgl64.Vec3) (*HalfedgeMesh, error) {
	return FromIndexed(polygonData(pts, nil))
}

// FromPolygonUV builds a single-face mesh with a UV assigned to every
// corner. uvs must be parallel to pts.
func FromPolygonUV(pts []mgl64.Vec3, uvs []mgl64.Vec2) (*HalfedgeMesh, error) {
	if len(uvs) != len(pts) {
		return nil, fmt.Errorf("%d UVs for %d vertices", len(uvs), len(pts))
	}
	return FromIndexed(polygonData(pts, uvs))
}

// FromFile loads an OBJ file and builds a mesh from it. This is the entry
// point a resource cache calls on a miss.
func FromFile(path string) (*HalfedgeMesh, error) {
	data, err := formats.DecodeOBJFile(path)
	if err != nil {
		return nil, err
	}
	return FromIndexed(data)
}

func polygonData(pts []mgl64.Vec3, uvs []mgl64.Vec2) *formats.MeshData {
	d := &formats.MeshData{
		Positions: pts,
		UVs:       uvs,
	}
	face := formats.FaceData{V: make([]int, len(pts))}
	for i := range pts {
		face.V[i] = i
	}
	if uvs != nil {
		face.T = make([]int, len(pts))
		for i := range pts {
			face.T[i] = i
		}
	}
	d.Faces = []formats.FaceData{face}
	return d
}

// FromIndexed builds a mesh from a denormalized description. Faces whose
// connectivity would create a complex (non-manifold) edge, and degenerate
// faces, are skipped with a diagnostic; the build continues past them.
// Partially covered normal/UV channels are disabled wholesale, also with a
// diagnostic. Fails only when no face survives.
func FromIndexed(data *formats.MeshData) (*HalfedgeMesh, error) {
	m := New()
	m.verts = append([]mgl64.Vec3(nil), data.Positions...)
	useN, useT := channelCoverage(data)
	m.normalsOn = useN
	m.uvsOn = useT

	edges := make(map[[2]int]int, 4*len(data.Faces))
	for fi := range data.Faces {
		f := &data.Faces[fi]
		normal, ok := m.faceInsertable(data, f, fi, edges, useN, useT)
		if !ok {
			continue
		}
		m.insertFace(data, f, normal, edges, useN, useT)
	}
	if len(m.faces) == 0 {
		return nil, ErrEmptyMesh
	}
	m.linkBoundary()
	return m, nil
}

// channelCoverage decides whether the normal and UV channels can be kept:
// either every face carries the attribute for every corner, or the channel
// is dropped entirely.
func channelCoverage(data *formats.MeshData) (useN, useT bool) {
	anyN, anyT := false, false
	useN, useT = len(data.Faces) > 0, len(data.Faces) > 0
	for i := range data.Faces {
		f := &data.Faces[i]
		if len(f.N) > 0 {
			anyN = true
		}
		if len(f.N) != len(f.V) {
			useN = false
		}
		if len(f.T) > 0 {
			anyT = true
		}
		if len(f.T) != len(f.V) {
			useT = false
		}
	}
	if anyN && !useN {
		zap.L().Warn("mesh: normal channel only partially covered, disabling it")
	}
	if anyT && !useT {
		zap.L().Warn("mesh: uv channel only partially covered, disabling it")
	}
	return useN && anyN, useT && anyT
}

// faceInsertable validates one face against the tables and the topology
// built so far. Returns the face normal and whether the face can go in.
func (m *HalfedgeMesh) faceInsertable(data *formats.MeshData, f *formats.FaceData, fi int,
	edges map[[2]int]int, useN, useT bool) (mgl64.Vec3, bool) {

	if len(f.V) < 3 {
		zap.L().Warn("mesh: skipping face with fewer than 3 vertices", zap.Int("face", fi))
		return mgl64.Vec3{}, false
	}
	for i, v := range f.V {
		if v < 0 || v >= len(m.verts) {
			zap.L().Warn("mesh: skipping face with out-of-range vertex",
				zap.Int("face", fi), zap.Int("vertex", v))
			return mgl64.Vec3{}, false
		}
		if useN && (f.N[i] < 0 || f.N[i] >= len(data.Normals)) {
			zap.L().Warn("mesh: skipping face with out-of-range normal",
				zap.Int("face", fi), zap.Int("normal", f.N[i]))
			return mgl64.Vec3{}, false
		}
		if useT && (f.T[i] < 0 || f.T[i] >= len(data.UVs)) {
			zap.L().Warn("mesh: skipping face with out-of-range uv",
				zap.Int("face", fi), zap.Int("uv", f.T[i]))
			return mgl64.Vec3{}, false
		}
	}

	ring := make([]mgl64.Vec3, len(f.V))
	for i, v := range f.V {
		ring[i] = m.verts[v]
	}
	normal, ok := geom.NewellNormal(ring)
	if !ok {
		zap.L().Warn("mesh: skipping degenerate face", zap.Int("face", fi))
		return mgl64.Vec3{}, false
	}

	local := make(map[[2]int]bool, len(f.V))
	for i, a := range f.V {
		b := f.V[(i+1)%len(f.V)]
		if a == b {
			zap.L().Warn("mesh: skipping face with zero-length edge",
				zap.Int("face", fi), zap.Int("vertex", a))
			return mgl64.Vec3{}, false
		}
		key := [2]int{a, b}
		if local[key] {
			zap.L().Warn("mesh: skipping face that repeats an edge",
				zap.Int("face", fi), zap.Int("from", a), zap.Int("to", b))
			return mgl64.Vec3{}, false
		}
		local[key] = true
		if h, ok := edges[key]; ok && m.hes[h].face != -1 {
			// A third face use of this edge would make it complex.
			zap.L().Warn("mesh: skipping face that would create a complex edge",
				zap.Int("face", fi), zap.Int("from", a), zap.Int("to", b))
			return mgl64.Vec3{}, false
		}
	}
	return normal, true
}

// insertFace claims or allocates a halfedge per edge and links the loop.
// Must only be called after faceInsertable accepted the face.
func (m *HalfedgeMesh) insertFace(data *formats.MeshData, f *formats.FaceData,
	normal mgl64.Vec3, edges map[[2]int]int, useN, useT bool) {

	fi := len(m.faces)
	n := len(f.V)
	hs := make([]int, n)
	for i, a := range f.V {
		b := f.V[(i+1)%n]
		key := [2]int{a, b}
		if h, ok := edges[key]; ok {
			m.hes[h].face = fi
			hs[i] = h
			continue
		}
		h := len(m.hes)
		m.hes = append(m.hes,
			halfedge{origin: a, face: fi, next: -1, prev: -1},
			halfedge{origin: b, face: -1, next: -1, prev: -1})
		edges[key] = h
		edges[[2]int{b, a}] = opp(h)
		if m.normalsOn {
			m.normals = append(m.normals, mgl64.Vec3{}, mgl64.Vec3{})
		}
		if m.uvsOn {
			m.uvs = append(m.uvs, mgl64.Vec2{}, mgl64.Vec2{})
		}
		hs[i] = h
	}
	for i, h := range hs {
		m.hes[h].next = hs[(i+1)%n]
		m.hes[h].prev = hs[(i-1+n)%n]
		if useN {
			m.normals[h] = data.Normals[f.N[i]]
		}
		if useT {
			m.uvs[h] = data.UVs[f.T[i]]
		}
	}
	m.faces = append(m.faces, hs[0])
	m.faceNorms = append(m.faceNorms, normal)
	m.faceMats = append(m.faceMats, f.Material)
}

// linkBoundary chains boundary halfedges into loops. For each boundary
// halfedge the continuation is found by rotating around its head vertex
// until the fan runs off the surface, which keeps two boundary loops that
// meet at a single vertex from being woven together.
func (m *HalfedgeMesh) linkBoundary() {
	for h := range m.hes {
		if m.hes[h].face != -1 {
			continue
		}
		e := opp(h) // interior halfedge leaving the head of h
		next := -1
		for k := 0; k < len(m.hes); k++ {
			cand := opp(m.hes[e].prev)
			if m.hes[cand].face == -1 {
				next = cand
				break
			}
			e = cand
		}
		if next < 0 {
			zap.L().Warn("mesh: boundary loop failed to close", zap.Int("halfedge", h))
			continue
		}
		m.hes[h].next = next
		m.hes[next].prev = h
	}
}
