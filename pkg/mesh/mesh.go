// Package mesh implements the halfedge mesh kernel: construction from
// polygons and indexed data, extrusion, skeleton-driven roof synthesis,
// plane splitting with caps, free-form deformation, and the buffer fills
// that hand geometry to rendering and export stages.
package mesh

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/carve/pkg/geom"
)

// Mesh operation errors.
var (
	ErrEmptyMesh     = errors.New("mesh has no usable faces")
	ErrNotSingleFace = errors.New("operation requires a single-face mesh")
	ErrBadDirection  = errors.New("unusable extrusion direction")
	ErrBadFFDGrid    = errors.New("malformed FFD grid")
)

// halfedge is one oriented edge-use. Halfedges are allocated in opposite
// pairs, so a halfedge's twin is its own index with the low bit flipped.
// face is -1 on the boundary; next and prev chain the face loop, or the
// boundary loop for boundary halfedges.
type halfedge struct {
	origin int
	face   int
	next   int
	prev   int
}

// HalfedgeMesh is a manifold polygon mesh with boundary. Faces are
// arbitrary simple polygons. Per-face normals always exist; per-halfedge
// normals and UVs are optional channels that are either populated for
// every interior halfedge or disabled wholesale.
//
// A mesh must not be mutated concurrently. Operations that rebuild
// topology (extrude, the roof family, deformation) mutate in place;
// SplitByPlane and FaceComponent return freshly allocated meshes and
// leave the receiver untouched.
type HalfedgeMesh struct {
	verts     []mgl64.Vec3
	hes       []halfedge
	faces     []int // anchor halfedge per face
	faceNorms []mgl64.Vec3
	faceMats  []string

	normals   []mgl64.Vec3 // per halfedge, valid when normalsOn
	uvs       []mgl64.Vec2 // per halfedge, valid when uvsOn
	normalsOn bool
	uvsOn     bool

	unit      mgl64.Mat4
	unitValid bool
}

// New returns an empty mesh.
func New() *HalfedgeMesh {
	return &HalfedgeMesh{}
}

// NumVertices returns the size of the vertex table, including any vertices
// no face references.
func (m *HalfedgeMesh) NumVertices() int { return len(m.verts) }

// NumFaces returns the number of faces.
func (m *HalfedgeMesh) NumFaces() int { return len(m.faces) }

// NumHalfedges returns the number of halfedges, boundary included.
func (m *HalfedgeMesh) NumHalfedges() int { return len(m.hes) }

// Vertices returns the vertex table. Callers must not modify it.
func (m *HalfedgeMesh) Vertices() []mgl64.Vec3 { return m.verts }

// Vertex returns the position of vertex v.
func (m *HalfedgeMesh) Vertex(v int) mgl64.Vec3 { return m.verts[v] }

// FaceVertices returns the vertex loop of face f in winding order.
func (m *HalfedgeMesh) FaceVertices(f int) []int {
	loop := m.faceLoop(f)
	out := make([]int, len(loop))
	for i, h := range loop {
		out[i] = m.hes[h].origin
	}
	return out
}

// FaceNormal returns the unit normal of face f.
func (m *HalfedgeMesh) FaceNormal(f int) mgl64.Vec3 { return m.faceNorms[f] }

// FaceMaterial returns the material name carried by face f.
func (m *HalfedgeMesh) FaceMaterial(f int) string { return m.faceMats[f] }

// SetFaceMaterial assigns the material name carried by face f. The name is
// an opaque pass-through to the export stage.
func (m *HalfedgeMesh) SetFaceMaterial(f int, material string) {
	m.faceMats[f] = material
}

// HasNormals reports whether the per-halfedge normal channel is active.
func (m *HalfedgeMesh) HasNormals() bool { return m.normalsOn }

// HasUVs reports whether the per-halfedge UV channel is active.
func (m *HalfedgeMesh) HasUVs() bool { return m.uvsOn }

// Bounds returns the axis-aligned bounding box of the vertex table.
func (m *HalfedgeMesh) Bounds() geom.AABB {
	return geom.AABBOf(m.verts)
}

// opp returns the twin of halfedge h.
func opp(h int) int { return h ^ 1 }

// head returns the vertex halfedge h points at.
func (m *HalfedgeMesh) head(h int) int { return m.hes[opp(h)].origin }

// faceLoop returns the halfedges of face f in winding order.
func (m *HalfedgeMesh) faceLoop(f int) []int {
	loop := make([]int, 0, 4)
	start := m.faces[f]
	h := start
	for {
		loop = append(loop, h)
		h = m.hes[h].next
		if h == start || len(loop) > len(m.hes) {
			break
		}
	}
	return loop
}

// touch invalidates caches derived from the geometry.
func (m *HalfedgeMesh) touch() { m.unitValid = false }

// Validate runs a full topology and channel audit and returns the first
// violation found. Intended for tests and debugging, not hot paths.
func (m *HalfedgeMesh) Validate() error {
	if len(m.hes)%2 != 0 {
		return fmt.Errorf("odd halfedge count %d", len(m.hes))
	}
	if len(m.faceNorms) != len(m.faces) || len(m.faceMats) != len(m.faces) {
		return fmt.Errorf("face attribute tables out of step: %d faces, %d normals, %d materials",
			len(m.faces), len(m.faceNorms), len(m.faceMats))
	}
	for h := range m.hes {
		he := &m.hes[h]
		if he.origin < 0 || he.origin >= len(m.verts) {
			return fmt.Errorf("halfedge %d: origin %d out of range", h, he.origin)
		}
		if he.next < 0 || he.next >= len(m.hes) || he.prev < 0 || he.prev >= len(m.hes) {
			return fmt.Errorf("halfedge %d: broken links next=%d prev=%d", h, he.next, he.prev)
		}
		if m.hes[he.next].prev != h {
			return fmt.Errorf("halfedge %d: next %d does not link back", h, he.next)
		}
		if m.hes[he.prev].next != h {
			return fmt.Errorf("halfedge %d: prev %d does not link forward", h, he.prev)
		}
		if m.hes[he.next].origin != m.head(h) {
			return fmt.Errorf("halfedge %d: next origin %d != head %d", h, m.hes[he.next].origin, m.head(h))
		}
		if m.hes[he.next].face != he.face {
			return fmt.Errorf("halfedge %d: face %d changes to %d along the loop", h, he.face, m.hes[he.next].face)
		}
		if he.face < -1 || he.face >= len(m.faces) {
			return fmt.Errorf("halfedge %d: face %d out of range", h, he.face)
		}
	}
	for f, anchor := range m.faces {
		if anchor < 0 || anchor >= len(m.hes) {
			return fmt.Errorf("face %d: anchor %d out of range", f, anchor)
		}
		if m.hes[anchor].face != f {
			return fmt.Errorf("face %d: anchor belongs to face %d", f, m.hes[anchor].face)
		}
		if n := len(m.faceLoop(f)); n < 3 {
			return fmt.Errorf("face %d: loop of %d halfedges", f, n)
		}
		if n := m.faceNorms[f].Len(); n < 1-1e-6 || n > 1+1e-6 {
			return fmt.Errorf("face %d: normal not unit length (%v)", f, m.faceNorms[f])
		}
	}
	if m.normalsOn {
		if len(m.normals) != len(m.hes) {
			return fmt.Errorf("normal channel has %d entries for %d halfedges", len(m.normals), len(m.hes))
		}
		for h := range m.hes {
			if m.hes[h].face >= 0 && m.normals[h].Len() < geom.Eps {
				return fmt.Errorf("halfedge %d: active normal channel holds a zero normal", h)
			}
		}
	}
	if m.uvsOn && len(m.uvs) != len(m.hes) {
		return fmt.Errorf("uv channel has %d entries for %d halfedges", len(m.uvs), len(m.hes))
	}
	return nil
}
