package mesh

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/carve/pkg/geom"
)

// Transform applies an affine transform to every vertex. Face normals are
// recomputed from the moved geometry, per-halfedge normals go through the
// inverse transpose so they survive non-uniform scaling.
func (m *HalfedgeMesh) Transform(mat mgl64.Mat4) {
	for i := range m.verts {
		m.verts[i] = mgl64.TransformCoordinate(m.verts[i], mat)
	}
	m.refreshFaceNormals()
	if m.normalsOn {
		nmat := mat.Mat3().Inv().Transpose()
		if nmat == (mgl64.Mat3{}) {
			nmat = mat.Mat3()
		}
		for h := range m.hes {
			fi := m.hes[h].face
			if fi == -1 {
				continue
			}
			n := nmat.Mul3x1(m.normals[h])
			if l := n.Len(); l > geom.Eps {
				m.normals[h] = n.Mul(1 / l)
			} else {
				m.normals[h] = m.faceNorms[fi]
			}
		}
	}
	m.touch()
}

// refreshFaceNormals recomputes every face normal with Newell's method.
// Faces the last edit collapsed keep their previous normal.
func (m *HalfedgeMesh) refreshFaceNormals() {
	var buf []mgl64.Vec3
	for f := range m.faces {
		buf = buf[:0]
		for _, v := range m.FaceVertices(f) {
			buf = append(buf, m.verts[v])
		}
		if n, ok := geom.NewellNormal(buf); ok {
			m.faceNorms[f] = n
		}
	}
}

// UnitTrafo returns the transform that maps the mesh's bounding box onto
// the unit box. Axes the box is flat in map to zero. The matrix is cached
// until the next geometry edit.
func (m *HalfedgeMesh) UnitTrafo() mgl64.Mat4 {
	if m.unitValid {
		return m.unit
	}
	bb := m.Bounds()
	if bb.IsEmpty() {
		m.unit = mgl64.Ident4()
	} else {
		size := bb.Size()
		var s mgl64.Vec3
		for i := 0; i < 3; i++ {
			if size[i] > geom.Eps {
				s[i] = 1 / size[i]
			}
		}
		m.unit = mgl64.Scale3D(s[0], s[1], s[2]).Mul4(
			mgl64.Translate3D(-bb.Min[0], -bb.Min[1], -bb.Min[2]))
	}
	m.unitValid = true
	return m.unit
}

// FFDGrid is a Bezier control lattice over the unit box with degrees l, m
// and n along x, y and z. A fresh grid holds the identity lattice, moving
// its points bends whatever mesh is deformed through it.
type FFDGrid struct {
	l, m, n int
	pts     []mgl64.Vec3
}

// NewFFDGrid builds the identity lattice for the given degrees. Each
// degree must be at least one.
func NewFFDGrid(l, m, n int) (*FFDGrid, error) {
	if l < 1 || m < 1 || n < 1 {
		return nil, ErrBadFFDGrid
	}
	g := &FFDGrid{l: l, m: m, n: n, pts: make([]mgl64.Vec3, (l+1)*(m+1)*(n+1))}
	for i := 0; i <= l; i++ {
		for j := 0; j <= m; j++ {
			for k := 0; k <= n; k++ {
				g.pts[g.idx(i, j, k)] = mgl64.Vec3{
					float64(i) / float64(l),
					float64(j) / float64(m),
					float64(k) / float64(n),
				}
			}
		}
	}
	return g, nil
}

// Degrees returns the lattice degrees along x, y and z.
func (g *FFDGrid) Degrees() (l, m, n int) { return g.l, g.m, g.n }

// Point returns the control point at lattice position i, j, k.
func (g *FFDGrid) Point(i, j, k int) mgl64.Vec3 { return g.pts[g.idx(i, j, k)] }

// SetPoint moves the control point at lattice position i, j, k.
func (g *FFDGrid) SetPoint(i, j, k int, p mgl64.Vec3) { g.pts[g.idx(i, j, k)] = p }

// Translate shifts the control point at lattice position i, j, k.
func (g *FFDGrid) Translate(i, j, k int, delta mgl64.Vec3) {
	g.pts[g.idx(i, j, k)] = g.pts[g.idx(i, j, k)].Add(delta)
}

func (g *FFDGrid) idx(i, j, k int) int {
	if i < 0 || i > g.l || j < 0 || j > g.m || k < 0 || k > g.n {
		panic("mesh: FFD control point index out of range")
	}
	return (i*(g.m+1)+j)*(g.n+1) + k
}

// DeformFFD pushes every vertex through the Bezier volume spanned by the
// grid. Vertices are read in bounding box coordinates, deformed in unit
// space and mapped back, so the identity lattice leaves the mesh alone.
// Per-halfedge normals keep their angle to the face they decorate: the
// rotation from face normal to corner normal is captured before the
// deform and reapplied to the recomputed face normals after.
func (m *HalfedgeMesh) DeformFFD(grid *FFDGrid) error {
	if grid == nil || len(grid.pts) != (grid.l+1)*(grid.m+1)*(grid.n+1) {
		return ErrBadFFDGrid
	}
	if len(m.verts) == 0 {
		return nil
	}
	bb := m.Bounds()
	size := bb.Size()

	var offsets []mgl64.Quat
	if m.normalsOn {
		offsets = make([]mgl64.Quat, len(m.hes))
		for h := range m.hes {
			fi := m.hes[h].face
			if fi == -1 {
				continue
			}
			offsets[h] = mgl64.QuatBetweenVectors(m.faceNorms[fi], m.normals[h])
		}
	}

	for vi := range m.verts {
		u := unitCoord(m.verts[vi], bb.Min, size)
		var p mgl64.Vec3
		for i := 0; i <= grid.l; i++ {
			bi := bernstein(grid.l, i, u[0])
			for j := 0; j <= grid.m; j++ {
				bij := bi * bernstein(grid.m, j, u[1])
				for k := 0; k <= grid.n; k++ {
					w := bij * bernstein(grid.n, k, u[2])
					p = p.Add(grid.pts[grid.idx(i, j, k)].Mul(w))
				}
			}
		}
		m.verts[vi] = mgl64.Vec3{
			bb.Min[0] + p[0]*size[0],
			bb.Min[1] + p[1]*size[1],
			bb.Min[2] + p[2]*size[2],
		}
	}

	m.refreshFaceNormals()
	if m.normalsOn {
		for h := range m.hes {
			fi := m.hes[h].face
			if fi == -1 {
				continue
			}
			m.normals[h] = offsets[h].Rotate(m.faceNorms[fi])
		}
	}
	m.touch()
	return nil
}

// unitCoord maps p into bounding box coordinates, clamped to the unit
// interval. Flat axes map to zero.
func unitCoord(p, min, size mgl64.Vec3) mgl64.Vec3 {
	var u mgl64.Vec3
	for i := 0; i < 3; i++ {
		if size[i] > geom.Eps {
			u[i] = (p[i] - min[i]) / size[i]
			if u[i] < 0 {
				u[i] = 0
			} else if u[i] > 1 {
				u[i] = 1
			}
		}
	}
	return u
}

func bernstein(n, i int, t float64) float64 {
	return binomial(n, i) * math.Pow(t, float64(i)) * math.Pow(1-t, float64(n-i))
}

func binomial(n, k int) float64 {
	if k > n-k {
		k = n - k
	}
	r := 1.0
	for i := 0; i < k; i++ {
		r = r * float64(n-i) / float64(i+1)
	}
	return r
}
