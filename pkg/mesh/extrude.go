package mesh

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/carve/pkg/formats"
	"github.com/Faultbox/carve/pkg/geom"
)

// ExtrudeAlongNormal extrudes the mesh's single face along its own normal
// by dist. See Extrude.
func (m *HalfedgeMesh) ExtrudeAlongNormal(dist float64) error {
	if len(m.faces) != 1 {
		return ErrNotSingleFace
	}
	return m.Extrude(m.faceNorms[0].Mul(dist))
}

// Extrude sweeps the mesh's single face along dir into a closed prism: an
// inverted-winding copy of the face becomes the bottom, the offset copy
// the top, and quads stitch the perimeter. The direction must have a
// positive component along the face normal; otherwise the mesh is left
// unchanged and the call fails. Per-halfedge normals and UVs are
// discarded, the result is flat shaded.
func (m *HalfedgeMesh) Extrude(dir mgl64.Vec3) error {
	if len(m.faces) != 1 {
		return ErrNotSingleFace
	}
	if dir.Dot(m.faceNorms[0]) <= geom.Eps {
		return ErrBadDirection
	}

	loop := m.FaceVertices(0)
	n := len(loop)
	data := &formats.MeshData{Positions: make([]mgl64.Vec3, 0, 2*n)}
	for _, v := range loop {
		data.Positions = append(data.Positions, m.verts[v])
	}
	for _, v := range loop {
		data.Positions = append(data.Positions, m.verts[v].Add(dir))
	}

	material := m.faceMats[0]
	bottom := make([]int, n)
	top := make([]int, n)
	for i := 0; i < n; i++ {
		bottom[i] = n - 1 - i
		top[i] = n + i
	}
	data.Faces = append(data.Faces,
		formats.FaceData{V: bottom, Material: material},
		formats.FaceData{V: top, Material: material})
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		data.Faces = append(data.Faces, formats.FaceData{
			V:        []int{i, j, n + j, n + i},
			Material: material,
		})
	}

	nm, err := FromIndexed(data)
	if err != nil {
		return err
	}
	*m = *nm
	return nil
}
