package mesh

import (
	"github.com/Faultbox/carve/pkg/formats"
)

// FaceComponent lifts one face out into a mesh of its own, keeping the
// corner attributes and the material. Panics when f is out of range.
func (m *HalfedgeMesh) FaceComponent(f int) (*HalfedgeMesh, error) {
	data := &formats.MeshData{}
	face := formats.FaceData{Material: m.faceMats[f]}
	for i, h := range m.faceLoop(f) {
		face.V = append(face.V, i)
		data.Positions = append(data.Positions, m.verts[m.hes[h].origin])
		if m.normalsOn {
			face.N = append(face.N, i)
			data.Normals = append(data.Normals, m.normals[h])
		}
		if m.uvsOn {
			face.T = append(face.T, i)
			data.UVs = append(data.UVs, m.uvs[h])
		}
	}
	data.Faces = []formats.FaceData{face}
	return FromIndexed(data)
}
