package mesh

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/Faultbox/carve/pkg/formats"
	"github.com/Faultbox/carve/pkg/triangulate"
)

// RenderVertex is one corner of a triangle as the GPU consumes it.
type RenderVertex struct {
	Position [3]float32
	Normal   [3]float32
	TexCoord [2]float32
}

// FillRenderBuffers triangulates every face and flattens the result into a
// vertex array and a triangle index array. Corners that agree in position,
// normal and texture coordinate within quantization share one vertex.
// Faces without per-halfedge normals are flat shaded with the face normal.
// Faces the triangulator rejects are skipped. The buffers are a pure
// function of the mesh, calling twice yields identical arrays.
func (m *HalfedgeMesh) FillRenderBuffers() ([]RenderVertex, []uint32) {
	var (
		verts   []RenderVertex
		indices []uint32
	)
	seen := make(map[[8]int32]uint32)
	for f := range m.faces {
		loop := m.FaceVertices(f)
		tris, err := triangulate.Triangulate(m.verts, loop, false)
		if err != nil {
			zap.L().Warn("mesh: face does not triangulate, skipping it",
				zap.Int("face", f), zap.Error(err))
			continue
		}
		corner := make(map[int]int, len(loop))
		for _, h := range m.faceLoop(f) {
			corner[m.hes[h].origin] = h
		}
		for _, tri := range tris {
			for c := 0; c < 3; c++ {
				rv := m.renderCorner(f, corner[tri[c]], tri[c])
				key := quantKey(rv)
				id, ok := seen[key]
				if !ok {
					id = uint32(len(verts))
					verts = append(verts, rv)
					seen[key] = id
				}
				indices = append(indices, id)
			}
		}
	}
	return verts, indices
}

func (m *HalfedgeMesh) renderCorner(f, h, vi int) RenderVertex {
	var rv RenderVertex
	p := m.verts[vi]
	rv.Position = [3]float32{float32(p[0]), float32(p[1]), float32(p[2])}
	n := m.faceNorms[f]
	if m.normalsOn {
		n = m.normals[h]
	}
	rv.Normal = [3]float32{float32(n[0]), float32(n[1]), float32(n[2])}
	if m.uvsOn {
		uv := m.uvs[h]
		rv.TexCoord = [2]float32{float32(uv[0]), float32(uv[1])}
	}
	return rv
}

func quantKey(rv RenderVertex) [8]int32 {
	return [8]int32{
		quant(rv.Position[0]), quant(rv.Position[1]), quant(rv.Position[2]),
		quant(rv.Normal[0]), quant(rv.Normal[1]), quant(rv.Normal[2]),
		quant(rv.TexCoord[0]), quant(rv.TexCoord[1]),
	}
}

func quant(x float32) int32 {
	v := math.Round(float64(x) * 65536)
	if v > math.MaxInt32 {
		return math.MaxInt32
	}
	if v < math.MinInt32 {
		return math.MinInt32
	}
	return int32(v)
}

// FillExportBuffers lowers the mesh into indexed face data. Vertex
// positions carry over index for index, normals and texture coordinates
// are deduplicated within quantization. The result round trips through
// FromIndexed and encodes straight to OBJ.
func (m *HalfedgeMesh) FillExportBuffers() *formats.MeshData {
	d := &formats.MeshData{
		Positions: append([]mgl64.Vec3(nil), m.verts...),
	}
	normalID := make(map[[3]int32]int)
	uvID := make(map[[2]int32]int)
	for f := range m.faces {
		face := formats.FaceData{Material: m.faceMats[f]}
		for _, h := range m.faceLoop(f) {
			face.V = append(face.V, m.hes[h].origin)
			if m.normalsOn {
				n := m.normals[h]
				key := [3]int32{quant(float32(n[0])), quant(float32(n[1])), quant(float32(n[2]))}
				id, ok := normalID[key]
				if !ok {
					id = len(d.Normals)
					d.Normals = append(d.Normals, n)
					normalID[key] = id
				}
				face.N = append(face.N, id)
			}
			if m.uvsOn {
				uv := m.uvs[h]
				key := [2]int32{quant(float32(uv[0])), quant(float32(uv[1]))}
				id, ok := uvID[key]
				if !ok {
					id = len(d.UVs)
					d.UVs = append(d.UVs, uv)
					uvID[key] = id
				}
				face.T = append(face.T, id)
			}
		}
		d.Faces = append(d.Faces, face)
	}
	return d
}
