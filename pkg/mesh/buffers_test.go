package mesh

import (
	"reflect"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/carve/pkg/formats"
)

func TestFillRenderBuffersCube(t *testing.T) {
	m := buildCube(t)
	verts, indices := m.FillRenderBuffers()
	// Flat shading keeps the three meeting faces of each corner apart.
	if len(verts) != 24 {
		t.Errorf("got %d render vertices, want 24", len(verts))
	}
	if len(indices) != 36 {
		t.Errorf("got %d indices, want 12 triangles", len(indices))
	}
	for _, i := range indices {
		if int(i) >= len(verts) {
			t.Fatalf("index %d out of range", i)
		}
	}
}

func TestFillRenderBuffersSharedCorners(t *testing.T) {
	m, err := FromPolygon(quadXY(1))
	if err != nil {
		t.Fatalf("FromPolygon: %v", err)
	}
	verts, indices := m.FillRenderBuffers()
	if len(verts) != 4 || len(indices) != 6 {
		t.Errorf("got %d verts, %d indices; want 4 and 6", len(verts), len(indices))
	}
}

func TestFillRenderBuffersIdempotent(t *testing.T) {
	m := buildCube(t)
	v1, i1 := m.FillRenderBuffers()
	v2, i2 := m.FillRenderBuffers()
	if !reflect.DeepEqual(v1, v2) || !reflect.DeepEqual(i1, i2) {
		t.Errorf("render buffers differ between calls")
	}
}

func TestFillExportBuffersRoundTrip(t *testing.T) {
	m := buildCube(t)
	m.SetFaceMaterial(1, "lid")
	data := m.FillExportBuffers()
	if len(data.Positions) != 8 || len(data.Faces) != 6 {
		t.Fatalf("export has %d positions, %d faces; want 8, 6",
			len(data.Positions), len(data.Faces))
	}
	for i, p := range data.Positions {
		if p != m.Vertex(i) {
			t.Errorf("position %d = %v, want verbatim %v", i, p, m.Vertex(i))
		}
	}
	if data.Faces[1].Material != "lid" {
		t.Errorf("material lost: %q", data.Faces[1].Material)
	}
	back, err := FromIndexed(data)
	if err != nil {
		t.Fatalf("FromIndexed: %v", err)
	}
	if back.NumVertices() != 8 || back.NumFaces() != 6 {
		t.Errorf("round trip changed topology")
	}
	if err := back.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestFillExportBuffersDedupsNormals(t *testing.T) {
	data := &formats.MeshData{
		Positions: []mgl64.Vec3{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}},
		Normals:   []mgl64.Vec3{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}, {0, 0, 1}},
		Faces: []formats.FaceData{
			{V: []int{0, 1, 2, 3}, N: []int{0, 1, 2, 3}},
		},
	}
	m, err := FromIndexed(data)
	if err != nil {
		t.Fatalf("FromIndexed: %v", err)
	}
	out := m.FillExportBuffers()
	if len(out.Normals) != 1 {
		t.Errorf("got %d normals, want the duplicates merged into 1", len(out.Normals))
	}
	for _, f := range out.Faces {
		for _, n := range f.N {
			if n != 0 {
				t.Errorf("face references normal %d, want 0", n)
			}
		}
	}
}

func TestExportEncodeDecodeCube(t *testing.T) {
	m := buildCube(t)
	text := formats.EncodeOBJ(m.FillExportBuffers(), -1)
	decoded, err := formats.DecodeOBJ(text)
	if err != nil {
		t.Fatalf("DecodeOBJ: %v", err)
	}
	back, err := FromIndexed(decoded)
	if err != nil {
		t.Fatalf("FromIndexed: %v", err)
	}
	if back.NumVertices() != 8 || back.NumFaces() != 6 {
		t.Errorf("got %d verts, %d faces after the OBJ trip; want 8, 6",
			back.NumVertices(), back.NumFaces())
	}
	if got := boundaryCount(back); got != 0 {
		t.Errorf("cube reopened: %d boundary halfedges", got)
	}
}

func TestFaceComponent(t *testing.T) {
	m := buildCube(t)
	m.SetFaceMaterial(2, "side")
	fc, err := m.FaceComponent(2)
	if err != nil {
		t.Fatalf("FaceComponent: %v", err)
	}
	if fc.NumFaces() != 1 || fc.NumVertices() != 4 {
		t.Fatalf("got %d faces, %d verts; want 1, 4", fc.NumFaces(), fc.NumVertices())
	}
	if fc.FaceMaterial(0) != "side" {
		t.Errorf("material = %q, want %q", fc.FaceMaterial(0), "side")
	}
	if !vecApprox(fc.FaceNormal(0), m.FaceNormal(2), 1e-12) {
		t.Errorf("normal = %v, want %v", fc.FaceNormal(0), m.FaceNormal(2))
	}

	defer func() {
		if recover() == nil {
			t.Errorf("out-of-range face did not panic")
		}
	}()
	m.FaceComponent(17)
}
