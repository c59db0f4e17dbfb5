package mesh

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/carve/pkg/geom"
)

func TestSplitCubeMidPlane(t *testing.T) {
	m := buildCube(t)
	pl := geom.NewPlane(mgl64.Vec3{0, 0, 1}, mgl64.Vec3{0, 0, 0.5})
	below, above, err := m.SplitByPlane(pl)
	if err != nil {
		t.Fatalf("SplitByPlane: %v", err)
	}
	if m.NumFaces() != 6 || m.NumVertices() != 8 {
		t.Fatalf("split modified the source mesh")
	}
	for name, half := range map[string]*HalfedgeMesh{"below": below, "above": above} {
		if half.NumFaces() != 6 {
			t.Errorf("%s: got %d faces, want 4 trimmed sides, a lid and a cap", name, half.NumFaces())
		}
		if half.NumVertices() != 8 {
			t.Errorf("%s: got %d verts, want 8", name, half.NumVertices())
		}
		if got := boundaryCount(half); got != 0 {
			t.Errorf("%s: %d boundary halfedges, want a closed half", name, got)
		}
		if err := half.Validate(); err != nil {
			t.Errorf("%s: Validate: %v", name, err)
		}
	}
	if got := below.Bounds().Max[2]; !approx(got, 0.5, 1e-12) {
		t.Errorf("below reaches z=%v, want 0.5", got)
	}
	if got := above.Bounds().Min[2]; !approx(got, 0.5, 1e-12) {
		t.Errorf("above starts at z=%v, want 0.5", got)
	}

	// The caps sit in the cut plane and face away from their half.
	if n, ok := capNormalAt(below, 0.5); !ok || !vecApprox(n, mgl64.Vec3{0, 0, 1}, 1e-9) {
		t.Errorf("below cap normal = %v (found %v), want +z", n, ok)
	}
	if n, ok := capNormalAt(above, 0.5); !ok || !vecApprox(n, mgl64.Vec3{0, 0, -1}, 1e-9) {
		t.Errorf("above cap normal = %v (found %v), want -z", n, ok)
	}
}

// capNormalAt finds the one face whose vertices all sit at height z and
// returns its normal.
func capNormalAt(m *HalfedgeMesh, z float64) (mgl64.Vec3, bool) {
	for f := 0; f < m.NumFaces(); f++ {
		flat := true
		for _, v := range m.FaceVertices(f) {
			if !approx(m.Vertex(v)[2], z, 1e-9) {
				flat = false
				break
			}
		}
		if flat {
			return m.FaceNormal(f), true
		}
	}
	return mgl64.Vec3{}, false
}

func TestSplitCoplanarFaceFollowsNormal(t *testing.T) {
	m, err := FromPolygon(quadXY(1))
	if err != nil {
		t.Fatalf("FromPolygon: %v", err)
	}
	up := geom.NewPlane(mgl64.Vec3{0, 0, 1}, mgl64.Vec3{0, 0, 0})
	below, above, err := m.SplitByPlane(up)
	if err != nil {
		t.Fatalf("SplitByPlane: %v", err)
	}
	if below.NumFaces() != 0 || above.NumFaces() != 1 {
		t.Errorf("up plane: below=%d above=%d, want 0 and 1", below.NumFaces(), above.NumFaces())
	}

	down := geom.NewPlane(mgl64.Vec3{0, 0, -1}, mgl64.Vec3{0, 0, 0})
	below, above, err = m.SplitByPlane(down)
	if err != nil {
		t.Fatalf("SplitByPlane: %v", err)
	}
	if below.NumFaces() != 1 || above.NumFaces() != 0 {
		t.Errorf("down plane: below=%d above=%d, want 1 and 0", below.NumFaces(), above.NumFaces())
	}
}

func TestSplitMissesMesh(t *testing.T) {
	m, err := FromPolygon(quadXY(1))
	if err != nil {
		t.Fatalf("FromPolygon: %v", err)
	}
	pl := geom.NewPlane(mgl64.Vec3{0, 0, 1}, mgl64.Vec3{0, 0, 5})
	below, above, err := m.SplitByPlane(pl)
	if err != nil {
		t.Fatalf("SplitByPlane: %v", err)
	}
	if below.NumFaces() != 1 || above.NumFaces() != 0 {
		t.Errorf("below=%d above=%d, want the whole mesh below", below.NumFaces(), above.NumFaces())
	}
}

func TestSplitOpenSheetGetsNoCaps(t *testing.T) {
	sheet := []mgl64.Vec3{{0, 0, 0}, {2, 0, 0}, {2, 0, 2}, {0, 0, 2}}
	m, err := FromPolygon(sheet)
	if err != nil {
		t.Fatalf("FromPolygon: %v", err)
	}
	pl := geom.NewPlane(mgl64.Vec3{0, 0, 1}, mgl64.Vec3{0, 0, 1})
	below, above, err := m.SplitByPlane(pl)
	if err != nil {
		t.Fatalf("SplitByPlane: %v", err)
	}
	if below.NumFaces() != 1 || above.NumFaces() != 1 {
		t.Fatalf("below=%d above=%d, want 1 and 1", below.NumFaces(), above.NumFaces())
	}
	if got := below.Bounds().Max[2]; !approx(got, 1, 1e-12) {
		t.Errorf("below cut at z=%v, want 1", got)
	}
}

// A vertex that only touches the plane from one side must not start a cut.
func TestSplitReflexTouchStaysWhole(t *testing.T) {
	pent := []mgl64.Vec3{
		{-2, 0, -1}, {0, 0, 0}, {2, 0, -1}, {2, 0, 1}, {-2, 0, 1},
	}
	m, err := FromPolygon(pent)
	if err != nil {
		t.Fatalf("FromPolygon: %v", err)
	}
	pl := geom.NewPlane(mgl64.Vec3{0, 0, 1}, mgl64.Vec3{0, 0, 0})
	below, above, err := m.SplitByPlane(pl)
	if err != nil {
		t.Fatalf("SplitByPlane: %v", err)
	}
	if below.NumFaces() != 1 || above.NumFaces() != 1 {
		t.Fatalf("below=%d above=%d, want one uncapped piece each",
			below.NumFaces(), above.NumFaces())
	}
	if below.NumVertices() != 5 {
		t.Errorf("below piece has %d verts, want 5 (touch vertex kept)", below.NumVertices())
	}
	if above.NumVertices() != 4 {
		t.Errorf("above piece has %d verts, want 4", above.NumVertices())
	}
}

func TestSplitInterpolatesUVs(t *testing.T) {
	sheet := []mgl64.Vec3{{0, 0, 0}, {2, 0, 0}, {2, 0, 2}, {0, 0, 2}}
	uvs := []mgl64.Vec2{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
	m, err := FromPolygonUV(sheet, uvs)
	if err != nil {
		t.Fatalf("FromPolygonUV: %v", err)
	}
	pl := geom.NewPlane(mgl64.Vec3{0, 0, 1}, mgl64.Vec3{0, 0, 1})
	below, _, err := m.SplitByPlane(pl)
	if err != nil {
		t.Fatalf("SplitByPlane: %v", err)
	}
	if !below.HasUVs() {
		t.Fatalf("uv channel lost in the split")
	}
	want := []mgl64.Vec2{{1, 0.5}, {0, 0.5}}
	data := below.FillExportBuffers()
	for _, w := range want {
		found := false
		for _, uv := range data.UVs {
			if uv.Sub(w).Len() <= 1e-9 {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("interpolated uv %v missing in %v", w, data.UVs)
		}
	}
}

func TestSplitEmptyMesh(t *testing.T) {
	pl := geom.NewPlane(mgl64.Vec3{0, 0, 1}, mgl64.Vec3{0, 0, 0})
	if _, _, err := New().SplitByPlane(pl); !errors.Is(err, ErrEmptyMesh) {
		t.Errorf("err = %v, want ErrEmptyMesh", err)
	}
}
