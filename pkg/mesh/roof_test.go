package mesh

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/carve/pkg/skeleton"
)

func TestRoofHipSquare(t *testing.T) {
	m, err := FromPolygon(quadXY(1))
	if err != nil {
		t.Fatalf("FromPolygon: %v", err)
	}
	m.SetFaceMaterial(0, "tile")
	angle := 35 * math.Pi / 180
	if err := m.RoofHip(angle, 0); err != nil {
		t.Fatalf("RoofHip: %v", err)
	}
	if m.NumFaces() != 5 {
		t.Fatalf("got %d faces, want 4 panels plus bottom", m.NumFaces())
	}
	if got := boundaryCount(m); got != 0 {
		t.Errorf("hip roof has %d boundary halfedges", got)
	}
	if err := m.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
	// Unit square: the footprint collapses at inradius 0.5.
	want := math.Tan(angle) * 0.5
	if got := m.Bounds().Max[2]; !approx(got, want, 1e-9) {
		t.Errorf("ridge height = %v, want %v", got, want)
	}
	for f := 0; f < m.NumFaces(); f++ {
		if m.FaceMaterial(f) != "tile" {
			t.Errorf("face %d lost the footprint material", f)
		}
	}
}

func TestRoofGableRectangle(t *testing.T) {
	pts := []mgl64.Vec3{{0, 0, 0}, {2, 0, 0}, {2, 1, 0}, {0, 1, 0}}
	m, err := FromPolygon(pts)
	if err != nil {
		t.Fatalf("FromPolygon: %v", err)
	}
	angle := math.Pi / 4
	if err := m.RoofGable(angle, 0); err != nil {
		t.Fatalf("RoofGable: %v", err)
	}
	if m.NumFaces() != 5 {
		t.Fatalf("got %d faces, want 5", m.NumFaces())
	}
	if err := m.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
	// Ridge ends move onto the short eave edges, keeping their height.
	wantLeft := mgl64.Vec3{0, 0.5, 0.5}
	wantRight := mgl64.Vec3{2, 0.5, 0.5}
	foundLeft, foundRight := false, false
	for _, v := range m.Vertices() {
		if vecApprox(v, wantLeft, 1e-9) {
			foundLeft = true
		}
		if vecApprox(v, wantRight, 1e-9) {
			foundRight = true
		}
	}
	if !foundLeft || !foundRight {
		t.Errorf("gable ends missing: left=%v right=%v in %v",
			foundLeft, foundRight, m.Vertices())
	}
}

func TestRoofPyramid(t *testing.T) {
	m, err := FromPolygon(quadXY(1))
	if err != nil {
		t.Fatalf("FromPolygon: %v", err)
	}
	angle := math.Pi / 6
	if err := m.RoofPyramid(angle); err != nil {
		t.Fatalf("RoofPyramid: %v", err)
	}
	if m.NumFaces() != 5 || m.NumVertices() != 5 {
		t.Fatalf("got %d faces, %d verts; want 5, 5", m.NumFaces(), m.NumVertices())
	}
	if got := boundaryCount(m); got != 0 {
		t.Errorf("pyramid has %d boundary halfedges", got)
	}
	if err := m.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
	apex := mgl64.Vec3{0.5, 0.5, math.Tan(angle) * 0.5}
	found := false
	for _, v := range m.Vertices() {
		if vecApprox(v, apex, 1e-9) {
			found = true
		}
	}
	if !found {
		t.Errorf("apex %v missing in %v", apex, m.Vertices())
	}
}

func TestRoofShed(t *testing.T) {
	m, err := FromPolygon(quadXY(1))
	if err != nil {
		t.Fatalf("FromPolygon: %v", err)
	}
	angle := math.Pi / 4
	if err := m.RoofShed(angle, mgl64.Vec3{1, 0, 0}); err != nil {
		t.Fatalf("RoofShed: %v", err)
	}
	// The low eave edge keeps its footprint vertices, so one wall shrinks
	// to nothing: top, two trapezoid walls, the high wall, bottom.
	if m.NumFaces() != 5 || m.NumVertices() != 6 {
		t.Fatalf("got %d faces, %d verts; want 5, 6", m.NumFaces(), m.NumVertices())
	}
	if got := boundaryCount(m); got != 0 {
		t.Errorf("shed has %d boundary halfedges", got)
	}
	if err := m.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
	if got := m.Bounds().Max[2]; !approx(got, 1, 1e-9) {
		t.Errorf("high edge at %v, want tan(45°)*1 = 1", got)
	}
}

func TestRoofShedBadDirection(t *testing.T) {
	m, err := FromPolygon(quadXY(1))
	if err != nil {
		t.Fatalf("FromPolygon: %v", err)
	}
	if err := m.RoofShed(math.Pi/4, mgl64.Vec3{0, 0, 1}); !errors.Is(err, ErrBadDirection) {
		t.Errorf("err = %v, want ErrBadDirection", err)
	}
}

func TestRoofPitchValidation(t *testing.T) {
	for _, bad := range []float64{0, -0.2, math.Pi / 2} {
		m, err := FromPolygon(quadXY(1))
		if err != nil {
			t.Fatalf("FromPolygon: %v", err)
		}
		if err := m.RoofPyramid(bad); !errors.Is(err, skeleton.ErrBadPitch) {
			t.Errorf("pyramid angle %v: err = %v, want ErrBadPitch", bad, err)
		}
		if err := m.RoofHip(bad, 0); !errors.Is(err, skeleton.ErrBadPitch) {
			t.Errorf("hip angle %v: err = %v, want ErrBadPitch", bad, err)
		}
	}
}

func TestRoofRequiresSingleFace(t *testing.T) {
	m := buildCube(t)
	if err := m.RoofHip(math.Pi/4, 0); !errors.Is(err, ErrNotSingleFace) {
		t.Errorf("hip on cube: err = %v, want ErrNotSingleFace", err)
	}
	if err := m.RoofShed(math.Pi/4, mgl64.Vec3{1, 0, 0}); !errors.Is(err, ErrNotSingleFace) {
		t.Errorf("shed on cube: err = %v, want ErrNotSingleFace", err)
	}
}
