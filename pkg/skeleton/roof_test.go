package skeleton

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func buildSquareFootprint(t *testing.T) *Skeleton {
	t.Helper()
	s, err := Build([]mgl64.Vec2{{-0.5, -0.5}, {0.5, -0.5}, {0.5, 0.5}, {-0.5, 0.5}})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return s
}

func TestMakeRoofSquareHip(t *testing.T) {
	s := buildSquareFootprint(t)

	// Exactly one arc joins two interior vertices: the collapsed ridge pair.
	ridge := 0
	for _, arc := range s.Arcs() {
		if arc[0] >= s.BoundaryCount() && arc[1] >= s.BoundaryCount() {
			ridge++
		}
	}
	if ridge != 1 {
		t.Fatalf("got %d interior ridge arcs, want 1", ridge)
	}

	angle := 35 * math.Pi / 180
	r, err := MakeRoof(s, RoofOptions{Angle: angle})
	if err != nil {
		t.Fatalf("MakeRoof: %v", err)
	}
	if got := len(r.Faces); got != 5 {
		t.Fatalf("got %d faces, want 4 panels plus bottom", got)
	}
	want := math.Tan(angle) * 0.5
	for i, p := range r.Positions {
		if i < s.BoundaryCount() {
			if p[2] != 0 {
				t.Errorf("eave vertex %d lifted to %v", i, p[2])
			}
		} else if math.Abs(p[2]-want) > 1e-9 {
			t.Errorf("apex vertex %d height %v, want %v", i, p[2], want)
		}
	}

	// Panels keep the footprint's winding; the bottom face reverses it.
	for _, f := range r.Faces[:4] {
		if len(f) < 3 {
			t.Fatalf("degenerate panel %v", f)
		}
		if a := planArea(r.Positions, f); a < -1e-12 {
			t.Errorf("panel %v wound clockwise (area %v)", f, a)
		}
	}
	if a := planArea(r.Positions, r.Bottom); a >= 0 {
		t.Errorf("bottom face area %v, want clockwise", a)
	}
	if len(r.Bottom) != 4 || r.Bottom[0] != 3 || r.Bottom[3] != 0 {
		t.Errorf("bottom ring = %v, want reversed outer ring", r.Bottom)
	}
}

// planArea is the signed xy area of a face, positive for counter-clockwise.
func planArea(pos []mgl64.Vec3, face []int) float64 {
	var a float64
	for i, v := range face {
		w := face[(i+1)%len(face)]
		a += pos[v][0]*pos[w][1] - pos[w][0]*pos[v][1]
	}
	return a / 2
}

func TestMakeRoofPitchRange(t *testing.T) {
	s := buildSquareFootprint(t)
	for _, bad := range []float64{0, -0.3, math.Pi / 2, 2} {
		if _, err := MakeRoof(s, RoofOptions{Angle: bad}); !errors.Is(err, ErrBadPitch) {
			t.Errorf("angle %v: err = %v, want ErrBadPitch", bad, err)
		}
	}
}

func TestMakeRoofGableEnds(t *testing.T) {
	s, err := Build([]mgl64.Vec2{{0, 0}, {2, 0}, {2, 1}, {0, 1}})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	angle := math.Pi / 4
	r, err := MakeRoof(s, RoofOptions{Angle: angle, Gable: true})
	if err != nil {
		t.Fatalf("MakeRoof: %v", err)
	}
	// Both ridge ends move onto their short eave edge, keeping height, so
	// the triangular end panels become vertical gables.
	left := findInterior(t, s, 0.5, 0.5)
	right := findInterior(t, s, 1.5, 0.5)
	h := math.Tan(angle) * 0.5
	wantLeft := mgl64.Vec3{0, 0.5, h}
	wantRight := mgl64.Vec3{2, 0.5, h}
	if r.Positions[left].Sub(wantLeft).Len() > 1e-9 {
		t.Errorf("left ridge end at %v, want %v", r.Positions[left], wantLeft)
	}
	if r.Positions[right].Sub(wantRight).Len() > 1e-9 {
		t.Errorf("right ridge end at %v, want %v", r.Positions[right], wantRight)
	}
	if got := len(r.Faces); got != 5 {
		t.Errorf("got %d faces, want 5", got)
	}
}

func TestMakeRoofGableSkipsPyramid(t *testing.T) {
	// A square collapses to a point; with only an apex pair there is no
	// hip end to convert and gabling must leave the roof alone.
	s := buildSquareFootprint(t)
	r, err := MakeRoof(s, RoofOptions{Angle: math.Pi / 4, Gable: true})
	if err != nil {
		t.Fatalf("MakeRoof: %v", err)
	}
	for i := s.BoundaryCount(); i < len(r.Positions); i++ {
		if p := r.Positions[i]; p[0] != 0 || p[1] != 0 {
			t.Errorf("apex vertex %d moved to %v", i, p)
		}
	}
}

func TestMakeRoofOverhang(t *testing.T) {
	s := buildSquareFootprint(t)
	r, err := MakeRoof(s, RoofOptions{Angle: math.Pi / 6, Overhang: 0.2})
	if err != nil {
		t.Fatalf("MakeRoof: %v", err)
	}
	// Corners move out along the diagonal; the apex pair stays put.
	d := 0.2 / math.Sqrt2
	want := mgl64.Vec3{-0.5 - d, -0.5 - d, 0}
	if r.Positions[0].Sub(want).Len() > 1e-9 {
		t.Errorf("corner 0 at %v, want %v", r.Positions[0], want)
	}
	for i := s.BoundaryCount(); i < len(r.Positions); i++ {
		if p := r.Positions[i]; p[0] != 0 || p[1] != 0 {
			t.Errorf("apex vertex %d displaced to %v", i, p)
		}
	}
}

func TestMakeRoofTriangulated(t *testing.T) {
	s := buildSquareFootprint(t)
	r, err := MakeRoof(s, RoofOptions{Angle: math.Pi / 4, Triangulate: true})
	if err != nil {
		t.Fatalf("MakeRoof: %v", err)
	}
	// Two triangle panels and two apex-pair quads, fanned into 6 triangles,
	// plus the untriangulated bottom.
	if got := len(r.Faces); got != 7 {
		t.Fatalf("got %d faces, want 7", got)
	}
	for _, f := range r.Faces[:6] {
		if len(f) != 3 {
			t.Errorf("panel %v not a triangle", f)
		}
	}
	if len(r.Faces[6]) != 4 {
		t.Errorf("bottom face %v, want the full footprint", r.Faces[6])
	}
}

func TestMakeRoofLShapePanels(t *testing.T) {
	s, err := Build([]mgl64.Vec2{{0, 0}, {2, 0}, {2, 1}, {1, 1}, {1, 2}, {0, 2}})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	r, err := MakeRoof(s, RoofOptions{Angle: math.Pi / 4})
	if err != nil {
		t.Fatalf("MakeRoof: %v", err)
	}
	if got := len(r.Faces); got != 7 {
		t.Fatalf("got %d faces, want 6 panels plus bottom", got)
	}
	// Each panel opens with its boundary edge and stays within the table.
	for i, f := range r.Faces[:6] {
		if len(f) < 3 {
			t.Fatalf("panel %d = %v too small", i, f)
		}
		a, b := f[0], f[1]
		if a != i || b != (i+1)%6 {
			t.Errorf("panel %d opens with %d-%d, want %d-%d", i, a, b, i, (i+1)%6)
		}
		for _, v := range f {
			if v < 0 || v >= len(r.Positions) {
				t.Fatalf("panel %d references vertex %d", i, v)
			}
		}
	}
	// Lifted panels stay planar: every vertex height matches the panel
	// plane spanned by the eave edge and the pitch.
	for i, f := range r.Faces[:6] {
		a := r.Positions[f[0]]
		ed := r.Positions[f[1]].Sub(a)
		for _, v := range f[2:] {
			p := r.Positions[v]
			// distance from the eave line in the plan
			d := math.Abs(ed[0]*(p[1]-a[1])-ed[1]*(p[0]-a[0])) / math.Hypot(ed[0], ed[1])
			if math.Abs(p[2]-d*math.Tan(math.Pi/4)) > 1e-9 {
				t.Errorf("panel %d vertex %d off its roof plane", i, v)
				break
			}
		}
	}
}
