package geom

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func vecsClose(a, b mgl64.Vec3, tol float64) bool {
	return a.Sub(b).Len() <= tol
}

func TestPlaneSideOf(t *testing.T) {
	pl := NewPlane(mgl64.Vec3{0, 0, 1}, mgl64.Vec3{0, 0, 2})

	tests := []struct {
		name string
		p    mgl64.Vec3
		want Side
	}{
		{"above", mgl64.Vec3{0, 0, 3}, Above},
		{"below", mgl64.Vec3{5, -2, 1.5}, Below},
		{"on", mgl64.Vec3{7, 7, 2}, On},
		{"on within tolerance", mgl64.Vec3{0, 0, 2 + 1e-9}, On},
		{"just outside tolerance", mgl64.Vec3{0, 0, 2 + 1e-6}, Above},
	}
	for _, tt := range tests {
		if got := pl.SideOf(tt.p); got != tt.want {
			t.Errorf("%s: SideOf(%v) = %v, want %v", tt.name, tt.p, got, tt.want)
		}
	}
}

func TestPlaneFromPoints(t *testing.T) {
	pl, ok := PlaneFromPoints(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 0, 0}, mgl64.Vec3{0, 1, 0})
	if !ok {
		t.Fatal("PlaneFromPoints failed on a valid triangle")
	}
	if !vecsClose(pl.Normal, mgl64.Vec3{0, 0, 1}, 1e-12) {
		t.Errorf("normal = %v, want +Z", pl.Normal)
	}

	if _, ok := PlaneFromPoints(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 1, 1}, mgl64.Vec3{2, 2, 2}); ok {
		t.Error("PlaneFromPoints accepted collinear points")
	}
}

func TestPlaneProjectAndBasis(t *testing.T) {
	pl := NewPlane(mgl64.Vec3{0, 1, 0}, mgl64.Vec3{0, 3, 0})

	p := pl.Project(mgl64.Vec3{2, 7, -1})
	if !vecsClose(p, mgl64.Vec3{2, 3, -1}, 1e-12) {
		t.Errorf("Project = %v, want (2,3,-1)", p)
	}

	u, v := pl.Basis()
	if math.Abs(u.Dot(pl.Normal)) > 1e-12 || math.Abs(v.Dot(pl.Normal)) > 1e-12 {
		t.Errorf("basis not orthogonal to normal: u=%v v=%v", u, v)
	}
	if !vecsClose(u.Cross(v), pl.Normal, 1e-12) {
		t.Errorf("basis not right-handed: u x v = %v, want %v", u.Cross(v), pl.Normal)
	}
}

func TestRayIntersectPlane(t *testing.T) {
	pl := NewPlane(mgl64.Vec3{0, 1, 0}, mgl64.Vec3{0, 2, 0})

	r := NewRay(mgl64.Vec3{1, 0, 1}, mgl64.Vec3{0, 1, 0})
	p, tt, ok := r.IntersectPlane(pl)
	if !ok {
		t.Fatal("ray straight at the plane missed")
	}
	if math.Abs(tt-2) > 1e-12 || !vecsClose(p, mgl64.Vec3{1, 2, 1}, 1e-12) {
		t.Errorf("hit = %v at t=%v, want (1,2,1) at t=2", p, tt)
	}

	// Parallel ray.
	if _, _, ok := NewRay(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 0, 0}).IntersectPlane(pl); ok {
		t.Error("parallel ray reported a hit")
	}

	// Plane behind the origin.
	if _, _, ok := NewRay(mgl64.Vec3{0, 5, 0}, mgl64.Vec3{0, 1, 0}).IntersectPlane(pl); ok {
		t.Error("ray pointing away reported a hit")
	}
}

func TestRayIntersectAABB(t *testing.T) {
	box := AABB{Min: mgl64.Vec3{-1, -1, -1}, Max: mgl64.Vec3{1, 1, 1}}

	tests := []struct {
		name   string
		ray    Ray
		hit    bool
		wantT  float64
		checkT bool
	}{
		{"straight on", NewRay(mgl64.Vec3{0, 0, -5}, mgl64.Vec3{0, 0, 1}), true, 4, true},
		{"miss", NewRay(mgl64.Vec3{0, 5, -5}, mgl64.Vec3{0, 0, 1}), false, 0, false},
		{"from inside", NewRay(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 0, 0}), true, 0, true},
		{"behind", NewRay(mgl64.Vec3{0, 0, 5}, mgl64.Vec3{0, 0, 1}), false, 0, false},
		{"axis parallel inside slab", NewRay(mgl64.Vec3{0.5, 0.5, -3}, mgl64.Vec3{0, 0, 1}), true, 2, true},
		{"axis parallel outside slab", NewRay(mgl64.Vec3{2, 0, -3}, mgl64.Vec3{0, 0, 1}), false, 0, false},
	}
	for _, tt := range tests {
		gotT, hit := tt.ray.IntersectAABB(box)
		if hit != tt.hit {
			t.Errorf("%s: hit = %v, want %v", tt.name, hit, tt.hit)
			continue
		}
		if tt.checkT && math.Abs(gotT-tt.wantT) > 1e-12 {
			t.Errorf("%s: t = %v, want %v", tt.name, gotT, tt.wantT)
		}
	}
}

func TestNewellNormal(t *testing.T) {
	// Planar CCW square in the XY plane.
	sq := []mgl64.Vec3{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}}
	n, ok := NewellNormal(sq)
	if !ok || !vecsClose(n, mgl64.Vec3{0, 0, 1}, 1e-12) {
		t.Errorf("square normal = %v ok=%v, want +Z", n, ok)
	}

	// Reversed winding flips the normal.
	rev := []mgl64.Vec3{{0, 1, 0}, {1, 1, 0}, {1, 0, 0}, {0, 0, 0}}
	n, ok = NewellNormal(rev)
	if !ok || !vecsClose(n, mgl64.Vec3{0, 0, -1}, 1e-12) {
		t.Errorf("reversed normal = %v ok=%v, want -Z", n, ok)
	}

	// Slightly non-planar quad still yields a sensible normal.
	bent := []mgl64.Vec3{{0, 0, 0}, {1, 0, 0.1}, {1, 1, 0}, {0, 1, -0.1}}
	n, ok = NewellNormal(bent)
	if !ok || n[2] < 0.9 {
		t.Errorf("bent quad normal = %v ok=%v, want mostly +Z", n, ok)
	}

	// Degenerate.
	if _, ok := NewellNormal([]mgl64.Vec3{{0, 0, 0}, {1, 1, 1}, {2, 2, 2}}); ok {
		t.Error("NewellNormal accepted a collinear polygon")
	}
}

func TestSignedAreaAndCentroid(t *testing.T) {
	sq := []mgl64.Vec2{{0, 0}, {2, 0}, {2, 2}, {0, 2}}
	if a := SignedArea(sq); math.Abs(a-4) > 1e-12 {
		t.Errorf("SignedArea = %v, want 4", a)
	}
	if !IsCCW(sq) {
		t.Error("CCW square reported as CW")
	}

	rev := []mgl64.Vec2{{0, 2}, {2, 2}, {2, 0}, {0, 0}}
	if a := SignedArea(rev); math.Abs(a+4) > 1e-12 {
		t.Errorf("SignedArea reversed = %v, want -4", a)
	}

	c := Centroid2(sq)
	if c.Sub(mgl64.Vec2{1, 1}).Len() > 1e-12 {
		t.Errorf("Centroid2 = %v, want (1,1)", c)
	}

	// L shape centroid, computed by area-weighted decomposition: the 2x1
	// lower bar and 1x1 upper block.
	l := []mgl64.Vec2{{0, 0}, {2, 0}, {2, 1}, {1, 1}, {1, 2}, {0, 2}}
	c = Centroid2(l)
	want := mgl64.Vec2{(2*1 + 1*0.5) / 3, (2*0.5 + 1*1.5) / 3}
	if c.Sub(want).Len() > 1e-12 {
		t.Errorf("L centroid = %v, want %v", c, want)
	}
}

func TestArea3(t *testing.T) {
	tri := []mgl64.Vec3{{0, 0, 1}, {2, 0, 1}, {0, 2, 1}}
	n := mgl64.Vec3{0, 0, 1}
	if a := Area3(tri, n); math.Abs(a-2) > 1e-12 {
		t.Errorf("Area3 = %v, want 2", a)
	}
	if a := Area3(tri, n.Mul(-1)); math.Abs(a+2) > 1e-12 {
		t.Errorf("Area3 about flipped normal = %v, want -2", a)
	}
}
