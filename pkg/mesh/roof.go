package mesh

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/carve/pkg/formats"
	"github.com/Faultbox/carve/pkg/geom"
	"github.com/Faultbox/carve/pkg/skeleton"
)

// planFrame maps footprint plan coordinates into the face's world plane:
// (x, y, h) becomes origin + x*u + y*v + h*n.
type planFrame struct {
	origin  mgl64.Vec3
	u, v, n mgl64.Vec3
}

func (f planFrame) toWorld(p mgl64.Vec3) mgl64.Vec3 {
	return f.origin.Add(f.u.Mul(p[0])).Add(f.v.Mul(p[1])).Add(f.n.Mul(p[2]))
}

func (f planFrame) toPlan(p mgl64.Vec3) mgl64.Vec2 {
	d := p.Sub(f.origin)
	return mgl64.Vec2{d.Dot(f.u), d.Dot(f.v)}
}

// footprintPlan projects the mesh's single face into its own plane basis.
// The plan winds counter-clockwise because the face normal is derived from
// the face winding.
func (m *HalfedgeMesh) footprintPlan() ([]mgl64.Vec2, planFrame, error) {
	if len(m.faces) != 1 {
		return nil, planFrame{}, ErrNotSingleFace
	}
	loop := m.FaceVertices(0)
	frame := planFrame{origin: m.verts[loop[0]], n: m.faceNorms[0]}
	frame.u, frame.v = geom.NewPlane(frame.n, frame.origin).Basis()
	plan := make([]mgl64.Vec2, len(loop))
	for i, v := range loop {
		plan[i] = frame.toPlan(m.verts[v])
	}
	return plan, frame, nil
}

// RoofHip replaces the single footprint face with a hip roof of the given
// pitch, eaves pushed outward by overhang. Channels are discarded.
func (m *HalfedgeMesh) RoofHip(angle, overhang float64) error {
	return m.skeletonRoof(angle, overhang, false)
}

// RoofGable is RoofHip with gable correction: ridge ends are shifted onto
// their eave edges so the roof ends in vertical gable faces.
func (m *HalfedgeMesh) RoofGable(angle, overhang float64) error {
	return m.skeletonRoof(angle, overhang, true)
}

func (m *HalfedgeMesh) skeletonRoof(angle, overhang float64, gable bool) error {
	plan, frame, err := m.footprintPlan()
	if err != nil {
		return err
	}
	sk, err := skeleton.Build(plan)
	if err != nil {
		return fmt.Errorf("footprint skeleton: %w", err)
	}
	roof, err := skeleton.MakeRoof(sk, skeleton.RoofOptions{
		Angle:    angle,
		Gable:    gable,
		Overhang: overhang,
	})
	if err != nil {
		return err
	}

	data := &formats.MeshData{Positions: make([]mgl64.Vec3, len(roof.Positions))}
	for i, p := range roof.Positions {
		data.Positions[i] = frame.toWorld(p)
	}
	material := m.faceMats[0]
	for _, face := range roof.Faces {
		data.Faces = append(data.Faces, formats.FaceData{
			V:        append([]int(nil), face...),
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

// RoofPyramid replaces the single footprint face with a pyramid: one apex
// over the plan centroid, lifted by tan(angle) times the centroid's
// distance to the nearest footprint edge. Channels are discarded.
func (m *HalfedgeMesh) RoofPyramid(angle float64) error {
	if angle <= 0 || angle >= math.Pi/2 {
		return skeleton.ErrBadPitch
	}
	plan, frame, err := m.footprintPlan()
	if err != nil {
		return err
	}
	loop := m.FaceVertices(0)
	n := len(loop)

	c := geom.Centroid2(plan)
	dist := math.Inf(1)
	for i := range plan {
		if d := pointSegDist(c, plan[i], plan[(i+1)%n]); d < dist {
			dist = d
		}
	}

	data := &formats.MeshData{Positions: make([]mgl64.Vec3, 0, n+1)}
	for _, v := range loop {
		data.Positions = append(data.Positions, m.verts[v])
	}
	data.Positions = append(data.Positions, frame.toWorld(mgl64.Vec3{c[0], c[1], math.Tan(angle) * dist}))

	material := m.faceMats[0]
	for i := 0; i < n; i++ {
		data.Faces = append(data.Faces, formats.FaceData{
			V:        []int{i, (i + 1) % n, n},
			Material: material,
		})
	}
	bottom := make([]int, n)
	for i := range bottom {
		bottom[i] = n - 1 - i
	}
	data.Faces = append(data.Faces, formats.FaceData{V: bottom, Material: material})

	nm, err := FromIndexed(data)
	if err != nil {
		return err
	}
	*m = *nm
	return nil
}

// RoofShed shears the single footprint face into a single-slope roof: the
// footprint edge furthest against dir stays at eave height and elevation
// grows by tan(angle) per unit of plan distance along dir. dir is a world
// direction and is projected into the footprint plane. Channels are
// discarded.
func (m *HalfedgeMesh) RoofShed(angle float64, dir mgl64.Vec3) error {
	if angle <= 0 || angle >= math.Pi/2 {
		return skeleton.ErrBadPitch
	}
	plan, frame, err := m.footprintPlan()
	if err != nil {
		return err
	}
	d2 := mgl64.Vec2{dir.Dot(frame.u), dir.Dot(frame.v)}
	if d2.Len() < geom.Eps {
		return fmt.Errorf("shed direction parallel to the footprint normal: %w", ErrBadDirection)
	}
	d2 = d2.Normalize()

	loop := m.FaceVertices(0)
	n := len(loop)
	low := math.Inf(1)
	for _, p := range plan {
		if t := p.Dot(d2); t < low {
			low = t
		}
	}

	data := &formats.MeshData{Positions: make([]mgl64.Vec3, 0, 2*n)}
	for _, v := range loop {
		data.Positions = append(data.Positions, m.verts[v])
	}
	top := make([]int, n)
	for i, p := range plan {
		h := math.Tan(angle) * (p.Dot(d2) - low)
		if h <= geom.Eps {
			top[i] = i // eave vertices stay on the footprint
			continue
		}
		top[i] = len(data.Positions)
		data.Positions = append(data.Positions, frame.toWorld(mgl64.Vec3{p[0], p[1], h}))
	}

	material := m.faceMats[0]
	data.Faces = append(data.Faces, formats.FaceData{V: compactLoop(top), Material: material})
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		side := compactLoop([]int{i, j, top[j], top[i]})
		if len(side) < 3 {
			continue
		}
		data.Faces = append(data.Faces, formats.FaceData{V: side, Material: material})
	}
	bottom := make([]int, n)
	for i := range bottom {
		bottom[i] = n - 1 - i
	}
	data.Faces = append(data.Faces, formats.FaceData{V: bottom, Material: material})

	nm, err := FromIndexed(data)
	if err != nil {
		return err
	}
	*m = *nm
	return nil
}

// compactLoop removes consecutive duplicate indices, the wrap-around pair
// included.
func compactLoop(loop []int) []int {
	out := make([]int, 0, len(loop))
	for _, v := range loop {
		if len(out) > 0 && out[len(out)-1] == v {
			continue
		}
		out = append(out, v)
	}
	for len(out) > 1 && out[0] == out[len(out)-1] {
		out = out[:len(out)-1]
	}
	return out
}

// pointSegDist returns the distance from p to the segment ab.
func pointSegDist(p, a, b mgl64.Vec2) float64 {
	ab := b.Sub(a)
	l2 := ab.Dot(ab)
	if l2 < geom.Eps*geom.Eps {
		return p.Sub(a).Len()
	}
	t := p.Sub(a).Dot(ab) / l2
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return p.Sub(a.Add(ab.Mul(t))).Len()
}
