package main

import (
	"fmt"
	"math"
	"os"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/carve/pkg/formats"
	"github.com/Faultbox/carve/pkg/geom"
	"github.com/Faultbox/carve/pkg/mesh"
	"github.com/Faultbox/carve/pkg/skeleton"
)

// roofScene is the YAML description of a roof job: a footprint polygon in
// plan coordinates plus construction parameters. Pitch and overhang fall
// back to the configured defaults when omitted.
type roofScene struct {
	Outer       [][]float64   `yaml:"outer"`
	Holes       [][][]float64 `yaml:"holes"`
	Style       string        `yaml:"style"` // hip, gable, pyramid or shed
	Pitch       *float64      `yaml:"pitch"` // degrees
	Overhang    *float64      `yaml:"overhang"`
	Direction   []float64     `yaml:"direction"` // shed slope direction in plan
	Triangulate bool          `yaml:"triangulate"`
	Material    string        `yaml:"material"`
}

var roofCmd = &cobra.Command{
	Use:   "roof {scene.yaml} {out.obj}",
	Short: "Build a roof over a footprint polygon",
	Long: `Reads a footprint scene in YAML (outer polygon, optional holes, style,
pitch, overhang) and writes the constructed roof mesh. Styles hip and
gable run over the straight skeleton and accept holes; pyramid and shed
work on plain footprints.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) != 2 {
			return cmd.Help()
		}

		raw, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading scene: %w", err)
		}
		var scene roofScene
		if err := yaml.Unmarshal(raw, &scene); err != nil {
			return fmt.Errorf("parsing scene: %w", err)
		}

		outer, err := planPolygon("outer", scene.Outer)
		if err != nil {
			return err
		}
		if !geom.IsCCW(outer) {
			reversePlan(outer)
		}

		pitch := cfg.Roof.PitchDegrees
		if scene.Pitch != nil {
			pitch = *scene.Pitch
		}
		overhang := cfg.Roof.Overhang
		if scene.Overhang != nil {
			overhang = *scene.Overhang
		}
		angle := pitch * math.Pi / 180

		style := scene.Style
		if style == "" {
			style = "hip"
		}

		var m *mesh.HalfedgeMesh
		switch style {
		case "hip", "gable":
			m, err = buildSkeletonRoof(&scene, outer, angle, overhang, style == "gable")
		case "pyramid", "shed":
			m, err = buildFootprintRoof(&scene, outer, angle, overhang, style)
		default:
			return fmt.Errorf("unknown roof style %q", style)
		}
		if err != nil {
			return fmt.Errorf("building %s roof: %w", style, err)
		}

		d := m.FillExportBuffers()
		if scene.Triangulate && (style == "pyramid" || style == "shed") {
			if d, err = triangulateData(d); err != nil {
				return err
			}
		}
		if err := formats.WriteOBJFile(args[1], d, cfg.Export.Precision); err != nil {
			return fmt.Errorf("writing mesh: %w", err)
		}

		fmt.Printf("%s roof: %d vertices, %d faces -> %s\n",
			style, len(d.Positions), len(d.Faces), args[1])
		return nil
	},
}

// buildSkeletonRoof raises a hip or gable roof over the footprint via its
// straight skeleton. Holes become courtyard eaves.
func buildSkeletonRoof(scene *roofScene, outer []mgl64.Vec2, angle, overhang float64, gable bool) (*mesh.HalfedgeMesh, error) {
	holes := make([][]mgl64.Vec2, 0, len(scene.Holes))
	for i, h := range scene.Holes {
		hole, err := planPolygon(fmt.Sprintf("hole %d", i), h)
		if err != nil {
			return nil, err
		}
		if geom.IsCCW(hole) {
			reversePlan(hole)
		}
		holes = append(holes, hole)
	}

	sk, err := skeleton.Build(outer, holes...)
	if err != nil {
		return nil, fmt.Errorf("footprint skeleton: %w", err)
	}
	roof, err := skeleton.MakeRoof(sk, skeleton.RoofOptions{
		Angle:       angle,
		Gable:       gable,
		Overhang:    overhang,
		Triangulate: scene.Triangulate,
	})
	if err != nil {
		return nil, err
	}

	data := &formats.MeshData{Positions: roof.Positions}
	for _, face := range roof.Faces {
		data.Faces = append(data.Faces, formats.FaceData{V: face, Material: scene.Material})
	}
	return mesh.FromIndexed(data)
}

// buildFootprintRoof raises a pyramid or shed roof directly on the
// footprint polygon. Neither style supports holes or overhang.
func buildFootprintRoof(scene *roofScene, outer []mgl64.Vec2, angle, overhang float64, style string) (*mesh.HalfedgeMesh, error) {
	if len(scene.Holes) > 0 {
		return nil, fmt.Errorf("style %s does not support holes", style)
	}
	if overhang > 0 {
		return nil, fmt.Errorf("style %s does not support overhang", style)
	}

	footprint := make([]mgl64.Vec3, len(outer))
	for i, p := range outer {
		footprint[i] = mgl64.Vec3{p[0], p[1], 0}
	}
	m, err := mesh.FromPolygon(footprint)
	if err != nil {
		return nil, err
	}
	if scene.Material != "" {
		m.SetFaceMaterial(0, scene.Material)
	}

	if style == "pyramid" {
		err = m.RoofPyramid(angle)
	} else {
		if len(scene.Direction) != 2 || (scene.Direction[0] == 0 && scene.Direction[1] == 0) {
			return nil, fmt.Errorf("style shed requires a plan direction")
		}
		err = m.RoofShed(angle, mgl64.Vec3{scene.Direction[0], scene.Direction[1], 0})
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// planPolygon converts a YAML coordinate list into plan vertices.
func planPolygon(name string, pts [][]float64) ([]mgl64.Vec2, error) {
	if len(pts) < 3 {
		return nil, fmt.Errorf("%s needs at least 3 vertices, got %d", name, len(pts))
	}
	out := make([]mgl64.Vec2, len(pts))
	for i, p := range pts {
		if len(p) != 2 {
			return nil, fmt.Errorf("%s vertex %d: expected 2 coordinates, got %d", name, i, len(p))
		}
		out[i] = mgl64.Vec2{p[0], p[1]}
	}
	return out, nil
}

func reversePlan(pts []mgl64.Vec2) {
	for i, j := 0, len(pts)-1; i < j; i, j = i+1, j-1 {
		pts[i], pts[j] = pts[j], pts[i]
	}
}

func init() {
	rootCmd.AddCommand(roofCmd)
}
