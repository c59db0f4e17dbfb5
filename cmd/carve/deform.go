package main

import (
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/carve/pkg/formats"
	"github.com/Faultbox/carve/pkg/mesh"
)

var deformGridPath string

// ffdGridFile is the YAML description of a deformation lattice: the three
// degrees and one control point per lattice site, ordered with the last
// axis fastest. Control points live in the unit lattice; (0,0,0)..(1,1,1)
// is the identity.
type ffdGridFile struct {
	Degrees []int       `yaml:"degrees"`
	Points  [][]float64 `yaml:"points"`
}

var deformCmd = &cobra.Command{
	Use:   "deform {in.obj} {out.obj}",
	Short: "Apply free-form deformation to a mesh",
	Long: `Reads a mesh and a control lattice (--grid) and writes the deformed
mesh. The lattice is fitted to the mesh bounding box, so control points
are given in unit coordinates.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) != 2 {
			return cmd.Help()
		}
		if deformGridPath == "" {
			return fmt.Errorf("--grid is required")
		}

		grid, err := loadFFDGrid(deformGridPath)
		if err != nil {
			return fmt.Errorf("loading grid: %w", err)
		}

		m, err := mesh.FromFile(args[0])
		if err != nil {
			return fmt.Errorf("loading mesh: %w", err)
		}
		if err := m.DeformFFD(grid); err != nil {
			return fmt.Errorf("deforming: %w", err)
		}

		if err := formats.WriteOBJFile(args[1], m.FillExportBuffers(), cfg.Export.Precision); err != nil {
			return fmt.Errorf("writing mesh: %w", err)
		}

		fmt.Printf("deformed %d vertices -> %s\n", m.NumVertices(), args[1])
		return nil
	},
}

func loadFFDGrid(path string) (*mesh.FFDGrid, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var gf ffdGridFile
	if err := yaml.Unmarshal(raw, &gf); err != nil {
		return nil, err
	}

	if len(gf.Degrees) != 3 {
		return nil, fmt.Errorf("degrees must list 3 values, got %d", len(gf.Degrees))
	}
	l, gm, n := gf.Degrees[0], gf.Degrees[1], gf.Degrees[2]
	grid, err := mesh.NewFFDGrid(l, gm, n)
	if err != nil {
		return nil, err
	}

	want := (l + 1) * (gm + 1) * (n + 1)
	if len(gf.Points) != want {
		return nil, fmt.Errorf("degrees (%d, %d, %d) need %d control points, got %d",
			l, gm, n, want, len(gf.Points))
	}

	p := 0
	for i := 0; i <= l; i++ {
		for j := 0; j <= gm; j++ {
			for k := 0; k <= n; k++ {
				pt := gf.Points[p]
				if len(pt) != 3 {
					return nil, fmt.Errorf("control point %d: expected 3 coordinates, got %d", p, len(pt))
				}
				grid.SetPoint(i, j, k, mgl64.Vec3{pt[0], pt[1], pt[2]})
				p++
			}
		}
	}
	return grid, nil
}

func init() {
	rootCmd.AddCommand(deformCmd)
	deformCmd.Flags().StringVar(&deformGridPath, "grid", "", "YAML control lattice file")
}
