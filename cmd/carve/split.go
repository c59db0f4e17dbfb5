package main

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/spf13/cobra"

	"github.com/Faultbox/carve/pkg/formats"
	"github.com/Faultbox/carve/pkg/geom"
	"github.com/Faultbox/carve/pkg/mesh"
)

var (
	splitPlane string
	splitBelow string
	splitAbove string
)

var splitCmd = &cobra.Command{
	Use:   "split {in.obj}",
	Short: "Split a mesh by a plane",
	Long: `Splits a mesh into the parts below and above a plane and writes each
part to its own file. The plane is given as nx,ny,nz,d meaning the set
of points p with dot(n, p) = d; closed inputs get planar cap faces.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) != 1 {
			return cmd.Help()
		}
		if splitBelow == "" && splitAbove == "" {
			return fmt.Errorf("at least one of --below or --above is required")
		}

		pl, err := parsePlane(splitPlane)
		if err != nil {
			return fmt.Errorf("parsing --plane: %w", err)
		}

		m, err := mesh.FromFile(args[0])
		if err != nil {
			return fmt.Errorf("loading mesh: %w", err)
		}

		below, above, err := m.SplitByPlane(pl)
		if err != nil {
			return fmt.Errorf("splitting: %w", err)
		}

		if err := writeHalf("below", splitBelow, below); err != nil {
			return err
		}
		return writeHalf("above", splitAbove, above)
	},
}

// parsePlane parses "nx,ny,nz,d" into the plane dot(n, p) = d.
func parsePlane(s string) (geom.Plane, error) {
	if s == "" {
		return geom.Plane{}, fmt.Errorf("plane is required")
	}
	c, err := parseFloats(s, 4)
	if err != nil {
		return geom.Plane{}, err
	}
	n := mgl64.Vec3{c[0], c[1], c[2]}
	l := n.Len()
	if l < geom.Eps {
		return geom.Plane{}, fmt.Errorf("plane normal is zero")
	}
	n = n.Mul(1 / l)
	return geom.NewPlane(n, n.Mul(c[3]/l)), nil
}

func writeHalf(side, path string, m *mesh.HalfedgeMesh) error {
	if path == "" {
		return nil
	}
	if m.NumFaces() == 0 {
		fmt.Printf("%s half is empty, skipping %s\n", side, path)
		return nil
	}
	if err := formats.WriteOBJFile(path, m.FillExportBuffers(), cfg.Export.Precision); err != nil {
		return fmt.Errorf("writing %s half: %w", side, err)
	}
	fmt.Printf("%s: %d faces -> %s\n", side, m.NumFaces(), path)
	return nil
}

func init() {
	rootCmd.AddCommand(splitCmd)
	splitCmd.Flags().StringVar(&splitPlane, "plane", "", "Cut plane as nx,ny,nz,d")
	splitCmd.Flags().StringVar(&splitBelow, "below", "", "Output file for the part below the plane")
	splitCmd.Flags().StringVar(&splitAbove, "above", "", "Output file for the part above the plane")
}
