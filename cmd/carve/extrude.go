package main

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/spf13/cobra"

	"github.com/Faultbox/carve/pkg/formats"
	"github.com/Faultbox/carve/pkg/mesh"
)

var (
	extrudeDist float64
	extrudeDir  string
)

var extrudeCmd = &cobra.Command{
	Use:   "extrude {in.obj} {out.obj}",
	Short: "Extrude a single-face mesh into a prism",
	Long: `Reads a single-face mesh and extrudes it into a closed prism, either
along the face normal (--dist) or along an explicit vector (--dir).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) != 2 {
			return cmd.Help()
		}

		m, err := mesh.FromFile(args[0])
		if err != nil {
			return fmt.Errorf("loading mesh: %w", err)
		}

		switch {
		case extrudeDir != "":
			c, err := parseFloats(extrudeDir, 3)
			if err != nil {
				return fmt.Errorf("parsing --dir: %w", err)
			}
			if err := m.Extrude(mgl64.Vec3{c[0], c[1], c[2]}); err != nil {
				return fmt.Errorf("extruding: %w", err)
			}
		case extrudeDist != 0:
			if err := m.ExtrudeAlongNormal(extrudeDist); err != nil {
				return fmt.Errorf("extruding: %w", err)
			}
		default:
			return fmt.Errorf("either --dist or --dir is required")
		}

		if err := formats.WriteOBJFile(args[1], m.FillExportBuffers(), cfg.Export.Precision); err != nil {
			return fmt.Errorf("writing mesh: %w", err)
		}

		fmt.Printf("extruded to %d faces\n", m.NumFaces())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(extrudeCmd)
	extrudeCmd.Flags().Float64Var(&extrudeDist, "dist", 0, "Extrusion distance along the face normal")
	extrudeCmd.Flags().StringVar(&extrudeDir, "dir", "", "Extrusion vector as x,y,z (overrides --dist)")
}
