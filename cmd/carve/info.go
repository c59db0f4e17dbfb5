package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/Faultbox/carve/pkg/mesh"
)

var infoCheck bool

var infoCmd = &cobra.Command{
	Use:   "info {mesh.obj}",
	Short: "Print mesh statistics",
	Long:  `Loads a mesh and prints vertex, face and attribute counts, the bounding box, and the number of faces per material.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) != 1 {
			return cmd.Help()
		}

		m, err := mesh.FromFile(args[0])
		if err != nil {
			return fmt.Errorf("loading mesh: %w", err)
		}

		fmt.Printf("vertices:  %d\n", m.NumVertices())
		fmt.Printf("faces:     %d\n", m.NumFaces())
		fmt.Printf("halfedges: %d\n", m.NumHalfedges())

		bounds := m.Bounds()
		if bounds.IsEmpty() {
			fmt.Println("bounds:    empty")
		} else {
			fmt.Printf("bounds:    (%g, %g, %g) .. (%g, %g, %g)\n",
				bounds.Min[0], bounds.Min[1], bounds.Min[2],
				bounds.Max[0], bounds.Max[1], bounds.Max[2])
		}

		fmt.Printf("normals:   %s\n", yesNo(m.HasNormals()))
		fmt.Printf("uvs:       %s\n", yesNo(m.HasUVs()))

		counts := m.FillExportBuffers().CountByMaterial()
		names := make([]string, 0, len(counts))
		for name := range counts {
			names = append(names, name)
		}
		sort.Strings(names)

		fmt.Println("materials:")
		for _, name := range names {
			label := name
			if label == "" {
				label = "(none)"
			}
			fmt.Printf("  %s: %d\n", label, counts[name])
		}

		if infoCheck {
			if err := m.Validate(); err != nil {
				return fmt.Errorf("topology check: %w", err)
			}
			fmt.Println("topology:  ok")
		}
		return nil
	},
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func init() {
	rootCmd.AddCommand(infoCmd)
	infoCmd.Flags().BoolVar(&infoCheck, "check", false, "Run the topology validator")
}
