package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Faultbox/carve/pkg/formats"
	"github.com/Faultbox/carve/pkg/triangulate"
)

var triangulateCmd = &cobra.Command{
	Use:   "triangulate {in.obj} {out.obj}",
	Short: "Split every face into triangles",
	Long:  `Reads a mesh, ear-clips every polygonal face into triangles and writes the result. Faces are assumed counter-clockwise.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) != 2 {
			return cmd.Help()
		}

		d, err := formats.DecodeOBJFile(args[0])
		if err != nil {
			return fmt.Errorf("reading mesh: %w", err)
		}

		out, err := triangulateData(d)
		if err != nil {
			return err
		}

		if err := formats.WriteOBJFile(args[1], out, cfg.Export.Precision); err != nil {
			return fmt.Errorf("writing mesh: %w", err)
		}

		fmt.Printf("%d faces in, %d triangles out\n", len(d.Faces), len(out.Faces))
		return nil
	},
}

// triangulateData ear-clips every non-triangle face of d. The vertex,
// normal and UV tables carry over unchanged; only the face list is
// rebuilt.
func triangulateData(d *formats.MeshData) (*formats.MeshData, error) {
	out := &formats.MeshData{
		Positions: d.Positions,
		Normals:   d.Normals,
		UVs:       d.UVs,
		Faces:     make([]formats.FaceData, 0, len(d.Faces)),
	}

	for fi := range d.Faces {
		f := &d.Faces[fi]
		if len(f.V) == 3 {
			out.Faces = append(out.Faces, *f)
			continue
		}

		tris, err := triangulate.Triangulate(d.Positions, f.V, false)
		if err != nil {
			return nil, fmt.Errorf("triangulating face %d: %w", fi, err)
		}

		// Triangles come back as position indices; map them to the face
		// corners to carry per-corner normals and UVs along.
		corner := make(map[int]int, len(f.V))
		for slot, v := range f.V {
			if _, ok := corner[v]; !ok {
				corner[v] = slot
			}
		}

		for _, tri := range tris {
			nf := formats.FaceData{
				V:        []int{tri[0], tri[1], tri[2]},
				Material: f.Material,
			}
			if len(f.N) > 0 {
				nf.N = []int{f.N[corner[tri[0]]], f.N[corner[tri[1]]], f.N[corner[tri[2]]]}
			}
			if len(f.T) > 0 {
				nf.T = []int{f.T[corner[tri[0]]], f.T[corner[tri[1]]], f.T[corner[tri[2]]]}
			}
			out.Faces = append(out.Faces, nf)
		}
	}
	return out, nil
}

func init() {
	rootCmd.AddCommand(triangulateCmd)
}
