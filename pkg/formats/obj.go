// Package formats reads and writes the mesh description files the kernel
// consumes and produces.
package formats

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"
)

// OBJ format errors.
var (
	ErrNoOBJGeometry = errors.New("OBJ data contains no faces")
)

// FaceData is one polygonal face of a MeshData: parallel index lists into
// the position/normal/UV tables. N and T are either nil or the same length
// as V.
type FaceData struct {
	V        []int
	N        []int
	T        []int
	Material string
}

// MeshData is the denormalized mesh description exchanged with the mesh
// kernel: flat attribute tables plus per-face index lists. Indices are
// 0-based. Faces keep their file order on decode and are grouped by
// material on encode.
type MeshData struct {
	Positions []mgl64.Vec3
	Normals   []mgl64.Vec3
	UVs       []mgl64.Vec2
	Faces     []FaceData
}

// CountByMaterial returns the number of faces per material name.
func (d *MeshData) CountByMaterial() map[string]int {
	counts := make(map[string]int)
	for _, f := range d.Faces {
		counts[f.Material]++
	}
	return counts
}

// DecodeOBJ parses a Wavefront OBJ mesh from raw bytes.
//
// The supported subset is v/vn/vt statements and polygonal f statements
// with 1-based indices in the v, v/t, v//n and v/t/n forms. usemtl sets
// the material name carried by subsequent faces; mtllib, o, g and s lines
// hold no geometry and are ignored. Malformed lines, faces with fewer
// than three vertices and faces referencing out-of-range or negative
// indices are skipped with a diagnostic; decoding fails only when no face
// survives.
func DecodeOBJ(data []byte) (*MeshData, error) {
	d := &MeshData{}
	material := ""

	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		switch fields[0] {
		case "v":
			p, err := parseVec3(fields[1:])
			if err != nil {
				zap.L().Warn("formats: skipping malformed OBJ vertex",
					zap.Int("line", line), zap.Error(err))
				continue
			}
			d.Positions = append(d.Positions, p)
		case "vn":
			n, err := parseVec3(fields[1:])
			if err != nil {
				zap.L().Warn("formats: skipping malformed OBJ normal",
					zap.Int("line", line), zap.Error(err))
				continue
			}
			d.Normals = append(d.Normals, n)
		case "vt":
			uv, err := parseVec2(fields[1:])
			if err != nil {
				zap.L().Warn("formats: skipping malformed OBJ texture coordinate",
					zap.Int("line", line), zap.Error(err))
				continue
			}
			d.UVs = append(d.UVs, uv)
		case "f":
			d.decodeFace(fields[1:], material, line)
		case "usemtl":
			if len(fields) > 1 {
				material = fields[1]
			}
		case "mtllib", "o", "g", "s":
			// No geometry; material descriptions beyond the name are out of scope.
		default:
			zap.L().Debug("formats: ignoring OBJ statement",
				zap.String("keyword", fields[0]), zap.Int("line", line))
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scanning OBJ data: %w", err)
	}
	if len(d.Faces) == 0 {
		return nil, ErrNoOBJGeometry
	}
	return d, nil
}

// DecodeOBJFile parses an OBJ file from disk.
func DecodeOBJFile(path string) (*MeshData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading OBJ file: %w", err)
	}
	return DecodeOBJ(data)
}

func parseVec3(fields []string) (mgl64.Vec3, error) {
	if len(fields) < 3 {
		return mgl64.Vec3{}, fmt.Errorf("expected 3 components, got %d", len(fields))
	}
	var v mgl64.Vec3
	for i := 0; i < 3; i++ {
		x, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return mgl64.Vec3{}, fmt.Errorf("component %d: %w", i, err)
		}
		v[i] = x
	}
	return v, nil
}

func parseVec2(fields []string) (mgl64.Vec2, error) {
	if len(fields) < 2 {
		return mgl64.Vec2{}, fmt.Errorf("expected 2 components, got %d", len(fields))
	}
	var v mgl64.Vec2
	for i := 0; i < 2; i++ {
		x, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return mgl64.Vec2{}, fmt.Errorf("component %d: %w", i, err)
		}
		v[i] = x
	}
	return v, nil
}

// decodeFace parses one f statement. Corners must agree on which index
// forms they use; 1-based indices are resolved against the tables read so
// far.
func (d *MeshData) decodeFace(specs []string, material string, line int) {
	if len(specs) < 3 {
		zap.L().Warn("formats: skipping OBJ face with fewer than 3 vertices",
			zap.Int("line", line), zap.Int("vertices", len(specs)))
		return
	}
	face := FaceData{Material: material}
	hasT, hasN := false, false
	for i, spec := range specs {
		v, t, n, hT, hN, err := parseFaceVertex(spec)
		if err != nil {
			zap.L().Warn("formats: skipping malformed OBJ face",
				zap.Int("line", line), zap.String("vertex", spec), zap.Error(err))
			return
		}
		if i == 0 {
			hasT, hasN = hT, hN
		} else if hT != hasT || hN != hasN {
			zap.L().Warn("formats: skipping OBJ face with inconsistent index forms",
				zap.Int("line", line))
			return
		}
		if v < 1 || v > len(d.Positions) ||
			hasT && (t < 1 || t > len(d.UVs)) ||
			hasN && (n < 1 || n > len(d.Normals)) {
			zap.L().Warn("formats: skipping OBJ face with out-of-range index",
				zap.Int("line", line), zap.String("vertex", spec))
			return
		}
		face.V = append(face.V, v-1)
		if hasT {
			face.T = append(face.T, t-1)
		}
		if hasN {
			face.N = append(face.N, n-1)
		}
	}
	d.Faces = append(d.Faces, face)
}

// parseFaceVertex splits one face corner spec: v, v/t, v//n or v/t/n.
// Indices are returned as written, 1-based; negative relative indices are
// reported as out of range by the caller.
func parseFaceVertex(spec string) (v, t, n int, hasT, hasN bool, err error) {
	parts := strings.Split(spec, "/")
	if len(parts) > 3 {
		return 0, 0, 0, false, false, fmt.Errorf("too many index components in %q", spec)
	}
	v, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, 0, false, false, fmt.Errorf("vertex index: %w", err)
	}
	if len(parts) > 1 && parts[1] != "" {
		t, err = strconv.Atoi(parts[1])
		if err != nil {
			return 0, 0, 0, false, false, fmt.Errorf("texture index: %w", err)
		}
		hasT = true
	}
	if len(parts) > 2 {
		if parts[2] == "" {
			return 0, 0, 0, false, false, fmt.Errorf("empty normal index in %q", spec)
		}
		n, err = strconv.Atoi(parts[2])
		if err != nil {
			return 0, 0, 0, false, false, fmt.Errorf("normal index: %w", err)
		}
		hasN = true
	}
	return v, t, n, hasT, hasN, nil
}

// EncodeOBJ serializes d as Wavefront OBJ text. Faces are grouped by
// material so every usemtl statement appears once, unnamed faces first.
// precision is the number of decimals written for vertex data; a negative
// precision writes the shortest representation that parses back exactly.
func EncodeOBJ(d *MeshData, precision int) []byte {
	var buf bytes.Buffer

	for _, p := range d.Positions {
		buf.WriteString("v")
		appendCoords(&buf, p[:], precision)
		buf.WriteByte('\n')
	}
	for _, n := range d.Normals {
		buf.WriteString("vn")
		appendCoords(&buf, n[:], precision)
		buf.WriteByte('\n')
	}
	for _, uv := range d.UVs {
		buf.WriteString("vt")
		appendCoords(&buf, uv[:], precision)
		buf.WriteByte('\n')
	}

	for _, material := range d.materialOrder() {
		if material != "" {
			buf.WriteString("usemtl ")
			buf.WriteString(material)
			buf.WriteByte('\n')
		}
		for _, f := range d.Faces {
			if f.Material != material {
				continue
			}
			encodeFace(&buf, f)
		}
	}
	return buf.Bytes()
}

// WriteOBJFile serializes d and writes it to path.
func WriteOBJFile(path string, d *MeshData, precision int) error {
	if err := os.WriteFile(path, EncodeOBJ(d, precision), 0o644); err != nil {
		return fmt.Errorf("writing OBJ file: %w", err)
	}
	return nil
}

// materialOrder lists distinct face materials, unnamed first, the rest in
// first-appearance order.
func (d *MeshData) materialOrder() []string {
	order := make([]string, 0, 4)
	seen := make(map[string]bool)
	for _, f := range d.Faces {
		if f.Material != "" && !seen[f.Material] {
			seen[f.Material] = true
			order = append(order, f.Material)
		}
	}
	for _, f := range d.Faces {
		if f.Material == "" {
			return append([]string{""}, order...)
		}
	}
	return order
}

func encodeFace(buf *bytes.Buffer, f FaceData) {
	buf.WriteString("f")
	for i, v := range f.V {
		buf.WriteByte(' ')
		buf.WriteString(strconv.Itoa(v + 1))
		switch {
		case len(f.T) > 0 && len(f.N) > 0:
			buf.WriteByte('/')
			buf.WriteString(strconv.Itoa(f.T[i] + 1))
			buf.WriteByte('/')
			buf.WriteString(strconv.Itoa(f.N[i] + 1))
		case len(f.T) > 0:
			buf.WriteByte('/')
			buf.WriteString(strconv.Itoa(f.T[i] + 1))
		case len(f.N) > 0:
			buf.WriteString("//")
			buf.WriteString(strconv.Itoa(f.N[i] + 1))
		}
	}
	buf.WriteByte('\n')
}

func appendCoords(buf *bytes.Buffer, coords []float64, precision int) {
	if precision < 0 {
		precision = -1
	}
	for _, x := range coords {
		buf.WriteByte(' ')
		buf.WriteString(strconv.FormatFloat(x, 'f', precision, 64))
	}
}
