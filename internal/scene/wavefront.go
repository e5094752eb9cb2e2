package scene

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"dualmode-renderer/internal/mathutil"
)

// ReadWavefront parses the geometry records of a Wavefront OBJ stream. Only
// "v", "f", "o" and "g" are interpreted; everything else (normals, uvs,
// materials) is ignored since both pipelines shade flat. Each "o"/"g"
// record starts a new mesh. Faces with more than three vertices are
// fan-triangulated. name is used for error messages.
func ReadWavefront(r io.Reader, name string) ([]*Mesh, error) {
	var (
		vertices []mathutil.Vec3
		meshes   []*Mesh
		lineNum  int
	)

	current := func() *Mesh {
		if len(meshes) == 0 {
			meshes = append(meshes, &Mesh{Name: "default"})
		}
		return meshes[len(meshes)-1]
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lineNum++
		lineTokens := strings.Fields(scanner.Text())
		if len(lineTokens) == 0 || strings.HasPrefix(lineTokens[0], "#") {
			continue
		}

		switch lineTokens[0] {
		case "v":
			v, err := parseVec3(lineTokens)
			if err != nil {
				return nil, emitError(name, lineNum, err)
			}
			vertices = append(vertices, v)
		case "o", "g":
			if len(lineTokens) < 2 {
				return nil, emitError(name, lineNum, fmt.Errorf("unsupported syntax for '%s'; expected 1 argument for object name; got %d", lineTokens[0], len(lineTokens)-1))
			}
			// Consecutive o/g records name the same mesh.
			if len(meshes) > 0 && len(meshes[len(meshes)-1].Indices) == 0 {
				meshes[len(meshes)-1].Name = lineTokens[1]
				continue
			}
			meshes = append(meshes, &Mesh{Name: lineTokens[1]})
		case "f":
			face, err := parseFace(lineTokens, len(vertices))
			if err != nil {
				return nil, emitError(name, lineNum, err)
			}
			m := current()
			for k := 1; k+1 < len(face); k++ {
				m.Indices = append(m.Indices, face[0], face[k], face[k+1])
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scene: read %s: %w", name, err)
	}

	// All meshes index the shared vertex list of the file.
	out := meshes[:0]
	for _, m := range meshes {
		if len(m.Indices) == 0 {
			continue
		}
		m.Vertices = vertices
		out = append(out, m)
	}
	return out, nil
}

func emitError(name string, line int, err error) error {
	return fmt.Errorf("scene: [%s: %d] %w", name, line, err)
}

// parseFace resolves the vertex index of every face argument. Arguments may
// use the v, v/vt, v//vn or v/vt/vn forms; indices start at 1 and negative
// values count back from the end of the vertices read so far.
func parseFace(lineTokens []string, numVertices int) ([]int, error) {
	if len(lineTokens) < 4 {
		return nil, fmt.Errorf("unsupported syntax for 'f'; expected at least 3 arguments; got %d", len(lineTokens)-1)
	}

	face := make([]int, 0, len(lineTokens)-1)
	for arg, tok := range lineTokens[1:] {
		vTok, _, _ := strings.Cut(tok, "/")
		if vTok == "" {
			return nil, fmt.Errorf("face argument %d does not include a vertex index", arg)
		}
		index, err := strconv.Atoi(vTok)
		if err != nil {
			return nil, fmt.Errorf("could not parse vertex index for face argument %d: %w", arg, err)
		}
		switch {
		case index > 0:
			index--
		case index < 0:
			index += numVertices
		default:
			return nil, fmt.Errorf("face argument %d uses vertex index 0", arg)
		}
		if index < 0 || index >= numVertices {
			return nil, fmt.Errorf("face argument %d references undefined vertex %s", arg, vTok)
		}
		face = append(face, index)
	}
	return face, nil
}

func parseVec3(lineTokens []string) (mathutil.Vec3, error) {
	var v mathutil.Vec3
	// A fourth (w) component is allowed and ignored.
	if len(lineTokens) != 4 && len(lineTokens) != 5 {
		return v, fmt.Errorf("unsupported syntax for '%s'; expected 3 arguments; got %d", lineTokens[0], len(lineTokens)-1)
	}
	for i := 0; i < 3; i++ {
		f, err := strconv.ParseFloat(lineTokens[i+1], 64)
		if err != nil {
			return v, err
		}
		v[i] = f
	}
	return v, nil
}
