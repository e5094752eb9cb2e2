package scene

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"dualmode-renderer/internal/mathutil"
)

// builtinPrefix selects a primitive mesh instead of an OBJ file.
const builtinPrefix = "builtin:"

// ObjectDesc describes one scene object in a scene file.
type ObjectDesc struct {
	Name string `json:"name"`
	// Mesh is an OBJ path relative to the scene file, or "builtin:cube" /
	// "builtin:quad".
	Mesh     string         `json:"mesh"`
	Position mathutil.Vec3  `json:"position"`
	Rotation mathutil.Vec3  `json:"rotation"` // pitch, yaw, roll in degrees
	Scale    *mathutil.Vec3 `json:"scale,omitempty"`
}

// Description is the on-disk scene format.
type Description struct {
	Objects []ObjectDesc `json:"objects"`
}

// Transform returns the local-to-world matrix of the object.
func (d ObjectDesc) Transform() mathutil.Mat4 {
	scale := mathutil.Vec3{1, 1, 1}
	if d.Scale != nil {
		scale = *d.Scale
	}
	rot := mathutil.QuatToMat3(mathutil.QuatFromEulerDeg(d.Rotation[0], d.Rotation[1], d.Rotation[2]))
	return mathutil.Mat4TRS(d.Position, rot, scale)
}

// Load reads a scene from path: a bare Wavefront OBJ file becomes one
// object per mesh at the origin, anything else is read as a JSON scene
// description.
func Load(path string) ([]Object, error) {
	if !strings.EqualFold(filepath.Ext(path), ".obj") {
		return LoadFile(path)
	}
	meshes, err := resolveMesh(filepath.Base(path), filepath.Dir(path), make(map[string][]*Mesh))
	if err != nil {
		return nil, fmt.Errorf("scene: %w", err)
	}
	objects := make([]Object, len(meshes))
	for i, m := range meshes {
		objects[i] = &StaticObject{Name: m.Name, Geom: m, World: mathutil.Mat4Identity()}
	}
	return objects, nil
}

// LoadFile reads a JSON scene description and returns its objects in file
// order. OBJ files referenced more than once are parsed once.
func LoadFile(path string) ([]Object, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scene: read %s: %w", path, err)
	}

	var desc Description
	if err := json.Unmarshal(data, &desc); err != nil {
		return nil, fmt.Errorf("scene: parse %s: %w", path, err)
	}

	return desc.Resolve(filepath.Dir(path))
}

// Resolve loads the meshes referenced by the description. Relative OBJ
// paths are resolved against baseDir.
func (desc Description) Resolve(baseDir string) ([]Object, error) {
	cache := make(map[string][]*Mesh)
	var objects []Object

	for i, od := range desc.Objects {
		meshes, err := resolveMesh(od.Mesh, baseDir, cache)
		if err != nil {
			return nil, fmt.Errorf("scene: object %d (%s): %w", i, od.Name, err)
		}
		world := od.Transform()
		for _, m := range meshes {
			objects = append(objects, &StaticObject{Name: od.Name, Geom: m, World: world})
		}
	}
	return objects, nil
}

func resolveMesh(ref, baseDir string, cache map[string][]*Mesh) ([]*Mesh, error) {
	if name, ok := strings.CutPrefix(ref, builtinPrefix); ok {
		ctor, ok := builtin[name]
		if !ok {
			return nil, fmt.Errorf("unknown builtin mesh %q", name)
		}
		return []*Mesh{ctor()}, nil
	}
	if ref == "" {
		// Objects without geometry are legal and skipped by Build.
		return []*Mesh{nil}, nil
	}

	path := ref
	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}
	if meshes, ok := cache[path]; ok {
		return meshes, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open mesh: %w", err)
	}
	defer f.Close()

	meshes, err := ReadWavefront(f, path)
	if err != nil {
		return nil, err
	}
	cache[path] = meshes
	return meshes, nil
}
