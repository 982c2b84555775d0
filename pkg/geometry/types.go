// Package geometry collects brush and patch primitives into meshes and
// normalizes them for export.
package geometry

import (
	"errors"
	"fmt"

	"github.com/Faultbox/mapexport/pkg/math"
)

// Geometry errors.
var (
	ErrNothingToExport = errors.New("nothing to export")
	ErrInvalidIndex    = errors.New("face index out of range")
)

// Vertex is one collected point. Vertices are never modified after
// collection except for recentering of Position.
type Vertex struct {
	Position math.Vec3
	TexCoord math.Vec2
	Normal   math.Vec3
}

// Face is a polygon of vertex indices into its mesh plus a shader table index.
// Brush faces are triangles, patch faces are quads.
type Face struct {
	Indices []int
	Shader  int
}

// Mesh is a named vertex list with faces indexing into it.
type Mesh struct {
	Name     string
	Vertices []Vertex
	Faces    []Face
}

// Shaders returns the distinct shader indices used by the faces, in order of
// first use.
func (m *Mesh) Shaders() []int {
	var out []int
	seen := make(map[int]bool)
	for _, f := range m.Faces {
		if !seen[f.Shader] {
			seen[f.Shader] = true
			out = append(out, f.Shader)
		}
	}
	return out
}

// IsPure returns true if every face uses the same shader.
func (m *Mesh) IsPure() bool {
	return len(m.Shaders()) <= 1
}

// Validate checks that every face index is within the vertex list and every
// face has at least three corners.
func (m *Mesh) Validate() error {
	for fi, f := range m.Faces {
		if len(f.Indices) < 3 {
			return fmt.Errorf("mesh %s face %d: %d corners: %w", m.Name, fi, len(f.Indices), ErrInvalidIndex)
		}
		for _, idx := range f.Indices {
			if idx < 0 || idx >= len(m.Vertices) {
				return fmt.Errorf("mesh %s face %d: index %d of %d vertices: %w",
					m.Name, fi, idx, len(m.Vertices), ErrInvalidIndex)
			}
		}
	}
	return nil
}

// ShaderTable is an insertion-ordered set of shader names.
type ShaderTable struct {
	names []string
	index map[string]int
}

// Add returns the index of name, appending it if it is new.
func (t *ShaderTable) Add(name string) int {
	if idx, ok := t.index[name]; ok {
		return idx
	}
	if t.index == nil {
		t.index = make(map[string]int)
	}
	idx := len(t.names)
	t.names = append(t.names, name)
	t.index[name] = idx
	return idx
}

// Name returns the shader at idx, or "" if out of range.
func (t *ShaderTable) Name(idx int) string {
	if idx < 0 || idx >= len(t.names) {
		return ""
	}
	return t.names[idx]
}

// Names returns the shaders in insertion order.
func (t *ShaderTable) Names() []string {
	return append([]string(nil), t.names...)
}

// Len returns the number of shaders.
func (t *ShaderTable) Len() int {
	return len(t.names)
}

// MeshSet is the result of one export run: the meshes and the shader table
// their faces index into.
type MeshSet struct {
	Name    string // scene name, written as the ASE scene filename
	Meshes  []*Mesh
	Shaders ShaderTable
}

// Bounds returns the box around every vertex position in the set.
func (s *MeshSet) Bounds() math.Bounds {
	b := math.EmptyBounds()
	for _, m := range s.Meshes {
		for _, v := range m.Vertices {
			b = b.Extend(v.Position)
		}
	}
	return b
}

// Counts returns the total vertex and face counts.
func (s *MeshSet) Counts() (vertices, faces int) {
	for _, m := range s.Meshes {
		vertices += len(m.Vertices)
		faces += len(m.Faces)
	}
	return vertices, faces
}

// Validate runs Mesh.Validate on every mesh and checks shader references.
func (s *MeshSet) Validate() error {
	for _, m := range s.Meshes {
		if err := m.Validate(); err != nil {
			return err
		}
		for fi, f := range m.Faces {
			if f.Shader < 0 || f.Shader >= s.Shaders.Len() {
				return fmt.Errorf("mesh %s face %d: shader %d of %d: %w",
					m.Name, fi, f.Shader, s.Shaders.Len(), ErrInvalidIndex)
			}
		}
	}
	return nil
}
