package geometry

import (
	"fmt"

	"github.com/Faultbox/mapexport/pkg/math"
)

// NormalizeOptions selects the normalization passes.
type NormalizeOptions struct {
	Recenter      bool
	SplitByShader bool
}

// Normalize applies the selected passes to set in place, recentering before
// splitting. It returns the offset Recenter subtracted, or zero.
func Normalize(set *MeshSet, opts NormalizeOptions) math.Vec3 {
	var offset math.Vec3
	if opts.Recenter {
		offset = Recenter(set)
	}
	if opts.SplitByShader {
		SplitByShader(set)
	}
	return offset
}

// Recenter moves every vertex position so the bounding box of the whole set
// is centered on the origin. It returns the offset that was subtracted.
// Texture coordinates and normals are not touched.
func Recenter(set *MeshSet) math.Vec3 {
	b := set.Bounds()
	if b.IsEmpty() {
		return math.Vec3{}
	}
	center := b.Center()
	if center == (math.Vec3{}) {
		return center
	}
	for _, m := range set.Meshes {
		for i := range m.Vertices {
			m.Vertices[i].Position = m.Vertices[i].Position.Sub(center)
		}
	}
	return center
}

// SplitByShader replaces every mesh that uses more than one shader with one
// mesh per shader. Splits keep the original mesh's place in the set and
// follow each other in the order their shaders first appear in its faces.
func SplitByShader(set *MeshSet) {
	out := make([]*Mesh, 0, len(set.Meshes))
	for _, m := range set.Meshes {
		out = append(out, splitMesh(m)...)
	}
	set.Meshes = out
}

func splitMesh(m *Mesh) []*Mesh {
	shaders := m.Shaders()
	if len(shaders) <= 1 {
		return []*Mesh{m}
	}

	parts := make([]*Mesh, 0, len(shaders))
	for k, shader := range shaders {
		part := &Mesh{Name: fmt.Sprintf("%s_%d", m.Name, k)}
		remap := make(map[int]int)

		for _, f := range m.Faces {
			if f.Shader != shader {
				continue
			}
			indices := make([]int, len(f.Indices))
			for i, old := range f.Indices {
				idx, ok := remap[old]
				if !ok {
					idx = len(part.Vertices)
					remap[old] = idx
					part.Vertices = append(part.Vertices, m.Vertices[old])
				}
				indices[i] = idx
			}
			part.Faces = append(part.Faces, Face{Indices: indices, Shader: shader})
		}
		parts = append(parts, part)
	}
	return parts
}
