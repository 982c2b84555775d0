package geometry

import "fmt"

// DefaultCaulkShader is the conventional non-rendering material.
const DefaultCaulkShader = "textures/common/caulk"

// CollectOptions controls how primitives are turned into meshes.
type CollectOptions struct {
	// IncludeCaulk keeps faces and patches shaded with CaulkShader.
	IncludeCaulk bool
	// CaulkShader is the material treated as caulk. Empty means DefaultCaulkShader.
	CaulkShader string
	// ReverseWinding emits brush windings back to front, flipping the
	// triangle facing.
	ReverseWinding bool
}

// Stats counts what the collector did with its input.
type Stats struct {
	Primitives      int
	Brushes         int
	Patches         int
	CaulkSkipped    int // faces or patches dropped by the caulk rule
	DegenerateFaces int // brush faces with fewer than three winding points
	DegeneratePatch int // patches smaller than 2x2 or with a bad point count
	EmptyMeshes     int // primitives that contributed no faces
}

// Collector builds a MeshSet one primitive at a time. It owns the set and its
// shader table until Finish is called.
type Collector struct {
	opts  CollectOptions
	set   *MeshSet
	stats Stats
}

// NewCollector creates a collector for a scene called name.
func NewCollector(name string, opts CollectOptions) *Collector {
	if opts.CaulkShader == "" {
		opts.CaulkShader = DefaultCaulkShader
	}
	return &Collector{
		opts: opts,
		set:  &MeshSet{Name: name},
	}
}

// Collect runs a collector over prims. An empty input, or one where every
// face was excluded, returns ErrNothingToExport.
func Collect(name string, prims []Primitive, opts CollectOptions) (*MeshSet, Stats, error) {
	if len(prims) == 0 {
		return nil, Stats{}, ErrNothingToExport
	}
	c := NewCollector(name, opts)
	for _, p := range prims {
		c.Add(p)
	}
	return c.Finish()
}

// Add collects one primitive. It returns the mesh it produced, or nil if the
// primitive contributed no faces.
func (c *Collector) Add(p Primitive) *Mesh {
	ordinal := c.stats.Primitives
	c.stats.Primitives++

	var mesh *Mesh
	switch p := p.(type) {
	case *Brush:
		c.stats.Brushes++
		mesh = c.brush(p, fmt.Sprintf("brush%d", ordinal))
	case *Patch:
		c.stats.Patches++
		mesh = c.patch(p, fmt.Sprintf("patch%d", ordinal))
	}

	if mesh == nil || len(mesh.Faces) == 0 {
		c.stats.EmptyMeshes++
		return nil
	}
	c.set.Meshes = append(c.set.Meshes, mesh)
	return mesh
}

// Finish returns the collected set. The collector must not be used afterwards.
func (c *Collector) Finish() (*MeshSet, Stats, error) {
	set := c.set
	c.set = nil
	if set.Shaders.Len() == 0 || len(set.Meshes) == 0 {
		return nil, c.stats, ErrNothingToExport
	}
	return set, c.stats, nil
}

func (c *Collector) skip(shader string) bool {
	if c.opts.IncludeCaulk || shader != c.opts.CaulkShader {
		return false
	}
	c.stats.CaulkSkipped++
	return true
}

func (c *Collector) brush(b *Brush, name string) *Mesh {
	mesh := &Mesh{Name: name}

	for _, face := range b.Faces {
		if c.skip(face.Shader) {
			continue
		}
		n := len(face.Winding)
		if n < 3 {
			c.stats.DegenerateFaces++
			continue
		}

		shader := c.set.Shaders.Add(face.Shader)
		base := len(mesh.Vertices)
		for i := 0; i < n; i++ {
			src := i
			if c.opts.ReverseWinding {
				src = n - 1 - i
			}
			mesh.Vertices = append(mesh.Vertices, face.Winding[src])
		}
		for _, tri := range Triangulate(n) {
			mesh.Faces = append(mesh.Faces, Face{
				Indices: []int{base + tri[0], base + tri[1], base + tri[2]},
				Shader:  shader,
			})
		}
	}

	return mesh
}

func (c *Collector) patch(p *Patch, name string) *Mesh {
	if c.skip(p.Shader) {
		return nil
	}
	if p.Width < 2 || p.Height < 2 || len(p.Points) != p.Width*p.Height {
		c.stats.DegeneratePatch++
		return nil
	}

	shader := c.set.Shaders.Add(p.Shader)
	mesh := &Mesh{
		Name:     name,
		Vertices: append([]Vertex(nil), p.Points...),
	}
	for _, quad := range QuadGrid(p.Width, p.Height) {
		mesh.Faces = append(mesh.Faces, Face{
			Indices: []int{quad[0], quad[1], quad[2], quad[3]},
			Shader:  shader,
		})
	}
	return mesh
}

// Triangulate fans a convex n-gon into n-2 triangles (0, i, i+1).
func Triangulate(n int) [][3]int {
	if n < 3 {
		return nil
	}
	tris := make([][3]int, 0, n-2)
	for i := 1; i < n-1; i++ {
		tris = append(tris, [3]int{0, i, i + 1})
	}
	return tris
}

// QuadGrid returns one quad per interior cell of a row-major width x height
// grid, ordered (curr, left, left-up, up).
func QuadGrid(width, height int) [][4]int {
	if width < 2 || height < 2 {
		return nil
	}
	quads := make([][4]int, 0, (width-1)*(height-1))
	for row := 1; row < height; row++ {
		for col := 1; col < width; col++ {
			curr := row*width + col
			left := curr - 1
			up := curr - width
			quads = append(quads, [4]int{curr, left, up - 1, up})
		}
	}
	return quads
}
