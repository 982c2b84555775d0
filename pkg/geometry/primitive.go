package geometry

// Primitive is either a *Brush or a *Patch.
type Primitive interface {
	primitive()
}

// BrushFace is one planar face of a brush with its boundary winding.
type BrushFace struct {
	Shader  string
	Winding []Vertex
}

// Brush is a convex solid made of planar faces.
type Brush struct {
	Faces []BrushFace
}

// Patch is the tessellated approximation of a curved surface. Points are
// stored row-major, Width points per row.
type Patch struct {
	Shader string
	Width  int
	Height int
	Points []Vertex
}

func (*Brush) primitive() {}
func (*Patch) primitive() {}
