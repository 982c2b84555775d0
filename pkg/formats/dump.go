package formats

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Faultbox/mapexport/pkg/geometry"
	"github.com/Faultbox/mapexport/pkg/math"
)

// Dump format errors.
var (
	ErrInvalidDump      = errors.New("invalid primitive dump")
	ErrUnknownPrimitive = errors.New("primitive is neither brush nor patch")
)

// Dump is the editor selection handed to the exporter: a scene name and the
// primitives to export, entity children already flattened in.
type Dump struct {
	Name       string
	Primitives []geometry.Primitive
	Entities   int // entities whose children were flattened in
}

type dumpVertex struct {
	Position [3]float64 `yaml:"position"`
	TexCoord [2]float64 `yaml:"texcoord"`
	Normal   [3]float64 `yaml:"normal"`
}

type dumpFace struct {
	Shader  string       `yaml:"shader"`
	Winding []dumpVertex `yaml:"winding"`
}

type dumpBrush struct {
	Faces []dumpFace `yaml:"faces"`
}

type dumpPatch struct {
	Shader string       `yaml:"shader"`
	Width  int          `yaml:"width"`
	Height int          `yaml:"height"`
	Points []dumpVertex `yaml:"points"`
}

type dumpPrimitive struct {
	Brush *dumpBrush `yaml:"brush"`
	Patch *dumpPatch `yaml:"patch"`
}

type dumpEntity struct {
	Classname  string          `yaml:"classname"`
	Primitives []dumpPrimitive `yaml:"primitives"`
}

type dumpFile struct {
	Name       string          `yaml:"name"`
	Primitives []dumpPrimitive `yaml:"primitives"`
	Entities   []dumpEntity    `yaml:"entities"`
}

// LoadDump reads a primitive dump from a YAML or JSON file.
func LoadDump(path string) (*Dump, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return DecodeDump(data)
}

// DecodeDump parses a primitive dump. Unknown keys are rejected so a typo in
// a hand-written dump does not silently drop geometry.
func DecodeDump(data []byte) (*Dump, error) {
	var raw dumpFile

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDump, err)
	}

	dump := &Dump{Name: raw.Name, Entities: len(raw.Entities)}
	add := func(where string, prims []dumpPrimitive) error {
		for i, dp := range prims {
			p, err := dp.primitive()
			if err != nil {
				return fmt.Errorf("%s primitive %d: %w", where, i, err)
			}
			dump.Primitives = append(dump.Primitives, p)
		}
		return nil
	}

	if err := add("world", raw.Primitives); err != nil {
		return nil, err
	}
	for i, ent := range raw.Entities {
		where := fmt.Sprintf("entity %d (%s)", i, ent.Classname)
		if err := add(where, ent.Primitives); err != nil {
			return nil, err
		}
	}
	return dump, nil
}

func (dp dumpPrimitive) primitive() (geometry.Primitive, error) {
	switch {
	case dp.Brush != nil && dp.Patch != nil:
		return nil, fmt.Errorf("%w: both brush and patch set", ErrInvalidDump)
	case dp.Brush != nil:
		b := &geometry.Brush{Faces: make([]geometry.BrushFace, len(dp.Brush.Faces))}
		for i, f := range dp.Brush.Faces {
			b.Faces[i] = geometry.BrushFace{Shader: f.Shader, Winding: dumpVertices(f.Winding)}
		}
		return b, nil
	case dp.Patch != nil:
		p := dp.Patch
		if len(p.Points) != p.Width*p.Height {
			return nil, fmt.Errorf("%w: patch %dx%d has %d points", ErrInvalidDump, p.Width, p.Height, len(p.Points))
		}
		return &geometry.Patch{
			Shader: p.Shader,
			Width:  p.Width,
			Height: p.Height,
			Points: dumpVertices(p.Points),
		}, nil
	default:
		return nil, ErrUnknownPrimitive
	}
}

func dumpVertices(in []dumpVertex) []geometry.Vertex {
	out := make([]geometry.Vertex, len(in))
	for i, v := range in {
		out[i] = geometry.Vertex{
			Position: math.Vec3(v.Position),
			TexCoord: math.Vec2(v.TexCoord),
			Normal:   math.Vec3(v.Normal),
		}
	}
	return out
}
