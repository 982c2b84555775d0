package formats

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	"github.com/Faultbox/mapexport/pkg/geometry"
)

// MarshalOBJ returns the Wavefront OBJ text for set.
func MarshalOBJ(set *geometry.MeshSet) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodeOBJ(&buf, set); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeOBJ writes set as OBJ groups, one per mesh. Positions and texture
// coordinates are written 1:1, so each face corner uses the same number for
// both. Numbering continues across groups as OBJ requires. Texture V is
// written as 1-v.
//
// A group whose faces share one shader gets a "usemtl <shader>" line ahead of
// its faces. No mtllib is written: shader names are engine material paths with
// no .mtl counterpart, so importers report these materials as unresolved and
// fall back to their default material.
func EncodeOBJ(w io.Writer, set *geometry.MeshSet) error {
	var buf bytes.Buffer
	base := 0

	for _, m := range set.Meshes {
		if len(m.Faces) == 0 {
			continue
		}

		fmt.Fprintf(&buf, "g %s\n\n", m.Name)

		for _, v := range m.Vertices {
			p := v.Position
			fmt.Fprintf(&buf, "v %s %s %s\n", objFloat(p[0]), objFloat(p[1]), objFloat(p[2]))
		}
		buf.WriteByte('\n')

		for _, v := range m.Vertices {
			fmt.Fprintf(&buf, "vt %s %s\n", objFloat(v.TexCoord[0]), objFloat(1-v.TexCoord[1]))
		}
		buf.WriteByte('\n')

		if m.IsPure() {
			fmt.Fprintf(&buf, "usemtl %s\n", set.Shaders.Name(m.Faces[0].Shader))
		}
		for _, f := range m.Faces {
			buf.WriteString("f")
			for _, idx := range f.Indices {
				n := base + idx + 1
				fmt.Fprintf(&buf, " %d/%d", n, n)
			}
			buf.WriteByte('\n')
		}
		buf.WriteByte('\n')

		base += len(m.Vertices)

		// Flush per group so large sets do not sit in two buffers at once.
		if _, err := w.Write(buf.Bytes()); err != nil {
			return err
		}
		buf.Reset()
	}

	return nil
}

// objFloat formats v in the shortest plain decimal that reads back exactly.
func objFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
