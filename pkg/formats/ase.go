// Package formats reads and writes the interchange formats the exporter
// supports: ASE (ASCII Scene Export) and Wavefront OBJ, plus the primitive
// dump that describes editor geometry.
package formats

import (
	"bytes"
	"fmt"
	"io"

	"github.com/Faultbox/mapexport/pkg/encoding"
	"github.com/Faultbox/mapexport/pkg/geometry"
)

// ASEComment is written into the *COMMENT header line.
const ASEComment = "mapexport ASCII Scene Export (*.ase)"

// MarshalASE returns the ASE document for set.
func MarshalASE(set *geometry.MeshSet) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodeASE(&buf, set); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeASE writes set as an ASE document. Faces with more than three
// corners are fanned into triangles. Meshes without faces are left out.
func EncodeASE(w io.Writer, set *geometry.MeshSet) error {
	e := &aseEncoder{w: w}

	e.printf("*3DSMAX_ASCIIEXPORT\t200\n")
	e.printf("*COMMENT \"%s\"\n", ASEComment)
	e.printf("*SCENE {\n")
	e.printf("\t*SCENE_FILENAME \"%s\"\n", set.Name)
	e.printf("\t*SCENE_FIRSTFRAME 0\n")
	e.printf("\t*SCENE_LASTFRAME 100\n")
	e.printf("\t*SCENE_FRAMESPEED 30\n")
	e.printf("\t*SCENE_TICKSPERFRAME 160\n")
	e.printf("\t*SCENE_BACKGROUND_STATIC 0.0000\t0.0000\t0.0000\n")
	e.printf("\t*SCENE_AMBIENT_STATIC 0.0000\t0.0000\t0.0000\n")
	e.printf("}\n")

	e.printf("*MATERIAL_LIST {\n")
	e.printf("\t*MATERIAL_COUNT %d\n", set.Shaders.Len())
	for i, shader := range set.Shaders.Names() {
		e.material(i, shader)
	}
	e.printf("}\n")

	node := 0
	for _, m := range set.Meshes {
		if len(m.Faces) == 0 {
			continue
		}
		e.geomObject(node, m)
		node++
	}

	return e.err
}

// aseTriangle is one emitted triangle: three vertex indices and a material.
type aseTriangle struct {
	a, b, c  int
	material int
}

func aseTriangles(m *geometry.Mesh) []aseTriangle {
	tris := make([]aseTriangle, 0, len(m.Faces))
	for _, f := range m.Faces {
		for _, t := range geometry.Triangulate(len(f.Indices)) {
			tris = append(tris, aseTriangle{
				a:        f.Indices[t[0]],
				b:        f.Indices[t[1]],
				c:        f.Indices[t[2]],
				material: f.Shader,
			})
		}
	}
	return tris
}

type aseEncoder struct {
	w   io.Writer
	err error
}

func (e *aseEncoder) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}

func (e *aseEncoder) material(index int, shader string) {
	bitmap := encoding.BitmapPath(shader)

	e.printf("\t*MATERIAL %d {\n", index)
	e.printf("\t\t*MATERIAL_NAME \"%s\"\n", shader)
	e.printf("\t\t*MATERIAL_CLASS \"Standard\"\n")
	e.printf("\t\t*MATERIAL_AMBIENT 0.5882\t0.5882\t0.5882\n")
	e.printf("\t\t*MATERIAL_DIFFUSE 0.5882\t0.5882\t0.5882\n")
	e.printf("\t\t*MATERIAL_SPECULAR 0.9000\t0.9000\t0.9000\n")
	e.printf("\t\t*MATERIAL_SHINE 0.1000\n")
	e.printf("\t\t*MATERIAL_SHINESTRENGTH 0.0000\n")
	e.printf("\t\t*MATERIAL_TRANSPARENCY 0.0000\n")
	e.printf("\t\t*MATERIAL_WIRESIZE 1.0000\n")
	e.printf("\t\t*MATERIAL_SHADING Blinn\n")
	e.printf("\t\t*MATERIAL_XP_FALLOFF 0.0000\n")
	e.printf("\t\t*MATERIAL_SELFILLUM 0.0000\n")
	e.printf("\t\t*MATERIAL_FALLOFF In\n")
	e.printf("\t\t*MATERIAL_XP_TYPE Filter\n")
	e.printf("\t\t*MAP_DIFFUSE {\n")
	e.printf("\t\t\t*MAP_NAME \"%s\"\n", bitmap)
	e.printf("\t\t\t*MAP_CLASS \"Bitmap\"\n")
	e.printf("\t\t\t*MAP_SUBNO 1\n")
	e.printf("\t\t\t*MAP_AMOUNT 1.0000\n")
	e.printf("\t\t\t*BITMAP \"\\\\base\\%s\"\n", bitmap)
	e.printf("\t\t\t*MAP_TYPE Screen\n")
	e.printf("\t\t\t*UVW_U_OFFSET 0.0000\n")
	e.printf("\t\t\t*UVW_V_OFFSET 0.0000\n")
	e.printf("\t\t\t*UVW_U_TILING 1.0000\n")
	e.printf("\t\t\t*UVW_V_TILING 1.0000\n")
	e.printf("\t\t\t*UVW_ANGLE 0.0000\n")
	e.printf("\t\t\t*UVW_BLUR 1.0000\n")
	e.printf("\t\t\t*UVW_BLUR_OFFSET 0.0000\n")
	e.printf("\t\t\t*UVW_NOUSE_AMT 1.0000\n")
	e.printf("\t\t\t*UVW_NOISE_SIZE 1.0000\n")
	e.printf("\t\t\t*UVW_NOISE_LEVEL 1\n")
	e.printf("\t\t\t*UVW_NOISE_PHASE 0.0000\n")
	e.printf("\t\t\t*BITMAP_FILTER Pyramidal\n")
	e.printf("\t\t}\n")
	e.printf("\t}\n")
}

func (e *aseEncoder) geomObject(node int, m *geometry.Mesh) {
	name := fmt.Sprintf("mesh%d", node)
	tris := aseTriangles(m)

	e.printf("*GEOMOBJECT {\n")
	e.printf("\t*NODE_NAME \"%s\"\n", name)
	e.printf("\t*NODE_TM {\n")
	e.printf("\t\t*NODE_NAME \"%s\"\n", name)
	e.printf("\t\t*INHERIT_POS 0 0 0\n")
	e.printf("\t\t*INHERIT_ROT 0 0 0\n")
	e.printf("\t\t*INHERIT_SCL 0 0 0\n")
	e.printf("\t\t*TM_ROW0 1.0000\t0.0000\t0.0000\n")
	e.printf("\t\t*TM_ROW1 0.0000\t1.0000\t0.0000\n")
	e.printf("\t\t*TM_ROW2 0.0000\t0.0000\t1.0000\n")
	e.printf("\t\t*TM_ROW3 0.0000\t0.0000\t0.0000\n")
	e.printf("\t\t*TM_POS 0.0000\t0.0000\t0.0000\n")
	e.printf("\t\t*TM_ROTAXIS 0.0000\t0.0000\t0.0000\n")
	e.printf("\t\t*TM_ROTANGLE 0.0000\n")
	e.printf("\t\t*TM_SCALE 1.0000\t1.0000\t1.0000\n")
	e.printf("\t\t*TM_SCALEAXIS 0.0000\t0.0000\t0.0000\n")
	e.printf("\t\t*TM_SCALEAXISANG 0.0000\n")
	e.printf("\t}\n")

	e.printf("\t*MESH {\n")
	e.printf("\t\t*TIMEVALUE 0\n")
	e.printf("\t\t*MESH_NUMVERTEX %d\n", len(m.Vertices))
	e.printf("\t\t*MESH_NUMFACES %d\n", len(tris))

	e.printf("\t\t*MESH_VERTEX_LIST {\n")
	for i, v := range m.Vertices {
		p := v.Position
		e.printf("\t\t\t*MESH_VERTEX %d\t% 10.4f\t% 10.4f\t% 10.4f\n", i, p[0], p[1], p[2])
	}
	e.printf("\t\t}\n")

	e.printf("\t\t*MESH_FACE_LIST {\n")
	for i, t := range tris {
		e.printf("\t\t\t*MESH_FACE     %d:  A:   %d B:   %d C:     %d AB:       0 BC:    0 CA:    0\t *MESH_SMOOTHING 1 \t*MESH_MTLID %d\n",
			i, t.a, t.b, t.c, t.material)
	}
	e.printf("\t\t}\n")

	// V is negated on the way out and restored by DecodeASE.
	e.printf("\t\t*MESH_NUMTVERTEX %d\n", len(m.Vertices))
	e.printf("\t\t*MESH_TVERTLIST {\n")
	for i, v := range m.Vertices {
		e.printf("\t\t\t*MESH_TVERT %d\t% 10.4f\t% 10.4f\t0.0000\n", i, v.TexCoord[0], 0-v.TexCoord[1])
	}
	e.printf("\t\t}\n")

	e.printf("\t\t*MESH_NUMTVFACES %d\n", len(tris))
	e.printf("\t\t*MESH_TFACELIST {\n")
	for i, t := range tris {
		e.printf("\t\t\t*MESH_TFACE %d\t%d\t%d\t%d\n", i, t.a, t.b, t.c)
	}
	e.printf("\t\t}\n")

	e.printf("\t\t*MESH_NUMCVERTEX 1\n")
	e.printf("\t\t*MESH_CVERTLIST {\n")
	e.printf("\t\t\t*MESH_VERTCOL 0\t1.0000\t1.0000\t1.0000\n")
	e.printf("\t\t}\n")
	e.printf("\t\t*MESH_NUMCVFACES %d\n", len(tris))
	e.printf("\t\t*MESH_CFACELIST {\n")
	for i := range tris {
		e.printf("\t\t\t*MESH_CFACE %d\t0\t0\t0\n", i)
	}
	e.printf("\t\t}\n")

	// The first corner's normal stands in for the face and all three corners.
	e.printf("\t\t*MESH_NORMALS {\n")
	for i, t := range tris {
		n := m.Vertices[t.a].Normal
		e.printf("\t\t\t*MESH_FACENORMAL %d\t% 10.4f\t% 10.4f\t% 10.4f\n", i, n[0], n[1], n[2])
		for _, idx := range [3]int{t.a, t.b, t.c} {
			e.printf("\t\t\t\t*MESH_VERTEXNORMAL %d\t% 10.4f\t% 10.4f\t% 10.4f\n", idx, n[0], n[1], n[2])
		}
	}
	e.printf("\t\t}\n")
	e.printf("\t}\n")

	e.printf("\t*PROP_MOTIONBLUR 0\n")
	e.printf("\t*PROP_CASTSHADOW 1\n")
	e.printf("\t*PROP_RECVSHADOW 1\n")
	e.printf("\t*MATERIAL_REF %d\n", m.Faces[0].Shader)
	e.printf("}\n")
}
