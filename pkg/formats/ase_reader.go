package formats

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Faultbox/mapexport/pkg/encoding"
	"github.com/Faultbox/mapexport/pkg/geometry"
	"github.com/Faultbox/mapexport/pkg/math"
)

// ASE format errors.
var (
	ErrInvalidASEHeader   = errors.New("invalid ASE header: expected *3DSMAX_ASCIIEXPORT")
	ErrTruncatedASE       = errors.New("truncated ASE data")
	ErrASEIndexOutOfRange = errors.New("ASE index out of range")
)

type aseFace struct {
	vertex   [3]int
	texcoord [3]int
	hasTex   bool
	material int // -1 until *MESH_MTLID is seen
}

type aseObject struct {
	name        string
	positions   []math.Vec3
	normals     []math.Vec3
	texcoords   []math.Vec2
	faces       []aseFace
	lastFace    int
	materialRef int
	hasMesh     bool
}

// DecodeASE parses an ASE document into a mesh set. Each *GEOMOBJECT
// becomes one mesh, and every material becomes a shader in list order.
// A face's shader is its *MESH_MTLID when that names a material, otherwise
// the object's *MATERIAL_REF. Corners that share both a position index and a
// texture vertex index share a vertex. Input that is not UTF-8 is decoded
// from charset first (see encoding.ToUTF8).
func DecodeASE(data []byte, charset string) (*geometry.MeshSet, error) {
	text, err := encoding.ToUTF8(encoding.TrimNullBytes(data), charset)
	if err != nil {
		return nil, err
	}

	p := &aseParser{tok: newASETokenizer(string(text))}
	if err := p.parse(); err != nil {
		return nil, err
	}
	return p.build()
}

type aseParser struct {
	tok       *aseTokenizer
	sceneName string
	materials []string
	objects   []*aseObject
	obj       *aseObject
}

func (p *aseParser) parse() error {
	head, ok := p.tok.next()
	if !ok || !strings.EqualFold(head, "*3DSMAX_ASCIIEXPORT") {
		return ErrInvalidASEHeader
	}

	for {
		token, ok := p.tok.next()
		if !ok {
			break
		}
		// Anything that is not a keyword is a value nobody asked for.
		if !strings.HasPrefix(token, "*") {
			continue
		}

		if err := p.keyword(strings.ToLower(token)); err != nil {
			return err
		}
	}

	p.finishObject()
	return nil
}

func (p *aseParser) keyword(key string) error {
	switch key {
	case "*scene_filename":
		name, err := p.str()
		p.sceneName = name
		return err

	case "*material_count":
		n, err := p.count()
		if err != nil {
			return err
		}
		p.materials = make([]string, n)

	case "*material":
		return p.material()

	case "*geomobject":
		p.finishObject()
		p.obj = &aseObject{lastFace: -1, materialRef: -1}

	case "*mesh":
		// Only the first *MESH of an object is its geometry.
		obj := p.object()
		if obj.hasMesh {
			return p.skipBlock()
		}
		obj.hasMesh = true

	case "*mesh_animation":
		return p.skipBlock()

	case "*node_name":
		name, err := p.str()
		if err != nil {
			return err
		}
		if p.obj != nil && p.obj.name == "" {
			p.obj.name = name
		}

	case "*mesh_numvertex":
		n, err := p.count()
		if err != nil {
			return err
		}
		if obj := p.object(); obj != nil {
			obj.positions = make([]math.Vec3, n)
			obj.normals = make([]math.Vec3, n)
		}

	case "*mesh_numfaces":
		n, err := p.count()
		if err != nil {
			return err
		}
		if obj := p.object(); obj != nil {
			obj.faces = make([]aseFace, n)
			obj.lastFace = -1
			for i := range obj.faces {
				obj.faces[i].material = -1
			}
		}

	case "*mesh_numtvertex":
		n, err := p.count()
		if err != nil {
			return err
		}
		if obj := p.object(); obj != nil {
			obj.texcoords = make([]math.Vec2, n)
		}

	case "*mesh_vertex":
		obj := p.object()
		idx, err := p.index("MESH_VERTEX", len(obj.positions))
		if err != nil {
			return err
		}
		v, err := p.vec3()
		if err != nil {
			return err
		}
		obj.positions[idx] = v

	case "*mesh_vertexnormal":
		obj := p.object()
		idx, err := p.index("MESH_VERTEXNORMAL", len(obj.normals))
		if err != nil {
			return err
		}
		v, err := p.vec3()
		if err != nil {
			return err
		}
		obj.normals[idx] = v

	case "*mesh_tvert":
		obj := p.object()
		idx, err := p.index("MESH_TVERT", len(obj.texcoords))
		if err != nil {
			return err
		}
		uvw, err := p.vec3()
		if err != nil {
			return err
		}
		obj.texcoords[idx] = math.V2(uvw[0], 0-uvw[1])

	case "*mesh_face":
		return p.face()

	case "*mesh_mtlid":
		n, err := p.integer()
		if err != nil {
			return err
		}
		if obj := p.object(); obj.lastFace >= 0 && obj.lastFace < len(obj.faces) {
			obj.faces[obj.lastFace].material = n
		}

	case "*mesh_tface":
		obj := p.object()
		idx, err := p.index("MESH_TFACE", len(obj.faces))
		if err != nil {
			return err
		}
		face := &obj.faces[idx]
		for j := 0; j < 3; j++ {
			if face.texcoord[j], err = p.index("MESH_TFACE texcoord", len(obj.texcoords)); err != nil {
				return err
			}
		}
		face.hasTex = true

	case "*material_ref":
		n, err := p.index("MATERIAL_REF", len(p.materials))
		if err != nil {
			return err
		}
		if obj := p.object(); obj != nil {
			obj.materialRef = n
		}
	}
	return nil
}

// object returns the current geometry object, creating an unnamed one for
// documents that put *MESH at the top level.
func (p *aseParser) object() *aseObject {
	if p.obj == nil {
		p.obj = &aseObject{lastFace: -1, materialRef: -1}
	}
	return p.obj
}

func (p *aseParser) finishObject() {
	if p.obj != nil {
		p.objects = append(p.objects, p.obj)
		p.obj = nil
	}
}

// material parses "*MATERIAL n { ... }". Only the name is kept; nested
// blocks such as *MAP_DIFFUSE are skipped by brace depth.
func (p *aseParser) material() error {
	idx, err := p.index("MATERIAL", len(p.materials))
	if err != nil {
		return err
	}
	if err := p.expect("{"); err != nil {
		return err
	}

	depth := 1
	for depth > 0 {
		token, ok := p.tok.next()
		if !ok {
			return ErrTruncatedASE
		}
		switch {
		case token == "{":
			depth++
		case token == "}":
			depth--
		case depth == 1 && strings.EqualFold(token, "*MATERIAL_NAME"):
			name, err := p.str()
			if err != nil {
				return err
			}
			p.materials[idx] = encoding.ShaderPath(name)
		}
	}
	return nil
}

// skipBlock consumes a "{ ... }" block including any nested blocks.
func (p *aseParser) skipBlock() error {
	if err := p.expect("{"); err != nil {
		return err
	}
	for depth := 1; depth > 0; {
		token, ok := p.tok.next()
		if !ok {
			return ErrTruncatedASE
		}
		switch token {
		case "{":
			depth++
		case "}":
			depth--
		}
	}
	return nil
}

// face parses "*MESH_FACE n: A: a B: b C: c". The edge flags, smoothing
// group and material id that follow are handled by the main loop.
func (p *aseParser) face() error {
	obj := p.object()

	token, ok := p.tok.next()
	if !ok {
		return ErrTruncatedASE
	}
	idx, err := strconv.Atoi(strings.TrimSuffix(token, ":"))
	if err != nil {
		return fmt.Errorf("MESH_FACE index %q: %w", token, err)
	}
	if idx < 0 || idx >= len(obj.faces) {
		return fmt.Errorf("MESH_FACE %d >= %d: %w", idx, len(obj.faces), ErrASEIndexOutOfRange)
	}

	face := &obj.faces[idx]
	for j, label := range [3]string{"A:", "B:", "C:"} {
		if err := p.expect(label); err != nil {
			return err
		}
		if face.vertex[j], err = p.index("MESH_FACE vertex", len(obj.positions)); err != nil {
			return err
		}
	}
	obj.lastFace = idx
	return nil
}

func (p *aseParser) build() (*geometry.MeshSet, error) {
	set := &geometry.MeshSet{Name: p.sceneName}

	shaderOf := make([]int, len(p.materials))
	for i, name := range p.materials {
		shaderOf[i] = set.Shaders.Add(name)
	}

	for n, obj := range p.objects {
		if len(obj.faces) == 0 {
			continue
		}
		name := obj.name
		if name == "" {
			name = fmt.Sprintf("mesh%d", n)
		}
		mesh := &geometry.Mesh{Name: name}

		type corner struct{ vertex, texcoord int }
		seen := make(map[corner]int)

		for fi, f := range obj.faces {
			material := f.material
			if material < 0 || material >= len(p.materials) {
				material = obj.materialRef
			}
			if material < 0 {
				return nil, fmt.Errorf("%s face %d has no material: %w", name, fi, ErrASEIndexOutOfRange)
			}

			indices := make([]int, 3)
			for j := 0; j < 3; j++ {
				key := corner{f.vertex[j], -1}
				if f.hasTex {
					key.texcoord = f.texcoord[j]
				} else if f.vertex[j] < len(obj.texcoords) {
					key.texcoord = f.vertex[j]
				}

				if key.vertex >= len(obj.positions) || key.texcoord >= len(obj.texcoords) {
					return nil, fmt.Errorf("%s face %d corner %d: %w", name, fi, j, ErrASEIndexOutOfRange)
				}

				idx, ok := seen[key]
				if !ok {
					idx = len(mesh.Vertices)
					seen[key] = idx
					v := geometry.Vertex{
						Position: obj.positions[key.vertex],
						Normal:   obj.normals[key.vertex],
					}
					if key.texcoord >= 0 {
						v.TexCoord = obj.texcoords[key.texcoord]
					}
					mesh.Vertices = append(mesh.Vertices, v)
				}
				indices[j] = idx
			}
			mesh.Faces = append(mesh.Faces, geometry.Face{Indices: indices, Shader: shaderOf[material]})
		}
		set.Meshes = append(set.Meshes, mesh)
	}

	return set, nil
}

func (p *aseParser) expect(want string) error {
	token, ok := p.tok.next()
	if !ok {
		return ErrTruncatedASE
	}
	if !strings.EqualFold(token, want) {
		return fmt.Errorf("expected %q, got %q", want, token)
	}
	return nil
}

func (p *aseParser) str() (string, error) {
	token, ok := p.tok.next()
	if !ok {
		return "", ErrTruncatedASE
	}
	return token, nil
}

func (p *aseParser) integer() (int, error) {
	token, ok := p.tok.next()
	if !ok {
		return 0, ErrTruncatedASE
	}
	n, err := strconv.Atoi(token)
	if err != nil {
		return 0, fmt.Errorf("parsing integer %q: %w", token, err)
	}
	return n, nil
}

func (p *aseParser) count() (int, error) {
	n, err := p.integer()
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("negative count %d: %w", n, ErrASEIndexOutOfRange)
	}
	return n, nil
}

// index reads an integer and checks it against limit.
func (p *aseParser) index(what string, limit int) (int, error) {
	n, err := p.integer()
	if err != nil {
		return 0, err
	}
	if n < 0 || n >= limit {
		return 0, fmt.Errorf("%s %d >= %d: %w", what, n, limit, ErrASEIndexOutOfRange)
	}
	return n, nil
}

func (p *aseParser) vec3() (math.Vec3, error) {
	var v math.Vec3
	for i := range v {
		token, ok := p.tok.next()
		if !ok {
			return v, ErrTruncatedASE
		}
		f, err := strconv.ParseFloat(token, 64)
		if err != nil {
			return v, fmt.Errorf("parsing float %q: %w", token, err)
		}
		v[i] = f
	}
	return v, nil
}

// aseTokenizer splits ASE text on whitespace. Double-quoted strings are one
// token with the quotes removed.
type aseTokenizer struct {
	src string
	pos int
}

func newASETokenizer(src string) *aseTokenizer {
	return &aseTokenizer{src: src}
}

func (t *aseTokenizer) next() (string, bool) {
	for t.pos < len(t.src) && isASESpace(t.src[t.pos]) {
		t.pos++
	}
	if t.pos >= len(t.src) {
		return "", false
	}

	if t.src[t.pos] == '"' {
		end := strings.IndexByte(t.src[t.pos+1:], '"')
		if end < 0 {
			token := t.src[t.pos+1:]
			t.pos = len(t.src)
			return token, true
		}
		token := t.src[t.pos+1 : t.pos+1+end]
		t.pos += end + 2
		return token, true
	}

	start := t.pos
	for t.pos < len(t.src) && !isASESpace(t.src[t.pos]) {
		t.pos++
	}
	return t.src[start:t.pos], true
}

func isASESpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
