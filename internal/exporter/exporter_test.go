package exporter

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Faultbox/mapexport/internal/config"
	"github.com/Faultbox/mapexport/pkg/formats"
	"github.com/Faultbox/mapexport/pkg/geometry"
	"github.com/Faultbox/mapexport/pkg/math"
)

func vtx(x, y, z float64) geometry.Vertex {
	return geometry.Vertex{Position: math.V3(x, y, z), Normal: math.V3(0, 0, 1)}
}

func selection() []geometry.Primitive {
	return []geometry.Primitive{
		&geometry.Brush{Faces: []geometry.BrushFace{
			{Shader: geometry.DefaultCaulkShader, Winding: []geometry.Vertex{vtx(0, 0, 0), vtx(0, 64, 0), vtx(64, 64, 0)}},
			{Shader: "textures/a", Winding: []geometry.Vertex{vtx(100, 0, 10), vtx(164, 0, 10), vtx(164, 64, 10), vtx(100, 64, 10)}},
			{Shader: "textures/b", Winding: []geometry.Vertex{vtx(100, 0, 20), vtx(164, 0, 20), vtx(164, 64, 20)}},
		}},
		&geometry.Patch{Shader: "textures/b", Width: 2, Height: 2, Points: []geometry.Vertex{
			vtx(100, 0, 30), vtx(116, 0, 30), vtx(100, 16, 30), vtx(116, 16, 30),
		}},
		&geometry.Brush{Faces: []geometry.BrushFace{{Shader: "textures/c", Winding: []geometry.Vertex{vtx(0, 0, 0), vtx(1, 1, 1)}}}},
	}
}

func newObserved(opts Options) (*Exporter, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return New(opts, zap.New(core)), logs
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"ase", FormatASE, false},
		{".OBJ", FormatOBJ, false},
		{"Ase", FormatASE, false},
		{"fbx", "", true},
	}

	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrUnknownFormat, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
	assert.Equal(t, ".ase", FormatASE.Extension())
}

func TestExportOBJ(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sel.obj")
	exp, logs := newObserved(Options{SplitByShader: true})

	res, err := exp.Export("maps/test", selection(), FormatOBJ, path)
	require.NoError(t, err)

	assert.Equal(t, path, res.Path)
	assert.Equal(t, 3, res.Meshes, "brush split in two plus the patch")
	assert.Equal(t, 2, res.Shaders)
	assert.Equal(t, 1, res.Stats.CaulkSkipped)
	assert.Equal(t, 1, res.Stats.DegenerateFaces)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, res.Bytes, len(data))
	text := string(data)
	assert.Contains(t, text, "g brush0_0\n")
	assert.Contains(t, text, "g brush0_1\n")
	assert.Contains(t, text, "g patch1\n")
	assert.NotContains(t, text, "caulk")

	assert.Equal(t, 1, logs.FilterMessage("export written").Len())
	assert.Equal(t, 1, logs.FilterMessage("skipped degenerate geometry").Len())
}

func TestExportASERecenter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sel.ase")
	exp := New(Options{Recenter: true, SplitByShader: true, IncludeCaulk: true, SceneName: "override"}, nil)

	res, err := exp.Export("maps/test", selection(), FormatASE, path)
	require.NoError(t, err)
	assert.InDelta(t, 82, res.Offset.X(), 1e-9)
	assert.InDelta(t, 32, res.Offset.Y(), 1e-9)
	assert.InDelta(t, 15, res.Offset.Z(), 1e-9)
	assert.Equal(t, 3, res.Shaders)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	set, err := formats.DecodeASE(data, "")
	require.NoError(t, err)
	assert.Equal(t, "override", set.Name)
	assert.Equal(t, []string{geometry.DefaultCaulkShader, "textures/a", "textures/b"}, set.Shaders.Names())

	center := set.Bounds().Center()
	for i := 0; i < 3; i++ {
		assert.InDelta(t, 0, center[i], 1e-4)
	}
}

func TestExportNothing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "none.ase")
	exp := New(Options{}, nil)

	_, err := exp.Export("", nil, FormatASE, path)
	assert.ErrorIs(t, err, ErrNothingToExport)

	onlyCaulk := []geometry.Primitive{selection()[0].(*geometry.Brush)}
	onlyCaulk[0].(*geometry.Brush).Faces = onlyCaulk[0].(*geometry.Brush).Faces[:1]
	_, err = exp.Export("", onlyCaulk, FormatASE, path)
	assert.ErrorIs(t, err, ErrNothingToExport)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "no file is written when there is nothing to export")
}

func TestExportWriteFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "dir", "sel.obj")
	exp := New(Options{}, nil)

	_, err := exp.Export("", selection(), FormatOBJ, path)
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "opening "))
}

func TestExportSetConvert(t *testing.T) {
	dir := t.TempDir()
	asePath := filepath.Join(dir, "in.ase")
	objPath := filepath.Join(dir, "out.obj")

	exp := New(Options{SplitByShader: true}, nil)
	_, err := exp.Export("conv", selection(), FormatASE, asePath)
	require.NoError(t, err)

	data, err := os.ReadFile(asePath)
	require.NoError(t, err)
	set, err := formats.DecodeASE(data, "")
	require.NoError(t, err)

	res, err := exp.ExportSet(set, FormatOBJ, objPath)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Meshes)
	// The patch quad comes back from ASE as two triangles.
	assert.Equal(t, 2+1+2, res.Faces)

	_, err = exp.ExportSet(&geometry.MeshSet{}, FormatOBJ, objPath)
	assert.ErrorIs(t, err, ErrNothingToExport)
}

func TestEncodeUnknownFormat(t *testing.T) {
	_, err := Encode(&geometry.MeshSet{}, Format("fbx"))
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.Default().Export
	cfg.Recenter = true
	opts := OptionsFromConfig(cfg)

	assert.True(t, opts.Recenter)
	assert.False(t, opts.IncludeCaulk)
	assert.True(t, opts.SplitByShader)
	assert.Equal(t, geometry.DefaultCaulkShader, opts.CaulkShader)
}

func TestWriteFileReplaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.obj")
	require.NoError(t, WriteFile(path, []byte("a much longer first payload")))
	require.NoError(t, WriteFile(path, []byte("short")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "short", string(data))
}
