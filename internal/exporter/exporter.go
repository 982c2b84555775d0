// Package exporter runs the export pipeline: collect primitives into meshes,
// normalize them, serialize to ASE or OBJ, and write the file in one go.
package exporter

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/mapexport/internal/config"
	"github.com/Faultbox/mapexport/pkg/formats"
	"github.com/Faultbox/mapexport/pkg/geometry"
	"github.com/Faultbox/mapexport/pkg/math"
)

// ErrNothingToExport is returned before any file is touched when the input
// holds no exportable faces.
var ErrNothingToExport = geometry.ErrNothingToExport

// ErrUnknownFormat is returned by ParseFormat.
var ErrUnknownFormat = errors.New("unknown export format")

// Format is an output file format.
type Format string

// Supported formats.
const (
	FormatASE Format = "ase"
	FormatOBJ Format = "obj"
)

// ParseFormat accepts "ase" or "obj" in any case, with or without a dot.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.TrimPrefix(strings.ToLower(s), ".")) {
	case FormatASE:
		return FormatASE, nil
	case FormatOBJ:
		return FormatOBJ, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Extension returns the file extension including the dot.
func (f Format) Extension() string {
	return "." + string(f)
}

// Options is the exporter's configuration surface.
type Options struct {
	Recenter       bool
	IncludeCaulk   bool
	CaulkShader    string
	ReverseWinding bool
	SplitByShader  bool
	SceneName      string // overrides the input's scene name when set
}

// OptionsFromConfig maps the export section of the config file.
func OptionsFromConfig(cfg config.ExportConfig) Options {
	return Options{
		Recenter:       cfg.Recenter,
		IncludeCaulk:   cfg.IncludeCaulk,
		CaulkShader:    cfg.CaulkShader,
		ReverseWinding: cfg.ReverseWinding,
		SplitByShader:  cfg.SplitByShader,
		SceneName:      cfg.SceneName,
	}
}

// Result describes a finished export.
type Result struct {
	Path     string
	Format   Format
	Bytes    int
	Meshes   int
	Vertices int
	Faces    int
	Shaders  int
	Offset   math.Vec3 // subtracted from every position when recentering
	Stats    geometry.Stats
}

// Exporter runs exports with fixed options.
type Exporter struct {
	opts Options
	log  *zap.Logger
}

// New creates an exporter. A nil logger disables logging.
func New(opts Options, log *zap.Logger) *Exporter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Exporter{opts: opts, log: log.Named("exporter")}
}

// Build collects prims and normalizes the result. The returned offset is
// what recentering subtracted.
func (e *Exporter) Build(name string, prims []geometry.Primitive) (*geometry.MeshSet, geometry.Stats, math.Vec3, error) {
	if e.opts.SceneName != "" {
		name = e.opts.SceneName
	}

	set, stats, err := geometry.Collect(name, prims, geometry.CollectOptions{
		IncludeCaulk:   e.opts.IncludeCaulk,
		CaulkShader:    e.opts.CaulkShader,
		ReverseWinding: e.opts.ReverseWinding,
	})
	e.logStats(stats)
	if err != nil {
		return nil, stats, math.Vec3{}, err
	}

	offset := e.normalize(set)
	return set, stats, offset, nil
}

// Export builds prims and writes them to path in format.
func (e *Exporter) Export(name string, prims []geometry.Primitive, format Format, path string) (*Result, error) {
	set, stats, offset, err := e.Build(name, prims)
	if err != nil {
		return nil, err
	}

	res, err := e.write(set, format, path)
	if err != nil {
		return nil, err
	}
	res.Offset = offset
	res.Stats = stats
	return res, nil
}

// ExportSet normalizes an existing mesh set, for example one read from an
// ASE file, and writes it to path in format.
func (e *Exporter) ExportSet(set *geometry.MeshSet, format Format, path string) (*Result, error) {
	if set == nil || len(set.Meshes) == 0 || set.Shaders.Len() == 0 {
		return nil, ErrNothingToExport
	}
	if err := set.Validate(); err != nil {
		return nil, err
	}
	if e.opts.SceneName != "" {
		set.Name = e.opts.SceneName
	}

	offset := e.normalize(set)
	res, err := e.write(set, format, path)
	if err != nil {
		return nil, err
	}
	res.Offset = offset
	return res, nil
}

// Encode serializes set without writing it.
func Encode(set *geometry.MeshSet, format Format) ([]byte, error) {
	switch format {
	case FormatASE:
		return formats.MarshalASE(set)
	case FormatOBJ:
		return formats.MarshalOBJ(set)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, string(format))
}

func (e *Exporter) normalize(set *geometry.MeshSet) math.Vec3 {
	before := len(set.Meshes)
	offset := geometry.Normalize(set, geometry.NormalizeOptions{
		Recenter:      e.opts.Recenter,
		SplitByShader: e.opts.SplitByShader,
	})
	if e.opts.Recenter {
		e.log.Debug("recentered",
			zap.Float64("x", offset.X()),
			zap.Float64("y", offset.Y()),
			zap.Float64("z", offset.Z()))
	}
	if len(set.Meshes) != before {
		e.log.Debug("split meshes by shader", zap.Int("before", before), zap.Int("after", len(set.Meshes)))
	}
	return offset
}

func (e *Exporter) write(set *geometry.MeshSet, format Format, path string) (*Result, error) {
	data, err := Encode(set, format)
	if err != nil {
		return nil, err
	}
	if err := WriteFile(path, data); err != nil {
		return nil, err
	}

	verts, faces := set.Counts()
	res := &Result{
		Path:     path,
		Format:   format,
		Bytes:    len(data),
		Meshes:   len(set.Meshes),
		Vertices: verts,
		Faces:    faces,
		Shaders:  set.Shaders.Len(),
	}
	e.log.Info("export written",
		zap.String("path", path),
		zap.String("format", string(format)),
		zap.Int("bytes", res.Bytes),
		zap.Int("meshes", res.Meshes),
		zap.Int("faces", res.Faces),
		zap.Int("shaders", res.Shaders))
	return res, nil
}

func (e *Exporter) logStats(s geometry.Stats) {
	e.log.Debug("collected primitives",
		zap.Int("primitives", s.Primitives),
		zap.Int("brushes", s.Brushes),
		zap.Int("patches", s.Patches),
		zap.Int("caulk_skipped", s.CaulkSkipped))

	if s.DegenerateFaces > 0 || s.DegeneratePatch > 0 {
		e.log.Warn("skipped degenerate geometry",
			zap.Int("faces", s.DegenerateFaces),
			zap.Int("patches", s.DegeneratePatch))
	}
}

// WriteFile writes data to path with a single write. The file is closed on
// every path and a close error is reported along with any write error.
func WriteFile(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("closing %s: %w", path, cerr))
		}
	}()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
