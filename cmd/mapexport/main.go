// mapexport converts editor primitive dumps into ASE and OBJ models.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"

	"go.uber.org/zap"

	"github.com/Faultbox/mapexport/internal/config"
	"github.com/Faultbox/mapexport/internal/exporter"
	"github.com/Faultbox/mapexport/internal/logger"
	"github.com/Faultbox/mapexport/internal/watch"
	"github.com/Faultbox/mapexport/pkg/formats"
	"github.com/Faultbox/mapexport/pkg/geometry"
	"github.com/Faultbox/mapexport/pkg/math"
)

// errReported means the command already told the user what went wrong.
var errReported = errors.New("error already reported")

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	err := run(os.Args[1], os.Args[2:])
	if err != nil {
		report(err)
	}
	logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}

func run(command string, args []string) error {
	switch command {
	case "ase":
		return cmdExport(exporter.FormatASE, args)
	case "obj":
		return cmdExport(exporter.FormatOBJ, args)
	case "convert":
		return cmdConvert(args)
	case "info":
		return cmdInfo(args)
	case "config":
		return cmdConfig(args)
	case "help", "-h", "--help":
		printUsage()
		return nil
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		return errReported
	}
}

func report(err error) {
	switch {
	case errors.Is(err, errReported):
	case errors.Is(err, geometry.ErrNothingToExport):
		fmt.Fprintln(os.Stderr, "Nothing to export")
	default:
		logger.Error("command failed", zap.Error(err))
	}
}

func printUsage() {
	fmt.Println(`mapexport - export map selections as ASE or OBJ models

Usage:
  mapexport <command> [options]

Commands:
  ase <dump.yaml> <output>           Export a primitive dump as ASE
  obj <dump.yaml> <output>           Export a primitive dump as OBJ
  convert <model.ase> <output>       Re-export an ASE model (-format ase|obj)
  info <dump.yaml>                   Show what an export would contain
  config [file]                      Write the effective config (default: user config dir)

Options (before positional arguments):
  -config <file>   Config file (default: ./mapexport.yaml or user config dir)
  -recenter        Center objects at the 0,0,0 origin (-recenter=false to disable)
  -caulk           Export caulked faces
  -reverse         Reverse brush winding order
  -nosplit         Keep meshes with several shaders whole
  -scene <name>    Scene name written into ASE output
  -watch           Re-export whenever the dump changes (ase, obj)
  -format <fmt>    Output format for convert (default: obj)
  -debug           Enable debug logging
  -log <file>      Also log to a rotated file

Examples:
  mapexport ase -recenter selection.yaml ~/models/rock
  mapexport obj -watch selection.yaml rock.obj
  mapexport convert -nosplit rock.ase rock.obj
  mapexport config -recenter mapexport.yaml`)
}

// setup parses flags, loads config and starts logging.
func setup(name string, args []string, extra func(fs *flag.FlagSet)) (*config.Config, []string, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	config.RegisterFlags(fs)
	if extra != nil {
		extra(fs)
	}
	if err := fs.Parse(args); err != nil {
		return nil, nil, errReported
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		return nil, nil, errReported
	}
	if err := logger.Init(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		return nil, nil, errReported
	}

	logger.Debug("command", zap.String("name", name), zap.Strings("args", fs.Args()))
	logger.Sugar.Debugf("Config: %+v", cfg)
	return cfg, fs.Args(), nil
}

func cmdExport(format exporter.Format, args []string) error {
	var watchInput bool
	cfg, rest, err := setup(string(format), args, func(fs *flag.FlagSet) {
		fs.BoolVar(&watchInput, "watch", false, "Re-export whenever the dump changes")
	})
	if err != nil {
		return err
	}

	if len(rest) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: mapexport %s [options] <dump.yaml> <output>\n", format)
		return errReported
	}
	input := rest[0]
	output, err := config.ResolveOutputPath(rest[1], format.Extension())
	if err != nil {
		return err
	}

	exp := exporter.New(exporter.OptionsFromConfig(cfg.Export), logger.Log)
	export := func() error {
		dump, err := formats.LoadDump(input)
		if err != nil {
			return err
		}
		res, err := exp.Export(dump.Name, dump.Primitives, format, output)
		if err != nil {
			return err
		}
		printResult(res)
		return nil
	}

	if !watchInput {
		return export()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := watch.Run(ctx, input, cfg.Watch.Debounce(), logger.Log, export); err != nil {
		return err
	}
	logger.Info("watch stopped", zap.String("input", input))
	return nil
}

func cmdConvert(args []string) error {
	formatName := string(exporter.FormatOBJ)
	cfg, rest, err := setup("convert", args, func(fs *flag.FlagSet) {
		fs.StringVar(&formatName, "format", formatName, "Output format: ase or obj")
	})
	if err != nil {
		return err
	}

	if len(rest) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: mapexport convert [options] <model.ase> <output>")
		return errReported
	}
	format, err := exporter.ParseFormat(formatName)
	if err != nil {
		return err
	}
	output, err := config.ResolveOutputPath(rest[1], format.Extension())
	if err != nil {
		return err
	}

	data, err := os.ReadFile(rest[0])
	if err != nil {
		return err
	}
	set, err := formats.DecodeASE(data, cfg.Input.Charset)
	if err != nil {
		return fmt.Errorf("reading %s: %w", rest[0], err)
	}

	exp := exporter.New(exporter.OptionsFromConfig(cfg.Export), logger.Log)
	res, err := exp.ExportSet(set, format, output)
	if err != nil {
		return err
	}
	printResult(res)
	return nil
}

func cmdInfo(args []string) error {
	cfg, rest, err := setup("info", args, nil)
	if err != nil {
		return err
	}

	if len(rest) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: mapexport info [options] <dump.yaml>")
		return errReported
	}

	dump, err := formats.LoadDump(rest[0])
	if err != nil {
		return err
	}

	exp := exporter.New(exporter.OptionsFromConfig(cfg.Export), logger.Log)
	set, stats, offset, err := exp.Build(dump.Name, dump.Primitives)
	if err != nil {
		return err
	}
	if stats.EmptyMeshes > 0 {
		logger.Warn("primitives without exportable faces", zap.Int("count", stats.EmptyMeshes))
	}

	var shown *math.Vec3
	if cfg.Export.Recenter {
		shown = &offset
	}
	writeInfo(os.Stdout, set, stats, dump.Entities, shown)
	return nil
}

// writeInfo prints the summary shown by the info command. offset is nil
// unless recentering ran.
func writeInfo(w io.Writer, set *geometry.MeshSet, stats geometry.Stats, entities int, offset *math.Vec3) {
	verts, faces := set.Counts()
	bounds := set.Bounds()
	size := bounds.Size()

	fmt.Fprintf(w, "Scene:      %s\n", set.Name)
	fmt.Fprintf(w, "Primitives: %d (%d brushes, %d patches, %d entities)\n",
		stats.Primitives, stats.Brushes, stats.Patches, entities)
	fmt.Fprintf(w, "Meshes:     %d\n", len(set.Meshes))
	fmt.Fprintf(w, "Vertices:   %d\n", verts)
	fmt.Fprintf(w, "Faces:      %d\n", faces)
	if stats.CaulkSkipped > 0 {
		fmt.Fprintf(w, "Caulk:      %d faces skipped\n", stats.CaulkSkipped)
	}
	if stats.DegenerateFaces > 0 || stats.DegeneratePatch > 0 {
		fmt.Fprintf(w, "Degenerate: %d faces, %d patches skipped\n", stats.DegenerateFaces, stats.DegeneratePatch)
	}
	fmt.Fprintf(w, "Bounds:     (%.2f, %.2f, %.2f) - (%.2f, %.2f, %.2f)\n",
		bounds.Min.X(), bounds.Min.Y(), bounds.Min.Z(),
		bounds.Max.X(), bounds.Max.Y(), bounds.Max.Z())
	fmt.Fprintf(w, "Size:       %.2f x %.2f x %.2f\n", size.X(), size.Y(), size.Z())
	if offset != nil {
		fmt.Fprintf(w, "Offset:     (%.2f, %.2f, %.2f)\n", offset.X(), offset.Y(), offset.Z())
	}

	// Shaders by face count
	counts := make(map[int]int)
	for _, m := range set.Meshes {
		for _, f := range m.Faces {
			counts[f.Shader]++
		}
	}
	type shaderCount struct {
		name  string
		count int
	}
	var shaders []shaderCount
	for idx, n := range counts {
		shaders = append(shaders, shaderCount{set.Shaders.Name(idx), n})
	}
	sort.Slice(shaders, func(i, j int) bool {
		if shaders[i].count != shaders[j].count {
			return shaders[i].count > shaders[j].count
		}
		return shaders[i].name < shaders[j].name
	})

	fmt.Fprintf(w, "\nShaders (%d):\n", len(shaders))
	for _, s := range shaders {
		fmt.Fprintf(w, "  %-40s %6d faces\n", s.name, s.count)
	}
}

// cmdConfig writes the effective config, flags applied, as YAML or TOML.
func cmdConfig(args []string) error {
	cfg, rest, err := setup("config", args, nil)
	if err != nil {
		return err
	}

	var path string
	if len(rest) > 0 {
		path = rest[0]
		err = cfg.SaveTo(path)
	} else {
		path = filepath.Join(config.ConfigDir(), "config.yaml")
		err = cfg.Save()
	}
	if err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	logger.Info("config saved", zap.String("path", path))
	fmt.Printf("Wrote %s\n", path)
	return nil
}

func printResult(res *exporter.Result) {
	fmt.Printf("Wrote %s: %d meshes, %d vertices, %d faces, %d shaders (%d bytes)\n",
		res.Path, res.Meshes, res.Vertices, res.Faces, res.Shaders, res.Bytes)
}
