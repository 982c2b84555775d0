package config

import (
	"flag"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/mitchellh/go-homedir"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Export.Recenter {
		t.Error("expected recenter to be false by default")
	}
	if cfg.Export.IncludeCaulk {
		t.Error("expected include_caulk to be false by default")
	}
	if cfg.Export.CaulkShader != "textures/common/caulk" {
		t.Errorf("expected caulk shader textures/common/caulk, got %s", cfg.Export.CaulkShader)
	}
	if !cfg.Export.SplitByShader {
		t.Error("expected split_by_shader to be true by default")
	}
	if cfg.Input.Charset != "windows-1252" {
		t.Errorf("expected charset windows-1252, got %s", cfg.Input.Charset)
	}
	if cfg.Watch.Debounce() != 200*time.Millisecond {
		t.Errorf("expected debounce 200ms, got %v", cfg.Watch.Debounce())
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "" {
		t.Errorf("expected empty log file, got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
export:
  recenter: true
  include_caulk: true
  caulk_shader: "textures/common/nodraw"
  reverse_winding: true
  split_by_shader: false
  scene_name: "maps/test.map"

input:
  charset: "euc-kr"

watch:
  debounce_ms: 50

logging:
  level: "debug"
  log_file: "export.log"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if !cfg.Export.Recenter {
		t.Error("expected recenter to be true")
	}
	if !cfg.Export.IncludeCaulk {
		t.Error("expected include_caulk to be true")
	}
	if cfg.Export.CaulkShader != "textures/common/nodraw" {
		t.Errorf("expected caulk shader textures/common/nodraw, got %s", cfg.Export.CaulkShader)
	}
	if !cfg.Export.ReverseWinding {
		t.Error("expected reverse_winding to be true")
	}
	if cfg.Export.SplitByShader {
		t.Error("expected split_by_shader to be false")
	}
	if cfg.Export.SceneName != "maps/test.map" {
		t.Errorf("expected scene name maps/test.map, got %s", cfg.Export.SceneName)
	}
	if cfg.Input.Charset != "euc-kr" {
		t.Errorf("expected charset euc-kr, got %s", cfg.Input.Charset)
	}
	if cfg.Watch.DebounceMS != 50 {
		t.Errorf("expected debounce 50, got %d", cfg.Watch.DebounceMS)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "export.log" {
		t.Errorf("expected log file 'export.log', got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromTOMLFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")

	tomlContent := `
[export]
recenter = true
caulk_shader = "textures/common/nodraw"

[logging]
level = "warn"
`

	if err := os.WriteFile(configPath, []byte(tomlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if !cfg.Export.Recenter {
		t.Error("expected recenter to be true")
	}
	if cfg.Export.CaulkShader != "textures/common/nodraw" {
		t.Errorf("expected caulk shader textures/common/nodraw, got %s", cfg.Export.CaulkShader)
	}
	if !cfg.Export.SplitByShader {
		t.Error("expected split_by_shader default to survive a partial file")
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("expected log level 'warn', got %s", cfg.Logging.Level)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidYAML := `
export:
  recenter: not a bool
  invalid syntax here
`

	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	if err := loadFromFile(cfg, "/nonexistent/path/config.yaml"); err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()

	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestConfigDirMatchesOutputHome(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("config dir comes from APPDATA on windows")
	}
	t.Setenv("XDG_CONFIG_HOME", "")

	home, err := homedir.Dir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}
	expanded, err := ResolveOutputPath("~/x", ".ase")
	if err != nil {
		t.Fatalf("ResolveOutputPath failed: %v", err)
	}

	dir := ConfigDir()
	if !strings.HasPrefix(dir, home+string(filepath.Separator)) {
		t.Errorf("ConfigDir %q is not under home %q", dir, home)
	}
	if want := filepath.Join(home, "x.ase"); expanded != want {
		t.Errorf("expected %q, got %q", want, expanded)
	}
}

func TestFindConfigFile(t *testing.T) {
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)

	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	tmpDir := t.TempDir()
	os.Chdir(tmpDir)

	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	configPath := filepath.Join(tmpDir, "mapexport.toml")
	if err := os.WriteFile(configPath, []byte("[export]\nrecenter = true\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	if path := findConfigFile(); path != "./mapexport.toml" {
		t.Errorf("expected ./mapexport.toml, got %q", path)
	}
}

// parseFlags registers the config flags on a fresh set and parses args.
func parseFlags(t *testing.T, args ...string) {
	t.Helper()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("failed to parse %v: %v", args, err)
	}
	t.Cleanup(func() { flagSet = nil; *flagConfig = "" })
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		start  func(*Config)
		verify func(*testing.T, *Config)
	}{
		{
			name: "debug flag",
			args: []string{"-debug"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
		},
		{
			name: "recenter and caulk flags",
			args: []string{"-recenter", "-caulk"},
			verify: func(t *testing.T, cfg *Config) {
				if !cfg.Export.Recenter {
					t.Error("expected recenter with -recenter")
				}
				if !cfg.Export.IncludeCaulk {
					t.Error("expected include_caulk with -caulk")
				}
			},
		},
		{
			name: "nosplit flag",
			args: []string{"-nosplit"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Export.SplitByShader {
					t.Error("expected split_by_shader to be false with -nosplit")
				}
			},
		},
		{
			name: "reverse flag",
			args: []string{"-reverse"},
			verify: func(t *testing.T, cfg *Config) {
				if !cfg.Export.ReverseWinding {
					t.Error("expected reverse_winding with -reverse")
				}
			},
		},
		{
			name: "scene and log flags",
			args: []string{"-scene", "maps/x.map", "-log", "x.log"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Export.SceneName != "maps/x.map" {
					t.Errorf("expected scene maps/x.map, got %s", cfg.Export.SceneName)
				}
				if cfg.Logging.LogFile != "x.log" {
					t.Errorf("expected log file x.log, got %s", cfg.Logging.LogFile)
				}
			},
		},
		{
			name: "explicit false turns file options off",
			args: []string{"-recenter=false", "-caulk=false", "-reverse=false"},
			start: func(cfg *Config) {
				cfg.Export.Recenter = true
				cfg.Export.IncludeCaulk = true
				cfg.Export.ReverseWinding = true
			},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Export.Recenter || cfg.Export.IncludeCaulk || cfg.Export.ReverseWinding {
					t.Errorf("expected options off, got %+v", cfg.Export)
				}
			},
		},
		{
			name: "unset flags leave file options alone",
			args: nil,
			start: func(cfg *Config) {
				cfg.Export.Recenter = true
				cfg.Export.SplitByShader = false
				cfg.Export.SceneName = "from-file"
			},
			verify: func(t *testing.T, cfg *Config) {
				if !cfg.Export.Recenter || cfg.Export.SplitByShader || cfg.Export.SceneName != "from-file" {
					t.Errorf("expected file options kept, got %+v", cfg.Export)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parseFlags(t, tt.args...)

			cfg := Default()
			if tt.start != nil {
				tt.start(cfg)
			}
			applyFlags(cfg)

			tt.verify(t, cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
export:
  recenter: true
  scene_name: "from-file"
  caulk_shader: "textures/common/nodraw"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	parseFlags(t, "-config", configPath, "-scene", "from-flag", "-recenter=false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Export.SceneName != "from-flag" {
		t.Errorf("expected scene name from flag, got %s", cfg.Export.SceneName)
	}
	if cfg.Export.Recenter {
		t.Error("expected -recenter=false to override the file")
	}
	if cfg.Export.CaulkShader != "textures/common/nodraw" {
		t.Errorf("expected caulk shader from file, got %s", cfg.Export.CaulkShader)
	}
}

func TestSaveToRoundTrip(t *testing.T) {
	for _, name := range []string{"out.yaml", "out.toml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)

			cfg := Default()
			cfg.Export.Recenter = true
			cfg.Export.SceneName = "saved"
			if err := cfg.SaveTo(path); err != nil {
				t.Fatalf("SaveTo failed: %v", err)
			}

			loaded := Default()
			if err := loadFromFile(loaded, path); err != nil {
				t.Fatalf("reload failed: %v", err)
			}
			if !loaded.Export.Recenter || loaded.Export.SceneName != "saved" {
				t.Errorf("reloaded config lost values: %+v", loaded.Export)
			}
		})
	}
}

func TestResolveOutputPath(t *testing.T) {
	home, err := homedir.Dir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}

	tests := []struct {
		path string
		ext  string
		want string
	}{
		{"out/map", ".ase", "out/map.ase"},
		{"out/map.ase", ".ase", "out/map.ase"},
		{"out/MAP.OBJ", ".obj", "out/MAP.OBJ"},
		{"out/map.ase", ".obj", "out/map.ase.obj"},
		{"~/exports/map", ".obj", filepath.Join(home, "exports/map.obj")},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := ResolveOutputPath(tt.path, tt.ext)
			if err != nil {
				t.Fatalf("ResolveOutputPath failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("ResolveOutputPath(%q, %q) = %q, want %q", tt.path, tt.ext, got, tt.want)
			}
		})
	}
}
