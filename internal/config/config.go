// Package config handles exporter configuration loading and management.
package config

import "time"

// Config holds all exporter settings.
type Config struct {
	Export  ExportConfig  `yaml:"export" toml:"export"`
	Input   InputConfig   `yaml:"input" toml:"input"`
	Watch   WatchConfig   `yaml:"watch" toml:"watch"`
	Logging LoggingConfig `yaml:"logging" toml:"logging"`
}

// ExportConfig controls collection and normalization.
type ExportConfig struct {
	Recenter       bool   `yaml:"recenter" toml:"recenter"`               // Center the whole selection on 0,0,0
	IncludeCaulk   bool   `yaml:"include_caulk" toml:"include_caulk"`     // Export faces shaded with CaulkShader
	CaulkShader    string `yaml:"caulk_shader" toml:"caulk_shader"`       // Material treated as caulk
	ReverseWinding bool   `yaml:"reverse_winding" toml:"reverse_winding"` // Emit brush windings back to front
	SplitByShader  bool   `yaml:"split_by_shader" toml:"split_by_shader"` // One mesh per shader
	SceneName      string `yaml:"scene_name" toml:"scene_name"`           // Overrides the dump's map name
}

// InputConfig holds settings for reading files written by other tools.
type InputConfig struct {
	Charset string `yaml:"charset" toml:"charset"` // Charset of non-UTF-8 ASE input
}

// WatchConfig holds watch mode settings.
type WatchConfig struct {
	DebounceMS int `yaml:"debounce_ms" toml:"debounce_ms"`
}

// Debounce returns the debounce interval.
func (w WatchConfig) Debounce() time.Duration {
	return time.Duration(w.DebounceMS) * time.Millisecond
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level" toml:"level"`
	LogFile string `yaml:"log_file" toml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Export: ExportConfig{
			Recenter:       false,
			IncludeCaulk:   false,
			CaulkShader:    "textures/common/caulk",
			ReverseWinding: false,
			SplitByShader:  true,
		},
		Input: InputConfig{
			Charset: "windows-1252",
		},
		Watch: WatchConfig{
			DebounceMS: 200,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
