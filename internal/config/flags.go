package config

import "flag"

var (
	flagConfig  = new(string)
	flagDebug   = new(bool)
	flagLog     = new(string)
	flagScene   = new(string)
	flagCenter  = new(bool)
	flagCaulk   = new(bool)
	flagReverse = new(bool)
	flagNoSplit = new(bool)

	// flagSet is the set RegisterFlags was last called with.
	flagSet *flag.FlagSet
)

// RegisterFlags adds the config override flags to fs. Call it before
// fs.Parse, then Load. Only flags given on the command line override the
// config file, so -recenter=false turns off recenter: true.
func RegisterFlags(fs *flag.FlagSet) {
	flagSet = fs
	fs.StringVar(flagConfig, "config", "", "Path to config file")
	fs.BoolVar(flagDebug, "debug", false, "Enable debug logging")
	fs.StringVar(flagLog, "log", "", "Also log to this file")
	fs.StringVar(flagScene, "scene", "", "Scene name written into ASE output")
	fs.BoolVar(flagCenter, "recenter", false, "Center objects at the 0,0,0 origin")
	fs.BoolVar(flagCaulk, "caulk", false, "Export caulked faces")
	fs.BoolVar(flagReverse, "reverse", false, "Reverse brush winding order")
	fs.BoolVar(flagNoSplit, "nosplit", false, "Keep meshes with several shaders whole")
}

// ConfigPath returns the explicit config path if provided via -config.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies the flags that were set on the command line.
func applyFlags(cfg *Config) {
	if flagSet == nil || !flagSet.Parsed() {
		return
	}
	flagSet.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "debug":
			if *flagDebug {
				cfg.Logging.Level = "debug"
			}
		case "log":
			cfg.Logging.LogFile = *flagLog
		case "scene":
			cfg.Export.SceneName = *flagScene
		case "recenter":
			cfg.Export.Recenter = *flagCenter
		case "caulk":
			cfg.Export.IncludeCaulk = *flagCaulk
		case "reverse":
			cfg.Export.ReverseWinding = *flagReverse
		case "nosplit":
			cfg.Export.SplitByShader = !*flagNoSplit
		}
	})
}
