package config

import "flag"

// Flags are the command-line overrides of a config.
type Flags struct {
	Config string
	Steps  int
	Out    string
	Debug  bool
}

// RegisterFlags defines the override flags on fs.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{}
	fs.StringVar(&f.Config, "config", "", "Path to config file")
	fs.IntVar(&f.Steps, "steps", 0, "Number of steps to simulate")
	fs.StringVar(&f.Out, "out", "", "Snapshot output path (.webp)")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	return f
}

// Apply applies the flags that were set to cfg.
func (f *Flags) Apply(cfg *Config) {
	if f.Debug {
		cfg.Logging.Level = "debug"
	}
	if f.Steps > 0 {
		cfg.Solver.Steps = f.Steps
	}
	if f.Out != "" {
		cfg.Output.Snapshot = f.Out
	}
}
