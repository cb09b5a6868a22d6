// internal/config/flags.go
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

// Flags holds values parsed from command-line flags. Only flags the user
// actually set override the config file.
type Flags struct {
	ConfigFilePath string
	Encoding       string
	Occurrence     string
	LogLevel       string
	LogFilePath    string
	EnableTags     string
	DisableTags    string
	SyntaxCheck    bool
	Backup         bool
	RequireChange  bool

	fs *pflag.FlagSet
}

// DefineFlags registers the flags on fs.
func (f *Flags) DefineFlags(fs *pflag.FlagSet) {
	f.fs = fs
	fs.StringVar(&f.ConfigFilePath, "config", "", fmt.Sprintf("Path to TOML configuration file (default ~/.config/%s/%s)", AppName, DefaultConfigFileName))
	fs.StringVar(&f.Encoding, "encoding", "", "Character encoding of the target file (IANA name) - Overrides config file")
	fs.StringVar(&f.Occurrence, "occurrence", "", "Default marker policy: strict or first - Overrides config file")
	fs.StringVar(&f.LogLevel, "loglevel", "", "Log level (debug, info, warn, error) - Overrides config file")
	fs.StringVar(&f.LogFilePath, "logfile", "", "Path to write log file (use '-' for stderr) - Overrides config file")
	fs.StringVar(&f.EnableTags, "log-tags", "", "Comma-separated list of tags to enable - Overrides config file")
	fs.StringVar(&f.DisableTags, "log-disable-tags", "", "Comma-separated list of tags to disable - Overrides config file")
	fs.BoolVar(&f.SyntaxCheck, "syntax-check", DefaultSyntaxCheck, "Reject patches that introduce syntax errors")
	fs.BoolVar(&f.Backup, "backup", DefaultBackup, "Keep a copy of the original file before writing")
	fs.BoolVar(&f.RequireChange, "require-change", false, "Fail when the plan leaves the file unchanged")
}

// ApplyOverrides updates cfg with values from flags *if* they were set.
func (f *Flags) ApplyOverrides(cfg *Config) {
	if f.fs == nil {
		return
	}
	f.fs.Visit(func(fl *pflag.Flag) {
		switch fl.Name {
		case "encoding":
			cfg.Patch.Encoding = f.Encoding
		case "occurrence":
			cfg.Patch.Occurrence = f.Occurrence
		case "loglevel":
			if f.LogLevel != "" {
				cfg.Logger.LogLevel = f.LogLevel
			}
		case "logfile":
			cfg.Logger.LogFilePath = f.LogFilePath // "-" is valid
		case "log-tags":
			cfg.Logger.EnabledTags = splitCommaList(f.EnableTags)
		case "log-disable-tags":
			cfg.Logger.DisabledTags = splitCommaList(f.DisableTags)
		case "syntax-check":
			cfg.Patch.SyntaxCheck = f.SyntaxCheck
		case "backup":
			cfg.Patch.Backup = f.Backup
		case "require-change":
			cfg.Patch.RequireChange = f.RequireChange
		}
	})
}

// Helper function to split comma-separated list
func splitCommaList(list string) []string {
	if list == "" {
		return nil
	}
	items := strings.Split(list, ",")
	result := make([]string, 0, len(items))
	for _, item := range items {
		trimmed := strings.TrimSpace(item)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
