// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/bethropolis/blockpatch/internal/logger"
	"github.com/bethropolis/blockpatch/internal/patch"
	"github.com/joho/godotenv"
)

// Config holds the application's combined configuration.
type Config struct {
	Logger logger.Config `toml:"logger"`
	Patch  PatchConfig   `toml:"patch"`
	// Plugins holds free-form [plugins.<name>] tables.
	Plugins map[string]map[string]interface{} `toml:"plugins"`

	// Source is the config file that was read, empty if none.
	Source   string   `toml:"-"`
	warnings []string // collected before the logger exists
}

// PatchConfig holds defaults for every patch run.
type PatchConfig struct {
	// Encoding is the IANA name used to decode and re-encode target files.
	Encoding string `toml:"encoding"`
	// Occurrence is the default marker policy for stages that set none.
	Occurrence string `toml:"occurrence"`
	// SyntaxCheck rejects patches that add tree-sitter parse errors.
	SyntaxCheck bool `toml:"syntax_check"`
	// Backup writes a copy of the original next to the target before replacing it.
	Backup       bool   `toml:"backup"`
	BackupSuffix string `toml:"backup_suffix"`
	// RequireChange fails a run that leaves the document byte-identical.
	RequireChange bool `toml:"require_change"`
}

// LoadOptions selects the sources merged by Load.
type LoadOptions struct {
	// ConfigPath overrides the default ~/.config/blockpatch/config.toml.
	ConfigPath string
	// EnvFile is loaded into the environment when present; existing variables win.
	EnvFile string
	Flags   *Flags
}

// NewDefaultConfig creates a Config struct with default values.
func NewDefaultConfig() *Config {
	return &Config{
		Logger: logger.NewConfig(),
		Patch: PatchConfig{
			Encoding:     DefaultEncoding,
			Occurrence:   DefaultOccurrence,
			SyntaxCheck:  DefaultSyntaxCheck,
			Backup:       DefaultBackup,
			BackupSuffix: DefaultBackupSuffix,
		},
	}
}

// DefaultConfigPath returns the per-user config file location, or "".
func DefaultConfigPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(configDir, AppName, DefaultConfigFileName)
}

// Load merges defaults, the config file, the environment and set flags, in
// that order, then validates the result.
func Load(opts LoadOptions) (*Config, error) {
	cfg := NewDefaultConfig()

	path := opts.ConfigPath
	explicit := path != ""
	if opts.Flags != nil && opts.Flags.ConfigFilePath != "" {
		path, explicit = opts.Flags.ConfigFilePath, true
	}
	if path == "" {
		path = DefaultConfigPath()
	}
	if path != "" {
		if err := cfg.loadFromFile(path, explicit); err != nil {
			return nil, err
		}
	}

	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load env file '%s': %w", opts.EnvFile, err)
		}
	}
	cfg.applyEnv()

	if opts.Flags != nil {
		opts.Flags.ApplyOverrides(cfg)
	}

	cfg.validate()
	return cfg, nil
}

// loadFromFile decodes a TOML file on top of the current values.
// A missing file is only an error when it was asked for explicitly.
func (c *Config) loadFromFile(filePath string, explicit bool) error {
	_, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		if explicit {
			return fmt.Errorf("config file '%s' does not exist", filePath)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("error checking config file '%s': %w", filePath, err)
	}

	metadata, err := toml.DecodeFile(filePath, c)
	if err != nil {
		return fmt.Errorf("failed to parse config file '%s': %w", filePath, err)
	}
	if undecoded := metadata.Undecoded(); len(undecoded) > 0 {
		c.warnf("config file '%s': unrecognized keys: %v", filePath, undecoded)
	}
	c.Source = filePath
	return nil
}

// applyEnv reads BLOCKPATCH_* variables.
func (c *Config) applyEnv() {
	if v, ok := lookupEnv("ENCODING"); ok {
		c.Patch.Encoding = v
	}
	if v, ok := lookupEnv("OCCURRENCE"); ok {
		c.Patch.Occurrence = v
	}
	if v, ok := lookupEnv("LOG_LEVEL"); ok {
		c.Logger.LogLevel = v
	}
	if v, ok := lookupEnv("LOG_FILE"); ok {
		c.Logger.LogFilePath = v
	}
	c.envBool("SYNTAX_CHECK", &c.Patch.SyntaxCheck)
	c.envBool("BACKUP", &c.Patch.Backup)
	c.envBool("REQUIRE_CHANGE", &c.Patch.RequireChange)
}

func lookupEnv(name string) (string, bool) {
	v, ok := os.LookupEnv(EnvPrefix + name)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return strings.TrimSpace(v), true
}

func (c *Config) envBool(name string, dst *bool) {
	v, ok := lookupEnv(name)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		c.warnf("ignoring %s%s=%q: %v", EnvPrefix, name, v, err)
		return
	}
	*dst = b
}

// validate checks config values and resets invalid ones to defaults.
func (c *Config) validate() {
	defaults := NewDefaultConfig()

	if strings.TrimSpace(c.Patch.Encoding) == "" {
		c.Patch.Encoding = defaults.Patch.Encoding
	}
	if _, err := patch.ParseOccurrence(c.Patch.Occurrence); err != nil {
		c.warnf("%v; using %s", err, defaults.Patch.Occurrence)
		c.Patch.Occurrence = defaults.Patch.Occurrence
	}
	if c.Patch.BackupSuffix == "" {
		c.Patch.BackupSuffix = defaults.Patch.BackupSuffix
	}
	if _, ok := logger.ParseLevel(c.Logger.LogLevel); !ok {
		c.warnf("unknown log level %q; using %s", c.Logger.LogLevel, defaults.Logger.LogLevel)
		c.Logger.LogLevel = defaults.Logger.LogLevel
	}
}

// Occurrence returns the validated default occurrence policy.
func (c *Config) Occurrence() patch.Occurrence {
	occ, _ := patch.ParseOccurrence(c.Patch.Occurrence)
	return occ
}

// PluginValue returns a key from the [plugins.<name>] table. The table name
// is matched case-insensitively; keys are not.
func (c *Config) PluginValue(name, key string) (interface{}, bool) {
	for tableName, table := range c.Plugins {
		if !strings.EqualFold(tableName, name) {
			continue
		}
		if v, ok := table[key]; ok {
			return v, true
		}
	}
	return nil, false
}

func (c *Config) warnf(format string, args ...interface{}) {
	c.warnings = append(c.warnings, fmt.Sprintf(format, args...))
}

// Warnings returns problems found while loading, for logging once the
// logger is initialized.
func (c *Config) Warnings() []string {
	return append([]string(nil), c.warnings...)
}
