// Package plan reads patch plan files and compiles them into pipeline stages.
package plan

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// ErrInvalid marks every plan loading or validation failure.
var ErrInvalid = errors.New("invalid plan")

// Plan is the decoded form of a plan file.
type Plan struct {
	Target   string      `toml:"target" yaml:"target"`
	Encoding string      `toml:"encoding" yaml:"encoding"`
	Stages   []StageSpec `toml:"stage" yaml:"stage"`

	// Dir is where replacement files are resolved from.
	Dir string `toml:"-" yaml:"-"`
}

// StageSpec is one [[stage]] table as written by the user.
type StageSpec struct {
	Name       string `toml:"name" yaml:"name"`
	Marker     string `toml:"marker" yaml:"marker"`
	Anchor     string `toml:"anchor" yaml:"anchor"`
	Occurrence string `toml:"occurrence" yaml:"occurrence"`
	Strategy   string `toml:"strategy" yaml:"strategy"`

	// brace
	Open       string `toml:"open" yaml:"open"`
	Close      string `toml:"close" yaml:"close"`
	Terminator string `toml:"terminator" yaml:"terminator"`

	// literal
	EndMarker string `toml:"end_marker" yaml:"end_marker"`
	Exclusive bool   `toml:"exclusive" yaml:"exclusive"`

	// lines
	StartLine *int `toml:"start_line" yaml:"start_line"`
	EndLine   *int `toml:"end_line" yaml:"end_line"`

	// Exactly one of these supplies the replacement text. Replacement is a
	// pointer so that an explicit empty string (delete the region) is kept.
	Replacement     *string `toml:"replacement" yaml:"replacement"`
	ReplacementFile string  `toml:"replacement_file" yaml:"replacement_file"`
	ReplacementFrom string  `toml:"replacement_from" yaml:"replacement_from"`
}

// Label returns the stage name, or its position when unnamed.
func (s StageSpec) Label(index int) string {
	if s.Name != "" {
		return s.Name
	}
	return fmt.Sprintf("stage-%d", index)
}

// Load reads a plan from disk. Files ending in .yaml or .yml are decoded as
// YAML, anything else as TOML. Unknown keys are rejected in both formats.
func Load(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading '%s': %w", ErrInvalid, path, err)
	}

	var p *Plan
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		p, err = decodeYAML(data)
	default:
		p, err = decodeTOML(data)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: '%s': %w", ErrInvalid, path, err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	p.Dir = filepath.Dir(abs)
	return p, nil
}

func decodeTOML(data []byte) (*Plan, error) {
	var p Plan
	md, err := toml.Decode(string(data), &p)
	if err != nil {
		return nil, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	return &p, nil
}

func decodeYAML(data []byte) (*Plan, error) {
	var p Plan
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}
