package plan

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/atotto/clipboard"
	"github.com/bethropolis/blockpatch/internal/logger"
	"github.com/bethropolis/blockpatch/internal/patch"
)

// clipboardReadAll is swapped out in tests.
var clipboardReadAll = clipboard.ReadAll

// StageError reports a plan stage that could not be compiled.
type StageError struct {
	Index int
	Name  string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %q #%d: %v", e.Name, e.Index, e.Err)
}

func (e *StageError) Unwrap() []error { return []error{ErrInvalid, e.Err} }

// Compile turns every stage of p into a pipeline stage. Stages that do not
// set an occurrence get def.
func Compile(p *Plan, def patch.Occurrence) ([]patch.Stage, error) {
	if len(p.Stages) == 0 {
		return nil, fmt.Errorf("%w: no stages", ErrInvalid)
	}
	stages := make([]patch.Stage, 0, len(p.Stages))
	seen := make(map[string]int, len(p.Stages))
	for i, spec := range p.Stages {
		name := spec.Label(i)
		if prev, dup := seen[name]; dup {
			return nil, &StageError{Index: i, Name: name, Err: fmt.Errorf("name already used by stage #%d", prev)}
		}
		seen[name] = i

		pt, err := CompileStage(spec, p.Dir, def)
		if err != nil {
			return nil, &StageError{Index: i, Name: name, Err: err}
		}
		stages = append(stages, patch.Stage{Name: name, Patch: pt})
	}
	logger.DebugTagf("plan", "Compiled %d stages", len(stages))
	return stages, nil
}

// CompileStage builds one Patch. Relative replacement files are read from dir.
func CompileStage(spec StageSpec, dir string, def patch.Occurrence) (patch.Patch, error) {
	var pt patch.Patch
	pt.Marker = spec.Marker

	occ := def
	if spec.Occurrence != "" {
		var err error
		if occ, err = patch.ParseOccurrence(spec.Occurrence); err != nil {
			return pt, err
		}
	}
	pt.Occurrence = occ

	anchor, err := patch.ParseAnchor(spec.Anchor)
	if err != nil {
		return pt, err
	}
	pt.Anchor = anchor

	if pt.Strategy, err = compileStrategy(spec); err != nil {
		return pt, err
	}
	if pt.Replacement, err = replacement(spec, dir); err != nil {
		return pt, err
	}
	return pt, nil
}

func compileStrategy(spec StageSpec) (patch.Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(spec.Strategy)) {
	case "literal":
		return patch.LiteralEnd{Marker: spec.EndMarker, Exclusive: spec.Exclusive}, nil
	case "brace":
		b := patch.Braces()
		var err error
		if spec.Open != "" {
			if b.Open, err = singleRune("open", spec.Open); err != nil {
				return nil, err
			}
		}
		if spec.Close != "" {
			if b.Close, err = singleRune("close", spec.Close); err != nil {
				return nil, err
			}
		}
		if spec.Terminator != "" {
			if b.Terminator, err = singleRune("terminator", spec.Terminator); err != nil {
				return nil, err
			}
		}
		return b, nil
	case "lines":
		if spec.StartLine == nil {
			return nil, fmt.Errorf("strategy \"lines\" needs start_line")
		}
		lr := patch.LineRange{Start: *spec.StartLine, End: *spec.StartLine}
		if spec.EndLine != nil {
			lr.End = *spec.EndLine
		}
		return lr, nil
	case "insert":
		return patch.Insert{}, nil
	case "":
		return nil, fmt.Errorf("missing strategy (literal, brace, lines or insert)")
	default:
		return nil, fmt.Errorf("unknown strategy %q", spec.Strategy)
	}
}

func singleRune(key, s string) (rune, error) {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError || size != len(s) {
		return 0, fmt.Errorf("%s must be a single character, got %q", key, s)
	}
	return r, nil
}

func replacement(spec StageSpec, dir string) (string, error) {
	sources := 0
	if spec.Replacement != nil {
		sources++
	}
	if spec.ReplacementFile != "" {
		sources++
	}
	if spec.ReplacementFrom != "" {
		sources++
	}
	if sources != 1 {
		return "", fmt.Errorf("exactly one of replacement, replacement_file or replacement_from is required, got %d", sources)
	}

	switch {
	case spec.Replacement != nil:
		return *spec.Replacement, nil
	case spec.ReplacementFile != "":
		path := spec.ReplacementFile
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("reading replacement: %w", err)
		}
		if !utf8.Valid(data) {
			return "", fmt.Errorf("replacement file '%s' is not valid UTF-8", path)
		}
		return string(data), nil
	default:
		if !strings.EqualFold(spec.ReplacementFrom, "clipboard") {
			return "", fmt.Errorf("unknown replacement_from %q", spec.ReplacementFrom)
		}
		text, err := clipboardReadAll()
		if err != nil {
			return "", fmt.Errorf("reading clipboard: %w", err)
		}
		logger.DebugTagf("plan", "Replacement taken from clipboard (%d bytes)", len(text))
		return text, nil
	}
}
