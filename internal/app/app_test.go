package app

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/bethropolis/blockpatch/internal/buffer"
	"github.com/bethropolis/blockpatch/internal/config"
	"github.com/bethropolis/blockpatch/internal/event"
	"github.com/bethropolis/blockpatch/internal/patch"
	"github.com/bethropolis/blockpatch/internal/syntax"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	files map[string]string
	saves int
}

func newMemStore(path, content string) *memStore {
	return &memStore{files: map[string]string{path: content}}
}

func (s *memStore) Load(path string) (*buffer.File, error) {
	text, ok := s.files[path]
	if !ok {
		return nil, fmt.Errorf("open %s: %w", path, os.ErrNotExist)
	}
	return &buffer.File{Path: path, Encoding: "utf-8", Document: patch.NewDocument(text)}, nil
}

func (s *memStore) Save(f *buffer.File, doc patch.Document) error {
	s.saves++
	s.files[f.Path] = doc.String()
	return nil
}

const page = "const STORE = {\n  a: 1,\n};\n\nexport default function Page() {\n  return <div>old</div>;\n}\n"

const planTOML = `
[[stage]]
name = "store"
marker = "const STORE ="
anchor = "before"
strategy = "brace"
terminator = ";"
replacement = %q

[[stage]]
name = "body"
marker = "<div>"
strategy = "literal"
end_marker = "</div>"
exclusive = true
replacement = %q
`

func writePlan(t *testing.T, store, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "plan.toml")
	require.NoError(t, os.WriteFile(p, []byte(fmt.Sprintf(planTOML, store, body)), 0o644))
	return p
}

func newTestApp(t *testing.T, planPath string, store buffer.Store, mutate func(*Options)) (*App, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var out, report bytes.Buffer
	opts := Options{
		PlanPath: planPath,
		Target:   "page.jsx",
		Config:   config.NewDefaultConfig(),
		Store:    store,
		Out:      &out,
		Report:   &report,
	}
	if mutate != nil {
		mutate(&opts)
	}
	a, err := NewApp(opts)
	require.NoError(t, err)
	return a, &out, &report
}

func TestApplyWritesOnce(t *testing.T) {
	store := newMemStore("page.jsx", page)
	a, _, report := newTestApp(t, writePlan(t, "const STORE = {\n  a: 2,\n};", "new"), store, nil)

	var seen []string
	a.Events().Subscribe(event.TypeStageApplied, func(e event.Event) bool {
		seen = append(seen, e.Data.(event.StageAppliedData).Applied.Stage)
		return false
	})

	res, err := a.Run(context.Background())
	require.NoError(t, err)

	want := "const STORE = {\n  a: 2,\n};\n\nexport default function Page() {\n  return <div>new</div>;\n}\n"
	if diff := cmp.Diff(want, store.files["page.jsx"]); diff != "" {
		t.Fatalf("written content mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 1, store.saves)
	assert.True(t, res.Written)
	assert.True(t, res.Changed)
	assert.Len(t, res.Applied, 2)
	assert.Equal(t, "JavaScript", res.Syntax.Language)
	assert.NotEqual(t, res.OldHash, res.NewHash)
	assert.Equal(t, a.RunID(), res.RunID)
	assert.Equal(t, []string{"store", "body"}, seen)
	assert.Contains(t, report.String(), "patched page.jsx: 2 stages")
}

func TestFailedStageWritesNothing(t *testing.T) {
	store := newMemStore("page.jsx", page)
	planPath := filepath.Join(t.TempDir(), "plan.yaml")
	require.NoError(t, os.WriteFile(planPath, []byte(`
stage:
  - name: ok
    marker: "<div>"
    strategy: insert
    replacement: "x"
  - name: missing
    marker: "<span>"
    strategy: insert
    replacement: "y"
`), 0o644))
	a, _, report := newTestApp(t, planPath, store, nil)

	var failed error
	a.Events().Subscribe(event.TypePipelineFailed, func(e event.Event) bool {
		failed = e.Data.(event.PipelineFailedData).Err
		return false
	})

	res, err := a.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, patch.KindMarkerNotFound, patch.KindOf(err))
	assert.Contains(t, err.Error(), `stage "missing" #1`)
	assert.Equal(t, ExitMarkerNotFound, ExitCode(err))
	assert.Equal(t, err, failed)

	assert.Zero(t, store.saves)
	assert.Equal(t, page, store.files["page.jsx"])
	assert.Nil(t, res.Applied)
	assert.Empty(t, report.String(), "no summary for a failed run")
}

func TestDryRunPrintsDiff(t *testing.T) {
	store := newMemStore("page.jsx", page)
	a, out, _ := newTestApp(t, writePlan(t, "const STORE = {\n  a: 2,\n};", "new"), store, func(o *Options) {
		o.DryRun = true
	})

	res, err := a.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, store.saves)
	assert.False(t, res.Written)
	assert.Equal(t, res.Diff, out.String())
	assert.Contains(t, out.String(), "--- a/page.jsx")
	assert.Contains(t, out.String(), "+++ b/page.jsx")
	assert.Contains(t, out.String(), "-  a: 1,")
	assert.Contains(t, out.String(), "+  return <div>new</div>;")
}

func TestSyntaxRegressionBlocksWrite(t *testing.T) {
	broken := "const STORE = {\n  a: (2,\n};"

	store := newMemStore("page.jsx", page)
	a, _, _ := newTestApp(t, writePlan(t, broken, "new"), store, nil)
	_, err := a.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, syntax.ErrRegression)
	assert.Equal(t, ExitSyntaxRegression, ExitCode(err))
	assert.Zero(t, store.saves)

	store = newMemStore("page.jsx", page)
	a, _, _ = newTestApp(t, writePlan(t, broken, "new"), store, func(o *Options) {
		o.Config.Patch.SyntaxCheck = false
	})
	_, err = a.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, store.saves)
}

func TestUnchangedDocument(t *testing.T) {
	same := "const STORE = {\n  a: 1,\n};"

	store := newMemStore("page.jsx", page)
	a, _, _ := newTestApp(t, writePlan(t, same, "old"), store, nil)
	res, err := a.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Zero(t, store.saves)
	assert.Equal(t, res.OldHash, res.NewHash)

	a, _, _ = newTestApp(t, writePlan(t, same, "old"), store, func(o *Options) {
		o.Config.Patch.RequireChange = true
	})
	_, err = a.Run(context.Background())
	assert.ErrorIs(t, err, ErrUnchanged)
	assert.Equal(t, ExitUnchanged, ExitCode(err))
	assert.Zero(t, store.saves)
}

func TestPlanTargetOnDisk(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src"), 0o755))
	target := filepath.Join(dir, "src", "page.jsx")
	require.NoError(t, os.WriteFile(target, []byte(page), 0o640))

	planPath := filepath.Join(dir, "plan.toml")
	require.NoError(t, os.WriteFile(planPath, []byte(`
target = "src/page.jsx"

[[stage]]
name = "body"
marker = "<div>"
strategy = "literal"
end_marker = "</div>"
exclusive = true
replacement = "disk"
`), 0o644))

	cfg := config.NewDefaultConfig()
	cfg.Patch.Backup = true
	a, err := NewApp(Options{PlanPath: planPath, Config: cfg, Report: &bytes.Buffer{}})
	require.NoError(t, err)

	res, err := a.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, target, res.Target)

	got, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, string(got), "<div>disk</div>")

	require.NotEmpty(t, res.BackupPath)
	assert.Equal(t, target+"."+a.RunID()[:8]+".bak", res.BackupPath)
	backup, err := os.ReadFile(res.BackupPath)
	require.NoError(t, err)
	assert.Equal(t, page, string(backup))
}

func TestMissingTargetAndPlan(t *testing.T) {
	planPath := filepath.Join(t.TempDir(), "plan.toml")
	require.NoError(t, os.WriteFile(planPath, []byte("[[stage]]\nmarker = \"x\"\nstrategy = \"insert\"\nreplacement = \"y\"\n"), 0o644))

	a, err := NewApp(Options{PlanPath: planPath, Report: &bytes.Buffer{}})
	require.NoError(t, err)
	_, err = a.Run(context.Background())
	assert.ErrorIs(t, err, ErrNoTarget)
	assert.Equal(t, ExitUsage, ExitCode(err))

	a, err = NewApp(Options{PlanPath: filepath.Join(t.TempDir(), "nope.toml"), Target: "x.js", Report: &bytes.Buffer{}})
	require.NoError(t, err)
	_, err = a.Run(context.Background())
	assert.Equal(t, ExitUsage, ExitCode(err))

	_, err = NewApp(Options{})
	assert.Error(t, err)
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, ExitOK},
		{fmt.Errorf("wrapped: %w", patch.ErrMarkerAmbiguous), ExitMarkerAmbiguous},
		{patch.ErrUnbalancedBraces, ExitUnbalancedBraces},
		{patch.ErrLineIndexOutOfRange, ExitLineIndexOutOfRange},
		{patch.ErrInvalidRange, ExitInvalidRange},
		{patch.EncodingError("utf-8", nil), ExitEncoding},
		{patch.ErrInvalidMarker, ExitInvalidPatch},
		{patch.ErrInvalidStrategy, ExitInvalidPatch},
		{os.ErrPermission, ExitFailure},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExitCode(tt.err), "%v", tt.err)
	}
}

func TestStageEventsOnlyForCommittedRuns(t *testing.T) {
	tests := []struct {
		name      string
		store     string
		body      string
		mutate    func(*Options)
		wantErr   bool
		wantStage []string
	}{
		{
			name:    "syntax regression",
			store:   "const STORE = {\n  a: (2,\n};",
			body:    "old",
			wantErr: true,
		},
		{
			name:    "required change missing",
			store:   "const STORE = {\n  a: 1,\n};",
			body:    "old",
			mutate:  func(o *Options) { o.Config.Patch.RequireChange = true },
			wantErr: true,
		},
		{
			name:      "dry run",
			store:     "const STORE = {\n  a: 2,\n};",
			body:      "new",
			mutate:    func(o *Options) { o.DryRun = true },
			wantStage: []string{"store", "body"},
		},
		{
			name:      "unchanged without requirement",
			store:     "const STORE = {\n  a: 1,\n};",
			body:      "old",
			wantStage: []string{"store", "body"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore("page.jsx", page)
			a, _, _ := newTestApp(t, writePlan(t, tt.store, tt.body), store, tt.mutate)

			var seen []string
			a.Events().Subscribe(event.TypeStageApplied, func(e event.Event) bool {
				seen = append(seen, e.Data.(event.StageAppliedData).Applied.Stage)
				return false
			})

			_, err := a.Run(context.Background())
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantStage, seen)
			assert.Zero(t, store.saves)
		})
	}
}
