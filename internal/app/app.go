// internal/app/app.go
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/bethropolis/blockpatch/internal/buffer"
	"github.com/bethropolis/blockpatch/internal/config"
	"github.com/bethropolis/blockpatch/internal/event"
	"github.com/bethropolis/blockpatch/internal/logger"
	"github.com/bethropolis/blockpatch/internal/patch"
	"github.com/bethropolis/blockpatch/internal/plan"
	"github.com/bethropolis/blockpatch/internal/plugin"
	"github.com/bethropolis/blockpatch/internal/syntax"
	"github.com/google/uuid"
)

var (
	// ErrUnchanged is returned when require_change is set and the plan
	// produced a byte-identical document.
	ErrUnchanged = errors.New("document unchanged")
	// ErrNoTarget means neither the command line nor the plan named a file.
	ErrNoTarget = errors.New("no target file")
)

// Options configures one run.
type Options struct {
	PlanPath string
	// Target overrides the plan's target when set.
	Target string
	// DryRun computes and checks everything but never writes.
	DryRun bool
	Config *config.Config

	// Store defaults to a buffer.FileStore for the resolved encoding.
	Store buffer.Store
	// Out receives the diff in dry-run mode. Defaults to os.Stdout.
	Out io.Writer
	// Report receives plugin output. Defaults to os.Stderr.
	Report io.Writer
}

// Result describes a finished run.
type Result struct {
	RunID      string
	Target     string
	Applied    []patch.Applied
	Syntax     syntax.Report
	OldHash    uint64
	NewHash    uint64
	Changed    bool
	Written    bool
	BackupPath string
	Diff       string
}

// App wires the plan, the store, the syntax check and the plugins for a
// single read-compute-write run.
type App struct {
	opts          Options
	cfg           *config.Config
	runID         string
	eventManager  *event.Manager
	pluginManager *plugin.Manager
	hostAPI       plugin.HostAPI
	target        string
}

// NewApp creates an App and initializes its plugins.
func NewApp(opts Options) (*App, error) {
	if opts.PlanPath == "" {
		return nil, fmt.Errorf("%w: no plan file given", plan.ErrInvalid)
	}
	if opts.Config == nil {
		opts.Config = config.NewDefaultConfig()
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Report == nil {
		opts.Report = os.Stderr
	}

	runID := uuid.NewString()
	a := &App{
		opts:          opts,
		cfg:           opts.Config,
		runID:         runID,
		eventManager:  event.NewManager(runID),
		pluginManager: plugin.NewManager(),
		target:        opts.Target,
	}
	a.hostAPI = newHostAPI(a)

	if err := registerPlugins(a.pluginManager); err != nil {
		logger.Warnf("App: %v", err)
	}
	a.subscribeLogging()
	a.pluginManager.InitializePlugins(a.hostAPI)
	return a, nil
}

// RunID identifies this run in logs, events and backup names.
func (a *App) RunID() string { return a.runID }

// Events exposes the bus so callers can observe a run.
func (a *App) Events() *event.Manager { return a.eventManager }

// Run executes the plan. The target is written at most once, and only when
// every stage and the syntax check succeed.
func (a *App) Run(ctx context.Context) (res *Result, err error) {
	defer a.pluginManager.ShutdownPlugins()
	res = &Result{RunID: a.runID}
	defer func() {
		a.eventManager.Dispatch(event.TypeRunFinished, event.RunFinishedData{FilePath: res.Target, Err: err})
	}()

	p, err := plan.Load(a.opts.PlanPath)
	if err != nil {
		return res, err
	}
	target, err := a.resolveTarget(p)
	if err != nil {
		return res, err
	}
	res.Target = target
	a.target = target

	stages, err := plan.Compile(p, a.cfg.Occurrence())
	if err != nil {
		return res, err
	}

	encoding := a.cfg.Patch.Encoding
	if p.Encoding != "" {
		encoding = p.Encoding
	}
	store := a.opts.Store
	if store == nil {
		fs := buffer.NewFileStore(encoding)
		fs.Backup = a.cfg.Patch.Backup
		fs.BackupSuffix = a.cfg.Patch.BackupSuffix
		fs.BackupID = a.runID[:8]
		store = fs
		if fs.Backup {
			res.BackupPath = fs.BackupPath(target)
		}
	}

	logger.Infof("Run %s: %d stages against %s (encoding %s, dry run %v)", a.runID, len(stages), target, encoding, a.opts.DryRun)
	return a.execute(ctx, store, stages, res)
}

func (a *App) resolveTarget(p *plan.Plan) (string, error) {
	if a.opts.Target != "" {
		return a.opts.Target, nil
	}
	if p.Target == "" {
		return "", ErrNoTarget
	}
	if filepath.IsAbs(p.Target) {
		return p.Target, nil
	}
	return filepath.Join(p.Dir, p.Target), nil
}

func (a *App) execute(ctx context.Context, store buffer.Store, stages []patch.Stage, res *Result) (*Result, error) {
	f, err := store.Load(res.Target)
	if err != nil {
		return res, err
	}
	original := f.Document
	res.OldHash = original.Hash()

	out, applied, err := patch.NewPipeline(stages...).Run(original)
	if err != nil {
		describeFailure(original, stages, err)
		a.eventManager.Dispatch(event.TypePipelineFailed, event.PipelineFailedData{FilePath: res.Target, Err: err})
		return res, err
	}
	res.Applied = applied
	res.NewHash = out.Hash()

	if a.cfg.Patch.SyntaxCheck {
		checker := syntax.NewChecker()
		rep, err := checker.Check(ctx, res.Target, original, applied)
		checker.Close()
		res.Syntax = rep
		a.eventManager.Dispatch(event.TypeSyntaxChecked, event.SyntaxCheckedData{
			FilePath:     res.Target,
			Language:     rep.Language,
			Skipped:      rep.Skipped,
			ErrorsBefore: rep.ErrorsBefore,
			ErrorsAfter:  rep.ErrorsAfter,
		})
		if err != nil {
			return res, err
		}
	}

	if out.Equal(original) {
		a.eventManager.Dispatch(event.TypeDocumentUnchanged, event.DocumentUnchangedData{FilePath: res.Target, Hash: res.OldHash})
		res.BackupPath = ""
		if a.cfg.Patch.RequireChange {
			return res, fmt.Errorf("%s: %w", res.Target, ErrUnchanged)
		}
		a.announceStages(res)
		return res, nil
	}
	res.Changed = true

	if a.opts.DryRun {
		res.BackupPath = ""
		res.Diff, err = unifiedDiff(res.Target, original, out)
		if err != nil {
			return res, err
		}
		if _, err := io.WriteString(a.opts.Out, res.Diff); err != nil {
			return res, fmt.Errorf("writing diff: %w", err)
		}
		a.announceStages(res)
		return res, nil
	}

	if err := store.Save(f, out); err != nil {
		return res, err
	}
	res.Written = true
	a.announceStages(res)
	a.eventManager.Dispatch(event.TypeDocumentWritten, event.DocumentWrittenData{
		FilePath:   res.Target,
		BackupPath: res.BackupPath,
		OldHash:    res.OldHash,
		NewHash:    res.NewHash,
		Bytes:      out.Len(),
	})
	return res, nil
}

// announceStages dispatches StageApplied for every stage of a committed run.
// It is never called for a run that ends in an error.
func (a *App) announceStages(res *Result) {
	for _, ap := range res.Applied {
		a.eventManager.Dispatch(event.TypeStageApplied, event.StageAppliedData{FilePath: res.Target, Applied: ap, Total: len(res.Applied)})
	}
}
