package app

import (
	"errors"

	"github.com/bethropolis/blockpatch/internal/event"
	"github.com/bethropolis/blockpatch/internal/logger"
	"github.com/bethropolis/blockpatch/internal/patch"
	"github.com/bethropolis/blockpatch/internal/utils"
)

// subscribeLogging wires the app-level log lines for each run event.
func (a *App) subscribeLogging() {
	a.eventManager.Subscribe(event.TypeStageApplied, a.handleStageApplied)
	a.eventManager.Subscribe(event.TypeSyntaxChecked, a.handleSyntaxChecked)
	a.eventManager.Subscribe(event.TypeDocumentWritten, a.handleDocumentWritten)
	a.eventManager.Subscribe(event.TypeDocumentUnchanged, a.handleDocumentUnchanged)
}

func (a *App) handleStageApplied(e event.Event) bool {
	if data, ok := e.Data.(event.StageAppliedData); ok {
		ap := data.Applied
		pos := utils.PositionAt(ap.Before.String(), ap.Region.Start)
		logger.Infof("Stage %q (%d/%d) replaced %d bytes at %s with %d bytes",
			ap.Stage, ap.Index+1, data.Total, ap.Region.Len(), pos, ap.ReplacementLen)
	}
	return false
}

func (a *App) handleSyntaxChecked(e event.Event) bool {
	if data, ok := e.Data.(event.SyntaxCheckedData); ok {
		if data.Skipped {
			logger.DebugTagf("syntax", "No grammar for %s, check skipped", data.FilePath)
			return false
		}
		logger.InfoTagf("syntax", "Syntax check (%s): %d error nodes before, %d after", data.Language, data.ErrorsBefore, data.ErrorsAfter)
	}
	return false
}

func (a *App) handleDocumentWritten(e event.Event) bool {
	if data, ok := e.Data.(event.DocumentWrittenData); ok {
		logger.Infof("Wrote %s (%d bytes, %016x -> %016x)", data.FilePath, data.Bytes, data.OldHash, data.NewHash)
		if data.BackupPath != "" {
			logger.Infof("Original kept at %s", data.BackupPath)
		}
	}
	return false
}

func (a *App) handleDocumentUnchanged(e event.Event) bool {
	if data, ok := e.Data.(event.DocumentUnchangedData); ok {
		logger.Warnf("Plan left %s unchanged (%016x), nothing written", data.FilePath, data.Hash)
	}
	return false
}

// describeFailure logs where a failed stage was looking. The document the
// stage saw is rebuilt by replaying the stages before it.
func describeFailure(original patch.Document, stages []patch.Stage, err error) {
	logger.Errorf("Pipeline failed, nothing written: %v", err)

	var pe *patch.Error
	if !errors.As(err, &pe) || pe.Index < 0 || pe.Index >= len(stages) {
		return
	}
	seen := original
	if pe.Index > 0 {
		prefix, _, perr := patch.NewPipeline(stages[:pe.Index]...).Run(original)
		if perr != nil {
			return
		}
		seen = prefix
	}
	text := seen.String()

	switch {
	case pe.Kind == patch.KindLineIndexOutOfRange,
		pe.Kind == patch.KindInvalidRange && len(pe.Offsets) == 0:
		logger.Errorf("  lines %d-%d requested, document has %d lines", pe.Line+1, pe.EndLine+1, seen.LineCount())
	default:
		for _, off := range pe.Offsets {
			logger.Errorf("  at %s: %s", utils.PositionAt(text, off), utils.Excerpt(text, off))
		}
	}
}
