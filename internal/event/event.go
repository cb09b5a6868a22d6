// internal/event/event.go
package event

import (
	"github.com/bethropolis/blockpatch/internal/patch"
)

// Type identifies the kind of event.
type Type int

const (
	TypeUnknown Type = iota

	TypeStageApplied      // One per stage of a committed run, in order
	TypePipelineFailed    // A stage failed; nothing will be written
	TypeSyntaxChecked     // The tree-sitter check finished (or was skipped)
	TypeDocumentWritten   // The target file was replaced
	TypeDocumentUnchanged // The plan produced identical content; no write
	TypeRunFinished       // Last event of a run, success or not
)

func (t Type) String() string {
	switch t {
	case TypeStageApplied:
		return "StageApplied"
	case TypePipelineFailed:
		return "PipelineFailed"
	case TypeSyntaxChecked:
		return "SyntaxChecked"
	case TypeDocumentWritten:
		return "DocumentWritten"
	case TypeDocumentUnchanged:
		return "DocumentUnchanged"
	case TypeRunFinished:
		return "RunFinished"
	default:
		return "Unknown"
	}
}

// Event is the structure passed through the event bus.
type Event struct {
	Type  Type
	RunID string
	Data  interface{}
}

// StageAppliedData is sent only after the run is committed: the file was
// written, the dry-run diff was printed, or the result was identical. A run
// that ends in an error sends none.
type StageAppliedData struct {
	FilePath string
	Applied  patch.Applied
	Total    int
}

type PipelineFailedData struct {
	FilePath string
	Err      error
}

type SyntaxCheckedData struct {
	FilePath     string
	Language     string
	Skipped      bool
	ErrorsBefore int
	ErrorsAfter  int
}

type DocumentWrittenData struct {
	FilePath   string
	BackupPath string // empty when no backup was kept
	OldHash    uint64
	NewHash    uint64
	Bytes      int
}

type DocumentUnchangedData struct {
	FilePath string
	Hash     uint64
}

type RunFinishedData struct {
	FilePath string
	Err      error
}
