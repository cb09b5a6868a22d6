package app

import (
	"errors"

	"github.com/bethropolis/blockpatch/internal/patch"
	"github.com/bethropolis/blockpatch/internal/plan"
	"github.com/bethropolis/blockpatch/internal/syntax"
)

// Process exit codes. Scripts branch on these, so they never change meaning.
const (
	ExitOK                  = 0
	ExitFailure             = 1
	ExitUsage               = 2
	ExitMarkerNotFound      = 3
	ExitMarkerAmbiguous     = 4
	ExitUnbalancedBraces    = 5
	ExitLineIndexOutOfRange = 6
	ExitInvalidRange        = 7
	ExitEncoding            = 8
	ExitInvalidPatch        = 9
	ExitSyntaxRegression    = 10
	ExitUnchanged           = 11
)

// ExitCode maps a run error to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	switch patch.KindOf(err) {
	case patch.KindMarkerNotFound:
		return ExitMarkerNotFound
	case patch.KindMarkerAmbiguous:
		return ExitMarkerAmbiguous
	case patch.KindUnbalancedBraces:
		return ExitUnbalancedBraces
	case patch.KindLineIndexOutOfRange:
		return ExitLineIndexOutOfRange
	case patch.KindInvalidRange:
		return ExitInvalidRange
	case patch.KindEncoding:
		return ExitEncoding
	case patch.KindInvalidMarker, patch.KindInvalidStrategy:
		return ExitInvalidPatch
	}
	switch {
	case errors.Is(err, syntax.ErrRegression):
		return ExitSyntaxRegression
	case errors.Is(err, ErrUnchanged):
		return ExitUnchanged
	case errors.Is(err, plan.ErrInvalid), errors.Is(err, ErrNoTarget):
		return ExitUsage
	}
	return ExitFailure
}
