package patch

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a patch failure so callers can branch on it.
type Kind int

const (
	KindUnknown Kind = iota
	KindMarkerNotFound
	KindMarkerAmbiguous
	KindUnbalancedBraces
	KindLineIndexOutOfRange
	KindInvalidRange
	KindEncoding
	KindInvalidMarker
	KindInvalidStrategy
)

// Sentinel errors, one per Kind. A *Error unwraps to the sentinel of its kind.
var (
	ErrMarkerNotFound      = errors.New("marker not found")
	ErrMarkerAmbiguous     = errors.New("marker ambiguous")
	ErrUnbalancedBraces    = errors.New("unbalanced braces")
	ErrLineIndexOutOfRange = errors.New("line index out of range")
	ErrInvalidRange        = errors.New("invalid range")
	ErrEncoding            = errors.New("encoding error")
	ErrInvalidMarker       = errors.New("invalid marker")
	ErrInvalidStrategy     = errors.New("invalid strategy")
)

var kindSentinels = map[Kind]error{
	KindMarkerNotFound:      ErrMarkerNotFound,
	KindMarkerAmbiguous:     ErrMarkerAmbiguous,
	KindUnbalancedBraces:    ErrUnbalancedBraces,
	KindLineIndexOutOfRange: ErrLineIndexOutOfRange,
	KindInvalidRange:        ErrInvalidRange,
	KindEncoding:            ErrEncoding,
	KindInvalidMarker:       ErrInvalidMarker,
	KindInvalidStrategy:     ErrInvalidStrategy,
}

func (k Kind) String() string {
	switch k {
	case KindMarkerNotFound:
		return "MarkerNotFound"
	case KindMarkerAmbiguous:
		return "MarkerAmbiguous"
	case KindUnbalancedBraces:
		return "UnbalancedBraces"
	case KindLineIndexOutOfRange:
		return "LineIndexOutOfRange"
	case KindInvalidRange:
		return "InvalidRange"
	case KindEncoding:
		return "EncodingError"
	case KindInvalidMarker:
		return "InvalidMarker"
	case KindInvalidStrategy:
		return "InvalidStrategy"
	default:
		return "Unknown"
	}
}

// Error is the typed failure returned by every operation in this package.
// Only the fields relevant to Kind are set.
type Error struct {
	Kind Kind

	// Stage and Index identify the pipeline stage; Index is -1 outside a pipeline.
	Stage string
	Index int

	Marker  string
	Offsets []int // match offsets for MarkerAmbiguous, scan origin otherwise
	Line    int
	EndLine int
	Depth   int // open count left at end of document for UnbalancedBraces

	Detail string
	Err    error // underlying cause, e.g. a decoder error
}

func newError(kind Kind, detail string) *Error {
	return &Error{Kind: kind, Index: -1, Detail: detail}
}

// EncodingError wraps a decode failure reported by a document source.
func EncodingError(encoding string, cause error) *Error {
	e := newError(KindEncoding, fmt.Sprintf("cannot decode as %s", encoding))
	e.Err = cause
	return e
}

func (e *Error) Error() string {
	var sb strings.Builder
	if e.Stage != "" || e.Index >= 0 {
		sb.WriteString("stage")
		if e.Stage != "" {
			fmt.Fprintf(&sb, " %q", e.Stage)
		}
		if e.Index >= 0 {
			fmt.Fprintf(&sb, " #%d", e.Index)
		}
		sb.WriteString(": ")
	}
	if s, ok := kindSentinels[e.Kind]; ok {
		sb.WriteString(s.Error())
	} else {
		sb.WriteString("patch failed")
	}
	if e.Marker != "" {
		fmt.Fprintf(&sb, " %q", abbreviate(e.Marker, 60))
	}
	if e.Detail != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Detail)
	}
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

// Unwrap exposes both the kind sentinel and the underlying cause.
func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if s, ok := kindSentinels[e.Kind]; ok {
		errs = append(errs, s)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// withStage returns a copy of e labelled with a pipeline stage.
func (e *Error) withStage(name string, index int) *Error {
	c := *e
	c.Stage = name
	c.Index = index
	return &c
}

// KindOf reports the Kind carried by err, or KindUnknown.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	for k, s := range kindSentinels {
		if errors.Is(err, s) {
			return k
		}
	}
	return KindUnknown
}

func abbreviate(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", `\n`)
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
