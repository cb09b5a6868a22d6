package patch

import (
	"fmt"
	"strings"
)

// Occurrence selects how many matches of a marker are acceptable.
type Occurrence int

const (
	// Strict requires exactly one match.
	Strict Occurrence = iota
	// First accepts the earliest of several matches.
	First
)

func (o Occurrence) String() string {
	if o == First {
		return "first"
	}
	return "strict"
}

// ParseOccurrence maps "strict" (or "") and "first" to an Occurrence.
func ParseOccurrence(s string) (Occurrence, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "strict":
		return Strict, nil
	case "first":
		return First, nil
	}
	return Strict, fmt.Errorf("unknown occurrence %q (want strict or first)", s)
}

// Region is a half-open byte span [Start, End) of a Document.
type Region struct {
	Start int
	End   int
}

// Len returns End - Start.
func (r Region) Len() int { return r.End - r.Start }

func (r Region) String() string { return fmt.Sprintf("[%d,%d)", r.Start, r.End) }

// Locate returns the offset just past the start marker. The marker must be
// non-empty; under Strict it must occur exactly once in the document.
func Locate(d Document, marker string, occ Occurrence) (int, error) {
	if marker == "" {
		return 0, newError(KindInvalidMarker, "marker is empty")
	}
	at, err := findMarker(d.text, 0, marker, occ)
	if err != nil {
		return 0, err
	}
	return at + len(marker), nil
}

// findMarker returns the offset of the first match of marker in text[from:].
// Overlapping matches count towards ambiguity.
func findMarker(text string, from int, marker string, occ Occurrence) (int, *Error) {
	idx := strings.Index(text[from:], marker)
	if idx < 0 {
		e := newError(KindMarkerNotFound, "")
		e.Marker = marker
		e.Offsets = []int{from}
		if from > 0 {
			e.Detail = fmt.Sprintf("no match at or after offset %d", from)
		}
		return 0, e
	}
	at := from + idx
	if occ == Strict {
		if next := strings.Index(text[at+1:], marker); next >= 0 {
			e := newError(KindMarkerAmbiguous, "more than one match")
			e.Marker = marker
			e.Offsets = []int{at, at + 1 + next}
			return 0, e
		}
	}
	return at, nil
}
