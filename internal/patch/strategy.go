package patch

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Anchor decides whether the start marker belongs to the replaced region.
type Anchor int

const (
	// AnchorAfter starts the region right after the start marker (kept).
	AnchorAfter Anchor = iota
	// AnchorBefore starts the region at the start marker (replaced).
	AnchorBefore
)

func (a Anchor) String() string {
	if a == AnchorBefore {
		return "before"
	}
	return "after"
}

// ParseAnchor maps "after" (or "") and "before" to an Anchor.
func ParseAnchor(s string) (Anchor, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "after":
		return AnchorAfter, nil
	case "before":
		return AnchorBefore, nil
	}
	return AnchorAfter, fmt.Errorf("unknown anchor %q (want before or after)", s)
}

// Strategy determines where a region ends once its start is known.
// The set of strategies is closed: LiteralEnd, BraceBalance, LineRange and Insert.
type Strategy interface {
	Name() string
	needsMarker() bool
	// region computes the span given the region start and the offset just
	// past the start marker.
	region(d Document, start, after int, occ Occurrence) (Region, *Error)
}

// LiteralEnd ends the region at the first occurrence of Marker found after
// the start marker. The end marker is replaced unless Exclusive is set.
type LiteralEnd struct {
	Marker    string
	Exclusive bool
}

func (LiteralEnd) Name() string      { return "literal" }
func (LiteralEnd) needsMarker() bool { return true }

func (s LiteralEnd) region(d Document, start, after int, occ Occurrence) (Region, *Error) {
	if s.Marker == "" {
		return Region{}, newError(KindInvalidMarker, "end marker is empty")
	}
	at, err := findMarker(d.text, after, s.Marker, occ)
	if err != nil {
		return Region{}, err
	}
	if s.Exclusive {
		return Region{Start: start, End: at}, nil
	}
	return Region{Start: start, End: at + len(s.Marker)}, nil
}

// BraceBalance ends the region one past the Close that balances the first
// Open found at or after the region start. The scan is purely lexical:
// braces inside string literals or comments are counted like any other.
//
// Terminator, when non-zero, extends the region over one immediately
// following rune if and only if it equals Terminator.
type BraceBalance struct {
	Open       rune
	Close      rune
	Terminator rune
}

// Braces is BraceBalance for '{' and '}'.
func Braces() BraceBalance { return BraceBalance{Open: '{', Close: '}'} }

func (BraceBalance) Name() string      { return "brace" }
func (BraceBalance) needsMarker() bool { return true }

func (s BraceBalance) validate() *Error {
	switch {
	case s.Open == 0 || s.Close == 0:
		return newError(KindInvalidStrategy, "open and close characters are required")
	case s.Open == s.Close:
		return newError(KindInvalidStrategy, fmt.Sprintf("open and close are both %q", s.Open))
	}
	return nil
}

func (s BraceBalance) region(d Document, start, _ int, _ Occurrence) (Region, *Error) {
	if err := s.validate(); err != nil {
		return Region{}, err
	}
	text := d.text
	depth := 0
	opened := false
	for i, r := range text[start:] {
		switch r {
		case s.Open:
			depth++
			opened = true
		case s.Close:
			if !opened {
				continue
			}
			depth--
			if depth > 0 {
				continue
			}
			end := start + i + utf8.RuneLen(r)
			if s.Terminator != 0 {
				if t, size := utf8.DecodeRuneInString(text[end:]); size > 0 && t == s.Terminator {
					end += size
				}
			}
			return Region{Start: start, End: end}, nil
		}
	}
	e := newError(KindUnbalancedBraces, "")
	e.Offsets = []int{start}
	e.Depth = depth
	if !opened {
		e.Detail = fmt.Sprintf("no %q at or after offset %d", s.Open, start)
	} else {
		e.Detail = fmt.Sprintf("%d %q still open at end of document", depth, s.Open)
	}
	return Region{}, e
}

// LineRange selects lines Start through End inclusive, zero-based, with their
// separators. It needs no marker; a marker given alongside it must occur on
// line Start, which catches line numbers that drifted after earlier edits.
type LineRange struct {
	Start int
	End   int
}

func (LineRange) Name() string      { return "lines" }
func (LineRange) needsMarker() bool { return false }

func (s LineRange) region(d Document, _, _ int, _ Occurrence) (Region, *Error) {
	n := d.LineCount()
	if s.Start < 0 || s.End < 0 || s.Start >= n || s.End >= n {
		e := newError(KindLineIndexOutOfRange, fmt.Sprintf("lines %d..%d, document has %d", s.Start, s.End, n))
		e.Line, e.EndLine = s.Start, s.End
		return Region{}, e
	}
	if s.Start > s.End {
		e := newError(KindInvalidRange, fmt.Sprintf("start line %d is after end line %d", s.Start, s.End))
		e.Line, e.EndLine = s.Start, s.End
		return Region{}, e
	}
	first, _ := d.LineSpan(s.Start)
	last, _ := d.LineSpan(s.End)
	return Region{Start: first.Start, End: last.End}, nil
}

// Insert selects the empty region at the anchor, so the replacement is
// inserted before (AnchorBefore) or after (AnchorAfter) the marker.
type Insert struct{}

func (Insert) Name() string      { return "insert" }
func (Insert) needsMarker() bool { return true }

func (Insert) region(_ Document, start, _ int, _ Occurrence) (Region, *Error) {
	return Region{Start: start, End: start}, nil
}
