// Package patch locates marker-bounded regions in a text document and
// splices replacement text into them.
//
// Every operation is a pure function: a Document is never modified, each
// patch returns a new Document, and a failed pipeline leaves its input as the
// only result. Offsets are byte offsets into the UTF-8 text.
package patch

import (
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Document is an immutable text value, viewable as bytes or as lines.
// A line is a run of bytes up to and including '\n'; a trailing run with no
// bytes is not a line.
type Document struct {
	text   string
	starts []int // line start offsets
}

// NewDocument wraps text in a Document.
func NewDocument(text string) Document {
	return Document{text: text, starts: lineStarts(text)}
}

// String returns the document text.
func (d Document) String() string { return d.text }

// Len returns the document length in bytes.
func (d Document) Len() int { return len(d.text) }

// Hash returns a 64-bit content fingerprint.
func (d Document) Hash() uint64 { return xxhash.Sum64String(d.text) }

// Equal reports whether both documents hold the same text.
func (d Document) Equal(o Document) bool { return d.text == o.text }

// Slice returns the text of r. It panics on an invalid region, like a string slice.
func (d Document) Slice(r Region) string { return d.text[r.Start:r.End] }

func lineStarts(text string) []int {
	if text == "" {
		return nil
	}
	starts := make([]int, 0, strings.Count(text, "\n")+1)
	starts = append(starts, 0)
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' && i+1 < len(text) {
			starts = append(starts, i+1)
		}
	}
	return starts
}

// LineCount returns the number of lines.
func (d Document) LineCount() int { return len(d.starts) }

// Lines returns every line including its separator.
func (d Document) Lines() []string {
	starts := d.starts
	lines := make([]string, len(starts))
	for i, s := range starts {
		end := len(d.text)
		if i+1 < len(starts) {
			end = starts[i+1]
		}
		lines[i] = d.text[s:end]
	}
	return lines
}

// LineSpan returns the byte span of line i, separator included.
func (d Document) LineSpan(i int) (Region, bool) {
	starts := d.starts
	if i < 0 || i >= len(starts) {
		return Region{}, false
	}
	end := len(d.text)
	if i+1 < len(starts) {
		end = starts[i+1]
	}
	return Region{Start: starts[i], End: end}, true
}

// LineOf returns the zero-based line index containing offset.
// An offset at the very end maps to the last line.
func (d Document) LineOf(offset int) int {
	starts := d.starts
	if len(starts) == 0 {
		return 0
	}
	return sort.Search(len(starts), func(i int) bool { return starts[i] > offset }) - 1
}
