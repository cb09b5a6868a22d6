package utils

import (
	"strings"

	"github.com/bethropolis/blockpatch/internal/types"
	"github.com/rivo/uniseg"
)

// PositionAt converts a byte offset in text into a line and grapheme column.
// Offsets outside text are clamped; an offset inside a grapheme cluster maps
// to that cluster's column.
func PositionAt(text string, offset int) types.Position {
	if offset < 0 {
		offset = 0
	}
	if offset > len(text) {
		offset = len(text)
	}
	head := text[:offset]
	lineStart := strings.LastIndexByte(head, '\n') + 1
	lineEnd := strings.IndexByte(text[lineStart:], '\n')
	line := text[lineStart:]
	if lineEnd >= 0 {
		line = line[:lineEnd]
	}
	return types.Position{
		Line: strings.Count(head, "\n"),
		Col:  GraphemeIndex(line, offset-lineStart),
	}
}

// GraphemeIndex returns the number of grapheme clusters of line that end at
// or before byteOffset.
func GraphemeIndex(line string, byteOffset int) int {
	col := 0
	gr := uniseg.NewGraphemes(line)
	for gr.Next() {
		if _, to := gr.Positions(); to > byteOffset {
			break
		}
		col++
	}
	return col
}

// Excerpt returns the line containing offset, trimmed of its separator, for
// use in diagnostics.
func Excerpt(text string, offset int) string {
	if offset < 0 {
		offset = 0
	}
	if offset > len(text) {
		offset = len(text)
	}
	start := strings.LastIndexByte(text[:offset], '\n') + 1
	end := strings.IndexByte(text[offset:], '\n')
	if end < 0 {
		return strings.TrimRight(text[start:], "\r")
	}
	return strings.TrimRight(text[start:offset+end], "\r")
}
