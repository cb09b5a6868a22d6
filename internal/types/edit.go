package types

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// EditInfo encapsulates the information needed for tree-sitter's Edit function.
type EditInfo struct {
	StartIndex     uint32       // Start byte of the edit
	OldEndIndex    uint32       // End byte of the old text
	NewEndIndex    uint32       // End byte of the new text
	StartPosition  sitter.Point // Start position (row, byte column)
	OldEndPosition sitter.Point // Old end position
	NewEndPosition sitter.Point // New end position
}

// NewEditInfo describes replacing before[start:oldEnd] with the text that
// occupies after[start:newEnd].
func NewEditInfo(before string, start, oldEnd, newEnd int, after string) EditInfo {
	return EditInfo{
		StartIndex:     uint32(start),
		OldEndIndex:    uint32(oldEnd),
		NewEndIndex:    uint32(newEnd),
		StartPosition:  PointAt(before, start),
		OldEndPosition: PointAt(before, oldEnd),
		NewEndPosition: PointAt(after, newEnd),
	}
}

// ToSitter converts the edit for sitter.Tree.Edit.
func (e EditInfo) ToSitter() sitter.EditInput {
	return sitter.EditInput{
		StartIndex:  e.StartIndex,
		OldEndIndex: e.OldEndIndex,
		NewEndIndex: e.NewEndIndex,
		StartPoint:  e.StartPosition,
		OldEndPoint: e.OldEndPosition,
		NewEndPoint: e.NewEndPosition,
	}
}

// PointAt returns the tree-sitter point (row, byte column) of offset in text.
func PointAt(text string, offset int) sitter.Point {
	if offset > len(text) {
		offset = len(text)
	}
	head := text[:offset]
	row := strings.Count(head, "\n")
	col := offset
	if nl := strings.LastIndexByte(head, '\n'); nl >= 0 {
		col = offset - nl - 1
	}
	return sitter.Point{Row: uint32(row), Column: uint32(col)}
}
