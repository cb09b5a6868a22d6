// internal/types/position.go
package types

import "fmt"

// Position is a human-facing location in a document.
// Line is the 0-based line index.
// Col is the 0-based grapheme cluster index within the line, so a column
// matches what an editor shows for combined characters and emoji.
type Position struct {
	Line int
	Col  int
}

// String renders the position 1-based, as editors and compilers do.
func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line+1, p.Col+1)
}
