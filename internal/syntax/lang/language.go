package lang

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// Language is a tree-sitter grammar usable for the post-patch syntax check.
type Language struct {
	// Name is the display name of the language
	Name string

	// TreeSitterLang is the tree-sitter language instance
	TreeSitterLang *sitter.Language

	// Extensions maps file extensions to this language
	Extensions []string
}
