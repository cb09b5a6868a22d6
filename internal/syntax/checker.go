// Package syntax re-parses a patched document with tree-sitter and reports
// patches that introduced syntax errors.
package syntax

import (
	"context"
	"errors"
	"fmt"

	"github.com/bethropolis/blockpatch/internal/logger"
	"github.com/bethropolis/blockpatch/internal/patch"
	"github.com/bethropolis/blockpatch/internal/syntax/lang"
	"github.com/bethropolis/blockpatch/internal/types"
	"github.com/bethropolis/blockpatch/internal/utils"
	sitter "github.com/smacker/go-tree-sitter"
)

// ErrRegression is matched by errors.Is when patching added syntax errors.
var ErrRegression = errors.New("syntax regression")

// RegressionError describes the first syntax error a patch run introduced.
type RegressionError struct {
	Language string
	Before   int // error nodes in the original document
	After    int // error nodes in the patched document
	Position types.Position
	Node     string
	Line     string
}

func (e *RegressionError) Error() string {
	return fmt.Sprintf("%v in %s: %d -> %d error nodes, first at %s (%s) %q",
		ErrRegression, e.Language, e.Before, e.After, e.Position, e.Node, e.Line)
}

func (e *RegressionError) Unwrap() error { return ErrRegression }

// Report summarises a check.
type Report struct {
	Language     string
	Skipped      bool // no grammar for the file extension
	ErrorsBefore int
	ErrorsAfter  int
	Reparses     int
}

// Checker holds a reusable tree-sitter parser. It is not safe for
// concurrent use.
type Checker struct {
	parser *sitter.Parser
}

// NewChecker creates a checker with the built-in grammars registered.
func NewChecker() *Checker {
	RegisterLanguages()
	return &Checker{parser: sitter.NewParser()}
}

// Close releases the parser.
func (c *Checker) Close() {
	c.parser.Close()
}

// Check parses original, replays every applied stage into the tree as an
// incremental edit and reparses. It fails with a *RegressionError when the
// final tree has more error nodes than the original one.
func (c *Checker) Check(ctx context.Context, filePath string, original patch.Document, applied []patch.Applied) (Report, error) {
	l := lang.GetForFile(filePath)
	if l == nil {
		logger.DebugTagf("syntax", "No grammar for %s, skipping check", filePath)
		return Report{Skipped: true}, nil
	}
	rep := Report{Language: l.Name}
	c.parser.SetLanguage(l.TreeSitterLang)

	tree, err := c.parser.ParseCtx(ctx, nil, []byte(original.String()))
	if err != nil {
		return rep, fmt.Errorf("parsing %s as %s: %w", filePath, l.Name, err)
	}
	rep.ErrorsBefore = countErrors(tree.RootNode())

	final := original
	changedFrom := original.Len()
	for _, a := range applied {
		edit := types.NewEditInfo(a.Before.String(), a.Region.Start, a.Region.End, a.Region.Start+a.ReplacementLen, a.After.String())
		tree.Edit(edit.ToSitter())
		next, err := c.parser.ParseCtx(ctx, tree, []byte(a.After.String()))
		tree.Close()
		if err != nil {
			return rep, fmt.Errorf("reparsing after stage %q: %w", a.Stage, err)
		}
		tree = next
		rep.Reparses++
		final = a.After
		changedFrom = min(changedFrom, a.Region.Start)
	}
	defer tree.Close()

	root := tree.RootNode()
	rep.ErrorsAfter = countErrors(root)
	logger.DebugTagf("syntax", "%s: %d error nodes before, %d after %d reparses", l.Name, rep.ErrorsBefore, rep.ErrorsAfter, rep.Reparses)
	if rep.ErrorsAfter <= rep.ErrorsBefore {
		return rep, nil
	}

	// Text before the earliest patched offset is untouched, so the first
	// error at or after it is the one a stage introduced.
	node := firstError(root, uint32(changedFrom))
	if node == nil {
		node = firstError(root, 0)
	}
	re := &RegressionError{Language: l.Name, Before: rep.ErrorsBefore, After: rep.ErrorsAfter}
	if node != nil {
		off := int(node.StartByte())
		re.Position = utils.PositionAt(final.String(), off)
		re.Node = nodeKind(node)
		re.Line = utils.Excerpt(final.String(), off)
	}
	return rep, re
}

func nodeKind(n *sitter.Node) string {
	if n.IsMissing() {
		return "MISSING " + n.Type()
	}
	return n.Type()
}

func countErrors(n *sitter.Node) int {
	if n == nil {
		return 0
	}
	count := 0
	if n.IsError() || n.IsMissing() {
		count++
	}
	if !n.HasError() {
		return count
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		count += countErrors(n.Child(i))
	}
	return count
}

// firstError returns the first error or missing node, in document order,
// that starts at or after from.
func firstError(n *sitter.Node, from uint32) *sitter.Node {
	if n == nil {
		return nil
	}
	if (n.IsError() || n.IsMissing()) && n.StartByte() >= from {
		return n
	}
	if !n.HasError() && !n.IsMissing() {
		return nil
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if found := firstError(n.Child(i), from); found != nil {
			return found
		}
	}
	return nil
}
