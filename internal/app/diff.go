package app

import (
	"fmt"

	"github.com/bethropolis/blockpatch/internal/patch"
	"github.com/pmezard/go-difflib/difflib"
)

func unifiedDiff(name string, before, after patch.Document) (string, error) {
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(before.String()),
		B:        difflib.SplitLines(after.String()),
		FromFile: "a/" + name,
		ToFile:   "b/" + name,
		Context:  3,
	})
	if err != nil {
		return "", fmt.Errorf("computing diff: %w", err)
	}
	return diff, nil
}
