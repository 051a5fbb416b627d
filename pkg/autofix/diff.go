package autofix

import "github.com/pmezard/go-difflib/difflib"

// UnifiedDiff renders a unified diff between original and modified
// content with 3 lines of context and `@@ -a,b +c,d @@` hunk headers
// (§4.F "Unified diff"), reusing the same diff engine testify's
// assertion failures are built on rather than hand-rolling an LCS.
func UnifiedDiff(file, original, modified string) (string, error) {
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(original),
		B:        difflib.SplitLines(modified),
		FromFile: file,
		ToFile:   file + " (modified)",
		Context:  3,
	}
	return difflib.GetUnifiedDiffString(diff)
}
