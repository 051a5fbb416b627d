package autofix

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/fshlint/fshlint/pkg/diagnostic"
)

// TerminalPrompter is the default Prompter: it prints a fix's context
// diff and reads a y/n/q response from in, writing to out (§4.F step 4
// "interactive mode ... prompted individually").
type TerminalPrompter struct {
	In  io.Reader
	Out io.Writer
}

// Confirm shows the fix and blocks for a y/n/q response. A "q" response
// reports abort=true; any response other than y/yes is treated as
// decline.
func (p *TerminalPrompter) Confirm(fix diagnostic.Fix, original string) (apply bool, abort bool) {
	fmt.Fprintf(p.Out, "\nRule:     %s\n", fix.RuleID)
	fmt.Fprintf(p.Out, "Location: %s:%d:%d\n", fix.File, fix.Location.Line, fix.Location.Column)
	fmt.Fprintf(p.Out, "Safety:   %s\n", safetyLabel(fix))
	diff, err := UnifiedDiff(fix.File, original, applyPreview(original, fix))
	if err == nil {
		fmt.Fprintf(p.Out, "\n%s\n", diff)
	}
	fmt.Fprint(p.Out, "Apply this fix? [y/N/q] ")

	scanner := bufio.NewScanner(p.In)
	if !scanner.Scan() {
		return false, false
	}
	switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
	case "q", "quit":
		return false, true
	case "y", "yes":
		return true, false
	default:
		return false, false
	}
}

func safetyLabel(fix diagnostic.Fix) string {
	if fix.IsSafe() {
		return "safe (formatting, whitespace, obvious corrections)"
	}
	return "unsafe (semantic change, requires review)"
}

// applyPreview renders what original would look like with fix applied,
// for display only; apply errors are swallowed since this is advisory.
func applyPreview(original string, fix diagnostic.Fix) string {
	modified, err := applySingle(original, fix)
	if err != nil {
		return original
	}
	return modified
}
