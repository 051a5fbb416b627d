package build

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
)

// FshIndexEntry is one row of the build's fsh-index output (spec.md §6
// "FSH Index entry schema"). Deferred/DeferredReason are the
// supplemented pair (SPEC_FULL.md §3) letting a consumer see which
// declarations hit the deferred-rule phase without re-deriving it from
// logs.
type FshIndexEntry struct {
	OutputFile     string `json:"output_file"`
	FshName        string `json:"fsh_name"`
	FshType        string `json:"fsh_type"`
	FshFile        string `json:"fsh_file"`
	StartLine      int    `json:"start_line"`
	EndLine        int    `json:"end_line"`
	Deferred       bool   `json:"deferred,omitempty"`
	DeferredReason string `json:"deferred_reason,omitempty"`
}

// writeIndex writes both fsh-index.json (the array above) and
// fsh-index.txt (an aligned table), grounded on spec.md §6's two listed
// output files.
func writeIndex(outputDir string, entries []FshIndexEntry) error {
	jsonBody, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(outputDir, "fsh-index.json"), jsonBody, 0o644); err != nil {
		return err
	}

	var buf bytes.Buffer
	tw := tabwriter.NewWriter(&buf, 2, 2, 2, ' ', 0)
	fmt.Fprintln(tw, "OUTPUT\tNAME\tTYPE\tSOURCE\tLINES")
	for _, e := range entries {
		lines := fmt.Sprintf("%d-%d", e.StartLine, e.EndLine)
		if e.Deferred {
			lines += " (deferred: " + e.DeferredReason + ")"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", e.OutputFile, e.FshName, e.FshType, e.FshFile, lines)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(outputDir, "fsh-index.txt"), buf.Bytes(), 0o644)
}
