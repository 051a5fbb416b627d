// Package semantic builds the per-file Semantic Model (spec.md §4.D):
// a source map, alias table, symbol table, and deferred-rule queue
// layered over a parsed pkg/cst tree. The builder is pure — it performs
// no I/O beyond reading the slice it was given.
package semantic

import (
	"sort"

	"github.com/fshlint/fshlint/pkg/diagnostic"
)

// SourceMap converts between byte offsets and (line, column) in O(log n)
// via a precomputed, sorted array of line-start offsets (spec.md §4.D).
type SourceMap struct {
	lineStarts []uint32
	length     uint32
}

// NewSourceMap scans src once for line starts. Lines are 1-based;
// columns are 1-based byte offsets within the line (not rune-aware,
// matching the teacher's byte-oriented span model throughout pkg/cst).
func NewSourceMap(src string) *SourceMap {
	starts := []uint32{0}
	for i := 0; i < len(src); i++ {
		if src[i] == '\n' {
			starts = append(starts, uint32(i+1))
		}
	}
	return &SourceMap{lineStarts: starts, length: uint32(len(src))}
}

// LineCol returns the 1-based (line, column) for a byte offset.
func (m *SourceMap) LineCol(offset uint32) (line, col int) {
	if offset > m.length {
		offset = m.length
	}
	// sort.Search finds the first line-start strictly greater than
	// offset; the line containing offset is the one before it.
	idx := sort.Search(len(m.lineStarts), func(i int) bool {
		return m.lineStarts[i] > offset
	})
	lineIdx := idx - 1
	if lineIdx < 0 {
		lineIdx = 0
	}
	return lineIdx + 1, int(offset-m.lineStarts[lineIdx]) + 1
}

// Offset is the inverse of LineCol: given a 1-based (line, column),
// returns the byte offset, clamped to the source length (spec.md P3
// "offset_of(line_col_of(o)) == o").
func (m *SourceMap) Offset(line, col int) uint32 {
	if line < 1 {
		line = 1
	}
	if line > len(m.lineStarts) {
		return m.length
	}
	off := m.lineStarts[line-1] + uint32(col-1)
	if off > m.length {
		off = m.length
	}
	return off
}

// Location builds a diagnostic.Location from a [start,end) byte range.
func (m *SourceMap) Location(file string, start, end uint32) diagnostic.Location {
	sl, sc := m.LineCol(start)
	el, ec := m.LineCol(end)
	return diagnostic.Location{
		File: file, Line: sl, Column: sc, EndLine: el, EndColumn: ec,
		Offset: start, Length: end - start,
	}
}
