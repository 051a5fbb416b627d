package autofix

import (
	"sort"
	"strings"

	"github.com/fshlint/fshlint/pkg/diagnostic"
)

// FilterBySafety drops unsafe fixes unless applyUnsafe or interactive
// is set (§4.F step 2).
func FilterBySafety(fixes []diagnostic.Fix, applyUnsafe, interactive bool) []diagnostic.Fix {
	if applyUnsafe || interactive {
		return fixes
	}
	var out []diagnostic.Fix
	for _, f := range fixes {
		if f.IsSafe() {
			out = append(out, f)
		}
	}
	return out
}

// conflicts reports whether two fixes in the same file cannot both be
// applied: their byte ranges overlap, or they share a rule id and sit
// within +/-2 lines of each other (a "semantic cluster", §4.F step 3).
func conflicts(a, b diagnostic.Fix) bool {
	if a.File != b.File {
		return false
	}
	aStart, aEnd := a.Location.Offset, a.Location.Offset+a.Location.Length
	bStart, bEnd := b.Location.Offset, b.Location.Offset+b.Location.Length
	if !(aEnd <= bStart || bEnd <= aStart) {
		return true
	}
	if a.RuleID == b.RuleID {
		delta := a.Location.Line - b.Location.Line
		if delta < 0 {
			delta = -delta
		}
		if delta <= 2 {
			return true
		}
	}
	return false
}

// score ranks a fix for conflict-group selection: safe fixes favored,
// then by priority, then by smaller replacement size, then by whether
// the rule id names an error (§4.F step 3 scoring formula).
func score(f diagnostic.Fix) int {
	s := 0
	if f.IsSafe() {
		s += 100
	}
	s += int(f.Priority)
	replLen := len(f.Replacement)
	if replLen > 100 {
		replLen = 100
	}
	s += 100 - replLen
	if strings.Contains(f.RuleID, "error") {
		s += 50
	}
	return s
}

// ResolveConflicts groups fixes by file, clusters conflicting fixes
// together, and keeps only the highest-scoring fix from each cluster.
// Order of the surviving fixes is not guaranteed to match the input.
func ResolveConflicts(fixes []diagnostic.Fix) []diagnostic.Fix {
	byFile := make(map[string][]diagnostic.Fix)
	var order []string
	for _, f := range fixes {
		if _, ok := byFile[f.File]; !ok {
			order = append(order, f.File)
		}
		byFile[f.File] = append(byFile[f.File], f)
	}

	var resolved []diagnostic.Fix
	for _, file := range order {
		resolved = append(resolved, resolveFileConflicts(byFile[file])...)
	}
	return resolved
}

func resolveFileConflicts(fixes []diagnostic.Fix) []diagnostic.Fix {
	n := len(fixes)
	visited := make([]bool, n)
	var out []diagnostic.Fix

	for i := 0; i < n; i++ {
		if visited[i] {
			continue
		}
		cluster := []int{i}
		visited[i] = true
		for j := i + 1; j < n; j++ {
			if visited[j] {
				continue
			}
			if anyConflicts(fixes, cluster, j) {
				cluster = append(cluster, j)
				visited[j] = true
			}
		}
		best := cluster[0]
		for _, idx := range cluster[1:] {
			if score(fixes[idx]) > score(fixes[best]) {
				best = idx
			}
		}
		out = append(out, fixes[best])
	}
	return out
}

func anyConflicts(fixes []diagnostic.Fix, cluster []int, j int) bool {
	for _, i := range cluster {
		if conflicts(fixes[i], fixes[j]) {
			return true
		}
	}
	return false
}

// SortByDescendingOffset orders fixes so that applying them in place,
// front to back, never invalidates an earlier fix's byte offsets
// (§4.F step 4).
func SortByDescendingOffset(fixes []diagnostic.Fix) {
	sort.SliceStable(fixes, func(i, j int) bool {
		return fixes[i].Location.Offset > fixes[j].Location.Offset
	})
}
