package build

import "sort"

// levelBatch groups profile declaration names that can export
// concurrently: level 0 has no local-profile parent, level k depends
// only on profiles already placed at a level < k (spec.md §4.J phase 9
// "Dependency analysis (Profiles only)"). Profiles left over after no
// progress can be made form a cycle and are returned in cyclic.
//
// Grounded on original_source/crates/maki-core/src/export/build.rs's
// level-batched topological export order, implemented here with a
// standard Kahn's-algorithm peel: repeatedly take every node whose
// remaining dependency count is zero.
func levelBatches(deps map[string][]string) (levels [][]string, cyclic []string) {
	remaining := make(map[string]int, len(deps))
	for name, ds := range deps {
		remaining[name] = len(ds)
	}

	resolved := make(map[string]bool, len(deps))
	for {
		var level []string
		for name, n := range remaining {
			if n == 0 {
				level = append(level, name)
			}
		}
		if len(level) == 0 {
			break
		}
		sort.Strings(level)
		levels = append(levels, level)
		for _, name := range level {
			resolved[name] = true
			delete(remaining, name)
		}
		for name, ds := range deps {
			if resolved[name] {
				continue
			}
			count := 0
			for _, d := range ds {
				if !resolved[d] {
					count++
				}
			}
			remaining[name] = count
		}
	}

	for name := range remaining {
		cyclic = append(cyclic, name)
	}
	sort.Strings(cyclic)
	return levels, cyclic
}
