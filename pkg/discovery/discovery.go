// Package discovery finds FSH source files under a build's input
// directory. It is deliberately ambient plumbing around the core (spec.md
// names "file discovery, glob expansion, .gitignore handling" a
// Non-goal of THE CORE itself) that the build orchestrator consumes
// through the Discoverer interface, so a caller can substitute its own
// walker (an LSP's open-document set, a watch-mode incremental list)
// without pkg/build depending on any particular filesystem strategy.
package discovery

import (
	"bufio"
	"cmp"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/fshlint/fshlint/pkg/config"
)

// Discoverer finds source files to analyze under root.
type Discoverer interface {
	Discover(root string, files config.FilesConfig) ([]string, error)
}

// Walker is the default Discoverer: it walks root, matching
// files.include glob patterns and rejecting files.exclude patterns plus
// any patterns loaded from files.ignore_files. Grounded on
// wharflab-tally/internal/discovery.Discover's directory-glob-expansion
// shape, adapted from Dockerfile name matching to FSH glob matching.
type Walker struct{}

// NewWalker returns the default Discoverer.
func NewWalker() Walker { return Walker{} }

// Discover returns the sorted, deduplicated, absolute paths of every
// file under root matching files.Include and none of files.Exclude or
// the patterns collected from files.IgnoreFiles.
func (Walker) Discover(root string, files config.FilesConfig) ([]string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	exclude := append([]string{}, files.Exclude...)
	ignoreLines, err := loadIgnoreFiles(absRoot, files.IgnoreFiles)
	if err != nil {
		return nil, err
	}
	exclude = append(exclude, ignoreLines...)

	seen := make(map[string]bool)
	var results []string

	for _, pattern := range files.Include {
		full := filepath.Join(absRoot, pattern)
		matches, err := doublestar.FilepathGlob(full, doublestar.WithFilesOnly())
		if err != nil {
			return nil, err
		}
		for _, match := range matches {
			abs, err := filepath.Abs(match)
			if err != nil {
				return nil, err
			}
			if seen[abs] {
				continue
			}
			if isExcluded(abs, absRoot, exclude) {
				continue
			}
			seen[abs] = true
			results = append(results, abs)
		}
	}

	slices.SortFunc(results, func(a, b string) int { return cmp.Compare(a, b) })
	return results, nil
}

// isExcluded reports whether path matches any exclude pattern, relative
// patterns implicitly matching at any depth beneath root (so
// "node_modules/**" excludes nested occurrences too).
func isExcluded(path, root string, exclude []string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	relSlash := filepath.ToSlash(rel)
	pathSlash := filepath.ToSlash(path)

	for _, pattern := range exclude {
		pattern = filepath.ToSlash(strings.TrimSpace(pattern))
		if pattern == "" || strings.HasPrefix(pattern, "#") {
			continue
		}
		if matched, _ := doublestar.Match(pattern, relSlash); matched {
			return true
		}
		if matched, _ := doublestar.Match(pattern, pathSlash); matched {
			return true
		}
		if !strings.HasPrefix(pattern, "/") && !strings.HasPrefix(pattern, "**/") {
			if matched, _ := doublestar.Match("**/"+pattern, relSlash); matched {
				return true
			}
		}
	}
	return false
}

// loadIgnoreFiles reads each named ignore file under root, treating every
// non-blank, non-comment line as an additional exclude glob. This covers
// the gitignore-style "one pattern per line" convention spec.md names
// but not full gitignore semantics (negation, directory-only markers) -
// those are out of THE CORE's scope per spec.md's explicit Non-goal.
func loadIgnoreFiles(root string, names []string) ([]string, error) {
	var patterns []string
	for _, name := range names {
		path := filepath.Join(root, name)
		f, err := os.Open(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			patterns = append(patterns, line)
		}
		err = scanner.Err()
		f.Close()
		if err != nil {
			return nil, err
		}
	}
	return patterns, nil
}
