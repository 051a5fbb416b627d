package rules

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// defaultExcludedDirs are always skipped during directory discovery
// (spec.md §4.E "Discovery": "node_modules, target, .git excluded").
var defaultExcludedDirs = map[string]struct{}{
	"node_modules": {},
	"target":       {},
	".git":         {},
}

// manifestNames are the file names recognized as a rule pack manifest
// (spec.md §4.E "pack_directories searched for manifest files").
var manifestNames = map[string]struct{}{
	"pack.json":      {},
	"pack.toml":      {},
	"rulePack.json":  {},
}

// DiscoveryOptions configures a filesystem scan for rule/pack files.
type DiscoveryOptions struct {
	Recursive        bool
	IncludeGlobs     []string
	ExcludeGlobs     []string
	IncludeHidden    bool
}

// DiscoverRuleFiles walks dirs collecting file paths matching the given
// include/exclude glob patterns (doublestar syntax, "**" supported),
// skipping hidden files and the default excluded directories unless
// IncludeHidden overrides the hidden-file exclusion.
func DiscoverRuleFiles(dirs []string, opts DiscoveryOptions) ([]string, error) {
	var found []string
	for _, dir := range dirs {
		err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			name := d.Name()
			if d.IsDir() {
				if path != dir && !opts.Recursive {
					return filepath.SkipDir
				}
				if _, excluded := defaultExcludedDirs[name]; excluded {
					return filepath.SkipDir
				}
				if !opts.IncludeHidden && isHidden(name) && path != dir {
					return filepath.SkipDir
				}
				return nil
			}
			if !opts.IncludeHidden && isHidden(name) {
				return nil
			}
			if !matchesGlobs(path, opts.IncludeGlobs, true) {
				return nil
			}
			if matchesGlobs(path, opts.ExcludeGlobs, false) {
				return nil
			}
			found = append(found, path)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return found, nil
}

// DiscoverPackManifests walks dirs looking for recognized pack manifest
// file names (spec.md §4.E "pack_directories").
func DiscoverPackManifests(dirs []string) ([]string, error) {
	var found []string
	for _, dir := range dirs {
		err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if _, excluded := defaultExcludedDirs[d.Name()]; excluded && path != dir {
					return filepath.SkipDir
				}
				return nil
			}
			if _, ok := manifestNames[d.Name()]; ok {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return found, nil
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}

// matchesGlobs reports whether path matches any pattern in globs. When
// globs is empty, emptyDefault is returned (true for include-lists,
// since no include patterns means "match everything").
func matchesGlobs(path string, globs []string, emptyDefault bool) bool {
	if len(globs) == 0 {
		return emptyDefault
	}
	for _, g := range globs {
		if ok, _ := doublestar.Match(g, path); ok {
			return true
		}
		if ok, _ := doublestar.Match(g, filepath.Base(path)); ok {
			return true
		}
	}
	return false
}

// manifestFile is the on-disk shape of a pack.json / rulePack.json
// manifest (spec.md §4.E). DiscoverPackManifests also finds pack.toml
// files, but only the JSON shape is decoded here; no TOML manifest
// decoder exists in this module.
type manifestFile struct {
	Name         string             `json:"name"`
	Version      string             `json:"version"`
	Dependencies []PackDependency   `json:"dependencies"`
	Priority     int32              `json:"priority"`
	CanOverride  bool               `json:"can_override"`
}

// ParseManifestJSON decodes a pack.json/rulePack.json manifest's header
// fields (rule bodies themselves are loaded separately, from the rule
// files the manifest's directory also contains).
func ParseManifestJSON(data []byte) (PackMetadata, []PackDependency, PrecedenceEntry, error) {
	var m manifestFile
	if err := json.Unmarshal(data, &m); err != nil {
		return PackMetadata{}, nil, PrecedenceEntry{}, err
	}
	meta := PackMetadata{Name: m.Name, Version: m.Version}
	entry := PrecedenceEntry{PackName: m.Name, Priority: m.Priority, CanOverride: m.CanOverride}
	return meta, m.Dependencies, entry, nil
}
