package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/fshlint/fshlint/internal/xerrors"
)

// ConfigFileNames are the file names Discover looks for at each directory
// level, tried in order.
var ConfigFileNames = []string{".fshlintrc", ".fshlintrc.json", ".fshlintrc.toml"}

// Load builds the merged configuration: Default() as the base layer, the
// file at explicitPath (or discovered by walking up from startDir if
// explicitPath is empty) as the middle layer, and overrides as the final
// CLI layer (nil or empty is a no-op). Returns Default() unmodified if no
// config file is found.
func Load(startDir, explicitPath string, overrides map[string]any) (*Config, error) {
	path := explicitPath
	if path == "" {
		path = discoverFromDir(startDir)
	}

	k := koanf.New(".")
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, xerrors.WrapPathf(xerrors.KindConfig, path, "load defaults: %w", err)
	}

	if path != "" {
		if err := loadFile(k, path); err != nil {
			return nil, err
		}
	}

	if len(overrides) > 0 {
		if err := k.Load(confmap.Provider(overrides, "."), nil); err != nil {
			return nil, xerrors.WrapPathf(xerrors.KindConfig, path, "load overrides: %w", err)
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, xerrors.WrapPathf(xerrors.KindConfig, path, "unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, xerrors.WrapPathf(xerrors.KindConfig, path, "%w", err)
	}
	return cfg, nil
}

// loadFile loads one config file into k, choosing TOML or JSON by
// extension and, if the extension doesn't say, by the leading-brace
// heuristic spec.md §6 specifies.
func loadFile(k *koanf.Koanf, path string) error {
	if isJSON(path) {
		raw, err := os.ReadFile(path)
		if err != nil {
			return xerrors.WrapPathf(xerrors.KindConfig, path, "read config: %w", err)
		}
		var m map[string]any
		if err := json.Unmarshal(raw, &m); err != nil {
			return xerrors.WrapPathf(xerrors.KindConfig, path, "parse json config: %w", err)
		}
		if err := k.Load(confmap.Provider(m, "."), nil); err != nil {
			return xerrors.WrapPathf(xerrors.KindConfig, path, "load json config: %w", err)
		}
		return nil
	}

	if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
		return xerrors.WrapPathf(xerrors.KindConfig, path, "load toml config: %w", err)
	}
	return nil
}

// isJSON implements spec.md §6's "format detection uses extension then
// leading '{' heuristic".
func isJSON(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return true
	case ".toml":
		return false
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return strings.HasPrefix(strings.TrimSpace(string(raw)), "{")
}

// Discover walks upward from targetPath's directory looking for one of
// ConfigFileNames at each level, tried in priority order, returning the
// first match or "" if the filesystem root is reached with none found.
func Discover(targetPath string) string {
	absPath, err := filepath.Abs(targetPath)
	if err != nil {
		return ""
	}
	return discoverFromDir(filepath.Dir(absPath))
}

// discoverFromDir is Discover's directory-rooted core: it checks dir
// itself before walking up to each parent.
func discoverFromDir(dir string) string {
	if dir == "" {
		dir = "."
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		abs = dir
	}

	for {
		for _, name := range ConfigFileNames {
			candidate := filepath.Join(abs, name)
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate
			}
		}
		parent := filepath.Dir(abs)
		if parent == abs {
			return ""
		}
		abs = parent
	}
}
