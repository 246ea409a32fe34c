package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
)

// catalogFile is the on-disk manifest layout shared by YAML and TOML
type catalogFile struct {
	Libraries []Descriptor `yaml:"libraries" toml:"libraries"`
}

// ReadFile parses a catalog manifest. Format is chosen by extension.
func ReadFile(path string) ([]Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}

	var cat catalogFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cat)
	case ".toml":
		err = toml.Unmarshal(data, &cat)
	default:
		return nil, fmt.Errorf("unsupported catalog format: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse catalog %s: %w", path, err)
	}

	return cat.Libraries, nil
}

// ReadGlob parses every catalog matching a doublestar pattern in lexical
// order. An identifier defined by two files is an error.
func ReadGlob(pattern string) ([]Descriptor, error) {
	paths, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid catalog pattern %q: %w", pattern, err)
	}
	sort.Strings(paths)

	var out []Descriptor
	seen := make(map[string]string)
	for _, path := range paths {
		descs, err := ReadFile(path)
		if err != nil {
			return nil, err
		}
		for _, d := range descs {
			if prev, ok := seen[d.ID]; ok {
				return nil, fmt.Errorf("%w: %s defined in %s and %s", ErrDuplicate, d.ID, prev, path)
			}
			seen[d.ID] = path
			out = append(out, d)
		}
	}

	return out, nil
}

// Build returns the built-in set overlaid with catalog entries matching
// pattern. Catalog entries replace defaults with the same identifier.
// An empty pattern yields the defaults.
func Build(pattern string) (*Registry, error) {
	if pattern == "" {
		return Default(), nil
	}

	custom, err := ReadGlob(pattern)
	if err != nil {
		return nil, err
	}

	overridden := make(map[string]bool, len(custom))
	for _, d := range custom {
		overridden[d.ID] = true
	}

	descs := make([]Descriptor, 0, len(custom)+3)
	for _, d := range Defaults() {
		if !overridden[d.ID] {
			descs = append(descs, d)
		}
	}
	descs = append(descs, custom...)

	return New(descs...)
}
