package registry

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

var (
	ErrInvalidDescriptor = errors.New("invalid library descriptor")
	ErrDuplicate         = errors.New("duplicate library identifier")
	ErrUnknownDependency = errors.New("unknown library dependency")
	ErrCycle             = errors.New("library dependency cycle")
)

// Descriptor describes where a library is fetched from
type Descriptor struct {
	ID      string `json:"id" yaml:"id" toml:"id"`
	Source  string `json:"source" yaml:"source" toml:"source"`
	Version string `json:"version" yaml:"version" toml:"version"`
	// Global is the name the bundle exports on the global object.
	// Defaults to ID when empty.
	Global string `json:"global,omitempty" yaml:"global,omitempty" toml:"global,omitempty"`
	// Requires lists identifiers that must be installed first
	Requires []string `json:"requires,omitempty" yaml:"requires,omitempty" toml:"requires,omitempty"`
}

// GlobalName returns the global binding the library installs
func (d Descriptor) GlobalName() string {
	if d.Global != "" {
		return d.Global
	}
	return d.ID
}

// Key identifies the exact artifact (source and version)
func (d Descriptor) Key() string {
	return d.Source + "@" + d.Version
}

// Validate checks required fields
func (d Descriptor) Validate() error {
	if strings.TrimSpace(d.ID) == "" {
		return fmt.Errorf("%w: empty identifier", ErrInvalidDescriptor)
	}
	if strings.TrimSpace(d.Source) == "" {
		return fmt.Errorf("%w: %s has no source", ErrInvalidDescriptor, d.ID)
	}
	u, err := url.Parse(d.Source)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: %s has malformed source %q", ErrInvalidDescriptor, d.ID, d.Source)
	}
	return nil
}

// Registry is an immutable identifier -> Descriptor lookup
type Registry struct {
	entries map[string]Descriptor
	ids     []string
}

// New builds a registry from descriptors. Identifiers must be unique and
// every dependency must name a registered identifier without forming a cycle.
func New(descs ...Descriptor) (*Registry, error) {
	r := &Registry{
		entries: make(map[string]Descriptor, len(descs)),
		ids:     make([]string, 0, len(descs)),
	}

	for _, d := range descs {
		if err := d.Validate(); err != nil {
			return nil, err
		}
		if _, exists := r.entries[d.ID]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicate, d.ID)
		}
		r.entries[d.ID] = d
		r.ids = append(r.ids, d.ID)
	}

	sort.Strings(r.ids)
	if err := r.checkDependencies(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Registry) checkDependencies() error {
	for _, id := range r.ids {
		for _, dep := range r.entries[id].Requires {
			if _, ok := r.entries[dep]; !ok {
				return fmt.Errorf("%w: %s requires %s", ErrUnknownDependency, id, dep)
			}
		}
	}

	const (
		visiting = 1
		done     = 2
	)
	marks := make(map[string]int, len(r.ids))
	var visit func(id string, path []string) error
	visit = func(id string, path []string) error {
		switch marks[id] {
		case done:
			return nil
		case visiting:
			return fmt.Errorf("%w: %s", ErrCycle, strings.Join(append(path, id), " -> "))
		}
		marks[id] = visiting
		for _, dep := range r.entries[id].Requires {
			if err := visit(dep, append(path, id)); err != nil {
				return err
			}
		}
		marks[id] = done
		return nil
	}

	for _, id := range r.ids {
		if err := visit(id, nil); err != nil {
			return err
		}
	}
	return nil
}

// MustNew is like New but panics on error. Intended for static catalogs.
func MustNew(descs ...Descriptor) *Registry {
	r, err := New(descs...)
	if err != nil {
		panic(err)
	}
	return r
}

// Describe looks up a descriptor by identifier
func (r *Registry) Describe(id string) (Descriptor, bool) {
	d, ok := r.entries[id]
	return d, ok
}

// List returns all descriptors sorted by identifier
func (r *Registry) List() []Descriptor {
	out := make([]Descriptor, 0, len(r.ids))
	for _, id := range r.ids {
		out = append(out, r.entries[id])
	}
	return out
}

// IDs returns all identifiers in sorted order
func (r *Registry) IDs() []string {
	return append([]string(nil), r.ids...)
}

// Len returns the number of registered libraries
func (r *Registry) Len() int {
	return len(r.ids)
}
