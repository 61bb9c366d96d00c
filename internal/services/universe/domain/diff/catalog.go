package diff

import (
	"fmt"
	"sort"

	apperrors "github.com/louisbranch/starpatch/internal/platform/errors"
)

// Loader parses a definition on first use.
type Loader func() (*Definition, error)

type catalogEntry struct {
	source string
	load   Loader
	def    *Definition
}

// Catalog indexes the available diffs by name. Definitions registered with
// Add are parsed lazily on first lookup and cached.
type Catalog struct {
	entries map[string]*catalogEntry
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{entries: make(map[string]*catalogEntry)}
}

// Register adds an already parsed definition.
func (c *Catalog) Register(def *Definition) error {
	if def == nil || def.Name() == "" {
		return fmt.Errorf("register diff: name is required")
	}
	if _, exists := c.entries[def.Name()]; exists {
		return fmt.Errorf("register diff %q: duplicate name", def.Name())
	}
	c.entries[def.Name()] = &catalogEntry{source: def.Source(), def: def}
	return nil
}

// Add registers a diff whose definition is produced by load when first needed.
func (c *Catalog) Add(name, source string, load Loader) error {
	if name == "" {
		return fmt.Errorf("add diff: name is required")
	}
	if load == nil {
		return fmt.Errorf("add diff %q: loader is required", name)
	}
	if existing, exists := c.entries[name]; exists {
		return fmt.Errorf("add diff %q from %s: already provided by %s", name, source, existing.source)
	}
	c.entries[name] = &catalogEntry{source: source, load: load}
	return nil
}

// Has reports whether name is known.
func (c *Catalog) Has(name string) bool {
	_, ok := c.entries[name]
	return ok
}

// Source returns the document a diff comes from.
func (c *Catalog) Source(name string) (string, bool) {
	entry, ok := c.entries[name]
	if !ok {
		return "", false
	}
	return entry.source, true
}

// Names returns every known diff name, sorted.
func (c *Catalog) Names() []string {
	out := make([]string, 0, len(c.entries))
	for name := range c.entries {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of known diffs.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Definition returns the named definition, loading it if needed. Load errors
// are not cached.
func (c *Catalog) Definition(name string) (*Definition, error) {
	entry, ok := c.entries[name]
	if !ok {
		return nil, apperrors.WithMetadata(apperrors.CodeDiffNotFound, "diff not found", map[string]string{"diff": name})
	}
	if entry.def != nil {
		return entry.def, nil
	}
	def, err := entry.load()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeParseInvalid, fmt.Sprintf("load diff %q", name), err)
	}
	if def.Name() != name {
		return nil, apperrors.WithMetadata(apperrors.CodeParseInvalid, "diff document name changed since indexing", map[string]string{
			"diff":   name,
			"loaded": def.Name(),
		})
	}
	entry.def = def
	return def, nil
}
