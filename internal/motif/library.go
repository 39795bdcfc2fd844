package motif

import (
	"embed"
	"fmt"
	"sort"
)

//go:embed defs/*.yaml
var defsFS embed.FS

// DefaultName is the motif selected when the configuration names none.
const DefaultName = "uap3"

// Library is a read-only set of named motif definitions.
type Library struct {
	defs  map[string]Definition
	names []string
}

// LoadLibrary parses every embedded definition. A malformed embedded
// document is a packaging bug, so this fails instead of skipping.
func LoadLibrary() (*Library, error) {
	entries, err := defsFS.ReadDir("defs")
	if err != nil {
		return nil, fmt.Errorf("read embedded defs: %w", err)
	}

	lib := &Library{defs: make(map[string]Definition)}
	for _, entry := range entries {
		data, err := defsFS.ReadFile("defs/" + entry.Name())
		if err != nil {
			return nil, fmt.Errorf("read embedded def %s: %w", entry.Name(), err)
		}
		def, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("embedded def %s: %w", entry.Name(), err)
		}
		if _, dup := lib.defs[def.Name]; dup {
			return nil, fmt.Errorf("embedded def %s: duplicate motif name %q", entry.Name(), def.Name)
		}
		lib.defs[def.Name] = def
		lib.names = append(lib.names, def.Name)
	}
	sort.Strings(lib.names)

	if _, ok := lib.defs[DefaultName]; !ok {
		return nil, fmt.Errorf("embedded defs missing default motif %q", DefaultName)
	}
	return lib, nil
}

// Names lists the available motifs in stable sorted order, for the
// picker page.
func (l *Library) Names() []string {
	out := make([]string, len(l.names))
	copy(out, l.names)
	return out
}

// Get returns the named definition.
func (l *Library) Get(name string) (Definition, bool) {
	def, ok := l.defs[name]
	return def, ok
}
