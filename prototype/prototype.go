// Package prototype resolves prototype IDs to component templates. Loading and authoring
// prototypes happens elsewhere; this package only answers "does this world know how to build
// this prototype, and with which components".
package prototype

import (
	"sort"

	"github.com/rotisserie/eris"

	"pkg.world.dev/world-engine/multiworld/world"
)

var (
	ErrDuplicatePrototype = eris.New("prototype already registered")
	ErrEmptyPrototypeID   = eris.New("prototype id cannot be empty")
)

// Template is the set of components a new entity receives when built from a prototype.
type Template struct {
	ID         string
	Components []world.Component
}

// Apply attaches every template component to e. Components are copied by value.
func (t Template) Apply(e world.Entity) error {
	for _, c := range t.Components {
		if err := e.SetComponent(c); err != nil {
			return eris.Wrapf(err, "failed to apply prototype %q", t.ID)
		}
	}
	return nil
}

// Repository resolves a prototype ID to its template.
type Repository interface {
	Get(prototypeID string) (Template, bool)
}

// MapRepository is an in-memory Repository. One is usually built per world, since a world may
// know only a subset of the prototypes (a view world has no template for a server-only entity).
type MapRepository struct {
	templates map[string]Template
}

var _ Repository = (*MapRepository)(nil)

func NewMapRepository(templates ...Template) (*MapRepository, error) {
	r := &MapRepository{templates: make(map[string]Template, len(templates))}
	for _, t := range templates {
		if err := r.Add(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Add registers a template. A prototype ID can only be registered once.
func (r *MapRepository) Add(t Template) error {
	if t.ID == "" {
		return ErrEmptyPrototypeID
	}
	if _, ok := r.templates[t.ID]; ok {
		return eris.Wrapf(ErrDuplicatePrototype, "prototype %q", t.ID)
	}
	r.templates[t.ID] = t
	return nil
}

func (r *MapRepository) Get(prototypeID string) (Template, bool) {
	t, ok := r.templates[prototypeID]
	return t, ok
}

// IDs returns the registered prototype IDs in sorted order.
func (r *MapRepository) IDs() []string {
	ids := make([]string, 0, len(r.templates))
	for id := range r.templates {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Empty is a Repository that knows no prototypes.
type Empty struct{}

func (Empty) Get(string) (Template, bool) { return Template{}, false }
