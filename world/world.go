package world

import (
	"iter"
	"sort"
)

// World is an isolated entity container identified by a stable ID.
type World struct {
	id     string
	pool   entityPool
	live   map[localID]struct{}
	stores map[string]map[localID]Component // component name -> entity -> value
}

// New creates an empty world with the given ID.
func New(id string) *World {
	return &World{
		id:     id,
		pool:   newEntityPool(),
		live:   make(map[localID]struct{}),
		stores: make(map[string]map[localID]Component),
	}
}

// ID returns the world's stable identifier.
func (w *World) ID() string {
	return w.id
}

// CreateEntity allocates a new entity with no components.
func (w *World) CreateEntity() Entity {
	id := w.pool.create()
	w.live[id] = struct{}{}
	return Entity{world: w, id: id}
}

// Destroy removes the entity and every component attached to it.
func (w *World) Destroy(e Entity) error {
	if !w.Alive(e) {
		return ErrEntityNotFound
	}
	for _, store := range w.stores {
		delete(store, e.id)
	}
	delete(w.live, e.id)
	w.pool.destroy(e.id)
	return nil
}

// Alive reports whether the handle names a live entity of this world.
func (w *World) Alive(e Entity) bool {
	return e.world == w && w.pool.alive(e.id)
}

// Len returns the number of live entities.
func (w *World) Len() int {
	return len(w.live)
}

// Entities yields every live entity. Destroying the yielded entity during iteration is allowed.
func (w *World) Entities() iter.Seq[Entity] {
	return func(yield func(Entity) bool) {
		for id := range w.live {
			if !yield(Entity{world: w, id: id}) {
				return
			}
		}
	}
}

// ComponentNames returns the sorted names of every component type ever stored in this world.
func (w *World) ComponentNames() []string {
	names := make([]string, 0, len(w.stores))
	for name := range w.stores {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (w *World) store(name string) map[localID]Component {
	s, ok := w.stores[name]
	if !ok {
		s = make(map[localID]Component)
		w.stores[name] = s
	}
	return s
}
