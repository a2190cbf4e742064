package world

import (
	"fmt"
	"sort"

	"github.com/rotisserie/eris"
)

// Entity is a handle to an entity inside a specific World. The zero value is the empty entity:
// it belongs to no world and every operation on it fails with ErrEntityNotFound.
//
// Entity is comparable and safe to use as a map key. A handle to a destroyed entity never
// resolves again, even when its slot is recycled.
type Entity struct {
	world *World
	id    localID
}

// World returns the owning world, or nil for the empty entity.
func (e Entity) World() *World {
	return e.world
}

// IsZero reports whether e is the empty entity.
func (e Entity) IsZero() bool {
	return e.world == nil
}

// Alive reports whether e names a live entity.
func (e Entity) Alive() bool {
	return e.world != nil && e.world.Alive(e)
}

func (e Entity) String() string {
	if e.world == nil {
		return "Entity(empty)"
	}
	return fmt.Sprintf("Entity(%s:%d:%d)", e.world.id, e.id.index(), e.id.generation())
}

// Destroy removes the entity from its world.
func (e Entity) Destroy() error {
	if e.world == nil {
		return ErrEntityNotFound
	}
	return e.world.Destroy(e)
}

// SetComponent attaches or overwrites a component by its dynamic type.
func (e Entity) SetComponent(c Component) error {
	if !e.Alive() {
		return eris.Wrapf(ErrEntityNotFound, "set %q on %s", c.Name(), e)
	}
	e.world.store(c.Name())[e.id] = c
	return nil
}

// Component returns the component stored under name.
func (e Entity) Component(name string) (Component, bool) {
	if !e.Alive() {
		return nil, false
	}
	c, ok := e.world.stores[name][e.id]
	return c, ok
}

// RemoveComponent detaches the component stored under name.
func (e Entity) RemoveComponent(name string) error {
	if !e.Alive() {
		return eris.Wrapf(ErrEntityNotFound, "remove %q from %s", name, e)
	}
	store := e.world.stores[name]
	if _, ok := store[e.id]; !ok {
		return eris.Wrapf(ErrComponentNotOnEntity, "remove %q from %s", name, e)
	}
	delete(store, e.id)
	return nil
}

// Components returns every component on the entity ordered by name.
func (e Entity) Components() []Component {
	if !e.Alive() {
		return nil
	}
	comps := make([]Component, 0, 4)
	for _, store := range e.world.stores {
		if c, ok := store[e.id]; ok {
			comps = append(comps, c)
		}
	}
	sort.Slice(comps, func(i, j int) bool {
		return comps[i].Name() < comps[j].Name()
	})
	return comps
}
