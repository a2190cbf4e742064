package world

import (
	"iter"

	"github.com/rotisserie/eris"
)

// Component is the interface all components implement. Name must be unique per component type
// and stable across program executions; it keys the component store. Components are stored by
// value, so value types are recommended.
type Component interface {
	Name() string
}

// Set attaches or overwrites the component of type T on the entity.
func Set[T Component](e Entity, c T) error {
	return e.SetComponent(c)
}

// Get returns the component of type T on the entity.
func Get[T Component](e Entity) (T, error) {
	var t T
	c, ok := e.Component(t.Name())
	if !ok {
		if !e.Alive() {
			return t, eris.Wrapf(ErrEntityNotFound, "get %q from %s", t.Name(), e)
		}
		return t, eris.Wrapf(ErrComponentNotOnEntity, "get %q from %s", t.Name(), e)
	}
	v, ok := c.(T)
	if !ok {
		return t, eris.Wrapf(ErrComponentTypeMismatch, "%q holds %T, want %T", t.Name(), c, t)
	}
	return v, nil
}

// Has reports whether the entity carries a component of type T.
func Has[T Component](e Entity) bool {
	var t T
	_, ok := e.Component(t.Name())
	return ok
}

// Remove detaches the component of type T from the entity.
func Remove[T Component](e Entity) error {
	var t T
	return e.RemoveComponent(t.Name())
}

// Each yields every entity in w carrying a component of type T, with that component.
func Each[T Component](w *World) iter.Seq2[Entity, T] {
	return func(yield func(Entity, T) bool) {
		var t T
		for id, c := range w.stores[t.Name()] {
			v, ok := c.(T)
			if !ok {
				continue
			}
			if !yield(Entity{world: w, id: id}, v) {
				return
			}
		}
	}
}
