package world

import "github.com/rotisserie/eris"

var (
	// ErrEntityNotFound is returned when operating on a handle that is empty, stale or belongs to
	// another world.
	ErrEntityNotFound = eris.New("entity does not exist")

	// ErrComponentNotOnEntity is returned when reading or removing a component the entity lacks.
	ErrComponentNotOnEntity = eris.New("component not on entity")

	// ErrComponentTypeMismatch is returned when a stored component cannot be asserted to the
	// requested type. Two component types sharing one name is the usual cause.
	ErrComponentTypeMismatch = eris.New("component type mismatch")
)
