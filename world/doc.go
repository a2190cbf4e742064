// Package world is the minimal entity-component container the entity manager projects entities
// into. A World owns a generational entity pool and one component store per component name.
// Handles (Entity) carry their owning World, so code holding only a handle can always find the
// container it lives in.
//
// World is not safe for concurrent use. All structural operations are expected to run on the
// coordinator goroutine that drives the entity manager.
package world
