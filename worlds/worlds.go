// Package worlds maps world IDs to their world and controller. Controller capabilities are
// checked and resolved once, when a world is added, so lookups never type-assert.
package worlds

import (
	"github.com/rotisserie/eris"

	"pkg.world.dev/world-engine/multiworld/controller"
	"pkg.world.dev/world-engine/multiworld/entitylog"
	"pkg.world.dev/world-engine/multiworld/world"
)

var (
	ErrWorldNotFound     = eris.New("world not found")
	ErrWorldExists       = eris.New("world already registered")
	ErrCapabilityMissing = eris.New("world controller lacks capability")
	ErrEmptyWorldID      = eris.New("world id cannot be empty")
)

type entry[ID comparable] struct {
	world      *world.World
	controller controller.Controller
	child      bool

	prototype controller.PrototypeCompliant
	registry  controller.RegistryCompliant
	entityID  controller.EntityIDCompliant[ID]
}

// Repository holds every world of an entity manager. Child worlds are kept in the order they were
// added; that order is the fan-out order of spawn and despawn.
type Repository[ID comparable] struct {
	entries  map[string]*entry[ID]
	order    []string
	children []string
	byWorld  map[*world.World]string
}

var _ entitylog.Loggable = (*Repository[int])(nil)

func NewRepository[ID comparable]() *Repository[ID] {
	return &Repository[ID]{
		entries: make(map[string]*entry[ID]),
		byWorld: make(map[*world.World]string),
	}
}

// AddWorld registers a world that does not take part in entity fan-out, such as the registry or
// the event world.
func (r *Repository[ID]) AddWorld(worldID string, w *world.World, c controller.Controller) error {
	return r.add(worldID, w, c, false)
}

// AddChildWorld registers a world that receives a projection of every registry entity.
func (r *Repository[ID]) AddChildWorld(worldID string, w *world.World, c controller.Controller) error {
	return r.add(worldID, w, c, true)
}

func (r *Repository[ID]) add(worldID string, w *world.World, c controller.Controller, child bool) error {
	if worldID == "" {
		return ErrEmptyWorldID
	}
	if w == nil || c == nil {
		return eris.Errorf("world %q: world and controller must not be nil", worldID)
	}
	if _, ok := r.entries[worldID]; ok {
		return eris.Wrapf(ErrWorldExists, "world %q", worldID)
	}
	if other, ok := r.byWorld[w]; ok {
		return eris.Wrapf(ErrWorldExists, "world instance already registered as %q", other)
	}
	if c.World() != w {
		return eris.Errorf("world %q: controller owns world %q", worldID, c.World().ID())
	}
	if err := controller.Verify[ID](c); err != nil {
		return eris.Wrapf(err, "world %q", worldID)
	}

	e := &entry[ID]{world: w, controller: c, child: child}
	caps := c.Capabilities()
	if caps.Has(controller.CapPrototype) {
		e.prototype = c.(controller.PrototypeCompliant)
	}
	if caps.Has(controller.CapRegistry) {
		e.registry = c.(controller.RegistryCompliant)
	}
	if caps.Has(controller.CapEntityID) {
		e.entityID = c.(controller.EntityIDCompliant[ID])
	}

	r.entries[worldID] = e
	r.byWorld[w] = worldID
	r.order = append(r.order, worldID)
	if child {
		r.children = append(r.children, worldID)
	}
	return nil
}

func (r *Repository[ID]) lookup(worldID string) (*entry[ID], error) {
	e, ok := r.entries[worldID]
	if !ok {
		return nil, eris.Wrapf(ErrWorldNotFound, "world %q", worldID)
	}
	return e, nil
}

func (r *Repository[ID]) HasWorld(worldID string) bool {
	_, ok := r.entries[worldID]
	return ok
}

func (r *Repository[ID]) GetWorld(worldID string) (*world.World, error) {
	e, err := r.lookup(worldID)
	if err != nil {
		return nil, err
	}
	return e.world, nil
}

func (r *Repository[ID]) GetWorldController(worldID string) (controller.Controller, error) {
	e, err := r.lookup(worldID)
	if err != nil {
		return nil, err
	}
	return e.controller, nil
}

// GetWorldControllerFor returns the controller owning w.
func (r *Repository[ID]) GetWorldControllerFor(w *world.World) (controller.Controller, error) {
	worldID, ok := r.byWorld[w]
	if !ok {
		if w == nil {
			return nil, eris.Wrap(ErrWorldNotFound, "nil world")
		}
		return nil, eris.Wrapf(ErrWorldNotFound, "world instance %q is not registered", w.ID())
	}
	return r.entries[worldID].controller, nil
}

// WorldIDFor returns the ID w was registered under.
func (r *Repository[ID]) WorldIDFor(w *world.World) (string, bool) {
	worldID, ok := r.byWorld[w]
	return worldID, ok
}

func (r *Repository[ID]) PrototypeCompliant(worldID string) (controller.PrototypeCompliant, error) {
	e, err := r.lookup(worldID)
	if err != nil {
		return nil, err
	}
	if e.prototype == nil {
		return nil, eris.Wrapf(ErrCapabilityMissing, "world %q is not prototype compliant", worldID)
	}
	return e.prototype, nil
}

func (r *Repository[ID]) RegistryCompliant(worldID string) (controller.RegistryCompliant, error) {
	e, err := r.lookup(worldID)
	if err != nil {
		return nil, err
	}
	if e.registry == nil {
		return nil, eris.Wrapf(ErrCapabilityMissing, "world %q is not registry compliant", worldID)
	}
	return e.registry, nil
}

func (r *Repository[ID]) EntityIDCompliant(worldID string) (controller.EntityIDCompliant[ID], error) {
	e, err := r.lookup(worldID)
	if err != nil {
		return nil, err
	}
	if e.entityID == nil {
		return nil, eris.Wrapf(ErrCapabilityMissing, "world %q is not entity id compliant", worldID)
	}
	return e.entityID, nil
}

// WorldIDs returns every registered world ID in registration order.
func (r *Repository[ID]) WorldIDs() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// ChildWorldIDs returns the child world IDs in fan-out order.
func (r *Repository[ID]) ChildWorldIDs() []string {
	out := make([]string, len(r.children))
	copy(out, r.children)
	return out
}

// IsChildWorld reports whether worldID was added with AddChildWorld.
func (r *Repository[ID]) IsChildWorld(worldID string) bool {
	e, ok := r.entries[worldID]
	return ok && e.child
}

func (r *Repository[ID]) WorldInfos() []entitylog.WorldInfo {
	infos := make([]entitylog.WorldInfo, 0, len(r.order))
	for _, worldID := range r.order {
		e := r.entries[worldID]
		infos = append(infos, entitylog.WorldInfo{
			ID:           worldID,
			Entities:     e.world.Len(),
			Capabilities: e.controller.Capabilities().String(),
			Child:        e.child,
		})
	}
	return infos
}
