package controller

import (
	"fmt"
	"reflect"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"pkg.world.dev/world-engine/multiworld/entitylog"
	"pkg.world.dev/world-engine/multiworld/prototype"
	"pkg.world.dev/world-engine/multiworld/world"
)

// WorldController owns a child world (simulation, view, server-data, prediction, ...). Projections
// of registry entities carry the ID component IDC and the payload EC; resolved entities also
// carry RC. Links between registry IDs, local entities and resolve sources are kept as lookups
// in both directions so unlinking never leaves a dangling handle behind.
type WorldController[ID comparable, IDC, EC, RC world.Component] struct {
	world      *world.World
	prototypes prototype.Repository
	delegates  Delegates[ID, IDC, EC, RC]

	byID     map[ID]world.Entity
	idOf     map[world.Entity]ID
	bySource map[any]world.Entity
	sourceOf map[world.Entity]any

	logger zerolog.Logger
}

func NewWorldController[ID comparable, IDC, EC, RC world.Component](
	w *world.World,
	prototypes prototype.Repository,
	delegates Delegates[ID, IDC, EC, RC],
	logger *zerolog.Logger,
) *WorldController[ID, IDC, EC, RC] {
	return &WorldController[ID, IDC, EC, RC]{
		world:      w,
		prototypes: prototypes,
		delegates:  delegates,
		byID:       make(map[ID]world.Entity),
		idOf:       make(map[world.Entity]ID),
		bySource:   make(map[any]world.Entity),
		sourceOf:   make(map[world.Entity]any),
		logger:     entitylog.Component(logger, "world_controller").With().Str("world_id", w.ID()).Logger(),
	}
}

func (c *WorldController[ID, IDC, EC, RC]) World() *world.World { return c.world }

func (c *WorldController[ID, IDC, EC, RC]) Capabilities() Capability {
	return CapPrototype | CapRegistry
}

func (c *WorldController[ID, IDC, EC, RC]) SpawnEntityFromPrototype(prototypeID string) (world.Entity, error) {
	return c.spawnLocal(prototypeID, nil, false)
}

func (c *WorldController[ID, IDC, EC, RC]) SpawnAndResolveEntityFromPrototype(
	prototypeID string, source any,
) (world.Entity, error) {
	return c.spawnLocal(prototypeID, source, true)
}

func (c *WorldController[ID, IDC, EC, RC]) SpawnEntityFromRegistry(registryEntity world.Entity) (world.Entity, error) {
	return c.spawnLinked(registryEntity, nil, false)
}

func (c *WorldController[ID, IDC, EC, RC]) SpawnAndResolveEntityFromRegistry(
	registryEntity world.Entity, source any,
) (world.Entity, error) {
	return c.spawnLinked(registryEntity, source, true)
}

// spawnLocal builds an unlinked entity straight from a prototype.
func (c *WorldController[ID, IDC, EC, RC]) spawnLocal(prototypeID string, source any, resolve bool) (world.Entity, error) {
	tmpl, ok := c.prototypes.Get(prototypeID)
	if !ok {
		return world.Entity{}, eris.Wrapf(ErrUnknownPrototype, "prototype %q in world %q", prototypeID, c.world.ID())
	}

	local := c.world.CreateEntity()
	err := c.build(local, tmpl, func(e world.Entity) error {
		return world.Set(e, c.delegates.NewEntityComponent(prototypeID))
	}, source, resolve)
	if err != nil {
		c.discard(local)
		return world.Entity{}, err
	}
	return local, nil
}

// spawnLinked builds the projection of a registry entity.
func (c *WorldController[ID, IDC, EC, RC]) spawnLinked(
	registryEntity world.Entity, source any, resolve bool,
) (world.Entity, error) {
	reg, err := world.Get[RegistryEntityComponent](registryEntity)
	if err != nil {
		return world.Entity{}, eris.Wrap(ErrNotRegistryEntity, err.Error())
	}
	idc, err := world.Get[IDC](registryEntity)
	if err != nil {
		return world.Entity{}, eris.Wrap(ErrNotRegistryEntity, err.Error())
	}
	id := c.delegates.FromComponent(idc)
	if existing, ok := c.byID[id]; ok {
		return world.Entity{}, eris.Wrapf(ErrAlreadyLinked, "id %v is projected as %s", id, existing)
	}

	// Look up the template before allocating so a declining world is left untouched.
	tmpl, ok := c.prototypes.Get(reg.PrototypeID)
	if !ok {
		return world.Entity{}, eris.Wrapf(ErrUnknownPrototype, "prototype %q in world %q", reg.PrototypeID, c.world.ID())
	}

	local := c.world.CreateEntity()
	err = c.build(local, tmpl, func(e world.Entity) error {
		if err := world.Set(e, c.delegates.NewComponent(id)); err != nil {
			return err
		}
		return world.Set(e, c.delegates.NewEntityComponent(reg.PrototypeID))
	}, source, resolve)
	if err != nil {
		c.discard(local)
		return world.Entity{}, err
	}

	c.byID[id] = local
	c.idOf[local] = id

	c.logger.Debug().
		Str("entity_id", fmt.Sprint(id)).
		Str("prototype_id", reg.PrototypeID).
		Bool("resolved", resolve).
		Msg("projection spawned")
	return local, nil
}

func (c *WorldController[ID, IDC, EC, RC]) build(
	local world.Entity,
	tmpl prototype.Template,
	link func(world.Entity) error,
	source any,
	resolve bool,
) error {
	if err := tmpl.Apply(local); err != nil {
		return err
	}
	if err := link(local); err != nil {
		return err
	}
	if !resolve {
		return nil
	}
	if err := world.Set(local, c.delegates.NewResolveComponent(source)); err != nil {
		return err
	}
	c.bindSource(local, source)
	return nil
}

// bindSource indexes source -> local. Sources that cannot be map keys still get their resolve
// component, they are just not reachable through EntityBySource.
func (c *WorldController[ID, IDC, EC, RC]) bindSource(local world.Entity, source any) {
	if source == nil || !reflect.TypeOf(source).Comparable() {
		c.logger.Warn().Str("source_type", fmt.Sprintf("%T", source)).Msg("resolve source is not indexable")
		return
	}
	if previous, ok := c.bySource[source]; ok && previous != local {
		c.logger.Warn().Str("previous", previous.String()).Msg("resolve source rebound to a new entity")
		delete(c.sourceOf, previous)
	}
	c.bySource[source] = local
	c.sourceOf[local] = source
}

func (c *WorldController[ID, IDC, EC, RC]) discard(local world.Entity) {
	c.unindex(local)
	_ = c.world.Destroy(local)
}

func (c *WorldController[ID, IDC, EC, RC]) unindex(local world.Entity) {
	if id, ok := c.idOf[local]; ok {
		delete(c.idOf, local)
		delete(c.byID, id)
	}
	if source, ok := c.sourceOf[local]; ok {
		delete(c.sourceOf, local)
		if c.bySource[source] == local {
			delete(c.bySource, source)
		}
	}
}

func (c *WorldController[ID, IDC, EC, RC]) DespawnEntityAndUnlinkFromRegistry(registryEntity world.Entity) error {
	idc, err := world.Get[IDC](registryEntity)
	if err != nil {
		return eris.Wrap(ErrNotRegistryEntity, err.Error())
	}
	return c.DespawnEntityAndUnlinkByID(c.delegates.FromComponent(idc))
}

// DespawnEntityAndUnlinkByID destroys the projection of id. An ID with no projection in this
// world is not an error.
func (c *WorldController[ID, IDC, EC, RC]) DespawnEntityAndUnlinkByID(id ID) error {
	local, ok := c.byID[id]
	if !ok {
		return nil
	}
	c.logger.Debug().Str("entity_id", fmt.Sprint(id)).Msg("projection unlinked")
	return c.DespawnEntity(local)
}

func (c *WorldController[ID, IDC, EC, RC]) DespawnEntity(local world.Entity) error {
	if !c.world.Alive(local) {
		return eris.Wrapf(ErrEntityNotInWorld, "%s in world %q", local, c.world.ID())
	}
	c.unindex(local)
	return c.world.Destroy(local)
}

// LocalEntity returns the projection of the registry entity with the given ID.
func (c *WorldController[ID, IDC, EC, RC]) LocalEntity(id ID) (world.Entity, bool) {
	e, ok := c.byID[id]
	return e, ok
}

// EntityID returns the registry ID a projection is linked to.
func (c *WorldController[ID, IDC, EC, RC]) EntityID(local world.Entity) (ID, bool) {
	id, ok := c.idOf[local]
	return id, ok
}

// EntityBySource returns the entity resolved against source.
func (c *WorldController[ID, IDC, EC, RC]) EntityBySource(source any) (world.Entity, bool) {
	if source == nil || !reflect.TypeOf(source).Comparable() {
		return world.Entity{}, false
	}
	e, ok := c.bySource[source]
	return e, ok
}

// PrototypeID reads the prototype ID off the payload component of a local entity.
func (c *WorldController[ID, IDC, EC, RC]) PrototypeID(local world.Entity) (string, error) {
	ec, err := world.Get[EC](local)
	if err != nil {
		return "", err
	}
	return c.delegates.PrototypeID(ec), nil
}

// Linked returns the number of registry entities projected into this world.
func (c *WorldController[ID, IDC, EC, RC]) Linked() int {
	return len(c.byID)
}
