package controller

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"pkg.world.dev/world-engine/multiworld/entitylog"
	"pkg.world.dev/world-engine/multiworld/prototype"
	"pkg.world.dev/world-engine/multiworld/world"
)

// RegistryController owns the registry world: one canonical entity per entity ID, each carrying
// the ID component and a RegistryEntityComponent.
type RegistryController[ID comparable, IDC world.Component] struct {
	world      *world.World
	prototypes prototype.Repository
	ids        IDDelegates[ID, IDC]
	entities   map[ID]world.Entity
	logger     zerolog.Logger
}

func NewRegistryController[ID comparable, IDC world.Component](
	w *world.World,
	prototypes prototype.Repository,
	ids IDDelegates[ID, IDC],
	logger *zerolog.Logger,
) *RegistryController[ID, IDC] {
	return &RegistryController[ID, IDC]{
		world:      w,
		prototypes: prototypes,
		ids:        ids,
		entities:   make(map[ID]world.Entity),
		logger:     entitylog.Component(logger, "registry_world_controller"),
	}
}

func (c *RegistryController[ID, IDC]) World() *world.World { return c.world }

func (c *RegistryController[ID, IDC]) Capabilities() Capability { return CapEntityID }

// SpawnEntityWithIDFromPrototype creates the canonical entity for id. An ID that already has a
// registry entity is rejected and the live entity is left untouched.
func (c *RegistryController[ID, IDC]) SpawnEntityWithIDFromPrototype(
	prototypeID string, id ID,
) (world.Entity, error) {
	if existing, ok := c.entities[id]; ok {
		return world.Entity{}, eris.Wrapf(ErrDuplicateEntityID, "id %v is held by %s", id, existing)
	}
	tmpl, ok := c.prototypes.Get(prototypeID)
	if !ok {
		return world.Entity{}, eris.Wrapf(ErrUnknownPrototype, "prototype %q in world %q", prototypeID, c.world.ID())
	}

	e := c.world.CreateEntity()
	if err := c.build(e, tmpl, id); err != nil {
		_ = e.Destroy()
		return world.Entity{}, err
	}
	c.entities[id] = e

	c.logger.Debug().
		Str("entity_id", fmt.Sprint(id)).
		Str("prototype_id", prototypeID).
		Msg("registry entity spawned")
	return e, nil
}

func (c *RegistryController[ID, IDC]) build(e world.Entity, tmpl prototype.Template, id ID) error {
	if err := tmpl.Apply(e); err != nil {
		return err
	}
	if err := world.Set(e, c.ids.NewComponent(id)); err != nil {
		return err
	}
	return world.Set(e, RegistryEntityComponent{PrototypeID: tmpl.ID})
}

// DespawnEntity destroys a registry entity and forgets its ID.
func (c *RegistryController[ID, IDC]) DespawnEntity(registryEntity world.Entity) error {
	if !c.world.Alive(registryEntity) {
		return eris.Wrapf(ErrEntityNotInWorld, "%s in world %q", registryEntity, c.world.ID())
	}
	if idc, err := world.Get[IDC](registryEntity); err == nil {
		id := c.ids.FromComponent(idc)
		if c.entities[id] == registryEntity {
			delete(c.entities, id)
		}
	}
	return c.world.Destroy(registryEntity)
}

// Entity returns the registry entity held under id.
func (c *RegistryController[ID, IDC]) Entity(id ID) (world.Entity, bool) {
	e, ok := c.entities[id]
	return e, ok
}

// EntityID reads the entity ID off a registry entity.
func (c *RegistryController[ID, IDC]) EntityID(registryEntity world.Entity) (ID, error) {
	idc, err := world.Get[IDC](registryEntity)
	if err != nil {
		var zero ID
		return zero, eris.Wrap(ErrNotRegistryEntity, err.Error())
	}
	return c.ids.FromComponent(idc), nil
}
