// Package controller mediates between the entity manager and a single world. Each controller
// declares the capabilities it implements; the entity manager only ever talks to a controller
// through a capability it declared, and skips controllers that lack one.
package controller

import (
	"strings"

	"github.com/rotisserie/eris"

	"pkg.world.dev/world-engine/multiworld/world"
)

var (
	ErrUnknownPrototype   = eris.New("prototype unknown to world")
	ErrDuplicateEntityID  = eris.New("entity id already registered")
	ErrNotRegistryEntity  = eris.New("entity is not a registry entity")
	ErrAlreadyLinked      = eris.New("registry entity already has a projection in this world")
	ErrEntityNotInWorld   = eris.New("entity does not belong to this world")
	ErrCapabilityMismatch = eris.New("declared capability not implemented")
)

// Capability is a bit set of the capability interfaces a controller implements.
type Capability uint8

const (
	// CapPrototype marks a PrototypeCompliant controller.
	CapPrototype Capability = 1 << iota
	// CapRegistry marks a RegistryCompliant controller.
	CapRegistry
	// CapEntityID marks an EntityIDCompliant controller.
	CapEntityID
)

// Has reports whether every bit of other is set in c.
func (c Capability) Has(other Capability) bool {
	return c&other == other
}

func (c Capability) String() string {
	if c == 0 {
		return "none"
	}
	parts := make([]string, 0, 3)
	if c.Has(CapPrototype) {
		parts = append(parts, "prototype")
	}
	if c.Has(CapRegistry) {
		parts = append(parts, "registry")
	}
	if c.Has(CapEntityID) {
		parts = append(parts, "entity_id")
	}
	return strings.Join(parts, "|")
}

// Controller is implemented by every world controller.
type Controller interface {
	// World returns the world this controller owns.
	World() *world.World
	// Capabilities returns the capability set the controller declares.
	Capabilities() Capability
	// DespawnEntity destroys a local entity of the owned world and drops every lookup that
	// references it.
	DespawnEntity(local world.Entity) error
}

// PrototypeCompliant controllers build world-local entities straight from a prototype, with no
// registry linkage.
type PrototypeCompliant interface {
	Controller
	SpawnEntityFromPrototype(prototypeID string) (world.Entity, error)
	SpawnAndResolveEntityFromPrototype(prototypeID string, source any) (world.Entity, error)
}

// RegistryCompliant controllers build projections of registry entities and unlink them again.
type RegistryCompliant interface {
	Controller
	SpawnEntityFromRegistry(registryEntity world.Entity) (world.Entity, error)
	SpawnAndResolveEntityFromRegistry(registryEntity world.Entity, source any) (world.Entity, error)
	// DespawnEntityAndUnlinkFromRegistry destroys the projection of registryEntity. A registry
	// entity with no projection in this world is not an error.
	DespawnEntityAndUnlinkFromRegistry(registryEntity world.Entity) error
}

// EntityIDCompliant controllers create entities under a caller supplied ID. Only the registry
// world controller implements it.
type EntityIDCompliant[ID comparable] interface {
	Controller
	SpawnEntityWithIDFromPrototype(prototypeID string, id ID) (world.Entity, error)
}

// Verify checks that c implements every capability it declares.
func Verify[ID comparable](c Controller) error {
	declared := c.Capabilities()
	if declared.Has(CapPrototype) {
		if _, ok := c.(PrototypeCompliant); !ok {
			return eris.Wrap(ErrCapabilityMismatch, "prototype")
		}
	}
	if declared.Has(CapRegistry) {
		if _, ok := c.(RegistryCompliant); !ok {
			return eris.Wrap(ErrCapabilityMismatch, "registry")
		}
	}
	if declared.Has(CapEntityID) {
		if _, ok := c.(EntityIDCompliant[ID]); !ok {
			return eris.Wrap(ErrCapabilityMismatch, "entity_id")
		}
	}
	return nil
}

// Lookup is implemented by controllers that track which local entity projects which registry ID
// and which source it was resolved against.
type Lookup[ID comparable] interface {
	Controller
	LocalEntity(id ID) (world.Entity, bool)
	EntityID(local world.Entity) (ID, bool)
	EntityBySource(source any) (world.Entity, bool)
}

// IDUnlinker is implemented by registry compliant controllers that can unlink a projection by
// the ID it was spawned under, without reading the registry entity.
type IDUnlinker[ID comparable] interface {
	DespawnEntityAndUnlinkByID(id ID) error
}
