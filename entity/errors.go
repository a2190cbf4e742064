package entity

import (
	"github.com/rotisserie/eris"

	"pkg.world.dev/world-engine/multiworld/controller"
	"pkg.world.dev/world-engine/multiworld/worlds"
)

var (
	ErrNullEntityID = eris.New("null entity id")
	// ErrRegistryEntity is returned when a registry entity is handed to a world-local operation.
	// Registry entities leave only through DespawnEntity.
	ErrRegistryEntity = eris.New("registry entity cannot be despawned world-locally")

	ErrUnknownPrototype  = controller.ErrUnknownPrototype
	ErrDuplicateEntityID = controller.ErrDuplicateEntityID
	ErrWorldNotFound     = worlds.ErrWorldNotFound
	ErrCapabilityMissing = worlds.ErrCapabilityMissing
)
