// Package entity is the public face of multi-world entity management. A Manager owns a registry
// of canonical entities and keeps one projection of each in every child world that accepts it.
package entity

import (
	"fmt"
	"iter"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"pkg.world.dev/world-engine/multiworld/controller"
	"pkg.world.dev/world-engine/multiworld/entitylog"
	"pkg.world.dev/world-engine/multiworld/internal/assert"
	"pkg.world.dev/world-engine/multiworld/repository"
	"pkg.world.dev/world-engine/multiworld/statsd"
	"pkg.world.dev/world-engine/multiworld/world"
	"pkg.world.dev/world-engine/multiworld/worlds"
)

const (
	metricSpawn        = "entity.spawn"
	metricResolve      = "entity.resolve"
	metricDespawn      = "entity.despawn"
	metricRegistrySize = "entity.registry_size"

	tagScopeRegistry   = "scope:registry"
	tagScopeWorldLocal = "scope:world_local"
)

// Preset selects which child worlds take part in a spawn.
type Preset uint8

const (
	// PresetDefault projects the entity into every child world.
	PresetDefault Preset = iota
	// PresetNetworkingClient creates the registry entity only. Projections follow once the
	// server's state for the entity arrives.
	PresetNetworkingClient
)

func (p Preset) String() string {
	switch p {
	case PresetDefault:
		return "default"
	case PresetNetworkingClient:
		return "networking_client"
	default:
		return fmt.Sprintf("preset(%d)", uint8(p))
	}
}

// Descriptor is a read-only snapshot of a registry entity.
type Descriptor[ID comparable] struct {
	ID          ID
	PrototypeID string
}

// Manager coordinates spawn, resolve and despawn across the registry world and the child worlds.
// It is not safe for concurrent use.
type Manager[ID comparable] struct {
	worlds   *worlds.Repository[ID]
	registry controller.EntityIDCompliant[ID]
	entities *repository.Map[ID, world.Entity]
	children []string
	allocate func() ID
	logger   zerolog.Logger
}

// NewManager creates a manager over the worlds in repo. repo must hold a registry world under
// worlds.RegistryWorldID. allocate is called once per SpawnEntity and ResolveEntity.
func NewManager[ID comparable](
	repo *worlds.Repository[ID], allocate func() ID, opts ...Option,
) (*Manager[ID], error) {
	if repo == nil {
		return nil, eris.New("world repository must not be nil")
	}
	if allocate == nil {
		return nil, eris.New("id allocator must not be nil")
	}
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	registry, err := repo.EntityIDCompliant(worlds.RegistryWorldID)
	if err != nil {
		return nil, eris.Wrap(err, "registry world")
	}

	children := repo.ChildWorldIDs()
	if o.childWorlds != nil {
		for _, worldID := range o.childWorlds {
			if !repo.HasWorld(worldID) {
				return nil, eris.Wrapf(ErrWorldNotFound, "child world %q", worldID)
			}
			if worldID == worlds.RegistryWorldID {
				return nil, eris.New("the registry world cannot be a child world")
			}
		}
		children = o.childWorlds
	}

	return &Manager[ID]{
		worlds:   repo,
		registry: registry,
		entities: repository.NewMap[ID, world.Entity](),
		children: children,
		allocate: allocate,
		logger:   entitylog.Component(o.logger, "entity_manager"),
	}, nil
}

// -------------------------------------------------------------------------------------------------
// Spawn
// -------------------------------------------------------------------------------------------------

// SpawnEntity allocates a new ID and spawns the entity. On failure the zero ID is returned along
// with the error, and no registry entry is left behind.
func (m *Manager[ID]) SpawnEntity(prototypeID string, preset Preset) (ID, error) {
	id, err := m.allocateID()
	if err == nil {
		err = m.spawnInAllWorlds(id, prototypeID, nil, false, preset)
	}
	statsd.EmitCount(metricSpawn, tagScopeRegistry, statsd.Outcome(err))
	if err != nil {
		var zero ID
		return zero, err
	}
	return id, nil
}

// SpawnEntityWithID spawns the entity under a caller chosen ID, for example one issued by a
// server. An ID that is already registered is rejected and its entity is left untouched.
func (m *Manager[ID]) SpawnEntityWithID(id ID, prototypeID string, preset Preset) error {
	err := m.spawnInAllWorlds(id, prototypeID, nil, false, preset)
	statsd.EmitCount(metricSpawn, tagScopeRegistry, statsd.Outcome(err))
	return err
}

// SpawnWorldLocalEntity spawns an entity in a single world, with no registry entity and no ID.
func (m *Manager[ID]) SpawnWorldLocalEntity(prototypeID string, worldID string) (world.Entity, error) {
	local, err := m.spawnWorldLocal(prototypeID, worldID, nil, false)
	statsd.EmitCount(metricSpawn, tagScopeWorldLocal, statsd.Outcome(err))
	return local, err
}

// SpawnWorldLocalEntityIn is SpawnWorldLocalEntity addressed by world instance.
func (m *Manager[ID]) SpawnWorldLocalEntityIn(prototypeID string, w *world.World) (world.Entity, error) {
	worldID, err := m.worldIDFor(w)
	if err != nil {
		statsd.EmitCount(metricSpawn, tagScopeWorldLocal, statsd.Outcome(err))
		return world.Entity{}, err
	}
	return m.SpawnWorldLocalEntity(prototypeID, worldID)
}

// -------------------------------------------------------------------------------------------------
// Resolve
// -------------------------------------------------------------------------------------------------

// ResolveEntity is SpawnEntity where every projection is also bound to source, so later updates
// that reference source can find their local entity.
func (m *Manager[ID]) ResolveEntity(source any, prototypeID string, preset Preset) (ID, error) {
	id, err := m.allocateID()
	if err == nil {
		err = m.spawnInAllWorlds(id, prototypeID, source, true, preset)
	}
	statsd.EmitCount(metricResolve, tagScopeRegistry, statsd.Outcome(err))
	if err != nil {
		var zero ID
		return zero, err
	}
	return id, nil
}

// ResolveEntityWithID is SpawnEntityWithID where every projection is also bound to source.
func (m *Manager[ID]) ResolveEntityWithID(id ID, source any, prototypeID string, preset Preset) error {
	err := m.spawnInAllWorlds(id, prototypeID, source, true, preset)
	statsd.EmitCount(metricResolve, tagScopeRegistry, statsd.Outcome(err))
	return err
}

// ResolveWorldLocalEntity spawns an entity in a single world and binds it to source.
func (m *Manager[ID]) ResolveWorldLocalEntity(prototypeID string, source any, worldID string) (world.Entity, error) {
	local, err := m.spawnWorldLocal(prototypeID, worldID, source, true)
	statsd.EmitCount(metricResolve, tagScopeWorldLocal, statsd.Outcome(err))
	return local, err
}

// ResolveWorldLocalEntityIn is ResolveWorldLocalEntity addressed by world instance.
func (m *Manager[ID]) ResolveWorldLocalEntityIn(prototypeID string, source any, w *world.World) (world.Entity, error) {
	worldID, err := m.worldIDFor(w)
	if err != nil {
		statsd.EmitCount(metricResolve, tagScopeWorldLocal, statsd.Outcome(err))
		return world.Entity{}, err
	}
	return m.ResolveWorldLocalEntity(prototypeID, source, worldID)
}

// -------------------------------------------------------------------------------------------------
// Despawn
// -------------------------------------------------------------------------------------------------

// DespawnEntity removes the entity from every world. Child worlds unlink their projection of id
// first; the registry entity goes last. Despawning an ID
// that is not registered is a logged no-op.
func (m *Manager[ID]) DespawnEntity(id ID) error {
	registryEntity, ok := m.entities.TryGet(id)
	if !ok {
		m.logger.Warn().Str("entity_id", fmt.Sprint(id)).Msg("no entity registered under id")
		return nil
	}

	for _, worldID := range m.children {
		c, err := m.worlds.RegistryCompliant(worldID)
		if err != nil {
			continue
		}
		if u, ok := c.(controller.IDUnlinker[ID]); ok {
			err = u.DespawnEntityAndUnlinkByID(id)
		} else {
			err = c.DespawnEntityAndUnlinkFromRegistry(registryEntity)
		}
		if err != nil {
			m.logger.Error().Err(err).
				Str("entity_id", fmt.Sprint(id)).
				Str("world_id", worldID).
				Msg("failed to unlink projection")
		}
	}

	err := m.registry.DespawnEntity(registryEntity)
	removed := m.entities.Remove(id)
	assert.That(removed, "registry entry %v vanished during despawn", id)

	statsd.EmitCount(metricDespawn, tagScopeRegistry, statsd.Outcome(err))
	statsd.EmitGauge(metricRegistrySize, float64(m.entities.Len()))
	if err != nil {
		return eris.Wrapf(err, "failed to despawn registry entity of %v", id)
	}
	m.logger.Debug().Str("entity_id", fmt.Sprint(id)).Msg("entity despawned")
	return nil
}

// DespawnWorldLocalEntity destroys a single local entity through the controller of the world it
// belongs to. The zero entity is ignored. A projection despawned this way is unlinked from its
// world only; the registry entity and the other projections stay. Registry entities are rejected
// with ErrRegistryEntity.
func (m *Manager[ID]) DespawnWorldLocalEntity(local world.Entity) error {
	if local.IsZero() {
		return nil
	}
	err := m.despawnWorldLocal(local)
	statsd.EmitCount(metricDespawn, tagScopeWorldLocal, statsd.Outcome(err))
	return err
}

// -------------------------------------------------------------------------------------------------
// Queries
// -------------------------------------------------------------------------------------------------

func (m *Manager[ID]) HasEntity(id ID) bool {
	return m.entities.Has(id)
}

// GetRegistryEntity returns the registry entity of id.
func (m *Manager[ID]) GetRegistryEntity(id ID) (world.Entity, bool) {
	return m.entities.TryGet(id)
}

// Len returns the number of registered entities.
func (m *Manager[ID]) Len() int {
	return m.entities.Len()
}

// AllRegistryEntities returns a snapshot of every registered entity, in no particular order.
func (m *Manager[ID]) AllRegistryEntities() []Descriptor[ID] {
	out := make([]Descriptor[ID], 0, m.entities.Len())
	for id, e := range m.entities.All() {
		desc := Descriptor[ID]{ID: id}
		if reg, err := world.Get[controller.RegistryEntityComponent](e); err == nil {
			desc.PrototypeID = reg.PrototypeID
		}
		out = append(out, desc)
	}
	return out
}

// AllAllocatedIDs yields the registered IDs. The sequence reads the live registry each time it is
// ranged over; do not spawn or despawn while ranging.
func (m *Manager[ID]) AllAllocatedIDs() iter.Seq[ID] {
	return m.entities.Keys()
}

func (m *Manager[ID]) EntityWorldsRepository() *worlds.Repository[ID] {
	return m.worlds
}

// ChildWorldIDs returns the worlds spawn fans out to, in order.
func (m *Manager[ID]) ChildWorldIDs() []string {
	return append([]string(nil), m.children...)
}

// LogState logs the world layout and the registry contents.
func (m *Manager[ID]) LogState(level zerolog.Level) {
	entitylog.Worlds(&m.logger, m.worlds, level)

	descs := m.AllRegistryEntities()
	entries := make([]entitylog.RegistryEntry, 0, len(descs))
	for _, d := range descs {
		entries = append(entries, entitylog.RegistryEntry{EntityID: fmt.Sprint(d.ID), PrototypeID: d.PrototypeID})
	}
	entitylog.Registry(&m.logger, entries, level)
}

// -------------------------------------------------------------------------------------------------
// Internals
// -------------------------------------------------------------------------------------------------

func (m *Manager[ID]) allocateID() (ID, error) {
	id := m.allocate()
	var zero ID
	if id == zero {
		return zero, eris.Wrap(ErrNullEntityID, "allocator returned the null id")
	}
	if m.entities.Has(id) {
		m.logger.Error().Str("entity_id", fmt.Sprint(id)).Msg("allocator returned an id that is already live")
	}
	return id, nil
}

// spawnInAllWorlds creates the registry entity and fans out to the child worlds. Only a registry
// failure fails the operation; a child world that declines is skipped.
func (m *Manager[ID]) spawnInAllWorlds(id ID, prototypeID string, source any, resolve bool, preset Preset) error {
	var zero ID
	if id == zero {
		return ErrNullEntityID
	}

	registryEntity, err := m.registry.SpawnEntityWithIDFromPrototype(prototypeID, id)
	if err != nil {
		m.logger.Warn().Err(err).
			Str("entity_id", fmt.Sprint(id)).
			Str("prototype_id", prototypeID).
			Msg("registry spawn failed")
		return err
	}
	if err := m.entities.Add(id, registryEntity); err != nil {
		m.logger.Error().Err(err).
			Str("entity_id", fmt.Sprint(id)).
			Msg("registry controller accepted an id that is already in the registry")
		if derr := m.registry.DespawnEntity(registryEntity); derr != nil {
			m.logger.Error().Err(derr).Str("entity_id", fmt.Sprint(id)).Msg("failed to discard registry entity")
		}
		return eris.Wrapf(ErrDuplicateEntityID, "id %v", id)
	}

	switch preset {
	case PresetDefault:
		m.fanOut(registryEntity, id, source, resolve)
	case PresetNetworkingClient:
	default:
		m.logger.Warn().
			Str("entity_id", fmt.Sprint(id)).
			Stringer("preset", preset).
			Msg("unknown preset, spawned registry entity only")
	}

	statsd.EmitGauge(metricRegistrySize, float64(m.entities.Len()))
	m.logger.Debug().
		Str("entity_id", fmt.Sprint(id)).
		Str("prototype_id", prototypeID).
		Stringer("preset", preset).
		Bool("resolved", resolve).
		Msg("entity spawned")
	return nil
}

func (m *Manager[ID]) fanOut(registryEntity world.Entity, id ID, source any, resolve bool) {
	for _, worldID := range m.children {
		c, err := m.worlds.RegistryCompliant(worldID)
		if err != nil {
			continue
		}
		if resolve {
			_, err = c.SpawnAndResolveEntityFromRegistry(registryEntity, source)
		} else {
			_, err = c.SpawnEntityFromRegistry(registryEntity)
		}
		if err != nil {
			m.logger.Debug().Err(err).
				Str("entity_id", fmt.Sprint(id)).
				Str("world_id", worldID).
				Msg("world declined projection")
		}
	}
}

func (m *Manager[ID]) spawnWorldLocal(prototypeID, worldID string, source any, resolve bool) (world.Entity, error) {
	c, err := m.worlds.PrototypeCompliant(worldID)
	if err != nil {
		return world.Entity{}, err
	}
	if resolve {
		return c.SpawnAndResolveEntityFromPrototype(prototypeID, source)
	}
	return c.SpawnEntityFromPrototype(prototypeID)
}

func (m *Manager[ID]) despawnWorldLocal(local world.Entity) error {
	c, err := m.worlds.GetWorldControllerFor(local.World())
	if err != nil {
		return err
	}
	if c.World() == m.registry.World() || c.Capabilities().Has(controller.CapEntityID) {
		return eris.Wrap(ErrRegistryEntity, local.String())
	}
	return c.DespawnEntity(local)
}

func (m *Manager[ID]) worldIDFor(w *world.World) (string, error) {
	worldID, ok := m.worlds.WorldIDFor(w)
	if !ok {
		return "", eris.Wrap(ErrWorldNotFound, "world instance is not registered")
	}
	return worldID, nil
}
