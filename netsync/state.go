package netsync

import (
	"bytes"
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"pkg.world.dev/world-engine/multiworld/controller"
	"pkg.world.dev/world-engine/multiworld/entity"
	"pkg.world.dev/world-engine/multiworld/entitylog"
	"pkg.world.dev/world-engine/multiworld/world"
)

var ErrNoLookup = eris.New("world controller does not track projections")

// EntityState is the serialized state of one projection.
type EntityState[ID comparable] struct {
	ID          ID              `json:"id"`
	PrototypeID string          `json:"prototypeId"`
	Components  []ComponentData `json:"components"`
}

// Snapshot is the full state of every projection in one world.
type Snapshot[ID comparable] struct {
	WorldID  string           `json:"worldId"`
	Entities []EntityState[ID] `json:"entities"`
}

// ApplyReport summarizes Apply. Unknown lists IDs the target world has no projection for; the
// caller decides whether to spawn them.
type ApplyReport[ID comparable] struct {
	Patched int
	Unknown []ID
}

// Delta lists how the entities of two snapshots differ.
type Delta[ID comparable] struct {
	Created   []ID
	Destroyed []ID
	Changed   []ID
}

func (d Delta[ID]) Empty() bool {
	return len(d.Created) == 0 && len(d.Destroyed) == 0 && len(d.Changed) == 0
}

// StateVisitor snapshots the registered components of a world's projections and writes them onto
// the projections of another world. Server data is the authoritative copy; prediction is brought
// back in line by overwriting it with server data.
type StateVisitor[ID comparable] struct {
	manager  *entity.Manager[ID]
	registry *Registry
	logger   zerolog.Logger
}

func NewStateVisitor[ID comparable](
	manager *entity.Manager[ID], registry *Registry, logger *zerolog.Logger,
) *StateVisitor[ID] {
	return &StateVisitor[ID]{
		manager:  manager,
		registry: registry,
		logger:   entitylog.Component(logger, "world_state_visitor"),
	}
}

// Snapshot captures every projection of worldID that is linked to a live registry entity.
// Projections are found through the world controller, whatever component carries their ID.
func (v *StateVisitor[ID]) Snapshot(worldID string) (Snapshot[ID], error) {
	lookup, err := v.lookup(worldID)
	if err != nil {
		return Snapshot[ID]{}, err
	}
	w := lookup.World()

	snap := Snapshot[ID]{WorldID: worldID, Entities: make([]EntityState[ID], 0, w.Len())}
	for local := range w.Entities() {
		id, ok := lookup.EntityID(local)
		if !ok {
			continue
		}
		registryEntity, ok := v.manager.GetRegistryEntity(id)
		if !ok {
			v.logger.Warn().
				Str("entity_id", fmt.Sprint(id)).
				Str("world_id", worldID).
				Msg("projection without registry entity")
			continue
		}
		reg, err := world.Get[controller.RegistryEntityComponent](registryEntity)
		if err != nil {
			return Snapshot[ID]{}, err
		}
		data, err := v.registry.EncodeEntity(local)
		if err != nil {
			return Snapshot[ID]{}, eris.Wrapf(err, "failed to snapshot %v", id)
		}
		snap.Entities = append(snap.Entities, EntityState[ID]{
			ID:          id,
			PrototypeID: reg.PrototypeID,
			Components:  data,
		})
	}
	return snap, nil
}

func (v *StateVisitor[ID]) lookup(worldID string) (controller.Lookup[ID], error) {
	c, err := v.manager.EntityWorldsRepository().GetWorldController(worldID)
	if err != nil {
		return nil, err
	}
	lookup, ok := c.(controller.Lookup[ID])
	if !ok {
		return nil, eris.Wrapf(ErrNoLookup, "world %q", worldID)
	}
	return lookup, nil
}

// Apply writes the components of s onto the existing projections of worldID. It never spawns;
// IDs without a projection are listed in the report. A component that fails to decode stops the
// apply; projections patched before it keep their new state.
func (v *StateVisitor[ID]) Apply(s Snapshot[ID], worldID string) (ApplyReport[ID], error) {
	var report ApplyReport[ID]
	lookup, err := v.lookup(worldID)
	if err != nil {
		return report, err
	}

	for _, es := range s.Entities {
		local, ok := lookup.LocalEntity(es.ID)
		if !ok {
			report.Unknown = append(report.Unknown, es.ID)
			continue
		}
		comps, err := v.registry.DecodeAll(es.Components)
		if err != nil {
			return report, eris.Wrapf(err, "entity %v", es.ID)
		}
		for _, comp := range comps {
			if err := local.SetComponent(comp); err != nil {
				return report, eris.Wrapf(err, "entity %v", es.ID)
			}
		}
		report.Patched++
	}

	v.logger.Debug().
		Str("from_world", s.WorldID).
		Str("to_world", worldID).
		Int("patched", report.Patched).
		Int("unknown", len(report.Unknown)).
		Msg("snapshot applied")
	return report, nil
}

// Reconcile overwrites the projections of target with the state of source.
func (v *StateVisitor[ID]) Reconcile(source, target string) (ApplyReport[ID], error) {
	snap, err := v.Snapshot(source)
	if err != nil {
		return ApplyReport[ID]{}, err
	}
	return v.Apply(snap, target)
}

// Diff compares two snapshots of the same world.
func Diff[ID comparable](prev, next Snapshot[ID]) Delta[ID] {
	var d Delta[ID]
	before := make(map[ID]EntityState[ID], len(prev.Entities))
	for _, es := range prev.Entities {
		before[es.ID] = es
	}
	seen := make(map[ID]struct{}, len(next.Entities))
	for _, es := range next.Entities {
		seen[es.ID] = struct{}{}
		old, ok := before[es.ID]
		switch {
		case !ok:
			d.Created = append(d.Created, es.ID)
		case !sameComponents(old.Components, es.Components):
			d.Changed = append(d.Changed, es.ID)
		}
	}
	for _, es := range prev.Entities {
		if _, ok := seen[es.ID]; !ok {
			d.Destroyed = append(d.Destroyed, es.ID)
		}
	}
	return d
}

func sameComponents(a, b []ComponentData) bool {
	if len(a) != len(b) {
		return false
	}
	byHash := make(map[uint64][]byte, len(a))
	for _, c := range a {
		byHash[c.Hash] = c.Data
	}
	for _, c := range b {
		data, ok := byHash[c.Hash]
		if !ok || !bytes.Equal(data, c.Data) {
			return false
		}
	}
	return true
}
