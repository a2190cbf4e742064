package netsync_test

import (
	"fmt"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pkg.world.dev/world-engine/multiworld/controller"
	"pkg.world.dev/world-engine/multiworld/entity"
	"pkg.world.dev/world-engine/multiworld/netsync"
	"pkg.world.dev/world-engine/multiworld/prototype"
	"pkg.world.dev/world-engine/multiworld/world"
	"pkg.world.dev/world-engine/multiworld/worlds"
)

func newManager(t *testing.T, prefix string) *entity.Manager[string] {
	t.Helper()
	repo, err := prototype.NewMapRepository(prototype.Template{
		ID:         "Goblin",
		Components: []world.Component{Health{HP: 30}, Position{}},
	})
	require.NoError(t, err)

	n := 0
	m, err := entity.NewNetworkManager(entity.SharedPrototypes(repo, entity.NetworkWorldIDs...), func() string {
		n++
		return fmt.Sprintf("%s%d", prefix, n)
	})
	require.NoError(t, err)
	return m
}

func projection(t *testing.T, m *entity.Manager[string], worldID, id string) world.Entity {
	t.Helper()
	c, err := m.EntityWorldsRepository().GetWorldController(worldID)
	require.NoError(t, err)
	local, ok := c.(controller.Lookup[string]).LocalEntity(id)
	require.True(t, ok)
	return local
}

func TestStateVisitor_SnapshotAndReconcile(t *testing.T) {
	t.Parallel()
	m := newManager(t, "e")
	v := netsync.NewStateVisitor(m, newRegistry(t), nil)

	a, err := m.SpawnEntity("Goblin", entity.PresetDefault)
	require.NoError(t, err)
	b, err := m.SpawnEntity("Goblin", entity.PresetDefault)
	require.NoError(t, err)

	require.NoError(t, world.Set(projection(t, m, worlds.ServerDataWorldID, a), Health{HP: 12}))
	require.NoError(t, world.Set(projection(t, m, worlds.PredictionWorldID, b), Position{X: 99}))

	snap, err := v.Snapshot(worlds.ServerDataWorldID)
	require.NoError(t, err)
	assert.Equal(t, worlds.ServerDataWorldID, snap.WorldID)
	require.Len(t, snap.Entities, 2)
	for _, es := range snap.Entities {
		assert.Equal(t, "Goblin", es.PrototypeID)
		assert.Len(t, es.Components, 2)
	}

	report, err := v.Reconcile(worlds.ServerDataWorldID, worlds.PredictionWorldID)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Patched)
	assert.Empty(t, report.Unknown)

	h, err := world.Get[Health](projection(t, m, worlds.PredictionWorldID, a))
	require.NoError(t, err)
	assert.Equal(t, 12, h.HP)
	p, err := world.Get[Position](projection(t, m, worlds.PredictionWorldID, b))
	require.NoError(t, err)
	assert.Equal(t, Position{}, p)

	// Server data itself is untouched.
	h, err = world.Get[Health](projection(t, m, worlds.ServerDataWorldID, b))
	require.NoError(t, err)
	assert.Equal(t, 30, h.HP)
}

type NetKey struct {
	Key string
}

func (NetKey) Name() string { return "NetKey" }

type Mirror struct {
	PrototypeID string
}

func (Mirror) Name() string { return "Mirror" }

type ResolveMirror struct {
	Source any
}

func (ResolveMirror) Name() string { return "ResolveMirror" }

// newNetKeyManager builds a registry and one child world whose projections carry their ID in
// NetKey instead of the default ID component.
func newNetKeyManager(t *testing.T) *entity.Manager[string] {
	t.Helper()
	protos, err := prototype.NewMapRepository(prototype.Template{
		ID:         "Goblin",
		Components: []world.Component{Health{HP: 30}},
	})
	require.NoError(t, err)

	ids := controller.IDDelegates[string, NetKey]{
		NewComponent:  func(id string) NetKey { return NetKey{Key: id} },
		FromComponent: func(c NetKey) string { return c.Key },
	}
	repo := worlds.NewRepository[string]()
	rw := world.New(worlds.RegistryWorldID)
	require.NoError(t, repo.AddWorld(worlds.RegistryWorldID, rw,
		controller.NewRegistryController(rw, protos, ids, nil)))
	sw := world.New(worlds.ServerDataWorldID)
	require.NoError(t, repo.AddChildWorld(worlds.ServerDataWorldID, sw,
		controller.NewWorldController(sw, protos, controller.Delegates[string, NetKey, Mirror, ResolveMirror]{
			IDDelegates:         ids,
			NewEntityComponent:  func(p string) Mirror { return Mirror{PrototypeID: p} },
			PrototypeID:         func(c Mirror) string { return c.PrototypeID },
			NewResolveComponent: func(s any) ResolveMirror { return ResolveMirror{Source: s} },
		}, nil)))

	n := 0
	m, err := entity.NewManager(repo, func() string {
		n++
		return fmt.Sprintf("k%d", n)
	})
	require.NoError(t, err)
	return m
}

func TestStateVisitor_SnapshotWithCustomIDComponent(t *testing.T) {
	t.Parallel()
	m := newNetKeyManager(t)
	v := netsync.NewStateVisitor(m, newRegistry(t), nil)

	id, err := m.SpawnEntity("Goblin", entity.PresetDefault)
	require.NoError(t, err)
	_, err = m.SpawnWorldLocalEntity("Goblin", worlds.ServerDataWorldID)
	require.NoError(t, err)

	snap, err := v.Snapshot(worlds.ServerDataWorldID)
	require.NoError(t, err)
	require.Len(t, snap.Entities, 1)
	assert.Equal(t, id, snap.Entities[0].ID)
	assert.Equal(t, "Goblin", snap.Entities[0].PrototypeID)
	assert.Len(t, snap.Entities[0].Components, 1)
}

func TestStateVisitor_ApplyAcrossPeers(t *testing.T) {
	t.Parallel()
	registry := newRegistry(t)

	server := newManager(t, "s")
	id, err := server.SpawnEntity("Goblin", entity.PresetDefault)
	require.NoError(t, err)
	other, err := server.SpawnEntity("Goblin", entity.PresetDefault)
	require.NoError(t, err)
	require.NoError(t, world.Set(projection(t, server, worlds.ServerDataWorldID, id), Health{HP: 1}))

	snap, err := netsync.NewStateVisitor(server, registry, nil).Snapshot(worlds.ServerDataWorldID)
	require.NoError(t, err)
	bz, err := json.Marshal(snap)
	require.NoError(t, err)
	var wire netsync.Snapshot[string]
	require.NoError(t, json.Unmarshal(bz, &wire))

	// The client only knows the first entity so far.
	client := newManager(t, "c")
	require.NoError(t, client.ResolveEntityWithID(id, "net-handle", "Goblin", entity.PresetDefault))

	report, err := netsync.NewStateVisitor(client, registry, nil).Apply(wire, worlds.ServerDataWorldID)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Patched)
	assert.Equal(t, []string{other}, report.Unknown)

	h, err := world.Get[Health](projection(t, client, worlds.ServerDataWorldID, id))
	require.NoError(t, err)
	assert.Equal(t, 1, h.HP)
}

func TestStateVisitor_Errors(t *testing.T) {
	t.Parallel()
	m := newManager(t, "e")
	v := netsync.NewStateVisitor(m, newRegistry(t), nil)

	_, err := v.Snapshot("nowhere")
	assert.True(t, eris.Is(err, worlds.ErrWorldNotFound))
	_, err = v.Snapshot(worlds.EventWorldID)
	assert.True(t, eris.Is(err, netsync.ErrNoLookup))

	_, err = v.Apply(netsync.Snapshot[string]{}, worlds.EventWorldID)
	assert.True(t, eris.Is(err, netsync.ErrNoLookup))

	id, err := m.SpawnEntity("Goblin", entity.PresetDefault)
	require.NoError(t, err)
	bad := netsync.Snapshot[string]{Entities: []netsync.EntityState[string]{{
		ID:         id,
		Components: []netsync.ComponentData{{Hash: 1, Data: []byte(`{}`)}},
	}}}
	report, err := v.Apply(bad, worlds.PredictionWorldID)
	assert.True(t, eris.Is(err, netsync.ErrUnknownComponent))
	assert.Equal(t, 0, report.Patched)
}

func TestDiff(t *testing.T) {
	t.Parallel()
	m := newManager(t, "e")
	v := netsync.NewStateVisitor(m, newRegistry(t), nil)

	kept, err := m.SpawnEntity("Goblin", entity.PresetDefault)
	require.NoError(t, err)
	changed, err := m.SpawnEntity("Goblin", entity.PresetDefault)
	require.NoError(t, err)
	gone, err := m.SpawnEntity("Goblin", entity.PresetDefault)
	require.NoError(t, err)

	before, err := v.Snapshot(worlds.SimulationWorldID)
	require.NoError(t, err)
	assert.True(t, netsync.Diff(before, before).Empty())

	require.NoError(t, m.DespawnEntity(gone))
	require.NoError(t, world.Set(projection(t, m, worlds.SimulationWorldID, changed), Position{X: 1}))
	created, err := m.SpawnEntity("Goblin", entity.PresetDefault)
	require.NoError(t, err)

	after, err := v.Snapshot(worlds.SimulationWorldID)
	require.NoError(t, err)

	d := netsync.Diff(before, after)
	assert.Equal(t, []string{created}, d.Created)
	assert.Equal(t, []string{gone}, d.Destroyed)
	assert.Equal(t, []string{changed}, d.Changed)
	assert.NotContains(t, d.Changed, kept)
}
