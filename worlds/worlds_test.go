package worlds_test

import (
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pkg.world.dev/world-engine/multiworld/controller"
	"pkg.world.dev/world-engine/multiworld/prototype"
	"pkg.world.dev/world-engine/multiworld/world"
	"pkg.world.dev/world-engine/multiworld/worlds"
)

type idComponent struct{ ID int }

func (idComponent) Name() string { return "ID" }

type payload struct{ PrototypeID string }

func (payload) Name() string { return "Payload" }

type resolve struct{ Source any }

func (resolve) Name() string { return "Resolve" }

var ids = controller.IDDelegates[int, idComponent]{
	NewComponent:  func(id int) idComponent { return idComponent{ID: id} },
	FromComponent: func(c idComponent) int { return c.ID },
}

func newChild(id string) (*world.World, *controller.WorldController[int, idComponent, payload, resolve]) {
	w := world.New(id)
	return w, controller.NewWorldController(w, prototype.Empty{},
		controller.Delegates[int, idComponent, payload, resolve]{
			IDDelegates:         ids,
			NewEntityComponent:  func(p string) payload { return payload{PrototypeID: p} },
			PrototypeID:         func(p payload) string { return p.PrototypeID },
			NewResolveComponent: func(s any) resolve { return resolve{Source: s} },
		}, nil)
}

func newLayout(t *testing.T) *worlds.Repository[int] {
	t.Helper()
	r := worlds.NewRepository[int]()

	rw := world.New(worlds.RegistryWorldID)
	require.NoError(t, r.AddWorld(worlds.RegistryWorldID, rw,
		controller.NewRegistryController(rw, prototype.Empty{}, ids, nil)))

	ew := world.New(worlds.EventWorldID)
	require.NoError(t, r.AddWorld(worlds.EventWorldID, ew, controller.NewEventController(ew)))

	for _, id := range []string{worlds.SimulationWorldID, worlds.ViewWorldID} {
		w, c := newChild(id)
		require.NoError(t, r.AddChildWorld(id, w, c))
	}
	return r
}

func TestRepository_Lookups(t *testing.T) {
	t.Parallel()
	r := newLayout(t)

	assert.Equal(t, []string{
		worlds.RegistryWorldID, worlds.EventWorldID, worlds.SimulationWorldID, worlds.ViewWorldID,
	}, r.WorldIDs())
	assert.Equal(t, []string{worlds.SimulationWorldID, worlds.ViewWorldID}, r.ChildWorldIDs())
	assert.True(t, r.IsChildWorld(worlds.ViewWorldID))
	assert.False(t, r.IsChildWorld(worlds.RegistryWorldID))

	sim, err := r.GetWorld(worlds.SimulationWorldID)
	require.NoError(t, err)
	assert.Equal(t, worlds.SimulationWorldID, sim.ID())

	c, err := r.GetWorldControllerFor(sim)
	require.NoError(t, err)
	assert.Same(t, sim, c.World())

	byID, err := r.GetWorldController(worlds.SimulationWorldID)
	require.NoError(t, err)
	assert.Equal(t, c, byID)

	worldID, ok := r.WorldIDFor(sim)
	assert.True(t, ok)
	assert.Equal(t, worlds.SimulationWorldID, worldID)
}

func TestRepository_NotFound(t *testing.T) {
	t.Parallel()
	r := newLayout(t)

	_, err := r.GetWorld("nope")
	assert.True(t, eris.Is(err, worlds.ErrWorldNotFound))
	_, err = r.GetWorldController("nope")
	assert.True(t, eris.Is(err, worlds.ErrWorldNotFound))
	_, err = r.GetWorldControllerFor(world.New(worlds.SimulationWorldID))
	assert.True(t, eris.Is(err, worlds.ErrWorldNotFound))
	_, err = r.GetWorldControllerFor(nil)
	assert.True(t, eris.Is(err, worlds.ErrWorldNotFound))
	_, err = r.PrototypeCompliant("nope")
	assert.True(t, eris.Is(err, worlds.ErrWorldNotFound))
}

func TestRepository_CapabilityLookups(t *testing.T) {
	t.Parallel()
	r := newLayout(t)

	testCases := []struct {
		worldID   string
		prototype bool
		registry  bool
		entityID  bool
	}{
		{worldID: worlds.RegistryWorldID, entityID: true},
		{worldID: worlds.EventWorldID},
		{worldID: worlds.SimulationWorldID, prototype: true, registry: true},
		{worldID: worlds.ViewWorldID, prototype: true, registry: true},
	}
	for _, tc := range testCases {
		t.Run(tc.worldID, func(t *testing.T) {
			t.Parallel()

			_, err := r.PrototypeCompliant(tc.worldID)
			assert.Equal(t, tc.prototype, err == nil)
			if !tc.prototype {
				assert.True(t, eris.Is(err, worlds.ErrCapabilityMissing))
			}
			_, err = r.RegistryCompliant(tc.worldID)
			assert.Equal(t, tc.registry, err == nil)
			_, err = r.EntityIDCompliant(tc.worldID)
			assert.Equal(t, tc.entityID, err == nil)
		})
	}
}

func TestRepository_RejectsDuplicates(t *testing.T) {
	t.Parallel()
	r := newLayout(t)

	w, c := newChild("other")
	err := r.AddChildWorld(worlds.SimulationWorldID, w, c)
	assert.True(t, eris.Is(err, worlds.ErrWorldExists))

	sim, err := r.GetWorld(worlds.SimulationWorldID)
	require.NoError(t, err)
	simController, err := r.GetWorldController(worlds.SimulationWorldID)
	require.NoError(t, err)
	err = r.AddChildWorld("alias", sim, simController)
	assert.True(t, eris.Is(err, worlds.ErrWorldExists))

	assert.True(t, eris.Is(r.AddWorld("", w, c), worlds.ErrEmptyWorldID))
	assert.Len(t, r.WorldIDs(), 4)
}

type overclaiming struct {
	*controller.EventController
}

func (overclaiming) Capabilities() controller.Capability { return controller.CapPrototype }

func TestRepository_RejectsUnimplementedCapability(t *testing.T) {
	t.Parallel()
	r := worlds.NewRepository[int]()

	w := world.New("liar")
	err := r.AddWorld("liar", w, overclaiming{controller.NewEventController(w)})
	assert.True(t, eris.Is(err, controller.ErrCapabilityMismatch))
	assert.False(t, r.HasWorld("liar"))

	// A registry controller keyed by a different ID type cannot serve this repository.
	strIDs := controller.IDDelegates[string, idComponent]{
		NewComponent:  func(string) idComponent { return idComponent{} },
		FromComponent: func(idComponent) string { return "" },
	}
	rw := world.New("registry")
	err = r.AddWorld("registry", rw, controller.NewRegistryController(rw, prototype.Empty{}, strIDs, nil))
	assert.True(t, eris.Is(err, controller.ErrCapabilityMismatch))
}

func TestRepository_RejectsForeignController(t *testing.T) {
	t.Parallel()
	r := worlds.NewRepository[int]()

	_, c := newChild("a")
	err := r.AddChildWorld("b", world.New("b"), c)
	assert.Error(t, err)
	assert.False(t, r.HasWorld("b"))
}

func TestRepository_WorldInfos(t *testing.T) {
	t.Parallel()
	r := newLayout(t)

	ew, err := r.GetWorld(worlds.EventWorldID)
	require.NoError(t, err)
	ew.CreateEntity()

	infos := r.WorldInfos()
	require.Len(t, infos, 4)
	assert.Equal(t, worlds.EventWorldID, infos[1].ID)
	assert.Equal(t, 1, infos[1].Entities)
	assert.Equal(t, "none", infos[1].Capabilities)
	assert.False(t, infos[1].Child)
	assert.Equal(t, "entity_id", infos[0].Capabilities)
	assert.Equal(t, "prototype|registry", infos[2].Capabilities)
	assert.True(t, infos[2].Child)
}
