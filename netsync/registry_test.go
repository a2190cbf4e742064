package netsync_test

import (
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pkg.world.dev/world-engine/multiworld/netsync"
	"pkg.world.dev/world-engine/multiworld/world"
)

type Health struct {
	HP int `json:"hp"`
}

func (Health) Name() string { return "Health" }

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (Position) Name() string { return "Position" }

// PositionV2 has the same name as Position but a different shape, as a peer built from other
// sources would.
type PositionV2 struct {
	X, Y, Z float64
}

func (PositionV2) Name() string { return "Position" }

type Secret struct {
	Key string
}

func (Secret) Name() string { return "Secret" }

func newRegistry(t *testing.T) *netsync.Registry {
	t.Helper()
	r := netsync.NewRegistry()
	require.NoError(t, netsync.Register[Health](r))
	require.NoError(t, netsync.Register[Position](r))
	return r
}

func TestRegister(t *testing.T) {
	t.Parallel()
	r := newRegistry(t)

	assert.Equal(t, []string{"Health", "Position"}, r.Names())
	assert.True(t, r.Has("Health"))
	assert.False(t, r.Has("Secret"))

	err := netsync.Register[PositionV2](r)
	assert.True(t, eris.Is(err, netsync.ErrComponentRegistered))

	name, ok := r.NameOf(netsync.HashName("Position"))
	assert.True(t, ok)
	assert.Equal(t, "Position", name)
	_, ok = r.NameOf(1)
	assert.False(t, ok)

	assert.Panics(t, func() { netsync.MustRegister[Health](r) })
}

func TestEncodeDecode(t *testing.T) {
	t.Parallel()
	r := newRegistry(t)

	data, err := r.Encode(Position{X: 1.5, Y: -2})
	require.NoError(t, err)
	assert.Equal(t, netsync.HashName("Position"), data.Hash)
	assert.JSONEq(t, `{"x":1.5,"y":-2}`, string(data.Data))

	comp, err := r.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, Position{X: 1.5, Y: -2}, comp)

	_, err = r.Encode(Secret{Key: "k"})
	assert.True(t, eris.Is(err, netsync.ErrUnknownComponent))
	_, err = r.Decode(netsync.ComponentData{Hash: netsync.HashName("Secret"), Data: []byte(`{}`)})
	assert.True(t, eris.Is(err, netsync.ErrUnknownComponent))

	_, err = r.Decode(netsync.ComponentData{Hash: data.Hash, Data: []byte(`{"x":"nope"}`)})
	assert.Error(t, err)

	// Same name, different type.
	_, err = r.Encode(PositionV2{})
	assert.True(t, eris.Is(err, world.ErrComponentTypeMismatch))
}

func TestEncodeEntitySkipsUnregistered(t *testing.T) {
	t.Parallel()
	r := newRegistry(t)

	e := world.New("w").CreateEntity()
	require.NoError(t, e.SetComponent(Position{X: 1}))
	require.NoError(t, e.SetComponent(Health{HP: 3}))
	require.NoError(t, e.SetComponent(Secret{Key: "k"}))

	data, err := r.EncodeEntity(e)
	require.NoError(t, err)
	require.Len(t, data, 2)
	assert.Equal(t, netsync.HashName("Health"), data[0].Hash)
	assert.Equal(t, netsync.HashName("Position"), data[1].Hash)

	comps, err := r.DecodeAll(data)
	require.NoError(t, err)
	assert.Equal(t, []world.Component{Health{HP: 3}, Position{X: 1}}, comps)

	_, err = r.DecodeAll(append(data, netsync.ComponentData{Hash: 7}))
	assert.True(t, eris.Is(err, netsync.ErrUnknownComponent))
}

func TestValidateSchema(t *testing.T) {
	t.Parallel()
	local := newRegistry(t)

	same := newRegistry(t)
	assert.NoError(t, local.ValidateSchemas(same.Schemas()))

	peer := netsync.NewRegistry()
	require.NoError(t, netsync.Register[PositionV2](peer))
	remote, err := peer.Schema("Position")
	require.NoError(t, err)
	err = local.ValidateSchema("Position", remote)
	assert.True(t, eris.Is(err, netsync.ErrSchemaMismatch))

	_, err = local.Schema("Secret")
	assert.True(t, eris.Is(err, netsync.ErrUnknownComponent))

	peer2 := netsync.NewRegistry()
	require.NoError(t, netsync.Register[Secret](peer2))
	err = local.ValidateSchemas(peer2.Schemas())
	assert.True(t, eris.Is(err, netsync.ErrUnknownComponent))
}
