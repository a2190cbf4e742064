package idalloc_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pkg.world.dev/world-engine/multiworld/idalloc"
)

func TestSequential(t *testing.T) {
	t.Parallel()

	s := idalloc.NewSequential[uint32]()
	assert.Equal(t, uint32(1), s.Next())
	assert.Equal(t, uint32(2), s.Next())

	s.StartAfter(100)
	assert.Equal(t, uint32(101), s.Next())
}

func TestUUID(t *testing.T) {
	t.Parallel()

	seen := make(map[uuid.UUID]struct{})
	for range 100 {
		id := idalloc.UUID()
		assert.NotEqual(t, uuid.Nil, id)
		_, dup := seen[id]
		assert.False(t, dup)
		seen[id] = struct{}{}
	}

	s := idalloc.UUIDString()
	_, err := uuid.Parse(s)
	assert.NoError(t, err)
}

func newRedisClient(t *testing.T, s *miniredis.Miniredis) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedis_SharedSequence(t *testing.T) {
	t.Parallel()

	s := miniredis.RunT(t)
	a := idalloc.NewRedis(newRedisClient(t, s), "shard", 0, nil)
	b := idalloc.NewRedis(newRedisClient(t, s), "shard", 0, nil)
	other := idalloc.NewRedis(newRedisClient(t, s), "other", 0, nil)

	assert.Equal(t, int64(1), a.Next())
	assert.Equal(t, int64(2), b.Next())
	assert.Equal(t, int64(3), a.Next())
	assert.Equal(t, int64(1), other.Next())

	current, err := a.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), current)
	raw, err := s.Get("shard:entity-id")
	require.NoError(t, err)
	assert.Equal(t, "3", raw)
}

func TestRedis_CurrentBeforeFirstID(t *testing.T) {
	t.Parallel()

	s := miniredis.RunT(t)
	r := idalloc.NewRedis(newRedisClient(t, s), "fresh", 0, nil)
	current, err := r.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), current)
}

func TestRedis_FailureYieldsNullID(t *testing.T) {
	t.Parallel()

	s := miniredis.RunT(t)
	r := idalloc.NewRedis(newRedisClient(t, s), "shard", 0, nil)
	s.SetError("server down")

	assert.Equal(t, int64(0), r.Next())
	_, err := r.NextContext(context.Background())
	assert.Error(t, err)
}
