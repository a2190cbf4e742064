package idalloc

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"pkg.world.dev/world-engine/multiworld/entitylog"
)

const (
	DefaultRedisTimeout = 2 * time.Second
	redisCounterSuffix  = ":entity-id"
)

// Redis allocates IDs from an INCR counter, so every process sharing the Redis instance and
// namespace draws from one sequence.
type Redis struct {
	client  redis.Cmdable
	key     string
	timeout time.Duration
	logger  zerolog.Logger
}

// NewRedis creates an allocator using the counter "<namespace>:entity-id". A zero timeout means
// DefaultRedisTimeout.
func NewRedis(client redis.Cmdable, namespace string, timeout time.Duration, logger *zerolog.Logger) *Redis {
	if timeout <= 0 {
		timeout = DefaultRedisTimeout
	}
	return &Redis{
		client:  client,
		key:     namespace + redisCounterSuffix,
		timeout: timeout,
		logger:  entitylog.Component(logger, "redis_id_allocator"),
	}
}

// NextContext draws the next ID.
func (r *Redis) NextContext(ctx context.Context) (int64, error) {
	id, err := r.client.Incr(ctx, r.key).Result()
	if err != nil {
		return 0, eris.Wrapf(err, "failed to increment %q", r.key)
	}
	return id, nil
}

// Next draws the next ID within the configured timeout. On failure it logs and returns 0, the null
// ID, which the entity manager rejects.
func (r *Redis) Next() int64 {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	id, err := r.NextContext(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to allocate entity id")
		return 0
	}
	return id
}

// Current returns the last ID handed out, or 0 if none was.
func (r *Redis) Current(ctx context.Context) (int64, error) {
	id, err := r.client.Get(ctx, r.key).Int64()
	if err == redis.Nil { //nolint:errorlint // redis.Nil is returned unwrapped
		return 0, nil
	}
	if err != nil {
		return 0, eris.Wrapf(err, "failed to read %q", r.key)
	}
	return id, nil
}
