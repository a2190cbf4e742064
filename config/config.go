// Package config loads process configuration from environment variables.
package config

import (
	"slices"
	"strings"

	jlconfig "github.com/JeremyLoy/config"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

const (
	AllocatorSequential = "sequential"
	AllocatorUUID       = "uuid"
	AllocatorRedis      = "redis"

	DefaultNamespace    = "multiworld"
	DefaultLogLevel     = "info"
	DefaultRedisAddress = "localhost:6379"
)

var (
	ErrInvalidLogLevel  = eris.New("invalid log level")
	ErrInvalidAllocator = eris.New("invalid id allocator")
	ErrInvalidNamespace = eris.New("invalid namespace")
)

// Config is filled from the environment. Unset variables keep their defaults.
type Config struct {
	LogLevel      string `config:"MULTIWORLD_LOG_LEVEL"`
	Namespace     string `config:"MULTIWORLD_NAMESPACE"`
	IDAllocator   string `config:"MULTIWORLD_ID_ALLOCATOR"`
	RedisAddress  string `config:"REDIS_ADDRESS"`
	RedisPassword string `config:"REDIS_PASSWORD"`
	// StatsdAddress enables metrics when set.
	StatsdAddress string `config:"STATSD_ADDRESS"`
}

func Default() Config {
	return Config{
		LogLevel:     DefaultLogLevel,
		Namespace:    DefaultNamespace,
		IDAllocator:  AllocatorSequential,
		RedisAddress: DefaultRedisAddress,
	}
}

// Load reads the environment over the defaults and validates the result.
func Load() (Config, error) {
	cfg := Default()
	if err := jlconfig.FromEnv().To(&cfg); err != nil {
		return Config{}, eris.Wrap(err, "failed to read config from env")
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.IDAllocator = strings.ToLower(cfg.IDAllocator)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil || c.LogLevel == "" {
		return eris.Wrapf(ErrInvalidLogLevel, "%q", c.LogLevel)
	}
	if !slices.Contains([]string{AllocatorSequential, AllocatorUUID, AllocatorRedis}, c.IDAllocator) {
		return eris.Wrapf(ErrInvalidAllocator, "%q must be one of sequential, uuid, redis", c.IDAllocator)
	}
	if c.Namespace == "" || strings.ContainsAny(c.Namespace, " :") {
		return eris.Wrapf(ErrInvalidNamespace, "%q", c.Namespace)
	}
	if c.IDAllocator == AllocatorRedis && c.RedisAddress == "" {
		return eris.New("REDIS_ADDRESS is required by the redis id allocator")
	}
	return nil
}

// Level returns the parsed log level. Call only on a validated config.
func (c Config) Level() zerolog.Level {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}
