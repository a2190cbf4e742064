// Package entitylog holds the structured logging helpers shared by the entity manager, the
// world controllers and the network visitors.
package entitylog

import (
	"github.com/rs/zerolog"
)

// WorldInfo describes one registered world for logging purposes.
type WorldInfo struct {
	ID           string
	Entities     int
	Capabilities string
	Child        bool
}

// RegistryEntry describes one registry entity for logging purposes.
type RegistryEntry struct {
	EntityID    string
	PrototypeID string
}

// Loggable is implemented by anything that can report its world layout.
type Loggable interface {
	WorldInfos() []WorldInfo
}

// Component returns a logger tagged with the emitting component. A nil logger yields a disabled
// logger, so callers never need to nil-check before logging.
func Component(logger *zerolog.Logger, name string) zerolog.Logger {
	if logger == nil {
		return zerolog.Nop()
	}
	return logger.With().Str("component", name).Logger()
}

// Worlds logs every world of target as a single event.
func Worlds(logger *zerolog.Logger, target Loggable, level zerolog.Level) {
	infos := target.WorldInfos()
	arr := zerolog.Arr()
	for _, info := range infos {
		arr = arr.Dict(zerolog.Dict().
			Str("world_id", info.ID).
			Int("entities", info.Entities).
			Str("capabilities", info.Capabilities).
			Bool("child", info.Child))
	}
	logger.WithLevel(level).Int("total_worlds", len(infos)).Array("worlds", arr).Send()
}

// Registry logs the given registry entries as a single event.
func Registry(logger *zerolog.Logger, entries []RegistryEntry, level zerolog.Level) {
	arr := zerolog.Arr()
	for _, entry := range entries {
		arr = arr.Dict(zerolog.Dict().
			Str("entity_id", entry.EntityID).
			Str("prototype_id", entry.PrototypeID))
	}
	logger.WithLevel(level).Int("total_entities", len(entries)).Array("entities", arr).Send()
}
