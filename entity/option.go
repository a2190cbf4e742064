package entity

import (
	"github.com/rs/zerolog"
)

type options struct {
	logger      *zerolog.Logger
	childWorlds []string
}

// Option configures a Manager.
type Option func(*options)

// WithLogger sets the logger the manager and the controllers built by the factories log to. The
// default is a disabled logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithChildWorlds overrides which child worlds take part in spawn and despawn, and in which
// order. By default every world added with AddChildWorld takes part, in the order it was added.
func WithChildWorlds(worldIDs ...string) Option {
	return func(o *options) {
		o.childWorlds = append([]string(nil), worldIDs...)
	}
}
