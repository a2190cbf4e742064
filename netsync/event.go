package netsync

import (
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"pkg.world.dev/world-engine/multiworld/entitylog"
	"pkg.world.dev/world-engine/multiworld/world"
)

// EventComponent marks an entity of the event world as an event.
type EventComponent struct{}

func (EventComponent) Name() string { return "Event" }

// EventTargetComponent addresses an event to a registry entity.
type EventTargetComponent[ID comparable] struct {
	Target ID `json:"target"`
}

func (EventTargetComponent[ID]) Name() string { return "EventTarget" }

// EventSourceComponent records the registry entity that raised an event.
type EventSourceComponent[ID comparable] struct {
	Source ID `json:"source"`
}

func (EventSourceComponent[ID]) Name() string { return "EventSource" }

// EventTimeComponent records the tick an event happened on.
type EventTimeComponent struct {
	Tick uint64 `json:"tick"`
}

func (EventTimeComponent) Name() string { return "EventTime" }

// ReceivedEventComponent marks an event that arrived over the network rather than being raised
// locally.
type ReceivedEventComponent struct {
	FromHost bool `json:"fromHost"`
}

func (ReceivedEventComponent) Name() string { return "ReceivedEvent" }

// EventEntityBuilder creates event entities in the event world.
type EventEntityBuilder[ID comparable] struct {
	world *world.World
}

func NewEventEntityBuilder[ID comparable](eventWorld *world.World) *EventEntityBuilder[ID] {
	return &EventEntityBuilder[ID]{world: eventWorld}
}

func (b *EventEntityBuilder[ID]) World() *world.World { return b.world }

// NewEvent creates an empty event.
func (b *EventEntityBuilder[ID]) NewEvent() world.Entity {
	e := b.world.CreateEntity()
	_ = e.SetComponent(EventComponent{})
	return e
}

func (b *EventEntityBuilder[ID]) AddressedTo(e world.Entity, target ID) error {
	return world.Set(e, EventTargetComponent[ID]{Target: target})
}

func (b *EventEntityBuilder[ID]) CausedBy(e world.Entity, source ID) error {
	return world.Set(e, EventSourceComponent[ID]{Source: source})
}

func (b *EventEntityBuilder[ID]) HappenedAt(e world.Entity, tick uint64) error {
	return world.Set(e, EventTimeComponent{Tick: tick})
}

// WithData attaches payload components to the event.
func (b *EventEntityBuilder[ID]) WithData(e world.Entity, comps ...world.Component) error {
	for _, c := range comps {
		if err := e.SetComponent(c); err != nil {
			return err
		}
	}
	return nil
}

// EventDTO is the wire form of one event.
type EventDTO struct {
	Components []ComponentData `json:"components"`
}

// EventVisitor moves events between the event world and the network. The host relays events it
// received from clients; a client never sends received events back.
type EventVisitor[ID comparable] struct {
	builder  *EventEntityBuilder[ID]
	registry *Registry
	host     bool
	logger   zerolog.Logger
}

// NewEventVisitor creates a visitor. The registry must contain the event bookkeeping components;
// RegisterEventComponents adds them.
func NewEventVisitor[ID comparable](
	builder *EventEntityBuilder[ID], registry *Registry, host bool, logger *zerolog.Logger,
) *EventVisitor[ID] {
	return &EventVisitor[ID]{
		builder:  builder,
		registry: registry,
		host:     host,
		logger:   entitylog.Component(logger, "event_world_visitor").With().Bool("host", host).Logger(),
	}
}

// RegisterEventComponents registers the components every event visitor relies on.
func RegisterEventComponents[ID comparable](r *Registry) error {
	for _, register := range []func(*Registry) error{
		Register[EventComponent],
		Register[EventTargetComponent[ID]],
		Register[EventSourceComponent[ID]],
		Register[EventTimeComponent],
		Register[ReceivedEventComponent],
	} {
		if err := register(r); err != nil && !eris.Is(err, ErrComponentRegistered) {
			return err
		}
	}
	return nil
}

// Save serializes the outgoing events of the event world.
func (v *EventVisitor[ID]) Save() ([]EventDTO, error) {
	var out []EventDTO
	for e := range world.Each[EventComponent](v.builder.world) {
		if !v.host && world.Has[ReceivedEventComponent](e) {
			continue
		}
		data, err := v.registry.EncodeEntity(e)
		if err != nil {
			return nil, eris.Wrapf(err, "failed to save %s", e)
		}
		out = append(out, EventDTO{Components: withoutReceivedMarker(data)})
	}
	v.logger.Debug().Int("events", len(out)).Msg("events saved")
	return out, nil
}

func withoutReceivedMarker(data []ComponentData) []ComponentData {
	marker := HashName(ReceivedEventComponent{}.Name())
	out := data[:0]
	for _, d := range data {
		if d.Hash == marker {
			continue
		}
		out = append(out, d)
	}
	return out
}

// Load materializes received events in the event world. An event is created only if every one of
// its components decodes.
func (v *EventVisitor[ID]) Load(events []EventDTO) ([]world.Entity, error) {
	created := make([]world.Entity, 0, len(events))
	for i, dto := range events {
		comps, err := v.registry.DecodeAll(dto.Components)
		if err != nil {
			return created, eris.Wrapf(err, "event %d", i)
		}
		e := v.builder.NewEvent()
		if err := v.builder.WithData(e, comps...); err != nil {
			_ = e.Destroy()
			return created, eris.Wrapf(err, "event %d", i)
		}
		_ = e.SetComponent(ReceivedEventComponent{FromHost: !v.host})
		created = append(created, e)
	}
	v.logger.Debug().Int("events", len(created)).Msg("events loaded")
	return created, nil
}

// Clear destroys every event in the event world. Call once the events of a tick were handled.
func (v *EventVisitor[ID]) Clear() int {
	var events []world.Entity
	for e := range world.Each[EventComponent](v.builder.world) {
		events = append(events, e)
	}
	for _, e := range events {
		_ = e.Destroy()
	}
	return len(events)
}
