package controller

import (
	"github.com/rotisserie/eris"

	"pkg.world.dev/world-engine/multiworld/world"
)

// EventController owns the event world. Event entities are short lived and never linked to the
// registry, so the controller declares no capability and only supports local despawn.
type EventController struct {
	world *world.World
}

func NewEventController(w *world.World) *EventController {
	return &EventController{world: w}
}

func (c *EventController) World() *world.World { return c.world }

func (c *EventController) Capabilities() Capability { return 0 }

func (c *EventController) DespawnEntity(local world.Entity) error {
	if !c.world.Alive(local) {
		return eris.Wrapf(ErrEntityNotInWorld, "%s in world %q", local, c.world.ID())
	}
	return c.world.Destroy(local)
}
