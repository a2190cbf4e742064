package entity

import (
	"github.com/rs/zerolog"

	"pkg.world.dev/world-engine/multiworld/controller"
	"pkg.world.dev/world-engine/multiworld/prototype"
	"pkg.world.dev/world-engine/multiworld/world"
	"pkg.world.dev/world-engine/multiworld/worlds"
)

// Prototypes maps a world ID to the prototypes that world can build. A world with no entry
// builds nothing, so every registry entity goes unprojected there.
type Prototypes map[string]prototype.Repository

// For returns the repository of worldID.
func (p Prototypes) For(worldID string) prototype.Repository {
	if repo, ok := p[worldID]; ok && repo != nil {
		return repo
	}
	return prototype.Empty{}
}

// SharedPrototypes gives every listed world the same repository.
func SharedPrototypes(repo prototype.Repository, worldIDs ...string) Prototypes {
	p := make(Prototypes, len(worldIDs))
	for _, worldID := range worldIDs {
		p[worldID] = repo
	}
	return p
}

// NetworkWorldIDs lists the worlds of a networked manager. The last four are child worlds, in
// fan-out order.
var NetworkWorldIDs = []string{
	worlds.RegistryWorldID,
	worlds.EventWorldID,
	worlds.SimulationWorldID,
	worlds.ViewWorldID,
	worlds.ServerDataWorldID,
	worlds.PredictionWorldID,
}

// DefaultWorldIDs lists the worlds of a manager with no networking.
var DefaultWorldIDs = []string{
	worlds.RegistryWorldID,
	worlds.EventWorldID,
	worlds.SimulationWorldID,
	worlds.ViewWorldID,
}

// NewNetworkManager builds the registry, event, simulation, view, server-data and prediction
// worlds with their controllers, and a manager over them.
func NewNetworkManager[ID comparable](
	prototypes Prototypes, allocate func() ID, opts ...Option,
) (*Manager[ID], error) {
	return newManager(prototypes, allocate, true, opts...)
}

// NewDefaultManager builds the registry, event, simulation and view worlds, and a manager over
// them.
func NewDefaultManager[ID comparable](
	prototypes Prototypes, allocate func() ID, opts ...Option,
) (*Manager[ID], error) {
	return newManager(prototypes, allocate, false, opts...)
}

func newManager[ID comparable](
	prototypes Prototypes, allocate func() ID, networked bool, opts ...Option,
) (*Manager[ID], error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	repo, err := buildWorlds[ID](prototypes, networked, o.logger)
	if err != nil {
		return nil, err
	}
	return NewManager(repo, allocate, opts...)
}

type childWorld struct {
	id  string
	new func(*world.World) controller.Controller
}

func buildWorlds[ID comparable](
	prototypes Prototypes, networked bool, logger *zerolog.Logger,
) (*worlds.Repository[ID], error) {
	repo := worlds.NewRepository[ID]()
	ids := IDDelegates[ID]()

	rw := world.New(worlds.RegistryWorldID)
	err := repo.AddWorld(worlds.RegistryWorldID, rw,
		controller.NewRegistryController(rw, prototypes.For(worlds.RegistryWorldID), ids, logger))
	if err != nil {
		return nil, err
	}

	ew := world.New(worlds.EventWorldID)
	if err := repo.AddWorld(worlds.EventWorldID, ew, controller.NewEventController(ew)); err != nil {
		return nil, err
	}

	children := []childWorld{
		{worlds.SimulationWorldID, func(w *world.World) controller.Controller {
			return controller.NewWorldController(w, prototypes.For(w.ID()),
				controller.Delegates[ID, EntityIDComponent[ID], SimulationEntityComponent, ResolveSimulationComponent]{
					IDDelegates:         ids,
					NewEntityComponent:  func(p string) SimulationEntityComponent { return SimulationEntityComponent{PrototypeID: p} },
					PrototypeID:         func(c SimulationEntityComponent) string { return c.PrototypeID },
					NewResolveComponent: func(s any) ResolveSimulationComponent { return ResolveSimulationComponent{Source: s} },
				}, logger)
		}},
		{worlds.ViewWorldID, func(w *world.World) controller.Controller {
			return controller.NewWorldController(w, prototypes.For(w.ID()),
				controller.Delegates[ID, EntityIDComponent[ID], ViewEntityComponent, ResolveViewComponent]{
					IDDelegates:         ids,
					NewEntityComponent:  func(p string) ViewEntityComponent { return ViewEntityComponent{PrototypeID: p} },
					PrototypeID:         func(c ViewEntityComponent) string { return c.PrototypeID },
					NewResolveComponent: func(s any) ResolveViewComponent { return ResolveViewComponent{Source: s} },
				}, logger)
		}},
	}
	if networked {
		children = append(children, []childWorld{
			{worlds.ServerDataWorldID, func(w *world.World) controller.Controller {
				return controller.NewWorldController(w, prototypes.For(w.ID()),
					controller.Delegates[ID, EntityIDComponent[ID], ServerDataEntityComponent, ResolveServerDataComponent]{
						IDDelegates:         ids,
						NewEntityComponent:  func(p string) ServerDataEntityComponent { return ServerDataEntityComponent{PrototypeID: p} },
						PrototypeID:         func(c ServerDataEntityComponent) string { return c.PrototypeID },
						NewResolveComponent: func(s any) ResolveServerDataComponent { return ResolveServerDataComponent{Source: s} },
					}, logger)
			}},
			{worlds.PredictionWorldID, func(w *world.World) controller.Controller {
				return controller.NewWorldController(w, prototypes.For(w.ID()),
					controller.Delegates[ID, EntityIDComponent[ID], PredictionEntityComponent, ResolvePredictionComponent]{
						IDDelegates:         ids,
						NewEntityComponent:  func(p string) PredictionEntityComponent { return PredictionEntityComponent{PrototypeID: p} },
						PrototypeID:         func(c PredictionEntityComponent) string { return c.PrototypeID },
						NewResolveComponent: func(s any) ResolvePredictionComponent { return ResolvePredictionComponent{Source: s} },
					}, logger)
			}},
		}...)
	}

	for _, child := range children {
		w := world.New(child.id)
		if err := repo.AddChildWorld(child.id, w, child.new(w)); err != nil {
			return nil, err
		}
	}
	return repo, nil
}
