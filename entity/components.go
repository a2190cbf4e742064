package entity

import "pkg.world.dev/world-engine/multiworld/controller"

// EntityIDComponent carries the entity ID on registry entities and on every linked projection.
type EntityIDComponent[ID comparable] struct {
	ID ID `json:"id"`
}

func (EntityIDComponent[ID]) Name() string { return "EntityID" }

// IDDelegates converts between ID and EntityIDComponent.
func IDDelegates[ID comparable]() controller.IDDelegates[ID, EntityIDComponent[ID]] {
	return controller.IDDelegates[ID, EntityIDComponent[ID]]{
		NewComponent:  func(id ID) EntityIDComponent[ID] { return EntityIDComponent[ID]{ID: id} },
		FromComponent: func(c EntityIDComponent[ID]) ID { return c.ID },
	}
}

// -------------------------------------------------------------------------------------------------
// Simulation
// -------------------------------------------------------------------------------------------------

type SimulationEntityComponent struct {
	PrototypeID string `json:"prototypeId"`
}

func (SimulationEntityComponent) Name() string { return "SimulationEntity" }

type ResolveSimulationComponent struct {
	Source any `json:"-"`
}

func (ResolveSimulationComponent) Name() string { return "ResolveSimulation" }

// -------------------------------------------------------------------------------------------------
// View
// -------------------------------------------------------------------------------------------------

type ViewEntityComponent struct {
	PrototypeID string `json:"prototypeId"`
}

func (ViewEntityComponent) Name() string { return "ViewEntity" }

type ResolveViewComponent struct {
	Source any `json:"-"`
}

func (ResolveViewComponent) Name() string { return "ResolveView" }

// -------------------------------------------------------------------------------------------------
// Server data
// -------------------------------------------------------------------------------------------------

type ServerDataEntityComponent struct {
	PrototypeID string `json:"prototypeId"`
}

func (ServerDataEntityComponent) Name() string { return "ServerDataEntity" }

type ResolveServerDataComponent struct {
	Source any `json:"-"`
}

func (ResolveServerDataComponent) Name() string { return "ResolveServerData" }

// -------------------------------------------------------------------------------------------------
// Prediction
// -------------------------------------------------------------------------------------------------

type PredictionEntityComponent struct {
	PrototypeID string `json:"prototypeId"`
}

func (PredictionEntityComponent) Name() string { return "PredictionEntity" }

type ResolvePredictionComponent struct {
	Source any `json:"-"`
}

func (ResolvePredictionComponent) Name() string { return "ResolvePrediction" }
