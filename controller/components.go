package controller

// RegistryEntityComponent marks a registry entity and records the prototype it was built from.
type RegistryEntityComponent struct {
	PrototypeID string `json:"prototypeId"`
}

func (RegistryEntityComponent) Name() string { return "RegistryEntity" }

// IDDelegates convert between an entity ID and the component that carries it inside a world.
// They decouple the generic controllers from the concrete ID component shape.
type IDDelegates[ID comparable, IDC any] struct {
	NewComponent  func(ID) IDC
	FromComponent func(IDC) ID
}

// Delegates configure a WorldController: how to carry the ID, how to build the world payload
// component from a prototype ID, and how to build the component that binds a resolve source.
type Delegates[ID comparable, IDC, EC, RC any] struct {
	IDDelegates[ID, IDC]
	NewEntityComponent  func(prototypeID string) EC
	PrototypeID         func(EC) string
	NewResolveComponent func(source any) RC
}
