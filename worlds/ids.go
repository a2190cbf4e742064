package worlds

// World IDs of the networked entity layout.
const (
	RegistryWorldID   = "registry"
	EventWorldID      = "event"
	SimulationWorldID = "simulation"
	ViewWorldID       = "view"
	ServerDataWorldID = "server_data"
	PredictionWorldID = "prediction"
)
