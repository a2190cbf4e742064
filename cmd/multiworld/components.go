package main

type Health struct {
	HP int `json:"hp"`
}

func (Health) Name() string { return "Health" }

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (Position) Name() string { return "Position" }

type Velocity struct {
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`
}

func (Velocity) Name() string { return "Velocity" }

// netObject stands in for a transport level handle.
type netObject struct {
	NetID uint32
}
