package testutils

// Test components shared across packages. They implement ecs.Component structurally
// (a Name method) so this package doesn't need to import the ecs package.

type Position struct {
	X, Y, Z float64
}

func (Position) Name() string {
	return "position"
}

type Velocity struct {
	DX, DY, DZ float64
}

func (Velocity) Name() string {
	return "velocity"
}

type Health struct {
	Current int32
	Max     int32
}

func (Health) Name() string {
	return "health"
}

type Sprite struct {
	Mesh  string
	Layer uint8
}

func (Sprite) Name() string {
	return "sprite"
}
