package shape

import "bucketsort/internal/zone"

// Color is the colour category of a shape.
type Color string

const (
	Red    Color = "red"
	Orange Color = "orange"
	Yellow Color = "yellow"
	Green  Color = "green"
	Blue   Color = "blue"
	Purple Color = "purple"
)

// Colors lists every colour the spawner may pick.
var Colors = []Color{Red, Orange, Yellow, Green, Blue, Purple}

// Kind is the geometric category of a shape.
type Kind string

const (
	Circle   Kind = "circle"
	Square   Kind = "square"
	Triangle Kind = "triangle"
	Hexagon  Kind = "hexagon"
)

// Kinds lists every kind the spawner may pick.
var Kinds = []Kind{Circle, Square, Triangle, Hexagon}

// Class is fixed when a shape is spawned and never recomputed.
type Class struct {
	Color Color `json:"color"`
	Kind  Kind  `json:"kind"`
}

// BodyID is the physics world's key for a body. The registry never owns
// the body itself.
type BodyID uint64

// Entity is a draggable shape tracked by the game.
type Entity struct {
	ID     string
	BodyID BodyID
	Class  Class
	// Size is the visual scale; 1 at spawn, shrinks to 0 while being removed.
	Size float64
	Pos  zone.Point
	// Angle is the body rotation in radians, carried for rendering.
	Angle float64
	// Speed is the body's speed; the game rules never read it.
	Speed float64
	// Detached entities are no longer simulated and move only by animation.
	Detached bool

	index int
}
