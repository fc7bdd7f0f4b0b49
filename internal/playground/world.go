// Package playground is the physics side of the sorting game: a cp space
// sized to the visitor's viewport, a background spawner of random shapes,
// and a pointer-driven pivot joint for dragging.
package playground

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/jakecoffman/cp"

	"bucketsort/internal/shape"
	"bucketsort/internal/zone"
)

// Config tunes the world. Zero fields take defaults. GrabRadius is how far
// from a shape a pointer press still picks it up.
type Config struct {
	Gravity    float64       `yaml:"gravity"`
	SpawnEvery time.Duration `yaml:"spawn_every"`
	MaxShapes  int           `yaml:"max_shapes"`
	ShapeSize  float64       `yaml:"shape_size"`
	Friction   float64       `yaml:"friction"`
	Elasticity float64       `yaml:"elasticity"`
	GrabRadius float64       `yaml:"grab_radius"`
}

// DefaultConfig is tuned for feel, not accuracy.
var DefaultConfig = Config{
	Gravity:    900,
	SpawnEvery: 1200 * time.Millisecond,
	MaxShapes:  24,
	ShapeSize:  48,
	Friction:   0.7,
	Elasticity: 0.3,
	GrabRadius: 12,
}

func (c Config) withDefaults() Config {
	d := DefaultConfig
	if c.Gravity <= 0 {
		c.Gravity = d.Gravity
	}
	if c.SpawnEvery <= 0 {
		c.SpawnEvery = d.SpawnEvery
	}
	if c.MaxShapes <= 0 {
		c.MaxShapes = d.MaxShapes
	}
	if c.ShapeSize <= 0 {
		c.ShapeSize = d.ShapeSize
	}
	if c.Friction <= 0 {
		c.Friction = d.Friction
	}
	if c.Elasticity < 0 {
		c.Elasticity = d.Elasticity
	}
	if c.GrabRadius <= 0 {
		c.GrabRadius = d.GrabRadius
	}
	return c
}

const (
	wallThickness = 20
	// ceiling is how far above the viewport the side walls reach so shapes
	// spawned off-screen fall inside them.
	ceiling     = 600
	escapeDepth = 400

	dragMaxForce = 60000
)

// World simulates the draggable shapes of one visitor. It is not safe for
// concurrent use.
type World struct {
	cfg    Config
	space  *cp.Space
	reg    *shape.Registry
	rng    *rand.Rand
	bodies map[shape.BodyID]*cp.Body
	walls  []*cp.Shape

	width, height float64

	mouse   *cp.Body
	pointer cp.Vector
	joint   *cp.Constraint
	held    *shape.Entity

	nextBody  shape.BodyID
	spawnWait time.Duration
}

// New creates an empty world that registers spawned shapes in reg.
func New(cfg Config, reg *shape.Registry, rng *rand.Rand) *World {
	cfg = cfg.withDefaults()
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	space := cp.NewSpace()
	space.Iterations = 20
	space.SetGravity(cp.Vector{X: 0, Y: cfg.Gravity})

	return &World{
		cfg:    cfg,
		space:  space,
		reg:    reg,
		rng:    rng,
		bodies: make(map[shape.BodyID]*cp.Body),
		mouse:  cp.NewKinematicBody(),
	}
}

// Size returns the viewport the walls were built for.
func (w *World) Size() (width, height float64) {
	return w.width, w.height
}

// Resize rebuilds the floor and side walls for a new viewport.
func (w *World) Resize(width, height float64) {
	if width <= 0 || height <= 0 {
		return
	}
	w.width, w.height = width, height
	for _, s := range w.walls {
		w.space.RemoveShape(s)
	}
	w.walls = w.walls[:0]

	static := w.space.StaticBody
	r := float64(wallThickness) / 2
	segments := [][2]cp.Vector{
		{{X: -r, Y: height + r}, {X: width + r, Y: height + r}},
		{{X: -r, Y: -ceiling}, {X: -r, Y: height + r}},
		{{X: width + r, Y: -ceiling}, {X: width + r, Y: height + r}},
	}
	for _, seg := range segments {
		s := w.space.AddShape(cp.NewSegment(static, seg[0], seg[1], r))
		s.SetFriction(1)
		s.SetElasticity(w.cfg.Elasticity)
		w.walls = append(w.walls, s)
	}
}

// Spawn adds a shape with a random classification above the viewport.
// It returns nil when the world is full or has no size yet.
func (w *World) Spawn() *shape.Entity {
	if w.width <= 0 || w.reg.Len() >= w.cfg.MaxShapes {
		return nil
	}
	class := shape.Class{
		Color: shape.Colors[w.rng.Intn(len(shape.Colors))],
		Kind:  shape.Kinds[w.rng.Intn(len(shape.Kinds))],
	}
	margin := w.cfg.ShapeSize
	x := margin + w.rng.Float64()*math.Max(1, w.width-2*margin)
	return w.SpawnAt(class, zone.Point{X: x, Y: -w.cfg.ShapeSize})
}

// SpawnAt adds a shape of the given class at p.
func (w *World) SpawnAt(class shape.Class, p zone.Point) *shape.Entity {
	w.nextBody++
	id := w.nextBody
	body := w.newBody(class.Kind, cp.Vector{X: p.X, Y: p.Y}, w.rng.Float64()*2*math.Pi)
	body.UserData = id
	w.bodies[id] = body

	e := &shape.Entity{
		ID:     fmt.Sprintf("shape-%d", id),
		BodyID: id,
		Class:  class,
		Size:   1,
		Pos:    p,
		Angle:  body.Angle(),
	}
	w.reg.Register(e)
	return e
}

// newBody places the body before its shape joins the space, so the spatial
// index sees the shape where it spawned rather than at the origin.
func (w *World) newBody(kind shape.Kind, at cp.Vector, angle float64) *cp.Body {
	const mass = 1.0
	size := w.cfg.ShapeSize
	var (
		body *cp.Body
		s    *cp.Shape
	)
	switch kind {
	case shape.Circle:
		r := size / 2
		body = w.space.AddBody(cp.NewBody(mass, cp.MomentForCircle(mass, 0, r, cp.Vector{})))
		s = cp.NewCircle(body, r, cp.Vector{})
	case shape.Square:
		body = w.space.AddBody(cp.NewBody(mass, cp.MomentForBox(mass, size, size)))
		s = cp.NewBox(body, size, size, 0)
	default:
		verts := polygon(kind, size/2)
		body = w.space.AddBody(cp.NewBody(mass, cp.MomentForPoly(mass, len(verts), verts, cp.Vector{}, 0)))
		s = cp.NewPolyShape(body, len(verts), verts, cp.NewTransformIdentity(), 0)
	}
	body.SetPosition(at)
	body.SetAngle(angle)
	s.SetFriction(w.cfg.Friction)
	s.SetElasticity(w.cfg.Elasticity)
	w.space.AddShape(s)
	return body
}

// polygon returns the vertices of a regular polygon for kind, wound
// counter-clockwise around the origin.
func polygon(kind shape.Kind, radius float64) []cp.Vector {
	sides := 6
	if kind == shape.Triangle {
		sides = 3
	}
	verts := make([]cp.Vector, sides)
	for i := range verts {
		a := -math.Pi/2 + float64(i)*2*math.Pi/float64(sides)
		verts[i] = cp.Vector{X: math.Cos(a) * radius, Y: math.Sin(a) * radius}
	}
	return verts
}

// Step advances the simulation by dt, runs the spawner and copies body
// state into the registered entities.
func (w *World) Step(dt time.Duration) {
	if dt <= 0 {
		return
	}
	w.spawnWait += dt
	for w.spawnWait >= w.cfg.SpawnEvery {
		w.spawnWait -= w.cfg.SpawnEvery
		w.Spawn()
	}

	secs := dt.Seconds()
	if w.joint != nil {
		pos := w.mouse.Position()
		next := pos.Lerp(w.pointer, 0.5)
		w.mouse.SetVelocityVector(next.Sub(pos).Mult(1 / secs))
		w.mouse.SetPosition(next)
	}
	w.space.Step(secs)

	var escaped []*shape.Entity
	w.reg.Each(func(e *shape.Entity) bool {
		if e.Detached {
			return true
		}
		body, ok := w.bodies[e.BodyID]
		if !ok {
			return true
		}
		p := body.Position()
		e.Pos = zone.Point{X: p.X, Y: p.Y}
		e.Angle = body.Angle()
		e.Speed = body.Velocity().Length()
		if w.height > 0 && p.Y > w.height+escapeDepth {
			escaped = append(escaped, e)
		}
		return true
	})
	for _, e := range escaped {
		w.Destroy(e)
		w.reg.Remove(e)
	}
}

// Grab picks up the shape nearest to p, if any lies within the grab
// radius. Only one shape is held at a time.
func (w *World) Grab(p zone.Point) *shape.Entity {
	if w.joint != nil {
		return nil
	}
	at := cp.Vector{X: p.X, Y: p.Y}
	info := w.space.PointQueryNearest(at, w.cfg.GrabRadius, cp.SHAPE_FILTER_ALL)
	if info.Shape == nil {
		return nil
	}
	body := info.Shape.Body()
	id, ok := body.UserData.(shape.BodyID)
	if !ok || body.Mass() >= cp.INFINITY {
		return nil
	}
	e, ok := w.reg.FindByBodyID(id)
	if !ok || e.Detached {
		return nil
	}
	// Presses inside a shape pin it where it was pressed; near misses pin
	// the closest edge point.
	nearest := at
	if info.Distance > 0 {
		nearest = info.Point
	}
	w.pointer = at
	w.mouse.SetPosition(at)
	w.mouse.SetVelocityVector(cp.Vector{})
	w.joint = cp.NewPivotJoint2(w.mouse, body, cp.Vector{}, body.WorldToLocal(nearest))
	w.joint.SetMaxForce(dragMaxForce)
	w.joint.SetErrorBias(math.Pow(1.0-0.15, 60.0))
	w.space.AddConstraint(w.joint)
	w.held = e
	return e
}

// MoveTo updates the pointer the held shape follows.
func (w *World) MoveTo(p zone.Point) {
	w.pointer = cp.Vector{X: p.X, Y: p.Y}
}

// Release lets go of the held shape and returns it, or nil when nothing
// was held.
func (w *World) Release() *shape.Entity {
	if w.joint == nil {
		return nil
	}
	w.space.RemoveConstraint(w.joint)
	w.joint = nil
	e := w.held
	w.held = nil
	return e
}

// Held returns the shape currently being dragged.
func (w *World) Held() *shape.Entity {
	return w.held
}

// Detach removes e's body from the simulation but keeps the entity, so an
// animation can move it.
func (w *World) Detach(e *shape.Entity) {
	if e == nil {
		return
	}
	if w.held == e {
		w.Release()
	}
	body, ok := w.bodies[e.BodyID]
	if !ok {
		return
	}
	var shapes []*cp.Shape
	body.EachShape(func(s *cp.Shape) { shapes = append(shapes, s) })
	for _, s := range shapes {
		w.space.RemoveShape(s)
	}
	if w.space.ContainsBody(body) {
		w.space.RemoveBody(body)
	}
	e.Detached = true
}

// Destroy forgets e's body entirely.
func (w *World) Destroy(e *shape.Entity) {
	if e == nil {
		return
	}
	if !e.Detached {
		w.Detach(e)
	}
	delete(w.bodies, e.BodyID)
}

// Bodies returns the number of bodies the world still tracks.
func (w *World) Bodies() int {
	return len(w.bodies)
}
