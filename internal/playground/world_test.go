package playground

import (
	"math/rand"
	"testing"
	"time"

	"github.com/jakecoffman/cp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bucketsort/internal/shape"
	"bucketsort/internal/zone"
)

const frame = time.Second / 60

func newWorld(t *testing.T, cfg Config) (*World, *shape.Registry) {
	t.Helper()
	reg := shape.NewRegistry()
	w := New(cfg, reg, rand.New(rand.NewSource(7)))
	w.Resize(800, 600)
	return w, reg
}

func run(w *World, frames int) {
	for i := 0; i < frames; i++ {
		w.Step(frame)
	}
}

func TestSpawn_RespectsMaxShapes(t *testing.T) {
	w, reg := newWorld(t, Config{MaxShapes: 3})
	for i := 0; i < 10; i++ {
		w.Spawn()
	}
	assert.Equal(t, 3, reg.Len())
	assert.Equal(t, 3, w.Bodies())
}

func TestSpawn_NeedsViewport(t *testing.T) {
	reg := shape.NewRegistry()
	w := New(Config{}, reg, nil)
	assert.Nil(t, w.Spawn())
	assert.Equal(t, 0, reg.Len())
}

func TestSpawnAt_RegistersEntity(t *testing.T) {
	w, reg := newWorld(t, Config{})
	class := shape.Class{Color: shape.Blue, Kind: shape.Triangle}
	e := w.SpawnAt(class, zone.Point{X: 400, Y: 100})

	require.NotNil(t, e)
	assert.True(t, reg.Contains(e))
	got, ok := reg.FindByBodyID(e.BodyID)
	require.True(t, ok)
	assert.Same(t, e, got)
	assert.Equal(t, class, e.Class)
	assert.Equal(t, 1.0, e.Size)
}

func TestStep_GravityPullsShapesDown(t *testing.T) {
	w, _ := newWorld(t, Config{SpawnEvery: time.Hour})
	e := w.SpawnAt(shape.Class{Color: shape.Red, Kind: shape.Circle}, zone.Point{X: 400, Y: 100})

	run(w, 10)
	assert.Greater(t, e.Pos.Y, 100.0)
	assert.Greater(t, e.Speed, 0.0)
}

func TestStep_FloorStopsShapes(t *testing.T) {
	w, _ := newWorld(t, Config{SpawnEvery: time.Hour})
	e := w.SpawnAt(shape.Class{Color: shape.Red, Kind: shape.Square}, zone.Point{X: 400, Y: 100})

	run(w, 240)
	assert.Less(t, e.Pos.Y, 600.0, "shape should rest on the floor")
	assert.Greater(t, e.Pos.Y, 500.0)
}

func TestStep_SpawnerAddsShapesOverTime(t *testing.T) {
	w, reg := newWorld(t, Config{SpawnEvery: 100 * time.Millisecond, MaxShapes: 50})
	run(w, 60)
	assert.InDelta(t, 10, reg.Len(), 1)
}

func TestGrab_MoveAndRelease(t *testing.T) {
	w, _ := newWorld(t, Config{SpawnEvery: time.Hour})
	e := w.SpawnAt(shape.Class{Color: shape.Blue, Kind: shape.Hexagon}, zone.Point{X: 400, Y: 300})

	assert.Nil(t, w.Grab(zone.Point{X: 50, Y: 50}), "nothing under the pointer")

	got := w.Grab(zone.Point{X: 400, Y: 300})
	require.Same(t, e, got)
	assert.Same(t, e, w.Held())
	assert.Nil(t, w.Grab(zone.Point{X: 400, Y: 300}), "only one shape at a time")

	w.MoveTo(zone.Point{X: 150, Y: 250})
	run(w, 60)
	assert.InDelta(t, 150, e.Pos.X, 30)
	assert.InDelta(t, 250, e.Pos.Y, 30)

	assert.Same(t, e, w.Release())
	assert.Nil(t, w.Held())
	assert.Nil(t, w.Release())
}

func TestDetach_FreezesEntity(t *testing.T) {
	w, reg := newWorld(t, Config{SpawnEvery: time.Hour})
	e := w.SpawnAt(shape.Class{Color: shape.Blue, Kind: shape.Circle}, zone.Point{X: 400, Y: 100})
	require.NotNil(t, w.Grab(zone.Point{X: 400, Y: 100}))

	w.Detach(e)
	assert.True(t, e.Detached)
	assert.Nil(t, w.Held(), "detaching the held shape lets go of it")

	e.Pos = zone.Point{X: 10, Y: 10}
	run(w, 10)
	assert.Equal(t, zone.Point{X: 10, Y: 10}, e.Pos, "physics must not move a detached shape")
	assert.True(t, reg.Contains(e))
	assert.Nil(t, w.Grab(zone.Point{X: 400, Y: 100}))

	w.Destroy(e)
	assert.Equal(t, 0, w.Bodies())
	w.Destroy(e)
}

func TestStep_DropsEscapedShapes(t *testing.T) {
	w, reg := newWorld(t, Config{SpawnEvery: time.Hour})
	e := w.SpawnAt(shape.Class{Color: shape.Red, Kind: shape.Circle}, zone.Point{X: 400, Y: 100})
	w.bodies[e.BodyID].SetPosition(cp.Vector{X: 400, Y: 600 + escapeDepth + 100})

	run(w, 1)
	assert.Equal(t, 0, reg.Len())
	assert.Equal(t, 0, w.Bodies())
}

func TestResize_IgnoresEmptyViewport(t *testing.T) {
	w, _ := newWorld(t, Config{})
	w.Resize(0, 0)
	width, height := w.Size()
	assert.Equal(t, 800.0, width)
	assert.Equal(t, 600.0, height)
}

func TestPolygon(t *testing.T) {
	assert.Len(t, polygon(shape.Triangle, 10), 3)
	assert.Len(t, polygon(shape.Hexagon, 10), 6)
}

func TestSpawnAt_GrabbableBeforeFirstStep(t *testing.T) {
	for _, kind := range shape.Kinds {
		t.Run(string(kind), func(t *testing.T) {
			w, _ := newWorld(t, Config{SpawnEvery: time.Hour})
			e := w.SpawnAt(shape.Class{Color: shape.Red, Kind: kind}, zone.Point{X: 620, Y: 410})

			assert.Nil(t, w.Grab(zone.Point{X: 0, Y: 0}), "no shape may linger at the origin")
			assert.Same(t, e, w.Grab(zone.Point{X: 620, Y: 410}))
		})
	}
}
