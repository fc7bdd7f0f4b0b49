package zone

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFor_AnchorsZonesToEdges(t *testing.T) {
	z := For(1280, 800)

	assert.Equal(t, 0.0, z.Primary.Left)
	assert.Equal(t, DefaultGeometry.Width, z.Primary.Right)
	assert.Equal(t, 1280-DefaultGeometry.Width, z.Secondary.Left)
	assert.Equal(t, 1280.0, z.Secondary.Right)
	assert.Equal(t, z.Primary.Top, z.Secondary.Top)
	assert.Equal(t, z.Primary.Bottom, z.Secondary.Bottom)
}

func TestFor_BandReachesUpperHalf(t *testing.T) {
	z := For(1280, 800)

	// A shape in the upper half on the correct side counts.
	assert.True(t, z.Primary.Contains(Point{X: 40, Y: 390}))
	assert.True(t, z.Secondary.Contains(Point{X: 1250, Y: 390}))
	// The middle of the screen belongs to neither zone.
	assert.False(t, z.Primary.Contains(Point{X: 640, Y: 480}))
	assert.False(t, z.Secondary.Contains(Point{X: 640, Y: 480}))
}

func TestFor_SameViewportSameZones(t *testing.T) {
	a := For(1024, 768)
	b := For(1024, 768)
	assert.Equal(t, a, b)

	c := For(800, 768)
	assert.NotEqual(t, a.Secondary, c.Secondary)
	assert.Equal(t, a.Primary, c.Primary)
}

func TestRect_ContainsIsInclusive(t *testing.T) {
	r := Rect{Left: 10, Top: 20, Right: 30, Bottom: 40}

	cases := []struct {
		p    Point
		want bool
	}{
		{Point{10, 20}, true},
		{Point{30, 40}, true},
		{Point{10, 40}, true},
		{Point{30, 20}, true},
		{Point{20, 30}, true},
		{Point{9.999, 30}, false},
		{Point{30.001, 30}, false},
		{Point{20, 19.5}, false},
		{Point{20, 40.5}, false},
	}
	for _, c := range cases {
		if got := r.Contains(c.p); got != c.want {
			t.Errorf("Contains(%v) = %v, want %v", c.p, got, c.want)
		}
	}
}

func TestZones_Sink(t *testing.T) {
	z := Geometry{Width: 200, AnchorFraction: 0.5, ReachAbove: 100, ReachBelow: 100}.For(1000, 600)

	assert.Equal(t, Point{X: 100, Y: 300}, z.Sink(Primary))
	assert.Equal(t, Point{X: 900, Y: 300}, z.Sink(Secondary))
	assert.Equal(t, Point{}, z.Sink(Name("nope")))
}
