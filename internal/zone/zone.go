package zone

// Name identifies one of the two drop zones.
type Name string

const (
	Primary   Name = "primary"
	Secondary Name = "secondary"
)

// Order is the fixed priority in which zones are judged.
var Order = [...]Name{Primary, Secondary}

// Point is a screen-space position in CSS pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is an axis-aligned screen rectangle.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
}

// Contains reports whether p lies inside r. All four edges are inclusive.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Left && p.X <= r.Right && p.Y >= r.Top && p.Y <= r.Bottom
}

// Center returns the midpoint of r.
func (r Rect) Center() Point {
	return Point{X: (r.Left + r.Right) / 2, Y: (r.Top + r.Bottom) / 2}
}

// Geometry controls how zones are laid out against the viewport.
//
// The band is deliberately tall: a shape that enters the upper half of the
// screen on the correct side already counts as being in the bucket, which
// hides the drift between physics and the 3D overlay.
type Geometry struct {
	Width          float64 `yaml:"width"`
	AnchorFraction float64 `yaml:"anchor_fraction"`
	ReachAbove     float64 `yaml:"reach_above"`
	ReachBelow     float64 `yaml:"reach_below"`
}

// DefaultGeometry matches the bucket placement of the 3D overlay.
var DefaultGeometry = Geometry{
	Width:          260,
	AnchorFraction: 0.6,
	ReachAbove:     420,
	ReachBelow:     600,
}

// Zones is the pair of drop zones for one viewport size.
type Zones struct {
	Primary   Rect `json:"primary"`
	Secondary Rect `json:"secondary"`
	// Anchor is the vertical position of the bucket mouths.
	Anchor float64 `json:"anchor"`
}

// For computes zones for a viewport using DefaultGeometry.
func For(width, height float64) Zones {
	return DefaultGeometry.For(width, height)
}

// For computes zones for a viewport. It has no side effects and must be
// called again whenever the viewport changes.
func (g Geometry) For(width, height float64) Zones {
	anchor := height * g.AnchorFraction
	top := anchor - g.ReachAbove
	bottom := anchor + g.ReachBelow
	return Zones{
		Primary: Rect{
			Left:   0,
			Top:    top,
			Right:  g.Width,
			Bottom: bottom,
		},
		Secondary: Rect{
			Left:   width - g.Width,
			Top:    top,
			Right:  width,
			Bottom: bottom,
		},
		Anchor: anchor,
	}
}

// Rect returns the rectangle for the named zone.
func (z Zones) Rect(name Name) (Rect, bool) {
	switch name {
	case Primary:
		return z.Primary, true
	case Secondary:
		return z.Secondary, true
	}
	return Rect{}, false
}

// Sink returns the point a credited shape is drawn into: the horizontal
// centre of the zone at the bucket mouth.
func (z Zones) Sink(name Name) Point {
	r, ok := z.Rect(name)
	if !ok {
		return Point{}
	}
	return Point{X: r.Center().X, Y: z.Anchor}
}
