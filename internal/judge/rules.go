package judge

import (
	"time"

	"bucketsort/internal/session"
	"bucketsort/internal/shape"
	"bucketsort/internal/zone"
)

// Rules decide which classification each zone accepts.
type Rules struct {
	// TargetColor is accepted by the primary zone.
	TargetColor shape.Color `yaml:"target_color"`
	// TargetKind is accepted by the secondary zone.
	TargetKind shape.Kind `yaml:"target_kind"`
}

// DefaultRules pair the blue bucket with triangles.
var DefaultRules = Rules{TargetColor: shape.Blue, TargetKind: shape.Triangle}

// Accepts reports whether a shape of class c belongs in the named zone.
func (r Rules) Accepts(name zone.Name, c shape.Class) bool {
	switch name {
	case zone.Primary:
		return c.Color == r.TargetColor
	case zone.Secondary:
		return c.Kind == r.TargetKind
	}
	return false
}

// Config tunes timing and animation. Zero fields take defaults.
type Config struct {
	Rules    Rules
	Geometry zone.Geometry

	DurationSeconds int
	TargetCount     int

	// Countdown is the interval between timer ticks.
	Countdown time.Duration
	// WinDelay lets the last removal animation play before the game UI hides.
	WinDelay time.Duration
	// RemovalStep is the animation progress added per frame.
	RemovalStep float64
}

const (
	DefaultWinDelay    = 600 * time.Millisecond
	DefaultRemovalStep = 0.05
)

func (c Config) withDefaults() Config {
	if c.Rules == (Rules{}) {
		c.Rules = DefaultRules
	}
	if c.Geometry == (zone.Geometry{}) {
		c.Geometry = zone.DefaultGeometry
	}
	if c.DurationSeconds <= 0 {
		c.DurationSeconds = session.DefaultDurationSeconds
	}
	if c.TargetCount <= 0 {
		c.TargetCount = session.DefaultTargetCount
	}
	if c.Countdown <= 0 {
		c.Countdown = time.Second
	}
	if c.WinDelay <= 0 {
		c.WinDelay = DefaultWinDelay
	}
	if c.RemovalStep <= 0 || c.RemovalStep > 1 {
		c.RemovalStep = DefaultRemovalStep
	}
	return c
}
