package trajectory

import (
	"fmt"
	"math"
	"time"

	"plate-tracker/pkg/geometry"
)

// Config holds the fixed pattern geometry in centered pixels.
type Config struct {
	SquareHalfSide   float64   `json:"square_half_side"`  // Square corners at ±this on both axes
	SquareDwell      float64   `json:"square_dwell"`      // Seconds spent at each square corner
	LissajousX       float64   `json:"lissajous_x"`       // Lissajous x amplitude
	LissajousY       float64   `json:"lissajous_y"`       // Lissajous y amplitude
	CircleDivisor    float64   `json:"circle_divisor"`    // Circle angular rate is step/divisor·π rad/s
	LissajousDivisor float64   `json:"lissajous_divisor"` // Lissajous base rate is step/divisor·π rad/s
	Steps            []int     `json:"steps"`             // Allowed speed steps
	RadiusLevels     []float64 `json:"radius_levels_cm"`  // Allowed circle radii in cm
	CMPerPixel       float64   `json:"-"`                 // Set from the canonical geometry
}

// DefaultConfig returns the pattern geometry used on the 18 cm plate.
func DefaultConfig() Config {
	return Config{
		SquareHalfSide:   90,
		SquareDwell:      4,
		LissajousX:       120,
		LissajousY:       80,
		CircleDivisor:    3,
		LissajousDivisor: 4,
		Steps:            []int{1, 2, 3},
		RadiusLevels:     []float64{2.5, 5.0, 7.5},
		CMPerPixel:       0.05,
	}
}

// Validate checks that the pattern geometry is usable.
func (c Config) Validate() error {
	if c.SquareDwell <= 0 {
		return fmt.Errorf("square_dwell must be > 0, got %g", c.SquareDwell)
	}
	if c.CircleDivisor <= 0 || c.LissajousDivisor <= 0 {
		return fmt.Errorf("pattern divisors must be > 0")
	}
	if len(c.Steps) == 0 {
		return fmt.Errorf("at least one step is required")
	}
	if len(c.RadiusLevels) == 0 {
		return fmt.Errorf("at least one radius level is required")
	}
	if c.CMPerPixel <= 0 {
		return fmt.Errorf("cm per pixel must be > 0, got %g", c.CMPerPixel)
	}
	return nil
}

// ValidStep reports whether step is one of the allowed speed steps.
func (c Config) ValidStep(step int) bool {
	for _, s := range c.Steps {
		if s == step {
			return true
		}
	}
	return false
}

// ValidRadius reports whether level is one of the allowed circle radii.
func (c Config) ValidRadius(level float64) bool {
	for _, r := range c.RadiusLevels {
		if r == level {
			return true
		}
	}
	return false
}

// Params are the operator-controlled inputs, read once per tick.
type Params struct {
	Pattern     Pattern
	Step        int
	RadiusLevel float64          // Circle radius in cm
	Pointer     geometry.Point2D // Last accepted click
	Joystick    geometry.Point2D // Smoothed joystick position
}

// DefaultParams returns the startup parameters: centered, slowest step,
// smallest circle.
func DefaultParams() Params {
	return Params{
		Pattern:     PatternCenter,
		Step:        1,
		RadiusLevel: 2.5,
	}
}

// Setpoint returns the target position for the given time since the
// session started.
func Setpoint(elapsed time.Duration, p Params, cfg Config) geometry.Point2D {
	t := elapsed.Seconds()
	step := float64(p.Step)

	switch p.Pattern {
	case PatternCenter:
		return geometry.Point2D{}
	case PatternMouse:
		return p.Pointer
	case PatternJoystick:
		return p.Joystick
	case PatternSquare:
		return squareCorner(t, cfg)
	case PatternCircle:
		r := p.RadiusLevel / cfg.CMPerPixel
		w := step / cfg.CircleDivisor * math.Pi
		return geometry.Point2D{X: r * math.Cos(w*t), Y: r * math.Sin(w*t)}
	case PatternLissajous:
		w := step / cfg.LissajousDivisor * math.Pi
		return geometry.Point2D{
			X: cfg.LissajousX * math.Cos(w*t),
			Y: cfg.LissajousY * math.Sin(2*w*t),
		}
	default:
		return geometry.Point2D{}
	}
}

// squareCorner visits (-h,-h), (h,-h), (h,h), (-h,h) in turn.
func squareCorner(t float64, cfg Config) geometry.Point2D {
	h := cfg.SquareHalfSide
	corners := [4]geometry.Point2D{
		{X: -h, Y: -h},
		{X: h, Y: -h},
		{X: h, Y: h},
		{X: -h, Y: h},
	}
	if t < 0 {
		t = 0
	}
	idx := int(math.Floor(t/cfg.SquareDwell)) % 4
	return corners[idx]
}
