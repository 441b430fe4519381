package trajectory

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"plate-tracker/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func assertPoint(t *testing.T, want, got geometry.Point2D, msgAndArgs ...interface{}) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, 1e-9, msgAndArgs...)
	assert.InDelta(t, want.Y, got.Y, 1e-9, msgAndArgs...)
}

func TestSetpointCenter(t *testing.T) {
	p := DefaultParams()
	for _, s := range []float64{0, 1.7, 123} {
		assert.Equal(t, geometry.Point2D{}, Setpoint(seconds(s), p, DefaultConfig()))
	}
}

func TestSetpointSquareCycle(t *testing.T) {
	cfg := DefaultConfig()
	p := DefaultParams()
	p.Pattern = PatternSquare

	tests := []struct {
		t    float64
		want geometry.Point2D
	}{
		{0, geometry.Point2D{X: -90, Y: -90}},
		{3.99, geometry.Point2D{X: -90, Y: -90}},
		{4, geometry.Point2D{X: 90, Y: -90}},
		{8.5, geometry.Point2D{X: 90, Y: 90}},
		{12, geometry.Point2D{X: -90, Y: 90}},
		{16, geometry.Point2D{X: -90, Y: -90}},
		{20.1, geometry.Point2D{X: 90, Y: -90}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Setpoint(seconds(tt.t), p, cfg), "t=%v", tt.t)
	}
}

func TestSetpointCircle(t *testing.T) {
	cfg := DefaultConfig()
	p := DefaultParams()
	p.Pattern = PatternCircle
	p.Step = 2
	p.RadiusLevel = 5.0

	// One revolution every 3 s at step 2.
	assertPoint(t, geometry.Point2D{X: 100, Y: 0}, Setpoint(0, p, cfg), "t=0")
	assertPoint(t, geometry.Point2D{X: -100, Y: 0}, Setpoint(seconds(1.5), p, cfg), "t=1.5")
	assertPoint(t, geometry.Point2D{X: 100, Y: 0}, Setpoint(seconds(3), p, cfg), "t=3")
	assertPoint(t, geometry.Point2D{X: 0, Y: 100}, Setpoint(seconds(0.75), p, cfg), "t=0.75")
}

func TestSetpointCircleRadiusLevels(t *testing.T) {
	cfg := DefaultConfig()
	p := DefaultParams()
	p.Pattern = PatternCircle

	for level, want := range map[float64]float64{2.5: 50, 5.0: 100, 7.5: 150} {
		p.RadiusLevel = level
		sp := Setpoint(0, p, cfg)
		assert.InDelta(t, want, sp.X, 1e-9, "level %v", level)
	}
}

func TestSetpointLissajous(t *testing.T) {
	cfg := DefaultConfig()
	p := DefaultParams()
	p.Pattern = PatternLissajous
	p.Step = 1

	assertPoint(t, geometry.Point2D{X: 120, Y: 0}, Setpoint(0, p, cfg))
	// t=1: x = 120 cos(π/4), y = 80 sin(π/2)
	assertPoint(t, geometry.Point2D{X: 120 * math.Cos(math.Pi/4), Y: 80}, Setpoint(seconds(1), p, cfg))

	for s := 0.0; s < 10; s += 0.37 {
		sp := Setpoint(seconds(s), p, cfg)
		assert.LessOrEqual(t, math.Abs(sp.X), 120.0+1e-9)
		assert.LessOrEqual(t, math.Abs(sp.Y), 80.0+1e-9)
	}
}

func TestSetpointPointerAndJoystick(t *testing.T) {
	cfg := DefaultConfig()
	p := DefaultParams()
	p.Pointer = geometry.Point2D{X: 12, Y: -40}
	p.Joystick = geometry.Point2D{X: -3, Y: 7}

	p.Pattern = PatternMouse
	assert.Equal(t, p.Pointer, Setpoint(seconds(5), p, cfg))

	p.Pattern = PatternJoystick
	assert.Equal(t, p.Joystick, Setpoint(seconds(5), p, cfg))
}

func TestSetpointSwitchIsInstant(t *testing.T) {
	cfg := DefaultConfig()
	p := DefaultParams()
	p.Pattern = PatternSquare
	elapsed := seconds(4.5)

	assert.Equal(t, geometry.Point2D{X: 90, Y: -90}, Setpoint(elapsed, p, cfg))
	p.Pattern = PatternCenter
	assert.Equal(t, geometry.Point2D{}, Setpoint(elapsed, p, cfg))
}

func TestParsePattern(t *testing.T) {
	for _, p := range Patterns {
		got, err := ParsePattern(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}

	got, err := ParsePattern("  Lissajous ")
	require.NoError(t, err)
	assert.Equal(t, PatternLissajous, got)

	_, err = ParsePattern("spiral")
	assert.Error(t, err)
	assert.Equal(t, "Pattern(42)", Pattern(42).String())
}

func TestPatternJSON(t *testing.T) {
	var v struct {
		Pattern Pattern `json:"pattern"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"pattern":"circle"}`), &v))
	assert.Equal(t, PatternCircle, v.Pattern)

	out, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{"pattern":"circle"}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"pattern":3}`), &v))
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.True(t, cfg.ValidStep(2))
	assert.False(t, cfg.ValidStep(4))
	assert.True(t, cfg.ValidRadius(7.5))
	assert.False(t, cfg.ValidRadius(3))

	cfg.SquareDwell = 0
	assert.Error(t, cfg.Validate())
}

func TestJoystickFilter(t *testing.T) {
	var f JoystickFilter
	assert.Equal(t, geometry.Point2D{}, f.Mean())

	f.Push(geometry.Point2D{X: 3, Y: 3})
	assert.Equal(t, geometry.Point2D{X: 3, Y: 3}, f.Mean())

	f.Push(geometry.Point2D{X: 6, Y: 0})
	f.Push(geometry.Point2D{X: 9, Y: -3})
	assert.Equal(t, geometry.Point2D{X: 6, Y: 0}, f.Mean())

	// The oldest sample drops out.
	f.Push(geometry.Point2D{X: 0, Y: 0})
	assert.Equal(t, 3, f.Len())
	assert.Equal(t, geometry.Point2D{X: 5, Y: -1}, f.Mean())
}

func TestPointerFromImage(t *testing.T) {
	tests := []struct {
		click geometry.Point2D
		want  geometry.Point2D
		ok    bool
	}{
		{geometry.Point2D{X: 225, Y: 225}, geometry.Point2D{}, true},
		{geometry.Point2D{X: 325, Y: 125}, geometry.Point2D{X: 100, Y: 100}, true},
		{geometry.Point2D{X: 25, Y: 400}, geometry.Point2D{X: -200, Y: -175}, true},
		{geometry.Point2D{X: 0, Y: 100}, geometry.Point2D{}, false},
		{geometry.Point2D{X: 100, Y: 450}, geometry.Point2D{}, false},
		{geometry.Point2D{X: -5, Y: 500}, geometry.Point2D{}, false},
	}
	for _, tt := range tests {
		got, ok := PointerFromImage(tt.click, 450)
		assert.Equal(t, tt.ok, ok, "%v", tt.click)
		assert.Equal(t, tt.want, got, "%v", tt.click)
	}
}
