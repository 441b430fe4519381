package pipeline

import (
	"fmt"
	"sync"

	"plate-tracker/internal/config"
	"plate-tracker/internal/trajectory"
	"plate-tracker/pkg/colorutil"
	"plate-tracker/pkg/geometry"
)

// Settings holds the values an operator may change while the pipeline runs.
// Writers may be on any goroutine; the pipeline reads one consistent
// Snapshot at the start of each tick.
type Settings struct {
	mu sync.RWMutex

	traj      trajectory.Config
	frameSize int

	plateThreshold colorutil.Threshold
	ballThreshold  colorutil.Threshold
	pattern        trajectory.Pattern
	step           int
	radiusLevel    float64
	pointer        geometry.Point2D
	joystick       geometry.Point2D
}

// Snapshot is an immutable copy of Settings taken once per tick.
type Snapshot struct {
	PlateThreshold colorutil.Threshold
	BallThreshold  colorutil.Threshold
	Pattern        trajectory.Pattern
	Step           int
	RadiusLevel    float64
	Pointer        geometry.Point2D
	JoystickSample geometry.Point2D
}

// NewSettings creates settings initialised from stored preferences.
// frameSize is the rectified frame side used to map pointer clicks.
func NewSettings(traj trajectory.Config, frameSize int, prefs config.Preferences) *Settings {
	return &Settings{
		traj:           traj,
		frameSize:      frameSize,
		plateThreshold: prefs.PlateThreshold,
		ballThreshold:  prefs.BallThreshold,
		pattern:        prefs.Pattern,
		step:           prefs.Step,
		radiusLevel:    prefs.RadiusLevel,
	}
}

// Snapshot returns the current values.
func (s *Settings) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		PlateThreshold: s.plateThreshold,
		BallThreshold:  s.ballThreshold,
		Pattern:        s.pattern,
		Step:           s.step,
		RadiusLevel:    s.radiusLevel,
		Pointer:        s.pointer,
		JoystickSample: s.joystick,
	}
}

// Preferences returns the persistable part of the settings.
func (s *Settings) Preferences() config.Preferences {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return config.Preferences{
		PlateThreshold: s.plateThreshold,
		BallThreshold:  s.ballThreshold,
		Pattern:        s.pattern,
		Step:           s.step,
		RadiusLevel:    s.radiusLevel,
	}
}

// Apply replaces the persistable settings after validating them.
func (s *Settings) Apply(p config.Preferences) error {
	if err := p.Validate(s.traj); err != nil {
		return err
	}
	s.mu.Lock()
	s.plateThreshold = p.PlateThreshold
	s.ballThreshold = p.BallThreshold
	s.pattern = p.Pattern
	s.step = p.Step
	s.radiusLevel = p.RadiusLevel
	s.mu.Unlock()
	return nil
}

// SetPlateThreshold changes the marker color range.
func (s *Settings) SetPlateThreshold(t colorutil.Threshold) error {
	if err := t.Validate(); err != nil {
		return fmt.Errorf("plate threshold: %w", err)
	}
	s.mu.Lock()
	s.plateThreshold = t
	s.mu.Unlock()
	return nil
}

// SetBallThreshold changes the ball preview color range.
func (s *Settings) SetBallThreshold(t colorutil.Threshold) error {
	if err := t.Validate(); err != nil {
		return fmt.Errorf("ball threshold: %w", err)
	}
	s.mu.Lock()
	s.ballThreshold = t
	s.mu.Unlock()
	return nil
}

// SetPattern selects the setpoint pattern. The change takes effect on the
// next tick.
func (s *Settings) SetPattern(p trajectory.Pattern) {
	s.mu.Lock()
	s.pattern = p
	s.mu.Unlock()
}

// SetStep changes the pattern speed step.
func (s *Settings) SetStep(step int) error {
	if !s.traj.ValidStep(step) {
		return fmt.Errorf("step %d not in %v", step, s.traj.Steps)
	}
	s.mu.Lock()
	s.step = step
	s.mu.Unlock()
	return nil
}

// SetRadiusLevel changes the circle radius in cm.
func (s *Settings) SetRadiusLevel(level float64) error {
	if !s.traj.ValidRadius(level) {
		return fmt.Errorf("radius level %g cm not in %v", level, s.traj.RadiusLevels)
	}
	s.mu.Lock()
	s.radiusLevel = level
	s.mu.Unlock()
	return nil
}

// Click sets the pointer from a click in rectified-image pixels. Clicks are
// only accepted in mouse mode and inside the frame.
func (s *Settings) Click(p geometry.Point2D) bool {
	pointer, ok := trajectory.PointerFromImage(p, s.frameSize)
	if !ok {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pattern != trajectory.PatternMouse {
		return false
	}
	s.pointer = pointer
	return true
}

// SetJoystick records the latest raw joystick sample in centered pixels.
func (s *Settings) SetJoystick(p geometry.Point2D) {
	s.mu.Lock()
	s.joystick = p
	s.mu.Unlock()
}
