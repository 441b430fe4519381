package pipeline

import (
	"sync"
	"testing"

	"plate-tracker/internal/config"
	"plate-tracker/internal/trajectory"
	"plate-tracker/pkg/colorutil"
	"plate-tracker/pkg/geometry"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSettings() *Settings {
	return NewSettings(trajectory.DefaultConfig(), 450, config.DefaultPreferences())
}

func TestSettingsDefaults(t *testing.T) {
	snap := newSettings().Snapshot()
	assert.Equal(t, trajectory.PatternCenter, snap.Pattern)
	assert.Equal(t, 1, snap.Step)
	assert.Equal(t, 2.5, snap.RadiusLevel)
	assert.Equal(t, colorutil.DefaultPlateThreshold(), snap.PlateThreshold)
}

func TestSettingsValidation(t *testing.T) {
	s := newSettings()

	assert.Error(t, s.SetStep(4))
	assert.NoError(t, s.SetStep(3))
	assert.Error(t, s.SetRadiusLevel(1))
	assert.NoError(t, s.SetRadiusLevel(7.5))
	assert.Error(t, s.SetPlateThreshold(colorutil.Threshold{0, 0, 0, 256, 0, 0}))
	assert.NoError(t, s.SetBallThreshold(colorutil.Threshold{1, 2, 3, 4, 5, 6}))

	snap := s.Snapshot()
	assert.Equal(t, 3, snap.Step)
	assert.Equal(t, 7.5, snap.RadiusLevel)
	assert.Equal(t, colorutil.Threshold{1, 2, 3, 4, 5, 6}, snap.BallThreshold)
}

func TestSettingsClickOnlyInMouseMode(t *testing.T) {
	s := newSettings()

	assert.False(t, s.Click(geometry.Point2D{X: 325, Y: 125}))
	assert.Equal(t, geometry.Point2D{}, s.Snapshot().Pointer)

	s.SetPattern(trajectory.PatternMouse)
	assert.True(t, s.Click(geometry.Point2D{X: 325, Y: 125}))
	assert.Equal(t, geometry.Point2D{X: 100, Y: 100}, s.Snapshot().Pointer)

	// Outside the frame: ignored, previous pointer kept.
	assert.False(t, s.Click(geometry.Point2D{X: 500, Y: 10}))
	assert.Equal(t, geometry.Point2D{X: 100, Y: 100}, s.Snapshot().Pointer)
}

func TestSettingsApplyAndPreferences(t *testing.T) {
	s := newSettings()

	prefs := config.DefaultPreferences()
	prefs.Pattern = trajectory.PatternCircle
	prefs.Step = 2
	prefs.RadiusLevel = 5
	require.NoError(t, s.Apply(prefs))

	if diff := cmp.Diff(prefs, s.Preferences()); diff != "" {
		t.Errorf("preferences mismatch (-want +got):\n%s", diff)
	}

	bad := prefs
	bad.Step = 7
	assert.Error(t, s.Apply(bad))
	assert.Equal(t, 2, s.Snapshot().Step)
}

func TestSettingsConcurrentAccess(t *testing.T) {
	s := newSettings()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.SetJoystick(geometry.Point2D{X: float64(i), Y: float64(j)})
				s.SetPattern(trajectory.Patterns[j%len(trajectory.Patterns)])
				_ = s.Snapshot()
			}
		}(i)
	}
	wg.Wait()
}
