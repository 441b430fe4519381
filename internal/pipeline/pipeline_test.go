package pipeline

import (
	"image"
	"image/color"
	"math"
	"testing"
	"time"

	"plate-tracker/internal/config"
	"plate-tracker/internal/detect"
	"plate-tracker/internal/estimator"
	"plate-tracker/internal/rectify"
	"plate-tracker/internal/timeutil"
	"plate-tracker/internal/trajectory"
	"plate-tracker/pkg/colorutil"
	"plate-tracker/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

var (
	markerColor     = color.RGBA{R: 0, G: 210, B: 0, A: 255}
	markerThreshold = colorutil.Threshold{0, 200, 0, 80, 255, 80}
	t0              = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
)

// syntheticFrame draws the four plate markers at their canonical positions
// (so rectification is close to identity) and optionally the ball at a
// centered, y-up position. Corners listed in skip are left out.
func syntheticFrame(t *testing.T, ball *geometry.Point2D, skip ...rectify.Corner) gocv.Mat {
	t.Helper()
	canon := rectify.DefaultCanonical()
	m := gocv.NewMatWithSize(canon.FrameSize, canon.FrameSize, gocv.MatTypeCV8UC3)
	m.SetTo(gocv.NewScalar(0, 0, 0, 0))

	dst := canon.Destination()
	for i, p := range dst {
		skipped := false
		for _, s := range skip {
			if rectify.Corner(i) == s {
				skipped = true
			}
		}
		if !skipped {
			gocv.Circle(&m, image.Pt(int(p.X), int(p.Y)), 12, markerColor, -1)
		}
	}

	if ball != nil {
		c := detect.ToImage(*ball, canon.FrameSize)
		gocv.Circle(&m, image.Pt(int(c.X), int(c.Y)), 25, colorutil.White, -1)
	}
	return m
}

func newTestPipeline(t *testing.T) (*Pipeline, *Settings) {
	t.Helper()
	cfg := config.Default()
	prefs := config.DefaultPreferences()
	prefs.PlateThreshold = markerThreshold
	settings := NewSettings(cfg.Trajectory, cfg.Canonical.FrameSize, prefs)
	return New(cfg, settings, timeutil.NewMockClock(t0)), settings
}

func TestTickEndToEnd(t *testing.T) {
	p, _ := newTestPipeline(t)

	offset := geometry.Point2D{X: 40, Y: 30}
	frame := syntheticFrame(t, &offset)
	defer frame.Close()

	res, err := p.Tick(frame, t0)
	require.NoError(t, err)
	defer res.Close()

	assert.Equal(t, uint64(1), res.Seq)
	assert.Equal(t, p.Session(), res.Session)
	assert.Equal(t, time.Duration(0), res.Elapsed)
	assert.True(t, res.Corners.Complete())
	assert.Equal(t, rectify.CalibrationOK, res.Calibration)

	require.NotNil(t, res.Observation)
	assert.Equal(t, estimator.StatusTracking, res.Estimate.Status)
	assert.InDelta(t, 40, res.Estimate.Position.X, 1.5)
	assert.InDelta(t, 30, res.Estimate.Position.Y, 1.5)

	// Center pattern: the error is the negated offset.
	assert.Equal(t, trajectory.PatternCenter, res.Pattern)
	assert.Equal(t, geometry.Point2D{}, res.Setpoint)
	assert.InDelta(t, -40, res.Error.X, 1.5)
	assert.InDelta(t, -30, res.Error.Y, 1.5)
	assert.InDelta(t, -2.0, res.ErrorCM.X, 0.08)
	assert.InDelta(t, -1.5, res.ErrorCM.Y, 0.08)
	assert.InDelta(t, 2.0, res.PositionCM.X, 0.08)
	assert.InDelta(t, 1.5, res.PositionCM.Y, 0.08)

	assert.Equal(t, 450, res.Rectified.Rows())
	assert.Equal(t, 450, res.Rectified.Cols())
	assert.False(t, res.Mask.Empty())
	assert.True(t, res.BallMask.Empty())
}

func TestTickNoFrameLeavesStateUntouched(t *testing.T) {
	p, _ := newTestPipeline(t)

	empty := gocv.NewMat()
	defer empty.Close()
	res, err := p.Tick(empty, t0)
	assert.ErrorIs(t, err, ErrNoFrame)
	assert.Nil(t, res)

	frame := syntheticFrame(t, nil)
	defer frame.Close()
	res, err = p.Tick(frame, t0.Add(time.Second))
	require.NoError(t, err)
	defer res.Close()

	assert.Equal(t, uint64(1), res.Seq)
	assert.Equal(t, time.Duration(0), res.Elapsed)
	assert.Equal(t, 1, res.Estimate.Misses)
}

func TestTickWithoutBall(t *testing.T) {
	p, _ := newTestPipeline(t)
	frame := syntheticFrame(t, nil)
	defer frame.Close()

	res, err := p.Tick(frame, t0)
	require.NoError(t, err)
	defer res.Close()

	assert.Nil(t, res.Observation)
	assert.Equal(t, estimator.StatusSearching, res.Estimate.Status)
	assert.Equal(t, geometry.Point2D{}, res.Estimate.Position)
	assert.Equal(t, geometry.Point2D{}, res.Error)
}

func TestTickTrackingLostAndReacquired(t *testing.T) {
	p, _ := newTestPipeline(t)

	var lost, acquired int
	p.On(EventTrackingLost, func(interface{}) { lost++ })
	p.On(EventTrackingAcquired, func(interface{}) { acquired++ })

	ball := geometry.Point2D{X: -50, Y: 20}
	withBall := syntheticFrame(t, &ball)
	defer withBall.Close()
	withoutBall := syntheticFrame(t, nil)
	defer withoutBall.Close()

	now := t0
	tick := func(frame gocv.Mat) *Result {
		res, err := p.Tick(frame, now)
		require.NoError(t, err)
		now = now.Add(33 * time.Millisecond)
		return res
	}

	tick(withBall).Close()
	assert.Equal(t, 1, acquired)

	for i := 1; i <= 25; i++ {
		res := tick(withoutBall)
		if i <= 20 {
			assert.Equal(t, estimator.StatusCoasting, res.Estimate.Status, "miss %d", i)
			assert.False(t, res.Estimate.Position.IsZero(), "miss %d", i)
		} else {
			assert.Equal(t, estimator.StatusLost, res.Estimate.Status, "miss %d", i)
			assert.Equal(t, geometry.Point2D{}, res.PositionCM, "miss %d", i)
			assert.Equal(t, geometry.Point2D{}, res.VelocityCM, "miss %d", i)
		}
		res.Close()
	}
	assert.Equal(t, 1, lost)

	res := tick(withBall)
	defer res.Close()
	assert.Equal(t, estimator.StatusTracking, res.Estimate.Status)
	assert.Equal(t, 2, acquired)
}

func TestTickCalibrationTransitions(t *testing.T) {
	p, _ := newTestPipeline(t)

	var degraded, restored int
	p.On(EventCalibrationDegraded, func(interface{}) { degraded++ })
	p.On(EventCalibrationRestored, func(interface{}) { restored++ })

	partial := syntheticFrame(t, nil, rectify.BottomLeft)
	defer partial.Close()
	full := syntheticFrame(t, nil)
	defer full.Close()

	for i := 0; i < 3; i++ {
		res, err := p.Tick(partial, t0)
		require.NoError(t, err)
		assert.Equal(t, rectify.CalibrationDegraded, res.Calibration)
		assert.Equal(t, 3, res.Corners.Count())
		assert.False(t, res.Rectified.Empty())
		res.Close()
	}
	assert.Equal(t, 1, degraded)

	res, err := p.Tick(full, t0)
	require.NoError(t, err)
	res.Close()
	assert.Equal(t, rectify.CalibrationOK, res.Calibration)
	assert.Equal(t, 1, restored)
}

func TestTickNoMarkersStillProducesResult(t *testing.T) {
	p, _ := newTestPipeline(t)
	frame := gocv.NewMatWithSize(450, 450, gocv.MatTypeCV8UC3)
	defer frame.Close()
	frame.SetTo(gocv.NewScalar(0, 0, 0, 0))

	res, err := p.Tick(frame, t0)
	require.NoError(t, err)
	defer res.Close()

	assert.Equal(t, 0, res.Corners.Count())
	assert.Equal(t, rectify.CalibrationDegraded, res.Calibration)
	for _, v := range res.Homography {
		assert.False(t, math.IsNaN(v), "homography must not contain NaN")
	}
}

func TestTickSetpointFollowsPatternAndTime(t *testing.T) {
	p, settings := newTestPipeline(t)
	settings.SetPattern(trajectory.PatternSquare)

	frame := syntheticFrame(t, nil)
	defer frame.Close()

	want := []geometry.Point2D{
		{X: -90, Y: -90},
		{X: 90, Y: -90},
		{X: 90, Y: 90},
		{X: -90, Y: 90},
	}
	for i, w := range want {
		res, err := p.Tick(frame, t0.Add(time.Duration(i)*4*time.Second))
		require.NoError(t, err)
		assert.Equal(t, w, res.Setpoint, "tick %d", i)
		assert.Equal(t, geometry.Point2D{X: w.X * 0.05, Y: w.Y * 0.05}, res.SetpointCM)
		res.Close()
	}

	// Switching pattern takes effect on the very next tick.
	settings.SetPattern(trajectory.PatternCenter)
	res, err := p.Tick(frame, t0.Add(17*time.Second))
	require.NoError(t, err)
	defer res.Close()
	assert.Equal(t, geometry.Point2D{}, res.Setpoint)
}

func TestTickJoystickIsSmoothed(t *testing.T) {
	p, settings := newTestPipeline(t)
	settings.SetPattern(trajectory.PatternJoystick)

	frame := syntheticFrame(t, nil)
	defer frame.Close()

	var last geometry.Point2D
	for _, x := range []float64{30, 60, 90} {
		settings.SetJoystick(geometry.Point2D{X: x})
		res, err := p.Tick(frame, t0)
		require.NoError(t, err)
		last = res.Setpoint
		res.Close()
	}
	assert.Equal(t, geometry.Point2D{X: 60}, last)
}

func TestTickBallPreview(t *testing.T) {
	cfg := config.Default()
	cfg.Detector.BallPreview = true
	prefs := config.DefaultPreferences()
	prefs.PlateThreshold = markerThreshold
	prefs.BallThreshold = colorutil.Threshold{200, 200, 200, 255, 255, 255}
	p := New(cfg, NewSettings(cfg.Trajectory, cfg.Canonical.FrameSize, prefs), nil)

	ball := geometry.Point2D{}
	frame := syntheticFrame(t, &ball)
	defer frame.Close()

	res, err := p.Tick(frame, t0)
	require.NoError(t, err)
	defer res.Close()

	require.False(t, res.BallMask.Empty())
	assert.Equal(t, uint8(255), res.BallMask.GetUCharAt(225, 225))
}

type recordingSink struct {
	seqs []uint64
}

func (s *recordingSink) Publish(r *Result) error {
	s.seqs = append(s.seqs, r.Seq)
	return nil
}

func TestAddSink(t *testing.T) {
	p, _ := newTestPipeline(t)
	sink := &recordingSink{}
	p.AddSink("test", sink)

	frame := syntheticFrame(t, nil)
	defer frame.Close()
	for i := 0; i < 3; i++ {
		res, err := p.Tick(frame, t0)
		require.NoError(t, err)
		res.Close()
	}
	assert.Equal(t, []uint64{1, 2, 3}, sink.seqs)
}

func TestAnnotate(t *testing.T) {
	p, _ := newTestPipeline(t)
	ball := geometry.Point2D{X: 40, Y: 30}
	frame := syntheticFrame(t, &ball)
	defer frame.Close()

	res, err := p.Tick(frame, t0)
	require.NoError(t, err)
	defer res.Close()

	out := Annotate(res, p.Config().Detector.Ball.CaptureWindowPixels)
	defer out.Close()
	assert.Equal(t, res.Rectified.Rows(), out.Rows())
	assert.Equal(t, res.Rectified.Cols(), out.Cols())

	empty := Annotate(nil, 0)
	defer empty.Close()
	assert.True(t, empty.Empty())
}
