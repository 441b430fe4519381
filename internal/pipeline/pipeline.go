// Package pipeline runs the per-frame sequence: corner detection,
// rectification, ball detection, state estimation and setpoint generation.
package pipeline

import (
	"errors"
	"log"
	"sync"
	"time"

	"plate-tracker/internal/config"
	"plate-tracker/internal/detect"
	"plate-tracker/internal/estimator"
	"plate-tracker/internal/rectify"
	"plate-tracker/internal/timeutil"
	"plate-tracker/internal/trajectory"
	"plate-tracker/pkg/geometry"

	"github.com/google/uuid"
	"gocv.io/x/gocv"
)

// ErrNoFrame is returned by Tick when there is no image to process. The
// estimator is not advanced.
var ErrNoFrame = errors.New("no frame available")

// EventType identifies pipeline events.
type EventType int

const (
	EventResult EventType = iota
	EventTrackingAcquired
	EventTrackingLost
	EventCalibrationDegraded
	EventCalibrationRestored
)

// EventListener is called synchronously from Tick. Listeners for
// EventResult receive the *Result and must not keep its images after they
// return.
type EventListener func(data interface{})

// Sink receives every result.
type Sink interface {
	Publish(r *Result) error
}

// Pipeline owns the estimator and turns one frame into one Result. Tick must
// be called from a single goroutine.
type Pipeline struct {
	cfg      config.Config
	settings *Settings
	clock    timeutil.Clock
	session  uuid.UUID

	tracker  *estimator.Tracker
	joystick trajectory.JoystickFilter

	seq         uint64
	start       time.Time
	calibration rectify.CalibrationStatus
	status      estimator.Status

	mu        sync.RWMutex
	listeners map[EventType][]EventListener
}

// New creates a pipeline for the given session configuration. A nil
// settings starts from the default preferences; a nil clock uses the wall
// clock.
func New(cfg config.Config, settings *Settings, clock timeutil.Clock) *Pipeline {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	cfg = cfg.Resolve()
	if settings == nil {
		settings = NewSettings(cfg.Trajectory, cfg.Canonical.FrameSize, config.DefaultPreferences())
	}
	return &Pipeline{
		cfg:       cfg,
		settings:  settings,
		clock:     clock,
		session:   uuid.New(),
		tracker:   estimator.NewTracker(cfg.Estimator),
		status:    estimator.StatusSearching,
		listeners: make(map[EventType][]EventListener),
	}
}

// Session returns the identifier shared by all results of this pipeline.
func (p *Pipeline) Session() uuid.UUID {
	return p.session
}

// Settings returns the live settings.
func (p *Pipeline) Settings() *Settings {
	return p.settings
}

// Config returns the resolved session configuration.
func (p *Pipeline) Config() config.Config {
	return p.cfg
}

// On registers an event listener for the specified event type.
func (p *Pipeline) On(event EventType, listener EventListener) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners[event] = append(p.listeners[event], listener)
}

// AddSink publishes every result to s. Publish errors are logged.
func (p *Pipeline) AddSink(name string, s Sink) {
	p.On(EventResult, func(data interface{}) {
		if err := s.Publish(data.(*Result)); err != nil {
			log.Printf("Pipeline: %s sink: %v", name, err)
		}
	})
}

func (p *Pipeline) emit(event EventType, data interface{}) {
	p.mu.RLock()
	listeners := p.listeners[event]
	p.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}

// Tick processes one prepared RGB frame. The caller owns the returned
// Result and must Close it. Stage failures degrade the result instead of
// failing the tick; only a missing frame is an error.
func (p *Pipeline) Tick(frame gocv.Mat, now time.Time) (*Result, error) {
	if frame.Empty() {
		return nil, ErrNoFrame
	}
	begin := p.clock.Now()

	if p.seq == 0 {
		p.start = now
	}
	p.seq++

	snap := p.settings.Snapshot()
	canon := p.cfg.Canonical
	scale := canon.Scale()

	res := &Result{
		Session:  p.session,
		Seq:      p.seq,
		Time:     now,
		Elapsed:  now.Sub(p.start),
		Pattern:  snap.Pattern,
		BallMask: gocv.NewMat(),
	}

	// Corners and rectification
	markerParams := p.cfg.Detector.Marker.WithThreshold(snap.PlateThreshold)
	corners, err := detect.DetectCorners(frame, markerParams)
	if err != nil {
		log.Printf("Pipeline: corner detection failed: %v", err)
		corners = &detect.CornerResult{Mask: gocv.NewMat()}
	}
	res.Corners = corners.Corners
	res.Mask = corners.Mask

	rect, err := rectify.Rectify(frame, corners.Corners, canon)
	if err != nil {
		log.Printf("Pipeline: rectification failed: %v", err)
		res.Rectified = gocv.NewMat()
		res.Homography = geometry.IdentityHomography()
		res.Calibration = rectify.CalibrationDegraded
	} else {
		res.Rectified = rect.Image
		res.Homography = rect.Homography
		res.Calibration = rect.Status
	}
	p.noteCalibration(res.Calibration, res.Corners.Count())

	// Ball
	if !res.Rectified.Empty() {
		ball, err := detect.DetectBall(res.Rectified, p.cfg.Detector.Ball)
		if err != nil {
			log.Printf("Pipeline: ball detection failed: %v", err)
		} else {
			res.Ball = ball
			res.Observation = ball.Observation()
		}
		if p.cfg.Detector.BallPreview {
			res.BallMask.Close()
			res.BallMask = detect.ColorMask(res.Rectified, snap.BallThreshold,
				p.cfg.Detector.Ball.BlurKernel, 0)
		}
	}

	res.Estimate = p.tracker.Update(res.Observation)
	p.noteTracking(res.Estimate)

	// Setpoint
	p.joystick.Push(snap.JoystickSample)
	params := trajectory.Params{
		Pattern:     snap.Pattern,
		Step:        snap.Step,
		RadiusLevel: snap.RadiusLevel,
		Pointer:     snap.Pointer,
		Joystick:    p.joystick.Mean(),
	}
	res.Setpoint = trajectory.Setpoint(res.Elapsed, params, p.cfg.Trajectory)
	res.Error = res.Setpoint.Sub(res.Estimate.Position)

	res.PositionCM = scale.PixelsToPhysical(res.Estimate.Position)
	res.VelocityCM = scale.PixelsToPhysical(res.Estimate.Velocity)
	res.SetpointCM = scale.PixelsToPhysical(res.Setpoint)
	res.ErrorCM = scale.PixelsToPhysical(res.Error)

	res.ProcessingTime = p.clock.Since(begin)

	p.emit(EventResult, res)
	return res, nil
}

// noteCalibration logs and emits calibration transitions.
func (p *Pipeline) noteCalibration(status rectify.CalibrationStatus, found int) {
	if status == p.calibration {
		return
	}
	p.calibration = status
	if status == rectify.CalibrationDegraded {
		log.Printf("Pipeline: calibration degraded (%d/4 corners found)", found)
		p.emit(EventCalibrationDegraded, found)
		return
	}
	log.Printf("Pipeline: calibration restored")
	p.emit(EventCalibrationRestored, found)
}

// noteTracking logs and emits tracking transitions.
func (p *Pipeline) noteTracking(est estimator.Estimate) {
	prev := p.status
	p.status = est.Status

	switch {
	case est.Status == estimator.StatusLost && prev != estimator.StatusLost:
		log.Printf("Pipeline: tracking lost (%d consecutive misses)", est.Misses)
		p.emit(EventTrackingLost, est)
	case est.Status == estimator.StatusTracking &&
		(prev == estimator.StatusLost || prev == estimator.StatusSearching):
		log.Printf("Pipeline: tracking acquired at (%.1f, %.1f)", est.Position.X, est.Position.Y)
		p.emit(EventTrackingAcquired, est)
	}
}
