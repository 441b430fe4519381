package pipeline

import (
	"time"

	"plate-tracker/internal/detect"
	"plate-tracker/internal/estimator"
	"plate-tracker/internal/rectify"
	"plate-tracker/internal/trajectory"
	"plate-tracker/pkg/geometry"

	"github.com/google/uuid"
	"gocv.io/x/gocv"
)

// Result is everything produced by one tick. Pixel values are centered,
// y-up rectified pixels; velocity is per tick.
type Result struct {
	Session uuid.UUID
	Seq     uint64
	Time    time.Time
	Elapsed time.Duration // Since the first tick of the session

	Corners     rectify.CornerSet
	Calibration rectify.CalibrationStatus
	Homography  geometry.Homography

	Ball        detect.BallResult
	Observation *detect.Observation // nil on a miss or outlier
	Estimate    estimator.Estimate

	Pattern  trajectory.Pattern
	Setpoint geometry.Point2D
	Error    geometry.Point2D // Setpoint minus estimated position

	PositionCM geometry.Point2D
	VelocityCM geometry.Point2D
	SetpointCM geometry.Point2D
	ErrorCM    geometry.Point2D

	Mask      gocv.Mat // Plate marker mask of the input frame
	Rectified gocv.Mat // Canonical top-down view
	BallMask  gocv.Mat // Ball threshold preview, empty unless enabled

	ProcessingTime time.Duration
}

// Close releases the result's images.
func (r *Result) Close() {
	if r == nil {
		return
	}
	closeMat(&r.Mask)
	closeMat(&r.Rectified)
	closeMat(&r.BallMask)
}

func closeMat(m *gocv.Mat) {
	if m.Ptr() != nil {
		m.Close()
	}
}
