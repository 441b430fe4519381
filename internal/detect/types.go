// Package detect finds the plate corner markers and the ball in camera frames.
package detect

import (
	"plate-tracker/internal/rectify"
	"plate-tracker/pkg/geometry"

	"gocv.io/x/gocv"
)

// Observation is a detected ball. Center is relative to the rectified frame
// center with the y axis pointing up, in pixels.
type Observation struct {
	Center geometry.Point2D `json:"center"`
	Radius float64          `json:"radius"`
}

// Outcome describes the result of one ball search.
type Outcome int

const (
	// OutcomeNone means no circle was found.
	OutcomeNone Outcome = iota
	// OutcomeFound means a circle was found inside the capture window.
	OutcomeFound
	// OutcomeOutlier means a circle was found outside the capture window and
	// discarded.
	OutcomeOutlier
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNone:
		return "none"
	case OutcomeFound:
		return "found"
	case OutcomeOutlier:
		return "outlier"
	default:
		return "unknown"
	}
}

// BallResult holds the outcome of a ball search. Raw keeps the candidate
// circle even when it was rejected as an outlier.
type BallResult struct {
	Outcome Outcome
	Raw     Observation
}

// Observation returns the accepted observation, or nil when the search missed
// or the candidate was rejected.
func (r BallResult) Observation() *Observation {
	if r.Outcome != OutcomeFound {
		return nil
	}
	obs := r.Raw
	return &obs
}

// CornerResult holds the corner markers found in one frame together with the
// segmentation mask that produced them.
type CornerResult struct {
	Corners    rectify.CornerSet
	Mask       gocv.Mat
	Candidates int // Contours that passed the area filter
}

// Close releases the mask.
func (r *CornerResult) Close() error {
	return r.Mask.Close()
}
