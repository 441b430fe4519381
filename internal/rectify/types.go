// Package rectify maps the camera's perspective view of the plate onto a
// canonical top-down square and converts between pixel and physical units.
package rectify

import (
	"plate-tracker/pkg/geometry"
)

// Corner identifies one of the four plate markers.
type Corner int

const (
	TopLeft Corner = iota
	TopRight
	BottomRight
	BottomLeft
)

func (c Corner) String() string {
	switch c {
	case TopLeft:
		return "top-left"
	case TopRight:
		return "top-right"
	case BottomRight:
		return "bottom-right"
	case BottomLeft:
		return "bottom-left"
	default:
		return "unknown"
	}
}

// CornerSet holds the four marker centroids ordered TL, TR, BR, BL.
// A corner whose quadrant produced no marker keeps the (0,0) default and
// Found[i] == false.
type CornerSet struct {
	Points [4]geometry.Point2D
	Found  [4]bool
}

// Set records a detected corner.
func (c *CornerSet) Set(corner Corner, p geometry.Point2D) {
	c.Points[corner] = p
	c.Found[corner] = true
}

// Count returns how many corners were found.
func (c CornerSet) Count() int {
	n := 0
	for _, f := range c.Found {
		if f {
			n++
		}
	}
	return n
}

// Complete reports whether all four corners were found.
func (c CornerSet) Complete() bool {
	return c.Count() == 4
}

// CalibrationStatus reports how trustworthy the homography of a tick is.
type CalibrationStatus int

const (
	// CalibrationOK means four corners formed a convex quadrilateral and the
	// transform was solved exactly.
	CalibrationOK CalibrationStatus = iota
	// CalibrationDegraded means the transform was computed from missing,
	// duplicate or non-convex corners. It is still applied.
	CalibrationDegraded
)

func (s CalibrationStatus) String() string {
	switch s {
	case CalibrationOK:
		return "ok"
	case CalibrationDegraded:
		return "degraded"
	default:
		return "unknown"
	}
}

// Canonical describes the fixed destination square of the rectification and
// the physical size it represents.
type Canonical struct {
	FrameSize   int     `json:"frame_size"`    // Side of the rectified frame (pixels)
	Inset       int     `json:"inset"`         // Distance of the marker square from the frame edge (pixels)
	PlateSideCM float64 `json:"plate_side_cm"` // Physical distance between marker centers (cm)
}

// DefaultCanonical returns the rig calibration: a 450 px frame whose marker
// centers land on a 360 px square spanning 18 cm of plate.
func DefaultCanonical() Canonical {
	return Canonical{
		FrameSize:   450,
		Inset:       45,
		PlateSideCM: 18,
	}
}

// Destination returns the fixed marker positions in the rectified frame,
// ordered TL, TR, BR, BL.
func (c Canonical) Destination() [4]geometry.Point2D {
	lo := float64(c.Inset)
	hi := float64(c.FrameSize - c.Inset)
	return [4]geometry.Point2D{
		{X: lo, Y: lo},
		{X: hi, Y: lo},
		{X: hi, Y: hi},
		{X: lo, Y: hi},
	}
}

// SquareSide returns the marker square side in pixels.
func (c Canonical) SquareSide() float64 {
	return float64(c.FrameSize - 2*c.Inset)
}

// Center returns the rectified frame center in pixels.
func (c Canonical) Center() geometry.Point2D {
	half := float64(c.FrameSize) / 2
	return geometry.Point2D{X: half, Y: half}
}

// Scale returns the centimeters-per-pixel factor implied by the square.
func (c Canonical) Scale() Scale {
	return Scale(c.PlateSideCM / c.SquareSide())
}
