// Package colorutil provides shared color utilities for the plate tracker.
package colorutil

import (
	"fmt"
	"image/color"

	"gocv.io/x/gocv"
)

// Common overlay colors used throughout the application.
var (
	Black   = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	White   = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Cyan    = color.RGBA{R: 0, G: 255, B: 255, A: 255}
	Magenta = color.RGBA{R: 255, G: 0, B: 255, A: 255}
	Blue    = color.RGBA{R: 0, G: 0, B: 255, A: 255}
	Green   = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	Yellow  = color.RGBA{R: 255, G: 255, B: 0, A: 255}
	Red     = color.RGBA{R: 255, G: 0, B: 0, A: 255}
)

// Threshold is an inclusive per-channel color range in the frame's channel
// order: low C0, C1, C2 followed by high C0, C1, C2.
type Threshold [6]int

// DefaultPlateThreshold matches the plate corner markers under the rig lighting.
func DefaultPlateThreshold() Threshold {
	return Threshold{0, 178, 0, 255, 255, 218}
}

// DefaultBallThreshold is the ball color range. It is only used for the
// operator-facing mask preview; detection runs on the Hough transform.
func DefaultBallThreshold() Threshold {
	return Threshold{0, 0, 145, 0, 0, 255}
}

// Validate checks that every bound is a byte value.
func (t Threshold) Validate() error {
	for i, v := range t {
		if v < 0 || v > 255 {
			return fmt.Errorf("threshold[%d] = %d out of range 0-255", i, v)
		}
	}
	return nil
}

// Lower returns the low bounds as a gocv.Scalar.
func (t Threshold) Lower() gocv.Scalar {
	return gocv.NewScalar(float64(t[0]), float64(t[1]), float64(t[2]), 0)
}

// Upper returns the high bounds as a gocv.Scalar.
func (t Threshold) Upper() gocv.Scalar {
	return gocv.NewScalar(float64(t[3]), float64(t[4]), float64(t[5]), 0)
}

// Contains reports whether a pixel with the given channel values is inside the range.
func (t Threshold) Contains(c0, c1, c2 uint8) bool {
	v := [3]int{int(c0), int(c1), int(c2)}
	for i := 0; i < 3; i++ {
		if v[i] < t[i] || v[i] > t[i+3] {
			return false
		}
	}
	return true
}
