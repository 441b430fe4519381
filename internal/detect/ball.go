package detect

import (
	"fmt"
	"image"
	"math"

	"plate-tracker/pkg/geometry"

	"gocv.io/x/gocv"
)

// DetectBall searches a rectified frame for the ball with the Hough circle
// transform. Only the strongest circle is considered. Its center is returned
// relative to the frame center with y pointing up; circles outside the
// capture window are reported as outliers.
func DetectBall(rectified gocv.Mat, params BallParams) (BallResult, error) {
	if rectified.Empty() {
		return BallResult{}, fmt.Errorf("empty image")
	}
	if params.MinRadiusPixels <= 0 || params.MaxRadiusPixels <= 0 {
		return BallResult{}, fmt.Errorf("invalid radius parameters: min=%d, max=%d (set scale first)",
			params.MinRadiusPixels, params.MaxRadiusPixels)
	}

	rows, cols := rectified.Rows(), rectified.Cols()
	margin := params.CropMargin
	if margin < 0 || 2*margin >= rows || 2*margin >= cols {
		margin = 0
	}

	// Search only the plate interior
	interior := rectified.Region(image.Rect(margin, margin, cols-margin, rows-margin))
	defer interior.Close()

	blurred := gocv.NewMat()
	defer blurred.Close()
	if params.BlurKernel > 1 {
		gocv.MedianBlur(interior, &blurred, params.BlurKernel)
	} else {
		interior.CopyTo(&blurred)
	}

	gray := gocv.NewMat()
	defer gray.Close()
	if blurred.Channels() == 1 {
		blurred.CopyTo(&gray)
	} else {
		gocv.CvtColor(blurred, &gray, gocv.ColorRGBToGray)
	}

	circles := gocv.NewMat()
	defer circles.Close()

	gocv.HoughCirclesWithParams(gray, &circles, gocv.HoughGradient,
		params.HoughDP, params.HoughMinDist,
		params.HoughParam1, params.HoughParam2,
		params.MinRadiusPixels, params.MaxRadiusPixels)

	if circles.Empty() || circles.Cols() == 0 {
		return BallResult{Outcome: OutcomeNone}, nil
	}

	// Circles are sorted by accumulator votes; the first is the strongest.
	x := float64(circles.GetFloatAt(0, 0)) + float64(margin)
	y := float64(circles.GetFloatAt(0, 1)) + float64(margin)
	radius := float64(circles.GetFloatAt(0, 2))

	raw := Observation{
		Center: geometry.Point2D{
			X: x - float64(cols)/2,
			Y: float64(rows)/2 - y,
		},
		Radius: radius,
	}

	if !InCaptureWindow(raw.Center, params.CaptureWindowPixels) {
		return BallResult{Outcome: OutcomeOutlier, Raw: raw}, nil
	}
	return BallResult{Outcome: OutcomeFound, Raw: raw}, nil
}

// InCaptureWindow reports whether a centered point lies strictly inside the
// square window of the given half-width.
func InCaptureWindow(p geometry.Point2D, halfWidth float64) bool {
	return math.Abs(p.X) < halfWidth && math.Abs(p.Y) < halfWidth
}

// ToImage converts a centered, y-up point back to rectified image pixels.
func ToImage(p geometry.Point2D, frameSize int) geometry.Point2D {
	half := float64(frameSize) / 2
	return geometry.Point2D{X: p.X + half, Y: half - p.Y}
}

// FromImage converts rectified image pixels to centered, y-up coordinates.
func FromImage(p geometry.Point2D, frameSize int) geometry.Point2D {
	half := float64(frameSize) / 2
	return geometry.Point2D{X: p.X - half, Y: half - p.Y}
}
