package detect

import (
	"plate-tracker/internal/rectify"
	"plate-tracker/pkg/colorutil"
)

// MarkerParams configures plate corner marker segmentation.
type MarkerParams struct {
	Threshold colorutil.Threshold `json:"threshold"`

	BlurKernel  int `json:"blur_kernel"`  // Median blur aperture (odd)
	CloseKernel int `json:"close_kernel"` // Morphological close kernel side

	// Contours with a smaller moment area are treated as noise.
	MinArea float64 `json:"min_area"`

	// Distance from each frame edge where the central exclusion cross starts.
	// Everything between ExclusionMargin and size-ExclusionMargin on either
	// axis is cleared from the mask so only the four corner regions remain.
	ExclusionMargin int `json:"exclusion_margin"`
}

// DefaultMarkerParams returns the marker segmentation defaults for a 450 px frame.
func DefaultMarkerParams() MarkerParams {
	return MarkerParams{
		Threshold:       colorutil.DefaultPlateThreshold(),
		BlurKernel:      5,
		CloseKernel:     5,
		MinArea:         200,
		ExclusionMargin: 120,
	}
}

// WithThreshold returns a copy of params with a different plate color range.
func (p MarkerParams) WithThreshold(t colorutil.Threshold) MarkerParams {
	p.Threshold = t
	return p
}

// BallParams configures the Hough circle ball detector.
type BallParams struct {
	// Border cropped from the rectified frame before the circle search so the
	// plate edge and markers are not mistaken for the ball.
	CropMargin int `json:"crop_margin"`
	BlurKernel int `json:"blur_kernel"`

	// Hough circle detection tuning
	HoughDP      float64 `json:"hough_dp"`
	HoughMinDist float64 `json:"hough_min_dist"` // Larger than the crop so only one circle is returned
	HoughParam1  float64 `json:"hough_param1"`   // Canny high threshold
	HoughParam2  float64 `json:"hough_param2"`   // Accumulator threshold

	// Physical ball bounds
	MinRadiusCM float64 `json:"min_radius_cm"`
	MaxRadiusCM float64 `json:"max_radius_cm"`

	// Half-width of the square capture window around the frame center.
	CaptureWindowCM float64 `json:"capture_window_cm"`

	// Calculated from the scale (set by WithScale)
	Scale               rectify.Scale `json:"-"`
	MinRadiusPixels     int           `json:"-"`
	MaxRadiusPixels     int           `json:"-"`
	CaptureWindowPixels float64       `json:"-"`
}

// DefaultBallParams returns the ball detection defaults, scaled for the
// default canonical frame.
func DefaultBallParams() BallParams {
	return BallParams{
		CropMargin:      30,
		BlurKernel:      5,
		HoughDP:         1,
		HoughMinDist:    500,
		HoughParam1:     60,
		HoughParam2:     20,
		MinRadiusCM:     0.75,
		MaxRadiusCM:     2.0,
		CaptureWindowCM: 9.5,
	}.WithScale(rectify.DefaultCanonical().Scale())
}

// WithScale returns a copy of params with pixel sizes calculated from the
// cm-per-pixel scale.
func (p BallParams) WithScale(scale rectify.Scale) BallParams {
	p.Scale = scale
	if scale > 0 {
		p.MinRadiusPixels = int(scale.CMToPixels(p.MinRadiusCM) + 0.5)
		p.MaxRadiusPixels = int(scale.CMToPixels(p.MaxRadiusCM) + 0.5)
		p.CaptureWindowPixels = scale.CMToPixels(p.CaptureWindowCM)

		// Ensure minimum values
		if p.MinRadiusPixels < 1 {
			p.MinRadiusPixels = 1
		}
		if p.MaxRadiusPixels < p.MinRadiusPixels {
			p.MaxRadiusPixels = p.MinRadiusPixels * 2
		}
	}
	return p
}

// WithRadiusRange returns a copy of params with a custom ball radius range in cm.
func (p BallParams) WithRadiusRange(minCM, maxCM float64) BallParams {
	p.MinRadiusCM = minCM
	p.MaxRadiusCM = maxCM
	if p.Scale > 0 {
		return p.WithScale(p.Scale)
	}
	return p
}
