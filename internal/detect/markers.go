package detect

import (
	"fmt"
	"image"

	"plate-tracker/internal/rectify"
	"plate-tracker/pkg/colorutil"
	"plate-tracker/pkg/geometry"

	"gocv.io/x/gocv"
)

// DetectCorners segments the plate markers by color and returns one centroid
// per quadrant, ordered TL, TR, BR, BL. Quadrants without a marker keep the
// (0,0) default. The caller owns the returned mask.
func DetectCorners(frame gocv.Mat, params MarkerParams) (*CornerResult, error) {
	if frame.Empty() {
		return nil, fmt.Errorf("empty image")
	}

	mask := ColorMask(frame, params.Threshold, params.BlurKernel, params.CloseKernel)
	clearExclusionCross(&mask, params.ExclusionMargin)

	result := &CornerResult{Mask: mask}

	contours := gocv.FindContours(mask, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	centerX := float64(frame.Cols()) / 2
	centerY := float64(frame.Rows()) / 2

	// Largest marker wins when a quadrant has several candidates.
	var bestArea [4]float64
	for i := 0; i < contours.Size(); i++ {
		pts := contours.At(i).ToPoints()
		polygon := make([]geometry.Point2D, len(pts))
		for j, p := range pts {
			polygon[j] = geometry.Point2D{X: float64(p.X), Y: float64(p.Y)}
		}

		centroid, area, ok := geometry.PolygonCentroid(polygon)
		if !ok || area <= params.MinArea {
			continue
		}
		result.Candidates++

		corner := quadrant(centroid, centerX, centerY)
		if area > bestArea[corner] {
			bestArea[corner] = area
			result.Corners.Set(corner, centroid)
		}
	}

	return result, nil
}

// ColorMask thresholds a frame against a color range after a median blur and
// closes small gaps with a square kernel. The caller owns the returned mask.
func ColorMask(frame gocv.Mat, threshold colorutil.Threshold, blurKernel, closeKernel int) gocv.Mat {
	blurred := gocv.NewMat()
	defer blurred.Close()
	if blurKernel > 1 {
		gocv.MedianBlur(frame, &blurred, blurKernel)
	} else {
		frame.CopyTo(&blurred)
	}

	mask := gocv.NewMat()
	gocv.InRangeWithScalar(blurred, threshold.Lower(), threshold.Upper(), &mask)

	if closeKernel > 1 {
		kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Point{closeKernel, closeKernel})
		defer kernel.Close()
		gocv.MorphologyEx(mask, &mask, gocv.MorphClose, kernel)
	}

	return mask
}

// clearExclusionCross zeroes the central horizontal and vertical bands of the
// mask so that only the four corner regions can hold markers.
func clearExclusionCross(mask *gocv.Mat, margin int) {
	rows, cols := mask.Rows(), mask.Cols()
	if margin <= 0 || 2*margin >= rows || 2*margin >= cols {
		return
	}

	for _, r := range []image.Rectangle{
		image.Rect(margin, 0, cols-margin, rows), // vertical band
		image.Rect(0, margin, cols, rows-margin), // horizontal band
	} {
		band := mask.Region(r)
		band.SetTo(gocv.NewScalar(0, 0, 0, 0))
		band.Close()
	}
}

// quadrant classifies a centroid relative to the frame center.
func quadrant(p geometry.Point2D, centerX, centerY float64) rectify.Corner {
	if p.X < centerX {
		if p.Y < centerY {
			return rectify.TopLeft
		}
		return rectify.BottomLeft
	}
	if p.Y < centerY {
		return rectify.TopRight
	}
	return rectify.BottomRight
}
