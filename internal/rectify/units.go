package rectify

import "plate-tracker/pkg/geometry"

// Scale is a fixed conversion factor in centimeters per pixel, applied
// independently on each axis.
type Scale float64

// PixelsToCM converts a scalar pixel distance to centimeters.
func (s Scale) PixelsToCM(px float64) float64 {
	return px * float64(s)
}

// CMToPixels converts a scalar centimeter distance to pixels.
func (s Scale) CMToPixels(cm float64) float64 {
	return cm / float64(s)
}

// PixelsToPhysical converts a pixel-space point to centimeters.
func (s Scale) PixelsToPhysical(p geometry.Point2D) geometry.Point2D {
	return geometry.Point2D{X: s.PixelsToCM(p.X), Y: s.PixelsToCM(p.Y)}
}

// PhysicalToPixels converts a centimeter-space point to pixels.
func (s Scale) PhysicalToPixels(p geometry.Point2D) geometry.Point2D {
	return geometry.Point2D{X: s.CMToPixels(p.X), Y: s.CMToPixels(p.Y)}
}
