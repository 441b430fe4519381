package geometry

import "math"

// IsConvex returns true if the polygon vertices form a convex polygon.
// Degenerate polygons (repeated or collinear vertices only) are not convex.
func IsConvex(polygon []Point2D) bool {
	if len(polygon) < 3 {
		return false
	}

	n := len(polygon)
	var sign int

	for i := 0; i < n; i++ {
		cross := crossProduct(
			polygon[i],
			polygon[(i+1)%n],
			polygon[(i+2)%n],
		)

		if cross != 0 {
			currentSign := 1
			if cross < 0 {
				currentSign = -1
			}

			if sign == 0 {
				sign = currentSign
			} else if currentSign != sign {
				return false
			}
		}
	}

	return sign != 0
}

// PolygonArea returns the signed shoelace area of a closed polygon.
// Counter-clockwise vertex order (in a y-up frame) yields a positive area.
func PolygonArea(polygon []Point2D) float64 {
	if len(polygon) < 3 {
		return 0
	}
	var sum float64
	n := len(polygon)
	for i := 0; i < n; i++ {
		p, q := polygon[i], polygon[(i+1)%n]
		sum += p.X*q.Y - q.X*p.Y
	}
	return sum / 2
}

// PolygonCentroid returns the area centroid of a closed polygon together with
// its absolute area. This matches the zeroth and first order contour moments
// (m00, m10/m00, m01/m00). Polygons with no area return ok == false.
func PolygonCentroid(polygon []Point2D) (centroid Point2D, area float64, ok bool) {
	signed := PolygonArea(polygon)
	if math.Abs(signed) < 1e-9 {
		return Point2D{}, 0, false
	}

	var cx, cy float64
	n := len(polygon)
	for i := 0; i < n; i++ {
		p, q := polygon[i], polygon[(i+1)%n]
		cross := p.X*q.Y - q.X*p.Y
		cx += (p.X + q.X) * cross
		cy += (p.Y + q.Y) * cross
	}
	k := 1.0 / (6 * signed)
	return Point2D{X: cx * k, Y: cy * k}, math.Abs(signed), true
}

// crossProduct computes the cross product of vectors OA and OB.
func crossProduct(o, a, b Point2D) float64 {
	return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
}
