package pipeline

import (
	"fmt"
	"image"
	"image/color"

	"plate-tracker/internal/detect"
	"plate-tracker/internal/estimator"
	"plate-tracker/pkg/colorutil"
	"plate-tracker/pkg/geometry"

	"gocv.io/x/gocv"
)

// Annotate returns a copy of the rectified frame with the capture window,
// the raw detection, the estimate and the setpoint drawn on it. The caller
// owns the returned Mat, which is empty when the result has no rectified
// frame.
func Annotate(res *Result, captureWindow float64) gocv.Mat {
	out := gocv.NewMat()
	if res == nil || res.Rectified.Empty() {
		return out
	}
	res.Rectified.CopyTo(&out)

	size := out.Cols()
	toImage := func(p geometry.Point2D) image.Point {
		img := detect.ToImage(p, size)
		return image.Pt(int(img.X+0.5), int(img.Y+0.5))
	}

	if captureWindow > 0 {
		tl := toImage(geometry.Point2D{X: -captureWindow, Y: captureWindow})
		br := toImage(geometry.Point2D{X: captureWindow, Y: -captureWindow})
		gocv.Rectangle(&out, image.Rectangle{Min: tl, Max: br}, rgb(colorutil.Blue), 1)
	}

	if res.Ball.Outcome != detect.OutcomeNone {
		c := rgb(colorutil.Cyan)
		if res.Ball.Outcome == detect.OutcomeOutlier {
			c = rgb(colorutil.Magenta)
		}
		gocv.Circle(&out, toImage(res.Ball.Raw.Center), int(res.Ball.Raw.Radius+0.5), c, 1)
	}

	if res.Estimate.Status == estimator.StatusTracking || res.Estimate.Status == estimator.StatusCoasting {
		center := toImage(res.Estimate.Position)
		r := int(res.Estimate.Radius + 0.5)
		if r < 3 {
			r = 3
		}
		gocv.Circle(&out, center, r, rgb(colorutil.Green), 2)
		tip := toImage(res.Estimate.Position.Add(res.Estimate.Velocity.Scale(10)))
		gocv.Line(&out, center, tip, rgb(colorutil.Green), 1)
	}

	drawCross(&out, toImage(res.Setpoint), 6, rgb(colorutil.Red))

	label := fmt.Sprintf("%s  err %.2f, %.2f cm", res.Estimate.Status, res.ErrorCM.X, res.ErrorCM.Y)
	gocv.PutText(&out, label, image.Pt(8, 18), gocv.FontHersheyPlain, 1.0, rgb(colorutil.Yellow), 1)

	return out
}

// rgb swaps red and blue so overlay colors come out right on RGB frames;
// gocv maps color.RGBA to BGR scalars.
func rgb(c color.RGBA) color.RGBA {
	return color.RGBA{R: c.B, G: c.G, B: c.R, A: c.A}
}

func drawCross(m *gocv.Mat, at image.Point, arm int, c color.RGBA) {
	gocv.Line(m, image.Pt(at.X-arm, at.Y), image.Pt(at.X+arm, at.Y), c, 2)
	gocv.Line(m, image.Pt(at.X, at.Y-arm), image.Pt(at.X, at.Y+arm), c, 2)
}
