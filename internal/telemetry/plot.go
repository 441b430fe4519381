package telemetry

import (
	"fmt"
	"image/color"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

var (
	setpointColor = color.RGBA{R: 220, G: 50, B: 47, A: 255}
	positionColor = color.RGBA{R: 38, G: 139, B: 210, A: 255}
	errorXColor   = color.RGBA{R: 133, G: 153, B: 0, A: 255}
	errorYColor   = color.RGBA{R: 211, G: 54, B: 130, A: 255}
)

// series selects one value of a sample.
type series struct {
	label string
	color color.RGBA
	value func(Sample) float64
}

// PlotSession renders three charts of a recorded session into dir:
// <prefix>_error.png, <prefix>_x.png and <prefix>_y.png. It returns the
// files written.
func PlotSession(samples []Sample, dir, prefix string) ([]string, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("no samples to plot")
	}

	charts := []struct {
		suffix string
		title  string
		lines  []series
	}{
		{"error", "Tracking error", []series{
			{"error x", errorXColor, func(s Sample) float64 { return s.Error.X }},
			{"error y", errorYColor, func(s Sample) float64 { return s.Error.Y }},
		}},
		{"x", "X axis", []series{
			{"setpoint x", setpointColor, func(s Sample) float64 { return s.Setpoint.X }},
			{"position x", positionColor, func(s Sample) float64 { return s.Position.X }},
		}},
		{"y", "Y axis", []series{
			{"setpoint y", setpointColor, func(s Sample) float64 { return s.Setpoint.Y }},
			{"position y", positionColor, func(s Sample) float64 { return s.Position.Y }},
		}},
	}

	var files []string
	for _, c := range charts {
		p := plot.New()
		p.Title.Text = c.title
		p.X.Label.Text = "time (s)"
		p.Y.Label.Text = "cm"

		for _, s := range c.lines {
			pts := make(plotter.XYs, len(samples))
			for i, sample := range samples {
				pts[i] = plotter.XY{X: sample.Elapsed, Y: s.value(sample)}
			}
			line, err := plotter.NewLine(pts)
			if err != nil {
				return files, fmt.Errorf("%s: %w", s.label, err)
			}
			line.Color = s.color
			line.Width = vg.Points(1)
			p.Add(line)
			p.Legend.Add(s.label, line)
		}
		p.Add(plotter.NewGrid())
		p.Legend.Top = true
		p.Legend.Left = false
		p.Legend.XOffs = -10
		p.Legend.YOffs = -10

		path := filepath.Join(dir, fmt.Sprintf("%s_%s.png", prefix, c.suffix))
		if err := p.Save(10*vg.Inch, 4*vg.Inch, path); err != nil {
			return files, fmt.Errorf("save %s: %w", path, err)
		}
		files = append(files, path)
	}
	return files, nil
}
