package trajectory

import "plate-tracker/pkg/geometry"

// JoystickWindow is the number of samples averaged by JoystickFilter.
const JoystickWindow = 3

// JoystickFilter smooths raw joystick samples with a moving mean.
type JoystickFilter struct {
	samples [JoystickWindow]geometry.Point2D
	next    int
	count   int
}

// Push adds a sample, evicting the oldest once the window is full.
func (f *JoystickFilter) Push(p geometry.Point2D) {
	f.samples[f.next] = p
	f.next = (f.next + 1) % JoystickWindow
	if f.count < JoystickWindow {
		f.count++
	}
}

// Mean returns the average of the samples held, or (0,0) when empty.
func (f *JoystickFilter) Mean() geometry.Point2D {
	if f.count == 0 {
		return geometry.Point2D{}
	}
	var sum geometry.Point2D
	for i := 0; i < f.count; i++ {
		sum = sum.Add(f.samples[i])
	}
	n := float64(f.count)
	return geometry.Point2D{X: sum.X / n, Y: sum.Y / n}
}

// Len returns the number of samples held.
func (f *JoystickFilter) Len() int {
	return f.count
}

// PointerFromImage maps a click in rectified-image pixels to centered, y-up
// coordinates. Clicks on or outside the frame border are rejected.
func PointerFromImage(click geometry.Point2D, frameSize int) (geometry.Point2D, bool) {
	size := float64(frameSize)
	if click.X <= 0 || click.Y <= 0 || click.X >= size || click.Y >= size {
		return geometry.Point2D{}, false
	}
	half := size / 2
	return geometry.Point2D{X: click.X - half, Y: half - click.Y}, true
}
