package capture

import (
	"fmt"
	"image"

	"plate-tracker/internal/config"

	"gocv.io/x/gocv"
)

// Rotation is applied to the cropped frame.
type Rotation int

const (
	RotateNone Rotation = iota
	RotateCW90
	RotateCCW90
	Rotate180
)

// ParseRotation converts a config rotation name.
func ParseRotation(s string) (Rotation, error) {
	switch s {
	case "", "none":
		return RotateNone, nil
	case "cw90":
		return RotateCW90, nil
	case "ccw90":
		return RotateCCW90, nil
	case "180":
		return Rotate180, nil
	default:
		return RotateNone, fmt.Errorf("unknown rotation %q", s)
	}
}

// Preparer turns a raw BGR capture into the RGB frame the pipeline expects.
type Preparer struct {
	Crop   image.Rectangle // Empty means no crop
	Rotate Rotation
	SwapRB bool
}

// NewPreparer builds a Preparer from the camera configuration.
func NewPreparer(cfg config.CameraConfig) (Preparer, error) {
	rot, err := ParseRotation(cfg.Rotate)
	if err != nil {
		return Preparer{}, err
	}
	var crop image.Rectangle
	if cfg.CropWidth > 0 && cfg.CropHeight > 0 {
		crop = image.Rect(cfg.CropX, cfg.CropY, cfg.CropX+cfg.CropWidth, cfg.CropY+cfg.CropHeight)
	}
	return Preparer{Crop: crop, Rotate: rot, SwapRB: cfg.SwapRB}, nil
}

// Prepare crops, rotates and reorders channels. The caller owns the
// returned Mat.
func (p Preparer) Prepare(raw gocv.Mat) (gocv.Mat, error) {
	if raw.Empty() {
		return gocv.NewMat(), fmt.Errorf("empty frame")
	}

	bounds := image.Rect(0, 0, raw.Cols(), raw.Rows())
	crop := bounds
	if !p.Crop.Empty() {
		crop = p.Crop.Intersect(bounds)
		if crop.Empty() {
			return gocv.NewMat(), fmt.Errorf("crop %v outside %dx%d frame", p.Crop, raw.Cols(), raw.Rows())
		}
	}

	region := raw.Region(crop)
	cropped := region.Clone()
	region.Close()

	rotated := cropped
	if p.Rotate != RotateNone {
		rotated = gocv.NewMat()
		switch p.Rotate {
		case RotateCW90:
			gocv.Rotate(cropped, &rotated, gocv.Rotate90Clockwise)
		case RotateCCW90:
			gocv.Rotate(cropped, &rotated, gocv.Rotate90CounterClockwise)
		case Rotate180:
			gocv.Rotate(cropped, &rotated, gocv.Rotate180Clockwise)
		}
		cropped.Close()
	}

	if !p.SwapRB || rotated.Channels() != 3 {
		return rotated, nil
	}
	out := gocv.NewMat()
	gocv.CvtColor(rotated, &out, gocv.ColorBGRToRGB)
	rotated.Close()
	return out, nil
}
