package capture

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"gocv.io/x/gocv"
	_ "golang.org/x/image/tiff"
)

// Still replays one decoded image as an endless raw frame source.
type Still struct {
	Path  string
	frame gocv.Mat
}

// LoadStill decodes a PNG, JPEG or TIFF file into a BGR frame source.
func LoadStill(path string) (*Still, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	return &Still{Path: path, frame: imageToMat(img)}, nil
}

// Read copies the image into dst.
func (s *Still) Read(dst *gocv.Mat) bool {
	if s.frame.Empty() {
		return false
	}
	s.frame.CopyTo(dst)
	return true
}

// Close releases the image.
func (s *Still) Close() error {
	return s.frame.Close()
}

// Size returns the image width and height.
func (s *Still) Size() (int, int) {
	return s.frame.Cols(), s.frame.Rows()
}

// imageToMat converts a Go image to a BGR Mat, as a camera would deliver it.
func imageToMat(src image.Image) gocv.Mat {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	mat := gocv.NewMatWithSize(h, w, gocv.MatTypeCV8UC3)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := src.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			mat.SetUCharAt(y, x*3+0, uint8(b>>8))
			mat.SetUCharAt(y, x*3+1, uint8(g>>8))
			mat.SetUCharAt(y, x*3+2, uint8(r>>8))
		}
	}
	return mat
}

// SupportedFormats returns the still image extensions LoadStill accepts.
func SupportedFormats() []string {
	return []string{".tiff", ".tif", ".png", ".jpg", ".jpeg"}
}

// IsSupportedFormat checks if the given path has a supported image format.
func IsSupportedFormat(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, format := range SupportedFormats() {
		if ext == format {
			return true
		}
	}
	return false
}
