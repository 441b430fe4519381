// Package config loads the session configuration and persists the live
// operator settings between runs.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"plate-tracker/internal/detect"
	"plate-tracker/internal/estimator"
	"plate-tracker/internal/rectify"
	"plate-tracker/internal/trajectory"
)

const maxFileSize = 1 * 1024 * 1024 // 1MB

// Config holds the constants of a tracking session. It is read once at
// startup; values the operator changes while running live in Preferences.
type Config struct {
	Canonical  rectify.Canonical `json:"canonical"`
	Detector   DetectorConfig    `json:"detector"`
	Estimator  estimator.Config  `json:"estimator"`
	Trajectory trajectory.Config `json:"trajectory"`
	Camera     CameraConfig      `json:"camera"`
	Telemetry  TelemetryConfig   `json:"telemetry"`
}

// DetectorConfig groups the marker and ball detector parameters.
type DetectorConfig struct {
	Marker detect.MarkerParams `json:"marker"`
	Ball   detect.BallParams   `json:"ball"`

	// BallPreview renders the ball threshold mask into each result.
	BallPreview bool `json:"ball_preview"`
}

// CameraConfig selects the capture device and how raw frames are prepared.
type CameraConfig struct {
	// Device is a webcam or USB index ("0", "1") or an IP camera URL.
	Device string `json:"device"`

	// Crop window applied to the raw frame, in raw pixels.
	CropX      int `json:"crop_x"`
	CropY      int `json:"crop_y"`
	CropWidth  int `json:"crop_width"`
	CropHeight int `json:"crop_height"`

	// Rotation applied after cropping: "none", "cw90", "ccw90" or "180".
	Rotate string `json:"rotate"`

	// SwapRB converts the capture's BGR order to RGB.
	SwapRB bool `json:"swap_rb"`

	TickInterval string `json:"tick_interval"` // duration string like "33ms"
}

// TelemetryConfig configures where results are published.
type TelemetryConfig struct {
	UDPAddr      string `json:"udp_addr,omitempty"`   // host:port for CSV datagrams
	RecordDir    string `json:"record_dir,omitempty"` // directory for CSV session recordings
	PlotOnExit   bool   `json:"plot_on_exit"`
	SettingsPoll string `json:"settings_poll"` // duration string like "1s"
}

// Default returns the configuration for the standard rig: an 18 cm plate
// seen by a 640x480 camera, cropped to 450x450 and rotated.
func Default() Config {
	canon := rectify.DefaultCanonical()
	traj := trajectory.DefaultConfig()
	traj.CMPerPixel = float64(canon.Scale())

	return Config{
		Canonical: canon,
		Detector: DetectorConfig{
			Marker: detect.DefaultMarkerParams(),
			Ball:   detect.DefaultBallParams(),
		},
		Estimator:  estimator.DefaultConfig(),
		Trajectory: traj,
		Camera: CameraConfig{
			Device:       "0",
			CropX:        95,
			CropY:        15,
			CropWidth:    450,
			CropHeight:   450,
			Rotate:       "ccw90",
			SwapRB:       true,
			TickInterval: "33ms",
		},
		Telemetry: TelemetryConfig{
			SettingsPoll: "1s",
		},
	}
}

// Load reads a JSON configuration file. Fields missing from the file keep
// their default values. Derived pixel sizes are recomputed from the
// canonical geometry.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := readJSONFile(path)
	if err != nil {
		return cfg, err
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	cfg = cfg.Resolve()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Resolve recomputes values derived from the canonical geometry.
func (c Config) Resolve() Config {
	scale := c.Canonical.Scale()
	c.Detector.Ball = c.Detector.Ball.WithScale(scale)
	c.Trajectory.CMPerPixel = float64(scale)
	return c
}

// Validate checks every section of the configuration.
func (c Config) Validate() error {
	if c.Canonical.FrameSize <= 0 || c.Canonical.PlateSideCM <= 0 {
		return fmt.Errorf("canonical frame size and plate side must be > 0")
	}
	if side := c.Canonical.SquareSide(); side <= 0 {
		return fmt.Errorf("canonical inset %d leaves no plate square in a %d px frame",
			c.Canonical.Inset, c.Canonical.FrameSize)
	}
	if err := c.Detector.Marker.Threshold.Validate(); err != nil {
		return fmt.Errorf("detector.marker.threshold: %w", err)
	}
	if c.Detector.Marker.BlurKernel > 1 && c.Detector.Marker.BlurKernel%2 == 0 {
		return fmt.Errorf("detector.marker.blur_kernel must be odd, got %d", c.Detector.Marker.BlurKernel)
	}
	if c.Detector.Ball.BlurKernel > 1 && c.Detector.Ball.BlurKernel%2 == 0 {
		return fmt.Errorf("detector.ball.blur_kernel must be odd, got %d", c.Detector.Ball.BlurKernel)
	}
	if c.Detector.Ball.MinRadiusCM <= 0 || c.Detector.Ball.MaxRadiusCM < c.Detector.Ball.MinRadiusCM {
		return fmt.Errorf("detector.ball radius range invalid: %g-%g cm",
			c.Detector.Ball.MinRadiusCM, c.Detector.Ball.MaxRadiusCM)
	}
	if err := c.Estimator.Validate(); err != nil {
		return fmt.Errorf("estimator: %w", err)
	}
	if err := c.Trajectory.Validate(); err != nil {
		return fmt.Errorf("trajectory: %w", err)
	}
	if _, err := c.Camera.Interval(); err != nil {
		return err
	}
	switch c.Camera.Rotate {
	case "", "none", "cw90", "ccw90", "180":
	default:
		return fmt.Errorf("camera.rotate must be none, cw90, ccw90 or 180, got %q", c.Camera.Rotate)
	}
	if c.Camera.CropWidth < 0 || c.Camera.CropHeight < 0 {
		return fmt.Errorf("camera crop size must be >= 0")
	}
	if _, err := c.Telemetry.PollInterval(); err != nil {
		return err
	}
	return nil
}

// Interval returns the tick period.
func (c CameraConfig) Interval() (time.Duration, error) {
	return parsePositiveDuration("camera.tick_interval", c.TickInterval)
}

// PollInterval returns how often the settings file is checked for changes.
func (c TelemetryConfig) PollInterval() (time.Duration, error) {
	return parsePositiveDuration("telemetry.settings_poll", c.SettingsPoll)
}

func parsePositiveDuration(name, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s '%s': %w", name, value, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", name, value)
	}
	return d, nil
}

// readJSONFile reads a small .json file.
func readJSONFile(path string) ([]byte, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return data, nil
}
