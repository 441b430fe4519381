// Command tracktest runs the tracking pipeline on a still image and prints
// the per-tick results.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"plate-tracker/internal/capture"
	"plate-tracker/internal/config"
	"plate-tracker/internal/pipeline"
	"plate-tracker/internal/rectify"
	"plate-tracker/internal/trajectory"

	"gocv.io/x/gocv"
)

func main() {
	imagePath := flag.String("image", "", "Path to a camera frame (TIFF, PNG, or JPEG)")
	configPath := flag.String("config", "", "Session config (.json)")
	ticks := flag.Int("ticks", 5, "Number of ticks to run")
	pattern := flag.String("pattern", "center", "Setpoint pattern")
	raw := flag.Bool("raw", true, "Image is a raw camera frame that needs crop/rotate/BGR->RGB")
	annotated := flag.String("out", "", "Write the annotated rectified frame of the last tick to this file")
	flag.Parse()

	if *imagePath == "" {
		fmt.Println("Usage: tracktest -image <path> [-config rig.json] [-ticks 5] [-pattern center] [-out annotated.png]")
		os.Exit(1)
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	still, err := capture.LoadStill(*imagePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	defer still.Close()

	w, h := still.Size()
	fmt.Printf("Loaded image: %dx%d pixels\n", w, h)

	prep := capture.Preparer{SwapRB: true}
	if *raw {
		prep, err = capture.NewPreparer(cfg.Camera)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid camera config: %v\n", err)
			os.Exit(1)
		}
	}

	pat, err := trajectory.ParsePattern(*pattern)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	settings := pipeline.NewSettings(cfg.Trajectory, cfg.Canonical.FrameSize, config.DefaultPreferences())
	settings.SetPattern(pat)
	p := pipeline.New(cfg, settings, nil)

	ball := p.Config().Detector.Ball
	fmt.Printf("\nDetection parameters:\n")
	fmt.Printf("  Plate threshold: %v\n", settings.Snapshot().PlateThreshold)
	fmt.Printf("  Ball radius: %.2f-%.2f cm (%d-%d px)\n",
		ball.MinRadiusCM, ball.MaxRadiusCM, ball.MinRadiusPixels, ball.MaxRadiusPixels)
	fmt.Printf("  Capture window: ±%.1f cm (%.0f px)\n", ball.CaptureWindowCM, ball.CaptureWindowPixels)
	fmt.Printf("  Hough: dp=%.1f minDist=%.0f param1=%.0f param2=%.0f\n",
		ball.HoughDP, ball.HoughMinDist, ball.HoughParam1, ball.HoughParam2)

	interval, _ := cfg.Camera.Interval()
	start := time.Now()

	rawFrame := gocv.NewMat()
	defer rawFrame.Close()

	fmt.Printf("\n%-5s %-9s %-8s %8s %8s %8s %8s %8s %8s %8s\n",
		"Tick", "Status", "Calib", "PosX", "PosY", "SpX", "SpY", "ErrX", "ErrY", "ms")

	var last *pipeline.Result
	for i := 0; i < *ticks; i++ {
		still.Read(&rawFrame)
		frame, err := prep.Prepare(rawFrame)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Prepare failed: %v\n", err)
			os.Exit(1)
		}

		res, err := p.Tick(frame, start.Add(time.Duration(i)*interval))
		frame.Close()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Tick failed: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("%-5d %-9s %-8s %8.2f %8.2f %8.2f %8.2f %8.2f %8.2f %8.2f\n",
			res.Seq, res.Estimate.Status, res.Calibration,
			res.PositionCM.X, res.PositionCM.Y, res.SetpointCM.X, res.SetpointCM.Y,
			res.ErrorCM.X, res.ErrorCM.Y, float64(res.ProcessingTime.Microseconds())/1000)

		last.Close()
		last = res
	}
	defer last.Close()

	if last != nil {
		fmt.Printf("\nCorners found: %d/4\n", last.Corners.Count())
		for c, pt := range last.Corners.Points {
			fmt.Printf("  %-12s found=%-5v (%.1f, %.1f)\n", rectify.Corner(c), last.Corners.Found[c], pt.X, pt.Y)
		}
	}

	if *annotated != "" && last != nil {
		out := pipeline.Annotate(last, ball.CaptureWindowPixels)
		defer out.Close()
		if out.Empty() {
			fmt.Fprintf(os.Stderr, "No rectified frame to write\n")
			os.Exit(1)
		}
		bgr := gocv.NewMat()
		defer bgr.Close()
		gocv.CvtColor(out, &bgr, gocv.ColorBGRToRGB)
		if !gocv.IMWrite(*annotated, bgr) {
			fmt.Fprintf(os.Stderr, "Failed to write %s\n", *annotated)
			os.Exit(1)
		}
		fmt.Printf("\nWrote %s\n", *annotated)
	}
}
