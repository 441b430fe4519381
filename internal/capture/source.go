// Package capture reads raw frames from a camera or a still image, prepares
// them for the pipeline and hands the newest one over.
package capture

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"gocv.io/x/gocv"
)

// Source produces raw frames. Read returns false when no frame could be
// read.
type Source interface {
	Read(dst *gocv.Mat) bool
	Close() error
}

// OpenCamera opens a webcam or USB camera by index ("0", "1") or an IP
// camera by URL.
func OpenCamera(device string) (*gocv.VideoCapture, error) {
	device = strings.TrimSpace(device)
	if device == "" {
		return nil, fmt.Errorf("no camera device given")
	}

	var id interface{} = device
	if idx, err := strconv.Atoi(device); err == nil {
		id = idx
	}

	cam, err := gocv.OpenVideoCapture(id)
	if err != nil {
		return nil, fmt.Errorf("failed to open camera %q: %w", device, err)
	}
	if !cam.IsOpened() {
		cam.Close()
		return nil, fmt.Errorf("camera %q did not open", device)
	}
	return cam, nil
}

// Pump reads frames from src, prepares them and stores them in latest until
// ctx is cancelled. A positive interval paces sources that never block,
// such as still images. Pump gives up after maxFailures consecutive failed
// reads; zero means retry forever.
func Pump(ctx context.Context, src Source, prep Preparer, latest *Latest, interval time.Duration, maxFailures int) error {
	raw := gocv.NewMat()
	defer raw.Close()

	failures := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		if !src.Read(&raw) || raw.Empty() {
			failures++
			if failures == 1 {
				log.Printf("Capture: frame read failed")
			}
			if maxFailures > 0 && failures >= maxFailures {
				return fmt.Errorf("capture failed %d times in a row", failures)
			}
			if !sleep(ctx, 10*time.Millisecond) {
				return nil
			}
			continue
		}
		if failures > 0 {
			log.Printf("Capture: recovered after %d failed reads", failures)
			failures = 0
		}

		frame, err := prep.Prepare(raw)
		if err != nil {
			return fmt.Errorf("prepare frame: %w", err)
		}
		latest.Put(frame)

		if interval > 0 && !sleep(ctx, interval) {
			return nil
		}
	}
}

// sleep waits for d and reports false if ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
