// Package main runs the plate tracker against a live camera.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"plate-tracker/internal/capture"
	"plate-tracker/internal/config"
	"plate-tracker/internal/pipeline"
	"plate-tracker/internal/telemetry"
	"plate-tracker/internal/version"
)

func main() {
	configPath := flag.String("config", "", "Session config (.json); defaults are used when empty")
	settingsPath := flag.String("settings", config.DefaultStorePath(), "Operator settings file, watched for changes")
	device := flag.String("device", "", "Camera index or IP camera URL (overrides config)")
	still := flag.String("still", "", "Replay a still image instead of opening a camera")
	udpAddr := flag.String("udp", "", "host:port for telemetry datagrams (overrides config)")
	recordDir := flag.String("record", "", "Directory for CSV session recordings (overrides config)")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Printf("Starting %s", version.String())

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("Config: %v", err)
		}
		cfg = loaded
	}
	if *device != "" {
		cfg.Camera.Device = *device
	}
	if *udpAddr != "" {
		cfg.Telemetry.UDPAddr = *udpAddr
	}
	if *recordDir != "" {
		cfg.Telemetry.RecordDir = *recordDir
	}

	if err := run(cfg, *settingsPath, *still); err != nil {
		log.Fatal(err)
	}
}

func run(cfg config.Config, settingsPath, stillPath string) error {
	interval, err := cfg.Camera.Interval()
	if err != nil {
		return err
	}
	poll, err := cfg.Telemetry.PollInterval()
	if err != nil {
		return err
	}

	store := config.OpenStore(settingsPath)
	settings := pipeline.NewSettings(cfg.Trajectory, cfg.Canonical.FrameSize, config.DefaultPreferences())
	if err := settings.Apply(store.Get()); err != nil {
		log.Printf("Config: stored settings rejected, using defaults: %v", err)
	}

	p := pipeline.New(cfg, settings, nil)
	log.Printf("Pipeline: session %s", p.Session())

	pub, err := telemetry.NewUDPPublisher(cfg.Telemetry.UDPAddr)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer pub.Close()
	p.AddSink("udp", pub)

	var rec *telemetry.Recorder
	if cfg.Telemetry.RecordDir != "" {
		rec, err = telemetry.CreateRecorder(cfg.Telemetry.RecordDir, p.Session())
		if err != nil {
			return fmt.Errorf("telemetry: %w", err)
		}
		p.AddSink("recorder", rec)
		log.Printf("Telemetry: recording to %s", rec.Path())
	}

	watcher := config.NewWatcher(store.Path(), cfg.Trajectory, poll, func(prefs config.Preferences) {
		if err := settings.Apply(prefs); err != nil {
			log.Printf("Config: %v", err)
		}
	})
	watcher.Start()
	defer watcher.Stop()

	src, pumpInterval, err := openSource(cfg.Camera, stillPath, interval)
	if err != nil {
		return err
	}
	defer src.Close()

	prep, err := capture.NewPreparer(cfg.Camera)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var latest capture.Latest
	defer latest.Close()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := capture.Pump(ctx, src, prep, &latest, pumpInterval, 100); err != nil {
			log.Printf("Capture: %v", err)
			stop()
		}
	}()

	runner := pipeline.NewRunner(p, &latest, nil, interval)
	err = runner.Run(ctx)
	wg.Wait()
	log.Printf("Pipeline: stopped after %d ticks (%d skipped, %d frames dropped)",
		runner.Ticks(), runner.Skipped(), latest.Dropped())

	store.Set(settings.Preferences())
	if serr := store.Save(); serr != nil {
		log.Printf("Config: failed to save settings: %v", serr)
	}

	if rec != nil {
		if cerr := rec.Close(); cerr != nil {
			log.Printf("Telemetry: %v", cerr)
		} else if cfg.Telemetry.PlotOnExit {
			plotRecording(rec.Path())
		}
	}

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// openSource opens the camera, or a still image when stillPath is set.
// Stills are paced at the tick interval.
func openSource(cam config.CameraConfig, stillPath string, interval time.Duration) (capture.Source, time.Duration, error) {
	if stillPath != "" {
		s, err := capture.LoadStill(stillPath)
		if err != nil {
			return nil, 0, err
		}
		log.Printf("Capture: replaying %s", stillPath)
		return s, interval, nil
	}
	c, err := capture.OpenCamera(cam.Device)
	if err != nil {
		return nil, 0, err
	}
	log.Printf("Capture: opened camera %s", cam.Device)
	return c, 0, nil
}

func plotRecording(path string) {
	f, err := os.Open(path)
	if err != nil {
		log.Printf("Telemetry: %v", err)
		return
	}
	defer f.Close()

	samples, err := telemetry.ReadSamples(f)
	if err != nil {
		log.Printf("Telemetry: %v", err)
		return
	}
	prefix := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	files, err := telemetry.PlotSession(samples, filepath.Dir(path), prefix)
	if err != nil {
		log.Printf("Telemetry: %v", err)
		return
	}
	log.Printf("Telemetry: wrote %s", strings.Join(files, ", "))
}
