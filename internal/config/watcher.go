package config

import (
	"log"
	"os"
	"sync"
	"time"

	"plate-tracker/internal/trajectory"
)

// Watcher polls a preferences file and hands every valid change to a
// callback, so thresholds and patterns can be tuned while tracking runs.
type Watcher struct {
	path          string
	traj          trajectory.Config
	checkInterval time.Duration
	onChange      func(Preferences)

	mu      sync.Mutex
	modTime time.Time
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewWatcher creates a watcher for path. The file's current modification
// time is the baseline; only later edits trigger the callback.
func NewWatcher(path string, traj trajectory.Config, checkInterval time.Duration, onChange func(Preferences)) *Watcher {
	w := &Watcher{
		path:          path,
		traj:          traj,
		checkInterval: checkInterval,
		onChange:      onChange,
	}
	if info, err := os.Stat(path); err == nil {
		w.modTime = info.ModTime()
	}
	return w
}

// Start begins watching in a background goroutine.
func (w *Watcher) Start() {
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	go w.watchLoop()
}

// Stop stops the watcher goroutine and waits for it to exit.
func (w *Watcher) Stop() {
	close(w.stopCh)
	<-w.doneCh
}

func (w *Watcher) watchLoop() {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.Check()
		}
	}
}

// Check reloads the file if it changed since the last check and reports
// whether new preferences were applied. Invalid files are logged and
// skipped; the previous settings stay in effect.
func (w *Watcher) Check() bool {
	info, err := os.Stat(w.path)
	if err != nil {
		return false
	}

	w.mu.Lock()
	changed := info.ModTime().After(w.modTime)
	if changed {
		w.modTime = info.ModTime()
	}
	w.mu.Unlock()
	if !changed {
		return false
	}

	prefs, err := LoadPreferences(w.path, w.traj)
	if err != nil {
		log.Printf("Config: ignoring %s: %v", w.path, err)
		return false
	}

	log.Printf("Config: reloaded settings from %s (pattern=%s step=%d radius=%.1fcm)",
		w.path, prefs.Pattern, prefs.Step, prefs.RadiusLevel)
	if w.onChange != nil {
		w.onChange(prefs)
	}
	return true
}
