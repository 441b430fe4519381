package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"plate-tracker/internal/trajectory"
	"plate-tracker/pkg/colorutil"
)

const prefsFile = "settings.json"

// Preferences are the operator settings that survive a restart.
type Preferences struct {
	PlateThreshold colorutil.Threshold `json:"plate_threshold"`
	BallThreshold  colorutil.Threshold `json:"ball_threshold"`
	Pattern        trajectory.Pattern  `json:"pattern"`
	Step           int                 `json:"step"`
	RadiusLevel    float64             `json:"radius_level_cm"`
}

// DefaultPreferences returns the startup operator settings.
func DefaultPreferences() Preferences {
	p := trajectory.DefaultParams()
	return Preferences{
		PlateThreshold: colorutil.DefaultPlateThreshold(),
		BallThreshold:  colorutil.DefaultBallThreshold(),
		Pattern:        p.Pattern,
		Step:           p.Step,
		RadiusLevel:    p.RadiusLevel,
	}
}

// Validate checks the preferences against the allowed trajectory options.
func (p Preferences) Validate(traj trajectory.Config) error {
	if err := p.PlateThreshold.Validate(); err != nil {
		return fmt.Errorf("plate_threshold: %w", err)
	}
	if err := p.BallThreshold.Validate(); err != nil {
		return fmt.Errorf("ball_threshold: %w", err)
	}
	if !traj.ValidStep(p.Step) {
		return fmt.Errorf("step %d not in %v", p.Step, traj.Steps)
	}
	if !traj.ValidRadius(p.RadiusLevel) {
		return fmt.Errorf("radius level %g cm not in %v", p.RadiusLevel, traj.RadiusLevels)
	}
	return nil
}

// Store keeps Preferences in a JSON file, by default under the user config
// directory.
type Store struct {
	mu    sync.RWMutex
	prefs Preferences
	path  string
}

// DefaultStorePath returns ~/.config/plate-tracker/settings.json or the
// platform equivalent.
func DefaultStorePath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(configDir, "plate-tracker", prefsFile)
}

// OpenStore reads preferences from path. A missing or unreadable file
// yields the defaults.
func OpenStore(path string) *Store {
	s := &Store{prefs: DefaultPreferences(), path: path}

	data, err := readJSONFile(path)
	if err != nil {
		return s
	}
	prefs := DefaultPreferences()
	if err := json.Unmarshal(data, &prefs); err == nil {
		s.prefs = prefs
	}
	return s
}

// Path returns the backing file.
func (s *Store) Path() string {
	return s.path
}

// Get returns the stored preferences.
func (s *Store) Get() Preferences {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prefs
}

// Set replaces the stored preferences in memory.
func (s *Store) Set(p Preferences) {
	s.mu.Lock()
	s.prefs = p
	s.mu.Unlock()
}

// Save writes the preferences to disk.
func (s *Store) Save() error {
	s.mu.RLock()
	data, err := json.MarshalIndent(s.prefs, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o644)
}

// LoadPreferences reads and validates a preferences file.
func LoadPreferences(path string, traj trajectory.Config) (Preferences, error) {
	prefs := DefaultPreferences()
	data, err := readJSONFile(path)
	if err != nil {
		return prefs, err
	}
	if err := json.Unmarshal(data, &prefs); err != nil {
		return prefs, fmt.Errorf("failed to parse settings JSON: %w", err)
	}
	if err := prefs.Validate(traj); err != nil {
		return prefs, fmt.Errorf("invalid settings: %w", err)
	}
	return prefs, nil
}
