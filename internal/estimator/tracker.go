package estimator

import (
	"fmt"

	"plate-tracker/internal/detect"
	"plate-tracker/pkg/geometry"

	"gonum.org/v1/gonum/mat"
)

// Status is the tracking state reported with every estimate.
type Status int

const (
	// StatusSearching means no ball has been observed yet.
	StatusSearching Status = iota
	// StatusTracking means the estimate was corrected by this tick's observation.
	StatusTracking
	// StatusCoasting means the ball was missed and the estimate is a pure prediction.
	StatusCoasting
	// StatusLost means the miss budget is exhausted; outputs are zeroed.
	StatusLost
)

func (s Status) String() string {
	switch s {
	case StatusSearching:
		return "searching"
	case StatusTracking:
		return "tracking"
	case StatusCoasting:
		return "coasting"
	case StatusLost:
		return "lost"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Config holds the constant-velocity model and the dropout policy.
type Config struct {
	MissBudget        int     `json:"miss_budget"`        // Consecutive misses predicted before tracking is lost
	ProcessNoise      float64 `json:"process_noise"`      // Diagonal of Q
	MeasurementNoise  float64 `json:"measurement_noise"`  // Diagonal of R
	InitialCovariance float64 `json:"initial_covariance"` // Diagonal of P when a track is seeded
	TimeStep          float64 `json:"time_step"`          // Ticks integrated per prediction
}

// DefaultConfig returns the estimator defaults.
func DefaultConfig() Config {
	return Config{
		MissBudget:        20,
		ProcessNoise:      0.03,
		MeasurementNoise:  1,
		InitialCovariance: 1,
		TimeStep:          1,
	}
}

// Validate checks the configuration for values the filter cannot use.
func (c Config) Validate() error {
	if c.MissBudget < 0 {
		return fmt.Errorf("miss_budget must be >= 0, got %d", c.MissBudget)
	}
	if c.ProcessNoise < 0 {
		return fmt.Errorf("process_noise must be >= 0, got %g", c.ProcessNoise)
	}
	if c.MeasurementNoise <= 0 {
		return fmt.Errorf("measurement_noise must be > 0, got %g", c.MeasurementNoise)
	}
	if c.InitialCovariance < 0 {
		return fmt.Errorf("initial_covariance must be >= 0, got %g", c.InitialCovariance)
	}
	if c.TimeStep <= 0 {
		return fmt.Errorf("time_step must be > 0, got %g", c.TimeStep)
	}
	return nil
}

// Estimate is the tracker output for one tick. Position and velocity are in
// centered y-up pixels and pixels per tick.
type Estimate struct {
	Position geometry.Point2D `json:"position"`
	Velocity geometry.Point2D `json:"velocity"`
	Radius   float64          `json:"radius"`
	Status   Status           `json:"status"`
	Misses   int              `json:"misses"` // Consecutive ticks without an observation
}

// Tracker owns a constant-velocity Kalman filter over (x, y, vx, vy) and the
// consecutive-miss counter. It must be driven from a single goroutine.
type Tracker struct {
	cfg    Config
	kf     *Kalman
	seeded bool
	misses int
	radius float64
	last   Estimate
}

// NewTracker creates a tracker with the given configuration.
func NewTracker(cfg Config) *Tracker {
	kf := NewKalman(4, 2)

	dt := cfg.TimeStep
	kf.Transition = mat.NewDense(4, 4, []float64{
		1, 0, dt, 0,
		0, 1, 0, dt,
		0, 0, 1, 0,
		0, 0, 0, 1,
	})
	kf.Measurement = mat.NewDense(2, 4, []float64{
		1, 0, 0, 0,
		0, 1, 0, 0,
	})
	kf.ProcessNoise = scaledIdentity(4, cfg.ProcessNoise)
	kf.MeasurementNoise = scaledIdentity(2, cfg.MeasurementNoise)

	return &Tracker{cfg: cfg, kf: kf}
}

// Update consumes this tick's observation (nil when the ball was not found)
// and returns the new estimate.
//
// With an observation the filter runs correct-then-predict and the miss
// counter resets. Without one the filter predicts only, for at most
// MissBudget consecutive ticks; after that position, velocity and radius
// are reported as zero until the ball is seen again.
func (t *Tracker) Update(obs *detect.Observation) Estimate {
	if obs != nil {
		z := mat.NewVecDense(2, []float64{obs.Center.X, obs.Center.Y})
		if !t.seeded {
			t.seed(z)
		} else if _, err := t.kf.Correct(z); err != nil {
			// Keep dead-reckoning on a numerically broken update.
			t.kf.Predict()
			t.misses++
			t.last = t.fromState(StatusCoasting)
			return t.last
		}
		t.kf.Predict()
		t.misses = 0
		t.radius = obs.Radius
		t.last = t.fromState(StatusTracking)
		return t.last
	}

	if !t.seeded {
		t.misses++
		t.last = Estimate{Status: StatusSearching, Misses: t.misses}
		return t.last
	}

	if t.misses < t.cfg.MissBudget {
		t.kf.Predict()
		t.misses++
		t.last = t.fromState(StatusCoasting)
		return t.last
	}

	t.misses++
	t.radius = 0
	t.last = Estimate{Status: StatusLost, Misses: t.misses}
	return t.last
}

// Last returns the most recent estimate.
func (t *Tracker) Last() Estimate {
	return t.last
}

// Config returns the tracker configuration.
func (t *Tracker) Config() Config {
	return t.cfg
}

// seed starts a track at the measured position with zero velocity.
func (t *Tracker) seed(z *mat.VecDense) {
	t.kf.StatePost.SetVec(0, z.AtVec(0))
	t.kf.StatePost.SetVec(1, z.AtVec(1))
	t.kf.StatePost.SetVec(2, 0)
	t.kf.StatePost.SetVec(3, 0)
	t.kf.ErrorCovPost.Copy(scaledIdentity(4, t.cfg.InitialCovariance))
	t.seeded = true
}

// fromState reads the predicted state.
func (t *Tracker) fromState(status Status) Estimate {
	x := t.kf.StatePre
	return Estimate{
		Position: geometry.Point2D{X: x.AtVec(0), Y: x.AtVec(1)},
		Velocity: geometry.Point2D{X: x.AtVec(2), Y: x.AtVec(3)},
		Radius:   t.radius,
		Status:   status,
		Misses:   t.misses,
	}
}

func scaledIdentity(n int, v float64) *mat.Dense {
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		m.Set(i, i, v)
	}
	return m
}
