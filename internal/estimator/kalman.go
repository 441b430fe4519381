// Package estimator fuses intermittent ball detections into a smooth
// position and velocity estimate.
package estimator

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Kalman is a linear discrete Kalman filter without control input.
//
// It keeps the prior (Pre) and posterior (Post) state and covariance
// separately: Predict moves Post forward into Pre, Correct folds a
// measurement into Pre and stores the result in Post. Predict also copies Pre
// into Post so that consecutive predictions without a correction keep
// integrating the motion model.
type Kalman struct {
	StatePre     *mat.VecDense // x'(k) = F x(k-1)
	StatePost    *mat.VecDense // x(k) = x'(k) + K (z(k) - H x'(k))
	ErrorCovPre  *mat.Dense    // P'(k) = F P(k-1) Ft + Q
	ErrorCovPost *mat.Dense    // P(k) = (I - K H) P'(k)
	Gain         *mat.Dense    // K(k) = P'(k) Ht (H P'(k) Ht + R)^-1

	Transition       *mat.Dense // F
	Measurement      *mat.Dense // H
	ProcessNoise     *mat.Dense // Q
	MeasurementNoise *mat.Dense // R
}

// NewKalman creates a filter with the given state and measurement sizes.
// F, Q and R start as identity, H and all state as zero.
func NewKalman(stateDim, measureDim int) *Kalman {
	return &Kalman{
		StatePre:         mat.NewVecDense(stateDim, nil),
		StatePost:        mat.NewVecDense(stateDim, nil),
		ErrorCovPre:      mat.NewDense(stateDim, stateDim, nil),
		ErrorCovPost:     mat.NewDense(stateDim, stateDim, nil),
		Gain:             mat.NewDense(stateDim, measureDim, nil),
		Transition:       identity(stateDim),
		Measurement:      mat.NewDense(measureDim, stateDim, nil),
		ProcessNoise:     identity(stateDim),
		MeasurementNoise: identity(measureDim),
	}
}

// Predict advances the filter one step and returns the predicted state.
func (k *Kalman) Predict() *mat.VecDense {
	k.StatePre.MulVec(k.Transition, k.StatePost)

	var fp mat.Dense
	fp.Mul(k.Transition, k.ErrorCovPost)
	k.ErrorCovPre.Mul(&fp, k.Transition.T())
	k.ErrorCovPre.Add(k.ErrorCovPre, k.ProcessNoise)

	k.StatePost.CopyVec(k.StatePre)
	k.ErrorCovPost.Copy(k.ErrorCovPre)

	return k.StatePre
}

// Correct updates the predicted state with a measurement and returns the
// corrected state. The filter is left untouched if the innovation
// covariance cannot be inverted.
func (k *Kalman) Correct(z *mat.VecDense) (*mat.VecDense, error) {
	measureDim, _ := k.Measurement.Dims()
	if z.Len() != measureDim {
		return nil, fmt.Errorf("measurement has %d values, want %d", z.Len(), measureDim)
	}

	// S = H P' Ht + R
	var hp, s mat.Dense
	hp.Mul(k.Measurement, k.ErrorCovPre)
	s.Mul(&hp, k.Measurement.T())
	s.Add(&s, k.MeasurementNoise)

	var sInv mat.Dense
	if err := sInv.Inverse(&s); err != nil {
		return nil, fmt.Errorf("innovation covariance not invertible: %w", err)
	}

	// K = P' Ht S^-1
	var pht mat.Dense
	pht.Mul(k.ErrorCovPre, k.Measurement.T())
	k.Gain.Mul(&pht, &sInv)

	// x = x' + K (z - H x')
	var innovation mat.VecDense
	innovation.MulVec(k.Measurement, k.StatePre)
	innovation.SubVec(z, &innovation)

	var correction mat.VecDense
	correction.MulVec(k.Gain, &innovation)
	k.StatePost.AddVec(k.StatePre, &correction)

	// P = P' - K H P'
	var khp mat.Dense
	khp.Mul(k.Gain, &hp)
	k.ErrorCovPost.Sub(k.ErrorCovPre, &khp)

	return k.StatePost, nil
}

func identity(n int) *mat.Dense {
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		m.Set(i, i, 1)
	}
	return m
}
