// Package telemetry publishes and records tick results: UDP datagrams for
// a live consumer, CSV session files, and offline plots of those files.
package telemetry

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"plate-tracker/internal/pipeline"
	"plate-tracker/pkg/geometry"
)

// Sample is the flat, unit-converted record of one tick.
type Sample struct {
	Seq          uint64
	Elapsed      float64 // seconds
	Status       string
	Calibration  string
	Pattern      string
	Position     geometry.Point2D // cm
	Velocity     geometry.Point2D // cm per tick
	Setpoint     geometry.Point2D // cm
	Error        geometry.Point2D // cm
	ProcessingMS float64
}

// Header lists the CSV columns in Record order.
var Header = []string{
	"seq", "elapsed_s", "status", "calibration", "pattern",
	"pos_x_cm", "pos_y_cm", "vel_x_cm", "vel_y_cm",
	"sp_x_cm", "sp_y_cm", "err_x_cm", "err_y_cm",
	"processing_ms",
}

// SampleFromResult extracts the recorded fields of a result.
func SampleFromResult(r *pipeline.Result) Sample {
	return Sample{
		Seq:          r.Seq,
		Elapsed:      r.Elapsed.Seconds(),
		Status:       r.Estimate.Status.String(),
		Calibration:  r.Calibration.String(),
		Pattern:      r.Pattern.String(),
		Position:     r.PositionCM,
		Velocity:     r.VelocityCM,
		Setpoint:     r.SetpointCM,
		Error:        r.ErrorCM,
		ProcessingMS: float64(r.ProcessingTime.Microseconds()) / 1000,
	}
}

// Record formats the sample as CSV fields.
func (s Sample) Record() []string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', 4, 64) }
	return []string{
		strconv.FormatUint(s.Seq, 10), f(s.Elapsed), s.Status, s.Calibration, s.Pattern,
		f(s.Position.X), f(s.Position.Y), f(s.Velocity.X), f(s.Velocity.Y),
		f(s.Setpoint.X), f(s.Setpoint.Y), f(s.Error.X), f(s.Error.Y),
		f(s.ProcessingMS),
	}
}

// ParseRecord parses CSV fields written by Record.
func ParseRecord(rec []string) (Sample, error) {
	if len(rec) != len(Header) {
		return Sample{}, fmt.Errorf("expected %d fields, got %d", len(Header), len(rec))
	}

	seq, err := strconv.ParseUint(rec[0], 10, 64)
	if err != nil {
		return Sample{}, fmt.Errorf("seq: %w", err)
	}

	var vals [10]float64
	cols := []int{1, 5, 6, 7, 8, 9, 10, 11, 12, 13}
	for i, col := range cols {
		v, err := strconv.ParseFloat(rec[col], 64)
		if err != nil {
			return Sample{}, fmt.Errorf("%s: %w", Header[col], err)
		}
		vals[i] = v
	}

	return Sample{
		Seq:          seq,
		Elapsed:      vals[0],
		Status:       rec[2],
		Calibration:  rec[3],
		Pattern:      rec[4],
		Position:     geometry.Point2D{X: vals[1], Y: vals[2]},
		Velocity:     geometry.Point2D{X: vals[3], Y: vals[4]},
		Setpoint:     geometry.Point2D{X: vals[5], Y: vals[6]},
		Error:        geometry.Point2D{X: vals[7], Y: vals[8]},
		ProcessingMS: vals[9],
	}, nil
}

// ReadSamples reads a CSV session written by a Recorder.
func ReadSamples(r io.Reader) ([]Sample, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Header)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if header[0] != Header[0] {
		return nil, fmt.Errorf("not a session file: first column %q", header[0])
	}

	var samples []Sample
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		s, err := ParseRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		samples = append(samples, s)
	}
	return samples, nil
}
