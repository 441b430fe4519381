package telemetry

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"plate-tracker/internal/pipeline"

	"github.com/google/uuid"
)

// Recorder writes one CSV row per result.
type Recorder struct {
	mu     sync.Mutex
	w      *csv.Writer
	closer io.Closer
	path   string
	rows   int
}

// NewRecorder writes the header to w and returns a recorder appending to it.
func NewRecorder(w io.Writer) (*Recorder, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return nil, err
	}
	return &Recorder{w: cw}, nil
}

// SessionFileName returns the CSV file name used for a session.
func SessionFileName(session uuid.UUID) string {
	return fmt.Sprintf("session-%s.csv", session)
}

// CreateRecorder creates dir if needed and records into a new session file.
func CreateRecorder(dir string, session uuid.UUID) (*Recorder, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create record dir: %w", err)
	}
	path := filepath.Join(dir, SessionFileName(session))
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create session file: %w", err)
	}
	r, err := NewRecorder(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	r.closer = f
	r.path = path
	return r, nil
}

// Path returns the session file, or "" for a recorder on a plain writer.
func (r *Recorder) Path() string {
	return r.path
}

// Publish appends the result.
func (r *Recorder) Publish(res *pipeline.Result) error {
	return r.Write(SampleFromResult(res))
}

// Write appends a sample.
func (r *Recorder) Write(s Sample) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.w.Write(s.Record()); err != nil {
		return err
	}
	r.rows++
	return nil
}

// Rows returns the number of samples written.
func (r *Recorder) Rows() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rows
}

// Flush writes buffered rows to the underlying writer.
func (r *Recorder) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.w.Flush()
	return r.w.Error()
}

// Close flushes and closes the session file.
func (r *Recorder) Close() error {
	err := r.Flush()
	if r.closer != nil {
		if cerr := r.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
