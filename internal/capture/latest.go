package capture

import (
	"sync"

	"gocv.io/x/gocv"
)

// Latest is a depth-one frame slot between the capture goroutine and the
// tick loop. A new frame replaces and closes any frame not yet taken, so the
// consumer always processes the newest image.
type Latest struct {
	mu      sync.Mutex
	frame   gocv.Mat
	ready   bool
	closed  bool
	dropped uint64
}

// Put stores frame, taking ownership of it.
func (l *Latest) Put(frame gocv.Mat) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		frame.Close()
		return
	}
	if l.ready {
		l.frame.Close()
		l.dropped++
	}
	l.frame = frame
	l.ready = true
}

// Take returns the newest frame, if one arrived since the last Take. The
// caller owns the returned Mat.
func (l *Latest) Take() (gocv.Mat, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.ready {
		return gocv.Mat{}, false
	}
	frame := l.frame
	l.frame = gocv.Mat{}
	l.ready = false
	return frame, true
}

// Dropped returns how many frames were replaced before being taken.
func (l *Latest) Dropped() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dropped
}

// Close releases any pending frame. Later frames are discarded.
func (l *Latest) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.ready {
		l.frame.Close()
		l.ready = false
	}
	l.closed = true
}
