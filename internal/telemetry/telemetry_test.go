package telemetry

import (
	"bytes"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"plate-tracker/internal/estimator"
	"plate-tracker/internal/pipeline"
	"plate-tracker/internal/rectify"
	"plate-tracker/internal/trajectory"
	"plate-tracker/pkg/geometry"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testResult(seq uint64) *pipeline.Result {
	return &pipeline.Result{
		Seq:            seq,
		Elapsed:        time.Duration(seq) * 33 * time.Millisecond,
		Calibration:    rectify.CalibrationOK,
		Estimate:       estimator.Estimate{Status: estimator.StatusTracking},
		Pattern:        trajectory.PatternCircle,
		PositionCM:     geometry.Point2D{X: 2, Y: 1.5},
		VelocityCM:     geometry.Point2D{X: 0.1, Y: -0.05},
		SetpointCM:     geometry.Point2D{X: 5, Y: 0},
		ErrorCM:        geometry.Point2D{X: 3, Y: -1.5},
		ProcessingTime: 2500 * time.Microsecond,
	}
}

func TestSampleFromResult(t *testing.T) {
	s := SampleFromResult(testResult(3))
	assert.Equal(t, uint64(3), s.Seq)
	assert.InDelta(t, 0.099, s.Elapsed, 1e-9)
	assert.Equal(t, "tracking", s.Status)
	assert.Equal(t, "ok", s.Calibration)
	assert.Equal(t, "circle", s.Pattern)
	assert.Equal(t, 2.5, s.ProcessingMS)
}

func TestRecorderRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	rec, err := NewRecorder(&buf)
	require.NoError(t, err)

	for seq := uint64(1); seq <= 3; seq++ {
		require.NoError(t, rec.Publish(testResult(seq)))
	}
	require.NoError(t, rec.Close())
	assert.Equal(t, 3, rec.Rows())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "seq,elapsed_s,"))

	samples, err := ReadSamples(&buf)
	require.NoError(t, err)
	require.Len(t, samples, 3)

	want := SampleFromResult(testResult(2))
	if diff := cmp.Diff(want, samples[1]); diff != "" {
		t.Errorf("sample mismatch (-want +got):\n%s", diff)
	}
}

func TestReadSamplesRejectsGarbage(t *testing.T) {
	_, err := ReadSamples(strings.NewReader(""))
	assert.Error(t, err)

	bad := strings.Join(Header, ",") + "\n" + "x,0,a,b,c,0,0,0,0,0,0,0,0,0\n"
	_, err = ReadSamples(strings.NewReader(bad))
	assert.Error(t, err)
}

func TestCreateRecorder(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "sessions")
	session := uuid.New()

	rec, err := CreateRecorder(dir, session)
	require.NoError(t, err)
	require.NoError(t, rec.Publish(testResult(1)))
	require.NoError(t, rec.Close())

	assert.Equal(t, filepath.Join(dir, "session-"+session.String()+".csv"), rec.Path())
	f, err := os.Open(rec.Path())
	require.NoError(t, err)
	defer f.Close()
	samples, err := ReadSamples(f)
	require.NoError(t, err)
	assert.Len(t, samples, 1)
}

func TestUDPPublisher(t *testing.T) {
	ln, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	defer ln.Close()

	pub, err := NewUDPPublisher(ln.LocalAddr().String())
	require.NoError(t, err)
	defer pub.Close()

	require.NoError(t, pub.Publish(testResult(7)))

	require.NoError(t, ln.SetReadDeadline(time.Now().Add(2*time.Second)))
	buf := make([]byte, 256)
	n, _, err := ln.ReadFromUDP(buf)
	require.NoError(t, err)
	assert.Equal(t, "7,3.00,-1.50,5.00,0.00,2.00,1.50,tracking", string(buf[:n]))
}

func TestUDPPublisherDisabled(t *testing.T) {
	pub, err := NewUDPPublisher("")
	require.NoError(t, err)
	assert.NoError(t, pub.Publish(testResult(1)))
	assert.NoError(t, pub.Close())

	var nilPub *UDPPublisher
	assert.NoError(t, nilPub.Publish(testResult(1)))
	assert.NoError(t, nilPub.Close())
}

func TestPlotSession(t *testing.T) {
	var samples []Sample
	for seq := uint64(1); seq <= 50; seq++ {
		samples = append(samples, SampleFromResult(testResult(seq)))
	}

	dir := t.TempDir()
	files, err := PlotSession(samples, dir, "run")
	require.NoError(t, err)
	require.Len(t, files, 3)
	for _, f := range files {
		info, err := os.Stat(f)
		require.NoError(t, err)
		assert.Greater(t, info.Size(), int64(0))
	}

	_, err = PlotSession(nil, dir, "empty")
	assert.Error(t, err)
}
