package app

import (
	"testing"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/detector"
)

func TestApp_Pipeline_Playback(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	var frames []*gocv.Mat
	for i := 0; i < 3; i++ {
		m := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 120, 160, gocv.MatTypeCV8UC3)
		defer m.Close()
		frames = append(frames, &m)
	}
	src := capture.NewPlayback(frames, false)

	d := detector.NewMockDetector()
	d.SetHands(openHand())
	pub := &recorder{}
	a := newTestApp(t, src, d, pub)
	a.SetEnabled(true)

	if err := a.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	done := a.Done()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("pipeline did not exit at the end of the stream")
	}
	a.Stop()

	// The first frame always passes the motion gate, and the rest are
	// processed while the pipeline stays active.
	if pub.len() != len(frames) {
		t.Errorf("expected %d published results, got %d", len(frames), pub.len())
	}
	if !a.IsActive() {
		t.Error("expected the pipeline to be in active mode")
	}
	if src.FPS() != ActiveFPS {
		t.Errorf("expected FPS %d, got %d", ActiveFPS, src.FPS())
	}

	s := a.Stats()
	if s.Frames != len(frames) || s.Skipped != 0 {
		t.Errorf("unexpected stats %+v", s)
	}
	latest := a.Latest()
	if latest == nil || !latest.Resolved {
		t.Fatalf("expected a resolved latest result, got %+v", latest)
	}
	if latest.Frame != len(frames) {
		t.Errorf("expected the track to count %d frames, got %d", len(frames), latest.Frame)
	}
}

func TestApp_Pipeline_Disabled(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	frame := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 120, 160, gocv.MatTypeCV8UC3)
	defer frame.Close()
	src := capture.NewPlayback([]*gocv.Mat{&frame}, true)

	pub := &recorder{}
	a := newTestApp(t, src, detector.NewMockDetector(), pub)

	if err := a.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	time.Sleep(500 * time.Millisecond)
	a.Stop()

	if pub.len() != 0 {
		t.Errorf("expected no results while disabled, got %d", pub.len())
	}
	if s := a.Stats(); s.Frames != 0 {
		t.Errorf("expected no processed frames, got %d", s.Frames)
	}
}
