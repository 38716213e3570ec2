package orientation

import (
	"errors"
	"image"
	"math"
	"testing"

	"github.com/ayusman/mudra/internal/geom"
	"github.com/ayusman/mudra/internal/skeleton"
	"github.com/ayusman/mudra/internal/state"
)

func tip(from, to image.Point) skeleton.Tip {
	return skeleton.Tip{Point: from, Extension: geom.Line(from, to, 0)}
}

func TestUpright(t *testing.T) {
	palm := image.Pt(60, 40)

	if got := Upright(palm, palm, 35, 160, 120); got != image.Pt(80, 60) {
		t.Errorf("palm should map to the raster center, got %v", got)
	}
	if got := Upright(image.Pt(60, 50), palm, 0, 160, 120); got != image.Pt(80, 70) {
		t.Errorf("zero angle should only translate, got %v", got)
	}

	// a finger turned toward +x by 90 degrees points right; upright points it down
	if got := Upright(image.Pt(70, 40), palm, 90, 160, 120); got != image.Pt(80, 70) {
		t.Errorf("Upright() = %v, want (80,70)", got)
	}
}

func TestEstimator_Estimate(t *testing.T) {
	e := NewEstimator(DefaultConfig())

	tests := []struct {
		name string
		tips []skeleton.Tip
		want float64
	}{
		{
			name: "upright",
			tips: []skeleton.Tip{tip(image.Pt(70, 90), image.Pt(70, 110)), tip(image.Pt(90, 88), image.Pt(90, 108))},
			want: 0,
		},
		{
			name: "turned toward +x",
			tips: []skeleton.Tip{tip(image.Pt(80, 80), image.Pt(94, 94)), tip(image.Pt(70, 75), image.Pt(84, 89))},
			want: 45,
		},
		{
			name: "raised tips do not vote",
			tips: []skeleton.Tip{tip(image.Pt(80, 90), image.Pt(80, 110)), tip(image.Pt(120, 10), image.Pt(120, 0))},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := e.Estimate(tt.tips, image.Pt(80, 60), 160, 120, state.NewTrack())
			if !ok {
				t.Fatal("expected an estimate")
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Estimate() = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestEstimator_UprightGuard(t *testing.T) {
	e := NewEstimator(DefaultConfig())
	palm := image.Pt(80, 60)
	tips := []skeleton.Tip{
		tip(image.Pt(20, 40), image.Pt(0, 30)),
		tip(image.Pt(20, 80), image.Pt(0, 80)),
	}

	raw, _ := e.Estimate(tips, palm, 160, 120, state.NewTrack())
	if math.Abs(raw-(-90)) > 1e-9 {
		t.Errorf("without the guard only the lowest tip votes, got %f", raw)
	}

	track := state.NewTrack()
	track.Angle = -90
	got, _ := e.Estimate(tips, palm, 160, 120, track)
	want := (geom.Angle(image.Pt(20, 40), image.Pt(0, 30)) - 180 - 90) / 2
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("in the upright frame both tips vote, got %f want %f", got, want)
	}
}

func TestEstimator_SmoothsAndKeepsPrevious(t *testing.T) {
	e := NewEstimator(DefaultConfig())
	track := state.NewTrack()
	track.Angle = 12

	if got, ok := e.Estimate(nil, image.Pt(80, 60), 160, 120, track); ok || got != 12 {
		t.Errorf("expected previous angle without tips, got %f, %v", got, ok)
	}

	upright := []skeleton.Tip{tip(image.Pt(80, 90), image.Pt(80, 110))}
	right := []skeleton.Tip{tip(image.Pt(80, 80), image.Pt(94, 94))}
	track.Angle = 0
	e.Estimate(upright, image.Pt(80, 60), 160, 120, track)
	got, _ := e.Estimate(right, image.Pt(80, 60), 160, 120, track)
	if math.Abs(got-22.5) > 1e-9 {
		t.Errorf("expected half way to 45, got %f", got)
	}
}

func TestEstimator_Stored(t *testing.T) {
	e := NewEstimator(DefaultConfig())

	if got := e.Stored(10, "point"); got != -10 {
		t.Errorf("pointing pose should be biased, got %f", got)
	}
	if got := e.Stored(10, "open"); got != 10 {
		t.Errorf("other poses keep the angle, got %f", got)
	}
}

func TestFrameContext(t *testing.T) {
	t.Run("dependent after primary", func(t *testing.T) {
		fc := NewFrameContext("left")

		if r, err := fc.Radius("left", 14); err != nil || r != 14 {
			t.Fatalf("primary Radius() = %v, %v", r, err)
		}
		if a, err := fc.Angle("left", -8); err != nil || a != -8 {
			t.Fatalf("primary Angle() = %v, %v", a, err)
		}

		if r, err := fc.Radius("right", 30); err != nil || r != 14 {
			t.Errorf("dependent Radius() = %v, %v, want 14", r, err)
		}
		if a, err := fc.Angle("right", 40); err != nil || a != -8 {
			t.Errorf("dependent Angle() = %v, %v, want -8", a, err)
		}
	})

	t.Run("dependent before primary", func(t *testing.T) {
		fc := NewFrameContext("left")

		if _, err := fc.Radius("right", 30); !errors.Is(err, ErrPrimaryPending) {
			t.Errorf("expected ErrPrimaryPending, got %v", err)
		}
		if _, err := fc.Angle("right", 30); !errors.Is(err, ErrPrimaryPending) {
			t.Errorf("expected ErrPrimaryPending, got %v", err)
		}
		if err := fc.Ready("right"); !errors.Is(err, ErrPrimaryPending) {
			t.Errorf("expected Ready to report ErrPrimaryPending, got %v", err)
		}
		if err := fc.Ready("left"); err != nil {
			t.Errorf("primary Ready() error = %v", err)
		}

		fc.Begin("left")
		if err := fc.Ready("right"); err != nil {
			t.Errorf("Ready() after Begin error = %v", err)
		}
	})

	t.Run("primary without a value", func(t *testing.T) {
		fc := NewFrameContext("left")
		fc.Begin("left")

		if r, err := fc.Radius("right", 30); err != nil || r != 30 {
			t.Errorf("dependent Radius() = %v, %v, want its own 30", r, err)
		}
		if _, err := fc.Angle("left", 3); err != nil {
			t.Fatalf("primary Angle() error = %v", err)
		}
		if a, err := fc.Angle("right", 40); err != nil || a != 3 {
			t.Errorf("dependent Angle() = %v, %v, want 3", a, err)
		}
	})

	t.Run("nil context", func(t *testing.T) {
		var fc *FrameContext
		if !fc.IsPrimary("any") {
			t.Error("nil context should treat every channel as primary")
		}
		if a, err := fc.Angle("any", 5); err != nil || a != 5 {
			t.Errorf("Angle() = %v, %v, want 5", a, err)
		}
		if err := fc.Ready("any"); err != nil {
			t.Errorf("Ready() error = %v", err)
		}
	})
}
