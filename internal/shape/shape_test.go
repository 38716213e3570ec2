package shape

import (
	"errors"
	"image"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ayusman/mudra/internal/fixture"
	"github.com/ayusman/mudra/internal/orientation"
	"github.com/ayusman/mudra/internal/pose"
	"github.com/ayusman/mudra/internal/raster"
	"github.com/ayusman/mudra/internal/skeleton"
	"github.com/ayusman/mudra/internal/state"
)

func newPoses(t *testing.T) *pose.Estimator {
	t.Helper()
	e := pose.NewEstimator()
	for _, m := range pose.Builtin() {
		if err := e.Add(m); err != nil {
			t.Fatalf("Add(%s) error = %v", m.Name, err)
		}
	}
	return e
}

func frameOf(s *fixture.Silhouette) Frame {
	return Frame{Blobs: s.Blobs, Bounds: s.Bounds()}
}

func TestCompute_NoModels(t *testing.T) {
	p := NewProcessor("left", DefaultConfig(), pose.NewEstimator())

	_, err := p.Compute(Frame{}, "hand", nil, false)
	if !errors.Is(err, ErrNoModels) {
		t.Errorf("expected ErrNoModels, got %v", err)
	}
}

func TestCompute_NoBlobs(t *testing.T) {
	p := NewProcessor("left", DefaultConfig(), newPoses(t))

	res, err := p.Compute(Frame{}, "hand", nil, false)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	if res.Resolved {
		t.Error("expected an empty frame to stay unresolved")
	}
	if res.Reason != ReasonNoBlobs {
		t.Errorf("expected reason %q, got %q", ReasonNoBlobs, res.Reason)
	}
	if res.Frame != 1 {
		t.Errorf("expected frame 1, got %d", res.Frame)
	}
}

func TestCompute_SignalLost(t *testing.T) {
	p := NewProcessor("left", DefaultConfig(), newPoses(t))
	p.Track().Baseline.Update(5000)

	g := raster.New(160, 120)
	g.Disk(image.Pt(80, 60), 5, raster.Foreground)
	blobs := raster.Components(g, raster.Foreground, image.Rectangle{})

	res, err := p.Compute(Frame{Blobs: blobs}, "hand", nil, false)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	if res.Resolved || res.Reason != ReasonSignalLost {
		t.Errorf("expected reason %q, got resolved=%v reason=%q", ReasonSignalLost, res.Resolved, res.Reason)
	}
	if b := p.Track().Baseline.Value(); b >= 5000 {
		t.Errorf("expected the baseline to decay, got %v", b)
	}
}

func TestCompute_IdentityChangeResetsTrack(t *testing.T) {
	p := NewProcessor("left", DefaultConfig(), newPoses(t))

	tokens := []string{"a", "a", "a", "b", "b"}
	want := []int{1, 2, 3, 1, 2}
	for i, token := range tokens {
		res, err := p.Compute(Frame{}, token, nil, false)
		if err != nil {
			t.Fatalf("Compute() error = %v", err)
		}
		if res.Frame != want[i] {
			t.Errorf("frame %d: expected count %d, got %d", i, want[i], res.Frame)
		}
	}
	if p.Track().Palm.Radius != 1 {
		t.Errorf("expected default palm radius after reset, got %v", p.Track().Palm.Radius)
	}
}

func TestCompute_PendingPrimaryLeavesTrack(t *testing.T) {
	p := NewProcessor("right", DefaultConfig(), newPoses(t))
	fc := orientation.NewFrameContext("left")

	_, err := p.Compute(Frame{}, "hand", fc, false)
	if !errors.Is(err, orientation.ErrPrimaryPending) {
		t.Fatalf("expected ErrPrimaryPending, got %v", err)
	}
	if p.Track().FrameCount != 0 {
		t.Errorf("expected frame count 0, got %d", p.Track().FrameCount)
	}
	if n := p.Track().Filter.Len(); n != 0 {
		t.Errorf("expected no filter history, got %d keys", n)
	}

	fc.Begin("left")
	res, err := p.Compute(Frame{}, "hand", fc, false)
	if err != nil {
		t.Fatalf("Compute() after the primary began error = %v", err)
	}
	if res.Frame != 1 {
		t.Errorf("expected frame 1, got %d", res.Frame)
	}
}

func TestSortTips(t *testing.T) {
	palm := image.Pt(80, 40)
	tips := []skeleton.Tip{
		{Point: image.Pt(80, 80)},  // below, 180
		{Point: image.Pt(120, 40)}, // right, 270
		{Point: image.Pt(40, 40)},  // left, 90
	}

	sorted, dominant := sortTips(tips, 0, palm)

	want := []image.Point{{40, 40}, {80, 80}, {120, 40}}
	for i, tip := range sorted {
		if tip.Point != want[i] {
			t.Errorf("sorted[%d] = %v, want %v", i, tip.Point, want[i])
		}
	}
	if dominant != 1 {
		t.Errorf("expected dominant tip at 1, got %d", dominant)
	}
}

func TestBlobBounds(t *testing.T) {
	blobs := []raster.Blob{
		{Points: []image.Point{{4, 5}, {6, 5}}},
		{Points: []image.Point{{10, 2}}},
	}

	if got := blobBounds(blobs); got != image.Rect(4, 2, 11, 6) {
		t.Errorf("blobBounds() = %v, want (4,2)-(11,6)", got)
	}
	if got := blobBounds(nil); !got.Empty() {
		t.Errorf("expected empty bounds, got %v", got)
	}
}

func TestCompute_RoundBlob(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping OpenCV test in short mode")
	}

	p := NewProcessor("left", DefaultConfig(), newPoses(t))
	res, err := p.Compute(frameOf(fixture.Disk(image.Pt(80, 60), 40)), "hand", nil, false)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	if res.Resolved {
		t.Error("expected a fingerless blob to stay unresolved")
	}
	if res.Reason != ReasonNoTips {
		t.Errorf("expected reason %q, got %q", ReasonNoTips, res.Reason)
	}

	// The palm was located before the skeleton failed, but an unresolved
	// result carries none of it.
	if res.Palm != (state.PalmEstimate{}) {
		t.Errorf("expected a zero palm, got %+v", res.Palm)
	}
	if res.Angle != 0 {
		t.Errorf("expected a zero angle, got %v", res.Angle)
	}
	if len(res.Tips) != 0 || len(res.Labels) != 0 || len(res.Contour) != 0 {
		t.Errorf("expected no tips, labels or contour, got %d, %d and %d", len(res.Tips), len(res.Labels), len(res.Contour))
	}
	if res.Channel != "left" || res.Frame != 1 {
		t.Errorf("expected channel left frame 1, got %q frame %d", res.Channel, res.Frame)
	}

	// The track keeps the palm to bridge the gap.
	if p.Track().Palm.Radius <= 1 {
		t.Errorf("expected the track to keep the located palm, got radius %v", p.Track().Palm.Radius)
	}
}

func TestCompute_OpenHand(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping OpenCV test in short mode")
	}

	cfg := DefaultConfig()
	p := NewProcessor("left", cfg, newPoses(t))
	hand := fixture.OpenHand()

	res, err := p.Compute(frameOf(hand), "hand", nil, false)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	if !res.Resolved {
		t.Fatalf("expected the open hand to resolve, got reason %q", res.Reason)
	}

	if res.Palm.Radius <= 0 {
		t.Errorf("expected a positive palm radius, got %v", res.Palm.Radius)
	}
	if len(res.Tips) == 0 {
		t.Error("expected fingertips")
	}
	if res.DominantTip < 0 || res.DominantTip >= len(res.Tips) {
		t.Errorf("dominant tip %d out of range", res.DominantTip)
	}
	if len(res.Stereo) == 0 || len(res.Contour) == 0 {
		t.Fatal("expected raw and normalized contours")
	}
	for _, q := range res.Contour {
		if q.X < 0 || q.Y < 0 || q.X >= cfg.Width || q.Y >= cfg.Height {
			t.Errorf("normalized point %v outside the canonical box", q)
		}
	}
	if res.Pose != pose.OpenName && res.Pose != pose.PointName {
		t.Errorf("unexpected pose %q", res.Pose)
	}
	if p.Track().PoseName != res.Pose {
		t.Errorf("expected track pose %q, got %q", res.Pose, p.Track().PoseName)
	}

	if len(res.Labels) == 0 {
		t.Fatal("expected labeled points")
	}
	for i := 1; i < len(res.Labels); i++ {
		if res.Labels[i].LabelIndex < res.Labels[i-1].LabelIndex {
			t.Fatalf("labels out of order at %d: %d after %d", i, res.Labels[i].LabelIndex, res.Labels[i-1].LabelIndex)
		}
	}
	if res.Overlay != nil {
		t.Error("expected no overlay without visualize")
	}

	res, err = p.Compute(frameOf(hand), "hand", nil, true)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	if res.Resolved && len(res.Overlay) == 0 {
		t.Error("expected an overlay with visualize")
	}
	if res.Frame != 2 {
		t.Errorf("expected frame 2, got %d", res.Frame)
	}
}

func TestCompute_Deterministic(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping OpenCV test in short mode")
	}

	poses := newPoses(t)
	a := NewProcessor("left", DefaultConfig(), poses)
	b := NewProcessor("left", DefaultConfig(), poses)
	hand := fixture.SplitHand()

	for i := 0; i < 3; i++ {
		ra, err := a.Compute(frameOf(hand), "hand", nil, true)
		if err != nil {
			t.Fatalf("Compute() error = %v", err)
		}
		rb, err := b.Compute(frameOf(hand), "hand", nil, true)
		if err != nil {
			t.Fatalf("Compute() error = %v", err)
		}
		if diff := cmp.Diff(ra, rb); diff != "" {
			t.Fatalf("frame %d differs (-a +b):\n%s", i, diff)
		}
	}
}

func TestCompute_SharedFrameContext(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping OpenCV test in short mode")
	}

	poses := newPoses(t)
	left := NewProcessor("left", DefaultConfig(), poses)
	right := NewProcessor("right", DefaultConfig(), poses)
	hand := fixture.OpenHand()

	t.Run("dependent before primary", func(t *testing.T) {
		fc := orientation.NewFrameContext("left")
		_, err := right.Compute(frameOf(hand), "hand", fc, false)
		if !errors.Is(err, orientation.ErrPrimaryPending) {
			t.Errorf("expected ErrPrimaryPending, got %v", err)
		}
	})

	t.Run("primary first", func(t *testing.T) {
		fc := orientation.NewFrameContext("left")
		lr, err := left.Compute(frameOf(hand), "hand", fc, false)
		if err != nil {
			t.Fatalf("primary Compute() error = %v", err)
		}
		rr, err := right.Compute(frameOf(hand), "hand", fc, false)
		if err != nil {
			t.Fatalf("dependent Compute() error = %v", err)
		}
		if !lr.Resolved {
			t.Fatalf("expected the primary to resolve, got reason %q", lr.Reason)
		}
		if rr.Palm.Radius != lr.Palm.Radius {
			t.Errorf("expected shared radius %v, got %v", lr.Palm.Radius, rr.Palm.Radius)
		}
		if rr.Angle != lr.Angle {
			t.Errorf("expected shared angle %v, got %v", lr.Angle, rr.Angle)
		}
	})
}
