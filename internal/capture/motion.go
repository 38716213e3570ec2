package capture

import (
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// Motion gate constants
const (
	// GaussianBlurSize is the kernel size of the noise blur.
	GaussianBlurSize = 21
	// DiffThreshold is the per-pixel difference counted as change.
	DiffThreshold = 25
)

// MotionGate reports whether a frame differs enough from the last frame it
// let through to be worth processing. Frames are compared against the last
// passed frame rather than the immediately preceding one, so slow drift
// still opens the gate eventually.
type MotionGate struct {
	threshold float64
	size      image.Point
	last      gocv.Mat
	primed    bool
	mu        sync.Mutex
}

// NewMotionGate creates a gate that opens when more than threshold percent
// of the pixels change. Frames are compared at size to bound the cost.
func NewMotionGate(threshold float64, size image.Point) *MotionGate {
	return &MotionGate{
		threshold: threshold,
		size:      size,
		last:      gocv.NewMat(),
	}
}

// Pass reports whether frame should be processed and the percentage of
// changed pixels. The first frame always passes.
func (g *MotionGate) Pass(frame *gocv.Mat) (bool, float64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if frame == nil || frame.Empty() {
		return false, 0
	}

	gray := gocv.NewMat()
	defer gray.Close()
	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}

	small := gocv.NewMat()
	defer small.Close()
	gocv.Resize(gray, &small, g.size, 0, 0, gocv.InterpolationArea)

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(small, &blurred, image.Point{X: GaussianBlurSize, Y: GaussianBlurSize}, 0, 0, gocv.BorderDefault)

	if !g.primed {
		blurred.CopyTo(&g.last)
		g.primed = true
		return true, 100
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(blurred, g.last, &diff)

	thresh := gocv.NewMat()
	defer thresh.Close()
	gocv.Threshold(diff, &thresh, DiffThreshold, 255, gocv.ThresholdBinary)

	changed := float64(gocv.CountNonZero(thresh)) / float64(thresh.Rows()*thresh.Cols()) * 100.0
	if changed <= g.threshold {
		return false, changed
	}

	blurred.CopyTo(&g.last)
	return true, changed
}

// Reset forgets the reference frame so the next frame passes.
func (g *MotionGate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.primed = false
}

// Close releases the reference frame.
func (g *MotionGate) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.last.Close()
	g.last = gocv.NewMat()
	g.primed = false
}
