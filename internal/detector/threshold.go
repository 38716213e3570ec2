package detector

import (
	"fmt"
	"image"
	"sort"
	"sync"

	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/raster"
	"github.com/ayusman/mudra/internal/vision"
)

// ThresholdDetector segments the hand by gray level, for a bright hand on a
// dark background or, inverted, the other way round.
type ThresholdDetector struct {
	cfg Config

	mu      sync.Mutex
	visible bool
	seq     int
}

// NewThresholdDetector creates a ThresholdDetector.
func NewThresholdDetector(cfg Config) (*ThresholdDetector, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("invalid working size %dx%d", cfg.Width, cfg.Height)
	}
	return &ThresholdDetector{cfg: cfg}, nil
}

// Detect converts frame to gray, resizes it to the working size, binarizes
// it and keeps the blobs large enough to belong to the hand.
func (d *ThresholdDetector) Detect(frame *gocv.Mat) (*Hand, error) {
	if frame == nil || frame.Empty() {
		return nil, fmt.Errorf("empty frame")
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
	gocv.Resize(gray, &small, image.Point{X: d.cfg.Width, Y: d.cfg.Height}, 0, 0, gocv.InterpolationArea)

	mode := gocv.ThresholdBinary
	if d.cfg.Invert {
		mode = gocv.ThresholdBinaryInv
	}
	binary := gocv.NewMat()
	defer binary.Close()
	gocv.Threshold(small, &binary, float32(d.cfg.Threshold), float32(raster.Foreground), mode)

	return d.segment(vision.FromMat(binary)), nil
}

// segment groups the foreground of g into a hand and assigns its token.
func (d *ThresholdDetector) segment(g *raster.Grid) *Hand {
	blobs := raster.Components(g, raster.Foreground, image.Rectangle{})
	sort.SliceStable(blobs, func(i, j int) bool {
		return blobs[i].Count() > blobs[j].Count()
	})

	hand := &Hand{}
	for _, b := range blobs {
		if b.Count() < d.cfg.MinBlobArea {
			break
		}
		b.ID = len(hand.Blobs)
		hand.Blobs = append(hand.Blobs, b)
		hand.Area += b.Count()
		for _, p := range b.Points {
			hand.Bounds = hand.Bounds.Union(image.Rectangle{Min: p, Max: p.Add(image.Point{X: 1, Y: 1})})
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if hand.Area < d.cfg.MinHandArea {
		d.visible = false
		return nil
	}
	if !d.visible {
		d.visible = true
		d.seq++
	}
	hand.Token = fmt.Sprintf("hand-%d", d.seq)
	return hand
}

// Close is a no-op; the detector holds no native resources between frames.
func (d *ThresholdDetector) Close() error {
	return nil
}
