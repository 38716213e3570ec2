// Package shape runs the per-frame hand shape pipeline: palm localization,
// skeleton and fingertips, orientation, contour unwrapping and pose
// labeling, in that order, over one tracked hand.
package shape

import (
	"errors"
	"fmt"
	"image"
	"sort"

	"github.com/ayusman/mudra/internal/contour"
	"github.com/ayusman/mudra/internal/geom"
	"github.com/ayusman/mudra/internal/orientation"
	"github.com/ayusman/mudra/internal/palm"
	"github.com/ayusman/mudra/internal/pose"
	"github.com/ayusman/mudra/internal/raster"
	"github.com/ayusman/mudra/internal/skeleton"
	"github.com/ayusman/mudra/internal/state"
	"github.com/ayusman/mudra/internal/vision"
)

// ErrNoModels is returned by Compute when no pose model is registered.
var ErrNoModels = errors.New("no pose models registered")

// Config holds the pipeline parameters.
type Config struct {
	// Width and Height are the working raster size. Blob coordinates and
	// every result share this frame, and normalized contours use it as the
	// canonical box.
	Width  int
	Height int

	// SignalRatio is the fraction of the silhouette size baseline below
	// which the hand counts as lost.
	SignalRatio float64

	Palm        palm.Config
	Skeleton    skeleton.Config
	Orientation orientation.Config
	Contour     contour.Config
}

// DefaultConfig returns the calibrated pipeline parameters.
func DefaultConfig() Config {
	return Config{
		Width:       160,
		Height:      120,
		SignalRatio: 0.3,
		Palm:        palm.DefaultConfig(),
		Skeleton:    skeleton.DefaultConfig(),
		Orientation: orientation.DefaultConfig(),
		Contour:     contour.DefaultConfig(),
	}
}

// Frame is the segmented hand region of one frame.
type Frame struct {
	Blobs []raster.Blob
	// Bounds limits where finger branches may start. When empty the
	// bounding box of the blobs is used.
	Bounds image.Rectangle
}

// Reason says why a frame was not resolved.
type Reason string

const (
	ReasonNone       Reason = ""
	ReasonNoBlobs    Reason = "no hand blobs"
	ReasonSignalLost Reason = "silhouette below size baseline"
	ReasonNoContour  Reason = "no hand contour"
	ReasonNoPalm     Reason = "palm not found"
	ReasonNoTips     Reason = "no fingertips"
	ReasonNoPath     Reason = "contour not unwrapped"
)

// Result is the outcome of one Compute call.
type Result struct {
	Resolved bool   `json:"resolved"`
	Reason   Reason `json:"reason,omitempty"`
	Channel  string `json:"channel"`
	Frame    int    `json:"frame"`

	Palm state.PalmEstimate `json:"palm"`
	// Angle is the hand orientation used for this frame, in degrees.
	Angle float64 `json:"angle"`
	// Tips are sorted by polar angle around the palm center.
	Tips          []skeleton.Tip `json:"tips,omitempty"`
	DominantTip   int            `json:"dominant_tip"`
	DominantScore float64        `json:"dominant_score"`

	// Stereo is the raw unwrapped contour in working raster coordinates.
	Stereo []image.Point `json:"stereo,omitempty"`
	// Contour is the simplified contour normalized to the canonical box
	// described by Bounds.
	Contour []image.Point  `json:"contour,omitempty"`
	Bounds  contour.Bounds `json:"bounds"`

	Pose         string              `json:"pose,omitempty"`
	PoseDistance float64             `json:"pose_distance"`
	Labels       []pose.LabeledPoint `json:"labels,omitempty"`
	Overlay      []pose.ColoredPoint `json:"overlay,omitempty"`
}

// Processor computes hand shape results for one channel of one tracked
// hand. It owns the hand's Track and is not safe for concurrent use.
type Processor struct {
	cfg     Config
	channel string
	track   *state.Track

	palm     *palm.Localizer
	skeleton *skeleton.Extractor
	orient   *orientation.Estimator
	unwrap   *contour.Unwrapper
	poses    *pose.Estimator
}

// NewProcessor creates a Processor for channel labeling against poses.
func NewProcessor(channel string, cfg Config, poses *pose.Estimator) *Processor {
	return &Processor{
		cfg:      cfg,
		channel:  channel,
		track:    state.NewTrack(),
		palm:     palm.NewLocalizer(cfg.Palm),
		skeleton: skeleton.NewExtractor(cfg.Skeleton),
		orient:   orientation.NewEstimator(cfg.Orientation),
		unwrap:   contour.NewUnwrapper(cfg.Contour),
		poses:    poses,
	}
}

// Channel returns the channel name the processor was created for.
func (p *Processor) Channel() string {
	return p.channel
}

// Track returns the processor's hand state.
func (p *Processor) Track() *state.Track {
	return p.track
}

// Compute processes one frame. token identifies the tracked hand; a change
// of token resets the hand state first. fc shares the palm radius and hand
// angle across the channels of a frame and may be nil for a single channel.
// Overlay is only produced when visualize is set.
//
// Frames that cannot be resolved return a Result with Resolved false and a
// Reason. Errors are reserved for unusable configuration and OpenCV
// failures.
func (p *Processor) Compute(f Frame, token string, fc *orientation.FrameContext, visualize bool) (*Result, error) {
	if p.poses == nil || len(p.poses.Models()) == 0 {
		return nil, ErrNoModels
	}

	// A dependent channel run out of order must leave its track untouched.
	fc.Begin(p.channel)
	if err := fc.Ready(p.channel); err != nil {
		return nil, err
	}

	t := p.track
	t.Observe(token)
	t.FrameCount++

	res := &Result{Channel: p.channel, Frame: t.FrameCount}
	// Unresolved frames carry no stage output.
	fail := func(r Reason) (*Result, error) {
		return &Result{Channel: p.channel, Frame: t.FrameCount, Reason: r}, nil
	}

	if len(f.Blobs) == 0 {
		return fail(ReasonNoBlobs)
	}

	silhouette := raster.New(p.cfg.Width, p.cfg.Height)
	count := 1
	for i := range f.Blobs {
		silhouette.Fill(f.Blobs[i].Points, raster.Foreground)
		count += f.Blobs[i].Count()
	}
	baseline := t.Baseline.Update(float64(count))
	if float64(count)/baseline < p.cfg.SignalRatio {
		return fail(ReasonSignalLost)
	}

	contours, err := vision.Contours(silhouette)
	if err != nil {
		return nil, fmt.Errorf("find contours: %w", err)
	}
	outline, ok, err := p.unwrap.Merge(silhouette, contours)
	if err != nil {
		return nil, fmt.Errorf("merge contours: %w", err)
	}
	if !ok {
		return fail(ReasonNoContour)
	}

	est, ok, err := p.palm.Locate(silhouette, f.Blobs, t)
	if err != nil {
		return nil, err
	}
	if !ok {
		return fail(ReasonNoPalm)
	}
	if est.Radius, err = fc.Radius(p.channel, est.Radius); err != nil {
		return nil, err
	}
	t.Palm = est
	res.Palm = est

	bounds := f.Bounds
	if bounds.Empty() {
		bounds = blobBounds(f.Blobs)
	}
	sk, found := p.skeleton.Extract(p.cfg.Width, p.cfg.Height, f.Blobs, bounds, est)

	var tips []skeleton.Tip
	if found {
		tips = sk.Tips
	}
	angle, _ := p.orient.Estimate(tips, est.Center, p.cfg.Width, p.cfg.Height, t)
	if angle, err = fc.Angle(p.channel, angle); err != nil {
		return nil, err
	}
	t.Angle = p.orient.Stored(angle, t.PoseName)
	res.Angle = angle

	if len(tips) == 0 {
		return fail(ReasonNoTips)
	}
	res.Tips, res.DominantTip = sortTips(tips, sk.Dominant, est.Center)
	res.DominantScore = sk.DominantScore

	mask := p.unwrap.PalmMask(p.cfg.Width, p.cfg.Height, est.Center, est.Radius, angle)
	path, ok := p.unwrap.Unwrap(outline, mask, est.Center)
	if !ok {
		return fail(ReasonNoPath)
	}
	res.Stereo = path

	normalized, b, ok := contour.Normalize(p.unwrap.Simplify(path), p.cfg.Width, p.cfg.Height)
	if !ok {
		return fail(ReasonNoPath)
	}
	res.Contour, res.Bounds = normalized, b

	best, ok := p.poses.Best(normalized)
	if !ok {
		return nil, ErrNoModels
	}
	res.Pose = best.Model.Name
	res.PoseDistance = best.Distance
	res.Labels = pose.Label(best.Model, normalized)
	t.PoseName = best.Model.Name

	if visualize {
		res.Overlay = pose.Overlay(res.Labels, b)
	}

	res.Resolved = true
	return res, nil
}

// sortTips orders tips by polar angle around palm and returns the new
// position of the tip at index dominant.
func sortTips(tips []skeleton.Tip, dominant int, palm image.Point) ([]skeleton.Tip, int) {
	order := make([]int, len(tips))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return geom.Angle(palm, tips[order[i]].Point) < geom.Angle(palm, tips[order[j]].Point)
	})

	sorted := make([]skeleton.Tip, len(tips))
	at := 0
	for i, idx := range order {
		sorted[i] = tips[idx]
		if idx == dominant {
			at = i
		}
	}
	return sorted, at
}

// blobBounds returns the exclusive bounding rectangle of all blob points.
func blobBounds(blobs []raster.Blob) image.Rectangle {
	var r image.Rectangle
	for i := range blobs {
		for _, p := range blobs[i].Points {
			r = r.Union(image.Rectangle{Min: p, Max: p.Add(image.Point{X: 1, Y: 1})})
		}
	}
	return r
}
