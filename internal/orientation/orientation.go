// Package orientation estimates the rotation of a hand from the direction
// of its fingertip extension lines.
//
// An angle of 0 is an upright hand with the fingers pointing down the
// raster. Positive angles turn the fingers toward +x.
package orientation

import (
	"image"

	"gonum.org/v1/gonum/stat"

	"github.com/ayusman/mudra/internal/geom"
	"github.com/ayusman/mudra/internal/skeleton"
	"github.com/ayusman/mudra/internal/state"
)

// Config holds the orientation parameters.
type Config struct {
	// UprightGuard is the angle below which tip anchors are compared in
	// the upright frame instead of the raw raster.
	UprightGuard float64
	// ClusterBand is the maximum distance in pixels between an anchor's y
	// and the lowest anchor for the tip to vote.
	ClusterBand int
	// Rate is the low-pass rate applied to the angle.
	Rate float64
	// PointBias is added to the stored angle while the hand holds the
	// pointing pose.
	PointBias float64
}

// DefaultConfig returns the calibrated orientation parameters.
func DefaultConfig() Config {
	return Config{
		UprightGuard: -20,
		ClusterBand:  10,
		Rate:         0.5,
		PointBias:    -20,
	}
}

const angleKey = "hand_angle"

// Upright maps p into the upright frame of a hand: rotated about the palm
// by -angle and shifted so the palm lands on the center of a w x h raster.
func Upright(p, palm image.Point, angle float64, w, h int) image.Point {
	r := geom.Rotate(p, palm, -angle)
	return image.Point{X: r.X + w/2 - palm.X, Y: r.Y + h/2 - palm.Y}
}

// Estimator derives the hand angle of one track.
type Estimator struct {
	cfg Config
}

// NewEstimator creates an Estimator with the given configuration.
func NewEstimator(cfg Config) *Estimator {
	return &Estimator{cfg: cfg}
}

// Config returns the estimator's configuration.
func (e *Estimator) Config() Config {
	return e.cfg
}

// Estimate averages the directions of the tips on the lowest edge of the
// hand and smooths the result through the track's filter. The previous
// angle is read from track but not replaced. ok is false when tips is
// empty, in which case the previous angle is returned.
func (e *Estimator) Estimate(tips []skeleton.Tip, palm image.Point, w, h int, track *state.Track) (float64, bool) {
	current := track.Angle
	if len(tips) == 0 {
		return current, false
	}

	anchors := make([]image.Point, 0, len(tips))
	yMax := -1 << 31
	for _, tip := range tips {
		a := tip.Extension[0]
		if current < e.cfg.UprightGuard {
			a = Upright(a, palm, current, w, h)
		}
		anchors = append(anchors, a)
		if a.Y > yMax {
			yMax = a.Y
		}
	}

	var angles []float64
	for i, tip := range tips {
		if abs(anchors[i].Y-yMax) > e.cfg.ClusterBand {
			continue
		}
		line := tip.Extension
		angles = append(angles, geom.Angle(line[0], line[len(line)-1])-180)
	}

	return track.Filter.Smooth(angleKey, stat.Mean(angles, nil), e.cfg.Rate), true
}

// Stored returns the angle to persist for the next frame given the pose the
// hand was last labeled with.
func (e *Estimator) Stored(angle float64, poseName string) float64 {
	if poseName == "point" {
		return angle + e.cfg.PointBias
	}
	return angle
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
