// Package state holds the temporal memory of one tracked hand: the smoothed
// palm estimate and orientation, the named low-pass filters and the
// silhouette size baseline.
//
// A Track is not safe for concurrent use. Frames of one hand must be
// processed sequentially; different hands use independent tracks.
package state

import "image"

// DefaultPalmRadius is the palm radius assumed before any estimate exists.
const DefaultPalmRadius = 1.0

// PalmEstimate is the palm center and inscribed radius in working raster
// coordinates.
type PalmEstimate struct {
	Center image.Point `json:"center"`
	Radius float64     `json:"radius"`
}

// Track is the per-hand state carried between frames.
type Track struct {
	Palm       PalmEstimate
	Angle      float64
	PoseName   string
	FrameCount int

	Filter   *LowPass
	Baseline Accumulator

	token    string
	observed bool
}

// NewTrack returns a track holding the documented defaults.
func NewTrack() *Track {
	t := &Track{Filter: NewLowPass()}
	t.Reset()
	return t
}

// Reset restores every field to its default and drops all filter history.
// The identity recorded by Observe is kept.
func (t *Track) Reset() {
	t.Palm = PalmEstimate{Radius: DefaultPalmRadius}
	t.Angle = 0
	t.PoseName = ""
	t.FrameCount = 0
	if t.Filter == nil {
		t.Filter = NewLowPass()
	}
	t.Filter.Reset()
	t.Baseline.Reset()
}

// Observe records the identity token of the current frame. From the second
// frame on, a token that differs from the previous frame's resets the track
// and Observe reports true.
func (t *Track) Observe(token string) bool {
	if !t.observed {
		t.observed = true
		t.token = token
		return false
	}
	if token == t.token {
		return false
	}
	t.token = token
	t.Reset()
	return true
}
