// Package palm locates the palm center and inscribed radius of a hand
// silhouette from distance transform maxima.
package palm

import (
	"fmt"
	"image"

	"github.com/ayusman/mudra/internal/geom"
	"github.com/ayusman/mudra/internal/raster"
	"github.com/ayusman/mudra/internal/state"
	"github.com/ayusman/mudra/internal/vision"
)

// Config holds the palm localization parameters.
type Config struct {
	// Downscale is the factor the silhouette is shrunk by before the
	// distance transform.
	Downscale int
	// BinarizeThreshold re-binarizes the interpolated small raster.
	BinarizeThreshold uint8
	// ForearmRatio is the fraction of the small raster's width, measured
	// from its left edge, left untouched by the forearm mask.
	ForearmRatio float64
	// BoundsShift moves the forearm mask toward +x, in small raster cells.
	BoundsShift int
	// RadiusRate and PositionRate are the low-pass rates applied to the
	// radius and the center.
	RadiusRate   float64
	PositionRate float64
}

// DefaultConfig returns the calibrated parameters for a 160x120 working raster.
func DefaultConfig() Config {
	return Config{
		Downscale:         4,
		BinarizeThreshold: 250,
		ForearmRatio:      0.7,
		BoundsShift:       2,
		RadiusRate:        0.1,
		PositionRate:      0.5,
	}
}

// Filter keys used on the track's low-pass filter.
const (
	radiusKey = "palm_radius"
	centerKey = "palm_point"
)

// Localizer estimates the palm of one tracked hand.
type Localizer struct {
	cfg Config
}

// NewLocalizer creates a Localizer with the given configuration.
func NewLocalizer(cfg Config) *Localizer {
	return &Localizer{cfg: cfg}
}

// Locate estimates the palm in silhouette, a raster of the frame's hand
// blobs. It reads the previous palm and orientation from track and smooths
// the new estimate through the track's filter, but does not store it.
// ok is false when the silhouette offers no usable signal.
func (l *Localizer) Locate(silhouette *raster.Grid, blobs []raster.Blob, track *state.Track) (state.PalmEstimate, bool, error) {
	prev := track.Palm

	// Mean x of everything below the previous palm's top edge.
	yThreshold := int(float64(prev.Center.Y) - prev.Radius)
	var sumX, n int
	for i := range blobs {
		for _, p := range blobs[i].Points {
			if p.Y > yThreshold {
				sumX += p.X
				n++
			}
		}
	}
	if n == 0 {
		return state.PalmEstimate{}, false, nil
	}
	rawX := float64(sumX) / float64(n)

	small, err := vision.Downscale(silhouette, l.cfg.Downscale, l.cfg.BinarizeThreshold)
	if err != nil {
		return state.PalmEstimate{}, false, fmt.Errorf("downscale silhouette: %w", err)
	}

	firstLoc, firstPeak, err := vision.DistancePeak(small)
	if err != nil {
		return state.PalmEstimate{}, false, fmt.Errorf("palm distance transform: %w", err)
	}
	if firstPeak <= 0 {
		return state.PalmEstimate{}, false, nil
	}

	l.maskForearm(small)

	loc, peak, err := vision.DistancePeak(small)
	if err != nil {
		return state.PalmEstimate{}, false, fmt.Errorf("masked distance transform: %w", err)
	}
	if peak <= 0 {
		// The mask swallowed the silhouette; fall back to the unmasked peak.
		loc, peak = firstLoc, firstPeak
	}

	scale := float64(l.cfg.Downscale)
	radius := peak * scale

	offset := 0
	if track.Angle <= 0 {
		offset = int(radius / 2)
	}
	center := image.Point{
		X: int(rawX + float64(offset)),
		Y: loc.Y * l.cfg.Downscale,
	}

	radius = track.Filter.Smooth(radiusKey, radius, l.cfg.RadiusRate)
	center = track.Filter.SmoothPoint(centerKey, center, l.cfg.PositionRate)

	if radius < 0 {
		radius = 0
	}
	return state.PalmEstimate{
		Center: geom.Clamp(center, silhouette.W, silhouette.H),
		Radius: radius,
	}, true, nil
}

// maskForearm clears the far part of the small raster's bounding box so the
// forearm does not pull the distance maximum away from the palm.
func (l *Localizer) maskForearm(small *raster.Grid) {
	min, max, ok := small.Bounds(l.cfg.BinarizeThreshold)
	if !ok {
		return
	}
	min.X += l.cfg.BoundsShift
	max.X += l.cfg.BoundsShift

	from := int(float64(max.X-min.X)*l.cfg.ForearmRatio) + min.X
	for x := from; x < max.X; x++ {
		for y := min.Y; y < max.Y; y++ {
			small.Set(x, y, 0)
		}
	}
}
