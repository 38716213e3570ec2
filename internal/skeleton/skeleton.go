// Package skeleton thins a hand silhouette and picks fingertip candidates
// from the skeleton branches that leave the palm.
package skeleton

import (
	"image"

	"github.com/ayusman/mudra/internal/geom"
	"github.com/ayusman/mudra/internal/raster"
	"github.com/ayusman/mudra/internal/state"
)

// Config holds the skeleton extraction parameters.
type Config struct {
	// ThinIterations bounds the thinning passes.
	ThinIterations int
	// HubRadius is the radius of the hub disk painted over each junction.
	HubRadius int
	// DistalRatio is the fraction of a branch, counted from its tip, that
	// must stay clear of hubs. It also sets the point the extension line is
	// aimed from.
	DistalRatio float64
	// MinBranch is the length below which only the terminal point is
	// checked and the extension is aimed from the origin.
	MinBranch int
	// ExtensionLength is the number of points in a tip's extension line.
	ExtensionLength int
}

// DefaultConfig returns the calibrated extraction parameters.
func DefaultConfig() Config {
	return Config{
		ThinIterations:  10,
		HubRadius:       3,
		DistalRatio:     0.3,
		MinBranch:       10,
		ExtensionLength: 20,
	}
}

// Tip is a fingertip candidate.
type Tip struct {
	Point image.Point `json:"point"`
	// Extension continues the branch beyond Point. It is only used to
	// estimate direction and never drawn into the skeleton.
	Extension []image.Point `json:"extension"`
}

// Skeleton is the per-frame result of Extract.
type Skeleton struct {
	// Points are the thinned silhouette pixels.
	Points []image.Point
	// Branches are the accepted branches, each ordered from the palm side
	// origin to the tip. Branches[i] ends at Tips[i].
	Branches [][]image.Point
	Tips     []Tip
	// Dominant indexes the branch reaching farthest from the palm and
	// DominantScore is its score.
	Dominant      int
	DominantScore float64
}

// Extractor finds fingertips on the skeleton of one hand.
type Extractor struct {
	cfg Config
}

// NewExtractor creates an Extractor with the given configuration.
func NewExtractor(cfg Config) *Extractor {
	return &Extractor{cfg: cfg}
}

// Extract renders blobs into a w x h raster, joins them, thins the result
// and returns the branches that leave the palm and end in a free tip.
// bounds limits where branches may start (the whole raster when empty).
// ok is false when no branch qualifies.
func (e *Extractor) Extract(w, h int, blobs []raster.Blob, bounds image.Rectangle, palm state.PalmEstimate) (*Skeleton, bool) {
	if len(blobs) == 0 {
		return nil, false
	}

	g := raster.New(w, h)
	var seeds []image.Point
	for i := range blobs {
		g.Fill(blobs[i].Points, raster.Foreground)
		seeds = append(seeds, blobs[i].Points...)
	}
	for _, bridge := range bridges(blobs, image.Point{X: palm.Center.X}) {
		g.Fill(bridge, raster.Foreground)
		seeds = append(seeds, bridge...)
	}

	points := raster.Thin(g, seeds, e.cfg.ThinIterations)

	seg := raster.New(w, h)
	seg.Fill(points, raster.Foreground)
	for _, p := range points {
		if IsJunction(g, p) {
			seg.Disk(p, e.cfg.HubRadius, raster.Hub)
		}
	}
	seg.Disk(palm.Center, int(palm.Radius), raster.Hub)

	sk := &Skeleton{Points: points, Dominant: -1, DominantScore: -1}
	for _, comp := range raster.Components(seg, raster.Foreground, bounds) {
		origin, found := firstTouching(seg, comp.Points)
		if !found {
			continue
		}
		path := raster.Trace(seg, origin, raster.Foreground)

		n := len(path)
		if e.spansHubs(seg, path) {
			continue
		}

		start := 0
		if n >= e.cfg.MinBranch {
			start = int(float64(n) * (1 - e.cfg.DistalRatio))
		}
		end := n - 1
		if start == end {
			continue
		}

		tip := path[end]
		sk.Branches = append(sk.Branches, path)
		sk.Tips = append(sk.Tips, Tip{
			Point:     tip,
			Extension: geom.Extend(tip, path[start], e.cfg.ExtensionLength),
		})

		score := geom.Distance(path[0], palm.Center) + float64(n) - palm.Radius
		if score > sk.DominantScore {
			sk.DominantScore = score
			sk.Dominant = len(sk.Branches) - 1
		}
	}

	if len(sk.Tips) == 0 {
		return nil, false
	}
	return sk, true
}

// spansHubs reports whether the distal end of path touches a hub, which
// marks a bridge between two hubs rather than a finger.
func (e *Extractor) spansHubs(seg *raster.Grid, path []image.Point) bool {
	from := len(path) - 1
	if len(path) >= e.cfg.MinBranch {
		from = int(float64(len(path)) * (1 - e.cfg.DistalRatio))
	}
	for _, p := range path[from:] {
		if seg.NeighborOf(p, raster.Hub) {
			return true
		}
	}
	return false
}

func firstTouching(seg *raster.Grid, pts []image.Point) (image.Point, bool) {
	for _, p := range pts {
		if seg.NeighborOf(p, raster.Hub) {
			return p, true
		}
	}
	return image.Point{}, false
}

// bridges connects every blob to the largest one with a straight segment.
// The blob nearer to pivot lends its point closest to pivot as the attach
// point; the other blob contributes its point closest to that.
func bridges(blobs []raster.Blob, pivot image.Point) [][]image.Point {
	if len(blobs) < 2 {
		return nil
	}

	largest := 0
	for i := range blobs {
		if blobs[i].Count() > blobs[largest].Count() {
			largest = i
		}
	}
	base := &blobs[largest]
	baseAttach, baseDist, _ := base.Nearest(pivot)

	var lines [][]image.Point
	for i := range blobs {
		if i == largest {
			continue
		}
		other := &blobs[i]
		otherAttach, otherDist, ok := other.Nearest(pivot)
		if !ok {
			continue
		}

		var from, to image.Point
		if baseDist < otherDist {
			from = otherAttach
			to, _, _ = base.Nearest(from)
		} else {
			from = baseAttach
			to, _, _ = other.Nearest(from)
		}
		lines = append(lines, geom.Line(from, to, 0))
	}
	return lines
}
