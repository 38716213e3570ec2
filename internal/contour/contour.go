// Package contour turns the outer boundary of a hand silhouette into an
// open path around the palm and fingers and maps it onto a canonical box.
package contour

import (
	"image"
	"sort"

	"github.com/ayusman/mudra/internal/geom"
	"github.com/ayusman/mudra/internal/raster"
	"github.com/ayusman/mudra/internal/vision"
)

// Config holds the unwrapping parameters.
type Config struct {
	// MergeStride subsamples contours when searching for the closest pair.
	MergeStride int
	// BridgeThickness is the width of the segments joining contours.
	BridgeThickness int
	// MaskSize is the side of the rotated square the palm guideline is
	// taken from. It must exceed the raster diagonal.
	MaskSize float64
	// Epsilon is the polygon approximation tolerance in pixels.
	Epsilon float64
}

// DefaultConfig returns the calibrated unwrapping parameters.
func DefaultConfig() Config {
	return Config{
		MergeStride:     4,
		BridgeThickness: 2,
		MaskSize:        500,
		Epsilon:         1,
	}
}

// Unwrapper extracts the pose contour of a hand.
type Unwrapper struct {
	cfg Config
}

// NewUnwrapper creates an Unwrapper with the given configuration.
func NewUnwrapper(cfg Config) *Unwrapper {
	return &Unwrapper{cfg: cfg}
}

// Merge reduces contours to a single outline. When the silhouette produced
// several contours, the closest pairs are joined by segments drawn into a
// copy of silhouette and the outline is extracted again; the largest
// resulting contour is returned. ok is false when contours is empty.
func (u *Unwrapper) Merge(silhouette *raster.Grid, contours [][]image.Point) ([]image.Point, bool, error) {
	switch len(contours) {
	case 0:
		return nil, false, nil
	case 1:
		return contours[0], true, nil
	}

	stride := max(u.cfg.MergeStride, 1)
	reduced := make([][]image.Point, len(contours))
	for i, c := range contours {
		for k := 0; k < len(c); k += stride {
			reduced[i] = append(reduced[i], c[k])
		}
	}

	joined := silhouette.Clone()
	for len(reduced) > 1 {
		best := 1
		var a, b image.Point
		bestDist := -1.0
		for k := 1; k < len(reduced); k++ {
			for _, p := range reduced[0] {
				for _, q := range reduced[k] {
					if d := geom.DistanceSq(p, q); bestDist < 0 || d < bestDist {
						bestDist, best, a, b = d, k, p, q
					}
				}
			}
		}
		joined.Line(a, b, raster.Foreground, u.cfg.BridgeThickness)
		reduced[0] = append(reduced[0], reduced[best]...)
		reduced = append(reduced[:best], reduced[best+1:]...)
	}

	merged, err := vision.Contours(joined)
	if err != nil {
		return nil, false, err
	}
	if len(merged) == 0 {
		return nil, false, nil
	}
	largest := merged[0]
	for _, c := range merged[1:] {
		if len(c) > len(largest) {
			largest = c
		}
	}
	return largest, true, nil
}

// PalmMask returns a w x h raster whose Hub pixels mark the palm and
// finger side of the hand. A guideline perpendicular to the hand axis, one
// palm radius behind the palm center, separates it from the forearm, and
// the forearm corridor behind the palm and the palm disk itself are left out.
func (u *Unwrapper) PalmMask(w, h int, palm image.Point, radius, angle float64) *raster.Grid {
	g := raster.New(w, h)
	c := point2{float64(palm.X), float64(palm.Y)}

	outer := rotatedRect(c, u.cfg.MaskSize, u.cfg.MaskSize, -angle)
	right := midpoint(outer[2], outer[3], -radius)
	left := midpoint(outer[1], outer[0], -radius)
	g.Line(right, left, raster.Foreground, 1)

	corridor := rotatedRect(c, 2*radius, u.cfg.MaskSize, -angle)
	c0 := midpoint(corridor[1], corridor[0], 0)
	c3 := midpoint(corridor[2], corridor[3], 0)
	g.Line(c0, corridor[1].round(), raster.Foreground, 1)
	g.Line(corridor[1].round(), corridor[2].round(), raster.Foreground, 1)
	g.Line(corridor[2].round(), c3, raster.Foreground, 1)
	g.Line(c3, c0, raster.Foreground, 1)

	g.Circle(palm, int(radius), raster.Foreground)

	seed := image.Point{X: w - 1, Y: h - 1}
	if left.Y < right.Y {
		seed = image.Point{X: 0, Y: h - 1}
	}
	raster.FloodFill(g, seed, raster.Hub)
	return g
}

// Unwrap walks outline from the first to the last stretch that lies inside
// the Hub region of mask, ordered by polar angle around palm, and returns
// the traversed points. The outline is walked counter-clockwise on screen
// whatever its input order. ok is false when no stretch qualifies or an end
// is not reached within two laps.
func (u *Unwrapper) Unwrap(outline []image.Point, mask *raster.Grid, palm image.Point) ([]image.Point, bool) {
	if len(outline) < 2 {
		return nil, false
	}
	outline = counterClockwise(outline)

	drawn := raster.New(mask.W, mask.H)
	for i := 1; i < len(outline); i++ {
		prev, cur := outline[i-1], outline[i]
		if mask.AtPoint(prev) == raster.Hub && mask.AtPoint(cur) == raster.Hub {
			drawn.Line(prev, cur, raster.Foreground, 1)
		}
	}

	parts := raster.Regions(drawn, raster.Foreground, outline)
	if len(parts) == 0 {
		return nil, false
	}
	sort.SliceStable(parts, func(i, j int) bool {
		return geom.Angle(palm, parts[i].Centroid()) < geom.Angle(palm, parts[j].Centroid())
	})

	first := parts[0].Points[0]
	lastPart := parts[len(parts)-1]
	last := lastPart.Points[len(lastPart.Points)-1]

	var path []image.Point
	firstHit, lastHit := false, false
	for i := 0; i < 2*len(outline); i++ {
		p := outline[i%len(outline)]
		if !firstHit && p == first {
			firstHit = true
		} else if firstHit && p == last {
			lastHit = true
		}
		if firstHit {
			path = append(path, p)
		}
		if lastHit {
			break
		}
	}
	if !firstHit || !lastHit {
		return nil, false
	}
	return path, true
}

// Simplify approximates path by a polyline within the configured tolerance,
// keeping its exact first and last points.
func (u *Unwrapper) Simplify(path []image.Point) []image.Point {
	if len(path) == 0 {
		return nil
	}
	approx := vision.ApproxPolyDP(path, u.cfg.Epsilon, false)
	if len(approx) == 0 || approx[0] != path[0] {
		approx = append([]image.Point{path[0]}, approx...)
	}
	if end := path[len(path)-1]; approx[len(approx)-1] != end {
		approx = append(approx, end)
	}
	return approx
}

// counterClockwise returns outline ordered counter-clockwise as seen on
// screen, reversing a copy when needed.
func counterClockwise(outline []image.Point) []image.Point {
	var area int
	for i, p := range outline {
		q := outline[(i+1)%len(outline)]
		area += p.X*q.Y - q.X*p.Y
	}
	// With y pointing down a counter-clockwise loop has negative area.
	if area <= 0 {
		return outline
	}
	rev := make([]image.Point, len(outline))
	for i, p := range outline {
		rev[len(outline)-1-i] = p
	}
	return rev
}
