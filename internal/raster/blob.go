package raster

import (
	"image"

	"github.com/ayusman/mudra/internal/geom"
)

// Blob is a connected set of pixels in discovery order.
type Blob struct {
	ID     int           `json:"id"`
	Points []image.Point `json:"points"`
}

// Count returns the number of pixels in the blob.
func (b *Blob) Count() int {
	return len(b.Points)
}

// Centroid returns the integer mean of the blob's points.
func (b *Blob) Centroid() image.Point {
	if len(b.Points) == 0 {
		return image.Point{}
	}
	var sx, sy int
	for _, p := range b.Points {
		sx += p.X
		sy += p.Y
	}
	n := len(b.Points)
	return image.Point{X: sx / n, Y: sy / n}
}

// Nearest returns the blob point closest to p and its distance.
// ok is false for an empty blob.
func (b *Blob) Nearest(p image.Point) (image.Point, float64, bool) {
	if len(b.Points) == 0 {
		return image.Point{}, 0, false
	}
	best := b.Points[0]
	bestDist := geom.DistanceSq(best, p)
	for _, q := range b.Points[1:] {
		if d := geom.DistanceSq(q, p); d < bestDist {
			best, bestDist = q, d
		}
	}
	return best, geom.Distance(best, p), true
}

var (
	neighbors4 = [4]image.Point{{0, -1}, {-1, 0}, {1, 0}, {0, 1}}
	neighbors8 = [8]image.Point{
		{-1, -1}, {0, -1}, {1, -1},
		{-1, 0}, {1, 0},
		{-1, 1}, {0, 1}, {1, 1},
	}
)

// Components returns the 8-connected components of pixels equal to v whose
// seed lies inside bounds (the whole grid when bounds is empty). Components
// are ordered by the row-major position of their first pixel and each
// component's points are in breadth-first order from that pixel. Growth is
// not limited by bounds.
func Components(g *Grid, v uint8, bounds image.Rectangle) []Blob {
	if bounds.Empty() {
		bounds = image.Rect(0, 0, g.W, g.H)
	}
	bounds = bounds.Intersect(image.Rect(0, 0, g.W, g.H))

	visited := make([]bool, len(g.Pix))
	var blobs []Blob
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			i := y*g.W + x
			if visited[i] || g.Pix[i] != v {
				continue
			}
			pts := grow(g, image.Point{X: x, Y: y}, v, visited)
			blobs = append(blobs, Blob{ID: len(blobs), Points: pts})
		}
	}
	return blobs
}

// Regions returns the 8-connected components of pixels equal to v that are
// reached from seeds, in seed order. Seeds that do not hold v or that were
// already absorbed by an earlier component are skipped.
func Regions(g *Grid, v uint8, seeds []image.Point) []Blob {
	visited := make([]bool, len(g.Pix))
	var blobs []Blob
	for _, s := range seeds {
		if !g.In(s.X, s.Y) {
			continue
		}
		i := s.Y*g.W + s.X
		if visited[i] || g.Pix[i] != v {
			continue
		}
		pts := grow(g, s, v, visited)
		blobs = append(blobs, Blob{ID: len(blobs), Points: pts})
	}
	return blobs
}

// Trace returns the 8-connected component of v containing seed, in
// breadth-first order from seed. It returns nil when seed does not hold v.
func Trace(g *Grid, seed image.Point, v uint8) []image.Point {
	if g.AtPoint(seed) != v {
		return nil
	}
	visited := make([]bool, len(g.Pix))
	return grow(g, seed, v, visited)
}

func grow(g *Grid, seed image.Point, v uint8, visited []bool) []image.Point {
	visited[seed.Y*g.W+seed.X] = true
	pts := []image.Point{seed}
	for head := 0; head < len(pts); head++ {
		p := pts[head]
		for _, o := range neighbors8 {
			q := p.Add(o)
			if !g.In(q.X, q.Y) {
				continue
			}
			i := q.Y*g.W + q.X
			if visited[i] || g.Pix[i] != v {
				continue
			}
			visited[i] = true
			pts = append(pts, q)
		}
	}
	return pts
}

// FloodFill replaces the 4-connected region of pixels equal to the value at
// seed with v and returns the filled points. An out-of-range seed or a seed
// already holding v fills nothing.
func FloodFill(g *Grid, seed image.Point, v uint8) []image.Point {
	if !g.In(seed.X, seed.Y) {
		return nil
	}
	match := g.AtPoint(seed)
	if match == v {
		return nil
	}

	g.Set(seed.X, seed.Y, v)
	region := []image.Point{seed}
	for head := 0; head < len(region); head++ {
		p := region[head]
		for _, o := range neighbors4 {
			q := p.Add(o)
			if !g.In(q.X, q.Y) || g.AtPoint(q) != match {
				continue
			}
			g.Set(q.X, q.Y, v)
			region = append(region, q)
		}
	}
	return region
}
