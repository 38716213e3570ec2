// Package raster provides the 8-bit single channel rasters the hand shape
// stages draw into, together with flood fill, connected components and
// bounded thinning.
//
// Out-of-range reads return 0 and out-of-range writes are ignored, so
// drawing primitives clip silently at the raster border.
package raster

import (
	"image"

	"github.com/ayusman/mudra/internal/geom"
)

// Pixel values used throughout the pipeline.
const (
	// Foreground marks silhouette and skeleton pixels.
	Foreground uint8 = 254
	// Hub marks junction and palm regions in a segmented skeleton and the
	// palm+fingers side of a palm mask.
	Hub uint8 = 127
)

// Grid is a row-major 8-bit raster.
type Grid struct {
	W, H int
	Pix  []uint8
}

// New creates a zeroed w x h grid.
func New(w, h int) *Grid {
	return &Grid{W: w, H: h, Pix: make([]uint8, w*h)}
}

// In reports whether (x, y) lies inside the grid.
func (g *Grid) In(x, y int) bool {
	return x >= 0 && y >= 0 && x < g.W && y < g.H
}

// At returns the value at (x, y), or 0 outside the grid.
func (g *Grid) At(x, y int) uint8 {
	if !g.In(x, y) {
		return 0
	}
	return g.Pix[y*g.W+x]
}

// AtPoint is At for an image.Point.
func (g *Grid) AtPoint(p image.Point) uint8 {
	return g.At(p.X, p.Y)
}

// Set writes v at (x, y). Writes outside the grid are dropped.
func (g *Grid) Set(x, y int, v uint8) {
	if !g.In(x, y) {
		return
	}
	g.Pix[y*g.W+x] = v
}

// Clone returns a deep copy of the grid.
func (g *Grid) Clone() *Grid {
	c := &Grid{W: g.W, H: g.H, Pix: make([]uint8, len(g.Pix))}
	copy(c.Pix, g.Pix)
	return c
}

// Count returns the number of pixels equal to v.
func (g *Grid) Count(v uint8) int {
	n := 0
	for _, p := range g.Pix {
		if p == v {
			n++
		}
	}
	return n
}

// Fill writes v at every point.
func (g *Grid) Fill(pts []image.Point, v uint8) {
	for _, p := range pts {
		g.Set(p.X, p.Y, v)
	}
}

// Line draws the segment a-b with the given thickness (1 or more).
func (g *Grid) Line(a, b image.Point, v uint8, thickness int) {
	r := (thickness - 1) / 2
	for _, p := range geom.Line(a, b, 0) {
		if thickness <= 1 {
			g.Set(p.X, p.Y, v)
			continue
		}
		// square brush
		for dy := -r; dy <= r+(thickness-1)%2; dy++ {
			for dx := -r; dx <= r+(thickness-1)%2; dx++ {
				g.Set(p.X+dx, p.Y+dy, v)
			}
		}
	}
}

// Polyline draws consecutive segments between pts.
func (g *Grid) Polyline(pts []image.Point, v uint8) {
	for i := 1; i < len(pts); i++ {
		g.Line(pts[i-1], pts[i], v, 1)
	}
}

// Disk fills the circle of radius r centered on c.
func (g *Grid) Disk(c image.Point, r int, v uint8) {
	rr := r * r
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			if dx*dx+dy*dy <= rr {
				g.Set(c.X+dx, c.Y+dy, v)
			}
		}
	}
}

// Circle draws the 8-connected outline of the circle of radius r centered
// on c using the midpoint algorithm.
func (g *Grid) Circle(c image.Point, r int, v uint8) {
	if r <= 0 {
		g.Set(c.X, c.Y, v)
		return
	}
	x, y := r, 0
	d := 1 - r
	for x >= y {
		for _, o := range [8]image.Point{
			{x, y}, {y, x}, {-y, x}, {-x, y},
			{-x, -y}, {-y, -x}, {y, -x}, {x, -y},
		} {
			g.Set(c.X+o.X, c.Y+o.Y, v)
		}
		y++
		if d < 0 {
			d += 2*y + 1
		} else {
			x--
			d += 2*(y-x) + 1
		}
	}
}

// Bounds returns the inclusive bounding box of pixels with value >= thresh.
// ok is false when no pixel qualifies.
func (g *Grid) Bounds(thresh uint8) (min, max image.Point, ok bool) {
	min = image.Point{X: g.W, Y: g.H}
	max = image.Point{X: -1, Y: -1}
	for y := 0; y < g.H; y++ {
		row := g.Pix[y*g.W : (y+1)*g.W]
		for x, v := range row {
			if v < thresh {
				continue
			}
			if x < min.X {
				min.X = x
			}
			if x > max.X {
				max.X = x
			}
			if y < min.Y {
				min.Y = y
			}
			if y > max.Y {
				max.Y = y
			}
		}
	}
	return min, max, max.X >= 0
}

// NeighborOf reports whether any pixel of the 3x3 neighborhood of p,
// clamped to the grid and including p itself, holds v.
func (g *Grid) NeighborOf(p image.Point, v uint8) bool {
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			q := geom.Clamp(image.Point{X: p.X + dx, Y: p.Y + dy}, g.W, g.H)
			if g.AtPoint(q) == v {
				return true
			}
		}
	}
	return false
}
