// Package geom provides integer point helpers shared by the hand shape stages.
//
// All coordinates are raster coordinates: x grows to the right, y grows downward.
// Angles are in degrees.
package geom

import (
	"image"
	"math"
)

// Distance returns the Euclidean distance between two points.
func Distance(a, b image.Point) float64 {
	dx := float64(a.X - b.X)
	dy := float64(a.Y - b.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

// DistanceSq returns the squared Euclidean distance between two points.
func DistanceSq(a, b image.Point) float64 {
	dx := float64(a.X - b.X)
	dy := float64(a.Y - b.Y)
	return dx*dx + dy*dy
}

// Angle returns the polar angle of p around origin in [0, 360), measured
// counter-clockwise as seen on screen from the upward direction: a point
// straight above origin is 0, to its left 90, below 180 and to its right 270.
// Rotate uses the same orientation, so rotating p by d about origin adds d
// to its angle.
func Angle(origin, p image.Point) float64 {
	deg := math.Atan2(float64(origin.X-p.X), float64(origin.Y-p.Y)) * 180 / math.Pi
	if deg < 0 {
		deg += 360
	}
	return deg
}

// Rotate rotates p about pivot by deg degrees, counter-clockwise as seen on
// screen. The result is rounded to the nearest pixel.
func Rotate(p, pivot image.Point, deg float64) image.Point {
	rad := deg * math.Pi / 180
	sin, cos := math.Sincos(rad)
	dx := float64(p.X - pivot.X)
	dy := float64(p.Y - pivot.Y)
	return image.Point{
		X: pivot.X + int(math.Round(dx*cos+dy*sin)),
		Y: pivot.Y + int(math.Round(-dx*sin+dy*cos)),
	}
}

// Bounds returns the inclusive bounding box of pts as (min, max) corners.
// ok is false for an empty slice.
func Bounds(pts []image.Point) (min, max image.Point, ok bool) {
	if len(pts) == 0 {
		return image.Point{}, image.Point{}, false
	}
	min, max = pts[0], pts[0]
	for _, p := range pts[1:] {
		if p.X < min.X {
			min.X = p.X
		}
		if p.X > max.X {
			max.X = p.X
		}
		if p.Y < min.Y {
			min.Y = p.Y
		}
		if p.Y > max.Y {
			max.Y = p.Y
		}
	}
	return min, max, true
}

// MapValue linearly maps v from [inMin, inMax] onto [outMin, outMax] and
// rounds to the nearest integer. A degenerate input range maps to outMin.
func MapValue(v, inMin, inMax, outMin, outMax int) int {
	if inMax == inMin {
		return outMin
	}
	t := float64(v-inMin) / float64(inMax-inMin)
	return outMin + int(math.Round(t*float64(outMax-outMin)))
}

// Line returns the pixels of the segment a-b using Bresenham's algorithm,
// both endpoints included. At most limit points are produced when limit > 0.
func Line(a, b image.Point, limit int) []image.Point {
	dx := abs(b.X - a.X)
	dy := -abs(b.Y - a.Y)
	sx, sy := 1, 1
	if a.X > b.X {
		sx = -1
	}
	if a.Y > b.Y {
		sy = -1
	}

	pts := make([]image.Point, 0, max(dx, -dy)+1)
	err := dx + dy
	x, y := a.X, a.Y
	for {
		pts = append(pts, image.Point{X: x, Y: y})
		if limit > 0 && len(pts) >= limit {
			break
		}
		if x == b.X && y == b.Y {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x += sx
		}
		if e2 <= dx {
			err += dx
			y += sy
		}
	}
	return pts
}

// Extend returns a line of length points starting at from and continuing
// in the direction from toward from-(toward-from), i.e. away from toward.
func Extend(from, toward image.Point, length int) []image.Point {
	dx := float64(from.X - toward.X)
	dy := float64(from.Y - toward.Y)
	norm := math.Hypot(dx, dy)
	if norm == 0 {
		return []image.Point{from}
	}
	end := image.Point{
		X: from.X + int(math.Round(dx/norm*float64(length))),
		Y: from.Y + int(math.Round(dy/norm*float64(length))),
	}
	return Line(from, end, length)
}

// Clamp limits p to the rectangle [0, w) x [0, h).
func Clamp(p image.Point, w, h int) image.Point {
	if p.X < 0 {
		p.X = 0
	}
	if p.X >= w {
		p.X = w - 1
	}
	if p.Y < 0 {
		p.Y = 0
	}
	if p.Y >= h {
		p.Y = h - 1
	}
	return p
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
