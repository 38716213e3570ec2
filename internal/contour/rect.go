package contour

import (
	"image"
	"math"
)

type point2 struct {
	X, Y float64
}

func (p point2) round() image.Point {
	return image.Point{X: int(math.Round(p.X)), Y: int(math.Round(p.Y))}
}

// midpoint returns the middle of a-b shifted by dy, truncated like an
// integer cast.
func midpoint(a, b point2, dy float64) image.Point {
	return image.Point{X: int((b.X-a.X)/2 + a.X), Y: int((b.Y-a.Y)/2 + a.Y + dy)}
}

// rotatedRect returns the corners of a w x h rectangle centered on c and
// rotated by deg degrees clockwise on screen. For deg 0 the corners are
// bottom-left, top-left, top-right and bottom-right.
func rotatedRect(c point2, w, h, deg float64) [4]point2 {
	rad := deg * math.Pi / 180
	b := math.Cos(rad) * 0.5
	a := math.Sin(rad) * 0.5

	var pts [4]point2
	pts[0] = point2{c.X - a*h - b*w, c.Y + b*h - a*w}
	pts[1] = point2{c.X + a*h - b*w, c.Y - b*h - a*w}
	pts[2] = point2{2*c.X - pts[0].X, 2*c.Y - pts[0].Y}
	pts[3] = point2{2*c.X - pts[1].X, 2*c.Y - pts[1].Y}
	return pts
}
