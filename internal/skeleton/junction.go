package skeleton

import (
	"image"

	"github.com/ayusman/mudra/internal/raster"
)

var (
	up        = image.Point{X: 0, Y: -1}
	down      = image.Point{X: 0, Y: 1}
	left      = image.Point{X: -1, Y: 0}
	right     = image.Point{X: 1, Y: 0}
	upLeft    = image.Point{X: -1, Y: -1}
	upRight   = image.Point{X: 1, Y: -1}
	downLeft  = image.Point{X: -1, Y: 1}
	downRight = image.Point{X: 1, Y: 1}

	orthogonal = [4]image.Point{up, down, left, right}
	diagonal   = [4]image.Point{upLeft, upRight, downLeft, downRight}
)

// cornerTriads are the mixed orthogonal/diagonal neighbor patterns that mark
// a branch turning off a skeleton line. The first four and the last four are
// each closed under 90 degree rotation.
var cornerTriads = [8][3]image.Point{
	{left, upRight, downRight},
	{upLeft, right, downLeft},
	{up, downLeft, downRight},
	{upLeft, upRight, down},
	{up, right, downLeft},
	{upLeft, right, down},
	{upRight, down, left},
	{left, up, downRight},
}

// IsJunction reports whether the skeleton pixel p splits into branches:
// at least 3 of its 4 orthogonal neighbors are set, at least 3 of its 4
// diagonal neighbors are set, or one of the corner triads is fully set.
func IsJunction(g *raster.Grid, p image.Point) bool {
	set := func(o image.Point) bool {
		return g.At(p.X+o.X, p.Y+o.Y) > 0
	}

	n := 0
	for _, o := range orthogonal {
		if set(o) {
			n++
		}
	}
	if n >= 3 {
		return true
	}

	n = 0
	for _, o := range diagonal {
		if set(o) {
			n++
		}
	}
	if n >= 3 {
		return true
	}

	for _, triad := range cornerTriads {
		if set(triad[0]) && set(triad[1]) && set(triad[2]) {
			return true
		}
	}
	return false
}
