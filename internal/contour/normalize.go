package contour

import (
	"image"

	"github.com/ayusman/mudra/internal/geom"
)

// Bounds is the inclusive box a contour was normalized from.
type Bounds struct {
	Min image.Point `json:"min"`
	Max image.Point `json:"max"`
	// W and H are the size of the canonical box.
	W int `json:"w"`
	H int `json:"h"`
}

// Normalize maps path onto the canonical [0, w) x [0, h) box, each axis
// stretched independently over the path's bounding box. ok is false for an
// empty path.
func Normalize(path []image.Point, w, h int) ([]image.Point, Bounds, bool) {
	min, max, ok := geom.Bounds(path)
	if !ok {
		return nil, Bounds{}, false
	}
	b := Bounds{Min: min, Max: max, W: w, H: h}

	out := make([]image.Point, len(path))
	for i, p := range path {
		out[i] = image.Point{
			X: geom.MapValue(p.X, min.X, max.X, 0, w-1),
			Y: geom.MapValue(p.Y, min.Y, max.Y, 0, h-1),
		}
	}
	return out, b, true
}

// Denormalize maps a canonical point back into raster coordinates.
func (b Bounds) Denormalize(p image.Point) image.Point {
	return image.Point{
		X: geom.MapValue(p.X, 0, b.W-1, b.Min.X, b.Max.X),
		Y: geom.MapValue(p.Y, 0, b.H-1, b.Min.Y, b.Max.Y),
	}
}
