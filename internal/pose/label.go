package pose

import (
	"image"
	"image/color"

	"github.com/ayusman/mudra/internal/contour"
	"github.com/ayusman/mudra/internal/geom"
)

// LabeledPoint is a contour point with the model point and label it was
// aligned to.
type LabeledPoint struct {
	ContourIndex int         `json:"contour_index"`
	ModelIndex   int         `json:"model_index"`
	Label        string      `json:"label"`
	LabelIndex   int         `json:"label_index"`
	Point        image.Point `json:"point"`
}

// Label aligns the normalized contour with m and expands each aligned model
// index through the model's label ranges. Pairs whose model index lies past
// the labeled span are dropped. The output follows the alignment order.
func Label(m *Model, normalized []image.Point) []LabeledPoint {
	pairs := Align(CostMatrix(m.Points, normalized))
	table := m.labelTable()

	out := make([]LabeledPoint, 0, len(pairs))
	for _, p := range pairs {
		if p.Model >= len(table) {
			continue
		}
		li := table[p.Model]
		out = append(out, LabeledPoint{
			ContourIndex: p.Contour,
			ModelIndex:   p.Model,
			Label:        m.Labels[li].Label,
			LabelIndex:   li,
			Point:        normalized[p.Contour],
		})
	}
	return out
}

// Palette colors labels by index, wrapping around.
var Palette = []color.RGBA{
	{R: 0, G: 0, B: 255, A: 255},
	{R: 0, G: 153, B: 0, A: 255},
	{R: 255, G: 0, B: 0, A: 255},
	{R: 102, G: 0, B: 153, A: 255},
	{R: 102, G: 102, B: 102, A: 255},
}

// ColoredPoint is one pixel of the label overlay.
type ColoredPoint struct {
	Point image.Point `json:"point"`
	Color color.RGBA  `json:"color"`
}

// Overlay joins consecutive labeled points with segments in raster
// coordinates. Each segment is split at its midpoint and each half takes
// the color of the endpoint it touches.
func Overlay(labeled []LabeledPoint, b contour.Bounds) []ColoredPoint {
	var out []ColoredPoint
	for i := 1; i < len(labeled); i++ {
		prev, cur := labeled[i-1], labeled[i]
		mid := image.Point{X: (prev.Point.X + cur.Point.X) / 2, Y: (prev.Point.Y + cur.Point.Y) / 2}

		from := b.Denormalize(prev.Point)
		half := b.Denormalize(mid)
		to := b.Denormalize(cur.Point)

		prevColor := Palette[prev.LabelIndex%len(Palette)]
		curColor := Palette[cur.LabelIndex%len(Palette)]
		for _, p := range geom.Line(from, half, 0) {
			out = append(out, ColoredPoint{Point: p, Color: prevColor})
		}
		for _, p := range geom.Line(half, to, 0) {
			out = append(out, ColoredPoint{Point: p, Color: curColor})
		}
	}
	return out
}
