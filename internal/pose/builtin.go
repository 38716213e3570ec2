package pose

import "image"

// Built-in pose names.
const (
	OpenName  = "open"
	PointName = "point"
)

var fingerNames = [5]string{"thumb", "index", "middle", "ring", "pinky"}

// fingers builds a contour over five fingers hanging from y=20 with the
// given tip heights, left to right across a 160x120 canonical box. Each
// finger contributes four corners and one label range.
func fingers(name string, tips [5]int) *Model {
	m := &Model{Name: name}
	for k, tipY := range tips {
		x := 12 + 34*k
		from := len(m.Points)
		m.Points = append(m.Points,
			image.Point{X: x - 8, Y: 20},
			image.Point{X: x - 4, Y: tipY},
			image.Point{X: x + 4, Y: tipY},
			image.Point{X: x + 8, Y: 20},
		)
		m.Labels = append(m.Labels, LabelRange{Label: fingerNames[k], From: from, To: len(m.Points) - 1})
	}
	return m
}

// OpenHand returns the model of a hand with all fingers extended.
func OpenHand() *Model {
	return fingers(OpenName, [5]int{70, 105, 119, 110, 90})
}

// PointHand returns the model of a hand pointing with the index finger.
func PointHand() *Model {
	return fingers(PointName, [5]int{50, 119, 40, 35, 30})
}

// Builtin returns the models shipped with the library.
func Builtin() []*Model {
	return []*Model{OpenHand(), PointHand()}
}
