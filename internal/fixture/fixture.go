// Package fixture draws synthetic hand silhouettes at the working
// resolution for tests.
package fixture

import (
	"image"

	"github.com/ayusman/mudra/internal/geom"
	"github.com/ayusman/mudra/internal/raster"
)

// Working raster size of the silhouettes.
const (
	Width  = 160
	Height = 120
)

// Silhouette is a rendered hand region and its blobs.
type Silhouette struct {
	Grid  *raster.Grid
	Blobs []raster.Blob

	Palm       image.Point
	PalmRadius int
	// Tips are the drawn fingertip centers, left to right.
	Tips []image.Point
}

// Bounds returns the inclusive bounding box of the silhouette.
func (s *Silhouette) Bounds() image.Rectangle {
	min, max, _ := s.Grid.Bounds(raster.Foreground)
	return image.Rectangle{Min: min, Max: max.Add(image.Point{X: 1, Y: 1})}
}

// Disk renders a single round blob.
func Disk(center image.Point, r int) *Silhouette {
	g := raster.New(Width, Height)
	g.Disk(center, r, raster.Foreground)
	return &Silhouette{
		Grid:       g,
		Blobs:      raster.Components(g, raster.Foreground, image.Rectangle{}),
		Palm:       center,
		PalmRadius: r,
	}
}

// OpenHand renders a five finger hand with the fingers spread and pointing
// down and the forearm leaving through the top edge.
func OpenHand() *Silhouette {
	palm := image.Pt(72, 48)
	tips := []image.Point{
		{36, 66},  // thumb
		{50, 88},  // index
		{68, 96},  // middle
		{86, 93},  // ring
		{100, 82}, // pinky
	}

	g := raster.New(Width, Height)
	stroke(g, palm, image.Pt(78, 0), 11)
	g.Disk(palm, 15, raster.Foreground)
	for _, tip := range tips {
		stroke(g, palm, tip, 2)
	}

	return &Silhouette{
		Grid:       g,
		Blobs:      raster.Components(g, raster.Foreground, image.Rectangle{}),
		Palm:       palm,
		PalmRadius: 15,
		Tips:       tips,
	}
}

// SplitHand renders OpenHand with a gap cut across the middle finger, so the
// segmentation delivers more than one blob.
func SplitHand() *Silhouette {
	s := OpenHand()
	for x := 60; x < 78; x++ {
		for y := 78; y <= 80; y++ {
			s.Grid.Set(x, y, 0)
		}
	}
	s.Blobs = raster.Components(s.Grid, raster.Foreground, image.Rectangle{})
	return s
}

// stroke draws a segment with a round brush of radius r.
func stroke(g *raster.Grid, a, b image.Point, r int) {
	for _, p := range geom.Line(a, b, 0) {
		g.Disk(p, r, raster.Foreground)
	}
}
