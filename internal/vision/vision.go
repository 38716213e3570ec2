// Package vision bridges raster grids to the OpenCV primitives the hand
// shape stages rely on: resampling, distance transforms, contour extraction
// and polygon approximation.
package vision

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/raster"
)

// ToMat copies g into a new single channel 8-bit Mat.
// The caller is responsible for closing the returned Mat.
func ToMat(g *raster.Grid) (gocv.Mat, error) {
	view, err := gocv.NewMatFromBytes(g.H, g.W, gocv.MatTypeCV8UC1, g.Pix)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("wrap grid: %w", err)
	}
	defer view.Close()

	// Clone so the Mat owns its pixels instead of aliasing g.Pix.
	return view.Clone(), nil
}

// FromMat copies a single channel 8-bit Mat into a new grid.
func FromMat(m gocv.Mat) *raster.Grid {
	g := raster.New(m.Cols(), m.Rows())
	for y := 0; y < g.H; y++ {
		for x := 0; x < g.W; x++ {
			g.Pix[y*g.W+x] = m.GetUCharAt(y, x)
		}
	}
	return g
}

// Downscale shrinks g by factor with linear interpolation and re-binarizes
// the result: pixels above thresh become raster.Foreground, all others 0.
func Downscale(g *raster.Grid, factor int, thresh uint8) (*raster.Grid, error) {
	if factor <= 0 {
		return nil, fmt.Errorf("invalid downscale factor %d", factor)
	}

	src, err := ToMat(g)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	small := gocv.NewMat()
	defer small.Close()
	gocv.Resize(src, &small, image.Point{X: g.W / factor, Y: g.H / factor}, 0, 0, gocv.InterpolationLinear)

	binary := gocv.NewMat()
	defer binary.Close()
	gocv.Threshold(small, &binary, float32(thresh), float32(raster.Foreground), gocv.ThresholdBinary)

	return FromMat(binary), nil
}

// DistancePeak runs an L2 distance transform over the non-zero pixels of g
// and returns the location and value of the first maximum in row-major
// order. A grid with no foreground yields a zero peak.
func DistancePeak(g *raster.Grid) (image.Point, float64, error) {
	src, err := ToMat(g)
	if err != nil {
		return image.Point{}, 0, err
	}
	defer src.Close()

	dist := gocv.NewMat()
	defer dist.Close()
	labels := gocv.NewMat()
	defer labels.Close()

	// The labelled variant wrapped by gocv does not accept the precise mask.
	gocv.DistanceTransform(src, &dist, &labels, gocv.DistL2, gocv.DistanceMask5, gocv.DistanceLabelCComp)
	if dist.Empty() {
		return image.Point{}, 0, fmt.Errorf("distance transform produced no output")
	}

	var loc image.Point
	var peak float32
	for y := 0; y < dist.Rows(); y++ {
		for x := 0; x < dist.Cols(); x++ {
			if v := dist.GetFloatAt(y, x); v > peak {
				peak = v
				loc = image.Point{X: x, Y: y}
			}
		}
	}
	return loc, float64(peak), nil
}

// Contours returns the external boundaries of the non-zero regions of g,
// every boundary pixel included, in OpenCV's traversal order.
func Contours(g *raster.Grid) ([][]image.Point, error) {
	src, err := ToMat(g)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	found := gocv.FindContours(src, gocv.RetrievalExternal, gocv.ChainApproxNone)
	defer found.Close()

	contours := make([][]image.Point, 0, found.Size())
	for i := 0; i < found.Size(); i++ {
		contours = append(contours, found.At(i).ToPoints())
	}
	return contours, nil
}

// ApproxPolyDP simplifies path with the Douglas-Peucker algorithm.
func ApproxPolyDP(path []image.Point, epsilon float64, closed bool) []image.Point {
	if len(path) < 3 {
		out := make([]image.Point, len(path))
		copy(out, path)
		return out
	}

	curve := gocv.NewPointVectorFromPoints(path)
	defer curve.Close()

	approx := gocv.ApproxPolyDP(curve, epsilon, closed)
	defer approx.Close()

	return approx.ToPoints()
}
