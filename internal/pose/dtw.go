package pose

import (
	"image"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/ayusman/mudra/internal/geom"
)

// IndexPair is one step of an alignment: a model point matched to a
// contour point.
type IndexPair struct {
	Model   int `json:"model"`
	Contour int `json:"contour"`
}

// CostMatrix returns the len(model) x len(contour) matrix of squared
// Euclidean distances between the points of both sequences.
// It returns nil if either sequence is empty.
func CostMatrix(model, contour []image.Point) *mat.Dense {
	if len(model) == 0 || len(contour) == 0 {
		return nil
	}
	cost := mat.NewDense(len(model), len(contour), nil)
	for i, p := range model {
		for j, q := range contour {
			cost.Set(i, j, geom.DistanceSq(p, q))
		}
	}
	return cost
}

// accumulate returns the cumulative DTW cost: each cell holds its own cost
// plus the cheapest of its upper, left and upper-left neighbors.
func accumulate(cost *mat.Dense) *mat.Dense {
	n, m := cost.Dims()
	acc := mat.NewDense(n, m, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < m; j++ {
			c := cost.At(i, j)
			switch {
			case i == 0 && j == 0:
				acc.Set(i, j, c)
			case i == 0:
				acc.Set(i, j, c+acc.At(i, j-1))
			case j == 0:
				acc.Set(i, j, c+acc.At(i-1, j))
			default:
				acc.Set(i, j, c+min3(acc.At(i-1, j), acc.At(i, j-1), acc.At(i-1, j-1)))
			}
		}
	}
	return acc
}

// Align returns the minimum cost warping path through cost from (0, 0) to
// the last cell. Both indexes in the returned sequence are non-decreasing.
func Align(cost *mat.Dense) []IndexPair {
	if cost == nil {
		return nil
	}
	acc := accumulate(cost)
	n, m := acc.Dims()

	i, j := n-1, m-1
	path := []IndexPair{{Model: i, Contour: j}}
	for i > 0 || j > 0 {
		switch {
		case i == 0:
			j--
		case j == 0:
			i--
		default:
			diag, up, left := acc.At(i-1, j-1), acc.At(i-1, j), acc.At(i, j-1)
			// ties prefer the diagonal
			switch {
			case diag <= up && diag <= left:
				i, j = i-1, j-1
			case up <= left:
				i--
			default:
				j--
			}
		}
		path = append(path, IndexPair{Model: i, Contour: j})
	}

	for l, r := 0, len(path)-1; l < r; l, r = l+1, r-1 {
		path[l], path[r] = path[r], path[l]
	}
	return path
}

// Distance returns the DTW distance between model and contour using
// Euclidean point distances, normalized by the longer sequence.
// It returns +Inf if either sequence is empty.
func Distance(model, contour []image.Point) float64 {
	if len(model) == 0 || len(contour) == 0 {
		return math.Inf(1)
	}
	cost := mat.NewDense(len(model), len(contour), nil)
	for i, p := range model {
		for j, q := range contour {
			cost.Set(i, j, geom.Distance(p, q))
		}
	}
	acc := accumulate(cost)
	return acc.At(len(model)-1, len(contour)-1) / float64(max(len(model), len(contour)))
}

func min3(a, b, c float64) float64 {
	if a <= b && a <= c {
		return a
	}
	if b <= c {
		return b
	}
	return c
}
