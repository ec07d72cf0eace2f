package phase

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Histogram is a 2D count grid. Rows index y bins and columns index x bins,
// so Counts.At(i, j) holds the samples with YEdges[i] <= y < YEdges[i+1]
// and XEdges[j] <= x < XEdges[j+1]. The last bin on each axis is closed.
type Histogram struct {
	Counts *mat.Dense
	XEdges []float64
	YEdges []float64
}

// Dims returns the number of y bins and x bins.
func (h *Histogram) Dims() (rows, cols int) {
	return h.Counts.Dims()
}

// Total returns the sum of all bin counts.
func (h *Histogram) Total() float64 {
	return mat.Sum(h.Counts)
}

// MinMax returns the smallest and largest bin counts. When positive is set
// only counts above zero are considered; ok is false if none exist.
func (h *Histogram) MinMax(positive bool) (lo, hi float64, ok bool) {
	lo, hi = math.Inf(1), math.Inf(-1)
	rows, cols := h.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			v := h.Counts.At(i, j)
			if positive && v <= 0 {
				continue
			}
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
			ok = true
		}
	}
	return lo, hi, ok
}

// Extent is the data-space rectangle covered by a histogram.
type Extent struct {
	XMin, XMax float64
	YMin, YMax float64
}

// Extent returns the outermost edges of h.
func (h *Histogram) Extent() Extent {
	return Extent{
		XMin: h.XEdges[0],
		XMax: h.XEdges[len(h.XEdges)-1],
		YMin: h.YEdges[0],
		YMax: h.YEdges[len(h.YEdges)-1],
	}
}

// finiteRange returns the min and max of the finite values in vals.
func finiteRange(vals []float64) (lo, hi float64, ok bool) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
		ok = true
	}
	return lo, hi, ok
}

// BinEdges returns n edges spanning [min(vals), max(vals)], spaced evenly in
// value for Linear and evenly in log10 for Log. The first and last edges
// equal the data extremes exactly. NaN and infinite samples are ignored.
func BinEdges(vals []float64, scale Scale, n int) ([]float64, error) {
	if n < 2 {
		return nil, fmt.Errorf("%w: need at least 2 edges, got %d", ErrInvalidConfiguration, n)
	}
	if !scale.Valid() {
		return nil, fmt.Errorf("%w: scale %q", ErrInvalidConfiguration, scale)
	}
	lo, hi, ok := finiteRange(vals)
	if !ok {
		return nil, ErrEmptyInput
	}

	edges := make([]float64, n)
	switch scale {
	case Log:
		if lo <= 0 {
			return nil, fmt.Errorf("%w: minimum is %g", ErrNonPositiveLogInput, lo)
		}
		floats.LogSpan(edges, lo, hi)
	case Linear:
		floats.Span(edges, lo, hi)
	}
	// Rounding in exp/log can leave the end points a few ulps off, which
	// would drop the extreme samples from the grid.
	for i, e := range edges {
		edges[i] = math.Max(lo, math.Min(hi, e))
	}
	edges[0], edges[n-1] = lo, hi
	return edges, nil
}

// binIndex locates v within edges. The last bin includes its upper edge.
// It returns -1 for values outside the edges.
func binIndex(edges []float64, v float64) int {
	last := len(edges) - 1
	if math.IsNaN(v) || v < edges[0] || v > edges[last] {
		return -1
	}
	if v == edges[last] {
		return last - 1
	}
	// Number of edges <= v, minus one.
	i := sort.Search(len(edges), func(k int) bool { return edges[k] > v }) - 1
	if i >= last {
		i = last - 1
	}
	return i
}

// Histogram2D bins the (x, y) pairs on the given edges. Samples falling
// outside the edges are not counted.
func Histogram2D(x, y, xedges, yedges []float64) (*Histogram, error) {
	if len(x) != len(y) {
		return nil, fmt.Errorf("%w: len(x)=%d len(y)=%d", ErrLengthMismatch, len(x), len(y))
	}
	if len(xedges) < 2 || len(yedges) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 edges per axis", ErrInvalidConfiguration)
	}
	h := &Histogram{
		Counts: mat.NewDense(len(yedges)-1, len(xedges)-1, nil),
		XEdges: xedges,
		YEdges: yedges,
	}
	for k := range x {
		j := binIndex(xedges, x[k])
		if j < 0 {
			continue
		}
		i := binIndex(yedges, y[k])
		if i < 0 {
			continue
		}
		h.Counts.Set(i, j, h.Counts.At(i, j)+1)
	}
	return h, nil
}
