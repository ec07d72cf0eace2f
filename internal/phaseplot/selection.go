package phaseplot

import (
	"errors"
	"fmt"
)

// Selection restricts a plot to a subset of particles, either by boolean
// mask or by index list. A nil *Selection keeps every particle.
type Selection struct {
	Mask    []bool
	Indices []int
}

// MaskSelection keeps particle i when mask[i] is true.
func MaskSelection(mask []bool) *Selection { return &Selection{Mask: mask} }

// IndexSelection keeps the listed particles in the listed order.
func IndexSelection(idx []int) *Selection { return &Selection{Indices: idx} }

// Apply returns the selected elements of vals.
func (s *Selection) Apply(vals []float64) ([]float64, error) {
	if s == nil {
		return vals, nil
	}
	if s.Mask != nil && s.Indices != nil {
		return nil, errors.New("selection: set either a mask or indices, not both")
	}
	if s.Mask != nil {
		if len(s.Mask) != len(vals) {
			return nil, fmt.Errorf("selection: mask has %d entries for %d values", len(s.Mask), len(vals))
		}
		out := make([]float64, 0, len(vals))
		for i, keep := range s.Mask {
			if keep {
				out = append(out, vals[i])
			}
		}
		return out, nil
	}
	out := make([]float64, len(s.Indices))
	for k, i := range s.Indices {
		if i < 0 || i >= len(vals) {
			return nil, fmt.Errorf("selection: index %d out of range [0, %d)", i, len(vals))
		}
		out[k] = vals[i]
	}
	return out, nil
}

// applyPair selects the same particles from x and y.
func (s *Selection) applyPair(x, y []float64) ([]float64, []float64, error) {
	sx, err := s.Apply(x)
	if err != nil {
		return nil, nil, err
	}
	sy, err := s.Apply(y)
	if err != nil {
		return nil, nil, err
	}
	return sx, sy, nil
}
