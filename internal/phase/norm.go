package phase

import "math"

// Normalization maps a bin count onto [0, 1] for colour lookup.
type Normalization struct {
	Mode Scale
	VMin float64
	VMax float64
}

// AutoNormalization scales to the data range of h. For Log mode the range
// is taken over the non-empty bins only.
func AutoNormalization(mode Scale, h *Histogram) Normalization {
	lo, hi, ok := h.MinMax(mode == Log)
	if !ok {
		lo, hi = 1, 1
	}
	return Normalization{Mode: mode, VMin: lo, VMax: hi}
}

// Apply returns the normalized intensity of v. The second result is false
// when v should be left uncoloured: non-positive counts under Log mode.
func (n Normalization) Apply(v float64) (float64, bool) {
	if math.IsNaN(v) {
		return 0, false
	}
	var t float64
	switch n.Mode {
	case Log:
		if v <= 0 || n.VMin <= 0 {
			return 0, false
		}
		lo, hi := math.Log10(n.VMin), math.Log10(n.VMax)
		if hi == lo {
			return 0, true
		}
		t = (math.Log10(v) - lo) / (hi - lo)
	default:
		if n.VMax == n.VMin {
			return 0, true
		}
		t = (v - n.VMin) / (n.VMax - n.VMin)
	}
	return math.Max(0, math.Min(1, t)), true
}
