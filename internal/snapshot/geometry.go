package snapshot

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// Centering selects the origin used for spherical coordinates.
type Centering string

const (
	// CenterAverage uses the mean particle position.
	CenterAverage Centering = "avg"
	// CenterOrigin uses (0, 0, 0).
	CenterOrigin Centering = "origin"
)

// Center returns the reference point for the given centering.
func Center(pos [][3]float64, c Centering) ([3]float64, error) {
	switch c {
	case CenterOrigin:
		return [3]float64{}, nil
	case CenterAverage:
		if len(pos) == 0 {
			return [3]float64{}, fmt.Errorf("cannot average zero positions")
		}
		var out [3]float64
		axis := make([]float64, len(pos))
		for d := 0; d < 3; d++ {
			for i, p := range pos {
				axis[i] = p[d]
			}
			out[d] = stat.Mean(axis, nil)
		}
		return out, nil
	default:
		return [3]float64{}, fmt.Errorf("unknown centering %q", c)
	}
}

// SphericalCoords converts positions to (r, theta, phi) about the chosen
// centre. Theta is the polar angle from +z and phi the azimuth in (-pi, pi].
func SphericalCoords(pos [][3]float64, c Centering) ([][3]float64, error) {
	ctr, err := Center(pos, c)
	if err != nil {
		return nil, err
	}
	out := make([][3]float64, len(pos))
	for i, p := range pos {
		dx, dy, dz := p[0]-ctr[0], p[1]-ctr[1], p[2]-ctr[2]
		r := math.Sqrt(dx*dx + dy*dy + dz*dz)
		var theta float64
		if r > 0 {
			theta = math.Acos(dz / r)
		}
		out[i] = [3]float64{r, theta, math.Atan2(dy, dx)}
	}
	return out, nil
}

// SphericalRadii returns only the radial component of SphericalCoords.
func SphericalRadii(pos [][3]float64, c Centering) ([]float64, error) {
	sph, err := SphericalCoords(pos, c)
	if err != nil {
		return nil, err
	}
	r := make([]float64, len(sph))
	for i, s := range sph {
		r[i] = s[0]
	}
	return r, nil
}
