// Package snapshot describes the gas content of one simulation output and
// provides in-memory and CSV-backed implementations.
package snapshot

import (
	"errors"
	"fmt"
)

// ErrMissingField is returned when a snapshot does not carry a quantity.
var ErrMissingField = errors.New("snapshot field not available")

// Snapshot exposes per-particle gas quantities. All getters return slices
// aligned one-to-one: element i of every slice describes the same particle.
// Callers must not modify the returned slices.
type Snapshot interface {
	NumberDensity() ([]float64, error)    // n [cm^-3]
	Temperature() ([]float64, error)      // T [K]
	ElectronFraction() ([]float64, error) // n_e / n_H
	H2Fraction() ([]float64, error)       // n_H2 / n_H
	HDFraction() ([]float64, error)       // n_HD / n_H
	Positions() ([][3]float64, error)     // [pc]

	// Redshift of the output.
	Redshift() float64
}

// Field names a per-particle quantity.
type Field string

const (
	FieldNumberDensity    Field = "number_density"
	FieldTemperature      Field = "temperature"
	FieldElectronFraction Field = "electron_fraction"
	FieldH2Fraction       Field = "h2_fraction"
	FieldHDFraction       Field = "hd_fraction"
)

// Memory is an in-memory Snapshot. Nil fields are reported as missing.
type Memory struct {
	Z      float64
	Pos    [][3]float64
	NH     []float64
	Temp   []float64
	EFrac  []float64
	H2Frac []float64
	HDFrac []float64
}

func get(vals []float64, f Field) ([]float64, error) {
	if vals == nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingField, f)
	}
	return vals, nil
}

func (m *Memory) NumberDensity() ([]float64, error) { return get(m.NH, FieldNumberDensity) }
func (m *Memory) Temperature() ([]float64, error) { return get(m.Temp, FieldTemperature) }
func (m *Memory) ElectronFraction() ([]float64, error) { return get(m.EFrac, FieldElectronFraction) }
func (m *Memory) H2Fraction() ([]float64, error) { return get(m.H2Frac, FieldH2Fraction) }
func (m *Memory) HDFraction() ([]float64, error) { return get(m.HDFrac, FieldHDFraction) }
func (m *Memory) Redshift() float64 { return m.Z }

func (m *Memory) Positions() ([][3]float64, error) {
	if m.Pos == nil {
		return nil, fmt.Errorf("%w: position", ErrMissingField)
	}
	return m.Pos, nil
}

// Len returns the particle count, taken from the first populated field.
func (m *Memory) Len() int {
	if m.Pos != nil {
		return len(m.Pos)
	}
	for _, f := range m.fields() {
		if f != nil {
			return len(f)
		}
	}
	return 0
}

func (m *Memory) fields() [][]float64 {
	return [][]float64{m.NH, m.Temp, m.EFrac, m.H2Frac, m.HDFrac}
}

// Validate checks that every populated field has the same length.
func (m *Memory) Validate() error {
	n := m.Len()
	if m.Pos != nil && len(m.Pos) != n {
		return fmt.Errorf("position has %d entries, want %d", len(m.Pos), n)
	}
	names := []Field{FieldNumberDensity, FieldTemperature, FieldElectronFraction, FieldH2Fraction, FieldHDFraction}
	for i, f := range m.fields() {
		if f != nil && len(f) != n {
			return fmt.Errorf("%s has %d entries, want %d", names[i], len(f), n)
		}
	}
	return nil
}
