package snapshot

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// csvColumns maps accepted header names to a column slot.
var csvColumns = map[string]int{
	"x": 0, "y": 1, "z": 2,
	"nh": 3, "number_density": 3,
	"temp": 4, "temperature": 4,
	"efrac": 5, "electron_fraction": 5,
	"h2frac": 6, "h2_fraction": 6,
	"hdfrac": 7, "hd_fraction": 7,
}

// ReadCSV reads a gas table with a header row. Recognised columns are
// x, y, z (parsecs), nh, temp, efrac, h2frac and hdfrac, in any order;
// unknown columns are ignored. Positions are kept only when all of x, y
// and z are present.
func ReadCSV(r io.Reader, redshift float64) (*Memory, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("csv: missing header")
		}
		return nil, fmt.Errorf("csv header: %w", err)
	}

	slotOf := make([]int, len(header))
	var have [8]bool
	for i, name := range header {
		slot, ok := csvColumns[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			slotOf[i] = -1
			continue
		}
		if have[slot] {
			return nil, fmt.Errorf("csv: duplicate column %q", name)
		}
		slotOf[i] = slot
		have[slot] = true
	}

	var cols [8][]float64
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		for i, field := range rec {
			slot := slotOf[i]
			if slot < 0 {
				continue
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, fmt.Errorf("csv line %d column %q: %w", line, header[i], err)
			}
			cols[slot] = append(cols[slot], v)
		}
	}

	m := &Memory{Z: redshift}
	if have[0] && have[1] && have[2] {
		m.Pos = make([][3]float64, len(cols[0]))
		for i := range m.Pos {
			m.Pos[i] = [3]float64{cols[0][i], cols[1][i], cols[2][i]}
		}
	}
	fill := func(slot int) []float64 {
		if !have[slot] {
			return nil
		}
		if cols[slot] == nil {
			return []float64{}
		}
		return cols[slot]
	}
	m.NH, m.Temp, m.EFrac = fill(3), fill(4), fill(5)
	m.H2Frac, m.HDFrac = fill(6), fill(7)

	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("csv: %w", err)
	}
	return m, nil
}

// WriteCSV writes every populated field of m with a header row that
// ReadCSV accepts.
func WriteCSV(w io.Writer, m *Memory) error {
	if err := m.Validate(); err != nil {
		return err
	}
	type column struct {
		name string
		vals []float64
	}
	var cols []column
	if m.Pos != nil {
		for d, name := range []string{"x", "y", "z"} {
			vals := make([]float64, len(m.Pos))
			for i, p := range m.Pos {
				vals[i] = p[d]
			}
			cols = append(cols, column{name, vals})
		}
	}
	for _, c := range []column{
		{"nh", m.NH}, {"temp", m.Temp}, {"efrac", m.EFrac},
		{"h2frac", m.H2Frac}, {"hdfrac", m.HDFrac},
	} {
		if c.vals != nil {
			cols = append(cols, c)
		}
	}

	cw := csv.NewWriter(w)
	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = c.name
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	row := make([]string, len(cols))
	for i := 0; i < m.Len(); i++ {
		for j, c := range cols {
			row[j] = strconv.FormatFloat(c.vals[i], 'g', -1, 64)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
