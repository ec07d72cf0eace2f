package db

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/phaseplot/internal/snapshot"
)

// ErrSnapshotNotFound is returned when no snapshot has the requested ID.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// fieldPosition marks snapshots stored with particle positions.
const fieldPosition = "position"

// SnapshotInfo describes a stored snapshot without its particle data.
type SnapshotInfo struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Redshift  float64   `json:"redshift"`
	Particles int       `json:"particles"`
	Fields    []string  `json:"fields"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *SnapshotInfo) has(field string) bool {
	for _, f := range s.Fields {
		if f == field {
			return true
		}
	}
	return false
}

func presentFields(m *snapshot.Memory) []string {
	var out []string
	if m.Pos != nil {
		out = append(out, fieldPosition)
	}
	for _, f := range []struct {
		name snapshot.Field
		vals []float64
	}{
		{snapshot.FieldNumberDensity, m.NH},
		{snapshot.FieldTemperature, m.Temp},
		{snapshot.FieldElectronFraction, m.EFrac},
		{snapshot.FieldH2Fraction, m.H2Frac},
		{snapshot.FieldHDFraction, m.HDFrac},
	} {
		if f.vals != nil {
			out = append(out, string(f.name))
		}
	}
	return out
}

func nullAt(vals []float64, i int) sql.NullFloat64 {
	if vals == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: vals[i], Valid: true}
}

// floatOrNaN reads a stored sample. SQLite keeps NaN as NULL, so NULL in a
// present column is NaN again.
func floatOrNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}

// ImportSnapshot stores m under a new ID and returns it.
func (db *DB) ImportSnapshot(name string, m *snapshot.Memory) (string, error) {
	if err := m.Validate(); err != nil {
		return "", fmt.Errorf("invalid snapshot: %w", err)
	}
	id := uuid.NewString()
	n := m.Len()

	tx, err := db.Begin()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO snapshots (snapshot_id, name, redshift, particles, fields, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		id, name, m.Z, n, strings.Join(presentFields(m), ","), time.Now().Unix(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert snapshot: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO gas_particles (
			snapshot_id, idx, x, y, z, number_density, temperature,
			electron_fraction, h2_fraction, hd_fraction
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", err
	}
	defer stmt.Close()

	for i := 0; i < n; i++ {
		var x, y, z sql.NullFloat64
		if m.Pos != nil {
			x = sql.NullFloat64{Float64: m.Pos[i][0], Valid: true}
			y = sql.NullFloat64{Float64: m.Pos[i][1], Valid: true}
			z = sql.NullFloat64{Float64: m.Pos[i][2], Valid: true}
		}
		if _, err := stmt.Exec(id, i, x, y, z,
			nullAt(m.NH, i), nullAt(m.Temp, i), nullAt(m.EFrac, i),
			nullAt(m.H2Frac, i), nullAt(m.HDFrac, i),
		); err != nil {
			return "", fmt.Errorf("failed to insert particle %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return id, nil
}

func scanInfo(row interface{ Scan(...any) error }) (*SnapshotInfo, error) {
	var (
		info    SnapshotInfo
		fields  string
		created int64
	)
	if err := row.Scan(&info.ID, &info.Name, &info.Redshift, &info.Particles, &fields, &created); err != nil {
		return nil, err
	}
	if fields != "" {
		info.Fields = strings.Split(fields, ",")
	}
	info.CreatedAt = time.Unix(created, 0).UTC()
	return &info, nil
}

// GetSnapshot returns the metadata of one snapshot.
func (db *DB) GetSnapshot(id string) (*SnapshotInfo, error) {
	row := db.QueryRow(`SELECT snapshot_id, name, redshift, particles, fields, created_at
		FROM snapshots WHERE snapshot_id = ?`, id)
	info, err := scanInfo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrSnapshotNotFound, id)
	}
	return info, err
}

// ListSnapshots returns every stored snapshot, newest first.
func (db *DB) ListSnapshots() ([]SnapshotInfo, error) {
	rows, err := db.Query(`SELECT snapshot_id, name, redshift, particles, fields, created_at
		FROM snapshots ORDER BY created_at DESC, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SnapshotInfo
	for rows.Next() {
		info, err := scanInfo(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *info)
	}
	return out, rows.Err()
}

// LoadSnapshot reads a stored snapshot back into memory. Fields that were
// absent at import stay nil so the getters report them as missing.
func (db *DB) LoadSnapshot(id string) (*snapshot.Memory, error) {
	info, err := db.GetSnapshot(id)
	if err != nil {
		return nil, err
	}

	n := info.Particles
	m := &snapshot.Memory{Z: info.Redshift}
	alloc := func(f snapshot.Field) []float64 {
		if !info.has(string(f)) {
			return nil
		}
		return make([]float64, n)
	}
	if info.has(fieldPosition) {
		m.Pos = make([][3]float64, n)
	}
	m.NH = alloc(snapshot.FieldNumberDensity)
	m.Temp = alloc(snapshot.FieldTemperature)
	m.EFrac = alloc(snapshot.FieldElectronFraction)
	m.H2Frac = alloc(snapshot.FieldH2Fraction)
	m.HDFrac = alloc(snapshot.FieldHDFraction)

	rows, err := db.Query(`SELECT idx, x, y, z, number_density, temperature,
			electron_fraction, h2_fraction, hd_fraction
		FROM gas_particles WHERE snapshot_id = ? ORDER BY idx`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	seen := 0
	for rows.Next() {
		var (
			idx  int
			cols [8]sql.NullFloat64
		)
		if err := rows.Scan(&idx, &cols[0], &cols[1], &cols[2], &cols[3],
			&cols[4], &cols[5], &cols[6], &cols[7]); err != nil {
			return nil, err
		}
		if idx < 0 || idx >= n {
			return nil, fmt.Errorf("snapshot %s: particle index %d out of range", id, idx)
		}
		if m.Pos != nil {
			m.Pos[idx] = [3]float64{floatOrNaN(cols[0]), floatOrNaN(cols[1]), floatOrNaN(cols[2])}
		}
		for k, dst := range [][]float64{m.NH, m.Temp, m.EFrac, m.H2Frac, m.HDFrac} {
			if dst != nil {
				dst[idx] = floatOrNaN(cols[3+k])
			}
		}
		seen++
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if seen != n {
		return nil, fmt.Errorf("snapshot %s: found %d particles, want %d", id, seen, n)
	}
	return m, nil
}

// DeleteSnapshot removes a snapshot and its particles.
func (db *DB) DeleteSnapshot(id string) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM gas_particles WHERE snapshot_id = ?`, id); err != nil {
		return err
	}
	res, err := tx.Exec(`DELETE FROM snapshots WHERE snapshot_id = ?`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrSnapshotNotFound, id)
	}
	return tx.Commit()
}
