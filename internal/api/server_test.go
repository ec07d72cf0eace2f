package api

import (
	"bytes"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/phaseplot/internal/db"
	"github.com/banshee-data/phaseplot/internal/monitoring"
	"github.com/banshee-data/phaseplot/internal/snapshot"
)

func setupServer(t *testing.T) (*Server, string) {
	t.Helper()
	database, err := db.NewDB(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	n := 30
	m := &snapshot.Memory{
		Z:      24,
		Pos:    make([][3]float64, n),
		NH:     make([]float64, n),
		Temp:   make([]float64, n),
		H2Frac: make([]float64, n),
	}
	for i := 0; i < n; i++ {
		f := float64(i + 1)
		m.Pos[i] = [3]float64{f, 2 * f, -f}
		m.NH[i] = math.Pow(10, f/3)
		m.Temp[i] = 50 + 40*f
		m.H2Frac[i] = 1e-6 * f
	}
	id, err := database.ImportSnapshot("minihalo", m)
	require.NoError(t, err)
	return NewServer(database, nil), id
}

func do(t *testing.T, s *Server, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.ServeMux().ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestListSnapshots(t *testing.T) {
	s, id := setupServer(t)

	rec := do(t, s, http.MethodGet, "/api/snapshots")
	require.Equal(t, http.StatusOK, rec.Code)

	var list []db.SnapshotInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0].ID)
	assert.Equal(t, "minihalo", list[0].Name)
	assert.Equal(t, 30, list[0].Particles)

	assert.Equal(t, http.StatusMethodNotAllowed, do(t, s, http.MethodPost, "/api/snapshots").Code)
}

func TestSnapshotByID(t *testing.T) {
	s, id := setupServer(t)

	rec := do(t, s, http.MethodGet, "/api/snapshots/"+id)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"redshift":24`)

	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/api/snapshots/nope").Code)
	assert.Equal(t, http.StatusNoContent, do(t, s, http.MethodDelete, "/api/snapshots/"+id).Code)
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodDelete, "/api/snapshots/"+id).Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(t, s, http.MethodPut, "/api/snapshots/"+id).Code)
}

func TestListKinds(t *testing.T) {
	s, _ := setupServer(t)
	rec := do(t, s, http.MethodGet, "/api/kinds")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "radial-temperature")
}

func TestRenderPlot(t *testing.T) {
	s, id := setupServer(t)

	rec := do(t, s, http.MethodGet, "/plot?snapshot="+id+"&kind=temperature&format=png&gridsize=20")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")))

	rec = do(t, s, http.MethodGet, "/plot?snapshot="+id+"&kind=h2-fraction&format=html&gridsize=12&binning=linear")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/html"))
	assert.Contains(t, rec.Body.String(), "echarts")

	rec = do(t, s, http.MethodGet, "/plot?snapshot="+id+"&kind=radial-temperature&format=svg&cmb=false")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "<svg")
}

func TestRenderPlot_Errors(t *testing.T) {
	s, id := setupServer(t)

	tests := []struct {
		name   string
		target string
		status int
	}{
		{"missing snapshot", "/plot?kind=temperature", http.StatusBadRequest},
		{"unknown snapshot", "/plot?snapshot=missing", http.StatusNotFound},
		{"unknown kind", "/plot?snapshot=" + id + "&kind=pressure", http.StatusBadRequest},
		{"bad format", "/plot?snapshot=" + id + "&format=gif", http.StatusBadRequest},
		{"bad gridsize", "/plot?snapshot=" + id + "&gridsize=1", http.StatusBadRequest},
		{"bad scale", "/plot?snapshot=" + id + "&xscale=symlog", http.StatusBadRequest},
		{"missing field", "/plot?snapshot=" + id + "&kind=hd-fraction", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodGet, tt.target)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Contains(t, rec.Body.String(), `"error"`)
		})
	}
}

func TestLoggingMiddleware(t *testing.T) {
	var logged []string
	prev := monitoring.Logf
	monitoring.SetLogger(func(format string, v ...interface{}) {
		logged = append(logged, format)
	})
	t.Cleanup(func() { monitoring.SetLogger(prev) })

	h := LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Len(t, logged, 1)
	assert.Contains(t, statusCodeColor(http.StatusTeapot), "418")
}
