// Package api serves stored snapshots and their phase plots over HTTP.
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/banshee-data/phaseplot/internal/config"
	"github.com/banshee-data/phaseplot/internal/db"
	"github.com/banshee-data/phaseplot/internal/monitoring"
	"github.com/banshee-data/phaseplot/internal/phase"
	"github.com/banshee-data/phaseplot/internal/phaseplot"
	"github.com/banshee-data/phaseplot/internal/snapshot"
	"github.com/banshee-data/phaseplot/internal/surface"
)

// ANSI escape codes for request logging
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

var contentTypes = map[string]string{
	"html": "text/html; charset=utf-8",
	"png":  "image/png",
	"svg":  "image/svg+xml",
	"pdf":  "application/pdf",
	"eps":  "application/postscript",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"tif":  "image/tiff",
	"tiff": "image/tiff",
}

type Server struct {
	db  *db.DB
	cfg *config.PlotConfig
}

// NewServer returns a server backed by database. A nil cfg uses the
// built-in plot defaults.
func NewServer(database *db.DB, cfg *config.PlotConfig) *Server {
	if cfg == nil {
		cfg = config.EmptyPlotConfig()
	}
	return &Server{db: database, cfg: cfg}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		monitoring.Logf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/snapshots", s.listSnapshots)
	mux.HandleFunc("/api/snapshots/", s.snapshotByID)
	mux.HandleFunc("/api/kinds", s.listKinds)
	mux.HandleFunc("/plot", s.renderPlot)
	return mux
}

func (s *Server) writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		monitoring.Logf("api: failed to write response: %v", err)
	}
}

// errorStatus maps domain errors to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, db.ErrSnapshotNotFound):
		return http.StatusNotFound
	case errors.Is(err, phase.ErrInvalidConfiguration),
		errors.Is(err, phase.ErrEmptyInput),
		errors.Is(err, phase.ErrLengthMismatch),
		errors.Is(err, phase.ErrNonPositiveLogInput),
		errors.Is(err, snapshot.ErrMissingField):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) listSnapshots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	list, err := s.db.ListSnapshots()
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to list snapshots: %v", err))
		return
	}
	if list == nil {
		list = []db.SnapshotInfo{}
	}
	s.writeJSON(w, list)
}

func (s *Server) snapshotByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/snapshots/")
	if id == "" || strings.Contains(id, "/") {
		s.writeJSONError(w, http.StatusNotFound, "Unknown snapshot path")
		return
	}

	switch r.Method {
	case http.MethodGet:
		info, err := s.db.GetSnapshot(id)
		if err != nil {
			s.writeJSONError(w, errorStatus(err), err.Error())
			return
		}
		s.writeJSON(w, info)
	case http.MethodDelete:
		if err := s.db.DeleteSnapshot(id); err != nil {
			s.writeJSONError(w, errorStatus(err), err.Error())
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (s *Server) listKinds(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	s.writeJSON(w, phaseplot.Kinds())
}

// plotRequest overlays query parameters on the server defaults.
func (s *Server) plotRequest(r *http.Request) (phaseplot.Params, string, error) {
	q := r.URL.Query()
	p := s.cfg.ToParams()
	format := s.cfg.GetFormat()
	if f := q.Get("format"); f != "" {
		format = strings.ToLower(f)
	}
	if _, ok := contentTypes[format]; !ok {
		return p, "", fmt.Errorf("%w: format %q", phase.ErrInvalidConfiguration, format)
	}

	if v := q.Get("gridsize"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return p, "", fmt.Errorf("%w: gridsize %q", phase.ErrInvalidConfiguration, v)
		}
		p.Options.GridSize = n
	}
	for key, dst := range map[string]*phase.Scale{
		"binning": &p.Options.Binning,
		"xscale":  &p.Options.XScale,
		"yscale":  &p.Options.YScale,
	} {
		if v := q.Get(key); v != "" {
			sc, err := phase.ParseScale(v)
			if err != nil {
				return p, "", err
			}
			*dst = sc
		}
	}
	if v := q.Get("cmap"); v != "" {
		p.Options.Cmap = v
	}
	if v := q.Get("cmb"); v != "" {
		on, err := strconv.ParseBool(v)
		if err != nil {
			return p, "", fmt.Errorf("%w: cmb %q", phase.ErrInvalidConfiguration, v)
		}
		p.CMBLine = &on
	}
	return p, format, nil
}

func (s *Server) renderPlot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	id := r.URL.Query().Get("snapshot")
	if id == "" {
		s.writeJSONError(w, http.StatusBadRequest, "Missing 'snapshot' parameter")
		return
	}
	kind := r.URL.Query().Get("kind")
	if kind == "" {
		kind = "temperature"
	}
	plotFn, err := phaseplot.Lookup(kind)
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	params, format, err := s.plotRequest(r)
	if err != nil {
		s.writeJSONError(w, errorStatus(err), err.Error())
		return
	}

	info, err := s.db.GetSnapshot(id)
	if err != nil {
		s.writeJSONError(w, errorStatus(err), err.Error())
		return
	}
	snap, err := s.db.LoadSnapshot(id)
	if err != nil {
		s.writeJSONError(w, errorStatus(err), err.Error())
		return
	}

	canvas, err := surface.New(format, s.cfg.GetSize())
	if err != nil {
		s.writeJSONError(w, errorStatus(err), err.Error())
		return
	}
	canvas.SetTitle(fmt.Sprintf("%s  z=%.2f", info.Name, info.Redshift))
	if _, err := plotFn(snap, canvas, params); err != nil {
		s.writeJSONError(w, errorStatus(err), err.Error())
		return
	}

	var buf bytes.Buffer
	if err := canvas.Encode(&buf, format); err != nil {
		s.writeJSONError(w, errorStatus(err), err.Error())
		return
	}
	w.Header().Set("Content-Type", contentTypes[format])
	w.Write(buf.Bytes())
}
