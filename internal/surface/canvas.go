package surface

import (
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"

	"github.com/banshee-data/phaseplot/internal/phase"
)

// Canvas is a drawing surface that can be titled and written out.
type Canvas interface {
	phase.Axes
	SetTitle(title string)
	Save(path string) error
	Encode(w io.Writer, format string) error
}

// Formats lists the output formats accepted by New.
var Formats = []string{"png", "svg", "pdf", "eps", "jpg", "jpeg", "tif", "tiff", "html"}

// FormatFromPath returns the lower-cased extension of path without the dot.
func FormatFromPath(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}

// WithFormatExt appends "."+format to path when path has no extension, so
// extension-driven writers pick the intended format.
func WithFormatExt(path, format string) string {
	if FormatFromPath(path) != "" {
		return path
	}
	return strings.TrimSuffix(path, ".") + "." + strings.ToLower(format)
}

// New returns a canvas for the given output format.
func New(format string, size Size) (Canvas, error) {
	format = strings.ToLower(format)
	switch {
	case format == "html":
		return NewEChart(size), nil
	case slices.Contains(Formats, format):
		return NewPlot(size), nil
	default:
		return nil, fmt.Errorf("%w: unsupported output format %q (want one of %s)",
			phase.ErrInvalidConfiguration, format, strings.Join(Formats, ", "))
	}
}
