// Package surface provides drawing surfaces for phase plots: a gonum/plot
// canvas for image and vector output, a go-echarts page for HTML, and a
// Recorder for tests.
package surface

import (
	"fmt"
	"image/color"
	"strings"

	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/brewer"
	"gonum.org/v1/plot/palette/moreland"

	"github.com/banshee-data/phaseplot/internal/phase"
)

// paletteSize is the number of colours sampled from continuous colour maps.
const paletteSize = 256

// reversed flips the colour order of a palette.
type reversed struct{ palette.Palette }

func (r reversed) Colors() []color.Color {
	src := r.Palette.Colors()
	out := make([]color.Color, len(src))
	for i, c := range src {
		out[len(src)-1-i] = c
	}
	return out
}

func continuous(cm palette.ColorMap) palette.Palette {
	cm.SetMin(0)
	cm.SetMax(1)
	return cm.Palette(paletteSize)
}

// Palette resolves a colour-map name. Brewer names ("Blues", "YlOrRd", ...)
// and the continuous maps "heat", "blackbody", "kindlmann" and "bluered"
// are recognised; a "_r" suffix reverses the order.
func Palette(name string) (palette.Palette, error) {
	base, rev := strings.CutSuffix(name, "_r")

	var p palette.Palette
	switch strings.ToLower(base) {
	case "":
		return nil, fmt.Errorf("%w: empty colour map name", phase.ErrInvalidConfiguration)
	case "heat":
		p = palette.Heat(paletteSize, 1)
	case "blackbody":
		p = continuous(moreland.ExtendedBlackBody())
	case "kindlmann":
		p = continuous(moreland.ExtendedKindlmann())
	case "bluered":
		p = continuous(moreland.SmoothBlueRed())
	default:
		bp, err := brewer.GetPalette(brewer.TypeAny, base, 9)
		if err != nil {
			return nil, fmt.Errorf("%w: colour map %q: %v", phase.ErrInvalidConfiguration, name, err)
		}
		p = bp
	}
	if rev {
		p = reversed{p}
	}
	return p, nil
}

// colourAt picks the palette entry for a normalized intensity t in [0, 1].
func colourAt(colours []color.Color, t float64) color.Color {
	if len(colours) == 0 {
		return color.Transparent
	}
	i := int(t*float64(len(colours)-1) + 0.5)
	if i < 0 {
		i = 0
	}
	if i >= len(colours) {
		i = len(colours) - 1
	}
	return colours[i]
}

// hexColours converts a palette to CSS hex strings.
func hexColours(p palette.Palette) []string {
	cs := p.Colors()
	out := make([]string, len(cs))
	for i, c := range cs {
		n := color.NRGBAModel.Convert(c).(color.NRGBA)
		out[i] = fmt.Sprintf("#%02x%02x%02x", n.R, n.G, n.B)
	}
	return out
}
