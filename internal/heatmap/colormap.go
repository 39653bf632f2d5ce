package heatmap

import (
	"fmt"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"gocv.io/x/gocv"
)

// Scheme selects the false-color transfer function. Every scheme maps low
// error to dark/cool colors and high error to bright/hot ones.
type Scheme int

const (
	SchemeJet Scheme = iota
	SchemeHot
	SchemeRainbow
	SchemeLab
)

var schemeNames = map[Scheme]string{
	SchemeJet:     "jet",
	SchemeHot:     "hot",
	SchemeRainbow: "rainbow",
	SchemeLab:     "lab",
}

func (s Scheme) String() string {
	if name, ok := schemeNames[s]; ok {
		return name
	}
	return fmt.Sprintf("scheme(%d)", int(s))
}

func ParseScheme(name string) (Scheme, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for scheme, n := range schemeNames {
		if n == name {
			return scheme, nil
		}
	}
	return 0, fmt.Errorf("unknown colormap scheme %q", name)
}

// ParseSchemes parses a configured cycle order.
func ParseSchemes(names []string) ([]Scheme, error) {
	out := make([]Scheme, 0, len(names))
	for _, n := range names {
		s, err := ParseScheme(n)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func (s Scheme) opencv() (gocv.ColormapTypes, bool) {
	switch s {
	case SchemeJet:
		return gocv.ColormapJet, true
	case SchemeHot:
		return gocv.ColormapHot, true
	case SchemeRainbow:
		return gocv.ColormapRainbow, true
	default:
		return 0, false
	}
}

// labStops rise monotonically in CIE L*.
var labStops = []string{"#0b0b3b", "#3b2f9e", "#b8328c", "#f0643c", "#ffd24a", "#ffffe0"}

// lut is a 256-entry BGR lookup table.
type lut [256][3]uint8

var labLUT = buildLabLUT(labStops)

// buildLabLUT interpolates the stops in Lab space so equal steps of error
// read as equal steps of color.
func buildLabLUT(stops []string) *lut {
	colors := make([]colorful.Color, len(stops))
	for i, hex := range stops {
		c, err := colorful.Hex(hex)
		if err != nil {
			panic(fmt.Sprintf("invalid colormap stop %q: %v", hex, err))
		}
		colors[i] = c
	}

	table := &lut{}
	segments := float64(len(colors) - 1)
	for i := 0; i < 256; i++ {
		pos := float64(i) / 255 * segments
		seg := int(pos)
		if seg >= len(colors)-1 {
			seg = len(colors) - 2
		}
		c := colors[seg].BlendLab(colors[seg+1], pos-float64(seg)).Clamped()
		r, g, b := c.RGB255()
		table[i] = [3]uint8{b, g, r}
	}
	return table
}
