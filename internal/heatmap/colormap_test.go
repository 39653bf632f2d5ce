package heatmap

import (
	"testing"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScheme(t *testing.T) {
	for scheme, name := range schemeNames {
		got, err := ParseScheme(name)
		require.NoError(t, err)
		assert.Equal(t, scheme, got)
	}

	got, err := ParseScheme(" HOT ")
	require.NoError(t, err)
	assert.Equal(t, SchemeHot, got)

	_, err = ParseScheme("plasma")
	assert.Error(t, err)
}

func TestParseSchemes(t *testing.T) {
	got, err := ParseSchemes([]string{"lab", "jet"})
	require.NoError(t, err)
	assert.Equal(t, []Scheme{SchemeLab, SchemeJet}, got)

	_, err = ParseSchemes([]string{"jet", "nope"})
	assert.Error(t, err)
}

func TestLabLUTLightnessRises(t *testing.T) {
	prev := -1.0
	for i, bgr := range labLUT {
		c := colorful.Color{R: float64(bgr[2]) / 255, G: float64(bgr[1]) / 255, B: float64(bgr[0]) / 255}
		l, _, _ := c.Lab()
		// Allow rounding jitter from the 8-bit quantisation.
		assert.GreaterOrEqual(t, l, prev-0.01, "entry %d", i)
		prev = l
	}
}

func TestLabLUTEndpoints(t *testing.T) {
	first, err := colorful.Hex(labStops[0])
	require.NoError(t, err)
	r, g, b := first.RGB255()
	assert.Equal(t, [3]uint8{b, g, r}, labLUT[0])

	last, err := colorful.Hex(labStops[len(labStops)-1])
	require.NoError(t, err)
	r, g, b = last.RGB255()
	assert.Equal(t, [3]uint8{b, g, r}, labLUT[255])
}
