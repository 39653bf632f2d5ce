package controllers

import (
	"testing"

	"video-quality-dashboard/internal/config"
	"video-quality-dashboard/internal/heatmap"
	"video-quality-dashboard/internal/metrics"
	"video-quality-dashboard/internal/models"
	"video-quality-dashboard/internal/opencv/safe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyMapDefaults(t *testing.T) {
	km, err := NewKeyMap(config.DefaultKeys())
	require.NoError(t, err)

	assert.Equal(t, CommandToggle, km.Lookup(32))
	assert.Equal(t, CommandQuit, km.Lookup(27))
	assert.Equal(t, CommandColormap, km.Lookup('C'))
	assert.Equal(t, CommandNone, km.Lookup('z'))

	help := km.Help()
	assert.Contains(t, help, "RIGHT/d: Next Frame")
	require.Len(t, help, 6)
	assert.Equal(t, "SPACE: Play/Pause", help[0])
	assert.Equal(t, "ESC/q: Quit", help[3])
}

func TestKeyMapErrors(t *testing.T) {
	_, err := NewKeyMap(map[string][]int{"rewind": {'r'}})
	assert.Error(t, err)

	_, err = NewKeyMap(map[string][]int{"next": {'x'}, "prev": {'x'}})
	assert.Error(t, err)
}

func TestComposePanel(t *testing.T) {
	state := models.PlaybackState{Frame: 4, TotalFrames: 10, Mode: models.Playing, HeatmapAlpha: 0.5}
	panel, err := Compose(state, metrics.Sample{PSNR: 35.5, SSIM: 0.93}, heatmap.DifferenceStats{MaxError: 40}, []string{"SPACE: Play/Pause"}, 640)
	require.NoError(t, err)
	defer panel.Close()

	assert.Equal(t, PanelHeight, panel.Rows())
	assert.Equal(t, 640, panel.Cols())
	assert.Equal(t, 3, panel.Channels())

	// Timeline marker sits at 10 + 620*4/9.
	b, err := panel.GetUCharAt3(timelineY+5, 285, 1)
	require.NoError(t, err)
	assert.Equal(t, uint8(255), b)

	state.Frame = 9
	last, err := Compose(state, metrics.Sample{}, heatmap.DifferenceStats{}, nil, 640)
	require.NoError(t, err)
	defer last.Close()

	// On the last frame the marker reaches the end of the bar at 630.
	b, err = last.GetUCharAt3(timelineY+5, 629, 1)
	require.NoError(t, err)
	assert.Equal(t, uint8(255), b)

	_, err = Compose(state, metrics.Sample{}, heatmap.DifferenceStats{}, nil, 10)
	assert.Error(t, err)
}

func TestLabelViewExpandsGray(t *testing.T) {
	frame, err := safe.NewMatFromBytes(4, 4, 1, make([]byte, 16))
	require.NoError(t, err)
	defer frame.Close()

	view, err := LabelView(frame, "x", 32, 20, white)
	require.NoError(t, err)
	defer view.Close()

	assert.Equal(t, 32, view.Cols())
	assert.Equal(t, 20, view.Rows())
	assert.Equal(t, 3, view.Channels())
}
