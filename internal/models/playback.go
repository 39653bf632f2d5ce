package models

import (
	"video-quality-dashboard/internal/heatmap"
)

// Mode is the playback controller's state.
type Mode int

const (
	Paused Mode = iota
	Playing
	Seeking
	Terminated
)

func (m Mode) String() string {
	switch m {
	case Paused:
		return "PAUSED"
	case Playing:
		return "PLAYING"
	case Seeking:
		return "SEEKING"
	case Terminated:
		return "TERMINATED"
	default:
		return "UNKNOWN"
	}
}

// PlaybackState is the interactive session state.
type PlaybackState struct {
	Frame        int
	TotalFrames  int
	Mode         Mode
	HeatmapAlpha float64
	Scheme       heatmap.Scheme
}

// Playing reports whether autoplay is active.
func (s PlaybackState) Playing() bool {
	return s.Mode == Playing
}

// Progress is the cursor position in [0,1].
func (s PlaybackState) Progress() float64 {
	if s.TotalFrames <= 1 {
		return 0
	}
	return float64(s.Frame) / float64(s.TotalFrames-1)
}

// Clamp bounds index to the valid frame range.
func (s PlaybackState) Clamp(index int) int {
	if index >= s.TotalFrames {
		index = s.TotalFrames - 1
	}
	if index < 0 {
		index = 0
	}
	return index
}
