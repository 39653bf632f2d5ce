package controllers

import (
	"time"

	"video-quality-dashboard/internal/heatmap"
	"video-quality-dashboard/internal/metrics"
	"video-quality-dashboard/internal/models"
	"video-quality-dashboard/internal/opencv/safe"
)

type EventKind int

const (
	EventNone EventKind = iota
	EventKey
	EventSeek
	EventClose
)

// Event is one discrete input. Key is set for EventKey, Frame for EventSeek.
type Event struct {
	Kind  EventKind
	Key   int
	Frame int
}

func KeyEvent(code int) Event { return Event{Kind: EventKey, Key: code} }

func SeekEvent(frame int) Event { return Event{Kind: EventSeek, Frame: frame} }

// Input delivers events. Poll blocks for at most wait and returns EventNone
// if nothing arrived.
type Input interface {
	Poll(wait time.Duration) Event
}

// Display is one composed dashboard frame. Views are already resized and
// labeled; the controller owns the mats.
type Display struct {
	Original   *safe.Mat
	Compressed *safe.Mat
	Difference *safe.Mat
	Panel      *safe.Mat

	State  models.PlaybackState
	Sample metrics.Sample
	Stats  heatmap.DifferenceStats
}

func (d *Display) Close() {
	for _, m := range []*safe.Mat{d.Original, d.Compressed, d.Difference, d.Panel} {
		if m != nil {
			m.Close()
		}
	}
}

// Sink presents composed frames.
type Sink interface {
	Render(d *Display) error
	Close() error
}
