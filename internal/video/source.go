// Package video provides index-addressable frame sources. Reading index i
// always yields the same frame for an opened source; no read consumes a
// frame that a later read of a different index depends on.
package video

import (
	"errors"

	"video-quality-dashboard/internal/opencv/safe"
)

var (
	// ErrSourceOpen is fatal at startup.
	ErrSourceOpen = errors.New("frame source could not be opened")
	// ErrEndOfStream marks a read outside the available range or a frame the
	// decoder could not produce. It is recoverable.
	ErrEndOfStream = errors.New("end of stream")
)

// Source is a random-access sequence of decoded frames. A Source is not safe
// for concurrent readers unless documented otherwise; parallel callers each
// open their own through an Opener.
type Source interface {
	FrameCount() int
	FPS() float64
	// ReadAt returns a frame the caller owns and must Close.
	ReadAt(index int) (*safe.Mat, error)
	Close() error
}

// Opener produces a fresh, privately owned cursor over the same content.
type Opener func() (Source, error)

// DefaultFPS is assumed when a container does not report a usable rate.
const DefaultFPS = 30.0

func inRange(index, count int) bool {
	return index >= 0 && index < count
}
