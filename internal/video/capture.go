package video

import (
	"fmt"
	"math"
	"sync"

	"video-quality-dashboard/internal/logger"
	"video-quality-dashboard/internal/opencv/safe"

	"gocv.io/x/gocv"
)

// CaptureSource decodes a video file with OpenCV. It remembers the decoder
// position so sequential reads skip the seek.
type CaptureSource struct {
	mu         sync.Mutex
	path       string
	capture    *gocv.VideoCapture
	frameCount int
	fps        float64
	next       int
	tracker    safe.MemoryTracker
	log        logger.Logger
}

// OpenCapture opens path for decoding. Failures wrap ErrSourceOpen.
func OpenCapture(path string, tracker safe.MemoryTracker, log logger.Logger) (*CaptureSource, error) {
	capture, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %v: %w", path, err, ErrSourceOpen)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("%s: %w", path, ErrSourceOpen)
	}

	frameCount := int(capture.Get(gocv.VideoCaptureFrameCount))
	if frameCount <= 0 {
		capture.Close()
		return nil, fmt.Errorf("%s: no frames reported: %w", path, ErrSourceOpen)
	}

	fps := capture.Get(gocv.VideoCaptureFPS)
	if fps <= 0 || math.IsNaN(fps) || math.IsInf(fps, 0) {
		log.Warning("CaptureSource", "container reports no frame rate, assuming default", map[string]interface{}{
			"path": path,
			"fps":  DefaultFPS,
		})
		fps = DefaultFPS
	}

	log.Debug("CaptureSource", "opened", map[string]interface{}{
		"path":   path,
		"frames": frameCount,
		"fps":    fps,
	})

	return &CaptureSource{
		path:       path,
		capture:    capture,
		frameCount: frameCount,
		fps:        fps,
		tracker:    tracker,
		log:        log,
	}, nil
}

// CaptureOpener returns an Opener that opens path anew on each call.
func CaptureOpener(path string, tracker safe.MemoryTracker, log logger.Logger) Opener {
	return func() (Source, error) {
		return OpenCapture(path, tracker, log)
	}
}

func (c *CaptureSource) FrameCount() int { return c.frameCount }

func (c *CaptureSource) FPS() float64 { return c.fps }

func (c *CaptureSource) ReadAt(index int) (*safe.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capture == nil {
		return nil, fmt.Errorf("%s: read after close: %w", c.path, ErrEndOfStream)
	}
	if !inRange(index, c.frameCount) {
		return nil, fmt.Errorf("%s: frame %d of %d: %w", c.path, index, c.frameCount, ErrEndOfStream)
	}

	if index != c.next {
		c.capture.Set(gocv.VideoCapturePosFrames, float64(index))
	}

	frame := gocv.NewMat()
	if ok := c.capture.Read(&frame); !ok || frame.Empty() {
		frame.Close()
		// Force a seek on the next read; the decoder position is unknown.
		c.next = -1
		return nil, fmt.Errorf("%s: frame %d: %w", c.path, index, ErrEndOfStream)
	}
	c.next = index + 1

	return safe.Adopt(frame, c.tracker, "capture")
}

func (c *CaptureSource) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capture == nil {
		return nil
	}
	err := c.capture.Close()
	c.capture = nil
	return err
}
