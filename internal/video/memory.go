package video

import (
	"fmt"
	"sync"

	"video-quality-dashboard/internal/opencv/safe"
)

// MemorySource serves frames held in memory. Reads hand out clones, so it is
// safe for concurrent readers and its Opener shares the frames.
type MemorySource struct {
	mu     sync.RWMutex
	frames []*safe.Mat
	fps    float64
	closed bool
}

// NewMemorySource takes ownership of frames.
func NewMemorySource(frames []*safe.Mat, fps float64) *MemorySource {
	if fps <= 0 {
		fps = DefaultFPS
	}
	return &MemorySource{frames: frames, fps: fps}
}

func (m *MemorySource) FrameCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.frames)
}

func (m *MemorySource) FPS() float64 { return m.fps }

func (m *MemorySource) ReadAt(index int) (*safe.Mat, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, fmt.Errorf("memory source: read after close: %w", ErrEndOfStream)
	}
	if !inRange(index, len(m.frames)) {
		return nil, fmt.Errorf("memory source: frame %d of %d: %w", index, len(m.frames), ErrEndOfStream)
	}
	frame := m.frames[index]
	if frame == nil {
		return nil, fmt.Errorf("memory source: frame %d missing: %w", index, ErrEndOfStream)
	}
	return frame.Clone()
}

// Opener returns views that share the frames. Closing a view leaves the
// frames intact; closing the MemorySource itself releases them.
func (m *MemorySource) Opener() Opener {
	return func() (Source, error) {
		return &memoryView{source: m}, nil
	}
}

func (m *MemorySource) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	for _, frame := range m.frames {
		if frame != nil {
			frame.Close()
		}
	}
	m.frames = nil
	return nil
}

type memoryView struct {
	source *MemorySource
}

func (v *memoryView) FrameCount() int { return v.source.FrameCount() }
func (v *memoryView) FPS() float64 { return v.source.FPS() }
func (v *memoryView) ReadAt(index int) (*safe.Mat, error) { return v.source.ReadAt(index) }
func (v *memoryView) Close() error { return nil }
