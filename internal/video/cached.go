package video

import (
	"fmt"
	"sync"

	"video-quality-dashboard/internal/opencv/safe"

	lru "github.com/hashicorp/golang-lru"
)

// CachedSource keeps the most recently decoded frames so stepping back and
// forth around the cursor does not hit the decoder.
type CachedSource struct {
	mu     sync.Mutex
	source Source
	cache  *lru.Cache
}

func closer(key, value interface{}) {
	if frame, ok := value.(*safe.Mat); ok {
		frame.Close()
	}
}

// NewCachedSource wraps source with an LRU of size decoded frames. The
// CachedSource owns source.
func NewCachedSource(source Source, size int) (*CachedSource, error) {
	cache, err := lru.NewWithEvict(size, closer)
	if err != nil {
		return nil, fmt.Errorf("couldn't create frame cache: %w", err)
	}
	return &CachedSource{source: source, cache: cache}, nil
}

func (c *CachedSource) FrameCount() int { return c.source.FrameCount() }

func (c *CachedSource) FPS() float64 { return c.source.FPS() }

func (c *CachedSource) ReadAt(index int) (*safe.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cached, ok := c.cache.Get(index); ok {
		return cached.(*safe.Mat).Clone()
	}

	frame, err := c.source.ReadAt(index)
	if err != nil {
		return nil, err
	}
	kept, err := frame.Clone()
	if err != nil {
		return frame, nil
	}
	c.cache.Add(index, kept)
	return frame, nil
}

// Cached reports how many frames are held.
func (c *CachedSource) Cached() int {
	return c.cache.Len()
}

func (c *CachedSource) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache.Purge()
	return c.source.Close()
}

// CachedOpener wraps every source produced by open in its own cache.
func CachedOpener(open Opener, size int) Opener {
	if size <= 0 {
		return open
	}
	return func() (Source, error) {
		source, err := open()
		if err != nil {
			return nil, err
		}
		cached, err := NewCachedSource(source, size)
		if err != nil {
			source.Close()
			return nil, err
		}
		return cached, nil
	}
}
