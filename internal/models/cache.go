package models

import (
	"fmt"
	"sync"

	"video-quality-dashboard/internal/metrics"
)

type slot struct {
	sample metrics.Sample
	set    bool
}

// MetricsCache holds one metric sample per frame index. Slots start unset
// and are written at most once.
type MetricsCache struct {
	mu     sync.RWMutex
	slots  []slot
	filled int
}

// NewMetricsCache creates a cache with totalFrames unset slots.
func NewMetricsCache(totalFrames int) *MetricsCache {
	if totalFrames < 0 {
		totalFrames = 0
	}
	return &MetricsCache{slots: make([]slot, totalFrames)}
}

// Len returns the number of slots.
func (c *MetricsCache) Len() int {
	return len(c.slots)
}

// Get returns the sample at index and whether it has been computed.
func (c *MetricsCache) Get(index int) (metrics.Sample, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if index < 0 || index >= len(c.slots) || !c.slots[index].set {
		return metrics.Sample{}, false
	}
	return c.slots[index].sample, true
}

// Set stores sample at index. It reports false without writing if the slot
// was already set.
func (c *MetricsCache) Set(index int, sample metrics.Sample) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if index < 0 || index >= len(c.slots) {
		return false, fmt.Errorf("metrics cache: index %d outside [0,%d)", index, len(c.slots))
	}
	if c.slots[index].set {
		return false, nil
	}
	c.slots[index] = slot{sample: sample, set: true}
	c.filled++
	return true, nil
}

// Filled returns how many slots are set.
func (c *MetricsCache) Filled() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.filled
}

// Complete reports whether every slot is set.
func (c *MetricsCache) Complete() bool {
	return c.Filled() == c.Len()
}

// Samples returns the set samples in index order.
func (c *MetricsCache) Samples() []metrics.Sample {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]metrics.Sample, 0, c.filled)
	for _, s := range c.slots {
		if s.set {
			out = append(out, s.sample)
		}
	}
	return out
}
