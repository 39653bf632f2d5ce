// Package memory accounts for the OpenCV buffers held by frame sources and
// the heatmap pipeline, so leaked Mats show up at shutdown.
package memory

import (
	"sync"

	"video-quality-dashboard/internal/logger"
)

type Stats struct {
	TotalAllocated int64
	TotalReleased  int64
	ActiveMats     int64
	PeakActive     int64
}

type record struct {
	size int64
	tag  string
}

// Tracker implements safe.MemoryTracker.
type Tracker struct {
	mu          sync.Mutex
	allocations map[uint64]record
	stats       Stats
	logger      logger.Logger
}

func NewTracker(log logger.Logger) *Tracker {
	return &Tracker{
		allocations: make(map[uint64]record),
		logger:      log,
	}
}

func (t *Tracker) TrackAllocation(id uint64, size int64, tag string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.allocations[id] = record{size: size, tag: tag}
	t.stats.TotalAllocated += size
	t.stats.ActiveMats++
	if t.stats.ActiveMats > t.stats.PeakActive {
		t.stats.PeakActive = t.stats.ActiveMats
	}
}

func (t *Tracker) TrackDeallocation(id uint64, tag string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.allocations[id]
	if !ok {
		t.logger.Warning("MemoryTracker", "release of untracked Mat", map[string]interface{}{
			"id":  id,
			"tag": tag,
		})
		return
	}

	delete(t.allocations, id)
	t.stats.TotalReleased += rec.size
	t.stats.ActiveMats--
}

func (t *Tracker) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stats
}

// Shutdown reports Mats that were never closed.
func (t *Tracker) Shutdown() {
	t.mu.Lock()
	defer t.mu.Unlock()

	fields := map[string]interface{}{
		"allocated_bytes": t.stats.TotalAllocated,
		"released_bytes":  t.stats.TotalReleased,
		"peak_active":     t.stats.PeakActive,
	}
	if len(t.allocations) == 0 {
		t.logger.Debug("MemoryTracker", "all tracked Mats released", fields)
		return
	}

	byTag := make(map[string]int)
	for _, rec := range t.allocations {
		byTag[rec.tag]++
	}
	fields["leaked"] = byTag
	t.logger.Warning("MemoryTracker", "tracked Mats still open at shutdown", fields)
}
