package memory

import (
	"testing"

	"video-quality-dashboard/internal/logger"

	"github.com/stretchr/testify/assert"
)

func TestTrackerCounts(t *testing.T) {
	tr := NewTracker(logger.Nop())

	tr.TrackAllocation(1, 100, "frame")
	tr.TrackAllocation(2, 50, "frame")
	tr.TrackDeallocation(1, "frame")

	stats := tr.Stats()
	assert.Equal(t, int64(150), stats.TotalAllocated)
	assert.Equal(t, int64(100), stats.TotalReleased)
	assert.Equal(t, int64(1), stats.ActiveMats)
	assert.Equal(t, int64(2), stats.PeakActive)

	tr.Shutdown()
}

func TestTrackerIgnoresUnknownRelease(t *testing.T) {
	tr := NewTracker(logger.Nop())

	tr.TrackDeallocation(42, "frame")

	assert.Equal(t, Stats{}, tr.Stats())
}
