package safe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

type countingTracker struct {
	allocated map[uint64]int64
	released  []uint64
}

func (c *countingTracker) TrackAllocation(id uint64, size int64, tag string) {
	if c.allocated == nil {
		c.allocated = make(map[uint64]int64)
	}
	c.allocated[id] = size
}

func (c *countingTracker) TrackDeallocation(id uint64, tag string) {
	c.released = append(c.released, id)
}

func TestNewMatFromBytes(t *testing.T) {
	data := []byte{1, 2, 3, 4, 5, 6}
	mat, err := NewMatFromBytes(2, 1, 3, data)
	require.NoError(t, err)
	defer mat.Close()

	assert.Equal(t, 2, mat.Rows())
	assert.Equal(t, 1, mat.Cols())
	assert.Equal(t, 3, mat.Channels())

	data[0] = 99
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6}, mat.Bytes())

	v, err := mat.GetUCharAt3(1, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, uint8(6), v)
}

func TestNewMatFromBytesRejectsBadInput(t *testing.T) {
	_, err := NewMatFromBytes(2, 2, 2, make([]byte, 8))
	assert.Error(t, err)

	_, err = NewMatFromBytes(2, 2, 1, make([]byte, 3))
	assert.Error(t, err)

	_, err = NewMatFromBytes(0, 2, 1, nil)
	assert.Error(t, err)
}

func TestCloneIsIndependent(t *testing.T) {
	mat, err := NewMatFromBytes(1, 2, 1, []byte{10, 20})
	require.NoError(t, err)

	clone, err := mat.Clone()
	require.NoError(t, err)
	defer clone.Close()

	mat.Close()
	assert.False(t, mat.IsValid())
	assert.True(t, mat.Empty())
	assert.Equal(t, []byte{10, 20}, clone.Bytes())

	_, err = mat.Clone()
	assert.Error(t, err)
}

func TestTrackerSeesAllocationAndRelease(t *testing.T) {
	tracker := &countingTracker{}
	mat, err := NewMatWithTracker(4, 5, gocv.MatTypeCV8UC3, tracker, "frame")
	require.NoError(t, err)

	assert.Equal(t, int64(60), tracker.allocated[mat.ID()])

	mat.Close()
	mat.Close()
	assert.Equal(t, []uint64{mat.ID()}, tracker.released)
}

func TestSameShape(t *testing.T) {
	a, err := NewMat(3, 4, gocv.MatTypeCV8UC1)
	require.NoError(t, err)
	defer a.Close()
	b, err := NewMat(3, 4, gocv.MatTypeCV8UC1)
	require.NoError(t, err)
	defer b.Close()
	c, err := NewMat(3, 4, gocv.MatTypeCV8UC3)
	require.NoError(t, err)
	defer c.Close()

	assert.True(t, a.SameShape(b))
	assert.False(t, a.SameShape(c))
}

func TestValidatePair(t *testing.T) {
	good, err := NewMat(2, 2, gocv.MatTypeCV8UC1)
	require.NoError(t, err)
	defer good.Close()

	float, err := NewMat(2, 2, gocv.MatTypeCV32FC1)
	require.NoError(t, err)
	defer float.Close()

	assert.NoError(t, ValidatePair(good, good, "test"))

	err = ValidatePair(nil, good, "test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "first frame")

	err = ValidatePair(good, float, "test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "second frame")
}

func TestGetUCharAtBounds(t *testing.T) {
	mat, err := NewMatFromBytes(1, 1, 1, []byte{5})
	require.NoError(t, err)
	defer mat.Close()

	v, err := mat.GetUCharAt(0, 0)
	require.NoError(t, err)
	assert.Equal(t, uint8(5), v)

	_, err = mat.GetUCharAt(1, 0)
	assert.Error(t, err)
}
