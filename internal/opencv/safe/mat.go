// Package safe wraps gocv.Mat as the image buffer shared by every component:
// a 2-D grid of 8-bit samples with 1 or 3 channels, row-major.
package safe

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"gocv.io/x/gocv"
)

// MemoryTracker interface to avoid import cycles
type MemoryTracker interface {
	TrackAllocation(id uint64, size int64, tag string)
	TrackDeallocation(id uint64, tag string)
}

type Mat struct {
	mat        gocv.Mat
	isValid    int32
	mu         sync.RWMutex
	id         uint64
	memTracker MemoryTracker
	tag        string
}

var nextMatID uint64

func NewMat(rows, cols int, matType gocv.MatType) (*Mat, error) {
	return NewMatWithTracker(rows, cols, matType, nil, "")
}

func NewMatWithTracker(rows, cols int, matType gocv.MatType, memTracker MemoryTracker, tag string) (*Mat, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("invalid dimensions: %dx%d", cols, rows)
	}

	mat := gocv.NewMatWithSize(rows, cols, matType)
	if mat.Empty() {
		mat.Close()
		return nil, fmt.Errorf("failed to create Mat with size %dx%d", cols, rows)
	}

	return wrap(mat, memTracker, tag), nil
}

// NewMatFromBytes builds an 8-bit buffer from row-major samples. channels
// must be 1 or 3 (BGR order).
func NewMatFromBytes(rows, cols, channels int, data []byte) (*Mat, error) {
	var matType gocv.MatType
	switch channels {
	case 1:
		matType = gocv.MatTypeCV8UC1
	case 3:
		matType = gocv.MatTypeCV8UC3
	default:
		return nil, fmt.Errorf("unsupported channel count: %d", channels)
	}
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("invalid dimensions: %dx%d", cols, rows)
	}
	if len(data) != rows*cols*channels {
		return nil, fmt.Errorf("data length %d does not match %dx%dx%d", len(data), cols, rows, channels)
	}

	mat, err := gocv.NewMatFromBytes(rows, cols, matType, data)
	if err != nil {
		return nil, fmt.Errorf("Mat from bytes: %w", err)
	}
	// NewMatFromBytes shares the Go slice; own a copy.
	owned := mat.Clone()
	mat.Close()

	return wrap(owned, nil, ""), nil
}

func NewMatFromMatWithTracker(srcMat gocv.Mat, memTracker MemoryTracker, tag string) (*Mat, error) {
	if srcMat.Empty() {
		return nil, fmt.Errorf("source Mat is empty")
	}

	if srcMat.Rows() <= 0 || srcMat.Cols() <= 0 {
		return nil, fmt.Errorf("source Mat has invalid dimensions: %dx%d", srcMat.Cols(), srcMat.Rows())
	}

	clonedMat := srcMat.Clone()
	if clonedMat.Empty() {
		clonedMat.Close()
		return nil, fmt.Errorf("failed to clone Mat")
	}

	return wrap(clonedMat, memTracker, tag), nil
}

// Adopt takes ownership of mat without copying it. The caller must not close
// mat afterwards.
func Adopt(mat gocv.Mat, memTracker MemoryTracker, tag string) (*Mat, error) {
	if mat.Empty() {
		mat.Close()
		return nil, fmt.Errorf("adopted Mat is empty")
	}
	return wrap(mat, memTracker, tag), nil
}

func wrap(mat gocv.Mat, memTracker MemoryTracker, tag string) *Mat {
	safeMat := &Mat{
		mat:        mat,
		isValid:    1,
		id:         atomic.AddUint64(&nextMatID, 1),
		memTracker: memTracker,
		tag:        tag,
	}

	if memTracker != nil {
		size := int64(mat.Rows() * mat.Cols() * getMatTypeSize(mat.Type()))
		memTracker.TrackAllocation(safeMat.id, size, tag)
	}

	// Set finalizer for cleanup if Close() is not called
	runtime.SetFinalizer(safeMat, (*Mat).finalize)

	return safeMat
}

func (sm *Mat) IsValid() bool {
	return atomic.LoadInt32(&sm.isValid) == 1
}

func (sm *Mat) Empty() bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.IsValid() {
		return true
	}

	return sm.mat.Empty()
}

func (sm *Mat) Rows() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.IsValid() {
		return 0
	}

	return sm.mat.Rows()
}

func (sm *Mat) Cols() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.IsValid() {
		return 0
	}

	return sm.mat.Cols()
}

func (sm *Mat) Channels() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.IsValid() {
		return 0
	}

	return sm.mat.Channels()
}

func (sm *Mat) Type() gocv.MatType {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.IsValid() {
		return gocv.MatTypeCV8UC1
	}

	return sm.mat.Type()
}

// SameShape reports whether other has identical width, height and channel count.
func (sm *Mat) SameShape(other *Mat) bool {
	return sm.Rows() == other.Rows() && sm.Cols() == other.Cols() && sm.Channels() == other.Channels()
}

func (sm *Mat) Clone() (*Mat, error) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.IsValid() {
		return nil, fmt.Errorf("cannot clone invalid Mat")
	}

	if sm.mat.Empty() {
		return nil, fmt.Errorf("cannot clone empty Mat")
	}

	return NewMatFromMatWithTracker(sm.mat, sm.memTracker, sm.tag+"_clone")
}

// Bytes returns a copy of the samples, row-major, channels interleaved.
func (sm *Mat) Bytes() []byte {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.IsValid() {
		return nil
	}

	return sm.mat.ToBytes()
}

func (sm *Mat) GetUCharAt(row, col int) (uint8, error) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.IsValid() {
		return 0, fmt.Errorf("Mat is invalid")
	}

	if row < 0 || row >= sm.mat.Rows() || col < 0 || col >= sm.mat.Cols() {
		return 0, fmt.Errorf("coordinates out of bounds: (%d,%d) for size %dx%d",
			col, row, sm.mat.Cols(), sm.mat.Rows())
	}

	return sm.mat.GetUCharAt(row, col), nil
}

func (sm *Mat) GetUCharAt3(row, col, channel int) (uint8, error) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.IsValid() {
		return 0, fmt.Errorf("Mat is invalid")
	}

	if row < 0 || row >= sm.mat.Rows() || col < 0 || col >= sm.mat.Cols() {
		return 0, fmt.Errorf("coordinates out of bounds: (%d,%d) for size %dx%d",
			col, row, sm.mat.Cols(), sm.mat.Rows())
	}

	if channel < 0 || channel >= sm.mat.Channels() {
		return 0, fmt.Errorf("channel out of bounds: %d for %d channels", channel, sm.mat.Channels())
	}

	return sm.mat.GetUCharAt3(row, col, channel), nil
}

// GetMat exposes the underlying gocv.Mat for OpenCV calls. It stays owned by sm.
func (sm *Mat) GetMat() gocv.Mat {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return sm.mat
}

// MatPtr is GetMat for OpenCV calls that draw into the buffer in place.
func (sm *Mat) MatPtr() *gocv.Mat {
	return &sm.mat
}

func (sm *Mat) ID() uint64 {
	return sm.id
}

func (sm *Mat) Close() {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if atomic.CompareAndSwapInt32(&sm.isValid, 1, 0) {
		if sm.memTracker != nil {
			sm.memTracker.TrackDeallocation(sm.id, sm.tag)
		}

		sm.mat.Close()

		// Clear finalizer since we're cleaning up manually
		runtime.SetFinalizer(sm, nil)
	}
}

// finalize is called by Go's garbage collector as last resort cleanup
func (sm *Mat) finalize() {
	if atomic.LoadInt32(&sm.isValid) == 1 {
		sm.Close()
	}
}

func getMatTypeSize(matType gocv.MatType) int {
	switch matType {
	case gocv.MatTypeCV8UC1:
		return 1
	case gocv.MatTypeCV8UC3:
		return 3
	case gocv.MatTypeCV8UC4:
		return 4
	case gocv.MatTypeCV32FC1:
		return 4
	case gocv.MatTypeCV32FC3:
		return 12
	default:
		return 1
	}
}
