package video

import (
	"fmt"

	"video-quality-dashboard/internal/opencv/conversion"
	"video-quality-dashboard/internal/opencv/safe"
)

// Pair reads the original and compressed sources as one synchronized unit.
// Both frames of a read always share the same index.
type Pair struct {
	Original   Source
	Compressed Source
}

// NewPair pairs two already opened sources and takes ownership of them.
func NewPair(original, compressed Source) *Pair {
	return &Pair{Original: original, Compressed: compressed}
}

// OpenPair opens both sides, closing the first if the second fails.
func OpenPair(original, compressed Opener) (*Pair, error) {
	o, err := original()
	if err != nil {
		return nil, fmt.Errorf("original: %w", err)
	}
	c, err := compressed()
	if err != nil {
		o.Close()
		return nil, fmt.Errorf("compressed: %w", err)
	}
	return NewPair(o, c), nil
}

// PairOpener opens a privately owned pair.
type PairOpener func() (*Pair, error)

// BindPair binds two openers so workers can open private pairs.
func BindPair(original, compressed Opener) PairOpener {
	return func() (*Pair, error) {
		return OpenPair(original, compressed)
	}
}

// FrameCount is the number of indices both sides can serve.
func (p *Pair) FrameCount() int {
	o, c := p.Original.FrameCount(), p.Compressed.FrameCount()
	if c < o {
		return c
	}
	return o
}

// FPS follows the original, which paces playback.
func (p *Pair) FPS() float64 {
	return p.Original.FPS()
}

// ReadAt returns the frames at index with the compressed frame resampled to
// the original's size. Either read failing releases the other frame.
func (p *Pair) ReadAt(index int) (original, compressed *safe.Mat, err error) {
	if !inRange(index, p.FrameCount()) {
		return nil, nil, fmt.Errorf("pair: frame %d of %d: %w", index, p.FrameCount(), ErrEndOfStream)
	}

	original, err = p.Original.ReadAt(index)
	if err != nil {
		return nil, nil, fmt.Errorf("original: %w", err)
	}
	compressed, err = p.Compressed.ReadAt(index)
	if err != nil {
		original.Close()
		return nil, nil, fmt.Errorf("compressed: %w", err)
	}

	if original.Cols() != compressed.Cols() || original.Rows() != compressed.Rows() {
		resized, err := conversion.MatchSize(compressed, original)
		compressed.Close()
		if err != nil {
			original.Close()
			return nil, nil, fmt.Errorf("resample compressed frame %d: %w", index, err)
		}
		compressed = resized
	}
	return original, compressed, nil
}

func (p *Pair) Close() error {
	errO := p.Original.Close()
	errC := p.Compressed.Close()
	if errO != nil {
		return errO
	}
	return errC
}
