package tensor

import (
	"fmt"
	"slices"

	"github.com/arloliu/ftc/errs"
)

// Sequence is the ordered list of feature sets coded into one bitstream.
type Sequence struct {
	// Frames holds one FeatureSet per time step.
	Frames []*FeatureSet
	// OriginalSize is the size of the source image before any resizing done
	// by the feature extractor.
	OriginalSize Size
	// InputSize is the size of the image fed to the feature extractor.
	InputSize Size
}

// FromLayers builds a Sequence from per-tag frame lists, the layout produced
// by feature extractors that stack time steps per layer. All tags must hold
// the same number of frames.
func FromLayers(tags []string, layers map[string][]*Tensor) (*Sequence, error) {
	if len(tags) == 0 {
		return nil, errs.ErrEmptySequence
	}

	frameCount := -1
	for _, tag := range tags {
		frames, ok := layers[tag]
		if !ok {
			return nil, fmt.Errorf("%w: missing layer %q", errs.ErrTagSetMismatch, tag)
		}
		if frameCount == -1 {
			frameCount = len(frames)
		} else if len(frames) != frameCount {
			return nil, fmt.Errorf("%w: tag %q has %d frames, expected %d",
				errs.ErrFrameCountMismatch, tag, len(frames), frameCount)
		}
	}
	if frameCount == 0 {
		return nil, errs.ErrEmptySequence
	}

	seq := &Sequence{Frames: make([]*FeatureSet, frameCount)}
	for i := range frameCount {
		set := NewFeatureSet()
		for _, tag := range tags {
			if err := set.Add(tag, layers[tag][i]); err != nil {
				return nil, err
			}
		}
		seq.Frames[i] = set
	}

	return seq, nil
}

// Len returns the number of time steps.
func (q *Sequence) Len() int {
	return len(q.Frames)
}

// Tags returns the tag order of the first frame.
func (q *Sequence) Tags() []string {
	if len(q.Frames) == 0 {
		return nil
	}

	return q.Frames[0].Tags()
}

// Layer returns the frames of one tag in time order.
func (q *Sequence) Layer(tag string) []*Tensor {
	out := make([]*Tensor, 0, len(q.Frames))
	for _, f := range q.Frames {
		if t, ok := f.Get(tag); ok {
			out = append(out, t)
		}
	}

	return out
}

// Validate checks that the sequence is non-empty and that every frame has
// the tags of the first frame, in the same order, with the same shapes.
func (q *Sequence) Validate() error {
	if len(q.Frames) == 0 || q.Frames[0] == nil || q.Frames[0].Len() == 0 {
		return errs.ErrEmptySequence
	}

	first := q.Frames[0]
	for i, f := range q.Frames[1:] {
		if f == nil || !slices.Equal(first.tags, f.tags) {
			return fmt.Errorf("%w: frame %d", errs.ErrTagSetMismatch, i+1)
		}
		for _, tag := range first.tags {
			want, got := first.tensors[tag].Shape(), f.tensors[tag].Shape()
			if want != got {
				return fmt.Errorf("%w: tag %q frame %d is %s, expected %s",
					errs.ErrTensorShape, tag, i+1, got, want)
			}
		}
	}

	return nil
}
