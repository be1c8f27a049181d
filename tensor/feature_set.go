package tensor

import (
	"fmt"
	"slices"

	"github.com/arloliu/ftc/errs"
)

// FeatureSet is one time step of a feature pyramid: an ordered mapping from
// tag to tensor.
type FeatureSet struct {
	tags    []string
	tensors map[string]*Tensor
}

// NewFeatureSet creates an empty FeatureSet.
func NewFeatureSet() *FeatureSet {
	return &FeatureSet{tensors: make(map[string]*Tensor)}
}

// Add appends tag to the set. Tags must be non-empty and unique.
func (s *FeatureSet) Add(tag string, t *Tensor) error {
	if tag == "" {
		return errs.ErrInvalidTagName
	}
	if t == nil {
		return fmt.Errorf("%w: nil tensor for tag %q", errs.ErrInvalidTensor, tag)
	}
	if _, exists := s.tensors[tag]; exists {
		return fmt.Errorf("%w: duplicate tag %q", errs.ErrInvalidTagName, tag)
	}

	s.tags = append(s.tags, tag)
	s.tensors[tag] = t

	return nil
}

// Tags returns the tags in insertion order.
func (s *FeatureSet) Tags() []string {
	return slices.Clone(s.tags)
}

// Len returns the number of tags.
func (s *FeatureSet) Len() int {
	return len(s.tags)
}

// Get returns the tensor stored under tag.
func (s *FeatureSet) Get(tag string) (*Tensor, bool) {
	t, ok := s.tensors[tag]
	return t, ok
}

// TotalChannels returns the channel count summed over all tags.
func (s *FeatureSet) TotalChannels() int {
	total := 0
	for _, tag := range s.tags {
		total += s.tensors[tag].Channels()
	}

	return total
}

// Map returns a new FeatureSet with fn applied to every tensor, keeping tag order.
func (s *FeatureSet) Map(fn func(tag string, t *Tensor) *Tensor) *FeatureSet {
	out := &FeatureSet{tags: slices.Clone(s.tags), tensors: make(map[string]*Tensor, len(s.tags))}
	for _, tag := range s.tags {
		out.tensors[tag] = fn(tag, s.tensors[tag])
	}

	return out
}

// SameLayout reports whether other has the same tags in the same order with
// identical shapes.
func (s *FeatureSet) SameLayout(other *FeatureSet) bool {
	if other == nil || !slices.Equal(s.tags, other.tags) {
		return false
	}
	for _, tag := range s.tags {
		if s.tensors[tag].Shape() != other.tensors[tag].Shape() {
			return false
		}
	}

	return true
}
