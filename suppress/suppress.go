// Package suppress replaces the channels of each cluster by a single
// representative channel plus a per-channel affine rule.
//
// Only representatives reach the coding engines. Every original channel is
// rebuilt as
//
//	channel = float32(scale*representative) + bias
//
// with the explicit float32 conversion keeping the multiply and add as
// separate roundings on every platform, so the encoder's reference and the
// decoder's output agree bit for bit.
package suppress

import (
	"fmt"
	"slices"

	"github.com/arloliu/ftc/cluster"
	"github.com/arloliu/ftc/errs"
	"github.com/arloliu/ftc/tensor"
)

// TagRepresentatives holds the representative channels of one tag.
type TagRepresentatives struct {
	// Sources lists, per cluster, the original channel index of the representative.
	Sources []int
	// Data stacks the representatives, one channel per cluster.
	Data *tensor.Tensor
}

// Representatives holds the representatives of every tag in tag order.
type Representatives struct {
	tags  []string
	byTag map[string]*TagRepresentatives
}

// NewRepresentatives creates an empty set of representatives.
func NewRepresentatives() *Representatives {
	return &Representatives{byTag: make(map[string]*TagRepresentatives)}
}

// Set stores the representatives of tag.
func (r *Representatives) Set(tag string, tr *TagRepresentatives) {
	if _, ok := r.byTag[tag]; !ok {
		r.tags = append(r.tags, tag)
	}
	r.byTag[tag] = tr
}

// Get returns the representatives of tag.
func (r *Representatives) Get(tag string) (*TagRepresentatives, bool) {
	tr, ok := r.byTag[tag]
	return tr, ok
}

// Tags returns the tags in insertion order.
func (r *Representatives) Tags() []string {
	return slices.Clone(r.tags)
}

// Rule rebuilds one channel from a representative.
type Rule struct {
	Cluster int
	Scale   float32
	Bias    float32
}

// Apply writes float32(Scale*rep) + Bias into dst.
func (r Rule) Apply(rep, dst []float32) {
	for i, x := range rep {
		dst[i] = float32(r.Scale*x) + r.Bias
	}
}

// TagGroup holds the rules of every channel of one tag.
type TagGroup struct {
	Rules []Rule
}

// CodingGroup holds a TagGroup per tag in tag order.
type CodingGroup struct {
	tags  []string
	byTag map[string]*TagGroup
}

// NewCodingGroup creates an empty CodingGroup.
func NewCodingGroup() *CodingGroup {
	return &CodingGroup{byTag: make(map[string]*TagGroup)}
}

// Set stores the rules of tag.
func (g *CodingGroup) Set(tag string, tg *TagGroup) {
	if _, ok := g.byTag[tag]; !ok {
		g.tags = append(g.tags, tag)
	}
	g.byTag[tag] = tg
}

// Get returns the rules of tag.
func (g *CodingGroup) Get(tag string) (*TagGroup, bool) {
	tg, ok := g.byTag[tag]
	return tg, ok
}

// Tags returns the tags in insertion order.
func (g *CodingGroup) Tags() []string {
	return slices.Clone(g.tags)
}

// Suppress extracts one representative per cluster from set and fits a
// least-squares rule for every channel against its cluster representative.
// The representative itself gets the identity rule.
func Suppress(set *tensor.FeatureSet, assignment *cluster.Assignment) (*Representatives, *CodingGroup, error) {
	reps := NewRepresentatives()
	group := NewCodingGroup()

	for _, tag := range set.Tags() {
		t, _ := set.Get(tag)
		ta, ok := assignment.Get(tag)
		if !ok {
			return nil, nil, fmt.Errorf("%w: no cluster assignment for tag %q", errs.ErrTagSetMismatch, tag)
		}
		if ta.Channels() != t.Channels() {
			return nil, nil, fmt.Errorf("%w: tag %q has %d channels, assignment covers %d",
				errs.ErrTensorShape, tag, t.Channels(), ta.Channels())
		}

		s := t.Shape()
		data, err := tensor.New(ta.Len(), s.H, s.W)
		if err != nil {
			return nil, nil, err
		}
		sources := make([]int, ta.Len())
		for c, medoid := range ta.Medoids {
			sources[c] = medoid
			copy(data.Channel(c), t.Channel(medoid))
		}

		rules := make([]Rule, s.C)
		for ch := range rules {
			c := ta.Labels[ch]
			if ch == ta.Medoids[c] {
				rules[ch] = Rule{Cluster: c, Scale: 1}
				continue
			}
			scale, bias := Fit(t.Channel(ch), data.Channel(c))
			rules[ch] = Rule{Cluster: c, Scale: scale, Bias: bias}
		}

		reps.Set(tag, &TagRepresentatives{Sources: sources, Data: data})
		group.Set(tag, &TagGroup{Rules: rules})
	}

	return reps, group, nil
}

// Fit returns the least-squares scale and bias such that
// x ≈ scale*rep + bias. A constant rep yields scale 0 and the mean of x.
func Fit(x, rep []float32) (scale, bias float32) {
	meanX := tensor.Mean(x)
	meanR := tensor.Mean(rep)

	var cov, varR float64
	for i := range x {
		dr := float64(rep[i]) - meanR
		cov += (float64(x[i]) - meanX) * dr
		varR += dr * dr
	}
	if varR == 0 {
		return 0, float32(meanX)
	}

	s := cov / varR

	return float32(s), float32(meanX - s*meanR)
}

// Reconstruct rebuilds every channel of every tag from its representative.
// The group and representatives must cover the same tags.
func Reconstruct(group *CodingGroup, reps *Representatives) (*tensor.FeatureSet, error) {
	out := tensor.NewFeatureSet()
	for _, tag := range group.Tags() {
		tg, _ := group.Get(tag)
		tr, ok := reps.Get(tag)
		if !ok {
			return nil, fmt.Errorf("%w: no representatives for tag %q", errs.ErrTagSetMismatch, tag)
		}

		s := tr.Data.Shape()
		t, err := tensor.New(len(tg.Rules), s.H, s.W)
		if err != nil {
			return nil, err
		}
		for ch, rule := range tg.Rules {
			if !tr.Data.HasChannel(rule.Cluster) {
				return nil, fmt.Errorf("%w: channel %d of tag %q refers to cluster %d of %d",
					errs.ErrInvalidPayload, ch, tag, rule.Cluster, s.C)
			}
			rule.Apply(tr.Data.Channel(rule.Cluster), t.Channel(ch))
		}

		if err := out.Add(tag, t); err != nil {
			return nil, err
		}
	}

	return out, nil
}
