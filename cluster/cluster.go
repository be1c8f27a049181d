// Package cluster groups the channels of each feature tensor so that one
// representative per group can be coded in place of all members.
//
// Clustering runs on intra-coded feature sets only; inter-coded sets reuse
// the last assignment. The decoder never clusters, it reads the channel to
// cluster mapping from the payload.
package cluster

import (
	"fmt"
	"slices"

	"github.com/arloliu/ftc/errs"
	"github.com/arloliu/ftc/tensor"
)

// TagAssignment is the clustering of one tag's channels.
type TagAssignment struct {
	// Labels maps each channel index to its cluster index.
	Labels []int
	// Members lists the channel indices of each cluster in ascending order.
	Members [][]int
	// Medoids holds the representative channel index of each cluster.
	Medoids []int
}

// Len returns the number of clusters.
func (a *TagAssignment) Len() int {
	return len(a.Members)
}

// Channels returns the number of clustered channels.
func (a *TagAssignment) Channels() int {
	return len(a.Labels)
}

// Assignment holds a TagAssignment per tag in tag order.
type Assignment struct {
	tags  []string
	byTag map[string]*TagAssignment
}

// NewAssignment creates an empty Assignment.
func NewAssignment() *Assignment {
	return &Assignment{byTag: make(map[string]*TagAssignment)}
}

// Set stores the assignment of tag, replacing any previous one.
func (a *Assignment) Set(tag string, ta *TagAssignment) {
	if _, ok := a.byTag[tag]; !ok {
		a.tags = append(a.tags, tag)
	}
	a.byTag[tag] = ta
}

// Get returns the assignment of tag.
func (a *Assignment) Get(tag string) (*TagAssignment, bool) {
	ta, ok := a.byTag[tag]
	return ta, ok
}

// Tags returns the assigned tags in insertion order.
func (a *Assignment) Tags() []string {
	return slices.Clone(a.tags)
}

// Cluster clusters the channels of every tag in set independently.
//
// nCluster returns the cluster count for a tag; it must lie in
// [1, channels] or ErrInvalidClusterCount is returned.
func Cluster(set *tensor.FeatureSet, proxy SimilarityProxy, nCluster func(tag string) int) (*Assignment, error) {
	if proxy == nil {
		return nil, errs.ErrInvalidSimilarityProxy
	}

	out := NewAssignment()
	for _, tag := range set.Tags() {
		t, _ := set.Get(tag)
		k := nCluster(tag)
		if k < 1 || k > t.Channels() {
			return nil, fmt.Errorf("%w: tag %q has %d channels, n_cluster %d", errs.ErrInvalidClusterCount, tag, t.Channels(), k)
		}

		desc := proxy.Describe(tag, t)
		if len(desc) != t.Channels() {
			return nil, fmt.Errorf("%w: %d descriptors for %d channels of tag %q",
				errs.ErrInvalidSimilarityProxy, len(desc), t.Channels(), tag)
		}

		out.Set(tag, Assign(desc, k))
	}

	return out, nil
}

// Assign clusters descriptors into k groups and picks their medoids.
func Assign(desc [][]float64, k int) *TagAssignment {
	labels := KMeans(desc, k)
	members := make([][]int, k)
	for ch, c := range labels {
		members[c] = append(members[c], ch)
	}

	return &TagAssignment{
		Labels:  labels,
		Members: members,
		Medoids: Medoids(desc, labels, k),
	}
}
