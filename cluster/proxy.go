package cluster

import (
	"github.com/arloliu/ftc/tensor"
)

// DefaultGrid is the pooling lattice size of StatsProxy.
const DefaultGrid = 4

// SimilarityProxy turns each channel of a tensor into a descriptor vector.
// Channels with close descriptors are expected to be well predicted from
// one another by a scale and a bias.
//
// Every descriptor returned for one tensor must have the same length.
type SimilarityProxy interface {
	Describe(tag string, t *tensor.Tensor) [][]float64
}

// StatsProxy describes a channel by its standardized values average pooled
// on a Grid×Grid lattice. Standardization removes scale and offset, so
// channels related by a positive affine map get identical descriptors.
type StatsProxy struct {
	Grid int
}

var _ SimilarityProxy = StatsProxy{}

// NewStatsProxy returns a StatsProxy with the default grid.
func NewStatsProxy() StatsProxy {
	return StatsProxy{Grid: DefaultGrid}
}

// Describe implements SimilarityProxy.
func (p StatsProxy) Describe(_ string, t *tensor.Tensor) [][]float64 {
	s := t.Shape()
	grid := p.Grid
	if grid <= 0 {
		grid = DefaultGrid
	}
	gh, gw := min(grid, s.H), min(grid, s.W)

	out := make([][]float64, s.C)
	for c := range out {
		ch := t.Channel(c)
		mean, std := tensor.MeanStd(ch)

		desc := make([]float64, gh*gw)
		out[c] = desc
		if std == 0 {
			continue
		}

		for gy := 0; gy < gh; gy++ {
			y0, y1 := gy*s.H/gh, (gy+1)*s.H/gh
			for gx := 0; gx < gw; gx++ {
				x0, x1 := gx*s.W/gw, (gx+1)*s.W/gw
				var sum float64
				for y := y0; y < y1; y++ {
					row := ch[y*s.W : (y+1)*s.W]
					for x := x0; x < x1; x++ {
						sum += float64(row[x])
					}
				}
				n := float64((y1 - y0) * (x1 - x0))
				desc[gy*gw+gx] = (sum/n - mean) / std
			}
		}
	}

	return out
}
