package cluster

import "slices"

// MaxIterations bounds the Lloyd refinement of KMeans.
const MaxIterations = 32

// KMeans partitions points into k clusters and returns the label of every
// point. It is deterministic: centroids start from point 0 and grow by
// farthest-point selection, ties always resolve to the lowest index, and
// empty clusters take the point farthest from its centroid among clusters
// with more than one member. Every cluster is non-empty on return.
//
// k must be in [1, len(points)].
func KMeans(points [][]float64, k int) []int {
	n := len(points)
	labels := make([]int, n)
	if k <= 1 || n == 0 {
		return labels
	}

	centroids := farthestPointInit(points, k)
	sizes := make([]int, k)
	for i := range labels {
		labels[i] = -1
	}

	prev := make([]int, n)
	for iter := 0; iter < MaxIterations; iter++ {
		copy(prev, labels)
		for i := range sizes {
			sizes[i] = 0
		}
		for i, p := range points {
			best := nearest(p, centroids)
			labels[i] = best
			sizes[best]++
		}

		refill(points, labels, sizes, centroids)
		updateCentroids(points, labels, centroids)

		if slices.Equal(prev, labels) {
			break
		}
	}

	return labels
}

// Medoids returns, for each of the k clusters, the member closest to the
// cluster centroid.
func Medoids(points [][]float64, labels []int, k int) []int {
	centroids := make([][]float64, k)
	dim := 0
	if len(points) > 0 {
		dim = len(points[0])
	}
	for c := range centroids {
		centroids[c] = make([]float64, dim)
	}
	updateCentroids(points, labels, centroids)

	medoids := make([]int, k)
	bestDist := make([]float64, k)
	for c := range medoids {
		medoids[c] = -1
	}
	for i, p := range points {
		c := labels[i]
		d := sqDist(p, centroids[c])
		if medoids[c] < 0 || d < bestDist[c] {
			medoids[c] = i
			bestDist[c] = d
		}
	}

	return medoids
}

func farthestPointInit(points [][]float64, k int) [][]float64 {
	n := len(points)
	chosen := make([]bool, n)
	minDist := make([]float64, n)

	centroids := make([][]float64, 0, k)
	next := 0
	for len(centroids) < k {
		chosen[next] = true
		centroids = append(centroids, clonePoint(points[next]))

		for i, p := range points {
			d := sqDist(p, points[next])
			if len(centroids) == 1 || d < minDist[i] {
				minDist[i] = d
			}
		}

		next = -1
		for i := range points {
			if chosen[i] {
				continue
			}
			if next < 0 || minDist[i] > minDist[next] {
				next = i
			}
		}
		if next < 0 {
			break
		}
	}

	return centroids
}

// refill moves points into empty clusters.
func refill(points [][]float64, labels, sizes []int, centroids [][]float64) {
	for c := range sizes {
		if sizes[c] > 0 {
			continue
		}

		far, farDist := -1, 0.0
		for i, p := range points {
			from := labels[i]
			if sizes[from] < 2 {
				continue
			}
			d := sqDist(p, centroids[from])
			if far < 0 || d > farDist {
				far, farDist = i, d
			}
		}
		if far < 0 {
			return
		}

		sizes[labels[far]]--
		labels[far] = c
		sizes[c] = 1
		copy(centroids[c], points[far])
	}
}

func updateCentroids(points [][]float64, labels []int, centroids [][]float64) {
	counts := make([]int, len(centroids))
	for c := range centroids {
		for d := range centroids[c] {
			centroids[c][d] = 0
		}
	}
	for i, p := range points {
		c := labels[i]
		counts[c]++
		for d, v := range p {
			centroids[c][d] += v
		}
	}
	for c := range centroids {
		if counts[c] == 0 {
			continue
		}
		inv := 1 / float64(counts[c])
		for d := range centroids[c] {
			centroids[c][d] *= inv
		}
	}
}

func nearest(p []float64, centroids [][]float64) int {
	best, bestDist := 0, sqDist(p, centroids[0])
	for c := 1; c < len(centroids); c++ {
		if d := sqDist(p, centroids[c]); d < bestDist {
			best, bestDist = c, d
		}
	}

	return best
}

func sqDist(a, b []float64) float64 {
	var s float64
	for i := range a {
		d := a[i] - b[i]
		s += d * d
	}

	return s
}

func clonePoint(p []float64) []float64 {
	out := make([]float64, len(p))
	copy(out, p)

	return out
}
