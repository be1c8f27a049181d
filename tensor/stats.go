package tensor

import "math"

// Mean returns the arithmetic mean of v, accumulated in float64.
func Mean(v []float32) float64 {
	if len(v) == 0 {
		return 0
	}
	var sum float64
	for _, x := range v {
		sum += float64(x)
	}

	return sum / float64(len(v))
}

// MeanStd returns the mean and population standard deviation of v.
func MeanStd(v []float32) (float64, float64) {
	mean := Mean(v)
	if len(v) == 0 {
		return 0, 0
	}
	var ss float64
	for _, x := range v {
		d := float64(x) - mean
		ss += d * d
	}

	return mean, math.Sqrt(ss / float64(len(v)))
}

// MSE returns the mean squared error between a and b, which must have equal length.
func MSE(a, b []float32) float64 {
	if len(a) == 0 {
		return 0
	}
	var ss float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		ss += d * d
	}

	return ss / float64(len(a))
}
