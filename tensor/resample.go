package tensor

import "math"

// bicubicA is the Keys kernel parameter used by common deep learning
// frameworks for bicubic interpolation.
const bicubicA = -0.75

// ScaledSize returns floor(n*factor), never less than 1.
func ScaledSize(n int, factor float64) int {
	out := int(math.Floor(float64(n) * factor))
	if out < 1 {
		return 1
	}

	return out
}

// Scale resizes every channel of t by factor with bicubic interpolation.
// Output dimensions are floor(dim*factor).
func Scale(t *Tensor, factor float64) *Tensor {
	return Resize(t, ScaledSize(t.shape.H, factor), ScaledSize(t.shape.W, factor))
}

// Resize resamples every channel of t to h×w using separable bicubic
// interpolation with half-pixel centers and edge clamping.
func Resize(t *Tensor, h, w int) *Tensor {
	src := t.shape
	if src.H == h && src.W == w {
		return t.Clone()
	}

	colIdx, colW := cubicTaps(src.W, w)
	rowIdx, rowW := cubicTaps(src.H, h)

	out := &Tensor{shape: Shape{C: src.C, H: h, W: w}, data: make([]float32, src.C*h*w)}
	tmp := make([]float64, src.H*w)

	for c := range src.C {
		in := t.Channel(c)

		// horizontal pass: src.H × w
		for y := range src.H {
			row := in[y*src.W : (y+1)*src.W]
			for x := range w {
				var acc float64
				for k := range 4 {
					acc += colW[x][k] * float64(row[colIdx[x][k]])
				}
				tmp[y*w+x] = acc
			}
		}

		// vertical pass: h × w
		dst := out.Channel(c)
		for y := range h {
			for x := range w {
				var acc float64
				for k := range 4 {
					acc += rowW[y][k] * tmp[rowIdx[y][k]*w+x]
				}
				dst[y*w+x] = float32(acc)
			}
		}
	}

	return out
}

// cubicTaps returns, for each output position, the four clamped source
// indices and their kernel weights.
func cubicTaps(inSize, outSize int) ([][4]int, [][4]float64) {
	scale := float64(inSize) / float64(outSize)
	idx := make([][4]int, outSize)
	weights := make([][4]float64, outSize)

	for o := range outSize {
		src := (float64(o)+0.5)*scale - 0.5
		base := math.Floor(src)
		weights[o] = cubicWeights(src - base)
		for k := range 4 {
			idx[o][k] = clamp(int(base)-1+k, 0, inSize-1)
		}
	}

	return idx, weights
}

func cubicWeights(t float64) [4]float64 {
	const a = bicubicA

	x0 := t + 1
	w0 := ((a*x0-5*a)*x0+8*a)*x0 - 4*a
	w1 := ((a+2)*t-(a+3))*t*t + 1
	x2 := 1 - t
	w2 := ((a+2)*x2-(a+3))*x2*x2 + 1

	return [4]float64{w0, w1, w2, 1 - w0 - w1 - w2}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}

	return v
}
