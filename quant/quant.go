// Package quant implements the scalar quantizer shared by the intra and
// inter coding engines.
//
// The step size doubles every density quantization parameters:
//
//	Step(qp, density) = 2^(qp/density - 6)
//
// Each coded block is split into a DC term (its mean) and per-sample detail
// levels. The DC term uses its own parameters, (qp + dcQPOffset,
// density + dcQPDensityOffset), so it can be kept finer than the detail.
package quant

import (
	"math"
)

// Params are the quantization parameters of a sequence.
type Params struct {
	QP                int
	QPDensity         int
	DCQPOffset        int
	DCQPDensityOffset int
}

// DetailStep returns the step size applied to per-sample detail.
func (p Params) DetailStep() float64 {
	return Step(p.QP, p.QPDensity)
}

// DCStep returns the step size applied to the block mean.
func (p Params) DCStep() float64 {
	return Step(p.QP+p.DCQPOffset, p.QPDensity+p.DCQPDensityOffset)
}

// Quantizer returns a block quantizer for p.
func (p Params) Quantizer() Quantizer {
	return Quantizer{dcStep: p.DCStep(), step: p.DetailStep()}
}

// Step returns the quantization step size for qp at the given density.
// density must be positive.
func Step(qp, density int) float64 {
	return math.Exp2(float64(qp)/float64(density) - 6)
}

// Quantize maps v to the nearest level, rounding halves away from zero.
// Results beyond the int32 range are clamped; NaN maps to 0.
func Quantize(v, step float64) int32 {
	q := math.Round(v / step)
	switch {
	case math.IsNaN(q):
		return 0
	case q >= math.MaxInt32:
		return math.MaxInt32
	case q <= math.MinInt32:
		return math.MinInt32
	}

	return int32(q)
}

// Dequantize maps a level back to a sample value.
func Dequantize(level int32, step float64) float32 {
	return float32(float64(level) * step)
}

// Quantizer codes blocks with a fixed pair of step sizes.
type Quantizer struct {
	dcStep float64
	step   float64
}

// Steps returns the DC and detail step sizes.
func (q Quantizer) Steps() (dc, detail float64) {
	return q.dcStep, q.step
}

// Encode quantizes src, or its residual against ref when ref is non-nil,
// into levels and returns the DC level. levels must be as long as src and
// ref, if given.
func (q Quantizer) Encode(src, ref []float32, levels []int32) int32 {
	var sum float64
	for i, x := range src {
		if ref != nil {
			x -= ref[i]
		}
		sum += float64(x)
	}
	var mean float64
	if len(src) > 0 {
		mean = sum / float64(len(src))
	}

	dcLevel := Quantize(mean, q.dcStep)
	dcHat := Dequantize(dcLevel, q.dcStep)

	for i, x := range src {
		if ref != nil {
			x -= ref[i]
		}
		levels[i] = Quantize(float64(x-dcHat), q.step)
	}

	return dcLevel
}

// Decode reconstructs a block from its DC level and detail levels into dst,
// adding ref when it is non-nil. Encoders call Decode to obtain the same
// reconstruction the decoder will produce.
func (q Quantizer) Decode(dcLevel int32, levels []int32, ref, dst []float32) {
	dcHat := Dequantize(dcLevel, q.dcStep)
	for i, l := range levels {
		v := dcHat + Dequantize(l, q.step)
		if ref != nil {
			v = ref[i] + v
		}
		dst[i] = v
	}
}
