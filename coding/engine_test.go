package coding

import (
	"bytes"
	"fmt"
	"math"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/ftc/cluster"
	"github.com/arloliu/ftc/errs"
	"github.com/arloliu/ftc/format"
	"github.com/arloliu/ftc/section"
	"github.com/arloliu/ftc/suppress"
	"github.com/arloliu/ftc/tensor"
)

func featureSet(t *testing.T, phase float64) *tensor.FeatureSet {
	t.Helper()

	set := tensor.NewFeatureSet()
	for _, l := range []struct {
		tag     string
		c, h, w int
	}{
		{"p2", 8, 8, 8},
		{"p3", 4, 4, 4},
	} {
		ts, err := tensor.New(l.c, l.h, l.w)
		require.NoError(t, err)
		for c := 0; c < l.c; c++ {
			ch := ts.Channel(c)
			for i := range ch {
				y, x := i/l.w, i%l.w
				base := math.Sin(float64(x)/2+phase) + math.Cos(float64(y)/3)
				if c%2 == 1 {
					base = float64((x*y)%3) + phase
				}
				ch[i] = float32(c+1)*float32(base) + float32(c)*0.25
			}
		}
		require.NoError(t, set.Add(l.tag, ts))
	}

	return set
}

func testParams(t *testing.T, set *tensor.FeatureSet, comp format.CompressionType, bigEndian bool) Params {
	t.Helper()

	h := section.NewSequenceHeader()
	h.Flag.SetCompression(comp)
	if bigEndian {
		h.Flag.WithBigEndian()
	}
	require.NoError(t, h.Digest(set, tensor.Size{}, tensor.Size{}))
	require.NoError(t, h.SetParams(2, 4, 2, false, -2, 1))

	p, err := ParamsFromHeader(h)
	require.NoError(t, err)

	return p
}

func suppressSet(t *testing.T, set *tensor.FeatureSet) (*suppress.Representatives, *suppress.CodingGroup) {
	t.Helper()

	a, err := cluster.Cluster(set, cluster.NewStatsProxy(), func(tag string) int {
		if tag == "p2" {
			return 3
		}
		return 2
	})
	require.NoError(t, err)
	reps, group, err := suppress.Suppress(set, a)
	require.NoError(t, err)

	return reps, group
}

func requireSameReps(t *testing.T, want, got *suppress.Representatives) {
	t.Helper()

	require.Equal(t, want.Tags(), got.Tags())
	for _, tag := range want.Tags() {
		w, _ := want.Get(tag)
		g, _ := got.Get(tag)
		require.Equal(t, w.Sources, g.Sources)
		require.Equal(t, w.Data.Shape(), g.Data.Shape())
		require.Equal(t, w.Data.Data(), g.Data.Data(), "tag %s must match bit for bit", tag)
	}
}

func TestIntra_RoundTrip(t *testing.T) {
	for _, comp := range []format.CompressionType{format.CompressionNone, format.CompressionZstd, format.CompressionS2, format.CompressionLZ4} {
		for _, bigEndian := range []bool{false, true} {
			t.Run(fmt.Sprintf("%s/big=%t", comp, bigEndian), func(t *testing.T) {
				set := featureSet(t, 0)
				p := testParams(t, set, comp, bigEndian)
				reps, group := suppressSet(t, set)

				var buf bytes.Buffer
				n, encRecon, err := EncodeIntra(p, reps, group, &buf)
				require.NoError(t, err)
				require.Equal(t, buf.Len(), n)

				frame, err := ReadFrame(buf.Bytes(), p)
				require.NoError(t, err)
				require.Equal(t, format.Intra, frame.Type)
				require.Equal(t, n, frame.Size)

				decReps, decGroup, err := Decode(p, frame, nil)
				require.NoError(t, err)
				requireSameReps(t, encRecon, decReps)

				for _, tag := range group.Tags() {
					want, _ := group.Get(tag)
					got, _ := decGroup.Get(tag)
					require.Equal(t, want.Rules, got.Rules)
				}

				// Reconstruction approximates the representatives.
				_, step := p.Quant.Quantizer().Steps()
				for _, tag := range reps.Tags() {
					src, _ := reps.Get(tag)
					rec, _ := decReps.Get(tag)
					for i, v := range src.Data.Data() {
						require.InDelta(t, v, rec.Data.Data()[i], step/2+1e-3)
					}
				}
			})
		}
	}
}

func TestInter_RoundTrip(t *testing.T) {
	first := featureSet(t, 0)
	second := featureSet(t, 0.1)
	p := testParams(t, first, format.CompressionZstd, false)

	reps, group := suppressSet(t, first)
	var buf bytes.Buffer
	_, intraRecon, err := EncodeIntra(p, reps, group, &buf)
	require.NoError(t, err)
	reference, err := suppress.Reconstruct(group, intraRecon)
	require.NoError(t, err)

	reps2, group2 := suppressSet(t, second)
	buf.Reset()
	n, encRecon, err := EncodeInter(p, reps2, group2, reference, &buf)
	require.NoError(t, err)

	frame, err := ReadFrame(buf.Bytes(), p)
	require.NoError(t, err)
	require.Equal(t, format.InterPredicted, frame.Type)
	require.Equal(t, n, frame.Size)

	decReps, _, err := Decode(p, frame, reference)
	require.NoError(t, err)
	requireSameReps(t, encRecon, decReps)

	t.Run("missing reference is rejected", func(t *testing.T) {
		_, _, err := DecodeInter(p, nil, frame.Payload)
		require.ErrorIs(t, err, errs.ErrInvalidPayload)
	})
}

func TestInter_FallsBackToIntra(t *testing.T) {
	set := featureSet(t, 0)
	p := testParams(t, set, format.CompressionNone, false)
	reps, group := suppressSet(t, set)

	// A reference with a different plane size cannot predict.
	reference := tensor.NewFeatureSet()
	small, err := tensor.New(8, 2, 2)
	require.NoError(t, err)
	require.NoError(t, reference.Add("p2", small))

	var buf bytes.Buffer
	_, encRecon, err := EncodeInter(p, reps, group, reference, &buf)
	require.NoError(t, err)

	frame, err := ReadFrame(buf.Bytes(), p)
	require.NoError(t, err)

	decReps, _, err := DecodeInter(p, nil, frame.Payload)
	require.NoError(t, err)
	requireSameReps(t, encRecon, decReps)
}

func TestEncode_ShapeErrors(t *testing.T) {
	set := featureSet(t, 0)
	p := testParams(t, set, format.CompressionNone, false)
	reps, group := suppressSet(t, set)

	t.Run("missing tag", func(t *testing.T) {
		_, _, err := EncodeIntra(p, suppress.NewRepresentatives(), group, &bytes.Buffer{})
		require.ErrorIs(t, err, errs.ErrTagSetMismatch)
	})

	t.Run("wrong plane", func(t *testing.T) {
		q := p
		q.Tags = append([]section.TagInfo(nil), p.Tags...)
		q.Tags[0].Height = 4
		_, _, err := EncodeIntra(q, reps, group, &bytes.Buffer{})
		require.ErrorIs(t, err, errs.ErrTensorShape)
	})
}

func TestDecode_CorruptPayload(t *testing.T) {
	set := featureSet(t, 0)
	p := testParams(t, set, format.CompressionNone, false)
	reps, group := suppressSet(t, set)

	var buf bytes.Buffer
	_, _, err := EncodeIntra(p, reps, group, &buf)
	require.NoError(t, err)
	frame, err := ReadFrame(buf.Bytes(), p)
	require.NoError(t, err)

	t.Run("truncated", func(t *testing.T) {
		_, _, err := DecodeIntra(p, frame.Payload[:len(frame.Payload)-1])
		require.ErrorIs(t, err, errs.ErrTruncatedPayload)
	})

	t.Run("trailing bytes", func(t *testing.T) {
		payload := append(append([]byte(nil), frame.Payload...), 0)
		_, _, err := DecodeIntra(p, payload)
		require.ErrorIs(t, err, errs.ErrInvalidPayload)
	})

	t.Run("too many clusters", func(t *testing.T) {
		payload := append([]byte(nil), frame.Payload...)
		payload[0] = 9 // p2 has 8 channels
		_, _, err := DecodeIntra(p, payload)
		require.ErrorIs(t, err, errs.ErrInvalidPayload)
	})

	t.Run("zero clusters", func(t *testing.T) {
		payload := append([]byte(nil), frame.Payload...)
		payload[0] = 0
		_, _, err := DecodeIntra(p, payload)
		require.ErrorIs(t, err, errs.ErrInvalidPayload)
	})

	t.Run("plane larger than the payload", func(t *testing.T) {
		huge := p
		huge.Tags = slices.Clone(p.Tags)
		huge.Tags[0].Height, huge.Tags[0].Width = 1<<12, 1<<12
		_, _, err := DecodeIntra(huge, frame.Payload)
		require.ErrorIs(t, err, errs.ErrTruncatedPayload)
		require.ErrorIs(t, err, errs.ErrBitstreamFormat)
	})
}
