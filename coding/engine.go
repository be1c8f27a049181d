package coding

import (
	"fmt"
	"io"

	"github.com/arloliu/ftc/encoding"
	"github.com/arloliu/ftc/errs"
	"github.com/arloliu/ftc/format"
	"github.com/arloliu/ftc/internal/pool"
	"github.com/arloliu/ftc/quant"
	"github.com/arloliu/ftc/section"
	"github.com/arloliu/ftc/suppress"
	"github.com/arloliu/ftc/tensor"
)

// Cluster coding modes of inter sets.
const (
	modeIntra     byte = 0
	modePredicted byte = 1
)

// EncodeIntra codes reps and group without reference to another time step
// and writes the frame to sink.
//
// It returns the frame size and the representatives as the decoder will
// reconstruct them.
func EncodeIntra(p Params, reps *suppress.Representatives, group *suppress.CodingGroup, sink io.Writer) (int, *suppress.Representatives, error) {
	return encodeSet(p, format.Intra, reps, group, nil, sink)
}

// EncodeInter codes every representative as a residual against the channel
// of reference at the representative's source index and writes the frame
// to sink. Clusters without a usable reference channel are intra coded.
//
// reference is the reconstruction of the previous time step.
func EncodeInter(p Params, reps *suppress.Representatives, group *suppress.CodingGroup, reference *tensor.FeatureSet, sink io.Writer) (int, *suppress.Representatives, error) {
	return encodeSet(p, format.InterPredicted, reps, group, reference, sink)
}

// DecodeIntra parses the decompressed payload of an intra frame.
func DecodeIntra(p Params, payload []byte) (*suppress.Representatives, *suppress.CodingGroup, error) {
	return decodeSet(p, format.Intra, nil, payload)
}

// DecodeInter parses the decompressed payload of an inter frame, adding the
// reference channels to predicted clusters.
func DecodeInter(p Params, reference *tensor.FeatureSet, payload []byte) (*suppress.Representatives, *suppress.CodingGroup, error) {
	return decodeSet(p, format.InterPredicted, reference, payload)
}

// Decode dispatches a frame to the engine named by its marker.
func Decode(p Params, frame Frame, reference *tensor.FeatureSet) (*suppress.Representatives, *suppress.CodingGroup, error) {
	switch frame.Type {
	case format.Intra:
		return DecodeIntra(p, frame.Payload)
	case format.InterPredicted:
		return DecodeInter(p, reference, frame.Payload)
	default:
		return nil, nil, fmt.Errorf("%w: %d", errs.ErrInvalidCodingType, frame.Type)
	}
}

func encodeSet(p Params, ct format.CodingType, reps *suppress.Representatives, group *suppress.CodingGroup, reference *tensor.FeatureSet, sink io.Writer) (int, *suppress.Representatives, error) {
	enc := encoding.NewSymbolEncoder(p.Engine)
	defer enc.Finish()

	q := p.Quant.Quantizer()
	recon := suppress.NewRepresentatives()

	for _, info := range p.Tags {
		tr, ok := reps.Get(info.Name)
		if !ok {
			return 0, nil, fmt.Errorf("%w: no representatives for tag %q", errs.ErrTagSetMismatch, info.Name)
		}
		tg, ok := group.Get(info.Name)
		if !ok {
			return 0, nil, fmt.Errorf("%w: no coding group for tag %q", errs.ErrTagSetMismatch, info.Name)
		}
		if err := checkTag(info, tr, tg); err != nil {
			return 0, nil, err
		}

		s := tr.Data.Shape()
		enc.WriteUvarint(uint64(s.C))
		for _, r := range tg.Rules {
			enc.WriteUvarint(uint64(r.Cluster)) //nolint:gosec
			enc.WriteFloat32(r.Scale)
			enc.WriteFloat32(r.Bias)
		}

		out, err := tensor.New(s.C, s.H, s.W)
		if err != nil {
			return 0, nil, err
		}
		levels, release := pool.GetLevelSlice(s.Plane())
		for c, source := range tr.Sources {
			var ref []float32
			if ct == format.InterPredicted {
				ref = referenceChannel(reference, info, source)
				mode := modeIntra
				if ref != nil {
					mode = modePredicted
				}
				_ = enc.WriteByte(mode)
			}

			dc := q.Encode(tr.Data.Channel(c), ref, levels)
			enc.WriteUvarint(uint64(source)) //nolint:gosec
			enc.WriteVarint(int64(dc))
			enc.WriteLevels(levels)

			q.Decode(dc, levels, ref, out.Channel(c))
		}
		release()

		recon.Set(info.Name, &suppress.TagRepresentatives{Sources: append([]int(nil), tr.Sources...), Data: out})
	}

	n, err := WriteFrame(sink, p, ct, enc.Bytes())
	if err != nil {
		return n, nil, err
	}

	return n, recon, nil
}

func decodeSet(p Params, ct format.CodingType, reference *tensor.FeatureSet, payload []byte) (*suppress.Representatives, *suppress.CodingGroup, error) {
	dec := encoding.NewSymbolDecoder(payload, p.Engine)
	q := p.Quant.Quantizer()

	reps := suppress.NewRepresentatives()
	group := suppress.NewCodingGroup()

	for _, info := range p.Tags {
		channels := int(info.Channels)
		nCluster, err := dec.ReadIndex(channels + 1)
		if err != nil {
			return nil, nil, fmt.Errorf("tag %q cluster count: %w", info.Name, err)
		}
		if nCluster == 0 {
			return nil, nil, fmt.Errorf("%w: tag %q has no clusters", errs.ErrInvalidPayload, info.Name)
		}

		rules := make([]suppress.Rule, channels)
		for ch := range rules {
			c, err := dec.ReadIndex(nCluster)
			if err != nil {
				return nil, nil, fmt.Errorf("tag %q channel %d: %w", info.Name, ch, err)
			}
			scale, err := dec.ReadFloat32()
			if err != nil {
				return nil, nil, fmt.Errorf("tag %q channel %d: %w", info.Name, ch, err)
			}
			bias, err := dec.ReadFloat32()
			if err != nil {
				return nil, nil, fmt.Errorf("tag %q channel %d: %w", info.Name, ch, err)
			}
			rules[ch] = suppress.Rule{Cluster: c, Scale: scale, Bias: bias}
		}

		// Every level takes at least one byte.
		plane := uint64(info.Height) * uint64(info.Width)
		if remaining := uint64(dec.Remaining()); plane > 0 && (plane > remaining || uint64(nCluster) > remaining/plane) {
			return nil, nil, fmt.Errorf("%w: tag %q needs %d levels per cluster, %d bytes left",
				errs.ErrTruncatedPayload, info.Name, plane, remaining)
		}

		data, err := tensor.New(nCluster, int(info.Height), int(info.Width))
		if err != nil {
			return nil, nil, fmt.Errorf("%w: tag %q: %w", errs.ErrInvalidPayload, info.Name, err)
		}
		sources := make([]int, nCluster)
		levels, release := pool.GetLevelSlice(data.Shape().Plane())
		err = decodeClusters(dec, q, ct, reference, info, sources, levels, data)
		release()
		if err != nil {
			return nil, nil, err
		}

		reps.Set(info.Name, &suppress.TagRepresentatives{Sources: sources, Data: data})
		group.Set(info.Name, &suppress.TagGroup{Rules: rules})
	}

	if dec.Remaining() != 0 {
		return nil, nil, fmt.Errorf("%w: %d unread payload bytes", errs.ErrInvalidPayload, dec.Remaining())
	}

	return reps, group, nil
}

func decodeClusters(dec *encoding.SymbolDecoder, q quant.Quantizer, ct format.CodingType, reference *tensor.FeatureSet,
	info section.TagInfo, sources []int, levels []int32, data *tensor.Tensor,
) error {
	channels := int(info.Channels)
	for c := range sources {
		predicted := false
		if ct == format.InterPredicted {
			mode, err := dec.ReadByte()
			if err != nil {
				return fmt.Errorf("tag %q cluster %d: %w", info.Name, c, err)
			}
			if mode != modeIntra && mode != modePredicted {
				return fmt.Errorf("%w: tag %q cluster %d mode %d", errs.ErrInvalidPayload, info.Name, c, mode)
			}
			predicted = mode == modePredicted
		}

		source, err := dec.ReadIndex(channels)
		if err != nil {
			return fmt.Errorf("tag %q cluster %d source: %w", info.Name, c, err)
		}
		sources[c] = source

		var ref []float32
		if predicted {
			ref = referenceChannel(reference, info, source)
			if ref == nil {
				return fmt.Errorf("%w: tag %q cluster %d predicts from missing reference channel %d",
					errs.ErrInvalidPayload, info.Name, c, source)
			}
		}

		dc, err := dec.ReadLevel()
		if err != nil {
			return fmt.Errorf("tag %q cluster %d: %w", info.Name, c, err)
		}
		if err := dec.ReadLevels(levels); err != nil {
			return fmt.Errorf("tag %q cluster %d: %w", info.Name, c, err)
		}

		q.Decode(dc, levels, ref, data.Channel(c))
	}

	return nil
}

// referenceChannel returns channel source of tag in reference, or nil when
// the reference has no such channel or a different plane size.
func referenceChannel(reference *tensor.FeatureSet, info section.TagInfo, source int) []float32 {
	if reference == nil {
		return nil
	}
	t, ok := reference.Get(info.Name)
	if !ok {
		return nil
	}
	s := t.Shape()
	if s.H != int(info.Height) || s.W != int(info.Width) || !t.HasChannel(source) {
		return nil
	}

	return t.Channel(source)
}

func checkTag(info section.TagInfo, tr *suppress.TagRepresentatives, tg *suppress.TagGroup) error {
	s := tr.Data.Shape()
	if s.H != int(info.Height) || s.W != int(info.Width) {
		return fmt.Errorf("%w: tag %q representatives are %dx%d, header says %dx%d",
			errs.ErrTensorShape, info.Name, s.H, s.W, info.Height, info.Width)
	}
	if len(tg.Rules) != int(info.Channels) {
		return fmt.Errorf("%w: tag %q has %d rules for %d channels", errs.ErrTensorShape, info.Name, len(tg.Rules), info.Channels)
	}
	if len(tr.Sources) != s.C || s.C == 0 || s.C > int(info.Channels) {
		return fmt.Errorf("%w: tag %q has %d clusters", errs.ErrInvalidClusterCount, info.Name, s.C)
	}

	return nil
}
