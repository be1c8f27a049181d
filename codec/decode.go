package codec

import (
	"context"
	"fmt"
	"time"

	"github.com/arloliu/ftc/coding"
	"github.com/arloliu/ftc/errs"
	"github.com/arloliu/ftc/format"
	"github.com/arloliu/ftc/section"
	"github.com/arloliu/ftc/suppress"
	"github.com/arloliu/ftc/tensor"
)

// DecodeResult is a decoded bitstream.
type DecodeResult struct {
	// Sequence holds the reconstructed feature sets at their original
	// spatial size.
	Sequence *tensor.Sequence
	// Header is the parsed sequence header.
	Header section.SequenceHeader
	// HeaderBytes is the size of the sequence header.
	HeaderBytes int
	// Types holds the coding type of every feature set, from its marker.
	Types []format.CodingType
	// SetBytes holds the framed size of every feature set.
	SetBytes []int
}

// Decode reads and reconstructs the bitstream file at path.
func (s *Session) Decode(ctx context.Context, path string) (*DecodeResult, error) {
	src, err := openSource(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = src.Close() }()

	s.logger.Debug("bitstream opened", "path", path, "bytes", len(src.Data()), "mapped", src.Mapped())

	return s.DecodeBytes(ctx, src.Data())
}

// DecodeBytes reconstructs an in-memory bitstream. data is not retained.
func (s *Session) DecodeBytes(ctx context.Context, data []byte) (*DecodeResult, error) {
	end := s.begin()
	defer end()

	start := time.Now()
	log := s.logger.With("op", "decode")

	var header section.SequenceHeader
	headerBytes, err := header.Parse(data)
	if err != nil {
		return nil, err
	}
	log.Info("decode started", "frame_sets", header.TotalFrameSets, "tags", header.TagCount(),
		"qp", header.QP, "downsample", header.Flag.IsDownsampled())

	params, err := coding.ParamsFromHeader(&header)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrInvalidHeaderFlags, err)
	}

	total := int(header.TotalFrameSets)
	res := &DecodeResult{
		Header:      header,
		HeaderBytes: headerBytes,
		Types:       make([]format.CodingType, 0, total),
		SetBytes:    make([]int, 0, total),
	}
	frames := make([]*tensor.FeatureSet, 0, total)

	off := headerBytes
	for i := 0; i < total; i++ {
		if err := ctx.Err(); err != nil {
			log.Warn("decode cancelled", "poc", s.poc, "error", err)
			return nil, err
		}

		frame, err := coding.ReadFrame(data[off:], params)
		if err != nil {
			return nil, fmt.Errorf("decode poc %d at offset %d: %w", s.poc, off, err)
		}
		if expected := s.Type(s.poc); frame.Type != expected {
			log.Debug("coding type differs from local schedule", "poc", s.poc, "marker", frame.Type, "schedule", expected)
		}

		reps, group, err := coding.Decode(params, frame, s.reference)
		if err != nil {
			return nil, fmt.Errorf("decode poc %d: %w", s.poc, err)
		}
		set, err := suppress.Reconstruct(group, reps)
		if err != nil {
			return nil, fmt.Errorf("decode poc %d: %w", s.poc, err)
		}

		log.Debug("feature set decoded", "poc", s.poc, "type", frame.Type, "bytes", frame.Size)
		s.reference = set
		frames = append(frames, set)
		res.Types = append(res.Types, frame.Type)
		res.SetBytes = append(res.SetBytes, frame.Size)
		off += frame.Size
		s.poc++
	}

	if off != len(data) {
		return nil, fmt.Errorf("%w: %d bytes", errs.ErrTrailingData, len(data)-off)
	}

	if header.Flag.IsDownsampled() {
		for i, f := range frames {
			frames[i] = f.Map(func(_ string, t *tensor.Tensor) *tensor.Tensor {
				return tensor.Scale(t, 1/DownsampleFactor)
			})
		}
	}

	res.Sequence = &tensor.Sequence{
		Frames:       frames,
		OriginalSize: header.OriginalSize(),
		InputSize:    header.CodedSize(),
	}
	log.Info("decode finished", "frame_sets", len(frames), "bytes", len(data), "elapsed", time.Since(start))

	return res, nil
}
