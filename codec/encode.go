package codec

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/arloliu/ftc/cluster"
	"github.com/arloliu/ftc/coding"
	"github.com/arloliu/ftc/errs"
	"github.com/arloliu/ftc/format"
	"github.com/arloliu/ftc/section"
	"github.com/arloliu/ftc/suppress"
	"github.com/arloliu/ftc/tensor"
)

// DownsampleFactor is the spatial scale applied before coding when
// downsampling is enabled; decoding scales by its inverse.
const DownsampleFactor = 0.5

// EncodeResult reports what Encode wrote.
type EncodeResult struct {
	// SetBytes holds the framed size of every feature set. Their sum is the
	// file size minus HeaderBytes.
	SetBytes []int
	// HeaderBytes is the size of the sequence header.
	HeaderBytes int
	// Types holds the coding type of every feature set.
	Types []format.CodingType
	// BitstreamPath is the written file, empty for EncodeTo.
	BitstreamPath string
}

// TotalBytes returns the bitstream size.
func (r *EncodeResult) TotalBytes() int {
	total := r.HeaderBytes
	for _, n := range r.SetBytes {
		total += n
	}

	return total
}

// Encode codes seq into a new file at path.
//
// Shape and configuration problems are reported before the file is
// created. If encoding fails or ctx is cancelled part way, the partial
// file is removed.
func (s *Session) Encode(ctx context.Context, seq *tensor.Sequence, path string) (*EncodeResult, error) {
	end := s.begin()
	defer end()

	job, err := s.prepare(seq)
	if err != nil {
		return nil, err
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", errs.ErrOpenBitstream, path, err)
	}

	res, err := s.encodeTo(ctx, job, bufio.NewWriter(f))
	if closeErr := f.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("%w: %s: %w", errs.ErrWriteBitstream, path, closeErr)
	}
	if err != nil {
		_ = os.Remove(path)
		return nil, err
	}
	res.BitstreamPath = path

	return res, nil
}

// EncodeTo codes seq into w.
func (s *Session) EncodeTo(ctx context.Context, seq *tensor.Sequence, w io.Writer) (*EncodeResult, error) {
	end := s.begin()
	defer end()

	job, err := s.prepare(seq)
	if err != nil {
		return nil, err
	}

	return s.encodeTo(ctx, job, bufio.NewWriter(w))
}

type encodeJob struct {
	frames   []*tensor.FeatureSet
	original tensor.Size
	coded    tensor.Size
}

// prepare validates seq and applies downsampling. It performs no I/O.
func (s *Session) prepare(seq *tensor.Sequence) (*encodeJob, error) {
	if seq == nil {
		return nil, errs.ErrEmptySequence
	}
	if err := seq.Validate(); err != nil {
		return nil, err
	}

	first := seq.Frames[0]
	firstTensor, _ := first.Get(first.Tags()[0])
	fs := firstTensor.Shape()

	job := &encodeJob{frames: seq.Frames, original: seq.OriginalSize, coded: seq.InputSize}
	if job.original.IsZero() {
		job.original = tensor.Size{Height: fs.H, Width: fs.W}
	}
	if job.coded.IsZero() {
		job.coded = job.original
	}

	if s.cfg.downsample {
		job.frames = make([]*tensor.FeatureSet, len(seq.Frames))
		for i, f := range seq.Frames {
			job.frames[i] = f.Map(func(_ string, t *tensor.Tensor) *tensor.Tensor {
				return tensor.Scale(t, DownsampleFactor)
			})
		}
	}

	if err := s.checkClusterCounts(job.frames[0]); err != nil {
		return nil, err
	}

	return job, nil
}

func (s *Session) encodeTo(ctx context.Context, job *encodeJob, w *bufio.Writer) (*EncodeResult, error) {
	start := time.Now()
	log := s.logger.With("op", "encode")
	log.Info("encode started", "frame_sets", len(job.frames), "tags", job.frames[0].Len(),
		"qp", s.cfg.qp, "intra_period", s.cfg.intraPeriod, "downsample", s.cfg.downsample)

	header := section.NewSequenceHeader()
	header.Flag.SetCompression(s.cfg.compression)
	if s.cfg.bigEndian {
		header.Flag.WithBigEndian()
	}
	if err := header.Digest(job.frames[0], job.original, job.coded); err != nil {
		return nil, err
	}

	headerBytes, err := header.Write(w, uint(len(job.frames)), s.cfg.qp, s.cfg.qpDensity,
		s.cfg.downsample, s.cfg.dcQPOffset, s.cfg.dcQPDensityOffset)
	if err != nil {
		return nil, err
	}

	params, err := coding.ParamsFromHeader(header)
	if err != nil {
		return nil, err
	}

	res := &EncodeResult{
		HeaderBytes: headerBytes,
		SetBytes:    make([]int, 0, len(job.frames)),
		Types:       make([]format.CodingType, 0, len(job.frames)),
	}

	for _, set := range job.frames {
		if err := ctx.Err(); err != nil {
			log.Warn("encode cancelled", "poc", s.poc, "error", err)
			return nil, err
		}

		ct := s.Type(s.poc)
		n, err := s.encodeSet(params, ct, set, w)
		if err != nil {
			return nil, fmt.Errorf("encode poc %d: %w", s.poc, err)
		}

		log.Debug("feature set encoded", "poc", s.poc, "type", ct, "bytes", n)
		res.SetBytes = append(res.SetBytes, n)
		res.Types = append(res.Types, ct)
		s.poc++
	}

	if err := w.Flush(); err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrWriteBitstream, err)
	}

	log.Info("encode finished", "bytes", res.TotalBytes(), "elapsed", time.Since(start))

	return res, nil
}

// encodeSet codes one feature set and replaces the reference with its
// reconstruction.
func (s *Session) encodeSet(p coding.Params, ct format.CodingType, set *tensor.FeatureSet, w io.Writer) (int, error) {
	if ct == format.Intra || s.assignment == nil {
		assignment, err := cluster.Cluster(set, s.proxy, s.nClusterFor)
		if err != nil {
			return 0, err
		}
		s.assignment = assignment
	}

	reps, group, err := suppress.Suppress(set, s.assignment)
	if err != nil {
		return 0, err
	}

	var (
		n     int
		recon *suppress.Representatives
	)
	if ct == format.Intra {
		n, recon, err = coding.EncodeIntra(p, reps, group, w)
	} else {
		n, recon, err = coding.EncodeInter(p, reps, group, s.reference, w)
	}
	if err != nil {
		return n, err
	}

	reference, err := suppress.Reconstruct(group, recon)
	if err != nil {
		return n, err
	}
	s.reference = reference

	return n, nil
}
