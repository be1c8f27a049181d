package codec

import (
	"fmt"

	"github.com/arloliu/ftc/cluster"
	"github.com/arloliu/ftc/compress"
	"github.com/arloliu/ftc/errs"
	"github.com/arloliu/ftc/format"
	"github.com/arloliu/ftc/internal/logger"
	"github.com/arloliu/ftc/internal/options"
)

// SessionOption configures a Session.
type SessionOption = options.Option[*Session]

// WithQP sets the quantization parameter of the detail component. It is required.
func WithQP(qp uint) SessionOption {
	return options.NoError(func(s *Session) {
		s.cfg.qp = qp
		s.cfg.qpSet = true
	})
}

// WithQPDensity sets the number of quantization steps per octave, in [1, 5].
func WithQPDensity(density uint) SessionOption {
	return options.NoError(func(s *Session) {
		s.cfg.qpDensity = density
	})
}

// WithDCQPOffset sets the offset added to qp for the DC component.
func WithDCQPOffset(offset int) SessionOption {
	return options.NoError(func(s *Session) {
		s.cfg.dcQPOffset = offset
	})
}

// WithDCQPDensityOffset sets the offset added to the density for the DC component.
func WithDCQPDensityOffset(offset uint) SessionOption {
	return options.NoError(func(s *Session) {
		s.cfg.dcQPDensityOffset = offset
	})
}

// WithNCluster sets the number of clusters per tag.
func WithNCluster(n int) SessionOption {
	return options.New(func(s *Session) error {
		if n <= 0 {
			return fmt.Errorf("%w: %d", errs.ErrInvalidClusterCount, n)
		}
		s.cfg.nCluster = n

		return nil
	})
}

// WithNClusterForTag overrides the cluster count of a single tag.
func WithNClusterForTag(tag string, n int) SessionOption {
	return options.New(func(s *Session) error {
		if n <= 0 {
			return fmt.Errorf("%w: tag %q: %d", errs.ErrInvalidClusterCount, tag, n)
		}
		if s.cfg.nClusterPerTag == nil {
			s.cfg.nClusterPerTag = make(map[string]int)
		}
		s.cfg.nClusterPerTag[tag] = n

		return nil
	})
}

// WithIntraPeriod sets the distance between intra sets; -1 codes every set intra.
func WithIntraPeriod(period int) SessionOption {
	return options.New(func(s *Session) error {
		if period != -1 && period <= 0 {
			return fmt.Errorf("%w: %d", errs.ErrInvalidIntraPeriod, period)
		}
		s.cfg.intraPeriod = period

		return nil
	})
}

// WithDownsample halves the spatial size of every tensor before coding
// and restores it after decoding.
func WithDownsample(enabled bool) SessionOption {
	return options.NoError(func(s *Session) {
		s.cfg.downsample = enabled
	})
}

// WithCompression selects the payload block compressor.
func WithCompression(c format.CompressionType) SessionOption {
	return options.New(func(s *Session) error {
		if _, err := compress.CreateCodec(c, "payload"); err != nil {
			return err
		}
		s.cfg.compression = c

		return nil
	})
}

// WithBigEndian writes multi-byte fields big-endian.
func WithBigEndian(enabled bool) SessionOption {
	return options.NoError(func(s *Session) {
		s.cfg.bigEndian = enabled
	})
}

// WithSimilarityProxy replaces the default channel descriptor used for clustering.
func WithSimilarityProxy(proxy cluster.SimilarityProxy) SessionOption {
	return options.New(func(s *Session) error {
		if proxy == nil {
			return errs.ErrInvalidSimilarityProxy
		}
		s.proxy = proxy

		return nil
	})
}

// WithLogger sets the session logger.
func WithLogger(l logger.Logger) SessionOption {
	return options.NoError(func(s *Session) {
		s.logger = l
	})
}
