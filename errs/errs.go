// Package errs defines the sentinel errors returned by ftc.
//
// Errors are grouped into four categories. Every specific error wraps exactly
// one category, so callers can match either the precise condition or the
// whole category with errors.Is:
//
//	if errors.Is(err, errs.ErrBitstreamFormat) {
//	    // truncated or corrupt bitstream, do not retry
//	}
package errs

import (
	"errors"
	"fmt"
)

// Error categories.
var (
	// ErrConfiguration reports an invalid codec configuration. It is raised at
	// construction time and never recovered.
	ErrConfiguration = errors.New("configuration error")
	// ErrShapeMismatch reports inconsistent frame counts or tensor shapes.
	// It is raised before any byte is committed to a bitstream.
	ErrShapeMismatch = errors.New("shape mismatch")
	// ErrBitstreamFormat reports an unreadable, truncated or corrupt bitstream.
	ErrBitstreamFormat = errors.New("bitstream format error")
	// ErrResource reports a failure to acquire or release a bitstream file.
	ErrResource = errors.New("resource error")
)

// Configuration errors.
var (
	ErrMissingQP              = fmt.Errorf("%w: qp is required", ErrConfiguration)
	ErrInvalidQP              = fmt.Errorf("%w: qp out of range", ErrConfiguration)
	ErrInvalidQPDensity       = fmt.Errorf("%w: qp_density must be in [1, 5]", ErrConfiguration)
	ErrInvalidDCQPDensity     = fmt.Errorf("%w: qp_density + dc_qp_density_offset must not exceed 5", ErrConfiguration)
	ErrInvalidClusterCount    = fmt.Errorf("%w: n_cluster must be positive and not exceed the channel count", ErrConfiguration)
	ErrInvalidIntraPeriod     = fmt.Errorf("%w: intra_period must be -1 or positive", ErrConfiguration)
	ErrInvalidCompression     = fmt.Errorf("%w: unsupported payload compression", ErrConfiguration)
	ErrInvalidTagName         = fmt.Errorf("%w: invalid tag name", ErrConfiguration)
	ErrTooManyTags            = fmt.Errorf("%w: too many tags", ErrConfiguration)
	ErrInvalidSimilarityProxy = fmt.Errorf("%w: similarity proxy must not be nil", ErrConfiguration)
)

// Shape errors.
var (
	ErrEmptySequence      = fmt.Errorf("%w: sequence has no feature sets", ErrShapeMismatch)
	ErrFrameCountMismatch = fmt.Errorf("%w: tags have different frame counts", ErrShapeMismatch)
	ErrTensorShape        = fmt.Errorf("%w: tensor shape differs across time steps", ErrShapeMismatch)
	ErrTagSetMismatch     = fmt.Errorf("%w: feature set tags differ", ErrShapeMismatch)
	ErrInvalidTensor      = fmt.Errorf("%w: invalid tensor dimensions", ErrShapeMismatch)
)

// Bitstream errors.
var (
	ErrInvalidHeaderSize  = fmt.Errorf("%w: invalid header size", ErrBitstreamFormat)
	ErrInvalidHeaderFlags = fmt.Errorf("%w: invalid header flags", ErrBitstreamFormat)
	ErrHeaderChecksum     = fmt.Errorf("%w: header checksum mismatch", ErrBitstreamFormat)
	ErrInvalidCodingType  = fmt.Errorf("%w: invalid coding type marker", ErrBitstreamFormat)
	ErrTruncatedPayload   = fmt.Errorf("%w: truncated payload", ErrBitstreamFormat)
	ErrPayloadChecksum    = fmt.Errorf("%w: payload checksum mismatch", ErrBitstreamFormat)
	ErrInvalidPayload     = fmt.Errorf("%w: invalid payload", ErrBitstreamFormat)
	ErrTrailingData       = fmt.Errorf("%w: trailing data after last feature set", ErrBitstreamFormat)
)

// Resource errors.
var (
	ErrOpenBitstream  = fmt.Errorf("%w: cannot open bitstream", ErrResource)
	ErrWriteBitstream = fmt.Errorf("%w: cannot write bitstream", ErrResource)
)
