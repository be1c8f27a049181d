// Package ftc compresses sequences of multi-scale feature tensors, the
// intermediate activations a vision backbone emits per frame, into a compact
// bitstream and reconstructs them on the other side.
//
// Each time step is a feature set: one C×H×W tensor per tag (pyramid
// layer). Coding a set takes four stages:
//
//   - Channel clustering groups similar channels of a tag with K-means over a
//     per-channel descriptor and picks one representative per cluster.
//   - Channel suppression drops every non-representative channel and keeps a
//     scale and bias that predict it from its representative.
//   - The intra engine quantizes each representative as a DC value plus
//     detail levels; the inter engine codes the residual against the
//     previous reconstruction.
//   - The symbols are block-compressed (zstd by default) and framed with a
//     checksum.
//
// A sequence header at the start of the bitstream records the tags, the
// quantization parameters and the image sizes, so a decoder needs no side
// information.
//
// # Basic Usage
//
// Encoding a sequence:
//
//	seq, _ := tensor.FromLayers([]string{"p2", "p3"}, layers)
//	session, err := ftc.NewDefaultSession(30)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	res, err := session.Encode(ctx, seq, "features.ftc")
//	fmt.Println(res.TotalBytes(), res.Types)
//
// Decoding it back:
//
//	out, err := ftc.Decode(ctx, "features.ftc")
//	recon := out.Sequence
//
// # Package Structure
//
// This package wraps the codec package for the common cases. The codec
// package exposes the session and its options; cluster, suppress, quant and
// coding hold the individual stages.
package ftc

import (
	"context"

	"github.com/arloliu/ftc/codec"
	"github.com/arloliu/ftc/format"
	"github.com/arloliu/ftc/tensor"
)

var defaultSessionOptions = []codec.SessionOption{
	codec.WithQPDensity(codec.DefaultQPDensity),
	codec.WithNCluster(codec.DefaultNCluster),
	codec.WithIntraPeriod(codec.DefaultIntraPeriod),
	codec.WithCompression(format.CompressionZstd),
}

// NewSession creates a codec session with custom options.
//
// A qp must be given with codec.WithQP. Options not given take the codec
// defaults: qp_density 2, 64 clusters per tag, every set intra coded,
// zstd payload compression and little-endian fields.
//
// Available options:
//   - codec.WithQP, codec.WithQPDensity
//   - codec.WithDCQPOffset, codec.WithDCQPDensityOffset
//   - codec.WithNCluster, codec.WithNClusterForTag
//   - codec.WithIntraPeriod
//   - codec.WithDownsample
//   - codec.WithCompression, codec.WithBigEndian
//   - codec.WithSimilarityProxy, codec.WithLogger
//
// Example:
//
//	session, err := ftc.NewSession(
//	    codec.WithQP(24),
//	    codec.WithIntraPeriod(8),
//	    codec.WithNCluster(32),
//	)
func NewSession(opts ...codec.SessionOption) (*codec.Session, error) {
	return codec.NewSession(opts...)
}

// NewDefaultSession creates a session with the default parameters and the
// given qp. Larger qp values give coarser quantization and smaller
// bitstreams.
//
// Example:
//
//	session, err := ftc.NewDefaultSession(30)
//	if err != nil {
//	    log.Fatal(err)
//	}
func NewDefaultSession(qp uint) (*codec.Session, error) {
	opts := make([]codec.SessionOption, 0, len(defaultSessionOptions)+1)
	opts = append(opts, defaultSessionOptions...)
	opts = append(opts, codec.WithQP(qp))

	return codec.NewSession(opts...)
}

// NewInterSession creates a session that codes one intra set every
// intraPeriod sets and predicts the others from the previous
// reconstruction. Extra options are applied last.
func NewInterSession(qp uint, intraPeriod int, opts ...codec.SessionOption) (*codec.Session, error) {
	all := make([]codec.SessionOption, 0, len(defaultSessionOptions)+2+len(opts))
	all = append(all, defaultSessionOptions...)
	all = append(all, codec.WithQP(qp), codec.WithIntraPeriod(intraPeriod))
	all = append(all, opts...)

	return codec.NewSession(all...)
}

// NewDecoder creates a session for decoding. Every parameter is read from
// the bitstream header.
func NewDecoder(opts ...codec.SessionOption) (*codec.Session, error) {
	return codec.NewDecodeSession(opts...)
}

// Encode codes seq into a new file at path with a one-off session.
func Encode(ctx context.Context, seq *tensor.Sequence, path string, opts ...codec.SessionOption) (*codec.EncodeResult, error) {
	session, err := codec.NewSession(opts...)
	if err != nil {
		return nil, err
	}

	return session.Encode(ctx, seq, path)
}

// Decode reconstructs the bitstream at path with a one-off session.
func Decode(ctx context.Context, path string) (*codec.DecodeResult, error) {
	session, err := codec.NewDecodeSession()
	if err != nil {
		return nil, err
	}

	return session.Decode(ctx, path)
}

// Inspect reads the header and frame layout of the bitstream at path.
func Inspect(path string) (*codec.Inspection, error) {
	return codec.Inspect(path)
}
