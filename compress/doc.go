// Package compress provides the block compressors applied to ftc feature
// set payloads.
//
// Every coded feature set is first serialized by the symbol layer and then
// compressed as a single block. The header's flag records which codec was
// used for the whole sequence:
//
//   - None: payload stored as-is
//   - Zstd: best ratio, the default
//   - S2: faster, slightly larger
//   - LZ4: fastest decoding
//
// # Architecture
//
//	type Compressor interface {
//	    Compress(data []byte) ([]byte, error)
//	}
//
//	type Decompressor interface {
//	    Decompress(data []byte) ([]byte, error)
//	}
//
//	type Codec interface {
//	    Compressor
//	    Decompressor
//	}
//
// Since a framed payload records its uncompressed length, the package-level
// Decompress helper passes that size to codecs implementing
// SizedDecompressor and rejects output of any other length.
//
// # Usage
//
//	codec, err := compress.GetCodec(format.CompressionZstd)
//	if err != nil {
//	    return err
//	}
//	compressed, err := codec.Compress(payload)
//	...
//	payload, err = compress.Decompress(codec, compressed, rawLen)
//
// GetCodec returns shared instances that are safe for concurrent use.
// CreateCodec returns a fresh instance and reports an unknown type as a
// configuration error.
//
// # Zstd Backends
//
// The default Zstd backend is github.com/klauspost/compress/zstd with pooled
// encoders and decoders. Building with cgo and the gozstd tag switches to
// github.com/valyala/gozstd. Both produce standard Zstandard frames, so
// bitstreams are interchangeable.
package compress
