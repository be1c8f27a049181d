package compress

// ZstdCompressor provides Zstandard compression, the default for feature
// payloads. The long runs of zero levels left by coarse quantization
// compress best with its entropy stage.
//
// The implementation is pure Go by default; building with the gozstd tag
// and cgo enabled switches to the libzstd binding.
type ZstdCompressor struct{}

var _ Codec = (*ZstdCompressor)(nil)

// NewZstdCompressor creates a new Zstd compressor with default settings.
//
// Example:
//
//	compressor := NewZstdCompressor()
//	compressed, err := compressor.Compress(payload)
//	if err != nil {
//		return err
//	}
func NewZstdCompressor() ZstdCompressor {
	return ZstdCompressor{}
}
