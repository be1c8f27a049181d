package section

import (
	"github.com/arloliu/ftc/endian"
	"github.com/arloliu/ftc/errs"
	"github.com/arloliu/ftc/format"
)

// SequenceFlag is the packed flag word at the start of every bitstream.
type SequenceFlag struct {
	// Options is a packed field:
	//   - bit 0: downsample flag
	//   - bit 1: endianness, 0 little-endian, 1 big-endian
	//   - bits 2-3: reserved, must be 0
	//   - bits 4-15: magic number 0xFC10
	Options uint16

	// PayloadCompression is the block compressor applied to every feature set payload.
	PayloadCompression uint8
}

// NewSequenceFlag returns a little-endian, zstd-compressed flag without downsampling.
func NewSequenceFlag() SequenceFlag {
	return SequenceFlag{
		Options:            MagicSequenceV1Opt,
		PayloadCompression: uint8(format.CompressionZstd),
	}
}

// IsDownsampled reports whether the downsample bit is set.
func (f SequenceFlag) IsDownsampled() bool {
	return f.Options&DownsampleMask != 0
}

// SetDownsampled sets or clears the downsample bit.
func (f *SequenceFlag) SetDownsampled(enabled bool) {
	if enabled {
		f.Options |= DownsampleMask
	} else {
		f.Options &^= DownsampleMask
	}
}

// IsLittleEndian returns whether multi-byte fields are little-endian.
func (f SequenceFlag) IsLittleEndian() bool {
	return f.Options&EndiannessMask == 0
}

// WithLittleEndian sets little-endian byte order.
func (f *SequenceFlag) WithLittleEndian() {
	f.Options &^= EndiannessMask
}

// WithBigEndian sets big-endian byte order.
func (f *SequenceFlag) WithBigEndian() {
	f.Options |= EndiannessMask
}

// GetMagicNumber returns the magic number bits.
func (f SequenceFlag) GetMagicNumber() uint16 {
	return f.Options & MagicNumberMask
}

// Compression returns the payload compression type.
func (f SequenceFlag) Compression() format.CompressionType {
	return format.CompressionType(f.PayloadCompression)
}

// SetCompression sets the payload compression type.
func (f *SequenceFlag) SetCompression(c format.CompressionType) {
	f.PayloadCompression = uint8(c)
}

// Validate checks magic number, reserved bits and compression type.
func (f SequenceFlag) Validate() error {
	if f.GetMagicNumber() != MagicSequenceV1Opt {
		return errs.ErrInvalidHeaderFlags
	}
	if f.Options&ReservedMask != 0 {
		return errs.ErrInvalidHeaderFlags
	}
	if !f.Compression().IsValid() {
		return errs.ErrInvalidHeaderFlags
	}

	return nil
}

// GetEndianEngine returns the engine for the flag's byte order.
func (f SequenceFlag) GetEndianEngine() endian.EndianEngine {
	if f.IsLittleEndian() {
		return endian.GetLittleEndianEngine()
	}

	return endian.GetBigEndianEngine()
}
