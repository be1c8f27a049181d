package section

// Bit masks of the Options word.
const (
	DownsampleMask  = 0x0001 // bit 0: feature sets were downsampled by 0.5 before coding
	EndiannessMask  = 0x0002 // bit 1: 0=little-endian, 1=big-endian
	ReservedMask    = 0x000C // bits 2-3: reserved, must be 0
	MagicNumberMask = 0xFFF0 // bits 4-15: magic number

	// MagicSequenceV1Opt identifies version 1 of the feature tensor bitstream.
	MagicSequenceV1Opt = 0xFC10
)

// Header layout sizes in bytes.
const (
	// HeaderPreludeSize is the fixed part preceding the tag entries.
	HeaderPreludeSize = 36
	// TagEntryFixedSize is the name length byte plus channels, height and width.
	TagEntryFixedSize = 13
	// ChecksumSize is the trailing header checksum.
	ChecksumSize = 4
	// MinHeaderSize is a header with a single one-character tag.
	MinHeaderSize = HeaderPreludeSize + TagEntryFixedSize + 1 + ChecksumSize
)

// Limits enforced when writing a header.
const (
	MaxTagNameLength = 255
	MaxTagCount      = 1<<16 - 1
	MaxQP            = 255
	MinQPDensity     = 1
	MaxQPDensity     = 5
)
