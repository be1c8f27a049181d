package format

import (
	"fmt"
	"strings"
)

type (
	CodingType      uint8
	CompressionType uint8
)

const (
	Intra          CodingType = 0x0 // Intra is coded without reference to another time step.
	InterPredicted CodingType = 0x1 // InterPredicted is coded as a residual against the previous reconstruction.

	CompressionNone CompressionType = 0x1 // CompressionNone represents no compression.
	CompressionZstd CompressionType = 0x2 // CompressionZstd represents Zstandard compression.
	CompressionS2   CompressionType = 0x3 // CompressionS2 represents S2 compression.
	CompressionLZ4  CompressionType = 0x4 // CompressionLZ4 represents LZ4 compression.
)

// IsValid reports whether t is one of the two coding types.
func (t CodingType) IsValid() bool {
	return t == Intra || t == InterPredicted
}

func (t CodingType) String() string {
	switch t {
	case Intra:
		return "I"
	case InterPredicted:
		return "PB"
	default:
		return "Unknown"
	}
}

// IsValid reports whether c is a supported payload compression.
func (c CompressionType) IsValid() bool {
	return c >= CompressionNone && c <= CompressionLZ4
}

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}

// ParseCompression maps a configuration name ("none", "zstd", "s2", "lz4")
// to its CompressionType. Matching is case-insensitive.
func ParseCompression(name string) (CompressionType, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "none", "":
		return CompressionNone, true
	case "zstd":
		return CompressionZstd, true
	case "s2":
		return CompressionS2, true
	case "lz4":
		return CompressionLZ4, true
	default:
		return 0, false
	}
}

// ParseCodingType maps "I" or "PB" to its CodingType.
func ParseCodingType(name string) (CodingType, bool) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "I":
		return Intra, true
	case "PB":
		return InterPredicted, true
	default:
		return 0, false
	}
}

// MarshalText encodes t as "I" or "PB".
func (t CodingType) MarshalText() ([]byte, error) {
	if !t.IsValid() {
		return nil, fmt.Errorf("invalid coding type %d", t)
	}

	return []byte(t.String()), nil
}

// UnmarshalText decodes "I" or "PB".
func (t *CodingType) UnmarshalText(text []byte) error {
	v, ok := ParseCodingType(string(text))
	if !ok {
		return fmt.Errorf("invalid coding type %q", text)
	}
	*t = v

	return nil
}

// MarshalText encodes c as its lower-case configuration name.
func (c CompressionType) MarshalText() ([]byte, error) {
	if !c.IsValid() {
		return nil, fmt.Errorf("invalid compression type %d", c)
	}

	return []byte(strings.ToLower(c.String())), nil
}

// UnmarshalText decodes a configuration name.
func (c *CompressionType) UnmarshalText(text []byte) error {
	v, ok := ParseCompression(string(text))
	if !ok {
		return fmt.Errorf("invalid compression type %q", text)
	}
	*c = v

	return nil
}
