// Package section defines the sequence parameter header of an ftc bitstream.
//
// A bitstream is a header followed by one framed payload per feature set:
//
//	┌─────────────────────────────────────────────────────────┐
//	│ Sequence Header (36 + Σ(13 + len(name)) + 4 bytes)      │
//	│  - Flag (3 bytes): magic, byte order, downsample, codec │
//	│  - Quantization: qp, densities, dc offsets              │
//	│  - Image sizes: original and coded                      │
//	│  - Tag entries: name, channels, height, width           │
//	│  - Checksum (4 bytes)                                   │
//	├─────────────────────────────────────────────────────────┤
//	│ Feature Set 0 (variable)                                │
//	├─────────────────────────────────────────────────────────┤
//	│ ...                                                     │
//	├─────────────────────────────────────────────────────────┤
//	│ Feature Set T-1 (variable)                              │
//	└─────────────────────────────────────────────────────────┘
//
// # Header Format
//
//	Bytes  | Field               | Type    | Description
//	-------|---------------------|---------|----------------------------------
//	0-1    | Options             | uint16  | Always little-endian, see below
//	2      | PayloadCompression  | uint8   | 1=none 2=zstd 3=s2 4=lz4
//	3      | QPDensity           | uint8   | Steps per octave, 1..5
//	4      | DCQPDensityOffset   | uint8   | Added to QPDensity for DC
//	5      | Reserved            | uint8   | Must be 0
//	6-7    | TagCount            | uint16  | Number of tag entries
//	8-11   | TotalFrameSets      | uint32  | Feature sets after the header
//	12-15  | QP                  | uint32  | Detail quantization parameter
//	16-19  | DCQPOffset          | int32   | Added to QP for DC
//	20-27  | Original H, W       | uint32  | Source image size
//	28-35  | Coded H, W          | uint32  | Extractor input size
//	36-    | Tag entries         |         | uint8 len, name, uint32 C, H, W
//	end    | Checksum            | uint32  | xxHash64 low 32 bits of all above
//
// Options bit layout:
//
//	bit 0     downsample flag
//	bit 1     byte order, 0 little-endian, 1 big-endian
//	bits 2-3  reserved
//	bits 4-15 magic number (0xFC10 with the low nibble masked)
//
// Tag heights are the subframe heights of the coded features; with
// downsampling they are half the extractor output, rounded down.
package section
