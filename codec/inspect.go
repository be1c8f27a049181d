package codec

import (
	"fmt"

	"github.com/arloliu/ftc/coding"
	"github.com/arloliu/ftc/compress"
	"github.com/arloliu/ftc/errs"
	"github.com/arloliu/ftc/format"
	"github.com/arloliu/ftc/section"
)

// SetInfo describes one framed feature set.
type SetInfo struct {
	POC            int                    `json:"poc"`
	Type           format.CodingType      `json:"type"`
	Bytes          int                    `json:"bytes"`
	Compression    format.CompressionType `json:"compression"`
	RawBytes       int                    `json:"raw_bytes"`
	CompressedSize int                    `json:"compressed_bytes"`
}

// Stats returns the payload compression statistics of the set.
func (s SetInfo) Stats() compress.CompressionStats {
	return compress.CompressionStats{
		Algorithm:      s.Compression,
		OriginalSize:   int64(s.RawBytes),
		CompressedSize: int64(s.CompressedSize),
	}
}

// TagSummary describes one coded tag.
type TagSummary struct {
	Name     string `json:"name"`
	Channels int    `json:"channels"`
	Height   int    `json:"height"`
	Width    int    `json:"width"`
}

// HeaderSummary is the sequence header in serializable form.
type HeaderSummary struct {
	FrameSets         int                    `json:"frame_sets"`
	QP                int                    `json:"qp"`
	QPDensity         int                    `json:"qp_density"`
	DCQPOffset        int                    `json:"dc_qp_offset"`
	DCQPDensityOffset int                    `json:"dc_qp_density_offset"`
	Downsample        bool                   `json:"downsample"`
	BigEndian         bool                   `json:"big_endian"`
	Compression       format.CompressionType `json:"compression"`
	OriginalSize      [2]int                 `json:"original_size"`
	CodedSize         [2]int                 `json:"coded_size"`
	Tags              []TagSummary           `json:"tags"`
}

// Summarize converts a parsed header into a HeaderSummary.
func Summarize(h *section.SequenceHeader) HeaderSummary {
	s := HeaderSummary{
		FrameSets:         int(h.TotalFrameSets),
		QP:                int(h.QP),
		QPDensity:         int(h.QPDensity),
		DCQPOffset:        int(h.DCQPOffset),
		DCQPDensityOffset: int(h.DCQPDensityOffset),
		Downsample:        h.Flag.IsDownsampled(),
		BigEndian:         !h.Flag.IsLittleEndian(),
		Compression:       h.Flag.Compression(),
		OriginalSize:      [2]int{int(h.OriginalHeight), int(h.OriginalWidth)},
		CodedSize:         [2]int{int(h.CodedHeight), int(h.CodedWidth)},
		Tags:              make([]TagSummary, 0, len(h.Tags)),
	}
	for _, tag := range h.Tags {
		s.Tags = append(s.Tags, TagSummary{
			Name:     tag.Name,
			Channels: int(tag.Channels),
			Height:   int(tag.Height),
			Width:    int(tag.Width),
		})
	}

	return s
}

// Inspection summarizes a bitstream without decoding any payload.
type Inspection struct {
	Header      HeaderSummary `json:"header"`
	HeaderBytes int           `json:"header_bytes"`
	TotalBytes  int           `json:"total_bytes"`
	Sets        []SetInfo     `json:"sets"`
}

// Inspect reads the header and frame layout of the bitstream at path. Frame
// checksums are verified; payloads are not decompressed.
func Inspect(path string) (*Inspection, error) {
	src, err := openSource(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = src.Close() }()

	return InspectBytes(src.Data())
}

// InspectBytes is Inspect for an in-memory bitstream.
func InspectBytes(data []byte) (*Inspection, error) {
	var header section.SequenceHeader
	headerBytes, err := header.Parse(data)
	if err != nil {
		return nil, err
	}

	engine := header.Flag.GetEndianEngine()
	in := &Inspection{
		Header:      Summarize(&header),
		HeaderBytes: headerBytes,
		Sets:        make([]SetInfo, 0, header.TotalFrameSets),
	}

	off := headerBytes
	for poc := 0; poc < int(header.TotalFrameSets); poc++ {
		info, _, err := coding.ScanFrame(data[off:], engine)
		if err != nil {
			return nil, fmt.Errorf("inspect poc %d at offset %d: %w", poc, off, err)
		}
		in.Sets = append(in.Sets, SetInfo{
			POC:            poc,
			Type:           info.Type,
			Bytes:          info.Size,
			Compression:    header.Flag.Compression(),
			RawBytes:       info.RawSize,
			CompressedSize: info.CompressedSize,
		})
		off += info.Size
	}

	if off != len(data) {
		return nil, fmt.Errorf("%w: %d bytes", errs.ErrTrailingData, len(data)-off)
	}
	in.TotalBytes = off

	return in, nil
}
