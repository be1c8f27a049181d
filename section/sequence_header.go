package section

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/arloliu/ftc/errs"
	"github.com/arloliu/ftc/internal/hash"
	"github.com/arloliu/ftc/internal/pool"
	"github.com/arloliu/ftc/tensor"
)

// TagInfo describes one layer of the feature pyramid as coded in the stream.
type TagInfo struct {
	// Name is the stable identifier of the layer.
	Name string
	// Channels is the channel count of the layer.
	Channels uint32
	// Height is the coded (post-downsampling) height, the subframe height.
	Height uint32
	// Width is the coded (post-downsampling) width.
	Width uint32
}

// Shape returns the coded tensor shape of the tag.
func (t TagInfo) Shape() tensor.Shape {
	return tensor.Shape{C: int(t.Channels), H: int(t.Height), W: int(t.Width)}
}

// SequenceHeader is the sequence parameter header written once at the start
// of a bitstream.
type SequenceHeader struct {
	// Flag holds the magic number, byte order, downsample bit and payload compression.
	Flag SequenceFlag // byte offset 0-2
	// QPDensity is the number of quantization steps per octave of step size, in [1, 5].
	QPDensity uint8 // byte offset 3
	// DCQPDensityOffset is added to QPDensity for the DC component.
	DCQPDensityOffset uint8 // byte offset 4
	// TotalFrameSets is the number of coded feature sets that follow the header.
	TotalFrameSets uint32 // byte offset 8-11
	// QP is the quantization parameter of the detail component.
	QP uint32 // byte offset 12-15
	// DCQPOffset is added to QP for the DC component.
	DCQPOffset int32 // byte offset 16-19
	// OriginalHeight and OriginalWidth are the source image size.
	OriginalHeight uint32 // byte offset 20-23
	OriginalWidth  uint32 // byte offset 24-27
	// CodedHeight and CodedWidth are the size of the image fed to the feature extractor.
	CodedHeight uint32 // byte offset 28-31
	CodedWidth  uint32 // byte offset 32-35
	// Tags lists the layers in coding order, starting at byte offset 36.
	Tags []TagInfo
}

// NewSequenceHeader returns a header with a default flag and no tags.
func NewSequenceHeader() *SequenceHeader {
	return &SequenceHeader{Flag: NewSequenceFlag()}
}

// Digest records the tag order and per-tag shapes of sample, a
// representative feature set of the sequence, and the original and coded
// image sizes. A zero size falls back to the spatial size of the first tag.
func (h *SequenceHeader) Digest(sample *tensor.FeatureSet, original, coded tensor.Size) error {
	if sample == nil || sample.Len() == 0 {
		return errs.ErrEmptySequence
	}
	if sample.Len() > MaxTagCount {
		return fmt.Errorf("%w: %d", errs.ErrTooManyTags, sample.Len())
	}

	tags := make([]TagInfo, 0, sample.Len())
	for _, name := range sample.Tags() {
		if len(name) == 0 || len(name) > MaxTagNameLength {
			return fmt.Errorf("%w: %q", errs.ErrInvalidTagName, name)
		}
		t, _ := sample.Get(name)
		s := t.Shape()
		tags = append(tags, TagInfo{
			Name:     name,
			Channels: uint32(s.C), //nolint:gosec
			Height:   uint32(s.H), //nolint:gosec
			Width:    uint32(s.W), //nolint:gosec
		})
	}

	first := tags[0]
	if original.IsZero() {
		original = tensor.Size{Height: int(first.Height), Width: int(first.Width)}
	}
	if coded.IsZero() {
		coded = original
	}

	h.Tags = tags
	h.OriginalHeight = uint32(original.Height)
	h.OriginalWidth = uint32(original.Width)
	h.CodedHeight = uint32(coded.Height)
	h.CodedWidth = uint32(coded.Width)

	return nil
}

// SetParams stores the coding parameters after validating them.
func (h *SequenceHeader) SetParams(totalFrameSets, qp, qpDensity uint, downsample bool, dcQPOffset int, dcQPDensityOffset uint) error {
	if err := ValidateQuantParams(qp, qpDensity, dcQPOffset, dcQPDensityOffset); err != nil {
		return err
	}
	if totalFrameSets > math.MaxUint32 {
		return fmt.Errorf("%w: %d feature sets", errs.ErrInvalidHeaderSize, totalFrameSets)
	}

	h.TotalFrameSets = uint32(totalFrameSets)
	h.QP = uint32(qp)
	h.QPDensity = uint8(qpDensity)
	h.DCQPOffset = int32(dcQPOffset)
	h.DCQPDensityOffset = uint8(dcQPDensityOffset)
	h.Flag.SetDownsampled(downsample)

	return nil
}

// ValidateQuantParams checks the quantization parameters shared by the
// header and the codec configuration.
func ValidateQuantParams(qp, qpDensity uint, dcQPOffset int, dcQPDensityOffset uint) error {
	if qp > MaxQP {
		return fmt.Errorf("%w: %d > %d", errs.ErrInvalidQP, qp, MaxQP)
	}
	if dcQPOffset < -MaxQP || dcQPOffset > MaxQP {
		return fmt.Errorf("%w: dc_qp_offset %d", errs.ErrInvalidQP, dcQPOffset)
	}
	if qpDensity < MinQPDensity || qpDensity > MaxQPDensity {
		return fmt.Errorf("%w: got %d", errs.ErrInvalidQPDensity, qpDensity)
	}
	if qpDensity+dcQPDensityOffset > MaxQPDensity {
		return fmt.Errorf("%w: %d + %d", errs.ErrInvalidDCQPDensity, qpDensity, dcQPDensityOffset)
	}

	return nil
}

// Validate checks the header before serialization.
func (h *SequenceHeader) Validate() error {
	if err := h.Flag.Validate(); err != nil {
		return err
	}
	if err := ValidateQuantParams(uint(h.QP), uint(h.QPDensity), int(h.DCQPOffset), uint(h.DCQPDensityOffset)); err != nil {
		return err
	}
	if len(h.Tags) == 0 {
		return errs.ErrEmptySequence
	}
	if len(h.Tags) > MaxTagCount {
		return fmt.Errorf("%w: %d", errs.ErrTooManyTags, len(h.Tags))
	}
	for _, t := range h.Tags {
		if len(t.Name) == 0 || len(t.Name) > MaxTagNameLength {
			return fmt.Errorf("%w: %q", errs.ErrInvalidTagName, t.Name)
		}
		if t.Channels == 0 || t.Height == 0 || t.Width == 0 {
			return fmt.Errorf("%w: tag %q", errs.ErrInvalidTensor, t.Name)
		}
		if plane := uint64(t.Height) * uint64(t.Width); plane > tensor.MaxElements || uint64(t.Channels) > tensor.MaxElements/plane {
			return fmt.Errorf("%w: tag %q is %dx%dx%d", errs.ErrInvalidTensor, t.Name, t.Channels, t.Height, t.Width)
		}
	}

	return nil
}

// Size returns the serialized size of the header in bytes.
func (h *SequenceHeader) Size() int {
	n := HeaderPreludeSize + ChecksumSize
	for _, t := range h.Tags {
		n += TagEntryFixedSize + len(t.Name)
	}

	return n
}

// TagCount returns the number of tags.
func (h *SequenceHeader) TagCount() int {
	return len(h.Tags)
}

// SubframeHeights returns the coded height of every tag in tag order.
func (h *SequenceHeader) SubframeHeights() []uint32 {
	heights := make([]uint32, len(h.Tags))
	for i, t := range h.Tags {
		heights[i] = t.Height
	}

	return heights
}

// TagNames returns the tag names in coding order.
func (h *SequenceHeader) TagNames() []string {
	names := make([]string, len(h.Tags))
	for i, t := range h.Tags {
		names[i] = t.Name
	}

	return names
}

// OriginalSize returns the source image size.
func (h *SequenceHeader) OriginalSize() tensor.Size {
	return tensor.Size{Height: int(h.OriginalHeight), Width: int(h.OriginalWidth)}
}

// CodedSize returns the size of the image the features were extracted from.
func (h *SequenceHeader) CodedSize() tensor.Size {
	return tensor.Size{Height: int(h.CodedHeight), Width: int(h.CodedWidth)}
}

// Bytes serializes the header.
func (h *SequenceHeader) Bytes() ([]byte, error) {
	buf := pool.GetHeaderBuffer()
	defer pool.PutHeaderBuffer(buf)

	if err := h.appendTo(buf); err != nil {
		return nil, err
	}

	return bytes.Clone(buf.Bytes()), nil
}

// Write stores the coding parameters in h and appends the serialized header
// to w. It returns the number of bytes written.
//
// Nothing is written when the parameters or the digested layout are invalid.
func (h *SequenceHeader) Write(w io.Writer, totalFrameSets, qp, qpDensity uint, downsample bool, dcQPOffset int, dcQPDensityOffset uint) (int, error) {
	if err := h.SetParams(totalFrameSets, qp, qpDensity, downsample, dcQPOffset, dcQPDensityOffset); err != nil {
		return 0, err
	}

	buf := pool.GetHeaderBuffer()
	defer pool.PutHeaderBuffer(buf)

	if err := h.appendTo(buf); err != nil {
		return 0, err
	}

	n, err := w.Write(buf.Bytes())
	if err != nil {
		return n, fmt.Errorf("%w: %w", errs.ErrWriteBitstream, err)
	}

	return n, nil
}

func (h *SequenceHeader) appendTo(buf *pool.ByteBuffer) error {
	if err := h.Validate(); err != nil {
		return err
	}

	engine := h.Flag.GetEndianEngine()
	buf.Grow(h.Size())

	b := buf.B
	// Options are always little-endian so the byte order can be detected.
	b = append(b, byte(h.Flag.Options), byte(h.Flag.Options>>8))
	b = append(b, h.Flag.PayloadCompression, h.QPDensity, h.DCQPDensityOffset, 0)
	b = engine.AppendUint16(b, uint16(len(h.Tags))) //nolint:gosec
	b = engine.AppendUint32(b, h.TotalFrameSets)
	b = engine.AppendUint32(b, h.QP)
	b = engine.AppendUint32(b, uint32(h.DCQPOffset)) //nolint:gosec
	b = engine.AppendUint32(b, h.OriginalHeight)
	b = engine.AppendUint32(b, h.OriginalWidth)
	b = engine.AppendUint32(b, h.CodedHeight)
	b = engine.AppendUint32(b, h.CodedWidth)

	for _, t := range h.Tags {
		b = append(b, uint8(len(t.Name))) //nolint:gosec
		b = append(b, t.Name...)
		b = engine.AppendUint32(b, t.Channels)
		b = engine.AppendUint32(b, t.Height)
		b = engine.AppendUint32(b, t.Width)
	}

	b = engine.AppendUint32(b, hash.Checksum(b[len(buf.B):]))
	buf.B = b

	return nil
}

// Read parses a header from r and returns the number of bytes consumed.
//
// Short input yields ErrInvalidHeaderSize, a bad flag word
// ErrInvalidHeaderFlags and a checksum mismatch ErrHeaderChecksum, all of
// which are bitstream format errors.
func (h *SequenceHeader) Read(r io.Reader) (int, error) {
	hasher := hash.NewHasher()
	tr := io.TeeReader(r, hasher)

	var prelude [HeaderPreludeSize]byte
	if _, err := io.ReadFull(tr, prelude[:]); err != nil {
		return 0, headerReadError(err)
	}
	consumed := HeaderPreludeSize

	var parsed SequenceHeader
	parsed.Flag.Options = uint16(prelude[0]) | uint16(prelude[1])<<8
	parsed.Flag.PayloadCompression = prelude[2]
	if err := parsed.Flag.Validate(); err != nil {
		return consumed, err
	}

	engine := parsed.Flag.GetEndianEngine()
	parsed.QPDensity = prelude[3]
	parsed.DCQPDensityOffset = prelude[4]
	if prelude[5] != 0 {
		return consumed, errs.ErrInvalidHeaderFlags
	}
	tagCount := int(engine.Uint16(prelude[6:8]))
	parsed.TotalFrameSets = engine.Uint32(prelude[8:12])
	parsed.QP = engine.Uint32(prelude[12:16])
	parsed.DCQPOffset = int32(engine.Uint32(prelude[16:20])) //nolint:gosec
	parsed.OriginalHeight = engine.Uint32(prelude[20:24])
	parsed.OriginalWidth = engine.Uint32(prelude[24:28])
	parsed.CodedHeight = engine.Uint32(prelude[28:32])
	parsed.CodedWidth = engine.Uint32(prelude[32:36])

	if tagCount == 0 {
		return consumed, fmt.Errorf("%w: no tags", errs.ErrInvalidHeaderSize)
	}

	parsed.Tags = make([]TagInfo, tagCount)
	var fixed [TagEntryFixedSize - 1]byte
	for i := range parsed.Tags {
		var nameLen [1]byte
		if _, err := io.ReadFull(tr, nameLen[:]); err != nil {
			return consumed, headerReadError(err)
		}
		name := make([]byte, nameLen[0])
		if _, err := io.ReadFull(tr, name); err != nil {
			return consumed, headerReadError(err)
		}
		if _, err := io.ReadFull(tr, fixed[:]); err != nil {
			return consumed, headerReadError(err)
		}
		consumed += TagEntryFixedSize + len(name)

		parsed.Tags[i] = TagInfo{
			Name:     string(name),
			Channels: engine.Uint32(fixed[0:4]),
			Height:   engine.Uint32(fixed[4:8]),
			Width:    engine.Uint32(fixed[8:12]),
		}
	}

	expected := hasher.Sum32()
	var sum [ChecksumSize]byte
	if _, err := io.ReadFull(r, sum[:]); err != nil {
		return consumed, headerReadError(err)
	}
	consumed += ChecksumSize
	if engine.Uint32(sum[:]) != expected {
		return consumed, errs.ErrHeaderChecksum
	}

	if err := parsed.Validate(); err != nil {
		return consumed, fmt.Errorf("%w: %w", errs.ErrInvalidHeaderFlags, err)
	}

	*h = parsed

	return consumed, nil
}

// Parse parses a header from the start of data and returns the number of
// bytes consumed.
func (h *SequenceHeader) Parse(data []byte) (int, error) {
	return h.Read(bytes.NewReader(data))
}

// ReadSequenceHeader reads a header from r.
func ReadSequenceHeader(r io.Reader) (SequenceHeader, int, error) {
	var h SequenceHeader
	n, err := h.Read(r)
	if err != nil {
		return SequenceHeader{}, n, err
	}

	return h, n, nil
}

func headerReadError(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return errs.ErrInvalidHeaderSize
	}

	return fmt.Errorf("%w: %w", errs.ErrInvalidHeaderSize, err)
}
