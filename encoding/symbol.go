package encoding

import (
	"encoding/binary"
	"fmt"

	"github.com/arloliu/ftc/endian"
	"github.com/arloliu/ftc/errs"
	"github.com/arloliu/ftc/internal/pool"
)

// SymbolEncoder writes the entropy-free symbol layer of a feature set
// payload: unsigned and zigzag varints, raw bytes and float32 values.
//
// The encoder appends to a pooled buffer. Call Finish to return the buffer
// once the encoded bytes have been consumed.
type SymbolEncoder struct {
	buf    *pool.ByteBuffer
	engine endian.EndianEngine
	count  int
}

// NewSymbolEncoder creates an encoder that writes float32 values with engine.
func NewSymbolEncoder(engine endian.EndianEngine) *SymbolEncoder {
	return &SymbolEncoder{
		engine: engine,
		buf:    pool.GetPayloadBuffer(),
	}
}

// WriteByte appends a single raw byte, used for coding mode markers.
func (e *SymbolEncoder) WriteByte(b byte) error {
	e.buf.B = append(e.buf.B, b)
	e.count++

	return nil
}

// WriteUvarint appends v as an unsigned LEB128 varint.
func (e *SymbolEncoder) WriteUvarint(v uint64) {
	e.buf.B = binary.AppendUvarint(e.buf.B, v)
	e.count++
}

// WriteVarint appends v as a zigzag varint, so small magnitudes of either
// sign take one byte.
func (e *SymbolEncoder) WriteVarint(v int64) {
	e.buf.B = binary.AppendVarint(e.buf.B, v)
	e.count++
}

// WriteFloat32 appends the IEEE 754 bits of v in the encoder's byte order.
func (e *SymbolEncoder) WriteFloat32(v float32) {
	e.buf.B = endian.AppendFloat32(e.engine, e.buf.B, v)
	e.count++
}

// WriteLevels appends every quantization level as a zigzag varint.
func (e *SymbolEncoder) WriteLevels(levels []int32) {
	// Most levels fit in one byte after quantization.
	e.buf.Grow(len(levels))
	for _, l := range levels {
		e.buf.B = binary.AppendVarint(e.buf.B, int64(l))
	}
	e.count += len(levels)
}

// Bytes returns the encoded symbols. The slice is owned by the encoder and
// is only valid until Finish.
func (e *SymbolEncoder) Bytes() []byte {
	return e.buf.Bytes()
}

// Len returns the number of symbols written.
func (e *SymbolEncoder) Len() int {
	return e.count
}

// Size returns the encoded size in bytes.
func (e *SymbolEncoder) Size() int {
	return e.buf.Len()
}

// Reset discards the written symbols and keeps the buffer.
func (e *SymbolEncoder) Reset() {
	e.buf.Reset()
	e.count = 0
}

// Finish returns the buffer to the pool. The encoder must not be used afterwards.
func (e *SymbolEncoder) Finish() {
	if e.buf != nil {
		pool.PutPayloadBuffer(e.buf)
		e.buf = nil
	}
	e.count = 0
}

// SymbolDecoder reads symbols written by SymbolEncoder.
//
// Running past the end of the data yields ErrTruncatedPayload; a varint
// that overflows 64 bits or a value outside the requested range yields
// ErrInvalidPayload.
type SymbolDecoder struct {
	data   []byte
	engine endian.EndianEngine
	off    int
}

// NewSymbolDecoder creates a decoder over data.
func NewSymbolDecoder(data []byte, engine endian.EndianEngine) *SymbolDecoder {
	return &SymbolDecoder{data: data, engine: engine}
}

// ReadByte reads one raw byte.
func (d *SymbolDecoder) ReadByte() (byte, error) {
	if d.off >= len(d.data) {
		return 0, fmt.Errorf("%w: byte at offset %d", errs.ErrTruncatedPayload, d.off)
	}
	b := d.data[d.off]
	d.off++

	return b, nil
}

// ReadUvarint reads an unsigned varint.
func (d *SymbolDecoder) ReadUvarint() (uint64, error) {
	v, n := binary.Uvarint(d.data[d.off:])
	if n == 0 {
		return 0, fmt.Errorf("%w: uvarint at offset %d", errs.ErrTruncatedPayload, d.off)
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: uvarint overflow at offset %d", errs.ErrInvalidPayload, d.off)
	}
	d.off += n

	return v, nil
}

// ReadIndex reads an unsigned varint that must be below limit.
func (d *SymbolDecoder) ReadIndex(limit int) (int, error) {
	v, err := d.ReadUvarint()
	if err != nil {
		return 0, err
	}
	if v >= uint64(limit) { //nolint:gosec
		return 0, fmt.Errorf("%w: index %d out of range [0, %d)", errs.ErrInvalidPayload, v, limit)
	}

	return int(v), nil //nolint:gosec
}

// ReadVarint reads a zigzag varint.
func (d *SymbolDecoder) ReadVarint() (int64, error) {
	v, n := binary.Varint(d.data[d.off:])
	if n == 0 {
		return 0, fmt.Errorf("%w: varint at offset %d", errs.ErrTruncatedPayload, d.off)
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: varint overflow at offset %d", errs.ErrInvalidPayload, d.off)
	}
	d.off += n

	return v, nil
}

// ReadLevel reads a zigzag varint that must fit in an int32.
func (d *SymbolDecoder) ReadLevel() (int32, error) {
	v, err := d.ReadVarint()
	if err != nil {
		return 0, err
	}
	if v < minLevel || v > maxLevel {
		return 0, fmt.Errorf("%w: level %d out of range", errs.ErrInvalidPayload, v)
	}

	return int32(v), nil
}

// ReadLevels fills dst with consecutive levels.
func (d *SymbolDecoder) ReadLevels(dst []int32) error {
	for i := range dst {
		l, err := d.ReadLevel()
		if err != nil {
			return err
		}
		dst[i] = l
	}

	return nil
}

// ReadFloat32 reads a float32 in the decoder's byte order.
func (d *SymbolDecoder) ReadFloat32() (float32, error) {
	if len(d.data)-d.off < 4 {
		return 0, fmt.Errorf("%w: float32 at offset %d", errs.ErrTruncatedPayload, d.off)
	}
	v := endian.Float32(d.engine, d.data[d.off:])
	d.off += 4

	return v, nil
}

// Remaining returns the number of unread bytes.
func (d *SymbolDecoder) Remaining() int {
	return len(d.data) - d.off
}

// Offset returns the number of bytes consumed.
func (d *SymbolDecoder) Offset() int {
	return d.off
}

const (
	minLevel = -1 << 31
	maxLevel = 1<<31 - 1
)
