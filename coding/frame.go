package coding

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/arloliu/ftc/compress"
	"github.com/arloliu/ftc/endian"
	"github.com/arloliu/ftc/errs"
	"github.com/arloliu/ftc/format"
	"github.com/arloliu/ftc/internal/hash"
	"github.com/arloliu/ftc/internal/pool"
)

// FrameInfo describes a framed feature set without decoding it.
type FrameInfo struct {
	Type           format.CodingType
	RawSize        int
	CompressedSize int
	// Size is the total frame size in bytes, marker and checksum included.
	Size int
}

// Frame is a framed feature set with its payload decompressed.
type Frame struct {
	FrameInfo
	Payload []byte
}

// WriteFrame compresses raw and writes one frame to w. It returns the
// number of bytes written.
func WriteFrame(w io.Writer, p Params, ct format.CodingType, raw []byte) (int, error) {
	compressed, err := p.Codec.Compress(raw)
	if err != nil {
		return 0, fmt.Errorf("compress %s payload: %w", ct, err)
	}

	buf := pool.GetPayloadBuffer()
	defer pool.PutPayloadBuffer(buf)

	buf.Grow(1 + 2*binary.MaxVarintLen64 + len(compressed) + 4)
	b := buf.B
	b = append(b, byte(ct))
	b = binary.AppendUvarint(b, uint64(len(raw)))
	b = binary.AppendUvarint(b, uint64(len(compressed)))
	b = append(b, compressed...)
	b = p.Engine.AppendUint32(b, hash.Checksum(compressed))
	buf.B = b

	n, err := w.Write(buf.Bytes())
	if err != nil {
		return n, fmt.Errorf("%w: %w", errs.ErrWriteBitstream, err)
	}

	return n, nil
}

// ScanFrame validates the frame at the start of data and returns its
// layout and compressed bytes. The checksum is verified; the payload is
// not decompressed.
func ScanFrame(data []byte, engine endian.EndianEngine) (FrameInfo, []byte, error) {
	if len(data) == 0 {
		return FrameInfo{}, nil, fmt.Errorf("%w: missing frame marker", errs.ErrTruncatedPayload)
	}

	ct := format.CodingType(data[0])
	if !ct.IsValid() {
		return FrameInfo{}, nil, fmt.Errorf("%w: %d", errs.ErrInvalidCodingType, data[0])
	}
	off := 1

	rawLen, n := binary.Uvarint(data[off:])
	if n <= 0 {
		return FrameInfo{}, nil, frameLengthError(n, "raw length")
	}
	off += n

	compLen, n := binary.Uvarint(data[off:])
	if n <= 0 {
		return FrameInfo{}, nil, frameLengthError(n, "compressed length")
	}
	off += n

	if rawLen > compress.MaxDecodedPayload {
		return FrameInfo{}, nil, fmt.Errorf("%w: raw length %d exceeds %d", errs.ErrInvalidPayload, rawLen, compress.MaxDecodedPayload)
	}
	if compLen > uint64(len(data)-off) || len(data)-off-int(compLen) < 4 { //nolint:gosec
		return FrameInfo{}, nil, fmt.Errorf("%w: frame needs %d bytes, %d left", errs.ErrTruncatedPayload, compLen+4, len(data)-off)
	}

	compressed := data[off : off+int(compLen)] //nolint:gosec
	off += int(compLen)                        //nolint:gosec
	if engine.Uint32(data[off:]) != hash.Checksum(compressed) {
		return FrameInfo{}, nil, errs.ErrPayloadChecksum
	}
	off += 4

	return FrameInfo{
		Type:           ct,
		RawSize:        int(rawLen),  //nolint:gosec
		CompressedSize: int(compLen), //nolint:gosec
		Size:           off,
	}, compressed, nil
}

// ReadFrame scans and decompresses the frame at the start of data.
func ReadFrame(data []byte, p Params) (Frame, error) {
	info, compressed, err := ScanFrame(data, p.Engine)
	if err != nil {
		return Frame{}, err
	}
	if limit := p.MaxRawSize(); info.RawSize > limit {
		return Frame{}, fmt.Errorf("%w: raw length %d exceeds %d for the header's tags", errs.ErrInvalidPayload, info.RawSize, limit)
	}

	raw, err := compress.Decompress(p.Codec, compressed, info.RawSize)
	if err != nil {
		return Frame{}, fmt.Errorf("%w: %w", errs.ErrInvalidPayload, err)
	}

	return Frame{FrameInfo: info, Payload: raw}, nil
}

func frameLengthError(n int, field string) error {
	if n == 0 {
		return fmt.Errorf("%w: %s", errs.ErrTruncatedPayload, field)
	}

	return fmt.Errorf("%w: %s overflows", errs.ErrInvalidPayload, field)
}
