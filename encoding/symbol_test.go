package encoding

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/ftc/endian"
	"github.com/arloliu/ftc/errs"
)

func TestSymbolEncoder_RoundTrip(t *testing.T) {
	engines := map[string]endian.EndianEngine{
		"little": endian.GetLittleEndianEngine(),
		"big":    endian.GetBigEndianEngine(),
	}

	for name, engine := range engines {
		t.Run(name, func(t *testing.T) {
			enc := NewSymbolEncoder(engine)
			defer enc.Finish()

			require.NoError(t, enc.WriteByte(1))
			enc.WriteUvarint(300)
			enc.WriteVarint(-129)
			enc.WriteFloat32(-0.75)
			enc.WriteLevels([]int32{0, 1, -1, math.MaxInt32, math.MinInt32})
			require.Equal(t, 9, enc.Len())

			dec := NewSymbolDecoder(enc.Bytes(), engine)

			b, err := dec.ReadByte()
			require.NoError(t, err)
			require.Equal(t, byte(1), b)

			u, err := dec.ReadUvarint()
			require.NoError(t, err)
			require.Equal(t, uint64(300), u)

			v, err := dec.ReadVarint()
			require.NoError(t, err)
			require.Equal(t, int64(-129), v)

			f, err := dec.ReadFloat32()
			require.NoError(t, err)
			require.Equal(t, float32(-0.75), f)

			levels := make([]int32, 5)
			require.NoError(t, dec.ReadLevels(levels))
			require.Equal(t, []int32{0, 1, -1, math.MaxInt32, math.MinInt32}, levels)

			require.Zero(t, dec.Remaining())
			require.Equal(t, enc.Size(), dec.Offset())
		})
	}
}

func TestSymbolEncoder_ZeroLevelsAreOneByte(t *testing.T) {
	enc := NewSymbolEncoder(endian.GetLittleEndianEngine())
	defer enc.Finish()

	enc.WriteLevels(make([]int32, 64))
	require.Equal(t, 64, enc.Size())

	enc.Reset()
	require.Zero(t, enc.Size())
	require.Zero(t, enc.Len())
}

func TestSymbolDecoder_Truncated(t *testing.T) {
	engine := endian.GetLittleEndianEngine()

	t.Run("byte", func(t *testing.T) {
		_, err := NewSymbolDecoder(nil, engine).ReadByte()
		require.ErrorIs(t, err, errs.ErrTruncatedPayload)
	})

	t.Run("uvarint", func(t *testing.T) {
		_, err := NewSymbolDecoder([]byte{0x80, 0x80}, engine).ReadUvarint()
		require.ErrorIs(t, err, errs.ErrTruncatedPayload)
		require.ErrorIs(t, err, errs.ErrBitstreamFormat)
	})

	t.Run("varint", func(t *testing.T) {
		_, err := NewSymbolDecoder(nil, engine).ReadVarint()
		require.ErrorIs(t, err, errs.ErrTruncatedPayload)
	})

	t.Run("float32", func(t *testing.T) {
		_, err := NewSymbolDecoder([]byte{1, 2, 3}, engine).ReadFloat32()
		require.ErrorIs(t, err, errs.ErrTruncatedPayload)
	})

	t.Run("levels", func(t *testing.T) {
		err := NewSymbolDecoder([]byte{0, 2}, engine).ReadLevels(make([]int32, 3))
		require.ErrorIs(t, err, errs.ErrTruncatedPayload)
	})
}

func TestSymbolDecoder_Invalid(t *testing.T) {
	engine := endian.GetLittleEndianEngine()

	t.Run("uvarint overflow", func(t *testing.T) {
		data := []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x01}
		_, err := NewSymbolDecoder(data, engine).ReadUvarint()
		require.ErrorIs(t, err, errs.ErrInvalidPayload)
	})

	t.Run("index out of range", func(t *testing.T) {
		enc := NewSymbolEncoder(engine)
		defer enc.Finish()
		enc.WriteUvarint(4)

		_, err := NewSymbolDecoder(enc.Bytes(), engine).ReadIndex(4)
		require.ErrorIs(t, err, errs.ErrInvalidPayload)

		idx, err := NewSymbolDecoder(enc.Bytes(), engine).ReadIndex(5)
		require.NoError(t, err)
		require.Equal(t, 4, idx)
	})

	t.Run("level overflow", func(t *testing.T) {
		enc := NewSymbolEncoder(engine)
		defer enc.Finish()
		enc.WriteVarint(math.MaxInt32 + 1)

		_, err := NewSymbolDecoder(enc.Bytes(), engine).ReadLevel()
		require.ErrorIs(t, err, errs.ErrInvalidPayload)
	})
}
