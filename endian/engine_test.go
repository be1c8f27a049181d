package endian

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEngines(t *testing.T) {
	require.Equal(t, binary.LittleEndian, GetLittleEndianEngine())
	require.Equal(t, binary.BigEndian, GetBigEndianEngine())
	require.True(t, IsBigEndian(GetBigEndianEngine()))
	require.False(t, IsBigEndian(GetLittleEndianEngine()))
}

func TestFloat32RoundTrip(t *testing.T) {
	values := []float32{0, 1, -1, 3.1415927, math.MaxFloat32, math.SmallestNonzeroFloat32, float32(math.Inf(-1))}

	for _, engine := range []EndianEngine{GetLittleEndianEngine(), GetBigEndianEngine()} {
		var buf []byte
		for _, v := range values {
			buf = AppendFloat32(engine, buf, v)
		}
		require.Len(t, buf, 4*len(values))

		for i, v := range values {
			require.Equal(t, v, Float32(engine, buf[i*4:]))
		}
	}
}

func TestFloat32ByteOrder(t *testing.T) {
	le := AppendFloat32(GetLittleEndianEngine(), nil, 1)
	be := AppendFloat32(GetBigEndianEngine(), nil, 1)

	// 1.0 = 0x3F800000
	require.Equal(t, []byte{0x00, 0x00, 0x80, 0x3F}, le)
	require.Equal(t, []byte{0x3F, 0x80, 0x00, 0x00}, be)
}
