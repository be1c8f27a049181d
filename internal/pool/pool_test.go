package pool

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestByteBuffer(t *testing.T) {
	bb := NewByteBuffer(16)
	require.Equal(t, 0, bb.Len())
	require.Equal(t, 16, cap(bb.B))

	bb.MustWrite([]byte("feature"))
	n, err := bb.Write([]byte("-set"))
	require.NoError(t, err)
	require.Equal(t, 4, n)
	require.Equal(t, []byte("feature-set"), bb.Bytes())

	var out bytes.Buffer
	written, err := bb.WriteTo(&out)
	require.NoError(t, err)
	require.Equal(t, int64(11), written)
	require.Equal(t, "feature-set", out.String())

	capBefore := cap(bb.B)
	bb.Reset()
	require.Equal(t, 0, bb.Len())
	require.Equal(t, capBefore, cap(bb.B))
}

func TestByteBuffer_Grow(t *testing.T) {
	t.Run("no-op with enough capacity", func(t *testing.T) {
		bb := NewByteBuffer(64)
		bb.Grow(32)
		require.Equal(t, 64, cap(bb.B))
	})

	t.Run("grows by default size for small buffers", func(t *testing.T) {
		bb := NewByteBuffer(8)
		bb.MustWrite([]byte{1, 2, 3})
		bb.Grow(100)
		require.GreaterOrEqual(t, cap(bb.B)-bb.Len(), 100)
		require.Equal(t, []byte{1, 2, 3}, bb.Bytes())
	})

	t.Run("grows by at least the required bytes", func(t *testing.T) {
		bb := NewByteBuffer(0)
		bb.Grow(PayloadBufferDefaultSize * 3)
		require.GreaterOrEqual(t, cap(bb.B), PayloadBufferDefaultSize*3)
	})
}

func TestByteBufferPool(t *testing.T) {
	p := NewByteBufferPool(32, 128)

	bb := p.Get()
	require.NotNil(t, bb)
	bb.MustWrite([]byte("abc"))
	p.Put(bb)

	again := p.Get()
	require.Equal(t, 0, again.Len(), "pooled buffers are reset")

	big := NewByteBuffer(1024)
	p.Put(big) // dropped, larger than threshold
	p.Put(nil)
}

func TestDefaultPools(t *testing.T) {
	pb := GetPayloadBuffer()
	require.NotNil(t, pb)
	pb.MustWrite([]byte{1})
	PutPayloadBuffer(pb)

	hb := GetHeaderBuffer()
	require.NotNil(t, hb)
	PutHeaderBuffer(hb)
}

func TestGetLevelSlice(t *testing.T) {
	s, cleanup := GetLevelSlice(10)
	require.Len(t, s, 10)
	for i := range s {
		s[i] = int32(i) - 5
	}
	cleanup()

	s2, cleanup2 := GetLevelSlice(4)
	defer cleanup2()
	require.Len(t, s2, 4)

	s3, cleanup3 := GetLevelSlice(1000)
	defer cleanup3()
	require.Len(t, s3, 1000)
}
