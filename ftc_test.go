package ftc

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/ftc/codec"
	"github.com/arloliu/ftc/errs"
	"github.com/arloliu/ftc/format"
	"github.com/arloliu/ftc/tensor"
)

func testSequence(t *testing.T, frames int) *tensor.Sequence {
	t.Helper()

	layers := map[string][]*tensor.Tensor{}
	for f := 0; f < frames; f++ {
		ts, err := tensor.New(8, 8, 8)
		require.NoError(t, err)
		for c := 0; c < 8; c++ {
			ch := ts.Channel(c)
			for i := range ch {
				y, x := i/8, i%8
				v := math.Sin(float64(x)/3 + 0.2*float64(f))
				if c%2 == 1 {
					v = math.Cos(float64(y)/3 + 0.2*float64(f))
				}
				ch[i] = float32(float64(c+1)*v + 0.5)
			}
		}
		layers["p2"] = append(layers["p2"], ts)
	}
	seq, err := tensor.FromLayers([]string{"p2"}, layers)
	require.NoError(t, err)

	return seq
}

func TestNewDefaultSession(t *testing.T) {
	session, err := NewDefaultSession(30)
	require.NoError(t, err)

	cfg := session.Config()
	require.Equal(t, uint(30), *cfg.QP)
	require.Equal(t, codec.DefaultNCluster, cfg.NCluster)
	require.Equal(t, -1, cfg.IntraPeriod)
	require.Equal(t, "zstd", cfg.Compression)
}

func TestNewSession(t *testing.T) {
	_, err := NewSession()
	require.ErrorIs(t, err, errs.ErrMissingQP)

	session, err := NewSession(codec.WithQP(10), codec.WithCompression(format.CompressionS2))
	require.NoError(t, err)
	require.Equal(t, "s2", session.Config().Compression)
}

func TestNewInterSession(t *testing.T) {
	session, err := NewInterSession(10, 4, codec.WithNCluster(2))
	require.NoError(t, err)
	require.Equal(t, 4, session.Config().IntraPeriod)
	require.Equal(t, format.InterPredicted, session.Type(3))
	require.Equal(t, format.Intra, session.Type(4))

	_, err = NewInterSession(10, 0)
	require.ErrorIs(t, err, errs.ErrInvalidIntraPeriod)
}

func TestEncodeDecode(t *testing.T) {
	seq := testSequence(t, 4)
	path := filepath.Join(t.TempDir(), "seq.ftc")

	res, err := Encode(context.Background(), seq, path, codec.WithQP(2), codec.WithNCluster(2), codec.WithIntraPeriod(2))
	require.NoError(t, err)
	require.Equal(t, []format.CodingType{format.Intra, format.InterPredicted, format.Intra, format.InterPredicted}, res.Types)

	out, err := Decode(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, seq.Len(), out.Sequence.Len())
	for i := range seq.Frames {
		want, _ := seq.Frames[i].Get("p2")
		got, _ := out.Sequence.Frames[i].Get("p2")
		require.Less(t, tensor.MSE(want.Data(), got.Data()), 0.05)
	}

	in, err := Inspect(path)
	require.NoError(t, err)
	require.Equal(t, res.TotalBytes(), in.TotalBytes)

	_, err = Encode(context.Background(), seq, path)
	require.ErrorIs(t, err, errs.ErrMissingQP)
}

func TestNewDecoder(t *testing.T) {
	decoder, err := NewDecoder()
	require.NoError(t, err)
	require.Equal(t, codec.StateIdle, decoder.State())

	_, err = decoder.Decode(context.Background(), filepath.Join(t.TempDir(), "missing.ftc"))
	require.ErrorIs(t, err, errs.ErrOpenBitstream)
}
