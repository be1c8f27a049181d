package codec

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/ftc/errs"
)

func TestParseConfig(t *testing.T) {
	t.Run("defaults for missing keys", func(t *testing.T) {
		cfg, err := ParseConfig([]byte("qp: 12\n"))
		require.NoError(t, err)
		require.Equal(t, uint(12), *cfg.QP)
		require.Equal(t, uint(DefaultQPDensity), cfg.QPDensity)
		require.Equal(t, DefaultNCluster, cfg.NCluster)
		require.Equal(t, DefaultIntraPeriod, cfg.IntraPeriod)
		require.Equal(t, "zstd", cfg.Compression)
	})

	t.Run("all keys", func(t *testing.T) {
		data := []byte(`
qp: 30
qp_density: 3
dc_qp_offset: -6
dc_qp_density_offset: 1
n_cluster: 32
n_cluster_per_tag:
  p5: 8
intra_period: 4
downsample: true
compression: s2
big_endian: true
`)
		cfg, err := ParseConfig(data)
		require.NoError(t, err)

		s, err := NewSessionFromConfig(cfg)
		require.NoError(t, err)
		got := s.Config()
		require.Equal(t, cfg, got)
		require.Equal(t, 8, s.nClusterFor("p5"))
		require.Equal(t, 32, s.nClusterFor("p2"))
	})

	t.Run("missing qp", func(t *testing.T) {
		cfg, err := ParseConfig([]byte("qp_density: 2\n"))
		require.NoError(t, err)
		require.Nil(t, cfg.QP)

		_, err = NewSessionFromConfig(cfg)
		require.ErrorIs(t, err, errs.ErrMissingQP)
	})

	t.Run("unknown compression", func(t *testing.T) {
		cfg, err := ParseConfig([]byte("qp: 1\ncompression: brotli\n"))
		require.NoError(t, err)

		_, err = NewSessionFromConfig(cfg)
		require.ErrorIs(t, err, errs.ErrInvalidCompression)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := ParseConfig([]byte("qp: [1, 2"))
		require.ErrorIs(t, err, errs.ErrConfiguration)
	})
}

func TestConfig_MarshalLoad(t *testing.T) {
	qp := uint(22)
	cfg := DefaultConfig()
	cfg.QP = &qp
	cfg.Downsample = true

	data, err := cfg.Marshal()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "ftc.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, cfg, loaded)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "none.yaml"))
	require.ErrorIs(t, err, errs.ErrConfiguration)
}
