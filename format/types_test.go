package format

import (
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
)

func TestCodingType(t *testing.T) {
	require.Equal(t, "I", Intra.String())
	require.Equal(t, "PB", InterPredicted.String())
	require.False(t, CodingType(2).IsValid())

	data, err := json.Marshal([]CodingType{Intra, InterPredicted})
	require.NoError(t, err)
	require.JSONEq(t, `["I","PB"]`, string(data))

	var back []CodingType
	require.NoError(t, json.Unmarshal(data, &back))
	require.Equal(t, []CodingType{Intra, InterPredicted}, back)

	_, err = CodingType(7).MarshalText()
	require.Error(t, err)
	require.Error(t, json.Unmarshal([]byte(`["B"]`), &back))
}

func TestCompressionType(t *testing.T) {
	tests := []struct {
		name string
		want CompressionType
	}{
		{"none", CompressionNone},
		{"", CompressionNone},
		{"zstd", CompressionZstd},
		{" S2 ", CompressionS2},
		{"LZ4", CompressionLZ4},
	}
	for _, tt := range tests {
		got, ok := ParseCompression(tt.name)
		require.True(t, ok, tt.name)
		require.Equal(t, tt.want, got)
	}

	_, ok := ParseCompression("brotli")
	require.False(t, ok)
	require.False(t, CompressionType(0).IsValid())
	require.False(t, CompressionType(5).IsValid())

	text, err := CompressionLZ4.MarshalText()
	require.NoError(t, err)
	require.Equal(t, "lz4", string(text))

	var c CompressionType
	require.NoError(t, c.UnmarshalText([]byte("s2")))
	require.Equal(t, CompressionS2, c)
	require.Error(t, c.UnmarshalText([]byte("gzip")))
}
