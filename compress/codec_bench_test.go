package compress

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func BenchmarkCodecs_LevelPayload(b *testing.B) {
	data := levelPayload(256 * 1024)

	for codecName, codec := range getAllCodecs() {
		compressed, err := codec.Compress(data)
		require.NoError(b, err)

		b.Run(codecName+"/compress", func(b *testing.B) {
			b.SetBytes(int64(len(data)))
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_, _ = codec.Compress(data)
			}
		})

		b.Run(codecName+"/decompress", func(b *testing.B) {
			b.SetBytes(int64(len(data)))
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_, _ = Decompress(codec, compressed, len(data))
			}
		})
	}
}
