package compress

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/ftc/errs"
	"github.com/arloliu/ftc/format"
)

func getAllCodecs() map[string]Codec {
	return map[string]Codec{
		"NoOp": NewNoOpCompressor(),
		"Zstd": NewZstdCompressor(),
		"S2":   NewS2Compressor(),
		"LZ4":  NewLZ4Compressor(),
	}
}

// levelPayload mimics a quantized feature set: a few non-zero zigzag
// varints in long runs of zeros.
func levelPayload(samples int) []byte {
	buf := make([]byte, 0, samples)
	for i := 0; i < samples; i++ {
		level := int64(0)
		if i%37 == 0 {
			level = int64(i%11) - 5
		}
		buf = binary.AppendVarint(buf, level)
	}

	return buf
}

func TestCreateCodec(t *testing.T) {
	for _, ct := range []format.CompressionType{
		format.CompressionNone,
		format.CompressionZstd,
		format.CompressionS2,
		format.CompressionLZ4,
	} {
		t.Run(ct.String(), func(t *testing.T) {
			codec, err := CreateCodec(ct, "payload")
			require.NoError(t, err)
			require.NotNil(t, codec)

			shared, err := GetCodec(ct)
			require.NoError(t, err)
			require.IsType(t, shared, codec)
		})
	}

	t.Run("invalid", func(t *testing.T) {
		_, err := CreateCodec(format.CompressionType(0), "payload")
		require.ErrorIs(t, err, errs.ErrInvalidCompression)
		require.ErrorIs(t, err, errs.ErrConfiguration)

		_, err = GetCodec(format.CompressionType(9))
		require.ErrorIs(t, err, errs.ErrInvalidCompression)
	})
}

func TestCompressionStats(t *testing.T) {
	tests := []struct {
		name      string
		stats     CompressionStats
		wantRatio float64
		wantSaved float64
	}{
		{"half", CompressionStats{Algorithm: format.CompressionZstd, OriginalSize: 1000, CompressedSize: 500}, 0.5, 50},
		{"none", CompressionStats{Algorithm: format.CompressionNone, OriginalSize: 1000, CompressedSize: 1000}, 1, 0},
		{"empty", CompressionStats{}, 0, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.InDelta(t, tt.wantRatio, tt.stats.CompressionRatio(), 1e-9)
			require.InDelta(t, tt.wantSaved, tt.stats.SpaceSavings(), 1e-9)
		})
	}
}

func TestAllCodecs_RoundTrip(t *testing.T) {
	testCases := []struct {
		name string
		data []byte
	}{
		{"single_byte", []byte{0x42}},
		{"binary_data", []byte{0x00, 0x01, 0x02, 0x03, 0xFF, 0xFE, 0xFD, 0xFC}},
		{"levels_small", levelPayload(256)},
		{"levels_large", levelPayload(256 * 1024)},
		{
			name: "pseudo_random",
			data: func() []byte {
				data := make([]byte, 4096)
				for i := range data {
					data[i] = byte((i*7 + i*i) % 256)
				}

				return data
			}(),
		},
		{"all_zero", make([]byte, 1024*1024)},
	}

	for codecName, codec := range getAllCodecs() {
		t.Run(codecName, func(t *testing.T) {
			for _, tc := range testCases {
				t.Run(tc.name, func(t *testing.T) {
					compressed, err := codec.Compress(tc.data)
					require.NoError(t, err)
					require.NotEmpty(t, compressed)

					decompressed, err := codec.Decompress(compressed)
					require.NoError(t, err)
					require.True(t, bytes.Equal(tc.data, decompressed))

					sized, err := Decompress(codec, compressed, len(tc.data))
					require.NoError(t, err)
					require.True(t, bytes.Equal(tc.data, sized))
				})
			}
		})
	}
}

func TestAllCodecs_LevelPayloadShrinks(t *testing.T) {
	data := levelPayload(64 * 1024)

	for codecName, codec := range getAllCodecs() {
		if codecName == "NoOp" {
			continue
		}
		t.Run(codecName, func(t *testing.T) {
			compressed, err := codec.Compress(data)
			require.NoError(t, err)
			require.Less(t, len(compressed), len(data)/4)
		})
	}
}

func TestDecompress_SizeMismatch(t *testing.T) {
	data := levelPayload(1024)

	for codecName, codec := range getAllCodecs() {
		t.Run(codecName, func(t *testing.T) {
			compressed, err := codec.Compress(data)
			require.NoError(t, err)

			_, err = Decompress(codec, compressed, len(data)+1)
			require.Error(t, err)
		})
	}
}

func TestDecompress_SizeOutOfRange(t *testing.T) {
	data := levelPayload(1024)

	for codecName, codec := range getAllCodecs() {
		t.Run(codecName, func(t *testing.T) {
			compressed, err := codec.Compress(data)
			require.NoError(t, err)

			for _, size := range []int{-1, MaxDecodedPayload + 1} {
				out, err := Decompress(codec, compressed, size)
				require.Error(t, err, "size %d", size)
				require.Nil(t, out)
			}
		})
	}
}

func TestAllCodecs_InvalidData(t *testing.T) {
	invalidInputs := []struct {
		name string
		data []byte
	}{
		{"random_bytes", []byte{0xFF, 0xFF, 0xFF, 0xFF}},
		{"text_as_compressed", []byte("this is not compressed data")},
	}

	for codecName, codec := range getAllCodecs() {
		if codecName == "NoOp" {
			continue
		}
		t.Run(codecName, func(t *testing.T) {
			for _, input := range invalidInputs {
				t.Run(input.name, func(t *testing.T) {
					_, err := codec.Decompress(input.data)
					require.Error(t, err)
				})
			}
		})
	}
}

func TestAllCodecs_ConcurrentUsage(t *testing.T) {
	const numGoroutines = 16
	data := levelPayload(8192)

	for codecName, codec := range getAllCodecs() {
		t.Run(codecName, func(t *testing.T) {
			var wg sync.WaitGroup
			errCh := make(chan error, numGoroutines)

			for i := 0; i < numGoroutines; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					compressed, err := codec.Compress(data)
					if err != nil {
						errCh <- err
						return
					}
					out, err := Decompress(codec, compressed, len(data))
					if err != nil {
						errCh <- err
						return
					}
					if !bytes.Equal(out, data) {
						errCh <- fmt.Errorf("%s: round trip mismatch", codecName)
					}
				}()
			}

			wg.Wait()
			close(errCh)
			for err := range errCh {
				require.NoError(t, err)
			}
		})
	}
}
