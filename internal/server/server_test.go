package server

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/labstack/echo/v5"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/ftc/codec"
	"github.com/arloliu/ftc/format"
	"github.com/arloliu/ftc/internal/safetensors"
	"github.com/arloliu/ftc/tensor"
)

func testBitstream(t *testing.T) []byte {
	t.Helper()

	layers := map[string][]*tensor.Tensor{}
	for f := 0; f < 3; f++ {
		ts, err := tensor.New(8, 4, 4)
		require.NoError(t, err)
		for c := 0; c < 8; c++ {
			ch := ts.Channel(c)
			for i := range ch {
				ch[i] = float32(c%2+1)*float32(i%4) + float32(f)*0.1 + float32(c)
				if c%2 == 1 {
					ch[i] += float32(i / 4)
				}
			}
		}
		layers["p2"] = append(layers["p2"], ts)
	}
	seq, err := tensor.FromLayers([]string{"p2"}, layers)
	require.NoError(t, err)

	s, err := codec.NewSession(codec.WithQP(4), codec.WithNCluster(2), codec.WithIntraPeriod(2))
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = s.EncodeTo(context.Background(), seq, &buf)
	require.NoError(t, err)

	return buf.Bytes()
}

func newTestEcho(cfg Config) *echo.Echo {
	e := echo.New()
	New(cfg).Register(e)

	return e
}

func post(t *testing.T, e *echo.Echo, path string, body []byte) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set(echo.HeaderContentType, MIMESafetensors)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ResponseError {
	t.Helper()

	var body struct {
		Error ResponseError `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	return body.Error
}

func TestDecodeEndpoint(t *testing.T) {
	e := newTestEcho(Config{})
	rec := post(t, e, "/v1/decode", testBitstream(t))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, "3", rec.Header().Get(HeaderFrameSets))
	require.Equal(t, "I,PB,I", rec.Header().Get(HeaderTypes))
	require.NotEmpty(t, rec.Header().Get(HeaderRequestID))

	f, err := safetensors.Parse(rec.Body.Bytes())
	require.NoError(t, err)
	seq, err := f.Sequence()
	require.NoError(t, err)
	require.Equal(t, 3, seq.Len())
	require.Equal(t, []string{"p2"}, seq.Tags())
	p2, ok := seq.Frames[2].Get("p2")
	require.True(t, ok)
	require.Equal(t, tensor.Shape{C: 8, H: 4, W: 4}, p2.Shape())
	require.Equal(t, tensor.Size{Height: 4, Width: 4}, seq.OriginalSize)
}

func TestInspectEndpoint(t *testing.T) {
	data := testBitstream(t)
	e := newTestEcho(Config{})
	rec := post(t, e, "/v1/inspect", data)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		ID string `json:"id"`
		codec.Inspection
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.ID)
	require.Equal(t, len(data), resp.TotalBytes)
	require.Equal(t, 3, resp.Header.FrameSets)
	require.Equal(t, format.CompressionZstd, resp.Header.Compression)
	require.Len(t, resp.Sets, 3)
	require.Equal(t, format.InterPredicted, resp.Sets[1].Type)
}

func TestEndpointErrors(t *testing.T) {
	data := testBitstream(t)

	tests := []struct {
		name     string
		cfg      Config
		path     string
		body     []byte
		wantCode int
		wantType string
	}{
		{"empty decode", Config{}, "/v1/decode", nil, http.StatusBadRequest, "invalid_request_error"},
		{"empty inspect", Config{}, "/v1/inspect", nil, http.StatusBadRequest, "invalid_request_error"},
		{"garbage", Config{}, "/v1/decode", []byte("not a bitstream at all, not even close"), http.StatusUnprocessableEntity, "invalid_bitstream"},
		{"truncated", Config{}, "/v1/decode", data[:len(data)-3], http.StatusUnprocessableEntity, "invalid_bitstream"},
		{"truncated inspect", Config{}, "/v1/inspect", data[:len(data)-3], http.StatusUnprocessableEntity, "invalid_bitstream"},
		{"too large", Config{MaxBodyBytes: 16}, "/v1/decode", data, http.StatusRequestEntityTooLarge, "request_too_large"},
		{"bad session options", Config{SessionOptions: []codec.SessionOption{codec.WithIntraPeriod(0)}}, "/v1/decode", data, http.StatusInternalServerError, "configuration_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(t, newTestEcho(tt.cfg), tt.path, tt.body)
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			require.Equal(t, tt.wantType, decodeError(t, rec).Type)
		})
	}
}

func TestHealth(t *testing.T) {
	e := NewEcho(New(Config{}))
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
