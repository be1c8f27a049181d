// Package server exposes the remote decoder over HTTP.
//
// An edge device encodes features and posts the bitstream; the server
// decodes it and returns the reconstructed features in safetensors layout.
package server

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"

	"github.com/arloliu/ftc/codec"
	"github.com/arloliu/ftc/errs"
	"github.com/arloliu/ftc/internal/logger"
	"github.com/arloliu/ftc/internal/safetensors"
)

// DefaultMaxBodyBytes bounds the accepted bitstream size.
const DefaultMaxBodyBytes = 256 << 20

// Response headers set by the decode endpoint.
const (
	HeaderRequestID = "X-Ftc-Request-Id"
	HeaderFrameSets = "X-Ftc-Frame-Sets"
	HeaderTypes     = "X-Ftc-Coding-Types"
	MIMESafetensors = "application/octet-stream"
)

// Config configures a Server.
type Config struct {
	// Logger receives one record per request. Defaults to logger.Discard.
	Logger logger.Logger
	// MaxBodyBytes bounds the request body. Zero means DefaultMaxBodyBytes.
	MaxBodyBytes int64
	// SessionOptions are applied to the decode session built per request.
	SessionOptions []codec.SessionOption
}

// Server decodes bitstreams posted over HTTP. Every request gets its own
// session.
type Server struct {
	log     logger.Logger
	maxBody int64
	opts    []codec.SessionOption
	clock   func() time.Time
}

// New creates a Server.
func New(cfg Config) *Server {
	s := &Server{
		log:     cfg.Logger,
		maxBody: cfg.MaxBodyBytes,
		opts:    cfg.SessionOptions,
		clock:   time.Now,
	}
	if s.log == nil {
		s.log = logger.Discard()
	}
	if s.maxBody <= 0 {
		s.maxBody = DefaultMaxBodyBytes
	}

	return s
}

// Register mounts the API routes on e.
func (s *Server) Register(e *echo.Echo) {
	e.POST("/v1/decode", s.handleDecode)
	e.POST("/v1/inspect", s.handleInspect)
	e.GET("/healthz", s.handleHealth)
}

// NewEcho returns an echo instance with logging and panic recovery that
// serves s.
func NewEcho(s *Server) *echo.Echo {
	e := echo.New()
	e.Use(middleware.RequestLogger())
	e.Use(middleware.Recover())
	s.Register(e)

	return e
}

// ResponseError is the body of every error response.
type ResponseError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// InspectResponse is the body of a successful inspect request.
type InspectResponse struct {
	ID string `json:"id"`
	*codec.Inspection
}

func (s *Server) handleHealth(c *echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleDecode(c *echo.Context) error {
	id := uuid.NewString()
	log := s.log.With("request", id, "route", "decode")
	start := s.clock()

	data, err := s.readBody(c)
	if err != nil {
		return s.writeFailure(c, log, err)
	}

	session, err := codec.NewDecodeSession(slices.Concat(s.opts, []codec.SessionOption{codec.WithLogger(log)})...)
	if err != nil {
		return s.writeFailure(c, log, err)
	}
	res, err := session.DecodeBytes(c.Request().Context(), data)
	if err != nil {
		return s.writeFailure(c, log, err)
	}

	var out bytes.Buffer
	if err := safetensors.EncodeSequence(&out, res.Sequence); err != nil {
		return s.writeFailure(c, log, err)
	}

	types := make([]string, len(res.Types))
	for i, t := range res.Types {
		types[i] = t.String()
	}

	h := c.Response().Header()
	h.Set(HeaderRequestID, id)
	h.Set(HeaderFrameSets, strconv.Itoa(len(res.Types)))
	h.Set(HeaderTypes, strings.Join(types, ","))
	log.Info("bitstream decoded", "bytes", len(data), "frame_sets", len(res.Types),
		"response_bytes", out.Len(), "elapsed", s.clock().Sub(start))

	return c.Blob(http.StatusOK, MIMESafetensors, out.Bytes())
}

func (s *Server) handleInspect(c *echo.Context) error {
	id := uuid.NewString()
	log := s.log.With("request", id, "route", "inspect")

	data, err := s.readBody(c)
	if err != nil {
		return s.writeFailure(c, log, err)
	}

	in, err := codec.InspectBytes(data)
	if err != nil {
		return s.writeFailure(c, log, err)
	}
	log.Debug("bitstream inspected", "bytes", len(data), "frame_sets", len(in.Sets))

	return c.JSON(http.StatusOK, InspectResponse{ID: id, Inspection: in})
}

var errEmptyBody = errors.New("request body is empty")

func (s *Server) readBody(c *echo.Context) ([]byte, error) {
	body := c.Request().Body
	if body == nil {
		return nil, errEmptyBody
	}

	data, err := io.ReadAll(http.MaxBytesReader(nil, body, s.maxBody))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errEmptyBody
	}

	return data, nil
}

func (s *Server) writeFailure(c *echo.Context, log logger.Logger, err error) error {
	status, errType := classify(err)
	if status >= http.StatusInternalServerError {
		log.Error("request failed", "error", err)
	} else {
		log.Warn("request rejected", "status", status, "error", err)
	}

	return c.JSON(status, map[string]any{
		"error": ResponseError{Message: err.Error(), Type: errType},
	})
}

func classify(err error) (int, string) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, "request_too_large"
	case errors.Is(err, errEmptyBody):
		return http.StatusBadRequest, "invalid_request_error"
	case errors.Is(err, errs.ErrBitstreamFormat):
		return http.StatusUnprocessableEntity, "invalid_bitstream"
	case errors.Is(err, errs.ErrConfiguration):
		return http.StatusInternalServerError, "configuration_error"
	default:
		return http.StatusInternalServerError, "server_error"
	}
}
