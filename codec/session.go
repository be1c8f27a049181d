package codec

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/arloliu/ftc/cluster"
	"github.com/arloliu/ftc/errs"
	"github.com/arloliu/ftc/format"
	"github.com/arloliu/ftc/internal/logger"
	"github.com/arloliu/ftc/internal/options"
	"github.com/arloliu/ftc/section"
	"github.com/arloliu/ftc/tensor"
)

// State is the lifecycle state of a Session.
type State int32

const (
	// StateIdle means no call is in progress.
	StateIdle State = iota
	// StateActive means an Encode or Decode is running.
	StateActive
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateActive:
		return "Active"
	default:
		return "Unknown"
	}
}

type settings struct {
	qp                uint
	qpSet             bool
	qpDensity         uint
	dcQPOffset        int
	dcQPDensityOffset uint
	nCluster          int
	nClusterPerTag    map[string]int
	intraPeriod       int
	downsample        bool
	compression       format.CompressionType
	bigEndian         bool
}

// Session encodes and decodes feature sequences. All methods are safe for
// concurrent use; Encode, Decode and Reset are serialized.
type Session struct {
	mu    sync.Mutex
	state atomic.Int32

	cfg    settings
	proxy  cluster.SimilarityProxy
	logger logger.Logger
	id     string

	// Guarded by mu.
	poc        int
	reference  *tensor.FeatureSet
	assignment *cluster.Assignment
}

// NewSession creates a session. Invalid or missing parameters are
// reported as configuration errors.
func NewSession(opts ...SessionOption) (*Session, error) {
	s := &Session{
		cfg: settings{
			qpDensity:   DefaultQPDensity,
			nCluster:    DefaultNCluster,
			intraPeriod: DefaultIntraPeriod,
			compression: format.CompressionZstd,
		},
		proxy:  cluster.NewStatsProxy(),
		logger: logger.Discard(),
		id:     uuid.NewString(),
	}

	if err := options.Apply(s, opts...); err != nil {
		return nil, err
	}
	if err := s.cfg.validate(); err != nil {
		return nil, err
	}
	s.logger = s.logger.With("session", s.id)

	return s, nil
}

// NewDecodeSession creates a session for decoding only. Quantization
// parameters are taken from each bitstream header, so no qp is needed.
func NewDecodeSession(opts ...SessionOption) (*Session, error) {
	return NewSession(append([]SessionOption{WithQP(0)}, opts...)...)
}

// NewSessionFromConfig creates a session from cfg, then applies extra options.
func NewSessionFromConfig(cfg Config, extra ...SessionOption) (*Session, error) {
	opts, err := cfg.Options()
	if err != nil {
		return nil, err
	}

	return NewSession(append(opts, extra...)...)
}

func (c settings) validate() error {
	if !c.qpSet {
		return errs.ErrMissingQP
	}

	return section.ValidateQuantParams(c.qp, c.qpDensity, c.dcQPOffset, c.dcQPDensityOffset)
}

// ID returns the session identifier attached to every log record.
func (s *Session) ID() string {
	return s.id
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	return State(s.state.Load())
}

// POC returns the picture order count reached by the last call.
func (s *Session) POC() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.poc
}

// Config returns the session parameters in their serializable form.
func (s *Session) Config() Config {
	qp := s.cfg.qp
	cfg := Config{
		QP:                &qp,
		QPDensity:         s.cfg.qpDensity,
		DCQPOffset:        s.cfg.dcQPOffset,
		DCQPDensityOffset: s.cfg.dcQPDensityOffset,
		NCluster:          s.cfg.nCluster,
		IntraPeriod:       s.cfg.intraPeriod,
		Downsample:        s.cfg.downsample,
		Compression:       strings.ToLower(s.cfg.compression.String()),
		BigEndian:         s.cfg.bigEndian,
	}
	if len(s.cfg.nClusterPerTag) > 0 {
		cfg.NClusterPerTag = make(map[string]int, len(s.cfg.nClusterPerTag))
		for tag, n := range s.cfg.nClusterPerTag {
			cfg.NClusterPerTag[tag] = n
		}
	}

	return cfg
}

// Reset zeroes the picture order count and drops the reference set and
// cluster assignment.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reset()
}

func (s *Session) reset() {
	s.poc = 0
	s.reference = nil
	s.assignment = nil
}

// Type returns the coding type of the set at poc.
func (s *Session) Type(poc int) format.CodingType {
	return CodingTypeFor(poc, s.cfg.intraPeriod)
}

// CodingTypeFor returns Intra when intraPeriod is -1 or poc is a multiple
// of intraPeriod, and InterPredicted otherwise.
func CodingTypeFor(poc, intraPeriod int) format.CodingType {
	if intraPeriod == -1 || poc%intraPeriod == 0 {
		return format.Intra
	}

	return format.InterPredicted
}

// nClusterFor returns the cluster count of tag.
func (s *Session) nClusterFor(tag string) int {
	if n, ok := s.cfg.nClusterPerTag[tag]; ok {
		return n
	}

	return s.cfg.nCluster
}

// checkClusterCounts rejects cluster counts above a tag's channel count.
func (s *Session) checkClusterCounts(set *tensor.FeatureSet) error {
	for _, tag := range set.Tags() {
		t, _ := set.Get(tag)
		if n := s.nClusterFor(tag); n > t.Channels() {
			return fmt.Errorf("%w: tag %q has %d channels, n_cluster %d", errs.ErrInvalidClusterCount, tag, t.Channels(), n)
		}
	}

	return nil
}

// begin locks the session, resets it and marks it Active. The returned
// function restores Idle and unlocks.
func (s *Session) begin() func() {
	s.mu.Lock()
	s.reset()
	s.state.Store(int32(StateActive))

	return func() {
		s.state.Store(int32(StateIdle))
		s.mu.Unlock()
	}
}
