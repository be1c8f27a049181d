package codec

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/arloliu/ftc/errs"
	"github.com/arloliu/ftc/format"
)

// Defaults applied by NewSession and DefaultConfig.
const (
	DefaultQPDensity   = 2
	DefaultNCluster    = 64
	DefaultIntraPeriod = -1
)

// Config is the serializable form of the session options, as read from a
// YAML file.
//
// QP is a pointer so a file that omits it can be told apart from qp: 0;
// a session without qp cannot be built.
type Config struct {
	QP                *uint          `yaml:"qp"`
	QPDensity         uint           `yaml:"qp_density"`
	DCQPOffset        int            `yaml:"dc_qp_offset"`
	DCQPDensityOffset uint           `yaml:"dc_qp_density_offset"`
	NCluster          int            `yaml:"n_cluster"`
	NClusterPerTag    map[string]int `yaml:"n_cluster_per_tag,omitempty"`
	IntraPeriod       int            `yaml:"intra_period"`
	Downsample        bool           `yaml:"downsample"`
	Compression       string         `yaml:"compression"`
	BigEndian         bool           `yaml:"big_endian"`
}

// DefaultConfig returns the defaults without a qp.
func DefaultConfig() Config {
	return Config{
		QPDensity:   DefaultQPDensity,
		NCluster:    DefaultNCluster,
		IntraPeriod: DefaultIntraPeriod,
		Compression: "zstd",
	}
}

// ParseConfig decodes YAML on top of DefaultConfig, so missing keys keep
// their defaults.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %w", errs.ErrConfiguration, err)
	}

	return cfg, nil
}

// LoadConfig reads a YAML configuration file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: read config %s: %w", errs.ErrConfiguration, path, err)
	}

	return ParseConfig(data)
}

// Options converts the configuration into session options.
func (c Config) Options() ([]SessionOption, error) {
	comp, ok := format.ParseCompression(c.Compression)
	if !ok {
		return nil, fmt.Errorf("%w: %q", errs.ErrInvalidCompression, c.Compression)
	}

	opts := []SessionOption{
		WithQPDensity(c.QPDensity),
		WithDCQPOffset(c.DCQPOffset),
		WithDCQPDensityOffset(c.DCQPDensityOffset),
		WithNCluster(c.NCluster),
		WithIntraPeriod(c.IntraPeriod),
		WithDownsample(c.Downsample),
		WithCompression(comp),
		WithBigEndian(c.BigEndian),
	}
	if c.QP != nil {
		opts = append(opts, WithQP(*c.QP))
	}
	for tag, n := range c.NClusterPerTag {
		opts = append(opts, WithNClusterForTag(tag, n))
	}

	return opts, nil
}

// Marshal encodes the configuration as YAML.
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
