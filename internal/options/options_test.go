package options

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type quantConfig struct {
	qp       int
	density  int
	lastCall string
}

func (c *quantConfig) setDensity(d int) error {
	if d < 1 || d > 5 {
		return errors.New("density out of range")
	}
	c.density = d
	c.lastCall = "density"

	return nil
}

func withQP(qp int) Option[*quantConfig] {
	return NoError(func(c *quantConfig) {
		c.qp = qp
		c.lastCall = "qp"
	})
}

func withDensity(d int) Option[*quantConfig] {
	return New(func(c *quantConfig) error {
		return c.setDensity(d)
	})
}

func TestApply(t *testing.T) {
	t.Run("applies options in order", func(t *testing.T) {
		cfg := &quantConfig{}
		err := Apply(cfg, withDensity(2), withQP(30))

		require.NoError(t, err)
		require.Equal(t, 30, cfg.qp)
		require.Equal(t, 2, cfg.density)
		require.Equal(t, "qp", cfg.lastCall)
	})

	t.Run("stops at first error", func(t *testing.T) {
		cfg := &quantConfig{}
		err := Apply(cfg, withQP(10), withDensity(9), withQP(20))

		require.Error(t, err)
		require.Contains(t, err.Error(), "density out of range")
		require.Equal(t, 10, cfg.qp)
		require.Equal(t, "qp", cfg.lastCall)
	})

	t.Run("skips nil options", func(t *testing.T) {
		cfg := &quantConfig{}
		err := Apply(cfg, nil, withQP(4))

		require.NoError(t, err)
		require.Equal(t, 4, cfg.qp)
	})

	t.Run("empty options leave target untouched", func(t *testing.T) {
		cfg := &quantConfig{}
		require.NoError(t, Apply(cfg))
		require.Equal(t, quantConfig{}, *cfg)
	})
}

func TestGenericTargets(t *testing.T) {
	var n int
	opt := NoError(func(p *int) { *p = 42 })

	require.NoError(t, opt.apply(&n))
	require.Equal(t, 42, n)
}
