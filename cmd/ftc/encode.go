package main

import (
	"context"
	"fmt"
	"io"

	"github.com/urfave/cli/v3"

	"github.com/arloliu/ftc/codec"
	"github.com/arloliu/ftc/internal/logger"
	"github.com/arloliu/ftc/internal/safetensors"
)

// encodeFlags holds the values of the encode command line.
type encodeFlags struct {
	qp                uint
	qpDensity         uint
	dcQPOffset        int
	dcQPDensityOffset uint
	nCluster          int
	intraPeriod       int
	downsample        bool
	compression       string
	bigEndian         bool
}

func encodeCmd(stdout io.Writer) *cli.Command {
	var (
		input      string
		output     string
		configPath string
		f          encodeFlags
	)

	return &cli.Command{
		Name:  "encode",
		Usage: "Encode a safetensors feature dump into a bitstream",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "input", Aliases: []string{"i"}, Usage: "feature dump (.safetensors)", Required: true, Destination: &input},
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "bitstream path", Required: true, Destination: &output},
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML codec configuration", Destination: &configPath},
			&cli.UintFlag{Name: "qp", Usage: "quantization parameter", Destination: &f.qp},
			&cli.UintFlag{Name: "qp-density", Usage: "quantization steps per octave, 1..5", Value: codec.DefaultQPDensity, Destination: &f.qpDensity},
			&cli.IntFlag{Name: "dc-qp-offset", Usage: "qp offset of the DC component", Destination: &f.dcQPOffset},
			&cli.UintFlag{Name: "dc-qp-density-offset", Usage: "density offset of the DC component", Destination: &f.dcQPDensityOffset},
			&cli.IntFlag{Name: "n-cluster", Usage: "clusters per tag", Value: codec.DefaultNCluster, Destination: &f.nCluster},
			&cli.IntFlag{Name: "intra-period", Usage: "distance between intra sets, -1 for all intra", Value: codec.DefaultIntraPeriod, Destination: &f.intraPeriod},
			&cli.BoolFlag{Name: "downsample", Usage: "halve spatial size before coding", Destination: &f.downsample},
			&cli.StringFlag{Name: "compression", Usage: "payload compression (none, zstd, s2, lz4)", Value: "zstd", Destination: &f.compression},
			&cli.BoolFlag{Name: "big-endian", Usage: "write multi-byte fields big-endian", Destination: &f.bigEndian},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)

			cfg := codec.DefaultConfig()
			if configPath != "" {
				loaded, err := codec.LoadConfig(configPath)
				if err != nil {
					return err
				}
				cfg = loaded
			}
			applyEncodeFlags(cmd.IsSet, f, &cfg)

			session, err := codec.NewSessionFromConfig(cfg, codec.WithLogger(log))
			if err != nil {
				return err
			}

			seq, err := safetensors.ReadSequence(input)
			if err != nil {
				return fmt.Errorf("read features %s: %w", input, err)
			}

			res, err := session.Encode(ctx, seq, output)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(stdout, "%s: %d feature sets, %d bytes (header %d)\n",
				output, len(res.SetBytes), res.TotalBytes(), res.HeaderBytes)

			return err
		},
	}
}

// applyEncodeFlags overrides cfg with every flag set on the command line.
func applyEncodeFlags(isSet func(string) bool, f encodeFlags, cfg *codec.Config) {
	if isSet("qp") {
		qp := f.qp
		cfg.QP = &qp
	}
	if isSet("qp-density") {
		cfg.QPDensity = f.qpDensity
	}
	if isSet("dc-qp-offset") {
		cfg.DCQPOffset = f.dcQPOffset
	}
	if isSet("dc-qp-density-offset") {
		cfg.DCQPDensityOffset = f.dcQPDensityOffset
	}
	if isSet("n-cluster") {
		cfg.NCluster = f.nCluster
	}
	if isSet("intra-period") {
		cfg.IntraPeriod = f.intraPeriod
	}
	if isSet("downsample") {
		cfg.Downsample = f.downsample
	}
	if isSet("compression") {
		cfg.Compression = f.compression
	}
	if isSet("big-endian") {
		cfg.BigEndian = f.bigEndian
	}
}
