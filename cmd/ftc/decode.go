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

func decodeCmd(stdout io.Writer) *cli.Command {
	var input, output string

	return &cli.Command{
		Name:  "decode",
		Usage: "Decode a bitstream into a safetensors feature dump",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "input", Aliases: []string{"i"}, Usage: "bitstream path", Required: true, Destination: &input},
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "feature dump (.safetensors)", Required: true, Destination: &output},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			session, err := codec.NewDecodeSession(codec.WithLogger(logger.FromContext(ctx)))
			if err != nil {
				return err
			}

			res, err := session.Decode(ctx, input)
			if err != nil {
				return err
			}
			if err := safetensors.WriteSequence(output, res.Sequence); err != nil {
				return fmt.Errorf("write features %s: %w", output, err)
			}

			_, err = fmt.Fprintf(stdout, "%s: %d feature sets, tags %v\n", output, res.Sequence.Len(), res.Sequence.Tags())

			return err
		},
	}
}
