package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	json "github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/arloliu/ftc/codec"
)

func inspectCmd(stdout io.Writer) *cli.Command {
	var (
		input  string
		asJSON bool
		noSets bool
	)

	return &cli.Command{
		Name:  "inspect",
		Usage: "Print the header and per-set sizes of a bitstream",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "input", Aliases: []string{"i"}, Usage: "bitstream path", Required: true, Destination: &input},
			&cli.BoolFlag{Name: "json", Usage: "print JSON", Destination: &asJSON},
			&cli.BoolFlag{Name: "header-only", Usage: "omit the per-set table", Destination: &noSets},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			in, err := codec.Inspect(input)
			if err != nil {
				return err
			}
			if noSets {
				in.Sets = nil
			}

			if asJSON {
				data, err := json.MarshalIndent(in, "", "  ")
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(stdout, string(data))

				return err
			}

			return printInspection(stdout, in)
		},
	}
}

func printInspection(w io.Writer, in *codec.Inspection) error {
	h := in.Header
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	_, _ = fmt.Fprintf(tw, "frame sets\t%d\n", h.FrameSets)
	_, _ = fmt.Fprintf(tw, "qp\t%d (density %d, dc offset %d, dc density offset %d)\n",
		h.QP, h.QPDensity, h.DCQPOffset, h.DCQPDensityOffset)
	_, _ = fmt.Fprintf(tw, "compression\t%s\n", h.Compression)
	_, _ = fmt.Fprintf(tw, "downsample\t%t\n", h.Downsample)
	_, _ = fmt.Fprintf(tw, "big endian\t%t\n", h.BigEndian)
	_, _ = fmt.Fprintf(tw, "original size\t%dx%d\n", h.OriginalSize[0], h.OriginalSize[1])
	_, _ = fmt.Fprintf(tw, "coded size\t%dx%d\n", h.CodedSize[0], h.CodedSize[1])
	for _, tag := range h.Tags {
		_, _ = fmt.Fprintf(tw, "tag %s\t%dx%dx%d\n", tag.Name, tag.Channels, tag.Height, tag.Width)
	}
	_, _ = fmt.Fprintf(tw, "bytes\t%d (header %d)\n", in.TotalBytes, in.HeaderBytes)

	if len(in.Sets) > 0 {
		_, _ = fmt.Fprintln(tw)
		_, _ = fmt.Fprintln(tw, "POC\tTYPE\tBYTES\tRAW\tRATIO")
		for _, s := range in.Sets {
			_, _ = fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%.3f\n",
				s.POC, s.Type, s.Bytes, s.RawBytes, s.Stats().CompressionRatio())
		}
	}

	return tw.Flush()
}
