package main

import (
	"errors"
	"fmt"
	"io"

	"pearson-go/pkg/frame"
	"pearson-go/pkg/log"

	"github.com/urfave/cli/v2"
)

var frameCommand = &cli.Command{
	Name:  "frame",
	Usage: "wrap payloads in checksummed frames, or verify and unwrap them",
	Subcommands: []*cli.Command{
		{
			Name:      "seal",
			Usage:     "write every input as one checksummed frame to stdout",
			UsageText: "pearson frame seal [--flags N] [FILE...]",
			Flags: []cli.Flag{
				&cli.UintFlag{
					Name:  "flags",
					Usage: "Application-defined flag byte stored in the header",
				},
			},
			Action: frameSealCmd,
		},
		{
			Name:      "open",
			Usage:     "verify a stream of frames and write their payloads to stdout",
			UsageText: "pearson frame open [FILE...]",
			Action:    frameOpenCmd,
		},
	},
}

func frameSealCmd(c *cli.Context) error {
	flags := c.Uint("flags")
	if flags > 0xff {
		return cli.Exit("Error: --flags must fit in one byte", 2)
	}
	for _, in := range inputs(c) {
		data, err := readAll(in)
		if err != nil {
			return cli.Exit(fmt.Sprintf("Error reading %s: %v", in.name, err), 1)
		}
		if len(data) > frame.MaxPayload {
			return cli.Exit(fmt.Sprintf("Error: %s exceeds the %d byte frame limit", in.name, frame.MaxPayload), 1)
		}
		if err := frame.WriteTo(c.App.Writer, data, uint8(flags)); err != nil {
			return cli.Exit(fmt.Sprintf("Error writing frame: %v", err), 1)
		}
	}
	return nil
}

func frameOpenCmd(c *cli.Context) error {
	for _, in := range inputs(c) {
		rc, err := in.open()
		if err != nil {
			return cli.Exit(fmt.Sprintf("Error opening %s: %v", in.name, err), 1)
		}
		err = openFrames(c, in.name, rc)
		rc.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func openFrames(c *cli.Context, name string, r io.Reader) error {
	for n := 0; ; n++ {
		_, payload, err := frame.ReadFrom(r)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			log.Error().Err(err).Str("input", name).Int("frame", n).Msg("frame: verification failed")
			return cli.Exit(fmt.Sprintf("Error: %s frame %d: %v", name, n, err), 1)
		}
		if _, err := c.App.Writer.Write(payload); err != nil {
			return cli.Exit(fmt.Sprintf("Error writing payload: %v", err), 1)
		}
	}
}
