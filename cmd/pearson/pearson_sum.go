package main

import (
	"fmt"
	"io"
	"strings"

	"pearson-go/pkg/log"
	"pearson-go/pkg/pearson"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"
)

var sumCommand = &cli.Command{
	Name:      "sum",
	Usage:     "print Pearson hashes of files, stdin or strings",
	UsageText: "pearson sum [options] [FILE...]",
	Description: `With no FILE, or when FILE is -, read standard input.
Output lines look like sha256sum: HASH  NAME.
The 64-bit hash is undefined for empty inputs; those are reported as errors.`,
	Flags: []cli.Flag{
		&cli.StringSliceFlag{
			Name:    "string",
			Aliases: []string{"s"},
			Usage:   "Hash `TEXT` instead of reading files (repeatable)",
		},
		&cli.StringFlag{
			Name:    "bits",
			Aliases: []string{"b"},
			Usage:   "Hash width: 8, 64 or both",
			Value:   "64",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "Append the input size to every line",
		},
		decodeFlag,
		tableFlag,
	},
	Action: sumCmd,
}

func sumCmd(c *cli.Context) error {
	bits := c.String("bits")
	switch bits {
	case "8", "64", "both":
	default:
		return cli.Exit(fmt.Sprintf("Error: --bits must be 8, 64 or both, got %q", bits), 2)
	}
	tbl, err := activeTable(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error loading table: %v", err), 2)
	}
	dec, err := decoder(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error: %v", err), 2)
	}

	var srcs []input
	if c.IsSet("string") {
		for _, s := range c.StringSlice("string") {
			srcs = append(srcs, stringInput(s))
		}
	} else {
		srcs = inputs(c)
	}

	failed := 0
	for _, in := range srcs {
		data, err := readAll(in)
		if err == nil {
			data, err = dec.Reverse(data)
		}
		if err == nil {
			err = printSum(c, &tbl, bits, in.name, data)
		}
		if err != nil {
			failed++
			log.Warn().Err(err).Str("input", in.name).Msg("sum: failed")
			fmt.Fprintf(c.App.ErrWriter, "pearson: %s: %v\n", in.name, err)
		}
	}
	if failed > 0 {
		return cli.Exit("", 1)
	}
	return nil
}

func printSum(c *cli.Context, tbl *pearson.Table, bits, name string, data []byte) error {
	var sum string
	switch bits {
	case "8":
		sum = fmt.Sprintf("%02x", tbl.Hash(data))
	case "64", "both":
		h, err := tbl.Hash64(data)
		if err != nil {
			return err
		}
		sum = fmt.Sprintf("%016x", h)
		if bits == "both" {
			sum = fmt.Sprintf("%02x %s", tbl.Hash(data), sum)
		}
	}

	log.Debug().Str("input", name).Int("size", len(data)).Str("sum", sum).Msg("sum")
	if c.Bool("verbose") {
		_, err := fmt.Fprintf(c.App.Writer, "%s  %s  (%s)\n", sum, name, humanize.IBytes(uint64(len(data))))
		return err
	}
	_, err := fmt.Fprintf(c.App.Writer, "%s  %s\n", sum, name)
	return err
}

func stringInput(s string) input {
	return input{name: fmt.Sprintf("%q", s), open: func() (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader(s)), nil
	}}
}
