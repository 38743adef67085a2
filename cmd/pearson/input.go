package main

import (
	"fmt"
	"io"
	"os"

	"pearson-go/pkg/pearson"
	"pearson-go/pkg/tablefile"
	"pearson-go/pkg/transform"

	"github.com/urfave/cli/v2"
)

// maxInputSize bounds a single hashed input; messages are hashed whole.
const maxInputSize = 1 << 30

var (
	decodeFlag = &cli.StringFlag{
		Name:    "decode",
		Aliases: []string{"d"},
		Usage:   "Decode inputs with `LIST` of transforms in encode order (none, gzip, zstd; e.g. gzip,zstd) before hashing",
	}
	tableFlag = &cli.StringFlag{
		Name:    "table",
		Aliases: []string{"t"},
		Usage:   "Substitution table `FILE` (256 raw bytes or a list of 256 numbers)",
	}
)

// input is one named message source.
type input struct {
	name string
	open func() (io.ReadCloser, error)
}

// inputs maps positional arguments to sources; no argument or "-" is stdin.
func inputs(c *cli.Context) []input {
	args := c.Args().Slice()
	if len(args) == 0 {
		args = []string{"-"}
	}
	out := make([]input, 0, len(args))
	for _, a := range args {
		name := a
		if name == "-" {
			out = append(out, input{name: "-", open: func() (io.ReadCloser, error) {
				return io.NopCloser(c.App.Reader), nil
			}})
			continue
		}
		out = append(out, input{name: name, open: func() (io.ReadCloser, error) { return os.Open(name) }})
	}
	return out
}

func readAll(in input) ([]byte, error) {
	rc, err := in.open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(io.LimitReader(rc, maxInputSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxInputSize {
		return nil, fmt.Errorf("%s: input exceeds %d bytes", in.name, maxInputSize)
	}
	return data, nil
}

// decoder returns the decode pipeline selected by --decode, or the
// configured one.
func decoder(c *cli.Context) (transform.Transform, error) {
	name := configFrom(c).Decode
	if c.IsSet("decode") {
		name = c.String("decode")
	}
	p, err := transform.ParsePipeline(name)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// activeTable returns the table selected by --table, or the configured one.
func activeTable(c *cli.Context) (pearson.Table, error) {
	if c.IsSet("table") {
		return tablefile.LoadFile(c.String("table"))
	}
	return configFrom(c).Table()
}
