package main

import (
	"bufio"
	"bytes"
	"fmt"

	"pearson-go/pkg/appdir"
	"pearson-go/pkg/dedup"
	"pearson-go/pkg/log"

	"github.com/urfave/cli/v2"
)

var dedupCommand = &cli.Command{
	Name:      "dedup",
	Usage:     "record inputs in the dedup index and report repeats",
	UsageText: "pearson dedup [options] [FILE...]",
	Description: `Each FILE (or standard input) is one message, or one message per line
with --lines. Every message is keyed by its 64-bit Pearson hash; keys seen
before are printed as "dup KEY COUNT NAME". Empty messages are skipped.`,
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:    "lines",
			Aliases: []string{"l"},
			Usage:   "Treat every line of the input as a separate message",
		},
		&cli.StringFlag{
			Name:  "db",
			Usage: "Dedup index `PATH` (default from config, relative to ~/.pearson-go)",
		},
		&cli.BoolFlag{
			Name:  "memory",
			Usage: "Use a throwaway in-memory index",
		},
		&cli.IntFlag{
			Name:  "report",
			Usage: "After recording, print the `N` most repeated keys (0 disables)",
		},
		decodeFlag,
		tableFlag,
	},
	Action: dedupCmd,
}

func openIndex(c *cli.Context) (*dedup.Index, error) {
	if c.Bool("memory") {
		return dedup.OpenMemory()
	}
	name := configFrom(c).DedupDB
	if c.IsSet("db") {
		name = c.String("db")
	}
	path, err := appdir.Path(name)
	if err != nil {
		return nil, err
	}
	return dedup.Open(path)
}

func dedupCmd(c *cli.Context) error {
	tbl, err := activeTable(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error loading table: %v", err), 2)
	}
	dec, err := decoder(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error: %v", err), 2)
	}
	ix, err := openIndex(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error opening dedup index: %v", err), 1)
	}
	defer ix.Close()
	ix.WithTable(tbl)

	w := c.App.Writer
	observe := func(name string, msg []byte) error {
		if len(msg) == 0 {
			return nil
		}
		e, err := ix.Observe(c.Context, msg)
		if err != nil {
			return err
		}
		if e.Duplicate() {
			fmt.Fprintf(w, "dup %016x %d %s\n", e.Key, e.Count, name)
		}
		return nil
	}

	for _, in := range inputs(c) {
		data, err := readAll(in)
		if err == nil {
			data, err = dec.Reverse(data)
		}
		if err != nil {
			return cli.Exit(fmt.Sprintf("Error reading %s: %v", in.name, err), 1)
		}

		if !c.Bool("lines") {
			if err := observe(in.name, data); err != nil {
				return cli.Exit(fmt.Sprintf("Error indexing %s: %v", in.name, err), 1)
			}
			continue
		}
		sc := bufio.NewScanner(bytes.NewReader(data))
		sc.Buffer(make([]byte, 64*1024), maxInputSize)
		for n := 1; sc.Scan(); n++ {
			name := fmt.Sprintf("%s:%d", in.name, n)
			if err := observe(name, sc.Bytes()); err != nil {
				return cli.Exit(fmt.Sprintf("Error indexing %s: %v", name, err), 1)
			}
		}
		if err := sc.Err(); err != nil {
			return cli.Exit(fmt.Sprintf("Error reading %s: %v", in.name, err), 1)
		}
	}

	keys, obs, err := ix.Stats(c.Context)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	log.Info().Int64("keys", keys).Int64("observations", obs).Msg("dedup: done")

	if n := c.Int("report"); n > 0 {
		dups, err := ix.Duplicates(c.Context, n)
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}
		fmt.Fprintf(w, "%d keys, %d observations\n", keys, obs)
		for _, e := range dups {
			fmt.Fprintf(w, "%016x %d %q\n", e.Key, e.Count, e.Sample)
		}
	}
	return nil
}
