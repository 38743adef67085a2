package main

import (
	"fmt"

	"pearson-go/pkg/benchmark"

	"github.com/urfave/cli/v2"
)

var benchCommand = &cli.Command{
	Name:      "bench",
	Usage:     "measure per-call latency of the hashing primitives",
	UsageText: "pearson bench [--component hash8|hash64|frame|all] [--iterations N] [--size BYTES] [--output FILE]",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "component",
			Usage: "Component to benchmark (hash8, hash64, frame, all)",
			Value: "all",
		},
		&cli.IntFlag{
			Name:    "iterations",
			Aliases: []string{"n"},
			Usage:   "Number of iterations to run",
			Value:   benchmark.DefaultOptions().Iterations,
		},
		&cli.IntFlag{
			Name:  "size",
			Usage: "Message size in bytes",
			Value: benchmark.DefaultOptions().MessageSize,
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Also write results to `FILE` (CSV format)",
		},
	},
	Action: benchCmd,
}

func benchCmd(c *cli.Context) error {
	opts := benchmark.DefaultOptions()
	opts.Iterations = c.Int("iterations")
	opts.MessageSize = c.Int("size")

	var (
		results []*benchmark.LatencyResults
		err     error
	)
	if comp := c.String("component"); comp == "all" {
		results, err = benchmark.RunAll(opts)
	} else {
		opts.Component, err = benchmark.ParseComponent(comp)
		if err != nil {
			return cli.Exit(fmt.Sprintf("Error: %v", err), 2)
		}
		var r *benchmark.LatencyResults
		if r, err = benchmark.Run(opts); err == nil {
			results = append(results, r)
		}
	}
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
	}

	fmt.Fprintf(c.App.Writer, "pearson benchmark %s (built %s)\n\n", Version, BuildTime)
	for _, r := range results {
		benchmark.PrintResults(c.App.Writer, r)
	}
	if out := c.String("output"); out != "" {
		if err := benchmark.SaveResultsToFile(results, out); err != nil {
			return cli.Exit(fmt.Sprintf("Error saving results: %v", err), 1)
		}
	}
	return nil
}
