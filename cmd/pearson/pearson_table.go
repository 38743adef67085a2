package main

import (
	"fmt"
	"slices"

	"pearson-go/pkg/tablefile"

	"github.com/urfave/cli/v2"
)

var tableCommand = &cli.Command{
	Name:      "table",
	Usage:     "print or check the substitution table",
	UsageText: "pearson table [--table FILE] [--check [--strict]]",
	Flags: []cli.Flag{
		tableFlag,
		&cli.BoolFlag{
			Name:  "check",
			Usage: "Report duplicated and missing values instead of printing the table",
		},
		&cli.BoolFlag{
			Name:  "strict",
			Usage: "With --check, exit 1 unless the table is a permutation of 0..255",
		},
	},
	Action: tableCmd,
}

func tableCmd(c *cli.Context) error {
	tbl, err := activeTable(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error loading table: %v", err), 2)
	}
	w := c.App.Writer

	if !c.Bool("check") {
		return tablefile.Format(w, tbl)
	}

	report := tbl.Check()
	if report.IsPermutation() {
		fmt.Fprintln(w, "table is a permutation of 0..255")
		return nil
	}

	values := make([]int, 0, len(report.Duplicates))
	for v := range report.Duplicates {
		values = append(values, int(v))
	}
	slices.Sort(values)
	for _, v := range values {
		fmt.Fprintf(w, "duplicate %d at indices %v\n", v, report.Duplicates[byte(v)])
	}
	for _, v := range report.Missing {
		fmt.Fprintf(w, "missing %d\n", v)
	}
	if c.Bool("strict") {
		return cli.Exit("table is not a permutation", 1)
	}
	return nil
}
