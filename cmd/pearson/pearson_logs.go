package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"pearson-go/pkg/log"

	"github.com/urfave/cli/v2"
)

// timeFormats are tried in order when a time spec is not a duration.
var timeFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseTimeSpec accepts a duration before now ("90s", "1h30m", "2d", "1w")
// or an absolute timestamp.
func parseTimeSpec(spec string, now time.Time) (time.Time, error) {
	if d, err := parseDuration(spec); err == nil {
		return now.Add(-d), nil
	}
	for _, layout := range timeFormats {
		if ts, err := time.ParseInLocation(layout, spec, time.Local); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time specification %q: use a duration (e.g. '1h', '2d') or a timestamp (e.g. '2023-10-27T15:04:05Z')", spec)
}

func parseDuration(spec string) (time.Duration, error) {
	var unit time.Duration
	switch {
	case strings.HasSuffix(spec, "d"):
		unit = 24 * time.Hour
	case strings.HasSuffix(spec, "w"):
		unit = 7 * 24 * time.Hour
	default:
		return time.ParseDuration(spec)
	}
	n, err := strconv.Atoi(spec[:len(spec)-1])
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid duration %q", spec)
	}
	return time.Duration(n) * unit, nil
}

var logsCommand = &cli.Command{
	Name:      "logs",
	Usage:     "retrieve JSON log entries from the log database",
	UsageText: "pearson logs [--dbfile PATH] [--last [-n N] | --since -s SPEC | --between -s SPEC -e SPEC] [--pretty]",
	Description: `Modes: --last (default) prints the most recent N entries, --since prints
entries from a start time until now, --between prints entries in a range.
A SPEC is a duration before now ("5m", "1h30m", "2d", "1w") or a timestamp
("2023-10-27T15:04:05Z", "2023-10-27 10:00:00", "2023-10-27").`,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "dbfile",
			Aliases: []string{"f"},
			Usage:   "SQLite log database `PATH` (default from config)",
		},
		&cli.BoolFlag{
			Name:    "pretty",
			Aliases: []string{"p"},
			Usage:   "Print one human-readable line per entry instead of raw JSON",
		},
		&cli.BoolFlag{Name: "last", Usage: "Mode: the most recent N entries (default)"},
		&cli.BoolFlag{Name: "since", Usage: "Mode: entries since a start time"},
		&cli.BoolFlag{Name: "between", Usage: "Mode: entries between a start and an end time"},
		&cli.IntFlag{
			Name:    "count",
			Aliases: []string{"n"},
			Usage:   "Number of entries for --last mode",
			Value:   100,
		},
		&cli.StringFlag{
			Name:    "start",
			Aliases: []string{"s"},
			Usage:   "Start time `SPEC` for --since/--between",
		},
		&cli.StringFlag{
			Name:    "end",
			Aliases: []string{"e"},
			Usage:   "End time `SPEC` for --between",
		},
		&cli.IntFlag{
			Name:    "limit",
			Aliases: []string{"l"},
			Usage:   "Max entries for --since/--between",
			Value:   1000,
		},
	},
	Action: logsCmd,
}

func logsCmd(c *cli.Context) error {
	modes := 0
	for _, m := range []string{"last", "since", "between"} {
		if c.Bool(m) {
			modes++
		}
	}
	if modes > 1 {
		return cli.Exit("Error: only one of --last, --since, --between can be specified.", 2)
	}

	dbFile := configFrom(c).LogDB
	if c.IsSet("dbfile") {
		dbFile = c.String("dbfile")
	}
	// Reopen on the requested file; setup may have opened the configured one
	// or none at all.
	if err := log.Close(); err != nil {
		return cli.Exit(err.Error(), 1)
	}
	if err := log.Init(dbFile); err != nil {
		return cli.Exit(fmt.Sprintf("Error opening log database: %v", err), 1)
	}

	now := time.Now()
	var (
		entries []log.Entry
		err     error
	)
	switch {
	case c.Bool("since"):
		if !c.IsSet("start") {
			return cli.Exit("Error: --start (-s) is required for --since.", 2)
		}
		start, perr := parseTimeSpec(c.String("start"), now)
		if perr != nil {
			return cli.Exit(fmt.Sprintf("Error parsing start time: %v", perr), 2)
		}
		entries, err = log.GetLogsBetween(start, now, c.Int("limit"))
	case c.Bool("between"):
		if !c.IsSet("start") || !c.IsSet("end") {
			return cli.Exit("Error: --start (-s) and --end (-e) are required for --between.", 2)
		}
		start, perr := parseTimeSpec(c.String("start"), now)
		if perr != nil {
			return cli.Exit(fmt.Sprintf("Error parsing start time: %v", perr), 2)
		}
		end, perr := parseTimeSpec(c.String("end"), now)
		if perr != nil {
			return cli.Exit(fmt.Sprintf("Error parsing end time: %v", perr), 2)
		}
		if start.After(end) {
			fmt.Fprintf(c.App.ErrWriter, "Warning: start time %s is after end time %s.\n",
				start.Format(time.RFC3339), end.Format(time.RFC3339))
		}
		entries, err = log.GetLogsBetween(start, end, c.Int("limit"))
	default:
		n := c.Int("count")
		if n <= 0 {
			return cli.Exit("Error: --count (-n) must be a positive number.", 2)
		}
		entries, err = log.GetLastNLogs(n)
	}
	if errors.Is(err, log.ErrNotInitialized) {
		return cli.Exit("Internal Error: log database became unavailable.", 2)
	}
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error retrieving logs: %v", err), 1)
	}

	if len(entries) == 0 {
		fmt.Fprintln(c.App.ErrWriter, "No log entries found matching the criteria.")
		return nil
	}
	for _, e := range entries {
		if c.Bool("pretty") {
			writePretty(c.App.Writer, e)
		} else {
			fmt.Fprintln(c.App.Writer, strings.TrimRight(e.Data, "\n"))
		}
	}
	return nil
}

// writePretty prints "TIME LEVEL MESSAGE key=value ..." with keys sorted.
func writePretty(w io.Writer, e log.Entry) {
	var fields map[string]any
	if err := json.Unmarshal([]byte(e.Data), &fields); err != nil {
		fmt.Fprintf(w, "#%d %s", e.ID, e.Data)
		return
	}
	ts, _ := fields["time"].(string)
	level, _ := fields["level"].(string)
	msg, _ := fields["message"].(string)
	delete(fields, "time")
	delete(fields, "level")
	delete(fields, "message")

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %-5s %s", ts, strings.ToUpper(level), msg)
	for _, k := range keys {
		fmt.Fprintf(&sb, " %s=%v", k, fields[k])
	}
	fmt.Fprintln(w, sb.String())
}
