package main

import (
	"fmt"
	"os"
	"strings"

	"pearson-go/pkg/config"
	"pearson-go/pkg/log"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
)

// Version information - will be set at build time
var (
	Version   = "dev"
	BuildTime = "unknown"
)

const configKey = "config"

func newApp() *cli.App {
	return &cli.App{
		Name:    "pearson",
		Usage:   "Pearson hashing for deduplication keys and checksums",
		Version: fmt.Sprintf("%s (built %s)", Version, BuildTime),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the configuration `FILE` (default: search for pearson.yaml)",
				EnvVars: []string{"PEARSON_CONFIG"},
			},
			&cli.BoolFlag{
				Name:  "log-console",
				Usage: "Log to stderr instead of the SQLite log database",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Minimum `LEVEL` for console logging (debug, info, warn, error)",
			},
		},
		Before: setup,
		After: func(c *cli.Context) error {
			return log.Close()
		},
		Commands: []*cli.Command{
			sumCommand,
			tableCommand,
			dedupCommand,
			frameCommand,
			serveCommand,
			benchCommand,
			logsCommand,
		},
	}
}

func setup(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	if c.IsSet("log-console") {
		cfg.LogConsole = c.Bool("log-console")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if c.App.Metadata == nil {
		c.App.Metadata = map[string]interface{}{}
	}
	c.App.Metadata[configKey] = cfg

	if cfg.LogConsole {
		level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
		if err != nil {
			return cli.Exit(fmt.Sprintf("invalid log level %q: %v", cfg.LogLevel, err), 2)
		}
		log.SetStd(level)
		return nil
	}
	if cfg.LogDB != "" {
		if err := log.Init(cfg.LogDB); err != nil {
			fmt.Fprintf(c.App.ErrWriter, "warning: logging disabled: %v\n", err)
		}
	}
	return nil
}

func configFrom(c *cli.Context) *config.Config {
	if cfg, ok := c.App.Metadata[configKey].(*config.Config); ok {
		return cfg
	}
	return config.DefaultConfig()
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
