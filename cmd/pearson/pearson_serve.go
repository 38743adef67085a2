package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pearson-go/pkg/api"
	"pearson-go/pkg/dedup"
	"pearson-go/pkg/log"

	"github.com/urfave/cli/v2"
)

var serveCommand = &cli.Command{
	Name:      "serve",
	Usage:     "serve the hashing HTTP API",
	UsageText: "pearson serve [--listen ADDR] [--no-dedup]",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "listen",
			Aliases: []string{"L"},
			Usage:   "Listen `ADDR` (default from config)",
		},
		&cli.BoolFlag{
			Name:  "no-dedup",
			Usage: "Disable the /dedup routes",
		},
		&cli.StringFlag{
			Name:  "db",
			Usage: "Dedup index `PATH` (default from config, relative to ~/.pearson-go)",
		},
		&cli.BoolFlag{
			Name:  "memory",
			Usage: "Use a throwaway in-memory dedup index",
		},
		tableFlag,
	},
	Action: serveCmd,
}

func serveCmd(c *cli.Context) error {
	cfg := configFrom(c)
	addr := cfg.APIListenAddr
	if c.IsSet("listen") {
		addr = c.String("listen")
	}
	tbl, err := activeTable(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error loading table: %v", err), 2)
	}

	var ix *dedup.Index
	if !c.Bool("no-dedup") {
		ix, err = openIndex(c)
		if err != nil {
			return cli.Exit(fmt.Sprintf("Error opening dedup index: %v", err), 1)
		}
		defer ix.Close()
		ix.WithTable(tbl)
	}

	srv := api.NewServer(tbl, ix)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		sig := <-sigChan
		log.Info().Stringer("signal", sig).Msg("serve: shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("serve: shutdown failed")
		}
	}()

	fmt.Fprintf(c.App.ErrWriter, "pearson %s serving on %s\n", Version, addr)
	log.Printf("serve: pearson %s starting on %s (dedup=%t)", Version, addr, ix != nil)
	if err := srv.Run(addr); err != nil {
		return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
	}
	return nil
}
