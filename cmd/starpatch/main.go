// Package main runs one starpatch subcommand against the configured save.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	starpatchcmd "github.com/louisbranch/starpatch/internal/cmd/starpatch"
	"github.com/louisbranch/starpatch/internal/platform/config"
)

func main() {
	cfg, err := starpatchcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	log.SetPrefix("[STARPATCH] ")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := starpatchcmd.Run(ctx, cfg); err != nil {
		if errors.Is(err, starpatchcmd.ErrUsage) {
			flag.PrintDefaults()
			config.Exitf("%v", err)
		}
		log.Fatalf("%s: %v", cfg.Command, err)
	}
}
