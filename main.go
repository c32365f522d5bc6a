package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := LoadConfig(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if err := setupLogging(cfg, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	accessLog, err := OpenAccessLog(cfg.AccessLog)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot open access log")
	}
	defer accessLog.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := NewServer(cfg, NewFileResolver(cfg.Root), accessLog)
	if err := srv.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("listen failed")
	}

	<-ctx.Done()
	srv.Stop()
}
