// Package main - Entry point for the cloudkeeper API server
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"cloudkeeper/internal/app"
	"cloudkeeper/internal/logging"
)

func main() {
	cfgPath := flag.String("config", "", "Config file (JSON)")
	addr := flag.String("addr", "", "Server address (overrides config)")
	flag.Parse()

	cfg, err := app.LoadConfig(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Server.Address = *addr
	}

	log, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, cleanup, err := app.NewServer(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to start", zap.Error(err))
	}
	defer cleanup()

	log.Info("cloudkeeper server starting", zap.String("version", app.Version), zap.String("address", cfg.Server.Address))
	if err := srv.Run(ctx); err != nil {
		log.Error("server stopped", zap.Error(err))
	}
}
