// Package main provides the agentauthd binary: an HTTP server exposing
// the challenge/response agent-authentication protocol described in the
// reference interface table (challenge init, fetch, solve, and token
// verification) plus a health check.
//
// Usage:
//
//	agentauthd [flags]
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dyshay/agentauth/internal/config"
	"github.com/dyshay/agentauth/internal/server"
)

// version is set at build time via -ldflags.
var version = "0.1.0-dev"

func main() {
	cfg, err := config.Parse(os.Args[1:], version)
	if err != nil {
		fmt.Fprintf(os.Stderr, "agentauthd: %v\n", err)
		os.Exit(1)
	}

	if cfg.ShowVersion {
		fmt.Printf("agentauthd %s\n", version)
		os.Exit(0)
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel()})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel()})
	}
	logger := slog.New(handler)

	srv, err := server.New(cfg, logger, version)
	if err != nil {
		logger.Error("failed to initialise agentauthd", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Start(ctx); err != nil {
		logger.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}
