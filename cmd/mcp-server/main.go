// Command mcp-server exposes the calcsteps tools to agent frameworks.
//
// Usage:
//
//	mcp-server                         # MCP over stdio
//	mcp-server -transport http -addr :8080
//
// HTTP endpoints: POST /tool, GET /schema, GET /health, GET /metrics.
// Logs go to stderr; with the stdio transport stdout carries the protocol.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/njchilds90/calcsteps"
	"github.com/njchilds90/calcsteps/internal/config"
	"github.com/njchilds90/calcsteps/internal/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "mcp-server:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "config file (default $"+config.EnvPath+")")
	transport := flag.String("transport", "", "stdio or http (overrides config)")
	addr := flag.String("addr", "", "HTTP listen address (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *transport != "" {
		cfg.Server.Transport = *transport
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := cfg.Log.Logger(os.Stderr)
	calc := calcsteps.New(calcsteps.WithConfig(cfg), calcsteps.WithLogger(logger))

	if cfg.Server.Transport == "stdio" {
		logger.Info("calcsteps MCP server on stdio")
		return server.ServeStdio(calc)
	}

	gin.SetMode(gin.ReleaseMode)
	srv := server.NewHTTPServer(cfg.Server.Addr, server.NewRouter(calc, logger, nil))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	errc := make(chan error, 1)
	go func() {
		logger.Info("calcsteps HTTP server listening", "addr", cfg.Server.Addr,
			"routes", []string{"POST /tool", "GET /schema", "GET /health", "GET /metrics"})
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
