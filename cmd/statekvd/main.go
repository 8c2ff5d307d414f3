// Command statekvd runs the shared backing store that statekv state
// accessors in other processes read and write through.
//
// It serves a volatile in-memory key-value store over HTTP with the five
// capabilities the accessors need: point reads, plain and expiring writes,
// glob key enumeration, atomic multi-write batches, and the SetNX /
// compare-and-delete pair that backs the per-namespace distributed lock.
// Data does not survive a restart; durability is explicitly out of scope.
//
// Example usage:
//
//	# Start the server
//	statekvd --listen :7400
//
//	# Or from a config file
//	statekvd --config /etc/statekvd.yml
//
//	# Poke it
//	curl -X PUT 'localhost:7400/v1/kv?key=hello' -d 'world'
//	curl 'localhost:7400/v1/kv?key=hello'
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"

	"github.com/dreamware/statekv/internal/config"
	"github.com/dreamware/statekv/internal/store"
)

func main() {
	cmd := &cli.Command{
		Name:  "statekvd",
		Usage: "Shared backing store for statekv state accessors",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "listen",
				Usage:   "listen address",
				Sources: cli.EnvVars("STATEKVD_LISTEN"),
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to YAML config file",
				Sources: cli.EnvVars("STATEKVD_CONFIG"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "log level (debug, info, warn, error)",
				Sources: cli.EnvVars("STATEKVD_LOG_LEVEL"),
			},
		},
		Action: run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, c *cli.Command) error {
	cfg := config.Default()
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	// Explicit flags win over the config file.
	if c.IsSet("listen") {
		cfg.Listen = c.String("listen")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}

	log, err := setupLogger(cfg.LogLevel)
	if err != nil {
		return err
	}

	srv := newServer(store.NewMemoryStore(), log)
	httpServer := &http.Server{
		Addr:              cfg.Listen,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info().Str("listen", cfg.Listen).Msg("statekvd listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errc:
		return fmt.Errorf("listen: %w", err)
	case sig := <-stop:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info().Msg("statekvd stopped")
	return nil
}

func setupLogger(level string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", level, err)
	}
	writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	return zerolog.New(writer).Level(lvl).With().Timestamp().Logger(), nil
}
