// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	askdocs "github.com/poiesic/askdocs"
	"github.com/poiesic/askdocs/config"
	"github.com/poiesic/askdocs/ingestion"
	"github.com/poiesic/askdocs/server"
)

func main() {
	app := &cli.App{
		Name:  "askdocs",
		Usage: "Documentation-grounded product question answering",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML configuration file",
				Value:   "askdocs.yaml",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Index the documents directory and serve the chat API",
				Action: serveCommand,
			},
			{
				Name:   "ingest",
				Usage:  "Run one-shot bulk ingestion and report per-file results",
				Action: ingestCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}

func serveCommand(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}

	app, err := askdocs.NewApp(cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The endpoint must actually serve the configured models before we
	// accept traffic.
	if err := app.VerifyModels(ctx); err != nil {
		return err
	}
	if err := app.Warm(ctx); err != nil {
		return fmt.Errorf("warm-up embedding failed: %w", err)
	}

	results, err := app.IngestAll(ctx)
	if err != nil && !errors.Is(err, ingestion.ErrPartialIngestion) {
		return fmt.Errorf("initial ingestion: %w", err)
	}
	if len(results) == 0 {
		return fmt.Errorf("no documents found in %s", cfg.Documents)
	}
	if err != nil {
		// A bad file must not keep the good ones from being served.
		slog.Warn("some documents failed to ingest", "err", err)
	}
	slog.Info("initial ingestion complete", "documents", len(results))

	if err := app.StartWatcher(ctx); err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}

	srv := server.New(cfg.Listen, app.ChatService(), app.Engine(), slog.Default())

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func ingestCommand(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}

	app, err := askdocs.NewApp(cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Warm(ctx); err != nil {
		return fmt.Errorf("warm-up embedding failed: %w", err)
	}

	results, ingestErr := app.IngestAll(ctx)
	for _, res := range results {
		switch {
		case res.Err != nil:
			fmt.Printf("%-40s %s: %v\n", res.Filename, res.Status, res.Err)
		case res.Status == ingestion.StatusSkipped:
			fmt.Printf("%-40s %s\n", res.Filename, res.Status)
		default:
			fmt.Printf("%-40s %s (%d chunks)\n", res.Filename, res.Status, res.ChunkCount)
		}
	}
	if len(results) == 0 {
		fmt.Printf("no eligible documents in %s\n", cfg.Documents)
	}
	return ingestErr
}
