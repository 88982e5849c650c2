// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// serve.go - Relay server command handler.
package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jeranaias/exachat/internal/config"
	"github.com/jeranaias/exachat/internal/friendli"
	"github.com/jeranaias/exachat/internal/relay"
)

const shutdownTimeout = 10 * time.Second

// HandleServe runs the relay server until interrupted.
func HandleServe(args Args) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}
	if cfg.Upstream.Token == "" {
		return fmt.Errorf("no API token configured: set FRIENDLI_TOKEN or upstream.token in config.toml")
	}

	client := friendli.NewClient(friendli.Config{
		BaseURL: cfg.Upstream.BaseURL,
		Token:   cfg.Upstream.Token,
		Model:   cfg.Upstream.Model,
	})
	server := relay.NewServer(cfg.Server.Port, client)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Token and model changes in the config file take effect without a
	// restart; everything else still needs one.
	go func() {
		path := args.ConfigPath
		if path == "" {
			defaultPath, err := config.ConfigPath()
			if err != nil {
				log.Printf("CONFIG_WATCH_SKIPPED | err=%v", err)
				return
			}
			path = defaultPath
		}
		err := config.Watch(ctx, path, func(fresh *config.Config) {
			client.UpdateCredentials(fresh.Upstream.Token, fresh.Upstream.Model)
		})
		if err != nil {
			log.Printf("CONFIG_WATCH_FAILED | err=%v", err)
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// loadConfig loads configuration from the explicit path or the default.
func loadConfig(args Args) (*config.Config, error) {
	if args.ConfigPath != "" {
		return config.LoadFromPath(args.ConfigPath)
	}
	return config.Load()
}
