// Copyright 2024-2026 Aiku AI

// Command telegram-mastodon-sync is a Telegram bot that synchronizes chat
// messages, including multi-media albums with formatted captions, to a
// linked Mastodon account.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/aiku/telegram-mastodon-sync/pkg/bridge"
)

// These are filled at build time with -ldflags.
var (
	Tag       = "unknown"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the config file")
	writeExample := flag.Bool("write-example-config", false, "write the example config to the config path and exit")
	flag.Parse()

	if *writeExample {
		if err := os.WriteFile(*configPath, []byte(bridge.ExampleConfig), 0o600); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write example config: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Optional .env file for the secret overrides.
	_ = godotenv.Load()

	cfg, err := bridge.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := cfg.Logging.Compile()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	log.Info().
		Str("tag", Tag).
		Str("commit", Commit).
		Str("build_time", BuildTime).
		Msg("telegram-mastodon-sync startup")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	br, err := bridge.New(cfg, *log)
	if err != nil {
		log.Error().Err(err).Msg("Failed to initialize bridge")
		os.Exit(1)
	}

	runErr := br.Run(ctx)
	br.Close()
	if runErr != nil {
		log.Error().Err(runErr).Msg("Bridge exited with error")
		os.Exit(1)
	}
	log.Info().Msg("Shutdown complete")
}
