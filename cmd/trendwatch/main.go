package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/trendwatch-io/trendwatch/internal/app"
	"github.com/trendwatch-io/trendwatch/internal/config"
	"github.com/trendwatch-io/trendwatch/internal/core/feed"
)

func main() {
	modeFlag := flag.String("mode", "", "Report mode (daily, current, incremental); overrides the config file")
	once := flag.Bool("once", false, "Run one pipeline pass and exit")
	interval := flag.Duration("interval", 0, "Run interval; overrides the config file")

	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	fileCfg, err := config.LoadFile(cfg.ConfigPath)
	if err != nil {
		log.Fatalf("failed to load config file: %v", err)
	}

	if *interval > 0 {
		fileCfg.Crawler.RunInterval = config.Duration(*interval)
	}

	logger := newLogger(cfg.AppEnv)

	mode, err := resolveMode(*modeFlag, fileCfg.Report.Mode)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid report mode")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, fileCfg, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to assemble application")
	}
	defer application.Close()

	// Start health server in background
	go func() {
		if err := application.StartHealthServer(ctx); err != nil {
			logger.Error().Err(err).Msg("health check server error")
		}
	}()

	if err := application.Run(ctx, mode, *once); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info().Msg("application stopped")
			return
		}

		logger.Fatal().Err(err).Msg("application error")
	}
}

func newLogger(appEnv string) zerolog.Logger {
	if appEnv == "local" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
	}

	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

func resolveMode(flagValue, fileValue string) (feed.Mode, error) {
	if flagValue != "" {
		return feed.ParseMode(flagValue)
	}

	return feed.ParseMode(fileValue)
}
