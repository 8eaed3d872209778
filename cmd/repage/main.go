package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/local/repage/internal/cli"
	cfgpkg "github.com/local/repage/internal/config"
	logpkg "github.com/local/repage/internal/logger"
	"github.com/local/repage/internal/metrics"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, envErr := cfgpkg.Load()

	// Init logging
	if err := logpkg.Init(logpkg.Options{
		Level:        cfg.Logging.Level,
		Pretty:       cfg.Logging.Pretty,
		File:         cfg.Logging.File,
		MaxSizeMB:    cfg.Logging.MaxSizeMB,
		MaxBackups:   cfg.Logging.MaxBackups,
		MaxAgeDays:   cfg.Logging.MaxAgeDays,
		Compress:     cfg.Logging.Compress,
		SendToAxiom:  cfg.Axiom.Send && cfg.Axiom.APIKey != "",
		AxiomAPIKey:  cfg.Axiom.APIKey,
		AxiomOrgID:   cfg.Axiom.OrgID,
		AxiomDataset: cfg.Axiom.Dataset,
		AxiomFlush:   cfg.Axiom.FlushInterval,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		return cli.ExitFailure
	}
	defer logpkg.Close()
	if envErr != nil {
		log.Warn().Err(envErr).Msg("could not read .env, using process environment")
	}

	// Stop between pages on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := cli.NewRootCommand(cfg).ExecuteContext(ctx)
	if err != nil {
		log.Error().Err(err).Msg("repage failed")
	}

	if cfg.MetricsTextfile != "" {
		if werr := metrics.WriteTextfile(cfg.MetricsTextfile); werr != nil {
			log.Warn().Err(werr).Str("path", cfg.MetricsTextfile).Msg("could not write metrics textfile")
		}
	}
	return cli.GetExitCode(err)
}
