// Package main implements the diaryd server binary.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/diaryd/internal/analyzer"
	"github.com/fyrsmithlabs/diaryd/internal/cache"
	"github.com/fyrsmithlabs/diaryd/internal/config"
	"github.com/fyrsmithlabs/diaryd/internal/heuristic"
	"github.com/fyrsmithlabs/diaryd/internal/history"
	"github.com/fyrsmithlabs/diaryd/internal/llm"
	"github.com/fyrsmithlabs/diaryd/internal/logging"
	"github.com/fyrsmithlabs/diaryd/internal/preprocess"
	"github.com/fyrsmithlabs/diaryd/internal/server"
)

// Version information, set at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

var configPath string

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "diaryd",
	Short: "Diary text analysis service",
	Long: `diaryd converts free-form diary entries into structured, scored
activities and achievements. It serves an HTTP API with a layered
extraction pipeline: keyword heuristics first, a language-model
fallback when the heuristics are not confident enough.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the analysis HTTP server",
	RunE:  runServe,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("diaryd %s (%s)\n", version, commit)
	},
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	logger.Info("starting diaryd",
		zap.String("version", version),
		zap.String("commit", commit),
	)

	cleanerCfg := preprocess.DefaultConfig()
	cleanerCfg.Enabled = cfg.Analyzer.RedactionEnabled
	cleaner, err := preprocess.New(cleanerCfg)
	if err != nil {
		return fmt.Errorf("failed to create cleaner: %w", err)
	}

	modelParser, err := llm.NewParser(cfg.LLM)
	if err != nil {
		return fmt.Errorf("failed to create model parser: %w", err)
	}
	logger.Info("model fallback configured",
		zap.Bool("enabled", modelParser.Available()),
		zap.String("model", cfg.LLM.Model),
	)

	historyStore, err := history.NewStore(cfg.History)
	if err != nil {
		return fmt.Errorf("failed to create history store: %w", err)
	}
	defer historyStore.Close() //nolint:errcheck

	cacheStore, err := cache.NewStore(cfg.Cache)
	if err != nil {
		return fmt.Errorf("failed to create cache store: %w", err)
	}
	defer cacheStore.Close() //nolint:errcheck

	a := analyzer.New(
		cfg.Analyzer,
		cleaner,
		heuristic.NewParser(),
		modelParser,
		historyStore,
		cacheStore,
		logger,
	)

	srv, err := server.New(a, logger, cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server stopped: %w", err)
	case sig := <-sigCh:
		logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration())
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown failed", zap.Error(err))
		return err
	}

	// Let deferred history writes land before the stores close.
	a.Flush()

	logger.Info("diaryd stopped")
	return nil
}
