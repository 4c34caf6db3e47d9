// Package main implements the semledger command line entry point.
// Semledger reads an award CSV extract, builds deduplicated entity
// stores with their relationship graphs, writes one ledger file per
// store and optionally publishes the entities to NATS JetStream.
package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/c360/semledger/award"
	"github.com/c360/semledger/config"
	"github.com/c360/semledger/metric"
)

// Build information constants
const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "semledger"
)

// progressInterval is the row count between progress log lines.
const progressInterval = 100000

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(); err != nil {
		slog.Error("Ledger build failed", "error", err, "exit_code", 1)
		os.Exit(1)
	}
}

func run() error {
	cliCfg := parseFlags()

	if cliCfg.ShowVersion {
		fmt.Printf("%s version %s\n", appName, Version)
		return nil
	}
	if cliCfg.ShowHelp {
		printDetailedHelp()
		return nil
	}

	cfg, err := loadConfig(cliCfg)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyFlagOverrides(cfg, cliCfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := setupLogger(cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(logger)

	if cliCfg.Validate {
		logger.Info("Configuration is valid", "config", cliCfg.ConfigPath)
		return nil
	}

	if cfg.Input.Path == "" {
		return fmt.Errorf("no input file: set --input or input.path")
	}

	logger.Info("Starting ledger build",
		"version", Version,
		"input", cfg.Input.Path,
		"output", cfg.Output.Dir,
		"max_rows", cfg.Input.MaxRows,
		"publish", cfg.Publish.Enabled)

	registry := metric.NewMetricsRegistry()
	if cliCfg.MetricsPort > 0 {
		stopMetrics := serveMetrics(cliCfg.MetricsPort, registry, logger)
		defer stopMetrics()
	}
	registry.CoreMetrics().RecordServiceStatus(appName, 2)
	defer registry.CoreMetrics().RecordServiceStatus(appName, 0)

	proc, err := award.NewProcessor(processorConfig(cfg), award.Deps{
		Logger:   logger,
		Registry: registry,
	})
	if err != nil {
		return fmt.Errorf("build processor: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	rows, malformed, err := processRows(ctx, cfg, proc, logger)
	if err != nil {
		return err
	}

	saveCtx := ctx
	interrupted := ctx.Err() != nil
	if interrupted {
		// Restore default signal handling so a second signal kills the
		// process instead of waiting out the save.
		stop()
		logger.Warn("Interrupted, saving partial ledger", "rows", rows)
		saveCtx = context.Background()
	}

	results, err := proc.SaveAll(saveCtx)
	for name, res := range results {
		logger.Info("Saved ledger",
			"store", name,
			"path", res.Path,
			"entities", res.EntityCount,
			"partitioned", res.Partitioned,
			"estimated_size", res.EstimatedSize)
	}
	if err != nil {
		return fmt.Errorf("save ledger: %w", err)
	}

	logStats(proc, logger)
	logger.Info("Ledger build complete",
		"rows", rows,
		"malformed_rows", malformed,
		"elapsed", time.Since(start).Round(time.Millisecond))

	if cfg.Publish.Enabled && !interrupted {
		if err := publishEntities(ctx, cfg, proc, registry, logger); err != nil {
			return fmt.Errorf("publish entities: %w", err)
		}
	}

	return nil
}

// serveMetrics exposes the registry over HTTP for the duration of the
// run. Useful when watching a long build from Prometheus or curl.
func serveMetrics(port int, registry *metric.MetricsRegistry, logger *slog.Logger) func() {
	srv := metric.NewServer(port, "", registry)
	logger.Info("Serving metrics", "address", srv.Address())

	go func() {
		if err := srv.Start(); err != nil {
			logger.Warn("Metrics server failed", "error", err)
		}
	}()

	return func() { _ = srv.Stop() }
}

// loadConfig assembles configuration from the optional file layer plus
// environment overrides. Semantic validation runs after flag overrides
// apply, so the loader's own validation stays off.
func loadConfig(cli *CLIConfig) (*config.Config, error) {
	loader := config.NewLoader()
	if cli.ConfigPath != "" {
		loader.AddLayer(cli.ConfigPath)
	}
	return loader.Load()
}

// processorConfig carries the run configuration into the award stores.
func processorConfig(cfg *config.Config) award.ProcessorConfig {
	return award.ProcessorConfig{
		OutputDir:   cfg.Output.Dir,
		Persist:     cfg.Output.Persist,
		Agency:      award.AgencyConfig{LevelMappings: cfg.Mappings.Agency},
		Contract:    award.ContractConfig{Mappings: cfg.Mappings.Contract},
		Recipient:   award.RecipientConfig{Mappings: cfg.Mappings.Recipient},
		Transaction: award.TransactionConfig{Mappings: cfg.Mappings.Transaction},
	}
}

// processRows streams the input file through the processor until EOF,
// the row cap or a shutdown signal. Malformed CSV rows are counted and
// skipped; I/O errors abort.
func processRows(
	ctx context.Context,
	cfg *config.Config,
	proc *award.Processor,
	logger *slog.Logger,
) (rows, malformed int, err error) {
	src, err := openRowSource(cfg.Input.Path, cfg.Input.Delimiter, cfg.Input.MaxRows)
	if err != nil {
		return 0, 0, err
	}
	defer func() { _ = src.Close() }()

	logger.Info("Reading rows", "path", cfg.Input.Path, "columns", len(src.header))

	for ctx.Err() == nil {
		row, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			malformed++
			logger.Warn("Skipping malformed row",
				"line", parseErr.Line, "error", parseErr.Err)
			continue
		}
		if err != nil {
			return src.Rows(), malformed, fmt.Errorf("read row %d: %w", src.Rows()+1, err)
		}

		proc.Process(row)

		if src.Rows()%progressInterval == 0 {
			logger.Info("Progress", "rows", src.Rows())
		}
	}

	return src.Rows(), malformed, nil
}

// logStats reports the per-store outcome counters.
func logStats(proc *award.Processor, logger *slog.Logger) {
	for name, st := range proc.Stats() {
		logger.Info("Store complete",
			"store", name,
			"references", st.Total,
			"unique", st.Unique,
			"skipped", st.SkippedTotal(),
			"relationships", st.RelationshipTotal(),
			"natural_keys", st.NaturalKeys,
			"hash_keys", st.HashKeys)
	}
}
