package main

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/c360/semledger/config"
)

// CLIConfig holds command-line configuration.
type CLIConfig struct {
	ConfigPath  string
	InputPath   string
	OutputDir   string
	MaxRows     int
	LogLevel    string
	LogFormat   string
	MetricsPort int
	Validate    bool

	ShowVersion bool
	ShowHelp    bool
}

func parseFlags() *CLIConfig {
	cfg := &CLIConfig{}

	flag.StringVarP(&cfg.ConfigPath, "config", "c",
		getEnv("SEMLEDGER_CONFIG", ""),
		"Path to configuration file (env: SEMLEDGER_CONFIG)")

	flag.StringVarP(&cfg.InputPath, "input", "i", "",
		"CSV file to process (overrides input.path)")

	flag.StringVarP(&cfg.OutputDir, "output", "o", "",
		"Ledger output directory (overrides output.dir)")

	flag.IntVar(&cfg.MaxRows, "max-rows", 0,
		"Stop after this many rows, 0 reads all (overrides input.max_rows)")

	flag.StringVar(&cfg.LogLevel, "log-level", "",
		"Log level: debug, info, warn, error (overrides logging.level)")

	flag.StringVar(&cfg.LogFormat, "log-format", "",
		"Log format: text, json (overrides logging.format)")

	flag.IntVar(&cfg.MetricsPort, "metrics-port", 0,
		"Serve Prometheus metrics on this port during the run, 0 disables")

	flag.BoolVar(&cfg.Validate, "validate", false,
		"Validate configuration and exit")

	flag.BoolVarP(&cfg.ShowVersion, "version", "v", false, "Show version information")
	flag.BoolVarP(&cfg.ShowHelp, "help", "h", false, "Show help information")

	flag.Usage = printDetailedHelp
	flag.Parse()

	return cfg
}

// applyFlagOverrides lets explicit flags win over file and environment
// values.
func applyFlagOverrides(cfg *config.Config, cli *CLIConfig) {
	if cli.InputPath != "" {
		cfg.Input.Path = cli.InputPath
	}
	if cli.OutputDir != "" {
		cfg.Output.Dir = cli.OutputDir
	}
	if flag.CommandLine.Changed("max-rows") {
		cfg.Input.MaxRows = cli.MaxRows
	}
	if cli.LogLevel != "" {
		cfg.Logging.Level = cli.LogLevel
	}
	if cli.LogFormat != "" {
		cfg.Logging.Format = cli.LogFormat
	}
}

func printDetailedHelp() {
	_, _ = fmt.Fprintf(os.Stderr, `%s - award entity ledger builder

Reads an award CSV extract, builds deduplicated agency, contract,
recipient and transaction stores with their relationship graphs, and
writes one ledger file per store.

Usage: %s [options]

Options:
`, appName, os.Args[0])
	flag.PrintDefaults()
	_, _ = fmt.Fprintf(os.Stderr, `
Examples:
  # Process an extract with default settings
  %s --input data/fy2024_awards.csv

  # Layered configuration with an output override
  %s --config configs/prod.yaml --output /var/ledger

  # Validate configuration and exit
  %s --config configs/prod.yaml --validate

Version: %s
Build: %s
`, os.Args[0], os.Args[0], os.Args[0], Version, BuildTime)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
