package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/flegmaatikko/purais/config"
)

// CLIConfig holds command-line configuration.
type CLIConfig struct {
	Config      config.Config
	LogLevel    string
	LogFormat   string
	ShowVersion bool
	ShowHelp    bool
}

// repeatableFlag collects every occurrence of a repeatable flag.
type repeatableFlag []string

func (r *repeatableFlag) String() string { return strings.Join(*r, " ") }

func (r *repeatableFlag) Set(value string) error {
	*r = append(*r, value)
	return nil
}

func parseFlags() *CLIConfig {
	cli := &CLIConfig{Config: config.Default()}
	cfg := &cli.Config

	// Define flags with environment variable fallback
	flag.StringVar(&cfg.Input, "input",
		getEnv("PURAIS_INPUT", cfg.Input),
		"Sentence source: file path or - for stdin (env: PURAIS_INPUT)")

	flag.StringVar(&cfg.Input, "i",
		getEnv("PURAIS_INPUT", cfg.Input),
		"Sentence source: file path or - for stdin (env: PURAIS_INPUT)")

	flag.StringVar(&cfg.Format, "format",
		getEnv("PURAIS_FORMAT", cfg.Format),
		"Output format: raw, json, jsonais (env: PURAIS_FORMAT)")

	flag.StringVar(&cfg.Channel, "channel",
		getEnv("PURAIS_CHANNEL", ""),
		"Restrict processing to one AIS channel, A or B (env: PURAIS_CHANNEL)")

	flag.StringVar(&cfg.Station, "station",
		getEnv("PURAIS_STATION", ""),
		"Station name for jsonais envelopes (env: PURAIS_STATION)")

	var predicates repeatableFlag
	flag.Var(&predicates, "filter",
		"Record filter \"field,op,value[,value...]\"; repeatable, all must match")

	flag.BoolVar(&cfg.Latest, "latest",
		getEnvBool("PURAIS_LATEST", false),
		"Keep only the newest record per vessel and message shape in each batch (env: PURAIS_LATEST)")

	flag.IntVar(&cfg.HoldSecs, "hold-secs",
		getEnvInt("PURAIS_HOLD_SECS", cfg.HoldSecs),
		"Batching window in seconds, clamped to [0,300] (env: PURAIS_HOLD_SECS)")

	flag.BoolVar(&cfg.Debug, "debug",
		getEnvBool("PURAIS_DEBUG", false),
		"Enable per-sentence diagnostics (env: PURAIS_DEBUG)")

	flag.StringVar(&cfg.NATSURL, "nats-url",
		getEnv("PURAIS_NATS_URL", ""),
		"Publish batches to this NATS server as well (env: PURAIS_NATS_URL)")

	flag.StringVar(&cfg.NATSSubject, "nats-subject",
		getEnv("PURAIS_NATS_SUBJECT", ""),
		"Subject for published batches (env: PURAIS_NATS_SUBJECT)")

	flag.StringVar(&cfg.MetricsAddr, "metrics-addr",
		getEnv("PURAIS_METRICS_ADDR", ""),
		"Expose Prometheus metrics on this address, empty disables (env: PURAIS_METRICS_ADDR)")

	flag.StringVar(&cli.LogLevel, "log-level",
		getEnv("PURAIS_LOG_LEVEL", "info"),
		"Log level: debug, info, warn, error (env: PURAIS_LOG_LEVEL)")

	flag.StringVar(&cli.LogFormat, "log-format",
		getEnv("PURAIS_LOG_FORMAT", "text"),
		"Log format: json, text (env: PURAIS_LOG_FORMAT)")

	flag.BoolVar(&cli.ShowVersion, "version", false, "Show version information")
	flag.BoolVar(&cli.ShowVersion, "v", false, "Show version information")
	flag.BoolVar(&cli.ShowHelp, "help", false, "Show help information")
	flag.BoolVar(&cli.ShowHelp, "h", false, "Show help information")

	flag.Usage = printDetailedHelp

	flag.Parse()

	cfg.Predicates = predicates

	// Override log level if debug is set
	if cfg.Debug {
		cli.LogLevel = "debug"
	}

	return cli
}

func validateFlags(cli *CLIConfig) error {
	// Skip validation for special flags
	if cli.ShowVersion || cli.ShowHelp {
		return nil
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLevels, cli.LogLevel) {
		return fmt.Errorf("invalid log level: %s", cli.LogLevel)
	}

	validFormats := []string{"json", "text"}
	if !contains(validFormats, cli.LogFormat) {
		return fmt.Errorf("invalid log format: %s", cli.LogFormat)
	}

	return cli.Config.Validate()
}

func printDetailedHelp() {
	_, _ = fmt.Fprintf(os.Stderr, `%s - AIS AIVDM stream batcher

Usage: %s [options]

Options:
`, appName, os.Args[0])
	flag.PrintDefaults()
	_, _ = fmt.Fprintf(os.Stderr, `
Examples:
  # Batch a live feed from stdin into jsonais envelopes
  nc ais-receiver 4001 | %s --format=jsonais --station=rrkari

  # Echo channel A sentences from a capture file
  %s --input=capture.nmea --format=raw --channel=A

  # Keep only fast movers, newest record per vessel
  %s --station=rrkari --filter=speed,gt,5 --latest

  # Publish batches to NATS as well
  %s --station=rrkari --nats-url=nats://localhost:4222 --nats-subject=ais.batches

Version: %s
Build: %s
`, os.Args[0], os.Args[0], os.Args[0], os.Args[0], Version, BuildTime)
}

// Environment variable helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// Utility function to check if slice contains string
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
