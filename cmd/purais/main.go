// Package main implements the entry point for purais, an AIS AIVDM
// stream batcher: it validates NMEA sentences, reassembles multi-fragment
// payloads, buffers them in a bounded window, and emits filtered,
// deduplicated JSON batches.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/flegmaatikko/purais/config"
	"github.com/flegmaatikko/purais/decode"
	"github.com/flegmaatikko/purais/emit"
	"github.com/flegmaatikko/purais/errors"
	"github.com/flegmaatikko/purais/filter"
	"github.com/flegmaatikko/purais/normalize"
	natsout "github.com/flegmaatikko/purais/output/nats"
	"github.com/flegmaatikko/purais/pipeline"
)

// Build information constants
const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "purais"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(); err != nil {
		slog.Error("Run failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cli := parseFlags()
	if err := validateFlags(cli); err != nil {
		return err
	}

	if cli.ShowVersion {
		fmt.Printf("%s version %s\n", appName, Version)
		return nil
	}
	if cli.ShowHelp {
		printDetailedHelp()
		return nil
	}

	logger := setupLogger(cli.LogLevel, cli.LogFormat)
	slog.SetDefault(logger)

	cfg := cli.Config
	logger.Info("Starting purais",
		"version", Version,
		"build_time", BuildTime,
		"input", cfg.Input,
		"format", cfg.Format,
		"hold", cfg.Hold())

	input, closeInput, err := openInput(cfg.Input)
	if err != nil {
		return err
	}
	defer closeInput()

	registry := setupMetrics(cfg, logger)

	out, closeSink, err := setupOutput(cfg, logger)
	if err != nil {
		return err
	}
	defer closeSink()

	p, err := buildPipeline(cfg, out, registry, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := p.Run(ctx, input); err != nil {
		return err
	}
	logger.Info("End of input, shutting down")
	return nil
}

// openInput resolves the sentence source: "-" is stdin, anything else
// must name a regular file.
func openInput(path string) (io.Reader, func(), error) {
	if path == "-" {
		return os.Stdin, func() {}, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, nil, errors.WrapFatal(err, "main", "openInput", path)
	}
	if !info.Mode().IsRegular() {
		return nil, nil, errors.WrapFatal(errors.ErrInvalidConfig, "main", "openInput",
			path+" is not a regular file")
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.WrapFatal(err, "main", "openInput", path)
	}
	return f, func() { _ = f.Close() }, nil
}

// setupMetrics starts the Prometheus endpoint when configured and returns
// the registry the pipeline should register with, nil when disabled.
func setupMetrics(cfg config.Config, logger *slog.Logger) prometheus.Registerer {
	if cfg.MetricsAddr == "" {
		return nil
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	server := &http.Server{
		Addr:              cfg.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("Metrics endpoint listening", "addr", cfg.MetricsAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Warn("Metrics endpoint failed", "error", err)
		}
	}()

	return registry
}

// setupOutput builds the batch destination: stdout, optionally teed into
// a NATS sink.
func setupOutput(cfg config.Config, logger *slog.Logger) (io.Writer, func(), error) {
	if cfg.NATSURL == "" || cfg.Format == config.FormatRaw {
		return os.Stdout, func() {}, nil
	}

	sink, err := natsout.New(natsout.Config{
		URL:     cfg.NATSURL,
		Subject: cfg.NATSSubject,
		Name:    appName,
		Logger:  logger.With("component", "nats"),
	})
	if err != nil {
		return nil, nil, err
	}

	closeSink := func() {
		if err := sink.Close(); err != nil {
			logger.Warn("NATS sink close failed", "error", err)
		}
	}
	return io.MultiWriter(os.Stdout, sink), closeSink, nil
}

// buildPipeline wires the decoder, normalizer, filter, emitter, and loop.
func buildPipeline(cfg config.Config, out io.Writer, registry prometheus.Registerer, logger *slog.Logger) (*pipeline.Pipeline, error) {
	pipeCfg := pipeline.Config{
		Format:   cfg.Format,
		Channel:  cfg.Channel,
		Hold:     cfg.Hold(),
		Out:      out,
		Logger:   logger.With("component", "pipeline"),
		Registry: registry,
	}

	if cfg.Format != config.FormatRaw {
		emitter, err := emit.New(emit.Config{
			Format:     emit.Format(cfg.Format),
			Station:    cfg.Station,
			Latest:     cfg.Latest,
			Decoder:    decode.NewCodec(),
			Normalizer: normalize.New(),
			Predicates: filter.Parse(cfg.Predicates),
			Out:        out,
			Logger:     logger.With("component", "emit"),
		})
		if err != nil {
			return nil, err
		}
		pipeCfg.Emitter = emitter
	}

	return pipeline.New(pipeCfg)
}
