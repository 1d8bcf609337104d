// Package pipeline drives the single-threaded line-processing loop.
//
// Each input line moves synchronously through validation, fragment
// reassembly, the windowed cache, and batch emission. All state is owned
// by the goroutine calling Run; the only suspension point is the blocking
// read of the next line. Windowing is cooperative: drains happen on line
// arrival, so a stalled input stream also stalls flushing.
package pipeline

import (
	"bufio"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/flegmaatikko/purais/config"
	"github.com/flegmaatikko/purais/emit"
	"github.com/flegmaatikko/purais/errors"
	"github.com/flegmaatikko/purais/nmea"
	"github.com/flegmaatikko/purais/pkg/cache"
)

// maxLineBytes bounds one input line. AIVDM sentences are 82 bytes by the
// standard; the margin absorbs feeds that tack on tag blocks or garbage.
const maxLineBytes = 64 * 1024

// Config assembles a Pipeline.
type Config struct {
	// Format is one of the config package format constants.
	Format string

	// Channel restricts processing to one AIS channel; empty accepts all.
	Channel string

	// Hold is the batching window. Zero drains on every line.
	Hold time.Duration

	// Emitter serializes drained batches. Required except in raw format.
	Emitter *emit.Emitter

	// Out receives echoed lines in raw format. Required for raw.
	Out io.Writer

	Logger *slog.Logger

	// Registry enables Prometheus metrics when non-nil.
	Registry prometheus.Registerer

	// Clock supplies receive timestamps in Unix milliseconds. Defaults to
	// the wall clock.
	Clock func() int64
}

// Pipeline owns the assembler, cache, and emitter for one input stream.
type Pipeline struct {
	format    string
	channel   string
	hold      time.Duration
	assembler *nmea.Assembler
	buffer    *cache.Windowed[nmea.Payload]
	emitter   *emit.Emitter
	out       io.Writer
	logger    *slog.Logger
	metrics   *runMetrics
}

// New builds a pipeline. Raw format needs an output writer; the batch
// formats need an emitter.
func New(cfg Config) (*Pipeline, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	p := &Pipeline{
		format:  cfg.Format,
		channel: cfg.Channel,
		hold:    cfg.Hold,
		out:     cfg.Out,
		emitter: cfg.Emitter,
		logger:  logger,
	}

	switch cfg.Format {
	case config.FormatRaw:
		if cfg.Out == nil {
			return nil, errors.WrapFatal(errors.ErrMissingConfig, "pipeline", "New", "raw format requires an output writer")
		}
	case config.FormatJSON, config.FormatJSONAIS:
		if cfg.Emitter == nil {
			return nil, errors.WrapFatal(errors.ErrMissingConfig, "pipeline", "New", "batch formats require an emitter")
		}
	default:
		return nil, errors.WrapFatal(errors.ErrInvalidConfig, "pipeline", "New",
			fmt.Sprintf("unknown format %q", cfg.Format))
	}

	if cfg.Clock != nil {
		p.assembler = nmea.NewAssemblerWithClock(cfg.Clock)
	} else {
		p.assembler = nmea.NewAssembler()
	}

	if cfg.Format != config.FormatRaw {
		var options []cache.Option[nmea.Payload]
		if cfg.Registry != nil {
			options = append(options, cache.WithMetrics[nmea.Payload](cfg.Registry, "pipeline"))
		}
		if cfg.Clock != nil {
			options = append(options, cache.WithClock[nmea.Payload](cfg.Clock))
		}
		buffer, err := cache.NewForHold[nmea.Payload](cfg.Hold, options...)
		if err != nil {
			return nil, err
		}
		p.buffer = buffer
	}

	if cfg.Registry != nil {
		metrics, err := newRunMetrics(cfg.Registry)
		if err != nil {
			return nil, errors.WrapFatal(err, "pipeline", "New", "register metrics")
		}
		p.metrics = metrics
	}

	return p, nil
}

// Run processes r line by line until end of input, a fatal write error, or
// context cancellation. Per-line validation failures and per-payload
// decode failures are recovered locally; the stream degrades by omission.
func (p *Pipeline) Run(ctx context.Context, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxLineBytes)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return errors.WrapTransient(err, "pipeline", "Run", "canceled")
		}
		if err := p.processLine(scanner.Text()); err != nil {
			return err
		}
		// The window is checked on every line, whatever the line held:
		// invalid or off-protocol input still advances time.
		if p.buffer != nil {
			if err := p.drain(); err != nil {
				return err
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return errors.WrapFatal(err, "pipeline", "Run", "read input")
	}
	return nil
}

// processLine advances the pipeline by one input line.
func (p *Pipeline) processLine(line string) error {
	// Some receivers pad serial output with NUL bytes.
	line = strings.TrimSpace(strings.ReplaceAll(line, "\x00", ""))
	if line == "" {
		return nil
	}
	if p.metrics != nil {
		p.metrics.lines.Inc()
	}

	sentence, err := nmea.Parse(line)
	if err != nil {
		if p.metrics != nil {
			if stderrors.Is(err, errors.ErrChecksumFailed) {
				p.metrics.checksumFailures.Inc()
			} else {
				p.metrics.malformed.Inc()
			}
		}
		p.logger.Debug("sentence rejected", "line", line, "error", err)
		p.assembler.Reset()
		return nil
	}
	if sentence == nil {
		if p.metrics != nil {
			p.metrics.skipped.Inc()
		}
		return nil
	}

	if p.channel != "" && sentence.Channel != p.channel {
		if p.metrics != nil {
			p.metrics.channelFiltered.Inc()
		}
		return nil
	}

	if p.format == config.FormatRaw {
		if _, err := fmt.Fprintln(p.out, sentence.Raw); err != nil {
			return errors.WrapFatal(err, "pipeline", "processLine", "echo sentence")
		}
		return nil
	}

	if payload := p.assembler.Append(sentence); payload != nil {
		p.buffer.Insert(payload.RxTime, *payload)
		if p.metrics != nil {
			p.metrics.payloads.Inc()
		}
	}
	return nil
}

// drain releases the window when it is due and emits one batch.
func (p *Pipeline) drain() error {
	due := p.buffer.DrainDue(p.hold)
	if len(due) == 0 {
		return nil
	}

	n, err := p.emitter.Emit(due)
	if err != nil {
		return err
	}
	if n > 0 && p.metrics != nil {
		p.metrics.records.Add(float64(n))
		p.metrics.batches.Inc()
	}
	return nil
}
