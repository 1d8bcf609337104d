// Package config defines and validates the runtime configuration.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/flegmaatikko/purais/errors"
)

// Output formats.
const (
	FormatRaw     = "raw"
	FormatJSON    = "json"
	FormatJSONAIS = "jsonais"
)

// Hold window limits in seconds. Requested values outside the range are
// clamped, not rejected.
const (
	DefaultHoldSecs = 30
	MaxHoldSecs     = 300
)

// Config is the full runtime configuration of the pipeline.
type Config struct {
	// Input is the sentence source: a file path, or "-" for stdin.
	Input string

	// Format selects the output rendering: raw, json, or jsonais.
	Format string

	// Channel restricts processing to one AIS channel ("A" or "B").
	// Empty accepts every channel.
	Channel string

	// Station identifies the receiving station in jsonais envelopes.
	Station string

	// Predicates are record filter specs, "field,op,value[,value...]".
	Predicates []string

	// Latest keeps only the newest record per vessel and message shape
	// within each batch.
	Latest bool

	// HoldSecs is the batching window in seconds. Values above MaxHoldSecs
	// clamp down, values at or below zero clamp to zero (immediate drain).
	HoldSecs int

	// Debug enables per-sentence diagnostics.
	Debug bool

	// NATSURL, when set, publishes each batch to NATSSubject as well as
	// the primary writer.
	NATSURL     string
	NATSSubject string

	// MetricsAddr exposes Prometheus metrics over HTTP when non-empty,
	// e.g. ":9100".
	MetricsAddr string
}

// Default returns the configuration used when no flags are given: raw
// sentences from stdin, so the tool runs out of the box without a
// station name.
func Default() Config {
	return Config{
		Input:    "-",
		Format:   FormatRaw,
		HoldSecs: DefaultHoldSecs,
	}
}

// Hold returns the clamped batching window.
func (c Config) Hold() time.Duration {
	secs := c.HoldSecs
	if secs < 0 {
		secs = 0
	}
	if secs > MaxHoldSecs {
		secs = MaxHoldSecs
	}
	return time.Duration(secs) * time.Second
}

// Validate checks the configuration for contradictions. It collects every
// failure rather than stopping at the first.
func (c Config) Validate() error {
	var problems []string

	switch c.Format {
	case FormatRaw, FormatJSON, FormatJSONAIS:
	case "":
		problems = append(problems, "format is required")
	default:
		problems = append(problems, fmt.Sprintf("unknown format %q", c.Format))
	}

	if c.Format == FormatJSONAIS && c.Station == "" {
		problems = append(problems, "jsonais output requires a station name")
	}

	if c.Channel != "" && c.Channel != "A" && c.Channel != "B" {
		problems = append(problems, fmt.Sprintf("unknown channel %q, expected A or B", c.Channel))
	}

	if c.Input == "" {
		problems = append(problems, "input is required, use - for stdin")
	}

	if c.NATSURL != "" && c.NATSSubject == "" {
		problems = append(problems, "nats publishing requires a subject")
	}

	if len(problems) > 0 {
		return errors.WrapFatal(errors.ErrInvalidConfig, "config", "Validate",
			strings.Join(problems, "; "))
	}
	return nil
}
