package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flegmaatikko/purais/errors"
)

func TestDefaultRunsBare(t *testing.T) {
	// Out of the box: raw echo from stdin, no station required.
	cfg := Default()
	assert.Equal(t, FormatRaw, cfg.Format)
	assert.Equal(t, "-", cfg.Input)
	assert.NoError(t, cfg.Validate())
}

func TestJSONAISRequiresStation(t *testing.T) {
	cfg := Default()
	cfg.Format = FormatJSONAIS
	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, errors.IsFatal(err))
	assert.Contains(t, err.Error(), "station")

	cfg.Station = "rrkari"
	assert.NoError(t, cfg.Validate())
}

func TestRawAndJSONNeedNoStation(t *testing.T) {
	for _, format := range []string{FormatRaw, FormatJSON} {
		cfg := Default()
		cfg.Format = format
		assert.NoError(t, cfg.Validate(), format)
	}
}

func TestUnknownFormatRejected(t *testing.T) {
	cfg := Default()
	cfg.Format = "xml"
	assert.Error(t, cfg.Validate())
}

func TestChannelMustBeAOrB(t *testing.T) {
	cfg := Default()
	cfg.Station = "rrkari"

	for _, ch := range []string{"", "A", "B"} {
		cfg.Channel = ch
		assert.NoError(t, cfg.Validate(), "channel %q", ch)
	}

	cfg.Channel = "C"
	assert.Error(t, cfg.Validate())
}

func TestNATSRequiresSubject(t *testing.T) {
	cfg := Default()
	cfg.Station = "rrkari"
	cfg.NATSURL = "nats://localhost:4222"
	assert.Error(t, cfg.Validate())

	cfg.NATSSubject = "ais.batches"
	assert.NoError(t, cfg.Validate())
}

func TestValidationCollectsEveryProblem(t *testing.T) {
	cfg := Config{Format: "xml", Channel: "Q"}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "format")
	assert.Contains(t, err.Error(), "channel")
	assert.Contains(t, err.Error(), "input")
}

func TestHoldClamping(t *testing.T) {
	tests := []struct {
		name string
		secs int
		want time.Duration
	}{
		{"default", DefaultHoldSecs, 30 * time.Second},
		{"zero drains immediately", 0, 0},
		{"negative clamps to zero", -5, 0},
		{"cap", 900, 300 * time.Second},
		{"in range", 120, 2 * time.Minute},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{HoldSecs: tt.secs}
			assert.Equal(t, tt.want, cfg.Hold())
		})
	}
}
