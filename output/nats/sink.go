// Package nats publishes emitted batches to a NATS subject.
//
// The sink implements io.Writer so it can sit behind an io.MultiWriter
// next to the primary output stream. Each Write publishes one batch
// message tagged with a unique batch id header; transient publish
// failures are retried with backoff before the batch is given up on.
package nats

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/flegmaatikko/purais/errors"
	"github.com/flegmaatikko/purais/pkg/retry"
)

// BatchIDHeader carries the unique id assigned to each published batch.
const BatchIDHeader = "Batch-Id"

// Config assembles a Sink.
type Config struct {
	URL     string
	Subject string

	// Name identifies the connection to the server; defaults to "purais".
	Name string

	// ConnectTimeout bounds the initial connection attempt.
	ConnectTimeout time.Duration

	// Retry governs publish retries. Zero value uses retry.DefaultConfig.
	Retry retry.Config

	Logger *slog.Logger
}

// Sink is a publish-only NATS writer.
type Sink struct {
	conn    *nats.Conn
	subject string
	retry   retry.Config
	logger  *slog.Logger
}

// New connects to the server and returns a ready sink.
func New(cfg Config) (*Sink, error) {
	if cfg.URL == "" || cfg.Subject == "" {
		return nil, errors.WrapFatal(errors.ErrMissingConfig, "nats", "New", "url and subject required")
	}

	name := cfg.Name
	if name == "" {
		name = "purais"
	}
	timeout := cfg.ConnectTimeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	retryCfg := cfg.Retry
	if retryCfg.MaxAttempts == 0 {
		retryCfg = retry.DefaultConfig()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	conn, err := nats.Connect(cfg.URL,
		nats.Name(name),
		nats.Timeout(timeout),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, errors.WrapTransient(err, "nats", "New", "connect "+cfg.URL)
	}

	return &Sink{
		conn:    conn,
		subject: cfg.Subject,
		retry:   retryCfg,
		logger:  logger,
	}, nil
}

// Write publishes one batch. The payload is copied before publishing, so
// callers may reuse the buffer. Satisfies io.Writer.
func (s *Sink) Write(p []byte) (int, error) {
	if s.conn == nil || s.conn.IsClosed() {
		return 0, errors.WrapTransient(errors.ErrNoConnection, "nats", "Write", "connection closed")
	}

	msg := nats.NewMsg(s.subject)
	msg.Data = append([]byte(nil), p...)
	msg.Header.Set(BatchIDHeader, uuid.NewString())

	err := retry.Do(context.Background(), s.retry, func() error {
		if err := s.conn.PublishMsg(msg); err != nil {
			return errors.WrapTransient(err, "nats", "Write", "publish "+s.subject)
		}
		return nil
	})
	if err != nil {
		return 0, errors.WrapTransient(err, "nats", "Write", "batch dropped after retries")
	}
	return len(p), nil
}

// Close flushes pending publishes and drains the connection.
func (s *Sink) Close() error {
	if s.conn == nil {
		return nil
	}
	if err := s.conn.Flush(); err != nil {
		s.logger.Warn("nats flush failed", "error", err)
	}
	if err := s.conn.Drain(); err != nil {
		return errors.WrapTransient(err, "nats", "Close", "drain")
	}
	return nil
}
