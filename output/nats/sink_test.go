package nats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flegmaatikko/purais/errors"
)

func TestNewRequiresURLAndSubject(t *testing.T) {
	_, err := New(Config{Subject: "ais.batches"})
	require.Error(t, err)
	assert.True(t, errors.IsFatal(err))

	_, err = New(Config{URL: "nats://localhost:4222"})
	require.Error(t, err)
	assert.True(t, errors.IsFatal(err))
}

func TestNewUnreachableServerIsTransient(t *testing.T) {
	_, err := New(Config{URL: "nats://127.0.0.1:1", Subject: "ais.batches"})
	require.Error(t, err)
	assert.True(t, errors.IsTransient(err))
}

func TestWriteWithoutConnectionFails(t *testing.T) {
	s := &Sink{subject: "ais.batches"}
	_, err := s.Write([]byte(`{"protocol":"jsonais"}`))
	require.Error(t, err)
	assert.True(t, errors.IsTransient(err))
}

func TestCloseWithoutConnectionIsNoop(t *testing.T) {
	var s Sink
	assert.NoError(t, s.Close())
}
