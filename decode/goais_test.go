package decode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Payload fixtures below are hand-armored from the ITU-R M.1371 bit
// layouts so each message class hits its own branch of the adapter.

func TestDecodeLongRangeBroadcast(t *testing.T) {
	// Type 27: mmsi 230123250, position 24.5E 60.25N, sog 10, cog 90,
	// latency bit clear (current GNSS position).
	c := NewCodec()
	fields, err := c.Decode("K3KMVtP0qK4JK55`", 0)
	require.NoError(t, err)

	id, ok := fields.Int("id")
	require.True(t, ok)
	assert.Equal(t, 27, id)

	mmsi, ok := fields.Int("mmsi")
	require.True(t, ok)
	assert.Equal(t, 230123250, mmsi)

	x, ok := fields.Float("x")
	require.True(t, ok)
	assert.InDelta(t, 24.5, x, 0.01)

	y, ok := fields.Float("y")
	require.True(t, ok)
	assert.InDelta(t, 60.25, y, 0.01)

	sog, ok := fields.Float("sog")
	require.True(t, ok)
	assert.InDelta(t, 10.0, sog, 0.01)

	gnss, ok := fields.Bool("gnss")
	require.True(t, ok)
	assert.True(t, gnss, "a clear latency bit means a current position")
}

func TestDecodeAddressedBinaryPersonCount(t *testing.T) {
	// Type 6, dac 1, fi 40: 133 persons on board.
	c := NewCodec()
	fields, err := c.Decode("63KMVtQ1kK@006P4:", 1)
	require.NoError(t, err)

	id, ok := fields.Int("id")
	require.True(t, ok)
	assert.Equal(t, 6, id)

	dac, ok := fields.Int("dac")
	require.True(t, ok)
	assert.Equal(t, 1, dac)

	fi, ok := fields.Int("fi")
	require.True(t, ok)
	assert.Equal(t, 40, fi)

	persons, ok := fields.Int("persons")
	require.True(t, ok)
	assert.Equal(t, 133, persons)
}

func TestDecodeInlandPersonCounts(t *testing.T) {
	// Type 8, dac 200, fi 55: crew 5, passengers 120, personnel 2.
	c := NewCodec()
	fields, err := c.Decode("83KMVtPj=hD3h10", 5)
	require.NoError(t, err)

	id, ok := fields.Int("id")
	require.True(t, ok)
	assert.Equal(t, 8, id)

	crew, ok := fields.Int("crew")
	require.True(t, ok)
	assert.Equal(t, 5, crew)

	passengers, ok := fields.Int("passengers")
	require.True(t, ok)
	assert.Equal(t, 120, passengers)

	personnel, ok := fields.Int("yet_more_personnel")
	require.True(t, ok)
	assert.Equal(t, 2, personnel)
}
