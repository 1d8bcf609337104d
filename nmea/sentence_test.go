package nmea

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flegmaatikko/purais/errors"
)

const (
	singleFragment = "!AIVDM,1,1,,B,177KQJ5000G?tO`K>RA1wUbN0TKH,0*5C"
	fragmentOneOf2 = "!AIVDM,2,1,3,B,55P5TL01VIaAL@7WKO@mBplU@<PDhh000000001S;AJ::4A80?4i@E53,0*3E"
	fragmentTwoOf2 = "!AIVDM,2,2,3,B,1@0000000000000,2*55"
	gpsSentence    = "$GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,*47"
)

func TestParseSingleFragment(t *testing.T) {
	s, err := Parse(singleFragment + "\r\n")
	require.NoError(t, err)
	require.NotNil(t, s)

	assert.Equal(t, 1, s.TotalFragments)
	assert.Equal(t, 1, s.FragmentIndex)
	assert.Equal(t, "", s.SequenceID)
	assert.Equal(t, "B", s.Channel)
	assert.Equal(t, "177KQJ5000G?tO`K>RA1wUbN0TKH", s.Payload)
	assert.Equal(t, 0, s.FillBits)
	assert.True(t, s.Last())
}

func TestParseMultipartFragment(t *testing.T) {
	s, err := Parse(fragmentOneOf2)
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, 2, s.TotalFragments)
	assert.Equal(t, 1, s.FragmentIndex)
	assert.Equal(t, "3", s.SequenceID)
	assert.False(t, s.Last())

	s, err = Parse(fragmentTwoOf2)
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, 2, s.FillBits)
	assert.True(t, s.Last())
}

func TestParseTamperedChecksum(t *testing.T) {
	tampered := singleFragment[:len(singleFragment)-2] + "00"
	s, err := Parse(tampered)
	assert.Nil(t, s)
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
	assert.ErrorIs(t, err, errors.ErrChecksumFailed)
}

func TestParseNonAIVDMIsSkipped(t *testing.T) {
	// A valid sentence from another talker is not an error.
	s, err := Parse(gpsSentence)
	assert.Nil(t, s)
	assert.NoError(t, err)
}

func TestParseMalformed(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"empty line", ""},
		{"no delimiter", "AIVDM,1,1,,B,177KQJ5000G?tO`K>RA1wUbN0TKH,0*10"},
		{"no checksum token", "!AIVDM,1,1,,B,177KQJ5000G?tO`K>RA1wUbN0TKH,0"},
		{"wrong field count", "!AIVDM,1,1,,B,0*09"},
		{"bad fragment count", "!AIVDM,x,1,,B,177KQJ5000G?tO`K>RA1wUbN0TKH,0*15"},
		{"index above total", "!AIVDM,1,2,,B,177KQJ5000G?tO`K>RA1wUbN0TKH,0*5F"},
		{"bad fill bits", "!AIVDM,1,1,,B,177KQJ5000G?tO`K>RA1wUbN0TKH,9*55"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Parse(tt.line)
			assert.Nil(t, s)
			require.Error(t, err)
			assert.True(t, errors.IsInvalid(err))
		})
	}
}

func TestChecksum(t *testing.T) {
	assert.Equal(t, "5C", Checksum("AIVDM,1,1,,B,177KQJ5000G?tO`K>RA1wUbN0TKH,0"))
	assert.Equal(t, "00", Checksum(""))
}
