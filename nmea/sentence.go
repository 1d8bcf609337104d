// Package nmea provides validation and multi-fragment reassembly of
// NMEA 0183 AIVDM sentences carrying AIS payloads.
//
// One input line is validated into a Sentence by Parse; one or more
// Sentences that together form a logical AIS payload are accumulated by
// Assembler into a Payload. Checksum failures and field-shape anomalies
// reset the in-flight fragment group so a corrupt fragment can never merge
// into a later, unrelated message.
package nmea

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/flegmaatikko/purais/errors"
)

// Tag is the sentence tag for received AIS broadcasts.
const Tag = "!AIVDM"

// fieldCount is the exact comma-separated field count of an AIVDM sentence.
const fieldCount = 7

// Sentence is one validated AIVDM line.
type Sentence struct {
	Raw            string // original line without trailing CR/LF
	TotalFragments int    // total fragments in this sequence
	FragmentIndex  int    // 1-based index of this fragment
	SequenceID     string // sequential message id, may be empty
	Channel        string // radio channel, "A" or "B" in practice
	Payload        string // six-bit encoded payload field
	FillBits       int    // padding bit count, 0-5
}

// Last reports whether this sentence is the final fragment of its group.
func (s *Sentence) Last() bool {
	return s.FragmentIndex == s.TotalFragments
}

// Checksum computes the NMEA checksum over s: the XOR of all bytes.
// The caller passes the span between the leading '!' or '$' (exclusive)
// and the '*' (exclusive).
func Checksum(s string) string {
	var sum byte
	for i := 0; i < len(s); i++ {
		sum ^= s[i]
	}
	return fmt.Sprintf("%02X", sum)
}

// Parse validates one raw input line and splits it into a Sentence.
//
// Lines that are not AIVDM sentences are not part of this protocol's
// stream: Parse returns (nil, nil) and the caller skips them without
// resetting the fragment group. A failed checksum or a wrong field shape
// returns an error; either one must reset the in-flight group.
func Parse(line string) (*Sentence, error) {
	line = strings.TrimRight(line, "\r\n")

	if err := verifyChecksum(line); err != nil {
		return nil, err
	}

	if !strings.HasPrefix(line, Tag) {
		return nil, nil
	}

	fields := strings.Split(line, ",")
	if len(fields) != fieldCount {
		return nil, errors.WrapInvalid(errors.ErrMalformedSentence, "nmea", "Parse",
			fmt.Sprintf("expected %d fields, got %d", fieldCount, len(fields)))
	}

	total, err := strconv.Atoi(fields[1])
	if err != nil || total < 1 {
		return nil, errors.WrapInvalid(errors.ErrMalformedSentence, "nmea", "Parse", "fragment count")
	}

	index, err := strconv.Atoi(fields[2])
	if err != nil || index < 1 || index > total {
		return nil, errors.WrapInvalid(errors.ErrMalformedSentence, "nmea", "Parse", "fragment index")
	}

	// Trailing field is "fillbits*checksum".
	tail := fields[6]
	star := strings.IndexByte(tail, '*')
	if star < 0 {
		return nil, errors.WrapInvalid(errors.ErrMalformedSentence, "nmea", "Parse", "trailing token shape")
	}
	fillBits, err := strconv.Atoi(tail[:star])
	if err != nil || fillBits < 0 || fillBits > 5 {
		return nil, errors.WrapInvalid(errors.ErrMalformedSentence, "nmea", "Parse", "fill bits")
	}

	return &Sentence{
		Raw:            line,
		TotalFragments: total,
		FragmentIndex:  index,
		SequenceID:     fields[3],
		Channel:        fields[4],
		Payload:        fields[5],
		FillBits:       fillBits,
	}, nil
}

// verifyChecksum checks the trailing "*hh" token against the XOR of the
// line content between the leading '!' or '$' and the '*'.
func verifyChecksum(line string) error {
	if len(line) < 4 || (line[0] != '!' && line[0] != '$') {
		return errors.WrapInvalid(errors.ErrMalformedSentence, "nmea", "verifyChecksum", "missing sentence delimiter")
	}

	star := strings.LastIndexByte(line, '*')
	if star < 0 || star+3 != len(line) {
		return errors.WrapInvalid(errors.ErrMalformedSentence, "nmea", "verifyChecksum", "missing checksum token")
	}

	want := strings.ToUpper(line[star+1:])
	if got := Checksum(line[1:star]); got != want {
		return errors.WrapInvalid(errors.ErrChecksumFailed, "nmea", "verifyChecksum",
			fmt.Sprintf("computed %s, sentence carries %s", got, want))
	}

	return nil
}
