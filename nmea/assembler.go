package nmea

import (
	"strings"

	"github.com/flegmaatikko/purais/pkg/timestamp"
)

// Payload is one fully reassembled AIS payload.
// Immutable after creation.
type Payload struct {
	Payload  string // concatenated six-bit payload fields, arrival order
	FillBits int    // fill bits of the final fragment
	Channel  string // channel of the final fragment
	RxTime   int64  // completion time, Unix milliseconds
}

// Assembler accumulates validated sentences into complete payloads.
//
// Exactly one fragment group is in flight at a time; the sequence-id field
// is ignored. Interleaved multi-sequence streams would corrupt reassembly,
// so each input stream needs its own Assembler.
type Assembler struct {
	group []*Sentence
	clock func() int64
}

// NewAssembler creates an assembler using the wall clock to stamp
// completion times.
func NewAssembler() *Assembler {
	return &Assembler{clock: timestamp.Now}
}

// NewAssemblerWithClock creates an assembler with an injected millisecond
// time source. Intended for tests.
func NewAssemblerWithClock(clock func() int64) *Assembler {
	return &Assembler{clock: clock}
}

// Append adds a sentence to the current fragment group. When the sentence
// is its group's last fragment the group is complete: Append returns the
// reassembled payload and clears the group. Otherwise it returns nil and
// the group stays open.
func (a *Assembler) Append(s *Sentence) *Payload {
	a.group = append(a.group, s)

	if !s.Last() {
		return nil
	}

	var b strings.Builder
	for _, frag := range a.group {
		b.WriteString(frag.Payload)
	}
	a.group = a.group[:0]

	return &Payload{
		Payload:  b.String(),
		FillBits: s.FillBits,
		Channel:  s.Channel,
		RxTime:   a.clock(),
	}
}

// Reset discards any partial fragments. Called on any validator failure or
// field-count anomaly.
func (a *Assembler) Reset() {
	a.group = a.group[:0]
}

// Pending returns the number of buffered fragments in the open group.
func (a *Assembler) Pending() int {
	return len(a.group)
}
