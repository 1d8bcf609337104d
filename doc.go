// Package purais turns a live AIS feed into filtered, windowed JSON
// batches.
//
// # Pipeline
//
// Input lines are NMEA 0183 !AIVDM sentences. Each line moves through:
//
//   - nmea: checksum and field-shape validation, multi-fragment
//     reassembly into complete six-bit payloads
//   - pkg/cache: an ordered, time/size-bounded window of assembled
//     payloads awaiting emission
//   - decode: the external AIS bit-field decoder behind a small adapter
//   - normalize: per-message-type extraction into canonical records
//   - filter: conjunction of field predicates over each record
//   - emit: latest-record deduplication and json/jsonais serialization
//
// The loop in pipeline is single-threaded and cooperatively driven by
// input availability; windowed drains happen on line arrival, never on a
// timer. cmd/purais is the thin shell wiring stdin or a capture file to
// stdout and, optionally, a NATS subject.
//
// # Formats
//
//   - raw: validated sentences echoed verbatim, optionally restricted to
//     one radio channel
//   - json: arrays of un-normalized decoder field mappings
//   - jsonais: the jsonais envelope with canonical records grouped under
//     the receiving station's name
package purais
