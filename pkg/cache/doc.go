// Package cache provides the windowed payload buffer used between fragment
// reassembly and batch emission.
//
// Windowed is an ordered, time/size-bounded buffer. Entries are keyed by a
// monotonically increasing sequence number and carry their receive
// timestamp as an attribute, so bursts arriving within the same clock tick
// cannot collide. Insertion evicts the single oldest entry once the size
// cap is exceeded. Draining is all-or-nothing: entries are only released
// when the oldest entry has waited at least the hold duration, or when the
// buffer is full, and entries older than the staleness threshold are
// silently dropped at that point.
//
// Statistics are always collected; Prometheus metrics are optional and
// enabled via WithMetrics().
package cache
