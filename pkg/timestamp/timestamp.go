// Package timestamp provides standardized Unix timestamp handling utilities.
//
// This package uses int64 milliseconds as the canonical timestamp format to
// eliminate timestamp parsing bugs and provide consistent behavior across the
// codebase. All timestamps are stored as milliseconds since Unix epoch (UTC).
// A timestamp value of 0 means "not set".
//
// The jsonais wire format carries timestamps as compact "YYYYMMDDHHMMSS"
// UTC strings; FormatCompact produces that representation.
package timestamp

import (
	"time"
)

// CompactLayout is the wire layout for rxtime and encodetime fields.
const CompactLayout = "20060102150405"

// Now returns the current time as Unix milliseconds.
func Now() int64 {
	return time.Now().UnixMilli()
}

// FormatCompact converts Unix milliseconds to the compact "YYYYMMDDHHMMSS"
// UTC string used on the wire. Returns empty string if timestamp is 0.
func FormatCompact(ms int64) string {
	if ms == 0 {
		return ""
	}
	return time.UnixMilli(ms).UTC().Format(CompactLayout)
}
