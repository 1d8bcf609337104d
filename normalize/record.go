// Package normalize turns decoded AIS field mappings into canonical output
// records.
//
// Each message type has its own extraction and validation rules; a record
// that fails validation, or that would carry nothing beyond its header, is
// discarded as a whole. Discards are reported as classified invalid errors
// so the pipeline can count and log them without stopping the stream.
package normalize

import (
	"math"
	"strings"
	"time"

	"github.com/flegmaatikko/purais/decode"
	"github.com/flegmaatikko/purais/errors"
)

// Record is one canonical output record: output field name to
// JSON-serializable scalar.
type Record map[string]any

// headerFieldCount is the number of always-present header fields
// (msgtype, mmsi, rxtime).
const headerFieldCount = 3

// Normalizer applies the per-message-type normalization rules.
// The clock feeds the ETA year heuristic; it defaults to the wall clock.
type Normalizer struct {
	clock func() time.Time
}

// New creates a Normalizer using the wall clock.
func New() *Normalizer {
	return &Normalizer{clock: time.Now}
}

// NewWithClock creates a Normalizer with an injected clock. Intended for
// tests exercising the ETA year heuristic.
func NewWithClock(clock func() time.Time) *Normalizer {
	return &Normalizer{clock: clock}
}

// Normalize builds the canonical record for one decoded payload. rxtime is
// the payload's receive time already formatted as a compact UTC string.
// A nil record with a classified invalid error means the payload produced
// no useful output.
func (n *Normalizer) Normalize(fields decode.Fields, rxtime string) (Record, error) {
	msgtype, okType := fields.Int("id")
	mmsi, okMMSI := fields.Int("mmsi")
	if !okType || !okMMSI {
		return nil, errors.WrapInvalid(errors.ErrInvalidRecord, "normalize", "Normalize", "missing msgtype or mmsi")
	}

	record := Record{}
	header := func() {
		record["msgtype"] = msgtype
		record["mmsi"] = mmsi
		record["rxtime"] = rxtime
	}

	switch msgtype {
	case 1, 2, 3, 18, 19:
		header()
		if err := n.positionBlock(record, fields, false); err != nil {
			return nil, err
		}
		if heading, ok := fields.Int("true_heading"); ok {
			record["heading"] = heading
		} else {
			record["heading"] = -1
		}

	case 5, 24:
		header()
		n.staticVoyageBlock(record, fields)

	case 27:
		header()
		if status, ok := fields.Int("nav_status"); ok {
			record["status"] = status
		}
		if err := n.positionBlock(record, fields, true); err != nil {
			return nil, err
		}
		if gnss, ok := fields.Bool("gnss"); ok {
			record["gnss"] = gnss
		}

	case 6, 8:
		if err := n.applicationBlock(record, fields); err != nil {
			return nil, err
		}
		header()
		dac, _ := fields.Int("dac")
		fi, _ := fields.Int("fi")
		record["dac"] = dac
		record["fid"] = fi
	}

	switch msgtype {
	case 1, 2, 3, 5, 18, 19, 24:
		identityBlock(record, fields)
	}

	if len(record) <= headerFieldCount {
		return nil, errors.WrapInvalid(errors.ErrEmptyRecord, "normalize", "Normalize", "header-only record")
	}
	return record, nil
}

// positionBlock extracts status, speed, position, and course. When
// required is set (long-range reports) a missing position discards the
// record; an out-of-range position always does.
func (n *Normalizer) positionBlock(record Record, fields decode.Fields, required bool) error {
	if !required {
		if status, ok := fields.Int("nav_status"); ok {
			record["status"] = status
		}
	}

	if sog, ok := fields.Float("sog"); ok {
		record["speed"] = round1(sog)
	} else {
		record["speed"] = -1.0
	}

	x, okX := fields.Float("x")
	y, okY := fields.Float("y")
	switch {
	case okX && okY:
		lon := round7(x)
		lat := round7(y)
		if !validLatLon(lat, lon) {
			return errors.WrapInvalid(errors.ErrInvalidRecord, "normalize", "positionBlock", "position out of range")
		}
		record["lon"] = lon
		record["lat"] = lat
	case required:
		return errors.WrapInvalid(errors.ErrInvalidRecord, "normalize", "positionBlock", "position missing")
	}

	if cog, ok := fields.Float("cog"); ok {
		record["course"] = round1(cog)
	} else {
		record["course"] = -1.0
	}

	return nil
}

// staticVoyageBlock extracts IMO number, draught, destination, and ETA.
func (n *Normalizer) staticVoyageBlock(record Record, fields decode.Fields) {
	if imo, ok := fields.Int("imo_num"); ok {
		record["imo"] = imo
	}
	if draught, ok := fields.Float("draught"); ok {
		record["draught"] = round1(draught)
	}
	if destination, ok := fields.String("destination"); ok {
		record["destination"] = stripPad(destination)
	}
	if eta, ok := n.buildETA(fields); ok {
		record["eta"] = eta
	}
}

// applicationBlock extracts the recognized binary application schemas.
// Anything else leaves the record empty and the caller's header-only check
// discards it.
func (n *Normalizer) applicationBlock(record Record, fields decode.Fields) error {
	msgtype, _ := fields.Int("id")
	dac, _ := fields.Int("dac")
	fi, _ := fields.Int("fi")

	switch {
	case msgtype == 6 && dac == 1 && fi == 40,
		msgtype == 8 && dac == 1 && fi == 16,
		msgtype == 8 && dac == 1 && fi == 24:
		persons, ok := fields.Int("persons")
		if !ok {
			return errors.WrapInvalid(errors.ErrEmptyRecord, "normalize", "applicationBlock", "persons count missing")
		}
		record["persons_on_board"] = persons

	case msgtype == 8 && dac == 200 && fi == 55:
		passengers, okP := fields.Int("passengers")
		crew, okC := fields.Int("crew")
		personnel, okY := fields.Int("yet_more_personnel")
		if !okP && !okC && !okY {
			return errors.WrapInvalid(errors.ErrEmptyRecord, "normalize", "applicationBlock", "no personnel counts")
		}
		total := passengers + crew + personnel
		if total == 0 {
			return errors.WrapInvalid(errors.ErrEmptyRecord, "normalize", "applicationBlock", "zero persons on board")
		}
		record["persons_on_board"] = total

	default:
		return errors.WrapInvalid(errors.ErrEmptyRecord, "normalize", "applicationBlock", "unrecognized application schema")
	}

	return nil
}

// identityBlock extracts ship identity and dimension fields shared across
// position and static message types.
func identityBlock(record Record, fields decode.Fields) {
	if name, ok := fields.String("name"); ok {
		record["shipname"] = stripPad(name)
	}
	if shiptype, ok := fields.Int("type_and_cargo"); ok {
		record["shiptype"] = shiptype
	}
	if vendor, ok := fields.String("vendor_id"); ok {
		if stripped := stripPad(vendor); stripped != "" {
			record["vendorid"] = stripped
		}
	}
	if callsign, ok := fields.String("callsign"); ok {
		if stripped := stripPad(callsign); stripped != "" {
			record["callsign"] = stripped
		}
	}

	dimA, okA := fields.Int("dim_a")
	dimB, okB := fields.Int("dim_b")
	if okA && okB {
		record["length"] = dimA + dimB
		record["ref_front"] = dimA
	}

	dimC, okC := fields.Int("dim_c")
	dimD, okD := fields.Int("dim_d")
	if okC && okD {
		record["width"] = dimC + dimD
		record["ref_left"] = dimC
	}
}

// buildETA formats the estimated time of arrival as "MonAbbrevDay HH:MM"
// in UTC. Day, hour, and minute must all be present and in range. A
// missing or out-of-range month defaults to the current UTC month. The
// year is the current UTC year, advanced by one when the current month is
// November or later and the ETA month is February or earlier (a voyage
// crossing the year boundary). An impossible date, like day 31 in a
// 30-day month, omits the ETA.
func (n *Normalizer) buildETA(fields decode.Fields) (string, bool) {
	day, okD := fields.Int("eta_day")
	hour, okH := fields.Int("eta_hour")
	minute, okM := fields.Int("eta_minute")
	if !okD || !okH || !okM {
		return "", false
	}
	if day < 1 || day > 31 || hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return "", false
	}

	now := n.clock().UTC()
	month, okMo := fields.Int("eta_month")
	if !okMo || month < 1 || month > 12 {
		month = int(now.Month())
	}

	year := now.Year()
	if int(now.Month()) >= 11 && month <= 2 {
		year++
	}

	eta := time.Date(year, time.Month(month), day, hour, minute, 0, 0, time.UTC)
	if eta.Day() != day || eta.Month() != time.Month(month) {
		return "", false
	}
	return eta.Format("Jan02 15:04"), true
}

// validLatLon reports whether a position is inside the valid coordinate
// range. The AIS "not available" sentinels (lat 91, lon 181) fail this.
func validLatLon(lat, lon float64) bool {
	return math.Abs(lat) < 90.0 && math.Abs(lon) < 180.0
}

// stripPad removes the six-bit string padding ('@') and surrounding spaces.
func stripPad(s string) string {
	return strings.Trim(strings.Trim(s, "@"), " ")
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round7(v float64) float64 {
	return math.Round(v*1e7) / 1e7
}
