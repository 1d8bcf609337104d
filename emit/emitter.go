// Package emit serializes due payloads into JSON batches.
//
// The emitter is the tail of the pipeline: it receives the entries a
// windowed-cache drain released, runs each through the external decoder,
// the normalizer (jsonais only), and the predicate filter, deduplicates
// when "latest" mode is on, and writes one JSON document per non-empty
// batch. Per-payload decoder failures drop that payload only.
package emit

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/flegmaatikko/purais/decode"
	"github.com/flegmaatikko/purais/errors"
	"github.com/flegmaatikko/purais/filter"
	"github.com/flegmaatikko/purais/nmea"
	"github.com/flegmaatikko/purais/normalize"
	"github.com/flegmaatikko/purais/pkg/cache"
	"github.com/flegmaatikko/purais/pkg/timestamp"
)

// Format selects the batch serialization.
type Format string

const (
	// FormatRaw echoes validated sentences verbatim; handled upstream of
	// the emitter, listed here for configuration completeness.
	FormatRaw Format = "raw"
	// FormatJSON emits arrays of un-normalized decoder field mappings.
	FormatJSON Format = "json"
	// FormatJSONAIS emits the jsonais envelope with canonical records.
	FormatJSONAIS Format = "jsonais"
)

// Config assembles an Emitter.
type Config struct {
	Format     Format
	Station    string // station name, required for jsonais
	Latest     bool   // keep only the latest record per dedup key
	Decoder    decode.Decoder
	Normalizer *normalize.Normalizer
	Predicates filter.Predicates
	Out        io.Writer
	Logger     *slog.Logger
	Clock      func() int64 // encodetime source, defaults to the wall clock
}

// Emitter turns drained cache entries into serialized batches.
type Emitter struct {
	format     Format
	station    string
	latest     bool
	decoder    decode.Decoder
	normalizer *normalize.Normalizer
	predicates filter.Predicates
	out        io.Writer
	logger     *slog.Logger
	clock      func() int64
}

// New creates an emitter. The decoder and output writer are required;
// jsonais additionally requires a station name and a normalizer.
func New(cfg Config) (*Emitter, error) {
	if cfg.Decoder == nil {
		return nil, errors.WrapFatal(errors.ErrMissingConfig, "Emitter", "New", "decoder required")
	}
	if cfg.Out == nil {
		return nil, errors.WrapFatal(errors.ErrMissingConfig, "Emitter", "New", "output writer required")
	}
	if cfg.Format == FormatJSONAIS {
		if cfg.Station == "" {
			return nil, errors.WrapFatal(errors.ErrMissingConfig, "Emitter", "New", "station name required for jsonais")
		}
		if cfg.Normalizer == nil {
			return nil, errors.WrapFatal(errors.ErrMissingConfig, "Emitter", "New", "normalizer required for jsonais")
		}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = timestamp.Now
	}

	return &Emitter{
		format:     cfg.Format,
		station:    cfg.Station,
		latest:     cfg.Latest,
		decoder:    cfg.Decoder,
		normalizer: cfg.Normalizer,
		predicates: cfg.Predicates,
		out:        cfg.Out,
		logger:     logger,
		clock:      clock,
	}, nil
}

// jsonais envelope shape.
type pathEntry struct {
	Name string `json:"name"`
}

type msgGroup struct {
	Path []pathEntry      `json:"path"`
	Msgs []map[string]any `json:"msgs"`
}

type envelope struct {
	Protocol   string     `json:"protocol"`
	EncodeTime string     `json:"encodetime"`
	Groups     []msgGroup `json:"groups"`
}

// Emit serializes one batch from the given entries. Returns the number of
// records written; zero means no output was produced. A write failure is
// the only returned error: decode, normalization, and filter failures
// drop individual payloads.
func (e *Emitter) Emit(entries []cache.Entry[nmea.Payload]) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}

	switch e.format {
	case FormatJSON:
		return e.emitJSON(entries)
	case FormatJSONAIS:
		return e.emitJSONAIS(entries)
	default:
		return 0, errors.WrapFatal(errors.ErrInvalidConfig, "Emitter", "Emit",
			fmt.Sprintf("format %q cannot be batched", e.format))
	}
}

// emitJSON writes a JSON array of un-normalized decoder field mappings.
func (e *Emitter) emitJSON(entries []cache.Entry[nmea.Payload]) (int, error) {
	batch := newOrderedRecords()
	for i, entry := range entries {
		fields, err := e.decoder.Decode(entry.Val.Payload, entry.Val.FillBits)
		if err != nil {
			e.logger.Debug("payload decode failed",
				"payload", entry.Val.Payload,
				"fill_bits", entry.Val.FillBits,
				"error", err)
			continue
		}
		if !e.predicates.Match(fields) {
			continue
		}

		key := fmt.Sprintf("%d", i)
		if e.latest {
			mmsi, _ := fields.Int("mmsi")
			id, _ := fields.Int("id")
			key = dedupKey(mmsi, id, len(fields))
		}
		batch.put(key, fields)
	}

	return e.write(batch.values())
}

// emitJSONAIS writes the jsonais envelope with canonical records.
func (e *Emitter) emitJSONAIS(entries []cache.Entry[nmea.Payload]) (int, error) {
	batch := newOrderedRecords()
	for i, entry := range entries {
		fields, err := e.decoder.Decode(entry.Val.Payload, entry.Val.FillBits)
		if err != nil {
			e.logger.Debug("payload decode failed",
				"payload", entry.Val.Payload,
				"fill_bits", entry.Val.FillBits,
				"error", err)
			continue
		}

		record, err := e.normalizer.Normalize(fields, timestamp.FormatCompact(entry.Time))
		if err != nil {
			e.logger.Debug("record discarded", "error", err)
			continue
		}
		if !e.predicates.Match(record) {
			continue
		}

		key := fmt.Sprintf("%d", i)
		if e.latest {
			mmsi, _ := record["mmsi"].(int)
			msgtype, _ := record["msgtype"].(int)
			key = dedupKey(mmsi, msgtype, len(record))
		}
		batch.put(key, record)
	}

	msgs := batch.values()
	if len(msgs) == 0 {
		return 0, nil
	}

	doc := envelope{
		Protocol:   "jsonais",
		EncodeTime: timestamp.FormatCompact(e.clock()),
		Groups: []msgGroup{{
			Path: []pathEntry{{Name: e.station}},
			Msgs: msgs,
		}},
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return 0, errors.WrapFatal(err, "Emitter", "emitJSONAIS", "marshal envelope")
	}
	if _, err := fmt.Fprintln(e.out, string(data)); err != nil {
		return 0, errors.WrapFatal(err, "Emitter", "emitJSONAIS", "write batch")
	}
	return len(msgs), nil
}

// write serializes a plain JSON array batch, skipping empty batches.
func (e *Emitter) write(msgs []map[string]any) (int, error) {
	if len(msgs) == 0 {
		return 0, nil
	}
	data, err := json.Marshal(msgs)
	if err != nil {
		return 0, errors.WrapFatal(err, "Emitter", "write", "marshal batch")
	}
	if _, err := fmt.Fprintln(e.out, string(data)); err != nil {
		return 0, errors.WrapFatal(err, "Emitter", "write", "write batch")
	}
	return len(msgs), nil
}

// dedupKey is the "latest" mode identity proxy. Field count stands in for
// message content; colliding keys keep only the last record.
func dedupKey(mmsi, msgtype, fieldCount int) string {
	return fmt.Sprintf("%d_%d_%d", mmsi, msgtype, fieldCount)
}

// orderedRecords is a map preserving first-insertion key order while an
// overwrite replaces the value in place.
type orderedRecords struct {
	keys    []string
	records map[string]map[string]any
}

func newOrderedRecords() *orderedRecords {
	return &orderedRecords{records: make(map[string]map[string]any)}
}

func (o *orderedRecords) put(key string, record map[string]any) {
	if _, exists := o.records[key]; !exists {
		o.keys = append(o.keys, key)
	}
	o.records[key] = record
}

func (o *orderedRecords) values() []map[string]any {
	out := make([]map[string]any, 0, len(o.keys))
	for _, key := range o.keys {
		out = append(out, o.records[key])
	}
	return out
}
