// Package decode defines the bit-level AIS payload decoder boundary.
//
// The pipeline does not interpret AIS bit fields itself: it hands a
// six-bit-encoded payload plus fill-bit count to a Decoder and consumes
// the resulting field mapping. The Codec in this package adapts
// github.com/BertoldVdb/go-ais to that contract; tests substitute a
// DecoderFunc. A decoder failure only drops the payload in question,
// never the stream.
package decode

// Fields is the decoded field mapping for one AIS payload. Keys follow the
// conventional AIS field names ("id", "mmsi", "sog", "x", "y", ...);
// values are ints, float64s, bools, or strings. Read-only to consumers.
type Fields map[string]any

// Decoder turns one six-bit-encoded payload into a field mapping.
type Decoder interface {
	Decode(payload string, fillBits int) (Fields, error)
}

// DecoderFunc adapts a function to the Decoder interface.
type DecoderFunc func(payload string, fillBits int) (Fields, error)

// Decode implements Decoder.
func (f DecoderFunc) Decode(payload string, fillBits int) (Fields, error) {
	return f(payload, fillBits)
}

// Int returns the named field as an int. The second result is false when
// the field is absent or not numeric.
func (f Fields) Int(name string) (int, bool) {
	switch v := f[name].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

// Float returns the named field as a float64. The second result is false
// when the field is absent or not numeric.
func (f Fields) Float(name string) (float64, bool) {
	switch v := f[name].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

// String returns the named field as a string. The second result is false
// when the field is absent or not a string.
func (f Fields) String(name string) (string, bool) {
	v, ok := f[name].(string)
	return v, ok
}

// Bool returns the named field as a bool. The second result is false when
// the field is absent or not a bool.
func (f Fields) Bool(name string) (bool, bool) {
	v, ok := f[name].(bool)
	return v, ok
}
