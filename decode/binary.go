package decode

// Binary application message payloads are opaque to go-ais; the recognized
// person-count schemas are unpacked here from the application data bits.
//
// Recognized combinations:
//
//	(6,1,40)   number of persons on board (IMO Circ.236)
//	(8,1,16)   number of persons on board, broadcast
//	(8,1,24)   extended static and voyage data carrying a persons count
//	(8,200,55) inland waterways persons on board (crew, passengers,
//	           shipboard personnel)
const (
	personsNotAvailable    = 0
	crewNotAvailable       = 255
	passengersNotAvailable = 8191
	personnelNotAvailable  = 255
)

// addApplicationFields unpacks the schema-specific subfields from the
// application data of a binary message. Unrecognized schemas add nothing;
// the normalizer discards such records.
func addApplicationFields(fields Fields, dac, fi, msgtype int, data []byte) {
	switch {
	case msgtype == 6 && dac == 1 && fi == 40,
		msgtype == 8 && dac == 1 && fi == 16,
		msgtype == 8 && dac == 1 && fi == 24:
		if persons, ok := bitUint(data, 0, 13); ok && persons != personsNotAvailable {
			fields["persons"] = int(persons)
		}

	case msgtype == 8 && dac == 200 && fi == 55:
		if crew, ok := bitUint(data, 0, 8); ok && crew != crewNotAvailable {
			fields["crew"] = int(crew)
		}
		if passengers, ok := bitUint(data, 8, 13); ok && passengers != passengersNotAvailable {
			fields["passengers"] = int(passengers)
		}
		if personnel, ok := bitUint(data, 21, 8); ok && personnel != personnelNotAvailable {
			fields["yet_more_personnel"] = int(personnel)
		}
	}
}
