package decode

import (
	"fmt"

	goais "github.com/BertoldVdb/go-ais"

	"github.com/flegmaatikko/purais/errors"
)

// Codec decodes AIS payloads via github.com/BertoldVdb/go-ais and flattens
// the typed messages into Fields.
type Codec struct {
	codec *goais.Codec
}

// NewCodec creates a ready-to-use codec.
func NewCodec() *Codec {
	return &Codec{codec: goais.CodecNew(false, false)}
}

// Decode implements Decoder.
func (c *Codec) Decode(payload string, fillBits int) (Fields, error) {
	bits, err := deArmor(payload, fillBits)
	if err != nil {
		return nil, err
	}

	pkt := c.codec.DecodePacket(bits)
	if pkt == nil {
		return nil, errors.WrapInvalid(errors.ErrDecodeFailed, "decode", "Decode", "undecodable payload")
	}

	header := pkt.GetHeader()
	fields := Fields{
		"id":               int(header.MessageID),
		"repeat_indicator": int(header.RepeatIndicator),
		"mmsi":             int(header.UserID),
	}

	switch m := pkt.(type) {
	case goais.PositionReport:
		fields["nav_status"] = int(m.NavigationalStatus)
		fields["sog"] = float64(m.Sog)
		fields["cog"] = float64(m.Cog)
		fields["x"] = float64(m.Longitude)
		fields["y"] = float64(m.Latitude)
		fields["true_heading"] = int(m.TrueHeading)

	case goais.StandardClassBPositionReport:
		fields["sog"] = float64(m.Sog)
		fields["cog"] = float64(m.Cog)
		fields["x"] = float64(m.Longitude)
		fields["y"] = float64(m.Latitude)
		fields["true_heading"] = int(m.TrueHeading)

	case goais.ExtendedClassBPositionReport:
		fields["sog"] = float64(m.Sog)
		fields["cog"] = float64(m.Cog)
		fields["x"] = float64(m.Longitude)
		fields["y"] = float64(m.Latitude)
		fields["true_heading"] = int(m.TrueHeading)
		fields["name"] = string(m.Name)
		fields["type_and_cargo"] = int(m.Type)
		addDimension(fields, m.Dimension)

	case goais.ShipStaticData:
		fields["imo_num"] = int(m.ImoNumber)
		fields["callsign"] = string(m.CallSign)
		fields["name"] = string(m.Name)
		fields["type_and_cargo"] = int(m.Type)
		fields["destination"] = string(m.Destination)
		fields["draught"] = float64(m.MaximumStaticDraught)
		fields["eta_month"] = int(m.Eta.Month)
		fields["eta_day"] = int(m.Eta.Day)
		fields["eta_hour"] = int(m.Eta.Hour)
		fields["eta_minute"] = int(m.Eta.Minute)
		addDimension(fields, m.Dimension)

	case goais.StaticDataReport:
		if m.ReportA.Valid {
			fields["name"] = string(m.ReportA.Name)
		}
		if m.ReportB.Valid {
			fields["type_and_cargo"] = int(m.ReportB.ShipType)
			fields["vendor_id"] = string(m.ReportB.VendorIDName)
			fields["callsign"] = string(m.ReportB.CallSign)
			addDimension(fields, m.ReportB.Dimension)
		}

	case goais.LongRangeAisBroadcastMessage:
		fields["nav_status"] = int(m.NavigationalStatus)
		fields["sog"] = float64(m.Sog)
		fields["cog"] = float64(m.Cog)
		fields["x"] = float64(m.Longitude)
		fields["y"] = float64(m.Latitude)
		// PositionLatency is set when the position is over five seconds
		// old; unset means a current GNSS position.
		fields["gnss"] = !m.PositionLatency

	case goais.AddressedBinaryMessage:
		fields["dac"] = int(m.ApplicationID.DesignatedAreaCode)
		fields["fi"] = int(m.ApplicationID.FunctionIdentifier)
		addApplicationFields(fields, int(m.ApplicationID.DesignatedAreaCode),
			int(m.ApplicationID.FunctionIdentifier), int(header.MessageID), m.BinaryData)

	case goais.BinaryBroadcastMessage:
		fields["dac"] = int(m.ApplicationID.DesignatedAreaCode)
		fields["fi"] = int(m.ApplicationID.FunctionIdentifier)
		addApplicationFields(fields, int(m.ApplicationID.DesignatedAreaCode),
			int(m.ApplicationID.FunctionIdentifier), int(header.MessageID), m.BinaryData)

	default:
		return nil, errors.WrapInvalid(errors.ErrDecodeFailed, "decode", "Decode",
			fmt.Sprintf("unsupported message type %d", header.MessageID))
	}

	return fields, nil
}

// addDimension records the four ship dimension reference distances.
func addDimension(fields Fields, d goais.FieldDimension) {
	fields["dim_a"] = int(d.A)
	fields["dim_b"] = int(d.B)
	fields["dim_c"] = int(d.C)
	fields["dim_d"] = int(d.D)
}
