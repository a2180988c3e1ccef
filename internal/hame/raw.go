package hame

import "strconv"

// fieldSpec binds one protocol key to its parse-and-assign function.
// Message kinds declare their required fields as an ordered table of
// these, which keeps per-field error attribution in one place and makes
// adding a message kind a matter of writing a new table.
type fieldSpec struct {
	key   string
	parse func(string) error
}

// assign adapts a typed parser into a fieldSpec parse function that
// stores the result through dst.
func assign[T any](dst *T, parse func(string) (T, error)) func(string) error {
	return func(s string) error {
		v, err := parse(s)
		if err != nil {
			return err
		}
		*dst = v
		return nil
	}
}

// decodeFields decodes a message against a field table.
//
// Fields are processed in table order and the first failure aborts the
// decode: a missing key yields MissingFieldError, an unparsable value
// yields InvalidFieldError wrapping the cause. A record either decodes
// fully or not at all.
func decodeFields(msg Message, fields []fieldSpec) error {
	for _, f := range fields {
		raw, ok := msg.Get(f.key)
		if !ok {
			return &MissingFieldError{Field: f.key}
		}
		if err := f.parse(raw); err != nil {
			return &InvalidFieldError{Field: f.key, Err: err}
		}
	}
	return nil
}

func parseUint8(s string) (uint8, error) {
	v, err := strconv.ParseUint(s, 10, 8)
	return uint8(v), err
}

func parseUint32(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	return uint32(v), err
}

// RawDeviceInfo is the raw decoded device-info message (the response to
// the cd=1 refresh command). Field names mirror the protocol keys;
// status bytes stay raw until the domain transform interprets them.
type RawDeviceInfo struct {
	// P1, P2 are the solar input status bytes.
	P1 uint8
	P2 uint8
	// W1, W2 are the solar input powers.
	W1 Watt
	W2 Watt
	// Pe is the battery charge percentage.
	Pe Percentage
	// O1, O2 are the output status bytes.
	O1 uint8
	O2 uint8
	// Do is the configured discharge depth.
	Do Percentage
	// Lv is the battery output threshold.
	Lv Watt
	// Cj is the ambient light scene.
	Cj Scene
	// Kn is the battery capacity.
	Kn WattHours
	// G1, G2 are the output powers.
	G1 Watt
	G2 Watt
	// Tl, Th are the minimum and maximum temperatures.
	Tl Celsius
	Th Celsius
	// L0 is the host battery status byte.
	L0 uint8
}

// DecodeDeviceInfo decodes the device-info message kind from a parsed
// payload. The payload may contain many more keys than the table lists;
// extras are ignored.
func DecodeDeviceInfo(msg Message) (RawDeviceInfo, error) {
	var r RawDeviceInfo
	err := decodeFields(msg, []fieldSpec{
		{"p1", assign(&r.P1, parseUint8)},
		{"p2", assign(&r.P2, parseUint8)},
		{"w1", assign(&r.W1, ParseWatt)},
		{"w2", assign(&r.W2, ParseWatt)},
		{"pe", assign(&r.Pe, ParsePercentage)},
		{"o1", assign(&r.O1, parseUint8)},
		{"o2", assign(&r.O2, parseUint8)},
		{"do", assign(&r.Do, ParsePercentage)},
		{"lv", assign(&r.Lv, ParseWatt)},
		{"cj", assign(&r.Cj, ParseScene)},
		{"kn", assign(&r.Kn, ParseWattHours)},
		{"g1", assign(&r.G1, ParseWatt)},
		{"g2", assign(&r.G2, ParseWatt)},
		{"tl", assign(&r.Tl, ParseCelsius)},
		{"th", assign(&r.Th, ParseCelsius)},
		{"l0", assign(&r.L0, parseUint8)},
	})
	if err != nil {
		return RawDeviceInfo{}, err
	}
	return r, nil
}

// RawBatteryData is the raw decoded battery-data message (the response
// to the cd=16 command). It reports per-pack electrical detail the
// device-info message lacks. Not folded into the device snapshot yet;
// decoded here so the schema exists alongside the device-info kind.
type RawBatteryData struct {
	// M1, M2 are the host pack voltages in millivolts.
	M1 uint32
	M2 uint32
	// I1, I2 are the expansion pack voltages in millivolts.
	I1 uint32
	I2 uint32
	// C3, C4 are the pack currents in milliamps.
	C3 uint32
	C4 uint32
	// G1, G2 are the output powers.
	G1 Watt
	G2 Watt
	// Ps is the power state byte.
	Ps uint8
	// Bb is the host battery charge percentage.
	Bb Percentage
	// Bv is the host battery voltage in millivolts.
	Bv uint32
	// Bc is the host battery current in milliamps.
	Bc uint32
}

// DecodeBatteryData decodes the battery-data message kind from a parsed
// payload.
func DecodeBatteryData(msg Message) (RawBatteryData, error) {
	var r RawBatteryData
	err := decodeFields(msg, []fieldSpec{
		{"m1", assign(&r.M1, parseUint32)},
		{"m2", assign(&r.M2, parseUint32)},
		{"i1", assign(&r.I1, parseUint32)},
		{"i2", assign(&r.I2, parseUint32)},
		{"c3", assign(&r.C3, parseUint32)},
		{"c4", assign(&r.C4, parseUint32)},
		{"g1", assign(&r.G1, ParseWatt)},
		{"g2", assign(&r.G2, ParseWatt)},
		{"ps", assign(&r.Ps, parseUint8)},
		{"bb", assign(&r.Bb, ParsePercentage)},
		{"bv", assign(&r.Bv, parseUint32)},
		{"bc", assign(&r.Bc, parseUint32)},
	})
	if err != nil {
		return RawBatteryData{}, err
	}
	return r, nil
}
