package hame

import "strconv"

// Unit-typed numeric wrappers for protocol values.
//
// The underlying types match the protocol's wire width and signedness
// exactly; no unit conversion is ever performed. The units are opaque
// carriers for the domain model, not arithmetic types.

// Watt is an electrical power value in watts.
type Watt uint32

// WattHours is an energy value in watt hours.
type WattHours uint32

// Celsius is a temperature value in degrees Celsius.
type Celsius int32

// Percentage is a percentage value (0-100 as reported by the device).
type Percentage uint8

// ParseWatt parses a decimal power value.
// A parse failure surfaces the underlying strconv error.
func ParseWatt(s string) (Watt, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	return Watt(v), err
}

// ParseWattHours parses a decimal energy value.
func ParseWattHours(s string) (WattHours, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	return WattHours(v), err
}

// ParseCelsius parses a decimal temperature value.
func ParseCelsius(s string) (Celsius, error) {
	v, err := strconv.ParseInt(s, 10, 32)
	return Celsius(v), err
}

// ParsePercentage parses a decimal percentage value.
func ParsePercentage(s string) (Percentage, error) {
	v, err := strconv.ParseUint(s, 10, 8)
	return Percentage(v), err
}
