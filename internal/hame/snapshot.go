package hame

import (
	"encoding/json"
	"time"
)

// DeviceInfo is one fully decoded, timestamped device status snapshot.
//
// Snapshots are immutable once built; a newer status supersedes rather
// than mutates. Every numeric field carries the unit type assigned at
// decode time. JSON encoding writes the timestamp as epoch seconds.
type DeviceInfo struct {
	Timestamp   time.Time       `json:"-"`
	Solar1      SolarInfo       `json:"solar1"`
	Solar2      SolarInfo       `json:"solar2"`
	Output1     OutputInfo      `json:"output1"`
	Output2     OutputInfo      `json:"output2"`
	Temperature TemperatureInfo `json:"temperature"`
	Battery     BatteryInfo     `json:"battery"`
	Scene       Scene           `json:"scene"`
}

// SolarInfo is the status of one solar input string.
type SolarInfo struct {
	Charging    bool `json:"charging"`
	PassThrough bool `json:"pass_through"`
	Power       Watt `json:"power"`
}

// OutputInfo is the status of one power output.
type OutputInfo struct {
	Power  Watt `json:"power"`
	Active bool `json:"active"`
}

// TemperatureInfo is the reported temperature range.
type TemperatureInfo struct {
	Min Celsius `json:"min"`
	Max Celsius `json:"max"`
}

// BatteryInfo is the battery status.
type BatteryInfo struct {
	Charge          Percentage      `json:"charge"`
	Capacity        WattHours       `json:"capacity"`
	OutputThreshold Watt            `json:"output_threshold"`
	DischargeDepth  Percentage      `json:"discharge_depth"`
	Internal        BatteryCellInfo `json:"internal"`
}

// BatteryCellInfo is the host battery status byte unpacked into its
// four independent flags.
type BatteryCellInfo struct {
	Charging       bool `json:"charging"`
	Discharging    bool `json:"discharging"`
	DischargeDepth bool `json:"discharge_depth"`
	Undervoltage   bool `json:"undervoltage"`
}

// MarshalJSON encodes the snapshot with the capture time as epoch seconds.
func (d DeviceInfo) MarshalJSON() ([]byte, error) {
	type alias DeviceInfo
	return json.Marshal(struct {
		Timestamp int64 `json:"timestamp"`
		alias
	}{
		Timestamp: d.Timestamp.Unix(),
		alias:     alias(d),
	})
}

// bit reports whether bit n of a status byte is set.
func bit(b uint8, n uint) bool {
	return (b>>n)&1 == 1
}

// NewDeviceInfo folds a raw status record into the domain snapshot.
//
// Pure transformation: the two-bit solar/output status bytes and the
// four-bit battery status byte are unpacked into independent flags
// (higher bits are reserved and ignored); everything else maps 1:1.
func NewDeviceInfo(raw RawDeviceInfo, timestamp time.Time) DeviceInfo {
	return DeviceInfo{
		Timestamp: timestamp,
		Solar1: SolarInfo{
			Charging:    bit(raw.P1, 0),
			PassThrough: bit(raw.P1, 1),
			Power:       raw.W1,
		},
		Solar2: SolarInfo{
			Charging:    bit(raw.P2, 0),
			PassThrough: bit(raw.P2, 1),
			Power:       raw.W2,
		},
		Output1: OutputInfo{
			Power:  raw.G1,
			Active: bit(raw.O1, 0),
		},
		Output2: OutputInfo{
			Power:  raw.G2,
			Active: bit(raw.O2, 0),
		},
		Temperature: TemperatureInfo{
			Min: raw.Tl,
			Max: raw.Th,
		},
		Battery: BatteryInfo{
			Charge:          raw.Pe,
			Capacity:        raw.Kn,
			OutputThreshold: raw.Lv,
			DischargeDepth:  raw.Do,
			Internal: BatteryCellInfo{
				Charging:       bit(raw.L0, 0),
				Discharging:    bit(raw.L0, 1),
				DischargeDepth: bit(raw.L0, 2),
				Undervoltage:   bit(raw.L0, 3),
			},
		},
		Scene: raw.Cj,
	}
}
