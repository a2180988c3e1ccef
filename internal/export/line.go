package export

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Dav1dde/hmtk/internal/hame"
)

// Measurement builds one InfluxDB line protocol record.
//
// Tags and fields render in the order they are appended; integer fields
// carry the protocol's i/u type suffix so InfluxDB stores them as
// integers rather than floats. The zero timestamp is omitted, leaving
// the server to assign arrival time.
type Measurement struct {
	name      string
	tags      strings.Builder
	fields    strings.Builder
	timestamp time.Time
}

// NewMeasurement creates a measurement named name.
func NewMeasurement(name string) *Measurement {
	return &Measurement{name: name}
}

// Tag appends a tag. Tags with an empty value are skipped, the line
// protocol has no way to express them.
func (m *Measurement) Tag(key, value string) *Measurement {
	if value == "" {
		return m
	}
	if m.tags.Len() > 0 {
		m.tags.WriteByte(',')
	}
	m.tags.WriteString(key)
	m.tags.WriteByte('=')
	m.tags.WriteString(value)
	return m
}

// Field appends a field. Supported value types are bool, string, the
// built-in integer and float types; anything else renders through fmt
// untyped, which InfluxDB will reject, so stick to the supported set.
func (m *Measurement) Field(key string, value any) *Measurement {
	if m.fields.Len() > 0 {
		m.fields.WriteByte(',')
	}
	m.fields.WriteString(key)
	m.fields.WriteByte('=')

	switch v := value.(type) {
	case bool:
		m.fields.WriteString(strconv.FormatBool(v))
	case string:
		m.fields.WriteString(strconv.Quote(v))
	case int:
		m.writeInt(int64(v))
	case int8:
		m.writeInt(int64(v))
	case int16:
		m.writeInt(int64(v))
	case int32:
		m.writeInt(int64(v))
	case int64:
		m.writeInt(v)
	case uint:
		m.writeUint(uint64(v))
	case uint8:
		m.writeUint(uint64(v))
	case uint16:
		m.writeUint(uint64(v))
	case uint32:
		m.writeUint(uint64(v))
	case uint64:
		m.writeUint(v)
	case float32:
		m.fields.WriteString(strconv.FormatFloat(float64(v), 'g', -1, 32))
	case float64:
		m.fields.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	default:
		fmt.Fprintf(&m.fields, "%v", v)
	}
	return m
}

func (m *Measurement) writeInt(v int64) {
	m.fields.WriteString(strconv.FormatInt(v, 10))
	m.fields.WriteByte('i')
}

func (m *Measurement) writeUint(v uint64) {
	m.fields.WriteString(strconv.FormatUint(v, 10))
	m.fields.WriteByte('u')
}

// Timestamp sets the record timestamp, rendered in nanoseconds.
func (m *Measurement) Timestamp(t time.Time) *Measurement {
	m.timestamp = t
	return m
}

// String renders the record without a trailing newline.
func (m *Measurement) String() string {
	var b strings.Builder
	b.WriteString(m.name)
	if m.tags.Len() > 0 {
		b.WriteByte(',')
		b.WriteString(m.tags.String())
	}
	b.WriteByte(' ')
	b.WriteString(m.fields.String())
	if !m.timestamp.IsZero() {
		b.WriteByte(' ')
		b.WriteString(strconv.FormatInt(m.timestamp.UnixNano(), 10))
	}
	return b.String()
}

// AppendTo appends the rendered record plus a newline to b.
func (m *Measurement) AppendTo(b *strings.Builder) {
	b.WriteString(m.String())
	b.WriteByte('\n')
}

// Lines renders a device snapshot as InfluxDB line protocol.
//
// Every record shares the measurement name "hmtk", the device identity
// tags, and the snapshot's capture timestamp: one record per solar
// input, one per output, one aggregate record, and one for the host
// battery flags. The output is directly ingestible by the InfluxDB
// write endpoint or Telegraf.
func Lines(device hame.DeviceOptions, info hame.DeviceInfo) string {
	var out strings.Builder

	base := func() *Measurement {
		return NewMeasurement("hmtk").
			Tag("device_type", device.Type).
			Tag("device_mac", device.MAC).
			Timestamp(info.Timestamp)
	}

	for i, solar := range []hame.SolarInfo{info.Solar1, info.Solar2} {
		base().
			Tag("solar", strconv.Itoa(i+1)).
			Field("solar_charging", solar.Charging).
			Field("solar_pass_through", solar.PassThrough).
			Field("solar_power", uint32(solar.Power)).
			AppendTo(&out)
	}

	for i, output := range []hame.OutputInfo{info.Output1, info.Output2} {
		base().
			Tag("output", strconv.Itoa(i+1)).
			Field("output_active", output.Active).
			Field("output_power", uint32(output.Power)).
			AppendTo(&out)
	}

	base().
		Field("scene", info.Scene.String()).
		Field("temperature_min", int32(info.Temperature.Min)).
		Field("temperature_max", int32(info.Temperature.Max)).
		Field("battery_charge", uint8(info.Battery.Charge)).
		Field("battery_capacity", uint32(info.Battery.Capacity)).
		Field("battery_output_threshold", uint32(info.Battery.OutputThreshold)).
		Field("battery_discharge_depth", uint8(info.Battery.DischargeDepth)).
		AppendTo(&out)

	base().
		Tag("battery_cell", "internal").
		Field("battery_cell_charging", info.Battery.Internal.Charging).
		Field("battery_cell_discharging", info.Battery.Internal.Discharging).
		Field("battery_cell_discharge_depth", info.Battery.Internal.DischargeDepth).
		Field("battery_cell_undervoltage", info.Battery.Internal.Undervoltage).
		AppendTo(&out)

	return out.String()
}
