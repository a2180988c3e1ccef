package export

import "errors"

// Sentinel errors for the InfluxDB writer.
//
// These errors can be checked using errors.Is() for specific handling:
//
//	if errors.Is(err, export.ErrInfluxDisabled) {
//	    // Run without persistence
//	}
var (
	// ErrInfluxDisabled indicates InfluxDB integration is disabled in config.
	ErrInfluxDisabled = errors.New("export: influxdb disabled in configuration")

	// ErrInfluxConnectionFailed indicates the initial connection attempt failed.
	ErrInfluxConnectionFailed = errors.New("export: influxdb connection failed")

	// ErrInfluxNotConnected indicates the writer is not connected to InfluxDB.
	ErrInfluxNotConnected = errors.New("export: influxdb not connected")
)
