package export

import (
	"context"
	"fmt"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/Dav1dde/hmtk/internal/hame"
	"github.com/Dav1dde/hmtk/internal/infrastructure/config"
)

// Default timeouts for InfluxDB operations.
const (
	defaultConnectTimeout = 10 * time.Second
	defaultPingTimeout    = 5 * time.Second

	// millisecondsPerSecond converts seconds to milliseconds for the InfluxDB API.
	millisecondsPerSecond = 1000
)

// InfluxWriter pushes device snapshots into an InfluxDB v2 bucket.
//
// Writes are non-blocking and batched; delivery failures surface
// through the error callback, not the write call.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type InfluxWriter struct {
	client   influxdb2.Client
	writeAPI api.WriteAPI
	cfg      config.InfluxDBConfig

	// connected tracks current connection state.
	connected bool
	mu        sync.RWMutex

	// onError is called when async write errors occur.
	onError func(err error)
}

// ConnectInflux establishes a connection to the InfluxDB server.
//
// It performs the following setup:
//  1. Creates the client with token authentication
//  2. Verifies connectivity with a ping
//  3. Configures the non-blocking write API with batching
//  4. Sets up error callback for async write failures
//
// Parameters:
//   - cfg: InfluxDB configuration from config.yaml
//
// Returns:
//   - *InfluxWriter: Connected writer ready for use
//   - error: If InfluxDB is disabled or connection fails
func ConnectInflux(cfg config.InfluxDBConfig) (*InfluxWriter, error) {
	if !cfg.Enabled {
		return nil, ErrInfluxDisabled
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	flushInterval := cfg.FlushInterval
	if flushInterval <= 0 {
		flushInterval = 10
	}

	// #nosec G115 -- values validated above to be positive
	client := influxdb2.NewClientWithOptions(
		cfg.URL,
		cfg.Token,
		influxdb2.DefaultOptions().
			SetBatchSize(uint(batchSize)).
			SetFlushInterval(uint(flushInterval)*millisecondsPerSecond),
	)

	ctx, cancel := context.WithTimeout(context.Background(), defaultConnectTimeout)
	defer cancel()

	healthy, err := client.Ping(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: ping failed: %w", ErrInfluxConnectionFailed, err)
	}
	if !healthy {
		client.Close()
		return nil, fmt.Errorf("%w: server not healthy", ErrInfluxConnectionFailed)
	}

	writeAPI := client.WriteAPI(cfg.Org, cfg.Bucket)

	w := &InfluxWriter{
		client:    client,
		writeAPI:  writeAPI,
		cfg:       cfg,
		connected: true,
	}

	errorsCh := writeAPI.Errors()
	go w.handleWriteErrors(errorsCh)

	return w, nil
}

// handleWriteErrors processes async write errors from the WriteAPI.
func (w *InfluxWriter) handleWriteErrors(errorsCh <-chan error) {
	for err := range errorsCh {
		w.mu.RLock()
		callback := w.onError
		w.mu.RUnlock()

		if callback != nil {
			callback(err)
		}
	}
}

// SetOnError sets a callback to be invoked when async write errors occur.
//
// Since writes are non-blocking, errors are delivered asynchronously.
// Use this callback to log or handle write failures.
func (w *InfluxWriter) SetOnError(callback func(err error)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onError = callback
}

// IsConnected returns the current connection state.
//
// Note: This reflects the last known state. For reliability,
// use HealthCheck which performs an active ping.
func (w *InfluxWriter) IsConnected() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.connected
}

// HealthCheck verifies the InfluxDB connection is alive and functioning.
func (w *InfluxWriter) HealthCheck(ctx context.Context) error {
	if !w.IsConnected() {
		return ErrInfluxNotConnected
	}

	checkCtx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer cancel()

	healthy, err := w.client.Ping(checkCtx)
	if err != nil {
		return fmt.Errorf("influxdb health check failed: %w", err)
	}
	if !healthy {
		return fmt.Errorf("influxdb health check failed: server not healthy")
	}

	return nil
}

// WriteSnapshot records one device snapshot.
//
// The point layout mirrors the line protocol renderer: per-input solar
// records, per-output records, one aggregate record, and the host
// battery flags, all under the "hmtk" measurement with device identity
// tags and the snapshot's capture time. The write is non-blocking.
func (w *InfluxWriter) WriteSnapshot(device hame.DeviceOptions, info hame.DeviceInfo) {
	if !w.IsConnected() {
		return
	}

	tags := func(extra ...string) map[string]string {
		t := map[string]string{
			"device_type": device.Type,
			"device_mac":  device.MAC,
		}
		for i := 0; i+1 < len(extra); i += 2 {
			t[extra[i]] = extra[i+1]
		}
		return t
	}

	for i, solar := range []hame.SolarInfo{info.Solar1, info.Solar2} {
		w.writeAPI.WritePoint(write.NewPoint("hmtk",
			tags("solar", fmt.Sprintf("%d", i+1)),
			map[string]interface{}{
				"solar_charging":     solar.Charging,
				"solar_pass_through": solar.PassThrough,
				"solar_power":        uint32(solar.Power),
			},
			info.Timestamp,
		))
	}

	for i, output := range []hame.OutputInfo{info.Output1, info.Output2} {
		w.writeAPI.WritePoint(write.NewPoint("hmtk",
			tags("output", fmt.Sprintf("%d", i+1)),
			map[string]interface{}{
				"output_active": output.Active,
				"output_power":  uint32(output.Power),
			},
			info.Timestamp,
		))
	}

	w.writeAPI.WritePoint(write.NewPoint("hmtk",
		tags(),
		map[string]interface{}{
			"scene":                    info.Scene.String(),
			"temperature_min":          int32(info.Temperature.Min),
			"temperature_max":          int32(info.Temperature.Max),
			"battery_charge":           uint8(info.Battery.Charge),
			"battery_capacity":         uint32(info.Battery.Capacity),
			"battery_output_threshold": uint32(info.Battery.OutputThreshold),
			"battery_discharge_depth":  uint8(info.Battery.DischargeDepth),
		},
		info.Timestamp,
	))

	w.writeAPI.WritePoint(write.NewPoint("hmtk",
		tags("battery_cell", "internal"),
		map[string]interface{}{
			"battery_cell_charging":        info.Battery.Internal.Charging,
			"battery_cell_discharging":     info.Battery.Internal.Discharging,
			"battery_cell_discharge_depth": info.Battery.Internal.DischargeDepth,
			"battery_cell_undervoltage":    info.Battery.Internal.Undervoltage,
		},
		info.Timestamp,
	))
}

// Flush forces all pending writes to be sent to InfluxDB.
//
// This blocks until all buffered points are written.
// Safe to call after Close() (no-op).
func (w *InfluxWriter) Flush() {
	if w.writeAPI == nil {
		return
	}

	w.mu.RLock()
	connected := w.connected
	w.mu.RUnlock()

	if !connected {
		return
	}

	w.writeAPI.Flush()
}

// Close gracefully shuts down the InfluxDB connection.
//
// It flushes any pending writes, then closes the underlying client.
func (w *InfluxWriter) Close() error {
	if w.client == nil {
		return nil
	}

	w.mu.Lock()
	w.connected = false
	w.mu.Unlock()

	w.writeAPI.Flush()
	w.client.Close()

	return nil
}
