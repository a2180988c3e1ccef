package export

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Dav1dde/hmtk/internal/hame"
)

// Querier is the device session surface the collector scrapes.
// Satisfied by *hame.Device.
type Querier interface {
	Info(ctx context.Context) (hame.DeviceInfo, error)
	Options() hame.DeviceOptions
}

// CollectorLogger is the subset of logging.Logger the collector uses.
type CollectorLogger interface {
	Warn(msg string, args ...any)
}

// Collector exposes the current device status as Prometheus metrics.
//
// Each scrape issues a fresh status refresh over MQTT, so the scrape
// interval is also the device polling interval. A failed refresh is
// reported through hmtk_scrape_success instead of failing the scrape.
type Collector struct {
	querier Querier
	timeout time.Duration
	logger  CollectorLogger

	solarCharging           *prometheus.Desc
	solarPassThrough        *prometheus.Desc
	solarPower              *prometheus.Desc
	outputActive            *prometheus.Desc
	outputPower             *prometheus.Desc
	temperature             *prometheus.Desc
	batteryCharge           *prometheus.Desc
	batteryCapacity         *prometheus.Desc
	batteryThreshold        *prometheus.Desc
	batteryDepth            *prometheus.Desc
	batteryCellCharging     *prometheus.Desc
	batteryCellDischarging  *prometheus.Desc
	batteryCellDepth        *prometheus.Desc
	batteryCellUndervoltage *prometheus.Desc
	scene                   *prometheus.Desc
	scrapeSuccess           *prometheus.Desc
}

// NewCollector creates a collector scraping one device session.
//
// Parameters:
//   - querier: Device session to refresh on each scrape
//   - timeout: Per-scrape refresh timeout
//   - logger: Warn sink for scrape failures, may be nil
func NewCollector(querier Querier, timeout time.Duration, logger CollectorLogger) *Collector {
	device := []string{"device_type", "device_mac"}
	solar := append(append([]string{}, device...), "solar")
	output := append(append([]string{}, device...), "output")
	bound := append(append([]string{}, device...), "bound")
	scene := append(append([]string{}, device...), "scene")

	return &Collector{
		querier: querier,
		timeout: timeout,
		logger:  logger,
		solarCharging: prometheus.NewDesc(
			"hmtk_solar_charging",
			"Solar input is charging the battery (1=yes, 0=no)",
			solar, nil,
		),
		solarPassThrough: prometheus.NewDesc(
			"hmtk_solar_pass_through",
			"Solar input is passing power through to the outputs (1=yes, 0=no)",
			solar, nil,
		),
		solarPower: prometheus.NewDesc(
			"hmtk_solar_power_watts",
			"Solar input power in watts",
			solar, nil,
		),
		outputActive: prometheus.NewDesc(
			"hmtk_output_active",
			"Power output is active (1=yes, 0=no)",
			output, nil,
		),
		outputPower: prometheus.NewDesc(
			"hmtk_output_power_watts",
			"Power output in watts",
			output, nil,
		),
		temperature: prometheus.NewDesc(
			"hmtk_temperature_celsius",
			"Reported temperature bound in degrees Celsius",
			bound, nil,
		),
		batteryCharge: prometheus.NewDesc(
			"hmtk_battery_charge_percent",
			"Battery charge level in percent",
			device, nil,
		),
		batteryCapacity: prometheus.NewDesc(
			"hmtk_battery_capacity_watt_hours",
			"Battery capacity in watt hours",
			device, nil,
		),
		batteryThreshold: prometheus.NewDesc(
			"hmtk_battery_output_threshold_watts",
			"Configured battery output threshold in watts",
			device, nil,
		),
		batteryDepth: prometheus.NewDesc(
			"hmtk_battery_discharge_depth_percent",
			"Configured discharge depth in percent",
			device, nil,
		),
		batteryCellCharging: prometheus.NewDesc(
			"hmtk_battery_cell_charging",
			"Host battery is charging (1=yes, 0=no)",
			device, nil,
		),
		batteryCellDischarging: prometheus.NewDesc(
			"hmtk_battery_cell_discharging",
			"Host battery is discharging (1=yes, 0=no)",
			device, nil,
		),
		batteryCellDepth: prometheus.NewDesc(
			"hmtk_battery_cell_discharge_depth",
			"Host battery discharge depth flag (1=yes, 0=no)",
			device, nil,
		),
		batteryCellUndervoltage: prometheus.NewDesc(
			"hmtk_battery_cell_undervoltage",
			"Host battery undervoltage flag (1=yes, 0=no)",
			device, nil,
		),
		scene: prometheus.NewDesc(
			"hmtk_scene",
			"Ambient light scene currently reported (1 for the active scene)",
			scene, nil,
		),
		scrapeSuccess: prometheus.NewDesc(
			"hmtk_scrape_success",
			"Whether refreshing the device status succeeded",
			device, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.solarCharging
	ch <- c.solarPassThrough
	ch <- c.solarPower
	ch <- c.outputActive
	ch <- c.outputPower
	ch <- c.temperature
	ch <- c.batteryCharge
	ch <- c.batteryCapacity
	ch <- c.batteryThreshold
	ch <- c.batteryDepth
	ch <- c.batteryCellCharging
	ch <- c.batteryCellDischarging
	ch <- c.batteryCellDepth
	ch <- c.batteryCellUndervoltage
	ch <- c.scene
	ch <- c.scrapeSuccess
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	options := c.querier.Options()
	labels := []string{options.Type, options.MAC}

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	info, err := c.querier.Info(ctx)
	if err != nil {
		if c.logger != nil {
			c.logger.Warn("status refresh failed during scrape", "error", err)
		}
		ch <- prometheus.MustNewConstMetric(c.scrapeSuccess, prometheus.GaugeValue, 0, labels...)
		return
	}

	ch <- prometheus.MustNewConstMetric(c.scrapeSuccess, prometheus.GaugeValue, 1, labels...)

	for i, solar := range []hame.SolarInfo{info.Solar1, info.Solar2} {
		solarLabels := append(append([]string{}, labels...), indexLabel(i))
		ch <- prometheus.MustNewConstMetric(c.solarCharging, prometheus.GaugeValue, boolValue(solar.Charging), solarLabels...)
		ch <- prometheus.MustNewConstMetric(c.solarPassThrough, prometheus.GaugeValue, boolValue(solar.PassThrough), solarLabels...)
		ch <- prometheus.MustNewConstMetric(c.solarPower, prometheus.GaugeValue, float64(solar.Power), solarLabels...)
	}

	for i, output := range []hame.OutputInfo{info.Output1, info.Output2} {
		outputLabels := append(append([]string{}, labels...), indexLabel(i))
		ch <- prometheus.MustNewConstMetric(c.outputActive, prometheus.GaugeValue, boolValue(output.Active), outputLabels...)
		ch <- prometheus.MustNewConstMetric(c.outputPower, prometheus.GaugeValue, float64(output.Power), outputLabels...)
	}

	minLabels := append(append([]string{}, labels...), "min")
	maxLabels := append(append([]string{}, labels...), "max")
	ch <- prometheus.MustNewConstMetric(c.temperature, prometheus.GaugeValue, float64(info.Temperature.Min), minLabels...)
	ch <- prometheus.MustNewConstMetric(c.temperature, prometheus.GaugeValue, float64(info.Temperature.Max), maxLabels...)

	ch <- prometheus.MustNewConstMetric(c.batteryCharge, prometheus.GaugeValue, float64(info.Battery.Charge), labels...)
	ch <- prometheus.MustNewConstMetric(c.batteryCapacity, prometheus.GaugeValue, float64(info.Battery.Capacity), labels...)
	ch <- prometheus.MustNewConstMetric(c.batteryThreshold, prometheus.GaugeValue, float64(info.Battery.OutputThreshold), labels...)
	ch <- prometheus.MustNewConstMetric(c.batteryDepth, prometheus.GaugeValue, float64(info.Battery.DischargeDepth), labels...)

	ch <- prometheus.MustNewConstMetric(c.batteryCellCharging, prometheus.GaugeValue, boolValue(info.Battery.Internal.Charging), labels...)
	ch <- prometheus.MustNewConstMetric(c.batteryCellDischarging, prometheus.GaugeValue, boolValue(info.Battery.Internal.Discharging), labels...)
	ch <- prometheus.MustNewConstMetric(c.batteryCellDepth, prometheus.GaugeValue, boolValue(info.Battery.Internal.DischargeDepth), labels...)
	ch <- prometheus.MustNewConstMetric(c.batteryCellUndervoltage, prometheus.GaugeValue, boolValue(info.Battery.Internal.Undervoltage), labels...)

	sceneLabels := append(append([]string{}, labels...), info.Scene.String())
	ch <- prometheus.MustNewConstMetric(c.scene, prometheus.GaugeValue, 1, sceneLabels...)
}

func indexLabel(i int) string {
	if i == 0 {
		return "1"
	}
	return "2"
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
