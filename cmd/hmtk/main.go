// hmtk - Hame energy storage toolkit
//
// hmtk talks to a Hame B2500-family energy storage device over MQTT and
// exposes its status in machine-readable formats:
//
//	hmtk query  - one-shot status query, JSON or InfluxDB line protocol
//	hmtk watch  - periodic polling into InfluxDB (or stdout)
//	hmtk serve  - Prometheus exporter, one device refresh per scrape
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Dav1dde/hmtk/internal/export"
	"github.com/Dav1dde/hmtk/internal/hame"
	"github.com/Dav1dde/hmtk/internal/infrastructure/config"
	"github.com/Dav1dde/hmtk/internal/infrastructure/logging"
	"github.com/Dav1dde/hmtk/internal/infrastructure/mqtt"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
)

const usageText = `Usage: hmtk [-config path] <command> [options]

Commands:
  query   Query the device once and print its status
          -format json|influx   output format (default json)
  watch   Poll the device periodically and record snapshots
          -interval duration    polling interval (default 30s)
  serve   Serve device status as Prometheus metrics
          -listen address       listen address (default from config)

Configuration is read from the -config file (or $HMTK_CONFIG) with
HMTK_* environment variable overrides; with no file the environment
alone must provide the device identity.
`

func main() {
	// Cancel on interrupt signals for graceful shutdown.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//   - args: Command line arguments without the program name
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context, args []string) error {
	global := flag.NewFlagSet("hmtk", flag.ContinueOnError)
	global.Usage = func() { fmt.Fprint(os.Stderr, usageText) }
	configPath := global.String("config", os.Getenv("HMTK_CONFIG"), "path to the YAML config file")
	if err := global.Parse(args); err != nil {
		return err
	}
	if global.NArg() < 1 {
		global.Usage()
		return errors.New("missing command")
	}
	command, commandArgs := global.Arg(0), global.Args()[1:]

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log := logging.New(cfg.Logging, version)
	log.Debug("configuration loaded", "path", *configPath)

	switch command {
	case "query":
		return runQuery(ctx, cfg, log, commandArgs)
	case "watch":
		return runWatch(ctx, cfg, log, commandArgs)
	case "serve":
		return runServe(ctx, cfg, log, commandArgs)
	default:
		global.Usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

// session bundles the MQTT connection and the device event loop.
type session struct {
	client   *mqtt.Client
	device   *hame.Device
	loopDone chan error
	log      *logging.Logger
}

// openSession connects to the broker and starts the device event loop.
func openSession(ctx context.Context, cfg *config.Config, log *logging.Logger) (*session, error) {
	client, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return nil, fmt.Errorf("connecting to broker: %w", err)
	}
	client.SetLogger(log.With("component", "mqtt"))
	log.Info("connected to broker",
		"host", cfg.MQTT.Broker.Host,
		"port", cfg.MQTT.Broker.Port,
	)

	device, loop, err := hame.NewDevice(client, hame.DeviceOptions{
		Type: cfg.Device.Type,
		MAC:  cfg.Device.MAC,
	})
	if err != nil {
		client.Disconnect()
		return nil, fmt.Errorf("creating device session: %w", err)
	}
	loop.SetLogger(log.With("component", "device"))

	s := &session{
		client:   client,
		device:   device,
		loopDone: make(chan error, 1),
		log:      log,
	}
	go func() {
		s.loopDone <- loop.Run(ctx)
	}()

	return s, nil
}

// close tears down the transport and waits for the event loop to exit.
func (s *session) close() {
	s.device.Disconnect()

	select {
	case err := <-s.loopDone:
		if err != nil && !errors.Is(err, context.Canceled) {
			s.log.Error("event loop exited with error", "error", err)
		}
	case <-time.After(5 * time.Second):
		s.log.Warn("event loop did not exit in time")
	}
}

// runQuery performs a one-shot status query and prints it to stdout.
func runQuery(ctx context.Context, cfg *config.Config, log *logging.Logger, args []string) error {
	flags := flag.NewFlagSet("hmtk query", flag.ContinueOnError)
	format := flags.String("format", "json", "output format: json or influx")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *format != "json" && *format != "influx" {
		return fmt.Errorf("unknown format %q (want json or influx)", *format)
	}

	s, err := openSession(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer s.close()

	queryCtx, cancel := context.WithTimeout(ctx, cfg.GetQueryTimeout())
	defer cancel()

	info, err := s.device.Info(queryCtx)
	if err != nil {
		return fmt.Errorf("querying device: %w", err)
	}

	var out string
	switch *format {
	case "json":
		out, err = export.JSON(info)
		if err != nil {
			return fmt.Errorf("rendering snapshot: %w", err)
		}
	case "influx":
		out = export.Lines(s.device.Options(), info)
	}

	fmt.Println(out)
	return nil
}

// runWatch polls the device on an interval and records each snapshot.
//
// With InfluxDB enabled in config, snapshots are pushed to the bucket;
// otherwise they are printed to stdout in line protocol, ready to pipe
// into Telegraf or a file.
func runWatch(ctx context.Context, cfg *config.Config, log *logging.Logger, args []string) error {
	flags := flag.NewFlagSet("hmtk watch", flag.ContinueOnError)
	interval := flags.Duration("interval", 30*time.Second, "polling interval")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *interval <= 0 {
		return fmt.Errorf("invalid interval %v", *interval)
	}

	var writer *export.InfluxWriter
	if cfg.InfluxDB.Enabled {
		w, err := export.ConnectInflux(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to influxdb: %w", err)
		}
		w.SetOnError(func(err error) {
			log.Error("influxdb write failed", "error", err)
		})
		defer func() {
			if closeErr := w.Close(); closeErr != nil {
				log.Error("error closing influxdb writer", "error", closeErr)
			}
		}()
		log.Info("influxdb connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
		writer = w
	}

	s, err := openSession(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer s.close()

	log.Info("watching device",
		"type", cfg.Device.Type,
		"mac", cfg.Device.MAC,
		"interval", *interval,
	)

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	for {
		if err := watchOnce(ctx, cfg, s, writer, log); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			log.Info("shutting down")
			return nil
		case <-ticker.C:
		}
	}
}

// watchOnce performs one poll cycle. A failed refresh is logged and
// skipped; the device may be briefly offline between polls.
func watchOnce(ctx context.Context, cfg *config.Config, s *session, writer *export.InfluxWriter, log *logging.Logger) error {
	queryCtx, cancel := context.WithTimeout(ctx, cfg.GetQueryTimeout())
	defer cancel()

	info, err := s.device.Info(queryCtx)
	if err != nil {
		if errors.Is(err, hame.ErrSessionClosed) {
			return fmt.Errorf("device session closed: %w", err)
		}
		if ctx.Err() != nil {
			return nil
		}
		log.Warn("status refresh failed, skipping poll", "error", err)
		return nil
	}

	if writer != nil {
		writer.WriteSnapshot(s.device.Options(), info)
	} else {
		fmt.Print(export.Lines(s.device.Options(), info))
	}
	log.Debug("snapshot recorded", "timestamp", info.Timestamp.Unix())

	return nil
}

// runServe exposes the device as a Prometheus scrape target.
func runServe(ctx context.Context, cfg *config.Config, log *logging.Logger, args []string) error {
	flags := flag.NewFlagSet("hmtk serve", flag.ContinueOnError)
	listen := flags.String("listen", cfg.Exporter.Listen, "listen address for the metrics endpoint")
	if err := flags.Parse(args); err != nil {
		return err
	}

	s, err := openSession(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer s.close()

	registry := prometheus.NewRegistry()
	collector := export.NewCollector(s.device, cfg.GetQueryTimeout(), log.With("component", "exporter"))
	if err := registry.Register(collector); err != nil {
		return fmt.Errorf("registering collector: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:              *listen,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()
	log.Info("metrics endpoint listening", "address", *listen)

	select {
	case err := <-serveErr:
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("error shutting down metrics server", "error", err)
	}

	return nil
}
