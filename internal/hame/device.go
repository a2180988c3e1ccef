package hame

import (
	"context"
	"fmt"

	"github.com/Dav1dde/hmtk/internal/infrastructure/mqtt"
)

// topicNamespace is the root segment of all Hame MQTT topics.
const topicNamespace = "hame_energy"

// refreshCommand asks the device to publish a full device-info status
// on its ctrl topic.
const refreshCommand = "cd=1"

// DeviceOptions is the immutable device identity: the device type (as
// it appears in the topic hierarchy) and its MAC-derived address. Fixed
// at session construction; both protocol topics derive from it.
type DeviceOptions struct {
	Type string
	MAC  string
}

// StatusTopic returns the topic the device publishes its status on.
//
// Example: hame_energy/HMA-1/device/0123456789ab/ctrl
func (o DeviceOptions) StatusTopic() string {
	return fmt.Sprintf("%s/%s/device/%s/ctrl", topicNamespace, o.Type, o.MAC)
}

// ControlTopic returns the topic commands are published to.
//
// Example: hame_energy/HMA-1/App/0123456789ab/ctrl
func (o DeviceOptions) ControlTopic() string {
	return fmt.Sprintf("%s/%s/App/%s/ctrl", topicNamespace, o.Type, o.MAC)
}

// Transport is the subset of the MQTT client the device session uses.
// Satisfied by *mqtt.Client.
type Transport interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte) error
	Events() <-chan mqtt.Event
	Disconnect()
}

// Device is a session handle for one Hame energy storage device.
//
// A Device only publishes commands and reads the latest-snapshot slot;
// all transport event handling lives in the companion Loop. Handles may
// be shared across goroutines.
type Device struct {
	transport Transport
	options   DeviceOptions
	slot      *snapshotSlot
}

// NewDevice creates a device session and its event loop driver.
//
// It subscribes to the device's status topic immediately; a subscription
// failure is fatal (there is no session without status delivery). The
// returned Loop must be started (Loop.Run) for Info to ever complete.
//
// Parameters:
//   - transport: Connected MQTT transport; the loop takes exclusive
//     ownership of its event stream
//   - options: Immutable device identity
//
// Returns:
//   - *Device: Session handle
//   - *Loop: Event loop driver, to be run on its own goroutine
//   - error: If the status topic subscription fails
func NewDevice(transport Transport, options DeviceOptions) (*Device, *Loop, error) {
	if err := transport.Subscribe(options.StatusTopic(), 0); err != nil {
		return nil, nil, fmt.Errorf("subscribing to status topic: %w", err)
	}

	slot := newSnapshotSlot()

	dev := &Device{
		transport: transport,
		options:   options,
		slot:      slot,
	}
	loop := &Loop{
		events:      transport.Events(),
		statusTopic: options.StatusTopic(),
		slot:        slot,
		state:       loopRunning,
	}

	return dev, loop, nil
}

// Options returns the immutable device identity.
func (d *Device) Options() DeviceOptions {
	return d.options
}

// Info requests a status refresh and waits for the next decoded snapshot.
//
// The refresh command is published at QoS 1 on the control topic; the
// call then suspends until the event loop publishes a snapshot newer
// than the one visible when Info was called. The protocol carries no
// request correlation, so a refresh racing an independent in-flight
// status may resolve with a snapshot produced just before the command
// was sent.
//
// Fails if the publish fails, if the event loop has exited
// (ErrSessionClosed), or with the context error if ctx ends first.
func (d *Device) Info(ctx context.Context) (DeviceInfo, error) {
	// Capture the generation before publishing so a response arriving
	// faster than we can start waiting is not missed.
	gen := d.slot.subscribe()

	if err := d.transport.Publish(d.options.ControlTopic(), []byte(refreshCommand), 1, false); err != nil {
		return DeviceInfo{}, fmt.Errorf("publishing refresh command: %w", err)
	}

	return d.slot.next(ctx, gen)
}

// Latest returns the most recently decoded snapshot without issuing a
// refresh. The second return is false if no status was ever received.
func (d *Device) Latest() (DeviceInfo, bool) {
	return d.slot.latest()
}

// Disconnect requests a graceful transport shutdown.
//
// This tears down the connection for every handle sharing the
// transport; the session must not be queried afterwards.
func (d *Device) Disconnect() {
	d.transport.Disconnect()
}
