package mqtt

import (
	"context"
	"fmt"
	"sync"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/Dav1dde/hmtk/internal/infrastructure/config"
)

// Client wraps paho.mqtt.golang with hmtk-specific functionality.
//
// It provides connection management, message publishing, subscription
// handling with automatic re-subscription on reconnect, and a single
// event stream (see Events) that delivers incoming messages and
// connection-level events to exactly one consumer.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
//   - The event stream must be consumed by a single goroutine; receipt
//     is never split across consumers.
type Client struct {
	client  pahomqtt.Client
	options *pahomqtt.ClientOptions
	cfg     config.MQTTConfig

	// subscriptions tracks active subscriptions for re-subscription on reconnect.
	subscriptions map[string]byte
	subMu         sync.RWMutex

	// connected tracks current connection state.
	connected bool
	connMu    sync.RWMutex

	// events carries incoming messages and connection events to the consumer.
	events   chan Event
	evClosed bool
	evMu     sync.Mutex

	disconnectOnce sync.Once

	// logger for error logging (optional, set via SetLogger).
	logger   Logger
	loggerMu sync.RWMutex
}

// Logger interface for optional logging support.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
}

// Connect establishes a connection to the MQTT broker.
//
// It performs the following setup:
//  1. Builds connection options from config (broker URL, auth, TLS)
//  2. Routes all received messages into the event stream
//  3. Sets up auto-reconnect with exponential backoff
//  4. Attempts initial connection with timeout
//
// Parameters:
//   - cfg: MQTT configuration
//
// Returns:
//   - *Client: Connected client ready for use
//   - error: If initial connection fails within timeout
func Connect(cfg config.MQTTConfig) (*Client, error) {
	opts := buildClientOptions(cfg)

	c := &Client{
		cfg:           cfg,
		options:       opts,
		subscriptions: make(map[string]byte),
		events:        make(chan Event, eventBufferSize),
	}

	// All subscribed messages arrive here; subscriptions are registered
	// with a nil handler so paho routes them to the default handler.
	opts.SetDefaultPublishHandler(func(_ pahomqtt.Client, msg pahomqtt.Message) {
		c.emit(PublishEvent{Topic: msg.Topic(), Payload: msg.Payload()})
	})

	opts.SetOnConnectHandler(func(_ pahomqtt.Client) {
		c.handleConnect()
	})

	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		c.handleConnectionLost(err)
	})

	// Create and connect
	c.client = pahomqtt.NewClient(opts)
	token := c.client.Connect()
	if !token.WaitTimeout(defaultConnectTimeout) {
		return nil, fmt.Errorf("%w: timeout after %v", ErrConnectionFailed, defaultConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	// Set connected state immediately after successful connection.
	// The OnConnectHandler callback runs asynchronously and may not have
	// executed yet, so we set it here to ensure IsConnected() returns true.
	c.connMu.Lock()
	c.connected = true
	c.connMu.Unlock()

	return c, nil
}

// Events returns the transport event stream.
//
// The stream yields PublishEvent for every message received on a
// subscribed topic, a DisconnectEvent when Disconnect is called, and a
// ConnectionLostEvent when the broker connection drops. The channel is
// closed after the ConnectionLostEvent that follows a requested
// disconnect; until then the client reconnects automatically and the
// stream stays open.
func (c *Client) Events() <-chan Event {
	return c.events
}

// handleConnect is called when the connection is established.
func (c *Client) handleConnect() {
	c.connMu.Lock()
	c.connected = true
	c.connMu.Unlock()

	// Restore subscriptions
	c.restoreSubscriptions()
}

// handleConnectionLost is called when the connection is lost unexpectedly.
func (c *Client) handleConnectionLost(err error) {
	c.connMu.Lock()
	c.connected = false
	c.connMu.Unlock()

	c.emit(ConnectionLostEvent{Err: err})
}

// restoreSubscriptions re-subscribes to all tracked topics after reconnect.
func (c *Client) restoreSubscriptions() {
	c.subMu.RLock()
	defer c.subMu.RUnlock()

	for topic, qos := range c.subscriptions {
		// Re-subscribe (ignore errors during reconnection)
		c.client.Subscribe(topic, qos, nil)
	}
}

// Disconnect gracefully disconnects from the MQTT broker.
//
// It emits a DisconnectEvent on the event stream, disconnects the paho
// client with a quiesce period for pending operations, then emits the
// final ConnectionLostEvent carrying ErrConnectionClosed and closes the
// event stream. An event-stream consumer observing that sequence knows
// the shutdown was requested rather than a transport failure.
//
// Only the first call has any effect.
func (c *Client) Disconnect() {
	c.disconnectOnce.Do(func() {
		c.emit(DisconnectEvent{})

		if c.client != nil {
			c.client.Disconnect(defaultDisconnectQuiesce)
		}

		c.connMu.Lock()
		c.connected = false
		c.connMu.Unlock()

		c.emit(ConnectionLostEvent{Err: ErrConnectionClosed})
		c.closeEvents()
	})
}

// closeEvents closes the event stream exactly once.
func (c *Client) closeEvents() {
	c.evMu.Lock()
	defer c.evMu.Unlock()
	if c.evClosed {
		return
	}
	c.evClosed = true
	close(c.events)
}

// emit delivers an event to the stream without blocking paho's callback
// goroutines. If the consumer is not keeping up the event is dropped;
// status messages are re-requestable so a drop costs one refresh.
func (c *Client) emit(ev Event) {
	c.evMu.Lock()
	defer c.evMu.Unlock()
	if c.evClosed {
		return
	}

	select {
	case c.events <- ev:
	default:
		if logger := c.getLogger(); logger != nil {
			logger.Warn("event stream full, dropping event", "event", fmt.Sprintf("%T", ev))
		}
	}
}

// HealthCheck verifies the MQTT connection is alive and functioning.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - error: nil if healthy, error describing the issue otherwise
func (c *Client) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("mqtt health check: %w", ctx.Err())
	default:
	}

	if !c.IsConnected() {
		return ErrNotConnected
	}

	return nil
}

// IsConnected returns the current connection state.
//
// Note: This reflects the last known state. For reliability,
// use HealthCheck which can perform an active test.
func (c *Client) IsConnected() bool {
	c.connMu.RLock()
	defer c.connMu.RUnlock()
	return c.connected && c.client.IsConnected()
}

// SetLogger sets a logger for error logging.
// If not set, dropped events and handler errors are silently ignored.
func (c *Client) SetLogger(logger Logger) {
	c.loggerMu.Lock()
	c.logger = logger
	c.loggerMu.Unlock()
}

// getLogger returns the current logger (may be nil).
func (c *Client) getLogger() Logger {
	c.loggerMu.RLock()
	defer c.loggerMu.RUnlock()
	return c.logger
}
