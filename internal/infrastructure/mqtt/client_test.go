package mqtt

import (
	"errors"
	"testing"

	"github.com/Dav1dde/hmtk/internal/infrastructure/config"
)

// testClient returns an unconnected client suitable for exercising
// validation and event stream behaviour without a broker.
func testClient() *Client {
	return &Client{
		subscriptions: make(map[string]byte),
		events:        make(chan Event, eventBufferSize),
	}
}

// =============================================================================
// Validation Tests
// =============================================================================

func TestPublishEmptyTopic(t *testing.T) {
	c := testClient()

	err := c.Publish("", []byte("cd=1"), 1, false)
	if !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("Publish() error = %v, want ErrInvalidTopic", err)
	}
}

func TestPublishInvalidQoS(t *testing.T) {
	c := testClient()

	err := c.Publish("hame_energy/HMA-1/App/abc/ctrl", []byte("cd=1"), 3, false)
	if !errors.Is(err, ErrInvalidQoS) {
		t.Errorf("Publish() error = %v, want ErrInvalidQoS", err)
	}
}

func TestPublishNotConnected(t *testing.T) {
	c := testClient()

	err := c.Publish("hame_energy/HMA-1/App/abc/ctrl", []byte("cd=1"), 1, false)
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("Publish() error = %v, want ErrNotConnected", err)
	}
}

func TestPublishOversizedPayload(t *testing.T) {
	c := testClient()

	err := c.Publish("topic", make([]byte, maxPayloadSize+1), 1, false)
	if !errors.Is(err, ErrPublishFailed) {
		t.Errorf("Publish() error = %v, want ErrPublishFailed", err)
	}
}

func TestSubscribeEmptyTopic(t *testing.T) {
	c := testClient()

	err := c.Subscribe("", 0)
	if !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("Subscribe() error = %v, want ErrInvalidTopic", err)
	}
}

func TestSubscribeNotConnected(t *testing.T) {
	c := testClient()

	err := c.Subscribe("hame_energy/HMA-1/device/abc/ctrl", 0)
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("Subscribe() error = %v, want ErrNotConnected", err)
	}
	if c.SubscriptionCount() != 0 {
		t.Errorf("SubscriptionCount() = %d after failed subscribe, want 0", c.SubscriptionCount())
	}
}

// =============================================================================
// Event Stream Tests
// =============================================================================

func TestEmitDelivers(t *testing.T) {
	c := testClient()

	c.emit(PublishEvent{Topic: "t", Payload: []byte("p1=1")})

	select {
	case ev := <-c.Events():
		pub, ok := ev.(PublishEvent)
		if !ok {
			t.Fatalf("event = %T, want PublishEvent", ev)
		}
		if pub.Topic != "t" || string(pub.Payload) != "p1=1" {
			t.Errorf("PublishEvent = %+v", pub)
		}
	default:
		t.Fatal("expected an event on the stream")
	}
}

func TestEmitDropsWhenFull(t *testing.T) {
	c := testClient()

	for i := 0; i < eventBufferSize+10; i++ {
		c.emit(PublishEvent{Topic: "t"})
	}

	// Must not have blocked; the buffer holds exactly its capacity.
	if got := len(c.events); got != eventBufferSize {
		t.Errorf("len(events) = %d, want %d", got, eventBufferSize)
	}
}

func TestDisconnectEventSequence(t *testing.T) {
	c := testClient()

	c.Disconnect()

	ev, ok := <-c.Events()
	if !ok {
		t.Fatal("event stream closed before DisconnectEvent")
	}
	if _, isDisconnect := ev.(DisconnectEvent); !isDisconnect {
		t.Fatalf("first event = %T, want DisconnectEvent", ev)
	}

	ev, ok = <-c.Events()
	if !ok {
		t.Fatal("event stream closed before ConnectionLostEvent")
	}
	lost, isLost := ev.(ConnectionLostEvent)
	if !isLost {
		t.Fatalf("second event = %T, want ConnectionLostEvent", ev)
	}
	if !errors.Is(lost.Err, ErrConnectionClosed) {
		t.Errorf("ConnectionLostEvent.Err = %v, want ErrConnectionClosed", lost.Err)
	}

	if _, ok := <-c.Events(); ok {
		t.Error("event stream still open after disconnect sequence")
	}
}

func TestDisconnectIdempotent(t *testing.T) {
	c := testClient()

	c.Disconnect()
	c.Disconnect() // must not panic or emit again

	count := 0
	for range c.Events() {
		count++
	}
	if count != 2 {
		t.Errorf("event count = %d, want 2 (one disconnect, one connection lost)", count)
	}
}

func TestEmitAfterCloseIsNoop(t *testing.T) {
	c := testClient()
	c.Disconnect()

	// Late paho callback after teardown must not panic.
	c.emit(PublishEvent{Topic: "t"})
}

// =============================================================================
// Option Building Tests
// =============================================================================

func TestBuildClientOptions(t *testing.T) {
	cfg := config.MQTTConfig{
		Broker: config.MQTTBrokerConfig{
			Host:     "broker.local",
			Port:     1883,
			ClientID: "hmtk-test",
		},
		Auth: config.MQTTAuthConfig{
			Username: "user",
			Password: "pass",
		},
		QoS: 1,
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 1,
			MaxDelay:     60,
		},
	}

	opts := buildClientOptions(cfg)

	if len(opts.Servers) != 1 {
		t.Fatalf("len(Servers) = %d, want 1", len(opts.Servers))
	}
	if got := opts.Servers[0].String(); got != "tcp://broker.local:1883" {
		t.Errorf("broker URL = %q, want %q", got, "tcp://broker.local:1883")
	}
	if opts.ClientID != "hmtk-test" {
		t.Errorf("ClientID = %q, want %q", opts.ClientID, "hmtk-test")
	}
	if opts.Username != "user" {
		t.Errorf("Username = %q, want %q", opts.Username, "user")
	}
}

func TestBuildClientOptionsTLS(t *testing.T) {
	cfg := config.MQTTConfig{
		Broker: config.MQTTBrokerConfig{
			Host:     "broker.local",
			Port:     8883,
			TLS:      true,
			ClientID: "hmtk-test",
		},
	}

	opts := buildClientOptions(cfg)

	if got := opts.Servers[0].Scheme; got != "ssl" {
		t.Errorf("broker scheme = %q, want %q", got, "ssl")
	}
	if opts.TLSConfig == nil {
		t.Fatal("TLSConfig = nil, want configured")
	}
	if opts.TLSConfig.MinVersion != tlsMinVersion {
		t.Errorf("TLSConfig.MinVersion = %d, want %d", opts.TLSConfig.MinVersion, tlsMinVersion)
	}
}
