// Package mqtt provides MQTT client connectivity for hmtk.
//
// This package manages:
//   - Connection to the Hame cloud (or local) broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - A single transport event stream for the device session loop
//
// # Architecture
//
// Hame energy storage devices are not queried directly: both the device
// and its clients talk to an MQTT broker. The device publishes its status
// on its ctrl topic in response to a refresh command published on the
// app ctrl topic.
//
//	hmtk ↔ MQTT Broker ↔ B2500 device
//
// # Event Stream
//
// Unlike a callback-per-subscription design, this client funnels every
// received message and every connection-level event into one channel
// (Events). That gives the consumer exclusive ownership of transport
// events, which the device event loop needs to implement its
// running/disconnect-requested/terminated shutdown handshake:
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := client.Subscribe("hame_energy/+/device/+/ctrl", 0); err != nil {
//	    log.Fatal(err)
//	}
//	for ev := range client.Events() {
//	    switch ev := ev.(type) {
//	    case mqtt.PublishEvent:
//	        // decode ev.Payload
//	    case mqtt.DisconnectEvent:
//	        // shutdown requested
//	    case mqtt.ConnectionLostEvent:
//	        // transient unless it follows a DisconnectEvent
//	    }
//	}
//
// # Security Considerations
//
//   - TLS is required when talking to the Hame cloud broker (broker.tls)
//   - Credentials are validated against the broker
//   - Message payloads are not encrypted beyond TLS transport
package mqtt
