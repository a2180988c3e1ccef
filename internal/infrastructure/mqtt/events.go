package mqtt

// eventBufferSize is the capacity of the event stream channel.
// Emission never blocks paho's callback goroutines; events beyond this
// backlog are dropped (see Client.emit).
const eventBufferSize = 16

// Event is a single transport-level occurrence delivered on the client's
// event stream. Implementations: PublishEvent, DisconnectEvent,
// ConnectionLostEvent.
type Event interface {
	event()
}

// PublishEvent is a message received on a subscribed topic.
type PublishEvent struct {
	Topic   string
	Payload []byte
}

// DisconnectEvent reports that Disconnect was called on this client.
// The connection is about to be torn down; the matching
// ConnectionLostEvent follows.
type DisconnectEvent struct{}

// ConnectionLostEvent reports that the broker connection dropped.
//
// Err is ErrConnectionClosed when the drop is the direct consequence of
// a requested disconnect; any other error is a transport failure the
// client will recover from by reconnecting.
type ConnectionLostEvent struct {
	Err error
}

func (PublishEvent) event()        {}
func (DisconnectEvent) event()     {}
func (ConnectionLostEvent) event() {}
