package hame

import (
	"context"
	"errors"
	"time"

	"github.com/Dav1dde/hmtk/internal/infrastructure/mqtt"
)

// loopState is the event loop's lifecycle state.
type loopState int

const (
	// loopRunning is the normal polling state.
	loopRunning loopState = iota

	// loopDisconnectRequested is entered when the client announced a
	// disconnect; the next matching connection loss is the expected
	// shutdown signal, not an error.
	loopDisconnectRequested

	// loopTerminated is the final state; the loop exits cleanly.
	loopTerminated
)

// transition computes the next loop state for a transport event.
//
// Kept free of side effects so the disconnect/connection-abort race is
// auditable in isolation: only the connection loss that carries the
// expected post-disconnect error, observed after a disconnect request,
// terminates the loop.
func transition(state loopState, ev mqtt.Event) loopState {
	switch ev := ev.(type) {
	case mqtt.DisconnectEvent:
		if state == loopRunning {
			return loopDisconnectRequested
		}
	case mqtt.ConnectionLostEvent:
		if state == loopDisconnectRequested && errors.Is(ev.Err, mqtt.ErrConnectionClosed) {
			return loopTerminated
		}
	}
	return state
}

// Logger is the subset of logging.Logger the loop uses.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

// Loop owns the transport's event stream for one device session.
//
// It classifies transport events, drives status payloads through the
// decode pipeline into the latest-snapshot slot, and implements the
// disconnect state machine. Exactly one Loop consumes a transport's
// events; the loop is the slot's only writer.
type Loop struct {
	events      <-chan mqtt.Event
	statusTopic string
	slot        *snapshotSlot
	state       loopState
	logger      Logger
}

// SetLogger sets a logger for event tracing.
// Must be called before Run.
func (l *Loop) SetLogger(logger Logger) {
	l.logger = logger
}

// Run drives the event loop until the session ends.
//
// The loop exits cleanly (nil) when the disconnect handshake completes
// or the transport's event stream closes; it returns the context error
// if ctx ends first. On exit the snapshot slot is closed so pending
// queries fail with ErrSessionClosed instead of hanging.
//
// A malformed status payload is logged and discarded; it does not
// terminate the loop. Transient connection errors are logged and the
// transport's own reconnection takes over.
func (l *Loop) Run(ctx context.Context) error {
	defer l.slot.close()

	for l.state != loopTerminated {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-l.events:
			if !ok {
				// Transport torn down; no further status can arrive.
				return nil
			}
			l.handle(ev)
		}
	}

	return nil
}

// handle performs the side effects for one event, then applies the
// state transition.
func (l *Loop) handle(ev mqtt.Event) {
	next := transition(l.state, ev)

	switch ev := ev.(type) {
	case mqtt.PublishEvent:
		l.handlePublish(ev)
	case mqtt.DisconnectEvent:
		l.debug("client wants to disconnect")
	case mqtt.ConnectionLostEvent:
		if next != loopTerminated {
			l.warn("connection error", "error", ev.Err)
		}
	}

	l.state = next
}

// handlePublish decodes a status payload and publishes the snapshot.
//
// Messages on foreign topics are observed only. Decode failures are
// recoverable at payload granularity: log and wait for the next status.
func (l *Loop) handlePublish(ev mqtt.PublishEvent) {
	if ev.Topic != l.statusTopic {
		l.debug("received message on foreign topic", "topic", ev.Topic)
		return
	}

	l.debug("received status", "topic", ev.Topic, "bytes", len(ev.Payload))

	msg, err := ParseMessage(ev.Payload)
	if err != nil {
		l.warn("discarding malformed status payload", "error", err)
		return
	}

	raw, err := DecodeDeviceInfo(msg)
	if err != nil {
		l.warn("discarding undecodable status payload", "error", err)
		return
	}

	l.slot.publish(NewDeviceInfo(raw, time.Now()))
}

func (l *Loop) debug(msg string, args ...any) {
	if l.logger != nil {
		l.logger.Debug(msg, args...)
	}
}

func (l *Loop) warn(msg string, args ...any) {
	if l.logger != nil {
		l.logger.Warn(msg, args...)
	}
}
