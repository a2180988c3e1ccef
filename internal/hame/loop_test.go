package hame

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Dav1dde/hmtk/internal/infrastructure/mqtt"
)

func TestTransition(t *testing.T) {
	tests := []struct {
		name  string
		state loopState
		ev    mqtt.Event
		want  loopState
	}{
		{
			name:  "publish keeps running",
			state: loopRunning,
			ev:    mqtt.PublishEvent{},
			want:  loopRunning,
		},
		{
			name:  "disconnect request",
			state: loopRunning,
			ev:    mqtt.DisconnectEvent{},
			want:  loopDisconnectRequested,
		},
		{
			name:  "unrequested connection loss keeps running",
			state: loopRunning,
			ev:    mqtt.ConnectionLostEvent{Err: errors.New("broken pipe")},
			want:  loopRunning,
		},
		{
			name:  "expected loss after disconnect terminates",
			state: loopDisconnectRequested,
			ev:    mqtt.ConnectionLostEvent{Err: mqtt.ErrConnectionClosed},
			want:  loopTerminated,
		},
		{
			name:  "unexpected loss after disconnect keeps waiting",
			state: loopDisconnectRequested,
			ev:    mqtt.ConnectionLostEvent{Err: errors.New("broken pipe")},
			want:  loopDisconnectRequested,
		},
		{
			name:  "publish after disconnect request keeps waiting",
			state: loopDisconnectRequested,
			ev:    mqtt.PublishEvent{},
			want:  loopDisconnectRequested,
		},
		{
			name:  "expected loss without disconnect request keeps running",
			state: loopRunning,
			ev:    mqtt.ConnectionLostEvent{Err: mqtt.ErrConnectionClosed},
			want:  loopRunning,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := transition(tt.state, tt.ev); got != tt.want {
				t.Errorf("transition(%v, %T) = %v, want %v", tt.state, tt.ev, got, tt.want)
			}
		})
	}
}

const testStatusTopic = "hame_energy/HMA-1/device/0123456789ab/ctrl"

// newTestLoop wires a loop to a scripted event channel and a fresh slot.
func newTestLoop(events chan mqtt.Event) (*Loop, *snapshotSlot) {
	slot := newSnapshotSlot()
	return &Loop{
		events:      events,
		statusTopic: testStatusTopic,
		slot:        slot,
		state:       loopRunning,
	}, slot
}

// runLoop starts the loop and returns a channel carrying its result.
func runLoop(ctx context.Context, l *Loop) <-chan error {
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()
	return done
}

func waitLoop(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(time.Second):
		t.Fatal("loop did not exit")
		return nil
	}
}

func TestLoopPublishesSnapshot(t *testing.T) {
	events := make(chan mqtt.Event, 4)
	loop, slot := newTestLoop(events)
	gen := slot.subscribe()
	done := runLoop(context.Background(), loop)

	events <- mqtt.PublishEvent{Topic: testStatusTopic, Payload: []byte(deviceInfoPayload)}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	info, err := slot.next(ctx, gen)
	if err != nil {
		t.Fatalf("next() error = %v", err)
	}
	if info.Battery.Charge != 99 {
		t.Errorf("Battery.Charge = %d, want 99", info.Battery.Charge)
	}

	close(events)
	if err := waitLoop(t, done); err != nil {
		t.Errorf("Run() error = %v, want nil on channel close", err)
	}
}

func TestLoopSkipsMalformedPayload(t *testing.T) {
	events := make(chan mqtt.Event, 4)
	loop, slot := newTestLoop(events)
	gen := slot.subscribe()
	done := runLoop(context.Background(), loop)

	// Neither a broken payload nor one missing required fields stops the
	// loop; the following valid status still lands.
	events <- mqtt.PublishEvent{Topic: testStatusTopic, Payload: []byte("garbage")}
	events <- mqtt.PublishEvent{Topic: testStatusTopic, Payload: []byte("p1=1,p2=1")}
	events <- mqtt.PublishEvent{Topic: testStatusTopic, Payload: []byte(deviceInfoPayload)}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	info, err := slot.next(ctx, gen)
	if err != nil {
		t.Fatalf("next() error = %v", err)
	}
	if info.Solar1.Power != 23 {
		t.Errorf("Solar1.Power = %d, want 23", info.Solar1.Power)
	}

	close(events)
	waitLoop(t, done)
}

func TestLoopIgnoresForeignTopic(t *testing.T) {
	events := make(chan mqtt.Event, 4)
	loop, slot := newTestLoop(events)
	done := runLoop(context.Background(), loop)

	events <- mqtt.PublishEvent{
		Topic:   "hame_energy/HMA-1/device/ffffffffffff/ctrl",
		Payload: []byte(deviceInfoPayload),
	}
	close(events)
	waitLoop(t, done)

	if _, ok := slot.latest(); ok {
		t.Error("latest() ok = true, foreign topic payload must not be stored")
	}
}

func TestLoopDisconnectHandshake(t *testing.T) {
	events := make(chan mqtt.Event, 4)
	loop, slot := newTestLoop(events)
	done := runLoop(context.Background(), loop)

	events <- mqtt.DisconnectEvent{}
	events <- mqtt.ConnectionLostEvent{Err: mqtt.ErrConnectionClosed}

	if err := waitLoop(t, done); err != nil {
		t.Errorf("Run() error = %v, want nil after disconnect handshake", err)
	}

	if _, err := slot.next(context.Background(), slot.subscribe()); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("next() after loop exit: error = %v, want ErrSessionClosed", err)
	}
}

func TestLoopSurvivesTransientConnectionLoss(t *testing.T) {
	events := make(chan mqtt.Event, 4)
	loop, slot := newTestLoop(events)
	gen := slot.subscribe()
	done := runLoop(context.Background(), loop)

	events <- mqtt.ConnectionLostEvent{Err: errors.New("read timeout")}
	events <- mqtt.PublishEvent{Topic: testStatusTopic, Payload: []byte(deviceInfoPayload)}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := slot.next(ctx, gen); err != nil {
		t.Fatalf("next() after transient loss: error = %v", err)
	}

	close(events)
	waitLoop(t, done)
}

func TestLoopContextCancellation(t *testing.T) {
	events := make(chan mqtt.Event)
	loop, slot := newTestLoop(events)

	ctx, cancel := context.WithCancel(context.Background())
	done := runLoop(ctx, loop)
	cancel()

	if err := waitLoop(t, done); !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}

	if _, err := slot.next(context.Background(), slot.subscribe()); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("next() after cancelled loop: error = %v, want ErrSessionClosed", err)
	}
}
