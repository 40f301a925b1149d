package bus

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/queueflow-backend/internal/platform/logger"
	"github.com/yungbote/queueflow-backend/internal/realtime"
)

type failingBus struct{ calls int }

func (f *failingBus) Publish(context.Context, realtime.SSEMessage) error {
	f.calls++
	return errors.New("down")
}
func (f *failingBus) StartForwarder(context.Context, func(realtime.SSEMessage)) error { return nil }
func (f *failingBus) Close() error                                                 { return nil }

func subscribe(t *testing.T, hub *realtime.SSEHub) (*realtime.SSEClient, string) {
	t.Helper()
	branch := uuid.New()
	c := hub.NewSSEClient(uuid.Nil, branch)
	ch := realtime.BranchChannel(branch)
	hub.AddChannel(c, ch)
	return c, ch
}

func TestPublisherLocalDelivery(t *testing.T) {
	log := logger.Nop()
	hub := realtime.NewSSEHub(log)
	client, ch := subscribe(t, hub)

	p := NewPublisher(log, hub, nil)
	p.Publish(context.Background(), realtime.SSEMessage{Channel: ch, Event: realtime.SSEEventTicketIssued})

	select {
	case msg := <-client.Outbound:
		if msg.Event != realtime.SSEEventTicketIssued {
			t.Fatalf("got %s", msg.Event)
		}
	case <-time.After(time.Second):
		t.Fatalf("message not delivered")
	}
}

func TestPublisherFallsBackWhenBusFails(t *testing.T) {
	log := logger.Nop()
	hub := realtime.NewSSEHub(log)
	client, ch := subscribe(t, hub)
	fb := &failingBus{}

	p := NewPublisher(log, hub, fb)
	p.Publish(context.Background(), realtime.SSEMessage{Channel: ch, Event: realtime.SSEEventAdsChanged})

	if fb.calls != 1 {
		t.Fatalf("bus not attempted")
	}
	select {
	case <-client.Outbound:
	case <-time.After(time.Second):
		t.Fatalf("fallback delivery missing")
	}
}

func TestRecorder(t *testing.T) {
	r := &Recorder{}
	r.Publish(context.Background(), realtime.SSEMessage{Event: realtime.SSEEventTicketCalled})
	if ev := r.Events(); len(ev) != 1 || ev[0] != realtime.SSEEventTicketCalled {
		t.Fatalf("recorder: %v", ev)
	}
}

func TestNewRedisBusRequiresAddr(t *testing.T) {
	if _, err := NewRedisBus(logger.Nop(), RedisConfig{}); err == nil {
		t.Fatalf("expected error without address")
	}
}

func TestRedisConfigChannelDefault(t *testing.T) {
	if got := (RedisConfig{Channel: "  "}).channel(); got != defaultRedisChannel {
		t.Fatalf("channel = %q", got)
	}
	if got := (RedisConfig{Channel: "qf:test"}).channel(); got != "qf:test" {
		t.Fatalf("channel = %q", got)
	}
}

func TestClosedRedisBusRefusesWork(t *testing.T) {
	b := &redisBus{log: logger.Nop()}
	if err := b.Publish(context.Background(), realtime.SSEMessage{}); !errors.Is(err, errBusClosed) {
		t.Fatalf("Publish on closed bus: %v", err)
	}
	if err := b.StartForwarder(context.Background(), func(realtime.SSEMessage) {}); !errors.Is(err, errBusClosed) {
		t.Fatalf("StartForwarder on closed bus: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
