package bus

import (
	"context"

	"github.com/yungbote/queueflow-backend/internal/platform/logger"
	"github.com/yungbote/queueflow-backend/internal/realtime"
)

// Bus fans SSE messages out across API instances.
type Bus interface {
	Publish(ctx context.Context, msg realtime.SSEMessage) error
	StartForwarder(ctx context.Context, onMsg func(m realtime.SSEMessage)) error
	Close() error
}

// Publisher is what services use to emit realtime events.
type Publisher interface {
	Publish(ctx context.Context, msg realtime.SSEMessage)
}

type publisher struct {
	log *logger.Logger
	hub *realtime.SSEHub
	bus Bus
}

// NewPublisher sends through bus when one is configured, otherwise straight
// to the local hub. With a bus, local delivery happens via the forwarder.
func NewPublisher(log *logger.Logger, hub *realtime.SSEHub, b Bus) Publisher {
	return &publisher{log: log.With("component", "SSEPublisher"), hub: hub, bus: b}
}

func (p *publisher) Publish(ctx context.Context, msg realtime.SSEMessage) {
	if p.bus == nil {
		p.hub.Broadcast(msg)
		return
	}
	if err := p.bus.Publish(ctx, msg); err != nil {
		p.log.Warn("bus publish failed; delivering locally", "event", msg.Event, "error", err)
		p.hub.Broadcast(msg)
	}
}

// Recorder collects published messages; handy in tests.
type Recorder struct {
	Messages []realtime.SSEMessage
}

func (r *Recorder) Publish(_ context.Context, msg realtime.SSEMessage) {
	r.Messages = append(r.Messages, msg)
}

// Events lists the event names recorded so far.
func (r *Recorder) Events() []realtime.SSEEvent {
	out := make([]realtime.SSEEvent, 0, len(r.Messages))
	for _, m := range r.Messages {
		out = append(out, m.Event)
	}
	return out
}
