package realtime

import (
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/yungbote/queueflow-backend/internal/platform/logger"
)

const clientBuffer = 32

// SSEClient is one open event stream. Display boards connect without a user.
type SSEClient struct {
	ID       uuid.UUID
	UserID   uuid.UUID
	BranchID uuid.UUID
	Channels map[string]bool
	Outbound chan SSEMessage

	dropped atomic.Int64
	done    chan struct{}
	log     *logger.Logger
}

func newSSEClient(log *logger.Logger, userID, branchID uuid.UUID) *SSEClient {
	id := uuid.New()
	return &SSEClient{
		ID:       id,
		UserID:   userID,
		BranchID: branchID,
		Channels: make(map[string]bool),
		Outbound: make(chan SSEMessage, clientBuffer),
		done:     make(chan struct{}),
		log:      log.With("client_id", id, "branch_id", branchID),
	}
}

// offer queues msg without blocking and reports whether it fit.
func (c *SSEClient) offer(msg SSEMessage) bool {
	select {
	case c.Outbound <- msg:
		return true
	default:
		c.dropped.Add(1)
		return false
	}
}

// Dropped is the number of messages discarded because the client lagged.
func (c *SSEClient) Dropped() int64 { return c.dropped.Load() }

func (c *SSEClient) closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}
