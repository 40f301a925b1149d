package app

import (
	"fmt"

	"github.com/yungbote/queueflow-backend/internal/platform/gcp"
	"github.com/yungbote/queueflow-backend/internal/platform/logger"
	"github.com/yungbote/queueflow-backend/internal/realtime/bus"
)

type Clients struct {
	SSEBus bus.Bus
	Bucket gcp.BucketService
}

func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	var sseBus bus.Bus
	if cfg.Redis.Addr != "" {
		b, err := bus.NewRedisBus(log, cfg.Redis)
		if err != nil {
			return Clients{}, fmt.Errorf("init redis SSE bus: %w", err)
		}
		sseBus = b
	}

	bucket, err := openObjectStorage(log)
	if err != nil {
		if sseBus != nil {
			_ = sseBus.Close()
		}
		return Clients{}, err
	}

	return Clients{SSEBus: sseBus, Bucket: bucket}, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.SSEBus != nil {
		_ = c.SSEBus.Close()
	}
}
