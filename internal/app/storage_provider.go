package app

import (
	"errors"
	"fmt"

	"github.com/yungbote/queueflow-backend/internal/platform/gcp"
	"github.com/yungbote/queueflow-backend/internal/platform/logger"
)

// swapped in tests
var (
	resolveStorageConfig       = gcp.ResolveObjectStorageConfigFromEnv
	newBucketServiceWithConfig = gcp.NewBucketServiceWithConfig
)

type StorageStage string

const (
	StorageStageConfig  StorageStage = "config"
	StorageStageConnect StorageStage = "connect"
)

// StorageBootstrapError says which step of bringing up object storage failed.
type StorageBootstrapError struct {
	Stage StorageStage
	Mode  gcp.ObjectStorageMode
	Cause error
}

func (e *StorageBootstrapError) Error() string {
	return fmt.Sprintf("object storage %s failed (mode=%s): %v", e.Stage, e.Mode, e.Cause)
}

func (e *StorageBootstrapError) Unwrap() error { return e.Cause }

// openObjectStorage returns (nil, nil) when no buckets are configured. Logo and
// ad endpoints then answer 503 and new branches get no generated logo.
func openObjectStorage(log *logger.Logger) (gcp.BucketService, error) {
	cfg, err := resolveStorageConfig()
	if err != nil {
		var cfgErr *gcp.ObjectStorageConfigError
		if !errors.As(err, &cfgErr) {
			err = &gcp.ObjectStorageConfigError{Field: "OBJECT_STORAGE_MODE", Value: err.Error()}
		}
		return nil, &StorageBootstrapError{Stage: StorageStageConfig, Mode: cfg.Mode, Cause: err}
	}
	if !cfg.HasBuckets() {
		log.Warn("object storage buckets not configured; logo and ad uploads are disabled")
		return nil, nil
	}
	bucket, err := newBucketServiceWithConfig(log, cfg)
	if err != nil {
		return nil, &StorageBootstrapError{Stage: StorageStageConnect, Mode: cfg.Mode, Cause: err}
	}
	return bucket, nil
}
