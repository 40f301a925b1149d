package gcp

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"

	"github.com/yungbote/queueflow-backend/internal/platform/logger"
)

type BucketCategory string

const (
	BucketCategoryLogo  BucketCategory = "logo"
	BucketCategoryMedia BucketCategory = "media"
)

type bucketConfig struct {
	name      string
	cdnDomain string
}

// BucketService stores branch logos and display-board media.
type BucketService interface {
	UploadFile(ctx context.Context, category BucketCategory, key string, file io.Reader) error
	DeleteFile(ctx context.Context, category BucketCategory, key string) error
	GetPublicURL(category BucketCategory, key string) string
}

type bucketService struct {
	log        *logger.Logger
	client     *storage.Client
	mode       ObjectStorageMode
	publicBase string
	buckets    map[BucketCategory]bucketConfig
}

func NewBucketServiceWithConfig(log *logger.Logger, cfg ObjectStorageConfig) (BucketService, error) {
	if err := ValidateObjectStorageConfig(cfg); err != nil {
		return nil, fmt.Errorf("validate object storage config: %w", err)
	}
	if !cfg.HasBuckets() {
		return nil, fmt.Errorf("LOGO_GCS_BUCKET_NAME and MEDIA_GCS_BUCKET_NAME are both required")
	}
	if cfg.IsEmulatorMode() {
		// the storage client only honours the emulator through the environment
		_ = os.Setenv("STORAGE_EMULATOR_HOST", cfg.EmulatorHost)
	}
	client, err := storage.NewClient(context.Background(), cfg.clientOptions()...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	publicBase := cfg.PublicBaseURL
	if publicBase == "" && cfg.IsEmulatorMode() {
		publicBase = cfg.EmulatorHost
	}
	bs := &bucketService{
		log:        log.With("service", "BucketService"),
		client:     client,
		mode:       cfg.Mode,
		publicBase: publicBase,
		buckets: map[BucketCategory]bucketConfig{
			BucketCategoryLogo:  {name: cfg.LogoBucket, cdnDomain: cfg.LogoCDN},
			BucketCategoryMedia: {name: cfg.MediaBucket, cdnDomain: cfg.MediaCDN},
		},
	}
	bs.log.Info("object storage ready", "mode", cfg.Mode, "logo_bucket", cfg.LogoBucket, "media_bucket", cfg.MediaBucket)
	return bs, nil
}

func (bs *bucketService) bucket(category BucketCategory) (bucketConfig, error) {
	cfg, ok := bs.buckets[category]
	if !ok {
		return bucketConfig{}, fmt.Errorf("unknown bucket category: %s", category)
	}
	return cfg, nil
}

func (bs *bucketService) UploadFile(ctx context.Context, category BucketCategory, key string, file io.Reader) error {
	cfg, err := bs.bucket(category)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := bs.client.Bucket(cfg.name).Object(key).NewWriter(ctx)
	if ct := ContentTypeForKey(key); ct != "" {
		w.ContentType = ct
	}
	w.CacheControl = "public, max-age=31536000"
	if _, err := io.Copy(w, file); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write object %q: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close writer for %q: %w", key, err)
	}
	bs.log.Debug("Object uploaded", "bucket", cfg.name, "key", key)
	return nil
}

func (bs *bucketService) DeleteFile(ctx context.Context, category BucketCategory, key string) error {
	cfg, err := bs.bucket(category)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := bs.client.Bucket(cfg.name).Object(key).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete object %q in bucket %q: %w", key, cfg.name, err)
	}
	return nil
}

func (bs *bucketService) GetPublicURL(category BucketCategory, key string) string {
	cfg, err := bs.bucket(category)
	if err != nil {
		return key
	}
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	switch {
	case cfg.cdnDomain != "":
		return fmt.Sprintf("https://%s/%s", cfg.cdnDomain, key)
	case bs.mode == ObjectStorageModeGCSEmulator && bs.publicBase != "":
		return fmt.Sprintf("%s/storage/v1/b/%s/o/%s?alt=media", bs.publicBase, url.PathEscape(cfg.name), url.PathEscape(key))
	case bs.publicBase != "":
		return fmt.Sprintf("%s/%s/%s", bs.publicBase, cfg.name, key)
	default:
		return fmt.Sprintf("https://storage.googleapis.com/%s/%s", cfg.name, key)
	}
}

// ContentTypeForKey guesses the content type from the key's extension.
func ContentTypeForKey(key string) string {
	switch strings.ToLower(path.Ext(strings.TrimSpace(key))) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	case ".gif":
		return "image/gif"
	case ".mp4", ".m4v":
		return "video/mp4"
	case ".webm":
		return "video/webm"
	case ".mov":
		return "video/quicktime"
	default:
		return ""
	}
}
