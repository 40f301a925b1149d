package gcp

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

type ObjectStorageMode string

const (
	ObjectStorageModeGCS         ObjectStorageMode = "gcs"
	ObjectStorageModeGCSEmulator ObjectStorageMode = "gcs_emulator"
)

// ObjectStorageConfig is everything the bucket service needs, resolved once at boot.
type ObjectStorageConfig struct {
	Mode         ObjectStorageMode
	EmulatorHost string
	// PublicBaseURL overrides the host used when building browser-facing URLs.
	PublicBaseURL string

	LogoBucket  string
	MediaBucket string
	LogoCDN     string
	MediaCDN    string

	// Credentials is inline service-account JSON or a path to it. Empty means ADC.
	Credentials string
}

func (cfg ObjectStorageConfig) IsEmulatorMode() bool {
	return cfg.Mode == ObjectStorageModeGCSEmulator
}

// HasBuckets reports whether both the logo and the media bucket are named.
func (cfg ObjectStorageConfig) HasBuckets() bool {
	return cfg.LogoBucket != "" && cfg.MediaBucket != ""
}

func (cfg ObjectStorageConfig) clientOptions() []option.ClientOption {
	if cfg.IsEmulatorMode() {
		return []option.ClientOption{option.WithoutAuthentication()}
	}
	opts := []option.ClientOption{option.WithScopes(storage.ScopeReadWrite)}
	switch {
	case cfg.Credentials == "":
	case strings.HasPrefix(cfg.Credentials, "{"):
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.Credentials)))
	default:
		opts = append(opts, option.WithCredentialsFile(cfg.Credentials))
	}
	return opts
}

type ObjectStorageConfigError struct {
	Field string
	Value string
}

func (e *ObjectStorageConfigError) Error() string {
	if e == nil {
		return "invalid object storage config"
	}
	switch {
	case e.Field == "OBJECT_STORAGE_MODE":
		return fmt.Sprintf("OBJECT_STORAGE_MODE must be %q or %q, got %q", ObjectStorageModeGCS, ObjectStorageModeGCSEmulator, e.Value)
	case e.Field == "STORAGE_EMULATOR_HOST" && e.Value == "":
		return "emulator mode needs STORAGE_EMULATOR_HOST"
	case strings.HasSuffix(e.Field, "_HOST"), strings.HasSuffix(e.Field, "_URL"):
		return fmt.Sprintf("%s must be an absolute URL, got %q", e.Field, e.Value)
	default:
		return fmt.Sprintf("bad %s value %q", e.Field, e.Value)
	}
}

func env(name string) string {
	return strings.TrimSpace(os.Getenv(name))
}

// ResolveObjectStorageConfigFromEnv reads the storage mode, emulator host, public base
// URL, bucket names, CDN domains and credentials. An emulator host without an explicit
// mode selects the emulator.
func ResolveObjectStorageConfigFromEnv() (ObjectStorageConfig, error) {
	cfg := ObjectStorageConfig{
		EmulatorHost:  strings.TrimRight(env("STORAGE_EMULATOR_HOST"), "/"),
		PublicBaseURL: strings.TrimRight(env("OBJECT_STORAGE_PUBLIC_BASE_URL"), "/"),
		LogoBucket:    env("LOGO_GCS_BUCKET_NAME"),
		MediaBucket:   env("MEDIA_GCS_BUCKET_NAME"),
		LogoCDN:       env("LOGO_CDN_DOMAIN"),
		MediaCDN:      env("MEDIA_CDN_DOMAIN"),
		Credentials:   env("GOOGLE_APPLICATION_CREDENTIALS_JSON"),
	}
	if cfg.Credentials == "" {
		cfg.Credentials = env("GOOGLE_APPLICATION_CREDENTIALS")
	}

	raw := env("OBJECT_STORAGE_MODE")
	cfg.Mode = ObjectStorageMode(strings.ToLower(raw))
	if cfg.Mode == "" {
		cfg.Mode = ObjectStorageModeGCS
		if cfg.EmulatorHost != "" {
			cfg.Mode = ObjectStorageModeGCSEmulator
		}
	}
	if cfg.Mode != ObjectStorageModeGCS && cfg.Mode != ObjectStorageModeGCSEmulator {
		return cfg, &ObjectStorageConfigError{Field: "OBJECT_STORAGE_MODE", Value: raw}
	}
	return cfg, ValidateObjectStorageConfig(cfg)
}

func ValidateObjectStorageConfig(cfg ObjectStorageConfig) error {
	switch cfg.Mode {
	case ObjectStorageModeGCS:
	case ObjectStorageModeGCSEmulator:
		if !isAbsoluteURL(cfg.EmulatorHost) {
			return &ObjectStorageConfigError{Field: "STORAGE_EMULATOR_HOST", Value: cfg.EmulatorHost}
		}
	default:
		return &ObjectStorageConfigError{Field: "OBJECT_STORAGE_MODE", Value: string(cfg.Mode)}
	}
	if cfg.PublicBaseURL != "" && !isAbsoluteURL(cfg.PublicBaseURL) {
		return &ObjectStorageConfigError{Field: "OBJECT_STORAGE_PUBLIC_BASE_URL", Value: cfg.PublicBaseURL}
	}
	return nil
}

func isAbsoluteURL(raw string) bool {
	u, err := url.Parse(raw)
	return raw != "" && err == nil && u.Scheme != "" && u.Host != ""
}
