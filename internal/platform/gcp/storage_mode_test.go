package gcp

import (
	"errors"
	"testing"
)

func TestResolveObjectStorageConfigDefaultsToGCS(t *testing.T) {
	t.Setenv("OBJECT_STORAGE_MODE", "")
	t.Setenv("STORAGE_EMULATOR_HOST", "")
	t.Setenv("OBJECT_STORAGE_PUBLIC_BASE_URL", "")

	cfg, err := ResolveObjectStorageConfigFromEnv()
	if err != nil {
		t.Fatalf("ResolveObjectStorageConfigFromEnv: %v", err)
	}
	if cfg.Mode != ObjectStorageModeGCS {
		t.Fatalf("mode: want=%q got=%q", ObjectStorageModeGCS, cfg.Mode)
	}
}

func TestResolveObjectStorageConfigEmulatorHostImpliesEmulator(t *testing.T) {
	t.Setenv("OBJECT_STORAGE_MODE", "")
	t.Setenv("STORAGE_EMULATOR_HOST", "http://fake-gcs:4443/")
	t.Setenv("OBJECT_STORAGE_PUBLIC_BASE_URL", "")

	cfg, err := ResolveObjectStorageConfigFromEnv()
	if err != nil {
		t.Fatalf("ResolveObjectStorageConfigFromEnv: %v", err)
	}
	if !cfg.IsEmulatorMode() {
		t.Fatalf("expected emulator mode, got %q", cfg.Mode)
	}
	if cfg.EmulatorHost != "http://fake-gcs:4443" {
		t.Fatalf("emulator host not trimmed: %q", cfg.EmulatorHost)
	}
}

func TestResolveObjectStorageConfigRejectsBadValues(t *testing.T) {
	cases := []struct {
		name  string
		mode  string
		host  string
		field string
	}{
		{name: "unknown mode", mode: "s3", field: "OBJECT_STORAGE_MODE"},
		{name: "emulator without host", mode: "gcs_emulator", field: "STORAGE_EMULATOR_HOST"},
		{name: "relative host", mode: "gcs_emulator", host: "fake-gcs:4443", field: "STORAGE_EMULATOR_HOST"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("OBJECT_STORAGE_MODE", tc.mode)
			t.Setenv("STORAGE_EMULATOR_HOST", tc.host)
			t.Setenv("OBJECT_STORAGE_PUBLIC_BASE_URL", "")
			_, err := ResolveObjectStorageConfigFromEnv()
			var cfgErr *ObjectStorageConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected ObjectStorageConfigError, got %v", err)
			}
			if cfgErr.Field != tc.field {
				t.Fatalf("field: want=%s got=%s", tc.field, cfgErr.Field)
			}
		})
	}
}

func TestPublicURL(t *testing.T) {
	bs := &bucketService{
		mode:    ObjectStorageModeGCS,
		buckets: map[BucketCategory]bucketConfig{BucketCategoryLogo: {name: "qf-logos"}, BucketCategoryMedia: {name: "qf-media", cdnDomain: "cdn.example.com"}},
	}
	if got := bs.GetPublicURL(BucketCategoryLogo, "/branch/1.png"); got != "https://storage.googleapis.com/qf-logos/branch/1.png" {
		t.Fatalf("gcs url: %s", got)
	}
	if got := bs.GetPublicURL(BucketCategoryMedia, "ads/x.mp4"); got != "https://cdn.example.com/ads/x.mp4" {
		t.Fatalf("cdn url: %s", got)
	}

	bs.mode = ObjectStorageModeGCSEmulator
	bs.publicBase = "http://localhost:4443"
	if got := bs.GetPublicURL(BucketCategoryLogo, "branch/1.png"); got != "http://localhost:4443/storage/v1/b/qf-logos/o/branch%2F1.png?alt=media" {
		t.Fatalf("emulator url: %s", got)
	}
}

func TestResolveObjectStorageConfigBucketsAndCredentials(t *testing.T) {
	t.Setenv("OBJECT_STORAGE_MODE", "")
	t.Setenv("STORAGE_EMULATOR_HOST", "")
	t.Setenv("OBJECT_STORAGE_PUBLIC_BASE_URL", "")
	t.Setenv("LOGO_GCS_BUCKET_NAME", "qf-logos")
	t.Setenv("MEDIA_GCS_BUCKET_NAME", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS_JSON", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "/secrets/sa.json")

	cfg, err := ResolveObjectStorageConfigFromEnv()
	if err != nil {
		t.Fatalf("ResolveObjectStorageConfigFromEnv: %v", err)
	}
	if cfg.HasBuckets() {
		t.Fatalf("one bucket must not count as configured")
	}
	if cfg.Credentials != "/secrets/sa.json" {
		t.Fatalf("credentials fallback: %q", cfg.Credentials)
	}
	if n := len(cfg.clientOptions()); n != 2 {
		t.Fatalf("gcs options: want scope and credentials, got %d", n)
	}

	cfg.Mode = ObjectStorageModeGCSEmulator
	if n := len(cfg.clientOptions()); n != 1 {
		t.Fatalf("emulator options: want only WithoutAuthentication, got %d", n)
	}
}
