package services

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/queueflow-backend/internal/data/repos/testutil"
	types "github.com/yungbote/queueflow-backend/internal/domain"
	"github.com/yungbote/queueflow-backend/internal/domain/content"
	"github.com/yungbote/queueflow-backend/internal/platform/gcp"
	"github.com/yungbote/queueflow-backend/internal/realtime"
)

func uploadAd(t *testing.T, svc AdService, ctx context.Context, name string) *types.Ad {
	t.Helper()
	ad, err := svc.Upload(ctx, AdUpload{Filename: name + ".png", ContentType: "image/png", Body: strings.NewReader("png-bytes-" + name)})
	if err != nil {
		t.Fatalf("Upload %s: %v", name, err)
	}
	return ad
}

func adOrder(ads []*types.Ad) []string {
	out := make([]string, 0, len(ads))
	for _, a := range ads {
		out = append(out, a.Title)
	}
	return out
}

func TestAdServiceUploadAndReorder(t *testing.T) {
	h := newHarness(t)
	b := testutil.SeedBranch(t, h.ctx, h.db, types.KindBank)
	admin := testutil.SeedUser(t, h.ctx, h.db, b.ID, nil, "admin@bank.test")
	bucket := newMemBucket()
	svc := NewAdService(h.db, h.log, h.ads, h.logs, bucket, h.rec)
	ctx := h.as(admin)

	first := uploadAd(t, svc, ctx, "first")
	second := uploadAd(t, svc, ctx, "second")
	third := uploadAd(t, svc, ctx, "third")
	if first.Position != 1 || third.Position != 3 || first.MediaType != content.MediaImage || first.DurationSec != defaultAdDuration {
		t.Fatalf("upload defaults wrong: %+v", first)
	}
	if _, ok := bucket.get(gcp.BucketCategoryMedia, second.StorageKey); !ok {
		t.Fatalf("media not stored under %s", second.StorageKey)
	}

	ordered, err := svc.Reorder(ctx, []uuid.UUID{third.ID, first.ID})
	if err != nil {
		t.Fatalf("Reorder: %v", err)
	}
	if got := strings.Join(adOrder(ordered), ","); got != "third,first,second" {
		t.Fatalf("order = %s", got)
	}
	for i, a := range ordered {
		if a.Position != i+1 {
			t.Fatalf("%s at position %d, want %d", a.Title, a.Position, i+1)
		}
	}

	_, err = svc.Reorder(ctx, nil)
	wantCode(t, err, http.StatusBadRequest, "missing_ids")
	_, err = svc.Reorder(ctx, []uuid.UUID{first.ID, second.ID, first.ID})
	wantCode(t, err, http.StatusBadRequest, "duplicate_id")
	_, err = svc.Reorder(ctx, []uuid.UUID{first.ID, uuid.New()})
	wantCode(t, err, http.StatusNotFound, "ad_not_found")

	after, err := svc.List(ctx, false)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if got := strings.Join(adOrder(after), ","); got != "third,first,second" {
		t.Fatalf("rejected reorder changed positions: %s", got)
	}

	other := testutil.SeedBranch(t, h.ctx, h.db, types.KindBank)
	outsider := h.as(testutil.SeedUser(t, h.ctx, h.db, other.ID, nil, "admin@other.test"))
	_, err = svc.Reorder(outsider, []uuid.UUID{first.ID})
	wantCode(t, err, http.StatusNotFound, "ad_not_found")

	if n := countEvents(h.rec, string(realtime.SSEEventAdsChanged)); n != 4 {
		t.Fatalf("AdsChanged events = %d", n)
	}
}

func TestAdServiceUploadValidationAndDelete(t *testing.T) {
	h := newHarness(t)
	b := testutil.SeedBranch(t, h.ctx, h.db, types.KindHospital)
	admin := testutil.SeedUser(t, h.ctx, h.db, b.ID, nil, "admin@hospital.test")
	ctx := h.as(admin)

	offline := NewAdService(h.db, h.log, h.ads, h.logs, nil, h.rec)
	_, err := offline.Upload(ctx, AdUpload{Filename: "a.png", Body: strings.NewReader("x")})
	wantCode(t, err, http.StatusServiceUnavailable, "storage_unavailable")

	bucket := newMemBucket()
	svc := NewAdService(h.db, h.log, h.ads, h.logs, bucket, h.rec)
	_, err = svc.Upload(ctx, AdUpload{Filename: "a.png", Body: strings.NewReader("")})
	wantCode(t, err, http.StatusBadRequest, "empty_upload")
	_, err = svc.Upload(ctx, AdUpload{Filename: "notes.txt", ContentType: "text/plain", Body: strings.NewReader("hello")})
	wantCode(t, err, http.StatusBadRequest, "unsupported_media")
	_, err = svc.Upload(ctx, AdUpload{Filename: "a.png", ContentType: "image/png", DurationSec: maxAdDurationSec + 1, Body: strings.NewReader("x")})
	wantCode(t, err, http.StatusBadRequest, "invalid_duration")

	clip, err := svc.Upload(ctx, AdUpload{Title: " Flu season ", Filename: "flu.mp4", ContentType: "video/mp4", DurationSec: 30, Body: strings.NewReader("mp4")})
	if err != nil {
		t.Fatalf("Upload video: %v", err)
	}
	if clip.Title != "Flu season" || clip.MediaType != content.MediaVideo || !strings.HasSuffix(clip.StorageKey, ".mp4") {
		t.Fatalf("video ad wrong: %+v", clip)
	}

	off := false
	updated, err := svc.Update(ctx, clip.ID, AdUpdate{Active: &off})
	if err != nil || updated.Active {
		t.Fatalf("Update: %v %+v", err, updated)
	}
	if live, _ := svc.List(ctx, true); len(live) != 0 {
		t.Fatalf("inactive ad listed as active")
	}

	if err := svc.Delete(ctx, clip.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok := bucket.get(gcp.BucketCategoryMedia, clip.StorageKey); ok {
		t.Fatalf("media not removed after delete")
	}
	wantCode(t, svc.Delete(ctx, clip.ID), http.StatusNotFound, "ad_not_found")
}
