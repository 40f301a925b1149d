package services

import (
	"bytes"
	"image"
	"image/png"
	"net/http"
	"testing"

	"github.com/yungbote/queueflow-backend/internal/data/repos/testutil"
	types "github.com/yungbote/queueflow-backend/internal/domain"
	"github.com/yungbote/queueflow-backend/internal/realtime"
)

func TestSettingServiceUpdate(t *testing.T) {
	h := newHarness(t)
	b := testutil.SeedBranch(t, h.ctx, h.db, types.KindBank)
	admin := testutil.SeedUser(t, h.ctx, h.db, b.ID, nil, "admin@bank.test")
	svc := NewSettingService(h.db, h.log, h.branches, h.settings, h.logs, nil, h.rec)
	ctx := h.as(admin)

	color, rows, hour, names := "#a1b2c3", 12, 6, true
	header := "  Welcome  "
	s, err := svc.Update(ctx, SettingUpdate{ThemeColor: &color, BoardWaitingRows: &rows, DayStartHour: &hour, ShowCustomerNames: &names, TicketHeader: &header})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if s.ThemeColor != "#A1B2C3" || s.BoardWaitingRows != 12 || s.DayStartHour != 6 || !s.ShowCustomerNames || s.TicketHeader != "Welcome" {
		t.Fatalf("settings not applied: %+v", s)
	}
	if n := countEvents(h.rec, string(realtime.SSEEventSettingsChanged)); n != 1 {
		t.Fatalf("SettingsChanged events = %d", n)
	}

	bad := "red"
	_, err = svc.Update(ctx, SettingUpdate{ThemeColor: &bad})
	wantCode(t, err, http.StatusBadRequest, "invalid_theme_color")
	for _, r := range []int{0, 51} {
		r := r
		_, err = svc.Update(ctx, SettingUpdate{BoardWaitingRows: &r})
		wantCode(t, err, http.StatusBadRequest, "invalid_waiting_rows")
	}
	late := 24
	_, err = svc.Update(ctx, SettingUpdate{DayStartHour: &late})
	wantCode(t, err, http.StatusBadRequest, "invalid_day_start_hour")
	if n := countEvents(h.rec, string(realtime.SSEEventSettingsChanged)); n != 1 {
		t.Fatalf("rejected updates published events: %d", n)
	}

	none := ""
	s, err = svc.Update(ctx, SettingUpdate{ThemeColor: &none})
	if err != nil || s.ThemeColor != "" {
		t.Fatalf("clearing theme colour: %v %q", err, s.ThemeColor)
	}
}

func TestSettingServiceLogos(t *testing.T) {
	h := newHarness(t)
	b := testutil.SeedBranch(t, h.ctx, h.db, types.KindHospital)
	admin := testutil.SeedUser(t, h.ctx, h.db, b.ID, nil, "admin@hospital.test")
	ctx := h.as(admin)

	offline := NewSettingService(h.db, h.log, h.branches, h.settings, h.logs, nil, h.rec)
	_, err := offline.RegenerateLogo(ctx)
	wantCode(t, err, http.StatusServiceUnavailable, "storage_unavailable")
	_, err = offline.UploadLogo(ctx, []byte("x"))
	wantCode(t, err, http.StatusServiceUnavailable, "storage_unavailable")

	bucket := newMemBucket()
	logos, err := NewLogoService(h.log, h.settings, bucket, "")
	if err != nil {
		t.Fatalf("NewLogoService: %v", err)
	}
	svc := NewSettingService(h.db, h.log, h.branches, h.settings, h.logs, logos, h.rec)

	generated, err := svc.RegenerateLogo(ctx)
	if err != nil {
		t.Fatalf("RegenerateLogo: %v", err)
	}
	if generated.LogoKey == "" {
		t.Fatalf("logo key not stored")
	}

	var raw bytes.Buffer
	if err := png.Encode(&raw, image.NewRGBA(image.Rect(0, 0, 40, 20))); err != nil {
		t.Fatalf("encode: %v", err)
	}
	uploaded, err := svc.UploadLogo(ctx, raw.Bytes())
	if err != nil {
		t.Fatalf("UploadLogo: %v", err)
	}
	if uploaded.LogoKey == generated.LogoKey {
		t.Fatalf("upload did not replace the logo key")
	}
	if len(bucket.deleted) != 1 || bucket.deleted[0] != generated.LogoKey {
		t.Fatalf("previous logo not removed: %v", bucket.deleted)
	}
	if n := countEvents(h.rec, string(realtime.SSEEventSettingsChanged)); n != 2 {
		t.Fatalf("SettingsChanged events = %d", n)
	}
	_, err = svc.UploadLogo(ctx, nil)
	wantCode(t, err, http.StatusBadRequest, "empty_upload")
}
