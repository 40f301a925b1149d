package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/queueflow-backend/internal/data/repos"
	types "github.com/yungbote/queueflow-backend/internal/domain"
	"github.com/yungbote/queueflow-backend/internal/domain/audit"
	"github.com/yungbote/queueflow-backend/internal/domain/content"
	"github.com/yungbote/queueflow-backend/internal/platform/apierr"
	"github.com/yungbote/queueflow-backend/internal/platform/dbctx"
	"github.com/yungbote/queueflow-backend/internal/platform/gcp"
	"github.com/yungbote/queueflow-backend/internal/platform/logger"
	"github.com/yungbote/queueflow-backend/internal/realtime"
	"github.com/yungbote/queueflow-backend/internal/realtime/bus"
)

const (
	maxAdUpload       = 200 << 20
	defaultAdDuration = 10
	maxAdDurationSec  = 600
)

// AdUpload is one media file posted by an admin.
type AdUpload struct {
	Title       string
	Filename    string
	ContentType string
	DurationSec int
	Body        io.Reader
}

type AdUpdate struct {
	Title       *string `json:"title"`
	DurationSec *int    `json:"duration_sec"`
	Active      *bool   `json:"active"`
}

type AdService interface {
	List(ctx context.Context, activeOnly bool) ([]*types.Ad, error)
	Upload(ctx context.Context, in AdUpload) (*types.Ad, error)
	Update(ctx context.Context, id uuid.UUID, in AdUpdate) (*types.Ad, error)
	// Reorder sets positions to the order of ids; ads not listed keep theirs after them.
	Reorder(ctx context.Context, ids []uuid.UUID) ([]*types.Ad, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type adService struct {
	db      *gorm.DB
	log     *logger.Logger
	adRepo  repos.AdRepo
	logRepo repos.ActivityLogRepo
	bucket  gcp.BucketService
	events  bus.Publisher
}

func NewAdService(
	db *gorm.DB,
	log *logger.Logger,
	adRepo repos.AdRepo,
	logRepo repos.ActivityLogRepo,
	bucket gcp.BucketService,
	events bus.Publisher,
) AdService {
	return &adService{
		db:      db,
		log:     log.With("service", "AdService"),
		adRepo:  adRepo,
		logRepo: logRepo,
		bucket:  bucket,
		events:  events,
	}
}

func (as *adService) List(ctx context.Context, activeOnly bool) ([]*types.Ad, error) {
	_, branchID, err := callerBranch(ctx)
	if err != nil {
		return nil, err
	}
	return as.adRepo.ListByBranch(dbctx.Context{Ctx: ctx}, branchID, activeOnly)
}

func (as *adService) get(dbc dbctx.Context, branchID, id uuid.UUID) (*types.Ad, error) {
	ad, err := as.adRepo.GetByID(dbc, branchID, id)
	if err != nil {
		return nil, fmt.Errorf("load ad: %w", err)
	}
	if ad == nil {
		return nil, notFound("ad_not_found", "ad", id)
	}
	return ad, nil
}

func (as *adService) Upload(ctx context.Context, in AdUpload) (*types.Ad, error) {
	rd, branchID, err := callerBranch(ctx)
	if err != nil {
		return nil, err
	}
	if as.bucket == nil {
		return nil, errNoStorage
	}
	if in.Body == nil {
		return nil, apierr.BadRequest("empty_upload", errors.New("no file uploaded"))
	}
	raw, err := io.ReadAll(io.LimitReader(in.Body, maxAdUpload+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(raw) == 0 {
		return nil, apierr.BadRequest("empty_upload", errors.New("uploaded file is empty"))
	}
	if len(raw) > maxAdUpload {
		return nil, apierr.BadRequest("upload_too_large", fmt.Errorf("file exceeds %d MB", maxAdUpload>>20))
	}

	contentType := strings.TrimSpace(in.ContentType)
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = gcp.ContentTypeForKey(in.Filename)
	}
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(raw)
	}
	media, ok := content.MediaTypeFor(contentType)
	if !ok {
		return nil, apierr.BadRequest("unsupported_media", fmt.Errorf("%s is not an image or video", contentType))
	}
	dur := in.DurationSec
	if dur == 0 {
		dur = defaultAdDuration
	}
	if dur < 1 || dur > maxAdDurationSec {
		return nil, apierr.BadRequest("invalid_duration", fmt.Errorf("duration_sec must be between 1 and %d", maxAdDurationSec))
	}

	id := uuid.New()
	key := fmt.Sprintf("ads/%s/%s%s", branchID, id, strings.ToLower(path.Ext(in.Filename)))
	if err := as.bucket.UploadFile(ctx, gcp.BucketCategoryMedia, key, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("upload ad media: %w", err)
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = strings.TrimSuffix(path.Base(in.Filename), path.Ext(in.Filename))
	}
	ad := &types.Ad{
		ID:          id,
		BranchID:    branchID,
		Title:       title,
		MediaType:   media,
		ContentType: contentType,
		StorageKey:  key,
		URL:         as.bucket.GetPublicURL(gcp.BucketCategoryMedia, key),
		SizeBytes:   int64(len(raw)),
		DurationSec: dur,
		Active:      true,
	}
	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		maxPos, err := as.adRepo.MaxPosition(dbc, branchID)
		if err != nil {
			return fmt.Errorf("max position: %w", err)
		}
		ad.Position = maxPos + 1
		if err := as.adRepo.Create(dbc, ad); err != nil {
			return fmt.Errorf("create ad: %w", err)
		}
		return as.logRepo.Create(dbc, []*types.ActivityLog{
			activity(branchID, rd.UserID, audit.EntityAd, ad.ID, "created", "", map[string]any{"title": title, "media_type": string(media)}),
		})
	})
	if err != nil {
		if derr := as.bucket.DeleteFile(context.Background(), gcp.BucketCategoryMedia, key); derr != nil {
			as.log.Warn("orphaned ad media", "key", key, "error", derr)
		}
		return nil, err
	}
	as.publish(ctx, branchID)
	return ad, nil
}

func (as *adService) Update(ctx context.Context, id uuid.UUID, in AdUpdate) (*types.Ad, error) {
	rd, branchID, err := callerBranch(ctx)
	if err != nil {
		return nil, err
	}
	updates := map[string]any{}
	if in.Title != nil {
		updates["title"] = strings.TrimSpace(*in.Title)
	}
	if in.DurationSec != nil {
		if *in.DurationSec < 1 || *in.DurationSec > maxAdDurationSec {
			return nil, apierr.BadRequest("invalid_duration", fmt.Errorf("duration_sec must be between 1 and %d", maxAdDurationSec))
		}
		updates["duration_sec"] = *in.DurationSec
	}
	if in.Active != nil {
		updates["active"] = *in.Active
	}

	var out *types.Ad
	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if _, err := as.get(dbc, branchID, id); err != nil {
			return err
		}
		if len(updates) > 0 {
			if err := as.adRepo.Update(dbc, branchID, id, updates); err != nil {
				return fmt.Errorf("update ad: %w", err)
			}
		}
		if err := as.logRepo.Create(dbc, []*types.ActivityLog{
			activity(branchID, rd.UserID, audit.EntityAd, id, "updated", "", mapKeys(updates)),
		}); err != nil {
			return err
		}
		out, err = as.get(dbc, branchID, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	as.publish(ctx, branchID)
	return out, nil
}

func (as *adService) Reorder(ctx context.Context, ids []uuid.UUID) ([]*types.Ad, error) {
	rd, branchID, err := callerBranch(ctx)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, apierr.BadRequest("missing_ids", errors.New("ids are required"))
	}
	var out []*types.Ad
	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		all, err := as.adRepo.ListByBranch(dbc, branchID, false)
		if err != nil {
			return fmt.Errorf("load ads: %w", err)
		}
		known := make(map[uuid.UUID]bool, len(all))
		for _, a := range all {
			known[a.ID] = true
		}
		pos := 0
		placed := make(map[uuid.UUID]bool, len(ids))
		for _, id := range ids {
			if !known[id] {
				return notFound("ad_not_found", "ad", id)
			}
			if placed[id] {
				return apierr.BadRequest("duplicate_id", fmt.Errorf("ad %s listed twice", id))
			}
			placed[id] = true
			pos++
			if err := as.adRepo.Update(dbc, branchID, id, map[string]any{"position": pos}); err != nil {
				return fmt.Errorf("reorder ad: %w", err)
			}
		}
		for _, a := range all {
			if placed[a.ID] {
				continue
			}
			pos++
			if err := as.adRepo.Update(dbc, branchID, a.ID, map[string]any{"position": pos}); err != nil {
				return fmt.Errorf("reorder ad: %w", err)
			}
		}
		if err := as.logRepo.Create(dbc, []*types.ActivityLog{
			activity(branchID, rd.UserID, audit.EntityAd, uuid.Nil, "reordered", "", map[string]any{"count": len(ids)}),
		}); err != nil {
			return err
		}
		out, err = as.adRepo.ListByBranch(dbc, branchID, false)
		return err
	})
	if err != nil {
		return nil, err
	}
	as.publish(ctx, branchID)
	return out, nil
}

func (as *adService) Delete(ctx context.Context, id uuid.UUID) error {
	rd, branchID, err := callerBranch(ctx)
	if err != nil {
		return err
	}
	var key string
	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		ad, err := as.get(dbc, branchID, id)
		if err != nil {
			return err
		}
		key = ad.StorageKey
		if err := as.adRepo.Delete(dbc, branchID, id); err != nil {
			return fmt.Errorf("delete ad: %w", err)
		}
		return as.logRepo.Create(dbc, []*types.ActivityLog{
			activity(branchID, rd.UserID, audit.EntityAd, id, "deleted", "", map[string]any{"title": ad.Title}),
		})
	})
	if err != nil {
		return err
	}
	if as.bucket != nil && key != "" {
		if err := as.bucket.DeleteFile(ctx, gcp.BucketCategoryMedia, key); err != nil {
			as.log.Warn("delete ad media failed", "key", key, "error", err)
		}
	}
	as.publish(ctx, branchID)
	return nil
}

func (as *adService) publish(ctx context.Context, branchID uuid.UUID) {
	if as.events == nil {
		return
	}
	ads, err := as.adRepo.ListByBranch(dbctx.Context{Ctx: ctx}, branchID, true)
	if err != nil {
		as.log.Warn("load ads for broadcast failed", "error", err)
		return
	}
	as.events.Publish(ctx, realtime.SSEMessage{
		Channel: realtime.BranchChannel(branchID),
		Event:   realtime.SSEEventAdsChanged,
		Data:    map[string]any{"ads": ads, "at": time.Now().UTC()},
	})
}
