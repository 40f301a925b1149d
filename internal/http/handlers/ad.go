package handlers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/queueflow-backend/internal/http/response"
	"github.com/yungbote/queueflow-backend/internal/platform/apierr"
	"github.com/yungbote/queueflow-backend/internal/services"
)

type AdHandler struct {
	adService services.AdService
}

func NewAdHandler(adService services.AdService) *AdHandler {
	return &AdHandler{adService: adService}
}

// GET /api/ads?active=true
func (ah *AdHandler) List(c *gin.Context) {
	ads, err := ah.adService.List(c.Request.Context(), c.Query("active") == "true")
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ads": ads})
}

// POST /api/ads (multipart: file, title, duration_sec)
func (ah *AdHandler) Upload(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		response.Fail(c, apierr.BadRequest("missing_file", errors.New("multipart field \"file\" is required")))
		return
	}
	dur := 0
	if raw := strings.TrimSpace(c.PostForm("duration_sec")); raw != "" {
		if dur, err = strconv.Atoi(raw); err != nil {
			response.Fail(c, apierr.BadRequest("invalid_duration", err))
			return
		}
	}
	f, err := fh.Open()
	if err != nil {
		response.Fail(c, apierr.BadRequest("invalid_upload", err))
		return
	}
	defer f.Close()

	ad, err := ah.adService.Upload(c.Request.Context(), services.AdUpload{
		Title:       c.PostForm("title"),
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		DurationSec: dur,
		Body:        f,
	})
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"ad": ad})
}

func (ah *AdHandler) Update(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Fail(c, err)
		return
	}
	var in services.AdUpdate
	if err := bindJSON(c, &in); err != nil {
		response.Fail(c, err)
		return
	}
	ad, err := ah.adService.Update(c.Request.Context(), id, in)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ad": ad})
}

// PUT /api/ads/order
func (ah *AdHandler) Reorder(c *gin.Context) {
	var req struct {
		IDs []uuid.UUID `json:"ids"`
	}
	if err := bindJSON(c, &req); err != nil {
		response.Fail(c, err)
		return
	}
	ads, err := ah.adService.Reorder(c.Request.Context(), req.IDs)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ads": ads})
}

func (ah *AdHandler) Delete(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Fail(c, err)
		return
	}
	if err := ah.adService.Delete(c.Request.Context(), id); err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}
