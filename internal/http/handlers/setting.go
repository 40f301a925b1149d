package handlers

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/queueflow-backend/internal/http/response"
	"github.com/yungbote/queueflow-backend/internal/platform/apierr"
	"github.com/yungbote/queueflow-backend/internal/services"
)

const maxLogoBody = 6 << 20

type SettingHandler struct {
	settingService services.SettingService
}

func NewSettingHandler(settingService services.SettingService) *SettingHandler {
	return &SettingHandler{settingService: settingService}
}

func (sh *SettingHandler) Get(c *gin.Context) {
	s, err := sh.settingService.Get(c.Request.Context())
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"setting": s})
}

func (sh *SettingHandler) Update(c *gin.Context) {
	var in services.SettingUpdate
	if err := bindJSON(c, &in); err != nil {
		response.Fail(c, err)
		return
	}
	s, err := sh.settingService.Update(c.Request.Context(), in)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"setting": s})
}

// POST /api/settings/logo (multipart field "file")
func (sh *SettingHandler) UploadLogo(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		response.Fail(c, apierr.BadRequest("missing_file", errors.New("multipart field \"file\" is required")))
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.Fail(c, apierr.BadRequest("invalid_upload", err))
		return
	}
	defer f.Close()
	raw, err := io.ReadAll(io.LimitReader(f, maxLogoBody))
	if err != nil {
		response.Fail(c, apierr.BadRequest("invalid_upload", err))
		return
	}
	s, err := sh.settingService.UploadLogo(c.Request.Context(), raw)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"setting": s})
}

// POST /api/settings/logo/regenerate
func (sh *SettingHandler) RegenerateLogo(c *gin.Context) {
	s, err := sh.settingService.RegenerateLogo(c.Request.Context())
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"setting": s})
}
