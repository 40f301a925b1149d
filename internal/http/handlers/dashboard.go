package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/queueflow-backend/internal/http/response"
	"github.com/yungbote/queueflow-backend/internal/services"
)

type DashboardHandler struct {
	dashboardService services.DashboardService
}

func NewDashboardHandler(dashboardService services.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

// GET /api/dashboard?day=YYYY-MM-DD
func (dh *DashboardHandler) Stats(c *gin.Context) {
	stats, err := dh.dashboardService.Stats(c.Request.Context(), c.Query("day"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, stats)
}
