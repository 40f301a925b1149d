package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/queueflow-backend/internal/http/response"
	"github.com/yungbote/queueflow-backend/internal/services"
)

type ActivityLogHandler struct {
	logService services.ActivityLogService
}

func NewActivityLogHandler(logService services.ActivityLogService) *ActivityLogHandler {
	return &ActivityLogHandler{logService: logService}
}

// GET /api/logs?entity_type=&entity_id=&user_id=&day=&limit=&offset=
func (lh *ActivityLogHandler) List(c *gin.Context) {
	q := services.ActivityLogQuery{EntityType: c.Query("entity_type"), Day: c.Query("day")}
	var err error
	if q.EntityID, err = queryUUID(c, "entity_id"); err != nil {
		response.Fail(c, err)
		return
	}
	if q.UserID, err = queryUUID(c, "user_id"); err != nil {
		response.Fail(c, err)
		return
	}
	if q.Limit, err = queryInt(c, "limit"); err != nil {
		response.Fail(c, err)
		return
	}
	if q.Offset, err = queryInt(c, "offset"); err != nil {
		response.Fail(c, err)
		return
	}
	logs, err := lh.logService.List(c.Request.Context(), q)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"logs": logs})
}
