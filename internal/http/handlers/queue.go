package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/queueflow-backend/internal/http/response"
	"github.com/yungbote/queueflow-backend/internal/services"
)

type QueueHandler struct {
	queueService services.QueueService
}

func NewQueueHandler(queueService services.QueueService) *QueueHandler {
	return &QueueHandler{queueService: queueService}
}

// GET /api/queues?active=true
func (qh *QueueHandler) List(c *gin.Context) {
	queues, err := qh.queueService.List(c.Request.Context(), c.Query("active") == "true")
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"queues": queues})
}

func (qh *QueueHandler) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Fail(c, err)
		return
	}
	q, err := qh.queueService.Get(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"queue": q})
}

func (qh *QueueHandler) Create(c *gin.Context) {
	var in services.QueueInput
	if err := bindJSON(c, &in); err != nil {
		response.Fail(c, err)
		return
	}
	q, err := qh.queueService.Create(c.Request.Context(), in)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"queue": q})
}

func (qh *QueueHandler) Update(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Fail(c, err)
		return
	}
	var in services.QueueUpdate
	if err := bindJSON(c, &in); err != nil {
		response.Fail(c, err)
		return
	}
	q, err := qh.queueService.Update(c.Request.Context(), id, in)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"queue": q})
}

func (qh *QueueHandler) Delete(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Fail(c, err)
		return
	}
	if err := qh.queueService.Delete(c.Request.Context(), id); err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}
