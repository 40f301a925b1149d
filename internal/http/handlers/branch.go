package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/queueflow-backend/internal/http/response"
	"github.com/yungbote/queueflow-backend/internal/services"
)

type BranchHandler struct {
	branchService services.BranchService
}

func NewBranchHandler(branchService services.BranchService) *BranchHandler {
	return &BranchHandler{branchService: branchService}
}

func (bh *BranchHandler) List(c *gin.Context) {
	branches, err := bh.branchService.List(c.Request.Context())
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"branches": branches})
}

func (bh *BranchHandler) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Fail(c, err)
		return
	}
	b, err := bh.branchService.Get(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"branch": b})
}

func (bh *BranchHandler) Create(c *gin.Context) {
	var in services.BranchInput
	if err := bindJSON(c, &in); err != nil {
		response.Fail(c, err)
		return
	}
	b, err := bh.branchService.Create(c.Request.Context(), in)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"branch": b})
}

func (bh *BranchHandler) Update(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Fail(c, err)
		return
	}
	var in services.BranchUpdate
	if err := bindJSON(c, &in); err != nil {
		response.Fail(c, err)
		return
	}
	b, err := bh.branchService.Update(c.Request.Context(), id, in)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"branch": b})
}

func (bh *BranchHandler) Delete(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Fail(c, err)
		return
	}
	if err := bh.branchService.Delete(c.Request.Context(), id); err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}
