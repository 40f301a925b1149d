package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/queueflow-backend/internal/http/response"
	"github.com/yungbote/queueflow-backend/internal/services"
)

type DepartmentHandler struct {
	departmentService services.DepartmentService
}

func NewDepartmentHandler(departmentService services.DepartmentService) *DepartmentHandler {
	return &DepartmentHandler{departmentService: departmentService}
}

// GET /api/departments?active=true
func (dh *DepartmentHandler) List(c *gin.Context) {
	departments, err := dh.departmentService.List(c.Request.Context(), c.Query("active") == "true")
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"departments": departments})
}

func (dh *DepartmentHandler) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Fail(c, err)
		return
	}
	d, err := dh.departmentService.Get(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"department": d})
}

func (dh *DepartmentHandler) Create(c *gin.Context) {
	var in services.DepartmentInput
	if err := bindJSON(c, &in); err != nil {
		response.Fail(c, err)
		return
	}
	d, err := dh.departmentService.Create(c.Request.Context(), in)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"department": d})
}

func (dh *DepartmentHandler) Update(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Fail(c, err)
		return
	}
	var in services.DepartmentUpdate
	if err := bindJSON(c, &in); err != nil {
		response.Fail(c, err)
		return
	}
	d, err := dh.departmentService.Update(c.Request.Context(), id, in)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"department": d})
}

func (dh *DepartmentHandler) Delete(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Fail(c, err)
		return
	}
	if err := dh.departmentService.Delete(c.Request.Context(), id); err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}
