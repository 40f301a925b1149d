package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/queueflow-backend/internal/http/response"
	"github.com/yungbote/queueflow-backend/internal/platform/ctxutil"
	"github.com/yungbote/queueflow-backend/internal/services"
)

// PermissionLister returns the effective permissions of a role.
type PermissionLister interface {
	Permissions(roleID uuid.UUID) []string
}

type UserHandler struct {
	userService services.UserService
	permissions PermissionLister
}

func NewUserHandler(userService services.UserService, permissions PermissionLister) *UserHandler {
	return &UserHandler{userService: userService, permissions: permissions}
}

// GET /api/me
func (uh *UserHandler) GetMe(c *gin.Context) {
	me, err := uh.userService.GetMe(c.Request.Context())
	if err != nil {
		response.Fail(c, err)
		return
	}
	perms := []string{}
	rd := ctxutil.GetRequestData(c.Request.Context())
	switch {
	case rd != nil && rd.SuperAdmin:
		perms = []string{"*:*"}
	case rd != nil && uh.permissions != nil:
		perms = uh.permissions.Permissions(rd.RoleID)
	}
	response.RespondOK(c, gin.H{"me": me, "permissions": perms})
}

// PUT /api/me/password
func (uh *UserHandler) ChangePassword(c *gin.Context) {
	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := bindJSON(c, &req); err != nil {
		response.Fail(c, err)
		return
	}
	if err := uh.userService.ChangePassword(c.Request.Context(), req.CurrentPassword, req.NewPassword); err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

func (uh *UserHandler) List(c *gin.Context) {
	users, err := uh.userService.List(c.Request.Context())
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"users": users})
}

func (uh *UserHandler) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Fail(c, err)
		return
	}
	u, err := uh.userService.Get(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"user": u})
}

func (uh *UserHandler) Create(c *gin.Context) {
	var in services.UserInput
	if err := bindJSON(c, &in); err != nil {
		response.Fail(c, err)
		return
	}
	u, err := uh.userService.Create(c.Request.Context(), in)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"user": u})
}

func (uh *UserHandler) Update(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Fail(c, err)
		return
	}
	var in services.UserUpdate
	if err := bindJSON(c, &in); err != nil {
		response.Fail(c, err)
		return
	}
	u, err := uh.userService.Update(c.Request.Context(), id, in)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"user": u})
}

func (uh *UserHandler) Delete(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Fail(c, err)
		return
	}
	if err := uh.userService.Delete(c.Request.Context(), id); err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}
