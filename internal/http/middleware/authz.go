package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/queueflow-backend/internal/http/response"
	"github.com/yungbote/queueflow-backend/internal/platform/ctxutil"
)

// PermissionChecker answers whether a role holds resource:action.
type PermissionChecker interface {
	Can(roleID uuid.UUID, resource, action string) bool
}

// RequirePermission lets super admins through and checks everyone else's role.
func RequirePermission(checker PermissionChecker, resource, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		rd := ctxutil.GetRequestData(c.Request.Context())
		if rd == nil {
			response.RespondError(c, http.StatusUnauthorized, "unauthorized", errors.New("not authenticated"))
			c.Abort()
			return
		}
		if rd.SuperAdmin {
			c.Next()
			return
		}
		if checker == nil || !checker.Can(rd.RoleID, resource, action) {
			response.RespondError(c, http.StatusForbidden, "forbidden", fmt.Errorf("missing permission %s:%s", resource, action))
			c.Abort()
			return
		}
		c.Next()
	}
}

func RequireSuperAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		rd := ctxutil.GetRequestData(c.Request.Context())
		if rd == nil || !rd.SuperAdmin {
			response.RespondError(c, http.StatusForbidden, "forbidden", errors.New("super admin only"))
			c.Abort()
			return
		}
		c.Next()
	}
}
