package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/queueflow-backend/internal/platform/apierr"
	"github.com/yungbote/queueflow-backend/internal/platform/ctxutil"
	"github.com/yungbote/queueflow-backend/internal/platform/logger"
	"github.com/yungbote/queueflow-backend/internal/services"
)

type stubAuth struct {
	rd map[string]ctxutil.RequestData
}

func (s stubAuth) Login(context.Context, string, string) (*services.TokenPair, error) {
	return nil, errors.New("not used")
}
func (s stubAuth) Refresh(context.Context, string) (*services.TokenPair, error) {
	return nil, errors.New("not used")
}
func (s stubAuth) Logout(context.Context) error { return nil }
func (s stubAuth) GetAccessTTL() time.Duration  { return time.Minute }

func (s stubAuth) SetContextFromToken(ctx context.Context, token string) (context.Context, error) {
	rd, ok := s.rd[token]
	if !ok {
		return ctx, apierr.Unauthorized("invalid_token", errors.New("bad token"))
	}
	return ctxutil.WithRequestData(ctx, &rd), nil
}

type roleSet map[uuid.UUID]string

func (r roleSet) Can(roleID uuid.UUID, resource, action string) bool {
	return r[roleID] == resource+":"+action
}

func TestAuthAndPermissions(t *testing.T) {
	gin.SetMode(gin.TestMode)
	branch, other, clerk := uuid.New(), uuid.New(), uuid.New()
	auth := NewAuthMiddleware(logger.Nop(), stubAuth{rd: map[string]ctxutil.RequestData{
		"clerk": {UserID: uuid.New(), BranchID: branch, RoleID: clerk},
		"root":  {UserID: uuid.New(), SuperAdmin: true},
	}})

	r := gin.New()
	r.GET("/tickets",
		auth.RequireAuth(),
		RequirePermission(roleSet{clerk: "tickets:read"}, "tickets", "read"),
		func(c *gin.Context) {
			rd := ctxutil.GetRequestData(c.Request.Context())
			c.String(http.StatusOK, rd.BranchID.String())
		})
	r.GET("/branches", auth.RequireAuth(), RequireSuperAdmin(), func(c *gin.Context) { c.Status(http.StatusOK) })

	cases := []struct {
		name   string
		path   string
		header map[string]string
		status int
		body   string
	}{
		{"no token", "/tickets", nil, http.StatusUnauthorized, ""},
		{"bad token", "/tickets?token=nope", nil, http.StatusUnauthorized, ""},
		{"bearer", "/tickets", map[string]string{"Authorization": "Bearer clerk"}, http.StatusOK, branch.String()},
		{"query token", "/tickets?token=clerk", nil, http.StatusOK, branch.String()},
		{"foreign branch header", "/tickets?token=clerk", map[string]string{HeaderBranchID: other.String()}, http.StatusForbidden, ""},
		{"super admin picks branch", "/tickets?token=root", map[string]string{HeaderBranchID: other.String()}, http.StatusOK, other.String()},
		{"bad branch header", "/tickets?token=root", map[string]string{HeaderBranchID: "x"}, http.StatusBadRequest, ""},
		{"clerk on branches", "/branches?token=clerk", nil, http.StatusForbidden, ""},
		{"root on branches", "/branches?token=root", nil, http.StatusOK, ""},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, tc.path, nil)
		for k, v := range tc.header {
			req.Header.Set(k, v)
		}
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if rec.Code != tc.status {
			t.Fatalf("%s: status = %d, want %d (%s)", tc.name, rec.Code, tc.status, rec.Body.String())
		}
		if tc.body != "" && rec.Body.String() != tc.body {
			t.Fatalf("%s: body = %q, want %q", tc.name, rec.Body.String(), tc.body)
		}
	}
}

func TestRequirePermissionDeniesMissingRole(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Request = c.Request.WithContext(ctxutil.WithRequestData(c.Request.Context(), &ctxutil.RequestData{UserID: uuid.New()}))
	})
	r.POST("/ads", RequirePermission(roleSet{}, "ads", "write"), func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ads", nil))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}
