package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/queueflow-backend/internal/http/response"
	"github.com/yungbote/queueflow-backend/internal/platform/apierr"
	"github.com/yungbote/queueflow-backend/internal/platform/ctxutil"
)

func TestCorrelate(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name        string
		inRequestID string
		keep        bool
	}{
		{"generated", "", false},
		{"forwarded", "kiosk-7f3a", true},
		{"control characters", "bad\x01id", false},
		{"oversized", strings.Repeat("a", maxInboundIDLen+1), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var seen ctxutil.Correlation
			r := gin.New()
			r.Use(Correlate())
			r.GET("/x", func(c *gin.Context) {
				seen, _ = ctxutil.CorrelationFrom(c.Request.Context())
				c.Status(http.StatusNoContent)
			})

			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			if tc.inRequestID != "" {
				req.Header.Set(headerRequestID, tc.inRequestID)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			got := rec.Header().Get(headerRequestID)
			if got == "" || got != seen.RequestID || seen.TraceID == "" {
				t.Fatalf("header %q, context %+v", got, seen)
			}
			if tc.keep != (got == tc.inRequestID) {
				t.Fatalf("request id %q, inbound %q, keep=%v", got, tc.inRequestID, tc.keep)
			}
		})
	}
}

func TestErrorEnvelopeCarriesRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Correlate())
	r.GET("/x", func(c *gin.Context) {
		response.Fail(c, apierr.NotFound("ticket_not_found", errors.New("ticket not found")))
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(headerRequestID, "req-42")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"request_id":"req-42"`) {
		t.Fatalf("body missing request id: %s", rec.Body.String())
	}
}
