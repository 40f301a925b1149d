package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/queueflow-backend/internal/platform/ctxutil"
)

const (
	headerTraceID   = "X-Trace-Id"
	headerRequestID = "X-Request-Id"

	maxInboundIDLen = 128
)

// Correlate assigns every request a trace id and a request id, reusing the
// caller's when they look sane, and echoes both as response headers. A trace
// id from an active span wins over a random one.
func Correlate() gin.HandlerFunc {
	return func(c *gin.Context) {
		corr := ctxutil.Correlation{
			TraceID:   inboundID(c.GetHeader(headerTraceID)),
			RequestID: inboundID(c.GetHeader(headerRequestID)),
		}
		if corr.TraceID == "" {
			if sc := trace.SpanContextFromContext(c.Request.Context()); sc.HasTraceID() {
				corr.TraceID = sc.TraceID().String()
			} else {
				corr.TraceID = uuid.NewString()
			}
		}
		if corr.RequestID == "" {
			corr.RequestID = uuid.NewString()
		}

		c.Request = c.Request.WithContext(ctxutil.WithCorrelation(c.Request.Context(), corr))
		h := c.Writer.Header()
		h.Set(headerTraceID, corr.TraceID)
		h.Set(headerRequestID, corr.RequestID)
		c.Next()
	}
}

// inboundID drops header values that are too long or contain anything beyond
// printable ASCII so they cannot corrupt log lines.
func inboundID(v string) string {
	v = strings.TrimSpace(v)
	if v == "" || len(v) > maxInboundIDLen {
		return ""
	}
	for i := 0; i < len(v); i++ {
		if v[i] < 0x21 || v[i] > 0x7e {
			return ""
		}
	}
	return v
}
