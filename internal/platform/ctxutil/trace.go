package ctxutil

import "context"

type correlationKey struct{}

// Correlation ties log lines, error bodies and response headers of one
// request together.
type Correlation struct {
	TraceID   string
	RequestID string
}

func WithCorrelation(ctx context.Context, c Correlation) context.Context {
	return context.WithValue(ctx, correlationKey{}, c)
}

func CorrelationFrom(ctx context.Context) (Correlation, bool) {
	if ctx == nil {
		return Correlation{}, false
	}
	c, ok := ctx.Value(correlationKey{}).(Correlation)
	return c, ok
}

// LogFields returns the non-empty ids as logger key/value pairs.
func (c Correlation) LogFields() []interface{} {
	out := make([]interface{}, 0, 4)
	if c.TraceID != "" {
		out = append(out, "trace_id", c.TraceID)
	}
	if c.RequestID != "" {
		out = append(out, "request_id", c.RequestID)
	}
	return out
}

// Default returns context.Background() when ctx is nil.
func Default(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
