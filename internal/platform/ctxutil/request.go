package ctxutil

import (
	"context"

	"github.com/google/uuid"
)

type requestDataKey struct{}

// RequestData is the authenticated caller, attached by the auth middleware.
type RequestData struct {
	TokenString  string
	RefreshToken string
	UserID       uuid.UUID
	BranchID     uuid.UUID
	RoleID       uuid.UUID
	SessionID    uuid.UUID
	SuperAdmin   bool
}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(ctx, requestDataKey{}, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
	if ctx == nil {
		return nil
	}
	if rd, ok := ctx.Value(requestDataKey{}).(*RequestData); ok {
		return rd
	}
	return nil
}

// LogFields returns the caller ids worth attaching to a log line.
func (rd *RequestData) LogFields() []interface{} {
	if rd == nil {
		return nil
	}
	var out []interface{}
	for _, f := range []struct {
		key string
		id  uuid.UUID
	}{
		{"user_id", rd.UserID},
		{"session_id", rd.SessionID},
		{"branch_id", rd.BranchID},
	} {
		if f.id != uuid.Nil {
			out = append(out, f.key, f.id.String())
		}
	}
	return out
}
