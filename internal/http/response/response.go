package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yungbote/queueflow-backend/internal/domain/ticket"
	"github.com/yungbote/queueflow-backend/internal/platform/apierr"
	"github.com/yungbote/queueflow-backend/internal/platform/ctxutil"
)

type APIError struct {
	Message   string `json:"message"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	body := APIError{Message: msg, Code: code}
	if c.Request != nil {
		if corr, ok := ctxutil.CorrelationFrom(c.Request.Context()); ok {
			body.RequestID = corr.RequestID
		}
	}
	c.JSON(status, ErrorEnvelope{Error: body})
}

// Fail writes err with the status its type implies. Unknown errors are 500s
// and their text is not echoed to the client.
func Fail(c *gin.Context, err error) {
	status, code := Classify(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
		RespondError(c, status, code, errors.New("internal server error"))
		return
	}
	RespondError(c, status, code, err)
}

// Classify maps an error to an HTTP status and a stable code.
func Classify(err error) (int, string) {
	if ae, ok := apierr.As(err); ok {
		return ae.Status, ae.Code
	}
	switch {
	case errors.Is(err, ticket.ErrInvalidTransition):
		return http.StatusConflict, "invalid_transition"
	case errors.Is(err, ticket.ErrClockSkew):
		return http.StatusConflict, "clock_skew"
	case errors.Is(err, ticket.ErrSameDepartment):
		return http.StatusBadRequest, "same_department"
	case errors.Is(err, ticket.ErrSameQueue):
		return http.StatusBadRequest, "same_queue"
	case errors.Is(err, ticket.ErrPaymentNotRequired):
		return http.StatusBadRequest, "payment_not_required"
	case errors.Is(err, ticket.ErrNoVisit):
		return http.StatusBadRequest, "no_visit"
	case errors.Is(err, ticket.ErrPaymentAlreadyCleared):
		return http.StatusConflict, "payment_already_cleared"
	case errors.Is(err, ticket.ErrPaymentPending):
		return http.StatusConflict, "payment_pending"
	case errors.Is(err, ticket.ErrNotServing):
		return http.StatusConflict, "not_serving"
	case errors.Is(err, ticket.ErrRoomBusy):
		return http.StatusConflict, "room_busy"
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return http.StatusConflict, "duplicate"
	case errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound, "not_found"
	}
	return http.StatusInternalServerError, "internal"
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}
