package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yungbote/queueflow-backend/internal/domain/ticket"
	"github.com/yungbote/queueflow-backend/internal/platform/apierr"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{apierr.NotFound("ticket_not_found", errors.New("x")), http.StatusNotFound, "ticket_not_found"},
		{fmt.Errorf("wrapped: %w", apierr.Conflict("counter_taken", errors.New("x"))), http.StatusConflict, "counter_taken"},
		{fmt.Errorf("transition: %w", ticket.ErrInvalidTransition), http.StatusConflict, "invalid_transition"},
		{ticket.ErrSameDepartment, http.StatusBadRequest, "same_department"},
		{ticket.ErrPaymentPending, http.StatusConflict, "payment_pending"},
		{ticket.ErrRoomBusy, http.StatusConflict, "room_busy"},
		{gorm.ErrDuplicatedKey, http.StatusConflict, "duplicate"},
		{errors.New("boom"), http.StatusInternalServerError, "internal"},
	}
	for _, tc := range cases {
		status, code := Classify(tc.err)
		if status != tc.status || code != tc.code {
			t.Errorf("Classify(%v) = %d/%s, want %d/%s", tc.err, status, code, tc.status, tc.code)
		}
	}
}

func TestFailHidesInternalErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	Fail(c, errors.New("pq: connection refused"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	var env ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Error.Message != "internal server error" || env.Error.Code != "internal" {
		t.Fatalf("unexpected envelope: %+v", env)
	}
}
