package services

import (
	"net/http"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/queueflow-backend/internal/data/repos/testutil"
	types "github.com/yungbote/queueflow-backend/internal/domain"
	"github.com/yungbote/queueflow-backend/internal/domain/audit"
	"github.com/yungbote/queueflow-backend/internal/platform/dbctx"
)

func TestActivityLogServiceFilters(t *testing.T) {
	h := newHarness(t)
	b := testutil.SeedBranch(t, h.ctx, h.db, types.KindBank)
	admin := testutil.SeedUser(t, h.ctx, h.db, b.ID, nil, "admin@bank.test")
	teller := testutil.SeedUser(t, h.ctx, h.db, b.ID, nil, "teller@bank.test")
	other := testutil.SeedBranch(t, h.ctx, h.db, types.KindBank)
	queueID, counterID := uuid.New(), uuid.New()

	rows := []*types.ActivityLog{
		activity(b.ID, admin.ID, audit.EntityQueue, queueID, "created", "2026-03-01", nil),
		activity(b.ID, admin.ID, audit.EntityQueue, queueID, "updated", testDay, nil),
		activity(b.ID, teller.ID, audit.EntityCounter, counterID, "assigned", testDay, nil),
		activity(b.ID, teller.ID, audit.EntityTicket, uuid.New(), "called", testDay, nil),
		activity(other.ID, admin.ID, audit.EntityQueue, uuid.New(), "created", testDay, nil),
	}
	if err := h.logs.Create(dbctx.Context{Ctx: h.ctx}, rows); err != nil {
		t.Fatalf("seed logs: %v", err)
	}

	svc := NewActivityLogService(h.log, h.logs)
	ctx := h.as(admin)
	cases := []struct {
		name string
		q    ActivityLogQuery
		want int
	}{
		{"branch only", ActivityLogQuery{}, 4},
		{"entity type", ActivityLogQuery{EntityType: " Queue "}, 2},
		{"entity id", ActivityLogQuery{EntityID: &counterID}, 1},
		{"user", ActivityLogQuery{UserID: &teller.ID}, 2},
		{"day", ActivityLogQuery{Day: testDay}, 3},
		{"combined", ActivityLogQuery{EntityType: audit.EntityQueue, Day: "2026-03-01"}, 1},
		{"limit", ActivityLogQuery{Limit: 2}, 2},
		{"offset", ActivityLogQuery{Offset: 3}, 1},
	}
	for _, tc := range cases {
		got, err := svc.List(ctx, tc.q)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if len(got) != tc.want {
			t.Fatalf("%s: got %d rows, want %d", tc.name, len(got), tc.want)
		}
		for _, l := range got {
			if l.BranchID != b.ID {
				t.Fatalf("%s: leaked row of branch %s", tc.name, l.BranchID)
			}
		}
	}

	_, err := svc.List(ctx, ActivityLogQuery{Day: "03/02/2026"})
	wantCode(t, err, http.StatusBadRequest, "invalid_day")
}
