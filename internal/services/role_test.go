package services

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/queueflow-backend/internal/data/repos/testutil"
	types "github.com/yungbote/queueflow-backend/internal/domain"
)

type countingReloader struct {
	calls int
	err   error
}

func (r *countingReloader) Reload(context.Context) error {
	r.calls++
	return r.err
}

func TestRoleServiceReloadsPolicies(t *testing.T) {
	h := newHarness(t)
	b := testutil.SeedBranch(t, h.ctx, h.db, types.KindBank)
	admin := testutil.SeedUser(t, h.ctx, h.db, b.ID, nil, "admin@bank.test")
	policies := &countingReloader{}
	svc := NewRoleService(h.db, h.log, h.roles, h.users, h.logs, policies)
	ctx := h.as(admin)

	_, err := svc.Create(ctx, RoleInput{Name: " "})
	wantCode(t, err, http.StatusBadRequest, "missing_name")
	_, err = svc.Create(ctx, RoleInput{Name: "teller", Permissions: []string{"tickets write"}})
	wantCode(t, err, http.StatusBadRequest, "invalid_permission")
	if policies.calls != 0 {
		t.Fatalf("rejected input reloaded policies")
	}

	role, err := svc.Create(ctx, RoleInput{Name: " Teller ", Permissions: []string{"Tickets", "tickets:*", "counters:read"}})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if role.Name != "Teller" || len(role.Permissions) != 2 || role.Permissions[0] != "tickets:*" || role.Permissions[1] != "counters:read" {
		t.Fatalf("role not normalized: %+v", role)
	}
	if policies.calls != 1 {
		t.Fatalf("Create reloads = %d", policies.calls)
	}

	updated, err := svc.Update(ctx, role.ID, RoleInput{Permissions: []string{"payments:write"}})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Name != "Teller" || len(updated.Permissions) != 1 || updated.Permissions[0] != "payments:write" {
		t.Fatalf("update wrong: %+v", updated)
	}
	if policies.calls != 2 {
		t.Fatalf("Update reloads = %d", policies.calls)
	}

	holder := testutil.SeedUser(t, h.ctx, h.db, b.ID, &role.ID, "holder@bank.test")
	wantCode(t, svc.Delete(ctx, role.ID), http.StatusConflict, "role_in_use")
	if policies.calls != 2 {
		t.Fatalf("refused delete reloaded policies")
	}
	if err := h.db.Delete(holder).Error; err != nil {
		t.Fatalf("remove holder: %v", err)
	}

	policies.err = errors.New("enforcer offline")
	if err := svc.Delete(ctx, role.ID); err != nil {
		t.Fatalf("Delete must stand when reload fails: %v", err)
	}
	if policies.calls != 3 {
		t.Fatalf("Delete reloads = %d", policies.calls)
	}
	_, err = svc.Get(ctx, role.ID)
	wantCode(t, err, http.StatusNotFound, "role_not_found")
	_, err = svc.Update(ctx, uuid.New(), RoleInput{Name: "x"})
	wantCode(t, err, http.StatusNotFound, "role_not_found")
}

func TestRoleServiceWithoutReloader(t *testing.T) {
	h := newHarness(t)
	b := testutil.SeedBranch(t, h.ctx, h.db, types.KindHospital)
	admin := testutil.SeedUser(t, h.ctx, h.db, b.ID, nil, "admin@hospital.test")
	svc := NewRoleService(h.db, h.log, h.roles, h.users, h.logs, nil)

	if _, err := svc.Create(h.as(admin), RoleInput{Name: "nurse", Permissions: []string{"*"}}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	roles, err := svc.List(h.as(admin))
	if err != nil || len(roles) != 1 {
		t.Fatalf("List: %v %d", err, len(roles))
	}
}
