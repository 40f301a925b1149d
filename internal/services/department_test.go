package services

import (
	"net/http"
	"testing"

	"github.com/yungbote/queueflow-backend/internal/data/repos/testutil"
	types "github.com/yungbote/queueflow-backend/internal/domain"
)

func TestDepartmentServiceSingleIntake(t *testing.T) {
	h := newHarness(t)
	b := testutil.SeedBranch(t, h.ctx, h.db, types.KindHospital)
	admin := testutil.SeedUser(t, h.ctx, h.db, b.ID, nil, "admin@hospital.test")
	svc := h.departmentService()
	ctx := h.as(admin)

	triage, err := svc.Create(ctx, DepartmentInput{Name: "Triage", Prefix: "T", IsIntake: true})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	reception, err := svc.Create(ctx, DepartmentInput{Name: "Reception", Prefix: "R", IsIntake: true})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	lab, err := svc.Create(ctx, DepartmentInput{Name: "Lab", Prefix: "L", RequiresPayment: true})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	intakes := func() []string {
		t.Helper()
		all, err := svc.List(ctx, false)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		var out []string
		for _, d := range all {
			if d.IsIntake {
				out = append(out, d.Name)
			}
		}
		return out
	}
	if got := intakes(); len(got) != 1 || got[0] != "Reception" {
		t.Fatalf("intakes after create = %v", got)
	}

	yes := true
	if _, err := svc.Update(ctx, lab.ID, DepartmentUpdate{IsIntake: &yes}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got := intakes(); len(got) != 1 || got[0] != "Lab" {
		t.Fatalf("intakes after update = %v", got)
	}

	taken := "T"
	_, err = svc.Update(ctx, reception.ID, DepartmentUpdate{Prefix: &taken})
	wantCode(t, err, http.StatusConflict, "prefix_in_use")
	_, err = svc.Create(ctx, DepartmentInput{Name: "Pharmacy", Prefix: "l"})
	wantCode(t, err, http.StatusConflict, "prefix_in_use")

	got, err := svc.Get(ctx, triage.ID)
	if err != nil || got.IsIntake {
		t.Fatalf("triage should have lost intake: %v %+v", err, got)
	}
}

func TestDepartmentServiceRecreateAfterDelete(t *testing.T) {
	h := newHarness(t)
	b := testutil.SeedBranch(t, h.ctx, h.db, types.KindHospital)
	admin := testutil.SeedUser(t, h.ctx, h.db, b.ID, nil, "admin@hospital.test")
	svc := h.departmentService()
	ctx := h.as(admin)

	lab, err := svc.Create(ctx, DepartmentInput{Name: "Lab", Prefix: "L"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	room := testutil.SeedCounter(t, h.ctx, h.db, b.ID, "Room 1", nil, &lab.ID)
	wantCode(t, svc.Delete(ctx, lab.ID), http.StatusConflict, "department_in_use")

	if err := h.db.Delete(room).Error; err != nil {
		t.Fatalf("remove room: %v", err)
	}
	if err := svc.Delete(ctx, lab.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.Create(ctx, DepartmentInput{Name: "Lab", Prefix: "L"}); err != nil {
		t.Fatalf("recreate deleted name and prefix: %v", err)
	}

	bank := testutil.SeedBranch(t, h.ctx, h.db, types.KindBank)
	_, err = svc.Create(h.as(testutil.SeedUser(t, h.ctx, h.db, bank.ID, nil, "admin@bank.test")), DepartmentInput{Name: "Lab", Prefix: "L"})
	wantCode(t, err, http.StatusBadRequest, "wrong_branch_kind")
}
