package identity

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/queueflow-backend/internal/data/repos/testutil"
	types "github.com/yungbote/queueflow-backend/internal/domain"
	"github.com/yungbote/queueflow-backend/internal/platform/dbctx"
)

func TestUserRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewUserRepo(db, testutil.Logger(t))

	b := testutil.SeedBranch(t, ctx, tx, types.KindBank)
	role := testutil.SeedRole(t, ctx, tx, b.ID, "teller", "tickets:*")
	branchID := b.ID
	u := &types.User{BranchID: &branchID, RoleID: &role.ID, Email: " Teller@Example.com ", Password: "x", FirstName: "T", LastName: "L", Active: true}
	if _, err := repo.Create(dbc, []*types.User{u}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if exists, err := repo.EmailExists(dbc, "TELLER@example.com"); err != nil || !exists {
		t.Fatalf("EmailExists: exists=%v err=%v", exists, err)
	}
	got, err := repo.GetByEmail(dbc, "teller@example.com")
	if err != nil || got == nil || got.ID != u.ID {
		t.Fatalf("GetByEmail: got=%v err=%v", got, err)
	}
	if n, err := repo.CountByRole(dbc, role.ID); err != nil || n != 1 {
		t.Fatalf("CountByRole: n=%d err=%v", n, err)
	}
	if err := repo.UpdatePassword(dbc, u.ID, "new-hash"); err != nil {
		t.Fatalf("UpdatePassword: %v", err)
	}
	if err := repo.TouchLastLogin(dbc, u.ID, time.Now()); err != nil {
		t.Fatalf("TouchLastLogin: %v", err)
	}
	got, _ = repo.GetByID(dbc, u.ID)
	if got.Password != "new-hash" || got.LastLoginAt == nil {
		t.Fatalf("updates not applied: %+v", got)
	}
	list, err := repo.ListByBranch(dbc, b.ID)
	if err != nil || len(list) != 1 {
		t.Fatalf("ListByBranch: len=%d err=%v", len(list), err)
	}
	if err := repo.Delete(dbc, u.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got, _ := repo.GetByID(dbc, u.ID); got != nil {
		t.Fatalf("expected deleted user to be hidden")
	}
}

func TestRoleRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewRoleRepo(db, testutil.Logger(t))

	b := testutil.SeedBranch(t, ctx, tx, types.KindHospital)
	other := testutil.SeedBranch(t, ctx, tx, types.KindHospital)
	r := &types.Role{BranchID: b.ID, Name: "nurse", Permissions: []string{"tickets:*"}}
	if err := repo.Create(dbc, r); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if got, err := repo.GetByID(dbc, other.ID, r.ID); err != nil || got != nil {
		t.Fatalf("role must not leak across branches: got=%v err=%v", got, err)
	}
	r.Permissions = append(r.Permissions, "payments:write")
	if err := repo.Update(dbc, r); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, err := repo.GetByName(dbc, b.ID, "nurse")
	if err != nil || got == nil || len(got.Permissions) != 2 {
		t.Fatalf("GetByName: got=%v err=%v", got, err)
	}
	if all, err := repo.ListAll(dbc); err != nil || len(all) != 1 {
		t.Fatalf("ListAll: len=%d err=%v", len(all), err)
	}
	if err := repo.Delete(dbc, b.ID, r.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
}

func TestUserTokenRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewUserTokenRepo(db, testutil.Logger(t))

	b := testutil.SeedBranch(t, ctx, tx, types.KindBank)
	u := testutil.SeedUser(t, ctx, tx, b.ID, nil, "tokens@example.com")

	makeToken := func(access, refresh string, exp time.Time) *types.UserToken {
		return &types.UserToken{
			ID:           uuid.New(),
			UserID:       u.ID,
			AccessToken:  access,
			RefreshToken: refresh,
			ExpiresAt:    exp,
		}
	}
	live := makeToken("access-1", "refresh-1", time.Now().Add(time.Hour))
	stale := makeToken("access-2", "refresh-2", time.Now().Add(-time.Hour))
	if _, err := repo.Create(dbc, []*types.UserToken{live, stale}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if got, err := repo.GetByRefreshToken(dbc, "refresh-1"); err != nil || got == nil || got.ID != live.ID {
		t.Fatalf("GetByRefreshToken: got=%v err=%v", got, err)
	}
	if err := repo.Rotate(dbc, live.ID, "access-3", "refresh-3", time.Now().Add(2*time.Hour)); err != nil {
		t.Fatalf("Rotate: %v", err)
	}
	if got, _ := repo.GetByRefreshToken(dbc, "refresh-1"); got != nil {
		t.Fatalf("old refresh token still valid")
	}
	if n, err := repo.DeleteExpired(dbc, time.Now()); err != nil || n != 1 {
		t.Fatalf("DeleteExpired: n=%d err=%v", n, err)
	}
	if rows, err := repo.GetByUserIDs(dbc, []uuid.UUID{u.ID}); err != nil || len(rows) != 1 {
		t.Fatalf("GetByUserIDs: len=%d err=%v", len(rows), err)
	}
	if err := repo.DeleteByUserIDs(dbc, []uuid.UUID{u.ID}); err != nil {
		t.Fatalf("DeleteByUserIDs: %v", err)
	}
	if rows, _ := repo.GetByIDs(dbc, []uuid.UUID{live.ID}); len(rows) != 0 {
		t.Fatalf("expected tokens to be deleted")
	}
}
