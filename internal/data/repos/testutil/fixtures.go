package testutil

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/queueflow-backend/internal/domain"
)

func SeedBranch(tb testing.TB, ctx context.Context, tx *gorm.DB, kind types.BranchKind) *types.Branch {
	tb.Helper()
	b := &types.Branch{
		ID:       uuid.New(),
		Name:     "Branch " + string(kind),
		Code:     strings.ToUpper(string(kind) + "-" + uuid.NewString()[:8]),
		Kind:     kind,
		Timezone: "UTC",
		Active:   true,
	}
	if err := tx.WithContext(ctx).Create(b).Error; err != nil {
		tb.Fatalf("seed branch: %v", err)
	}
	s := &types.Setting{BranchID: b.ID, DisplayName: b.Name, BoardWaitingRows: 8}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed setting: %v", err)
	}
	return b
}

func SeedRole(tb testing.TB, ctx context.Context, tx *gorm.DB, branchID uuid.UUID, name string, perms ...string) *types.Role {
	tb.Helper()
	r := &types.Role{
		ID:          uuid.New(),
		BranchID:    branchID,
		Name:        name,
		Permissions: datatypes.JSONSlice[string](perms),
	}
	if err := tx.WithContext(ctx).Create(r).Error; err != nil {
		tb.Fatalf("seed role: %v", err)
	}
	return r
}

// SeedUser creates an active user whose password is "pw".
func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, branchID uuid.UUID, roleID *uuid.UUID, email string) *types.User {
	tb.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("pw"), bcrypt.MinCost)
	if err != nil {
		tb.Fatalf("hash password: %v", err)
	}
	b := branchID
	u := &types.User{
		ID:        uuid.New(),
		BranchID:  &b,
		RoleID:    roleID,
		Email:     email,
		Password:  string(hash),
		FirstName: "A",
		LastName:  "B",
		Active:    true,
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedQueue(tb testing.TB, ctx context.Context, tx *gorm.DB, branchID uuid.UUID, name, prefix string) *types.Queue {
	tb.Helper()
	q := &types.Queue{
		ID:       uuid.New(),
		BranchID: branchID,
		Name:     name,
		Prefix:   prefix,
		Active:   true,
	}
	if err := tx.WithContext(ctx).Create(q).Error; err != nil {
		tb.Fatalf("seed queue: %v", err)
	}
	return q
}

func SeedDepartment(tb testing.TB, ctx context.Context, tx *gorm.DB, branchID uuid.UUID, name, prefix string, intake, payment bool) *types.Department {
	tb.Helper()
	d := &types.Department{
		ID:              uuid.New(),
		BranchID:        branchID,
		Name:            name,
		Prefix:          prefix,
		IsIntake:        intake,
		RequiresPayment: payment,
		Active:          true,
	}
	if err := tx.WithContext(ctx).Create(d).Error; err != nil {
		tb.Fatalf("seed department: %v", err)
	}
	return d
}

// SeedCounter links a counter to a queue (bank) or department (hospital) line.
func SeedCounter(tb testing.TB, ctx context.Context, tx *gorm.DB, branchID uuid.UUID, name string, queueID, departmentID *uuid.UUID) *types.Counter {
	tb.Helper()
	c := &types.Counter{
		ID:           uuid.New(),
		BranchID:     branchID,
		Name:         name,
		QueueID:      queueID,
		DepartmentID: departmentID,
		Active:       true,
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed counter: %v", err)
	}
	return c
}

func SeedAssignment(tb testing.TB, ctx context.Context, tx *gorm.DB, c *types.Counter, userID uuid.UUID, day string) *types.CounterAssignment {
	tb.Helper()
	a := &types.CounterAssignment{
		ID:        uuid.New(),
		BranchID:  c.BranchID,
		CounterID: c.ID,
		UserID:    userID,
		Day:       day,
	}
	if err := tx.WithContext(ctx).Create(a).Error; err != nil {
		tb.Fatalf("seed assignment: %v", err)
	}
	return a
}

func SeedTicket(tb testing.TB, ctx context.Context, tx *gorm.DB, t *types.Ticket) *types.Ticket {
	tb.Helper()
	if err := tx.WithContext(ctx).Create(t).Error; err != nil {
		tb.Fatalf("seed ticket: %v", err)
	}
	return t
}
