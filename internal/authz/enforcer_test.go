package authz

import (
	"context"
	"testing"

	"github.com/google/uuid"

	types "github.com/yungbote/queueflow-backend/internal/domain"
	"github.com/yungbote/queueflow-backend/internal/platform/logger"
)

type staticRoles []*types.Role

func (s staticRoles) AllRoles(context.Context) ([]*types.Role, error) { return s, nil }

func TestEnforcerPermissions(t *testing.T) {
	admin := &types.Role{ID: uuid.New(), Permissions: []string{"*"}}
	teller := &types.Role{ID: uuid.New(), Permissions: []string{"tickets:write", "counters:read", "bogus perm"}}
	cashier := &types.Role{ID: uuid.New(), Permissions: []string{"payments", "tickets:read"}}
	source := staticRoles{admin, teller, cashier}

	e, err := NewEnforcer(logger.Nop(), source)
	if err != nil {
		t.Fatalf("NewEnforcer: %v", err)
	}
	if err := e.Reload(context.Background()); err != nil {
		t.Fatalf("Reload: %v", err)
	}

	cases := []struct {
		role             *types.Role
		resource, action string
		want             bool
	}{
		{admin, "branches", "write", true},
		{admin, "logs", "read", true},
		{teller, "tickets", "write", true},
		{teller, "tickets", "read", true},
		{teller, "tickets", "issue", true},
		{teller, "counters", "read", true},
		{teller, "counters", "write", false},
		{teller, "users", "read", false},
		{cashier, "payments", "write", true},
		{cashier, "tickets", "read", true},
		{cashier, "tickets", "write", false},
		{cashier, "tickets", "issue", false},
	}
	for _, tc := range cases {
		if got := e.Can(tc.role.ID, tc.resource, tc.action); got != tc.want {
			t.Errorf("%v %s:%s want=%v got=%v", tc.role.Permissions, tc.resource, tc.action, tc.want, got)
		}
	}
	if e.Can(uuid.Nil, "tickets", "read") {
		t.Fatalf("nil role must be denied")
	}
	if perms := e.Permissions(teller.ID); len(perms) != 2 {
		t.Fatalf("teller permissions: %v", perms)
	}
}

func TestEnforcerReloadDropsRevoked(t *testing.T) {
	role := &types.Role{ID: uuid.New(), Permissions: []string{"ads:write"}}
	source := staticRoles{role}
	e, err := NewEnforcer(logger.Nop(), source)
	if err != nil {
		t.Fatalf("NewEnforcer: %v", err)
	}
	_ = e.Reload(context.Background())
	if !e.Can(role.ID, "ads", "write") {
		t.Fatalf("expected grant")
	}
	role.Permissions = []string{"events:write"}
	_ = e.Reload(context.Background())
	if e.Can(role.ID, "ads", "write") {
		t.Fatalf("revoked permission still granted")
	}
	if !e.Can(role.ID, "events", "read") {
		t.Fatalf("new permission missing")
	}
}
