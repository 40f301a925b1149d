// Package authz maps branch roles onto a casbin RBAC model. A role's
// "resource:action" permission strings become policies for subject
// "role:<id>"; a write permission also grants read and issue.
package authz

import (
	"context"
	_ "embed"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/google/uuid"

	types "github.com/yungbote/queueflow-backend/internal/domain"
	"github.com/yungbote/queueflow-backend/internal/domain/identity"
	"github.com/yungbote/queueflow-backend/internal/platform/logger"
)

//go:embed model.conf
var embeddedModel string

// RoleSource lists every role whose permissions should be loaded.
type RoleSource interface {
	AllRoles(ctx context.Context) ([]*types.Role, error)
}

// Enforcer holds the current casbin enforcer; Reload builds a new one and swaps it in.
type Enforcer struct {
	log      *logger.Logger
	source   RoleSource
	enforcer atomic.Pointer[casbin.SyncedEnforcer]
}

func NewEnforcer(log *logger.Logger, source RoleSource) (*Enforcer, error) {
	ce, err := newCasbin()
	if err != nil {
		return nil, err
	}
	e := &Enforcer{
		log:    log.With("component", "AuthzEnforcer"),
		source: source,
	}
	e.enforcer.Store(ce)
	return e, nil
}

func newCasbin() (*casbin.SyncedEnforcer, error) {
	m, err := model.NewModelFromString(embeddedModel)
	if err != nil {
		return nil, fmt.Errorf("failed to load casbin model: %w", err)
	}
	ce, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}
	return ce, nil
}

func Subject(roleID uuid.UUID) string { return "role:" + roleID.String() }

// Reload replaces all policies with the current role table.
func (e *Enforcer) Reload(ctx context.Context) error {
	start := time.Now()
	roles, err := e.source.AllRoles(ctx)
	if err != nil {
		return fmt.Errorf("load roles: %w", err)
	}
	rules := make([][]string, 0, len(roles)*4)
	for _, r := range roles {
		rules = append(rules, rulesFor(r)...)
	}

	ce, err := newCasbin()
	if err != nil {
		return err
	}
	if len(rules) > 0 {
		if _, err := ce.AddPolicies(rules); err != nil {
			return fmt.Errorf("add policies: %w", err)
		}
	}
	e.enforcer.Store(ce)
	e.log.Debug("authz policies reloaded", "roles", len(roles), "rules", len(rules), "took", time.Since(start))
	return nil
}

func rulesFor(r *types.Role) [][]string {
	seen := map[string]bool{}
	out := [][]string{}
	for _, raw := range r.Permissions {
		p, ok := identity.ParsePermission(raw)
		if !ok || seen[p.String()] {
			continue
		}
		seen[p.String()] = true
		out = append(out, []string{Subject(r.ID), p.Resource, p.Action})
	}
	return out
}

// Can reports whether roleID may perform action on resource.
func (e *Enforcer) Can(roleID uuid.UUID, resource, action string) bool {
	if roleID == uuid.Nil {
		return false
	}
	ok, err := e.enforcer.Load().Enforce(Subject(roleID), resource, action)
	if err != nil {
		e.log.Warn("authz enforce failed", "role_id", roleID, "resource", resource, "action", action, "error", err)
		return false
	}
	return ok
}

// Permissions lists the effective "resource:action" strings of a role.
func (e *Enforcer) Permissions(roleID uuid.UUID) []string {
	policies, err := e.enforcer.Load().GetFilteredPolicy(0, Subject(roleID))
	if err != nil {
		return nil
	}
	out := make([]string, 0, len(policies))
	for _, p := range policies {
		if len(p) >= 3 {
			out = append(out, p[1]+":"+p[2])
		}
	}
	return out
}
