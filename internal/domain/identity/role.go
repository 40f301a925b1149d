package identity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Role groups "resource:action" permissions; either side may be "*".
type Role struct {
	ID          uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	BranchID    uuid.UUID                   `gorm:"type:uuid;not null;uniqueIndex:idx_role_branch_name,priority:1;column:branch_id" json:"branch_id"`
	Name        string                      `gorm:"not null;uniqueIndex:idx_role_branch_name,priority:2;column:name" json:"name"`
	Description string                      `gorm:"column:description" json:"description"`
	Permissions datatypes.JSONSlice[string] `gorm:"column:permissions" json:"permissions"`
	CreatedAt   time.Time                   `json:"created_at"`
	UpdatedAt   time.Time                   `json:"updated_at"`
}

func (Role) TableName() string { return "role" }

func (r *Role) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// Permission is a parsed "resource:action" pair.
type Permission struct {
	Resource string
	Action   string
}

// ParsePermission accepts "tickets:write", "tickets" (any action) or "*".
func ParsePermission(raw string) (Permission, bool) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return Permission{}, false
	}
	resource, action, found := strings.Cut(raw, ":")
	resource = strings.TrimSpace(resource)
	action = strings.TrimSpace(action)
	if !found || action == "" {
		action = "*"
	}
	if resource == "" || strings.ContainsAny(resource+action, " ,") {
		return Permission{}, false
	}
	return Permission{Resource: resource, Action: action}, true
}

func (p Permission) String() string { return p.Resource + ":" + p.Action }

// Resources that permissions may name.
const (
	ResourceBranches    = "branches"
	ResourceSettings    = "settings"
	ResourceUsers       = "users"
	ResourceRoles       = "roles"
	ResourceQueues      = "queues"
	ResourceDepartments = "departments"
	ResourceCounters    = "counters"
	ResourceTickets     = "tickets"
	ResourcePayments    = "payments"
	ResourceAds         = "ads"
	ResourceEvents      = "events"
	ResourceLogs        = "logs"
	ResourceDashboard   = "dashboard"
)

const (
	ActionRead  = "read"
	ActionWrite = "write"
	// ActionIssue covers kiosk ticket issuing only.
	ActionIssue = "issue"
)
