package audit

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ActivityLog is an append-only record of a change made in a branch.
type ActivityLog struct {
	ID         uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	BranchID   uuid.UUID         `gorm:"type:uuid;not null;index:idx_activity_branch_created,priority:1;column:branch_id" json:"branch_id"`
	UserID     *uuid.UUID        `gorm:"type:uuid;index;column:user_id" json:"user_id,omitempty"`
	EntityType string            `gorm:"not null;index:idx_activity_entity,priority:1;column:entity_type" json:"entity_type"`
	EntityID   *uuid.UUID        `gorm:"type:uuid;index:idx_activity_entity,priority:2;column:entity_id" json:"entity_id,omitempty"`
	Action     string            `gorm:"not null;column:action" json:"action"`
	Day        string            `gorm:"index;column:day" json:"day"`
	Detail     datatypes.JSONMap `gorm:"column:detail" json:"detail,omitempty"`
	CreatedAt  time.Time         `gorm:"index:idx_activity_branch_created,priority:2" json:"created_at"`
}

func (ActivityLog) TableName() string { return "activity_log" }

func (l *ActivityLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// Entity types.
const (
	EntityTicket     = "ticket"
	EntityCounter    = "counter"
	EntityQueue      = "queue"
	EntityDepartment = "department"
	EntityUser       = "user"
	EntityRole       = "role"
	EntitySetting    = "setting"
	EntityAd         = "ad"
	EntityEvent      = "event"
	EntityBranch     = "branch"
)
