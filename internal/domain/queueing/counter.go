package queueing

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Counter is a bank counter or a hospital room. Exactly one of QueueID and
// DepartmentID is set, matching the branch kind.
type Counter struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	BranchID     uuid.UUID      `gorm:"type:uuid;not null;index;column:branch_id" json:"branch_id"`
	Name         string         `gorm:"not null;column:name" json:"name"`
	QueueID      *uuid.UUID     `gorm:"type:uuid;index;column:queue_id" json:"queue_id,omitempty"`
	DepartmentID *uuid.UUID     `gorm:"type:uuid;index;column:department_id" json:"department_id,omitempty"`
	Active       bool           `gorm:"not null;default:true;column:active" json:"active"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Counter) TableName() string { return "counter" }

func (c *Counter) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// CounterAssignment puts one staff member on one counter for one service day.
type CounterAssignment struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	BranchID   uuid.UUID  `gorm:"type:uuid;not null;index;column:branch_id" json:"branch_id"`
	CounterID  uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_assignment_counter_day,priority:1;column:counter_id" json:"counter_id"`
	UserID     uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_assignment_user_day,priority:1;column:user_id" json:"user_id"`
	Day        string     `gorm:"not null;uniqueIndex:idx_assignment_counter_day,priority:2;uniqueIndex:idx_assignment_user_day,priority:2;column:day" json:"day"`
	AssignedBy *uuid.UUID `gorm:"type:uuid;column:assigned_by" json:"assigned_by,omitempty"`
	Counter    *Counter   `gorm:"foreignKey:CounterID;references:ID" json:"counter,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

func (CounterAssignment) TableName() string { return "counter_assignment" }

func (a *CounterAssignment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// TicketSequence holds the last issued number per ticket prefix per branch
// day. Live lines of a branch have distinct prefixes, so this is the line's
// own count. A line that takes over a prefix mid-day continues its count.
type TicketSequence struct {
	BranchID uuid.UUID `gorm:"type:uuid;primaryKey;column:branch_id"`
	Prefix   string    `gorm:"primaryKey;column:prefix"`
	Day      string    `gorm:"primaryKey;column:day"`
	Last     int       `gorm:"not null;default:0;column:last_seq"`
}

func (TicketSequence) TableName() string { return "ticket_prefix_sequence" }
