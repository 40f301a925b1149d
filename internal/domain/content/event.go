package content

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Event is a scheduled announcement shown on the display board.
type Event struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	BranchID  uuid.UUID  `gorm:"type:uuid;not null;index;column:branch_id" json:"branch_id"`
	Title     string     `gorm:"not null;column:title" json:"title"`
	Body      string     `gorm:"column:body" json:"body"`
	StartsAt  time.Time  `gorm:"not null;index;column:starts_at" json:"starts_at"`
	EndsAt    *time.Time `gorm:"index;column:ends_at" json:"ends_at,omitempty"`
	Active    bool       `gorm:"not null;default:true;column:active" json:"active"`
	CreatedBy *uuid.UUID `gorm:"type:uuid;column:created_by" json:"created_by,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (Event) TableName() string { return "event" }

func (e *Event) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// LiveAt reports whether the event should be shown at t.
func (e *Event) LiveAt(t time.Time) bool {
	if !e.Active || t.Before(e.StartsAt) {
		return false
	}
	return e.EndsAt == nil || t.Before(*e.EndsAt)
}
