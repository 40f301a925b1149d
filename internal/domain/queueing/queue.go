package queueing

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// MenuItem is an issue a bank customer can pick at the kiosk.
type MenuItem struct {
	Name     string   `json:"name"`
	SubItems []string `json:"sub_items,omitempty"`
}

// Queue is a bank service line (e.g. "Cash", prefix "A").
type Queue struct {
	ID          uuid.UUID                     `gorm:"type:uuid;primaryKey" json:"id"`
	BranchID    uuid.UUID                     `gorm:"type:uuid;not null;index;column:branch_id" json:"branch_id"`
	Name        string                        `gorm:"not null;column:name" json:"name"`
	Prefix      string                        `gorm:"not null;column:prefix" json:"prefix"`
	Description string                        `gorm:"column:description" json:"description"`
	Menu        datatypes.JSONSlice[MenuItem] `gorm:"column:menu" json:"menu"`
	Position    int                           `gorm:"not null;default:0;column:position" json:"position"`
	Active      bool                          `gorm:"not null;default:true;column:active" json:"active"`
	CreatedAt   time.Time                     `json:"created_at"`
	UpdatedAt   time.Time                     `json:"updated_at"`
	DeletedAt   gorm.DeletedAt                `gorm:"index" json:"deleted_at,omitempty"`
}

func (Queue) TableName() string { return "queue" }

func (q *Queue) BeforeCreate(tx *gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}

// ValidIssue reports whether (issue, sub) is on the menu. An empty menu accepts anything,
// and an item without sub-items accepts an empty sub-issue only.
func (q *Queue) ValidIssue(issue, sub string) bool {
	if len(q.Menu) == 0 {
		return true
	}
	for _, it := range q.Menu {
		if !strings.EqualFold(it.Name, issue) {
			continue
		}
		if len(it.SubItems) == 0 {
			return sub == ""
		}
		for _, s := range it.SubItems {
			if strings.EqualFold(s, sub) {
				return true
			}
		}
		return false
	}
	return false
}

// NormalizePrefix upper-cases and trims a ticket prefix.
func NormalizePrefix(p string) string {
	return strings.ToUpper(strings.TrimSpace(p))
}
