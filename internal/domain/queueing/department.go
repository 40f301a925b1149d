package queueing

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Department is a hospital service point (e.g. Triage, Lab, Pharmacy).
type Department struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	BranchID        uuid.UUID      `gorm:"type:uuid;not null;index;column:branch_id" json:"branch_id"`
	Name            string         `gorm:"not null;column:name" json:"name"`
	Prefix          string         `gorm:"not null;column:prefix" json:"prefix"`
	Description     string         `gorm:"column:description" json:"description"`
	RequiresPayment bool           `gorm:"not null;default:false;column:requires_payment" json:"requires_payment"`
	IsIntake        bool           `gorm:"not null;default:false;column:is_intake" json:"is_intake"`
	Position        int            `gorm:"not null;default:0;column:position" json:"position"`
	Active          bool           `gorm:"not null;default:true;column:active" json:"active"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Department) TableName() string { return "department" }

func (d *Department) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
