package tenant

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Kind string

const (
	KindBank     Kind = "bank"
	KindHospital Kind = "hospital"
)

func (k Kind) Valid() bool { return k == KindBank || k == KindHospital }

// Branch is a tenant. Every other record except super-admin users belongs to one.
type Branch struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string         `gorm:"not null;column:name" json:"name"`
	Code      string         `gorm:"not null;column:code" json:"code"`
	Kind      Kind           `gorm:"not null;column:kind" json:"kind"`
	Address   string         `gorm:"column:address" json:"address"`
	Phone     string         `gorm:"column:phone" json:"phone"`
	Timezone  string         `gorm:"not null;default:'UTC';column:timezone" json:"timezone"`
	Active    bool           `gorm:"not null;default:true;column:active" json:"active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Branch) TableName() string { return "branch" }

func (b *Branch) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// Location resolves the branch timezone, falling back to UTC.
func (b *Branch) Location() *time.Location {
	if b == nil || b.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(b.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
