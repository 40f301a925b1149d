package identity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is a staff member of a branch. Super admins have no branch and manage tenants.
type User struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	BranchID    *uuid.UUID     `gorm:"type:uuid;index;column:branch_id" json:"branch_id,omitempty"`
	RoleID      *uuid.UUID     `gorm:"type:uuid;index;column:role_id" json:"role_id,omitempty"`
	Email       string         `gorm:"not null;column:email" json:"email"`
	Password    string         `gorm:"not null;column:password" json:"-"`
	FirstName   string         `gorm:"not null;column:first_name" json:"first_name"`
	LastName    string         `gorm:"not null;column:last_name" json:"last_name"`
	Phone       string         `gorm:"column:phone" json:"phone"`
	Active      bool           `gorm:"not null;default:true;column:active" json:"active"`
	SuperAdmin  bool           `gorm:"not null;default:false;column:super_admin" json:"super_admin"`
	LastLoginAt *time.Time     `gorm:"column:last_login_at" json:"last_login_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (User) TableName() string { return "user" }

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

func (u *User) FullName() string {
	if u == nil {
		return ""
	}
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	default:
		return u.FirstName + " " + u.LastName
	}
}
