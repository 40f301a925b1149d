package tenant

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Setting holds the per-branch display and ticket printing preferences.
type Setting struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	BranchID          uuid.UUID `gorm:"type:uuid;not null;uniqueIndex;column:branch_id" json:"branch_id"`
	DisplayName       string    `gorm:"column:display_name" json:"display_name"`
	TicketHeader      string    `gorm:"column:ticket_header" json:"ticket_header"`
	TicketFooter      string    `gorm:"column:ticket_footer" json:"ticket_footer"`
	ThemeColor        string    `gorm:"column:theme_color" json:"theme_color"`
	BoardWaitingRows  int       `gorm:"not null;default:8;column:board_waiting_rows" json:"board_waiting_rows"`
	DayStartHour      int       `gorm:"not null;default:0;column:day_start_hour" json:"day_start_hour"`
	ShowCustomerNames bool      `gorm:"not null;default:false;column:show_customer_names" json:"show_customer_names"`
	LogoKey           string    `gorm:"column:logo_key" json:"-"`
	LogoURL           string    `gorm:"column:logo_url" json:"logo_url"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func (Setting) TableName() string { return "setting" }

func (s *Setting) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// ServiceDay is the business day a moment belongs to. Days roll over at DayStartHour
// local time, so a 02:00 ticket with DayStartHour=4 still counts toward yesterday.
func ServiceDay(at time.Time, loc *time.Location, dayStartHour int) string {
	if loc == nil {
		loc = time.UTC
	}
	if dayStartHour < 0 || dayStartHour > 23 {
		dayStartHour = 0
	}
	return at.In(loc).Add(-time.Duration(dayStartHour) * time.Hour).Format("2006-01-02")
}
