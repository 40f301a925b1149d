package content

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MediaType string

const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
)

// Ad is a media item rotated on the display board.
type Ad struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	BranchID    uuid.UUID `gorm:"type:uuid;not null;index;column:branch_id" json:"branch_id"`
	Title       string    `gorm:"column:title" json:"title"`
	MediaType   MediaType `gorm:"not null;column:media_type" json:"media_type"`
	ContentType string    `gorm:"column:content_type" json:"content_type"`
	StorageKey  string    `gorm:"not null;column:storage_key" json:"-"`
	URL         string    `gorm:"not null;column:url" json:"url"`
	SizeBytes   int64     `gorm:"column:size_bytes" json:"size_bytes"`
	DurationSec int       `gorm:"not null;default:10;column:duration_sec" json:"duration_sec"`
	Position    int       `gorm:"not null;default:0;column:position" json:"position"`
	Active      bool      `gorm:"not null;default:true;column:active" json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Ad) TableName() string { return "ad" }

func (a *Ad) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// MediaTypeFor classifies an upload by its content type.
func MediaTypeFor(contentType string) (MediaType, bool) {
	switch {
	case len(contentType) >= 6 && contentType[:6] == "image/":
		return MediaImage, true
	case len(contentType) >= 6 && contentType[:6] == "video/":
		return MediaVideo, true
	}
	return "", false
}
