package dbmysql

import (
	"time"

	"charityops/internal/common"
)

// Notification is the recipient-independent message record. Content edits
// go through an explicit update; everything else is immutable after
// creation. Archival is a soft delete and leaves ledger rows untouched.
type Notification struct {
	ID        uint64          `gorm:"primaryKey;autoIncrement" json:"id"`
	Title     string          `gorm:"not null;size:255" json:"title"`
	Body      string          `gorm:"not null;type:text" json:"body"`
	Category  string          `gorm:"not null;size:50;default:'info'" json:"category"`
	Link      *string         `gorm:"size:512" json:"link,omitempty"`
	Metadata  common.Metadata `gorm:"type:json" json:"metadata,omitempty"`
	CreatedBy *uint64         `json:"created_by,omitempty"`
	Archived  bool            `gorm:"not null;default:false" json:"archived"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updated_at"`

	Recipients []UserNotification `gorm:"foreignKey:NotificationID;constraint:OnDelete:CASCADE" json:"-"`
}

// UserNotification is the per-(notification, user) delivery/read ledger
// row. The pair is unique; is_read=false implies read_at is null. The
// composite (user_id, is_read, archived) index keeps unread counting
// cheap enough to run on every connect and read-state mutation.
type UserNotification struct {
	ID             uint64     `gorm:"primaryKey;autoIncrement" json:"id"`
	NotificationID uint64     `gorm:"not null;uniqueIndex:idx_notification_user" json:"notification_id"`
	UserID         uint64     `gorm:"not null;uniqueIndex:idx_notification_user;index:idx_user_unread,priority:1" json:"user_id"`
	IsRead         bool       `gorm:"not null;default:false;index:idx_user_unread,priority:2" json:"is_read"`
	ReadAt         *time.Time `json:"read_at,omitempty"`
	Archived       bool       `gorm:"not null;default:false;index:idx_user_unread,priority:3" json:"archived"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

// NotificationRow is a notification joined with the requesting user's
// ledger row, as surfaced by list and get-one.
type NotificationRow struct {
	ID        uint64          `json:"id"`
	Title     string          `json:"title"`
	Body      string          `json:"body"`
	Category  string          `json:"category"`
	Link      *string         `json:"link,omitempty"`
	Metadata  common.Metadata `json:"metadata,omitempty"`
	CreatedBy *uint64         `json:"created_by,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	IsRead    bool            `json:"is_read"`
	ReadAt    *time.Time      `json:"read_at,omitempty"`
}
