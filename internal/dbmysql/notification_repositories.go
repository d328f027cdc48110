package dbmysql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"charityops/internal/common"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ListFilter narrows a user's notification listing.
type ListFilter struct {
	Search   string // LIKE match against title and body
	Category string
	IsRead   *bool
}

// ListQuery carries pagination, sorting and filters for ListForUser.
type ListQuery struct {
	Page     int
	PageSize int
	SortBy   string // title, category, created_at
	Order    string // asc, desc
	Filter   ListFilter
}

// sortColumns whitelists sortable columns; anything else falls back to
// creation time.
var sortColumns = map[string]string{
	"title":      "notifications.title",
	"category":   "notifications.category",
	"created_at": "notifications.created_at",
}

type NotificationRepository interface {
	Create(ctx context.Context, notification *Notification, recipients []uint64) error
	ByID(ctx context.Context, id uint64) (*Notification, error)
	Update(ctx context.Context, notification *Notification) error
	Archive(ctx context.Context, id uint64) error
	Delete(ctx context.Context, id uint64) error
	ListForUser(ctx context.Context, userID uint64, q ListQuery) ([]NotificationRow, int64, error)
}

type UserNotificationRepository interface {
	ByPair(ctx context.Context, notificationID, userID uint64) (*UserNotification, error)
	MarkRead(ctx context.Context, notificationID, userID uint64) (*UserNotification, error)
	MarkAllRead(ctx context.Context, userID uint64) (int64, error)
	UnreadCount(ctx context.Context, userID uint64) (int64, error)
}

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

// Create persists the notification and one ledger row per recipient in a
// single transaction. Re-targeting an already-ledgered (notification,
// user) pair is a no-op: the pair carries a unique index and conflicting
// inserts are skipped.
func (r *notificationRepository) Create(ctx context.Context, notification *Notification, recipients []uint64) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(notification).Error; err != nil {
			return err
		}
		for _, userID := range recipients {
			row := &UserNotification{
				NotificationID: notification.ID,
				UserID:         userID,
			}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(row).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (r *notificationRepository) ByID(ctx context.Context, id uint64) (*Notification, error) {
	var notification Notification
	if err := r.db.WithContext(ctx).First(&notification, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("notification %d: %w", id, common.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}
	return &notification, nil
}

func (r *notificationRepository) Update(ctx context.Context, notification *Notification) error {
	if err := r.db.WithContext(ctx).Save(notification).Error; err != nil {
		return fmt.Errorf("failed to update notification: %w", err)
	}
	return nil
}

func (r *notificationRepository) Archive(ctx context.Context, id uint64) error {
	result := r.db.WithContext(ctx).
		Model(&Notification{}).
		Where("id = ?", id).
		Update("archived", true)
	if result.Error != nil {
		return fmt.Errorf("failed to archive notification: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("notification %d: %w", id, common.ErrNotFound)
	}
	return nil
}

// Delete hard-deletes the notification and its ledger rows. The cascade
// is explicit so it holds on backends without FK enforcement.
func (r *notificationRepository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("notification_id = ?", id).Delete(&UserNotification{}).Error; err != nil {
			return fmt.Errorf("failed to delete ledger rows: %w", err)
		}
		result := tx.Delete(&Notification{}, id)
		if result.Error != nil {
			return fmt.Errorf("failed to delete notification: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("notification %d: %w", id, common.ErrNotFound)
		}
		return nil
	})
}

func (r *notificationRepository) ListForUser(ctx context.Context, userID uint64, q ListQuery) ([]NotificationRow, int64, error) {
	base := func() *gorm.DB {
		query := r.db.WithContext(ctx).
			Table("user_notifications").
			Joins("JOIN notifications ON notifications.id = user_notifications.notification_id").
			Where("user_notifications.user_id = ?", userID).
			Where("user_notifications.archived = ?", false).
			Where("notifications.archived = ?", false)
		if q.Filter.Search != "" {
			like := "%" + q.Filter.Search + "%"
			query = query.Where("notifications.title LIKE ? OR notifications.body LIKE ?", like, like)
		}
		if q.Filter.Category != "" {
			query = query.Where("notifications.category = ?", q.Filter.Category)
		}
		if q.Filter.IsRead != nil {
			query = query.Where("user_notifications.is_read = ?", *q.Filter.IsRead)
		}
		return query
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	column, ok := sortColumns[q.SortBy]
	if !ok {
		column = sortColumns["created_at"]
	}
	direction := "DESC"
	if strings.EqualFold(q.Order, "asc") {
		direction = "ASC"
	}

	var rows []NotificationRow
	err := base().
		Select("notifications.id, notifications.title, notifications.body, notifications.category, " +
			"notifications.link, notifications.metadata, notifications.created_by, notifications.created_at, " +
			"user_notifications.is_read, user_notifications.read_at").
		Order(fmt.Sprintf("%s %s", column, direction)).
		Limit(q.PageSize).
		Offset((q.Page - 1) * q.PageSize).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}
	return rows, total, nil
}

type userNotificationRepository struct {
	db *gorm.DB
}

func NewUserNotificationRepository(db *gorm.DB) UserNotificationRepository {
	return &userNotificationRepository{db: db}
}

func (r *userNotificationRepository) ByPair(ctx context.Context, notificationID, userID uint64) (*UserNotification, error) {
	var row UserNotification
	err := r.db.WithContext(ctx).
		Where("notification_id = ? AND user_id = ?", notificationID, userID).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("notification %d for user %d: %w", notificationID, userID, common.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get ledger row: %w", err)
	}
	return &row, nil
}

// MarkRead transitions the pair to read. The update is conditional on
// is_read=false so read_at is written exactly once, even under concurrent
// calls; re-marking an already-read row succeeds and returns the current
// row unchanged.
func (r *userNotificationRepository) MarkRead(ctx context.Context, notificationID, userID uint64) (*UserNotification, error) {
	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&UserNotification{}).
		Where("notification_id = ? AND user_id = ? AND is_read = ?", notificationID, userID, false).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": &now,
		})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to mark notification as read: %w", result.Error)
	}
	return r.ByPair(ctx, notificationID, userID)
}

func (r *userNotificationRepository) MarkAllRead(ctx context.Context, userID uint64) (int64, error) {
	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&UserNotification{}).
		Where("user_id = ? AND is_read = ? AND archived = ?", userID, false, false).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": &now,
		})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to mark all as read: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *userNotificationRepository) UnreadCount(ctx context.Context, userID uint64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&UserNotification{}).
		Where("user_id = ? AND is_read = ? AND archived = ?", userID, false, false).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to get unread count: %w", err)
	}
	return count, nil
}
