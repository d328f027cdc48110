package notif

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"charityops/internal/common"
	"charityops/internal/dbmysql"

	"go.uber.org/zap"
)

// Pusher is the realtime delivery capability consumed by the service.
// Delivery is best-effort: the implementation must not block on slow
// consumers and its failures are never surfaced to the caller, because
// the ledger already holds the durable record.
type Pusher interface {
	PushToUsers(ctx context.Context, userIDs []uint64, notification *dbmysql.Notification)
	PushUnreadCount(ctx context.Context, userID uint64)
}

// CreateInput carries the notification content plus an optional single
// recipient; the effective recipient set is the union of this field and
// the explicit recipient list passed to Create.
type CreateInput struct {
	Title     string
	Body      string
	Category  string
	Link      *string
	Metadata  common.Metadata
	UserID    *uint64
	CreatedBy *uint64
}

// UpdateInput edits notification content. Empty title/body/category and
// nil link/metadata are left unchanged; a pointer to an empty string
// clears the link and an empty (non-nil) metadata map clears the
// metadata.
type UpdateInput struct {
	Title    string
	Body     string
	Category string
	Link     *string
	Metadata common.Metadata
}

// ListResult is one page of a user's notifications.
type ListResult struct {
	Items    []dbmysql.NotificationRow `json:"items"`
	Total    int64                     `json:"total"`
	Page     int                       `json:"page"`
	PageSize int                       `json:"pageSize"`
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Service is the sole writer of the notification store and the recipient
// ledger.
type Service struct {
	notifications dbmysql.NotificationRepository
	ledger        dbmysql.UserNotificationRepository
	pusher        Pusher
	logger        *zap.SugaredLogger
}

func NewService(
	notifications dbmysql.NotificationRepository,
	ledger dbmysql.UserNotificationRepository,
	pusher Pusher,
	logger *zap.SugaredLogger,
) *Service {
	return &Service{
		notifications: notifications,
		ledger:        ledger,
		pusher:        pusher,
		logger:        logger,
	}
}

// Create persists the notification with one ledger row per effective
// recipient, then requests a realtime push. An empty recipient set is
// valid: the notification is stored but surfaces for nobody. The push
// happens strictly after the transaction commits and never rolls it
// back.
func (s *Service) Create(ctx context.Context, in CreateInput, recipients []uint64) (*dbmysql.Notification, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, common.NewValidationError("title", "must not be empty")
	}
	if strings.TrimSpace(in.Body) == "" {
		return nil, common.NewValidationError("body", "must not be empty")
	}
	if in.Category == "" {
		in.Category = common.CategoryInfo
	}

	targets := effectiveRecipients(recipients, in.UserID)

	notification := &dbmysql.Notification{
		Title:     in.Title,
		Body:      in.Body,
		Category:  in.Category,
		Link:      in.Link,
		Metadata:  in.Metadata,
		CreatedBy: in.CreatedBy,
	}
	if err := s.notifications.Create(ctx, notification, targets); err != nil {
		return nil, fmt.Errorf("create notification: %w", err)
	}

	s.logger.Infow("notification created",
		"notification_id", notification.ID,
		"category", notification.Category,
		"recipients", len(targets),
	)

	if len(targets) > 0 && s.pusher != nil {
		s.pusher.PushToUsers(ctx, targets, notification)
	}
	return notification, nil
}

// List returns the caller's page of notifications. Only rows with a
// ledger entry for userID are visible; archived notifications and
// archived ledger rows are excluded.
func (s *Service) List(ctx context.Context, userID uint64, q dbmysql.ListQuery) (*ListResult, error) {
	if userID == 0 {
		return nil, common.NewValidationError("user_id", "is required")
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = defaultPageSize
	}
	if q.PageSize > maxPageSize {
		q.PageSize = maxPageSize
	}

	rows, total, err := s.notifications.ListForUser(ctx, userID, q)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	if rows == nil {
		rows = []dbmysql.NotificationRow{}
	}
	return &ListResult{Items: rows, Total: total, Page: q.Page, PageSize: q.PageSize}, nil
}

// Get returns one notification joined with the caller's ledger row.
func (s *Service) Get(ctx context.Context, notificationID, userID uint64) (*dbmysql.NotificationRow, error) {
	row, err := s.ledger.ByPair(ctx, notificationID, userID)
	if err != nil {
		return nil, err
	}
	notification, err := s.notifications.ByID(ctx, notificationID)
	if err != nil {
		return nil, err
	}
	return &dbmysql.NotificationRow{
		ID:        notification.ID,
		Title:     notification.Title,
		Body:      notification.Body,
		Category:  notification.Category,
		Link:      notification.Link,
		Metadata:  notification.Metadata,
		CreatedBy: notification.CreatedBy,
		CreatedAt: notification.CreatedAt,
		IsRead:    row.IsRead,
		ReadAt:    row.ReadAt,
	}, nil
}

// Update edits title/body/category/link/metadata of an existing
// notification. Empty title/body/category keep their current value;
// link and metadata are cleared when set to their empty form.
func (s *Service) Update(ctx context.Context, notificationID uint64, in UpdateInput) (*dbmysql.Notification, error) {
	notification, err := s.notifications.ByID(ctx, notificationID)
	if err != nil {
		return nil, err
	}
	if in.Title != "" {
		notification.Title = in.Title
	}
	if in.Body != "" {
		notification.Body = in.Body
	}
	if in.Category != "" {
		notification.Category = in.Category
	}
	if in.Link != nil {
		if *in.Link == "" {
			notification.Link = nil
		} else {
			notification.Link = in.Link
		}
	}
	if in.Metadata != nil {
		if len(in.Metadata) == 0 {
			notification.Metadata = nil
		} else {
			notification.Metadata = in.Metadata
		}
	}
	if err := s.notifications.Update(ctx, notification); err != nil {
		return nil, fmt.Errorf("update notification: %w", err)
	}
	return notification, nil
}

// MarkRead marks the pair read, idempotently, and refreshes the user's
// live unread count. A pair without a ledger row is NotFound.
func (s *Service) MarkRead(ctx context.Context, notificationID, userID uint64) (*dbmysql.UserNotification, error) {
	row, err := s.ledger.MarkRead(ctx, notificationID, userID)
	if err != nil {
		return nil, err
	}
	if s.pusher != nil {
		s.pusher.PushUnreadCount(ctx, userID)
	}
	return row, nil
}

// MarkAllRead bulk-transitions every unread, non-archived ledger row and
// pushes a single unread-count refresh.
func (s *Service) MarkAllRead(ctx context.Context, userID uint64) (int64, error) {
	count, err := s.ledger.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, err
	}
	if s.pusher != nil {
		s.pusher.PushUnreadCount(ctx, userID)
	}
	return count, nil
}

func (s *Service) UnreadCount(ctx context.Context, userID uint64) (int64, error) {
	return s.ledger.UnreadCount(ctx, userID)
}

// Archive soft-deletes the notification; ledger rows stay in place.
func (s *Service) Archive(ctx context.Context, notificationID uint64) error {
	return s.notifications.Archive(ctx, notificationID)
}

// Remove hard-deletes the notification; ledger rows cascade.
func (s *Service) Remove(ctx context.Context, notificationID uint64) error {
	return s.notifications.Delete(ctx, notificationID)
}

// effectiveRecipients unions the explicit list with the optional single
// recipient and dedupes, so duplicate targeting is a no-op.
func effectiveRecipients(recipients []uint64, single *uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(recipients)+1)
	targets := make([]uint64, 0, len(recipients)+1)
	for _, id := range recipients {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		targets = append(targets, id)
	}
	if single != nil && *single != 0 {
		if _, ok := seen[*single]; !ok {
			targets = append(targets, *single)
		}
	}
	sort.Slice(targets, func(i, j int) bool { return targets[i] < targets[j] })
	return targets
}
