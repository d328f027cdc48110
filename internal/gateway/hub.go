package gateway

import (
	"context"

	"charityops/internal/dbmysql"

	"go.uber.org/zap"
)

// UnreadCounter reads a user's current unread total. Satisfied by the
// ledger repository.
type UnreadCounter interface {
	UnreadCount(ctx context.Context, userID uint64) (int64, error)
}

// Hub fans events out to every open connection of the targeted users.
// It implements the push capability the notification service consumes,
// which keeps the service→gateway edge a plain interface instead of a
// circular object graph.
type Hub struct {
	registry *Registry
	counter  UnreadCounter
	logger   *zap.SugaredLogger
}

func NewHub(registry *Registry, counter UnreadCounter, logger *zap.SugaredLogger) *Hub {
	return &Hub{registry: registry, counter: counter, logger: logger}
}

// PushToUsers emits new_notification to every open connection of every
// listed user, then a refreshed unread_count per reachable user. Users
// with no connections are silently skipped: the ledger already holds
// their pending record. At-most-once per handle, no retries, no acks.
func (h *Hub) PushToUsers(ctx context.Context, userIDs []uint64, notification *dbmysql.Notification) {
	message, err := marshalEvent(EventNewNotification, payloadFromNotification(notification))
	if err != nil {
		h.logger.Errorw("failed to encode notification event", "error", err)
		return
	}
	for _, userID := range userIDs {
		clients := h.registry.HandlesFor(userID)
		if len(clients) == 0 {
			continue
		}
		for _, client := range clients {
			client.Send(message)
		}
		h.PushUnreadCount(ctx, userID)
	}
}

// PushUnreadCount recomputes the user's unread total and emits it to all
// of their connections.
func (h *Hub) PushUnreadCount(ctx context.Context, userID uint64) {
	clients := h.registry.HandlesFor(userID)
	if len(clients) == 0 {
		return
	}
	count, err := h.counter.UnreadCount(ctx, userID)
	if err != nil {
		h.logger.Errorw("failed to read unread count", "user_id", userID, "error", err)
		return
	}
	message, err := marshalEvent(EventUnreadCount, unreadCountPayload{Count: count})
	if err != nil {
		h.logger.Errorw("failed to encode unread count event", "error", err)
		return
	}
	for _, client := range clients {
		client.Send(message)
	}
}
