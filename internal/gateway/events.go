package gateway

import (
	"encoding/json"
	"time"

	"charityops/internal/common"
	"charityops/internal/dbmysql"
)

// Server-to-client and client-to-server event names. Inbound events
// outside this set are ignored, not errors.
const (
	EventNewNotification = "new_notification"
	EventUnreadCount     = "unread_count"
	EventMarkAsRead      = "mark_as_read"
	EventGetUnreadCount  = "get_unread_count"
)

// Envelope is the wire format in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type unreadCountPayload struct {
	Count int64 `json:"count"`
}

type markAsReadRequest struct {
	NotificationID uint64 `json:"notificationId"`
}

// ackPayload answers a client-initiated message.
type ackPayload struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Count   *int64 `json:"count,omitempty"`
}

// notificationPayload is the new_notification event body: the full
// notification plus is_read, which is by definition false at push time.
type notificationPayload struct {
	ID        uint64          `json:"id"`
	Title     string          `json:"title"`
	Body      string          `json:"body"`
	Category  string          `json:"category"`
	Link      *string         `json:"link,omitempty"`
	Metadata  common.Metadata `json:"metadata,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	IsRead    bool            `json:"is_read"`
}

func payloadFromNotification(n *dbmysql.Notification) notificationPayload {
	return notificationPayload{
		ID:        n.ID,
		Title:     n.Title,
		Body:      n.Body,
		Category:  n.Category,
		Link:      n.Link,
		Metadata:  n.Metadata,
		CreatedAt: n.CreatedAt,
		IsRead:    false,
	}
}

func marshalEvent(event string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Data: raw})
}
