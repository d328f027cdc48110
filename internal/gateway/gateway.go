package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"charityops/internal/common"
	"charityops/internal/config"
	"charityops/internal/dbmysql"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// NotificationService is the slice of the notification service the
// gateway needs for client-initiated messages.
type NotificationService interface {
	MarkRead(ctx context.Context, notificationID, userID uint64) (*dbmysql.UserNotification, error)
	UnreadCount(ctx context.Context, userID uint64) (int64, error)
}

// credentialExtractor pulls a bearer credential out of the upgrade
// request. Extractors are tried in priority order; the first non-empty
// result wins. New transports slot in by appending to the list.
type credentialExtractor func(r *http.Request) string

func defaultExtractors() []credentialExtractor {
	return []credentialExtractor{
		fromQueryParam("auth"),
		fromQueryParam("token"),
		fromBearerHeader,
		fromCookie("access_token"),
	}
}

func fromQueryParam(name string) credentialExtractor {
	return func(r *http.Request) string {
		return r.URL.Query().Get(name)
	}
}

func fromBearerHeader(r *http.Request) string {
	parts := strings.Fields(r.Header.Get("Authorization"))
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return parts[1]
	}
	return ""
}

func fromCookie(name string) credentialExtractor {
	return func(r *http.Request) string {
		cookie, err := r.Cookie(name)
		if err != nil {
			return ""
		}
		return cookie.Value
	}
}

// Gateway terminates persistent client connections. Per-connection
// lifecycle: extract credential, verify, register, send the catch-up
// unread_count, then serve inbound messages until the transport closes.
type Gateway struct {
	cfg        config.GatewayConfig
	hub        *Hub
	service    NotificationService
	verifier   common.TokenVerifier
	extractors []credentialExtractor
	upgrader   websocket.Upgrader
	logger     *zap.SugaredLogger
}

func NewGateway(
	cfg *config.Config,
	hub *Hub,
	service NotificationService,
	verifier common.TokenVerifier,
	logger *zap.SugaredLogger,
) *Gateway {
	return &Gateway{
		cfg:        cfg.Gateway,
		hub:        hub,
		service:    service,
		verifier:   verifier,
		extractors: defaultExtractors(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// cross-origin handshakes are allowed; authentication is the
			// bearer credential, not the Origin header
			CheckOrigin: func(*http.Request) bool { return true },
		},
		logger: logger,
	}
}

// HandleWS is the upgrade endpoint. Rejected connections simply close;
// no structured error body is owed to an unauthenticated client.
func (g *Gateway) HandleWS(w http.ResponseWriter, r *http.Request) {
	token := g.extractCredential(r)
	if token == "" {
		http.Error(w, "missing credentials", http.StatusUnauthorized)
		return
	}
	userID, err := g.verifier.Verify(token)
	if err != nil {
		g.logger.Debugw("rejected connection", "error", err)
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Warnw("websocket upgrade failed", "error", err)
		return
	}

	client := newClient(userID, conn, g.cfg.SendBufferSize, g.logger)
	g.hub.registry.Register(userID, client)
	g.logger.Infow("connection registered",
		"handle_id", client.ID, "user_id", userID,
		"connections", g.hub.registry.ConnectionCount())

	go client.writePump(g.cfg.PingInterval, g.cfg.WriteTimeout)

	// catch-up for events missed while offline; this connection only
	g.sendUnreadCount(r.Context(), client)

	g.readLoop(client)
}

func (g *Gateway) extractCredential(r *http.Request) string {
	for _, extract := range g.extractors {
		if token := extract(r); token != "" {
			return token
		}
	}
	return ""
}

// readLoop processes inbound messages in arrival order until the
// transport closes, then unregisters the handle.
func (g *Gateway) readLoop(client *Client) {
	defer func() {
		g.hub.registry.Unregister(client.ID)
		client.close()
		_ = client.conn.Close()
		g.logger.Infow("connection closed",
			"handle_id", client.ID, "user_id", client.UserID,
			"connections", g.hub.registry.ConnectionCount())
	}()

	client.conn.SetReadLimit(g.cfg.MaxMessageSize)
	_ = client.conn.SetReadDeadline(time.Now().Add(g.cfg.PongWait))
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(g.cfg.PongWait))
	})

	for {
		_, data, err := client.conn.ReadMessage()
		if err != nil {
			return
		}
		var envelope Envelope
		if err := json.Unmarshal(data, &envelope); err != nil {
			continue
		}
		g.dispatch(client, envelope)
	}
}

func (g *Gateway) dispatch(client *Client, envelope Envelope) {
	ctx := context.Background()
	switch envelope.Event {
	case EventMarkAsRead:
		g.handleMarkAsRead(ctx, client, envelope.Data)
	case EventGetUnreadCount:
		g.handleGetUnreadCount(ctx, client)
	default:
		// unknown inbound events are ignored, not errors
	}
}

// handleMarkAsRead uses the connection's authenticated identity, never a
// client-supplied one. On success the service also pushes a refreshed
// unread_count to every connection of this user.
func (g *Gateway) handleMarkAsRead(ctx context.Context, client *Client, data json.RawMessage) {
	var req markAsReadRequest
	if err := json.Unmarshal(data, &req); err != nil || req.NotificationID == 0 {
		g.reply(client, EventMarkAsRead, ackPayload{Success: false, Message: "notificationId is required"})
		return
	}
	if _, err := g.service.MarkRead(ctx, req.NotificationID, client.UserID); err != nil {
		message := "failed to mark as read"
		if errors.Is(err, common.ErrNotFound) {
			message = "notification not found"
		} else {
			g.logger.Errorw("mark as read failed",
				"notification_id", req.NotificationID, "user_id", client.UserID, "error", err)
		}
		g.reply(client, EventMarkAsRead, ackPayload{Success: false, Message: message})
		return
	}
	g.reply(client, EventMarkAsRead, ackPayload{Success: true, Message: "marked as read"})
}

func (g *Gateway) handleGetUnreadCount(ctx context.Context, client *Client) {
	count, err := g.service.UnreadCount(ctx, client.UserID)
	if err != nil {
		g.logger.Errorw("unread count failed", "user_id", client.UserID, "error", err)
		g.reply(client, EventGetUnreadCount, ackPayload{Success: false, Message: "failed to get unread count"})
		return
	}
	g.reply(client, EventGetUnreadCount, ackPayload{Success: true, Count: &count})
}

func (g *Gateway) sendUnreadCount(ctx context.Context, client *Client) {
	count, err := g.service.UnreadCount(ctx, client.UserID)
	if err != nil {
		g.logger.Errorw("catch-up unread count failed", "user_id", client.UserID, "error", err)
		return
	}
	message, err := marshalEvent(EventUnreadCount, unreadCountPayload{Count: count})
	if err != nil {
		return
	}
	client.Send(message)
}

func (g *Gateway) reply(client *Client, event string, payload ackPayload) {
	message, err := marshalEvent(event, payload)
	if err != nil {
		return
	}
	client.Send(message)
}
