package notif

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"charityops/internal/common"
	"charityops/internal/dbmysql"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Handler exposes the synchronous notification surface consumed by the
// REST controllers. All routes sit behind the bearer middleware, so the
// caller identity always comes from the request context.
type Handler struct {
	service *Service
	logger  *zap.SugaredLogger
}

func NewHandler(service *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/notifications", h.Create).Methods(http.MethodPost)
	r.HandleFunc("/notifications", h.List).Methods(http.MethodGet)
	r.HandleFunc("/notifications/unread-count", h.UnreadCount).Methods(http.MethodGet)
	r.HandleFunc("/notifications/read-all", h.MarkAllRead).Methods(http.MethodPost)
	r.HandleFunc("/notifications/{id}", h.Get).Methods(http.MethodGet)
	r.HandleFunc("/notifications/{id}", h.Update).Methods(http.MethodPatch)
	r.HandleFunc("/notifications/{id}/read", h.MarkRead).Methods(http.MethodPatch)
	r.HandleFunc("/notifications/{id}/archive", h.Archive).Methods(http.MethodPatch)
	r.HandleFunc("/notifications/{id}", h.Delete).Methods(http.MethodDelete)
}

type createRequest struct {
	Title    string          `json:"title"`
	Body     string          `json:"body"`
	Category string          `json:"category"`
	Link     *string         `json:"link"`
	Metadata common.Metadata `json:"metadata"`
	UserID   *uint64         `json:"userId"`
	UserIDs  []uint64        `json:"userIds"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, common.NewValidationError("body", "malformed JSON"))
		return
	}

	in := CreateInput{
		Title:    req.Title,
		Body:     req.Body,
		Category: req.Category,
		Link:     req.Link,
		Metadata: req.Metadata,
		UserID:   req.UserID,
	}
	if creator, ok := common.UserIDFromContext(r.Context()); ok {
		in.CreatedBy = &creator
	}

	notification, err := h.service.Create(r.Context(), in, req.UserIDs)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respond(w, http.StatusCreated, notification)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserIDFromContext(r.Context())
	if !ok {
		h.respondError(w, common.ErrUnauthenticated)
		return
	}

	q := dbmysql.ListQuery{
		Page:     intQuery(r, "page", 1),
		PageSize: intQuery(r, "pageSize", defaultPageSize),
		SortBy:   r.URL.Query().Get("sortBy"),
		Order:    r.URL.Query().Get("order"),
		Filter: dbmysql.ListFilter{
			Search:   r.URL.Query().Get("search"),
			Category: r.URL.Query().Get("category"),
		},
	}
	if raw := r.URL.Query().Get("isRead"); raw != "" {
		isRead := raw == "true"
		q.Filter.IsRead = &isRead
	}

	result, err := h.service.List(r.Context(), userID, q)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respond(w, http.StatusOK, result)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserIDFromContext(r.Context())
	if !ok {
		h.respondError(w, common.ErrUnauthenticated)
		return
	}
	id, err := pathID(r)
	if err != nil {
		h.respondError(w, err)
		return
	}
	row, err := h.service.Get(r.Context(), id, userID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respond(w, http.StatusOK, row)
}

type updateRequest struct {
	Title    string          `json:"title"`
	Body     string          `json:"body"`
	Category string          `json:"category"`
	Link     *string         `json:"link"`
	Metadata common.Metadata `json:"metadata"`
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.respondError(w, err)
		return
	}
	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, common.NewValidationError("body", "malformed JSON"))
		return
	}
	notification, err := h.service.Update(r.Context(), id, UpdateInput{
		Title:    req.Title,
		Body:     req.Body,
		Category: req.Category,
		Link:     req.Link,
		Metadata: req.Metadata,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respond(w, http.StatusOK, notification)
}

func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserIDFromContext(r.Context())
	if !ok {
		h.respondError(w, common.ErrUnauthenticated)
		return
	}
	id, err := pathID(r)
	if err != nil {
		h.respondError(w, err)
		return
	}
	row, err := h.service.MarkRead(r.Context(), id, userID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respond(w, http.StatusOK, row)
}

func (h *Handler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserIDFromContext(r.Context())
	if !ok {
		h.respondError(w, common.ErrUnauthenticated)
		return
	}
	count, err := h.service.MarkAllRead(r.Context(), userID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respond(w, http.StatusOK, map[string]int64{"count": count})
}

func (h *Handler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserIDFromContext(r.Context())
	if !ok {
		h.respondError(w, common.ErrUnauthenticated)
		return
	}
	count, err := h.service.UnreadCount(r.Context(), userID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respond(w, http.StatusOK, map[string]int64{"count": count})
}

func (h *Handler) Archive(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if err := h.service.Archive(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}
	h.respond(w, http.StatusOK, map[string]bool{"archived": true})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if err := h.service.Remove(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

func (h *Handler) respond(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response{Success: true, Data: data}); err != nil {
		h.logger.Errorw("failed to encode response", "error", err)
	}
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "internal error"
	switch {
	case common.IsValidation(err):
		status = http.StatusBadRequest
		message = err.Error()
	case errors.Is(err, common.ErrNotFound):
		status = http.StatusNotFound
		message = "not found"
	case errors.Is(err, common.ErrUnauthenticated):
		status = http.StatusUnauthorized
		message = "authentication required"
	default:
		h.logger.Errorw("request failed", "error", err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(response{Success: false, Message: message})
}

func pathID(r *http.Request) (uint64, error) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, common.NewValidationError("id", "must be a positive integer")
	}
	return id, nil
}

func intQuery(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
