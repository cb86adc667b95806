package handlers

import (
	"context"
	"net/http"

	"linklist-backend/application/services"
	"linklist-backend/pkg/common"
	pkgerrors "linklist-backend/pkg/errors"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// NotificationUseCases is the part of the notification service the handler needs
type NotificationUseCases interface {
	GetNotifications(ctx context.Context, userID string, page, size int) (*services.NotificationPage, error)
	GetUnreadCount(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, notificationID, userID string) (bool, error)
	MarkAllRead(ctx context.Context, userID string) (bool, error)
}

// NotificationHandler serves the caller's notification inbox
type NotificationHandler struct {
	notifications NotificationUseCases
	errors        *pkgerrors.ErrorHandler
	logger        *zap.Logger
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(notifications NotificationUseCases, errorHandler *pkgerrors.ErrorHandler, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{
		notifications: notifications,
		errors:        errorHandler,
		logger:        logger,
	}
}

// List handles GET /notifications?page=&size=
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	params := common.ExtractPaginationParams(r)
	page, err := h.notifications.GetNotifications(r.Context(), caller.UserID, params.Page, params.Size)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	resp := NotificationListResponse{
		Items:       make([]NotificationResponse, 0, len(page.Items)),
		UnreadCount: page.UnreadCount,
	}
	for _, n := range page.Items {
		resp.Items = append(resp.Items, toNotificationResponse(n))
	}
	common.RespondWithMeta(w, r, http.StatusOK, resp, common.BuildPaginationMeta(page.Pagination, page.Total))
}

// UnreadCount handles GET /notifications/unread-count
func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	count, err := h.notifications.GetUnreadCount(r.Context(), caller.UserID)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]int{"unreadCount": count})
}

// MarkRead handles POST /notifications/{id}/read. Unknown notifications and
// those of other users are both reported as 404.
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	id := chi.URLParam(r, paramNotificationID)
	ok, err := h.notifications.MarkRead(r.Context(), id, caller.UserID)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	if !ok {
		h.errors.Handle(w, r, pkgerrors.NewNotFoundError("notification"))
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]interface{}{"id": id, "read": true})
}

// MarkAllRead handles POST /notifications/read-all
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	ok, err := h.notifications.MarkAllRead(r.Context(), caller.UserID)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]bool{"read": ok})
}
