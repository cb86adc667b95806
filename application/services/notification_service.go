package services

import (
	"context"
	"time"

	"linklist-backend/application/ports"
	"linklist-backend/domain/core/entities"
	"linklist-backend/domain/core/valueobjects"
	"linklist-backend/pkg/common"
	pkgerrors "linklist-backend/pkg/errors"

	"go.uber.org/zap"
)

// FanOutRequest describes a comment or reply that participants should hear about
type FanOutRequest struct {
	Type          valueobjects.NotificationType
	Ref           valueobjects.EntityRef
	ActorUserID   string
	ActorUsername string
	Content       string
	TargetID      string
}

// NotificationPage is one page of a user's notifications
type NotificationPage struct {
	Items       []*entities.Notification
	Total       int
	UnreadCount int
	Pagination  common.PaginationParams
}

// NotificationService creates notification records for entity participants,
// pushes them to live connections and serves the per-user inbox.
type NotificationService struct {
	notifications ports.NotificationRepository
	comments      ports.CommentRepository
	ownership     ports.OwnershipLookup
	pusher        ports.Pusher
	logger        *zap.Logger
	clock         func() time.Time
}

// NewNotificationService creates a new notification service
func NewNotificationService(
	notifications ports.NotificationRepository,
	comments ports.CommentRepository,
	ownership ports.OwnershipLookup,
	pusher ports.Pusher,
	logger *zap.Logger,
) *NotificationService {
	if pusher == nil {
		pusher = ports.NoopPusher{}
	}
	return &NotificationService{
		notifications: notifications,
		comments:      comments,
		ownership:     ownership,
		pusher:        pusher,
		logger:        logger,
		clock:         time.Now,
	}
}

// NotifyParticipants notifies the entity owner and every commenter on the
// entity, except the actor, at most once each. A record that fails to persist
// is logged and skipped; the rest of the fan-out continues.
func (s *NotificationService) NotifyParticipants(ctx context.Context, req FanOutRequest) ([]*entities.Notification, error) {
	recipients, err := s.participants(ctx, req.Ref)
	if err != nil {
		return nil, err
	}

	created := make([]*entities.Notification, 0, len(recipients))
	for _, recipientID := range recipients {
		if recipientID == req.ActorUserID {
			continue
		}

		n, err := entities.NewNotification(recipientID, req.Type, req.Ref, req.ActorUsername, req.Content, req.TargetID, s.clock())
		if err != nil {
			s.logger.Warn("Skipping invalid notification", zap.String("recipientID", recipientID), zap.Error(err))
			continue
		}
		if err := s.notifications.Create(ctx, n); err != nil {
			s.logger.Error("Failed to persist notification",
				zap.String("recipientID", recipientID),
				zap.String("entity", req.Ref.String()),
				zap.Error(err),
			)
			continue
		}

		s.pusher.Push(ctx, recipientID, n.Summary())
		created = append(created, n)
	}

	s.logger.Debug("Notification fan-out complete",
		zap.String("entity", req.Ref.String()),
		zap.String("type", string(req.Type)),
		zap.Int("recipients", len(created)),
	)
	return created, nil
}

// participants returns the owner followed by commenters in first-comment
// order, deduplicated.
func (s *NotificationService) participants(ctx context.Context, ref valueobjects.EntityRef) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string
	add := func(userID string) {
		if userID == "" {
			return
		}
		if _, ok := seen[userID]; ok {
			return
		}
		seen[userID] = struct{}{}
		out = append(out, userID)
	}

	owner, err := s.ownership.OwnerOf(ctx, ref)
	if err != nil {
		s.logger.Warn("Owner lookup failed, notifying commenters only",
			zap.String("entity", ref.String()),
			zap.Error(err),
		)
	}
	add(owner)

	comments, err := s.comments.ListByEntity(ctx, ref)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to load participants")
	}
	entities.SortChronologically(comments)
	for _, c := range comments {
		add(c.UserID())
	}
	return out, nil
}

// GetNotifications returns a newest-first page of userID's notifications.
// Page and size are clamped to their valid ranges.
func (s *NotificationService) GetNotifications(ctx context.Context, userID string, page, size int) (*NotificationPage, error) {
	if userID == "" {
		return nil, pkgerrors.NewUnauthorizedError("authentication required")
	}

	all, err := s.notifications.ListByRecipient(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to load notifications")
	}
	entities.SortNewestFirst(all)

	params := common.NewPaginationParams(page, size)
	start, end := params.Bounds(len(all))

	return &NotificationPage{
		Items:       all[start:end],
		Total:       len(all),
		UnreadCount: countUnread(all),
		Pagination:  params,
	}, nil
}

// GetUnreadCount returns how many of userID's notifications are unread
func (s *NotificationService) GetUnreadCount(ctx context.Context, userID string) (int, error) {
	if userID == "" {
		return 0, pkgerrors.NewUnauthorizedError("authentication required")
	}

	all, err := s.notifications.ListByRecipient(ctx, userID)
	if err != nil {
		return 0, pkgerrors.Wrap(err, "failed to load notifications")
	}
	return countUnread(all), nil
}

// MarkRead marks one notification read. It returns false when the
// notification does not exist or belongs to someone else.
func (s *NotificationService) MarkRead(ctx context.Context, notificationID, userID string) (bool, error) {
	n, err := s.notifications.Get(ctx, notificationID)
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return false, nil
		}
		return false, pkgerrors.Wrap(err, "failed to load notification")
	}
	if !n.IsOwnedBy(userID) {
		s.logger.Warn("Refusing to mark another user's notification",
			zap.String("notificationID", notificationID),
			zap.String("userID", userID),
		)
		return false, nil
	}

	if n.MarkRead() {
		if err := s.notifications.Update(ctx, n); err != nil {
			return false, pkgerrors.Wrap(err, "failed to mark notification read")
		}
	}
	return true, nil
}

// MarkAllRead marks every unread notification of userID read
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (bool, error) {
	if userID == "" {
		return false, pkgerrors.NewUnauthorizedError("authentication required")
	}

	all, err := s.notifications.ListByRecipient(ctx, userID)
	if err != nil {
		return false, pkgerrors.Wrap(err, "failed to load notifications")
	}

	updated := 0
	for _, n := range all {
		if !n.MarkRead() {
			continue
		}
		if err := s.notifications.Update(ctx, n); err != nil {
			return false, pkgerrors.Wrap(err, "failed to mark notifications read")
		}
		updated++
	}

	s.logger.Debug("Marked notifications read", zap.String("userID", userID), zap.Int("count", updated))
	return true, nil
}

func countUnread(notifications []*entities.Notification) int {
	unread := 0
	for _, n := range notifications {
		if !n.IsRead() {
			unread++
		}
	}
	return unread
}
