package services

import (
	"context"
	"time"

	"linklist-backend/application/ports"
	"linklist-backend/domain/core/entities"
	"linklist-backend/domain/core/valueobjects"
	"linklist-backend/domain/events"
	pkgerrors "linklist-backend/pkg/errors"
	"linklist-backend/pkg/utils"

	"go.uber.org/zap"
)

// DefaultCommentTreeLimit caps how many comments one tree query assembles
const DefaultCommentTreeLimit = 500

// User facing messages of the comment rules
const (
	MsgAlreadyPosted   = "You have already posted a comment on this item"
	MsgParentNotFound  = "Parent comment not found"
	MsgReplyForbidden  = "Only the entity owner or the comment author can reply"
	MsgEditForbidden   = "Only the author can edit this comment"
	MsgDeleteForbidden = "Only the poster or an admin can delete this comment"
)

// ParticipantNotifier fans a new comment or reply out to the entity's participants
type ParticipantNotifier interface {
	NotifyParticipants(ctx context.Context, req FanOutRequest) ([]*entities.Notification, error)
}

// CommentService manages top-level comments and their flat reply threads
type CommentService struct {
	comments  ports.CommentRepository
	ownership ports.OwnershipLookup
	notifier  ParticipantNotifier
	publisher ports.EventPublisher
	treeLimit int
	logger    *zap.Logger
	clock     func() time.Time
}

// NewCommentService creates a new comment service. A treeLimit <= 0 uses
// DefaultCommentTreeLimit.
func NewCommentService(
	comments ports.CommentRepository,
	ownership ports.OwnershipLookup,
	notifier ParticipantNotifier,
	publisher ports.EventPublisher,
	treeLimit int,
	logger *zap.Logger,
) *CommentService {
	if publisher == nil {
		publisher = ports.NoopPublisher{}
	}
	if treeLimit <= 0 {
		treeLimit = DefaultCommentTreeLimit
	}
	return &CommentService{
		comments:  comments,
		ownership: ownership,
		notifier:  notifier,
		publisher: publisher,
		treeLimit: treeLimit,
		logger:    logger,
		clock:     time.Now,
	}
}

// AddComment posts the caller's single top-level comment on ref
func (s *CommentService) AddComment(ctx context.Context, ref valueobjects.EntityRef, caller valueobjects.Caller, content string) (*entities.Comment, error) {
	if caller.UserID == "" {
		return nil, pkgerrors.NewUnauthorizedError("authentication required")
	}

	comment, err := entities.NewComment(ref, caller.UserID, utils.SanitizeText(content), s.clock())
	if err != nil {
		return nil, err
	}

	if err := s.comments.CreateTopLevel(ctx, comment); err != nil {
		if pkgerrors.IsDuplicatePost(err) {
			return nil, pkgerrors.NewDuplicatePostError(MsgAlreadyPosted)
		}
		return nil, pkgerrors.Wrap(err, "failed to create comment")
	}

	s.logger.Info("Comment created",
		zap.String("commentID", comment.ID()),
		zap.String("entity", ref.String()),
		zap.String("userID", caller.UserID),
	)

	s.afterPost(ctx, comment, caller, valueobjects.NotificationTypeComment)
	return comment, nil
}

// AddReply replies to commentID. The caller must own the entity, have
// written the comment replied to, or be an admin. Threads are one level
// deep: a reply to a reply is stored with its parent set to the thread's
// top-level comment, not to commentID, so callers compare the returned
// ParentID with commentID to learn where it was filed.
func (s *CommentService) AddReply(ctx context.Context, commentID string, caller valueobjects.Caller, content string) (*entities.Comment, error) {
	if caller.UserID == "" {
		return nil, pkgerrors.NewUnauthorizedError("authentication required")
	}

	parent, err := s.comments.GetComment(ctx, commentID)
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return nil, pkgerrors.NewNotFoundMessage(MsgParentNotFound)
		}
		return nil, pkgerrors.Wrap(err, "failed to load parent comment")
	}

	allowed, err := s.canReply(ctx, parent, caller)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, pkgerrors.NewAuthorizationError(MsgReplyForbidden)
	}

	thread := parent
	if !parent.IsTopLevel() {
		thread, err = s.comments.GetComment(ctx, parent.ParentID())
		if err != nil {
			if pkgerrors.IsNotFound(err) {
				return nil, pkgerrors.NewNotFoundMessage(MsgParentNotFound)
			}
			return nil, pkgerrors.Wrap(err, "failed to load thread")
		}
	}

	reply, err := entities.NewReply(thread, caller.UserID, utils.SanitizeText(content), s.clock())
	if err != nil {
		return nil, err
	}
	if err := s.comments.CreateReply(ctx, reply); err != nil {
		return nil, pkgerrors.Wrap(err, "failed to create reply")
	}

	s.logger.Info("Reply created",
		zap.String("commentID", reply.ID()),
		zap.String("parentID", thread.ID()),
		zap.String("userID", caller.UserID),
	)

	s.afterPost(ctx, reply, caller, valueobjects.NotificationTypeReply)
	return reply, nil
}

func (s *CommentService) canReply(ctx context.Context, parent *entities.Comment, caller valueobjects.Caller) (bool, error) {
	if caller.IsAdmin() || parent.IsAuthoredBy(caller.UserID) {
		return true, nil
	}

	owner, err := s.ownership.OwnerOf(ctx, parent.Ref())
	if err != nil {
		return false, pkgerrors.Wrap(err, "failed to resolve entity owner")
	}
	return owner != "" && owner == caller.UserID, nil
}

// afterPost runs the best effort side effects of a new comment or reply
func (s *CommentService) afterPost(ctx context.Context, c *entities.Comment, caller valueobjects.Caller, kind valueobjects.NotificationType) {
	if s.notifier != nil {
		_, err := s.notifier.NotifyParticipants(ctx, FanOutRequest{
			Type:          kind,
			Ref:           c.Ref(),
			ActorUserID:   caller.UserID,
			ActorUsername: caller.DisplayName(),
			Content:       c.Content(),
			TargetID:      c.ID(),
		})
		if err != nil {
			s.logger.Error("Notification fan-out failed", zap.String("commentID", c.ID()), zap.Error(err))
		}
	}

	if err := s.publisher.Publish(ctx, events.NewCommentPosted(c)); err != nil {
		s.logger.Warn("Failed to publish comment event", zap.String("commentID", c.ID()), zap.Error(err))
	}
}

// EditComment replaces the content of the caller's own comment
func (s *CommentService) EditComment(ctx context.Context, commentID string, caller valueobjects.Caller, content string) (*entities.Comment, error) {
	comment, err := s.comments.GetComment(ctx, commentID)
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return nil, pkgerrors.NewNotFoundError("comment")
		}
		return nil, pkgerrors.Wrap(err, "failed to load comment")
	}
	if !comment.IsAuthoredBy(caller.UserID) {
		return nil, pkgerrors.NewAuthorizationError(MsgEditForbidden)
	}

	if err := comment.Edit(utils.SanitizeText(content), s.clock()); err != nil {
		return nil, err
	}
	if err := s.comments.UpdateComment(ctx, comment); err != nil {
		return nil, pkgerrors.Wrap(err, "failed to update comment")
	}
	return comment, nil
}

// DeleteComment removes a comment and its direct replies. It returns false
// with no error when the comment does not exist.
func (s *CommentService) DeleteComment(ctx context.Context, commentID string, caller valueobjects.Caller) (bool, error) {
	comment, err := s.comments.GetComment(ctx, commentID)
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return false, nil
		}
		return false, pkgerrors.Wrap(err, "failed to load comment")
	}
	if !comment.IsAuthoredBy(caller.UserID) && !caller.IsAdmin() {
		return false, pkgerrors.NewAuthorizationError(MsgDeleteForbidden)
	}

	replies, err := s.comments.ListReplies(ctx, comment.ID())
	if err != nil {
		return false, pkgerrors.Wrap(err, "failed to load replies")
	}
	for _, reply := range replies {
		if err := s.comments.DeleteComment(ctx, reply); err != nil && !pkgerrors.IsNotFound(err) {
			return false, pkgerrors.Wrap(err, "failed to delete reply")
		}
	}
	if err := s.comments.DeleteComment(ctx, comment); err != nil && !pkgerrors.IsNotFound(err) {
		return false, pkgerrors.Wrap(err, "failed to delete comment")
	}

	s.logger.Info("Comment deleted",
		zap.String("commentID", comment.ID()),
		zap.String("deletedBy", caller.UserID),
		zap.Int("replies", len(replies)),
	)

	if err := s.publisher.Publish(ctx, events.NewCommentDeleted(comment, caller.UserID, len(replies), s.clock())); err != nil {
		s.logger.Warn("Failed to publish comment event", zap.String("commentID", comment.ID()), zap.Error(err))
	}
	return true, nil
}

// GetCommentsTree returns the top-level comments of ref oldest first, each
// with its replies attached oldest first. At most treeLimit comments are
// considered; the oldest are kept.
func (s *CommentService) GetCommentsTree(ctx context.Context, ref valueobjects.EntityRef) ([]*entities.Comment, error) {
	all, err := s.comments.ListByEntity(ctx, ref)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to load comments")
	}

	entities.SortChronologically(all)
	if len(all) > s.treeLimit {
		s.logger.Warn("Comment tree truncated",
			zap.String("entity", ref.String()),
			zap.Int("total", len(all)),
			zap.Int("limit", s.treeLimit),
		)
		all = all[:s.treeLimit]
	}

	var topLevel []*entities.Comment
	replies := make(map[string][]*entities.Comment)
	for _, c := range all {
		if c.IsTopLevel() {
			topLevel = append(topLevel, c)
			continue
		}
		replies[c.ParentID()] = append(replies[c.ParentID()], c)
	}

	for _, c := range topLevel {
		c.AttachReplies(replies[c.ID()])
	}
	if topLevel == nil {
		topLevel = []*entities.Comment{}
	}
	return topLevel, nil
}
