package ports

import (
	"context"

	"linklist-backend/domain/core/entities"
	"linklist-backend/domain/core/valueobjects"
)

// VoteRepository stores one vote per (entity, user).
// Missing records are reported with a NOT_FOUND AppError and failed
// conditional writes with a CONFLICT AppError.
type VoteRepository interface {
	// FindVote returns the caller's vote on ref
	FindVote(ctx context.Context, ref valueobjects.EntityRef, userID string) (*entities.Vote, error)

	// CreateVote stores a first vote. It fails with CONFLICT when a vote for
	// the same (entity, user) already exists.
	CreateVote(ctx context.Context, vote *entities.Vote) error

	// UpdateVote overwrites a vote only if the stored version equals
	// expectedVersion, else CONFLICT.
	UpdateVote(ctx context.Context, vote *entities.Vote, expectedVersion int) error

	// ListVotes returns every vote on ref
	ListVotes(ctx context.Context, ref valueobjects.EntityRef) ([]*entities.Vote, error)
}

// CommentRepository stores comments and replies
type CommentRepository interface {
	// CreateTopLevel stores a top-level comment together with a unique
	// (entity, user) guard. A second top-level comment by the same user fails
	// with DUPLICATE_POST.
	CreateTopLevel(ctx context.Context, comment *entities.Comment) error

	// CreateReply stores a reply; there is no per-user limit on replies
	CreateReply(ctx context.Context, reply *entities.Comment) error

	GetComment(ctx context.Context, commentID string) (*entities.Comment, error)
	UpdateComment(ctx context.Context, comment *entities.Comment) error

	// DeleteComment removes one comment, and its guard if it is top-level
	DeleteComment(ctx context.Context, comment *entities.Comment) error

	// ListByEntity returns every comment and reply on ref, any order
	ListByEntity(ctx context.Context, ref valueobjects.EntityRef) ([]*entities.Comment, error)

	// ListReplies returns the direct replies of parentID
	ListReplies(ctx context.Context, parentID string) ([]*entities.Comment, error)
}

// NotificationRepository stores notification records
type NotificationRepository interface {
	Create(ctx context.Context, notification *entities.Notification) error
	Get(ctx context.Context, notificationID string) (*entities.Notification, error)
	ListByRecipient(ctx context.Context, userID string) ([]*entities.Notification, error)
	Update(ctx context.Context, notification *entities.Notification) error
}

// OwnershipLookup resolves who owns a list or link. It is backed by the
// entity tables maintained outside the engagement core.
type OwnershipLookup interface {
	// OwnerOf returns the owner's user id, or "" when the entity is unknown
	OwnerOf(ctx context.Context, ref valueobjects.EntityRef) (string, error)
}
