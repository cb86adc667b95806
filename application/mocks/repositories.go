// Package mocks provides testify mocks of the application ports for service tests.
package mocks

import (
	"context"

	"linklist-backend/domain/core/entities"
	"linklist-backend/domain/core/valueobjects"

	"github.com/stretchr/testify/mock"
)

// VoteRepository is a mock of ports.VoteRepository
type VoteRepository struct {
	mock.Mock
}

func (m *VoteRepository) FindVote(ctx context.Context, ref valueobjects.EntityRef, userID string) (*entities.Vote, error) {
	args := m.Called(ctx, ref, userID)
	if v := args.Get(0); v != nil {
		return v.(*entities.Vote), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *VoteRepository) CreateVote(ctx context.Context, vote *entities.Vote) error {
	return m.Called(ctx, vote).Error(0)
}

func (m *VoteRepository) UpdateVote(ctx context.Context, vote *entities.Vote, expectedVersion int) error {
	return m.Called(ctx, vote, expectedVersion).Error(0)
}

func (m *VoteRepository) ListVotes(ctx context.Context, ref valueobjects.EntityRef) ([]*entities.Vote, error) {
	args := m.Called(ctx, ref)
	if v := args.Get(0); v != nil {
		return v.([]*entities.Vote), args.Error(1)
	}
	return nil, args.Error(1)
}

// CommentRepository is a mock of ports.CommentRepository
type CommentRepository struct {
	mock.Mock
}

func (m *CommentRepository) CreateTopLevel(ctx context.Context, comment *entities.Comment) error {
	return m.Called(ctx, comment).Error(0)
}

func (m *CommentRepository) CreateReply(ctx context.Context, reply *entities.Comment) error {
	return m.Called(ctx, reply).Error(0)
}

func (m *CommentRepository) GetComment(ctx context.Context, commentID string) (*entities.Comment, error) {
	args := m.Called(ctx, commentID)
	if c := args.Get(0); c != nil {
		return c.(*entities.Comment), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *CommentRepository) UpdateComment(ctx context.Context, comment *entities.Comment) error {
	return m.Called(ctx, comment).Error(0)
}

func (m *CommentRepository) DeleteComment(ctx context.Context, comment *entities.Comment) error {
	return m.Called(ctx, comment).Error(0)
}

func (m *CommentRepository) ListByEntity(ctx context.Context, ref valueobjects.EntityRef) ([]*entities.Comment, error) {
	args := m.Called(ctx, ref)
	if c := args.Get(0); c != nil {
		return c.([]*entities.Comment), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *CommentRepository) ListReplies(ctx context.Context, parentID string) ([]*entities.Comment, error) {
	args := m.Called(ctx, parentID)
	if c := args.Get(0); c != nil {
		return c.([]*entities.Comment), args.Error(1)
	}
	return nil, args.Error(1)
}

// NotificationRepository is a mock of ports.NotificationRepository
type NotificationRepository struct {
	mock.Mock
}

func (m *NotificationRepository) Create(ctx context.Context, notification *entities.Notification) error {
	return m.Called(ctx, notification).Error(0)
}

func (m *NotificationRepository) Get(ctx context.Context, notificationID string) (*entities.Notification, error) {
	args := m.Called(ctx, notificationID)
	if n := args.Get(0); n != nil {
		return n.(*entities.Notification), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *NotificationRepository) ListByRecipient(ctx context.Context, userID string) ([]*entities.Notification, error) {
	args := m.Called(ctx, userID)
	if n := args.Get(0); n != nil {
		return n.([]*entities.Notification), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *NotificationRepository) Update(ctx context.Context, notification *entities.Notification) error {
	return m.Called(ctx, notification).Error(0)
}

// OwnershipLookup is a mock of ports.OwnershipLookup
type OwnershipLookup struct {
	mock.Mock
}

func (m *OwnershipLookup) OwnerOf(ctx context.Context, ref valueobjects.EntityRef) (string, error) {
	args := m.Called(ctx, ref)
	return args.String(0), args.Error(1)
}
