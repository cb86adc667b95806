package entities

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"linklist-backend/domain/core/valueobjects"
	pkgerrors "linklist-backend/pkg/errors"

	"github.com/google/uuid"
)

// MaxCommentLength bounds comment content, counted in characters
const MaxCommentLength = 2000

// Comment is a top-level comment on an entity or a reply to one. Replies are
// flat: a reply's parent is always a top-level comment.
type Comment struct {
	id        string
	ref       valueobjects.EntityRef
	userID    string
	content   string
	parentID  string
	createdAt time.Time
	updatedAt time.Time

	// populated by the tree query only, never persisted
	replies []*Comment
}

// NewComment creates a top-level comment
func NewComment(ref valueobjects.EntityRef, userID, content string, now time.Time) (*Comment, error) {
	if ref.IsZero() {
		return nil, pkgerrors.NewValidationError("entity reference is required")
	}
	if userID == "" {
		return nil, pkgerrors.NewValidationError("userID cannot be empty")
	}
	content, err := normalizeContent(content)
	if err != nil {
		return nil, err
	}

	return &Comment{
		id:        uuid.New().String(),
		ref:       ref,
		userID:    userID,
		content:   content,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// NewReply creates a reply to parent on the parent's entity
func NewReply(parent *Comment, userID, content string, now time.Time) (*Comment, error) {
	if parent == nil {
		return nil, pkgerrors.NewValidationError("parent comment is required")
	}
	reply, err := NewComment(parent.ref, userID, content, now)
	if err != nil {
		return nil, err
	}
	reply.parentID = parent.id
	return reply, nil
}

// ReconstructComment rebuilds a comment loaded from storage
func ReconstructComment(
	id string,
	ref valueobjects.EntityRef,
	userID, content, parentID string,
	createdAt, updatedAt time.Time,
) *Comment {
	return &Comment{
		id:        id,
		ref:       ref,
		userID:    userID,
		content:   content,
		parentID:  parentID,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

func (c *Comment) ID() string                  { return c.id }
func (c *Comment) Ref() valueobjects.EntityRef { return c.ref }
func (c *Comment) UserID() string              { return c.userID }
func (c *Comment) Content() string             { return c.content }
func (c *Comment) ParentID() string            { return c.parentID }
func (c *Comment) CreatedAt() time.Time        { return c.createdAt }
func (c *Comment) UpdatedAt() time.Time        { return c.updatedAt }
func (c *Comment) Replies() []*Comment         { return c.replies }

// IsTopLevel reports whether the comment has no parent
func (c *Comment) IsTopLevel() bool {
	return c.parentID == ""
}

// IsAuthoredBy reports whether userID wrote the comment
func (c *Comment) IsAuthoredBy(userID string) bool {
	return userID != "" && c.userID == userID
}

// Edit replaces the content
func (c *Comment) Edit(content string, now time.Time) error {
	content, err := normalizeContent(content)
	if err != nil {
		return err
	}
	c.content = content
	c.updatedAt = now
	return nil
}

// AttachReplies sets the replies shown under a top-level comment, sorted
// oldest first
func (c *Comment) AttachReplies(replies []*Comment) {
	sorted := make([]*Comment, len(replies))
	copy(sorted, replies)
	SortChronologically(sorted)
	c.replies = sorted
}

// SortChronologically orders comments by creation time, oldest first. Equal
// timestamps are ordered by id so the result is deterministic.
func SortChronologically(comments []*Comment) {
	sort.SliceStable(comments, func(i, j int) bool {
		a, b := comments[i], comments[j]
		if !a.createdAt.Equal(b.createdAt) {
			return a.createdAt.Before(b.createdAt)
		}
		return a.id < b.id
	})
}

func normalizeContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", pkgerrors.NewValidationError("content cannot be empty")
	}
	if utf8.RuneCountInString(content) > MaxCommentLength {
		return "", pkgerrors.NewValidationError(
			fmt.Sprintf("content cannot exceed %d characters", MaxCommentLength))
	}
	return content, nil
}
