package events

import (
	"time"

	"linklist-backend/domain/core/entities"
)

// NotificationCreated carries a freshly stored notification to the push relay.
// The ws-send-message Lambda delivers Summary to every connection of
// RecipientID.
type NotificationCreated struct {
	BaseEvent
	RecipientID string                       `json:"user_id"`
	Summary     entities.NotificationSummary `json:"summary"`
}

// NewNotificationCreated creates a NotificationCreated event
func NewNotificationCreated(recipientID string, summary entities.NotificationSummary) NotificationCreated {
	return NotificationCreated{
		BaseEvent: BaseEvent{
			AggregateID: summary.ID,
			EventType:   TypeNotificationCreated,
			Timestamp:   summary.CreatedAt,
			Version:     1,
		},
		RecipientID: recipientID,
		Summary:     summary,
	}
}

// CommentPosted is raised for new top-level comments and replies
type CommentPosted struct {
	BaseEvent
	CommentID  string `json:"comment_id"`
	ParentID   string `json:"parent_id,omitempty"`
	EntityType string `json:"entity_type"`
	EntityID   string `json:"entity_id"`
	UserID     string `json:"author_id"`
}

// NewCommentPosted creates a CommentPosted event
func NewCommentPosted(c *entities.Comment) CommentPosted {
	return CommentPosted{
		BaseEvent: BaseEvent{
			AggregateID: c.ID(),
			EventType:   TypeCommentPosted,
			Timestamp:   c.CreatedAt(),
			Version:     1,
		},
		CommentID:  c.ID(),
		ParentID:   c.ParentID(),
		EntityType: string(c.Ref().Type()),
		EntityID:   c.Ref().ID(),
		UserID:     c.UserID(),
	}
}

// CommentDeleted is raised after a comment and its replies are removed
type CommentDeleted struct {
	BaseEvent
	CommentID     string `json:"comment_id"`
	EntityType    string `json:"entity_type"`
	EntityID      string `json:"entity_id"`
	DeletedBy     string `json:"deleted_by"`
	RepliesPurged int    `json:"replies_purged"`
}

// NewCommentDeleted creates a CommentDeleted event
func NewCommentDeleted(c *entities.Comment, deletedBy string, replies int, at time.Time) CommentDeleted {
	return CommentDeleted{
		BaseEvent: BaseEvent{
			AggregateID: c.ID(),
			EventType:   TypeCommentDeleted,
			Timestamp:   at,
			Version:     1,
		},
		CommentID:     c.ID(),
		EntityType:    string(c.Ref().Type()),
		EntityID:      c.Ref().ID(),
		DeletedBy:     deletedBy,
		RepliesPurged: replies,
	}
}

// VoteCast is raised whenever a vote is created or changed
type VoteCast struct {
	BaseEvent
	VoteID     string `json:"vote_id"`
	EntityType string `json:"entity_type"`
	EntityID   string `json:"entity_id"`
	UserID     string `json:"user_id"`
	Rating     int    `json:"rating"`
	Revote     bool   `json:"revote"`
}

// NewVoteCast creates a VoteCast event
func NewVoteCast(v *entities.Vote, revote bool) VoteCast {
	return VoteCast{
		BaseEvent: BaseEvent{
			AggregateID: v.ID(),
			EventType:   TypeVoteCast,
			Timestamp:   v.UpdatedAt(),
			Version:     v.Version(),
		},
		VoteID:     v.ID(),
		EntityType: string(v.Ref().Type()),
		EntityID:   v.Ref().ID(),
		UserID:     v.UserID(),
		Rating:     v.Rating().Int(),
		Revote:     revote,
	}
}
