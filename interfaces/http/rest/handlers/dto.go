package handlers

import (
	"time"

	"linklist-backend/domain/core/entities"
)

// CommentResponse is the wire form of a comment. Replies are only set on
// top-level comments returned by the tree query. RepliedToID is set on a
// new reply whose requested parent was itself a reply; ParentID then names
// the thread it was filed under.
type CommentResponse struct {
	ID          string            `json:"id"`
	EntityType  string            `json:"entityType"`
	EntityID    string            `json:"entityId"`
	UserID      string            `json:"userId"`
	Content     string            `json:"content"`
	ParentID    string            `json:"parentId,omitempty"`
	RepliedToID string            `json:"repliedToId,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
	Replies     []CommentResponse `json:"replies,omitempty"`
}

func toCommentResponse(c *entities.Comment) CommentResponse {
	resp := CommentResponse{
		ID:         c.ID(),
		EntityType: string(c.Ref().Type()),
		EntityID:   c.Ref().ID(),
		UserID:     c.UserID(),
		Content:    c.Content(),
		ParentID:   c.ParentID(),
		CreatedAt:  c.CreatedAt(),
		UpdatedAt:  c.UpdatedAt(),
	}
	if replies := c.Replies(); len(replies) > 0 {
		resp.Replies = make([]CommentResponse, 0, len(replies))
		for _, reply := range replies {
			resp.Replies = append(resp.Replies, toCommentResponse(reply))
		}
	}
	return resp
}

// NotificationResponse is the wire form of a notification
type NotificationResponse struct {
	ID            string    `json:"id"`
	UserID        string    `json:"userId"`
	Type          string    `json:"type"`
	EntityType    string    `json:"entityType"`
	EntityID      string    `json:"entityId"`
	ActorUsername string    `json:"actorUsername"`
	Preview       string    `json:"preview"`
	TargetID      string    `json:"targetId"`
	Read          bool      `json:"read"`
	CreatedAt     time.Time `json:"createdAt"`
}

func toNotificationResponse(n *entities.Notification) NotificationResponse {
	return NotificationResponse{
		ID:            n.ID(),
		UserID:        n.RecipientID(),
		Type:          string(n.Type()),
		EntityType:    string(n.Ref().Type()),
		EntityID:      n.Ref().ID(),
		ActorUsername: n.ActorUsername(),
		Preview:       n.Preview(),
		TargetID:      n.TargetID(),
		Read:          n.IsRead(),
		CreatedAt:     n.CreatedAt(),
	}
}

// NotificationListResponse is one page of the caller's inbox
type NotificationListResponse struct {
	Items       []NotificationResponse `json:"items"`
	UnreadCount int                    `json:"unreadCount"`
}
