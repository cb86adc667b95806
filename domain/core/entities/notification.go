package entities

import (
	"sort"
	"time"

	"linklist-backend/domain/core/valueobjects"
	pkgerrors "linklist-backend/pkg/errors"

	"github.com/google/uuid"
)

// Notification tells a participant about activity on an entity. It is the
// durable record; pushes derived from it are best effort.
type Notification struct {
	id            string
	recipientID   string
	kind          valueobjects.NotificationType
	ref           valueobjects.EntityRef
	actorUsername string
	preview       string
	targetID      string
	read          bool
	createdAt     time.Time
}

// NotificationSummary is the push payload sent to live connections
type NotificationSummary struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	EntityType    string    `json:"entityType"`
	EntityID      string    `json:"entityId"`
	ActorUsername string    `json:"actorUsername"`
	Preview       string    `json:"preview"`
	TargetID      string    `json:"targetId"`
	CreatedAt     time.Time `json:"createdAt"`
}

// NewNotification creates an unread notification. The preview is derived from
// the triggering content.
func NewNotification(
	recipientID string,
	kind valueobjects.NotificationType,
	ref valueobjects.EntityRef,
	actorUsername, content, targetID string,
	now time.Time,
) (*Notification, error) {
	if recipientID == "" {
		return nil, pkgerrors.NewValidationError("recipient cannot be empty")
	}
	if ref.IsZero() {
		return nil, pkgerrors.NewValidationError("entity reference is required")
	}

	return &Notification{
		id:            uuid.New().String(),
		recipientID:   recipientID,
		kind:          kind,
		ref:           ref,
		actorUsername: actorUsername,
		preview:       valueobjects.Preview(content),
		targetID:      targetID,
		createdAt:     now,
	}, nil
}

// ReconstructNotification rebuilds a notification loaded from storage
func ReconstructNotification(
	id, recipientID string,
	kind valueobjects.NotificationType,
	ref valueobjects.EntityRef,
	actorUsername, preview, targetID string,
	read bool,
	createdAt time.Time,
) *Notification {
	return &Notification{
		id:            id,
		recipientID:   recipientID,
		kind:          kind,
		ref:           ref,
		actorUsername: actorUsername,
		preview:       preview,
		targetID:      targetID,
		read:          read,
		createdAt:     createdAt,
	}
}

func (n *Notification) ID() string                          { return n.id }
func (n *Notification) RecipientID() string                 { return n.recipientID }
func (n *Notification) Type() valueobjects.NotificationType { return n.kind }
func (n *Notification) Ref() valueobjects.EntityRef         { return n.ref }
func (n *Notification) ActorUsername() string               { return n.actorUsername }
func (n *Notification) Preview() string                     { return n.preview }
func (n *Notification) TargetID() string                    { return n.targetID }
func (n *Notification) IsRead() bool                        { return n.read }
func (n *Notification) CreatedAt() time.Time                { return n.createdAt }

// IsOwnedBy reports whether userID is the recipient
func (n *Notification) IsOwnedBy(userID string) bool {
	return userID != "" && n.recipientID == userID
}

// MarkRead flips the read flag and reports whether anything changed
func (n *Notification) MarkRead() bool {
	if n.read {
		return false
	}
	n.read = true
	return true
}

// Summary builds the push payload for this notification
func (n *Notification) Summary() NotificationSummary {
	return NotificationSummary{
		ID:            n.id,
		Type:          string(n.kind),
		EntityType:    string(n.ref.Type()),
		EntityID:      n.ref.ID(),
		ActorUsername: n.actorUsername,
		Preview:       n.preview,
		TargetID:      n.targetID,
		CreatedAt:     n.createdAt,
	}
}

// SortNewestFirst orders notifications by creation time descending, ties by id
func SortNewestFirst(notifications []*Notification) {
	sort.SliceStable(notifications, func(i, j int) bool {
		a, b := notifications[i], notifications[j]
		if !a.createdAt.Equal(b.createdAt) {
			return a.createdAt.After(b.createdAt)
		}
		return a.id < b.id
	})
}
