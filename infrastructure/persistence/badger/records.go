package badger

import (
	"time"

	"linklist-backend/domain/core/entities"
	"linklist-backend/domain/core/valueobjects"
)

type voteRecord struct {
	ID         string    `json:"id"`
	EntityType string    `json:"entityType"`
	EntityID   string    `json:"entityId"`
	UserID     string    `json:"userId"`
	Rating     int       `json:"rating"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
	Version    int       `json:"version"`
}

func toVoteRecord(v *entities.Vote) voteRecord {
	return voteRecord{
		ID:         v.ID(),
		EntityType: string(v.Ref().Type()),
		EntityID:   v.Ref().ID(),
		UserID:     v.UserID(),
		Rating:     v.Rating().Int(),
		CreatedAt:  v.CreatedAt(),
		UpdatedAt:  v.UpdatedAt(),
		Version:    v.Version(),
	}
}

func (r voteRecord) toEntity() (*entities.Vote, error) {
	ref, err := valueobjects.NewEntityRef(r.EntityType, r.EntityID)
	if err != nil {
		return nil, err
	}
	return entities.ReconstructVote(r.ID, ref, r.UserID, valueobjects.Rating(r.Rating), r.CreatedAt, r.UpdatedAt, r.Version), nil
}

type commentRecord struct {
	ID         string    `json:"id"`
	EntityType string    `json:"entityType"`
	EntityID   string    `json:"entityId"`
	UserID     string    `json:"userId"`
	Content    string    `json:"content"`
	ParentID   string    `json:"parentId,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func toCommentRecord(c *entities.Comment) commentRecord {
	return commentRecord{
		ID:         c.ID(),
		EntityType: string(c.Ref().Type()),
		EntityID:   c.Ref().ID(),
		UserID:     c.UserID(),
		Content:    c.Content(),
		ParentID:   c.ParentID(),
		CreatedAt:  c.CreatedAt(),
		UpdatedAt:  c.UpdatedAt(),
	}
}

func (r commentRecord) toEntity() (*entities.Comment, error) {
	ref, err := valueobjects.NewEntityRef(r.EntityType, r.EntityID)
	if err != nil {
		return nil, err
	}
	return entities.ReconstructComment(r.ID, ref, r.UserID, r.Content, r.ParentID, r.CreatedAt, r.UpdatedAt), nil
}

type notificationRecord struct {
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

func toNotificationRecord(n *entities.Notification) notificationRecord {
	return notificationRecord{
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

func (r notificationRecord) toEntity() (*entities.Notification, error) {
	ref, err := valueobjects.NewEntityRef(r.EntityType, r.EntityID)
	if err != nil {
		return nil, err
	}
	kind, err := valueobjects.ParseNotificationType(r.Type)
	if err != nil {
		return nil, err
	}
	return entities.ReconstructNotification(
		r.ID, r.UserID, kind, ref, r.ActorUsername, r.Preview, r.TargetID, r.Read, r.CreatedAt,
	), nil
}
