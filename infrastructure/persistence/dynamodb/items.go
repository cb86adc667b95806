package dynamodb

import (
	"linklist-backend/domain/core/entities"
	"linklist-backend/domain/core/valueobjects"
)

type voteItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	EntityType string `dynamodbav:"EntityType"`
	ID         string `dynamodbav:"ID"`
	VoteEntity string `dynamodbav:"TargetEntity"`
	EntityID   string `dynamodbav:"EntityID"`
	UserID     string `dynamodbav:"UserID"`
	Rating     int    `dynamodbav:"Rating"`
	CreatedAt  string `dynamodbav:"CreatedAt"`
	UpdatedAt  string `dynamodbav:"UpdatedAt"`
	Version    int    `dynamodbav:"Version"`
}

func votePK(ref valueobjects.EntityRef) string {
	return "VOTE#" + string(ref.Type()) + "#" + ref.ID()
}

func userSK(userID string) string { return "USER#" + userID }

func toVoteItem(v *entities.Vote) voteItem {
	return voteItem{
		PK:         votePK(v.Ref()),
		SK:         userSK(v.UserID()),
		EntityType: "VOTE",
		ID:         v.ID(),
		VoteEntity: string(v.Ref().Type()),
		EntityID:   v.Ref().ID(),
		UserID:     v.UserID(),
		Rating:     v.Rating().Int(),
		CreatedAt:  formatTime(v.CreatedAt()),
		UpdatedAt:  formatTime(v.UpdatedAt()),
		Version:    v.Version(),
	}
}

func (i voteItem) toEntity() (*entities.Vote, error) {
	ref, err := valueobjects.NewEntityRef(i.VoteEntity, i.EntityID)
	if err != nil {
		return nil, err
	}
	ts, err := parseTimes(i.CreatedAt, i.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return entities.ReconstructVote(i.ID, ref, i.UserID, valueobjects.Rating(i.Rating),
		ts[0], ts[1], i.Version), nil
}

type commentItem struct {
	PK            string `dynamodbav:"PK"`
	SK            string `dynamodbav:"SK"`
	GSI1PK        string `dynamodbav:"GSI1PK"`
	GSI1SK        string `dynamodbav:"GSI1SK"`
	GSI2PK        string `dynamodbav:"GSI2PK,omitempty"`
	GSI2SK        string `dynamodbav:"GSI2SK,omitempty"`
	EntityType    string `dynamodbav:"EntityType"`
	ID            string `dynamodbav:"ID"`
	CommentEntity string `dynamodbav:"TargetEntity"`
	EntityID      string `dynamodbav:"EntityID"`
	UserID        string `dynamodbav:"UserID"`
	Content       string `dynamodbav:"Content"`
	ParentID      string `dynamodbav:"ParentID,omitempty"`
	CreatedAt     string `dynamodbav:"CreatedAt"`
	UpdatedAt     string `dynamodbav:"UpdatedAt"`
}

func commentPK(id string) string { return "COMMENT#" + id }

func entityGSI1PK(ref valueobjects.EntityRef) string {
	return "ENTITY#" + string(ref.Type()) + "#" + ref.ID()
}

func parentGSI2PK(parentID string) string { return "PARENT#" + parentID }

func topGuardPK(ref valueobjects.EntityRef) string {
	return "TOPCOMMENT#" + string(ref.Type()) + "#" + ref.ID()
}

func toCommentItem(c *entities.Comment) commentItem {
	sortKey := "COMMENT#" + formatTime(c.CreatedAt()) + "#" + c.ID()
	item := commentItem{
		PK:            commentPK(c.ID()),
		SK:            metadataSK,
		GSI1PK:        entityGSI1PK(c.Ref()),
		GSI1SK:        sortKey,
		EntityType:    "COMMENT",
		ID:            c.ID(),
		CommentEntity: string(c.Ref().Type()),
		EntityID:      c.Ref().ID(),
		UserID:        c.UserID(),
		Content:       c.Content(),
		ParentID:      c.ParentID(),
		CreatedAt:     formatTime(c.CreatedAt()),
		UpdatedAt:     formatTime(c.UpdatedAt()),
	}
	if !c.IsTopLevel() {
		item.GSI2PK = parentGSI2PK(c.ParentID())
		item.GSI2SK = sortKey
	}
	return item
}

func (i commentItem) toEntity() (*entities.Comment, error) {
	ref, err := valueobjects.NewEntityRef(i.CommentEntity, i.EntityID)
	if err != nil {
		return nil, err
	}
	ts, err := parseTimes(i.CreatedAt, i.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return entities.ReconstructComment(i.ID, ref, i.UserID, i.Content, i.ParentID,
		ts[0], ts[1]), nil
}

type guardItem struct {
	PK        string `dynamodbav:"PK"`
	SK        string `dynamodbav:"SK"`
	CommentID string `dynamodbav:"CommentID"`
}

type notificationItem struct {
	PK            string `dynamodbav:"PK"`
	SK            string `dynamodbav:"SK"`
	GSI1PK        string `dynamodbav:"GSI1PK"`
	GSI1SK        string `dynamodbav:"GSI1SK"`
	EntityType    string `dynamodbav:"EntityType"`
	ID            string `dynamodbav:"ID"`
	UserID        string `dynamodbav:"UserID"`
	Type          string `dynamodbav:"Type"`
	TargetEntity  string `dynamodbav:"TargetEntity"`
	EntityID      string `dynamodbav:"EntityID"`
	ActorUsername string `dynamodbav:"ActorUsername"`
	Preview       string `dynamodbav:"Preview"`
	TargetID      string `dynamodbav:"TargetID"`
	Read          bool   `dynamodbav:"Read"`
	CreatedAt     string `dynamodbav:"CreatedAt"`
}

func notificationPK(id string) string { return "NOTIFICATION#" + id }

func recipientGSI1PK(userID string) string { return "RECIPIENT#" + userID }

func toNotificationItem(n *entities.Notification) notificationItem {
	return notificationItem{
		PK:            notificationPK(n.ID()),
		SK:            metadataSK,
		GSI1PK:        recipientGSI1PK(n.RecipientID()),
		GSI1SK:        "NOTIFICATION#" + formatTime(n.CreatedAt()) + "#" + n.ID(),
		EntityType:    "NOTIFICATION",
		ID:            n.ID(),
		UserID:        n.RecipientID(),
		Type:          string(n.Type()),
		TargetEntity:  string(n.Ref().Type()),
		EntityID:      n.Ref().ID(),
		ActorUsername: n.ActorUsername(),
		Preview:       n.Preview(),
		TargetID:      n.TargetID(),
		Read:          n.IsRead(),
		CreatedAt:     formatTime(n.CreatedAt()),
	}
}

func (i notificationItem) toEntity() (*entities.Notification, error) {
	ref, err := valueobjects.NewEntityRef(i.TargetEntity, i.EntityID)
	if err != nil {
		return nil, err
	}
	kind, err := valueobjects.ParseNotificationType(i.Type)
	if err != nil {
		return nil, err
	}
	createdAt, err := parseTime(i.CreatedAt)
	if err != nil {
		return nil, err
	}
	return entities.ReconstructNotification(i.ID, i.UserID, kind, ref, i.ActorUsername,
		i.Preview, i.TargetID, i.Read, createdAt), nil
}
