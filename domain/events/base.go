package events

import "time"

// Source is the EventBridge source of every event published by this service
const Source = "linklist.engagement"

// Event types
const (
	TypeNotificationCreated = "notification.created"
	TypeCommentPosted       = "comment.posted"
	TypeCommentDeleted      = "comment.deleted"
	TypeVoteCast            = "vote.cast"
)

// DomainEvent is something that happened in the engagement core
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }
