package valueobjects

import (
	"strings"

	pkgerrors "linklist-backend/pkg/errors"
)

// NotificationType is the activity that produced a notification
type NotificationType string

const (
	NotificationTypeComment NotificationType = "COMMENT"
	NotificationTypeReply   NotificationType = "REPLY"
)

// ParseNotificationType parses a stored or wire notification type
func ParseNotificationType(s string) (NotificationType, error) {
	switch NotificationType(strings.ToUpper(s)) {
	case NotificationTypeComment:
		return NotificationTypeComment, nil
	case NotificationTypeReply:
		return NotificationTypeReply, nil
	default:
		return "", pkgerrors.NewValidationError("unknown notification type: " + s)
	}
}
