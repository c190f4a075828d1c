package enums

import "fmt"

// NotificationType maps to the notification_type enum in Postgres.
type NotificationType string

const (
	NotificationApprovalPending        NotificationType = "approval_pending"
	NotificationApprovalFinalized      NotificationType = "approval_finalized"
	NotificationApprovalRejected       NotificationType = "approval_rejected"
	NotificationChangeRequested        NotificationType = "change_requested"
	NotificationChangeRequestCompleted NotificationType = "change_request_completed"
)

var validNotificationTypes = []NotificationType{
	NotificationApprovalPending,
	NotificationApprovalFinalized,
	NotificationApprovalRejected,
	NotificationChangeRequested,
	NotificationChangeRequestCompleted,
}

// String implements fmt.Stringer.
func (n NotificationType) String() string {
	return string(n)
}

// IsValid reports whether the value matches the canonical notification_type enum.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw input into NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}
