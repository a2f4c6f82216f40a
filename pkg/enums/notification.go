package enums

import "fmt"

// NotificationType distinguishes the in-app notification kinds.
type NotificationType string

const (
	NotificationTypeOrderPlaced     NotificationType = "order_placed"
	NotificationTypeOrderShipped    NotificationType = "order_shipped"
	NotificationTypeOrderCancelled  NotificationType = "order_cancelled"
	NotificationTypeOrderCompleted  NotificationType = "order_completed"
	NotificationTypeReturnRequested NotificationType = "return_requested"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeOrderPlaced,
	NotificationTypeOrderShipped,
	NotificationTypeOrderCancelled,
	NotificationTypeOrderCompleted,
	NotificationTypeReturnRequested,
}

func (n NotificationType) String() string {
	return string(n)
}

func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw input into a NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}
