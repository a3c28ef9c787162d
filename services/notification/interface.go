package notification

import (
	"context"

	"fieldbook/models"
)

// NotificationService delivers best-effort messages to users and field owners.
// Callers treat every send as fire-and-forget: failures are logged and
// swallowed and must never block the lifecycle engine.
type NotificationService interface {
	Notify(ctx context.Context, recipientID, notifType, title, message string, data map[string]string) error
	ListForRecipient(ctx context.Context, recipientID string, limit int) ([]models.Notification, error)
}
