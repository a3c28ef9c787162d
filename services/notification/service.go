package notification

import (
	"context"
	"fmt"
	"time"

	"fieldbook/database"
	"fieldbook/models"
	"fieldbook/utils"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// DefaultNotificationService stores in-app notifications in Mongo. Push and
// email fan-out live behind separate collaborators outside this core.
type DefaultNotificationService struct {
	coll *mongo.Collection
}

// NewDefaultNotificationService constructs the Mongo-backed notification service.
func NewDefaultNotificationService() *DefaultNotificationService {
	db := database.MongoClient.Database("fieldbook")
	return &DefaultNotificationService{
		coll: db.Collection("notifications"),
	}
}

func (s *DefaultNotificationService) Notify(ctx context.Context, recipientID, notifType, title, message string, data map[string]string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	notif := models.Notification{
		ID:          uuid.New().String(),
		RecipientID: recipientID,
		Type:        notifType,
		Title:       title,
		Message:     message,
		Data:        data,
		CreatedAt:   time.Now(),
	}
	if _, err := s.coll.InsertOne(ctx, notif); err != nil {
		utils.GetLogger().Error("failed to store notification",
			zap.String("recipientId", recipientID), zap.String("type", notifType), zap.Error(err))
		return fmt.Errorf("failed to store notification: %w", err)
	}
	return nil
}

func (s *DefaultNotificationService) ListForRecipient(ctx context.Context, recipientID string, limit int) ([]models.Notification, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.Find().
		SetSort(bson.M{"createdAt": -1}).
		SetLimit(int64(limit))
	cursor, err := s.coll.Find(ctx, bson.M{"recipientId": recipientID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer cursor.Close(ctx)

	var notifs []models.Notification
	if err := cursor.All(ctx, &notifs); err != nil {
		return nil, fmt.Errorf("error decoding notifications: %w", err)
	}
	return notifs, nil
}
