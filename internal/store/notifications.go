package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/SebiosJade/Boluntik-sub004/internal/domain"
)

// NotificationRepository persists notifications to MongoDB.
type NotificationRepository struct {
	coll *mongo.Collection
}

// NewNotificationRepository creates a new NotificationRepository.
func NewNotificationRepository(client *Client) *NotificationRepository {
	return &NotificationRepository{
		coll: client.Database().Collection(collNotifications),
	}
}

func (r *NotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	if _, err := r.coll.InsertOne(ctx, n); err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}
