package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/SebiosJade/Boluntik-sub004/internal/domain"
)

// ConversationRepository persists conversations to MongoDB.
type ConversationRepository struct {
	coll *mongo.Collection
}

// NewConversationRepository creates a new ConversationRepository.
func NewConversationRepository(client *Client) *ConversationRepository {
	return &ConversationRepository{
		coll: client.Database().Collection(collConversations),
	}
}

func (r *ConversationRepository) FindByID(ctx context.Context, conversationID string) (*domain.Conversation, error) {
	oid, err := primitive.ObjectIDFromHex(conversationID)
	if err != nil {
		return nil, domain.ErrNotFound
	}

	var conv domain.Conversation
	err = r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&conv)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}

	return &conv, nil
}

func (r *ConversationRepository) UpdateLastMessage(ctx context.Context, conversationID string, last domain.LastMessage) error {
	oid, err := primitive.ObjectIDFromHex(conversationID)
	if err != nil {
		return domain.ErrNotFound
	}

	update := bson.M{
		"$set": bson.M{
			"last_message": last,
			"updated_at":   time.Now().UTC(),
		},
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return fmt.Errorf("failed to update conversation summary: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}

	return nil
}
