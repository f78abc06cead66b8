package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/SebiosJade/Boluntik-sub004/internal/domain"
)

// MessageRepository persists chat messages to MongoDB.
type MessageRepository struct {
	coll *mongo.Collection
}

// NewMessageRepository creates a new MessageRepository.
func NewMessageRepository(client *Client) *MessageRepository {
	return &MessageRepository{
		coll: client.Database().Collection(collMessages),
	}
}

func (r *MessageRepository) Insert(ctx context.Context, msg *domain.Message) error {
	if _, err := r.coll.InsertOne(ctx, msg); err != nil {
		return fmt.Errorf("failed to save message: %w", err)
	}
	return nil
}

func (r *MessageRepository) FindByID(ctx context.Context, messageID string) (*domain.Message, error) {
	oid, err := primitive.ObjectIDFromHex(messageID)
	if err != nil {
		return nil, domain.ErrNotFound
	}

	var msg domain.Message
	err = r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&msg)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load message: %w", err)
	}

	return &msg, nil
}

func (r *MessageRepository) MarkRead(ctx context.Context, messageID, readerID string) (*domain.Message, error) {
	return r.findOneAndUpdate(ctx, messageID, bson.M{
		"$addToSet": bson.M{"read_by": readerID},
	})
}

func (r *MessageRepository) AppendReaction(ctx context.Context, messageID string, reaction domain.Reaction) (*domain.Message, error) {
	return r.findOneAndUpdate(ctx, messageID, bson.M{
		"$addToSet": bson.M{"reactions": reaction},
	})
}

func (r *MessageRepository) findOneAndUpdate(ctx context.Context, messageID string, update bson.M) (*domain.Message, error) {
	oid, err := primitive.ObjectIDFromHex(messageID)
	if err != nil {
		return nil, domain.ErrNotFound
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var msg domain.Message
	err = r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&msg)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update message: %w", err)
	}

	return &msg, nil
}
