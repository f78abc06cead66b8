package store

import (
	"context"

	"github.com/SebiosJade/Boluntik-sub004/internal/domain"
)

// ConversationStore reads and summarizes durable conversations.
type ConversationStore interface {
	// FindByID returns the conversation or domain.ErrNotFound.
	FindByID(ctx context.Context, conversationID string) (*domain.Conversation, error)
	// UpdateLastMessage sets the conversation's last-message summary.
	UpdateLastMessage(ctx context.Context, conversationID string, last domain.LastMessage) error
}

// MessageStore persists and mutates durable chat messages.
type MessageStore interface {
	// Insert persists a new message. The message ID is assigned by the
	// caller before insert so the broadcast payload is complete.
	Insert(ctx context.Context, msg *domain.Message) error
	// FindByID returns the message or domain.ErrNotFound.
	FindByID(ctx context.Context, messageID string) (*domain.Message, error)
	// MarkRead idempotently adds readerID to the read-by set and returns
	// the updated message, or domain.ErrNotFound.
	MarkRead(ctx context.Context, messageID, readerID string) (*domain.Message, error)
	// AppendReaction idempotently adds a reaction and returns the updated
	// message, or domain.ErrNotFound.
	AppendReaction(ctx context.Context, messageID string, reaction domain.Reaction) (*domain.Message, error)
}

// NotificationStore creates durable notifications.
type NotificationStore interface {
	Create(ctx context.Context, n *domain.Notification) error
}
