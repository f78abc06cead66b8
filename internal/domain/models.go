package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Participant is one member of a conversation.
type Participant struct {
	UserID      string `bson:"user_id" json:"user_id"`
	DisplayName string `bson:"display_name" json:"display_name"`
	Avatar      string `bson:"avatar,omitempty" json:"avatar,omitempty"`
}

// LastMessage is the conversation's denormalized last-message summary.
type LastMessage struct {
	Content    string    `bson:"content" json:"content"`
	SenderID   string    `bson:"sender_id" json:"sender_id"`
	SenderName string    `bson:"sender_name" json:"sender_name"`
	SentAt     time.Time `bson:"sent_at" json:"sent_at"`
}

// Conversation is the durable conversation document. Created and mutated
// by the platform's REST side; the relay reads it to authorize room joins
// and to enumerate notification targets, and updates its summary on send.
type Conversation struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Participants []Participant      `bson:"participants" json:"participants"`
	LastMessage  *LastMessage       `bson:"last_message,omitempty" json:"last_message,omitempty"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
}

// HasParticipant reports whether userID is in the participant set.
func (c *Conversation) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p.UserID == userID {
			return true
		}
	}
	return false
}

// Reaction is a single emoji reaction on a message.
type Reaction struct {
	UserID string `bson:"user_id" json:"user_id"`
	Emoji  string `bson:"emoji" json:"emoji"`
}

// Message is the durable chat message document.
type Message struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ConversationID string             `bson:"conversation_id" json:"conversation_id"`
	SenderID       string             `bson:"sender_id" json:"sender_id"`
	SenderName     string             `bson:"sender_name" json:"sender_name"`
	Content        string             `bson:"content" json:"content"`
	ContentType    string             `bson:"content_type" json:"content_type"`
	ReplyTo        *string            `bson:"reply_to,omitempty" json:"reply_to,omitempty"`
	ReadBy         []string           `bson:"read_by" json:"read_by"`
	Reactions      []Reaction         `bson:"reactions,omitempty" json:"reactions,omitempty"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
}

// Notification types.
const (
	NotificationChatMessage = "chat_message"
)

// Notification is a durable per-user notification, created best-effort as
// a side effect of message relay.
type Notification struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    string             `bson:"user_id" json:"user_id"`
	Kind      string             `bson:"kind" json:"kind"`
	Title     string             `bson:"title" json:"title"`
	Body      string             `bson:"body" json:"body"`
	Data      NotificationData   `bson:"data" json:"data"`
	Read      bool               `bson:"read" json:"read"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

// NotificationData links a notification back to its source records.
type NotificationData struct {
	ConversationID string `bson:"conversation_id,omitempty" json:"conversation_id,omitempty"`
	MessageID      string `bson:"message_id,omitempty" json:"message_id,omitempty"`
	SenderID       string `bson:"sender_id,omitempty" json:"sender_id,omitempty"`
}
