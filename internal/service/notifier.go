package service

import (
	"context"
	"time"

	"github.com/SebiosJade/Boluntik-sub004/internal/domain"
	pkglog "github.com/SebiosJade/Boluntik-sub004/pkg/log"
)

const (
	notifyTimeout = 5 * time.Second
	previewLimit  = 120
)

// dispatchNotifications fans a personal-room notice out to every
// participant other than the sender and creates one durable notification
// per recipient. Durable creation runs detached from the send path: its
// failure is logged and never surfaces to any client, and nothing is
// retried or rolled back.
func (s *relayService) dispatchNotifications(ctx context.Context, conv *domain.Conversation, msg *domain.Message) {
	preview := truncate(msg.Content, previewLimit)

	for _, p := range conv.Participants {
		if p.UserID == msg.SenderID {
			continue
		}

		s.hub.SendToUser(p.UserID, &domain.MessageNotification{
			Type:           domain.MsgTypeNotificationMessage,
			ConversationID: msg.ConversationID,
			MessageID:      msg.ID.Hex(),
			SenderID:       msg.SenderID,
			SenderName:     msg.SenderName,
			Preview:        preview,
			SentAt:         msg.CreatedAt.UnixMilli(),
		})

		recipientID := p.UserID
		go s.createDurableNotification(recipientID, msg, preview)
	}

	go s.produceAnalytics(msg)
}

// createDurableNotification runs on a background context: the triggering
// connection may be gone before the write lands, and that must not
// cancel it.
func (s *relayService) createDurableNotification(recipientID string, msg *domain.Message, preview string) {
	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()

	n := &domain.Notification{
		UserID: recipientID,
		Kind:   domain.NotificationChatMessage,
		Title:  msg.SenderName,
		Body:   preview,
		Data: domain.NotificationData{
			ConversationID: msg.ConversationID,
			MessageID:      msg.ID.Hex(),
			SenderID:       msg.SenderID,
		},
		CreatedAt: msg.CreatedAt,
	}

	if err := s.notifications.Create(ctx, n); err != nil {
		l := pkglog.L()
		l.Warn().Err(err).
			Str(pkglog.FieldUserID, recipientID).
			Str(pkglog.FieldMessageID, msg.ID.Hex()).
			Msg("durable notification creation failed")
	}
}

func (s *relayService) produceAnalytics(msg *domain.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()

	if err := s.producer.ProduceMessage(ctx, msg); err != nil {
		l := pkglog.L()
		l.Warn().Err(err).Str(pkglog.FieldMessageID, msg.ID.Hex()).Msg("analytics produce failed")
	}
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
