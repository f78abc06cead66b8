package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/SebiosJade/Boluntik-sub004/internal/audit"
	"github.com/SebiosJade/Boluntik-sub004/internal/domain"
	"github.com/SebiosJade/Boluntik-sub004/internal/hub"
	"github.com/SebiosJade/Boluntik-sub004/internal/kafka"
	"github.com/SebiosJade/Boluntik-sub004/internal/store"
	pkglog "github.com/SebiosJade/Boluntik-sub004/pkg/log"
)

type relayService struct {
	hub           *hub.Hub
	conversations store.ConversationStore
	messages      store.MessageStore
	notifications store.NotificationStore
	producer      kafka.MessageProducer
	presence      Presence
}

// NewRelayService wires the relay over its collaborators.
func NewRelayService(
	h *hub.Hub,
	conversations store.ConversationStore,
	messages store.MessageStore,
	notifications store.NotificationStore,
	producer kafka.MessageProducer,
	presence Presence,
) RelayService {
	return &relayService{
		hub:           h,
		conversations: conversations,
		messages:      messages,
		notifications: notifications,
		producer:      producer,
		presence:      presence,
	}
}

// HandleConnect subscribes the session to its personal inbox room and
// registers presence. Identity is already attached by the handshake.
func (s *relayService) HandleConnect(ctx context.Context, c *hub.Client) error {
	userID := c.Session.UserID
	s.hub.JoinRoom(c, domain.UserRoom(userID))

	if err := s.presence.Register(ctx, userID); err != nil {
		l := pkglog.Ctx(ctx)
		l.Warn().Err(err).Str(pkglog.FieldUserID, userID).Msg("presence registration failed")
	}

	audit.Log(ctx, audit.ActionConnect, userID, "realtime session opened")

	return c.SendMessage(&domain.ReadyMessage{
		Type:        domain.MsgTypeReady,
		UserID:      userID,
		DisplayName: c.Session.DisplayName,
	})
}

// HandleJoinConversation authorizes the join against the persisted
// participant set and subscribes the session. Re-join is a no-op success.
func (s *relayService) HandleJoinConversation(ctx context.Context, c *hub.Client, conversationID string) error {
	conv, err := s.conversations.FindByID(ctx, conversationID)
	if errors.Is(err, domain.ErrNotFound) {
		return c.SendMessage(domain.NewErrorMessage(domain.ErrCodeNotFound, "Conversation not found"))
	}
	if err != nil {
		return c.SendMessage(domain.NewErrorMessage(domain.ErrCodeInternalError, "Failed to join conversation"))
	}

	if !conv.HasParticipant(c.Session.UserID) {
		return c.SendMessage(domain.NewErrorMessage(domain.ErrCodeForbidden, "Not a participant of this conversation"))
	}

	s.hub.JoinRoom(c, domain.ConversationRoom(conversationID))
	audit.LogWithTarget(ctx, audit.ActionJoinConversation, c.Session.UserID, conversationID, "joined conversation")

	return c.SendMessage(&domain.ConversationJoinedMessage{
		Type:           domain.MsgTypeConversationJoined,
		ConversationID: conversationID,
	})
}

func (s *relayService) HandleLeaveConversation(ctx context.Context, c *hub.Client, conversationID string) error {
	s.hub.LeaveRoom(c, domain.ConversationRoom(conversationID))
	return nil
}

// HandleSendMessage persists the message, updates the conversation
// summary, and only then broadcasts. A persistence failure yields a
// generic error to the sender and suppresses the broadcast entirely.
func (s *relayService) HandleSendMessage(ctx context.Context, c *hub.Client, in *domain.MessageSendMessage) error {
	l := pkglog.Ctx(ctx)
	sender := c.Session

	conv, err := s.conversations.FindByID(ctx, in.ConversationID)
	if errors.Is(err, domain.ErrNotFound) {
		return c.SendMessage(domain.NewErrorMessage(domain.ErrCodeNotFound, "Conversation not found"))
	}
	if err != nil {
		return c.SendMessage(domain.NewErrorMessage(domain.ErrCodeInternalError, "Failed to send message"))
	}

	// Participant check at send time, not join time.
	if !conv.HasParticipant(sender.UserID) {
		return c.SendMessage(domain.NewErrorMessage(domain.ErrCodeForbidden, "Not a participant of this conversation"))
	}

	contentType := in.ContentType
	if contentType == "" {
		contentType = "text"
	}

	msg := &domain.Message{
		ID:             primitive.NewObjectID(),
		ConversationID: in.ConversationID,
		SenderID:       sender.UserID,
		SenderName:     sender.DisplayName,
		Content:        in.Content,
		ContentType:    contentType,
		ReadBy:         []string{sender.UserID},
		CreatedAt:      time.Now().UTC(),
	}
	if in.ReplyTo != "" {
		msg.ReplyTo = &in.ReplyTo
	}

	if err := s.messages.Insert(ctx, msg); err != nil {
		l.Error().Err(err).Str(pkglog.FieldConversationID, in.ConversationID).Msg("message insert failed")
		return c.SendMessage(domain.NewErrorMessage(domain.ErrCodeInternalError, "Failed to send message"))
	}

	// Summary update is not transactional with the insert; a failure here
	// leaves the summary stale, never the message missing.
	if err := s.conversations.UpdateLastMessage(ctx, in.ConversationID, domain.LastMessage{
		Content:    msg.Content,
		SenderID:   msg.SenderID,
		SenderName: msg.SenderName,
		SentAt:     msg.CreatedAt,
	}); err != nil {
		l.Error().Err(err).Str(pkglog.FieldConversationID, in.ConversationID).Msg("conversation summary update failed")
	}

	if err := s.hub.BroadcastToRoom(domain.ConversationRoom(in.ConversationID), &domain.MessageNewMessage{
		Type:    domain.MsgTypeMessageNew,
		Message: msg.WireRecord(),
	}, ""); err != nil {
		l.Error().Err(err).Msg("message broadcast failed")
	}

	audit.LogWithTarget(ctx, audit.ActionSendMessage, sender.UserID, msg.ID.Hex(), "message sent")

	if err := c.SendMessage(&domain.MessageSentMessage{
		Type:           domain.MsgTypeMessageSent,
		MessageID:      msg.ID.Hex(),
		ConversationID: in.ConversationID,
	}); err != nil {
		return err
	}

	s.dispatchNotifications(ctx, conv, msg)
	return nil
}

// HandleMarkRead idempotently records the read receipt and notifies the
// original sender's inbox room. A missing message is silently ignored.
func (s *relayService) HandleMarkRead(ctx context.Context, c *hub.Client, messageID string) error {
	msg, err := s.messages.MarkRead(ctx, messageID, c.Session.UserID)
	if errors.Is(err, domain.ErrNotFound) {
		l := pkglog.Ctx(ctx)
		l.Debug().Str(pkglog.FieldMessageID, messageID).Msg("read receipt for unknown message ignored")
		return nil
	}
	if err != nil {
		return fmt.Errorf("mark read: %w", err)
	}

	return s.hub.SendToUser(msg.SenderID, &domain.MessageReadNoticeMessage{
		Type:           domain.MsgTypeMessageReadNotice,
		MessageID:      messageID,
		ConversationID: msg.ConversationID,
		ReaderID:       c.Session.UserID,
	})
}

func (s *relayService) HandleReaction(ctx context.Context, c *hub.Client, messageID, emoji string) error {
	msg, err := s.messages.AppendReaction(ctx, messageID, domain.Reaction{
		UserID: c.Session.UserID,
		Emoji:  emoji,
	})
	if errors.Is(err, domain.ErrNotFound) {
		return c.SendMessage(domain.NewErrorMessage(domain.ErrCodeNotFound, "Message not found"))
	}
	if err != nil {
		return c.SendMessage(domain.NewErrorMessage(domain.ErrCodeInternalError, "Failed to add reaction"))
	}

	return s.hub.BroadcastToRoom(domain.ConversationRoom(msg.ConversationID), &domain.MessageReactionMessage{
		Type:           domain.MsgTypeMessageReaction,
		MessageID:      messageID,
		ConversationID: msg.ConversationID,
		UserID:         c.Session.UserID,
		Emoji:          emoji,
	}, "")
}

// HandleTyping relays a typing flag to the conversation room, excluding
// the sender. Requires the session to have joined the room first;
// violations are dropped, not reported.
func (s *relayService) HandleTyping(ctx context.Context, c *hub.Client, conversationID string, typing bool) error {
	roomID := domain.ConversationRoom(conversationID)
	if !s.hub.IsMember(roomID, c.ID) {
		return nil
	}

	return s.hub.BroadcastToRoom(roomID, &domain.TypingNoticeMessage{
		Type:           domain.MsgTypeTyping,
		ConversationID: conversationID,
		UserID:         c.Session.UserID,
		DisplayName:    c.Session.DisplayName,
		Typing:         typing,
	}, c.ID)
}

// HandleCallSignal relays direct-call signaling to the target user's
// inbox room. No precondition beyond an authenticated identity.
func (s *relayService) HandleCallSignal(ctx context.Context, c *hub.Client, kind string, in *domain.CallSignalMessage) error {
	var relayType string
	switch kind {
	case domain.MsgTypeCallInitiate:
		relayType = domain.MsgTypeCallIncoming
	case domain.MsgTypeCallAnswer:
		relayType = domain.MsgTypeCallAnswered
	case domain.MsgTypeCallEnd:
		relayType = domain.MsgTypeCallEnded
	case domain.MsgTypeCallICE:
		relayType = domain.MsgTypeCallICERelay
	default:
		return c.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "Unknown call signal"))
	}

	return s.hub.SendToUser(in.ToUserID, &domain.CallSignalRelay{
		Type:       relayType,
		FromUserID: c.Session.UserID,
		FromName:   c.Session.DisplayName,
		CallID:     in.CallID,
		CallType:   in.CallType,
		Payload:    in.Payload,
	})
}

// HandleVideoJoin subscribes the session to an ad-hoc video room. There
// is no durable participant set to authorize against; any authenticated
// identity may join by room id. The occupant snapshot returned to the
// joiner is computed before the join broadcast, so the joiner never sees
// its own arrival.
func (s *relayService) HandleVideoJoin(ctx context.Context, c *hub.Client, roomID string) error {
	room := domain.VideoRoom(roomID)

	occupants := s.hub.Occupants(room)
	participants := make([]domain.VideoParticipant, 0, len(occupants))
	for _, o := range occupants {
		if o.ID == c.ID {
			continue
		}
		participants = append(participants, domain.VideoParticipant{
			UserID:      o.Session.UserID,
			DisplayName: o.Session.DisplayName,
		})
	}

	s.hub.JoinRoom(c, room)
	audit.LogWithTarget(ctx, audit.ActionJoinVideoRoom, c.Session.UserID, roomID, "joined video room")

	if err := c.SendMessage(&domain.VideoParticipantsMessage{
		Type:         domain.MsgTypeVideoParticipants,
		RoomID:       roomID,
		Participants: participants,
	}); err != nil {
		return err
	}

	return s.hub.BroadcastToRoom(room, &domain.VideoPresenceMessage{
		Type:        domain.MsgTypeVideoUserJoined,
		RoomID:      roomID,
		UserID:      c.Session.UserID,
		DisplayName: c.Session.DisplayName,
	}, c.ID)
}

func (s *relayService) HandleVideoLeave(ctx context.Context, c *hub.Client, roomID string) error {
	room := domain.VideoRoom(roomID)
	s.hub.LeaveRoom(c, room)

	return s.hub.BroadcastToRoom(room, &domain.VideoPresenceMessage{
		Type:        domain.MsgTypeVideoUserLeft,
		RoomID:      roomID,
		UserID:      c.Session.UserID,
		DisplayName: c.Session.DisplayName,
	}, c.ID)
}

func (s *relayService) HandleVideoToggle(ctx context.Context, c *hub.Client, roomID, kind string, enabled bool) error {
	room := domain.VideoRoom(roomID)
	if !s.hub.IsMember(room, c.ID) {
		return nil
	}

	return s.hub.BroadcastToRoom(room, &domain.VideoToggleRelay{
		Type:    domain.MsgTypeVideoToggled,
		RoomID:  roomID,
		UserID:  c.Session.UserID,
		Kind:    kind,
		Enabled: enabled,
	}, c.ID)
}

// HandleRTCSignal relays a room-scoped offer/answer/candidate to the
// target user's inbox room, stamped with the sender's identity.
func (s *relayService) HandleRTCSignal(ctx context.Context, c *hub.Client, kind string, in *domain.RTCSignalMessage) error {
	switch kind {
	case domain.MsgTypeRTCOffer, domain.MsgTypeRTCAnswer, domain.MsgTypeRTCICE:
	default:
		return c.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "Unknown signaling message"))
	}

	return s.hub.SendToUser(in.ToUserID, &domain.RTCSignalRelay{
		Type:       kind,
		FromUserID: c.Session.UserID,
		RoomID:     in.RoomID,
		Payload:    in.Payload,
	})
}

// HandleDisconnect notifies video rooms of the departure and drops
// presence when the user's last session closes. Room unsubscription
// itself happens in the hub's unregister path.
func (s *relayService) HandleDisconnect(ctx context.Context, c *hub.Client) error {
	userID := c.Session.UserID

	for _, roomID := range s.hub.MemberRooms(c.ID) {
		if !domain.IsVideoRoom(roomID) {
			continue
		}
		s.hub.BroadcastToRoom(roomID, &domain.VideoPresenceMessage{
			Type:        domain.MsgTypeVideoUserLeft,
			RoomID:      roomID[len("video:"):],
			UserID:      userID,
			DisplayName: c.Session.DisplayName,
		}, c.ID)
	}

	// Other sessions of the same user keep presence alive.
	others := 0
	for _, o := range s.hub.Occupants(domain.UserRoom(userID)) {
		if o.ID != c.ID {
			others++
		}
	}
	if others == 0 {
		if err := s.presence.Deregister(ctx, userID); err != nil {
			l := pkglog.Ctx(ctx)
			l.Warn().Err(err).Str(pkglog.FieldUserID, userID).Msg("presence deregistration failed")
		}
	}

	audit.Log(ctx, audit.ActionDisconnect, userID, "realtime session closed")
	return nil
}

func (s *relayService) Start(ctx context.Context) error {
	if err := s.presence.StartHeartbeat(ctx); err != nil {
		return fmt.Errorf("failed to start presence heartbeat: %w", err)
	}
	l := pkglog.L()
	l.Info().Msg("relay service started")
	return nil
}

func (s *relayService) Stop() error {
	s.presence.StopHeartbeat()
	if err := s.producer.Close(); err != nil {
		l := pkglog.L()
		l.Error().Err(err).Msg("failed to close kafka producer")
	}
	return nil
}
