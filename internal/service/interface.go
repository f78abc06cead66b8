package service

import (
	"context"

	"github.com/SebiosJade/Boluntik-sub004/internal/domain"
	"github.com/SebiosJade/Boluntik-sub004/internal/hub"
)

// RelayService handles every realtime command after the handshake.
type RelayService interface {
	HandleConnect(ctx context.Context, client *hub.Client) error
	HandleJoinConversation(ctx context.Context, client *hub.Client, conversationID string) error
	HandleLeaveConversation(ctx context.Context, client *hub.Client, conversationID string) error
	HandleSendMessage(ctx context.Context, client *hub.Client, msg *domain.MessageSendMessage) error
	HandleMarkRead(ctx context.Context, client *hub.Client, messageID string) error
	HandleReaction(ctx context.Context, client *hub.Client, messageID, emoji string) error
	HandleTyping(ctx context.Context, client *hub.Client, conversationID string, typing bool) error
	HandleCallSignal(ctx context.Context, client *hub.Client, kind string, msg *domain.CallSignalMessage) error
	HandleVideoJoin(ctx context.Context, client *hub.Client, roomID string) error
	HandleVideoLeave(ctx context.Context, client *hub.Client, roomID string) error
	HandleVideoToggle(ctx context.Context, client *hub.Client, roomID, kind string, enabled bool) error
	HandleRTCSignal(ctx context.Context, client *hub.Client, kind string, msg *domain.RTCSignalMessage) error
	HandleDisconnect(ctx context.Context, client *hub.Client) error
	Start(ctx context.Context) error
	Stop() error
}

// Presence is the subset of the presence registry used by the relay.
type Presence interface {
	Register(ctx context.Context, userID string) error
	Deregister(ctx context.Context, userID string) error
	StartHeartbeat(ctx context.Context) error
	StopHeartbeat()
}
