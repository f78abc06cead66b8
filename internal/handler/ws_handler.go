package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/SebiosJade/Boluntik-sub004/internal/audit"
	"github.com/SebiosJade/Boluntik-sub004/internal/config"
	"github.com/SebiosJade/Boluntik-sub004/internal/domain"
	"github.com/SebiosJade/Boluntik-sub004/internal/hub"
	"github.com/SebiosJade/Boluntik-sub004/internal/service"
	"github.com/SebiosJade/Boluntik-sub004/pkg/jwt"
	pkglog "github.com/SebiosJade/Boluntik-sub004/pkg/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSHandler authenticates connection attempts and routes commands.
type WSHandler struct {
	hub     *hub.Hub
	service service.RelayService
	tokens  *jwt.Manager
	wsCfg   config.WebSocketConfig
}

// NewWSHandler creates a new WebSocket handler.
func NewWSHandler(h *hub.Hub, svc service.RelayService, tokens *jwt.Manager, wsCfg config.WebSocketConfig) *WSHandler {
	return &WSHandler{
		hub:     h,
		service: svc,
		tokens:  tokens,
		wsCfg:   wsCfg,
	}
}

// HandleWebSocket verifies the bearer credential, upgrades the
// connection, and starts the pumps. A bad credential is rejected before
// the upgrade, so no command handling is ever registered for it.
func (h *WSHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	l := pkglog.Ctx(r.Context())

	claims, err := h.tokens.Validate(bearerToken(r))
	if err != nil {
		audit.Log(r.Context(), audit.ActionConnectRejected, "", "connection rejected: "+err.Error())
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		l.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	clientID := uuid.New().String()
	session := domain.NewSession(clientID, claims.UserID, claims.DisplayName, claims.Avatar)
	client := hub.NewClient(clientID, h.hub, conn, session, h.wsCfg)

	client.SetDisconnectHandler(func(c *hub.Client) {
		ctx := context.Background()
		if err := h.service.HandleDisconnect(ctx, c); err != nil {
			l.Error().Err(err).Str(pkglog.FieldClientID, c.ID).Msg("disconnect handler error")
		}
	})

	h.hub.Register(client)

	if err := h.service.HandleConnect(r.Context(), client); err != nil {
		l.Error().Err(err).Str(pkglog.FieldClientID, clientID).Msg("connect handler error")
	}

	go client.WritePump()
	go client.ReadPump(h.handleMessage)
}

func (h *WSHandler) handleMessage(client *hub.Client, message []byte) {
	l := pkglog.L()

	var base domain.BaseMessage
	if err := json.Unmarshal(message, &base); err != nil {
		client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "Invalid message format"))
		return
	}

	ctx := context.Background()

	switch base.Type {
	case domain.MsgTypeConversationJoin:
		var msg domain.ConversationJoinMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "Invalid conversation:join message"))
			return
		}
		if err := h.service.HandleJoinConversation(ctx, client, msg.ConversationID); err != nil {
			l.Error().Err(err).Str(pkglog.FieldClientID, client.ID).Msg("conversation join failed")
		}

	case domain.MsgTypeConversationLeave:
		var msg domain.ConversationLeaveMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "Invalid conversation:leave message"))
			return
		}
		if err := h.service.HandleLeaveConversation(ctx, client, msg.ConversationID); err != nil {
			l.Error().Err(err).Str(pkglog.FieldClientID, client.ID).Msg("conversation leave failed")
		}

	case domain.MsgTypeMessageSend:
		var msg domain.MessageSendMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "Invalid message:send message"))
			return
		}
		if err := h.service.HandleSendMessage(ctx, client, &msg); err != nil {
			l.Error().Err(err).Str(pkglog.FieldClientID, client.ID).Msg("message send failed")
		}

	case domain.MsgTypeMessageRead:
		var msg domain.MessageReadMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "Invalid message:read message"))
			return
		}
		if err := h.service.HandleMarkRead(ctx, client, msg.MessageID); err != nil {
			l.Error().Err(err).Str(pkglog.FieldClientID, client.ID).Msg("mark read failed")
		}

	case domain.MsgTypeMessageReact:
		var msg domain.MessageReactMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "Invalid message:react message"))
			return
		}
		if err := h.service.HandleReaction(ctx, client, msg.MessageID, msg.Emoji); err != nil {
			l.Error().Err(err).Str(pkglog.FieldClientID, client.ID).Msg("reaction failed")
		}

	case domain.MsgTypeTypingStart, domain.MsgTypeTypingStop:
		var msg domain.TypingMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "Invalid typing message"))
			return
		}
		typing := base.Type == domain.MsgTypeTypingStart
		if err := h.service.HandleTyping(ctx, client, msg.ConversationID, typing); err != nil {
			l.Error().Err(err).Str(pkglog.FieldClientID, client.ID).Msg("typing relay failed")
		}

	case domain.MsgTypeCallInitiate, domain.MsgTypeCallAnswer, domain.MsgTypeCallEnd, domain.MsgTypeCallICE:
		var msg domain.CallSignalMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "Invalid call signal message"))
			return
		}
		if err := h.service.HandleCallSignal(ctx, client, base.Type, &msg); err != nil {
			l.Error().Err(err).Str(pkglog.FieldClientID, client.ID).Msg("call signal failed")
		}

	case domain.MsgTypeVideoJoin:
		var msg domain.VideoJoinMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "Invalid video:join message"))
			return
		}
		if err := h.service.HandleVideoJoin(ctx, client, msg.RoomID); err != nil {
			l.Error().Err(err).Str(pkglog.FieldClientID, client.ID).Msg("video join failed")
		}

	case domain.MsgTypeVideoLeave:
		var msg domain.VideoLeaveMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "Invalid video:leave message"))
			return
		}
		if err := h.service.HandleVideoLeave(ctx, client, msg.RoomID); err != nil {
			l.Error().Err(err).Str(pkglog.FieldClientID, client.ID).Msg("video leave failed")
		}

	case domain.MsgTypeVideoToggle:
		var msg domain.VideoToggleMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "Invalid video:toggle message"))
			return
		}
		if err := h.service.HandleVideoToggle(ctx, client, msg.RoomID, msg.Kind, msg.Enabled); err != nil {
			l.Error().Err(err).Str(pkglog.FieldClientID, client.ID).Msg("video toggle failed")
		}

	case domain.MsgTypeRTCOffer, domain.MsgTypeRTCAnswer, domain.MsgTypeRTCICE:
		var msg domain.RTCSignalMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "Invalid signaling message"))
			return
		}
		if err := h.service.HandleRTCSignal(ctx, client, base.Type, &msg); err != nil {
			l.Error().Err(err).Str(pkglog.FieldClientID, client.ID).Msg("rtc signal failed")
		}

	case domain.MsgTypePing:
		client.SendMessage(map[string]string{"type": domain.MsgTypePong})

	default:
		client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "Unknown message type"))
	}
}

// bearerToken extracts the credential from the query string or the
// Authorization header. Browsers cannot set headers on websocket
// connections, so the query parameter is the primary path.
func bearerToken(r *http.Request) string {
	if t := r.URL.Query().Get("token"); t != "" {
		return t
	}
	auth := r.Header.Get("Authorization")
	return strings.TrimPrefix(auth, "Bearer ")
}
