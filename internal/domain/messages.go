package domain

import "encoding/json"

// WebSocket message types from client. This is the closed command set;
// the handler dispatches over it with a single switch.
const (
	MsgTypeConversationJoin  = "conversation:join"
	MsgTypeConversationLeave = "conversation:leave"
	MsgTypeMessageSend       = "message:send"
	MsgTypeMessageRead       = "message:read"
	MsgTypeMessageReact      = "message:react"
	MsgTypeTypingStart       = "typing:start"
	MsgTypeTypingStop        = "typing:stop"
	MsgTypeCallInitiate      = "call:initiate"
	MsgTypeCallAnswer        = "call:answer"
	MsgTypeCallEnd           = "call:end"
	MsgTypeCallICE           = "call:ice"
	MsgTypeVideoJoin         = "video:join"
	MsgTypeVideoLeave        = "video:leave"
	MsgTypeVideoToggle       = "video:toggle"
	MsgTypeRTCOffer          = "rtc:offer"
	MsgTypeRTCAnswer         = "rtc:answer"
	MsgTypeRTCICE            = "rtc:ice"
	MsgTypePing              = "ping"
)

// WebSocket message types to client.
const (
	MsgTypeReady               = "ready"
	MsgTypeConversationJoined  = "conversation:joined"
	MsgTypeMessageNew          = "message:new"
	MsgTypeMessageSent         = "message:sent"
	MsgTypeMessageReadNotice   = "message:read"
	MsgTypeMessageReaction     = "message:reaction"
	MsgTypeTyping              = "typing"
	MsgTypeNotificationMessage = "notification:message"
	MsgTypeCallIncoming        = "call:incoming"
	MsgTypeCallAnswered        = "call:answered"
	MsgTypeCallEnded           = "call:ended"
	MsgTypeCallICERelay        = "call:ice"
	MsgTypeVideoParticipants   = "video:participants"
	MsgTypeVideoUserJoined     = "video:user-joined"
	MsgTypeVideoUserLeft       = "video:user-left"
	MsgTypeVideoToggled        = "video:toggle"
	MsgTypeRTCOfferRelay       = "rtc:offer"
	MsgTypeRTCAnswerRelay      = "rtc:answer"
	MsgTypeRTCICERelay         = "rtc:ice"
	MsgTypeError               = "error"
	MsgTypePong                = "pong"
)

// Error codes
const (
	ErrCodeUnauthorized  = "UNAUTHORIZED"
	ErrCodeForbidden     = "FORBIDDEN"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeBadRequest    = "BAD_REQUEST"
	ErrCodeInternalError = "INTERNAL_ERROR"
)

// BaseMessage is the base structure for all WebSocket messages.
type BaseMessage struct {
	Type string `json:"type"`
}

// Client -> Server messages

type ConversationJoinMessage struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversation_id"`
}

type ConversationLeaveMessage struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversation_id"`
}

type MessageSendMessage struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversation_id"`
	Content        string `json:"content"`
	ContentType    string `json:"content_type,omitempty"`
	ReplyTo        string `json:"reply_to,omitempty"`
}

type MessageReadMessage struct {
	Type      string `json:"type"`
	MessageID string `json:"message_id"`
}

type MessageReactMessage struct {
	Type      string `json:"type"`
	MessageID string `json:"message_id"`
	Emoji     string `json:"emoji"`
}

type TypingMessage struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversation_id"`
}

// CallSignalMessage covers call:initiate, call:answer, call:end and
// call:ice. Payload is opaque to the relay (SDP, ICE candidate, or call
// metadata produced by the caller's WebRTC stack).
type CallSignalMessage struct {
	Type     string          `json:"type"`
	ToUserID string          `json:"to_user_id"`
	CallID   string          `json:"call_id"`
	CallType string          `json:"call_type,omitempty"` // audio or video
	Payload  json.RawMessage `json:"payload,omitempty"`
}

type VideoJoinMessage struct {
	Type   string `json:"type"`
	RoomID string `json:"room_id"`
}

type VideoLeaveMessage struct {
	Type   string `json:"type"`
	RoomID string `json:"room_id"`
}

type VideoToggleMessage struct {
	Type    string `json:"type"`
	RoomID  string `json:"room_id"`
	Kind    string `json:"kind"` // audio or video
	Enabled bool   `json:"enabled"`
}

// RTCSignalMessage covers the room-scoped rtc:offer, rtc:answer and
// rtc:ice exchange between two participants of a video room.
type RTCSignalMessage struct {
	Type     string          `json:"type"`
	ToUserID string          `json:"to_user_id"`
	RoomID   string          `json:"room_id"`
	Payload  json.RawMessage `json:"payload"`
}

// Server -> Client messages

// ReadyMessage is sent once after the handshake succeeds.
type ReadyMessage struct {
	Type        string `json:"type"`
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
}

type ConversationJoinedMessage struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversation_id"`
}

type MessageNewMessage struct {
	Type    string         `json:"type"`
	Message *MessageRecord `json:"message"`
}

type MessageSentMessage struct {
	Type           string `json:"type"`
	MessageID      string `json:"message_id"`
	ConversationID string `json:"conversation_id"`
}

type MessageReadNoticeMessage struct {
	Type           string `json:"type"`
	MessageID      string `json:"message_id"`
	ConversationID string `json:"conversation_id"`
	ReaderID       string `json:"reader_id"`
}

type MessageReactionMessage struct {
	Type           string `json:"type"`
	MessageID      string `json:"message_id"`
	ConversationID string `json:"conversation_id"`
	UserID         string `json:"user_id"`
	Emoji          string `json:"emoji"`
}

type TypingNoticeMessage struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversation_id"`
	UserID         string `json:"user_id"`
	DisplayName    string `json:"display_name"`
	Typing         bool   `json:"typing"`
}

type MessageNotification struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversation_id"`
	MessageID      string `json:"message_id"`
	SenderID       string `json:"sender_id"`
	SenderName     string `json:"sender_name"`
	Preview        string `json:"preview"`
	SentAt         int64  `json:"sent_at"`
}

type CallSignalRelay struct {
	Type       string          `json:"type"`
	FromUserID string          `json:"from_user_id"`
	FromName   string          `json:"from_name"`
	CallID     string          `json:"call_id"`
	CallType   string          `json:"call_type,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

type VideoParticipant struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
}

type VideoParticipantsMessage struct {
	Type         string             `json:"type"`
	RoomID       string             `json:"room_id"`
	Participants []VideoParticipant `json:"participants"`
}

type VideoPresenceMessage struct {
	Type        string `json:"type"`
	RoomID      string `json:"room_id"`
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
}

type VideoToggleRelay struct {
	Type    string `json:"type"`
	RoomID  string `json:"room_id"`
	UserID  string `json:"user_id"`
	Kind    string `json:"kind"`
	Enabled bool   `json:"enabled"`
}

type RTCSignalRelay struct {
	Type       string          `json:"type"`
	FromUserID string          `json:"from_user_id"`
	RoomID     string          `json:"room_id"`
	Payload    json.RawMessage `json:"payload"`
}

// MessageRecord is the wire form of a persisted chat message.
type MessageRecord struct {
	ID             string   `json:"id"`
	ConversationID string   `json:"conversation_id"`
	SenderID       string   `json:"sender_id"`
	SenderName     string   `json:"sender_name"`
	Content        string   `json:"content"`
	ContentType    string   `json:"content_type"`
	ReplyTo        string   `json:"reply_to,omitempty"`
	ReadBy         []string `json:"read_by"`
	CreatedAt      int64    `json:"created_at"`
}

type ErrorMessage struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func NewErrorMessage(code, message string) *ErrorMessage {
	return &ErrorMessage{
		Type:    MsgTypeError,
		Code:    code,
		Message: message,
	}
}

// WireRecord converts a stored message to its wire form.
func (m *Message) WireRecord() *MessageRecord {
	rec := &MessageRecord{
		ID:             m.ID.Hex(),
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		SenderName:     m.SenderName,
		Content:        m.Content,
		ContentType:    m.ContentType,
		ReadBy:         m.ReadBy,
		CreatedAt:      m.CreatedAt.UnixMilli(),
	}
	if m.ReplyTo != nil {
		rec.ReplyTo = *m.ReplyTo
	}
	if rec.ReadBy == nil {
		rec.ReadBy = []string{}
	}
	return rec
}
