package audit

import (
	"context"

	"github.com/SebiosJade/Boluntik-sub004/pkg/log"
)

// Audit actions for the realtime relay.
const (
	ActionConnect          = "realtime.connect"
	ActionConnectRejected  = "realtime.connect_rejected"
	ActionJoinConversation = "realtime.join_conversation"
	ActionSendMessage      = "realtime.send_message"
	ActionJoinVideoRoom    = "realtime.join_video_room"
	ActionDisconnect       = "realtime.disconnect"
)

// Field constants for audit entries.
const (
	FieldAction   = "action"
	FieldTargetID = "target_id"
	FieldDetail   = "detail"
)

// Log emits a structured audit log entry via the context logger.
func Log(ctx context.Context, action string, userID string, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldUserID, userID).
		Msg(msg)
}

// LogWithTarget emits an audit log with the acted-on entity id.
func LogWithTarget(ctx context.Context, action string, userID string, targetID string, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldUserID, userID).
		Str(FieldTargetID, targetID).
		Msg(msg)
}
