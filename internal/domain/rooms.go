package domain

import "strings"

// Room identifiers. Three kinds of rooms exist: a personal inbox room per
// user (implicit membership, auto-joined at connect), a room per
// conversation (membership checked against the persisted participant
// set), and ad-hoc video call rooms (membership is whoever joined).

// UserRoom returns the personal inbox room id for a user.
func UserRoom(userID string) string {
	return "user:" + userID
}

// ConversationRoom returns the room id for a conversation.
func ConversationRoom(conversationID string) string {
	return "conversation:" + conversationID
}

// VideoRoom returns the room id for an ad-hoc video call room.
func VideoRoom(roomID string) string {
	return "video:" + roomID
}

// IsVideoRoom reports whether a room id names a video call room.
func IsVideoRoom(roomID string) bool {
	return strings.HasPrefix(roomID, "video:")
}
