package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoomIDs(t *testing.T) {
	assert.Equal(t, "user:u1", UserRoom("u1"))
	assert.Equal(t, "conversation:c1", ConversationRoom("c1"))
	assert.Equal(t, "video:r1", VideoRoom("r1"))
}

func TestIsVideoRoom(t *testing.T) {
	assert.True(t, IsVideoRoom("video:r1"))
	assert.False(t, IsVideoRoom("user:u1"))
	assert.False(t, IsVideoRoom("conversation:c1"))
	assert.False(t, IsVideoRoom("videotape"))
}
