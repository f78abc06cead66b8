package hub

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SebiosJade/Boluntik-sub004/internal/config"
	"github.com/SebiosJade/Boluntik-sub004/internal/domain"
)

func testWSConfig() config.WebSocketConfig {
	return config.WebSocketConfig{
		PingInterval:   30 * time.Second,
		PongWait:       60 * time.Second,
		WriteWait:      10 * time.Second,
		MaxMessageSize: 8192,
	}
}

// setupHub creates and starts a hub for testing.
func setupHub(t *testing.T) *Hub {
	t.Helper()
	h := NewHub(testWSConfig())
	go h.Run()
	return h
}

// newTestClient creates a nil-conn client; everything except the pumps
// works against the Send channel.
func newTestClient(h *Hub, userID, name string) *Client {
	id := uuid.New().String()
	return NewClient(id, h, nil, domain.NewSession(id, userID, name, ""), testWSConfig())
}

// recv waits for one queued message and decodes it.
func recv(t *testing.T, c *Client) map[string]interface{} {
	t.Helper()
	select {
	case data := <-c.Send:
		var m map[string]interface{}
		require.NoError(t, json.Unmarshal(data, &m))
		return m
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
		return nil
	}
}

// expectNone asserts no message arrives within the window.
func expectNone(t *testing.T, c *Client) {
	t.Helper()
	select {
	case data := <-c.Send:
		t.Fatalf("unexpected message: %s", data)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestHub_JoinLeaveMembership(t *testing.T) {
	h := setupHub(t)
	c := newTestClient(h, "u1", "User One")
	h.Register(c)

	h.JoinRoom(c, "conversation:c1")
	assert.True(t, h.IsMember("conversation:c1", c.ID))

	// Re-join is a no-op.
	h.JoinRoom(c, "conversation:c1")
	assert.Len(t, h.Occupants("conversation:c1"), 1)

	h.LeaveRoom(c, "conversation:c1")
	assert.False(t, h.IsMember("conversation:c1", c.ID))

	// Leaving a room never joined is fine.
	h.LeaveRoom(c, "conversation:c2")
}

func TestHub_MemberRooms(t *testing.T) {
	h := setupHub(t)
	c := newTestClient(h, "u1", "User One")
	h.Register(c)

	h.JoinRoom(c, "user:u1")
	h.JoinRoom(c, "video:r1")

	rooms := h.MemberRooms(c.ID)
	assert.ElementsMatch(t, []string{"user:u1", "video:r1"}, rooms)
}

func TestHub_BroadcastToRoom(t *testing.T) {
	h := setupHub(t)
	a := newTestClient(h, "u1", "A")
	b := newTestClient(h, "u2", "B")
	outsider := newTestClient(h, "u3", "C")
	h.Register(a)
	h.Register(b)
	h.Register(outsider)

	h.JoinRoom(a, "conversation:c1")
	h.JoinRoom(b, "conversation:c1")

	require.NoError(t, h.BroadcastToRoom("conversation:c1", map[string]string{"type": "hello"}, ""))

	assert.Equal(t, "hello", recv(t, a)["type"])
	assert.Equal(t, "hello", recv(t, b)["type"])
	expectNone(t, outsider)
}

func TestHub_BroadcastExcludesSender(t *testing.T) {
	h := setupHub(t)
	a := newTestClient(h, "u1", "A")
	b := newTestClient(h, "u2", "B")
	h.Register(a)
	h.Register(b)

	h.JoinRoom(a, "conversation:c1")
	h.JoinRoom(b, "conversation:c1")

	require.NoError(t, h.BroadcastToRoom("conversation:c1", map[string]string{"type": "typing"}, a.ID))

	assert.Equal(t, "typing", recv(t, b)["type"])
	expectNone(t, a)
}

func TestHub_SendToUser(t *testing.T) {
	h := setupHub(t)
	s1 := newTestClient(h, "u1", "A")
	s2 := newTestClient(h, "u1", "A") // second session, same user
	h.Register(s1)
	h.Register(s2)

	h.JoinRoom(s1, domain.UserRoom("u1"))
	h.JoinRoom(s2, domain.UserRoom("u1"))

	require.NoError(t, h.SendToUser("u1", map[string]string{"type": "notice"}))

	assert.Equal(t, "notice", recv(t, s1)["type"])
	assert.Equal(t, "notice", recv(t, s2)["type"])
}

func TestHub_UnregisterRemovesFromAllRooms(t *testing.T) {
	h := setupHub(t)
	c := newTestClient(h, "u1", "A")
	h.Register(c)

	h.JoinRoom(c, "conversation:c1")
	h.JoinRoom(c, "video:r1")

	h.Unregister(c)

	// Unregister runs on the hub loop; wait for it to take effect.
	require.Eventually(t, func() bool {
		return h.ClientCount() == 0
	}, 2*time.Second, 10*time.Millisecond)

	assert.False(t, h.IsMember("conversation:c1", c.ID))
	assert.False(t, h.IsMember("video:r1", c.ID))
	assert.Equal(t, 0, h.RoomCount())
}

func TestHub_Counts(t *testing.T) {
	h := setupHub(t)
	a := newTestClient(h, "u1", "A")
	b := newTestClient(h, "u2", "B")
	h.Register(a)
	h.Register(b)

	require.Eventually(t, func() bool {
		return h.ClientCount() == 2
	}, 2*time.Second, 10*time.Millisecond)

	h.JoinRoom(a, "user:u1")
	h.JoinRoom(b, "user:u2")
	assert.Equal(t, 2, h.RoomCount())
}
