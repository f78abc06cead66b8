package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SebiosJade/Boluntik-sub004/internal/config"
	"github.com/SebiosJade/Boluntik-sub004/internal/domain"
	"github.com/SebiosJade/Boluntik-sub004/internal/hub"
)

// --- fakes ---

type fakeConversations struct {
	mu      sync.Mutex
	convs   map[string]*domain.Conversation
	updates map[string]domain.LastMessage
	findErr error
}

func newFakeConversations() *fakeConversations {
	return &fakeConversations{
		convs:   make(map[string]*domain.Conversation),
		updates: make(map[string]domain.LastMessage),
	}
}

func (f *fakeConversations) FindByID(ctx context.Context, id string) (*domain.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	conv, ok := f.convs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return conv, nil
}

func (f *fakeConversations) UpdateLastMessage(ctx context.Context, id string, last domain.LastMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.convs[id]; !ok {
		return domain.ErrNotFound
	}
	f.updates[id] = last
	return nil
}

func (f *fakeConversations) lastUpdate(id string) (domain.LastMessage, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	last, ok := f.updates[id]
	return last, ok
}

type fakeMessages struct {
	mu        sync.Mutex
	msgs      map[string]*domain.Message
	insertErr error
}

func newFakeMessages() *fakeMessages {
	return &fakeMessages{msgs: make(map[string]*domain.Message)}
}

func (f *fakeMessages) Insert(ctx context.Context, msg *domain.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	f.msgs[msg.ID.Hex()] = msg
	return nil
}

func (f *fakeMessages) FindByID(ctx context.Context, id string) (*domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg, ok := f.msgs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return msg, nil
}

func (f *fakeMessages) MarkRead(ctx context.Context, id, readerID string) (*domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg, ok := f.msgs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	for _, r := range msg.ReadBy {
		if r == readerID {
			return msg, nil
		}
	}
	msg.ReadBy = append(msg.ReadBy, readerID)
	return msg, nil
}

func (f *fakeMessages) AppendReaction(ctx context.Context, id string, reaction domain.Reaction) (*domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg, ok := f.msgs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	for _, r := range msg.Reactions {
		if r == reaction {
			return msg, nil
		}
	}
	msg.Reactions = append(msg.Reactions, reaction)
	return msg, nil
}

func (f *fakeMessages) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.msgs)
}

func (f *fakeMessages) get(id string) *domain.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.msgs[id]
}

type fakeNotifications struct {
	mu      sync.Mutex
	created []*domain.Notification
}

func (f *fakeNotifications) Create(ctx context.Context, n *domain.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, n)
	return nil
}

func (f *fakeNotifications) forUser(userID string) []*domain.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Notification
	for _, n := range f.created {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

type fakePresence struct {
	mu     sync.Mutex
	online map[string]bool
}

func newFakePresence() *fakePresence {
	return &fakePresence{online: make(map[string]bool)}
}

func (f *fakePresence) Register(ctx context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.online[userID] = true
	return nil
}

func (f *fakePresence) Deregister(ctx context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.online, userID)
	return nil
}

func (f *fakePresence) StartHeartbeat(ctx context.Context) error { return nil }
func (f *fakePresence) StopHeartbeat()                           {}

func (f *fakePresence) isOnline(userID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.online[userID]
}

type fakeProducer struct {
	mu       sync.Mutex
	produced []*domain.Message
}

func (f *fakeProducer) ProduceMessage(ctx context.Context, msg *domain.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.produced = append(f.produced, msg)
	return nil
}

func (f *fakeProducer) Close() error { return nil }

func (f *fakeProducer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.produced)
}

// --- fixture ---

type fixture struct {
	hub      *hub.Hub
	convs    *fakeConversations
	msgs     *fakeMessages
	notifs   *fakeNotifications
	presence *fakePresence
	producer *fakeProducer
	svc      RelayService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	wsCfg := config.WebSocketConfig{
		PingInterval:   30 * time.Second,
		PongWait:       60 * time.Second,
		WriteWait:      10 * time.Second,
		MaxMessageSize: 8192,
	}
	f := &fixture{
		hub:      hub.NewHub(wsCfg),
		convs:    newFakeConversations(),
		msgs:     newFakeMessages(),
		notifs:   &fakeNotifications{},
		presence: newFakePresence(),
		producer: &fakeProducer{},
	}
	go f.hub.Run()
	f.svc = NewRelayService(f.hub, f.convs, f.msgs, f.notifs, f.producer, f.presence)
	return f
}

// connect brings up an authenticated session and drains the ready event.
func (f *fixture) connect(t *testing.T, userID, name string) *hub.Client {
	t.Helper()
	id := uuid.New().String()
	c := hub.NewClient(id, f.hub, nil, domain.NewSession(id, userID, name, ""), config.WebSocketConfig{
		PingInterval: 30 * time.Second,
		PongWait:     60 * time.Second,
		WriteWait:    10 * time.Second,
	})
	f.hub.Register(c)
	require.NoError(t, f.svc.HandleConnect(context.Background(), c))
	ready := recv(t, c)
	require.Equal(t, domain.MsgTypeReady, ready["type"])
	return c
}

func (f *fixture) addConversation(id string, userIDs ...string) {
	conv := &domain.Conversation{}
	for _, u := range userIDs {
		conv.Participants = append(conv.Participants, domain.Participant{UserID: u, DisplayName: "User " + u})
	}
	f.convs.mu.Lock()
	f.convs.convs[id] = conv
	f.convs.mu.Unlock()
}

func recv(t *testing.T, c *hub.Client) map[string]interface{} {
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

// recvN collects n messages and indexes them by type; useful where
// delivery order between the hub loop and direct sends is not fixed.
func recvN(t *testing.T, c *hub.Client, n int) map[string]map[string]interface{} {
	t.Helper()
	out := make(map[string]map[string]interface{}, n)
	for i := 0; i < n; i++ {
		m := recv(t, c)
		out[m["type"].(string)] = m
	}
	return out
}

func expectNone(t *testing.T, c *hub.Client) {
	t.Helper()
	select {
	case data := <-c.Send:
		t.Fatalf("unexpected message: %s", data)
	case <-time.After(100 * time.Millisecond):
	}
}

// --- tests ---

func TestHandleConnect(t *testing.T) {
	f := newFixture(t)
	c := f.connect(t, "u1", "Alice")

	assert.True(t, f.hub.IsMember(domain.UserRoom("u1"), c.ID))
	assert.True(t, f.presence.isOnline("u1"))
}

func TestHandleJoinConversation(t *testing.T) {
	f := newFixture(t)
	f.addConversation("conv1", "u1", "u2")

	t.Run("participant may join", func(t *testing.T) {
		c := f.connect(t, "u1", "Alice")
		require.NoError(t, f.svc.HandleJoinConversation(context.Background(), c, "conv1"))

		ack := recv(t, c)
		assert.Equal(t, domain.MsgTypeConversationJoined, ack["type"])
		assert.Equal(t, "conv1", ack["conversation_id"])
		assert.True(t, f.hub.IsMember(domain.ConversationRoom("conv1"), c.ID))
	})

	t.Run("non-participant is refused", func(t *testing.T) {
		c := f.connect(t, "u3", "Mallory")
		require.NoError(t, f.svc.HandleJoinConversation(context.Background(), c, "conv1"))

		errMsg := recv(t, c)
		assert.Equal(t, domain.MsgTypeError, errMsg["type"])
		assert.Equal(t, domain.ErrCodeForbidden, errMsg["code"])
		assert.False(t, f.hub.IsMember(domain.ConversationRoom("conv1"), c.ID))
	})

	t.Run("unknown conversation", func(t *testing.T) {
		c := f.connect(t, "u1", "Alice")
		require.NoError(t, f.svc.HandleJoinConversation(context.Background(), c, "missing"))

		errMsg := recv(t, c)
		assert.Equal(t, domain.MsgTypeError, errMsg["type"])
		assert.Equal(t, domain.ErrCodeNotFound, errMsg["code"])
	})
}

func TestHandleSendMessage(t *testing.T) {
	f := newFixture(t)
	f.addConversation("conv1", "u1", "u2")

	sender := f.connect(t, "u1", "Alice")
	recipient := f.connect(t, "u2", "Bob")
	require.NoError(t, f.svc.HandleJoinConversation(context.Background(), sender, "conv1"))
	recv(t, sender)
	require.NoError(t, f.svc.HandleJoinConversation(context.Background(), recipient, "conv1"))
	recv(t, recipient)

	require.NoError(t, f.svc.HandleSendMessage(context.Background(), sender, &domain.MessageSendMessage{
		ConversationID: "conv1",
		Content:        "hello there",
	}))

	// Sender sees the room broadcast plus its own ack.
	senderEvents := recvN(t, sender, 2)
	require.Contains(t, senderEvents, domain.MsgTypeMessageNew)
	require.Contains(t, senderEvents, domain.MsgTypeMessageSent)

	ack := senderEvents[domain.MsgTypeMessageSent]
	messageID := ack["message_id"].(string)

	// Broadcast never precedes persistence.
	stored := f.msgs.get(messageID)
	require.NotNil(t, stored)
	assert.Equal(t, "hello there", stored.Content)
	assert.Equal(t, "text", stored.ContentType)
	assert.Equal(t, []string{"u1"}, stored.ReadBy)

	// Recipient sees the broadcast and an inbox notice.
	recipientEvents := recvN(t, recipient, 2)
	require.Contains(t, recipientEvents, domain.MsgTypeMessageNew)
	require.Contains(t, recipientEvents, domain.MsgTypeNotificationMessage)

	notice := recipientEvents[domain.MsgTypeNotificationMessage]
	assert.Equal(t, "hello there", notice["preview"])
	assert.Equal(t, "u1", notice["sender_id"])

	// Conversation summary updated.
	last, ok := f.convs.lastUpdate("conv1")
	require.True(t, ok)
	assert.Equal(t, "hello there", last.Content)
	assert.Equal(t, "u1", last.SenderID)

	// Durable notification lands for the recipient only, detached from
	// the send path.
	require.Eventually(t, func() bool {
		return len(f.notifs.forUser("u2")) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Empty(t, f.notifs.forUser("u1"))

	require.Eventually(t, func() bool {
		return f.producer.count() == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHandleSendMessage_NonParticipant(t *testing.T) {
	f := newFixture(t)
	f.addConversation("conv1", "u1", "u2")

	member := f.connect(t, "u1", "Alice")
	require.NoError(t, f.svc.HandleJoinConversation(context.Background(), member, "conv1"))
	recv(t, member)

	outsider := f.connect(t, "u3", "Mallory")
	require.NoError(t, f.svc.HandleSendMessage(context.Background(), outsider, &domain.MessageSendMessage{
		ConversationID: "conv1",
		Content:        "let me in",
	}))

	errMsg := recv(t, outsider)
	assert.Equal(t, domain.MsgTypeError, errMsg["type"])
	assert.Equal(t, domain.ErrCodeForbidden, errMsg["code"])

	assert.Zero(t, f.msgs.count())
	expectNone(t, member)
}

func TestHandleSendMessage_PersistFailure(t *testing.T) {
	f := newFixture(t)
	f.addConversation("conv1", "u1", "u2")

	sender := f.connect(t, "u1", "Alice")
	recipient := f.connect(t, "u2", "Bob")
	require.NoError(t, f.svc.HandleJoinConversation(context.Background(), sender, "conv1"))
	recv(t, sender)
	require.NoError(t, f.svc.HandleJoinConversation(context.Background(), recipient, "conv1"))
	recv(t, recipient)

	f.msgs.insertErr = context.DeadlineExceeded

	require.NoError(t, f.svc.HandleSendMessage(context.Background(), sender, &domain.MessageSendMessage{
		ConversationID: "conv1",
		Content:        "doomed",
	}))

	// Sender gets a generic error; no broadcast reaches anyone.
	errMsg := recv(t, sender)
	assert.Equal(t, domain.MsgTypeError, errMsg["type"])
	assert.Equal(t, domain.ErrCodeInternalError, errMsg["code"])

	expectNone(t, recipient)
	assert.Empty(t, f.notifs.forUser("u2"))
	_, ok := f.convs.lastUpdate("conv1")
	assert.False(t, ok)
}

func TestHandleMarkRead(t *testing.T) {
	f := newFixture(t)
	f.addConversation("conv1", "u1", "u2")

	sender := f.connect(t, "u1", "Alice")
	reader := f.connect(t, "u2", "Bob")
	require.NoError(t, f.svc.HandleJoinConversation(context.Background(), sender, "conv1"))
	recv(t, sender)

	require.NoError(t, f.svc.HandleSendMessage(context.Background(), sender, &domain.MessageSendMessage{
		ConversationID: "conv1",
		Content:        "read me",
	}))
	senderEvents := recvN(t, sender, 2)
	messageID := senderEvents[domain.MsgTypeMessageSent]["message_id"].(string)
	recv(t, reader) // inbox notice

	// First receipt notifies the sender.
	require.NoError(t, f.svc.HandleMarkRead(context.Background(), reader, messageID))
	notice := recv(t, sender)
	assert.Equal(t, domain.MsgTypeMessageReadNotice, notice["type"])
	assert.Equal(t, messageID, notice["message_id"])
	assert.Equal(t, "u2", notice["reader_id"])

	// A repeat receipt does not grow the read-by set.
	require.NoError(t, f.svc.HandleMarkRead(context.Background(), reader, messageID))
	recv(t, sender)
	assert.ElementsMatch(t, []string{"u1", "u2"}, f.msgs.get(messageID).ReadBy)
}

func TestHandleMarkRead_UnknownMessage(t *testing.T) {
	f := newFixture(t)
	reader := f.connect(t, "u2", "Bob")

	// Silent no-op; no error event, no failure.
	require.NoError(t, f.svc.HandleMarkRead(context.Background(), reader, "no-such-message"))
	expectNone(t, reader)
}

func TestHandleReaction(t *testing.T) {
	f := newFixture(t)
	f.addConversation("conv1", "u1", "u2")

	sender := f.connect(t, "u1", "Alice")
	reactor := f.connect(t, "u2", "Bob")
	require.NoError(t, f.svc.HandleJoinConversation(context.Background(), sender, "conv1"))
	recv(t, sender)
	require.NoError(t, f.svc.HandleJoinConversation(context.Background(), reactor, "conv1"))
	recv(t, reactor)

	require.NoError(t, f.svc.HandleSendMessage(context.Background(), sender, &domain.MessageSendMessage{
		ConversationID: "conv1",
		Content:        "react to me",
	}))
	senderEvents := recvN(t, sender, 2)
	messageID := senderEvents[domain.MsgTypeMessageSent]["message_id"].(string)
	recvN(t, reactor, 2)

	require.NoError(t, f.svc.HandleReaction(context.Background(), reactor, messageID, "👍"))

	// The whole room sees the reaction, reactor included.
	for _, c := range []*hub.Client{sender, reactor} {
		ev := recv(t, c)
		assert.Equal(t, domain.MsgTypeMessageReaction, ev["type"])
		assert.Equal(t, "👍", ev["emoji"])
		assert.Equal(t, "u2", ev["user_id"])
	}

	require.Len(t, f.msgs.get(messageID).Reactions, 1)
}

func TestHandleReaction_UnknownMessage(t *testing.T) {
	f := newFixture(t)
	reactor := f.connect(t, "u2", "Bob")

	require.NoError(t, f.svc.HandleReaction(context.Background(), reactor, "no-such-message", "👍"))
	errMsg := recv(t, reactor)
	assert.Equal(t, domain.MsgTypeError, errMsg["type"])
	assert.Equal(t, domain.ErrCodeNotFound, errMsg["code"])
}

func TestHandleTyping(t *testing.T) {
	f := newFixture(t)
	f.addConversation("conv1", "u1", "u2")

	typist := f.connect(t, "u1", "Alice")
	watcher := f.connect(t, "u2", "Bob")
	require.NoError(t, f.svc.HandleJoinConversation(context.Background(), typist, "conv1"))
	recv(t, typist)
	require.NoError(t, f.svc.HandleJoinConversation(context.Background(), watcher, "conv1"))
	recv(t, watcher)

	require.NoError(t, f.svc.HandleTyping(context.Background(), typist, "conv1", true))

	ev := recv(t, watcher)
	assert.Equal(t, domain.MsgTypeTyping, ev["type"])
	assert.Equal(t, true, ev["typing"])
	assert.Equal(t, "u1", ev["user_id"])
	expectNone(t, typist)

	require.NoError(t, f.svc.HandleTyping(context.Background(), typist, "conv1", false))
	ev = recv(t, watcher)
	assert.Equal(t, false, ev["typing"])
}

func TestHandleTyping_NotJoined(t *testing.T) {
	f := newFixture(t)
	f.addConversation("conv1", "u1", "u2")

	member := f.connect(t, "u2", "Bob")
	require.NoError(t, f.svc.HandleJoinConversation(context.Background(), member, "conv1"))
	recv(t, member)

	// Never joined the room; dropped without an error event.
	stranger := f.connect(t, "u1", "Alice")
	require.NoError(t, f.svc.HandleTyping(context.Background(), stranger, "conv1", true))
	expectNone(t, member)
	expectNone(t, stranger)
}

func TestHandleCallSignal(t *testing.T) {
	f := newFixture(t)
	caller := f.connect(t, "u1", "Alice")
	callee := f.connect(t, "u2", "Bob")

	kinds := map[string]string{
		domain.MsgTypeCallInitiate: domain.MsgTypeCallIncoming,
		domain.MsgTypeCallAnswer:   domain.MsgTypeCallAnswered,
		domain.MsgTypeCallEnd:      domain.MsgTypeCallEnded,
		domain.MsgTypeCallICE:      domain.MsgTypeCallICERelay,
	}
	for kind, relayed := range kinds {
		require.NoError(t, f.svc.HandleCallSignal(context.Background(), caller, kind, &domain.CallSignalMessage{
			ToUserID: "u2",
			CallID:   "call-1",
			CallType: "video",
		}))
		ev := recv(t, callee)
		assert.Equal(t, relayed, ev["type"])
		assert.Equal(t, "u1", ev["from_user_id"])
		assert.Equal(t, "Alice", ev["from_name"])
		assert.Equal(t, "call-1", ev["call_id"])
	}

	require.NoError(t, f.svc.HandleCallSignal(context.Background(), caller, "call:bogus", &domain.CallSignalMessage{ToUserID: "u2"}))
	errMsg := recv(t, caller)
	assert.Equal(t, domain.ErrCodeBadRequest, errMsg["code"])
	expectNone(t, callee)
}

func TestHandleVideoJoin_SnapshotExcludesJoiner(t *testing.T) {
	f := newFixture(t)
	first := f.connect(t, "u1", "Alice")
	second := f.connect(t, "u2", "Bob")

	require.NoError(t, f.svc.HandleVideoJoin(context.Background(), first, "room1"))
	ev := recv(t, first)
	require.Equal(t, domain.MsgTypeVideoParticipants, ev["type"])
	assert.Empty(t, ev["participants"])

	require.NoError(t, f.svc.HandleVideoJoin(context.Background(), second, "room1"))

	// The joiner's snapshot holds only the prior occupant.
	ev = recv(t, second)
	require.Equal(t, domain.MsgTypeVideoParticipants, ev["type"])
	participants := ev["participants"].([]interface{})
	require.Len(t, participants, 1)
	assert.Equal(t, "u1", participants[0].(map[string]interface{})["user_id"])

	// Exactly one arrival notice, to the prior occupant only.
	ev = recv(t, first)
	assert.Equal(t, domain.MsgTypeVideoUserJoined, ev["type"])
	assert.Equal(t, "u2", ev["user_id"])
	expectNone(t, second)
}

func TestHandleVideoLeave(t *testing.T) {
	f := newFixture(t)
	a := f.connect(t, "u1", "Alice")
	b := f.connect(t, "u2", "Bob")

	require.NoError(t, f.svc.HandleVideoJoin(context.Background(), a, "room1"))
	recv(t, a)
	require.NoError(t, f.svc.HandleVideoJoin(context.Background(), b, "room1"))
	recv(t, b)
	recv(t, a) // user-joined

	require.NoError(t, f.svc.HandleVideoLeave(context.Background(), b, "room1"))

	ev := recv(t, a)
	assert.Equal(t, domain.MsgTypeVideoUserLeft, ev["type"])
	assert.Equal(t, "u2", ev["user_id"])
	assert.Equal(t, "room1", ev["room_id"])
	assert.False(t, f.hub.IsMember(domain.VideoRoom("room1"), b.ID))
}

func TestHandleVideoToggle(t *testing.T) {
	f := newFixture(t)
	a := f.connect(t, "u1", "Alice")
	b := f.connect(t, "u2", "Bob")

	require.NoError(t, f.svc.HandleVideoJoin(context.Background(), a, "room1"))
	recv(t, a)
	require.NoError(t, f.svc.HandleVideoJoin(context.Background(), b, "room1"))
	recv(t, b)
	recv(t, a)

	require.NoError(t, f.svc.HandleVideoToggle(context.Background(), a, "room1", "audio", false))

	ev := recv(t, b)
	assert.Equal(t, domain.MsgTypeVideoToggled, ev["type"])
	assert.Equal(t, "audio", ev["kind"])
	assert.Equal(t, false, ev["enabled"])
	expectNone(t, a)
}

func TestHandleVideoToggle_NotInRoom(t *testing.T) {
	f := newFixture(t)
	a := f.connect(t, "u1", "Alice")
	b := f.connect(t, "u2", "Bob")

	require.NoError(t, f.svc.HandleVideoJoin(context.Background(), b, "room1"))
	recv(t, b)

	require.NoError(t, f.svc.HandleVideoToggle(context.Background(), a, "room1", "video", true))
	expectNone(t, b)
}

func TestHandleRTCSignal(t *testing.T) {
	f := newFixture(t)
	a := f.connect(t, "u1", "Alice")
	b := f.connect(t, "u2", "Bob")

	payload := json.RawMessage(`{"sdp":"v=0"}`)
	require.NoError(t, f.svc.HandleRTCSignal(context.Background(), a, domain.MsgTypeRTCOffer, &domain.RTCSignalMessage{
		ToUserID: "u2",
		RoomID:   "room1",
		Payload:  payload,
	}))

	ev := recv(t, b)
	assert.Equal(t, domain.MsgTypeRTCOffer, ev["type"])
	assert.Equal(t, "u1", ev["from_user_id"])
	assert.Equal(t, "room1", ev["room_id"])

	require.NoError(t, f.svc.HandleRTCSignal(context.Background(), a, "rtc:bogus", &domain.RTCSignalMessage{ToUserID: "u2"}))
	errMsg := recv(t, a)
	assert.Equal(t, domain.ErrCodeBadRequest, errMsg["code"])
	expectNone(t, b)
}

func TestHandleDisconnect(t *testing.T) {
	f := newFixture(t)
	a := f.connect(t, "u1", "Alice")
	b := f.connect(t, "u2", "Bob")

	require.NoError(t, f.svc.HandleVideoJoin(context.Background(), a, "room1"))
	recv(t, a)
	require.NoError(t, f.svc.HandleVideoJoin(context.Background(), b, "room1"))
	recv(t, b)
	recv(t, a)

	require.NoError(t, f.svc.HandleDisconnect(context.Background(), b))

	ev := recv(t, a)
	assert.Equal(t, domain.MsgTypeVideoUserLeft, ev["type"])
	assert.Equal(t, "u2", ev["user_id"])
	assert.Equal(t, "room1", ev["room_id"])

	assert.False(t, f.presence.isOnline("u2"))
	assert.True(t, f.presence.isOnline("u1"))
}

func TestHandleDisconnect_SecondSessionKeepsPresence(t *testing.T) {
	f := newFixture(t)
	s1 := f.connect(t, "u1", "Alice")
	s2 := f.connect(t, "u1", "Alice")

	require.NoError(t, f.svc.HandleDisconnect(context.Background(), s1))
	assert.True(t, f.presence.isOnline("u1"))

	// Unregister drops s1 from its rooms before the last session closes.
	f.hub.Unregister(s1)
	require.Eventually(t, func() bool {
		return !f.hub.IsMember(domain.UserRoom("u1"), s1.ID)
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, f.svc.HandleDisconnect(context.Background(), s2))
	assert.False(t, f.presence.isOnline("u1"))
}
