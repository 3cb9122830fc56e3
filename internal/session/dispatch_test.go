package session

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jbarney86/plugged/internal/config"
	"github.com/jbarney86/plugged/internal/domain"
	"github.com/jbarney86/plugged/internal/wire"
)

// newDispatchSession builds a session with no live connection; dispatch
// runs synchronously, so a slice recorder sees events in order.
func newDispatchSession(t *testing.T) (*Session, *[]wire.Kind) {
	t.Helper()
	cfg := &config.Config{
		ChatLimit:          256,
		ChatThrottle:       time.Millisecond,
		ChatCacheSize:      16,
		UserCacheTTL:       time.Minute,
		GatewayConcurrency: 1,
		RetryBackoff:       time.Millisecond,
	}
	sess, err := New(cfg)
	require.NoError(t, err)

	kinds := &[]wire.Kind{}
	sess.OnAll(func(ev wire.Event) { *kinds = append(*kinds, ev.Kind) })
	return sess, kinds
}

func chatMessage(text string) wire.Message {
	payload, _ := json.Marshal(map[string]any{
		"message": text,
		"un":      "dj",
		"uid":     10,
		"cid":     "c1",
	})
	return wire.Message{Action: wire.ActionChat, Payload: payload}
}

func TestChatAlwaysEmitsBaseEvent(t *testing.T) {
	sess, kinds := newDispatchSession(t)
	sess.Store().SetSelf(domain.Self{User: domain.User{ID: 3, Username: "me"}})

	sess.dispatch(chatMessage("hello there"))
	assert.Equal(t, []wire.Kind{wire.EventChat}, *kinds)

	*kinds = nil
	sess.dispatch(chatMessage("/skip"))
	assert.Equal(t, []wire.Kind{wire.EventChatCommand, wire.EventChat}, *kinds,
		"a command still delivers the base chat event")

	*kinds = nil
	sess.dispatch(chatMessage("hey @Me look"))
	assert.Equal(t, []wire.Kind{wire.EventChatMention, wire.EventChat}, *kinds,
		"a mention still delivers the base chat event")
}

func TestChatMentionWinsOverCommand(t *testing.T) {
	sess, kinds := newDispatchSession(t)
	sess.Store().SetSelf(domain.Self{User: domain.User{ID: 3, Username: "me"}})

	sess.dispatch(chatMessage("/skip @me"))
	assert.Equal(t, []wire.Kind{wire.EventChatMention, wire.EventChat}, *kinds)
}

func TestUserJoinClassifiesFriends(t *testing.T) {
	sess, kinds := newDispatchSession(t)
	sess.Store().SetSelf(domain.Self{
		User:    domain.User{ID: 3, Username: "me"},
		Friends: []domain.UserID{20},
	})

	sess.dispatch(wire.Message{Action: wire.ActionUserJoin, Payload: json.RawMessage(`{"id":20,"username":"pal"}`)})
	sess.dispatch(wire.Message{Action: wire.ActionUserJoin, Payload: json.RawMessage(`{"id":21,"username":"stranger"}`)})

	assert.Equal(t, []wire.Kind{wire.EventFriendJoin, wire.EventUserJoin}, *kinds)
	assert.Equal(t, 2, sess.Store().Population())
}

func TestVoteAfterGrabEmitsNothing(t *testing.T) {
	sess, kinds := newDispatchSession(t)
	sess.Store().AddUser(domain.User{ID: 7, Username: "alice"})

	sess.dispatch(wire.Message{Action: wire.ActionGrab, Payload: json.RawMessage(`7`)})
	sess.dispatch(wire.Message{Action: wire.ActionVote, Payload: json.RawMessage(`{"i":7,"v":1}`)})

	assert.Equal(t, []wire.Kind{wire.EventGrab}, *kinds, "a vote frame after a grab is dropped")
	assert.Empty(t, sess.Store().Votes())
	assert.Equal(t, []domain.UserID{7}, sess.Store().Grabs())
}
