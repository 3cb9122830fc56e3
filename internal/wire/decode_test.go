package wire

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jbarney86/plugged/internal/domain"
)

func TestClassifyFrame(t *testing.T) {
	tests := []struct {
		name  string
		frame string
		want  FrameType
	}{
		{"open", "o", FrameOpen},
		{"heartbeat", "h", FrameHeartbeat},
		{"actions", `a[{"a":"chat","p":{},"t":0}]`, FrameActions},
		{"unknown", "c[3000]", FrameUnknown},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			kind, _, err := ClassifyFrame([]byte(tc.frame))
			require.NoError(t, err)
			assert.Equal(t, tc.want, kind)
		})
	}

	_, _, err := ClassifyFrame(nil)
	assert.Error(t, err)
}

func TestParseActionsBatch(t *testing.T) {
	kind, body, err := ClassifyFrame([]byte(`a[{"a":"vote","p":{"i":7,"v":1},"t":100},{"a":"grab","p":8,"t":101}]`))
	require.NoError(t, err)
	require.Equal(t, FrameActions, kind)

	msgs, err := ParseActions(body)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, ActionVote, msgs[0].Action)
	assert.Equal(t, ActionGrab, msgs[1].Action)
	assert.Equal(t, int64(100), msgs[0].Time)
}

func TestDecodeVoteDefaults(t *testing.T) {
	v := DecodeVote(json.RawMessage(`{"i":"42"}`))
	assert.Equal(t, domain.UserID(42), v.ID, "stringified ids must parse")
	assert.Equal(t, 1, v.Direction, "missing direction defaults positive")

	v = DecodeVote(json.RawMessage(`{"i":7,"v":-1}`))
	assert.Equal(t, domain.UserID(7), v.ID)
	assert.Equal(t, -1, v.Direction)

	v = DecodeVote(json.RawMessage(`{"i":true}`))
	assert.Equal(t, domain.NoUser, v.ID, "unparseable id decodes to the sentinel")
}

func TestDecodeMediaDefaults(t *testing.T) {
	m := DecodeMedia(json.RawMessage(`{"cid":"abc","title":"Song"}`))
	assert.Equal(t, int64(-1), m.ID)
	assert.Equal(t, 1, m.Format)
	assert.Equal(t, "abc", m.CID)

	m = DecodeMedia(json.RawMessage(`{"cid":123,"format":2}`))
	assert.Equal(t, "123", m.CID, "numeric cid is stringified")
	assert.Equal(t, 2, m.Format)
}

func TestDecodeUserDefaults(t *testing.T) {
	u := DecodeUser(json.RawMessage(`{"username":"alice","gRole":2}`))
	assert.Equal(t, domain.NoUser, u.ID)
	assert.Equal(t, "base01", u.AvatarID)
	assert.Equal(t, "en", u.Language)
	assert.Equal(t, domain.GlobalRoleBrandAmbassador, u.GlobalRole, "mid-range global roles collapse to ambassador")

	u = DecodeUser(json.RawMessage(`{"id":9,"gRole":5}`))
	assert.Equal(t, domain.GlobalRoleAdmin, u.GlobalRole)
}

func TestDecodeAdvance(t *testing.T) {
	f := DecodeAdvance(json.RawMessage(`{"c":12,"d":[3,4],"m":{"id":42,"title":"x"},"h":"hist1","p":77,"t":"now"}`))
	assert.Equal(t, domain.UserID(12), f.DJ)
	assert.Equal(t, []domain.UserID{3, 4}, f.Waitlist)
	assert.Equal(t, int64(42), f.Media.ID)
	assert.Equal(t, "hist1", f.HistoryID)
	assert.Equal(t, int64(77), f.PlaylistID)
	assert.Equal(t, "now", f.StartTime)
}

func TestDecodePromotionUnwrapsSingleUser(t *testing.T) {
	p := DecodePromotion(json.RawMessage(`{"m":"host","mi":1,"u":[{"n":"bob","i":5,"p":3}]}`))
	assert.Equal(t, "bob", p.Username)
	assert.Equal(t, domain.UserID(5), p.ID)
	assert.Equal(t, domain.RoleManager, p.Role)

	p = DecodePromotion(json.RawMessage(`{"m":"host","mi":1,"u":[]}`))
	assert.Equal(t, domain.NoUser, p.ID)
}

func TestDecodeRoomUpdateSelectsKey(t *testing.T) {
	upd := DecodeRoomUpdate(json.RawMessage(`{"n":"New Name","u":9}`), "n")
	assert.Equal(t, "New Name", upd.Value)
	assert.Equal(t, domain.UserID(9), upd.ModeratorID)
}

func TestEncodeEscapesPayload(t *testing.T) {
	frame, err := Encode("chat", `say "hi" <b>`, 1234)
	require.NoError(t, err)

	var decoded struct {
		Action  string `json:"a"`
		Payload string `json:"p"`
		Time    int64  `json:"t"`
	}
	require.NoError(t, json.Unmarshal(frame, &decoded))
	assert.Equal(t, "chat", decoded.Action)
	assert.Equal(t, `say "hi" <b>`, decoded.Payload)
	assert.Equal(t, int64(1234), decoded.Time)
}

func TestDecodeRoomSnapshot(t *testing.T) {
	payload := `{
		"booth": {"currentDJ": 10, "isLocked": false, "waitingDJs": [11, 12]},
		"grabs": {"12": 1},
		"meta": {"id": 5, "name": "Test Room", "slug": "test-room", "hostID": "2", "population": 3},
		"mutes": {"11": "m"},
		"playback": {"media": {"id": 42, "title": "Song"}, "historyID": "h9", "playlistID": 3},
		"role": 2,
		"users": [{"id": 10, "username": "a"}, {"id": 11, "username": "b"}, {"id": 12, "username": "c"}],
		"votes": {"10": 1, "11": -1}
	}`
	snap := DecodeRoom([]byte(payload))

	assert.Equal(t, "test-room", snap.Meta.Slug)
	assert.Equal(t, domain.UserID(2), snap.Meta.HostID)
	assert.Equal(t, domain.UserID(10), snap.Booth.DJ)
	assert.True(t, snap.Booth.ShouldCycle, "absent shouldCycle defaults true")
	assert.Equal(t, []domain.UserID{11, 12}, snap.Booth.Waitlist)
	assert.Equal(t, "h9", snap.Playback.HistoryID)
	require.Len(t, snap.Users, 3)
	assert.Equal(t, []domain.Vote{{ID: 10, Direction: 1}, {ID: 11, Direction: -1}}, snap.Votes)
	assert.Equal(t, []domain.UserID{12}, snap.Grabs)
	require.Len(t, snap.Mutes, 1)
	assert.Equal(t, domain.MuteMedium, snap.Mutes[0].Duration)
	assert.Equal(t, domain.RoleBouncer, snap.Role)
}

func TestDecodeSelf(t *testing.T) {
	self := DecodeSelf([]byte(`{"id":3,"username":"me","friends":[7,8],"xp":120,"ep":4,"vote":1}`))
	assert.Equal(t, domain.UserID(3), self.ID)
	assert.Equal(t, []domain.UserID{7, 8}, self.Friends)
	assert.Equal(t, 120, self.XP)
	assert.True(t, self.IsFriend(7))
	assert.False(t, self.IsFriend(9))
}

func TestDecodeMalformedPayloadsAreSafe(t *testing.T) {
	assert.NotPanics(t, func() {
		DecodeAdvance(json.RawMessage(`"garbage"`))
		DecodeChat(json.RawMessage(`[1,2,3]`))
		DecodeUser(nil)
		DecodeRoom([]byte(`not json`))
		DecodeMute(json.RawMessage(`{}`))
	})

	m := DecodeMute(json.RawMessage(`{}`))
	assert.Equal(t, domain.MuteShort, m.Duration, "missing duration falls back to short")
}
