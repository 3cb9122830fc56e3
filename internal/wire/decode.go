package wire

import (
	"encoding/json"
	"errors"
	"strconv"

	"github.com/jbarney86/plugged/internal/domain"
)

// FrameType classifies the first byte of a raw socket frame.
type FrameType int

const (
	FrameUnknown FrameType = iota
	FrameOpen              // "o": transport opened, auth frame expected
	FrameHeartbeat         // "h": keep-alive from the far end
	FrameActions           // "a[...]": JSON array of tagged messages
)

// Message is one inbound {a, p, t} record. Payload stays raw until the
// action-specific normalizer runs.
type Message struct {
	Action  string          `json:"a"`
	Payload json.RawMessage `json:"p"`
	Time    int64           `json:"t"`
}

var errEmptyFrame = errors.New("wire: empty frame")

// ClassifyFrame returns the frame type and, for action frames, the
// remaining bytes holding the JSON array.
func ClassifyFrame(msg []byte) (FrameType, []byte, error) {
	if len(msg) == 0 {
		return FrameUnknown, nil, errEmptyFrame
	}
	switch msg[0] {
	case 'o':
		return FrameOpen, nil, nil
	case 'h':
		return FrameHeartbeat, nil, nil
	case 'a':
		return FrameActions, msg[1:], nil
	default:
		return FrameUnknown, nil, nil
	}
}

// ParseActions unmarshals the array portion of an action frame.
func ParseActions(data []byte) ([]Message, error) {
	var msgs []Message
	if err := json.Unmarshal(data, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// flexID reads a user id that may arrive as a number or a numeric
// string. Anything else decodes to NoUser.
func flexID(raw json.RawMessage) domain.UserID {
	if len(raw) == 0 {
		return domain.NoUser
	}
	var n int64
	if err := json.Unmarshal(raw, &n); err == nil {
		return domain.UserID(n)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, err := strconv.ParseInt(s, 10, 64); err == nil {
			return domain.UserID(v)
		}
	}
	return domain.NoUser
}

// flexString reads a value that may arrive as a string or a number.
func flexString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// DecodeAck returns the status payload of a connection ack.
func DecodeAck(p json.RawMessage) string {
	return flexString(p)
}

// AdvanceFrame is the raw content of an advance message before the
// state store attaches the previous play's score.
type AdvanceFrame struct {
	DJ         domain.UserID
	Waitlist   []domain.UserID
	Media      domain.Media
	HistoryID  string
	PlaylistID int64
	StartTime  string
}

func DecodeAdvance(p json.RawMessage) AdvanceFrame {
	var aux struct {
		DJ         json.RawMessage `json:"c"`
		Waitlist   []int64         `json:"d"`
		Media      json.RawMessage `json:"m"`
		HistoryID  json.RawMessage `json:"h"`
		PlaylistID int64           `json:"p"`
		StartTime  json.RawMessage `json:"t"`
	}
	_ = json.Unmarshal(p, &aux)

	f := AdvanceFrame{
		DJ:         flexID(aux.DJ),
		Waitlist:   make([]domain.UserID, 0, len(aux.Waitlist)),
		Media:      DecodeMedia(aux.Media),
		HistoryID:  flexString(aux.HistoryID),
		PlaylistID: aux.PlaylistID,
		StartTime:  flexString(aux.StartTime),
	}
	for _, id := range aux.Waitlist {
		f.Waitlist = append(f.Waitlist, domain.UserID(id))
	}
	return f
}

// DecodeMedia normalizes a media object. Format 1 (the dominant media
// source) is the historical default.
func DecodeMedia(p json.RawMessage) domain.Media {
	var aux struct {
		ID       int64           `json:"id"`
		CID      json.RawMessage `json:"cid"`
		Author   string          `json:"author"`
		Title    string          `json:"title"`
		Image    string          `json:"image"`
		Duration int             `json:"duration"`
		Format   int             `json:"format"`
	}
	aux.ID = -1
	aux.Format = 1
	_ = json.Unmarshal(p, &aux)
	return domain.Media{
		ID:       aux.ID,
		CID:      flexString(aux.CID),
		Author:   aux.Author,
		Title:    aux.Title,
		Image:    aux.Image,
		Duration: aux.Duration,
		Format:   aux.Format,
	}
}

func DecodeChat(p json.RawMessage) domain.ChatMessage {
	var aux struct {
		Message  string          `json:"message"`
		Username string          `json:"un"`
		UserID   json.RawMessage `json:"uid"`
		CID      json.RawMessage `json:"cid"`
	}
	_ = json.Unmarshal(p, &aux)
	return domain.ChatMessage{
		CID:      domain.ChatID(flexString(aux.CID)),
		Message:  aux.Message,
		Username: aux.Username,
		UserID:   flexID(aux.UserID),
	}
}

func DecodeChatDelete(p json.RawMessage) ChatDelete {
	var aux struct {
		ModeratorID json.RawMessage `json:"mi"`
		CID         json.RawMessage `json:"c"`
	}
	_ = json.Unmarshal(p, &aux)
	return ChatDelete{
		ModeratorID: flexID(aux.ModeratorID),
		CID:         domain.ChatID(flexString(aux.CID)),
	}
}

func DecodeVote(p json.RawMessage) domain.Vote {
	var aux struct {
		ID        json.RawMessage `json:"i"`
		Direction int             `json:"v"`
	}
	aux.Direction = 1
	_ = json.Unmarshal(p, &aux)
	return domain.Vote{ID: flexID(aux.ID), Direction: aux.Direction}
}

// DecodeUserID reads a payload that is a bare user id.
func DecodeUserID(p json.RawMessage) domain.UserID {
	return flexID(p)
}

// DecodeGrab returns the grabbing user's id; the payload is the bare id.
func DecodeGrab(p json.RawMessage) domain.UserID {
	return flexID(p)
}

func DecodeCycle(p json.RawMessage) CycleUpdate {
	var aux struct {
		ShouldCycle bool            `json:"f"`
		Moderator   string          `json:"m"`
		ModeratorID json.RawMessage `json:"mi"`
	}
	_ = json.Unmarshal(p, &aux)
	return CycleUpdate{
		ShouldCycle: aux.ShouldCycle,
		Moderator:   aux.Moderator,
		ModeratorID: flexID(aux.ModeratorID),
	}
}

func DecodeLock(p json.RawMessage) LockUpdate {
	var aux struct {
		ClearWaitlist bool            `json:"c"`
		IsLocked      bool            `json:"f"`
		Moderator     string          `json:"m"`
		ModeratorID   json.RawMessage `json:"mi"`
	}
	_ = json.Unmarshal(p, &aux)
	return LockUpdate{
		IsLocked:      aux.IsLocked,
		ClearWaitlist: aux.ClearWaitlist,
		Moderator:     aux.Moderator,
		ModeratorID:   flexID(aux.ModeratorID),
	}
}

// DecodeWaitlist normalizes a djListUpdate payload: the full ordered
// waitlist, replacing the local one verbatim.
func DecodeWaitlist(p json.RawMessage) WaitlistSync {
	var ids []int64
	_ = json.Unmarshal(p, &ids)
	s := WaitlistSync{Waitlist: make([]domain.UserID, 0, len(ids))}
	for _, id := range ids {
		s.Waitlist = append(s.Waitlist, domain.UserID(id))
	}
	return s
}

func DecodeMoveDJ(p json.RawMessage) MoveDJ {
	var aux struct {
		Moderator   string          `json:"m"`
		ModeratorID json.RawMessage `json:"mi"`
		Username    string          `json:"u"`
		OldIndex    int             `json:"o"`
		NewIndex    int             `json:"n"`
	}
	_ = json.Unmarshal(p, &aux)
	return MoveDJ{
		Moderator:   aux.Moderator,
		ModeratorID: flexID(aux.ModeratorID),
		Username:    aux.Username,
		OldIndex:    aux.OldIndex,
		NewIndex:    aux.NewIndex,
	}
}

func DecodeModBan(p json.RawMessage) ModBan {
	var aux struct {
		ID          json.RawMessage `json:"i"`
		Moderator   string          `json:"m"`
		ModeratorID json.RawMessage `json:"mi"`
		Username    string          `json:"t"`
		Duration    string          `json:"d"`
	}
	aux.Duration = string(domain.BanHour)
	_ = json.Unmarshal(p, &aux)
	return ModBan{
		ID:          flexID(aux.ID),
		Moderator:   aux.Moderator,
		ModeratorID: flexID(aux.ModeratorID),
		Username:    aux.Username,
		Duration:    domain.BanDuration(aux.Duration),
	}
}

func DecodeModSkip(p json.RawMessage) ModSkip {
	var aux struct {
		Moderator   string          `json:"m"`
		ModeratorID json.RawMessage `json:"mi"`
	}
	_ = json.Unmarshal(p, &aux)
	return ModSkip{Moderator: aux.Moderator, ModeratorID: flexID(aux.ModeratorID)}
}

func DecodeModAddDJ(p json.RawMessage) ModAddDJ {
	var aux struct {
		Moderator   string          `json:"m"`
		ModeratorID json.RawMessage `json:"mi"`
		Username    string          `json:"t"`
	}
	_ = json.Unmarshal(p, &aux)
	return ModAddDJ{
		Moderator:   aux.Moderator,
		ModeratorID: flexID(aux.ModeratorID),
		Username:    aux.Username,
	}
}

func DecodeModRemoveDJ(p json.RawMessage) ModRemoveDJ {
	var aux struct {
		Moderator   string          `json:"m"`
		ModeratorID json.RawMessage `json:"mi"`
		Username    string          `json:"t"`
		WasPlaying  bool            `json:"d"`
	}
	_ = json.Unmarshal(p, &aux)
	return ModRemoveDJ{
		Moderator:   aux.Moderator,
		ModeratorID: flexID(aux.ModeratorID),
		Username:    aux.Username,
		WasPlaying:  aux.WasPlaying,
	}
}

func DecodeMute(p json.RawMessage) domain.Mute {
	var aux struct {
		Username  string          `json:"t"`
		ID        json.RawMessage `json:"i"`
		Moderator string          `json:"m"`
		Duration  string          `json:"d"`
		Reason    int             `json:"r"`
	}
	aux.Duration = string(domain.MuteShort)
	aux.Reason = int(domain.ReasonViolatingCommunityRules)
	_ = json.Unmarshal(p, &aux)
	return domain.Mute{
		ID:        flexID(aux.ID),
		Username:  aux.Username,
		Moderator: aux.Moderator,
		Duration:  domain.MuteDuration(aux.Duration),
		Reason:    domain.BanReason(aux.Reason),
	}
}

// DecodePromotion normalizes a modStaff payload. The server wraps the
// affected user in a single-element array.
func DecodePromotion(p json.RawMessage) Promotion {
	var aux struct {
		Moderator   string          `json:"m"`
		ModeratorID json.RawMessage `json:"mi"`
		Users       []struct {
			Username string          `json:"n"`
			ID       json.RawMessage `json:"i"`
			Role     int             `json:"p"`
		} `json:"u"`
	}
	_ = json.Unmarshal(p, &aux)
	promo := Promotion{
		Moderator:   aux.Moderator,
		ModeratorID: flexID(aux.ModeratorID),
		ID:          domain.NoUser,
	}
	if len(aux.Users) == 1 {
		promo.Username = aux.Users[0].Username
		promo.ID = flexID(aux.Users[0].ID)
		promo.Role = domain.Role(aux.Users[0].Role)
	}
	return promo
}

// DecodeUser normalizes a full user snapshot (userJoin, room stats).
func DecodeUser(p json.RawMessage) domain.User {
	var aux struct {
		ID         int64  `json:"id"`
		Username   string `json:"username"`
		AvatarID   string `json:"avatarID"`
		Language   string `json:"language"`
		Blurb      string `json:"blurb"`
		Slug       string `json:"slug"`
		Status     int    `json:"status"`
		Joined     string `json:"joined"`
		Level      int    `json:"level"`
		GlobalRole int    `json:"gRole"`
		Badge      int    `json:"badge"`
		Role       int    `json:"role"`
	}
	aux.ID = -1
	aux.AvatarID = "base01"
	aux.Language = "en"
	_ = json.Unmarshal(p, &aux)
	return domain.User{
		ID:         domain.UserID(aux.ID),
		Username:   aux.Username,
		AvatarID:   aux.AvatarID,
		Language:   aux.Language,
		Blurb:      aux.Blurb,
		Slug:       aux.Slug,
		Status:     aux.Status,
		Joined:     aux.Joined,
		Level:      aux.Level,
		GlobalRole: domain.NormalizeGlobalRole(aux.GlobalRole),
		Badge:      aux.Badge,
		Role:       domain.Role(aux.Role),
	}
}

// DecodeUserLeave returns the departing user's id; the payload is the
// bare id.
func DecodeUserLeave(p json.RawMessage) domain.UserID {
	return flexID(p)
}

func DecodeUserUpdate(p json.RawMessage) UserUpdate {
	var aux struct {
		ID       json.RawMessage `json:"i"`
		Level    int             `json:"level"`
		Status   int             `json:"status"`
		AvatarID string          `json:"avatarID"`
	}
	_ = json.Unmarshal(p, &aux)
	return UserUpdate{
		ID:       flexID(aux.ID),
		Level:    aux.Level,
		Status:   aux.Status,
		AvatarID: aux.AvatarID,
	}
}

func DecodeXP(p json.RawMessage) XP {
	var aux struct {
		XP    int `json:"xp"`
		EP    int `json:"ep"`
		Level int `json:"level"`
	}
	aux.Level = -1
	_ = json.Unmarshal(p, &aux)
	return XP{XP: aux.XP, EP: aux.EP, Level: aux.Level}
}

func DecodeLevelUp(p json.RawMessage) LevelUp {
	var lvl int
	if err := json.Unmarshal(p, &lvl); err != nil {
		var aux struct {
			Level int `json:"level"`
		}
		_ = json.Unmarshal(p, &aux)
		lvl = aux.Level
	}
	return LevelUp{Level: lvl}
}

// DecodeRoomUpdate normalizes the three room-field updates; key selects
// the single-letter field carrying the new text ("n", "d" or "w").
func DecodeRoomUpdate(p json.RawMessage, key string) RoomUpdate {
	var aux map[string]json.RawMessage
	_ = json.Unmarshal(p, &aux)
	return RoomUpdate{
		Value:       flexString(aux[key]),
		ModeratorID: flexID(aux["u"]),
	}
}

func DecodeBan(p json.RawMessage) Ban {
	var aux struct {
		Reason   int    `json:"r"`
		Duration string `json:"l"`
	}
	_ = json.Unmarshal(p, &aux)
	return Ban{
		Reason:   domain.BanReason(aux.Reason),
		Duration: domain.BanDuration(aux.Duration),
	}
}

// DecodeString returns a bare string payload (friendRequest,
// nameChanged, killSession, plugMessage).
func DecodeString(p json.RawMessage) string {
	return flexString(p)
}
