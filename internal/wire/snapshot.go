package wire

import (
	"encoding/json"
	"sort"
	"strconv"

	"github.com/jbarney86/plugged/internal/domain"
)

// RoomSnapshot is the normalized form of the room-state REST payload,
// applied atomically by the state store on connect.
type RoomSnapshot struct {
	Meta     domain.RoomMeta
	Booth    domain.Booth
	Playback domain.Playback
	Users    []domain.User
	Votes    []domain.Vote
	Grabs    []domain.UserID
	Mutes    []domain.Mute
	Role     domain.Role
}

// DecodeRoom normalizes the room-state payload. Votes, grabs and mutes
// arrive as objects keyed by stringified user id; entries with
// unparseable keys are dropped. Key order of JSON objects is not
// meaningful, so the derived slices are sorted by id for determinism.
func DecodeRoom(data []byte) RoomSnapshot {
	var aux struct {
		Booth struct {
			CurrentDJ   json.RawMessage `json:"currentDJ"`
			IsLocked    bool            `json:"isLocked"`
			ShouldCycle *bool           `json:"shouldCycle"`
			WaitingDJs  []int64         `json:"waitingDJs"`
		} `json:"booth"`
		Grabs map[string]int `json:"grabs"`
		Meta  struct {
			Description string          `json:"description"`
			Favorite    bool            `json:"favorite"`
			HostID      json.RawMessage `json:"hostID"`
			HostName    string          `json:"hostName"`
			ID          int64           `json:"id"`
			Name        string          `json:"name"`
			Population  int             `json:"population"`
			Slug        string          `json:"slug"`
			Welcome     string          `json:"welcome"`
		} `json:"meta"`
		Mutes    map[string]string `json:"mutes"`
		Playback struct {
			Media      json.RawMessage `json:"media"`
			HistoryID  json.RawMessage `json:"historyID"`
			PlaylistID int64           `json:"playlistID"`
			StartTime  json.RawMessage `json:"startTime"`
		} `json:"playback"`
		MinChatLevel int               `json:"minChatLevel"`
		Role         int               `json:"role"`
		Users        []json.RawMessage `json:"users"`
		Votes        map[string]int    `json:"votes"`
	}
	aux.Meta.ID = -1
	aux.Playback.PlaylistID = -1
	_ = json.Unmarshal(data, &aux)

	snap := RoomSnapshot{
		Meta: domain.RoomMeta{
			ID:          aux.Meta.ID,
			Name:        aux.Meta.Name,
			Slug:        aux.Meta.Slug,
			Description: aux.Meta.Description,
			Welcome:     aux.Meta.Welcome,
			HostID:      flexID(aux.Meta.HostID),
			HostName:    aux.Meta.HostName,
			Population:  aux.Meta.Population,
			Favorite:    aux.Meta.Favorite,
			MinChatLvl:  aux.MinChatLevel,
		},
		Booth: domain.Booth{
			DJ:          flexID(aux.Booth.CurrentDJ),
			IsLocked:    aux.Booth.IsLocked,
			ShouldCycle: aux.Booth.ShouldCycle == nil || *aux.Booth.ShouldCycle,
			Waitlist:    make([]domain.UserID, 0, len(aux.Booth.WaitingDJs)),
		},
		Playback: domain.Playback{
			Media:      DecodeMedia(aux.Playback.Media),
			HistoryID:  flexString(aux.Playback.HistoryID),
			PlaylistID: aux.Playback.PlaylistID,
			StartTime:  flexString(aux.Playback.StartTime),
		},
		Role: domain.Role(aux.Role),
	}
	for _, id := range aux.Booth.WaitingDJs {
		snap.Booth.Waitlist = append(snap.Booth.Waitlist, domain.UserID(id))
	}
	for _, raw := range aux.Users {
		snap.Users = append(snap.Users, DecodeUser(raw))
	}
	for key, direction := range aux.Votes {
		if id, err := strconv.ParseInt(key, 10, 64); err == nil {
			snap.Votes = append(snap.Votes, domain.Vote{ID: domain.UserID(id), Direction: direction})
		}
	}
	sort.Slice(snap.Votes, func(i, j int) bool { return snap.Votes[i].ID < snap.Votes[j].ID })
	for key := range aux.Grabs {
		if id, err := strconv.ParseInt(key, 10, 64); err == nil {
			snap.Grabs = append(snap.Grabs, domain.UserID(id))
		}
	}
	sort.Slice(snap.Grabs, func(i, j int) bool { return snap.Grabs[i] < snap.Grabs[j] })
	for key, duration := range aux.Mutes {
		if id, err := strconv.ParseInt(key, 10, 64); err == nil {
			snap.Mutes = append(snap.Mutes, domain.Mute{
				ID:       domain.UserID(id),
				Duration: domain.MuteDuration(duration),
			})
		}
	}
	sort.Slice(snap.Mutes, func(i, j int) bool { return snap.Mutes[i].ID < snap.Mutes[j].ID })
	return snap
}

// DecodeSelf normalizes the authenticated profile payload.
func DecodeSelf(data []byte) domain.Self {
	user := DecodeUser(data)
	var aux struct {
		Friends []int64         `json:"friends"`
		Ignores []domain.Ignore `json:"ignores"`
		XP      int             `json:"xp"`
		EP      int             `json:"ep"`
		Vote    int             `json:"vote"`
	}
	_ = json.Unmarshal(data, &aux)
	self := domain.Self{
		User:    user,
		Friends: make([]domain.UserID, 0, len(aux.Friends)),
		Ignores: aux.Ignores,
		XP:      aux.XP,
		EP:      aux.EP,
		Vote:    aux.Vote,
	}
	for _, id := range aux.Friends {
		self.Friends = append(self.Friends, domain.UserID(id))
	}
	return self
}
