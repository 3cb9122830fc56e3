package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/jbarney86/plugged/internal/domain"
	"github.com/jbarney86/plugged/internal/wire"
)

// The typed command facade. Every method validates locally, applies
// any optimistic local mutation, then goes through the gateway queue.

func (s *Session) requireAuth() error {
	if !s.Authenticated() {
		return ErrNotAuthenticated
	}
	return nil
}

// currentHistoryID returns the history id of the active play.
func (s *Session) currentHistoryID() (string, error) {
	hid := s.store.Playback().HistoryID
	if hid == "" {
		return "", fmt.Errorf("%w: nothing is playing", ErrInvalidArgument)
	}
	return hid, nil
}

// Woot casts a positive vote on the current play. The vote lands in the
// local mirror immediately; the echoed wire event dedups against it.
func (s *Session) Woot(ctx context.Context) error {
	return s.vote(ctx, 1)
}

// Meh casts a negative vote on the current play.
func (s *Session) Meh(ctx context.Context) error {
	return s.vote(ctx, -1)
}

func (s *Session) vote(ctx context.Context, direction int) error {
	if err := s.requireAuth(); err != nil {
		return err
	}
	hid, err := s.currentHistoryID()
	if err != nil {
		return err
	}
	s.store.SetSelfVote(direction)
	_, err = s.gw.Do(ctx, http.MethodPost, s.url("/_/votes"), map[string]any{
		"historyID": hid,
		"direction": direction,
	}, false)
	return err
}

// Grab saves the current track into the given playlist. A grab also
// counts as interest, so it replaces any pending vote.
func (s *Session) Grab(ctx context.Context, playlistID int64) error {
	if err := s.requireAuth(); err != nil {
		return err
	}
	hid, err := s.currentHistoryID()
	if err != nil {
		return err
	}
	s.store.SetSelfGrab()
	_, err = s.gw.Do(ctx, http.MethodPost, s.url("/_/grabs"), map[string]any{
		"playlistID": playlistID,
		"historyID":  hid,
	}, false)
	return err
}

// JoinWaitlist adds the local user to the waitlist.
func (s *Session) JoinWaitlist(ctx context.Context) error {
	if err := s.requireAuth(); err != nil {
		return err
	}
	_, err := s.gw.Do(ctx, http.MethodPost, s.url("/_/booth"), nil, false)
	return err
}

// LeaveWaitlist removes the local user from the waitlist.
func (s *Session) LeaveWaitlist(ctx context.Context) error {
	if err := s.requireAuth(); err != nil {
		return err
	}
	_, err := s.gw.Do(ctx, http.MethodDelete, s.url("/_/booth"), nil, false)
	return err
}

// SelfSkip skips the local user's own play.
func (s *Session) SelfSkip(ctx context.Context) error {
	if err := s.requireAuth(); err != nil {
		return err
	}
	_, err := s.gw.Do(ctx, http.MethodPost, s.url("/_/booth/skip/me"), nil, false)
	return err
}

// SkipDJ skips the given DJ's play. historyID may be empty when the DJ
// is the one on the decks right now; it is then filled from the local
// playback state.
func (s *Session) SkipDJ(ctx context.Context, id domain.UserID, historyID string) error {
	if err := s.requireAuth(); err != nil {
		return err
	}
	if historyID == "" {
		if s.store.Booth().DJ != id {
			return fmt.Errorf("%w: user %d is not the current DJ, history id required", ErrInvalidArgument, id)
		}
		var err error
		if historyID, err = s.currentHistoryID(); err != nil {
			return err
		}
	}
	_, err := s.gw.Do(ctx, http.MethodPost, s.url("/_/booth/skip"), map[string]any{
		"userID":    id,
		"historyID": historyID,
	}, false)
	return err
}

// AddToWaitlist puts another user on the waitlist (moderation).
func (s *Session) AddToWaitlist(ctx context.Context, id domain.UserID) error {
	if err := s.requireAuth(); err != nil {
		return err
	}
	_, err := s.gw.Do(ctx, http.MethodPost, s.url("/_/booth/add"), map[string]any{"id": id}, false)
	return err
}

// RemoveDJ removes a user from the waitlist or the decks (moderation).
func (s *Session) RemoveDJ(ctx context.Context, id domain.UserID) error {
	if err := s.requireAuth(); err != nil {
		return err
	}
	_, err := s.gw.Do(ctx, http.MethodDelete, s.url(fmt.Sprintf("/_/booth/remove/%d", id)), nil, false)
	return err
}

// MoveWaitlistDJ moves a user to the given waitlist position
// (moderation).
func (s *Session) MoveWaitlistDJ(ctx context.Context, id domain.UserID, position int) error {
	if err := s.requireAuth(); err != nil {
		return err
	}
	if position < 0 {
		return fmt.Errorf("%w: negative waitlist position", ErrInvalidArgument)
	}
	_, err := s.gw.Do(ctx, http.MethodPost, s.url("/_/booth/move"), map[string]any{
		"userID":   id,
		"position": position,
	}, false)
	return err
}

// SetCycle toggles automatic waitlist cycling (moderation).
func (s *Session) SetCycle(ctx context.Context, shouldCycle bool) error {
	if err := s.requireAuth(); err != nil {
		return err
	}
	_, err := s.gw.Do(ctx, http.MethodPut, s.url("/_/booth/cycle"), map[string]any{"shouldCycle": shouldCycle}, false)
	return err
}

// SetLock locks or unlocks the waitlist, optionally clearing it
// (moderation).
func (s *Session) SetLock(ctx context.Context, locked, clear bool) error {
	if err := s.requireAuth(); err != nil {
		return err
	}
	_, err := s.gw.Do(ctx, http.MethodPut, s.url("/_/booth/lock"), map[string]any{
		"isLocked":     locked,
		"removeAllDJs": clear,
	}, false)
	return err
}

// Ban removes a user from the room for the given duration (moderation).
func (s *Session) Ban(ctx context.Context, id domain.UserID, reason domain.BanReason, duration domain.BanDuration) error {
	if err := s.requireAuth(); err != nil {
		return err
	}
	_, err := s.gw.Do(ctx, http.MethodPost, s.url("/_/bans/add"), map[string]any{
		"userID":   id,
		"reason":   reason,
		"duration": duration,
	}, false)
	return err
}

// Unban lifts a ban (moderation).
func (s *Session) Unban(ctx context.Context, id domain.UserID) error {
	if err := s.requireAuth(); err != nil {
		return err
	}
	_, err := s.gw.Do(ctx, http.MethodDelete, s.url(fmt.Sprintf("/_/bans/%d", id)), nil, false)
	return err
}

// Mute silences a user for the duration (moderation). MuteOff lifts an
// active mute instead.
func (s *Session) Mute(ctx context.Context, id domain.UserID, reason domain.BanReason, duration domain.MuteDuration) error {
	if err := s.requireAuth(); err != nil {
		return err
	}
	if duration == domain.MuteOff {
		return s.Unmute(ctx, id)
	}
	_, err := s.gw.Do(ctx, http.MethodPost, s.url("/_/mutes"), map[string]any{
		"userID":   id,
		"reason":   reason,
		"duration": duration,
	}, false)
	return err
}

// Unmute lifts an active mute (moderation).
func (s *Session) Unmute(ctx context.Context, id domain.UserID) error {
	if err := s.requireAuth(); err != nil {
		return err
	}
	_, err := s.gw.Do(ctx, http.MethodDelete, s.url(fmt.Sprintf("/_/mutes/%d", id)), nil, false)
	return err
}

// SetStaffRole grants a user the given in-room role (moderation).
func (s *Session) SetStaffRole(ctx context.Context, id domain.UserID, role domain.Role) error {
	if err := s.requireAuth(); err != nil {
		return err
	}
	_, err := s.gw.Do(ctx, http.MethodPost, s.url("/_/staff/update"), map[string]any{
		"userID": id,
		"roleID": role,
	}, false)
	return err
}

// RemoveStaff revokes a user's in-room role (moderation).
func (s *Session) RemoveStaff(ctx context.Context, id domain.UserID) error {
	return s.SetStaffRole(ctx, id, domain.RoleNone)
}

// Staff lists the room's staff members.
func (s *Session) Staff(ctx context.Context) ([]domain.User, error) {
	if err := s.requireAuth(); err != nil {
		return nil, err
	}
	data, err := s.gw.Do(ctx, http.MethodGet, s.url("/_/staff"), nil, false)
	if err != nil {
		return nil, err
	}
	var staff []domain.User
	if err := json.Unmarshal(data, &staff); err != nil {
		return nil, fmt.Errorf("%w: staff listing: %v", ErrProtocol, err)
	}
	return staff, nil
}

// StaffByRole lists the room's staff holding exactly the given role.
func (s *Session) StaffByRole(ctx context.Context, role domain.Role) ([]domain.User, error) {
	staff, err := s.Staff(ctx)
	if err != nil {
		return nil, err
	}
	filtered := staff[:0]
	for _, u := range staff {
		if u.Role == role {
			filtered = append(filtered, u)
		}
	}
	return filtered, nil
}

// DeleteChat removes a chat message (moderation, or one's own).
func (s *Session) DeleteChat(ctx context.Context, cid domain.ChatID) error {
	if err := s.requireAuth(); err != nil {
		return err
	}
	_, err := s.gw.Do(ctx, http.MethodDelete, s.url("/_/chat/"+url.PathEscape(string(cid))), nil, false)
	if err == nil {
		s.store.RemoveChatMessage(cid)
	}
	return err
}

// CreateRoom creates a room and returns its metadata.
func (s *Session) CreateRoom(ctx context.Context, name string, private bool) (domain.RoomMeta, error) {
	var meta domain.RoomMeta
	if err := s.requireAuth(); err != nil {
		return meta, err
	}
	if name == "" {
		return meta, fmt.Errorf("%w: room name is empty", ErrInvalidArgument)
	}
	data, err := s.gw.Do(ctx, http.MethodPost, s.url("/_/rooms"), map[string]any{
		"name":    name,
		"private": private,
	}, true)
	if err != nil {
		return meta, err
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return meta, fmt.Errorf("%w: room metadata: %v", ErrProtocol, err)
	}
	return meta, nil
}

// UpdateRoom changes the current room's descriptive fields (host only).
func (s *Session) UpdateRoom(ctx context.Context, name, description, welcome string) error {
	if err := s.requireAuth(); err != nil {
		return err
	}
	_, err := s.gw.Do(ctx, http.MethodPost, s.url("/_/rooms/update"), map[string]any{
		"name":        name,
		"description": description,
		"welcome":     welcome,
	}, false)
	return err
}

// ValidateRoomName checks whether a room name is available.
func (s *Session) ValidateRoomName(ctx context.Context, name string) error {
	if err := s.requireAuth(); err != nil {
		return err
	}
	_, err := s.gw.Do(ctx, http.MethodGet, s.url("/_/rooms/validate/"+url.PathEscape(name)), nil, false)
	return err
}

// SearchRooms lists rooms matching the query, paged.
func (s *Session) SearchRooms(ctx context.Context, query string, page, limit int) ([]domain.RoomMeta, error) {
	if err := s.requireAuth(); err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("q", query)
	q.Set("page", fmt.Sprint(page))
	q.Set("limit", fmt.Sprint(limit))
	data, err := s.gw.Do(ctx, http.MethodGet, s.url("/_/rooms?"+q.Encode()), nil, false)
	if err != nil {
		return nil, err
	}
	var rooms []domain.RoomMeta
	if err := json.Unmarshal(data, &rooms); err != nil {
		return nil, fmt.Errorf("%w: room listing: %v", ErrProtocol, err)
	}
	return rooms, nil
}

// FavoriteRoom adds a room to the local user's favorites.
func (s *Session) FavoriteRoom(ctx context.Context, id int64) error {
	if err := s.requireAuth(); err != nil {
		return err
	}
	_, err := s.gw.Do(ctx, http.MethodPost, s.url("/_/rooms/favorites"), map[string]any{"id": id}, false)
	return err
}

// UnfavoriteRoom removes a room from the local user's favorites.
func (s *Session) UnfavoriteRoom(ctx context.Context, id int64) error {
	if err := s.requireAuth(); err != nil {
		return err
	}
	_, err := s.gw.Do(ctx, http.MethodDelete, s.url(fmt.Sprintf("/_/rooms/favorites/%d", id)), nil, false)
	return err
}

// RoomHistory returns the current room's recent plays, raw. The shape
// of a history entry has drifted across revisions, so callers decode
// what they need.
func (s *Session) RoomHistory(ctx context.Context) (json.RawMessage, error) {
	if err := s.requireAuth(); err != nil {
		return nil, err
	}
	return s.gw.Do(ctx, http.MethodGet, s.url("/_/rooms/history"), nil, false)
}

// Playlists lists the local user's playlists.
func (s *Session) Playlists(ctx context.Context) ([]domain.Playlist, error) {
	if err := s.requireAuth(); err != nil {
		return nil, err
	}
	data, err := s.gw.Do(ctx, http.MethodGet, s.url("/_/playlists"), nil, false)
	if err != nil {
		return nil, err
	}
	var lists []domain.Playlist
	if err := json.Unmarshal(data, &lists); err != nil {
		return nil, fmt.Errorf("%w: playlist listing: %v", ErrProtocol, err)
	}
	return lists, nil
}

// CreatePlaylist creates an empty playlist.
func (s *Session) CreatePlaylist(ctx context.Context, name string) (domain.Playlist, error) {
	var list domain.Playlist
	if err := s.requireAuth(); err != nil {
		return list, err
	}
	if name == "" {
		return list, fmt.Errorf("%w: playlist name is empty", ErrInvalidArgument)
	}
	data, err := s.gw.Do(ctx, http.MethodPost, s.url("/_/playlists"), map[string]any{"name": name}, true)
	if err != nil {
		return list, err
	}
	if err := json.Unmarshal(data, &list); err != nil {
		return list, fmt.Errorf("%w: playlist: %v", ErrProtocol, err)
	}
	return list, nil
}

// DeletePlaylist removes a playlist and everything in it.
func (s *Session) DeletePlaylist(ctx context.Context, id int64) error {
	if err := s.requireAuth(); err != nil {
		return err
	}
	_, err := s.gw.Do(ctx, http.MethodDelete, s.url(fmt.Sprintf("/_/playlists/%d", id)), nil, false)
	return err
}

// RenamePlaylist changes a playlist's name.
func (s *Session) RenamePlaylist(ctx context.Context, id int64, name string) error {
	if err := s.requireAuth(); err != nil {
		return err
	}
	if name == "" {
		return fmt.Errorf("%w: playlist name is empty", ErrInvalidArgument)
	}
	_, err := s.gw.Do(ctx, http.MethodPut, s.url(fmt.Sprintf("/_/playlists/%d/rename", id)), map[string]any{"name": name}, false)
	return err
}

// ActivatePlaylist makes a playlist the active one feeding the booth.
func (s *Session) ActivatePlaylist(ctx context.Context, id int64) error {
	if err := s.requireAuth(); err != nil {
		return err
	}
	_, err := s.gw.Do(ctx, http.MethodPut, s.url(fmt.Sprintf("/_/playlists/%d/activate", id)), nil, false)
	return err
}

// ShufflePlaylist randomizes a playlist's order server-side.
func (s *Session) ShufflePlaylist(ctx context.Context, id int64) error {
	if err := s.requireAuth(); err != nil {
		return err
	}
	_, err := s.gw.Do(ctx, http.MethodPut, s.url(fmt.Sprintf("/_/playlists/%d/shuffle", id)), nil, false)
	return err
}

// PlaylistMedia lists a playlist's tracks in order.
func (s *Session) PlaylistMedia(ctx context.Context, id int64) ([]domain.Media, error) {
	if err := s.requireAuth(); err != nil {
		return nil, err
	}
	data, err := s.gw.Do(ctx, http.MethodGet, s.url(fmt.Sprintf("/_/playlists/%d/media", id)), nil, false)
	if err != nil {
		return nil, err
	}
	var media []domain.Media
	if err := json.Unmarshal(data, &media); err != nil {
		return nil, fmt.Errorf("%w: playlist media: %v", ErrProtocol, err)
	}
	return media, nil
}

// InsertMedia appends or prepends tracks to a playlist.
func (s *Session) InsertMedia(ctx context.Context, id int64, media []domain.Media, appendToEnd bool) error {
	if err := s.requireAuth(); err != nil {
		return err
	}
	if len(media) == 0 {
		return fmt.Errorf("%w: no media given", ErrInvalidArgument)
	}
	_, err := s.gw.Do(ctx, http.MethodPost, s.url(fmt.Sprintf("/_/playlists/%d/media/insert", id)), map[string]any{
		"media":  media,
		"append": appendToEnd,
	}, false)
	return err
}

// MoveMedia reorders tracks within a playlist, placing ids before
// beforeID (or at the end when beforeID is -1).
func (s *Session) MoveMedia(ctx context.Context, id int64, ids []int64, beforeID int64) error {
	if err := s.requireAuth(); err != nil {
		return err
	}
	if len(ids) == 0 {
		return fmt.Errorf("%w: no media given", ErrInvalidArgument)
	}
	_, err := s.gw.Do(ctx, http.MethodPut, s.url(fmt.Sprintf("/_/playlists/%d/media/move", id)), map[string]any{
		"ids":      ids,
		"beforeID": beforeID,
	}, false)
	return err
}

// UpdateMedia overrides a track's author and title within a playlist.
func (s *Session) UpdateMedia(ctx context.Context, id, mediaID int64, author, title string) error {
	if err := s.requireAuth(); err != nil {
		return err
	}
	_, err := s.gw.Do(ctx, http.MethodPut, s.url(fmt.Sprintf("/_/playlists/%d/media/update", id)), map[string]any{
		"id":     mediaID,
		"author": author,
		"title":  title,
	}, false)
	return err
}

// DeleteMedia removes tracks from a playlist.
func (s *Session) DeleteMedia(ctx context.Context, id int64, ids []int64) error {
	if err := s.requireAuth(); err != nil {
		return err
	}
	if len(ids) == 0 {
		return fmt.Errorf("%w: no media given", ErrInvalidArgument)
	}
	_, err := s.gw.Do(ctx, http.MethodPost, s.url(fmt.Sprintf("/_/playlists/%d/media/delete", id)), map[string]any{
		"ids": ids,
	}, false)
	return err
}

// SearchMedia searches the media catalog for tracks to add.
func (s *Session) SearchMedia(ctx context.Context, query string) ([]domain.Media, error) {
	if err := s.requireAuth(); err != nil {
		return nil, err
	}
	if query == "" {
		return nil, fmt.Errorf("%w: search query is empty", ErrInvalidArgument)
	}
	q := url.Values{}
	q.Set("q", query)
	data, err := s.gw.Do(ctx, http.MethodGet, s.url("/_/playlists/media/search?"+q.Encode()), nil, false)
	if err != nil {
		return nil, err
	}
	var media []domain.Media
	if err := json.Unmarshal(data, &media); err != nil {
		return nil, fmt.Errorf("%w: media search: %v", ErrProtocol, err)
	}
	return media, nil
}

// AddFriend sends or confirms a friend request. The friendship is
// recorded locally right away so friendJoin classification works
// without a profile refetch.
func (s *Session) AddFriend(ctx context.Context, id domain.UserID) error {
	if err := s.requireAuth(); err != nil {
		return err
	}
	_, err := s.gw.Do(ctx, http.MethodPost, s.url("/_/friends"), map[string]any{"id": id}, false)
	if err == nil {
		s.store.AddFriend(id)
	}
	return err
}

// RemoveFriend ends a friendship.
func (s *Session) RemoveFriend(ctx context.Context, id domain.UserID) error {
	if err := s.requireAuth(); err != nil {
		return err
	}
	_, err := s.gw.Do(ctx, http.MethodDelete, s.url(fmt.Sprintf("/_/friends/%d", id)), nil, false)
	if err == nil {
		s.store.RemoveFriend(id)
	}
	return err
}

// FriendInvites lists pending incoming friend requests.
func (s *Session) FriendInvites(ctx context.Context) ([]domain.User, error) {
	if err := s.requireAuth(); err != nil {
		return nil, err
	}
	data, err := s.gw.Do(ctx, http.MethodGet, s.url("/_/friends/invites"), nil, false)
	if err != nil {
		return nil, err
	}
	var invites []domain.User
	if err := json.Unmarshal(data, &invites); err != nil {
		return nil, fmt.Errorf("%w: invite listing: %v", ErrProtocol, err)
	}
	return invites, nil
}

// RejectFriendRequest declines a pending incoming request.
func (s *Session) RejectFriendRequest(ctx context.Context, id domain.UserID) error {
	if err := s.requireAuth(); err != nil {
		return err
	}
	_, err := s.gw.Do(ctx, http.MethodDelete, s.url(fmt.Sprintf("/_/friends/invites/%d", id)), nil, false)
	return err
}

// Ignore hides a user's chat locally and server-side.
func (s *Session) Ignore(ctx context.Context, id domain.UserID) error {
	if err := s.requireAuth(); err != nil {
		return err
	}
	_, err := s.gw.Do(ctx, http.MethodPost, s.url("/_/ignores"), map[string]any{"id": id}, false)
	if err == nil {
		ig := domain.Ignore{ID: id}
		if u, ok := s.store.UserByID(id, true); ok {
			ig.Username = u.Username
		}
		s.store.AddIgnore(ig)
	}
	return err
}

// Unignore lifts an ignore.
func (s *Session) Unignore(ctx context.Context, id domain.UserID) error {
	if err := s.requireAuth(); err != nil {
		return err
	}
	_, err := s.gw.Do(ctx, http.MethodDelete, s.url(fmt.Sprintf("/_/ignores/%d", id)), nil, false)
	if err == nil {
		s.store.RemoveIgnore(id)
	}
	return err
}

// Ignores lists the local user's ignores from the server.
func (s *Session) Ignores(ctx context.Context) ([]domain.Ignore, error) {
	if err := s.requireAuth(); err != nil {
		return nil, err
	}
	data, err := s.gw.Do(ctx, http.MethodGet, s.url("/_/ignores"), nil, false)
	if err != nil {
		return nil, err
	}
	var ignores []domain.Ignore
	if err := json.Unmarshal(data, &ignores); err != nil {
		return nil, fmt.Errorf("%w: ignore listing: %v", ErrProtocol, err)
	}
	return ignores, nil
}

// SetBlurb updates the local user's profile message.
func (s *Session) SetBlurb(ctx context.Context, blurb string) error {
	if err := s.requireAuth(); err != nil {
		return err
	}
	_, err := s.gw.Do(ctx, http.MethodPut, s.url("/_/profile/blurb"), map[string]any{"blurb": blurb}, false)
	if err == nil {
		s.store.SetBlurb(blurb)
	}
	return err
}

// SetAvatar switches the local user's avatar.
func (s *Session) SetAvatar(ctx context.Context, avatarID string) error {
	if err := s.requireAuth(); err != nil {
		return err
	}
	if avatarID == "" {
		return fmt.Errorf("%w: avatar id is empty", ErrInvalidArgument)
	}
	_, err := s.gw.Do(ctx, http.MethodPut, s.url("/_/users/avatar"), map[string]any{"id": avatarID}, false)
	if err == nil {
		s.store.SetAvatar(avatarID)
	}
	return err
}

// SetStatus updates the local user's presence status.
func (s *Session) SetStatus(ctx context.Context, status int) error {
	if err := s.requireAuth(); err != nil {
		return err
	}
	_, err := s.gw.Do(ctx, http.MethodPut, s.url("/_/users/status"), map[string]any{"status": status}, false)
	return err
}

// SetLanguage updates the local user's language preference.
func (s *Session) SetLanguage(ctx context.Context, language string) error {
	if err := s.requireAuth(); err != nil {
		return err
	}
	if language == "" {
		return fmt.Errorf("%w: language is empty", ErrInvalidArgument)
	}
	_, err := s.gw.Do(ctx, http.MethodPut, s.url("/_/users/language"), map[string]any{"language": language}, false)
	return err
}

// UserProfile fetches a user's profile from the server and caches it
// for later lookups.
func (s *Session) UserProfile(ctx context.Context, id domain.UserID) (domain.User, error) {
	if err := s.requireAuth(); err != nil {
		return domain.User{}, err
	}
	data, err := s.gw.Do(ctx, http.MethodGet, s.url(fmt.Sprintf("/_/users/%d", id)), nil, true)
	if err != nil {
		return domain.User{}, err
	}
	u := wire.DecodeUser(data)
	if u.ID != domain.NoUser {
		s.store.CacheUser(u)
	}
	return u, nil
}

// StoreProducts lists purchasable items in a category.
func (s *Session) StoreProducts(ctx context.Context, category string) ([]domain.Product, error) {
	if err := s.requireAuth(); err != nil {
		return nil, err
	}
	data, err := s.gw.Do(ctx, http.MethodGet, s.url("/_/store/products/"+url.PathEscape(category)), nil, false)
	if err != nil {
		return nil, err
	}
	var products []domain.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("%w: product listing: %v", ErrProtocol, err)
	}
	return products, nil
}

// StoreInventory lists the local user's owned items in a category.
func (s *Session) StoreInventory(ctx context.Context, category string) ([]domain.Product, error) {
	if err := s.requireAuth(); err != nil {
		return nil, err
	}
	data, err := s.gw.Do(ctx, http.MethodGet, s.url("/_/store/inventory/"+url.PathEscape(category)), nil, false)
	if err != nil {
		return nil, err
	}
	var items []domain.Product
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("%w: inventory listing: %v", ErrProtocol, err)
	}
	return items, nil
}

// Purchase buys a store item.
func (s *Session) Purchase(ctx context.Context, productID int64) error {
	if err := s.requireAuth(); err != nil {
		return err
	}
	_, err := s.gw.Do(ctx, http.MethodPost, s.url("/_/store/purchase"), map[string]any{"id": productID}, false)
	return err
}

// Transactions lists past purchases.
func (s *Session) Transactions(ctx context.Context) ([]domain.Transaction, error) {
	if err := s.requireAuth(); err != nil {
		return nil, err
	}
	data, err := s.gw.Do(ctx, http.MethodGet, s.url("/_/users/me/transactions"), nil, false)
	if err != nil {
		return nil, err
	}
	var txs []domain.Transaction
	if err := json.Unmarshal(data, &txs); err != nil {
		return nil, fmt.Errorf("%w: transaction listing: %v", ErrProtocol, err)
	}
	return txs, nil
}

// Notifications lists pending account notices.
func (s *Session) Notifications(ctx context.Context) ([]domain.Notification, error) {
	if err := s.requireAuth(); err != nil {
		return nil, err
	}
	data, err := s.gw.Do(ctx, http.MethodGet, s.url("/_/notifications"), nil, false)
	if err != nil {
		return nil, err
	}
	var notes []domain.Notification
	if err := json.Unmarshal(data, &notes); err != nil {
		return nil, fmt.Errorf("%w: notification listing: %v", ErrProtocol, err)
	}
	return notes, nil
}

// AcknowledgeNotification dismisses one notice.
func (s *Session) AcknowledgeNotification(ctx context.Context, id int64) error {
	if err := s.requireAuth(); err != nil {
		return err
	}
	_, err := s.gw.Do(ctx, http.MethodDelete, s.url(fmt.Sprintf("/_/notifications/%d", id)), nil, false)
	return err
}

// News lists service announcements.
func (s *Session) News(ctx context.Context) ([]domain.NewsItem, error) {
	if err := s.requireAuth(); err != nil {
		return nil, err
	}
	data, err := s.gw.Do(ctx, http.MethodGet, s.url("/_/news"), nil, false)
	if err != nil {
		return nil, err
	}
	var items []domain.NewsItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("%w: news listing: %v", ErrProtocol, err)
	}
	return items, nil
}
