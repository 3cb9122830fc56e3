// Package domain contains entity without logic, just meta-data.
package domain

// UserID identifies a user across the room, caches and REST surface.
// -1 marks an absent or unparseable id.
type UserID int64

const NoUser UserID = -1

// Role is the in-room staff role of a user.
type Role int

const (
	RoleNone Role = iota
	RoleResidentDJ
	RoleBouncer
	RoleManager
	RoleCohost
	RoleHost
)

// GlobalRole is the sitewide role, independent of any room.
type GlobalRole int

const (
	GlobalRoleNone            GlobalRole = 0
	GlobalRoleBrandAmbassador GlobalRole = 3
	GlobalRoleAdmin           GlobalRole = 5
)

// NormalizeGlobalRole collapses the raw wire value into one of the three
// roles the service actually grants.
func NormalizeGlobalRole(raw int) GlobalRole {
	switch {
	case raw == 5:
		return GlobalRoleAdmin
	case raw > 0 && raw < 5:
		return GlobalRoleBrandAmbassador
	default:
		return GlobalRoleNone
	}
}

// User is a room participant as mirrored locally.
type User struct {
	ID         UserID     `json:"id"`
	Username   string     `json:"username"`
	AvatarID   string     `json:"avatarID"`
	Language   string     `json:"language"`
	Blurb      string     `json:"blurb"`
	Slug       string     `json:"slug"`
	Status     int        `json:"status"`
	Joined     string     `json:"joined"`
	Level      int        `json:"level"`
	GlobalRole GlobalRole `json:"gRole"`
	Badge      int        `json:"badge"`
	Role       Role       `json:"role"`
}

// Ignore pairs the id and name of an ignored user, as the ignore
// endpoints return both.
type Ignore struct {
	ID       UserID `json:"id"`
	Username string `json:"username"`
}

// Self is the local user's extended profile. Vote and Grab reflect the
// local user's standing on the currently playing track and are reset on
// every advance.
type Self struct {
	User
	Friends []UserID `json:"friends"`
	Ignores []Ignore `json:"ignores"`
	XP      int      `json:"xp"`
	EP      int      `json:"ep"`
	Vote    int      `json:"vote"`
	Grab    bool     `json:"grab"`
}

// IsFriend reports whether id is in the friends list.
func (s Self) IsFriend(id UserID) bool {
	for _, f := range s.Friends {
		if f == id {
			return true
		}
	}
	return false
}
