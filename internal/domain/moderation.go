package domain

import "time"

// BanDuration is the wire value for a ban length.
type BanDuration string

const (
	BanHour BanDuration = "h"
	BanDay  BanDuration = "d"
	BanPerm BanDuration = "f"
)

// BanReason is the numeric reason attached to a ban request.
type BanReason int

const (
	ReasonViolatingCommunityRules BanReason = iota + 1
	ReasonVerbalAbuse
	ReasonSpamming
	ReasonOffensiveLanguage
	ReasonNegativeAttitude
)

// MuteDuration is the wire value for a mute length.
type MuteDuration string

const (
	MuteOff    MuteDuration = "o"
	MuteShort  MuteDuration = "s"
	MuteMedium MuteDuration = "m"
	MuteLong   MuteDuration = "l"
)

// Span maps a mute duration to its wall-clock length. Unknown values
// fall back to the short window.
func (d MuteDuration) Span() time.Duration {
	switch d {
	case MuteMedium:
		return 30 * time.Minute
	case MuteLong:
		return 45 * time.Minute
	default:
		return 15 * time.Minute
	}
}

// Mute is an active mute as mirrored locally. Expiry is tracked by the
// state store, which clears the record when the span elapses.
type Mute struct {
	ID        UserID       `json:"id"`
	Username  string       `json:"username"`
	Moderator string       `json:"moderator"`
	Duration  MuteDuration `json:"duration"`
	Reason    BanReason    `json:"reason"`
}
