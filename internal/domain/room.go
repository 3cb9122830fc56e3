package domain

// RoomMeta is the descriptive part of the room snapshot.
type RoomMeta struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Welcome     string `json:"welcome"`
	HostID      UserID `json:"hostID"`
	HostName    string `json:"hostName"`
	Population  int    `json:"population"`
	Favorite    bool   `json:"favorite"`
	MinChatLvl  int    `json:"minChatLevel"`
}

// Booth is the DJ rotation: the active DJ plus the ordered waitlist.
type Booth struct {
	DJ          UserID   `json:"dj"`
	Waitlist    []UserID `json:"waitlist"`
	IsLocked    bool     `json:"isLocked"`
	ShouldCycle bool     `json:"shouldCycle"`
}

// Media is the track metadata attached to a play.
type Media struct {
	ID       int64  `json:"id"`
	CID      string `json:"cid"`
	Author   string `json:"author"`
	Title    string `json:"title"`
	Image    string `json:"image"`
	Duration int    `json:"duration"`
	Format   int    `json:"format"`
}

// Playback describes the current play.
type Playback struct {
	Media      Media  `json:"media"`
	HistoryID  string `json:"historyID"`
	PlaylistID int64  `json:"playlistID"`
	StartTime  string `json:"startTime"`
}

// Vote is one user's standing on the current track.
type Vote struct {
	ID        UserID `json:"id"`
	Direction int    `json:"direction"`
}

// Score summarizes how a play ended; attached to the advance event so
// bots can report the outcome of the previous track.
type Score struct {
	Positive int `json:"positive"`
	Negative int `json:"negative"`
	Grabs    int `json:"grabs"`
}
