package domain

// Playlist is one of the local user's media lists. Exactly one playlist
// is active at a time; the active one feeds the booth.
type Playlist struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
	Count  int    `json:"count"`
}

// Product is a purchasable store item.
type Product struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Level    int    `json:"level"`
	Price    int    `json:"pp"`
}

// Transaction is one past store purchase.
type Transaction struct {
	ID        string `json:"id"`
	Item      string `json:"item"`
	Price     int    `json:"pp"`
	Timestamp string `json:"timestamp"`
}

// Notification is a pending account notice.
type Notification struct {
	ID        int64  `json:"id"`
	Action    string `json:"action"`
	Value     string `json:"value"`
	Timestamp string `json:"timestamp"`
}

// NewsItem is one service announcement.
type NewsItem struct {
	Title       string `json:"title"`
	Description string `json:"desc"`
	Link        string `json:"link"`
}
