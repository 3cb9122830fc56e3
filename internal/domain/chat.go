package domain

// ChatID identifies a single chat message server-side; deletion is
// addressed by this id.
type ChatID string

// ChatMessage is one received chat line.
type ChatMessage struct {
	CID      ChatID `json:"cid"`
	Message  string `json:"message"`
	Username string `json:"username"`
	UserID   UserID `json:"id"`
}
