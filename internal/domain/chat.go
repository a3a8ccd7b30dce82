package domain

import "time"

// ChatMessage is one entry in the conversation log. A pending message is
// the local echo created at send time with a temporary id; it is replaced
// in place once the server confirms it.
type ChatMessage struct {
	ID       string
	SenderID int64
	Text     string
	SentAt   time.Time
	State    MessageState
}
