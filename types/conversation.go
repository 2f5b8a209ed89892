package types

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ConversationEntry is a single message in a user's conversation history.
// Entries are append-only; Timestamp is strictly monotonic per user.
type ConversationEntry struct {
	ID        string `bson:"_id" json:"id"`
	UserID    string `bson:"user_id" json:"user_id"`
	Role      string `bson:"role" json:"role"`
	Text      string `bson:"text" json:"text"`
	Timestamp int64  `bson:"timestamp" json:"timestamp"`
}

// ConversationStats summarizes one user's stored history.
type ConversationStats struct {
	UserID         string `json:"user_id"`
	TotalEntries   int64  `json:"total_entries"`
	UserEntries    int64  `json:"user_entries"`
	AssistantCount int64  `json:"assistant_entries"`
	FirstTimestamp int64  `json:"first_timestamp"`
	LastTimestamp  int64  `json:"last_timestamp"`
}

// Message is the wire shape used when talking to completion providers.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
