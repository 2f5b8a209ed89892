package types

type AddDocumentRequest struct {
	Content  string   `json:"content"`
	Metadata Metadata `json:"metadata"`
}

type BulkAddDocumentsRequest struct {
	Documents []AddDocumentRequest `json:"documents"`
}

type SearchRequest struct {
	Query    string       `json:"query"`
	Limit    int          `json:"limit,omitempty"`
	MinScore float32      `json:"min_score,omitempty"`
	Filter   SearchFilter `json:"filter,omitempty"`
}

type PaginateRequest struct {
	Page  int64 `json:"page"`
	Limit int64 `json:"limit"`
}

// WebhookMessage is an inbound chat-platform event. Webhook validation and
// media download happen upstream; by the time this reaches the core the
// message is plain text plus optional media context.
type WebhookMessage struct {
	RequestID    string `json:"request_id"`
	ContactID    string `json:"contact_id"`
	Content      string `json:"content"`
	MediaType    string `json:"media_type,omitempty"`
	MediaContext string `json:"media_context,omitempty"`
}

type TestRespondRequest struct {
	UserID    string `json:"user_id"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}
