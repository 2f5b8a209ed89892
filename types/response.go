package types

type DataResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type PaginateResponse struct {
	Total    int64       `json:"total"`
	Page     int64       `json:"page"`
	Limit    int64       `json:"limit"`
	Elements interface{} `json:"elements"`
}

type AddDocumentResponse struct {
	DocumentID string `json:"document_id"`
	ChunkCount int    `json:"chunk_count"`
}

type BulkAddDocumentsResponse struct {
	DocumentsAdded int      `json:"documents_added"`
	TotalChunks    int      `json:"total_chunks"`
	Errors         []string `json:"errors,omitempty"`
}

type TurnResponse struct {
	Reply    string         `json:"reply"`
	Intent   IntentCategory `json:"intent"`
	Degraded bool           `json:"degraded,omitempty"`
	// Duplicate marks a redelivered request id; the turn was already
	// handled and nothing new was appended to the conversation.
	Duplicate bool `json:"duplicate,omitempty"`
}

type HealthResponse struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components"`
	Monitor    *MonitorStatus    `json:"monitor,omitempty"`
	Integrity  *IntegrityReport  `json:"integrity,omitempty"`
}
