package types

// Document is an authoritative knowledge base document. The document store
// owns it; the vector index only ever holds its passages.
type Document struct {
	ID        string   `bson:"_id" json:"id"`
	Content   string   `bson:"content" json:"content"`
	Metadata  Metadata `bson:"metadata" json:"metadata"`
	ChunkIDs  []string `bson:"chunk_ids" json:"chunk_ids"`
	CreatedAt int64    `bson:"created_at" json:"created_at"`
}

// Metadata contains additional document information
type Metadata struct {
	Title  string            `bson:"title" json:"title"`
	Source string            `bson:"source" json:"source"`
	Tags   []string          `bson:"tags" json:"tags"`
	Custom map[string]string `bson:"custom" json:"custom"`
}

// Passage is one embedded chunk of a document. Passages are immutable:
// re-indexing a document replaces them wholesale, never patches in place.
type Passage struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id"`
	Text       string    `json:"text"`
	Embedding  []float32 `json:"embedding,omitempty"`
	ChunkIndex int       `json:"chunk_index"`
	Metadata   Metadata  `json:"metadata"`
	Source     string    `json:"source"`
}

// ScoredPassage is a search hit with its similarity score.
type ScoredPassage struct {
	Passage Passage `json:"passage"`
	Score   float32 `json:"score"`
	// DocCreatedAt is carried along so callers can break score ties by
	// document recency.
	DocCreatedAt int64 `json:"doc_created_at"`
}

// IntegrityReport compares the authoritative Document -> ChunkIDs mapping
// against what the vector index actually contains.
type IntegrityReport struct {
	OrphanedPassageIDs []string `json:"orphaned_passage_ids"`
	MissingPassageIDs  []string `json:"missing_passage_ids"`
	Corrupt            bool     `json:"corrupt"`
	DocumentCount      int      `json:"document_count"`
	PassageCount       int      `json:"passage_count"`
}

// SearchFilter restricts a vector search to passages matching metadata.
type SearchFilter struct {
	Tags   []string `json:"tags,omitempty"`
	Source string   `json:"source,omitempty"`
}

const (
	IndexHealthy  = "healthy"
	IndexDegraded = "degraded"
	IndexFailed   = "failed"
)

// MonitorStatus is the tri-state health of the auto-recovery monitor.
type MonitorStatus struct {
	State           string `json:"state"`
	LastCheckAt     int64  `json:"last_check_at"`
	LastRebuildAt   int64  `json:"last_rebuild_at,omitempty"`
	RebuildAttempts int    `json:"rebuild_attempts"`
	OrphansDeleted  int64  `json:"orphans_deleted"`
	LastError       string `json:"last_error,omitempty"`
}
