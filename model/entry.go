package model

import (
	"time"

	"github.com/google/uuid"
)

// SearchEntry represents one indexable unit in the search index.
// Block-level entries carry a BlockID; a document-level fallback entry
// has BlockID = nil. Entries are unique per (document_id, block_id).
type SearchEntry struct {
	ID          uuid.UUID  `json:"id"`
	WorkspaceID uuid.UUID  `json:"workspace_id"`
	DocumentID  uuid.UUID  `json:"document_id"`
	BlockID     *uuid.UUID `json:"block_id,omitempty"`
	Content     string     `json:"content"`
	Title       string     `json:"title"`
	Embedding   []float32  `json:"embedding,omitempty"`
	Metadata    Metadata   `json:"metadata,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	// Results
	LexicalScore float64 `json:"lexical_score,omitempty"`
	VectorScore  float64 `json:"vector_score,omitempty"`
	Score        float64 `json:"score,omitempty"`
}

// FusionKey identifies an entry across the lexical and vector result
// lists. Entries hit by both predicates merge on this key.
func (e *SearchEntry) FusionKey() string {
	if e.BlockID == nil {
		return e.DocumentID.String()
	}
	return e.DocumentID.String() + "/" + e.BlockID.String()
}
