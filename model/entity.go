package model

import (
	"time"

	"github.com/google/uuid"
)

// Entity represents a named entity in the knowledge graph (person,
// organization, concept, etc.). Entities are deduplicated per
// (workspace_id, name, entity_type) at insert time; the retrieval
// engine only reads them.
type Entity struct {
	ID          uuid.UUID  `json:"id"`
	WorkspaceID uuid.UUID  `json:"workspace_id"`
	DocumentID  *uuid.UUID `json:"document_id,omitempty"`
	Name        string     `json:"name"`
	Type        string     `json:"entity_type"`
	Description string     `json:"description,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}
