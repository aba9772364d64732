package model

import (
	"time"

	"github.com/google/uuid"
)

// Relationship represents a directed, typed edge between two entities.
// Multiple edges between the same pair are allowed as long as the
// relation type differs. Weight is a confidence in [0,1], default 1.0.
type Relationship struct {
	ID             uuid.UUID `json:"id"`
	WorkspaceID    uuid.UUID `json:"workspace_id"`
	SourceEntityID uuid.UUID `json:"source_entity_id"`
	TargetEntityID uuid.UUID `json:"target_entity_id"`
	RelationType   string    `json:"relation_type"`
	Weight         float64   `json:"weight"`
	CreatedAt      time.Time `json:"created_at"`
}

// Touches reports whether either endpoint of the relationship matches
// the given entity. Traversal treats edges as undirected.
func (r *Relationship) Touches(entityID uuid.UUID) bool {
	return r.SourceEntityID == entityID || r.TargetEntityID == entityID
}
