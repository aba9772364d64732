package graph

import (
	"context"

	"github.com/google/uuid"
	"github.com/siherrmann/retriever/model"
)

// MaxDepth is the hard clamp on traversal depth. Requests above it are
// silently reduced to bound traversal cost.
const MaxDepth = 3

// GraphDB defines the interface for graph store operations
type GraphDB interface {
	SelectEntities(ctx context.Context, ids []uuid.UUID) ([]*model.Entity, error)
	SelectRelationshipsTouching(ctx context.Context, workspaceID uuid.UUID, entityIDs []uuid.UUID) ([]*model.Relationship, error)
}

// NeighborhoodResult contains the deduplicated union of entities and
// relationships reachable from the source entity.
type NeighborhoodResult struct {
	Entities      []*model.Entity
	Relationships []*model.Relationship
}

// Neighborhood performs a breadth-first expansion from the source
// entity up to depth hops, treating relationships as undirected. Depth
// is clamped to MaxDepth; depth 0 returns only the source entity and no
// relationships. The expansion stops early when a hop adds no new edges.
func Neighborhood(ctx context.Context, db GraphDB, workspaceID uuid.UUID, entityID uuid.UUID, depth int) (*NeighborhoodResult, error) {
	if depth > MaxDepth {
		depth = MaxDepth
	}

	reached := map[uuid.UUID]bool{entityID: true}
	seenRelationships := map[uuid.UUID]bool{}
	var relationships []*model.Relationship

	// Discovery order, seed first
	entityIDs := []uuid.UUID{entityID}

	frontier := []uuid.UUID{entityID}
	for hop := 0; hop < depth && len(frontier) > 0; hop++ {
		touching, err := db.SelectRelationshipsTouching(ctx, workspaceID, frontier)
		if err != nil {
			return nil, err
		}

		var next []uuid.UUID
		for _, relationship := range touching {
			if seenRelationships[relationship.ID] {
				continue
			}
			seenRelationships[relationship.ID] = true
			relationships = append(relationships, relationship)

			for _, endpoint := range []uuid.UUID{relationship.SourceEntityID, relationship.TargetEntityID} {
				if !reached[endpoint] {
					reached[endpoint] = true
					entityIDs = append(entityIDs, endpoint)
					next = append(next, endpoint)
				}
			}
		}

		frontier = next
	}

	entities, err := db.SelectEntities(ctx, entityIDs)
	if err != nil {
		return nil, err
	}

	return &NeighborhoodResult{
		Entities:      entities,
		Relationships: relationships,
	}, nil
}
