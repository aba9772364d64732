package graph

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/siherrmann/retriever/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryGraph struct {
	entities      map[uuid.UUID]*model.Entity
	relationships []*model.Relationship
}

func (g *memoryGraph) SelectEntities(ctx context.Context, ids []uuid.UUID) ([]*model.Entity, error) {
	var result []*model.Entity
	for _, id := range ids {
		if entity, ok := g.entities[id]; ok {
			result = append(result, entity)
		}
	}
	return result, nil
}

func (g *memoryGraph) SelectRelationshipsTouching(ctx context.Context, workspaceID uuid.UUID, entityIDs []uuid.UUID) ([]*model.Relationship, error) {
	ids := map[uuid.UUID]bool{}
	for _, id := range entityIDs {
		ids[id] = true
	}

	var touching []*model.Relationship
	for _, relationship := range g.relationships {
		if ids[relationship.SourceEntityID] || ids[relationship.TargetEntityID] {
			touching = append(touching, relationship)
		}
	}
	return touching, nil
}

// chainGraph builds a -> b -> c -> d -> e as a linear chain.
func chainGraph(workspaceID uuid.UUID) (*memoryGraph, []uuid.UUID) {
	names := []string{"a", "b", "c", "d", "e"}
	graph := &memoryGraph{entities: map[uuid.UUID]*model.Entity{}}

	var ids []uuid.UUID
	for _, name := range names {
		entity := &model.Entity{ID: uuid.New(), WorkspaceID: workspaceID, Name: name, Type: "node"}
		graph.entities[entity.ID] = entity
		ids = append(ids, entity.ID)
	}

	for i := 0; i < len(ids)-1; i++ {
		graph.relationships = append(graph.relationships, &model.Relationship{
			ID:             uuid.New(),
			WorkspaceID:    workspaceID,
			SourceEntityID: ids[i],
			TargetEntityID: ids[i+1],
			RelationType:   "next",
			Weight:         1.0,
		})
	}

	return graph, ids
}

func TestNeighborhood(t *testing.T) {
	ctx := context.Background()
	workspaceID := uuid.New()

	t.Run("Depth zero returns only the source entity and no relationships", func(t *testing.T) {
		graph, ids := chainGraph(workspaceID)

		result, err := Neighborhood(ctx, graph, workspaceID, ids[0], 0)

		require.NoError(t, err)
		require.Len(t, result.Entities, 1)
		assert.Equal(t, ids[0], result.Entities[0].ID)
		assert.Empty(t, result.Relationships)
	})

	t.Run("Traversal is undirected", func(t *testing.T) {
		graph, ids := chainGraph(workspaceID)

		// b is the target of a->b, so depth 1 from b must still reach a
		result, err := Neighborhood(ctx, graph, workspaceID, ids[1], 1)

		require.NoError(t, err)
		assert.Len(t, result.Entities, 3, "Expected b plus both chain neighbors")
		assert.Len(t, result.Relationships, 2)
	})

	t.Run("Neighborhood grows monotonically with depth up to the clamp", func(t *testing.T) {
		graph, ids := chainGraph(workspaceID)

		previous := 0
		for depth := 0; depth <= MaxDepth; depth++ {
			result, err := Neighborhood(ctx, graph, workspaceID, ids[0], depth)
			require.NoError(t, err)

			assert.GreaterOrEqual(t, len(result.Entities), previous, "Expected non-shrinking neighborhood at depth %d", depth)
			assert.Equal(t, depth+1, len(result.Entities), "Expected one more chain node per hop")
			previous = len(result.Entities)
		}
	})

	t.Run("Depth is clamped", func(t *testing.T) {
		graph, ids := chainGraph(workspaceID)

		clamped, err := Neighborhood(ctx, graph, workspaceID, ids[0], 10)
		require.NoError(t, err)

		atClamp, err := Neighborhood(ctx, graph, workspaceID, ids[0], MaxDepth)
		require.NoError(t, err)

		assert.Equal(t, len(atClamp.Entities), len(clamped.Entities), "Expected depth 10 to behave like the clamp")
		assert.Len(t, clamped.Entities, MaxDepth+1)
	})

	t.Run("Entities and relationships are deduplicated in a cycle", func(t *testing.T) {
		a := &model.Entity{ID: uuid.New(), WorkspaceID: workspaceID, Name: "a", Type: "node"}
		b := &model.Entity{ID: uuid.New(), WorkspaceID: workspaceID, Name: "b", Type: "node"}

		graph := &memoryGraph{
			entities: map[uuid.UUID]*model.Entity{a.ID: a, b.ID: b},
			relationships: []*model.Relationship{
				{ID: uuid.New(), WorkspaceID: workspaceID, SourceEntityID: a.ID, TargetEntityID: b.ID, RelationType: "knows", Weight: 1.0},
				{ID: uuid.New(), WorkspaceID: workspaceID, SourceEntityID: b.ID, TargetEntityID: a.ID, RelationType: "knows", Weight: 1.0},
			},
		}

		result, err := Neighborhood(ctx, graph, workspaceID, a.ID, 3)

		require.NoError(t, err)
		assert.Len(t, result.Entities, 2)
		assert.Len(t, result.Relationships, 2)
	})

	t.Run("Seed comes first in discovery order", func(t *testing.T) {
		graph, ids := chainGraph(workspaceID)

		result, err := Neighborhood(ctx, graph, workspaceID, ids[2], 2)

		require.NoError(t, err)
		require.NotEmpty(t, result.Entities)
		assert.Equal(t, ids[2], result.Entities[0].ID)
	})
}
