package retrieval

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/siherrmann/retriever/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryGraph(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	t.Run("Fuses vector, lexical and graph branches", func(t *testing.T) {
		entity := newTestEntity("Postgres", "technology")
		neighbor := newTestEntity("pgvector", "extension")
		relationship := &model.Relationship{
			ID:             uuid.New(),
			WorkspaceID:    testWorkspaceID,
			SourceEntityID: entity.ID,
			TargetEntityID: neighbor.ID,
			RelationType:   "extends",
			Weight:         1.0,
		}

		index := &fakeIndexStore{
			lexical: []*model.SearchEntry{newLexicalEntry("lexical hit", 0.6, now)},
			vector:  []*model.SearchEntry{newVectorEntry("vector hit", 0.7, now)},
		}
		entities := &fakeEntityStore{entities: []*model.Entity{entity}}
		graphDB := &fakeGraphDB{
			entities:      map[uuid.UUID]*model.Entity{entity.ID: entity, neighbor.ID: neighbor},
			relationships: []*model.Relationship{relationship},
		}
		engine := NewEngine(index, entities, graphDB, &fakeEmbedder{embedding: []float32{0.1}}, nil, nil)

		result, err := engine.QueryGraph(ctx, testWorkspaceID, "Postgres setup", defaultTestConfig())

		require.NoError(t, err)
		require.Len(t, result.Entities, 1, "Expected the raw matched entities, not neighbors")
		assert.Equal(t, "Postgres", result.Entities[0].Name)
		require.Len(t, result.Candidates, 3)

		var graphChunk *model.RankedCandidate
		for _, candidate := range result.Candidates {
			if candidate.SourceType == model.SourceTypeGraph {
				graphChunk = candidate
			}
		}
		require.NotNil(t, graphChunk, "Expected a rendered neighborhood chunk")
		assert.Equal(t, "Postgres（technology）相關聯的實體：pgvector(extension)。關係：extends", graphChunk.Content)
	})

	t.Run("Candidate scores are fusion scores", func(t *testing.T) {
		index := &fakeIndexStore{
			lexical: []*model.SearchEntry{newLexicalEntry("hit", 0.6, now)},
		}
		engine := NewEngine(index, &fakeEntityStore{}, &fakeGraphDB{}, nil, nil, nil)

		result, err := engine.QueryGraph(ctx, testWorkspaceID, "query", defaultTestConfig())

		require.NoError(t, err)
		require.Len(t, result.Candidates, 1)
		assert.InDelta(t, 1.0/61.0, result.Candidates[0].Score, 1e-12, "Expected the RRF score, not the native score")
	})

	t.Run("Entity matches are capped", func(t *testing.T) {
		var matched []*model.Entity
		for i := 0; i < 10; i++ {
			matched = append(matched, newTestEntity(fmt.Sprintf("entity %d", i), "concept"))
		}

		config := defaultTestConfig()
		config.TopK = 20

		engine := NewEngine(&fakeIndexStore{}, &fakeEntityStore{entities: matched}, &fakeGraphDB{entities: map[uuid.UUID]*model.Entity{}}, nil, nil, nil)

		result, err := engine.QueryGraph(ctx, testWorkspaceID, "entity lookup", config)

		require.NoError(t, err)
		assert.Len(t, result.Entities, config.EntityMatchLimit)
	})

	t.Run("Timed out branch contributes an empty list", func(t *testing.T) {
		config := defaultTestConfig()
		config.SubQueryTimeout = 20 * time.Millisecond

		index := &fakeIndexStore{
			lexical: []*model.SearchEntry{newLexicalEntry("slow hit", 0.6, now)},
			delay:   200 * time.Millisecond,
		}
		engine := NewEngine(index, &fakeEntityStore{}, &fakeGraphDB{}, nil, nil, nil)

		result, err := engine.QueryGraph(ctx, testWorkspaceID, "query", config)

		require.NoError(t, err, "Expected a timed out branch to degrade, not fail")
		assert.Empty(t, result.Candidates)
	})

	t.Run("Result is capped at top k", func(t *testing.T) {
		var lexical []*model.SearchEntry
		for i := 0; i < 15; i++ {
			lexical = append(lexical, newLexicalEntry(fmt.Sprintf("entry %d", i), float64(15-i)/15, now))
		}

		config := defaultTestConfig()
		config.TopK = 4

		engine := NewEngine(&fakeIndexStore{lexical: lexical}, &fakeEntityStore{}, &fakeGraphDB{}, nil, nil, nil)

		result, err := engine.QueryGraph(ctx, testWorkspaceID, "query", config)

		require.NoError(t, err)
		assert.Len(t, result.Candidates, 4)
	})
}
