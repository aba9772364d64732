package retrieval

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/siherrmann/retriever/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryHybrid(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	t.Run("Combines both predicates with the vector weight", func(t *testing.T) {
		lexical := newLexicalEntry("both sides", 0.6, now)
		vector := &model.SearchEntry{
			ID:          lexical.ID,
			WorkspaceID: lexical.WorkspaceID,
			DocumentID:  lexical.DocumentID,
			BlockID:     lexical.BlockID,
			Content:     lexical.Content,
			VectorScore: 0.8,
			CreatedAt:   lexical.CreatedAt,
		}

		index := &fakeIndexStore{
			lexical: []*model.SearchEntry{lexical},
			vector:  []*model.SearchEntry{vector},
		}
		engine := NewEngine(index, &fakeEntityStore{}, &fakeGraphDB{}, &fakeEmbedder{embedding: []float32{0.1}}, nil, nil)

		candidates, total, err := engine.QueryHybrid(ctx, testWorkspaceID, "query", nil, defaultTestConfig())

		require.NoError(t, err)
		require.Len(t, candidates, 1, "Expected one fused candidate for the shared fusion key")
		assert.Equal(t, 1, total)
		assert.InDelta(t, 0.6*0.5+0.8*0.5, candidates[0].Score, 1e-9)
	})

	t.Run("Entries hit by only one predicate still surface", func(t *testing.T) {
		lexOnly := newLexicalEntry("lexical only", 0.9, now)
		vecOnly := newVectorEntry("vector only", 0.7, now)

		index := &fakeIndexStore{
			lexical: []*model.SearchEntry{lexOnly},
			vector:  []*model.SearchEntry{vecOnly},
		}
		engine := NewEngine(index, &fakeEntityStore{}, &fakeGraphDB{}, &fakeEmbedder{embedding: []float32{0.1}}, nil, nil)

		candidates, total, err := engine.QueryHybrid(ctx, testWorkspaceID, "query", nil, defaultTestConfig())

		require.NoError(t, err)
		assert.Equal(t, 2, total, "Expected the full outer join to keep both sides")
		require.Len(t, candidates, 2)
		assert.InDelta(t, 0.9*0.5, candidates[0].Score, 1e-9, "Expected the missing side to count as zero")
		assert.InDelta(t, 0.7*0.5, candidates[1].Score, 1e-9)
	})

	t.Run("Combined score is independent of predicate result order", func(t *testing.T) {
		lexical := newLexicalEntry("entry", 0.4, now)
		vector := &model.SearchEntry{
			ID:          lexical.ID,
			WorkspaceID: lexical.WorkspaceID,
			DocumentID:  lexical.DocumentID,
			Content:     lexical.Content,
			VectorScore: 0.9,
			CreatedAt:   lexical.CreatedAt,
		}
		other := newVectorEntry("other", 0.3, now)

		config := defaultTestConfig()
		config.VectorWeight = 0.7

		run := func(vectorFirst []*model.SearchEntry) map[string]float64 {
			index := &fakeIndexStore{
				lexical: []*model.SearchEntry{lexical},
				vector:  vectorFirst,
			}
			engine := NewEngine(index, &fakeEntityStore{}, &fakeGraphDB{}, &fakeEmbedder{embedding: []float32{0.1}}, nil, nil)
			candidates, _, err := engine.QueryHybrid(ctx, testWorkspaceID, "query", nil, config)
			require.NoError(t, err)

			scores := map[string]float64{}
			for _, candidate := range candidates {
				scores[candidate.Content] = candidate.Score
			}
			return scores
		}

		scoresA := run([]*model.SearchEntry{vector, other})
		scoresB := run([]*model.SearchEntry{other, vector})

		assert.Equal(t, scoresA, scoresB, "Expected identical combined scores for any predicate result order")
	})

	t.Run("Degrades to pure lexical when the embedder returns an error", func(t *testing.T) {
		lexical := []*model.SearchEntry{
			newLexicalEntry("first", 0.9, now),
			newLexicalEntry("second", 0.5, now),
		}

		failingIndex := &fakeIndexStore{
			lexical: lexical,
			vector:  []*model.SearchEntry{newVectorEntry("should not appear", 0.99, now)},
		}
		engine := NewEngine(failingIndex, &fakeEntityStore{}, &fakeGraphDB{}, &fakeEmbedder{err: fmt.Errorf("model not loaded")}, nil, nil)

		candidates, total, err := engine.QueryHybrid(ctx, testWorkspaceID, "query", nil, defaultTestConfig())

		require.NoError(t, err, "Expected embedding failure to degrade, not fail")
		assert.Equal(t, 2, total)
		require.Len(t, candidates, 2)
		assert.InDelta(t, 0.9*0.5, candidates[0].Score, 1e-9, "Expected vector score 0 for every candidate")
		assert.Equal(t, model.SourceTypeLexical, candidates[0].SourceType)
	})

	t.Run("Ties are broken by most recent created_at", func(t *testing.T) {
		older := newLexicalEntry("older", 0.5, now.Add(-time.Hour))
		newer := newLexicalEntry("newer", 0.5, now)

		index := &fakeIndexStore{lexical: []*model.SearchEntry{older, newer}}
		engine := NewEngine(index, &fakeEntityStore{}, &fakeGraphDB{}, nil, nil, nil)

		candidates, _, err := engine.QueryHybrid(ctx, testWorkspaceID, "query", nil, defaultTestConfig())

		require.NoError(t, err)
		require.Len(t, candidates, 2)
		assert.Equal(t, "newer", candidates[0].Content)
	})

	t.Run("Offset and limit apply after fusion", func(t *testing.T) {
		var lexical []*model.SearchEntry
		for i := 0; i < 5; i++ {
			lexical = append(lexical, newLexicalEntry(fmt.Sprintf("entry %d", i), float64(5-i)/10, now))
		}

		config := defaultTestConfig()
		config.TopK = 2
		config.Offset = 1

		index := &fakeIndexStore{lexical: lexical}
		engine := NewEngine(index, &fakeEntityStore{}, &fakeGraphDB{}, nil, nil, nil)

		candidates, total, err := engine.QueryHybrid(ctx, testWorkspaceID, "query", nil, config)

		require.NoError(t, err)
		assert.Equal(t, 3, total, "Expected total to reflect the fused set capped per predicate at offset+limit")
		require.Len(t, candidates, 2)
		assert.Equal(t, "entry 1", candidates[0].Content)
		assert.Equal(t, "entry 2", candidates[1].Content)
	})

	t.Run("Offset beyond the fused set yields an empty page", func(t *testing.T) {
		config := defaultTestConfig()
		config.Offset = 10

		index := &fakeIndexStore{lexical: []*model.SearchEntry{newLexicalEntry("only", 0.5, now)}}
		engine := NewEngine(index, &fakeEntityStore{}, &fakeGraphDB{}, nil, nil, nil)

		candidates, total, err := engine.QueryHybrid(ctx, testWorkspaceID, "query", nil, config)

		require.NoError(t, err)
		assert.Equal(t, 1, total)
		assert.Empty(t, candidates)
	})

	t.Run("Store failure surfaces as ErrStoreUnavailable", func(t *testing.T) {
		index := &fakeIndexStore{lexicalErr: fmt.Errorf("connection refused")}
		engine := NewEngine(index, &fakeEntityStore{}, &fakeGraphDB{}, nil, nil, nil)

		_, _, err := engine.QueryHybrid(ctx, testWorkspaceID, "query", nil, defaultTestConfig())

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrStoreUnavailable)
	})
}
