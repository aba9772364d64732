package retrieval

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/siherrmann/retriever/helper"
	"github.com/siherrmann/retriever/model"
)

// hybridEntry accumulates both predicate scores for one fusion key.
type hybridEntry struct {
	entry        *model.SearchEntry
	lexicalScore float64
	vectorScore  float64
}

// QueryHybrid runs the lexical and vector predicates and combines them
// with a full outer join keyed by (document_id, block_id). The combined
// score is lexical*(1-w) + vector*w with a missing side counting as 0.
// Results are sorted by score descending, ties broken by most recent
// created_at; offset and limit apply after fusion. The second return
// value is the size of the full fused set.
//
// An unavailable embedding provider degrades the search to pure lexical
// ranking. A store error is wrapped in ErrStoreUnavailable.
func (e *Engine) QueryHybrid(ctx context.Context, workspaceID uuid.UUID, query string, filter *model.SearchFilter, config *model.QueryConfig) ([]*model.RankedCandidate, int, error) {
	// Each predicate only needs to surface enough rows to fill the page
	perPredicateLimit := config.Offset + config.TopK

	lexical, err := e.index.QueryLexical(ctx, workspaceID, query, filter, perPredicateLimit)
	if err != nil {
		return nil, 0, helper.NewError("lexical query", errorWithSentinel(ErrStoreUnavailable, err))
	}

	var vector []*model.SearchEntry
	embedding := e.embedQuery(ctx, query)
	if len(embedding) > 0 {
		vector, err = e.index.QueryVector(ctx, workspaceID, embedding, filter, perPredicateLimit)
		if err != nil {
			return nil, 0, helper.NewError("vector query", errorWithSentinel(ErrStoreUnavailable, err))
		}
	}

	fused := map[string]*hybridEntry{}
	var order []string

	for _, entry := range lexical {
		key := entry.FusionKey()
		fused[key] = &hybridEntry{entry: entry, lexicalScore: entry.LexicalScore}
		order = append(order, key)
	}
	for _, entry := range vector {
		key := entry.FusionKey()
		if existing, ok := fused[key]; ok {
			existing.vectorScore = entry.VectorScore
			continue
		}
		fused[key] = &hybridEntry{entry: entry, vectorScore: entry.VectorScore}
		order = append(order, key)
	}

	weight := config.VectorWeight
	combined := make([]*hybridEntry, 0, len(order))
	for _, key := range order {
		fusedEntry := fused[key]
		fusedEntry.entry.Score = fusedEntry.lexicalScore*(1-weight) + fusedEntry.vectorScore*weight
		combined = append(combined, fusedEntry)
	}

	sort.SliceStable(combined, func(i, j int) bool {
		if combined[i].entry.Score != combined[j].entry.Score {
			return combined[i].entry.Score > combined[j].entry.Score
		}
		return combined[i].entry.CreatedAt.After(combined[j].entry.CreatedAt)
	})

	total := len(combined)

	// Paging after fusion so the page reflects the combined order
	if config.Offset >= total {
		return nil, total, nil
	}
	combined = combined[config.Offset:]
	if len(combined) > config.TopK {
		combined = combined[:config.TopK]
	}

	candidates := make([]*model.RankedCandidate, 0, len(combined))
	for _, fusedEntry := range combined {
		candidates = append(candidates, &model.RankedCandidate{
			ID:         fusedEntry.entry.ID,
			Content:    fusedEntry.entry.Content,
			Title:      fusedEntry.entry.Title,
			DocumentID: fusedEntry.entry.DocumentID,
			Score:      fusedEntry.entry.Score,
			SourceType: dominantSource(fusedEntry, weight),
		})
	}

	return candidates, total, nil
}

func dominantSource(entry *hybridEntry, weight float64) model.SourceType {
	if entry.vectorScore*weight > entry.lexicalScore*(1-weight) {
		return model.SourceTypeVector
	}
	return model.SourceTypeLexical
}
