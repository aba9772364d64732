package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/siherrmann/retriever/core/graph"
	"github.com/siherrmann/retriever/model"
)

// GraphRetrievalResult bundles the fused candidates with the entities
// that anchored the graph branch.
type GraphRetrievalResult struct {
	Candidates []*model.RankedCandidate
	Entities   []*model.Entity
}

// QueryGraph runs the graph-augmented retrieval: vector, lexical and
// entity-neighborhood lookups are fanned out concurrently, each bounded
// by the sub-query timeout, and the three ranked lists are merged with
// reciprocal rank fusion. A timed-out or failed branch contributes an
// empty list, never an error; fusion waits for all branches.
func (e *Engine) QueryGraph(ctx context.Context, workspaceID uuid.UUID, query string, config *model.QueryConfig) (*GraphRetrievalResult, error) {
	entities := e.matchEntities(ctx, workspaceID, query, config.EntityMatchLimit)

	var (
		wg                sync.WaitGroup
		vectorCandidates  []*model.RankedCandidate
		lexicalCandidates []*model.RankedCandidate
		graphCandidates   []*model.RankedCandidate
	)

	wg.Add(3)

	go func() {
		defer wg.Done()
		branchCtx, cancel := context.WithTimeout(ctx, config.SubQueryTimeout)
		defer cancel()
		vectorCandidates = e.vectorBranch(branchCtx, workspaceID, query, config)
	}()

	go func() {
		defer wg.Done()
		branchCtx, cancel := context.WithTimeout(ctx, config.SubQueryTimeout)
		defer cancel()
		lexicalCandidates = e.lexicalBranch(branchCtx, workspaceID, query, config)
	}()

	go func() {
		defer wg.Done()
		branchCtx, cancel := context.WithTimeout(ctx, config.SubQueryTimeout)
		defer cancel()
		graphCandidates = e.graphBranch(branchCtx, workspaceID, entities, config)
	}()

	wg.Wait()

	fused := ReciprocalRankFusion(config.RRFK, vectorCandidates, lexicalCandidates, graphCandidates)
	if len(fused) > config.TopK {
		fused = fused[:config.TopK]
	}

	return &GraphRetrievalResult{
		Candidates: fused,
		Entities:   entities,
	}, nil
}

// matchEntities looks up entities by the query's first whitespace
// delimited token. Lookup failures degrade to no entity matches.
func (e *Engine) matchEntities(ctx context.Context, workspaceID uuid.UUID, query string, limit int) []*model.Entity {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return nil
	}

	entities, err := e.entities.FindEntitiesByKeyword(ctx, workspaceID, fields[0], limit)
	if err != nil {
		e.logger.Warn("Entity keyword lookup failed", slog.String("error", err.Error()))
		return nil
	}

	return entities
}

func (e *Engine) vectorBranch(ctx context.Context, workspaceID uuid.UUID, query string, config *model.QueryConfig) []*model.RankedCandidate {
	embedding := e.embedQuery(ctx, query)
	if len(embedding) == 0 {
		return nil
	}

	entries, err := e.index.QueryVector(ctx, workspaceID, embedding, nil, config.TopK)
	if err != nil {
		e.logger.Warn("Vector branch failed", slog.String("error", err.Error()))
		return nil
	}

	return entriesToCandidates(entries, model.SourceTypeVector)
}

func (e *Engine) lexicalBranch(ctx context.Context, workspaceID uuid.UUID, query string, config *model.QueryConfig) []*model.RankedCandidate {
	entries, err := e.index.QueryLexical(ctx, workspaceID, query, nil, config.TopK)
	if err != nil {
		e.logger.Warn("Lexical branch failed", slog.String("error", err.Error()))
		return nil
	}

	return entriesToCandidates(entries, model.SourceTypeLexical)
}

// graphBranch expands each matched entity's neighborhood and renders it
// into one synthetic chunk at the fixed graph pseudo-score.
func (e *Engine) graphBranch(ctx context.Context, workspaceID uuid.UUID, entities []*model.Entity, config *model.QueryConfig) []*model.RankedCandidate {
	var candidates []*model.RankedCandidate

	for _, entity := range entities {
		neighborhood, err := graph.Neighborhood(ctx, e.graph, workspaceID, entity.ID, config.GraphDepth)
		if err != nil {
			e.logger.Warn("Neighborhood traversal failed",
				slog.String("entity", entity.Name),
				slog.String("error", err.Error()))
			continue
		}

		documentID := uuid.Nil
		if entity.DocumentID != nil {
			documentID = *entity.DocumentID
		}

		candidates = append(candidates, &model.RankedCandidate{
			ID:         entity.ID,
			Content:    renderNeighborhood(entity, neighborhood),
			Title:      entity.Name,
			DocumentID: documentID,
			Score:      config.GraphChunkScore,
			SourceType: model.SourceTypeGraph,
		})
	}

	return candidates
}

// renderNeighborhood formats an entity's neighborhood into the text
// chunk handed to fusion and synthesis.
func renderNeighborhood(entity *model.Entity, neighborhood *graph.NeighborhoodResult) string {
	var neighbors []string
	for _, neighbor := range neighborhood.Entities {
		if neighbor.ID == entity.ID {
			continue
		}
		neighbors = append(neighbors, fmt.Sprintf("%s(%s)", neighbor.Name, neighbor.Type))
	}

	var relationTypes []string
	seen := map[string]bool{}
	for _, relationship := range neighborhood.Relationships {
		if seen[relationship.RelationType] {
			continue
		}
		seen[relationship.RelationType] = true
		relationTypes = append(relationTypes, relationship.RelationType)
	}

	return fmt.Sprintf("%s（%s）相關聯的實體：%s。關係：%s",
		entity.Name,
		entity.Type,
		strings.Join(neighbors, ", "),
		strings.Join(relationTypes, ", "),
	)
}

func entriesToCandidates(entries []*model.SearchEntry, sourceType model.SourceType) []*model.RankedCandidate {
	candidates := make([]*model.RankedCandidate, 0, len(entries))
	for _, entry := range entries {
		candidates = append(candidates, &model.RankedCandidate{
			ID:         entry.ID,
			Content:    entry.Content,
			Title:      entry.Title,
			DocumentID: entry.DocumentID,
			Score:      entry.Score,
			SourceType: sourceType,
		})
	}
	return candidates
}
