package retrieval

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/siherrmann/retriever/core/provider"
	"github.com/siherrmann/retriever/model"
)

// Fakes for the engine's collaborators. Database handler behavior is
// covered by the handler tests against a real postgres container; the
// engine tests exercise fusion, routing and degradation logic.

type fakeIndexStore struct {
	lexical    []*model.SearchEntry
	vector     []*model.SearchEntry
	lexicalErr error
	vectorErr  error
	delay      time.Duration
}

func (f *fakeIndexStore) QueryLexical(ctx context.Context, workspaceID uuid.UUID, query string, filter *model.SearchFilter, limit int) ([]*model.SearchEntry, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.lexicalErr != nil {
		return nil, f.lexicalErr
	}
	if len(f.lexical) > limit {
		return f.lexical[:limit], nil
	}
	return f.lexical, nil
}

func (f *fakeIndexStore) QueryVector(ctx context.Context, workspaceID uuid.UUID, embedding []float32, filter *model.SearchFilter, limit int) ([]*model.SearchEntry, error) {
	if f.vectorErr != nil {
		return nil, f.vectorErr
	}
	if len(f.vector) > limit {
		return f.vector[:limit], nil
	}
	return f.vector, nil
}

type fakeEntityStore struct {
	entities []*model.Entity
	err      error
}

func (f *fakeEntityStore) FindEntitiesByKeyword(ctx context.Context, workspaceID uuid.UUID, keyword string, limit int) ([]*model.Entity, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(f.entities) > limit {
		return f.entities[:limit], nil
	}
	return f.entities, nil
}

type fakeGraphDB struct {
	entities      map[uuid.UUID]*model.Entity
	relationships []*model.Relationship
}

func (f *fakeGraphDB) SelectEntities(ctx context.Context, ids []uuid.UUID) ([]*model.Entity, error) {
	var result []*model.Entity
	for _, id := range ids {
		if entity, ok := f.entities[id]; ok {
			result = append(result, entity)
		}
	}
	return result, nil
}

func (f *fakeGraphDB) SelectRelationshipsTouching(ctx context.Context, workspaceID uuid.UUID, entityIDs []uuid.UUID) ([]*model.Relationship, error) {
	ids := map[uuid.UUID]bool{}
	for _, id := range entityIDs {
		ids[id] = true
	}

	var touching []*model.Relationship
	for _, relationship := range f.relationships {
		if ids[relationship.SourceEntityID] || ids[relationship.TargetEntityID] {
			touching = append(touching, relationship)
		}
	}
	return touching, nil
}

type fakeEmbedder struct {
	embedding []float32
	err       error
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.embedding, nil
}

func (f *fakeEmbedder) Dimension() int {
	return len(f.embedding)
}

type fakeGenerator struct {
	answer  string
	err     error
	prompts []string
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

func (f *fakeGenerator) Type() provider.GenerativeType {
	return provider.GenerativeType("fake")
}

func newLexicalEntry(content string, score float64, createdAt time.Time) *model.SearchEntry {
	return &model.SearchEntry{
		ID:           uuid.New(),
		WorkspaceID:  testWorkspaceID,
		DocumentID:   uuid.New(),
		Content:      content,
		LexicalScore: score,
		Score:        score,
		CreatedAt:    createdAt,
	}
}

func newVectorEntry(content string, score float64, createdAt time.Time) *model.SearchEntry {
	return &model.SearchEntry{
		ID:          uuid.New(),
		WorkspaceID: testWorkspaceID,
		DocumentID:  uuid.New(),
		Content:     content,
		VectorScore: score,
		Score:       score,
		CreatedAt:   createdAt,
	}
}

func newCandidate(content string, score float64, sourceType model.SourceType) *model.RankedCandidate {
	return &model.RankedCandidate{
		ID:         uuid.New(),
		Content:    content,
		DocumentID: uuid.New(),
		Score:      score,
		SourceType: sourceType,
	}
}

func newTestEntity(name string, entityType string) *model.Entity {
	return &model.Entity{
		ID:          uuid.New(),
		WorkspaceID: testWorkspaceID,
		Name:        name,
		Type:        entityType,
		Description: fmt.Sprintf("Description of %s", name),
	}
}

var testWorkspaceID = uuid.MustParse("2b0d3f1e-8a31-4a7e-9f44-6f1b6f0a9c11")

func defaultTestConfig() *model.QueryConfig {
	config := model.DefaultQueryConfig()
	return &config
}
