package retrieval

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/siherrmann/retriever/core/graph"
	"github.com/siherrmann/retriever/core/provider"
	"github.com/siherrmann/retriever/model"
)

var (
	// ErrEmptyQuery is returned when the query string is empty.
	ErrEmptyQuery = errors.New("query must not be empty")
	// ErrEmptyWorkspace is returned when the workspace id is missing.
	ErrEmptyWorkspace = errors.New("workspace id must not be empty")
	// ErrStoreUnavailable wraps failures of the search index store on the
	// primary retrieval path. Unlike embedding or model failures this is
	// not degradable.
	ErrStoreUnavailable = errors.New("search index store unavailable")
)

// IndexStore defines the interface for search index read operations
type IndexStore interface {
	QueryLexical(ctx context.Context, workspaceID uuid.UUID, query string, filter *model.SearchFilter, limit int) ([]*model.SearchEntry, error)
	QueryVector(ctx context.Context, workspaceID uuid.UUID, embedding []float32, filter *model.SearchFilter, limit int) ([]*model.SearchEntry, error)
}

// EntityStore defines the interface for entity keyword lookup
type EntityStore interface {
	FindEntitiesByKeyword(ctx context.Context, workspaceID uuid.UUID, keyword string, limit int) ([]*model.Entity, error)
}

// Engine runs knowledge queries over the search index and the knowledge
// graph. The index store is the only hard dependency; embedder and
// generator may be nil and every path degrades accordingly.
type Engine struct {
	index     IndexStore
	entities  EntityStore
	graph     graph.GraphDB
	embedder  provider.EmbeddingProvider
	generator provider.GenerativeProvider
	logger    *slog.Logger
}

// NewEngine creates a new retrieval engine
func NewEngine(index IndexStore, entities EntityStore, graphDB graph.GraphDB, embedder provider.EmbeddingProvider, generator provider.GenerativeProvider, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{
		index:     index,
		entities:  entities,
		graph:     graphDB,
		embedder:  embedder,
		generator: generator,
		logger:    logger,
	}
}

// errorWithSentinel keeps the sentinel matchable with errors.Is while
// retaining the cause in the message.
func errorWithSentinel(sentinel error, err error) error {
	return fmt.Errorf("%w: %v", sentinel, err)
}

// embedQuery returns the query embedding or nil. Embedding is a
// degradable dependency, failures are logged and never propagated.
func (e *Engine) embedQuery(ctx context.Context, query string) []float32 {
	if e.embedder == nil {
		return nil
	}

	embedding, err := e.embedder.Embed(ctx, query)
	if err != nil {
		e.logger.Warn("Embedding query failed, degrading to lexical only", slog.String("error", err.Error()))
		return nil
	}

	return embedding
}
