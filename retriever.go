package retriever

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/siherrmann/retriever/core/graph"
	"github.com/siherrmann/retriever/core/provider"
	"github.com/siherrmann/retriever/core/retrieval"
	"github.com/siherrmann/retriever/database"
	"github.com/siherrmann/retriever/helper"
	"github.com/siherrmann/retriever/model"
	loadSql "github.com/siherrmann/retriever/sql"
)

// Retriever provides a unified interface to the knowledge retrieval
// engine and all database handlers
type Retriever struct {
	DB            *helper.Database
	Index         *database.SearchIndexDBHandler
	Entities      *database.EntitiesDBHandler
	Relationships *database.RelationshipsDBHandler
	Engine        *retrieval.Engine
	Extractor     *graph.Extractor
	// Providers; both optional, every path degrades without them
	embedder  provider.EmbeddingProvider
	generator provider.GenerativeProvider
	// Logging
	log *slog.Logger
}

// NewRetriever creates a new Retriever instance with all handlers
// initialized. The embedder may be nil (pure lexical ranking) and the
// generative config may be nil or carry an empty API key (extractive
// answers).
func NewRetriever(ctx context.Context, config *helper.DatabaseConfiguration, embedder provider.EmbeddingProvider, generativeConfig *provider.GenerativeConfig) (*Retriever, error) {
	// Logger
	opts := helper.PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{
			Level: slog.LevelInfo,
		},
	}
	logger := slog.New(helper.NewPrettyHandler(os.Stdout, opts))

	// Initialize database
	db := helper.NewDatabase("retriever", config, logger)
	err := loadSql.Init(db.Instance)
	if err != nil {
		return nil, helper.NewError("initialize database extensions", err)
	}

	embeddingDim := 384
	if embedder != nil {
		embeddingDim = embedder.Dimension()
	}

	// force=false to not reload if functions already exist
	index, err := database.NewSearchIndexDBHandler(db, embeddingDim, false)
	if err != nil {
		return nil, helper.NewError("create search index handler", err)
	}

	entities, err := database.NewEntitiesDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create entities handler", err)
	}

	relationships, err := database.NewRelationshipsDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create relationships handler", err)
	}

	generator, err := provider.NewGenerativeProvider(ctx, generativeConfig)
	if err != nil {
		return nil, helper.NewError("create generative provider", err)
	}

	graphStore := &graphStore{entities: entities, relationships: relationships}
	engine := retrieval.NewEngine(index, entities, graphStore, embedder, generator, logger)

	return &Retriever{
		DB:            db,
		Index:         index,
		Entities:      entities,
		Relationships: relationships,
		Engine:        engine,
		Extractor:     graph.NewExtractor(generator),
		embedder:      embedder,
		generator:     generator,
		log:           logger,
	}, nil
}

// Close closes the database connection
func (r *Retriever) Close() error {
	if r.DB != nil && r.DB.Instance != nil {
		return r.DB.Instance.Close()
	}
	return nil
}

// KnowledgeQuery answers a query against the workspace's knowledge
// base. Mode auto routes between hybrid and graph retrieval; topK <= 0
// uses the default page size.
func (r *Retriever) KnowledgeQuery(ctx context.Context, query string, workspaceID uuid.UUID, mode model.Mode, topK int) (*model.RetrievalResult, error) {
	config := model.DefaultQueryConfig()
	if topK > 0 {
		config.TopK = topK
	}
	return r.Engine.KnowledgeQuery(ctx, query, workspaceID, mode, &config)
}

// KnowledgeQueryStream is the streaming variant of KnowledgeQuery. The
// returned channel delivers a metadata event, one token event per
// answer character and a final done event before closing.
func (r *Retriever) KnowledgeQueryStream(ctx context.Context, query string, workspaceID uuid.UUID, mode model.Mode, topK int) (<-chan model.StreamEvent, error) {
	config := model.DefaultQueryConfig()
	if topK > 0 {
		config.TopK = topK
	}
	return r.Engine.KnowledgeQueryStream(ctx, query, workspaceID, mode, &config)
}

// IndexEntry upserts one search index entry, embedding its content
// first when an embedder is configured and no embedding is set. Entries
// without an embedding are still findable through the lexical predicate.
func (r *Retriever) IndexEntry(ctx context.Context, entry *model.SearchEntry) error {
	if len(entry.Embedding) == 0 && r.embedder != nil {
		embedding, err := r.embedder.Embed(ctx, entry.Content)
		if err != nil {
			r.log.Warn("Embedding entry failed, indexing without embedding",
				slog.String("document_id", entry.DocumentID.String()),
				slog.String("error", err.Error()))
		} else {
			entry.Embedding = embedding
		}
	}

	return r.Index.UpsertEntry(ctx, entry)
}

// RemoveDocument deletes all search index entries of a document
func (r *Retriever) RemoveDocument(ctx context.Context, documentID uuid.UUID) error {
	return r.Index.DeleteEntriesByDocument(ctx, documentID)
}

// ExtractDocumentGraph extracts entities and relationships from the
// document text with the generative provider and inserts them into the
// knowledge graph. Re-extracting the same document refreshes entity
// descriptions instead of duplicating them. Returns the number of
// entities and relationships inserted.
func (r *Retriever) ExtractDocumentGraph(ctx context.Context, workspaceID uuid.UUID, documentID *uuid.UUID, text string) (int, int, error) {
	extraction, err := r.Extractor.Extract(ctx, text)
	if err != nil {
		return 0, 0, helper.NewError("extract document graph", err)
	}

	entityIDs := map[string]uuid.UUID{}
	for _, extracted := range extraction.Entities {
		entity := &model.Entity{
			WorkspaceID: workspaceID,
			DocumentID:  documentID,
			Name:        extracted.Name,
			Type:        extracted.Type,
			Description: extracted.Description,
		}
		if err := r.Entities.InsertEntity(ctx, entity); err != nil {
			return 0, 0, helper.NewError(fmt.Sprintf("insert entity %s", extracted.Name), err)
		}
		entityIDs[extracted.Name] = entity.ID
	}

	inserted := 0
	for _, extracted := range extraction.Relationships {
		relationship := &model.Relationship{
			WorkspaceID:    workspaceID,
			SourceEntityID: entityIDs[extracted.Source],
			TargetEntityID: entityIDs[extracted.Target],
			RelationType:   extracted.RelationType,
			Weight:         extracted.Weight,
		}
		if err := r.Relationships.InsertRelationship(ctx, relationship); err != nil {
			return len(entityIDs), inserted, helper.NewError(fmt.Sprintf("insert relationship %s-%s", extracted.Source, extracted.Target), err)
		}
		inserted++
	}

	r.log.Info("Extracted document graph",
		slog.Int("entities", len(entityIDs)),
		slog.Int("relationships", inserted))

	return len(entityIDs), inserted, nil
}

// GetNeighborhood returns the entities and relationships reachable from
// the entity within depth hops, undirected. Depth is clamped to 3.
func (r *Retriever) GetNeighborhood(ctx context.Context, workspaceID uuid.UUID, entityID uuid.UUID, depth int) (*graph.NeighborhoodResult, error) {
	graphStore := &graphStore{entities: r.Entities, relationships: r.Relationships}
	return graph.Neighborhood(ctx, graphStore, workspaceID, entityID, depth)
}

// ChangeIndexType changes the vector index type between HNSW and IVFFlat
func (r *Retriever) ChangeIndexType(ctx context.Context, indexType string, params map[string]interface{}) error {
	return r.Index.ChangeIndexType(ctx, indexType, params)
}

// graphStore combines the entity and relationship handlers into the
// store the traversal reads from.
type graphStore struct {
	entities      *database.EntitiesDBHandler
	relationships *database.RelationshipsDBHandler
}

func (s *graphStore) SelectEntities(ctx context.Context, ids []uuid.UUID) ([]*model.Entity, error) {
	return s.entities.SelectEntities(ctx, ids)
}

func (s *graphStore) SelectRelationshipsTouching(ctx context.Context, workspaceID uuid.UUID, entityIDs []uuid.UUID) ([]*model.Relationship, error) {
	return s.relationships.SelectRelationshipsTouching(ctx, workspaceID, entityIDs)
}
