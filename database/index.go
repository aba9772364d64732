package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/siherrmann/retriever/helper"
	"github.com/siherrmann/retriever/model"
	loadSql "github.com/siherrmann/retriever/sql"
)

// SearchIndexDBHandlerFunctions defines the interface for search index database operations.
type SearchIndexDBHandlerFunctions interface {
	UpsertEntry(ctx context.Context, entry *model.SearchEntry) error
	DeleteEntry(ctx context.Context, id uuid.UUID) error
	DeleteEntriesByDocument(ctx context.Context, documentID uuid.UUID) error
	SelectEntry(ctx context.Context, id uuid.UUID) (*model.SearchEntry, error)
	QueryLexical(ctx context.Context, workspaceID uuid.UUID, query string, filter *model.SearchFilter, limit int) ([]*model.SearchEntry, error)
	QueryVector(ctx context.Context, workspaceID uuid.UUID, embedding []float32, filter *model.SearchFilter, limit int) ([]*model.SearchEntry, error)
}

// SearchIndexDBHandler handles search index database operations. The
// retrieval engine only reads through it; the write path exists for the
// external indexing collaborator and for tests.
type SearchIndexDBHandler struct {
	db *helper.Database
}

// NewSearchIndexDBHandler creates a new search index database handler.
// It loads the index-related SQL functions and creates the table with
// the given embedding dimension. If force is true, the SQL functions
// are reloaded even if they already exist.
func NewSearchIndexDBHandler(db *helper.Database, embeddingDim int, force bool) (*SearchIndexDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	handler := &SearchIndexDBHandler{
		db: db,
	}

	err := loadSql.LoadSearchIndexSql(handler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load search index sql", err)
	}

	err = handler.CreateTable(embeddingDim)
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized SearchIndexDBHandler")

	return handler, nil
}

// CreateTable creates the 'search_index' table with all indexes.
// If the table already exists, it does not create it again.
func (h *SearchIndexDBHandler) CreateTable(embeddingDim int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_search_index($1);`, embeddingDim)
	if err != nil {
		log.Panicf("error initializing search index table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table search_index")

	return nil
}

// UpsertEntry inserts a new entry or updates the existing one for the
// same (document_id, block_id).
func (h *SearchIndexDBHandler) UpsertEntry(ctx context.Context, entry *model.SearchEntry) error {
	var embedding interface{}
	if len(entry.Embedding) > 0 {
		embedding = pgvector.NewVector(entry.Embedding)
	}

	row := h.db.Instance.QueryRowContext(
		ctx,
		`SELECT * FROM upsert_search_entry($1, $2, $3, $4, $5, $6, $7)`,
		entry.WorkspaceID,
		entry.DocumentID,
		entry.BlockID,
		entry.Content,
		entry.Title,
		embedding,
		entry.Metadata,
	)

	var embeddingOut *pgvector.Vector
	err := row.Scan(
		&entry.ID,
		&entry.WorkspaceID,
		&entry.DocumentID,
		&entry.BlockID,
		&entry.Content,
		&entry.Title,
		&embeddingOut,
		&entry.Metadata,
		&entry.CreatedAt,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}
	if embeddingOut != nil {
		entry.Embedding = embeddingOut.Slice()
	}

	return nil
}

// DeleteEntry deletes an entry by ID
func (h *SearchIndexDBHandler) DeleteEntry(ctx context.Context, id uuid.UUID) error {
	_, err := h.db.Instance.ExecContext(
		ctx,
		`SELECT delete_search_entry($1)`,
		id,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

// DeleteEntriesByDocument deletes all entries of the owning document
func (h *SearchIndexDBHandler) DeleteEntriesByDocument(ctx context.Context, documentID uuid.UUID) error {
	_, err := h.db.Instance.ExecContext(
		ctx,
		`SELECT delete_search_entries_by_document($1)`,
		documentID,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

// SelectEntry retrieves an entry by ID
func (h *SearchIndexDBHandler) SelectEntry(ctx context.Context, id uuid.UUID) (*model.SearchEntry, error) {
	row := h.db.Instance.QueryRowContext(
		ctx,
		`SELECT * FROM select_search_entry($1)`,
		id,
	)

	entry := &model.SearchEntry{}
	var embedding *pgvector.Vector
	err := row.Scan(
		&entry.ID,
		&entry.WorkspaceID,
		&entry.DocumentID,
		&entry.BlockID,
		&entry.Content,
		&entry.Title,
		&embedding,
		&entry.Metadata,
		&entry.CreatedAt,
	)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}
	if embedding != nil {
		entry.Embedding = embedding.Slice()
	}

	return entry, nil
}

// QueryLexical runs the lexical predicate scoped to the workspace and
// filter. Entries with zero token overlap are excluded by the store.
func (h *SearchIndexDBHandler) QueryLexical(ctx context.Context, workspaceID uuid.UUID, query string, filter *model.SearchFilter, limit int) ([]*model.SearchEntry, error) {
	blockTypes, createdAfter, createdBefore, properties, err := filterParams(filter)
	if err != nil {
		return nil, err
	}

	rows, err := h.db.Instance.QueryContext(
		ctx,
		`SELECT * FROM query_lexical($1, $2, $3, $4, $5, $6, $7)`,
		workspaceID,
		query,
		blockTypes,
		createdAfter,
		createdBefore,
		properties,
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var entries []*model.SearchEntry
	for rows.Next() {
		entry := &model.SearchEntry{}
		err := rows.Scan(
			&entry.ID,
			&entry.WorkspaceID,
			&entry.DocumentID,
			&entry.BlockID,
			&entry.Content,
			&entry.Title,
			&entry.Metadata,
			&entry.CreatedAt,
			&entry.LexicalScore,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		entry.Score = entry.LexicalScore

		entries = append(entries, entry)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return entries, nil
}

// QueryVector runs the vector predicate scoped to the workspace and
// filter. Only entries with a stored embedding are considered; the
// score is cosine similarity (1 - cosine distance).
func (h *SearchIndexDBHandler) QueryVector(ctx context.Context, workspaceID uuid.UUID, embedding []float32, filter *model.SearchFilter, limit int) ([]*model.SearchEntry, error) {
	if len(embedding) == 0 {
		return nil, nil
	}

	blockTypes, createdAfter, createdBefore, properties, err := filterParams(filter)
	if err != nil {
		return nil, err
	}

	rows, err := h.db.Instance.QueryContext(
		ctx,
		`SELECT * FROM query_vector($1, $2, $3, $4, $5, $6, $7)`,
		workspaceID,
		pgvector.NewVector(embedding),
		blockTypes,
		createdAfter,
		createdBefore,
		properties,
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var entries []*model.SearchEntry
	for rows.Next() {
		entry := &model.SearchEntry{}
		err := rows.Scan(
			&entry.ID,
			&entry.WorkspaceID,
			&entry.DocumentID,
			&entry.BlockID,
			&entry.Content,
			&entry.Title,
			&entry.Metadata,
			&entry.CreatedAt,
			&entry.VectorScore,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		entry.Score = entry.VectorScore

		entries = append(entries, entry)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return entries, nil
}

// ChangeIndexType changes the vector index type between HNSW and IVFFlat
// indexType: "hnsw" or "ivfflat"
// params: optional parameters for index creation
//   - For HNSW: "m" (int, default 16), "ef_construction" (int, default 64)
//   - For IVFFlat: "lists" (int, default 100)
func (h *SearchIndexDBHandler) ChangeIndexType(ctx context.Context, indexType string, params map[string]interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `DROP INDEX IF EXISTS idx_search_index_embedding;`)
	if err != nil {
		return helper.NewError("drop index", err)
	}

	h.db.Logger.Info("Dropped existing vector index")

	var createIndexSQL string

	switch indexType {
	case "hnsw":
		m := 16
		efConstruction := 64

		if mVal, ok := params["m"].(int); ok {
			m = mVal
		}
		if efVal, ok := params["ef_construction"].(int); ok {
			efConstruction = efVal
		}

		createIndexSQL = fmt.Sprintf(
			`CREATE INDEX idx_search_index_embedding ON search_index USING hnsw (embedding vector_cosine_ops) WITH (m = %d, ef_construction = %d);`,
			m, efConstruction,
		)

	case "ivfflat":
		lists := 100
		if listsVal, ok := params["lists"].(int); ok {
			lists = listsVal
		}

		createIndexSQL = fmt.Sprintf(
			`CREATE INDEX idx_search_index_embedding ON search_index USING ivfflat (embedding vector_cosine_ops) WITH (lists = %d);`,
			lists,
		)

	default:
		return helper.NewError("change index type", fmt.Errorf("unsupported index type: %s (use 'hnsw' or 'ivfflat')", indexType))
	}

	_, err = h.db.Instance.ExecContext(ctx, createIndexSQL)
	if err != nil {
		return helper.NewError("create index", err)
	}

	h.db.Logger.Info(fmt.Sprintf("Created %s index with params: %v", indexType, params))

	return nil
}

// filterParams converts a SearchFilter into the SQL function parameters.
// A nil or empty filter yields all-NULL parameters.
func filterParams(filter *model.SearchFilter) (interface{}, interface{}, interface{}, interface{}, error) {
	var blockTypes interface{}
	var createdAfter interface{}
	var createdBefore interface{}
	var properties interface{}

	if filter.IsZero() {
		return nil, nil, nil, nil, nil
	}

	if len(filter.BlockTypes) > 0 {
		blockTypes = pq.Array(filter.BlockTypes)
	}
	if filter.CreatedAfter != nil {
		createdAfter = *filter.CreatedAfter
	}
	if filter.CreatedBefore != nil {
		createdBefore = *filter.CreatedBefore
	}
	if len(filter.Properties) > 0 {
		propertiesMap := make(model.Metadata, len(filter.Properties))
		for k, v := range filter.Properties {
			propertiesMap[k] = v
		}
		propertiesJSON, err := propertiesMap.Marshal()
		if err != nil {
			return nil, nil, nil, nil, helper.NewError("marshal filter properties", err)
		}
		properties = propertiesJSON
	}

	return blockTypes, createdAfter, createdBefore, properties, nil
}
