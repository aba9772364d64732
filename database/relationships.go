package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/siherrmann/retriever/helper"
	"github.com/siherrmann/retriever/model"
	loadSql "github.com/siherrmann/retriever/sql"
)

// RelationshipsDBHandlerFunctions defines the interface for Relationships database operations.
type RelationshipsDBHandlerFunctions interface {
	InsertRelationship(ctx context.Context, relationship *model.Relationship) error
	SelectRelationship(ctx context.Context, id uuid.UUID) (*model.Relationship, error)
	SelectRelationshipsTouching(ctx context.Context, workspaceID uuid.UUID, entityIDs []uuid.UUID) ([]*model.Relationship, error)
	DeleteRelationship(ctx context.Context, id uuid.UUID) error
}

// RelationshipsDBHandler handles relationship-related database operations
type RelationshipsDBHandler struct {
	db *helper.Database
}

// NewRelationshipsDBHandler creates a new relationships database handler.
// It initializes the database connection and loads relationship-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewRelationshipsDBHandler(db *helper.Database, force bool) (*RelationshipsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	relationshipsDbHandler := &RelationshipsDBHandler{
		db: db,
	}

	err := loadSql.LoadRelationshipsSql(relationshipsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load relationships sql", err)
	}

	err = relationshipsDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized RelationshipsDBHandler")

	return relationshipsDbHandler, nil
}

// CreateTable creates the 'knowledge_relationships' table in the database.
// If the table already exists, it does not create it again.
func (h *RelationshipsDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_relationships();`)
	if err != nil {
		log.Panicf("error initializing relationships table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table knowledge_relationships")

	return nil
}

// InsertRelationship inserts a new relationship. The weight is clamped
// to [0,1] by the store; a missing weight defaults to 1.0.
func (h *RelationshipsDBHandler) InsertRelationship(ctx context.Context, relationship *model.Relationship) error {
	row := h.db.Instance.QueryRowContext(
		ctx,
		`SELECT * FROM insert_relationship($1, $2, $3, $4, $5)`,
		relationship.WorkspaceID,
		relationship.SourceEntityID,
		relationship.TargetEntityID,
		relationship.RelationType,
		relationship.Weight,
	)

	err := row.Scan(
		&relationship.ID,
		&relationship.WorkspaceID,
		&relationship.SourceEntityID,
		&relationship.TargetEntityID,
		&relationship.RelationType,
		&relationship.Weight,
		&relationship.CreatedAt,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// SelectRelationship retrieves a relationship by ID
func (h *RelationshipsDBHandler) SelectRelationship(ctx context.Context, id uuid.UUID) (*model.Relationship, error) {
	row := h.db.Instance.QueryRowContext(
		ctx,
		`SELECT * FROM select_relationship($1)`,
		id,
	)

	relationship := &model.Relationship{}
	err := row.Scan(
		&relationship.ID,
		&relationship.WorkspaceID,
		&relationship.SourceEntityID,
		&relationship.TargetEntityID,
		&relationship.RelationType,
		&relationship.Weight,
		&relationship.CreatedAt,
	)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return relationship, nil
}

// SelectRelationshipsTouching retrieves all relationships where either
// endpoint is one of the given entities.
func (h *RelationshipsDBHandler) SelectRelationshipsTouching(ctx context.Context, workspaceID uuid.UUID, entityIDs []uuid.UUID) ([]*model.Relationship, error) {
	if len(entityIDs) == 0 {
		return nil, nil
	}

	rows, err := h.db.Instance.QueryContext(
		ctx,
		`SELECT * FROM select_relationships_touching($1, $2)`,
		workspaceID,
		pq.Array(entityIDs),
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var relationships []*model.Relationship
	for rows.Next() {
		relationship := &model.Relationship{}
		err := rows.Scan(
			&relationship.ID,
			&relationship.WorkspaceID,
			&relationship.SourceEntityID,
			&relationship.TargetEntityID,
			&relationship.RelationType,
			&relationship.Weight,
			&relationship.CreatedAt,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		relationships = append(relationships, relationship)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return relationships, nil
}

// DeleteRelationship deletes a relationship by ID
func (h *RelationshipsDBHandler) DeleteRelationship(ctx context.Context, id uuid.UUID) error {
	_, err := h.db.Instance.ExecContext(
		ctx,
		`SELECT delete_relationship($1)`,
		id,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}
