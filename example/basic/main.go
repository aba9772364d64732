package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/siherrmann/retriever"
	"github.com/siherrmann/retriever/core/provider"
	"github.com/siherrmann/retriever/helper"
	"github.com/siherrmann/retriever/model"
)

const sampleContent = `PostgreSQL is an advanced open source relational database.
The pgvector extension adds vector similarity search to PostgreSQL,
which makes it possible to combine full-text ranking and embedding
based retrieval in a single store. Reciprocal rank fusion merges the
two result lists into one ranking.`

func main() {
	ctx := context.Background()

	// Start a test PostgreSQL container
	teardown, dbPort, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer teardown(ctx)

	// Create database configuration using the container port
	dbConfig := &helper.DatabaseConfiguration{
		Host:     "localhost",
		Port:     dbPort,
		Database: "retriever_test",
		Username: "retriever",
		Password: "retriever",
		Schema:   "public",
	}

	// Local MiniLM embeddings, downloaded into the model cache on first run
	embedder, err := provider.NewHugotEmbedder()
	if err != nil {
		log.Fatalf("Failed to create embedder: %v", err)
	}

	// Optional generative provider; without an API key the engine
	// degrades to extractive answers
	_ = godotenv.Load()
	generativeConfig := &provider.GenerativeConfig{
		Provider: provider.GenerativeClaude,
		APIKey:   os.Getenv("ANTHROPIC_API_KEY"),
	}

	r, err := retriever.NewRetriever(ctx, dbConfig, embedder, generativeConfig)
	if err != nil {
		log.Fatalf("Failed to create retriever: %v", err)
	}
	defer r.Close()

	workspaceID := uuid.New()
	documentID := uuid.New()

	// Index a document block
	entry := &model.SearchEntry{
		WorkspaceID: workspaceID,
		DocumentID:  documentID,
		Content:     sampleContent,
		Title:       "PostgreSQL and pgvector",
	}
	if err := r.IndexEntry(ctx, entry); err != nil {
		log.Fatalf("Failed to index entry: %v", err)
	}

	// Build the knowledge graph from the same text (no-op without a
	// generative provider)
	entities, relationships, err := r.ExtractDocumentGraph(ctx, workspaceID, &documentID, sampleContent)
	if err != nil {
		log.Fatalf("Failed to extract document graph: %v", err)
	}
	fmt.Printf("Extracted %d entities and %d relationships\n", entities, relationships)

	// Ask a question; mode auto routes between hybrid and graph retrieval
	result, err := r.KnowledgeQuery(ctx, "how does pgvector relate to PostgreSQL", workspaceID, model.ModeAuto, 5)
	if err != nil {
		log.Fatalf("Knowledge query failed: %v", err)
	}

	fmt.Printf("Mode: %s (%s)\n", result.ModeUsed, result.RoutingReason)
	fmt.Printf("Answer: %s\n", result.Answer)
	for i, source := range result.Sources {
		fmt.Printf("Source %d [%s, %.3f]: %s\n", i+1, source.SourceType, source.Score, source.Title)
	}

	// The same query as a token stream
	events, err := r.KnowledgeQueryStream(ctx, "how does pgvector relate to PostgreSQL", workspaceID, model.ModeHybrid, 5)
	if err != nil {
		log.Fatalf("Knowledge query stream failed: %v", err)
	}
	for event := range events {
		if event.Type == model.StreamEventToken {
			fmt.Print(event.Token)
		}
	}
	fmt.Println()
}
