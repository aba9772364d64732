package provider

import (
	"context"
	"fmt"

	"github.com/knights-analytics/hugot"
	"github.com/siherrmann/retriever/helper"
)

// EmbeddingProvider turns text into a fixed-length vector. A failing or
// unconfigured provider is never fatal: callers degrade to an empty
// vector and pure lexical ranking.
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}

// HugotEmbedder runs a local sentence transformer model through hugot.
type HugotEmbedder struct {
	pipeline  func(text string) ([]float32, error)
	dimension int
}

// NewHugotEmbedder creates an embedder using the all-MiniLM-L6-v2
// sentence transformer model (384 dimensions), downloading it into the
// local model cache on first use.
func NewHugotEmbedder() (*HugotEmbedder, error) {
	modelName := "sentence-transformers/all-MiniLM-L6-v2"
	modelPath, err := helper.PrepareModel(modelName)
	if err != nil {
		return nil, err
	}

	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create hugot session: %w", err)
	}

	config := hugot.FeatureExtractionConfig{
		ModelPath: modelPath,
		Name:      "embedder-pipeline",
	}
	sentencePipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			return nil, fmt.Errorf("failed to create sentence pipeline: %w (cleanup error: %v)", err, destroyErr)
		}
		return nil, fmt.Errorf("failed to create sentence pipeline: %w", err)
	}

	return &HugotEmbedder{
		pipeline: func(text string) ([]float32, error) {
			result, err := sentencePipeline.RunPipeline([]string{text})
			if err != nil {
				return nil, fmt.Errorf("failed to generate embedding: %w", err)
			}

			if len(result.Embeddings) == 0 {
				return nil, fmt.Errorf("no embedding generated")
			}

			return result.Embeddings[0], nil
		},
		dimension: 384,
	}, nil
}

// Embed generates an embedding for the given text.
func (e *HugotEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.pipeline(text)
}

// Dimension returns the embedding dimension of the model.
func (e *HugotEmbedder) Dimension() int {
	return e.dimension
}
