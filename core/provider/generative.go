package provider

import (
	"context"
	"fmt"
)

// GenerativeType represents the generative model provider type
type GenerativeType string

const (
	// GenerativeClaude uses the Anthropic Claude API
	GenerativeClaude GenerativeType = "claude"
	// GenerativeGemini uses the Google Gemini API
	GenerativeGemini GenerativeType = "gemini"
)

// GenerativeProvider produces prose from a prompt. Callers must treat a
// failing provider as degradable; the synthesizer falls back to
// returning the retrieved context verbatim.
type GenerativeProvider interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Type() GenerativeType
}

// GenerativeConfig selects and configures a generative provider.
type GenerativeConfig struct {
	Provider  GenerativeType
	APIKey    string
	Model     string
	MaxTokens int
}

// NewGenerativeProvider creates the configured provider. An empty API
// key returns nil without error so the engine runs in extractive mode.
func NewGenerativeProvider(ctx context.Context, config *GenerativeConfig) (GenerativeProvider, error) {
	if config == nil || config.APIKey == "" {
		return nil, nil
	}

	switch config.Provider {
	case GenerativeClaude:
		return NewClaudeProvider(config.APIKey, config.Model, config.MaxTokens), nil
	case GenerativeGemini:
		return NewGeminiProvider(ctx, config.APIKey, config.Model)
	default:
		return nil, fmt.Errorf("unsupported generative provider: %s (use 'claude' or 'gemini')", config.Provider)
	}
}
