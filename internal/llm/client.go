package llm

import (
	"context"

	"github.com/mrhollen/knowledgebase/internal/models"
)

// Turn is one role/content pair submitted to the generation provider.
type Turn struct {
	Role    models.Role
	Content string
}

// Embedder converts text to a fixed-length vector
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Generator produces a completion for a system prompt, prior turns and a final user prompt
type Generator interface {
	Complete(ctx context.Context, systemPrompt string, history []Turn, userPrompt string, temperature float32, maxTokens int) (string, error)
}
