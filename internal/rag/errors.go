package rag

import "errors"

var (
	// ErrEmbeddingUnavailable means the embedding provider failed, so no query
	// vector exists and retrieval cannot proceed.
	ErrEmbeddingUnavailable = errors.New("embedding provider unavailable")

	// ErrGenerationUnavailable means the generation provider failed after the
	// user message was already stored.
	ErrGenerationUnavailable = errors.New("generation provider unavailable")

	ErrDimensionMismatch  = errors.New("embedding dimension mismatch")
	ErrMalformedEmbedding = errors.New("malformed stored embedding")
)
