package rag

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/pgvector/pgvector-go"
)

// EncodeVector renders vec as a pgvector text literal, e.g. "[0.1,0.2,0.3]".
// The same text is valid for a Postgres vector column and a SQLite TEXT column.
func EncodeVector(vec []float32) (string, error) {
	if len(vec) == 0 {
		return "", errors.New("cannot encode an empty vector")
	}

	value, err := pgvector.NewVector(vec).Value()
	if err != nil {
		return "", fmt.Errorf("failed to encode vector: %w", err)
	}

	text, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("unexpected vector encoding %T", value)
	}

	return text, nil
}

// DecodeVector parses a stored embedding. Any text that is not a non-empty
// bracketed list of finite numbers fails with ErrMalformedEmbedding.
func DecodeVector(text string) ([]float32, error) {
	text = strings.TrimSpace(text)
	if len(text) < 3 || text[0] != '[' || text[len(text)-1] != ']' {
		return nil, fmt.Errorf("%w: %q", ErrMalformedEmbedding, truncate(text, 32))
	}

	var v pgvector.Vector
	if err := v.Scan(text); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedEmbedding, err)
	}

	vec := v.Slice()
	for i, x := range vec {
		if math.IsNaN(float64(x)) || math.IsInf(float64(x), 0) {
			return nil, fmt.Errorf("%w: component %d is not finite", ErrMalformedEmbedding, i)
		}
	}

	return vec, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
