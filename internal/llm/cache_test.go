package llm

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

type countingEmbedder struct {
	calls int
	err   error
}

func (e *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	return []float32{float32(len(text)), 1}, nil
}

func TestCachedEmbedder_HitsCacheOnRepeat(t *testing.T) {
	next := &countingEmbedder{}
	cache, err := NewCachedEmbedder(next, filepath.Join(t.TempDir(), "cache.db"), "model-a")
	if err != nil {
		t.Fatalf("failed to open cache: %v", err)
	}
	defer cache.Close()

	ctx := context.Background()
	first, err := cache.Embed(ctx, "hello")
	if err != nil {
		t.Fatalf("embed failed: %v", err)
	}
	second, err := cache.Embed(ctx, "hello")
	if err != nil {
		t.Fatalf("embed failed: %v", err)
	}

	if next.calls != 1 {
		t.Errorf("expected 1 provider call, got %d", next.calls)
	}
	if len(first) != len(second) || first[0] != second[0] {
		t.Errorf("cached vector differs: %v vs %v", first, second)
	}

	n, _ := cache.Len()
	if n != 1 {
		t.Errorf("expected 1 cached entry, got %d", n)
	}
}

func TestCachedEmbedder_KeyIncludesModel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	next := &countingEmbedder{}

	a, err := NewCachedEmbedder(next, path, "model-a")
	if err != nil {
		t.Fatalf("failed to open cache: %v", err)
	}
	a.Embed(context.Background(), "hello")
	a.Close()

	b, err := NewCachedEmbedder(next, path, "model-b")
	if err != nil {
		t.Fatalf("failed to reopen cache: %v", err)
	}
	defer b.Close()
	b.Embed(context.Background(), "hello")

	if next.calls != 2 {
		t.Errorf("different models should not share entries, got %d calls", next.calls)
	}
}

func TestCachedEmbedder_DoesNotCacheErrors(t *testing.T) {
	next := &countingEmbedder{err: errors.New("quota exceeded")}
	cache, err := NewCachedEmbedder(next, filepath.Join(t.TempDir(), "cache.db"), "m")
	if err != nil {
		t.Fatalf("failed to open cache: %v", err)
	}
	defer cache.Close()

	if _, err := cache.Embed(context.Background(), "x"); err == nil {
		t.Fatal("expected provider error")
	}
	if _, err := cache.Embed(context.Background(), "x"); err == nil {
		t.Fatal("expected provider error on retry")
	}
	if next.calls != 2 {
		t.Errorf("errors must not be cached, got %d calls", next.calls)
	}
}
