package cli

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/mrhollen/knowledgebase/internal/config"
	"github.com/mrhollen/knowledgebase/internal/models"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	dir := t.TempDir()
	c := config.DefaultConfig()
	c.Database.DSN = filepath.Join(dir, "cli.db")
	c.LLM.APIKey = "test-key"
	c.EmbeddingCache.Path = filepath.Join(dir, "embeddings.db")
	return c
}

func TestNewApp(t *testing.T) {
	a, err := newApp(testConfig(t))
	if err != nil {
		t.Fatalf("failed to build app: %v", err)
	}
	defer a.Close()

	if a.cache == nil {
		t.Error("embedding cache should be enabled when a path is set")
	}
	if a.articles == nil || a.chat == nil || a.retriever == nil {
		t.Error("services should be wired")
	}
}

func TestNewApp_RejectsUnknownDriver(t *testing.T) {
	c := testConfig(t)
	c.Database.Driver = "mysql"

	if _, err := newApp(c); err == nil {
		t.Error("should reject unknown driver")
	}
}

func TestApp_AuthorID(t *testing.T) {
	c := testConfig(t)
	a, err := newApp(c)
	if err != nil {
		t.Fatalf("failed to build app: %v", err)
	}
	defer a.Close()

	ctx := context.Background()
	user, err := a.store.CreateUser(ctx, models.User{Username: "ops", Email: "ops@example.com", HashedPassword: "x", Role: models.UserRoleUser})
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	id, err := a.authorID(ctx, "ops")
	if err != nil || id != user.ID {
		t.Errorf("expected %d, got %d (%v)", user.ID, id, err)
	}

	if _, err := a.authorID(ctx, "nobody"); err == nil {
		t.Error("should fail for an unknown user")
	}
	if _, err := a.authorID(ctx, ""); err == nil {
		t.Error("should fail without an author")
	}

	c.Importer.Author = "ops"
	if id, err := a.authorID(ctx, ""); err != nil || id != user.ID {
		t.Errorf("should fall back to importer.author, got %d (%v)", id, err)
	}
}

func TestPreview(t *testing.T) {
	if got := preview("short  text\nhere", 50); got != "short text here" {
		t.Errorf("unexpected preview: %q", got)
	}
	if got := preview("abcdefghij", 4); got != "abcd..." {
		t.Errorf("unexpected truncation: %q", got)
	}
}
