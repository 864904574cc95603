package importer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/mrhollen/knowledgebase/internal/models"
	"github.com/mrhollen/knowledgebase/internal/rag"
	"github.com/mrhollen/knowledgebase/internal/service"
)

type fakeArticles struct {
	mu       sync.Mutex
	inputs   []service.ArticleInput
	unindex  bool
	nextID   int64
	authorID int64
}

func (f *fakeArticles) Import(ctx context.Context, authorID int64, in service.ArticleInput) (*models.Article, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	f.authorID = authorID
	f.inputs = append(f.inputs, in)
	return &models.Article{ID: f.nextID, Title: in.Title, Content: in.Content, AuthorID: authorID}, !f.unindex, nil
}

func (f *fakeArticles) titles() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	var titles []string
	for _, in := range f.inputs {
		titles = append(titles, in.Title)
	}
	sort.Strings(titles)
	return titles
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
}

func TestImporter_Match(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.md"), "# A")
	writeFile(t, filepath.Join(dir, "notes.TXT"), "plain")
	writeFile(t, filepath.Join(dir, "data.json"), "{}")
	writeFile(t, filepath.Join(dir, "nested", "deep", "b.md"), "# B")
	if err := os.MkdirAll(filepath.Join(dir, "folder.md"), 0755); err != nil {
		t.Fatal(err)
	}

	imp := New(&fakeArticles{}, 1, nil, nil)

	files, err := imp.Match(filepath.Join(dir, "**", "*"))
	if err != nil {
		t.Fatalf("match failed: %v", err)
	}
	if len(files) != 3 {
		t.Errorf("expected 3 supported files, got %v", files)
	}

	files, _ = imp.Match(filepath.Join(dir, "**", "*.md"))
	if len(files) != 2 {
		t.Errorf("expected 2 markdown files, got %v", files)
	}

	if _, err := imp.Match("docs/[unclosed"); err == nil {
		t.Error("should reject an invalid pattern")
	}
}

func TestImporter_ImportGlob(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "guide.md"), "# Deployment Guide\n\nShip it.")
	writeFile(t, filepath.Join(dir, "release_notes.txt"), "Version 2 fixes bugs.")
	writeFile(t, filepath.Join(dir, "empty.md"), "   ")

	articles := &fakeArticles{}
	imp := New(articles, 42, nil, []string{"docs"})

	var calls int
	report, err := imp.ImportGlob(context.Background(), filepath.Join(dir, "*"), func(done, total int, result Result) {
		calls++
		if total != 3 {
			t.Errorf("expected total 3, got %d", total)
		}
	})
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}

	if report.Matched != 3 || report.Imported != 2 || len(report.Failed) != 1 {
		t.Errorf("unexpected report: %+v", report)
	}
	if calls != 3 {
		t.Errorf("expected 3 progress calls, got %d", calls)
	}
	if _, ok := report.Failed[filepath.Join(dir, "empty.md")]; !ok {
		t.Errorf("empty file should be reported as failed: %v", report.Failed)
	}

	titles := articles.titles()
	if len(titles) != 2 || titles[0] != "Deployment Guide" || titles[1] != "release notes" {
		t.Errorf("unexpected titles: %v", titles)
	}
	if articles.authorID != 42 {
		t.Errorf("expected author 42, got %d", articles.authorID)
	}
	if tags := articles.inputs[0].Tags; len(tags) != 1 || tags[0] != "docs" {
		t.Errorf("expected tags [docs], got %v", tags)
	}
}

func TestImporter_CountsUnindexed(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.md"), "alpha")

	imp := New(&fakeArticles{unindex: true}, 1, nil, nil)
	report, err := imp.ImportGlob(context.Background(), filepath.Join(dir, "*.md"), nil)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if report.Imported != 1 || report.Unindexed != 1 {
		t.Errorf("unexpected report: %+v", report)
	}
}

type failingArticles struct{}

func (failingArticles) Import(ctx context.Context, authorID int64, in service.ArticleInput) (*models.Article, bool, error) {
	return nil, false, errors.New("database is locked")
}

func TestImporter_ImportFileError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.md")
	writeFile(t, path, "alpha")

	result := New(failingArticles{}, 1, nil, nil).ImportFile(context.Background(), path)
	if result.Err == nil {
		t.Fatal("expected store error")
	}
	if errors.Is(result.Err, rag.ErrEmbeddingUnavailable) {
		t.Error("store failure should not look like an embedding outage")
	}
}

func TestWatcher_ImportsCreatedFiles(t *testing.T) {
	dir := t.TempDir()
	articles := &fakeArticles{}
	watcher := NewWatcher(New(articles, 1, []string{".md"}, nil), 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	results := make(chan Result, 10)
	done := make(chan error, 1)
	go func() {
		done <- watcher.Watch(ctx, dir, func(r Result) { results <- r })
	}()

	time.Sleep(100 * time.Millisecond)
	writeFile(t, filepath.Join(dir, "ignored.json"), "{}")
	writeFile(t, filepath.Join(dir, "new.md"), "# Fresh Note\n\nbody")

	select {
	case r := <-results:
		if r.Err != nil {
			t.Fatalf("import failed: %v", r.Err)
		}
		if r.Article.Title != "Fresh Note" {
			t.Errorf("unexpected title: %s", r.Article.Title)
		}
	case <-ctx.Done():
		t.Fatal("timeout waiting for import")
	}

	select {
	case r := <-results:
		t.Errorf("expected a single import, got another for %s", r.Path)
	case <-time.After(300 * time.Millisecond):
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("watch returned error: %v", err)
	}
}
