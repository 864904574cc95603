// Package importer turns files on disk into knowledge base articles.
package importer

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/mrhollen/knowledgebase/internal/models"
	"github.com/mrhollen/knowledgebase/internal/parsing"
	"github.com/mrhollen/knowledgebase/internal/service"
)

var defaultExtensions = []string{".md", ".txt", ".pdf"}

type articleImporter interface {
	Import(ctx context.Context, authorID int64, in service.ArticleInput) (*models.Article, bool, error)
}

// Result describes what happened to one file.
type Result struct {
	Path    string
	Article *models.Article
	Indexed bool
	Err     error
}

type Report struct {
	Matched   int
	Imported  int
	Unindexed int
	Failed    map[string]error
}

type Importer struct {
	articles   articleImporter
	authorID   int64
	extensions []string
	tags       []string
}

func New(articles articleImporter, authorID int64, extensions []string, tags []string) *Importer {
	if len(extensions) == 0 {
		extensions = defaultExtensions
	}

	return &Importer{
		articles:   articles,
		authorID:   authorID,
		extensions: extensions,
		tags:       tags,
	}
}

// Match expands a doublestar pattern such as "docs/**/*.md" into the regular
// files it names that carry a supported extension.
func (i *Importer) Match(pattern string) ([]string, error) {
	if !doublestar.ValidatePathPattern(pattern) {
		return nil, fmt.Errorf("invalid glob pattern %q", pattern)
	}

	matches, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to expand %q: %w", pattern, err)
	}

	var files []string
	for _, path := range matches {
		if !i.Supported(path) {
			continue
		}
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		files = append(files, path)
	}
	return files, nil
}

func (i *Importer) Supported(path string) bool {
	ext := filepath.Ext(path)
	for _, e := range i.extensions {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}

// ImportFile stores one file as an article. When the embedding provider is
// down the article is still stored, with Indexed false.
func (i *Importer) ImportFile(ctx context.Context, path string) Result {
	result := Result{Path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		result.Err = fmt.Errorf("failed to read %s: %w", path, err)
		return result
	}

	doc, err := parsing.ExtractDocument(path, data)
	if err != nil {
		result.Err = err
		return result
	}

	result.Article, result.Indexed, result.Err = i.articles.Import(ctx, i.authorID, service.ArticleInput{
		Title:   doc.Title,
		Content: doc.Content,
		Tags:    i.tags,
	})
	return result
}

// ImportGlob imports every file matching pattern. A file that fails is
// recorded in the report and does not stop the run. progress, if set, is
// called after each file.
func (i *Importer) ImportGlob(ctx context.Context, pattern string, progress func(done, total int, result Result)) (*Report, error) {
	files, err := i.Match(pattern)
	if err != nil {
		return nil, err
	}

	report := &Report{Matched: len(files), Failed: map[string]error{}}
	for n, path := range files {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		result := i.ImportFile(ctx, path)
		switch {
		case result.Err != nil:
			log.Printf("failed to import %s: %v", path, result.Err)
			report.Failed[path] = result.Err
		case !result.Indexed:
			report.Imported++
			report.Unindexed++
		default:
			report.Imported++
		}

		if progress != nil {
			progress(n+1, len(files), result)
		}
	}

	return report, nil
}
