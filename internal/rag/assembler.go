package rag

import (
	"fmt"
	"strings"

	"github.com/mrhollen/knowledgebase/internal/llm"
	"github.com/mrhollen/knowledgebase/internal/models"
)

const DefaultHistoryTurns = 10

// BuildContext renders ranked articles as numbered blocks, in rank order,
// with full bodies.
func BuildContext(results []ScoredArticle) string {
	blocks := make([]string, 0, len(results))
	for i, r := range results {
		blocks = append(blocks, fmt.Sprintf("Article %d (ID: %d, Title: %s):\n%s\n",
			i+1, r.Article.ID, r.Article.Title, r.Article.Content))
	}
	return strings.Join(blocks, "\n")
}

// BuildHistory takes the trailing maxTurns messages and keeps only user and
// assistant turns, in their original order. The window is applied before the
// role filter, so fewer than maxTurns turns may come back.
func BuildHistory(messages []models.ChatMessage, maxTurns int) []llm.Turn {
	if maxTurns <= 0 {
		maxTurns = DefaultHistoryTurns
	}
	if len(messages) > maxTurns {
		messages = messages[len(messages)-maxTurns:]
	}

	turns := make([]llm.Turn, 0, len(messages))
	for _, m := range messages {
		if m.Role != models.RoleUser && m.Role != models.RoleAssistant {
			continue
		}
		turns = append(turns, llm.Turn{Role: m.Role, Content: m.Content})
	}
	return turns
}
