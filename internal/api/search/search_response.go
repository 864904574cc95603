package api

import "github.com/mrhollen/knowledgebase/internal/models"

type SearchResult struct {
	models.Article
	Score float64 `json:"score"`
}

type SearchResponse struct {
	Query   string         `json:"query"`
	Results []SearchResult `json:"results"`
}
