package handlers

import (
	"net/http"
	"strconv"

	api "github.com/mrhollen/knowledgebase/internal/api/search"
	"github.com/mrhollen/knowledgebase/internal/service"
)

type SearchHandler struct {
	Articles    *service.ArticleService
	DefaultTopK int
}

func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	queryString := query.Get("query")
	if queryString == "" {
		writeDetail(w, http.StatusBadRequest, "query is required")
		return
	}

	topK := h.DefaultTopK
	if topK <= 0 {
		topK = 5
	}
	if raw := query.Get("top_k"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeDetail(w, http.StatusBadRequest, "top_k must be a positive integer")
			return
		}
		topK = n
	}

	results, err := h.Articles.Search(r.Context(), queryString, topK)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response := api.SearchResponse{
		Query:   queryString,
		Results: []api.SearchResult{},
	}
	for _, result := range results {
		response.Results = append(response.Results, api.SearchResult{
			Article: result.Article,
			Score:   result.Score,
		})
	}

	writeJSON(w, http.StatusOK, response)
}
