package handlers

import (
	"net/http"

	api "github.com/mrhollen/knowledgebase/internal/api/articles"
	"github.com/mrhollen/knowledgebase/internal/service"
)

type ArticleHandler struct {
	Articles *service.ArticleService
}

func (h *ArticleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req api.ArticleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	article, err := h.Articles.Create(r.Context(), currentUser(r), articleInput(req))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, article)
}

func (h *ArticleHandler) List(w http.ResponseWriter, r *http.Request) {
	skip, limit := paging(r)
	tags := r.URL.Query()["tags"]

	articles, err := h.Articles.List(r.Context(), skip, limit, tags)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, articles)
}

func (h *ArticleHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	article, err := h.Articles.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, article)
}

func (h *ArticleHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req api.ArticleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	article, err := h.Articles.Update(r.Context(), currentUser(r), id, articleInput(req))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, article)
}

func (h *ArticleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.Articles.Delete(r.Context(), currentUser(r), id); err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func articleInput(req api.ArticleRequest) service.ArticleInput {
	return service.ArticleInput{
		Title:   req.Title,
		Content: req.Content,
		Summary: req.Summary,
		Tags:    req.Tags,
	}
}
