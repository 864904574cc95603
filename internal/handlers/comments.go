package handlers

import (
	"net/http"

	api "github.com/mrhollen/knowledgebase/internal/api/comments"
	"github.com/mrhollen/knowledgebase/internal/service"
)

type CommentHandler struct {
	Comments *service.CommentService
}

func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req api.CommentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	comment, err := h.Comments.Create(r.Context(), currentUser(r), req.ArticleID, req.Content)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, comment)
}

func (h *CommentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	comment, err := h.Comments.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, comment)
}

func (h *CommentHandler) ListForArticle(w http.ResponseWriter, r *http.Request) {
	articleID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	skip, limit := paging(r)

	comments, err := h.Comments.ListForArticle(r.Context(), articleID, skip, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, comments)
}

func (h *CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req api.ReplyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	comment, err := h.Comments.Update(r.Context(), currentUser(r), id, req.Content)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, comment)
}

func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.Comments.Delete(r.Context(), currentUser(r), id); err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *CommentHandler) CreateReply(w http.ResponseWriter, r *http.Request) {
	commentID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req api.ReplyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	reply, err := h.Comments.CreateReply(r.Context(), currentUser(r), commentID, req.Content)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, reply)
}

func (h *CommentHandler) ListReplies(w http.ResponseWriter, r *http.Request) {
	commentID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	skip, limit := paging(r)

	replies, err := h.Comments.ListReplies(r.Context(), commentID, skip, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, replies)
}

func (h *CommentHandler) GetReply(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	reply, err := h.Comments.GetReply(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, reply)
}

func (h *CommentHandler) UpdateReply(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req api.ReplyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	reply, err := h.Comments.UpdateReply(r.Context(), currentUser(r), id, req.Content)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, reply)
}

func (h *CommentHandler) DeleteReply(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.Comments.DeleteReply(r.Context(), currentUser(r), id); err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
