package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/mrhollen/knowledgebase/internal/auth"
	"github.com/mrhollen/knowledgebase/internal/db"
	"github.com/mrhollen/knowledgebase/internal/models"
	"github.com/mrhollen/knowledgebase/internal/rag"
	"github.com/mrhollen/knowledgebase/internal/service"
)

const (
	defaultSkip  = 0
	defaultLimit = 10
)

type errorResponse struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to write response: %v", err)
	}
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}

// writeError maps domain errors onto HTTP statuses. Server-side failures are
// logged and answered with a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, db.ErrNotFound):
		writeDetail(w, http.StatusNotFound, "not found")
	case errors.Is(err, db.ErrConflict):
		writeDetail(w, http.StatusConflict, "already exists")
	case errors.Is(err, service.ErrInvalidInput):
		writeDetail(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, auth.ErrNotAuthenticated):
		writeDetail(w, http.StatusUnauthorized, "not authenticated")
	case errors.Is(err, auth.ErrForbidden):
		writeDetail(w, http.StatusForbidden, "not authorized")
	case errors.Is(err, rag.ErrEmbeddingUnavailable):
		log.Printf("%s %s: %v", r.Method, r.URL.Path, err)
		writeDetail(w, http.StatusServiceUnavailable, "embedding service unavailable")
	case errors.Is(err, rag.ErrGenerationUnavailable):
		log.Printf("%s %s: %v", r.Method, r.URL.Path, err)
		writeDetail(w, http.StatusBadGateway, "generation service unavailable")
	default:
		log.Printf("%s %s: %v", r.Method, r.URL.Path, err)
		writeDetail(w, http.StatusInternalServerError, "internal server error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request payload")
		return false
	}
	return true
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid %s", service.ErrInvalidInput, name)
	}
	return id, nil
}

func paging(r *http.Request) (skip, limit int) {
	query := r.URL.Query()

	skip, err := strconv.Atoi(query.Get("skip"))
	if err != nil || skip < 0 {
		skip = defaultSkip
	}
	limit, err = strconv.Atoi(query.Get("limit"))
	if err != nil || limit <= 0 {
		limit = defaultLimit
	}
	return skip, limit
}

// currentUser is only valid behind auth.RequireUser.
func currentUser(r *http.Request) *models.User {
	user, _ := auth.UserFromContext(r.Context())
	return user
}
