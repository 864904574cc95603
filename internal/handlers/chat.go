package handlers

import (
	"net/http"

	api "github.com/mrhollen/knowledgebase/internal/api/chat"
	"github.com/mrhollen/knowledgebase/internal/service"
)

type ChatHandler struct {
	Sessions *service.ChatSessionService
}

func (h *ChatHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req api.CreateSessionRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}

	session, err := h.Sessions.Create(r.Context(), currentUser(r), req.Title)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, session)
}

func (h *ChatHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.Sessions.List(r.Context(), currentUser(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, sessions)
}

func (h *ChatHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	session, err := h.Sessions.Get(r.Context(), currentUser(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

func (h *ChatHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.Sessions.Delete(r.Context(), currentUser(r), id); err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *ChatHandler) Messages(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	messages, err := h.Sessions.Messages(r.Context(), currentUser(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messages)
}

// SendMessage runs one grounded chat turn. A 502 or 503 means the question
// was stored but no answer exists.
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req api.SendMessageRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	reply, sources, err := h.Sessions.Send(r.Context(), currentUser(r), id, req.Message)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if sources == nil {
		sources = []int64{}
	}
	writeJSON(w, http.StatusCreated, api.SendMessageResponse{
		Message: reply,
		Sources: sources,
	})
}
