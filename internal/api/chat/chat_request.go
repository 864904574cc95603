package api

import "github.com/mrhollen/knowledgebase/internal/models"

type CreateSessionRequest struct {
	Title *string `json:"title"`
}

type SendMessageRequest struct {
	Message string `json:"message"`
}

type SendMessageResponse struct {
	Message *models.ChatMessage `json:"message"`
	Sources []int64             `json:"sources"`
}
