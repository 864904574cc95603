package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/mrhollen/knowledgebase/internal/auth"
	"github.com/mrhollen/knowledgebase/internal/models"
)

type Handlers struct {
	Articles *ArticleHandler
	Search   *SearchHandler
	Upload   *UploadHandler
	Comments *CommentHandler
	Chat     *ChatHandler
	Users    *UserHandler
	Auth     *auth.SessionAuthenticator

	AllowedOrigins []string
}

func NewRouter(h Handlers) http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/health", Health).Methods(http.MethodGet)

	protect := func(f http.HandlerFunc) http.Handler {
		return h.Auth.RequireUser(f)
	}
	admin := func(f http.HandlerFunc) http.Handler {
		return h.Auth.RequireUser(auth.RequireRole(models.UserRoleAdmin)(f))
	}

	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/auth/register", h.Users.Register).Methods(http.MethodPost)
	api.HandleFunc("/auth/signup", h.Users.Register).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", h.Users.Login).Methods(http.MethodPost)
	api.HandleFunc("/auth/logout", h.Users.Logout).Methods(http.MethodPost)

	api.Handle("/users/me", protect(h.Users.Me)).Methods(http.MethodGet)
	api.Handle("/users", admin(h.Users.List)).Methods(http.MethodGet)
	api.HandleFunc("/users/{id:[0-9]+}", h.Users.Get).Methods(http.MethodGet)
	api.Handle("/users/{id:[0-9]+}/role", admin(h.Users.UpdateRole)).Methods(http.MethodPut, http.MethodPatch)

	api.HandleFunc("/articles", h.Articles.List).Methods(http.MethodGet)
	api.Handle("/articles", protect(h.Articles.Create)).Methods(http.MethodPost)
	api.HandleFunc("/articles/search", h.Search.Search).Methods(http.MethodGet)
	api.Handle("/articles/upload", protect(h.Upload.UploadFile)).Methods(http.MethodPost)
	api.HandleFunc("/articles/{id:[0-9]+}", h.Articles.Get).Methods(http.MethodGet)
	api.Handle("/articles/{id:[0-9]+}", protect(h.Articles.Update)).Methods(http.MethodPut)
	api.Handle("/articles/{id:[0-9]+}", protect(h.Articles.Delete)).Methods(http.MethodDelete)
	api.HandleFunc("/articles/{id:[0-9]+}/comments", h.Comments.ListForArticle).Methods(http.MethodGet)

	api.Handle("/comments", protect(h.Comments.Create)).Methods(http.MethodPost)
	api.HandleFunc("/comments/{id:[0-9]+}", h.Comments.Get).Methods(http.MethodGet)
	api.Handle("/comments/{id:[0-9]+}", protect(h.Comments.Update)).Methods(http.MethodPut)
	api.Handle("/comments/{id:[0-9]+}", protect(h.Comments.Delete)).Methods(http.MethodDelete)
	api.HandleFunc("/comments/{id:[0-9]+}/replies", h.Comments.ListReplies).Methods(http.MethodGet)
	api.Handle("/comments/{id:[0-9]+}/replies", protect(h.Comments.CreateReply)).Methods(http.MethodPost)
	for _, prefix := range []string{"/replies", "/comments/replies"} {
		api.HandleFunc(prefix+"/{id:[0-9]+}", h.Comments.GetReply).Methods(http.MethodGet)
		api.Handle(prefix+"/{id:[0-9]+}", protect(h.Comments.UpdateReply)).Methods(http.MethodPut)
		api.Handle(prefix+"/{id:[0-9]+}", protect(h.Comments.DeleteReply)).Methods(http.MethodDelete)
	}

	api.Handle("/chat/sessions", protect(h.Chat.CreateSession)).Methods(http.MethodPost)
	api.Handle("/chat/sessions", protect(h.Chat.ListSessions)).Methods(http.MethodGet)
	api.Handle("/chat/sessions/{id:[0-9]+}", protect(h.Chat.GetSession)).Methods(http.MethodGet)
	api.Handle("/chat/sessions/{id:[0-9]+}", protect(h.Chat.DeleteSession)).Methods(http.MethodDelete)
	api.Handle("/chat/sessions/{id:[0-9]+}/messages", protect(h.Chat.Messages)).Methods(http.MethodGet)
	api.Handle("/chat/sessions/{id:[0-9]+}/messages", protect(h.Chat.SendMessage)).Methods(http.MethodPost)

	router.Use(logRequests)

	origins := h.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	return c.Handler(router)
}

func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Printf("%s %s %d %s", r.Method, r.URL.Path, rec.status, time.Since(start).Round(time.Millisecond))
	})
}
