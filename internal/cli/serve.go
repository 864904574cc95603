package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mrhollen/knowledgebase/internal/auth"
	"github.com/mrhollen/knowledgebase/internal/handlers"
	"github.com/mrhollen/knowledgebase/internal/service"
)

const sessionSweepInterval = 10 * time.Minute

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	authenticator := auth.NewSessionAuthenticator(a.store, a.store, auth.SessionOptions{
		CookieName: cfg.Sessions.CookieName,
		TTL:        cfg.Sessions.TTL,
		Secure:     cfg.Sessions.Secure,
	})

	router := handlers.NewRouter(handlers.Handlers{
		Articles: &handlers.ArticleHandler{Articles: a.articles},
		Search:   &handlers.SearchHandler{Articles: a.articles, DefaultTopK: cfg.Retrieval.DefaultTopK},
		Upload:   &handlers.UploadHandler{Articles: a.articles},
		Comments: &handlers.CommentHandler{Comments: service.NewCommentService(a.store, a.store)},
		Chat:     &handlers.ChatHandler{Sessions: service.NewChatSessionService(a.store, a.chat)},
		Users:    &handlers.UserHandler{Users: service.NewUserService(a.store), Auth: authenticator},
		Auth:     authenticator,

		AllowedOrigins: cfg.Server.AllowedOrigins,
	})

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go sweepSessions(ctx, a)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("knowledge base server is running on %s", server.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Println("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

func sweepSessions(ctx context.Context, a *app) {
	ticker := time.NewTicker(sessionSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := a.store.DeleteExpiredUserSessions(ctx, time.Now())
			if err != nil {
				log.Printf("failed to delete expired sessions: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("deleted %d expired sessions", n)
			}
		}
	}
}
