package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/lichenway/newsdesk/backend/internal/config"
	"github.com/lichenway/newsdesk/backend/internal/handler"
	"github.com/lichenway/newsdesk/backend/internal/hub"
	"github.com/lichenway/newsdesk/backend/internal/model/prefs"
	agentservice "github.com/lichenway/newsdesk/backend/internal/service/agent"
	"github.com/lichenway/newsdesk/backend/internal/service/chat"
	"github.com/lichenway/newsdesk/backend/internal/service/session"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	store := chat.NewStore()
	registry := session.NewRegistry(prefs.Questions())

	// Initialize the news agent backend
	var turner agentservice.Turner
	if cfg.AI.Enabled() {
		agentSvc, err := agentservice.NewService(ctx, cfg.AI)
		if err != nil {
			log.Printf("warning: failed to initialize news agent: %v", err)
			log.Println("continuing without AI functionality - check the Ark model environment variables")
		} else {
			turner = agentSvc
			log.Println("news agent initialized successfully")
		}
	} else {
		log.Println("Ark credentials not configured, skipping news agent initialization")
	}

	chatHub := hub.New(store, registry, turner, cfg.Relay.BotDelay)
	router := handler.NewRouter(chatHub)

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("Newsdesk relay listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
