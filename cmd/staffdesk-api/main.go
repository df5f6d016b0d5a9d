package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/PabloGalante/staffdesk/internal/adapters/docenc"
	httpadapter "github.com/PabloGalante/staffdesk/internal/adapters/http"
	"github.com/PabloGalante/staffdesk/internal/adapters/llm"
	firestorestore "github.com/PabloGalante/staffdesk/internal/adapters/storage/firestore"
	memstore "github.com/PabloGalante/staffdesk/internal/adapters/storage/memory"
	sqlitestore "github.com/PabloGalante/staffdesk/internal/adapters/storage/sqlite"
	"github.com/PabloGalante/staffdesk/internal/app/brainstorm"
	"github.com/PabloGalante/staffdesk/internal/app/conversation"
	"github.com/PabloGalante/staffdesk/internal/app/minutes"
	"github.com/PabloGalante/staffdesk/internal/app/router"
	"github.com/PabloGalante/staffdesk/internal/config"
	"github.com/PabloGalante/staffdesk/internal/domain"
	"github.com/PabloGalante/staffdesk/internal/observability"
)

func main() {
	log := observability.Logger()

	if err := godotenv.Load(); err != nil {
		log.Info("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	observability.SetLevel(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	seed, err := config.LoadWorkspace(cfg.WorkspaceFile)
	if err != nil {
		log.Error("failed to load workspace", "error", err)
		os.Exit(1)
	}
	ws := memstore.NewWorkspace(seed)
	log.Info("workspace loaded", "company", seed.Company.Name, "employees", len(seed.Employees), "projects", len(seed.Projects))

	// Choose between mock and Gemini by config (useful for dev)
	var gateway domain.ModelGateway
	if cfg.UseMockLLM {
		log.Info("using mock model gateway")
		gateway = llm.NewMockLLM()
	} else {
		log.Info("using gemini model gateway", "model", cfg.ModelName)
		gateway, err = llm.NewGeminiClient(ctx, llm.GeminiConfig{
			APIKey:     cfg.GeminiAPIKey,
			Project:    cfg.GCPProjectID,
			Location:   cfg.GCPLocation,
			Model:      cfg.ModelName,
			ImageModel: cfg.ImageModel,
		})
		if err != nil {
			log.Error("failed to initialize gemini client", "error", err)
			os.Exit(1)
		}
	}

	conversations, sessions, closeStore, err := openStores(ctx, cfg)
	if err != nil {
		log.Error("failed to initialize storage", "backend", cfg.StorageBackend, "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := closeStore(); err != nil {
			log.Error("failed to close storage", "error", err)
		}
	}()
	log.Info("storage ready", "backend", cfg.StorageBackend)

	rt := router.NewForWorkspace(ws, docenc.New())
	hub := brainstorm.NewHub()

	handler := httpadapter.NewServer(httpadapter.Deps{
		Directory: ws,
		Conversations: conversation.NewService(gateway, conversations, ws, rt, conversation.Options{
			HistoryLimit: cfg.HistoryLimit,
		}),
		Brainstorms: brainstorm.NewService(gateway, sessions, ws, rt, hub, brainstorm.Options{
			Pacing:       cfg.ReplyPacing,
			HistoryLimit: cfg.HistoryLimit,
		}),
		Minutes: minutes.NewService(ws),
		Hub:     hub,
	})

	// No WriteTimeout: brainstorm streams stay open for the whole meeting.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.Info("staffdesk api listening", "addr", srv.Addr, "mode", cfg.Mode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	stop()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("forced shutdown", "error", err)
	}
	log.Info("server stopped")
}

// openStores builds the conversation and session stores for the configured
// backend. One store value implements both interfaces.
func openStores(ctx context.Context, cfg *config.Config) (domain.ConversationStore, domain.SessionStore, func() error, error) {
	switch cfg.StorageBackend {
	case config.StorageFirestore:
		fs, err := firestorestore.NewStore(ctx, cfg.GCPProjectID)
		if err != nil {
			return nil, nil, nil, err
		}
		return fs, fs, fs.Close, nil

	case config.StorageSQLite:
		db, err := sqlitestore.New(cfg.DBPath)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := db.Ping(ctx); err != nil {
			_ = db.Close()
			return nil, nil, nil, fmt.Errorf("sqlite health check: %w", err)
		}
		return db, db, db.Close, nil

	default:
		return memstore.NewConversationStore(), memstore.NewSessionStore(), func() error { return nil }, nil
	}
}
