package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/medbot-ai/medbot/internal/adapter/ai"
	"github.com/medbot-ai/medbot/internal/adapter/extract"
	"github.com/medbot-ai/medbot/internal/adapter/store"
	"github.com/medbot-ai/medbot/internal/chunker"
	"github.com/medbot-ai/medbot/internal/handler"
	"github.com/medbot-ai/medbot/internal/mcp"
	"github.com/medbot-ai/medbot/internal/middleware"
	"github.com/medbot-ai/medbot/internal/port"
	"github.com/medbot-ai/medbot/internal/service"
	"github.com/medbot-ai/medbot/pkg/config"

	_ "github.com/lib/pq"
)

func main() {
	// ── Load .env file ───────────────────────────────────────────────────
	_ = godotenv.Load() // silently ignore if .env doesn't exist

	// ── Configuration ────────────────────────────────────────────────────
	cfg := config.Load()

	slog.Info("🚀 Starting MedBot AI",
		"port", cfg.Port,
		"vector_backend", cfg.VectorBackend,
		"ai_provider", cfg.AIProvider,
		"mcp_enabled", cfg.MCPEnabled,
	)

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		slog.Error("failed to create upload directory", "error", err)
		os.Exit(1)
	}

	// ── Vector storage ───────────────────────────────────────────────────
	var vectorStore port.VectorStore
	var pgStore *store.PostgresStore
	var auditWriter middleware.AuditWriter = middleware.NopAuditWriter{}

	switch cfg.VectorBackend {
	case "memory":
		slog.Warn("using in-memory vector store; documents will not survive a restart")
		vectorStore = store.NewMemoryStore()
	default:
		var err error
		pgStore, err = store.NewPostgresStore(cfg.DatabaseURL, cfg.EmbeddingDimension)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		vectorStore = store.NewVectorStore(pgStore)
		auditWriter = pgStore
	}
	defer vectorStore.Close()

	// ── AI provider ──────────────────────────────────────────────────────
	var aiProvider port.AIProvider
	switch cfg.AIProvider {
	case "openai":
		aiProvider = ai.NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.OpenAIEmbedModel, cfg.OpenAIChatModel)
	case "none":
		slog.Warn("no AI provider configured; chat will use fallback responses")
	default:
		aiProvider = ai.NewOllamaProvider(
			ai.OllamaEndpointConfig{
				BaseURL: cfg.OllamaEmbedURL,
				Model:   cfg.OllamaEmbedModel,
				Token:   cfg.OllamaEmbedToken,
			},
			ai.OllamaEndpointConfig{
				BaseURL: cfg.OllamaChatURL,
				Model:   cfg.OllamaChatModel,
				Token:   cfg.OllamaChatToken,
			},
		)
	}

	// ── Services ─────────────────────────────────────────────────────────
	splitter := chunker.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)
	extractor := extract.NewPDFExtractor()

	indexService := service.NewIndexService(aiProvider, vectorStore, cfg.AITimeout)
	ragService := service.NewRAGService(indexService)
	sessions := service.NewSessionStore(cfg.MaxSessions, cfg.MaxHistory)
	composer := service.NewComposer(aiProvider, service.ComposerOptions{
		ContextCharLimit: cfg.ContextCharLimit,
		SnippetCharLimit: cfg.SnippetCharLimit,
		HistoryWindow:    cfg.HistoryWindow,
		Timeout:          cfg.AITimeout,
	})

	if n, err := indexService.Count(context.Background()); err == nil {
		slog.Info("document index ready", "chunks", n)
	}

	// ── Fiber App ────────────────────────────────────────────────────────
	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute,
		BodyLimit:    cfg.MaxUploadMB * 1024 * 1024,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: []string{cfg.FrontendURL},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
	}))

	// Audit middleware (logs all requests)
	app.Use(middleware.AuditMiddleware(auditWriter))

	// ── Routes ───────────────────────────────────────────────────────────
	app.Get("/api/v1/health", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"app":     cfg.AppName,
			"version": "1.0.0",
		})
	})

	api := app.Group("/api/v1")

	documentHandler := handler.NewDocumentHandler(extractor, splitter, indexService, cfg.UploadDir)
	documentHandler.Register(api)

	chatHandler := handler.NewChatHandler(ragService, composer, sessions, cfg.RetrievalTopK, cfg.ScoreThreshold)
	chatHandler.Register(api)

	if pgStore != nil {
		auditHandler := handler.NewAuditHandler(pgStore)
		auditHandler.Register(api)
	}

	// ── MCP Server (separate port) ───────────────────────────────────────
	if cfg.MCPEnabled {
		mcpServer := mcp.NewServer(ragService, composer, sessions, cfg.MCPPort, cfg.RetrievalTopK, cfg.ScoreThreshold)
		go func() {
			if err := mcpServer.Start(); err != nil {
				slog.Error("MCP server failed", "error", err)
			}
		}()
	}

	// ── Start ────────────────────────────────────────────────────────────
	slog.Info("🌐 Fiber listening", "port", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
