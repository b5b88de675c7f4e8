package api

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/ideialab/maieutica/internal/agent"
	"github.com/ideialab/maieutica/internal/api/handlers"
	mw "github.com/ideialab/maieutica/internal/api/middleware"
	"github.com/ideialab/maieutica/internal/config"
	"github.com/ideialab/maieutica/internal/domain"
	"github.com/ideialab/maieutica/internal/embedding"
	"github.com/ideialab/maieutica/internal/eventlog"
	"github.com/ideialab/maieutica/internal/llm"
	"github.com/ideialab/maieutica/internal/service"
	"github.com/ideialab/maieutica/internal/store"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// App holds the router and wiring for lifecycle management.
type App struct {
	Router       *chi.Mux
	Coordinator  *agent.Coordinator
	startTime    time.Time
	requestCount atomic.Int64
	errorCount   atomic.Int64
}

func NewApp(db *pgxpool.Pool, logger *zap.Logger) (*App, error) {
	// Stores
	ideaStore := store.NewIdeaStore(db)
	argumentStore := store.NewArgumentStore(db)
	checkpointStore := store.NewCheckpointStore(db)

	events, err := eventlog.NewFileLog(config.EventLogDir(), logger)
	if err != nil {
		return nil, err
	}

	// External clients via provider factory
	var chatClient domain.ChatClient
	var embeddingClient domain.EmbeddingClient

	llmProvider := config.LLMProvider()
	embeddingProvider := config.EmbeddingProvider()

	chatClient, err = llm.NewClient(llmProvider, config.LLMAPIKey(), config.LLMModel())
	if err != nil {
		logger.Warn("LLM client initialization failed", zap.String("provider", llmProvider), zap.Error(err))
		chatClient = llm.NewMockClient()
	} else {
		logger.Info("LLM client initialized", zap.String("provider", llmProvider))
		chatClient = llm.WithRetry(chatClient, logger)
	}

	embeddingClient, err = embedding.NewClient(embeddingProvider, config.EmbeddingAPIKey())
	if err != nil {
		logger.Warn("Embedding client initialization failed", zap.String("provider", embeddingProvider), zap.Error(err))
	} else if embeddingClient != nil {
		logger.Info("Embedding client initialized", zap.String("provider", embeddingProvider))
	}

	// Services
	ideaSvc := service.NewIdeaService(ideaStore, argumentStore, embeddingClient, logger)
	maturitySvc := service.NewMaturityService(chatClient, config.MaturityConfidenceThreshold(), logger)
	snapshotSvc := service.NewSnapshotService(ideaStore, argumentStore, maturitySvc, embeddingClient, events, logger)

	// Agents
	orchestrator := agent.NewOrchestrator(chatClient, events, snapshotSvc, logger)
	orchestrator.SetObserver(agent.NewLoggingObserver(logger))
	structurer := agent.NewStructurer(chatClient, events, logger)
	methodologist := agent.NewMethodologist(chatClient, events, logger)
	graph := agent.NewGraph(orchestrator, structurer, methodologist, checkpointStore, logger)
	coordinator := agent.NewCoordinator(graph, checkpointStore, events, logger)

	// Handlers
	conversationHandler := handlers.NewConversationHandler(coordinator)
	ideaHandler := handlers.NewIdeaHandler(ideaSvc)
	sessionHandler := handlers.NewSessionHandler(events)

	r := chi.NewRouter()

	app := &App{
		Router:      r,
		Coordinator: coordinator,
		startTime:   time.Now(),
	}

	metricsCollector := mw.NewMetricsCollector(&app.requestCount, &app.errorCount)

	// Global middleware (order matters)
	r.Use(mw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(metricsCollector.Middleware)
	r.Use(mw.Logging(logger))
	r.Use(middleware.Recoverer)
	r.Use(mw.RateLimit(config.RateLimitRPS(), config.RateLimitBurst()))

	// Health (no auth)
	r.Get("/health", healthHandler(db))

	// Metrics (no auth)
	r.Get("/metrics", app.metricsHandler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(mw.APIKeyAuth(config.APIKey()))

		// Conversations
		r.Route("/conversations", func(r chi.Router) {
			r.Post("/", conversationHandler.Start)
			r.Get("/", conversationHandler.List)
			r.Route("/{sessionID}", func(r chi.Router) {
				r.Get("/", conversationHandler.GetState)
				r.Post("/messages", conversationHandler.Message)
			})
		})

		// Ideas and their argument history
		r.Route("/ideas", func(r chi.Router) {
			r.Post("/", ideaHandler.Create)
			r.Get("/", ideaHandler.List)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", ideaHandler.GetByID)
				r.Patch("/", ideaHandler.Update)
				r.Get("/arguments", ideaHandler.Arguments)
				r.Get("/related", ideaHandler.Related)
			})
		})

		r.Get("/arguments/{id}", ideaHandler.Argument)

		// Session event logs
		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", sessionHandler.List)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", sessionHandler.Summary)
				r.Get("/events", sessionHandler.Events)
				r.Delete("/", sessionHandler.Clear)
			})
		})
	})

	return app, nil
}

func healthHandler(db *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(r.Context()); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "error", "error": err.Error()})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}

func (app *App) metricsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)

		uptime := time.Since(app.startTime)

		response := map[string]any{
			"uptime_seconds": uptime.Seconds(),
			"uptime_human":   uptime.Round(time.Second).String(),
			"request_count":  app.requestCount.Load(),
			"error_count":    app.errorCount.Load(),
			"goroutines":     runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb":       float64(memStats.Alloc) / 1024 / 1024,
				"total_alloc_mb": float64(memStats.TotalAlloc) / 1024 / 1024,
				"sys_mb":         float64(memStats.Sys) / 1024 / 1024,
				"num_gc":         memStats.NumGC,
			},
			"go_version": runtime.Version(),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}

// Ensure stores and clients satisfy interfaces at compile time.
var (
	_ domain.IdeaStore       = (*store.IdeaStore)(nil)
	_ domain.ArgumentStore   = (*store.ArgumentStore)(nil)
	_ domain.CheckpointStore = (*store.CheckpointStore)(nil)
	_ domain.EventLog        = (*eventlog.FileLog)(nil)
	_ domain.EmbeddingClient = (*embedding.OpenAIClient)(nil)
	_ domain.EmbeddingClient = (*embedding.MockClient)(nil)
	_ domain.ChatClient      = (*llm.OpenAIClient)(nil)
	_ domain.ChatClient      = (*llm.AnthropicClient)(nil)
	_ domain.ChatClient      = (*llm.GeminiClient)(nil)
	_ domain.ChatClient      = (*llm.MockClient)(nil)
)
