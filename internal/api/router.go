package api

import (
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonathan-kellerai/brennerbot/internal/api/handlers"
	mw "github.com/jonathan-kellerai/brennerbot/internal/api/middleware"
	"github.com/jonathan-kellerai/brennerbot/internal/buildconfig"
	"github.com/jonathan-kellerai/brennerbot/internal/config"
	"github.com/jonathan-kellerai/brennerbot/internal/domain"
	"github.com/jonathan-kellerai/brennerbot/internal/embedding"
	"github.com/jonathan-kellerai/brennerbot/internal/mail"
	"github.com/jonathan-kellerai/brennerbot/internal/service"
	"github.com/jonathan-kellerai/brennerbot/internal/store"
	"go.uber.org/zap"
)

// App holds the router and request metrics for lifecycle management.
type App struct {
	Router    *chi.Mux
	startTime time.Time
	metrics   *mw.MetricsCollector
}

func NewApp(db *pgxpool.Pool, logger *zap.Logger) *App {
	// Stores
	researcherStore := store.NewResearcherStore(db)
	sessionStore := store.NewSessionStore(db)
	corpusStore := store.NewCorpusStore(db)

	// External clients
	var mailClient domain.MailClient
	if apiKey := config.AgentMailAPIKey(); apiKey != "" {
		mailClient = mail.NewAgentMailClient(config.AgentMailBaseURL(), apiKey)
		logger.Info("Agent Mail client initialized", zap.String("base_url", config.AgentMailBaseURL()))
	} else {
		mailClient = mail.NewMockClient()
		logger.Warn("AGENTMAIL_API_KEY not set, using mock mail client")
	}

	embeddingClient, err := embedding.NewClient(config.EmbeddingProvider(), config.EmbeddingAPIKey())
	if err != nil {
		logger.Warn("Embedding client initialization failed", zap.String("provider", config.EmbeddingProvider()), zap.Error(err))
		embeddingClient = embedding.NewMockClient()
	} else {
		logger.Info("Embedding client initialized", zap.String("provider", config.EmbeddingProvider()))
	}

	// Services
	sessionSvc := service.NewSessionService(sessionStore, logger)
	analyticsSvc := service.NewAnalyticsService(sessionStore, logger)
	tribunalSvc := service.NewTribunalService(mailClient, sessionStore, config.AgentMailProject(), logger)
	corpusSvc := service.NewCorpusService(corpusStore, embeddingClient, logger)

	// Handlers
	researcherHandler := handlers.NewResearcherHandler(researcherStore)
	sessionHandler := handlers.NewSessionHandler(sessionSvc)
	confidenceHandler := handlers.NewConfidenceHandler()
	whatIfHandler := handlers.NewWhatIfHandler()
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsSvc)
	tribunalHandler := handlers.NewTribunalHandler(tribunalSvc)
	corpusHandler := handlers.NewCorpusHandler(corpusSvc)

	r := chi.NewRouter()

	app := &App{
		Router:    r,
		startTime: time.Now(),
		metrics:   mw.NewMetricsCollector(),
	}

	// Global middleware (order matters)
	r.Use(mw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(app.metrics.Middleware)
	r.Use(mw.Logging(logger))
	r.Use(middleware.Recoverer)
	r.Use(mw.RateLimit(config.RateLimitRPS(), config.RateLimitBurst()))

	// Health (no auth)
	r.Get("/health", healthHandler(db))

	// Metrics (no auth)
	r.Get("/metrics", app.metricsHandler())

	// Researcher creation (no auth, bootstrap endpoint)
	r.Post("/v1/researchers", researcherHandler.Create)

	// Authenticated routes
	r.Route("/v1", func(r chi.Router) {
		r.Use(mw.APIKeyAuth(researcherStore))

		// Sessions
		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", sessionHandler.Create)
			r.Get("/", sessionHandler.List)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", sessionHandler.GetByID)
				r.Post("/phase", sessionHandler.AdvancePhase)
				r.Post("/hypotheses", sessionHandler.StateHypothesis)
				r.Post("/hypotheses/{cardID}/revise", sessionHandler.ReviseHypothesis)
				r.Post("/hypotheses/{cardID}/archive", sessionHandler.ArchiveHypothesis)
				r.Post("/operators", sessionHandler.RecordOperator)
				r.Post("/tests", sessionHandler.RecordTest)
				r.Post("/tribunal", tribunalHandler.Dispatch)
			})
		})

		// Tribunal verdicts by thread
		r.Get("/tribunal/threads/{threadID}", tribunalHandler.Verdicts)

		// Confidence engine
		r.Post("/confidence/apply", confidenceHandler.Apply)

		// What-if explorer
		r.Route("/whatif", func(r chi.Router) {
			r.Post("/analyze-test", whatIfHandler.AnalyzeTest)
			r.Post("/rank", whatIfHandler.RankTests)
			r.Post("/scenarios", whatIfHandler.BuildScenario)
			r.Post("/scenarios/analyze", whatIfHandler.AnalyzeScenario)
		})

		// Analytics
		r.Get("/analytics", analyticsHandler.Get)

		// Corpus
		r.Route("/corpus", func(r chi.Router) {
			r.Get("/search", corpusHandler.Search)
			r.Post("/excerpts", corpusHandler.Ingest)
		})
	})

	return app
}

// NewRouter returns just the chi.Mux.
func NewRouter(db *pgxpool.Pool, logger *zap.Logger) *chi.Mux {
	return NewApp(db, logger).Router
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
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status":  "ok",
			"version": buildconfig.Version(),
			"commit":  buildconfig.Commit(),
		})
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
			"request_count":  app.metrics.Requests(),
			"error_count":    app.metrics.Errors(),
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
	_ domain.ResearcherStore = (*store.ResearcherStore)(nil)
	_ domain.SessionStore    = (*store.SessionStore)(nil)
	_ domain.CorpusStore     = (*store.CorpusStore)(nil)
	_ domain.MailClient      = (*mail.AgentMailClient)(nil)
	_ domain.MailClient      = (*mail.MockClient)(nil)
	_ domain.EmbeddingClient = (*embedding.OpenAIClient)(nil)
	_ domain.EmbeddingClient = (*embedding.MockClient)(nil)
)
