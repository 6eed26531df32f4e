package main

import (
	"context"
	"log"
	"net/http"
	"os"
	osignal "os/signal"
	"syscall"
	"time"

	"crypto-pulse/internal/bot"
	"crypto-pulse/internal/cache"
	"crypto-pulse/internal/collector"
	"crypto-pulse/internal/config"
	"crypto-pulse/internal/db"
	"crypto-pulse/internal/handler"
	"crypto-pulse/internal/job"
	"crypto-pulse/internal/llm"
	"crypto-pulse/internal/pipeline"
	"crypto-pulse/internal/provider"
	"crypto-pulse/internal/repository"
	"crypto-pulse/internal/service"
	"crypto-pulse/internal/signal"
	"crypto-pulse/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	_ "crypto-pulse/docs"
)

var (
	loadEnvFunc            = godotenv.Load
	loadConfigFunc         = config.Load
	initPostgresFunc       = db.InitPostgres
	initRedisFunc          = cache.InitRedis
	initTracerFunc         = tracing.InitTracer
	startSchedulerFunc     = func(s *job.AnalysisScheduler, ctx context.Context) { go s.Start(ctx) }
	startTelegramBotFunc   = bot.StartTelegramBot
	newRouterFunc          = gin.Default
	setupSignalNotify      = osignal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

// @title           Crypto Pulse API
// @version         1.0
// @description     Scheduled crypto data aggregation and trading-signal generation.

// @host      localhost:8080
// @BasePath  /
func main() {
	loadEnvFunc()

	cfg := loadConfigFunc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init Postgres and Redis
	os.Setenv("DATABASE_URL", cfg.DatabaseURL)
	os.Setenv("REDIS_URL", cfg.RedisURL)
	initPostgresFunc(ctx)
	initRedisFunc(ctx)

	// Init tracing
	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("error shutting down tracer provider: %v", err)
		}
	}()

	// Create repositories and run migrations
	signalRepo := repository.NewSignalRepository(db.Pool, tracer)
	jobRepo := repository.NewJobRepository(db.Pool, tracer)
	if db.Pool == nil {
		log.Println("persistence disabled: analysis runs will fail until DATABASE_URL is set")
	} else {
		if err := signalRepo.RunMigrations(ctx); err != nil {
			log.Fatalf("failed to run signal migrations: %v", err)
		}
		if err := jobRepo.RunMigrations(ctx); err != nil {
			log.Fatalf("failed to run job migrations: %v", err)
		}
	}

	// Providers, the language model and the collectors
	timeout := time.Duration(cfg.ProviderTimeoutSecs) * time.Second
	freshness := time.Duration(cfg.CacheTTLSecs) * time.Second
	model := llm.New(tracer, cfg.OpenAIAPIKey, cfg.OpenAIModel, timeout)

	prices := collector.NewPriceCollector(tracer, provider.NewCoinGeckoProvider(tracer, timeout), freshness)
	news := collector.NewNewsCollector(tracer, provider.NewNewsAPIProvider(tracer, cfg.NewsAPIKey, timeout), freshness)
	sentiment := collector.NewSentimentCollector(tracer, model, freshness)
	onChain := collector.NewOnChainCollector(tracer, provider.NewGlassnodeProvider(tracer, cfg.GlassnodeAPIKey, timeout), freshness)
	devActivity := collector.NewDevActivityCollector(tracer, provider.NewGitHubProvider(tracer, cfg.GitHubToken, timeout), freshness)
	fearGreed := collector.NewFearGreedCollector(tracer, provider.NewFearGreedProvider(tracer, timeout), freshness)

	// Pipeline and its scheduled trigger
	synthesizer := signal.NewSynthesizer(tracer, model)
	orchestrator := pipeline.NewOrchestrator(tracer, jobRepo, signalRepo, pipeline.Collectors{
		Prices:      prices,
		News:        news,
		Sentiment:   sentiment,
		OnChain:     onChain,
		DevActivity: devActivity,
		FearGreed:   fearGreed,
	}, synthesizer)

	scheduler := job.NewAnalysisScheduler(tracer, orchestrator, cfg.AnalyzePollSecs, cfg.AnalyzeSerializeRuns)
	startSchedulerFunc(scheduler, ctx)

	// Read-side service and Telegram bot
	marketData := service.NewMarketDataService(tracer, prices, news, onChain, fearGreed, cache.Client, freshness)
	os.Setenv("TELEGRAM_BOT_TOKEN", cfg.TelegramBotToken)
	startTelegramBotFunc(marketData, signalRepo, orchestrator)

	// Handlers and routes
	h := handler.New(tracer, orchestrator, jobRepo, signalRepo, marketData)

	r := newRouterFunc()
	r.Use(otelgin.Middleware("crypto-pulse"))
	r.Use(handler.APIKeyAuth(cfg.APIAuthKey))

	h.RegisterRoutes(r)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    ":8080",
		Handler: r,
	}

	go func() {
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Println("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
