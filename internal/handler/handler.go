package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"crypto-pulse/internal/domain"
	"crypto-pulse/internal/provider"
)

type PipelineTrigger interface {
	Begin(ctx context.Context) (*domain.AnalysisJob, error)
	Execute(ctx context.Context, job *domain.AnalysisJob) error
}

type JobGetter interface {
	GetJob(ctx context.Context, id int64) (*domain.AnalysisJob, error)
}

type SignalLister interface {
	ListSignals(ctx context.Context, limit int) ([]domain.TradingSignal, error)
}

type MarketData interface {
	Prices(ctx context.Context) []domain.AssetQuote
	News(ctx context.Context, limit int) []domain.NewsArticle
	OnChain(ctx context.Context, symbol string) (*domain.OnChainSnapshot, error)
	FearGreed(ctx context.Context) *provider.FearGreedPoint
}

type Handler struct {
	tracer   trace.Tracer
	pipeline PipelineTrigger
	jobs     JobGetter
	signals  SignalLister
	market   MarketData
}

func New(tracer trace.Tracer, pipeline PipelineTrigger, jobs JobGetter, signals SignalLister, market MarketData) *Handler {
	return &Handler{
		tracer:   tracer,
		pipeline: pipeline,
		jobs:     jobs,
		signals:  signals,
		market:   market,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)
	r.POST("/run", h.RunAnalysis)
	r.GET("/jobs/:id", h.GetJob)
	r.GET("/signals", h.GetSignals)
	r.GET("/prices", h.GetPrices)
	r.GET("/news", h.GetNews)
	r.GET("/onchain", h.GetOnChain)
	r.GET("/feargreed", h.GetFearGreed)
}

// respond wraps every successful payload in the common envelope.
func respond(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{
		"success":   true,
		"data":      data,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func fail(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}
